package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_IsActive(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{
			name: "active within period",
			sub:  Subscription{Status: SubscriptionStatusActive, StartDate: past, EndDate: &future},
			want: true,
		},
		{
			name: "active without end date",
			sub:  Subscription{Status: SubscriptionStatusActive, StartDate: past},
			want: true,
		},
		{
			name: "end date equals now is no longer active",
			sub:  Subscription{Status: SubscriptionStatusActive, StartDate: past, EndDate: &now},
			want: false,
		},
		{
			name: "end date one second after now is still active",
			sub: func() Subscription {
				end := now.Add(time.Second)
				return Subscription{Status: SubscriptionStatusActive, StartDate: past, EndDate: &end}
			}(),
			want: true,
		},
		{
			name: "start date equals now is already active",
			sub:  Subscription{Status: SubscriptionStatusActive, StartDate: now},
			want: true,
		},
		{
			name: "not started yet",
			sub:  Subscription{Status: SubscriptionStatusActive, StartDate: future},
			want: false,
		},
		{
			name: "trial status is not active",
			sub:  Subscription{Status: SubscriptionStatusTrial, StartDate: past},
			want: false,
		},
		{
			name: "canceled is not active",
			sub:  Subscription{Status: SubscriptionStatusCanceled, StartDate: past, EndDate: &future},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActive(now))
		})
	}
}

func TestSubscription_IsTrial(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 7)
	past := now.AddDate(0, 0, -1)

	assert.True(t, (&Subscription{Status: SubscriptionStatusTrial, TrialEndDate: &future}).IsTrial(now))
	assert.False(t, (&Subscription{Status: SubscriptionStatusTrial, TrialEndDate: &past}).IsTrial(now))
	assert.False(t, (&Subscription{Status: SubscriptionStatusTrial}).IsTrial(now))
	assert.False(t, (&Subscription{Status: SubscriptionStatusActive, TrialEndDate: &future}).IsTrial(now))
}

func TestSubscription_DaysUntilRenewal(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("counts full days until period end", func(t *testing.T) {
		end := now.AddDate(0, 0, 10)
		sub := Subscription{AutoRenew: true, CurrentPeriodEnd: &end}

		days := sub.DaysUntilRenewal(now)
		require.NotNil(t, days)
		assert.Equal(t, 10, *days)
	})

	t.Run("overdue period clamps to zero", func(t *testing.T) {
		end := now.AddDate(0, 0, -3)
		sub := Subscription{AutoRenew: true, CurrentPeriodEnd: &end}

		days := sub.DaysUntilRenewal(now)
		require.NotNil(t, days)
		assert.Equal(t, 0, *days)
	})

	t.Run("nil without auto renew", func(t *testing.T) {
		end := now.AddDate(0, 0, 10)
		sub := Subscription{AutoRenew: false, CurrentPeriodEnd: &end}
		assert.Nil(t, sub.DaysUntilRenewal(now))
	})

	t.Run("nil for indefinite subscription", func(t *testing.T) {
		sub := Subscription{AutoRenew: true}
		assert.Nil(t, sub.DaysUntilRenewal(now))
	})
}

func TestSubscription_Cancel(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("at period end keeps subscription active", func(t *testing.T) {
		sub := Subscription{Status: SubscriptionStatusActive, AutoRenew: true}
		sub.Cancel(now, true)

		assert.Equal(t, SubscriptionStatusActive, sub.Status)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.False(t, sub.AutoRenew)
		require.NotNil(t, sub.CanceledAt)
		assert.Equal(t, now, *sub.CanceledAt)
		assert.Nil(t, sub.EndDate)
	})

	t.Run("immediate cancel closes subscription", func(t *testing.T) {
		sub := Subscription{Status: SubscriptionStatusActive}
		sub.Cancel(now, false)

		assert.Equal(t, SubscriptionStatusCanceled, sub.Status)
		require.NotNil(t, sub.EndDate)
		assert.Equal(t, now, *sub.EndDate)
	})
}

func TestSubscription_Renew(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("shifts billing period", func(t *testing.T) {
		sub := Subscription{Status: SubscriptionStatusActive}
		sub.Renew(now, 30)

		assert.Equal(t, now, sub.CurrentPeriodStart)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.Equal(t, now.AddDate(0, 0, 30), *sub.CurrentPeriodEnd)
	})

	t.Run("reactivates expired subscription", func(t *testing.T) {
		end := now.AddDate(0, 0, -1)
		sub := Subscription{Status: SubscriptionStatusExpired, EndDate: &end}
		sub.Renew(now, 30)

		assert.Equal(t, SubscriptionStatusActive, sub.Status)
		require.NotNil(t, sub.EndDate)
		assert.Equal(t, now.AddDate(0, 0, 30), *sub.EndDate)
	})
}

func TestSubscription_Expire(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	sub := Subscription{Status: SubscriptionStatusActive, AutoRenew: true}
	sub.Expire(now)

	assert.Equal(t, SubscriptionStatusExpired, sub.Status)
	assert.False(t, sub.AutoRenew)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, now, *sub.EndDate)
}

func TestSubscription_PauseResume(t *testing.T) {
	sub := Subscription{Status: SubscriptionStatusActive, CancelAtPeriodEnd: true, AutoRenew: false}

	sub.Pause()
	assert.Equal(t, SubscriptionStatusPaused, sub.Status)

	sub.Resume()
	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.False(t, sub.CancelAtPeriodEnd)
	assert.True(t, sub.AutoRenew)
}

func TestSubscription_UpdatePaymentStatus(t *testing.T) {
	t.Run("failed payment marks subscription past due", func(t *testing.T) {
		sub := Subscription{Status: SubscriptionStatusActive, PaymentStatus: PaymentStatusPaid}
		sub.UpdatePaymentStatus(PaymentStatusFailed)

		assert.Equal(t, PaymentStatusFailed, sub.PaymentStatus)
		assert.Equal(t, SubscriptionStatusPastDue, sub.Status)
	})

	t.Run("paid payment does not touch status", func(t *testing.T) {
		sub := Subscription{Status: SubscriptionStatusActive, PaymentStatus: PaymentStatusPending}
		sub.UpdatePaymentStatus(PaymentStatusPaid)

		assert.Equal(t, PaymentStatusPaid, sub.PaymentStatus)
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
	})
}

func TestSubscription_StartTrial(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	sub := Subscription{Status: SubscriptionStatusPending}
	sub.StartTrial(now, 14)

	assert.Equal(t, SubscriptionStatusTrial, sub.Status)
	require.NotNil(t, sub.TrialEndDate)
	assert.Equal(t, now.AddDate(0, 0, 14), *sub.TrialEndDate)
}
