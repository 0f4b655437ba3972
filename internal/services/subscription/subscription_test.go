package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magelanzzz/subscription-manager/internal/errs"
	"github.com/magelanzzz/subscription-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) UpdateSubscription(ctx context.Context, sub models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *RepoMock) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) FindCurrentSubscription(ctx context.Context, userID int, now time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) FindSubscriptionByStatus(ctx context.Context, userID int, status models.SubscriptionStatus) (*models.Subscription, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetActiveSubscriptionWithPlan(ctx context.Context, userID int, now time.Time) (*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionWithPlan), args.Error(1)
}
func (m *RepoMock) ListSubscriptionHistory(ctx context.Context, userID int, filter models.HistoryFilter, limit, offset int) ([]*models.SubscriptionWithPlan, int, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.SubscriptionWithPlan), args.Int(1), args.Error(2)
}
func (m *RepoMock) ListExpiringSubscriptions(ctx context.Context, now time.Time, daysAhead int) ([]*models.SubscriptionWithPlan, error) {
	args := m.Called(ctx, now, daysAhead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionWithPlan), args.Error(1)
}
func (m *RepoMock) GetSubscriptionStats(ctx context.Context, now time.Time) (*models.SubscriptionStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionStats), args.Error(1)
}
func (m *RepoMock) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *RepoMock) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}
func (m *CacheMock) InvalidateByPrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func expectInvalidation(c *CacheMock) {
	c.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Once()
	c.On("InvalidateByPrefix", mock.Anything, mock.Anything).Return(nil).Once()
}

func activePlan(id int, interval models.Interval) *models.Plan {
	return &models.Plan{
		ID:       id,
		Name:     "Pro",
		Price:    990,
		Interval: interval,
		Status:   models.PlanStatusActive,
	}
}

func TestService_Subscribe(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummySubscribe
		setupMocks func(r *RepoMock, c *CacheMock)
		wantStatus models.SubscriptionStatus
		wantErr    error
	}{
		{
			name: "success active subscription",
			req:  models.DummySubscribe{PlanID: 1},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.UserID == 10 &&
						sub.PlanID == 1 &&
						sub.Status == models.SubscriptionStatusActive &&
						sub.PaymentStatus == models.PaymentStatusPaid &&
						sub.Quantity == 1 &&
						sub.AutoRenew
				})).Return(42, nil).Once()
				expectInvalidation(c)
			},
			wantStatus: models.SubscriptionStatusActive,
		},
		{
			name: "trial days start trial period",
			req:  models.DummySubscribe{PlanID: 1, TrialDays: 14},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.Status == models.SubscriptionStatusTrial &&
							sub.TrialEndDate != nil &&
							sub.PaymentStatus == models.PaymentStatusPending
				})).Return(43, nil).Once()
				expectInvalidation(c)
			},
			wantStatus: models.SubscriptionStatusTrial,
		},
		{
			name: "inactive plan rejected",
			req:  models.DummySubscribe{PlanID: 2},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				plan := activePlan(2, models.IntervalMonthly)
				plan.Status = models.PlanStatusInactive
				r.On("GetPlan", mock.Anything, 2).Return(plan, nil).Once()
			},
			wantErr: errs.ErrPlanNotActive,
		},
		{
			name: "existing subscription rejected",
			req:  models.DummySubscribe{PlanID: 1},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).
					Return(&models.Subscription{ID: 5, Status: models.SubscriptionStatusActive}, nil).Once()
			},
			wantErr: errs.ErrDuplicateActiveSubscription,
		},
		{
			name: "unique index race maps to duplicate error",
			req:  models.DummySubscribe{PlanID: 1},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(0, errs.ErrDuplicateActiveSubscription).Once()
			},
			wantErr: errs.ErrDuplicateActiveSubscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, 300*time.Second, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.Subscribe(context.Background(), 10, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got.Status)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	tests := []struct {
		name        string
		atPeriodEnd bool
		setupMocks  func(r *RepoMock, c *CacheMock)
		check       func(t *testing.T, sub *models.Subscription)
		wantErr     error
	}{
		{
			name:        "cancel at period end keeps subscription active",
			atPeriodEnd: true,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).
					Return(&models.Subscription{ID: 1, UserID: 10, Status: models.SubscriptionStatusActive, AutoRenew: true}, nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.Status == models.SubscriptionStatusActive &&
						sub.CancelAtPeriodEnd &&
						!sub.AutoRenew &&
						sub.CanceledAt != nil
				})).Return(nil).Once()
				expectInvalidation(c)
			},
			check: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
				assert.True(t, sub.CancelAtPeriodEnd)
			},
		},
		{
			name:        "immediate cancel closes subscription",
			atPeriodEnd: false,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).
					Return(&models.Subscription{ID: 2, UserID: 10, Status: models.SubscriptionStatusActive}, nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.Status == models.SubscriptionStatusCanceled && sub.EndDate != nil
				})).Return(nil).Once()
				expectInvalidation(c)
			},
			check: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
			},
		},
		{
			name:        "trial subscription can be canceled",
			atPeriodEnd: false,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				trialEnd := time.Now().UTC().AddDate(0, 0, 7)
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).
					Return(&models.Subscription{ID: 3, UserID: 10, Status: models.SubscriptionStatusTrial, TrialEndDate: &trialEnd}, nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					return sub.Status == models.SubscriptionStatusCanceled
				})).Return(nil).Once()
				expectInvalidation(c)
			},
			check: func(t *testing.T, sub *models.Subscription) {
				assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
			},
		},
		{
			name:        "no current subscription",
			atPeriodEnd: true,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
			},
			wantErr: errs.ErrNoActiveSubscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, 300*time.Second, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.Cancel(context.Background(), 10, tt.atPeriodEnd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				tt.check(t, got)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Upgrade(t *testing.T) {
	current := func() *models.Subscription {
		return &models.Subscription{ID: 1, UserID: 10, PlanID: 1, Status: models.SubscriptionStatusActive}
	}

	tests := []struct {
		name       string
		req        models.DummyUpgrade
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "success changes plan and resets period",
			req:  models.DummyUpgrade{PlanID: 2},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(current(), nil).Once()
				r.On("GetPlan", mock.Anything, 2).Return(activePlan(2, models.IntervalAnnual), nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
					if sub.PlanID != 2 || sub.CurrentPeriodEnd == nil {
						return false
					}
					days := int(sub.CurrentPeriodEnd.Sub(sub.CurrentPeriodStart).Hours() / 24)
					return days == 365
				})).Return(nil).Once()
				expectInvalidation(c)
			},
		},
		{
			name: "same plan rejected",
			req:  models.DummyUpgrade{PlanID: 1},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(current(), nil).Once()
			},
			wantErr: errs.ErrSamePlan,
		},
		{
			name: "inactive target plan rejected",
			req:  models.DummyUpgrade{PlanID: 3},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(current(), nil).Once()
				plan := activePlan(3, models.IntervalMonthly)
				plan.Status = models.PlanStatusDeprecated
				r.On("GetPlan", mock.Anything, 3).Return(plan, nil).Once()
			},
			wantErr: errs.ErrTargetPlanInactive,
		},
		{
			name: "no current subscription",
			req:  models.DummyUpgrade{PlanID: 2},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
			},
			wantErr: errs.ErrNoActiveSubscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, 300*time.Second, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.Upgrade(context.Background(), 10, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.req.PlanID, got.PlanID)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_GetActive(t *testing.T) {
	withPlan := &models.SubscriptionWithPlan{
		Subscription: models.Subscription{ID: 1, UserID: 10, Status: models.SubscriptionStatusActive},
		Plan:         activePlan(1, models.IntervalMonthly),
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "cache hit skips repository",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "subscription:active:10", mock.Anything).
					Return(true, nil).Run(func(args mock.Arguments) {
					ptr := args.Get(2).(*models.SubscriptionWithPlan)
					*ptr = *withPlan
				}).Once()
			},
		},
		{
			name: "cache miss loads from repository and caches",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "subscription:active:10", mock.Anything).Return(false, nil).Once()
				r.On("GetActiveSubscriptionWithPlan", mock.Anything, 10, mock.Anything).Return(withPlan, nil).Once()
				c.On("Set", mock.Anything, "subscription:active:10", withPlan, 300*time.Second).Return(nil).Once()
			},
		},
		{
			name: "cache error falls through to repository",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "subscription:active:10", mock.Anything).
					Return(false, errors.New("redis down")).Once()
				r.On("GetActiveSubscriptionWithPlan", mock.Anything, 10, mock.Anything).Return(withPlan, nil).Once()
				c.On("Set", mock.Anything, "subscription:active:10", withPlan, 300*time.Second).Return(nil).Once()
			},
		},
		{
			name: "no subscription found",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "subscription:active:10", mock.Anything).Return(false, nil).Once()
				r.On("GetActiveSubscriptionWithPlan", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
			},
			wantErr: errs.ErrNoActiveSubscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, 300*time.Second, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.GetActive(context.Background(), 10)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, withPlan.ID, got.ID)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_GrantIndefinite(t *testing.T) {
	user := &models.User{ID: 10, Username: "alice"}

	t.Run("grants open-ended subscription", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, 300*time.Second, newNoopLogger())

		repo.On("GetUserByID", mock.Anything, 10).Return(user, nil).Once()
		repo.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
		repo.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(nil, nil).Once()
		repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
			return sub.Status == models.SubscriptionStatusActive &&
				sub.EndDate == nil &&
				sub.CurrentPeriodEnd == nil &&
				!sub.AutoRenew &&
				sub.PaymentStatus == models.PaymentStatusPaid
		})).Return(77, nil).Once()
		expectInvalidation(cache)

		got, err := svc.GrantIndefinite(context.Background(), models.DummyGrant{UserID: 10, PlanID: 1})
		assert.NoError(t, err)
		assert.Equal(t, 77, got.ID)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("closes existing subscription first", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, 300*time.Second, newNoopLogger())

		existing := &models.Subscription{ID: 5, UserID: 10, PlanID: 2, Status: models.SubscriptionStatusActive}
		repo.On("GetUserByID", mock.Anything, 10).Return(user, nil).Once()
		repo.On("GetPlan", mock.Anything, 1).Return(activePlan(1, models.IntervalMonthly), nil).Once()
		repo.On("FindCurrentSubscription", mock.Anything, 10, mock.Anything).Return(existing, nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
			return sub.ID == 5 && sub.Status == models.SubscriptionStatusCanceled
		})).Return(nil).Once()
		repo.On("CreateSubscription", mock.Anything, mock.Anything).Return(78, nil).Once()
		expectInvalidation(cache)

		got, err := svc.GrantIndefinite(context.Background(), models.DummyGrant{UserID: 10, PlanID: 1})
		assert.NoError(t, err)
		assert.Equal(t, 78, got.ID)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unknown user rejected", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, 300*time.Second, newNoopLogger())

		repo.On("GetUserByID", mock.Anything, 99).Return(nil, errs.ErrUserNotFound).Once()

		_, err := svc.GrantIndefinite(context.Background(), models.DummyGrant{UserID: 99, PlanID: 1})
		assert.ErrorIs(t, err, errs.ErrUserNotFound)

		repo.AssertExpectations(t)
	})
}

func TestService_UpdatePaymentStatus(t *testing.T) {
	t.Run("failed payment moves subscription to past_due", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := New(repo, cache, 300*time.Second, newNoopLogger())

		repo.On("GetSubscription", mock.Anything, 1).
			Return(&models.Subscription{ID: 1, UserID: 10, Status: models.SubscriptionStatusActive}, nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(sub models.Subscription) bool {
			return sub.Status == models.SubscriptionStatusPastDue &&
				sub.PaymentStatus == models.PaymentStatusFailed
		})).Return(nil).Once()
		expectInvalidation(cache)

		got, err := svc.UpdatePaymentStatus(context.Background(), 1, models.PaymentStatusFailed)
		assert.NoError(t, err)
		assert.Equal(t, models.SubscriptionStatusPastDue, got.Status)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}
