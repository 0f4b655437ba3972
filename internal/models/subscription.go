package models

import "time"

// SubscriptionStatus определяет статус подписки в машине состояний:
// pending → {trial | active} → {active ↔ past_due} → {canceled | expired},
// paused достижим из active и возвращается в active через Resume.
// changed — транзитный маркер смены плана, не устойчивое состояние.
type SubscriptionStatus string

// Возможные статусы подписки.
const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusTrial    SubscriptionStatus = "trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusChanged  SubscriptionStatus = "changed"
)

// SubscriptionStatuses возвращает все статусы подписки.
func SubscriptionStatuses() []SubscriptionStatus {
	return []SubscriptionStatus{
		SubscriptionStatusPending, SubscriptionStatusTrial, SubscriptionStatusActive,
		SubscriptionStatusPastDue, SubscriptionStatusPaused, SubscriptionStatusCanceled,
		SubscriptionStatusExpired, SubscriptionStatusChanged,
	}
}

// PaymentStatus определяет статус последнего платежа по подписке.
// Статус выставляется вызывающей стороной, интеграции с платёжным шлюзом нет.
type PaymentStatus string

// Возможные статусы платежа.
const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Subscription представляет подписку пользователя на тарифный план.
// Записи никогда не удаляются физически: история сохраняется для отчётности.
type Subscription struct {
	ID                 int                `json:"id"`                   // Уникальный идентификатор подписки
	UserID             int                `json:"user_id"`              // Пользователь-владелец
	PlanID             int                `json:"plan_id"`              // Тарифный план
	Status             SubscriptionStatus `json:"status"`               // Текущий статус подписки
	PaymentStatus      PaymentStatus      `json:"payment_status"`       // Статус последнего платежа
	StartDate          time.Time          `json:"start_date"`           // Дата начала подписки
	EndDate            *time.Time         `json:"end_date"`             // Дата окончания (nil — бессрочная)
	TrialEndDate       *time.Time         `json:"trial_end_date"`       // Окончание пробного периода
	CanceledAt         *time.Time         `json:"canceled_at"`          // Момент отмены
	CurrentPeriodStart time.Time          `json:"current_period_start"` // Начало текущего биллингового периода
	CurrentPeriodEnd   *time.Time         `json:"current_period_end"`   // Конец текущего периода (nil — бессрочная)
	Quantity           int                `json:"quantity"`             // Количество мест (>= 1)
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"` // Отменить в конце периода
	AutoRenew          bool               `json:"auto_renew"`           // Автопродление
	Metadata           *string            `json:"metadata,omitempty"`   // Произвольные метаданные (JSON-строка)
	CreatedAt          time.Time          `json:"created_at"`           // Дата создания записи
	UpdatedAt          time.Time          `json:"updated_at"`           // Дата последнего обновления
}

// IsActive сообщает, действует ли подписка в момент now.
// Тот же предикат выполняется на стороне БД в SQL с тем же инжектированным
// now, семантика обоих контекстов обязана совпадать.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		!s.StartDate.After(now) &&
		(s.EndDate == nil || s.EndDate.After(now))
}

// IsTrial сообщает, находится ли подписка в действующем пробном периоде
// в момент now.
func (s *Subscription) IsTrial(now time.Time) bool {
	return s.Status == SubscriptionStatusTrial &&
		s.TrialEndDate != nil &&
		s.TrialEndDate.After(now)
}

// DaysUntilRenewal возвращает количество дней до продления подписки.
// nil — если период не ограничен или автопродление выключено.
func (s *Subscription) DaysUntilRenewal(now time.Time) *int {
	if s.CurrentPeriodEnd == nil || !s.AutoRenew {
		return nil
	}
	days := int(s.CurrentPeriodEnd.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

// Activate переводит подписку в статус active. Остальные поля не меняются,
// повторный вызов безопасен.
func (s *Subscription) Activate() {
	s.Status = SubscriptionStatusActive
}

// StartTrial переводит подписку в пробный период на days дней от now,
// перезаписывая прежнюю дату окончания пробного периода.
func (s *Subscription) StartTrial(now time.Time, days int) {
	s.Status = SubscriptionStatusTrial
	trialEnd := now.AddDate(0, 0, days)
	s.TrialEndDate = &trialEnd
}

// Cancel отменяет подписку в момент now.
// При atPeriodEnd подписка остаётся активной до конца периода: выставляются
// cancel_at_period_end и canceled_at, автопродление выключается. Иначе
// подписка закрывается немедленно: статус canceled, end_date = now.
func (s *Subscription) Cancel(now time.Time, atPeriodEnd bool) {
	s.CanceledAt = &now
	if atPeriodEnd {
		s.CancelAtPeriodEnd = true
		s.AutoRenew = false
		return
	}
	s.Status = SubscriptionStatusCanceled
	end := now
	s.EndDate = &end
}

// Renew продлевает подписку на days дней от now: сдвигает текущий период,
// принудительно возвращает статус active (в том числе из expired) и
// продлевает end_date, если тот наступал раньше нового конца периода.
func (s *Subscription) Renew(now time.Time, days int) {
	s.CurrentPeriodStart = now
	periodEnd := now.AddDate(0, 0, days)
	s.CurrentPeriodEnd = &periodEnd

	if s.Status != SubscriptionStatusActive {
		s.Status = SubscriptionStatusActive
	}
	if s.EndDate != nil && s.EndDate.Before(periodEnd) {
		end := periodEnd
		s.EndDate = &end
	}
}

// Expire помечает подписку истёкшей в момент now и выключает автопродление.
func (s *Subscription) Expire(now time.Time) {
	s.Status = SubscriptionStatusExpired
	end := now
	s.EndDate = &end
	s.AutoRenew = false
}

// Pause приостанавливает подписку. Даты не меняются.
func (s *Subscription) Pause() {
	s.Status = SubscriptionStatusPaused
}

// Resume возвращает подписку в статус active, снимает отложенную отмену
// и включает автопродление.
func (s *Subscription) Resume() {
	s.Status = SubscriptionStatusActive
	s.CancelAtPeriodEnd = false
	s.AutoRenew = true
}

// UpdatePaymentStatus выставляет статус платежа. Статус failed дополнительно
// переводит саму подписку в past_due.
func (s *Subscription) UpdatePaymentStatus(status PaymentStatus) {
	s.PaymentStatus = status
	if status == PaymentStatusFailed {
		s.Status = SubscriptionStatusPastDue
	}
}

// ChangePlan атомарно переназначает план подписки. Поля биллингового периода
// пересчитывает вызывающая сторона по интервалу нового плана; прорация
// объявлена, но не реализована.
func (s *Subscription) ChangePlan(newPlanID int) {
	s.PlanID = newPlanID
}

// SubscriptionWithPlan объединяет подписку с деталями её плана,
// полученными одним JOIN-запросом.
type SubscriptionWithPlan struct {
	Subscription
	Plan *Plan `json:"plan"` // Детали тарифного плана
}

// DummySubscribe используется для приёма данных создания подписки
// из JSON-запроса до их валидации.
type DummySubscribe struct {
	PlanID    int   `json:"plan_id" validate:"required,gt=0"`      // План для подписки
	Quantity  int   `json:"quantity" validate:"omitempty,gte=1"`   // Количество мест
	AutoRenew *bool `json:"auto_renew" validate:"omitempty"`       // Автопродление (по умолчанию true)
	TrialDays int   `json:"trial_days" validate:"omitempty,gte=0"` // Дней пробного периода
}

// DummyUpgrade используется для приёма данных смены плана из JSON-запроса.
type DummyUpgrade struct {
	PlanID  int   `json:"plan_id" validate:"required,gt=0"` // Новый план
	Prorate *bool `json:"prorate" validate:"omitempty"`     // Прорация (объявлена, не считается)
}

// DummyCancel используется для приёма данных отмены подписки из JSON-запроса.
type DummyCancel struct {
	AtPeriodEnd *bool `json:"at_period_end" validate:"omitempty"` // Отмена в конце периода (по умолчанию true)
}

// DummyGrant используется для приёма данных административной выдачи
// бессрочной подписки из JSON-запроса.
type DummyGrant struct {
	UserID   int `json:"user_id" validate:"required,gt=0"`    // Целевой пользователь
	PlanID   int `json:"plan_id" validate:"required,gt=0"`    // План
	Quantity int `json:"quantity" validate:"omitempty,gte=1"` // Количество мест
}

// HistoryFilter задаёт фильтры выборки истории подписок пользователя.
type HistoryFilter struct {
	Statuses []SubscriptionStatus // Статусы (пустой срез — без фильтра)
	FromDate *time.Time           // Созданные не раньше этой даты
	ToDate   *time.Time           // Созданные не позже этой даты
}

// SubscriptionPage представляет страницу истории подписок вместе с метаданными
// пагинации. Total отражает тот же набор фильтров, что и Items.
type SubscriptionPage struct {
	Subscriptions []*SubscriptionWithPlan `json:"subscriptions"` // Подписки текущей страницы
	Total         int                     `json:"total"`         // Общее количество по фильтру
	Page          int                     `json:"page"`          // Номер текущей страницы (с единицы)
	PerPage       int                     `json:"per_page"`      // Размер страницы
	Pages         int                     `json:"pages"`         // Общее количество страниц
}

// SubscriptionStats содержит сводные счётчики подписок для административной
// панели. Значения считаются по текущим данным, инкрементально не ведутся.
type SubscriptionStats struct {
	ActiveCount           int `json:"active_count"`            // Активные подписки
	TrialCount            int `json:"trial_count"`             // Действующие пробные периоды
	ExpiringSoonCount     int `json:"expiring_soon_count"`     // Истекают за 7 дней без автопродления
	NewCount              int `json:"new_count"`               // Созданные за последние 30 дней
	RecentlyCanceledCount int `json:"recently_canceled_count"` // Отменённые за последние 30 дней
}
