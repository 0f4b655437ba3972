package models

import (
	"encoding/json"
	"time"
)

// Interval определяет периодичность списания по тарифному плану.
type Interval string

// Возможные интервалы тарифного плана.
const (
	IntervalMonthly    Interval = "monthly"
	IntervalQuarterly  Interval = "quarterly"
	IntervalSemiAnnual Interval = "semi-annual"
	IntervalAnnual     Interval = "annual"
)

// Intervals возвращает все интервалы в порядке возрастания длительности.
func Intervals() []Interval {
	return []Interval{IntervalMonthly, IntervalQuarterly, IntervalSemiAnnual, IntervalAnnual}
}

// PeriodDays возвращает длительность биллингового периода интервала в днях.
// Таблица интервалов авторитетна: monthly 30, quarterly 90, semi-annual 182,
// annual 365. Неизвестный интервал трактуется как месячный.
func (i Interval) PeriodDays() int {
	switch i {
	case IntervalAnnual:
		return 365
	case IntervalSemiAnnual:
		return 182
	case IntervalQuarterly:
		return 90
	default:
		return 30
	}
}

// PlanStatus определяет статус тарифного плана.
type PlanStatus string

// Возможные статусы тарифного плана.
const (
	PlanStatusActive     PlanStatus = "active"
	PlanStatusInactive   PlanStatus = "inactive"
	PlanStatusDeprecated PlanStatus = "deprecated"
)

// PlanStatuses возвращает все статусы тарифного плана.
func PlanStatuses() []PlanStatus {
	return []PlanStatus{PlanStatusActive, PlanStatusInactive, PlanStatusDeprecated}
}

// Plan представляет тарифный план подписки.
// Пара (Name, Interval) уникальна. ParentID задаёт необязательную связь
// с родительским планом для иерархий планов, без каскадного удаления.
type Plan struct {
	ID             int        `json:"id"`              // Уникальный идентификатор плана
	Name           string     `json:"name"`            // Название плана
	Description    string     `json:"description"`     // Описание плана
	Price          float64    `json:"price"`           // Цена плана, два знака после запятой
	Interval       Interval   `json:"interval"`        // Интервал списания
	DurationMonths int        `json:"duration_months"` // Длительность плана в месяцах
	Features       string     `json:"features"`        // JSON-строка с набором фич плана
	Status         PlanStatus `json:"status"`          // Статус плана
	IsPublic       bool       `json:"is_public"`       // Доступен ли план для публичной подписки
	MaxUsers       *int       `json:"max_users"`       // Максимум пользователей (nil — без ограничения)
	ParentID       *int       `json:"parent_id"`       // Родительский план (nil — корневой)
	SortOrder      int        `json:"sort_order"`      // Порядок отображения
	CreatedAt      time.Time  `json:"created_at"`      // Дата создания
	UpdatedAt      time.Time  `json:"updated_at"`      // Дата последнего обновления
}

// IsActive сообщает, находится ли план в статусе active.
func (p *Plan) IsActive() bool {
	return p.Status == PlanStatusActive
}

// MonthlyPrice возвращает приведённую к месяцу цену плана.
// При DurationMonths == 0 возвращает цену без изменений, чтобы избежать
// деления на ноль.
func (p *Plan) MonthlyPrice() float64 {
	if p.DurationMonths == 0 {
		return p.Price
	}
	return p.Price / float64(p.DurationMonths)
}

// FeaturesMap разбирает JSON-строку фич плана в словарь.
// Пустые или некорректные данные трактуются как пустой словарь, ошибок нет.
func (p *Plan) FeaturesMap() map[string]any {
	if p.Features == "" {
		return map[string]any{}
	}
	var features map[string]any
	if err := json.Unmarshal([]byte(p.Features), &features); err != nil {
		return map[string]any{}
	}
	return features
}

// HasFeature сообщает, включена ли фича плана с указанным ключом.
// Отсутствующий ключ, false и нулевые значения считаются выключенной фичей.
func (p *Plan) HasFeature(key string) bool {
	value, ok := p.FeaturesMap()[key]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}

// SetFeaturesMap сериализует словарь фич в JSON-строку плана.
func (p *Plan) SetFeaturesMap(features map[string]any) error {
	raw, err := json.Marshal(features)
	if err != nil {
		return err
	}
	p.Features = string(raw)
	return nil
}

// DummyPlan используется для приёма данных плана из JSON-запроса
// до их валидации и преобразования в Plan.
type DummyPlan struct {
	Name           string         `json:"name" validate:"required"`                                             // Название плана
	Description    string         `json:"description" validate:"required"`                                      // Описание плана
	Price          float64        `json:"price" validate:"required,gte=0"`                                      // Цена (не отрицательная)
	Interval       string         `json:"interval" validate:"required,oneof=monthly quarterly semi-annual annual"` // Интервал
	DurationMonths int            `json:"duration_months" validate:"omitempty,gte=0"`                           // Длительность в месяцах
	Features       map[string]any `json:"features" validate:"omitempty"`                                        // Фичи плана
	Status         string         `json:"status" validate:"omitempty,oneof=active inactive deprecated"`         // Статус
	IsPublic       *bool          `json:"is_public" validate:"omitempty"`                                       // Публичность
	MaxUsers       *int           `json:"max_users" validate:"omitempty,gt=0"`                                  // Максимум пользователей
	ParentID       *int           `json:"parent_id" validate:"omitempty,gt=0"`                                  // Родительский план
	SortOrder      int            `json:"sort_order" validate:"omitempty,gte=0"`                                // Порядок отображения
}

// PlanPage представляет страницу списка планов вместе с метаданными пагинации.
// Pages считается как ceil(Total / PerPage).
type PlanPage struct {
	Plans   []*Plan `json:"plans"`    // Планы текущей страницы
	Total   int     `json:"total"`    // Общее количество планов по фильтру
	Page    int     `json:"page"`     // Номер текущей страницы (с единицы)
	PerPage int     `json:"per_page"` // Размер страницы
	Pages   int     `json:"pages"`    // Общее количество страниц
}

// CountPages возвращает количество страниц для total записей при размере
// страницы perPage.
func CountPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
