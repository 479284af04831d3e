// Package models содержит доменные структуры сервиса: пользователя, уровни подписки,
// статусы, сессии ревью и записи результатов, которые возвращают вычислители политик.
package models

import "fmt"

// Tier: уровень подписки пользователя.
type Tier string

// Уровни подписки в порядке возрастания.
const (
	TierStarter Tier = "STARTER"
	TierHero    Tier = "HERO"
	TierLegend  Tier = "LEGEND"
)

// Tiers возвращает все уровни подписки в порядке возрастания.
func Tiers() []Tier {
	return []Tier{TierStarter, TierHero, TierLegend}
}

// Valid сообщает, относится ли значение к известному уровню.
func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierHero, TierLegend:
		return true
	}
	return false
}

// ParseTier преобразует строку из хранилища в Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
	return t, nil
}

// SubscriptionStatus: статус подписки, который ведут внешние биллинговые процессы.
type SubscriptionStatus string

// Статусы подписки.
const (
	StatusTrialing SubscriptionStatus = "TRIALING"
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
	StatusCanceled SubscriptionStatus = "CANCELED"
	StatusExpired  SubscriptionStatus = "EXPIRED"
)

// Valid сообщает, относится ли значение к известному статусу.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// ParseSubscriptionStatus преобразует строку из хранилища в SubscriptionStatus.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	st := SubscriptionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Role: роль пользователя.
type Role string

// Роли пользователей.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Identity: данные о вызывающем, которые выдаёт провайдер идентификации.
// Передаётся в привилегированные операции явно.
type Identity struct {
	UserUID string
	Role    Role
}

// IsAdmin сообщает, обладает ли вызывающий ролью администратора.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
