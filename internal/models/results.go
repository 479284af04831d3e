package models

import "time"

// TrialStatus: результат вычисления пробного периода. Не сохраняется.
type TrialStatus struct {
	IsInTrial     bool       `json:"isInTrial"`
	DaysRemaining int        `json:"daysRemaining"`
	TrialEndsAt   *time.Time `json:"trialEndsAt"`
}

// FileSizeValidation: результат проверки размера файла по уровню подписки.
type FileSizeValidation struct {
	Valid   bool   `json:"valid"`
	Limit   int64  `json:"limit"`
	Message string `json:"message,omitempty"`
}

// WarningLevel: уровень предупреждения о расходе ревью.
type WarningLevel string

// WarningLevelNone: предупреждать не о чем.
const WarningLevelNone WarningLevel = "none"

// WarningCheck: ответ политики предупреждений по расходу ревью.
type WarningCheck struct {
	ShouldWarn       bool
	ReviewsRemaining int
	MaxReviews       int
	WarningLevel     WarningLevel
	Message          string
}

// SessionWarning: предупреждение для пользователя вместе с периодом охлаждения.
type SessionWarning struct {
	ShouldWarn         bool         `json:"shouldWarn"`
	ReviewsRemaining   int          `json:"reviewsRemaining"`
	MaxReviews         int          `json:"maxReviews"`
	WarningLevel       WarningLevel `json:"warningLevel"`
	Message            string       `json:"message"`
	CoolingPeriodHours int          `json:"coolingPeriodHours"`
}

// NoSessionWarning возвращает безопасный результат для анонимного вызова.
func NoSessionWarning() SessionWarning {
	return SessionWarning{WarningLevel: WarningLevelNone}
}

// TierSessionStats: агрегаты по сессиям одного уровня подписки за период.
type TierSessionStats struct {
	Tier               Tier    `json:"tier"`
	TotalSessions      int     `json:"totalSessions"`
	ActiveSessions     int     `json:"activeSessions"`
	CompletedSessions  int     `json:"completedSessions"`
	UniqueUsers        int     `json:"uniqueUsers"`
	TotalReviews       int     `json:"totalReviews"`
	AvgDurationMinutes float64 `json:"avgDurationMinutes"`
}

// AnalyticsWindow: период, за который построен отчёт.
type AnalyticsWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// AnalyticsReport: отчёт для админ-панели.
type AnalyticsReport struct {
	Window       AnalyticsWindow    `json:"window"`
	TierStats    []TierSessionStats `json:"tierStats"`
	RecentEvents []SessionEvent     `json:"recentEvents"`
}
