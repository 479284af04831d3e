package models

import "time"

// TrialExpiringNotice: сообщение о скором окончании пробного периода.
// MessageID позволяет потребителю отбрасывать повторные доставки.
type TrialExpiringNotice struct {
	MessageID     string    `json:"message_id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	Tier          Tier      `json:"tier"`
	DaysRemaining int       `json:"days_remaining"`
	TrialEndsAt   time.Time `json:"trial_ends_at"`
}
