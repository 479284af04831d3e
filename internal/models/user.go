package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID               string             // Уникальный идентификатор пользователя
	Email              string             // Электронная почта
	Username           string             // Имя пользователя (уникальное)
	PasswordHash       string             // Хэш пароля пользователя
	Role               Role               // USER или ADMIN
	Tier               Tier               // Уровень подписки
	SubscriptionStatus SubscriptionStatus // Статус подписки
	TrialEndsAt        *time.Time         // Дата окончания пробного периода, nil если не задана
	CreatedAt          time.Time
}

// Identity возвращает идентичность пользователя для передачи в сервисы.
func (u *User) Identity() *Identity {
	return &Identity{UserUID: u.UUID, Role: u.Role}
}
