package models

import "errors"

var (
	// ErrUnauthorized: вызывающий не идентифицирован или у него недостаточно прав.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound: пользователь отсутствует в хранилище.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists: пользователь с таким email или username уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrNoActiveSession: у пользователя нет открытой сессии ревью.
	ErrNoActiveSession = errors.New("no active review session")
	// ErrActiveSessionExists: у пользователя уже есть открытая сессия ревью.
	ErrActiveSessionExists = errors.New("review session already active")
	// ErrCoolingPeriod: период охлаждения после прошлой сессии ещё не закончился.
	ErrCoolingPeriod = errors.New("cooling period has not elapsed")
	// ErrReviewQuotaExceeded: лимит ревью для уровня подписки исчерпан.
	ErrReviewQuotaExceeded = errors.New("review quota exceeded")
	// ErrFileTooLarge: размер файла превышает лимит уровня подписки.
	ErrFileTooLarge = errors.New("file too large")
	// ErrSubscriptionInactive: подписка отменена, истекла или пробный период закончился.
	ErrSubscriptionInactive = errors.New("subscription inactive")
	// ErrAnalysisUnavailable: анализатор кода не сконфигурирован.
	ErrAnalysisUnavailable = errors.New("code analysis unavailable")
	// ErrInvalidTier: неизвестный уровень подписки.
	ErrInvalidTier = errors.New("invalid subscription tier")
	// ErrInvalidStatus: неизвестный статус подписки.
	ErrInvalidStatus = errors.New("invalid subscription status")
)
