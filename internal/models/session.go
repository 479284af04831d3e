package models

import "time"

// DefaultCoolingPeriodHours: период охлаждения, если активной сессии нет.
const DefaultCoolingPeriodHours = 24

// ReviewSession: ограниченный по времени период использования сервиса.
// EndedAt == nil означает, что сессия активна.
type ReviewSession struct {
	ID                 string     `json:"id"`
	UserUID            string     `json:"userId"`
	StartedAt          time.Time  `json:"startedAt"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	CoolingPeriodHours int        `json:"coolingPeriodHours"`
}

// Active сообщает, открыта ли сессия.
func (s *ReviewSession) Active() bool {
	return s.EndedAt == nil
}

// CoolingEndsAt возвращает момент, после которого можно начать новую сессию.
// Для активной сессии возвращает нулевое время.
func (s *ReviewSession) CoolingEndsAt() time.Time {
	if s.EndedAt == nil {
		return time.Time{}
	}
	return s.EndedAt.Add(time.Duration(s.CoolingPeriodHours) * time.Hour)
}

// SessionEventType: тип события сессии.
type SessionEventType string

// Типы событий сессии.
const (
	SessionEventStarted SessionEventType = "started"
	SessionEventReview  SessionEventType = "review"
	SessionEventEnded   SessionEventType = "ended"
)

// SessionEvent: запись журнала событий сессий, которую читает аналитика.
type SessionEvent struct {
	ID         int64            `json:"id"`
	SessionID  string           `json:"sessionId"`
	UserUID    string           `json:"userId"`
	Tier       Tier             `json:"tier"`
	Type       SessionEventType `json:"type"`
	Language   string           `json:"language,omitempty"`
	FileSize   int64            `json:"fileSize,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
