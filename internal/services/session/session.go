// Package services управляет жизненным циклом сессий ревью и
// предупреждениями о расходе ревью.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/review-service/internal/lib/metrics"
	"github.com/magabrotheeeer/review-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Repository описывает хранилище сессий.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetActiveSession(ctx context.Context, userUID string) (*models.ReviewSession, error)
	GetLastEndedSession(ctx context.Context, userUID string) (*models.ReviewSession, error)
	CreateSession(ctx context.Context, session models.ReviewSession) (string, error)
	EndSession(ctx context.Context, sessionID string, endedAt time.Time) error
	RecordSessionEvent(ctx context.Context, event models.SessionEvent) error
}

// WarningChecker: политика предупреждений по расходу ревью.
type WarningChecker interface {
	CheckSessionWarning(ctx context.Context, userUID string) (models.WarningCheck, error)
}

// EventPublisher публикует события сессий во внешнюю очередь.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SessionService открывает и закрывает сессии ревью.
type SessionService struct {
	log          *slog.Logger
	repo         Repository
	warnings     WarningChecker
	publisher    EventPublisher
	coolingHours int
	now          func() time.Time
}

// NewSessionService создает сервис. publisher может быть nil,
// тогда события только пишутся в журнал.
func NewSessionService(log *slog.Logger, repo Repository, warnings WarningChecker, publisher EventPublisher,
	coolingHours int, now func() time.Time) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		log:          log,
		repo:         repo,
		warnings:     warnings,
		publisher:    publisher,
		coolingHours: coolingHours,
		now:          now,
	}
}

// GetSessionWarning объединяет ответ политики предупреждений с периодом
// охлаждения активной сессии. Анонимный вызов получает нулевой результат.
func (s *SessionService) GetSessionWarning(ctx context.Context, identity *models.Identity) (models.SessionWarning, error) {
	const op = "services.SessionService.GetSessionWarning"
	if identity == nil || identity.UserUID == "" {
		return models.NoSessionWarning(), nil
	}

	check, err := s.warnings.CheckSessionWarning(ctx, identity.UserUID)
	if err != nil {
		return models.SessionWarning{}, fmt.Errorf("%s: %w", op, err)
	}
	session, err := s.repo.GetActiveSession(ctx, identity.UserUID)
	if err != nil {
		return models.SessionWarning{}, fmt.Errorf("%s: %w", op, err)
	}

	cooling := models.DefaultCoolingPeriodHours
	if session != nil {
		cooling = session.CoolingPeriodHours
	}
	level := check.WarningLevel
	if level == "" {
		level = models.WarningLevelNone
	}
	metrics.SessionWarnings.WithLabelValues(string(level)).Inc()

	return models.SessionWarning{
		ShouldWarn:         check.ShouldWarn,
		ReviewsRemaining:   check.ReviewsRemaining,
		MaxReviews:         check.MaxReviews,
		WarningLevel:       level,
		Message:            check.Message,
		CoolingPeriodHours: cooling,
	}, nil
}

// StartSession открывает новую сессию, если нет активной и прошёл период
// охлаждения после предыдущей.
func (s *SessionService) StartSession(ctx context.Context, identity *models.Identity) (*models.ReviewSession, error) {
	const op = "services.SessionService.StartSession"
	if identity == nil || identity.UserUID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	uid := identity.UserUID

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.repo.GetActiveSession(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrActiveSessionExists)
	}

	now := s.now().UTC()
	last, err := s.repo.GetLastEndedSession(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if last != nil && last.CoolingEndsAt().After(now) {
		return nil, fmt.Errorf("%s: %w until %s", op, models.ErrCoolingPeriod, last.CoolingEndsAt().Format(time.RFC3339))
	}

	session := models.ReviewSession{UserUID: uid, StartedAt: now, CoolingPeriodHours: s.coolingHours}
	if session.ID, err = s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.emit(ctx, models.SessionEvent{
		SessionID: session.ID, UserUID: uid, Tier: user.Tier,
		Type: models.SessionEventStarted, OccurredAt: now,
	})
	s.log.Info("review session started", sl.UserUID(uid), slog.String("session_id", session.ID))
	return &session, nil
}

// EndSession закрывает активную сессию пользователя.
func (s *SessionService) EndSession(ctx context.Context, identity *models.Identity) (*models.ReviewSession, error) {
	const op = "services.SessionService.EndSession"
	if identity == nil || identity.UserUID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	uid := identity.UserUID

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session, err := s.repo.GetActiveSession(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
	}

	now := s.now().UTC()
	if err = s.repo.EndSession(ctx, session.ID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session.EndedAt = &now

	s.emit(ctx, models.SessionEvent{
		SessionID: session.ID, UserUID: uid, Tier: user.Tier,
		Type: models.SessionEventEnded, OccurredAt: now,
	})
	s.log.Info("review session ended", sl.UserUID(uid), slog.String("session_id", session.ID))
	return session, nil
}

// emit пишет событие в журнал и публикует его. Ошибки только логируются:
// сессия к этому моменту уже изменена.
func (s *SessionService) emit(ctx context.Context, event models.SessionEvent) {
	if err := s.repo.RecordSessionEvent(ctx, event); err != nil {
		s.log.Error("failed to record session event", sl.Err(err), slog.String("type", string(event.Type)))
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingSessionEvent, event); err != nil {
		s.log.Warn("failed to publish session event", sl.Err(err), slog.String("type", string(event.Type)))
	}
}
