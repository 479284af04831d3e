// Package services периодически ищет пользователей, у которых заканчивается
// пробный период, и публикует уведомления в брокер.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/review-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/lib/trial"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Interval: период между проверками.
const Interval = 12 * time.Hour

// Lookahead: насколько вперед ищутся истекающие пробные периоды.
const Lookahead = 24 * time.Hour

// TrialRepository ищет пробные периоды, истекающие в интервале.
type TrialRepository interface {
	FindTrialsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
}

// Publisher отправляет сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

type SchedulerService struct {
	repo      TrialRepository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo TrialRepository, publisher Publisher, log *slog.Logger, now func() time.Time) *SchedulerService {
	if now == nil {
		now = time.Now
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       now,
	}
}

// Run выполняет проверку сразу и затем каждые interval, пока не отменен ctx.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration) {
	s.notify(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("trial scheduler stopped")
			return
		case <-ticker.C:
			s.notify(ctx)
		}
	}
}

func (s *SchedulerService) notify(ctx context.Context) {
	sent, err := s.NotifyExpiringTrials(ctx)
	if err != nil {
		s.log.Error("failed to notify expiring trials", sl.Err(err))
		return
	}
	s.log.Info("expiring trials processed", slog.Int("published", sent))
}

// NotifyExpiringTrials публикует уведомление для каждого пробного периода,
// заканчивающегося в ближайшие сутки, и возвращает число отправленных сообщений.
// Ошибка публикации одного сообщения не прерывает рассылку остальным.
func (s *SchedulerService) NotifyExpiringTrials(ctx context.Context) (int, error) {
	const op = "services.SchedulerService.NotifyExpiringTrials"

	now := s.now().UTC()
	users, err := s.repo.FindTrialsExpiringBetween(ctx, now, now.Add(Lookahead))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(users) == 0 {
		s.log.Info("no expiring trials found")
		return 0, nil
	}
	s.log.Info("found expiring trials", slog.Int("count", len(users)))

	sent := 0
	for _, user := range users {
		status := trial.Evaluate(user.SubscriptionStatus, user.TrialEndsAt, now)
		if !status.IsInTrial {
			continue
		}
		notice := models.TrialExpiringNotice{
			MessageID:     uuid.NewString(),
			Email:         user.Email,
			Username:      user.Username,
			Tier:          user.Tier,
			DaysRemaining: status.DaysRemaining,
			TrialEndsAt:   *status.TrialEndsAt,
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingTrialExpiring, notice); err != nil {
			s.log.Error("failed to publish message", sl.Err(err), sl.UserUID(user.UUID))
			continue
		}
		sent++
	}
	return sent, nil
}
