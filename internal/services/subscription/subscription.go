// Package services содержит бизнес-логику подписки: пробный период,
// лимиты размера файлов и проверку доступа к сервису.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/review-service/internal/lib/metrics"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/lib/tier"
	"github.com/magabrotheeeer/review-service/internal/lib/trial"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// UserReader возвращает пользователя по UID.
type UserReader interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// SubscriptionService вычисляет состояние подписки пользователя.
type SubscriptionService struct {
	log   *slog.Logger
	users UserReader
	now   func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(log *slog.Logger, users UserReader, now func() time.Time) *SubscriptionService {
	if now == nil {
		now = time.Now
	}
	return &SubscriptionService{log: log, users: users, now: now}
}

func (s *SubscriptionService) loadUser(ctx context.Context, op string, identity *models.Identity) (*models.User, error) {
	if identity == nil || identity.UserUID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	user, err := s.users.GetUser(ctx, identity.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetTrialStatus возвращает состояние пробного периода вызывающего пользователя.
func (s *SubscriptionService) GetTrialStatus(ctx context.Context, identity *models.Identity) (models.TrialStatus, error) {
	const op = "services.SubscriptionService.GetTrialStatus"

	user, err := s.loadUser(ctx, op, identity)
	if err != nil {
		return models.TrialStatus{}, err
	}
	status := trial.Evaluate(user.SubscriptionStatus, user.TrialEndsAt, s.now())
	metrics.TrialChecks.WithLabelValues(strconv.FormatBool(status.IsInTrial)).Inc()
	return status, nil
}

// ValidateFileSize проверяет размер файла по уровню подписки вызывающего пользователя.
func (s *SubscriptionService) ValidateFileSize(ctx context.Context, identity *models.Identity, size int64) (models.FileSizeValidation, error) {
	const op = "services.SubscriptionService.ValidateFileSize"

	user, err := s.loadUser(ctx, op, identity)
	if err != nil {
		return models.FileSizeValidation{}, err
	}
	result := tier.ValidateFileSize(size, user.Tier)
	metrics.FileSizeChecks.WithLabelValues(string(user.Tier), metrics.Result(result.Valid)).Inc()
	return result, nil
}

// CheckAccess возвращает models.ErrSubscriptionInactive, если подписка отменена,
// истекла или пробный период закончился.
func (s *SubscriptionService) CheckAccess(ctx context.Context, userUID string) error {
	const op = "services.SubscriptionService.CheckAccess"

	user, err := s.loadUser(ctx, op, &models.Identity{UserUID: userUID})
	if err != nil {
		return err
	}

	switch user.SubscriptionStatus {
	case models.StatusActive, models.StatusPastDue:
		return nil
	case models.StatusTrialing:
		if trial.Evaluate(user.SubscriptionStatus, user.TrialEndsAt, s.now()).IsInTrial {
			return nil
		}
		s.log.Info("trial elapsed", sl.UserUID(userUID))
	}
	return fmt.Errorf("%s: %w", op, models.ErrSubscriptionInactive)
}
