// Package services принимает файлы на ревью: проверяет лимиты уровня
// подписки и квоту сессии, запускает анализ и учитывает ревью в журнале.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/review-service/internal/lib/metrics"
	"github.com/magabrotheeeer/review-service/internal/lib/sl"
	"github.com/magabrotheeeer/review-service/internal/lib/tier"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Repository: данные пользователя и сессии, нужные для ревью.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetActiveSession(ctx context.Context, userUID string) (*models.ReviewSession, error)
	RecordReview(ctx context.Context, event models.SessionEvent, maxReviews int) error
}

// WarningChecker: политика квоты ревью.
type WarningChecker interface {
	CheckSessionWarning(ctx context.Context, userUID string) (models.WarningCheck, error)
}

// Analyzer выполняет анализ кода. Может быть nil, если анализатор не сконфигурирован.
type Analyzer interface {
	Analyze(ctx context.Context, source, language string) (*models.CodeAnalysis, error)
}

// FileTooLargeError несёт результат проверки размера, чтобы клиент увидел
// лимит и подсказку об апгрейде.
type FileTooLargeError struct {
	Validation models.FileSizeValidation
}

func (e *FileTooLargeError) Error() string {
	return e.Validation.Message
}

// Is позволяет сравнивать ошибку с models.ErrFileTooLarge.
func (e *FileTooLargeError) Is(target error) bool {
	return target == models.ErrFileTooLarge
}

// ReviewService обрабатывает отправку файлов на ревью.
type ReviewService struct {
	log      *slog.Logger
	repo     Repository
	warnings WarningChecker
	analyzer Analyzer
	now      func() time.Time
}

// NewReviewService создает новый экземпляр ReviewService.
func NewReviewService(log *slog.Logger, repo Repository, warnings WarningChecker, analyzer Analyzer, now func() time.Time) *ReviewService {
	if now == nil {
		now = time.Now
	}
	return &ReviewService{log: log, repo: repo, warnings: warnings, analyzer: analyzer, now: now}
}

// SubmitReview проверяет размер файла, наличие активной сессии и остаток квоты,
// затем анализирует код и учитывает ревью в сессии.
func (s *ReviewService) SubmitReview(ctx context.Context, identity *models.Identity, req models.ReviewRequest) (*models.ReviewResult, error) {
	const op = "services.ReviewService.SubmitReview"
	if identity == nil || identity.UserUID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	uid := identity.UserUID

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	size := int64(len(req.Source))
	validation := tier.ValidateFileSize(size, user.Tier)
	metrics.FileSizeChecks.WithLabelValues(string(user.Tier), metrics.Result(validation.Valid)).Inc()
	if !validation.Valid {
		return nil, fmt.Errorf("%s: %w", op, &FileTooLargeError{Validation: validation})
	}

	session, err := s.repo.GetActiveSession(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
	}

	check, err := s.warnings.CheckSessionWarning(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if check.MaxReviews > 0 && check.ReviewsRemaining <= 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrReviewQuotaExceeded)
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAnalysisUnavailable)
	}

	analysis, err := s.analyzer.Analyze(ctx, req.Source, req.Language)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Квота проверяется повторно в той же транзакции, что и запись события.
	err = s.repo.RecordReview(ctx, models.SessionEvent{
		SessionID:  session.ID,
		UserUID:    uid,
		Tier:       user.Tier,
		Type:       models.SessionEventReview,
		Language:   req.Language,
		FileSize:   size,
		OccurredAt: s.now().UTC(),
	}, check.MaxReviews)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	after, err := s.warnings.CheckSessionWarning(ctx, uid)
	if err != nil {
		s.log.Warn("failed to refresh session warning", sl.UserUID(uid), sl.Err(err))
		after = check
	}

	return &models.ReviewResult{
		SessionID: session.ID,
		Analysis:  analysis,
		Warning: models.SessionWarning{
			ShouldWarn:         after.ShouldWarn,
			ReviewsRemaining:   after.ReviewsRemaining,
			MaxReviews:         after.MaxReviews,
			WarningLevel:       after.WarningLevel,
			Message:            after.Message,
			CoolingPeriodHours: session.CoolingPeriodHours,
		},
	}, nil
}
