// Package services агрегирует данные о сессиях ревью: политику предупреждений
// по расходу ревью и статистику по уровням подписки.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/magabrotheeeer/review-service/internal/config"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// Repository: данные, которые нужны аналитике.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetActiveSession(ctx context.Context, userUID string) (*models.ReviewSession, error)
	CountSessionReviews(ctx context.Context, sessionID string) (int, error)
	GetTierSessionStats(ctx context.Context, start, end time.Time) ([]models.TierSessionStats, error)
	GetRecentSessionEvents(ctx context.Context, limit int) ([]models.SessionEvent, error)
}

// AnalyticsService реализует политику предупреждений и отчёты по сессиям.
type AnalyticsService struct {
	repo       Repository
	maxReviews map[models.Tier]int
	levels     []config.WarningLevel
}

// NewAnalyticsService создает сервис с политикой из конфига. Уровни
// предупреждений упорядочиваются от самого строгого порога к самому мягкому.
func NewAnalyticsService(repo Repository, policy config.ReviewPolicy) *AnalyticsService {
	maxReviews := make(map[models.Tier]int, len(policy.MaxReviews))
	for name, limit := range policy.MaxReviews {
		if t, err := models.ParseTier(name); err == nil {
			maxReviews[t] = limit
		}
	}
	levels := append([]config.WarningLevel(nil), policy.WarningLevels...)
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].RemainingAtMost < levels[j].RemainingAtMost
	})
	return &AnalyticsService{repo: repo, maxReviews: maxReviews, levels: levels}
}

// CheckSessionWarning считает, сколько ревью осталось пользователю в активной
// сессии, и выбирает уровень предупреждения. Для уровня без квоты (0 или не
// задан) предупреждений нет.
func (s *AnalyticsService) CheckSessionWarning(ctx context.Context, userUID string) (models.WarningCheck, error) {
	const op = "services.AnalyticsService.CheckSessionWarning"
	none := models.WarningCheck{WarningLevel: models.WarningLevelNone}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return none, fmt.Errorf("%s: %w", op, err)
	}
	maxReviews := s.maxReviews[user.Tier]
	if maxReviews <= 0 {
		return none, nil
	}

	used := 0
	session, err := s.repo.GetActiveSession(ctx, userUID)
	if err != nil {
		return none, fmt.Errorf("%s: %w", op, err)
	}
	if session != nil {
		if used, err = s.repo.CountSessionReviews(ctx, session.ID); err != nil {
			return none, fmt.Errorf("%s: %w", op, err)
		}
	}

	remaining := max(maxReviews-used, 0)
	result := models.WarningCheck{
		ReviewsRemaining: remaining,
		MaxReviews:       maxReviews,
		WarningLevel:     models.WarningLevelNone,
	}
	for _, lvl := range s.levels {
		if remaining <= lvl.RemainingAtMost {
			result.ShouldWarn = true
			result.WarningLevel = models.WarningLevel(lvl.Level)
			result.Message = lvl.Message
			if result.Message == "" {
				result.Message = fmt.Sprintf("%d of %d reviews remaining in this session", remaining, maxReviews)
			}
			break
		}
	}
	return result, nil
}

// GetAllTiersSessionStats возвращает статистику по каждому уровню подписки за [start, end].
func (s *AnalyticsService) GetAllTiersSessionStats(ctx context.Context, start, end time.Time) ([]models.TierSessionStats, error) {
	stats, err := s.repo.GetTierSessionStats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("services.AnalyticsService.GetAllTiersSessionStats: %w", err)
	}
	return stats, nil
}

// GetRecentSessionEvents возвращает последние limit событий, новые первыми.
func (s *AnalyticsService) GetRecentSessionEvents(ctx context.Context, limit int) ([]models.SessionEvent, error) {
	events, err := s.repo.GetRecentSessionEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("services.AnalyticsService.GetRecentSessionEvents: %w", err)
	}
	return events, nil
}
