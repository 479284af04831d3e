// Package services собирает отчёт по сессиям ревью для админ-панели.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/review-service/internal/models"
)

const (
	// DefaultWindowDays: окно отчёта, если days не задан или не положителен.
	DefaultWindowDays = 30
	// RecentEventsLimit: сколько последних событий попадает в отчёт.
	RecentEventsLimit = 50
)

// SessionAnalytics: источник агрегатов по сессиям.
type SessionAnalytics interface {
	GetAllTiersSessionStats(ctx context.Context, start, end time.Time) ([]models.TierSessionStats, error)
	GetRecentSessionEvents(ctx context.Context, limit int) ([]models.SessionEvent, error)
}

// AdminService строит отчёт по сессиям. Доступен только администраторам.
type AdminService struct {
	analytics SessionAnalytics
	now       func() time.Time
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(analytics SessionAnalytics, now func() time.Time) *AdminService {
	if now == nil {
		now = time.Now
	}
	return &AdminService{analytics: analytics, now: now}
}

// GetAdminAnalytics возвращает статистику по уровням подписки за последние days
// дней и RecentEventsLimit последних событий. Роль проверяется до обращения к данным.
func (s *AdminService) GetAdminAnalytics(ctx context.Context, identity *models.Identity, days int) (*models.AnalyticsReport, error) {
	const op = "services.AdminService.GetAdminAnalytics"
	if !identity.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if days <= 0 {
		days = DefaultWindowDays
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	stats, err := s.analytics.GetAllTiersSessionStats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	events, err := s.analytics.GetRecentSessionEvents(ctx, RecentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if events == nil {
		events = []models.SessionEvent{}
	}

	return &models.AnalyticsReport{
		Window:       models.AnalyticsWindow{Start: start, End: end, Days: days},
		TierStats:    stats,
		RecentEvents: events,
	}, nil
}
