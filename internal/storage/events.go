package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/magabrotheeeer/review-service/internal/models"
)

// RecordSessionEvent добавляет запись в журнал событий сессий.
func (s *Storage) RecordSessionEvent(ctx context.Context, event models.SessionEvent) error {
	const op = "storage.RecordSessionEvent"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	query, args, err := insertEventQuery(event)
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecordReview учитывает ревью в сессии, если квота maxReviews ещё не исчерпана.
// Строка сессии блокируется до конца транзакции, поэтому параллельные ревью
// одной сессии считаются и вставляются по очереди. При maxReviews <= 0 квота
// не ограничена.
func (s *Storage) RecordReview(ctx context.Context, event models.SessionEvent, maxReviews int) (err error) {
	const op = "storage.RecordReview"
	if err = ctxDone(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM review_sessions WHERE id = $1 AND ended_at IS NULL FOR UPDATE`,
		event.SessionID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if maxReviews > 0 {
		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM session_events WHERE session_id = $1 AND event_type = $2`,
			event.SessionID, string(models.SessionEventReview)).Scan(&count)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if count >= maxReviews {
			return fmt.Errorf("%s: %w", op, models.ErrReviewQuotaExceeded)
		}
	}

	query, args, err := insertEventQuery(event)
	if err != nil {
		return fmt.Errorf("%s: build query: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func insertEventQuery(event models.SessionEvent) (string, []any, error) {
	return psql.Insert("session_events").
		Columns("session_id", "user_uid", "tier", "event_type", "language", "file_size", "occurred_at").
		Values(event.SessionID, event.UserUID, string(event.Tier), string(event.Type),
			nullString(event.Language), nullInt64(event.FileSize), event.OccurredAt).
		ToSql()
}

// CountSessionReviews возвращает число ревью, выполненных в рамках сессии.
func (s *Storage) CountSessionReviews(ctx context.Context, sessionID string) (int, error) {
	const op = "storage.CountSessionReviews"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query, args, err := psql.Select("COUNT(*)").
		From("session_events").
		Where(sq.Eq{"session_id": sessionID, "event_type": string(models.SessionEventReview)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build query: %w", op, err)
	}

	var count int
	if err = s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// GetRecentSessionEvents возвращает последние события сессий, новые первыми.
func (s *Storage) GetRecentSessionEvents(ctx context.Context, limit int) ([]models.SessionEvent, error) {
	const op = "storage.GetRecentSessionEvents"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.SessionEvent{}, nil
	}

	query, args, err := psql.Select("id", "session_id", "user_uid", "tier", "event_type",
		"COALESCE(language, '')", "COALESCE(file_size, 0)", "occurred_at").
		From("session_events").
		OrderBy("occurred_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]models.SessionEvent, 0, limit)
	for rows.Next() {
		var (
			e          models.SessionEvent
			tier, kind string
		)
		if err = rows.Scan(&e.ID, &e.SessionID, &e.UserUID, &tier, &kind,
			&e.Language, &e.FileSize, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.Tier = models.Tier(tier)
		e.Type = models.SessionEventType(kind)
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

// GetTierSessionStats считает агрегаты по сессиям, начатым в интервале [start, end],
// сгруппированные по уровню подписки на момент старта сессии (из события started).
// Для сессии без события started берётся текущий уровень пользователя.
// Уровни без сессий возвращаются с нулями, порядок совпадает с models.Tiers().
func (s *Storage) GetTierSessionStats(ctx context.Context, start, end time.Time) ([]models.TierSessionStats, error) {
	const op = "storage.GetTierSessionStats"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	stats := make(map[models.Tier]*models.TierSessionStats, len(models.Tiers()))
	for _, t := range models.Tiers() {
		stats[t] = &models.TierSessionStats{Tier: t}
	}

	sessionsQuery, args, err := psql.Select(
		"COALESCE(e.tier, u.subscription_tier) AS session_tier",
		"COUNT(s.id)",
		"COUNT(s.id) FILTER (WHERE s.ended_at IS NULL)",
		"COUNT(s.id) FILTER (WHERE s.ended_at IS NOT NULL)",
		"COUNT(DISTINCT s.user_uid)",
		"COALESCE(AVG(EXTRACT(EPOCH FROM (s.ended_at - s.started_at)) / 60) FILTER (WHERE s.ended_at IS NOT NULL), 0)",
	).
		From("review_sessions s").
		Join("users u ON u.uid = s.user_uid").
		LeftJoin("session_events e ON e.session_id = s.id AND e.event_type = ?", string(models.SessionEventStarted)).
		Where(sq.GtOrEq{"s.started_at": start}).
		Where(sq.LtOrEq{"s.started_at": end}).
		GroupBy("session_tier").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	err = s.queryRows(ctx, sessionsQuery, args, func(rows *sql.Rows) error {
		var (
			tier string
			row  models.TierSessionStats
		)
		if err := rows.Scan(&tier, &row.TotalSessions, &row.ActiveSessions, &row.CompletedSessions,
			&row.UniqueUsers, &row.AvgDurationMinutes); err != nil {
			return err
		}
		if st, ok := stats[models.Tier(tier)]; ok {
			row.Tier = st.Tier
			row.TotalReviews = st.TotalReviews
			*st = row
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviewsQuery, args, err := psql.Select("tier", "COUNT(*)").
		From("session_events").
		Where(sq.Eq{"event_type": string(models.SessionEventReview)}).
		Where(sq.GtOrEq{"occurred_at": start}).
		Where(sq.LtOrEq{"occurred_at": end}).
		GroupBy("tier").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	err = s.queryRows(ctx, reviewsQuery, args, func(rows *sql.Rows) error {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			return err
		}
		if st, ok := stats[models.Tier(tier)]; ok {
			st.TotalReviews = count
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.TierSessionStats, 0, len(stats))
	for _, t := range models.Tiers() {
		result = append(result, *stats[t])
	}
	return result, nil
}

func (s *Storage) queryRows(ctx context.Context, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
