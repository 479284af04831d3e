package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/review-service/internal/models"
)

const sessionColumns = `id, user_uid, started_at, ended_at, cooling_period_hours`

func scanSession(row rowScanner) (*models.ReviewSession, error) {
	var (
		s       models.ReviewSession
		endedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserUID, &s.StartedAt, &endedAt, &s.CoolingPeriodHours); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// GetActiveSession возвращает открытую сессию пользователя.
// Если активной сессии нет, возвращает nil без ошибки.
func (s *Storage) GetActiveSession(ctx context.Context, userUID string) (*models.ReviewSession, error) {
	const op = "storage.GetActiveSession"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + sessionColumns + `
			  FROM review_sessions
			  WHERE user_uid = $1 AND ended_at IS NULL
			  ORDER BY started_at DESC
			  LIMIT 1`
	session, err := scanSession(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// GetLastEndedSession возвращает последнюю завершённую сессию пользователя
// или nil, если пользователь ещё не завершал сессий.
func (s *Storage) GetLastEndedSession(ctx context.Context, userUID string) (*models.ReviewSession, error) {
	const op = "storage.GetLastEndedSession"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + sessionColumns + `
			  FROM review_sessions
			  WHERE user_uid = $1 AND ended_at IS NOT NULL
			  ORDER BY ended_at DESC
			  LIMIT 1`
	session, err := scanSession(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// CreateSession открывает новую сессию. Частичный уникальный индекс
// не даёт открыть вторую активную сессию для того же пользователя.
func (s *Storage) CreateSession(ctx context.Context, session models.ReviewSession) (string, error) {
	const op = "storage.CreateSession"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var id string
	query := `INSERT INTO review_sessions (user_uid, started_at, cooling_period_hours)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query, session.UserUID, session.StartedAt, session.CoolingPeriodHours).Scan(&id)
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%s: %w", op, models.ErrActiveSessionExists)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// EndSession закрывает активную сессию.
func (s *Storage) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	const op = "storage.EndSession"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE review_sessions SET ended_at = $1 WHERE id = $2 AND ended_at IS NULL`,
		endedAt, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNoActiveSession)
	}
	return nil
}
