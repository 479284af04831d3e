package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/review-service/internal/models"
)

const userColumns = `uid, email, username, password_hash, role, subscription_tier,
			      subscription_status, trial_ends_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                  models.User
		role, tier, status string
		trialEndsAt        sql.NullTime
	)
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&role, &tier, &status, &trialEndsAt, &u.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.Tier, err = models.ParseTier(tier); err != nil {
		return nil, err
	}
	if u.SubscriptionStatus, err = models.ParseSubscriptionStatus(status); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if trialEndsAt.Valid {
		t := trialEndsAt.Time
		u.TrialEndsAt = &t
	}
	return &u, nil
}

// RegisterUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, subscription_tier,
			      subscription_status, trial_ends_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, string(user.Role), string(user.Tier),
		string(user.SubscriptionStatus), user.TrialEndsAt).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindTrialsExpiringBetween находит пользователей на пробном периоде,
// который заканчивается в интервале [from, to).
func (s *Storage) FindTrialsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.FindTrialsExpiringBetween"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = $1
			    AND trial_ends_at >= $2 AND trial_ends_at < $3
			  ORDER BY trial_ends_at`
	rows, err := s.DB.QueryContext(ctx, query, string(models.StatusTrialing), from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
