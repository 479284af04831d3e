// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/review-service/internal/lib/jwt"
	"github.com/magabrotheeeer/review-service/internal/lib/password"
	"github.com/magabrotheeeer/review-service/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users       UserRepository
	jwtMaker    jwt.Maker
	trialPeriod time.Duration
	now         func() time.Time
}

// NewAuthService создает новый экземпляр AuthService. Новые пользователи
// получают пробный период длительностью trialPeriod.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, trialPeriod time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		jwtMaker:    jwtMaker,
		trialPeriod: trialPeriod,
		now:         time.Now,
	}
}

// Register создает пользователя уровня STARTER на пробном периоде.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.AuthService.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	trialEndsAt := s.now().UTC().Add(s.trialPeriod)
	user := models.User{
		Email:              email,
		Username:           username,
		PasswordHash:       hashed,
		Role:               models.RoleUser,
		Tier:               models.TierStarter,
		SubscriptionStatus: models.StatusTrialing,
		TrialEndsAt:        &trialEndsAt,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и выдаёт JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, models.Role, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", "", fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID, string(user.Role))
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// ValidateToken проверяет JWT и возвращает удостоверение пользователя.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*models.Identity, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("services.AuthService.ValidateToken: %w: %w", models.ErrUnauthorized, err)
	}
	return &models.Identity{
		UserUID: claims.UserUID,
		Role:    models.Role(claims.Role),
	}, nil
}
