package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/review-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/review-service/internal/models"
	services "github.com/magabrotheeeer/review-service/internal/services/session"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *RepoMock) GetActiveSession(ctx context.Context, userUID string) (*models.ReviewSession, error) {
	args := m.Called(ctx, userUID)
	s, _ := args.Get(0).(*models.ReviewSession)
	return s, args.Error(1)
}

func (m *RepoMock) GetLastEndedSession(ctx context.Context, userUID string) (*models.ReviewSession, error) {
	args := m.Called(ctx, userUID)
	s, _ := args.Get(0).(*models.ReviewSession)
	return s, args.Error(1)
}

func (m *RepoMock) CreateSession(ctx context.Context, session models.ReviewSession) (string, error) {
	args := m.Called(ctx, session)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) EndSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	return m.Called(ctx, sessionID, endedAt).Error(0)
}

func (m *RepoMock) RecordSessionEvent(ctx context.Context, event models.SessionEvent) error {
	return m.Called(ctx, event).Error(0)
}

type WarningCheckerMock struct {
	mock.Mock
}

func (m *WarningCheckerMock) CheckSessionWarning(ctx context.Context, userUID string) (models.WarningCheck, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.WarningCheck), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(repo *RepoMock, warnings *WarningCheckerMock, pub *PublisherMock) *services.SessionService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var publisher services.EventPublisher
	if pub != nil {
		publisher = pub
	}
	return services.NewSessionService(log, repo, warnings, publisher, 12, func() time.Time { return now })
}

func TestSessionService_GetSessionWarning(t *testing.T) {
	t.Run("anonymous gets safe default without data access", func(t *testing.T) {
		repo, warnings := new(RepoMock), new(WarningCheckerMock)

		got, err := newService(repo, warnings, nil).GetSessionWarning(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, models.SessionWarning{WarningLevel: models.WarningLevelNone}, got)
		warnings.AssertNotCalled(t, "CheckSessionWarning", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "GetActiveSession", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name        string
		session     *models.ReviewSession
		check       models.WarningCheck
		wantCooling int
	}{
		{
			name:        "active session carries its cooling period",
			session:     &models.ReviewSession{ID: "s1", CoolingPeriodHours: 6},
			check:       models.WarningCheck{ShouldWarn: true, ReviewsRemaining: 1, MaxReviews: 5, WarningLevel: "critical", Message: "last one"},
			wantCooling: 6,
		},
		{
			name:        "no active session uses default",
			check:       models.WarningCheck{ReviewsRemaining: 5, MaxReviews: 5, WarningLevel: models.WarningLevelNone},
			wantCooling: models.DefaultCoolingPeriodHours,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, warnings := new(RepoMock), new(WarningCheckerMock)
			warnings.On("CheckSessionWarning", mock.Anything, "u1").Return(tt.check, nil).Once()
			repo.On("GetActiveSession", mock.Anything, "u1").Return(tt.session, nil).Once()

			got, err := newService(repo, warnings, nil).GetSessionWarning(context.Background(), &models.Identity{UserUID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, models.SessionWarning{
				ShouldWarn:         tt.check.ShouldWarn,
				ReviewsRemaining:   tt.check.ReviewsRemaining,
				MaxReviews:         tt.check.MaxReviews,
				WarningLevel:       tt.check.WarningLevel,
				Message:            tt.check.Message,
				CoolingPeriodHours: tt.wantCooling,
			}, got)
		})
	}

	t.Run("collaborator failure", func(t *testing.T) {
		repo, warnings := new(RepoMock), new(WarningCheckerMock)
		warnings.On("CheckSessionWarning", mock.Anything, "u1").Return(models.WarningCheck{}, errors.New("db down"))

		_, err := newService(repo, warnings, nil).GetSessionWarning(context.Background(), &models.Identity{UserUID: "u1"})
		assert.Error(t, err)
	})
}

func TestSessionService_StartSession(t *testing.T) {
	user := &models.User{UUID: "u1", Tier: models.TierHero}
	ended := func(ago time.Duration) *models.ReviewSession {
		e := now.Add(-ago)
		return &models.ReviewSession{ID: "old", EndedAt: &e, CoolingPeriodHours: 24}
	}

	tests := []struct {
		name       string
		identity   *models.Identity
		active     *models.ReviewSession
		last       *models.ReviewSession
		createErr  error
		wantErr    error
		wantCreate bool
	}{
		{name: "anonymous", wantErr: models.ErrUnauthorized},
		{name: "first session", identity: &models.Identity{UserUID: "u1"}, wantCreate: true},
		{name: "cooling elapsed", identity: &models.Identity{UserUID: "u1"}, last: ended(25 * time.Hour), wantCreate: true},
		{name: "already active", identity: &models.Identity{UserUID: "u1"}, active: &models.ReviewSession{ID: "s0"}, wantErr: models.ErrActiveSessionExists},
		{name: "still cooling", identity: &models.Identity{UserUID: "u1"}, last: ended(time.Hour), wantErr: models.ErrCoolingPeriod},
		{name: "race on create", identity: &models.Identity{UserUID: "u1"}, createErr: models.ErrActiveSessionExists, wantErr: models.ErrActiveSessionExists, wantCreate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, pub := new(RepoMock), new(PublisherMock)
			if tt.identity != nil {
				repo.On("GetUser", mock.Anything, "u1").Return(user, nil)
				repo.On("GetActiveSession", mock.Anything, "u1").Return(tt.active, nil)
				repo.On("GetLastEndedSession", mock.Anything, "u1").Return(tt.last, nil).Maybe()
			}
			if tt.wantCreate {
				repo.On("CreateSession", mock.Anything, models.ReviewSession{UserUID: "u1", StartedAt: now, CoolingPeriodHours: 12}).
					Return("s1", tt.createErr).Once()
			}
			if tt.wantCreate && tt.createErr == nil {
				repo.On("RecordSessionEvent", mock.Anything, mock.MatchedBy(func(e models.SessionEvent) bool {
					return e.SessionID == "s1" && e.Type == models.SessionEventStarted && e.Tier == models.TierHero
				})).Return(nil).Once()
				pub.On("Publish", mock.Anything, rabbitmq.RoutingSessionEvent, mock.Anything).Return(nil).Once()
			}

			got, err := newService(repo, new(WarningCheckerMock), pub).StartSession(context.Background(), tt.identity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				repo.AssertNotCalled(t, "RecordSessionEvent", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "s1", got.ID)
				assert.True(t, got.Active())
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestSessionService_StartSession_PublishFailureIsNotFatal(t *testing.T) {
	repo, pub := new(RepoMock), new(PublisherMock)
	repo.On("GetUser", mock.Anything, "u1").Return(&models.User{UUID: "u1", Tier: models.TierStarter}, nil)
	repo.On("GetActiveSession", mock.Anything, "u1").Return(nil, nil)
	repo.On("GetLastEndedSession", mock.Anything, "u1").Return(nil, nil)
	repo.On("CreateSession", mock.Anything, mock.Anything).Return("s1", nil)
	repo.On("RecordSessionEvent", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	got, err := newService(repo, new(WarningCheckerMock), pub).StartSession(context.Background(), &models.Identity{UserUID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

func TestSessionService_EndSession(t *testing.T) {
	user := &models.User{UUID: "u1", Tier: models.TierLegend}

	t.Run("ends active session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUser", mock.Anything, "u1").Return(user, nil)
		repo.On("GetActiveSession", mock.Anything, "u1").Return(&models.ReviewSession{ID: "s1", UserUID: "u1", CoolingPeriodHours: 24}, nil)
		repo.On("EndSession", mock.Anything, "s1", now).Return(nil).Once()
		repo.On("RecordSessionEvent", mock.Anything, mock.MatchedBy(func(e models.SessionEvent) bool {
			return e.Type == models.SessionEventEnded && e.OccurredAt.Equal(now)
		})).Return(nil).Once()

		got, err := newService(repo, new(WarningCheckerMock), nil).EndSession(context.Background(), &models.Identity{UserUID: "u1"})
		require.NoError(t, err)
		require.NotNil(t, got.EndedAt)
		assert.Equal(t, now.Add(24*time.Hour), got.CoolingEndsAt())
		repo.AssertExpectations(t)
	})

	t.Run("no active session", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUser", mock.Anything, "u1").Return(user, nil)
		repo.On("GetActiveSession", mock.Anything, "u1").Return(nil, nil)

		_, err := newService(repo, new(WarningCheckerMock), nil).EndSession(context.Background(), &models.Identity{UserUID: "u1"})
		assert.ErrorIs(t, err, models.ErrNoActiveSession)
		repo.AssertNotCalled(t, "EndSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := newService(new(RepoMock), new(WarningCheckerMock), nil).EndSession(context.Background(), nil)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
