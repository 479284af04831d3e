package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/review-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/review-service/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindTrialsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestScheduler(repo *MockRepository, pub *MockPublisher) *SchedulerService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSchedulerService(repo, pub, log, func() time.Time { return now })
}

func trialUser(uid string, endsIn time.Duration) *models.User {
	ends := now.Add(endsIn)
	return &models.User{
		UUID:               uid,
		Email:              uid + "@example.com",
		Username:           uid,
		Tier:               models.TierStarter,
		SubscriptionStatus: models.StatusTrialing,
		TrialEndsAt:        &ends,
	}
}

func TestNotifyExpiringTrials(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)

	repo.On("FindTrialsExpiringBetween", mock.Anything, now, now.Add(Lookahead)).
		Return([]*models.User{trialUser("alice", 3*time.Hour), trialUser("bob", 20*time.Hour)}, nil).Once()

	var notices []models.TrialExpiringNotice
	pub.On("Publish", mock.Anything, rabbitmq.RoutingTrialExpiring, mock.AnythingOfType("models.TrialExpiringNotice")).
		Run(func(args mock.Arguments) {
			notices = append(notices, args.Get(2).(models.TrialExpiringNotice))
		}).Return(nil).Twice()

	sent, err := s.NotifyExpiringTrials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, notices, 2)

	assert.Equal(t, "alice@example.com", notices[0].Email)
	assert.Equal(t, "alice", notices[0].Username)
	assert.Equal(t, models.TierStarter, notices[0].Tier)
	assert.Equal(t, 1, notices[0].DaysRemaining)
	assert.Equal(t, now.Add(3*time.Hour), notices[0].TrialEndsAt)
	_, err = uuid.Parse(notices[0].MessageID)
	assert.NoError(t, err)
	assert.NotEqual(t, notices[0].MessageID, notices[1].MessageID)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestNotifyExpiringTrials_NoUsers(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)
	repo.On("FindTrialsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()

	sent, err := s.NotifyExpiringTrials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyExpiringTrials_RepositoryError(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)
	repo.On("FindTrialsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down")).Once()

	sent, err := s.NotifyExpiringTrials(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, sent)
}

func TestNotifyExpiringTrials_PublishErrorContinues(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)
	repo.On("FindTrialsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.User{trialUser("alice", time.Hour), trialUser("bob", 2*time.Hour)}, nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	sent, err := s.NotifyExpiringTrials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestNotifyExpiringTrials_SkipsFinishedTrial(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)
	repo.On("FindTrialsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.User{trialUser("alice", 0)}, nil).Once()

	sent, err := s.NotifyExpiringTrials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo, pub := new(MockRepository), new(MockPublisher)
	s := newTestScheduler(repo, pub)
	called := make(chan struct{}, 1)
	repo.On("FindTrialsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		}).Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not run the first check")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}
