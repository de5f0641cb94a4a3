package session

import (
	"context"
	"testing"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSessionStore is a mock implementation of storage.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) SaveSession(ctx context.Context, session *storage.SigningSession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) GetSession(ctx context.Context, sessionID string) (*storage.SigningSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SigningSession), args.Error(1)
}

func (m *MockSessionStore) UpdateSession(ctx context.Context, session *storage.SigningSession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) ReleaseLock(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestInitializeStoreFailure(t *testing.T) {
	mockStore := new(MockSessionStore)
	clock := time2.NewMockClock(time.Now())
	svc := NewService(mockStore, clock, testConfig())

	h, err := hash.Bind(testDocument())
	require.NoError(t, err)

	mockStore.On("SaveSession", mock.Anything, mock.AnythingOfType("*storage.SigningSession"), 14*24*time.Hour).
		Return(errors.New("redis down")).Once()

	_, err = svc.Initialize(context.Background(), "doc-001", h, testSigners(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save session")
	mockStore.AssertExpectations(t)
}

func TestInitializePersistsPendingRecord(t *testing.T) {
	mockStore := new(MockSessionStore)
	clock := time2.NewMockClock(time.Now())
	svc := NewService(mockStore, clock, testConfig())

	h, err := hash.Bind(testDocument())
	require.NoError(t, err)

	var saved *storage.SigningSession
	mockStore.On("SaveSession", mock.Anything, mock.AnythingOfType("*storage.SigningSession"), mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*storage.SigningSession)
		}).
		Return(nil).Once()

	_, err = svc.Initialize(context.Background(), "doc-001", h, testSigners(), 2)
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "pending", saved.Status)
	assert.Equal(t, h.Bytes(), saved.DocumentHash)
	assert.Len(t, saved.RequiredSigners, 3)
	mockStore.AssertExpectations(t)
}
