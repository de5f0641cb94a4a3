package storage

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	session := &SigningSession{
		SessionID:  "session-1",
		DocumentID: "doc-1",
		Threshold:  2,
		Status:     "pending",
		CreatedAt:  clock.Now(),
	}

	require.NoError(t, store.SaveSession(ctx, session, time.Hour))

	got, err := store.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)
	assert.Equal(t, session.Threshold, got.Threshold)

	_, err = store.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSessionTTL(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	session := &SigningSession{SessionID: "session-ttl", Status: "pending"}
	require.NoError(t, store.SaveSession(ctx, session, time.Hour))

	clock.Advance(2 * time.Hour)

	_, err := store.GetSession(ctx, "session-ttl")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryStoreLock(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	ok, err := store.AcquireLock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireLock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseLock(ctx, "session-1"))

	ok, err = store.AcquireLock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreLockExpires(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	ok, err := store.AcquireLock(ctx, "session-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)

	ok, err = store.AcquireLock(ctx, "session-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStorePayloadTTL(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	require.NoError(t, store.PutPayload(ctx, "qr-1", []byte(`{"type":"embedded"}`), 30*24*time.Hour))

	data, err := store.GetPayload(ctx, "qr-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"embedded"}`, string(data))

	clock.Advance(31 * 24 * time.Hour)

	_, err = store.GetPayload(ctx, "qr-1")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryStorePayloadIsolation(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	original := []byte(`{"type":"embedded"}`)
	require.NoError(t, store.PutPayload(ctx, "qr-1", original, 0))

	// Neither the caller's input slice nor the returned slice aliases the
	// stored payload.
	original[0] = 'X'
	data, err := store.GetPayload(ctx, "qr-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"embedded"}`, string(data))

	data[0] = 'X'
	again, err := store.GetPayload(ctx, "qr-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"embedded"}`, string(again))
}

func TestMemoryStoreDocuments(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	store := NewMemoryStore(clock)
	ctx := context.Background()

	doc := &Document{ID: "doc-1", Title: "Ijazah", Content: "..."}
	require.NoError(t, store.PutDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Ijazah", got.Title)

	// Mutating the returned copy must not affect the stored record.
	got.Title = "changed"
	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Ijazah", again.Title)

	assert.Error(t, store.PutDocument(ctx, &Document{}))
}
