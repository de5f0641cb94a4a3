package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

// MemoryStore is a mutex-guarded in-process store implementing the same
// contracts as RedisStore. Used by tests and single-process deployments.
type MemoryStore struct {
	clock time2.Clock

	mu        sync.RWMutex
	sessions  map[string]entry
	documents map[string]*Document
	payloads  map[string]entry
	locks     map[string]time.Time
}

type entry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func NewMemoryStore(clock time2.Clock) *MemoryStore {
	return &MemoryStore{
		clock:     clock,
		sessions:  make(map[string]entry),
		documents: make(map[string]*Document),
		payloads:  make(map[string]entry),
		locks:     make(map[string]time.Time),
	}
}

func (s *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && s.clock.Now().After(e.expiresAt)
}

// SaveSession stores the session, expiring it after ttl.
func (s *MemoryStore) SaveSession(_ context.Context, session *SigningSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = s.withTTL(data, ttl)
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*SigningSession, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(e) {
		return nil, ErrExpired
	}

	var session SigningSession
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

func (s *MemoryStore) UpdateSession(ctx context.Context, session *SigningSession, ttl time.Duration) error {
	return s.SaveSession(ctx, session, ttl)
}

func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// AcquireLock takes the named lock unless it is already held and unexpired.
func (s *MemoryStore) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if deadline, held := s.locks[key]; held && now.Before(deadline) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) ReleaseLock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

func (s *MemoryStore) PutDocument(_ context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (s *MemoryStore) PutPayload(_ context.Context, token string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, len(payload))
	copy(data, payload)
	s.payloads[token] = s.withTTL(data, ttl)
	return nil
}

func (s *MemoryStore) GetPayload(_ context.Context, token string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.payloads[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(e) {
		return nil, ErrExpired
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (s *MemoryStore) withTTL(data []byte, ttl time.Duration) entry {
	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}
	return e
}
