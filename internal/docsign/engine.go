package docsign

import (
	"context"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/qr"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/session"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store is the combined persistence surface the engine consumes. Both the
// redis and the in-memory implementations satisfy it.
type Store interface {
	storage.DocumentStore
	storage.SessionStore
	storage.PayloadStore
}

// Engine is the central struct keeping all the signing services and their
// shared dependencies. Transports (CLI, HTTP, RPC) wrap it.
type Engine struct {
	Config   config.Server
	Clock    time2.Clock
	Store    Store
	Sessions *session.Service
	Codec    *qr.Codec
}

// NewEngine wires the services against redis when an endpoint is configured,
// falling back to the in-memory store otherwise.
func NewEngine(ctx context.Context, cfg config.Server) (*Engine, error) {
	clock := time2.DefaultClock

	var store Store
	if cfg.Redis.Endpoint != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Endpoint,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		store = storage.NewRedisStore(client)
	} else {
		log.Warn().Msg("No redis endpoint configured, using in-memory store")
		store = storage.NewMemoryStore(clock)
	}

	return NewEngineWithStore(cfg, clock, store), nil
}

// NewEngineWithStore wires the services against a caller-provided store.
func NewEngineWithStore(cfg config.Server, clock time2.Clock, store Store) *Engine {
	return &Engine{
		Config:   cfg,
		Clock:    clock,
		Store:    store,
		Sessions: session.NewService(store, clock, cfg.Signing),
		Codec:    qr.NewCodec(store, clock, cfg.QR),
	}
}

// SaveDocument persists the signable document so later verification can run
// against the stored copy.
func (e *Engine) SaveDocument(ctx context.Context, doc *hash.Document, sessionID string) error {
	if doc == nil || doc.ID == "" {
		return errors.New("document id is empty")
	}
	return e.Store.PutDocument(ctx, &storage.Document{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Metadata:  doc.Metadata,
		SessionID: sessionID,
		UpdatedAt: e.Clock.Now(),
	})
}

// LoadDocument fetches a stored document back into its signable form.
func (e *Engine) LoadDocument(ctx context.Context, id string) (*hash.Document, error) {
	rec, err := e.Store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, faults.Newf(faults.KindNotFound, "document %s not found", id)
		}
		return nil, errors.Wrap(err, "failed to load document")
	}
	return &hash.Document{
		ID:       rec.ID,
		Title:    rec.Title,
		Content:  rec.Content,
		Metadata: rec.Metadata,
	}, nil
}
