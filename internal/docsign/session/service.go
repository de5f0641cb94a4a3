package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/AhmadFauzi003/backend-eddsa/internal/util"
	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MinThreshold is the lowest threshold a multi-signature session accepts.
const MinThreshold = 2

// Verification reasons beyond the per-signature ones.
const (
	ReasonThresholdNotMet = "threshold_not_met"
)

// Service owns the multi-signature session state machine. All mutations of a
// single session are serialized through a per-session mutex; different
// sessions proceed independently.
type Service struct {
	store storage.SessionStore
	clock time2.Clock
	cfg   config.Signing

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store storage.SessionStore, clock time2.Clock, cfg config.Signing) *Service {
	ensureMetrics()
	return &Service{
		store: store,
		clock: clock,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing mutations of one session.
func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

// retention keeps the stored record around past the signing window so that
// the expired status stays observable instead of degrading to not-found.
func (s *Service) retention() time.Duration {
	return 2 * s.cfg.SessionTTL
}

// Initialize validates the signer configuration and creates a pending
// session over the given document hash. A zero threshold selects the
// configured default, capped by the signer count. Every violated rule is
// reported at once.
func (s *Service) Initialize(ctx context.Context, documentID string, documentHash hash.DocumentHash, signers []RequiredSigner, threshold int) (*Session, error) {
	log := util.LogFromContext(ctx)

	if threshold == 0 {
		threshold = s.cfg.DefaultThreshold
		if len(signers) < threshold {
			threshold = len(signers)
		}
	}

	var violations []string
	if documentID == "" {
		violations = append(violations, "document id is empty")
	}
	if documentHash.IsZero() {
		violations = append(violations, "document hash is empty")
	}
	if len(signers) < MinThreshold {
		violations = append(violations, fmt.Sprintf("at least %d required signers needed, got %d", MinThreshold, len(signers)))
	}
	if len(signers) > s.cfg.MaxSigners {
		violations = append(violations, fmt.Sprintf("at most %d required signers allowed, got %d", s.cfg.MaxSigners, len(signers)))
	}
	if threshold < MinThreshold {
		violations = append(violations, fmt.Sprintf("threshold must be at least %d, got %d", MinThreshold, threshold))
	}
	if threshold > len(signers) {
		violations = append(violations, fmt.Sprintf("threshold %d exceeds signer count %d", threshold, len(signers)))
	}

	seen := make(map[signature.Role]struct{}, len(signers))
	for i, rs := range signers {
		if !rs.Role.Valid() {
			violations = append(violations, fmt.Sprintf("unknown signer role: %s", rs.Role))
		}
		if _, dup := seen[rs.Role]; dup {
			violations = append(violations, fmt.Sprintf("duplicate role: %s", rs.Role))
		}
		seen[rs.Role] = struct{}{}
		if rs.Name == "" {
			violations = append(violations, fmt.Sprintf("signer %d has no name", i))
		}
	}

	if len(violations) > 0 {
		return nil, faults.WithViolations(faults.KindInvalidConfig, "invalid session config", violations)
	}

	now := s.clock.Now()
	session := &Session{
		SessionID:       "session-" + uuid.New().String(),
		DocumentID:      documentID,
		DocumentHash:    documentHash,
		RequiredSigners: make([]RequiredSigner, len(signers)),
		Threshold:       threshold,
		Signatures:      []*signature.Signature{},
		Status:          StatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.cfg.SessionTTL),
	}
	copy(session.RequiredSigners, signers)
	for i := range session.RequiredSigners {
		session.RequiredSigners[i].Status = SignerStatusPending
		session.RequiredSigners[i].SignedAt = nil
	}

	if err := s.store.SaveSession(ctx, toRecord(session), s.retention()); err != nil {
		return nil, errors.Wrap(err, "failed to save session")
	}

	sessionsCreated.Inc()
	log.Info().
		Str("session_id", session.SessionID).
		Str("document_id", documentID).
		Int("threshold", threshold).
		Int("signers", len(signers)).
		Msg("Multi-signature session initialized")

	return session, nil
}

// Get loads a session. A pending session past its window is reported as
// expired, but the stored transition is left to the mutating paths: a reader
// holds no session lock, and writing from here could clobber a record a
// concurrent locked AddSignature has meanwhile completed.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.expiryDue(session) {
		session.Status = StatusExpired
	}
	return session, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*Session, error) {
	rec, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrExpired) {
			return nil, faults.NewSession(faults.KindExpired, sessionID, "session record has expired")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, faults.NewSession(faults.KindNotFound, sessionID, "session not found")
		}
		return nil, errors.Wrap(err, "failed to get session")
	}
	return fromRecord(rec)
}

// expiryDue reports whether the pending session's signing window has elapsed.
func (s *Service) expiryDue(session *Session) bool {
	return session.Status == StatusPending && s.clock.Now().After(session.ExpiresAt)
}

// getLocked loads the session and persists the lazy expiry transition when
// due. Callers must hold sessionLock(sessionID): between the read and the
// write nothing else may touch the record.
func (s *Service) getLocked(ctx context.Context, sessionID string) (*Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.expiryDue(session) {
		session.Status = StatusExpired
		if err := s.store.UpdateSession(ctx, toRecord(session), s.retention()); err != nil {
			return nil, errors.Wrap(err, "failed to persist session expiry")
		}
		util.LogFromContext(ctx).Info().
			Str("session_id", session.SessionID).
			Msg("Session expired")
	}
	return session, nil
}

// AddSignature signs the session's document hash for the given role and
// appends the verified result. The whole read-modify-write holds the
// session's mutex: two concurrent signers for the same role cannot both pass
// the duplicate check, and threshold completion is atomic with the append.
func (s *Service) AddSignature(ctx context.Context, sessionID string, role signature.Role, privateKey []byte, info SignerInfo) (*Session, error) {
	log := util.LogFromContext(ctx)

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Terminal() {
		return nil, faults.NewSession(faults.KindSessionClosed, sessionID,
			fmt.Sprintf("session is %s and accepts no further signatures", session.Status))
	}

	signer := session.findSigner(role)
	if signer == nil {
		return nil, faults.NewSession(faults.KindUnknownSigner, sessionID,
			fmt.Sprintf("role %s is not among the required signers", role))
	}
	if signer.Status == SignerStatusSigned || session.hasSignature(role) {
		return nil, faults.NewSession(faults.KindDuplicateSignature, sessionID,
			fmt.Sprintf("role %s has already signed", role))
	}

	sig, err := signature.Sign(session.DocumentHash, privateKey, role)
	if err != nil {
		return nil, err
	}

	// Re-verify before acceptance. Sign already self-checks; a stored
	// signature must never depend on that implementation detail.
	if !signature.VerifySignature(sig, session.DocumentHash) {
		return nil, faults.NewSession(faults.KindInvalidSignature, sessionID,
			"produced signature failed verification")
	}

	now := s.clock.Now()
	sig.SignedAt = now
	session.Signatures = append(session.Signatures, sig)
	signer.Status = SignerStatusSigned
	signer.SignedAt = &now
	if info.Name != "" {
		signer.Name = info.Name
	}
	if info.Email != "" {
		signer.Email = info.Email
	}

	completed := session.signedCount() >= session.Threshold
	if completed {
		session.Status = StatusCompleted
		session.CompletedAt = &now
	}

	if err := s.store.UpdateSession(ctx, toRecord(session), s.retention()); err != nil {
		return nil, errors.Wrap(err, "failed to update session")
	}

	signaturesAccepted.Inc()
	if completed {
		sessionsCompleted.Inc()
		completionDuration.Observe(now.Sub(session.CreatedAt).Seconds())
	}

	log.Info().
		Str("session_id", sessionID).
		Str("role", string(role)).
		Int("signed", session.signedCount()).
		Int("threshold", session.Threshold).
		Bool("completed", completed).
		Msg("Signature accepted")

	return session, nil
}

// Cancel explicitly terminates a pending session.
func (s *Service) Cancel(ctx context.Context, sessionID string) (*Session, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.getLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Terminal() {
		return nil, faults.NewSession(faults.KindSessionClosed, sessionID,
			fmt.Sprintf("cannot cancel a %s session", session.Status))
	}

	session.Status = StatusCancelled
	if err := s.store.UpdateSession(ctx, toRecord(session), s.retention()); err != nil {
		return nil, errors.Wrap(err, "failed to update session")
	}

	util.LogFromContext(ctx).Info().
		Str("session_id", sessionID).
		Msg("Session cancelled")
	return session, nil
}

// VerifySession checks the supplied document against the session. A hash
// mismatch short-circuits to a tamper verdict; otherwise every stored
// signature is verified independently and the session is valid iff at least
// threshold of them hold. Optional signers who never signed do not count
// against validity.
func (s *Service) VerifySession(ctx context.Context, sessionID string, doc *hash.Document) (*VerificationResult, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		SessionID:  sessionID,
		DocumentID: session.DocumentID,
		Threshold:  session.Threshold,
	}

	docHash, err := hash.Bind(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash document")
	}

	if !docHash.Equal(session.DocumentHash) {
		result.Reason = signature.ReasonTamperDetected
		return result, nil
	}

	for _, sig := range session.Signatures {
		sr := SignatureResult{Role: sig.SignerRole}
		if signature.VerifySignature(sig, session.DocumentHash) {
			sr.Valid = true
			sr.Reason = signature.ReasonValid
			result.ValidCount++
		} else {
			sr.Reason = signature.ReasonInvalidSignature
		}
		result.Signatures = append(result.Signatures, sr)
	}

	if result.ValidCount >= session.Threshold {
		result.Valid = true
		result.Reason = signature.ReasonValid
	} else {
		result.Reason = ReasonThresholdNotMet
	}
	return result, nil
}

// Progress returns the read-only signing progress of a session.
func (s *Service) Progress(ctx context.Context, sessionID string) (*Progress, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p := &Progress{
		SessionID: session.SessionID,
		Status:    session.Status,
		Threshold: session.Threshold,
		Expired:   session.Status == StatusExpired,
		ExpiresAt: session.ExpiresAt,
	}
	for _, rs := range session.RequiredSigners {
		if rs.Status == SignerStatusSigned {
			p.Signed = append(p.Signed, rs.Role)
		} else {
			p.Pending = append(p.Pending, rs.Role)
		}
	}
	p.Percent = len(p.Signed) * 100 / session.Threshold
	return p, nil
}

// CreateAggregate packages the signatures of a completed session for
// downstream encoding, preserving the required signer order.
func (s *Service) CreateAggregate(ctx context.Context, sessionID string) (*Aggregate, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != StatusCompleted {
		return nil, faults.NewSession(faults.KindNotCompleted, sessionID,
			fmt.Sprintf("session is %s, aggregate requires completion", session.Status))
	}

	agg := &Aggregate{
		SessionID:    session.SessionID,
		DocumentID:   session.DocumentID,
		DocumentHash: session.DocumentHash,
		Threshold:    session.Threshold,
	}
	if session.CompletedAt != nil {
		agg.CompletedAt = *session.CompletedAt
	}

	for _, rs := range session.RequiredSigners {
		if rs.Status != SignerStatusSigned {
			continue
		}
		for _, sig := range session.Signatures {
			if sig.SignerRole != rs.Role {
				continue
			}
			agg.Entries = append(agg.Entries, AggregateEntry{
				Role:           rs.Role,
				Name:           rs.Name,
				PublicKey:      sig.SignerPublicKey,
				SignatureBytes: sig.Bytes,
				SignedAt:       sig.SignedAt,
			})
			break
		}
	}
	return agg, nil
}
