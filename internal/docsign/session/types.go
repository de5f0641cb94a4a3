package session

import (
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/pkg/errors"
)

// Status is the session state. Completed, expired and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// SignerStatus tracks a required signer within a session.
type SignerStatus string

const (
	SignerStatusPending SignerStatus = "pending"
	SignerStatusSigned  SignerStatus = "signed"
)

// RequiredSigner is one designated signer slot of a session. Roles are unique
// within a session.
type RequiredSigner struct {
	Role     signature.Role `json:"role"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Required bool           `json:"required"`
	Status   SignerStatus   `json:"status"`
	SignedAt *time.Time     `json:"signed_at,omitempty"`
}

// SignerInfo is the caller-supplied identity of the signer adding a
// signature. Authentication happened upstream.
type SignerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is a threshold multi-signature workflow over a single document
// hash. It is mutated only through the Service.
type Session struct {
	SessionID       string                 `json:"session_id"`
	DocumentID      string                 `json:"document_id"`
	DocumentHash    hash.DocumentHash      `json:"document_hash"`
	RequiredSigners []RequiredSigner       `json:"required_signers"`
	Threshold       int                    `json:"threshold"`
	Signatures      []*signature.Signature `json:"signatures"`
	Status          Status                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	ExpiresAt       time.Time              `json:"expires_at"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

func (s *Session) findSigner(role signature.Role) *RequiredSigner {
	for i := range s.RequiredSigners {
		if s.RequiredSigners[i].Role == role {
			return &s.RequiredSigners[i]
		}
	}
	return nil
}

func (s *Session) hasSignature(role signature.Role) bool {
	for _, sig := range s.Signatures {
		if sig.SignerRole == role {
			return true
		}
	}
	return false
}

func (s *Session) signedCount() int {
	return len(s.Signatures)
}

// Terminal reports whether the session can no longer accept signatures.
func (s *Session) Terminal() bool {
	return s.Status != StatusPending
}

// Progress is a derived, read-only view of a session.
type Progress struct {
	SessionID string           `json:"session_id"`
	Status    Status           `json:"status"`
	Signed    []signature.Role `json:"signed"`
	Pending   []signature.Role `json:"pending"`
	Threshold int              `json:"threshold"`
	// Percent is signed/threshold, reported raw (may exceed 100 when more
	// than threshold signers sign).
	Percent   int       `json:"percent"`
	Expired   bool      `json:"expired"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AggregateEntry is one signer's contribution in a completed session.
type AggregateEntry struct {
	Role           signature.Role `json:"role"`
	Name           string         `json:"name"`
	PublicKey      []byte         `json:"public_key"`
	SignatureBytes []byte         `json:"signature_bytes"`
	SignedAt       time.Time      `json:"signed_at"`
}

// Aggregate is the ordered signature set of a completed session, packaged
// for downstream encoding. Entry order follows the required signer order.
type Aggregate struct {
	SessionID    string            `json:"session_id"`
	DocumentID   string            `json:"document_id"`
	DocumentHash hash.DocumentHash `json:"document_hash"`
	Threshold    int               `json:"threshold"`
	Entries      []AggregateEntry  `json:"entries"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// SignatureResult is the per-signature verdict of a session verification.
type SignatureResult struct {
	Role   signature.Role `json:"role"`
	Valid  bool           `json:"valid"`
	Reason string         `json:"reason"`
}

// VerificationResult is the outcome of verifying a session against a
// supplied document.
type VerificationResult struct {
	SessionID  string            `json:"session_id"`
	DocumentID string            `json:"document_id"`
	Valid      bool              `json:"valid"`
	Reason     string            `json:"reason"`
	ValidCount int               `json:"valid_count"`
	Threshold  int               `json:"threshold"`
	Signatures []SignatureResult `json:"signatures"`
}

func toRecord(s *Session) *storage.SigningSession {
	signers := make([]storage.RequiredSignerRecord, 0, len(s.RequiredSigners))
	for _, rs := range s.RequiredSigners {
		signers = append(signers, storage.RequiredSignerRecord{
			Role:     string(rs.Role),
			Name:     rs.Name,
			Email:    rs.Email,
			Required: rs.Required,
			Status:   string(rs.Status),
			SignedAt: rs.SignedAt,
		})
	}

	sigs := make([]storage.SignatureRecord, 0, len(s.Signatures))
	for _, sig := range s.Signatures {
		sigs = append(sigs, storage.SignatureRecord{
			Bytes:       sig.Bytes,
			Role:        string(sig.SignerRole),
			PublicKey:   sig.SignerPublicKey,
			SignedAt:    sig.SignedAt,
			MessageHash: sig.MessageHash.Bytes(),
		})
	}

	return &storage.SigningSession{
		SessionID:       s.SessionID,
		DocumentID:      s.DocumentID,
		DocumentHash:    s.DocumentHash.Bytes(),
		RequiredSigners: signers,
		Threshold:       s.Threshold,
		Signatures:      sigs,
		Status:          string(s.Status),
		CreatedAt:       s.CreatedAt,
		ExpiresAt:       s.ExpiresAt,
		CompletedAt:     s.CompletedAt,
	}
}

func fromRecord(rec *storage.SigningSession) (*Session, error) {
	docHash, err := hash.FromBytes(rec.DocumentHash)
	if err != nil {
		return nil, errors.Wrap(err, "invalid stored document hash")
	}

	signers := make([]RequiredSigner, 0, len(rec.RequiredSigners))
	for _, rs := range rec.RequiredSigners {
		signers = append(signers, RequiredSigner{
			Role:     signature.Role(rs.Role),
			Name:     rs.Name,
			Email:    rs.Email,
			Required: rs.Required,
			Status:   SignerStatus(rs.Status),
			SignedAt: rs.SignedAt,
		})
	}

	sigs := make([]*signature.Signature, 0, len(rec.Signatures))
	for _, sr := range rec.Signatures {
		msgHash, err := hash.FromBytes(sr.MessageHash)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid stored message hash for role %s", sr.Role)
		}
		sigs = append(sigs, &signature.Signature{
			Bytes:           sr.Bytes,
			SignerRole:      signature.Role(sr.Role),
			SignerPublicKey: sr.PublicKey,
			SignedAt:        sr.SignedAt,
			MessageHash:     msgHash,
		})
	}

	return &Session{
		SessionID:       rec.SessionID,
		DocumentID:      rec.DocumentID,
		DocumentHash:    docHash,
		RequiredSigners: signers,
		Threshold:       rec.Threshold,
		Signatures:      sigs,
		Status:          Status(rec.Status),
		CreatedAt:       rec.CreatedAt,
		ExpiresAt:       rec.ExpiresAt,
		CompletedAt:     rec.CompletedAt,
	}, nil
}
