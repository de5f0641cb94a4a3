package qr

import (
	"encoding/hex"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/session"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
)

// PayloadType tags the two wire representations of a verification payload.
type PayloadType string

const (
	// TypeEmbedded carries the full verification payload inside the QR.
	TypeEmbedded PayloadType = "embedded"
	// TypeReference carries a token plus a quick-look fingerprint; the full
	// payload lives in the out-of-band store. Chosen iff the embedded form
	// exceeds the size limit.
	TypeReference PayloadType = "reference"
)

// AlgorithmEd25519 is the only signature algorithm this engine issues.
const AlgorithmEd25519 = "Ed25519"

// SignerEntry is one signer inside a verification payload.
type SignerEntry struct {
	Role      string    `json:"role"`
	Name      string    `json:"name,omitempty"`
	PublicKey string    `json:"public_key"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at"`
}

// VerificationPayload is the canonical embedded payload.
type VerificationPayload struct {
	Type         PayloadType       `json:"type"`
	DocumentID   string            `json:"document_id"`
	DocumentHash string            `json:"document_hash"`
	Algorithm    string            `json:"algorithm"`
	Signers      []SignerEntry     `json:"signers"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	IssuedAt     time.Time         `json:"issued_at"`
}

// ReferencePayload is the compact representation. HashPrefix lets a verifier
// sanity-check the document without a round trip; Token retrieves the full
// payload.
type ReferencePayload struct {
	Type           PayloadType `json:"type"`
	Token          string      `json:"token"`
	DocumentID     string      `json:"document_id"`
	HashPrefix     string      `json:"hash_prefix"`
	SignatureCount int         `json:"signature_count"`
}

// Payload is the classified result of an encode or decode. Exactly one of
// Embedded/Reference is set, matching Type. Encoded holds the exact bytes
// destined for (or read from) the QR image.
type Payload struct {
	Type      PayloadType
	Embedded  *VerificationPayload
	Reference *ReferencePayload
	Encoded   []byte
}

// Artifact is the input to encoding: a document identity plus one or more
// verified signatures.
type Artifact struct {
	DocumentID   string
	DocumentHash hash.DocumentHash
	Entries      []session.AggregateEntry
}

// FromAggregate adapts a completed session aggregate for encoding.
func FromAggregate(agg *session.Aggregate) *Artifact {
	return &Artifact{
		DocumentID:   agg.DocumentID,
		DocumentHash: agg.DocumentHash,
		Entries:      agg.Entries,
	}
}

// FromSignature adapts a single-signer signature for encoding.
func FromSignature(documentID string, sig *signature.Signature, signerName string) *Artifact {
	return &Artifact{
		DocumentID:   documentID,
		DocumentHash: sig.MessageHash,
		Entries: []session.AggregateEntry{
			{
				Role:           sig.SignerRole,
				Name:           signerName,
				PublicKey:      sig.SignerPublicKey,
				SignatureBytes: sig.Bytes,
				SignedAt:       sig.SignedAt,
			},
		},
	}
}

func (a *Artifact) signers() []SignerEntry {
	entries := make([]SignerEntry, 0, len(a.Entries))
	for _, e := range a.Entries {
		entries = append(entries, SignerEntry{
			Role:      string(e.Role),
			Name:      e.Name,
			PublicKey: hex.EncodeToString(e.PublicKey),
			Signature: hex.EncodeToString(e.SignatureBytes),
			SignedAt:  e.SignedAt,
		})
	}
	return entries
}
