package qr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/AhmadFauzi003/backend-eddsa/internal/util"
	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Codec turns signature artifacts into QR verification payloads and back.
// QR codes have a hard visual data-density ceiling; multi-signer aggregates
// routinely exceed it, so encoding is two-tier: embed when small, otherwise
// store out-of-band and reference by token.
type Codec struct {
	payloads   storage.PayloadStore
	clock      time2.Clock
	embedLimit int
	payloadTTL time.Duration
}

func NewCodec(payloads storage.PayloadStore, clock time2.Clock, cfg config.QR) *Codec {
	return &Codec{
		payloads:   payloads,
		clock:      clock,
		embedLimit: cfg.EmbedLimit,
		payloadTTL: cfg.PayloadTTL,
	}
}

// Encode is total: it always produces exactly one of the two variants.
func (c *Codec) Encode(ctx context.Context, artifact *Artifact, metadata map[string]string) (*Payload, error) {
	if artifact == nil || len(artifact.Entries) == 0 {
		return nil, errors.New("artifact has no signatures")
	}

	full := &VerificationPayload{
		Type:         TypeEmbedded,
		DocumentID:   artifact.DocumentID,
		DocumentHash: artifact.DocumentHash.Hex(),
		Algorithm:    AlgorithmEd25519,
		Signers:      artifact.signers(),
		Metadata:     metadata,
		IssuedAt:     c.clock.Now(),
	}

	data, err := json.Marshal(full)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal verification payload")
	}

	if len(data) <= c.embedLimit {
		return &Payload{Type: TypeEmbedded, Embedded: full, Encoded: data}, nil
	}

	token := "qr-" + uuid.New().String()
	if err := c.payloads.PutPayload(ctx, token, data, c.payloadTTL); err != nil {
		return nil, errors.Wrap(err, "failed to store out-of-band payload")
	}

	ref := &ReferencePayload{
		Type:           TypeReference,
		Token:          token,
		DocumentID:     artifact.DocumentID,
		HashPrefix:     artifact.DocumentHash.ShortHex(),
		SignatureCount: len(artifact.Entries),
	}
	encoded, err := json.Marshal(ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal reference payload")
	}

	util.LogFromContext(ctx).Debug().
		Str("token", token).
		Int("payload_bytes", len(data)).
		Msg("Payload exceeds embed limit, stored out-of-band")

	return &Payload{Type: TypeReference, Reference: ref, Encoded: encoded}, nil
}

// Decode parses raw QR data and classifies it. Anything that is not one of
// the two known payload types fails with UnrecognizedFormat.
func (c *Codec) Decode(data []byte) (*Payload, error) {
	var probe struct {
		Type PayloadType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, faults.Wrap(faults.KindUnrecognizedFormat, err, "payload is not valid JSON")
	}

	switch probe.Type {
	case TypeEmbedded:
		var full VerificationPayload
		if err := json.Unmarshal(data, &full); err != nil {
			return nil, faults.Wrap(faults.KindUnrecognizedFormat, err, "malformed embedded payload")
		}
		return &Payload{Type: TypeEmbedded, Embedded: &full, Encoded: data}, nil
	case TypeReference:
		var ref ReferencePayload
		if err := json.Unmarshal(data, &ref); err != nil {
			return nil, faults.Wrap(faults.KindUnrecognizedFormat, err, "malformed reference payload")
		}
		return &Payload{Type: TypeReference, Reference: &ref, Encoded: data}, nil
	default:
		return nil, faults.Newf(faults.KindUnrecognizedFormat, "unknown payload type: %q", probe.Type)
	}
}

// Validate performs the structural check only: required fields per declared
// type. Cryptographic validity is the session/signature engine's job.
func (c *Codec) Validate(p *Payload) error {
	if p == nil {
		return faults.New(faults.KindUnrecognizedFormat, "payload is nil")
	}

	var violations []string
	switch p.Type {
	case TypeEmbedded:
		if p.Embedded == nil {
			return faults.New(faults.KindUnrecognizedFormat, "embedded payload body missing")
		}
		if p.Embedded.DocumentID == "" {
			violations = append(violations, "document_id is empty")
		}
		if p.Embedded.DocumentHash == "" {
			violations = append(violations, "document_hash is empty")
		}
		if p.Embedded.Algorithm == "" {
			violations = append(violations, "algorithm is empty")
		}
		if len(p.Embedded.Signers) == 0 {
			violations = append(violations, "no signers")
		}
		for i, s := range p.Embedded.Signers {
			if s.PublicKey == "" || s.Signature == "" {
				violations = append(violations, fmt.Sprintf("signer %d missing key or signature", i))
			}
		}
	case TypeReference:
		if p.Reference == nil {
			return faults.New(faults.KindUnrecognizedFormat, "reference payload body missing")
		}
		if p.Reference.Token == "" {
			violations = append(violations, "token is empty")
		}
		if p.Reference.DocumentID == "" {
			violations = append(violations, "document_id is empty")
		}
		if len(p.Reference.HashPrefix) != 16 {
			violations = append(violations, "hash_prefix must be 16 hex characters")
		}
		if p.Reference.SignatureCount < 1 {
			violations = append(violations, "signature_count must be positive")
		}
	default:
		return faults.Newf(faults.KindUnrecognizedFormat, "unknown payload type: %q", p.Type)
	}

	if len(violations) > 0 {
		return faults.WithViolations(faults.KindUnrecognizedFormat, "payload failed structural validation", violations)
	}
	return nil
}

// Resolve fetches the full verification payload behind a reference token.
func (c *Codec) Resolve(ctx context.Context, ref *ReferencePayload) (*VerificationPayload, error) {
	if ref == nil || ref.Token == "" {
		return nil, faults.New(faults.KindUnrecognizedFormat, "reference token missing")
	}

	data, err := c.payloads.GetPayload(ctx, ref.Token)
	if err != nil {
		if errors.Is(err, storage.ErrExpired) {
			return nil, faults.Newf(faults.KindExpired, "payload for token %s has expired", ref.Token)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, faults.Newf(faults.KindNotFound, "payload for token %s not found", ref.Token)
		}
		return nil, errors.Wrap(err, "failed to fetch payload")
	}

	var full VerificationPayload
	if err := json.Unmarshal(data, &full); err != nil {
		return nil, faults.Wrap(faults.KindUnrecognizedFormat, err, "stored payload is malformed")
	}
	return &full, nil
}
