package signature

import (
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/pkg/errors"
)

// Verdict reasons. Tampering (the document no longer matches the hash that
// was signed) is reported distinctly from a cryptographically invalid
// signature.
const (
	ReasonValid            = "valid"
	ReasonTamperDetected   = "tamper_detected"
	ReasonInvalidSignature = "invalid_signature"
)

// Verdict is the outcome of a document-level verification.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// SignDocument canonicalizes and hashes doc, then signs the digest. Signing
// the digest rather than the raw content bounds the message size and allows
// hash-only transmission to verifiers.
func SignDocument(doc *hash.Document, priv []byte, role Role) (*Signature, error) {
	h, err := hash.Bind(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash document")
	}
	return Sign(h, priv, role)
}

// VerifyDocumentSignature recomputes the document hash and checks it against
// the hash recorded at signing time before verifying the signature itself.
func VerifyDocumentSignature(doc *hash.Document, sig *Signature) (*Verdict, error) {
	if sig == nil {
		return nil, errors.New("signature is nil")
	}

	h, err := hash.Bind(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash document")
	}

	if !h.Equal(sig.MessageHash) {
		return &Verdict{Valid: false, Reason: ReasonTamperDetected}, nil
	}

	if !VerifySignature(sig, h) {
		return &Verdict{Valid: false, Reason: ReasonInvalidSignature}, nil
	}

	return &Verdict{Valid: true, Reason: ReasonValid}, nil
}
