package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// Size is the digest length in bytes.
const Size = sha256.Size

// ShortHexLen is the number of hex characters exposed as the quick-look
// fingerprint of a digest.
const ShortHexLen = 16

// DocumentHash is the SHA-256 digest of a document's canonical serialization.
type DocumentHash [Size]byte

// Document is the signable view of an academic document. Metadata keys are
// free-form; their order never influences the digest.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type metaPair struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// canonicalDocument fixes the field order of the serialized form. Metadata is
// flattened to a key-sorted pair list so map iteration order cannot leak into
// the digest.
type canonicalDocument struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Metadata []metaPair `json:"metadata"`
}

// Bind canonicalizes doc and returns its content hash. Two semantically
// identical documents always yield the same digest; any mutation of content
// or metadata changes it.
func Bind(doc *Document) (DocumentHash, error) {
	var h DocumentHash

	if doc == nil {
		return h, errors.New("document is nil")
	}
	if doc.ID == "" {
		return h, errors.New("document id is empty")
	}

	pairs := make([]metaPair, 0, len(doc.Metadata))
	for k, v := range doc.Metadata {
		pairs = append(pairs, metaPair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	data, err := json.Marshal(canonicalDocument{
		ID:       doc.ID,
		Title:    doc.Title,
		Content:  doc.Content,
		Metadata: pairs,
	})
	if err != nil {
		return h, errors.Wrap(err, "failed to canonicalize document")
	}

	return sha256.Sum256(data), nil
}

// Bytes returns the raw digest.
func (h DocumentHash) Bytes() []byte {
	return h[:]
}

// Hex returns the full lowercase hex digest.
func (h DocumentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// ShortHex returns the first 16 hex characters of the digest.
func (h DocumentHash) ShortHex() string {
	return h.Hex()[:ShortHexLen]
}

// Equal reports whether two digests are identical.
func (h DocumentHash) Equal(other DocumentHash) bool {
	return h == other
}

// IsZero reports whether the digest is all zero (unset).
func (h DocumentHash) IsZero() bool {
	return h == DocumentHash{}
}

// ParseHex decodes a full hex digest back into a DocumentHash.
func ParseHex(s string) (DocumentHash, error) {
	var h DocumentHash

	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.Wrap(err, "invalid hex digest")
	}
	if len(raw) != Size {
		return h, errors.Errorf("digest must be %d bytes, got %d", Size, len(raw))
	}

	copy(h[:], raw)
	return h, nil
}

// FromBytes copies a raw 32-byte digest into a DocumentHash.
func FromBytes(raw []byte) (DocumentHash, error) {
	var h DocumentHash

	if len(raw) != Size {
		return h, errors.Errorf("digest must be %d bytes, got %d", Size, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
