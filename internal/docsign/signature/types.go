package signature

import (
	"crypto/ed25519"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
)

// Role identifies the academic position of a signer. The set is closed;
// anything else is rejected at the boundary.
type Role string

const (
	RoleDosen      Role = "dosen"
	RoleKaprodi    Role = "kaprodi"
	RoleDekan      Role = "dekan"
	RoleRektor     Role = "rektor"
	RolePembimbing Role = "pembimbing"
	RolePenguji    Role = "penguji"
)

var knownRoles = map[Role]struct{}{
	RoleDosen:      {},
	RoleKaprodi:    {},
	RoleDekan:      {},
	RoleRektor:     {},
	RolePembimbing: {},
	RolePenguji:    {},
}

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", faults.Newf(faults.KindUnknownSigner, "unknown signer role: %s", s)
	}
	return r, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// KeyStatus is the lifecycle state of a keypair.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusRevoked KeyStatus = "revoked"
)

// KeyPair holds an Ed25519 keypair together with its owner metadata. Private
// key material is only ever held by the caller; the engine never retains it
// beyond the call that uses it.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
	Role       Role
	OwnerName  string
	OwnerEmail string
	CreatedAt  time.Time
	Status     KeyStatus
}

// Seed returns the 32-byte private seed of the keypair.
func (k *KeyPair) Seed() []byte {
	return k.PrivateKey.Seed()
}

// Revoke marks the keypair as revoked.
func (k *KeyPair) Revoke() {
	k.Status = KeyStatusRevoked
}

// Signature is a verified Ed25519 signature over a document hash. An instance
// is never constructed without passing verification first.
type Signature struct {
	Bytes           []byte            `json:"bytes"`
	SignerRole      Role              `json:"signer_role"`
	SignerPublicKey ed25519.PublicKey `json:"signer_public_key"`
	SignedAt        time.Time         `json:"signed_at"`
	MessageHash     hash.DocumentHash `json:"message_hash"`
}
