package signature

import (
	"crypto/ed25519"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/pkg/errors"
)

// GenerateKeyPair returns a fresh Ed25519 keypair bound to a signer identity.
// An entropy source failure panics: no cryptographic output can be trusted
// after it, so aborting beats returning an error the caller might ignore.
func GenerateKeyPair(role Role, ownerName, ownerEmail string) (*KeyPair, error) {
	if !role.Valid() {
		return nil, faults.Newf(faults.KindUnknownSigner, "unknown signer role: %s", role)
	}

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(errors.Wrap(err, "entropy source failure during key generation"))
	}

	return &KeyPair{
		PublicKey:  pub,
		PrivateKey: priv,
		Role:       role,
		OwnerName:  ownerName,
		OwnerEmail: ownerEmail,
		CreatedAt:  time.Now(),
		Status:     KeyStatusActive,
	}, nil
}

// KeyPairFromSeed deterministically rebuilds a keypair from a 32-byte seed.
// Use for keys restored from caller-held material or in test fixtures.
func KeyPairFromSeed(seed []byte, role Role, ownerName, ownerEmail string) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, faults.Newf(faults.KindInvalidKeyFormat,
			"seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	if !role.Valid() {
		return nil, faults.Newf(faults.KindUnknownSigner, "unknown signer role: %s", role)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
		Role:       role,
		OwnerName:  ownerName,
		OwnerEmail: ownerEmail,
		CreatedAt:  time.Now(),
		Status:     KeyStatusActive,
	}, nil
}

// normalizePrivateKey accepts either a 32-byte seed or a 64-byte expanded
// Ed25519 private key.
func normalizePrivateKey(priv []byte) (ed25519.PrivateKey, error) {
	switch len(priv) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(priv), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(priv), nil
	default:
		return nil, faults.Newf(faults.KindInvalidKeyFormat,
			"private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(priv))
	}
}

// DerivePublicKey returns the public key matching priv, so callers supplying
// only private key material never need to transmit the public half separately.
func DerivePublicKey(priv []byte) (ed25519.PublicKey, error) {
	key, err := normalizePrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return key.Public().(ed25519.PublicKey), nil
}

// Sign produces a deterministic RFC 8032 signature over the document hash.
// The result is verified against the derived public key before it is
// returned; the engine never hands out an unverified signature.
func Sign(message hash.DocumentHash, priv []byte, role Role) (*Signature, error) {
	if !role.Valid() {
		return nil, faults.Newf(faults.KindUnknownSigner, "unknown signer role: %s", role)
	}

	key, err := normalizePrivateKey(priv)
	if err != nil {
		return nil, err
	}

	pub := key.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(key, message.Bytes())

	if !ed25519.Verify(pub, message.Bytes(), sig) {
		return nil, faults.New(faults.KindInvalidSignature,
			"signing backend produced a signature that does not verify")
	}

	return &Signature{
		Bytes:           sig,
		SignerRole:      role,
		SignerPublicKey: pub,
		SignedAt:        time.Now(),
		MessageHash:     message,
	}, nil
}

// Verify checks sig over message with pub. It never returns an error:
// structurally malformed input is a verification failure, not an engine
// fault, so an attacker cannot crash the verifier.
func Verify(sig []byte, message hash.DocumentHash, pub []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message.Bytes(), sig)
}

// VerifySignature checks a stored Signature against the given message hash.
func VerifySignature(sig *Signature, message hash.DocumentHash) bool {
	if sig == nil {
		return false
	}
	return Verify(sig.Bytes, message, sig.SignerPublicKey)
}
