package signature

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/pkg/errors"
)

// KeyFile is the serialized keypair form written by key generation and read
// back by the signing commands. Seed and public key are hex-encoded.
type KeyFile struct {
	Role        string    `json:"role"`
	OwnerName   string    `json:"owner_name"`
	OwnerEmail  string    `json:"owner_email"`
	PublicKey   string    `json:"public_key"`
	PrivateSeed string    `json:"private_seed"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToKeyFile serializes the keypair for storage.
func (k *KeyPair) ToKeyFile() *KeyFile {
	return &KeyFile{
		Role:        string(k.Role),
		OwnerName:   k.OwnerName,
		OwnerEmail:  k.OwnerEmail,
		PublicKey:   hex.EncodeToString(k.PublicKey),
		PrivateSeed: hex.EncodeToString(k.Seed()),
		Status:      string(k.Status),
		CreatedAt:   k.CreatedAt,
	}
}

// LoadKeyFile reconstructs a keypair from its serialized form. Revoked keys
// are refused, and a stored public key must match the one derived from the
// seed.
func LoadKeyFile(data []byte) (*KeyPair, error) {
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, errors.Wrap(err, "key file is not valid JSON")
	}

	if KeyStatus(kf.Status) == KeyStatusRevoked {
		return nil, faults.New(faults.KindInvalidKeyFormat, "key has been revoked")
	}

	role, err := ParseRole(kf.Role)
	if err != nil {
		return nil, err
	}

	seed, err := hex.DecodeString(kf.PrivateSeed)
	if err != nil {
		return nil, faults.Wrap(faults.KindInvalidKeyFormat, err, "private seed is not valid hex")
	}

	kp, err := KeyPairFromSeed(seed, role, kf.OwnerName, kf.OwnerEmail)
	if err != nil {
		return nil, err
	}
	kp.CreatedAt = kf.CreatedAt

	if kf.PublicKey != "" {
		pub, err := hex.DecodeString(kf.PublicKey)
		if err != nil {
			return nil, faults.Wrap(faults.KindInvalidKeyFormat, err, "public key is not valid hex")
		}
		if !bytes.Equal(pub, kp.PublicKey) {
			return nil, faults.New(faults.KindInvalidKeyFormat, "public key does not match private seed")
		}
	}
	return kp, nil
}
