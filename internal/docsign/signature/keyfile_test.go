package signature

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFileRoundtrip(t *testing.T) {
	kp, err := GenerateKeyPair(RoleKaprodi, "Siti Aminah", "siti@univ.ac.id")
	require.NoError(t, err)

	data, err := json.Marshal(kp.ToKeyFile())
	require.NoError(t, err)

	loaded, err := LoadKeyFile(data)
	require.NoError(t, err)
	assert.Equal(t, kp.Role, loaded.Role)
	assert.Equal(t, kp.OwnerName, loaded.OwnerName)
	assert.Equal(t, kp.PublicKey, loaded.PublicKey)
	assert.Equal(t, kp.Seed(), loaded.Seed())
	assert.Equal(t, KeyStatusActive, loaded.Status)
}

func TestLoadKeyFileRefusesRevoked(t *testing.T) {
	kp, err := GenerateKeyPair(RoleDosen, "Budi Santoso", "budi@univ.ac.id")
	require.NoError(t, err)
	kp.Revoke()

	data, err := json.Marshal(kp.ToKeyFile())
	require.NoError(t, err)

	_, err = LoadKeyFile(data)
	assert.True(t, faults.IsKind(err, faults.KindInvalidKeyFormat))
	assert.Contains(t, err.Error(), "revoked")
}

func TestLoadKeyFileRejectsInvalid(t *testing.T) {
	kp, err := GenerateKeyPair(RoleDekan, "Agus Wijaya", "agus@univ.ac.id")
	require.NoError(t, err)
	base := kp.ToKeyFile()

	cases := []struct {
		name   string
		mutate func(kf *KeyFile)
	}{
		{"unknown role", func(kf *KeyFile) { kf.Role = "mahasiswa" }},
		{"seed not hex", func(kf *KeyFile) { kf.PrivateSeed = "zz" }},
		{"public key mismatch", func(kf *KeyFile) { kf.PublicKey = strings.Repeat("ab", 32) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kf := *base
			tc.mutate(&kf)
			data, err := json.Marshal(&kf)
			require.NoError(t, err)

			_, err = LoadKeyFile(data)
			assert.Error(t, err)
		})
	}

	_, err = LoadKeyFile([]byte("not json"))
	assert.Error(t, err)
}
