package qr

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/faults"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/session"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/AhmadFauzi003/backend-eddsa/internal/storage"
	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T) (*Codec, *storage.MemoryStore, *time2.MockClock) {
	t.Helper()
	clock := time2.NewMockClock(time.Now())
	store := storage.NewMemoryStore(clock)
	codec := NewCodec(store, clock, config.QR{
		EmbedLimit: 2000,
		PayloadTTL: 30 * 24 * time.Hour,
	})
	return codec, store, clock
}

func singleSignerArtifact(t *testing.T) *Artifact {
	t.Helper()
	doc := &hash.Document{
		ID:      "doc-150b",
		Title:   "Surat Keterangan",
		Content: strings.Repeat("a", 150),
	}
	kp, err := signature.GenerateKeyPair(signature.RoleDosen, "Budi", "budi@univ.ac.id")
	require.NoError(t, err)

	sig, err := signature.SignDocument(doc, kp.PrivateKey, signature.RoleDosen)
	require.NoError(t, err)

	return FromSignature(doc.ID, sig, "Budi")
}

func multiSignerArtifact(t *testing.T, signers int) *Artifact {
	t.Helper()
	doc := &hash.Document{
		ID:      "doc-150b",
		Title:   "Surat Keterangan",
		Content: strings.Repeat("a", 150),
	}
	h, err := hash.Bind(doc)
	require.NoError(t, err)

	roles := []signature.Role{
		signature.RoleDosen, signature.RoleKaprodi, signature.RoleDekan,
		signature.RoleRektor, signature.RolePembimbing, signature.RolePenguji,
	}

	entries := make([]session.AggregateEntry, 0, signers)
	for i := 0; i < signers; i++ {
		role := roles[i%len(roles)]
		kp, err := signature.GenerateKeyPair(role, "x", "x@univ.ac.id")
		require.NoError(t, err)
		sig, err := signature.Sign(h, kp.PrivateKey, role)
		require.NoError(t, err)
		entries = append(entries, session.AggregateEntry{
			Role:           role,
			Name:           strings.Repeat("Prof. Dr. Ir. H. Nama Sangat Panjang ", 3),
			PublicKey:      sig.SignerPublicKey,
			SignatureBytes: sig.Bytes,
			SignedAt:       sig.SignedAt,
		})
	}

	return &Artifact{DocumentID: doc.ID, DocumentHash: h, Entries: entries}
}

func TestEncodeSmallPayloadEmbeds(t *testing.T) {
	codec, _, _ := testCodec(t)

	p, err := codec.Encode(context.Background(), singleSignerArtifact(t), map[string]string{"faculty": "Teknik"})
	require.NoError(t, err)

	assert.Equal(t, TypeEmbedded, p.Type)
	require.NotNil(t, p.Embedded)
	assert.Nil(t, p.Reference)
	assert.LessOrEqual(t, len(p.Encoded), 2000)
	assert.Equal(t, AlgorithmEd25519, p.Embedded.Algorithm)
	assert.Len(t, p.Embedded.Signers, 1)
}

func TestEncodeLargePayloadReferences(t *testing.T) {
	codec, _, _ := testCodec(t)
	artifact := multiSignerArtifact(t, 5)

	p, err := codec.Encode(context.Background(), artifact, nil)
	require.NoError(t, err)

	assert.Equal(t, TypeReference, p.Type)
	require.NotNil(t, p.Reference)
	assert.Nil(t, p.Embedded)
	assert.Equal(t, 5, p.Reference.SignatureCount)
	assert.True(t, strings.HasPrefix(p.Reference.Token, "qr-"))

	// The quick-look fingerprint matches the full document hash.
	assert.Equal(t, artifact.DocumentHash.Hex()[:16], p.Reference.HashPrefix)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, _, _ := testCodec(t)
	ctx := context.Background()

	for _, artifact := range []*Artifact{singleSignerArtifact(t), multiSignerArtifact(t, 5)} {
		p, err := codec.Encode(ctx, artifact, nil)
		require.NoError(t, err)

		decoded, err := codec.Decode(p.Encoded)
		require.NoError(t, err)
		assert.Equal(t, p.Type, decoded.Type)
		require.NoError(t, codec.Validate(decoded))
	}
}

func TestResolveReference(t *testing.T) {
	codec, _, _ := testCodec(t)
	ctx := context.Background()
	artifact := multiSignerArtifact(t, 5)

	p, err := codec.Encode(ctx, artifact, nil)
	require.NoError(t, err)
	require.Equal(t, TypeReference, p.Type)

	full, err := codec.Resolve(ctx, p.Reference)
	require.NoError(t, err)
	assert.Equal(t, artifact.DocumentID, full.DocumentID)
	assert.Equal(t, artifact.DocumentHash.Hex(), full.DocumentHash)
	assert.Len(t, full.Signers, 5)
}

func TestResolveExpiredPayload(t *testing.T) {
	codec, _, clock := testCodec(t)
	ctx := context.Background()

	p, err := codec.Encode(ctx, multiSignerArtifact(t, 5), nil)
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)

	_, err = codec.Resolve(ctx, p.Reference)
	assert.True(t, faults.IsKind(err, faults.KindExpired))

	_, err = codec.Resolve(ctx, &ReferencePayload{Type: TypeReference, Token: "qr-missing"})
	assert.True(t, faults.IsKind(err, faults.KindNotFound))
}

func TestDecodeUnrecognizedFormat(t *testing.T) {
	codec, _, _ := testCodec(t)

	cases := [][]byte{
		[]byte("not json at all"),
		[]byte(`{"type":"barcode"}`),
		[]byte(`{"no_type":"here"}`),
	}
	for _, data := range cases {
		_, err := codec.Decode(data)
		assert.True(t, faults.IsKind(err, faults.KindUnrecognizedFormat), string(data))
	}
}

func TestValidateMissingFields(t *testing.T) {
	codec, _, _ := testCodec(t)

	err := codec.Validate(&Payload{
		Type:     TypeEmbedded,
		Embedded: &VerificationPayload{Type: TypeEmbedded},
	})
	require.Error(t, err)
	var f *faults.Failure
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Violations, "document_id is empty")
	assert.Contains(t, f.Violations, "no signers")

	err = codec.Validate(&Payload{
		Type:      TypeReference,
		Reference: &ReferencePayload{Type: TypeReference, HashPrefix: "abc"},
	})
	require.Error(t, err)
	require.ErrorAs(t, err, &f)
	assert.Contains(t, f.Violations, "token is empty")
	assert.Contains(t, f.Violations, "hash_prefix must be 16 hex characters")

	assert.Error(t, codec.Validate(nil))
}

func TestRenderPNG(t *testing.T) {
	codec, _, _ := testCodec(t)

	p, err := codec.Encode(context.Background(), singleSignerArtifact(t), nil)
	require.NoError(t, err)

	png, err := RenderPNG(p, 256)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = RenderPNG(nil, 256)
	assert.Error(t, err)
}
