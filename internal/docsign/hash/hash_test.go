package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() *Document {
	return &Document{
		ID:      "doc-001",
		Title:   "Surat Keterangan Lulus",
		Content: "Menyatakan bahwa mahasiswa telah lulus ujian skripsi.",
		Metadata: map[string]string{
			"faculty":  "Teknik",
			"semester": "genap",
		},
	}
}

func TestBindDeterministic(t *testing.T) {
	h1, err := Bind(sampleDoc())
	require.NoError(t, err)

	h2, err := Bind(sampleDoc())
	require.NoError(t, err)

	assert.True(t, h1.Equal(h2))
	assert.False(t, h1.IsZero())
}

func TestBindMetadataOrderIndependent(t *testing.T) {
	a := sampleDoc()
	b := sampleDoc()
	// Rebuild the map in a different insertion order.
	b.Metadata = map[string]string{
		"semester": "genap",
		"faculty":  "Teknik",
	}

	ha, err := Bind(a)
	require.NoError(t, err)
	hb, err := Bind(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestBindMutationChangesHash(t *testing.T) {
	base, err := Bind(sampleDoc())
	require.NoError(t, err)

	mutations := []func(*Document){
		func(d *Document) { d.Title = "Surat Keterangan Aktif" },
		func(d *Document) { d.Content = d.Content + " " },
		func(d *Document) { d.Metadata["semester"] = "ganjil" },
		func(d *Document) { d.Metadata["extra"] = "x" },
	}

	for _, mutate := range mutations {
		doc := sampleDoc()
		mutate(doc)
		h, err := Bind(doc)
		require.NoError(t, err)
		assert.NotEqual(t, base, h)
	}
}

func TestBindInvalidInput(t *testing.T) {
	_, err := Bind(nil)
	assert.Error(t, err)

	_, err = Bind(&Document{Title: "no id"})
	assert.Error(t, err)
}

func TestHexRoundTrip(t *testing.T) {
	h, err := Bind(sampleDoc())
	require.NoError(t, err)

	parsed, err := ParseHex(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	assert.Len(t, h.ShortHex(), ShortHexLen)
	assert.Equal(t, h.Hex()[:ShortHexLen], h.ShortHex())
}

func TestParseHexRejectsBadInput(t *testing.T) {
	_, err := ParseHex("zzzz")
	assert.Error(t, err)

	_, err = ParseHex("abcd")
	assert.Error(t, err)

	_, err = FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}
