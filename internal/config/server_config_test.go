package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, 7*24*time.Hour, cfg.Signing.SessionTTL)
	assert.Equal(t, 2, cfg.Signing.DefaultThreshold)
	assert.Equal(t, 10, cfg.Signing.MaxSigners)
	assert.Equal(t, 2000, cfg.QR.EmbedLimit)
	assert.Equal(t, 30*24*time.Hour, cfg.QR.PayloadTTL)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DOCSIGN_SIGNING_SESSION_TTL", "48h")
	t.Setenv("DOCSIGN_QR_EMBED_LIMIT", "1500")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, 48*time.Hour, cfg.Signing.SessionTTL)
	assert.Equal(t, 1500, cfg.QR.EmbedLimit)
}
