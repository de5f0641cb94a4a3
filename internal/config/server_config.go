package config

import (
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/util"
)

// Server bundles every runtime knob of the signing engine. It is assembled
// once from the environment and passed down to the services by the
// composition root.
type Server struct {
	Logger  LoggerServer
	Signing Signing
	QR      QR
	Redis   Redis
}

type LoggerServer struct {
	Level              string
	PrettyPrintConsole bool
}

// Signing holds the multi-signature session settings.
type Signing struct {
	// SessionTTL is the signing window before a session lazily expires.
	SessionTTL time.Duration
	// DefaultThreshold is used when a session is initialized without an
	// explicit threshold (still capped by the signer count).
	DefaultThreshold int
	// MaxSigners bounds the required signer list of a single session.
	MaxSigners int
}

// QR holds the verification payload settings.
type QR struct {
	// EmbedLimit is the serialized payload size (bytes) above which the
	// codec switches from the embedded to the reference representation.
	EmbedLimit int
	// PayloadTTL is the out-of-band payload retention, independent from the
	// session TTL so completed proofs outlive the signing window.
	PayloadTTL time.Duration
}

type Redis struct {
	Endpoint string
	Password string
	DB       int
}

// DefaultServiceConfigFromEnv returns the server config populated from the
// environment with production defaults.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Logger: LoggerServer{
			Level:              util.GetEnv("DOCSIGN_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("DOCSIGN_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Signing: Signing{
			SessionTTL:       util.GetEnvAsDuration("DOCSIGN_SIGNING_SESSION_TTL", 7*24*time.Hour),
			DefaultThreshold: util.GetEnvAsInt("DOCSIGN_SIGNING_DEFAULT_THRESHOLD", 2),
			MaxSigners:       util.GetEnvAsInt("DOCSIGN_SIGNING_MAX_SIGNERS", 10),
		},
		QR: QR{
			EmbedLimit: util.GetEnvAsInt("DOCSIGN_QR_EMBED_LIMIT", 2000),
			PayloadTTL: util.GetEnvAsDuration("DOCSIGN_QR_PAYLOAD_TTL", 30*24*time.Hour),
		},
		Redis: Redis{
			Endpoint: util.GetEnv("DOCSIGN_REDIS_ENDPOINT", ""),
			Password: util.GetEnv("DOCSIGN_REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("DOCSIGN_REDIS_DB", 0),
		},
	}
}
