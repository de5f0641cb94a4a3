package faults

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Failure represents a typed engine failure
type Failure struct {
	Kind       Kind
	Message    string
	SessionID  string
	Violations []string // every violated rule, for config validation
	Original   error
}

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidConfig
	KindSessionClosed
	KindUnknownSigner
	KindDuplicateSignature
	KindNotCompleted
	KindTamperDetected
	KindInvalidSignature
	KindInvalidKeyFormat
	KindUnrecognizedFormat
	KindNotFound
	KindExpired
)

func (f *Failure) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", f.Kind.String(), f.Message))
	if len(f.Violations) > 0 {
		sb.WriteString(fmt.Sprintf(" (violations: %s)", strings.Join(f.Violations, "; ")))
	}
	if f.SessionID != "" {
		sb.WriteString(fmt.Sprintf(" [session: %s]", f.SessionID))
	}
	if f.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", f.Original))
	}
	return sb.String()
}

func (f *Failure) Unwrap() error {
	return f.Original
}

func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "INVALID_CONFIG"
	case KindSessionClosed:
		return "SESSION_CLOSED"
	case KindUnknownSigner:
		return "UNKNOWN_SIGNER"
	case KindDuplicateSignature:
		return "DUPLICATE_SIGNATURE"
	case KindNotCompleted:
		return "NOT_COMPLETED"
	case KindTamperDetected:
		return "TAMPER_DETECTED"
	case KindInvalidSignature:
		return "INVALID_SIGNATURE"
	case KindInvalidKeyFormat:
		return "INVALID_KEY_FORMAT"
	case KindUnrecognizedFormat:
		return "UNRECOGNIZED_FORMAT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// New creates a new failure of the given kind
func New(kind Kind, msg string) *Failure {
	return &Failure{
		Kind:    kind,
		Message: msg,
	}
}

// Newf creates a new failure with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new failure wrapping an underlying error
func Wrap(kind Kind, err error, msg string) *Failure {
	return &Failure{
		Kind:     kind,
		Message:  msg,
		Original: err,
	}
}

// NewSession creates a new failure bound to a session
func NewSession(kind Kind, sessionID string, msg string) *Failure {
	return &Failure{
		Kind:      kind,
		Message:   msg,
		SessionID: sessionID,
	}
}

// WithViolations creates a config failure listing every violated rule at once
func WithViolations(kind Kind, msg string, violations []string) *Failure {
	return &Failure{
		Kind:       kind,
		Message:    msg,
		Violations: violations,
	}
}

// KindOf returns the failure kind of err, or KindUnknown for untyped errors
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a failure of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
