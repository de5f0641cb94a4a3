package faults

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFailureError(t *testing.T) {
	f := NewSession(KindDuplicateSignature, "session-1", "role dosen already signed")
	assert.Contains(t, f.Error(), "DUPLICATE_SIGNATURE")
	assert.Contains(t, f.Error(), "session-1")
	assert.Contains(t, f.Error(), "role dosen already signed")
}

func TestFailureViolations(t *testing.T) {
	f := WithViolations(KindInvalidConfig, "invalid session config", []string{
		"threshold must be at least 2",
		"duplicate role: dosen",
	})
	assert.Contains(t, f.Error(), "threshold must be at least 2")
	assert.Contains(t, f.Error(), "duplicate role: dosen")
}

func TestFailureUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	f := Wrap(KindNotFound, cause, "failed to load session")
	assert.Equal(t, cause, f.Unwrap())
	assert.Contains(t, f.Error(), "connection refused")
}

func TestKindOf(t *testing.T) {
	f := New(KindExpired, "session expired")
	wrapped := errors.Wrap(f, "add signature")

	assert.Equal(t, KindExpired, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindExpired))
	assert.False(t, IsKind(wrapped, KindSessionClosed))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
