package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMasksSecretKeys(t *testing.T) {
	out := redact([]interface{}{"user_id", int64(7), "accessToken", "abc.def.ghi", "password", "hunter2", "dangling"})
	assert.Equal(t, []interface{}{"user_id", int64(7), "accessToken", "[REDACTED]", "password", "[REDACTED]", "dangling"}, out)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", "v")
	l.Debug("hello")
	l.Sync()
}
