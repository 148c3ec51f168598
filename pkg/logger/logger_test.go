package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		lvl, err := parseLogLevel(tt.input)
		require.NoError(t, err, "level %q", tt.input)
		assert.Equal(t, tt.want, lvl, "level %q", tt.input)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("verbose", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoggerWritesAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Debug("quiet")
	log.Info("quiet too")
	log.Warn("loud")
	log.Error("louder")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "louder")
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", &buf)
	require.NoError(t, err)

	log.WithField("account", "someone").Info("starting")
	log.InfoWithFields("page complete", map[string]interface{}{
		"page":   3,
		"queued": int64(12),
	})

	out := buf.String()
	assert.Contains(t, out, "account=")
	assert.Contains(t, out, "someone")
	assert.Contains(t, out, "page=")
	assert.Contains(t, out, "queued=")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	log := NewTestLogger()

	child := log.WithField("account", "someone")
	child.Info("from child")
	log.Info("from parent")

	msgs := log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "someone", msgs[0].Fields["account"])
	assert.NotContains(t, msgs[1].Fields, "account")
}

func TestWithErrorNilIsNoop(t *testing.T) {
	log := NewTestLogger()
	same := log.WithError(nil)
	assert.Equal(t, Logger(log), same)
}

func TestTestLoggerRecording(t *testing.T) {
	log := NewTestLogger()

	log.Debug("a debug line")
	log.WarnWithFields("a warning", map[string]interface{}{"code": 429})

	assert.True(t, log.HasMessage("a debug line"))
	assert.False(t, log.HasMessage("never logged"))

	warns := log.MessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, 429, warns[0].Fields["code"])
}
