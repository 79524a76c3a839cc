package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		wantJSON bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.env, Level: slog.LevelInfo})
			log.Info("voting started", "club_id", "club-1")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"voting started"`)
				assert.Contains(t, buf.String(), `"club_id":"club-1"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "club_id=club-1")
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON, Level: slog.LevelWarn})

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.SetLevel(slog.LevelDebug)
	log.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWithErrorAndField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON, Level: slog.LevelInfo})

	log.WithError(errors.New("boom")).WithField("suggestion_id", "sug-1").Error("close-out failed")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"suggestion_id":"sug-1"`)
	assert.Same(t, log, log.WithError(nil))
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.WithGroup("http").Debug("request", "status", 200, "path", "/api/v1/clubs")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "http.status=200")
	assert.Contains(t, out, "http.path=/api/v1/clubs")
}

func TestContextRoundTrip(t *testing.T) {
	fallback := Discard()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: FormatJSON}).Logger
	ctx := IntoContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx, fallback))
}
