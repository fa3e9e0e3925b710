package logger

import (
	"bytes"
	"encoding/json/v2"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "production"})

	log.Info("circle opened", "circle_id", "cir-abc123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "circle opened", entry["msg"])
	assert.Equal(t, "cir-abc123", entry["circle_id"])
}

func TestNew_DevelopmentDefaultsToPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development"})

	log.Info("claim accepted", "email", "fan@example.com")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "claim accepted")
	assert.Contains(t, out, "email=fan@example.com")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelWarn})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("capacity nearly reached")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "capacity nearly reached")
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	scoped := log.WithField("component", "gate")
	scoped.Info("claim denied")

	assert.Contains(t, buf.String(), "component=gate")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: "pretty"})

	log.WithError(assert.AnError).Error("signing failed")

	out := buf.String()
	assert.Contains(t, out, "ERR")
	assert.True(t, strings.Contains(out, "error="))
}
