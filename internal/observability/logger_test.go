package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/geocoder89/clocktrack/internal/actorctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsActorAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod", "")

	ctx := actorctx.WithUserID(context.Background(), "user-1")
	ctx = actorctx.WithRequestID(ctx, "req-1")
	log.InfoContext(ctx, "timer.start", "entry_id", "e-1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "timer.start", rec["msg"])
	assert.Equal(t, "user-1", rec["user_id"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.NotContains(t, rec, "trace_id")
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod", "").Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "dev", "").Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_LevelOverrideAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev", "warn")

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("token issued", "token", "eyJhbGciOi...", "Password", "hunter22")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "[redacted]", rec["token"])
	assert.Equal(t, "[redacted]", rec["Password"])
	assert.Equal(t, "clocktrack", rec["service"])
	assert.Equal(t, "dev", rec["env"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("dev", ""))
	assert.Equal(t, slog.LevelInfo, parseLevel("prod", ""))
	assert.Equal(t, slog.LevelInfo, parseLevel("prod", "loud"))
	assert.Equal(t, slog.LevelError, parseLevel("dev", "ERROR"))
}
