package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, zerolog.TraceLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", FORMAT_JSON)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Uint32("head", 3).Msg("queue full")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "queue full", rec["message"])
	assert.EqualValues(t, 3, rec["head"])
	assert.Contains(t, rec, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", FORMAT_CONSOLE)
	require.NoError(t, err)
	log.Info().Str("title", "DOOM").Msg("host surface open")
	assert.Contains(t, buf.String(), "host surface open")
	assert.Contains(t, buf.String(), "title=DOOM")
}

func TestNewAutoOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "", FORMAT_AUTO)
	require.NoError(t, err)
	log.Info().Msg("x")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewErrors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", FORMAT_JSON)
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
