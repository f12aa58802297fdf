package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "fabrica-api", Out: &buf})

	l.Debug().Msg("oculto")
	assert.Zero(t, buf.Len())

	sales := l.Component("sales")
	sales.Info().Str("sale_id", "s1").Msg("venta registrada")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fabrica-api", entry["service"])
	assert.Equal(t, "sales", entry["component"])
	assert.Equal(t, "s1", entry["sale_id"])
	assert.Equal(t, "venta registrada", entry["message"])
}

func TestNew_ConsoleInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "development", Level: "debug", Out: &buf})
	l.Debug().Msg("hola")
	assert.Contains(t, buf.String(), "hola")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
