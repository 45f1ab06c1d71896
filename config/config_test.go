package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyIsDefault(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, frame.DefaultConfig(), cfg)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
premultiplied = true
flip_draw_order = true

[shadow]
filter = "poisson-rotated"
resolution = 1024
bias = 0.002
`))
	require.NoError(t, err)

	assert.True(t, cfg.Premultiplied)
	assert.True(t, cfg.FlipDrawOrder)
	assert.Equal(t, shadow.FilterPoissonRotated, cfg.Shadow.Filter)
	assert.Equal(t, 1024, cfg.Shadow.Resolution)
	assert.InDelta(t, 0.002, cfg.Shadow.Bias, 1e-9)

	def := frame.DefaultConfig()
	assert.Equal(t, def.Shadow.SlopeBias, cfg.Shadow.SlopeBias)
	assert.Equal(t, def.Workers, cfg.Workers)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{"unknown key", "antialias = true", ErrUnknownField},
		{"unknown shadow key", "[shadow]\nsoftness = 2", ErrUnknownField},
		{"bad filter", "[shadow]\nfilter = \"vsm\"", nil},
		{"bad resolution", "[shadow]\nresolution = 300", frame.ErrInvalidConfig},
		{"negative bias", "[shadow]\nbias = -0.1", frame.ErrInvalidConfig},
		{"syntax", "premultiplied = ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := frame.DefaultConfig()
	cfg.Shadow.Filter = shadow.FilterPoisson
	cfg.Shadow.CullFront = true
	cfg.MaxResolveFragments = 8

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))

	got, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soft.toml")
	require.NoError(t, os.WriteFile(path, []byte("[shadow]\nfilter = \"nearest\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, shadow.FilterNearest, cfg.Shadow.Filter)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
