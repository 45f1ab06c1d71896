package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesScaledPNG(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "oit.png")
	var stderr bytes.Buffer

	err := run([]string{"-scenario", "oit", "-width", "40", "-height", "30", "-scale", "3", "-out", out}, &stderr)
	require.NoError(t, err, stderr.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 90, img.Bounds().Dy())
	assert.Contains(t, stderr.String(), "msg=rendered")
}

func TestRunShadowDump(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "small.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[shadow]\nresolution = 512\n"), 0o644))
	shadowOut := filepath.Join(dir, "depth.png")

	err := run([]string{
		"-scenario", "shadows", "-width", "32", "-height", "24",
		"-config", cfgPath, "-out", filepath.Join(dir, "s.png"), "-shadow-out", shadowOut,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	f, err := os.Open(shadowOut)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{"unknown scenario", []string{"-scenario", "teapot", "-out", filepath.Join(dir, "x.png")}},
		{"zero size", []string{"-width", "0"}},
		{"bad scale", []string{"-scale", "0"}},
		{"missing config", []string{"-config", filepath.Join(dir, "none.toml")}},
		{"unknown flag", []string{"-fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, &bytes.Buffer{}))
		})
	}
}
