// Package config loads frame configuration presets from TOML files.
//
// A preset only needs the keys it changes; everything else keeps its
// default value:
//
//	premultiplied = true
//
//	[shadow]
//	filter = "poisson-rotated"
//	resolution = 1024
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownField is wrapped when a preset contains keys Config does not have.
var ErrUnknownField = errors.New("config: unknown field")

// Load reads and parses the preset at path.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - frame.Config: the defaults overlaid with the preset
//   - error: a read, decode or validation error
func Load(path string) (frame.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return frame.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return frame.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a preset over frame.DefaultConfig and validates the result.
//
// Parameters:
//   - data: TOML document
//
// Returns:
//   - frame.Config: the defaults overlaid with the preset
//   - error: a decode error, ErrUnknownField or a frame.ErrInvalidConfig error
func Parse(data []byte) (frame.Config, error) {
	return Decode(bytes.NewReader(data))
}

// Decode is Parse for a stream.
func Decode(r io.Reader) (frame.Config, error) {
	cfg := frame.DefaultConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return frame.Config{}, fmt.Errorf("%w: %s", ErrUnknownField, strict.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return frame.Config{}, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return frame.Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return frame.Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as a complete preset.
//
// Parameters:
//   - w: destination
//   - cfg: the configuration to write
//
// Returns:
//   - error: an encode error
func Encode(w io.Writer, cfg frame.Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}
