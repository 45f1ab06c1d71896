package frame

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/oit"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("frame: invalid config")

// Config is the complete set of user-adjustable render parameters. It is
// passed by value to every RenderFrame call; nothing in the pipeline keeps
// hidden global copies of it.
type Config struct {
	Shadow shadow.Params `toml:"shadow"`

	// Premultiplied selects premultiplied-alpha blending in the resolve pass
	// and premultiplies translucent colors before accumulation.
	Premultiplied bool `toml:"premultiplied"`

	// FlipDrawOrder submits translucent geometry in reverse order.
	FlipDrawOrder bool `toml:"flip_draw_order"`

	MaxResolveFragments int          `toml:"max_resolve_fragments"`
	Overdraw            int          `toml:"overdraw"`
	Workers             int          `toml:"workers"`
	ClearColor          common.Color `toml:"clear_color"`
}

// DefaultConfig returns the configuration the viewer starts with.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Shadow:              shadow.DefaultParams(),
		MaxResolveFragments: oit.DefaultMaxResolveFragments,
		Overdraw:            oit.DefaultOverdraw,
		Workers:             4,
		ClearColor:          common.RGBA(0.1, 0.1, 0.12, 1),
	}
}

// Validate checks every field and reports all problems at once.
//
// Returns:
//   - error: nil, or an error wrapping ErrInvalidConfig
func (c Config) Validate() error {
	var errs []error
	if err := c.Shadow.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxResolveFragments < 1 || c.MaxResolveFragments > oit.MaxResolveFragments {
		errs = append(errs, fmt.Errorf("max_resolve_fragments %d outside [1, %d]", c.MaxResolveFragments, oit.MaxResolveFragments))
	}
	if c.Overdraw < 1 {
		errs = append(errs, fmt.Errorf("overdraw %d must be at least 1", c.Overdraw))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", c.Workers))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
