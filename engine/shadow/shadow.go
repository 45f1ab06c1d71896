// Package shadow implements the two-pass shadow mapping pipeline: a depth
// capturer that renders casters from the light's point of view into a square
// depth map, and a sampler that reprojects main-pass fragments into that map
// and turns a filtered depth comparison into a visibility factor.
package shadow

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultResolution is the default width and height in texels of the shadow
// depth map.
const DefaultResolution = 2048

// DefaultHalfExtent is the default orthographic half-extent (in world units)
// of the light frustum.
const DefaultHalfExtent float32 = 40.0

// DefaultNear is the default near plane of the light's orthographic projection.
const DefaultNear float32 = 0.1

// DefaultFar is the default far plane of the light's orthographic projection.
const DefaultFar float32 = 200.0

// DefaultBias is the constant depth bias subtracted from every comparison.
const DefaultBias float32 = 0.001

// DefaultSlopeBias is the default slope-scaled bias factor.
const DefaultSlopeBias float32 = 0.002

// MaxSlopeBiasTerm caps the slope-scaled term at grazing angles where
// tan(theta) diverges.
const MaxSlopeBiasTerm float32 = 0.01

// PoissonRadius is the radius in texels of the Poisson-disk tap pattern.
const PoissonRadius float32 = 2.0

// SupportedResolutions lists the shadow map sizes the pipeline accepts.
var SupportedResolutions = []int{512, 1024, 2048}

var (
	// ErrUnsupportedResolution is returned for a resolution outside SupportedResolutions.
	ErrUnsupportedResolution = errors.New("shadow: unsupported shadow map resolution")

	// ErrUnknownFilter is returned for a filter mode outside the enumeration.
	ErrUnknownFilter = errors.New("shadow: unknown filter mode")

	// ErrNegativeBias is returned when a bias parameter is below zero.
	ErrNegativeBias = errors.New("shadow: bias must not be negative")
)

// FilterMode selects how the sampler filters depth comparisons. The numeric
// values are part of the GPU uniform layout.
type FilterMode uint32

const (
	// FilterNearest is a single nearest-texel comparison (binary visibility).
	FilterNearest FilterMode = 0

	// FilterLinear is a single bilinear comparison over the four closest texels.
	FilterLinear FilterMode = 1

	// FilterPCF averages bilinear comparisons over a 3x3 texel kernel.
	FilterPCF FilterMode = 2

	// FilterPoisson averages bilinear comparisons over a fixed 16-tap disk.
	FilterPoisson FilterMode = 3

	// FilterPoissonRotated rotates the disk per fragment by a hashed angle.
	FilterPoissonRotated FilterMode = 4

	filterModeCount = 5
)

var filterNames = [filterModeCount]string{"nearest", "linear", "pcf", "poisson", "poisson-rotated"}

// String returns the preset name of the filter mode.
func (f FilterMode) String() string {
	if f < filterModeCount {
		return filterNames[f]
	}
	return fmt.Sprintf("FilterMode(%d)", uint32(f))
}

// Valid reports whether f is one of the defined filter modes.
func (f FilterMode) Valid() bool {
	return f < filterModeCount
}

// Next returns the following filter mode, wrapping back to FilterNearest.
func (f FilterMode) Next() FilterMode {
	return (f + 1) % filterModeCount
}

// ParseFilterMode maps a filter name to its FilterMode. Names are matched
// case-insensitively and underscores are accepted in place of dashes.
//
// Parameters:
//   - s: the filter name, e.g. "pcf" or "poisson-rotated"
//
// Returns:
//   - FilterMode: the parsed mode
//   - error: ErrUnknownFilter wrapped with the offending name
func ParseFilterMode(s string) (FilterMode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, n := range filterNames {
		if n == name {
			return FilterMode(i), nil
		}
	}
	return FilterNearest, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// MarshalText implements encoding.TextMarshaler so presets store filter names.
func (f FilterMode) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFilter, uint32(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FilterMode) UnmarshalText(text []byte) error {
	m, err := ParseFilterMode(string(text))
	if err != nil {
		return err
	}
	*f = m
	return nil
}

// IsSupportedResolution reports whether res is in SupportedResolutions.
func IsSupportedResolution(res int) bool {
	return slices.Contains(SupportedResolutions, res)
}

// NextResolution returns the supported resolution after res, wrapping to the
// smallest. An unsupported res yields the smallest supported resolution.
func NextResolution(res int) int {
	i := slices.Index(SupportedResolutions, res)
	return SupportedResolutions[(i+1)%len(SupportedResolutions)]
}

// Params holds the shadow state read once per frame by the capturer and the
// sampler. It is a plain value passed explicitly with every frame.
type Params struct {
	Enabled          bool       `toml:"enabled"`
	Bias             float32    `toml:"bias"`
	SlopeBias        float32    `toml:"slope_bias"`
	SlopeBiasEnabled bool       `toml:"slope_bias_enabled"`
	Filter           FilterMode `toml:"filter"`
	Resolution       int        `toml:"resolution"`
	CullFront        bool       `toml:"cull_front"`
}

// DefaultParams returns shadows enabled at DefaultResolution with PCF
// filtering and slope-scaled bias on.
//
// Returns:
//   - Params: the default parameters
func DefaultParams() Params {
	return Params{
		Enabled:          true,
		Bias:             DefaultBias,
		SlopeBias:        DefaultSlopeBias,
		SlopeBiasEnabled: true,
		Filter:           FilterPCF,
		Resolution:       DefaultResolution,
	}
}

// Validate checks the parameters for values the pipeline cannot honour.
//
// Returns:
//   - error: a joined error describing every invalid field, or nil
func (p Params) Validate() error {
	var errs []error
	if !IsSupportedResolution(p.Resolution) {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnsupportedResolution, p.Resolution))
	}
	if !p.Filter.Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownFilter, uint32(p.Filter)))
	}
	if p.Bias < 0 {
		errs = append(errs, fmt.Errorf("%w: bias %g", ErrNegativeBias, p.Bias))
	}
	if p.SlopeBias < 0 {
		errs = append(errs, fmt.Errorf("%w: slope bias %g", ErrNegativeBias, p.SlopeBias))
	}
	return errors.Join(errs...)
}
