package light

import (
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/chewxy/math32"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	position     [3]float32
	target       [3]float32
	up           [3]float32
	color        [3]float32
	intensity    float32
	ambient      float32
	castsShadows bool
}

// Light is the single shadow-casting light the tutorial scenes use. It is
// placed at a position and aimed at a target; the shadow pass renders the
// scene from this point of view with an orthographic projection.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Target returns the world-space point the light is aimed at.
	//
	// Returns:
	//   - [3]float32: target as (x, y, z)
	Target() [3]float32

	// Up returns the up vector used to orient the light's view matrix.
	//
	// Returns:
	//   - [3]float32: up as (x, y, z)
	Up() [3]float32

	// Direction returns the normalized direction the light travels, from the
	// position toward the target.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Ambient returns the ambient term added to every lit fragment, unaffected
	// by shadowing.
	//
	// Returns:
	//   - float32: the ambient factor
	Ambient() float32

	// CastsShadows returns whether a shadow depth pass is rendered for this light.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// ViewMatrix writes the light's look-at view matrix into out.
	//
	// Parameters:
	//   - out: destination slice (must be at least 16 elements)
	ViewMatrix(out []float32)

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetTarget sets the world-space point the light is aimed at.
	//
	// Parameters:
	//   - x, y, z: target components
	SetTarget(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetCastsShadows sets whether the light renders a shadow depth pass.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light with sensible defaults and any provided options applied.
// The default light sits above the origin, looks straight down and casts shadows.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		position:     [3]float32{0, 10, 0},
		target:       [3]float32{0, 0, 0},
		up:           [3]float32{0, 0, -1},
		color:        [3]float32{1, 1, 1},
		intensity:    1.0,
		ambient:      0.2,
		castsShadows: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Target() [3]float32 {
	return l.target
}

func (l *lightImpl) Up() [3]float32 {
	return l.up
}

func (l *lightImpl) Direction() [3]float32 {
	return common.Normalize3(common.Sub3(l.target, l.position))
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Ambient() float32 {
	return l.ambient
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) ViewMatrix(out []float32) {
	up := l.up
	// Fall back to X when the up vector is parallel to the light direction.
	if math32.Abs(common.Dot3(l.Direction(), common.Normalize3(up))) > 0.99 {
		up = [3]float32{1, 0, 0}
	}
	common.LookAt(out,
		l.position[0], l.position[1], l.position[2],
		l.target[0], l.target[1], l.target[2],
		up[0], up[1], up[2],
	)
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetTarget(x, y, z float32) {
	l.target = [3]float32{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}
