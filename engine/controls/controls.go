// Package controls maps key presses to frame configuration changes. It holds
// no state: the caller owns the Config and passes it in on every key press.
package controls

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
)

// BiasStep is the amount the bias keys add or remove.
const BiasStep float32 = 0.0005

// Binding describes one key mapping.
type Binding struct {
	Key         uint32
	Name        string
	Description string
}

// Bindings lists every key Apply understands, in help-text order.
var Bindings = []Binding{
	{common.KeyS, "S", "toggle shadows"},
	{common.KeyUp, "Up", "increase depth bias"},
	{common.KeyDown, "Down", "decrease depth bias"},
	{common.KeyRight, "Right", "increase slope-scaled bias"},
	{common.KeyLeft, "Left", "decrease slope-scaled bias"},
	{common.KeyL, "L", "toggle slope-scaled bias"},
	{common.KeyF, "F", "cycle shadow filter"},
	{common.KeyR, "R", "cycle shadow map resolution"},
	{common.KeyC, "C", "toggle front-face culling in the shadow pass"},
	{common.KeyP, "P", "toggle premultiplied alpha"},
	{common.KeyO, "O", "toggle translucent draw order"},
	{common.KeyD, "D", "restore defaults"},
}

// Apply returns cfg with the change bound to key applied.
//
// Parameters:
//   - cfg: the current configuration
//   - key: a GLFW key code
//
// Returns:
//   - frame.Config: the updated configuration (cfg unchanged for unbound keys)
//   - bool: true if the key is bound
func Apply(cfg frame.Config, key uint32) (frame.Config, bool) {
	s := &cfg.Shadow
	switch key {
	case common.KeyS:
		s.Enabled = !s.Enabled
	case common.KeyUp:
		s.Bias += BiasStep
	case common.KeyDown:
		s.Bias = max(s.Bias-BiasStep, 0)
	case common.KeyRight:
		s.SlopeBias += BiasStep
	case common.KeyLeft:
		s.SlopeBias = max(s.SlopeBias-BiasStep, 0)
	case common.KeyL:
		s.SlopeBiasEnabled = !s.SlopeBiasEnabled
	case common.KeyF:
		s.Filter = s.Filter.Next()
	case common.KeyR:
		s.Resolution = shadow.NextResolution(s.Resolution)
	case common.KeyC:
		s.CullFront = !s.CullFront
	case common.KeyP:
		cfg.Premultiplied = !cfg.Premultiplied
	case common.KeyO:
		cfg.FlipDrawOrder = !cfg.FlipDrawOrder
	case common.KeyD:
		workers := cfg.Workers
		cfg = frame.DefaultConfig()
		cfg.Workers = workers
	default:
		return cfg, false
	}
	return cfg, true
}

// Summary renders the adjustable parameters as one line for a title bar.
//
// Parameters:
//   - cfg: the configuration to describe
//
// Returns:
//   - string: e.g. "shadows on pcf 2048 bias 0.0010 slope 0.0020 | straight alpha"
func Summary(cfg frame.Config) string {
	s := cfg.Shadow
	shadows := "shadows off"
	if s.Enabled {
		slope := "slope off"
		if s.SlopeBiasEnabled {
			slope = fmt.Sprintf("slope %.4f", s.SlopeBias)
		}
		shadows = fmt.Sprintf("shadows on %s %d bias %.4f %s", s.Filter, s.Resolution, s.Bias, slope)
		if s.CullFront {
			shadows += " front-cull"
		}
	}
	alpha := "straight alpha"
	if cfg.Premultiplied {
		alpha = "premultiplied alpha"
	}
	if cfg.FlipDrawOrder {
		alpha += " flipped"
	}
	return shadows + " | " + alpha
}
