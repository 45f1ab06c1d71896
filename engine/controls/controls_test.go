package controls

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/Carmen-Shannon/oxy-passes/engine/frame"
	"github.com/Carmen-Shannon/oxy-passes/engine/shadow"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	base := frame.DefaultConfig()

	tests := []struct {
		name  string
		key   uint32
		check func(t *testing.T, got frame.Config)
	}{
		{"shadows", common.KeyS, func(t *testing.T, got frame.Config) {
			assert.Equal(t, !base.Shadow.Enabled, got.Shadow.Enabled)
		}},
		{"bias up", common.KeyUp, func(t *testing.T, got frame.Config) {
			assert.InDelta(t, base.Shadow.Bias+BiasStep, got.Shadow.Bias, 1e-9)
		}},
		{"bias down clamps", common.KeyDown, func(t *testing.T, got frame.Config) {
			assert.Zero(t, got.Shadow.Bias)
		}},
		{"slope bias up", common.KeyRight, func(t *testing.T, got frame.Config) {
			assert.InDelta(t, base.Shadow.SlopeBias+BiasStep, got.Shadow.SlopeBias, 1e-9)
		}},
		{"slope bias down", common.KeyLeft, func(t *testing.T, got frame.Config) {
			assert.InDelta(t, base.Shadow.SlopeBias-BiasStep, got.Shadow.SlopeBias, 1e-9)
		}},
		{"slope toggle", common.KeyL, func(t *testing.T, got frame.Config) {
			assert.Equal(t, !base.Shadow.SlopeBiasEnabled, got.Shadow.SlopeBiasEnabled)
		}},
		{"filter", common.KeyF, func(t *testing.T, got frame.Config) {
			assert.Equal(t, shadow.FilterPoisson, got.Shadow.Filter)
		}},
		{"resolution", common.KeyR, func(t *testing.T, got frame.Config) {
			assert.Equal(t, 512, got.Shadow.Resolution)
		}},
		{"cull front", common.KeyC, func(t *testing.T, got frame.Config) {
			assert.True(t, got.Shadow.CullFront)
		}},
		{"premultiplied", common.KeyP, func(t *testing.T, got frame.Config) {
			assert.True(t, got.Premultiplied)
		}},
		{"flip", common.KeyO, func(t *testing.T, got frame.Config) {
			assert.True(t, got.FlipDrawOrder)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Apply(base, tt.key)
			assert.True(t, ok)
			tt.check(t, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestApplyUnboundKeyLeavesConfig(t *testing.T) {
	base := frame.DefaultConfig()
	got, ok := Apply(base, common.KeySpace)
	assert.False(t, ok)
	assert.Equal(t, base, got)
}

func TestApplyRestoreDefaultsKeepsWorkers(t *testing.T) {
	cfg := frame.DefaultConfig()
	cfg.Workers = 12
	cfg.Premultiplied = true
	cfg.Shadow.Filter = shadow.FilterNearest
	got, ok := Apply(cfg, common.KeyD)
	assert.True(t, ok)
	assert.Equal(t, 12, got.Workers)
	assert.False(t, got.Premultiplied)
	assert.Equal(t, shadow.FilterPCF, got.Shadow.Filter)
}

func TestEveryBindingIsHandled(t *testing.T) {
	for _, b := range Bindings {
		_, ok := Apply(frame.DefaultConfig(), b.Key)
		assert.Truef(t, ok, "binding %s not handled", b.Name)
	}
}

func TestSummary(t *testing.T) {
	cfg := frame.DefaultConfig()
	assert.Equal(t, "shadows on pcf 2048 bias 0.0010 slope 0.0020 | straight alpha", Summary(cfg))

	cfg.Shadow.Enabled = false
	cfg.Premultiplied = true
	cfg.FlipDrawOrder = true
	assert.Equal(t, "shadows off | premultiplied alpha flipped", Summary(cfg))
}
