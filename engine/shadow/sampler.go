package shadow

import (
	"github.com/Carmen-Shannon/oxy-passes/common"
	"github.com/chewxy/math32"
)

// ComparisonSampler is an immutable depth-comparison sampler. Only the two
// precomputed variants SamplerNearest and SamplerLinear exist; switching
// between them selects a variant rather than mutating one.
type ComparisonSampler struct {
	name   string
	linear bool
}

var (
	// SamplerNearest compares against the single nearest texel.
	SamplerNearest = &ComparisonSampler{name: "nearest"}

	// SamplerLinear compares against the four closest texels and blends the
	// results bilinearly.
	SamplerLinear = &ComparisonSampler{name: "linear", linear: true}
)

// Name returns the variant name.
func (s *ComparisonSampler) Name() string {
	return s.name
}

// Linear reports whether the variant filters its comparisons bilinearly.
func (s *ComparisonSampler) Linear() bool {
	return s.linear
}

// Compare returns the fraction of the sampled footprint where ref is not
// farther than the stored depth. Addressing is clamp-to-edge.
//
// Parameters:
//   - m: the depth map
//   - u, v: texture coordinates
//   - ref: the biased reference depth
//
// Returns:
//   - float32: 1 for fully lit, 0 for fully occluded
func (s *ComparisonSampler) Compare(m *DepthMap, u, v, ref float32) float32 {
	res := float32(m.resolution)
	if !s.linear {
		return compareTexel(m, int(math32.Floor(u*res)), int(math32.Floor(v*res)), ref)
	}

	fx := u*res - 0.5
	fy := v*res - 0.5
	x0 := math32.Floor(fx)
	y0 := math32.Floor(fy)
	tx := fx - x0
	ty := fy - y0
	ix, iy := int(x0), int(y0)

	c00 := compareTexel(m, ix, iy, ref)
	c10 := compareTexel(m, ix+1, iy, ref)
	c01 := compareTexel(m, ix, iy+1, ref)
	c11 := compareTexel(m, ix+1, iy+1, ref)
	top := c00 + (c10-c00)*tx
	bottom := c01 + (c11-c01)*tx
	return top + (bottom-top)*ty
}

func compareTexel(m *DepthMap, x, y int, ref float32) float32 {
	if ref <= m.At(x, y) {
		return 1
	}
	return 0
}

// Sampler turns main-pass fragments into shadow visibility against one
// depth map. It is bound to the map it was created for; a rebuilt map needs
// a new Sampler.
type Sampler struct {
	depth *DepthMap
}

// NewSampler binds a sampler to a depth map.
//
// Parameters:
//   - depth: the captured depth map
//
// Returns:
//   - *Sampler: the sampler
func NewSampler(depth *DepthMap) *Sampler {
	if depth == nil {
		panic("shadow: sampler requires a depth map")
	}
	return &Sampler{depth: depth}
}

// DepthMap returns the depth map the sampler reads.
func (s *Sampler) DepthMap() *DepthMap {
	return s.depth
}

// Variant returns the precomputed comparison sampler used for a filter mode.
// Only FilterNearest uses SamplerNearest.
//
// Parameters:
//   - f: the filter mode
//
// Returns:
//   - *ComparisonSampler: SamplerNearest or SamplerLinear
func (s *Sampler) Variant(f FilterMode) *ComparisonSampler {
	if f == FilterNearest {
		return SamplerNearest
	}
	return SamplerLinear
}

// Bias returns the depth bias for a surface: the constant bias plus, when
// enabled, SlopeBias × tan(theta) where theta is the angle between the
// normal and the direction toward the light. The slope term is capped at
// MaxSlopeBiasTerm.
//
// Parameters:
//   - normal: unit surface normal
//   - lightDir: unit direction the light travels
//   - p: shadow parameters
//
// Returns:
//   - float32: the total bias
func Bias(normal, lightDir [3]float32, p Params) float32 {
	bias := p.Bias
	if !p.SlopeBiasEnabled || p.SlopeBias == 0 {
		return bias
	}
	cosTheta := common.Clamp(-common.Dot3(normal, lightDir), 0, 1)
	if cosTheta <= 0 {
		return bias + MaxSlopeBiasTerm
	}
	tanTheta := math32.Sqrt(1-cosTheta*cosTheta) / cosTheta
	return bias + min(p.SlopeBias*tanTheta, MaxSlopeBiasTerm)
}

// Visibility reprojects a world position into the depth map and returns the
// filtered shadow visibility. Positions outside the light frustum are lit.
//
// Parameters:
//   - world: fragment world position
//   - normal: unit surface normal
//   - lightDir: unit direction the light travels
//   - p: shadow parameters (a disabled Params always yields 1)
//
// Returns:
//   - float32: visibility in [0, 1]
func (s *Sampler) Visibility(world, normal, lightDir [3]float32, p Params) float32 {
	if !p.Enabled {
		return 1
	}
	ls := s.depth.lightSpace
	u, v, depth := ls.Project(world)
	if u < 0 || u > 1 || v < 0 || v > 1 || depth < 0 || depth > 1 {
		return 1
	}
	ref := depth - Bias(normal, lightDir, p)
	cmp := s.Variant(p.Filter)
	texel := s.depth.TexelSize()

	switch p.Filter {
	case FilterNearest, FilterLinear:
		return cmp.Compare(s.depth, u, v, ref)

	case FilterPCF:
		var sum float32
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				sum += cmp.Compare(s.depth, u+float32(dx)*texel, v+float32(dy)*texel, ref)
			}
		}
		return sum / 9

	case FilterPoisson, FilterPoissonRotated:
		sin, cos := float32(0), float32(1)
		if p.Filter == FilterPoissonRotated {
			a := hashAngle(world)
			sin, cos = math32.Sin(a), math32.Cos(a)
		}
		radius := PoissonRadius * texel
		var sum float32
		for _, tap := range poissonDisk {
			o := rotate(tap, sin, cos)
			sum += cmp.Compare(s.depth, u+o[0]*radius, v+o[1]*radius, ref)
		}
		return sum / float32(len(poissonDisk))
	}
	return 1
}
