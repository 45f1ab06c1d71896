package oit

import "github.com/Carmen-Shannon/oxy-passes/common"

// BlendOver composites a straight-alpha src over dst:
// rgb = src.rgb*src.a + dst.rgb*(1-src.a), a = src.a + dst.a*(1-src.a).
//
// Parameters:
//   - src: the fragment color with straight alpha
//   - dst: the color already in the target
//
// Returns:
//   - common.Color: the blended color
func BlendOver(src, dst common.Color) common.Color {
	ia := 1 - src[3]
	return common.Color{
		src[0]*src[3] + dst[0]*ia,
		src[1]*src[3] + dst[1]*ia,
		src[2]*src[3] + dst[2]*ia,
		src[3] + dst[3]*ia,
	}
}

// BlendPremultiplied composites a premultiplied src over dst:
// rgb = src.rgb + dst.rgb*(1-src.a), a = src.a + dst.a*(1-src.a).
//
// Parameters:
//   - src: the fragment color, RGB already multiplied by alpha
//   - dst: the color already in the target
//
// Returns:
//   - common.Color: the blended color
func BlendPremultiplied(src, dst common.Color) common.Color {
	ia := 1 - src[3]
	return common.Color{
		src[0] + dst[0]*ia,
		src[1] + dst[1]*ia,
		src[2] + dst[2]*ia,
		src[3] + dst[3]*ia,
	}
}
