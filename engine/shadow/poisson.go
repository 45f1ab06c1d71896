package shadow

import "github.com/chewxy/math32"

// poissonDisk is a 16-tap Poisson-disk pattern on the unit disk.
var poissonDisk = [16][2]float32{
	{-0.94201624, -0.39906216},
	{0.94558609, -0.76890725},
	{-0.094184101, -0.92938870},
	{0.34495938, 0.29387760},
	{-0.91588581, 0.45771432},
	{-0.81544232, -0.87912464},
	{-0.38277543, 0.27676845},
	{0.97484398, 0.75648379},
	{0.44323325, -0.97511554},
	{0.53742981, -0.47373420},
	{-0.26496911, -0.41893023},
	{0.79197514, 0.19090188},
	{-0.24188840, 0.99706507},
	{-0.81409955, 0.91437590},
	{0.19984126, 0.78641367},
	{0.14383161, -0.14100790},
}

// rotate turns a 2D offset by the angle whose sine and cosine are given.
func rotate(p [2]float32, sin, cos float32) [2]float32 {
	return [2]float32{p[0]*cos - p[1]*sin, p[0]*sin + p[1]*cos}
}

// hashAngle derives a stable pseudo-random angle in [0, 2π) from a world
// position. Same position, same angle, every frame.
func hashAngle(p [3]float32) float32 {
	d := p[0]*12.9898 + p[1]*78.233 + p[2]*45.164
	s := math32.Sin(d) * 43758.5453
	frac := s - math32.Floor(s)
	return frac * 2 * math32.Pi
}
