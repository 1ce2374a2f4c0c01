package shadowcode

import (
	"github.com/chewxy/math32"
)

// CPU versions of the generated shadow math.

func clamp(v, min, max float32) float32 {
	return math32.Max(min, math32.Min(max, v))
}

func AdaptiveBias(ndotl float32) float32 {
	ndotl = clamp(ndotl, 0, 1)
	return clamp(0.001*math32.Tan(math32.Acos(ndotl)), 0, 1)
}

func AdaptiveFastBias(ndotl float32) float32 {
	return 0.001 * math32.Acos(clamp(ndotl, 0, 1))
}

func Visibility(shadowTerm float32) float32 {
	return 0.1 + 0.9*shadowTerm
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// VSMShadowTerm evaluates the light bleeding reduced Chebyshev bound for the stored moments.
func VSMShadowTerm(moment1, moment2, depth, minVariance, cutOff float32) float32 {
	variance := math32.Max(moment2-moment1*moment1, minVariance)
	delta := depth - moment1
	p := variance / (variance + delta*delta)
	return smoothstep(cutOff, 1, p)
}

// ParaboloidProject maps a light view space position to paraboloid texture coordinates, layer and depth.
// Layer 0 is the front hemisphere (z <= 0).
func ParaboloidProject(x, y, z, near, far float32) (u, v, layer, depth float32) {
	length := math32.Sqrt(x*x + y*y + z*z)
	nx, ny, nz := x/length, y/length, z/length
	if nz > 0 {
		layer = 1
	}
	u = nx/(1+math32.Abs(nz))*0.5 + 0.5
	v = ny/(1+math32.Abs(nz))*0.5 + 0.5
	depth = (length - near) / (far - near)
	return
}
