package libutil

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis aligned bounding box. The zero value is a degenerate box at the origin,
// use EmptyAABB for a box that any point extends.
type AABB struct {
	Min, Max mgl32.Vec3
}

func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box is still at the sentinel values of EmptyAABB.
func (b AABB) IsEmpty() bool {
	for i := 0; i < 3; i++ {
		if math32.IsInf(b.Min[i], 1) || math32.IsInf(b.Max[i], -1) {
			return true
		}
	}
	return false
}

func (b *AABB) ExtendPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
}

func (b *AABB) Extend(other AABB) {
	b.ExtendPoint(other.Min)
	b.ExtendPoint(other.Max)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the 8 corners, bit 0 selects x, bit 1 y and bit 2 z from max.
func (b AABB) Corners() [8]mgl32.Vec3 {
	var corners [8]mgl32.Vec3
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				corners[i][axis] = b.Max[axis]
			} else {
				corners[i][axis] = b.Min[axis]
			}
		}
	}
	return corners
}

// Transform returns the box enclosing all 8 corners transformed by m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	result := EmptyAABB()
	for _, c := range b.Corners() {
		result.ExtendPoint(mgl32.TransformCoordinate(c, m))
	}
	return result
}

func AABBOfPoints(points []mgl32.Vec3) AABB {
	result := EmptyAABB()
	for _, p := range points {
		result.ExtendPoint(p)
	}
	return result
}
