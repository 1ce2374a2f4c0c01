package libgl

import "github.com/go-gl/mathgl/mgl32"

var boxFaces = [6]struct {
	normal, u, v mgl32.Vec3
}{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
}

// BoxVertices builds a box with flat normals and counter clockwise front faces.
func BoxVertices(min, max mgl32.Vec3) ([]Vertex, []uint32) {
	center := min.Add(max).Mul(0.5)
	half := max.Sub(min).Mul(0.5)
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, face := range boxFaces {
		base := uint32(len(vertices))
		for _, corner := range [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			offset := face.normal.Add(face.u.Mul(corner.X())).Add(face.v.Mul(corner.Y()))
			position := center.Add(mgl32.Vec3{offset.X() * half.X(), offset.Y() * half.Y(), offset.Z() * half.Z()})
			vertices = append(vertices, Vertex{
				Position: position,
				Normal:   face.normal,
				UV:       mgl32.Vec2{(corner.X() + 1) / 2, (corner.Y() + 1) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}
