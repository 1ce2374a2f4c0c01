package libscn

import (
	"fmt"
	"log"

	"emerald/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane holds points p where Normal·p + D = 0, Normal points to the inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

func PlaneFromPointNormal(point, normal mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

func (p Plane) Distance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}

func planeFromVec4(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

type Frustum [6]Plane

// FrustumFromMatrix extracts the clip planes of a view projection matrix (Gribb/Hartmann).
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	return Frustum{
		planeFromVec4(r3.Add(r0)),
		planeFromVec4(r3.Sub(r0)),
		planeFromVec4(r3.Add(r1)),
		planeFromVec4(r3.Sub(r1)),
		planeFromVec4(r3.Add(r2)),
		planeFromVec4(r3.Sub(r2)),
	}
}

// IntersectsAABB is true unless the box lies completely outside one of the planes.
func (f Frustum) IntersectsAABB(box libutil.AABB) bool {
	for _, p := range f {
		// the corner furthest along the plane normal
		var positive mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				positive[i] = box.Max[i]
			} else {
				positive[i] = box.Min[i]
			}
		}
		if p.Distance(positive) < 0 {
			return false
		}
	}
	return true
}

type CullBehavior int

const (
	// Cull against the six planes of the active view projection
	CullUseCameraClipPlanes CullBehavior = iota
	// Keep objects with at least one corner in front of a single plane
	CullPassObjectsInFrontOfCameraPlane
)

func (b CullBehavior) String() string {
	switch b {
	case CullUseCameraClipPlanes:
		return "camera clip planes"
	case CullPassObjectsInFrontOfCameraPlane:
		return "objects in front of camera plane"
	}
	return fmt.Sprintf("cull behavior %d", int(b))
}

// AnyCornerInFront reports whether at least one box corner lies on the positive side of the plane.
func AnyCornerInFront(plane Plane, box libutil.AABB) bool {
	for _, c := range box.Corners() {
		if plane.Distance(c) >= 0 {
			return true
		}
	}
	return false
}

// CullData holds the input of a CullBehavior. Only the field of the active behavior is read.
type CullData struct {
	Frustum Frustum
	Plane   Plane
}

// Cull reports whether box survives culling with the given behavior.
func Cull(box libutil.AABB, behavior CullBehavior, data CullData) bool {
	switch behavior {
	case CullUseCameraClipPlanes:
		return data.Frustum.IntersectsAABB(box)
	case CullPassObjectsInFrontOfCameraPlane:
		return AnyCornerInFront(data.Plane, box)
	}
	log.Panicf("unrecognized cull behavior: %v", behavior)
	return false
}
