package shadowmap

import (
	"fmt"
	"log"

	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Face is the render target of a single shadow map pass.
type Face int

const (
	Face2D Face = iota
	FacePositiveX
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
	FaceParaboloidFront
	FaceParaboloidRear
)

func (f Face) String() string {
	switch f {
	case Face2D:
		return "2d"
	case FacePositiveX:
		return "+x"
	case FaceNegativeX:
		return "-x"
	case FacePositiveY:
		return "+y"
	case FaceNegativeY:
		return "-y"
	case FacePositiveZ:
		return "+z"
	case FaceNegativeZ:
		return "-z"
	case FaceParaboloidFront:
		return "paraboloid front"
	case FaceParaboloidRear:
		return "paraboloid rear"
	}
	return fmt.Sprintf("face %d", int(f))
}

func (f Face) IsCube() bool {
	return f >= FacePositiveX && f <= FaceNegativeZ
}

func (f Face) IsParaboloid() bool {
	return f == FaceParaboloidFront || f == FaceParaboloidRear
}

// Look direction and up vector per cube face, following the GL cube map layout.
var cubeFaceAxes = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, -1, 0}},
	{{-1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, -1}},
	{{0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}},
}

// Separation of the near and far planes when the scene gives no depth range.
const minDepthRange = 1e-3

// IntersectAABB clips a against b. Disjoint boxes yield a box between them that is never inverted.
func IntersectAABB(a, b libutil.AABB) libutil.AABB {
	var result libutil.AABB
	for i := 0; i < 3; i++ {
		result.Min[i] = math32.Max(a.Min[i], b.Min[i])
		result.Max[i] = math32.Min(a.Max[i], b.Max[i])
		if result.Min[i] > result.Max[i] {
			result.Min[i], result.Max[i] = result.Max[i], result.Min[i]
		}
	}
	return result
}

// GetAABBForCameraFrustumAndSceneAABB returns the light space box of everything that is both
// inside the camera frustum and inside the scene.
func GetAABBForCameraFrustumAndSceneAABB(camera *libscn.Camera, lightView mgl32.Mat4, scene libutil.AABB) libutil.AABB {
	frustum := libutil.EmptyAABB()
	for _, corner := range camera.FrustumCornersWorld() {
		frustum.ExtendPoint(mgl32.TransformCoordinate(corner, lightView))
	}
	return IntersectAABB(frustum, scene.Transform(lightView))
}

func GetNumberOfSMPasses(light *libscn.Light) int {
	switch light.Type {
	case libscn.LightDirectional, libscn.LightSpot:
		return 1
	case libscn.LightPoint:
		switch light.PointSMAlgorithm {
		case libscn.PointSMCubical:
			return 6
		case libscn.PointSMDualParaboloid:
			return 2
		}
		log.Panicf("light %q: unrecognized point shadow map algorithm %v", light.Name, light.PointSMAlgorithm)
	}
	log.Panicf("light %q: %v lights have no shadow maps", light.Name, light.Type)
	return 0
}

func GetTargetFace(light *libscn.Light, pass int) Face {
	n := GetNumberOfSMPasses(light)
	if pass < 0 || pass >= n {
		log.Panicf("light %q: pass %d out of range [0, %d)", light.Name, pass, n)
	}
	switch n {
	case 6:
		return FacePositiveX + Face(pass)
	case 2:
		return FaceParaboloidFront + Face(pass)
	}
	return Face2D
}

// passOf is the inverse of GetTargetFace.
func passOf(light *libscn.Light, face Face) int {
	for pass, n := 0, GetNumberOfSMPasses(light); pass < n; pass++ {
		if GetTargetFace(light, pass) == face {
			return pass
		}
	}
	log.Panicf("light %q has no %v face", light.Name, face)
	return 0
}

// TextureTargetForFace returns the texture type a face renders into and the layer it occupies.
func TextureTargetForFace(face Face) (libral.TextureType, int) {
	switch {
	case face == Face2D:
		return libral.Texture2D, 0
	case face.IsCube():
		return libral.TextureCube, int(face - FacePositiveX)
	case face.IsParaboloid():
		return libral.Texture2DArray, int(face - FaceParaboloidFront)
	}
	log.Panicf("unrecognized face: %v", face)
	return 0, 0
}

func layerCount(textureType libral.TextureType) int {
	switch textureType {
	case libral.TextureCube:
		return 6
	case libral.Texture2DArray:
		return 2
	}
	return 1
}

func widen(min, max float32) (float32, float32) {
	if max-min < minDepthRange {
		center := (min + max) / 2
		return center - minDepthRange, center + minDepthRange
	}
	return min, max
}

func farthestCorner(box libutil.AABB) float32 {
	var d float32
	for _, c := range box.Corners() {
		d = math32.Max(d, c.Len())
	}
	return d
}

func pointFarPlane(light *libscn.Light, box libutil.AABB) float32 {
	near := light.SMNearPlane
	if light.UsesRangeAsFarPlane() {
		return math32.Max(light.Range, near+minDepthRange)
	}
	return near + math32.Max(farthestCorner(box), minDepthRange)
}

// GetMatricesForLight computes the view and projection of a shadow map pass.
// scene is the world space box of the visible shadow casters.
// Point lights also store their far plane on the light.
func GetMatricesForLight(light *libscn.Light, face Face, camera *libscn.Camera, scene libutil.AABB) (view, projection mgl32.Mat4, hasProjection bool) {
	switch light.Type {
	case libscn.LightDirectional:
		var centroid mgl32.Vec3
		for _, c := range camera.FrustumCornersWorld() {
			centroid = centroid.Add(c)
		}
		centroid = centroid.Mul(1.0 / 8)
		dir := light.Direction.Normalize()
		up := mgl32.Vec3{0, 1, 0}
		if math32.Abs(dir.Dot(up)) > 0.999 {
			up = mgl32.Vec3{1, 0, 0}
		}
		view = mgl32.LookAtV(centroid, centroid.Add(dir), up)

		box := GetAABBForCameraFrustumAndSceneAABB(camera, view, scene)
		left, right := widen(box.Min.X(), box.Max.X())
		bottom, top := widen(box.Min.Y(), box.Max.Y())
		r := math32.Max(math32.Max(math32.Abs(box.Min.Z()), math32.Abs(box.Max.Z())), minDepthRange)
		return view, mgl32.Ortho(left, right, bottom, top, -r, r), true

	case libscn.LightPoint:
		if face.IsCube() {
			axes := cubeFaceAxes[face-FacePositiveX]
			view = mgl32.LookAtV(light.Position, light.Position.Add(axes[0]), axes[1])
			box := GetAABBForCameraFrustumAndSceneAABB(camera, view, scene)
			light.SMFarPlane = pointFarPlane(light, box)
			return view, mgl32.Perspective(math32.Pi/2, 1, light.SMNearPlane, light.SMFarPlane), true
		}
		if face.IsParaboloid() {
			view = mgl32.LookAtV(light.Position, light.Position.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
			box := GetAABBForCameraFrustumAndSceneAABB(camera, view, scene)
			light.SMFarPlane = pointFarPlane(light, box)
			return view, mgl32.Ident4(), false
		}
		log.Panicf("light %q: point lights cannot render %v faces", light.Name, face)

	case libscn.LightSpot:
		view = light.Transform.Inv()
		box := GetAABBForCameraFrustumAndSceneAABB(camera, view, scene)
		near := math32.Max(light.SMNearPlane, -box.Max.Z())
		far := math32.Max(near+minDepthRange, -box.Min.Z())
		if light.UsesRangeAsFarPlane() {
			far = math32.Max(math32.Min(far, light.Range), near+minDepthRange)
		}
		light.SMFarPlane = far
		aspect := float32(light.SMSize[0]) / float32(light.SMSize[1])
		return view, mgl32.Perspective(light.ConeAngleHalf*2, aspect, near, far), true
	}
	log.Panicf("light %q: %v lights have no shadow maps", light.Name, light.Type)
	return
}
