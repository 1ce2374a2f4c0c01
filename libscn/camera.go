package libscn

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Name string
	// Vertical FOV in radians
	Fov         float32
	AspectRatio float32
	Near, Far   float32
	// World transform, the camera looks along its -Z axis
	Transform mgl32.Mat4
}

func NewCamera(name string, fov, aspect, near, far float32) *Camera {
	return &Camera{
		Name:        name,
		Fov:         fov,
		AspectRatio: aspect,
		Near:        near,
		Far:         far,
		Transform:   mgl32.Ident4(),
	}
}

// UpdateCamera is the standard camera visitor for Traverse.
func UpdateCamera(camera *Camera, world mgl32.Mat4) {
	camera.Transform = world
}

func (cam *Camera) ViewMatrix() mgl32.Mat4 {
	return cam.Transform.Inv()
}

func (cam *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(cam.Fov, cam.AspectRatio, cam.Near, cam.Far)
}

func (cam *Camera) Position() mgl32.Vec3 {
	return cam.Transform.Col(3).Vec3()
}

// FrustumCornersModel returns the frustum corners in camera space.
// The near plane corners come first: bottom left, bottom right, top left, top right.
func (cam *Camera) FrustumCornersModel() [8]mgl32.Vec3 {
	tanHalf := math32.Tan(cam.Fov / 2)
	var corners [8]mgl32.Vec3
	for i, d := range [2]float32{cam.Near, cam.Far} {
		h := tanHalf * d
		w := h * cam.AspectRatio
		corners[i*4+0] = mgl32.Vec3{-w, -h, -d}
		corners[i*4+1] = mgl32.Vec3{w, -h, -d}
		corners[i*4+2] = mgl32.Vec3{-w, h, -d}
		corners[i*4+3] = mgl32.Vec3{w, h, -d}
	}
	return corners
}

func (cam *Camera) FrustumCornersWorld() [8]mgl32.Vec3 {
	corners := cam.FrustumCornersModel()
	for i, c := range corners {
		corners[i] = mgl32.TransformCoordinate(c, cam.Transform)
	}
	return corners
}
