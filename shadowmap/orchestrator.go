package shadowmap

import (
	"fmt"
	"log"
	"time"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"
	"emerald/materials"
	"emerald/shadowcode"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer is the scene renderer the shadow map passes draw through.
type Renderer interface {
	Context() *libctx.Context
	Materials() *materials.Materials
	MeshItems() *libscn.MeshItemPool
	ResetVisibleAABB()
	// VisibleAABB is the world space box of the visible shadow casters, updated in place.
	VisibleAABB() *libutil.AABB
	CullAgainstFrustum(mesh *libscn.MeshInstance, model mgl32.Mat4, behavior libscn.CullBehavior, data libscn.CullData) bool
}

// SpecialMaterialFor selects the depth material a light renders its shadow maps with.
func SpecialMaterialFor(light *libscn.Light) materials.SpecialMaterial {
	paraboloid := light.Type == libscn.LightPoint && light.PointSMAlgorithm == libscn.PointSMDualParaboloid
	switch {
	case light.SMAlgorithm == libscn.SMVariance && paraboloid:
		return materials.SpecialDepthClipAndSquaredDualParaboloid
	case light.SMAlgorithm == libscn.SMVariance:
		return materials.SpecialDepthClipAndSquared
	case paraboloid:
		return materials.SpecialDepthClipDualParaboloid
	}
	return materials.SpecialDepthClip
}

// cullFor returns how meshes are culled for the current face.
// Paraboloid faces keep the hemisphere in front of the light.
func cullFor(light *libscn.Light, face Face) (libscn.CullBehavior, libscn.CullData) {
	if face.IsParaboloid() {
		forward := light.SMView.Inv().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
		if face == FaceParaboloidRear {
			forward = forward.Mul(-1)
		}
		return libscn.CullPassObjectsInFrontOfCameraPlane, libscn.CullData{Plane: libscn.PlaneFromPointNormal(light.Position, forward)}
	}
	return libscn.CullUseCameraClipPlanes, libscn.CullData{Frustum: libscn.FrustumFromMatrix(light.SMVP)}
}

// RenderShadowMaps records the shadow map passes of every shadow casting light in scene.
// The outputs of the returned group are addressed by light index, color at 2*i and depth at 2*i+1.
// Lights without a color map leave the color slot empty.
func (sm *ShadowMaps) RenderShadowMaps(r Renderer, scene *libscn.Scene, camera *libscn.Camera, t time.Duration) (*libral.PresentTask, error) {
	r.ResetVisibleAABB()
	visible := r.VisibleAABB()
	// Cameras and lights first, the culling below needs this frame's camera.
	libscn.Traverse(scene.Root, nil, libscn.UpdateCamera, libscn.UpdateLight, nil, t)
	cameraCull := libscn.CullData{Frustum: libscn.FrustumFromMatrix(camera.ProjectionMatrix().Mul4(camera.ViewMatrix()))}
	libscn.Traverse(scene.Root, nil, nil, nil, func(mesh *libscn.MeshInstance, model mgl32.Mat4) {
		if !mesh.ShadowCaster {
			return
		}
		if r.CullAgainstFrustum(mesh, model, libscn.CullUseCameraClipPlanes, cameraCull) {
			visible.Extend(mesh.WorldAABB(model))
		}
	}, t)
	if visible.IsEmpty() {
		*visible = libutil.AABB{}
	}
	fit := *visible
	if fit.Size() == (mgl32.Vec3{}) {
		// Nothing to fit, cover the camera frustum so receivers sample cleared texels and stay lit.
		corners := camera.FrustumCornersWorld()
		fit = libutil.AABBOfPoints(corners[:])
	}

	var tasks []*libral.PresentTask
	var connections []libral.TaskConnection
	var outputs []libral.TaskOutputMapping
	fail := func(err error) (*libral.PresentTask, error) {
		for _, task := range tasks {
			task.Release()
		}
		for _, light := range scene.Lights() {
			sm.ReleaseLightShadowMaps(light)
		}
		return nil, err
	}

	for index, light := range scene.Lights() {
		if !light.CastsShadows() {
			continue
		}
		passes := GetNumberOfSMPasses(light)
		for pass := 0; pass < passes; pass++ {
			face := GetTargetFace(light, pass)
			if err := sm.Start(light, face); err != nil {
				return fail(err)
			}
			view, projection, hasProjection := GetMatricesForLight(light, face, camera, fit)
			light.SMView = view
			light.SMVP = view
			if hasProjection {
				light.SMProjection = projection
				light.SMVP = projection.Mul4(view)
			}

			if err := sm.drawPass(r, scene, t); err != nil {
				sm.abort()
				return fail(err)
			}
			task, err := sm.Stop()
			if err != nil {
				return fail(err)
			}
			if pass > 0 {
				prev := len(tasks) - 1
				connections = append(connections, libral.TaskConnection{
					SrcTask: prev, SrcOutput: len(tasks[prev].Outputs()) - 1,
					DstTask: prev + 1, DstInput: 0,
				})
			}
			tasks = append(tasks, task)
		}

		last := len(tasks) - 1
		if n := len(tasks[last].Outputs()); n == 2 {
			outputs = append(outputs,
				libral.TaskOutputMapping{GroupOutput: index*2 + 0, Task: last, TaskOutput: 0},
				libral.TaskOutputMapping{GroupOutput: index*2 + 1, Task: last, TaskOutput: 1})
		} else {
			outputs = append(outputs, libral.TaskOutputMapping{GroupOutput: index*2 + 1, Task: last, TaskOutput: n - 1})
		}
	}

	return libral.NewGroupTask("Shadow maps", tasks, connections, nil, outputs), nil
}

// drawPass collects the casters of the current face and draws them with the light's depth material.
func (sm *ShadowMaps) drawPass(r Renderer, scene *libscn.Scene, t time.Duration) error {
	light, face := sm.light, sm.face
	var items []*libscn.MeshItem
	libscn.Traverse(scene.Root, nil, nil, nil, func(mesh *libscn.MeshInstance, model mgl32.Mat4) {
		if item := sm.ProcessMeshForShadowMapRendering(r, mesh, model); item != nil {
			items = append(items, item)
		}
	}, t)
	defer func() {
		for _, item := range items {
			r.MeshItems().Put(item)
		}
	}()
	if len(items) == 0 {
		return nil
	}

	special, err := r.Materials().GetSpecialMaterial(r.Context(), SpecialMaterialFor(light))
	if err != nil {
		return fmt.Errorf("could not get shadow map material for light %q: %w", light.Name, err)
	}
	u, err := r.Materials().GetUber(special, scene, false)
	if err != nil {
		return fmt.Errorf("could not get shadow map uber for light %q: %w", light.Name, err)
	}

	cb := sm.cb
	cb.SetProgram(u.Program)
	cb.SetUniform(shadowcode.UniformVP, light.SMVP)
	if face.IsParaboloid() {
		flip := float32(1)
		if face == FaceParaboloidRear {
			flip = -1
		}
		cb.SetUniform(shadowcode.UniformFlipZ, flip)
		cb.SetUniform(shadowcode.UniformNearPlane, light.SMNearPlane)
		cb.SetUniform(shadowcode.UniformFarNearDiff, light.SMFarPlane-light.SMNearPlane)
	}
	for _, item := range items {
		cb.SetUniform(shadowcode.UniformModel, item.Model)
		for _, layer := range item.Mesh.Mesh.Layers {
			cb.DrawGeometry(layer.Geometry)
		}
	}
	return nil
}

// ProcessMeshForShadowMapRendering returns a pooled item for a caster that is visible to the
// current face, or nil when the mesh is skipped.
func (sm *ShadowMaps) ProcessMeshForShadowMapRendering(r Renderer, mesh *libscn.MeshInstance, model mgl32.Mat4) *libscn.MeshItem {
	if !sm.enabled {
		log.Panicf("mesh %q processed outside of a shadow map pass", mesh.Name)
	}
	if !mesh.ShadowCaster {
		return nil
	}
	behavior, data := cullFor(sm.light, sm.face)
	if !r.CullAgainstFrustum(mesh, model, behavior, data) {
		return nil
	}
	return r.MeshItems().Get(mesh, model)
}
