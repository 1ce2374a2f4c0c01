package shadowmap_test

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"
	"emerald/materials"
	"emerald/shadowmap"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type testGeometry struct{}

func (testGeometry) ElementCount() int {
	return 36
}

type testRenderer struct {
	ctx       *libctx.Context
	materials *materials.Materials
	items     *libscn.MeshItemPool
	visible   libutil.AABB
}

func (r *testRenderer) Context() *libctx.Context {
	return r.ctx
}

func (r *testRenderer) Materials() *materials.Materials {
	return r.materials
}

func (r *testRenderer) MeshItems() *libscn.MeshItemPool {
	return r.items
}

func (r *testRenderer) ResetVisibleAABB() {
	r.visible = libutil.EmptyAABB()
}

func (r *testRenderer) VisibleAABB() *libutil.AABB {
	return &r.visible
}

func (r *testRenderer) CullAgainstFrustum(mesh *libscn.MeshInstance, model mgl32.Mat4, behavior libscn.CullBehavior, data libscn.CullData) bool {
	return libscn.Cull(mesh.WorldAABB(model), behavior, data)
}

type fixture struct {
	dev      *libral.NullDevice
	pool     *libral.TexturePool
	sm       *shadowmap.ShadowMaps
	renderer *testRenderer
	scene    *libscn.Scene
	camera   *libscn.Camera
}

func box(name string, min, max mgl32.Vec3) *libscn.MeshInstance {
	return libscn.NewMeshInstance(name, &libscn.Mesh{
		Name:   name,
		AABB:   libutil.AABB{Min: min, Max: max},
		Layers: []libscn.MeshLayer{{Geometry: testGeometry{}}},
	})
}

func newFixture(t *testing.T) *fixture {
	callbacks := libctx.NewCallbackManager()
	mats := materials.New(callbacks)
	dev := libral.NewNullDevice()
	ctx := libctx.NewContext("test", dev, callbacks)
	pool := libral.NewTexturePool(dev)
	sm, err := shadowmap.New(dev, pool)
	if err != nil {
		t.Fatal(err)
	}

	scene := libscn.NewScene("scene")
	scene.Root.AttachMesh(box("ground", mgl32.Vec3{-10, -0.1, -10}, mgl32.Vec3{10, 0, 10}))
	scene.Root.AttachMesh(box("crate", mgl32.Vec3{-1, 0, -1}, mgl32.Vec3{1, 2, 1}))

	camera := libscn.NewCamera("camera", math32.Pi/3, 1, 0.1, 50)
	camera.Transform = mgl32.LookAtV(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv()

	return &fixture{
		dev:      dev,
		pool:     pool,
		sm:       sm,
		renderer: &testRenderer{ctx: ctx, materials: mats, items: libscn.NewMeshItemPool()},
		scene:    scene,
		camera:   camera,
	}
}

func (f *fixture) addLight(light *libscn.Light, local mgl32.Mat4) {
	node := libscn.NewNode(light.Name)
	node.Local = local
	node.AttachLight(light)
	f.scene.Root.Add(node)
	f.scene.AddLight(light)
}

func (f *fixture) render(t *testing.T) *libral.PresentTask {
	task, err := f.sm.RenderShadowMaps(f.renderer, f.scene, f.camera, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := libral.Present(f.dev, task); err != nil {
		t.Fatal(err)
	}
	if f.renderer.items.Live() != 0 {
		t.Errorf("mesh items should be back in the pool but %d are live\n", f.renderer.items.Live())
	}
	return task
}

func sun() *libscn.Light {
	light := libscn.NewLight("sun", libscn.LightDirectional)
	light.ShadowCaster = true
	light.SMSize = [2]int{256, 256}
	return light
}

func countDraws(task *libral.PresentTask) int {
	n := 0
	for _, cb := range task.CommandBuffers() {
		for _, cmd := range cb.Commands() {
			if _, ok := cmd.(libral.DrawGeometryCommand); ok {
				n++
			}
		}
	}
	return n
}

func TestIntersectAABB(t *testing.T) {
	frustum := libutil.AABB{Min: mgl32.Vec3{-5, -5, -5}, Max: mgl32.Vec3{5, 5, 5}}
	scene := libutil.AABB{Min: mgl32.Vec3{-2, -2, -2}, Max: mgl32.Vec3{2, 2, 2}}
	if actual := shadowmap.IntersectAABB(frustum, scene); actual != scene {
		t.Errorf("contained intersection should be: %v but is %v\n", scene, actual)
	}

	disjoint := libutil.AABB{Min: mgl32.Vec3{7, -9, 6}, Max: mgl32.Vec3{8, -8, 9}}
	actual := shadowmap.IntersectAABB(frustum, disjoint)
	for i := 0; i < 3; i++ {
		if actual.Min[i] > actual.Max[i] {
			t.Errorf("axis %d should not be inverted: %v\n", i, actual)
		}
	}
}

func TestGetNumberOfSMPasses(t *testing.T) {
	tests := []struct {
		lightType libscn.LightType
		algorithm libscn.PointSMAlgorithm
		expected  int
	}{
		{libscn.LightDirectional, libscn.PointSMCubical, 1},
		{libscn.LightSpot, libscn.PointSMDualParaboloid, 1},
		{libscn.LightPoint, libscn.PointSMCubical, 6},
		{libscn.LightPoint, libscn.PointSMDualParaboloid, 2},
	}
	for _, test := range tests {
		light := libscn.NewLight("light", test.lightType)
		light.PointSMAlgorithm = test.algorithm
		if actual := shadowmap.GetNumberOfSMPasses(light); actual != test.expected {
			t.Errorf("%v %v passes should be: %d but is %d\n", test.lightType, test.algorithm, test.expected, actual)
		}
	}
}

func TestTargetFaces(t *testing.T) {
	light := libscn.NewLight("lamp", libscn.LightPoint)
	for pass := 0; pass < 6; pass++ {
		face := shadowmap.GetTargetFace(light, pass)
		textureType, layer := shadowmap.TextureTargetForFace(face)
		if textureType != libral.TextureCube || layer != pass {
			t.Errorf("pass %d target should be: cube layer %d but is %v layer %d\n", pass, pass, textureType, layer)
		}
	}
	light.PointSMAlgorithm = libscn.PointSMDualParaboloid
	if face := shadowmap.GetTargetFace(light, 1); face != shadowmap.FaceParaboloidRear {
		t.Errorf("second paraboloid face should be: %v but is %v\n", shadowmap.FaceParaboloidRear, face)
	}
	if textureType, layer := shadowmap.TextureTargetForFace(shadowmap.FaceParaboloidRear); textureType != libral.Texture2DArray || layer != 1 {
		t.Errorf("rear face target should be: 2d array layer 1 but is %v layer %d\n", textureType, layer)
	}
}

func TestClampBlurTaps(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		taps, expected int
		logged         bool
	}{
		{1, 2, true},
		{2, 2, false},
		{16, 16, false},
		{17, 16, true},
	}
	for _, test := range tests {
		buf.Reset()
		if actual := shadowmap.ClampBlurTaps(test.taps); actual != test.expected {
			t.Errorf("%d taps should be: %d but is %d\n", test.taps, test.expected, actual)
		}
		if logged := buf.Len() > 0; logged != test.logged {
			t.Errorf("%d taps logged should be: %v but is %v\n", test.taps, test.logged, logged)
		}
	}
}

func TestDoubleStartPanics(t *testing.T) {
	f := newFixture(t)
	light := sun()
	if err := f.sm.Start(light, shadowmap.Face2D); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("second start should panic")
		}
	}()
	f.sm.Start(light, shadowmap.Face2D)
}

func TestStopWithoutStartPanics(t *testing.T) {
	f := newFixture(t)
	defer func() {
		if recover() == nil {
			t.Errorf("stop without start should panic")
		}
	}()
	f.sm.Stop()
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	light := sun()
	light.SMAlgorithm = libscn.SMVariance
	if err := f.sm.Start(light, shadowmap.Face2D); err != nil {
		t.Fatal(err)
	}
	if !f.sm.Enabled() || light.SMColorView == nil || light.SMDepthView == nil {
		t.Fatalf("start should publish the shadow maps on the light")
	}
	if mips := light.SMColorView.Texture().Info.Mips; mips != 9 {
		t.Errorf("moment mip count should be: 9 but is %d\n", mips)
	}

	task, err := f.sm.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if f.sm.Enabled() {
		t.Errorf("stop should clear the enabled flag")
	}
	if !task.IsGroup() || len(task.Tasks()) != 3 {
		t.Fatalf("variance pass should be a group of raster, blur and mips")
	}
	if task.Output(0) != light.SMColorView || task.Output(1) != light.SMDepthView {
		t.Errorf("group outputs should be: [color depth] but are %v\n", task.Outputs())
	}
	if err := libral.Present(f.dev, task); err != nil {
		t.Fatal(err)
	}

	f.sm.ReleaseLightShadowMaps(light)
	task.Release()
	if light.SMColorView != nil || light.SMDepthView != nil {
		t.Errorf("release should clear the light's views")
	}
	if f.pool.InUse() != 0 {
		t.Errorf("textures in use should be: 0 but is %d\n", f.pool.InUse())
	}
	if len(f.dev.Views) != 0 {
		t.Errorf("live views should be: 0 but is %d\n", len(f.dev.Views))
	}
}

func TestRenderDirectionalPlain(t *testing.T) {
	f := newFixture(t)
	light := sun()
	f.addLight(light, mgl32.HomogRotate3DX(-math32.Pi/3))

	task := f.render(t)
	if len(task.Tasks()) != 1 {
		t.Fatalf("member task count should be: 1 but is %d\n", len(task.Tasks()))
	}
	populated := 0
	for _, view := range task.Outputs() {
		if view != nil {
			populated++
		}
	}
	if populated != 1 || task.Output(1) == nil || task.Output(1) != light.SMDepthView {
		t.Errorf("only output 1 should hold the depth map but outputs are %v\n", task.Outputs())
	}
	if n := countDraws(task); n != 2 {
		t.Errorf("draw count should be: 2 but is %d\n", n)
	}

	// the crate center lands inside the light's clip volume
	clip := light.SMVP.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	for i := 0; i < 3; i++ {
		if math32.Abs(clip[i]/clip[3]) > 1 {
			t.Errorf("crate should be inside the shadow frustum but is at %v\n", clip)
		}
	}
}

func TestRenderVariance(t *testing.T) {
	f := newFixture(t)
	light := sun()
	light.SMAlgorithm = libscn.SMVariance
	light.VSMBlurTaps = 40
	f.addLight(light, mgl32.HomogRotate3DX(-math32.Pi/3))

	task := f.render(t)
	if len(task.Tasks()) != 1 || !task.Tasks()[0].IsGroup() {
		t.Fatalf("variance light should produce a single group member")
	}
	if task.Output(0) == nil || task.Output(1) == nil {
		t.Errorf("outputs 0 and 1 should be populated but are %v\n", task.Outputs())
	}
}

func TestRenderCubical(t *testing.T) {
	f := newFixture(t)
	lamp := libscn.NewLight("lamp", libscn.LightPoint)
	lamp.ShadowCaster = true
	lamp.SMSize = [2]int{128, 128}
	lamp.Falloff = libscn.FalloffLinear
	lamp.Range = 25
	f.addLight(libscn.NewLight("ambient", libscn.LightAmbient), mgl32.Ident4())
	f.addLight(lamp, mgl32.Translate3D(0, 4, 0))

	task := f.render(t)
	if len(task.Tasks()) != 6 {
		t.Errorf("member task count should be: 6 but is %d\n", len(task.Tasks()))
	}
	if len(task.Connections()) != 5 {
		t.Errorf("connection count should be: 5 but is %d\n", len(task.Connections()))
	}
	if task.Output(3) != lamp.SMDepthView {
		t.Errorf("the second light's depth map should be output 3")
	}
	if lamp.SMFarPlane != 25 {
		t.Errorf("far plane should be the range: 25 but is %v\n", lamp.SMFarPlane)
	}
	if lamp.SMDepthView.Texture().Info.Type != libral.TextureCube {
		t.Errorf("cubical depth map should be a cube texture")
	}
}

func TestRenderDualParaboloidCulling(t *testing.T) {
	f := newFixture(t)
	f.scene = libscn.NewScene("paraboloid")
	f.scene.Root.AttachMesh(box("front", mgl32.Vec3{-1, 3, -6}, mgl32.Vec3{1, 5, -4}))
	f.scene.Root.AttachMesh(box("rear", mgl32.Vec3{-1, 3, 4}, mgl32.Vec3{1, 5, 6}))
	lamp := libscn.NewLight("lamp", libscn.LightPoint)
	lamp.ShadowCaster = true
	lamp.PointSMAlgorithm = libscn.PointSMDualParaboloid
	lamp.SMSize = [2]int{128, 128}
	f.addLight(lamp, mgl32.Translate3D(0, 4, 0))

	task := f.render(t)
	if len(task.Tasks()) != 2 || len(task.Connections()) != 1 {
		t.Fatalf("paraboloid light should produce 2 chained tasks")
	}
	for i, member := range task.Tasks() {
		if n := countDraws(member); n != 1 {
			t.Errorf("pass %d draw count should be: 1 but is %d\n", i, n)
		}
	}
	if lamp.SMVP != lamp.SMView {
		t.Errorf("paraboloid vp should be the view")
	}
	if lamp.SMFarPlane <= lamp.SMNearPlane {
		t.Errorf("far plane should be beyond the near plane but is %v\n", lamp.SMFarPlane)
	}
}

func TestCullForParaboloid(t *testing.T) {
	lamp := libscn.NewLight("lamp", libscn.LightPoint)
	lamp.Position = mgl32.Vec3{0, 4, 0}
	lamp.SMView = mgl32.LookAtV(lamp.Position, lamp.Position.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0})
	behavior, data := shadowmap.CullFor(lamp, shadowmap.FaceParaboloidRear)
	if behavior != libscn.CullPassObjectsInFrontOfCameraPlane {
		t.Errorf("paraboloid faces should cull by plane but use %v\n", behavior)
	}
	if !data.Plane.Normal.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("rear plane normal should be: (0, 0, 1) but is %v\n", data.Plane.Normal)
	}
}

func TestRenderSpot(t *testing.T) {
	f := newFixture(t)
	spot := libscn.NewLight("spot", libscn.LightSpot)
	spot.ShadowCaster = true
	spot.SMSize = [2]int{256, 128}
	f.addLight(spot, mgl32.Translate3D(0, 8, 0).Mul4(mgl32.HomogRotate3DX(-math32.Pi/2)))

	f.render(t)
	if spot.SMFarPlane < 7 {
		t.Errorf("spot far plane should reach the ground but is %v\n", spot.SMFarPlane)
	}
	clip := spot.SMVP.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	if math32.Abs(clip[2]/clip[3]) > 1 {
		t.Errorf("crate should be inside the spot depth range but is at %v\n", clip)
	}
}

func TestRenderFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	light := sun()
	f.addLight(light, mgl32.HomogRotate3DX(-math32.Pi/3))
	f.dev.FailAfter(0)

	_, err := f.sm.RenderShadowMaps(f.renderer, f.scene, f.camera, 0)
	if !errors.Is(err, libral.ErrResourceCreation) {
		t.Errorf("error should be: %v but is %v\n", libral.ErrResourceCreation, err)
	}
	if err != nil && !strings.Contains(err.Error(), "sun") {
		t.Errorf("error should name the light but is %v\n", err)
	}
	if f.sm.Enabled() || f.pool.InUse() != 0 || light.SMDepthView != nil {
		t.Errorf("a failed pass should leave no shadow maps behind")
	}
}

func TestNoVisibleCasters(t *testing.T) {
	f := newFixture(t)
	f.scene = libscn.NewScene("empty")
	f.addLight(sun(), mgl32.Ident4())
	task := f.render(t)
	if f.renderer.visible != (libutil.AABB{}) {
		t.Errorf("visible box should collapse to the origin but is %v\n", f.renderer.visible)
	}
	if len(task.Tasks()) != 1 {
		t.Errorf("casting lights should render even without casters")
	}

	// receivers in view land inside the cleared map
	light := f.scene.Lights()[0]
	if light.SMVP == mgl32.Ident4() {
		t.Fatalf("shadow matrix should be fitted to the camera but is identity\n")
	}
	clip := light.SMVP.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	for i := 0; i < 3; i++ {
		if math32.Abs(clip[i]/clip[3]) > 1 {
			t.Errorf("origin should be inside the shadow frustum but is at %v\n", clip)
		}
	}
}

func TestNoVisibleCastersPointFarPlane(t *testing.T) {
	f := newFixture(t)
	f.scene = libscn.NewScene("empty")
	lamp := libscn.NewLight("lamp", libscn.LightPoint)
	lamp.ShadowCaster = true
	lamp.SMSize = [2]int{64, 64}
	f.addLight(lamp, mgl32.Ident4())

	task := f.render(t)
	defer task.Release()
	if lamp.SMFarPlane < 30 {
		t.Errorf("far plane should reach past the camera frustum but is %v\n", lamp.SMFarPlane)
	}
}

func TestRenderAnimatedCamera(t *testing.T) {
	f := newFixture(t)
	f.scene = libscn.NewScene("far")
	f.scene.Root.AttachMesh(box("crate", mgl32.Vec3{-1, 0, 19}, mgl32.Vec3{1, 2, 21}))
	f.addLight(sun(), mgl32.HomogRotate3DX(-math32.Pi/3))

	// the stored transform looks away from the crate until the node places the camera
	f.camera.Transform = mgl32.Ident4()
	node := libscn.NewNode("camera")
	node.Animation = func(time.Duration) mgl32.Mat4 {
		return mgl32.LookAtV(mgl32.Vec3{0, 5, 30}, mgl32.Vec3{0, 0, 20}, mgl32.Vec3{0, 1, 0}).Inv()
	}
	node.AttachCamera(f.camera)
	f.scene.Root.Add(node)

	task := f.render(t)
	defer task.Release()
	if n := countDraws(task); n != 1 {
		t.Errorf("draw count should be: 1 but is %d\n", n)
	}
	if f.renderer.visible.Max.Z() < 20 {
		t.Errorf("visible box should contain the crate but is %v\n", f.renderer.visible)
	}
	light := f.scene.Lights()[0]
	clip := light.SMVP.Mul4x1(mgl32.Vec4{0, 1, 20, 1})
	for i := 0; i < 3; i++ {
		if math32.Abs(clip[i]/clip[3]) > 1 {
			t.Errorf("crate should be inside the shadow frustum but is at %v\n", clip)
		}
	}
}

func TestRenderCreatesMissingSpecialMaterials(t *testing.T) {
	f := newFixture(t)
	light := sun()
	f.addLight(light, mgl32.HomogRotate3DX(-math32.Pi/3))
	// a context the materials never saw being created
	f.renderer.ctx = libctx.NewContext("late", f.dev, libctx.NewCallbackManager())

	task := f.render(t)
	defer task.Release()
	if n := countDraws(task); n != 2 {
		t.Errorf("draw count should be: 2 but is %d\n", n)
	}
}

func TestSpecialMaterialFailureReturnsError(t *testing.T) {
	f := newFixture(t)
	light := sun()
	f.addLight(light, mgl32.HomogRotate3DX(-math32.Pi/3))
	f.renderer.ctx = libctx.NewContext("late", f.dev, libctx.NewCallbackManager())
	// the pass gets its texture, view and command buffer, the first depth program fails
	f.dev.FailAfter(3)

	_, err := f.sm.RenderShadowMaps(f.renderer, f.scene, f.camera, 0)
	if !errors.Is(err, libral.ErrResourceCreation) {
		t.Errorf("error should be: %v but is %v\n", libral.ErrResourceCreation, err)
	}
	if f.sm.Enabled() || f.pool.InUse() != 0 || light.SMDepthView != nil {
		t.Errorf("a failed pass should leave no shadow maps behind")
	}
	if f.renderer.items.Live() != 0 {
		t.Errorf("mesh items should be back in the pool but %d are live\n", f.renderer.items.Live())
	}

	f.dev.FailAfter(-1)
	task := f.render(t)
	task.Release()
}

func graphicsCull(cb *libral.CommandBuffer) libral.CullMode {
	for _, cmd := range cb.Commands() {
		if state, ok := cmd.(libral.SetGraphicsStateCommand); ok {
			return state.State.Cull
		}
	}
	return libral.CullNone
}

func TestParaboloidFaceCulling(t *testing.T) {
	f := newFixture(t)
	lamp := libscn.NewLight("lamp", libscn.LightPoint)
	lamp.ShadowCaster = true
	lamp.PointSMAlgorithm = libscn.PointSMDualParaboloid
	lamp.SMCullFrontFaces = true
	lamp.SMSize = [2]int{64, 64}

	expected := map[shadowmap.Face]libral.CullMode{
		shadowmap.FaceParaboloidFront: libral.CullFront,
		shadowmap.FaceParaboloidRear:  libral.CullBack,
	}
	var tasks []*libral.PresentTask
	for _, face := range []shadowmap.Face{shadowmap.FaceParaboloidFront, shadowmap.FaceParaboloidRear} {
		if err := f.sm.Start(lamp, face); err != nil {
			t.Fatal(err)
		}
		if cull := graphicsCull(f.sm.CommandBuffer()); cull != expected[face] {
			t.Errorf("%v cull should be: %v but is %v\n", face, expected[face], cull)
		}
		task, err := f.sm.Stop()
		if err != nil {
			t.Fatal(err)
		}
		tasks = append(tasks, task)
	}
	for _, task := range tasks {
		task.Release()
	}
	f.sm.ReleaseLightShadowMaps(lamp)
}

func TestFrustumAABBContainsScene(t *testing.T) {
	camera := libscn.NewCamera("camera", math32.Pi/2, 1, 0.1, 100)
	scene := libutil.AABB{Min: mgl32.Vec3{-1, -1, -10}, Max: mgl32.Vec3{1, 1, -5}}

	box := shadowmap.GetAABBForCameraFrustumAndSceneAABB(camera, mgl32.Ident4(), scene)
	if !box.Min.ApproxEqual(scene.Min) || !box.Max.ApproxEqual(scene.Max) {
		t.Errorf("contained scene box should be: %v but is %v\n", scene, box)
	}

	outside := libutil.AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 10}}
	box = shadowmap.GetAABBForCameraFrustumAndSceneAABB(camera, mgl32.Ident4(), outside)
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			t.Errorf("disjoint box should not be inverted but is %v\n", box)
		}
	}
}

func TestDirectionalMatricesCoverCasters(t *testing.T) {
	f := newFixture(t)
	light := sun()
	libscn.UpdateLight(light, mgl32.LookAtV(mgl32.Vec3{5, 10, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv())
	scene := libutil.AABB{Min: mgl32.Vec3{-10, -0.1, -10}, Max: mgl32.Vec3{10, 2, 10}}

	view, projection, ok := shadowmap.GetMatricesForLight(light, shadowmap.Face2D, f.camera, scene)
	if !ok {
		t.Fatalf("directional lights should have a projection\n")
	}
	ndc := mgl32.TransformCoordinate(mgl32.Vec3{0, 1, 0}, projection.Mul4(view))
	for i := 0; i < 3; i++ {
		if ndc[i] < -1 || ndc[i] > 1 {
			t.Errorf("crate center should be inside the light volume but is at %v\n", ndc)
		}
	}
}

func TestPointFarPlane(t *testing.T) {
	f := newFixture(t)
	scene := libutil.AABB{Min: mgl32.Vec3{-10, -0.1, -10}, Max: mgl32.Vec3{10, 2, 10}}

	light := libscn.NewLight("bulb", libscn.LightPoint)
	light.ShadowCaster = true
	light.Falloff = libscn.FalloffLinear
	light.Range = 12
	libscn.UpdateLight(light, mgl32.Translate3D(0, 4, 0))
	for pass := 0; pass < 6; pass++ {
		_, _, ok := shadowmap.GetMatricesForLight(light, shadowmap.GetTargetFace(light, pass), f.camera, scene)
		if !ok || light.SMFarPlane != 12 {
			t.Errorf("cube pass %d far plane should be: %v but is %v\n", pass, 12, light.SMFarPlane)
		}
	}

	light.PointSMAlgorithm = libscn.PointSMDualParaboloid
	light.Falloff = libscn.FalloffOff
	light.SMFarPlane = 0
	_, _, ok := shadowmap.GetMatricesForLight(light, shadowmap.FaceParaboloidFront, f.camera, scene)
	if ok {
		t.Errorf("paraboloid passes should not have a projection\n")
	}
	if light.SMFarPlane <= light.SMNearPlane {
		t.Errorf("paraboloid far plane should be beyond the near plane but is %v\n", light.SMFarPlane)
	}
}

func TestSpotFarPlaneUsesRange(t *testing.T) {
	f := newFixture(t)
	scene := libutil.AABB{Min: mgl32.Vec3{-10, -0.1, -10}, Max: mgl32.Vec3{10, 2, 10}}

	light := libscn.NewLight("torch", libscn.LightSpot)
	light.ShadowCaster = true
	light.Falloff = libscn.FalloffLinear
	light.Range = 9
	libscn.UpdateLight(light, mgl32.LookAtV(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}).Inv())

	_, _, ok := shadowmap.GetMatricesForLight(light, shadowmap.Face2D, f.camera, scene)
	if !ok {
		t.Fatalf("spot lights should have a projection\n")
	}
	if light.SMFarPlane != 9 {
		t.Errorf("spot far plane should be: %v but is %v\n", 9, light.SMFarPlane)
	}
}
