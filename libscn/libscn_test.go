package libscn_test

import (
	"testing"
	"time"

	"emerald/libctx"
	"emerald/libscn"
	"emerald/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestTraverseWorldMatrices(t *testing.T) {
	root := libscn.NewNode("root")
	root.Local = mgl32.Translate3D(1, 0, 0)
	child := libscn.NewNode("child")
	child.Animation = func(t time.Duration) mgl32.Mat4 {
		return mgl32.Translate3D(0, float32(t.Seconds()), 0)
	}
	root.Add(child)
	light := libscn.NewLight("sun", libscn.LightDirectional)
	child.AttachLight(light)
	mesh := libscn.NewMeshInstance("box", &libscn.Mesh{Name: "box"})
	child.AttachMesh(mesh)

	var visited []string
	libscn.Traverse(root, nil, nil, libscn.UpdateLight, func(m *libscn.MeshInstance, world mgl32.Mat4) {
		visited = append(visited, m.Name)
		if p := world.Col(3).Vec3(); !p.ApproxEqualThreshold(mgl32.Vec3{1, 2, 0}, 1e-4) {
			t.Errorf("mesh position should be: (1, 2, 0) but is %v", p)
		}
	}, 2*time.Second)

	if len(visited) != 1 {
		t.Fatalf("visited mesh count should be: 1 but is %d", len(visited))
	}
	if !light.Position.ApproxEqualThreshold(mgl32.Vec3{1, 2, 0}, 1e-4) {
		t.Errorf("light position should be: (1, 2, 0) but is %v", light.Position)
	}
	if !light.Direction.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4) {
		t.Errorf("light direction should be: (0, 0, -1) but is %v", light.Direction)
	}
}

func TestNodeCycles(t *testing.T) {
	a := libscn.NewNode("a")
	b := libscn.NewNode("b")
	a.Add(b)
	b.Add(a)
	if a.Parent != nil {
		t.Errorf("adding an anchestor as a child should be rejected")
	}
	a.Remove(b)
	if len(a.Children) != 0 || b.Parent != nil {
		t.Errorf("remove should detach the child")
	}
}

func TestMaterialIsMatch(t *testing.T) {
	a := libscn.NewMaterial("a", nil, libscn.ShadingPhong)
	a.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{1, 0, 0, 1})
	b := libscn.NewMaterial("b", nil, libscn.ShadingPhong)
	b.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{0, 1, 0, 1})

	if !a.IsMatch(b) {
		t.Errorf("materials differing only in values should match")
	}
	b.SetFloat(libscn.PropertyDiffuse, 0.5)
	if a.IsMatch(b) {
		t.Errorf("materials with different attachment kinds should not match")
	}

	normals := libscn.NewMaterial("n", nil, libscn.ShadingInputFragmentAttribute)
	normals.SetInputAttribute(libscn.InputAttributeNormal)
	uvs := libscn.NewMaterial("uv", nil, libscn.ShadingInputFragmentAttribute)
	uvs.SetInputAttribute(libscn.InputAttributeTexCoord)
	if normals.IsMatch(uvs) {
		t.Errorf("different input attributes should not match")
	}

	clone := a.Clone("a copy")
	if clone.Name != "a copy" || !clone.IsMatch(a) {
		t.Errorf("clone should be renamed and match its source")
	}
}

func TestCameraFrustumCorners(t *testing.T) {
	cam := libscn.NewCamera("cam", math32.Pi/2, 1, 1, 10)
	corners := cam.FrustumCornersModel()
	if !corners[0].ApproxEqualThreshold(mgl32.Vec3{-1, -1, -1}, 1e-4) {
		t.Errorf("near bottom left should be: (-1, -1, -1) but is %v", corners[0])
	}
	if !corners[7].ApproxEqualThreshold(mgl32.Vec3{10, 10, -10}, 1e-4) {
		t.Errorf("far top right should be: (10, 10, -10) but is %v", corners[7])
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	cam := libscn.NewCamera("cam", math32.Pi/2, 1, 0.1, 100)
	frustum := libscn.FrustumFromMatrix(cam.ProjectionMatrix().Mul4(cam.ViewMatrix()))

	cases := []struct {
		name     string
		box      libutil.AABB
		expected bool
	}{
		{"in front", libutil.AABB{Min: mgl32.Vec3{-1, -1, -6}, Max: mgl32.Vec3{1, 1, -4}}, true},
		{"behind", libutil.AABB{Min: mgl32.Vec3{-1, -1, 4}, Max: mgl32.Vec3{1, 1, 6}}, false},
		{"beyond far", libutil.AABB{Min: mgl32.Vec3{-1, -1, -300}, Max: mgl32.Vec3{1, 1, -200}}, false},
		{"straddling", libutil.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, true},
	}
	for _, c := range cases {
		if got := frustum.IntersectsAABB(c.box); got != c.expected {
			t.Errorf("%s: intersection should be: %v but is %v", c.name, c.expected, got)
		}
	}
}

func TestAnyCornerInFront(t *testing.T) {
	plane := libscn.PlaneFromPointNormal(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	front := libutil.AABB{Min: mgl32.Vec3{-1, -1, -3}, Max: mgl32.Vec3{1, 1, -2}}
	back := libutil.AABB{Min: mgl32.Vec3{-1, -1, 2}, Max: mgl32.Vec3{1, 1, 3}}
	if !libscn.AnyCornerInFront(plane, front) {
		t.Errorf("box at -z should be in front")
	}
	if libscn.AnyCornerInFront(plane, back) {
		t.Errorf("box at +z should not be in front")
	}
}

func TestSceneDeleteNotifiesFirst(t *testing.T) {
	scene := libscn.NewScene("scene")
	scene.AddLight(libscn.NewLight("l", libscn.LightPoint))
	seen := -1
	scene.Callbacks.Subscribe(libctx.CallbackSceneAboutToBeDeleted, func(arg any) {
		seen = len(arg.(*libscn.Scene).Lights())
	})
	scene.Delete()
	if seen != 1 {
		t.Errorf("handler should see 1 light but saw %d", seen)
	}
	if !scene.Deleted() || len(scene.Lights()) != 0 {
		t.Errorf("scene should be cleared after delete")
	}
}

func TestParseLight(t *testing.T) {
	light, err := libscn.ParseLight("lamp", "point:vsm:dp:linear")
	if err != nil {
		t.Fatal(err)
	}
	if light.Type != libscn.LightPoint || !light.ShadowCaster {
		t.Errorf("light should be a shadow casting point light but is %v, caster %v\n", light.Type, light.ShadowCaster)
	}
	if light.SMAlgorithm != libscn.SMVariance || light.PointSMAlgorithm != libscn.PointSMDualParaboloid {
		t.Errorf("algorithms should be: vsm, dual paraboloid but are %v, %v\n", light.SMAlgorithm, light.PointSMAlgorithm)
	}
	if light.Falloff != libscn.FalloffLinear || !light.UsesRangeAsFarPlane() {
		t.Errorf("falloff should be: linear but is %v\n", light.Falloff)
	}

	light, err = libscn.ParseLight("sun", "directional")
	if err != nil {
		t.Fatal(err)
	}
	if light.ShadowCaster || light.SMBias != libscn.SMBiasAdaptive {
		t.Errorf("plain description should keep the defaults\n")
	}

	for _, desc := range []string{"torch", "spot:soft", "ambient:plain"} {
		if _, err := libscn.ParseLight("bad", desc); err == nil {
			t.Errorf("%q should be rejected\n", desc)
		}
	}
}

func TestParseLights(t *testing.T) {
	lights, err := libscn.ParseLights("ambient, directional:plain,spot:fast")
	if err != nil {
		t.Fatal(err)
	}
	if len(lights) != 3 {
		t.Fatalf("light count should be: 3 but is %d\n", len(lights))
	}
	if lights[1].Name != "directional 1" || lights[2].SMBias != libscn.SMBiasAdaptiveFast {
		t.Errorf("lights should be named by type and index but got %q\n", lights[1].Name)
	}
	if lights, _ := libscn.ParseLights(" "); len(lights) != 0 {
		t.Errorf("empty list should give no lights\n")
	}
}
