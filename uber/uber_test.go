package uber_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/uber"

	"github.com/go-gl/mathgl/mgl32"
)

func newContext() (*libctx.Context, *libral.NullDevice) {
	dev := libral.NewNullDevice()
	return libctx.NewContext("test", dev, libctx.NewCallbackManager()), dev
}

func TestLightTypeFor(t *testing.T) {
	tests := []struct {
		shading   libscn.Shading
		lightType libscn.LightType
		expected  uber.LightType
	}{
		{libscn.ShadingLambert, libscn.LightAmbient, uber.LightAmbient},
		{libscn.ShadingPhong, libscn.LightAmbient, uber.LightAmbient},
		{libscn.ShadingLambert, libscn.LightDirectional, uber.LightLambertDirectional},
		{libscn.ShadingLambert, libscn.LightPoint, uber.LightLambertPoint},
		{libscn.ShadingLambert, libscn.LightSpot, uber.LightLambertSpot},
		{libscn.ShadingPhong, libscn.LightDirectional, uber.LightPhongDirectional},
		{libscn.ShadingPhong, libscn.LightPoint, uber.LightPhongPoint},
		{libscn.ShadingPhong, libscn.LightSpot, uber.LightPhongSpot},
	}
	for _, test := range tests {
		if actual := uber.LightTypeFor(test.shading, test.lightType); actual != test.expected {
			t.Errorf("%v %v should be: %v but is %v\n", test.shading, test.lightType, test.expected, actual)
		}
	}
}

func TestCompileRegular(t *testing.T) {
	ctx, dev := newContext()
	light := libscn.NewLight("sun", libscn.LightDirectional)
	light.ShadowCaster = true

	u := uber.New("phong", ctx, uber.TypeRegular)
	u.AddProperty(libscn.PropertyDiffuse, libscn.AttachmentVec4)
	u.AddProperty(libscn.PropertyShininess, libscn.AttachmentFloat)
	u.AddLight(uber.LightPhongDirectional, light, true)
	if err := u.Compile(); err != nil {
		t.Fatal(err)
	}
	if len(dev.Programs) != 1 {
		t.Errorf("program count should be: 1 but is %d\n", len(dev.Programs))
	}

	for _, expected := range []string{
		"vec4 material_diffuse;",
		"float material_shininess;",
		"vec4 light0_diffuse;",
		"float light0_shadow_visibility(",
		"attenuation_0 *= visibility_0;",
		"reflect(-light_vector_0, normal)",
	} {
		if !strings.Contains(u.FragmentSource, expected) {
			t.Errorf("fragment source should contain: %q but is\n%s", expected, u.FragmentSource)
		}
	}
	if !strings.Contains(u.VertexSource, "light0_shadow_coord = depth_bias * light0_depth_vp * world_vertex;") {
		t.Errorf("vertex source should compute the shadow coordinate but is\n%s", u.VertexSource)
	}

	u.Release()
	if len(dev.Programs) != 0 {
		t.Errorf("program count after release should be: 0 but is %d\n", len(dev.Programs))
	}
}

func TestCompileEmpty(t *testing.T) {
	ctx, dev := newContext()
	u := uber.New("none", ctx, uber.TypeEmpty)
	if err := u.Compile(); err != nil {
		t.Fatal(err)
	}
	if u.Program != nil || len(dev.Programs) != 0 {
		t.Errorf("empty uber should not create a program")
	}
	if !u.Compiled() {
		t.Errorf("empty uber should count as compiled")
	}
}

func TestCompileConstantBias(t *testing.T) {
	ctx, dev := newContext()
	light := libscn.NewLight("spot", libscn.LightSpot)
	light.ShadowCaster = true
	light.SMBias = libscn.SMBiasConstant

	u := uber.New("lambert", ctx, uber.TypeRegular)
	u.AddLight(uber.LightLambertSpot, light, true)
	err := u.Compile()
	if !errors.Is(err, libral.ErrUnsupported) {
		t.Errorf("error should be: %v but is %v\n", libral.ErrUnsupported, err)
	}
	if len(dev.Programs) != 0 {
		t.Errorf("failed uber should not create a program")
	}
}

func TestCompilePassThrough(t *testing.T) {
	ctx, _ := newContext()
	u := uber.New("normals", ctx, uber.TypeRegular)
	u.SetInputAttribute(libscn.InputAttributeNormal)
	if err := u.Compile(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(u.FragmentSource, "frag_color = vec4(normalize(normal_fs) * 0.5 + 0.5, 1.0);") {
		t.Errorf("fragment source should output the normal but is\n%s", u.FragmentSource)
	}
	if strings.Contains(u.FragmentSource, "world_camera") {
		t.Errorf("pass through shading should not declare lighting inputs")
	}
}

func TestCompileFailure(t *testing.T) {
	ctx, dev := newContext()
	dev.FailAfter(0)
	u := uber.New("phong", ctx, uber.TypeRegular)
	if err := u.Compile(); !errors.Is(err, libral.ErrResourceCreation) {
		t.Errorf("error should be: %v but is %v\n", libral.ErrResourceCreation, err)
	}
}

func TestBindLights(t *testing.T) {
	ctx, dev := newContext()
	sun := libscn.NewLight("sun", libscn.LightDirectional)
	sun.ShadowCaster = true
	ambient := libscn.NewLight("ambient", libscn.LightAmbient)

	tex, _ := dev.CreateTexture(libral.TextureCreateInfo{Type: libral.Texture2D, Format: libral.FormatDepth32F, Width: 16, Height: 16, Layers: 1, Mips: 1})
	sun.SMDepthView, _ = tex.CreateView()
	compare, _ := dev.CreateSampler(libral.SamplerCreateInfo{Compare: true})

	u := uber.New("lambert", ctx, uber.TypeRegular)
	u.AddLight(uber.LightAmbient, ambient, true)
	u.AddLight(uber.LightLambertDirectional, sun, true)
	if err := u.Compile(); err != nil {
		t.Fatal(err)
	}
	if u.Lights[0].Shadows {
		t.Errorf("ambient light items should never have shadows")
	}

	cb, _ := dev.CreateCommandBuffer("bind")
	cb.SetProgram(u.Program)
	next := u.BindLights(cb, []*libscn.Light{ambient, sun}, mgl32.Vec3{}, uber.ShadowSamplers{Compare: compare}, 3)
	if next != 4 {
		t.Errorf("next unit should be: 4 but is %d\n", next)
	}

	var bound *libral.BindTextureCommand
	uniforms := map[string]bool{}
	for _, cmd := range cb.Commands() {
		switch c := cmd.(type) {
		case libral.BindTextureCommand:
			bound = &c
		case libral.SetUniformCommand:
			uniforms[c.Name] = true
		}
	}
	if bound == nil || bound.Unit != 3 || bound.Uniform != "light1_shadow_map" || bound.View != sun.SMDepthView {
		t.Errorf("shadow map binding should be: unit 3 light1_shadow_map but is %+v\n", bound)
	}
	for _, name := range []string{"world_camera", "light0_diffuse", "light1_diffuse", "light1_direction", "light1_depth_vp"} {
		if !uniforms[name] {
			t.Errorf("uniform %q should be set", name)
		}
	}
	cb.End()
	if err := dev.Submit(cb); err != nil {
		t.Error(err)
	}
}

func TestBindMaterial(t *testing.T) {
	ctx, dev := newContext()
	material := libscn.NewMaterial("m", ctx, libscn.ShadingLambert)
	material.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{1, 0, 0, 1})
	material.Attach(libscn.PropertyLuminosity, libscn.Attachment{
		Kind:       libscn.AttachmentCurveFloat,
		CurveFloat: func(t time.Duration) float32 { return float32(t.Seconds()) },
	})

	u := uber.New("lambert", ctx, uber.TypeRegular)
	u.AddProperty(libscn.PropertyDiffuse, libscn.AttachmentVec4)
	u.AddProperty(libscn.PropertyLuminosity, libscn.AttachmentCurveFloat)
	if err := u.Compile(); err != nil {
		t.Fatal(err)
	}
	cb, _ := dev.CreateCommandBuffer("bind")
	cb.SetProgram(u.Program)
	u.BindMaterial(cb, material, 2*time.Second, 0)

	values := map[string]any{}
	for _, cmd := range cb.Commands() {
		if c, ok := cmd.(libral.SetUniformCommand); ok {
			values[c.Name] = c.Value
		}
	}
	if v := values["material_luminosity"]; v != float32(2) {
		t.Errorf("curve value should be: %v but is %v\n", float32(2), v)
	}
	if v := values["material_diffuse"]; v != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("diffuse should be: %v but is %v\n", mgl32.Vec4{1, 0, 0, 1}, v)
	}
}
