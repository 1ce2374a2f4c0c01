package shadowcode_test

import (
	"errors"
	"strings"
	"testing"

	"emerald/libral"
	"emerald/libscn"
	"emerald/libshd"
	"emerald/shadowcode"

	"github.com/chewxy/math32"
)

var fragmentNames = shadowcode.FragmentNames{
	WorldVertex:   "world_vertex_fs.xyz",
	Normal:        "normal",
	LightVector:   "light_vector",
	LightWorldPos: "light0_world_pos",
	Visibility:    "visibility",
}

func inject(t *testing.T, cfg shadowcode.LightConfig) (vs, fs *libshd.Shader) {
	vs = libshd.NewShader(libshd.StageVertex)
	fs = libshd.NewShader(libshd.StageFragment)
	shadowcode.AddUniforms(vs, fs, 0, cfg)
	shadowcode.AdjustVertexUberCode(vs, 0, cfg, "world_vertex")
	if err := shadowcode.AdjustFragmentUberCode(fs, 0, cfg, fragmentNames); err != nil {
		t.Fatal(err)
	}
	return
}

func TestAdaptiveBias(t *testing.T) {
	ndotl := float32(0.6)
	expected := 0.001 * math32.Tan(math32.Acos(ndotl))
	if actual := shadowcode.AdaptiveBias(ndotl); math32.Abs(actual-expected) > 1e-7 {
		t.Errorf("adaptive bias should be: %v but is %v\n", expected, actual)
	}
	// tan(acos(0.6)) = 0.8 / 0.6
	if actual := shadowcode.AdaptiveBias(ndotl); math32.Abs(actual-0.0013333) > 1e-6 {
		t.Errorf("adaptive bias should be: %v but is %v\n", 0.0013333, actual)
	}
	if actual := shadowcode.AdaptiveBias(1); actual != 0 {
		t.Errorf("head on adaptive bias should be: %v but is %v\n", 0, actual)
	}
}

func TestAdaptiveFastBias(t *testing.T) {
	expected := 0.001 * math32.Acos(0.6)
	if actual := shadowcode.AdaptiveFastBias(0.6); math32.Abs(actual-expected) > 1e-7 {
		t.Errorf("adaptive fast bias should be: %v but is %v\n", expected, actual)
	}
	if actual := shadowcode.AdaptiveFastBias(-1); math32.Abs(actual-0.001*math32.Pi/2) > 1e-7 {
		t.Errorf("negative n dot l should clamp to: %v but is %v\n", 0.001*math32.Pi/2, actual)
	}
}

func TestVisibility(t *testing.T) {
	tests := []struct {
		term, expected float32
	}{
		{0, 0.1},
		{0.5, 0.55},
		{1, 1},
	}
	for _, test := range tests {
		if actual := shadowcode.Visibility(test.term); math32.Abs(actual-test.expected) > 1e-6 {
			t.Errorf("visibility of %v should be: %v but is %v\n", test.term, test.expected, actual)
		}
	}
}

func TestVSMShadowTerm(t *testing.T) {
	// fully lit when the receiver is in front of the mean occluder
	if actual := shadowcode.VSMShadowTerm(0.5, 0.25, 0.5, 1e-5, 0.1); actual != 1 {
		t.Errorf("vsm term at the occluder should be: %v but is %v\n", 1, actual)
	}
	if actual := shadowcode.VSMShadowTerm(0.2, 0.04, 0.9, 1e-5, 0.1); actual != 0 {
		t.Errorf("vsm term far behind the occluder should be: %v but is %v\n", 0, actual)
	}
}

func TestParaboloidProject(t *testing.T) {
	u, v, layer, depth := shadowcode.ParaboloidProject(0, 0, -5, 1, 9)
	if u != 0.5 || v != 0.5 || layer != 0 || depth != 0.5 {
		t.Errorf("projection should be: (0.5 0.5 0 0.5) but is (%v %v %v %v)\n", u, v, layer, depth)
	}
	_, _, layer, _ = shadowcode.ParaboloidProject(1, 0, 1, 1, 9)
	if layer != 1 {
		t.Errorf("rear hemisphere layer should be: 1 but is %v\n", layer)
	}
}

func TestInjectDirectionalPlain(t *testing.T) {
	cfg := shadowcode.LightConfig{Type: libscn.LightDirectional, Algorithm: libscn.SMPlain, Bias: libscn.SMBiasAdaptive}
	vs, fs := inject(t, cfg)

	vsSource := vs.Source()
	for _, expected := range []string{
		"layout(row_major) mat4 light0_depth_vp;",
		"out vec4 light0_shadow_coord;",
		"const mat4 depth_bias = mat4(0.5",
		"light0_shadow_coord = depth_bias * light0_depth_vp * world_vertex;",
	} {
		if !strings.Contains(vsSource, expected) {
			t.Errorf("vertex source should contain: %q but is\n%s", expected, vsSource)
		}
	}

	fsSource := fs.Source()
	for _, expected := range []string{
		"in vec4 light0_shadow_coord;",
		"uniform sampler2DShadow light0_shadow_map;",
		"float light0_shadow_visibility(vec3 world_vertex, vec3 normal, vec3 light_vector, vec4 light_world_pos)",
		"tan(acos(ndotl))",
		"float visibility = light0_shadow_visibility(world_vertex_fs.xyz, normal, light_vector, light0_world_pos);",
	} {
		if !strings.Contains(fsSource, expected) {
			t.Errorf("fragment source should contain: %q but is\n%s", expected, fsSource)
		}
	}
	if strings.Index(fsSource, "light0_shadow_visibility(vec3") > strings.Index(fsSource, "void main()") {
		t.Errorf("visibility function should be declared before main")
	}
}

func TestInjectPointVariants(t *testing.T) {
	tests := []struct {
		name      string
		cfg       shadowcode.LightConfig
		contains  []string
		forbidden []string
	}{
		{
			name: "cubical plain",
			cfg:  shadowcode.LightConfig{Type: libscn.LightPoint, PointAlgorithm: libscn.PointSMCubical},
			contains: []string{
				"uniform samplerCubeShadow light0_shadow_map;",
				"layout(row_major) mat4 light0_projection;",
				"texture(light0_shadow_map, vec4(to_vertex, depth))",
			},
			forbidden: []string{"light0_shadow_coord", "light0_shadow_map_vsm_cutoff"},
		},
		{
			name: "cubical vsm",
			cfg:  shadowcode.LightConfig{Type: libscn.LightPoint, PointAlgorithm: libscn.PointSMCubical, Algorithm: libscn.SMVariance},
			contains: []string{
				"uniform samplerCube light0_shadow_map_color;",
				"float light0_shadow_map_vsm_cutoff;",
				"float light0_shadow_map_vsm_min_variance;",
				"smoothstep(light0_shadow_map_vsm_cutoff, 1.0, p)",
			},
		},
		{
			name: "dual paraboloid plain",
			cfg:  shadowcode.LightConfig{Type: libscn.LightPoint, PointAlgorithm: libscn.PointSMDualParaboloid, Bias: libscn.SMBiasAdaptiveFast},
			contains: []string{
				"uniform sampler2DArrayShadow light0_shadow_map;",
				"float light0_far_near_diff;",
				"float light0_near;",
				"layout(row_major) mat4 light0_view;",
				"texture(light0_shadow_map, vec4(uv, layer, depth))",
				"0.001 * acos(clamp(ndotl, 0.0, 1.0))",
			},
		},
	}
	for _, test := range tests {
		vs, fs := inject(t, test.cfg)
		if strings.Contains(vs.Source(), "light0_") {
			t.Errorf("%s: point lights should not add vertex code but vertex source is\n%s", test.name, vs.Source())
		}
		source := fs.Source()
		for _, expected := range test.contains {
			if !strings.Contains(source, expected) {
				t.Errorf("%s: fragment source should contain: %q but is\n%s", test.name, expected, source)
			}
		}
		for _, unexpected := range test.forbidden {
			if strings.Contains(source, unexpected) {
				t.Errorf("%s: fragment source should not contain: %q", test.name, unexpected)
			}
		}
	}
}

func TestConstantBiasUnsupported(t *testing.T) {
	cfg := shadowcode.LightConfig{Type: libscn.LightSpot, Bias: libscn.SMBiasConstant}
	vs := libshd.NewShader(libshd.StageVertex)
	fs := libshd.NewShader(libshd.StageFragment)
	shadowcode.AddUniforms(vs, fs, 0, cfg)
	err := shadowcode.AdjustFragmentUberCode(fs, 0, cfg, fragmentNames)
	if !errors.Is(err, libral.ErrUnsupported) {
		t.Errorf("constant bias error should be: %v but is %v\n", libral.ErrUnsupported, err)
	}
	if fs.IsVariableDefined(shadowcode.VisibilityFunctionName(0)) {
		t.Errorf("failed injection should leave the shader untouched")
	}
}

func TestDuplicateInjectionPanics(t *testing.T) {
	cfg := shadowcode.LightConfig{Type: libscn.LightDirectional}
	vs, fs := inject(t, cfg)
	defer func() {
		if recover() == nil {
			t.Errorf("injecting the same light twice should panic")
		}
	}()
	shadowcode.AddUniforms(vs, fs, 0, cfg)
}

func TestTwoLightsShareDepthBias(t *testing.T) {
	cfg := shadowcode.LightConfig{Type: libscn.LightSpot}
	vs := libshd.NewShader(libshd.StageVertex)
	fs := libshd.NewShader(libshd.StageFragment)
	for i := 0; i < 2; i++ {
		shadowcode.AddUniforms(vs, fs, i, cfg)
		shadowcode.AdjustVertexUberCode(vs, i, cfg, "world_vertex")
	}
	if n := strings.Count(vs.Source(), "const mat4 depth_bias"); n != 1 {
		t.Errorf("depth bias declarations should be: 1 but is %d\n", n)
	}
}

func TestAmbientLightPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("ambient lights should not accept shadow code")
		}
	}()
	shadowcode.AddUniforms(libshd.NewShader(libshd.StageVertex), libshd.NewShader(libshd.StageFragment), 0,
		shadowcode.LightConfig{Type: libscn.LightAmbient})
}

func TestSpecialMaterialShaderBody(t *testing.T) {
	for body := shadowcode.BodyType(0); body < shadowcode.NumBodyTypes; body++ {
		source := shadowcode.SpecialMaterialShaderBody(body)
		if !strings.HasPrefix(source, "#version 430 core\n") {
			t.Errorf("%v should start with the version directive", body)
		}
	}
	if !strings.Contains(shadowcode.SpecialMaterialShaderBody(shadowcode.BodyDepthClipDualParaboloidVertex), "gl_ClipDistance[0] = -light_vertex_norm.z;") {
		t.Errorf("paraboloid vertex body should clip the rear hemisphere")
	}
	if !strings.Contains(shadowcode.SpecialMaterialShaderBody(shadowcode.BodyDepthClipAndSquaredFragment), "gl_FragCoord.z * gl_FragCoord.z") {
		t.Errorf("squared fragment body should write the second moment")
	}
	defer func() {
		if recover() == nil {
			t.Errorf("unknown body type should panic")
		}
	}()
	shadowcode.SpecialMaterialShaderBody(shadowcode.NumBodyTypes)
}
