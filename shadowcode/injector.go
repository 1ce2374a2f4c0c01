package shadowcode

import (
	"fmt"
	"log"
	"strings"

	"emerald/libral"
	"emerald/libscn"
	"emerald/libshd"
)

// DepthBiasName is the constant that maps NDC [-1, 1] to texture space [0, 1].
const DepthBiasName = "depth_bias"

const depthBiasValue = "mat4(0.5, 0.0, 0.0, 0.0,\n" +
	"                            0.0, 0.5, 0.0, 0.0,\n" +
	"                            0.0, 0.0, 0.5, 0.0,\n" +
	"                            0.5, 0.5, 0.5, 1.0)"

// AddUniforms declares the shadow map inputs of a light in both stages.
func AddUniforms(vs, fs *libshd.Shader, index int, cfg LightConfig) {
	cfg.validate()

	if !cfg.isPoint() {
		vs.AddUniform(VertexBlock, libshd.Variable{Name: DepthVPName(index), Type: "mat4", Layout: "row_major"})
		vs.AddOutput(libshd.Variable{Name: ShadowCoordName(index), Type: "vec4"})
		fs.AddInput(libshd.Variable{Name: ShadowCoordName(index), Type: "vec4"})
		if cfg.isVSM() {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapColorName(index), Type: "sampler2D"})
		} else {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapName(index), Type: "sampler2DShadow"})
		}
	} else if cfg.isCubical() {
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: ProjectionName(index), Type: "mat4", Layout: "row_major"})
		if cfg.isVSM() {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapColorName(index), Type: "samplerCube"})
		} else {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapName(index), Type: "samplerCubeShadow"})
		}
	} else {
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: FarNearDiffName(index), Type: "float"})
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: NearName(index), Type: "float"})
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: ViewName(index), Type: "mat4", Layout: "row_major"})
		if cfg.isVSM() {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapColorName(index), Type: "sampler2DArray"})
		} else {
			fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: ShadowMapName(index), Type: "sampler2DArrayShadow"})
		}
	}

	if cfg.isVSM() {
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: VSMCutOffName(index), Type: "float"})
		fs.AddUniform(FragmentBlock, libshd.Variable{Name: VSMMinVarianceName(index), Type: "float"})
	}
}

// AdjustVertexUberCode computes the light space position of directional and spot lights.
// worldVertex must name a vec4 local of the vertex main function.
// Point lights work in world space and need no vertex code.
func AdjustVertexUberCode(vs *libshd.Shader, index int, cfg LightConfig, worldVertex string) {
	cfg.validate()
	if cfg.isPoint() {
		return
	}
	if !vs.IsVariableDefined(DepthVPName(index)) {
		log.Panicf("vertex shader: uniforms of light %d were not added", index)
	}
	if !vs.IsVariableDefined(DepthBiasName) {
		vs.AddConstant(libshd.Variable{Name: DepthBiasName, Type: "mat4", Default: depthBiasValue})
	}
	vs.AppendToMain(fmt.Sprintf("    %s = %s * %s * %s;", ShadowCoordName(index), DepthBiasName, DepthVPName(index), worldVertex))
}

// FragmentNames are the uber variables the shadow code reads and writes.
type FragmentNames struct {
	// vec3, world space fragment position
	WorldVertex string
	// vec3, normalized surface normal
	Normal string
	// vec3, normalized direction from the fragment to the light
	LightVector string
	// vec4, world space light position
	LightWorldPos string
	// float, declared by the injected code
	Visibility string
}

// AdjustFragmentUberCode adds the light's visibility function and declares names.Visibility in main.
// The call fails for bias modes without an implementation and leaves the shader untouched in that case.
func AdjustFragmentUberCode(fs *libshd.Shader, index int, cfg LightConfig, names FragmentNames) error {
	cfg.validate()
	if cfg.Bias == libscn.SMBiasConstant {
		return fmt.Errorf("light %d: constant shadow map bias: %w", index, libral.ErrUnsupported)
	}

	var body strings.Builder
	p := fmt.Sprintf("light%d_", index)

	switch cfg.Bias {
	case libscn.SMBiasNone:
		body.WriteString("    float bias = 0.0;\n")
	case libscn.SMBiasAdaptive:
		body.WriteString("    float ndotl = clamp(dot(normal, light_vector), 0.0, 1.0);\n")
		body.WriteString("    float bias  = clamp(0.001 * tan(acos(ndotl)), 0.0, 1.0);\n")
	case libscn.SMBiasAdaptiveFast:
		body.WriteString("    float ndotl = dot(normal, light_vector);\n")
		body.WriteString("    float bias  = 0.001 * acos(clamp(ndotl, 0.0, 1.0));\n")
	}

	var lookup string
	switch {
	case cfg.isCubical():
		body.WriteString("    vec3  to_vertex     = world_vertex - light_world_pos.xyz;\n")
		body.WriteString("    vec3  to_vertex_abs = abs(to_vertex);\n")
		body.WriteString("    float major_axis    = max(to_vertex_abs.x, max(to_vertex_abs.y, to_vertex_abs.z));\n")
		fmt.Fprintf(&body, "    vec4  clip          = %sprojection * vec4(0.0, 0.0, -major_axis, 1.0);\n", p)
		body.WriteString("    float depth         = (clip.z / clip.w) * 0.5 + 0.5 - bias;\n")
		lookup = "to_vertex"
		if !cfg.isVSM() {
			lookup = "vec4(to_vertex, depth)"
		}
	case cfg.isDualParaboloid():
		fmt.Fprintf(&body, "    vec4  vertex_lv  = %sview * vec4(world_vertex, 1.0);\n", p)
		body.WriteString("    float vertex_len = length(vertex_lv.xyz);\n")
		body.WriteString("    vec3  vertex_n   = vertex_lv.xyz / vertex_len;\n")
		body.WriteString("    float layer      = (vertex_n.z <= 0.0) ? 0.0 : 1.0;\n")
		body.WriteString("    vec2  uv         = vertex_n.xy / (1.0 + abs(vertex_n.z)) * 0.5 + 0.5;\n")
		fmt.Fprintf(&body, "    float depth      = (vertex_len - %snear) / %sfar_near_diff - bias;\n", p, p)
		lookup = "vec3(uv, layer)"
		if !cfg.isVSM() {
			lookup = "vec4(uv, layer, depth)"
		}
	default:
		fmt.Fprintf(&body, "    vec3  uvw   = %sshadow_coord.xyz / %sshadow_coord.w;\n", p, p)
		body.WriteString("    float depth = uvw.z - bias;\n")
		lookup = "uvw.xy"
		if !cfg.isVSM() {
			lookup = "vec3(uvw.xy, depth)"
		}
	}

	if cfg.isVSM() {
		fmt.Fprintf(&body, "    vec2  moments     = texture(%s, %s).xy;\n", ShadowMapColorName(index), lookup)
		fmt.Fprintf(&body, "    float variance    = max(moments.y - moments.x * moments.x, %s);\n", VSMMinVarianceName(index))
		body.WriteString("    float delta       = depth - moments.x;\n")
		body.WriteString("    float p           = variance / (variance + delta * delta);\n")
		fmt.Fprintf(&body, "    float shadow_term = smoothstep(%s, 1.0, p);\n", VSMCutOffName(index))
	} else {
		fmt.Fprintf(&body, "    float shadow_term = texture(%s, %s);\n", ShadowMapName(index), lookup)
	}
	body.WriteString("    return 0.1 + 0.9 * shadow_term;")

	fs.AddFunction("float", VisibilityFunctionName(index),
		"vec3 world_vertex, vec3 normal, vec3 light_vector, vec4 light_world_pos",
		body.String())
	fs.AppendToMain(fmt.Sprintf("    float %s = %s(%s, %s, %s, %s);",
		names.Visibility, VisibilityFunctionName(index),
		names.WorldVertex, names.Normal, names.LightVector, names.LightWorldPos))
	return nil
}
