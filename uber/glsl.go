package uber

import (
	"fmt"
	"log"
	"strings"

	"emerald/libscn"
	"emerald/libshd"
	"emerald/shadowcode"
)

// Uniform names shared with the code that records the values.
const (
	UniformModel       = "model"
	UniformVP          = "vp"
	UniformWorldCamera = "world_camera"
)

const (
	attributeVertex = "object_vertex"
	attributeNormal = "object_normal"
	attributeUV     = "object_uv"

	varyingWorldVertex = "world_vertex_fs"
	varyingNormal      = "normal_fs"
	varyingUV          = "uv_fs"

	fragmentOutput = "frag_color"
)

func PropertyName(property libscn.Property) string {
	return "material_" + strings.ReplaceAll(property.String(), " ", "_")
}

func PropertyMapName(property libscn.Property) string {
	return PropertyName(property) + "_map"
}

func LightWorldPosName(index int) string {
	return fmt.Sprintf("light%d_world_pos", index)
}

func LightDirectionName(index int) string {
	return fmt.Sprintf("light%d_direction", index)
}

func LightDiffuseName(index int) string {
	return fmt.Sprintf("light%d_diffuse", index)
}

// LightAttenuationName is a vec4 of the constant, linear and quadratic factors and the range.
func LightAttenuationName(index int) string {
	return fmt.Sprintf("light%d_attenuation", index)
}

func LightConeCosName(index int) string {
	return fmt.Sprintf("light%d_cone_cos", index)
}

func propertyDefault(property libscn.Property) string {
	switch property {
	case libscn.PropertyDiffuse:
		return "vec4(1.0)"
	case libscn.PropertyShininess:
		return "vec4(32.0)"
	}
	return "vec4(0.0)"
}

func (u *Uber) generate() (vertex, fragment string, err error) {
	vs := libshd.NewShader(libshd.StageVertex)
	fs := libshd.NewShader(libshd.StageFragment)

	vs.AddInput(libshd.Variable{Name: attributeVertex, Type: "vec3", Layout: "location = 0"})
	vs.AddInput(libshd.Variable{Name: attributeNormal, Type: "vec3", Layout: "location = 1"})
	vs.AddInput(libshd.Variable{Name: attributeUV, Type: "vec2", Layout: "location = 2"})
	vs.AddUniform(shadowcode.VertexBlock, libshd.Variable{Name: UniformModel, Type: "mat4", Layout: "row_major"})
	vs.AddUniform(shadowcode.VertexBlock, libshd.Variable{Name: UniformVP, Type: "mat4", Layout: "row_major"})
	for _, v := range []libshd.Variable{
		{Name: varyingWorldVertex, Type: "vec4"},
		{Name: varyingNormal, Type: "vec3"},
		{Name: varyingUV, Type: "vec2"},
	} {
		vs.AddOutput(v)
		fs.AddInput(v)
	}
	fs.AddOutput(libshd.Variable{Name: fragmentOutput, Type: "vec4", Layout: "location = 0"})

	vs.AppendToMain(fmt.Sprintf("    vec4 world_vertex = %s * vec4(%s, 1.0);", UniformModel, attributeVertex))
	vs.AppendToMain(fmt.Sprintf("    %s = world_vertex;", varyingWorldVertex))
	vs.AppendToMain(fmt.Sprintf("    %s = mat3(%s) * %s;", varyingNormal, UniformModel, attributeNormal))
	vs.AppendToMain(fmt.Sprintf("    %s = %s;", varyingUV, attributeUV))
	vs.AppendToMain(fmt.Sprintf("    gl_Position = %s * world_vertex;", UniformVP))

	if u.PassThrough {
		switch u.InputAttribute {
		case libscn.InputAttributeNormal:
			fs.AppendToMain(fmt.Sprintf("    %s = vec4(normalize(%s) * 0.5 + 0.5, 1.0);", fragmentOutput, varyingNormal))
		case libscn.InputAttributeTexCoord:
			fs.AppendToMain(fmt.Sprintf("    %s = vec4(%s, 0.0, 1.0);", fragmentOutput, varyingUV))
		default:
			log.Panicf("uber %q: unrecognized input attribute %v", u.Name, u.InputAttribute)
		}
		return vs.Source(), fs.Source(), nil
	}

	fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: UniformWorldCamera, Type: "vec4"})
	for p := libscn.PropertyAmbient; p <= libscn.PropertySpecular; p++ {
		fs.AppendToMain(fmt.Sprintf("    vec4 %s = %s;", propertyValueName(p), u.propertySource(fs, p)))
	}
	fs.AppendToMain(fmt.Sprintf("    vec3 normal = normalize(%s);", varyingNormal))
	fs.AppendToMain(fmt.Sprintf("    vec3 view_vector = normalize(%s.xyz - %s.xyz);", UniformWorldCamera, varyingWorldVertex))
	fs.AppendToMain(fmt.Sprintf("    vec3 color = %s.rgb;", propertyValueName(libscn.PropertyLuminosity)))

	for i, light := range u.Lights {
		if err := u.addLight(vs, fs, i, light); err != nil {
			return "", "", err
		}
	}

	fs.AppendToMain(fmt.Sprintf("    %s = vec4(color, %s.a);", fragmentOutput, propertyValueName(libscn.PropertyDiffuse)))
	return vs.Source(), fs.Source(), nil
}

func propertyValueName(property libscn.Property) string {
	return strings.TrimPrefix(PropertyName(property), "material_") + "_value"
}

// propertySource declares the inputs of a property and returns a vec4 expression reading it.
func (u *Uber) propertySource(fs *libshd.Shader, property libscn.Property) string {
	name := PropertyName(property)
	switch u.Property(property) {
	case libscn.AttachmentNone:
		return propertyDefault(property)
	case libscn.AttachmentFloat, libscn.AttachmentCurveFloat:
		fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: name, Type: "float"})
		return fmt.Sprintf("vec4(%s)", name)
	case libscn.AttachmentVec4, libscn.AttachmentCurveVec3:
		fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: name, Type: "vec4"})
		return name
	case libscn.AttachmentTexture:
		fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: PropertyMapName(property), Type: "sampler2D"})
		return fmt.Sprintf("texture(%s, %s)", PropertyMapName(property), varyingUV)
	}
	log.Panicf("uber %q: property %v cannot be fed from %v", u.Name, property, u.Property(property))
	return ""
}

func falloffExpression(falloff libscn.Falloff, index int, distance string) string {
	attenuation := LightAttenuationName(index)
	switch falloff {
	case libscn.FalloffOff:
		return "1.0"
	case libscn.FalloffLinear:
		return fmt.Sprintf("clamp(1.0 - %s / %s.w, 0.0, 1.0)", distance, attenuation)
	case libscn.FalloffInverseSquare:
		return fmt.Sprintf("1.0 / max(%s * %s, 0.0001)", distance, distance)
	case libscn.FalloffCustom:
		return fmt.Sprintf("1.0 / (%[1]s.x + %[1]s.y * %[2]s + %[1]s.z * %[2]s * %[2]s)", attenuation, distance)
	}
	log.Panicf("unrecognized falloff: %v", falloff)
	return ""
}

func (u *Uber) addLight(vs, fs *libshd.Shader, index int, light LightItem) error {
	diffuse := LightDiffuseName(index)
	fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: diffuse, Type: "vec4"})

	if light.Type == LightAmbient {
		fs.AppendToMain(fmt.Sprintf("    color += %s.rgb * %s.rgb;", propertyValueName(libscn.PropertyAmbient), diffuse))
		return nil
	}

	worldPos := LightWorldPosName(index)
	direction := LightDirectionName(index)
	lightVector := fmt.Sprintf("light_vector_%d", index)
	attenuation := fmt.Sprintf("attenuation_%d", index)
	fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: worldPos, Type: "vec4"})
	fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: direction, Type: "vec4"})

	if light.Type.isDirectional() {
		fs.AppendToMain(fmt.Sprintf("    vec3 %s = -%s.xyz;", lightVector, direction))
		fs.AppendToMain(fmt.Sprintf("    float %s = 1.0;", attenuation))
	} else {
		distance := fmt.Sprintf("light_distance_%d", index)
		fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: LightAttenuationName(index), Type: "vec4"})
		fs.AppendToMain(fmt.Sprintf("    vec3 %s = %s.xyz - %s.xyz;", lightVector, worldPos, varyingWorldVertex))
		fs.AppendToMain(fmt.Sprintf("    float %s = length(%s);", distance, lightVector))
		fs.AppendToMain(fmt.Sprintf("    %s /= %s;", lightVector, distance))
		fs.AppendToMain(fmt.Sprintf("    float %s = %s;", attenuation, falloffExpression(light.Falloff, index, distance)))
		if light.Type.isSpot() {
			fs.AddUniform(shadowcode.FragmentBlock, libshd.Variable{Name: LightConeCosName(index), Type: "float"})
			fs.AppendToMain(fmt.Sprintf("    %s *= smoothstep(%s, 1.0, dot(-%s, %s.xyz));", attenuation, LightConeCosName(index), lightVector, direction))
		}
	}

	if light.Shadows {
		shadowcode.AddUniforms(vs, fs, index, light.Shadow)
		shadowcode.AdjustVertexUberCode(vs, index, light.Shadow, "world_vertex")
		err := shadowcode.AdjustFragmentUberCode(fs, index, light.Shadow, shadowcode.FragmentNames{
			WorldVertex:   varyingWorldVertex + ".xyz",
			Normal:        "normal",
			LightVector:   lightVector,
			LightWorldPos: worldPos,
			Visibility:    fmt.Sprintf("visibility_%d", index),
		})
		if err != nil {
			return err
		}
		fs.AppendToMain(fmt.Sprintf("    %s *= visibility_%d;", attenuation, index))
	}

	fs.AppendToMain(fmt.Sprintf("    color += %s.rgb * %s.rgb * max(dot(normal, %s), 0.0) * %s;",
		propertyValueName(libscn.PropertyDiffuse), diffuse, lightVector, attenuation))
	if light.Type.isPhong() {
		fs.AppendToMain(fmt.Sprintf("    color += %s.rgb * %s.rgb * pow(max(dot(reflect(-%s, normal), view_vector), 0.0), %s.r) * %s;",
			propertyValueName(libscn.PropertySpecular), diffuse, lightVector, propertyValueName(libscn.PropertyShininess), attenuation))
	}
	return nil
}
