package libscn

import (
	"fmt"
	"time"

	"emerald/libctx"
	"emerald/libral"

	"github.com/go-gl/mathgl/mgl32"
)

type MaterialType int

const (
	MaterialGeneral MaterialType = iota
	// Shading is defined by a user supplied program
	MaterialProgram
)

func (t MaterialType) String() string {
	switch t {
	case MaterialGeneral:
		return "general"
	case MaterialProgram:
		return "program"
	}
	return fmt.Sprintf("material type %d", int(t))
}

type Shading int

const (
	ShadingNone Shading = iota
	ShadingLambert
	ShadingPhong
	ShadingInputFragmentAttribute
)

func (s Shading) String() string {
	switch s {
	case ShadingNone:
		return "none"
	case ShadingLambert:
		return "lambert"
	case ShadingPhong:
		return "phong"
	case ShadingInputFragmentAttribute:
		return "input fragment attribute"
	}
	return fmt.Sprintf("shading %d", int(s))
}

// UsesLighting reports whether scene lights take part in the shading.
func (s Shading) UsesLighting() bool {
	return s == ShadingLambert || s == ShadingPhong
}

type Property int

const (
	PropertyAmbient Property = iota
	PropertyDiffuse
	PropertyLuminosity
	PropertyShininess
	PropertySpecular
	// Selects the attribute for input fragment attribute shading
	PropertyInputAttribute
	NumProperties
)

func (p Property) String() string {
	switch p {
	case PropertyAmbient:
		return "ambient"
	case PropertyDiffuse:
		return "diffuse"
	case PropertyLuminosity:
		return "luminosity"
	case PropertyShininess:
		return "shininess"
	case PropertySpecular:
		return "specular"
	case PropertyInputAttribute:
		return "input attribute"
	}
	return fmt.Sprintf("property %d", int(p))
}

type AttachmentKind int

const (
	AttachmentNone AttachmentKind = iota
	AttachmentFloat
	AttachmentVec4
	AttachmentTexture
	AttachmentCurveFloat
	AttachmentCurveVec3
	AttachmentInputFragmentAttribute
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentNone:
		return "none"
	case AttachmentFloat:
		return "float"
	case AttachmentVec4:
		return "vec4"
	case AttachmentTexture:
		return "texture"
	case AttachmentCurveFloat:
		return "curve float"
	case AttachmentCurveVec3:
		return "curve vec3"
	case AttachmentInputFragmentAttribute:
		return "input fragment attribute"
	}
	return fmt.Sprintf("attachment kind %d", int(k))
}

type InputAttribute int

const (
	InputAttributeNormal InputAttribute = iota
	InputAttributeTexCoord
)

func (a InputAttribute) String() string {
	switch a {
	case InputAttributeNormal:
		return "normal"
	case InputAttributeTexCoord:
		return "texcoord"
	}
	return fmt.Sprintf("input attribute %d", int(a))
}

type FloatCurve func(t time.Duration) float32
type Vec3Curve func(t time.Duration) mgl32.Vec3

type Attachment struct {
	Kind           AttachmentKind
	Float          float32
	Vec4           mgl32.Vec4
	Texture        *libral.TextureView
	Sampler        *libral.Sampler
	CurveFloat     FloatCurve
	CurveVec3      Vec3Curve
	InputAttribute InputAttribute
}

type Material struct {
	Name        string
	Type        MaterialType
	Shading     Shading
	Context     *libctx.Context
	Attachments [NumProperties]Attachment
	// Program materials only
	Program *libral.Program
}

func NewMaterial(name string, ctx *libctx.Context, shading Shading) *Material {
	return &Material{
		Name:    name,
		Type:    MaterialGeneral,
		Shading: shading,
		Context: ctx,
	}
}

func NewProgramMaterial(name string, ctx *libctx.Context, program *libral.Program) *Material {
	return &Material{
		Name:    name,
		Type:    MaterialProgram,
		Context: ctx,
		Program: program,
	}
}

func (m *Material) Attach(property Property, attachment Attachment) {
	m.Attachments[property] = attachment
}

func (m *Material) SetFloat(property Property, value float32) {
	m.Attach(property, Attachment{Kind: AttachmentFloat, Float: value})
}

func (m *Material) SetVec4(property Property, value mgl32.Vec4) {
	m.Attach(property, Attachment{Kind: AttachmentVec4, Vec4: value})
}

func (m *Material) SetTexture(property Property, view *libral.TextureView, sampler *libral.Sampler) {
	m.Attach(property, Attachment{Kind: AttachmentTexture, Texture: view, Sampler: sampler})
}

func (m *Material) SetInputAttribute(attribute InputAttribute) {
	m.Attach(PropertyInputAttribute, Attachment{Kind: AttachmentInputFragmentAttribute, InputAttribute: attribute})
}

// IsMatch reports whether both materials would produce the same uber.
// Values are ignored, only the structure of the shading configuration is compared.
func (m *Material) IsMatch(other *Material) bool {
	if m.Type != other.Type || m.Shading != other.Shading {
		return false
	}
	if m.Type == MaterialProgram && m.Program != other.Program {
		return false
	}
	for i := range m.Attachments {
		a, b := m.Attachments[i], other.Attachments[i]
		if a.Kind != b.Kind {
			return false
		}
		if a.Kind == AttachmentInputFragmentAttribute && a.InputAttribute != b.InputAttribute {
			return false
		}
	}
	return true
}

func (m *Material) Clone(name string) *Material {
	clone := *m
	clone.Name = name
	return &clone
}
