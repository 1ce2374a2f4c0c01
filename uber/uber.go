package uber

import (
	"fmt"
	"log"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/shadowcode"
)

type Type int

const (
	// Draws nothing and has no program
	TypeEmpty Type = iota
	// Wraps the program of a program material
	TypeProgram
	// Generated from property and light items
	TypeRegular
)

func (t Type) String() string {
	switch t {
	case TypeEmpty:
		return "empty"
	case TypeProgram:
		return "program"
	case TypeRegular:
		return "regular"
	}
	return fmt.Sprintf("uber type %d", int(t))
}

type LightType int

const (
	LightAmbient LightType = iota
	LightLambertDirectional
	LightLambertPoint
	LightLambertSpot
	LightPhongDirectional
	LightPhongPoint
	LightPhongSpot
)

func (t LightType) String() string {
	switch t {
	case LightAmbient:
		return "ambient"
	case LightLambertDirectional:
		return "lambert directional"
	case LightLambertPoint:
		return "lambert point"
	case LightLambertSpot:
		return "lambert spot"
	case LightPhongDirectional:
		return "phong directional"
	case LightPhongPoint:
		return "phong point"
	case LightPhongSpot:
		return "phong spot"
	}
	return fmt.Sprintf("uber light type %d", int(t))
}

// LightTypeFor combines a shading model and a scene light type.
func LightTypeFor(shading libscn.Shading, lightType libscn.LightType) LightType {
	if lightType == libscn.LightAmbient {
		return LightAmbient
	}
	var base LightType
	switch shading {
	case libscn.ShadingLambert:
		base = LightLambertDirectional
	case libscn.ShadingPhong:
		base = LightPhongDirectional
	default:
		log.Panicf("shading %v does not use lights", shading)
	}
	switch lightType {
	case libscn.LightDirectional:
		return base
	case libscn.LightPoint:
		return base + 1
	case libscn.LightSpot:
		return base + 2
	}
	log.Panicf("unrecognized light type: %v", lightType)
	return 0
}

func (t LightType) isPhong() bool {
	return t >= LightPhongDirectional
}

func (t LightType) isPoint() bool {
	return t == LightLambertPoint || t == LightPhongPoint
}

func (t LightType) isSpot() bool {
	return t == LightLambertSpot || t == LightPhongSpot
}

func (t LightType) isDirectional() bool {
	return t == LightLambertDirectional || t == LightPhongDirectional
}

// PropertyItem feeds a material property from a data source.
type PropertyItem struct {
	Property libscn.Property
	Source   libscn.AttachmentKind
}

// LightItem adds the contribution of one scene light.
type LightItem struct {
	Type    LightType
	Falloff libscn.Falloff
	Shadows bool
	// Only meaningful when Shadows is set
	Shadow shadowcode.LightConfig
}

// Uber is a compiled shading variant for one context.
type Uber struct {
	Name    string
	Type    Type
	Context *libctx.Context

	Properties     []PropertyItem
	Lights         []LightItem
	InputAttribute libscn.InputAttribute
	// Set for uber shaders that output a fragment attribute instead of lighting
	PassThrough bool

	VertexSource   string
	FragmentSource string
	Program        *libral.Program
}

func New(name string, ctx *libctx.Context, uberType Type) *Uber {
	if ctx == nil {
		log.Panicf("uber %q has no context", name)
	}
	return &Uber{Name: name, Type: uberType, Context: ctx}
}

func (u *Uber) AddProperty(property libscn.Property, source libscn.AttachmentKind) {
	if u.Type != TypeRegular {
		log.Panicf("uber %q: properties need a regular uber, not %v", u.Name, u.Type)
	}
	for _, item := range u.Properties {
		if item.Property == property {
			log.Panicf("uber %q: property %v added twice", u.Name, property)
		}
	}
	u.Properties = append(u.Properties, PropertyItem{Property: property, Source: source})
}

// AddLight appends a light item. The item index is the light's index in the scene.
func (u *Uber) AddLight(lightType LightType, light *libscn.Light, shadows bool) {
	if u.Type != TypeRegular {
		log.Panicf("uber %q: lights need a regular uber, not %v", u.Name, u.Type)
	}
	item := LightItem{Type: lightType, Falloff: light.Falloff}
	if shadows && lightType != LightAmbient {
		item.Shadows = true
		item.Shadow = shadowcode.ConfigFor(light)
	}
	u.Lights = append(u.Lights, item)
}

func (u *Uber) SetInputAttribute(attribute libscn.InputAttribute) {
	u.PassThrough = true
	u.InputAttribute = attribute
}

func (u *Uber) SetProgramSources(vertex, fragment string) {
	if u.Type != TypeProgram {
		log.Panicf("uber %q: sources can only be set on program ubers", u.Name)
	}
	u.VertexSource = vertex
	u.FragmentSource = fragment
}

// Property returns the data source of the property, AttachmentNone when unset.
func (u *Uber) Property(property libscn.Property) libscn.AttachmentKind {
	for _, item := range u.Properties {
		if item.Property == property {
			return item.Source
		}
	}
	return libscn.AttachmentNone
}

// Compile generates the sources of regular ubers and creates the program.
// Empty ubers have nothing to compile.
func (u *Uber) Compile() error {
	if u.Program != nil {
		log.Panicf("uber %q compiled twice", u.Name)
	}
	switch u.Type {
	case TypeEmpty:
		return nil
	case TypeRegular:
		vs, fs, err := u.generate()
		if err != nil {
			return fmt.Errorf("could not generate uber %q: %w", u.Name, err)
		}
		u.VertexSource, u.FragmentSource = vs, fs
	}
	program, err := u.Context.Device.CreateProgram(libral.ProgramCreateInfo{
		Name:           u.Name,
		VertexSource:   u.VertexSource,
		FragmentSource: u.FragmentSource,
	})
	if err != nil {
		return fmt.Errorf("could not compile uber %q: %w", u.Name, err)
	}
	u.Program = program
	return nil
}

func (u *Uber) Compiled() bool {
	return u.Type == TypeEmpty || u.Program != nil
}

func (u *Uber) Release() {
	if u.Program != nil {
		u.Program.Delete()
		u.Program = nil
	}
}
