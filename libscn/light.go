package libscn

import (
	"fmt"

	"emerald/libral"
	"emerald/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

type LightType int

const (
	LightAmbient LightType = iota
	LightDirectional
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	}
	return fmt.Sprintf("light type %d", int(t))
}

type SMAlgorithm int

const (
	SMPlain SMAlgorithm = iota
	SMVariance
)

func (a SMAlgorithm) String() string {
	switch a {
	case SMPlain:
		return "plain"
	case SMVariance:
		return "vsm"
	}
	return fmt.Sprintf("sm algorithm %d", int(a))
}

type PointSMAlgorithm int

const (
	PointSMCubical PointSMAlgorithm = iota
	PointSMDualParaboloid
)

func (a PointSMAlgorithm) String() string {
	switch a {
	case PointSMCubical:
		return "cubical"
	case PointSMDualParaboloid:
		return "dual paraboloid"
	}
	return fmt.Sprintf("point sm algorithm %d", int(a))
}

type SMBias int

const (
	SMBiasNone SMBias = iota
	SMBiasConstant
	SMBiasAdaptive
	SMBiasAdaptiveFast
)

func (b SMBias) String() string {
	switch b {
	case SMBiasNone:
		return "none"
	case SMBiasConstant:
		return "constant"
	case SMBiasAdaptive:
		return "adaptive"
	case SMBiasAdaptiveFast:
		return "adaptive fast"
	}
	return fmt.Sprintf("sm bias %d", int(b))
}

type SMFiltering int

const (
	SMFilteringPCF SMFiltering = iota
	SMFilteringLinear
)

func (f SMFiltering) String() string {
	switch f {
	case SMFilteringPCF:
		return "pcf"
	case SMFilteringLinear:
		return "linear"
	}
	return fmt.Sprintf("sm filtering %d", int(f))
}

type Falloff int

const (
	FalloffOff Falloff = iota
	// Attenuates to zero at Range, also used as the shadow map far plane
	FalloffLinear
	FalloffInverseSquare
	// Uses the attenuation factors
	FalloffCustom
)

func (f Falloff) String() string {
	switch f {
	case FalloffOff:
		return "off"
	case FalloffLinear:
		return "linear"
	case FalloffInverseSquare:
		return "inverse square"
	case FalloffCustom:
		return "custom"
	}
	return fmt.Sprintf("falloff %d", int(f))
}

type BlurResolution int

const (
	BlurFull BlurResolution = iota
	BlurHalf
	BlurQuarter
)

// Divisor returns the factor the blur target size is divided by.
func (r BlurResolution) Divisor() int {
	switch r {
	case BlurHalf:
		return 2
	case BlurQuarter:
		return 4
	}
	return 1
}

type Light struct {
	Name  string
	Type  LightType
	Color mgl32.Vec3

	// World space state, updated by UpdateLight during traversal
	Transform mgl32.Mat4
	Position  mgl32.Vec3
	// Normalized direction the light travels in, the -Z axis of Transform
	Direction mgl32.Vec3

	// Radians, spot lights only
	ConeAngleHalf        float32
	Range                float32
	Falloff              Falloff
	ConstantAttenuation  float32
	LinearAttenuation    float32
	QuadraticAttenuation float32

	ShadowCaster     bool
	SMAlgorithm      SMAlgorithm
	PointSMAlgorithm PointSMAlgorithm
	SMBias           SMBias
	SMFiltering      SMFiltering
	// Width and height of each shadow map layer
	SMSize           [2]int
	SMNearPlane      float32
	SMCullFrontFaces bool

	VSMCutOff         float32
	VSMMinVariance    float32
	VSMBlurTaps       int
	VSMBlurPasses     int
	VSMBlurResolution BlurResolution

	// Shadow map state of the current frame, written in place by the shadow map renderer
	SMView       mgl32.Mat4
	SMProjection mgl32.Mat4
	SMVP         mgl32.Mat4
	SMFarPlane   float32
	SMColorView  *libral.TextureView
	SMDepthView  *libral.TextureView
}

func NewLight(name string, lightType LightType) *Light {
	return &Light{
		Name:              name,
		Type:              lightType,
		Color:             mgl32.Vec3{1, 1, 1},
		Transform:         mgl32.Ident4(),
		Direction:         mgl32.Vec3{0, 0, -1},
		ConeAngleHalf:     30 * libutil.Deg2Rad,
		Range:             10,
		Falloff:           FalloffOff,
		SMAlgorithm:       SMPlain,
		PointSMAlgorithm:  PointSMCubical,
		SMBias:            SMBiasAdaptive,
		SMFiltering:       SMFilteringPCF,
		SMSize:            [2]int{1024, 1024},
		SMNearPlane:       0.1,
		VSMCutOff:         0.1,
		VSMMinVariance:    1e-5,
		VSMBlurTaps:       5,
		VSMBlurPasses:     1,
		VSMBlurResolution: BlurFull,
		SMView:            mgl32.Ident4(),
		SMProjection:      mgl32.Ident4(),
		SMVP:              mgl32.Ident4(),
	}
}

// UpdateLight is the standard light visitor for Traverse.
func UpdateLight(light *Light, world mgl32.Mat4) {
	light.Transform = world
	light.Position = world.Col(3).Vec3()
	light.Direction = world.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3().Normalize()
}

// UsesRangeAsFarPlane reports whether the light's range bounds its shadow map depth.
func (light *Light) UsesRangeAsFarPlane() bool {
	return light.Falloff == FalloffLinear && light.Range > 0
}

// CastsShadows reports whether the light renders shadow maps, ambient lights never do.
func (light *Light) CastsShadows() bool {
	return light.ShadowCaster && light.Type != LightAmbient
}
