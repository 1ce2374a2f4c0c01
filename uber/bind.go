package uber

import (
	"log"
	"time"

	"emerald/libral"
	"emerald/libscn"
	"emerald/shadowcode"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowSamplers are the samplers shadow maps are read through.
type ShadowSamplers struct {
	// Depth compare sampler for plain shadow maps
	Compare *libral.Sampler
	// Filtering sampler for variance shadow map moments
	Moments *libral.Sampler
}

// BindMaterial records the property values of material for time t.
// Texture units are allocated from firstUnit, the next free unit is returned.
func (u *Uber) BindMaterial(cb *libral.CommandBuffer, material *libscn.Material, t time.Duration, firstUnit int) int {
	unit := firstUnit
	for _, item := range u.Properties {
		a := material.Attachments[item.Property]
		if a.Kind != item.Source {
			log.Panicf("uber %q: material %q feeds %v from %v instead of %v", u.Name, material.Name, item.Property, a.Kind, item.Source)
		}
		name := PropertyName(item.Property)
		switch a.Kind {
		case libscn.AttachmentFloat:
			cb.SetUniform(name, a.Float)
		case libscn.AttachmentVec4:
			cb.SetUniform(name, a.Vec4)
		case libscn.AttachmentCurveFloat:
			cb.SetUniform(name, a.CurveFloat(t))
		case libscn.AttachmentCurveVec3:
			cb.SetUniform(name, a.CurveVec3(t).Vec4(1))
		case libscn.AttachmentTexture:
			cb.BindTexture(unit, a.Texture, a.Sampler, PropertyMapName(item.Property))
			unit++
		}
	}
	return unit
}

// BindLights records the light uniforms and binds the shadow maps of shadowed light items.
// lights must be the scene lights the uber was baked for.
func (u *Uber) BindLights(cb *libral.CommandBuffer, lights []*libscn.Light, camera mgl32.Vec3, samplers ShadowSamplers, firstUnit int) int {
	if len(lights) != len(u.Lights) {
		log.Panicf("uber %q was baked for %d lights but got %d", u.Name, len(u.Lights), len(lights))
	}
	cb.SetUniform(UniformWorldCamera, camera.Vec4(1))
	unit := firstUnit
	for i, item := range u.Lights {
		light := lights[i]
		cb.SetUniform(LightDiffuseName(i), light.Color.Vec4(1))
		if item.Type == LightAmbient {
			continue
		}
		cb.SetUniform(LightWorldPosName(i), light.Position.Vec4(1))
		cb.SetUniform(LightDirectionName(i), light.Direction.Vec4(0))
		if !item.Type.isDirectional() {
			cb.SetUniform(LightAttenuationName(i), mgl32.Vec4{light.ConstantAttenuation, light.LinearAttenuation, light.QuadraticAttenuation, light.Range})
		}
		if item.Type.isSpot() {
			cb.SetUniform(LightConeCosName(i), math32.Cos(light.ConeAngleHalf))
		}
		if item.Shadows {
			unit = bindShadowMap(cb, i, item.Shadow, light, samplers, unit)
		}
	}
	return unit
}

func bindShadowMap(cb *libral.CommandBuffer, index int, cfg shadowcode.LightConfig, light *libscn.Light, samplers ShadowSamplers, unit int) int {
	vsm := cfg.Algorithm == libscn.SMVariance
	view, sampler := light.SMDepthView, samplers.Compare
	if vsm {
		view, sampler = light.SMColorView, samplers.Moments
	}
	if view == nil {
		log.Panicf("light %q has no shadow map to bind", light.Name)
	}

	switch {
	case cfg.Type != libscn.LightPoint:
		cb.SetUniform(shadowcode.DepthVPName(index), light.SMVP)
	case cfg.PointAlgorithm == libscn.PointSMCubical:
		cb.SetUniform(shadowcode.ProjectionName(index), light.SMProjection)
	default:
		cb.SetUniform(shadowcode.ViewName(index), light.SMView)
		cb.SetUniform(shadowcode.NearName(index), light.SMNearPlane)
		cb.SetUniform(shadowcode.FarNearDiffName(index), light.SMFarPlane-light.SMNearPlane)
	}
	if vsm {
		cb.SetUniform(shadowcode.VSMCutOffName(index), light.VSMCutOff)
		cb.SetUniform(shadowcode.VSMMinVarianceName(index), light.VSMMinVariance)
	}
	cb.BindTexture(unit, view, sampler, shadowcode.SamplerName(index, cfg))
	return unit + 1
}
