package shadowcode

import (
	"fmt"
	"log"

	"emerald/libscn"
)

const (
	VertexBlock   = "VertexShaderProperties"
	FragmentBlock = "FragmentShaderProperties"
)

// LightConfig is the part of a light that shapes the generated shadow code.
type LightConfig struct {
	Type           libscn.LightType
	Algorithm      libscn.SMAlgorithm
	PointAlgorithm libscn.PointSMAlgorithm
	Bias           libscn.SMBias
}

func ConfigFor(light *libscn.Light) LightConfig {
	return LightConfig{
		Type:           light.Type,
		Algorithm:      light.SMAlgorithm,
		PointAlgorithm: light.PointSMAlgorithm,
		Bias:           light.SMBias,
	}
}

func (c LightConfig) validate() {
	switch c.Type {
	case libscn.LightDirectional, libscn.LightSpot:
	case libscn.LightPoint:
		if c.PointAlgorithm != libscn.PointSMCubical && c.PointAlgorithm != libscn.PointSMDualParaboloid {
			log.Panicf("unrecognized point light shadow map algorithm: %v", c.PointAlgorithm)
		}
	default:
		log.Panicf("%v lights do not cast shadows", c.Type)
	}
	if c.Algorithm != libscn.SMPlain && c.Algorithm != libscn.SMVariance {
		log.Panicf("unrecognized shadow map algorithm: %v", c.Algorithm)
	}
	switch c.Bias {
	case libscn.SMBiasNone, libscn.SMBiasConstant, libscn.SMBiasAdaptive, libscn.SMBiasAdaptiveFast:
	default:
		log.Panicf("unrecognized shadow map bias: %v", c.Bias)
	}
}

func (c LightConfig) isPoint() bool {
	return c.Type == libscn.LightPoint
}

func (c LightConfig) isCubical() bool {
	return c.isPoint() && c.PointAlgorithm == libscn.PointSMCubical
}

func (c LightConfig) isDualParaboloid() bool {
	return c.isPoint() && c.PointAlgorithm == libscn.PointSMDualParaboloid
}

func (c LightConfig) isVSM() bool {
	return c.Algorithm == libscn.SMVariance
}

// Per light uniform names, shared with the code that uploads the values.

func DepthVPName(index int) string {
	return fmt.Sprintf("light%d_depth_vp", index)
}

func ShadowCoordName(index int) string {
	return fmt.Sprintf("light%d_shadow_coord", index)
}

func ShadowMapName(index int) string {
	return fmt.Sprintf("light%d_shadow_map", index)
}

func ShadowMapColorName(index int) string {
	return fmt.Sprintf("light%d_shadow_map_color", index)
}

func VSMCutOffName(index int) string {
	return fmt.Sprintf("light%d_shadow_map_vsm_cutoff", index)
}

func VSMMinVarianceName(index int) string {
	return fmt.Sprintf("light%d_shadow_map_vsm_min_variance", index)
}

func ProjectionName(index int) string {
	return fmt.Sprintf("light%d_projection", index)
}

func ViewName(index int) string {
	return fmt.Sprintf("light%d_view", index)
}

func FarNearDiffName(index int) string {
	return fmt.Sprintf("light%d_far_near_diff", index)
}

func NearName(index int) string {
	return fmt.Sprintf("light%d_near", index)
}

func VisibilityFunctionName(index int) string {
	return fmt.Sprintf("light%d_shadow_visibility", index)
}

// SamplerName returns the sampler uniform the light's shadow map is bound to.
func SamplerName(index int, cfg LightConfig) string {
	if cfg.isVSM() {
		return ShadowMapColorName(index)
	}
	return ShadowMapName(index)
}
