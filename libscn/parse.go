package libscn

import (
	"fmt"
	"strings"
)

// ParseLight creates a light from a description like "point:vsm:dp".
// The first field is the light type. The remaining fields are options:
//
//	plain, vsm          cast shadows with the given algorithm
//	cube, dp            point shadow map layout
//	nobias, constant    shadow bias, adaptive when omitted
//	fast                adaptive fast bias
//	linear, square      distance falloff
//	front               cull front faces when rendering the shadow map
func ParseLight(name, desc string) (*Light, error) {
	fields := strings.Split(strings.TrimSpace(desc), ":")
	var lightType LightType
	switch strings.ToLower(fields[0]) {
	case "ambient":
		lightType = LightAmbient
	case "directional", "sun":
		lightType = LightDirectional
	case "point":
		lightType = LightPoint
	case "spot":
		lightType = LightSpot
	default:
		return nil, fmt.Errorf("unknown light type %q", fields[0])
	}
	light := NewLight(name, lightType)

	for _, option := range fields[1:] {
		switch strings.ToLower(option) {
		case "plain":
			light.ShadowCaster = true
			light.SMAlgorithm = SMPlain
		case "vsm":
			light.ShadowCaster = true
			light.SMAlgorithm = SMVariance
		case "cube":
			light.PointSMAlgorithm = PointSMCubical
		case "dp":
			light.PointSMAlgorithm = PointSMDualParaboloid
		case "nobias":
			light.SMBias = SMBiasNone
		case "constant":
			light.SMBias = SMBiasConstant
		case "fast":
			light.SMBias = SMBiasAdaptiveFast
		case "linear":
			light.Falloff = FalloffLinear
		case "square":
			light.Falloff = FalloffInverseSquare
		case "front":
			light.SMCullFrontFaces = true
		default:
			return nil, fmt.Errorf("light %q: unknown option %q", desc, option)
		}
	}
	if lightType == LightAmbient && light.ShadowCaster {
		return nil, fmt.Errorf("light %q: ambient lights cannot cast shadows", desc)
	}
	return light, nil
}

// ParseLights parses a comma separated list of light descriptions.
// Lights are named after their type and position in the list.
func ParseLights(list string) ([]*Light, error) {
	var lights []*Light
	if strings.TrimSpace(list) == "" {
		return lights, nil
	}
	for i, desc := range strings.Split(list, ",") {
		light, err := ParseLight("", desc)
		if err != nil {
			return nil, err
		}
		light.Name = fmt.Sprintf("%v %d", light.Type, i)
		lights = append(lights, light)
	}
	return lights, nil
}
