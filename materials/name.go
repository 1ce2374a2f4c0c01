package materials

import (
	"fmt"
	"strings"

	"emerald/libscn"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// UberName describes everything that shapes the uber of material in scene.
// Configurations that can share an uber only differ in the material line.
func UberName(material *libscn.Material, scene *libscn.Scene, useShadowMaps bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "material: %s\n", material.Name)
	fmt.Fprintf(&sb, "type: %v\n", material.Type)
	fmt.Fprintf(&sb, "shading: %v\n", material.Shading)
	if material.Type == libscn.MaterialProgram && material.Program != nil {
		fmt.Fprintf(&sb, "program: %s#%d\n", material.Program.Name(), material.Program.Id())
	}

	for p := libscn.Property(0); p < libscn.NumProperties; p++ {
		a := material.Attachments[p]
		switch a.Kind {
		case libscn.AttachmentNone:
		case libscn.AttachmentInputFragmentAttribute:
			fmt.Fprintf(&sb, "property %v: %v %v\n", p, a.Kind, a.InputAttribute)
		default:
			fmt.Fprintf(&sb, "property %v: %v\n", p, a.Kind)
		}
	}

	if material.Shading.UsesLighting() {
		for i, light := range scene.Lights() {
			fmt.Fprintf(&sb, "light %d: %v\n", i, light.Type)
			fmt.Fprintf(&sb, "  shadow caster: %s\n", yesNo(light.ShadowCaster))
			if light.ShadowCaster {
				fmt.Fprintf(&sb, "  sm algorithm: %v\n", light.SMAlgorithm)
				fmt.Fprintf(&sb, "  sm bias: %v\n", light.SMBias)
				fmt.Fprintf(&sb, "  sm filtering: %v\n", light.SMFiltering)
			}
			if light.Type == libscn.LightPoint || light.Type == libscn.LightSpot {
				fmt.Fprintf(&sb, "  falloff: %v\n", light.Falloff)
			}
			if light.Type == libscn.LightPoint {
				fmt.Fprintf(&sb, "  point sm algorithm: %v\n", light.PointSMAlgorithm)
			}
		}
	}

	fmt.Fprintf(&sb, "shadow maps: %s\n", onOff(shadowsEnabled(scene, useShadowMaps)))
	return sb.String()
}

func shadowsEnabled(scene *libscn.Scene, useShadowMaps bool) bool {
	return useShadowMaps && scene.ShadowMapping
}
