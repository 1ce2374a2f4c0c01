package materials

import (
	"fmt"
	"log"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/shadowcode"
)

type SpecialMaterial int

const (
	SpecialDepthClip SpecialMaterial = iota
	SpecialDepthClipDualParaboloid
	SpecialDepthClipAndSquared
	SpecialDepthClipAndSquaredDualParaboloid
	SpecialNormals
	SpecialTexCoords
	numSpecialMaterials
)

func (k SpecialMaterial) String() string {
	switch k {
	case SpecialDepthClip:
		return "depth clip"
	case SpecialDepthClipDualParaboloid:
		return "depth clip dual paraboloid"
	case SpecialDepthClipAndSquared:
		return "depth clip and squared"
	case SpecialDepthClipAndSquaredDualParaboloid:
		return "depth clip and squared dual paraboloid"
	case SpecialNormals:
		return "normals"
	case SpecialTexCoords:
		return "texcoords"
	}
	return fmt.Sprintf("special material %d", int(k))
}

// Shader bodies of the depth clip materials.
var specialBodies = map[SpecialMaterial][2]shadowcode.BodyType{
	SpecialDepthClip: {shadowcode.BodyDepthClipVertex, shadowcode.BodyDepthClipFragment},
	SpecialDepthClipDualParaboloid: {
		shadowcode.BodyDepthClipDualParaboloidVertex, shadowcode.BodyDepthClipDualParaboloidFragment,
	},
	SpecialDepthClipAndSquared: {shadowcode.BodyDepthClipAndSquaredVertex, shadowcode.BodyDepthClipAndSquaredFragment},
	SpecialDepthClipAndSquaredDualParaboloid: {
		shadowcode.BodyDepthClipAndSquaredDualParaboloidVertex, shadowcode.BodyDepthClipAndSquaredDualParaboloidFragment,
	},
}

type specialMaterials [numSpecialMaterials]*libscn.Material

func (s *specialMaterials) release() {
	for _, material := range s {
		if material != nil && material.Program != nil {
			material.Program.Delete()
		}
	}
}

// AddContext creates the special materials of ctx. It runs automatically on window-created.
// Adding a context twice is a no-op.
func (m *Materials) AddContext(ctx *libctx.Context) error {
	if _, ok := m.special[ctx]; ok {
		return nil
	}
	special := &specialMaterials{}
	for kind := SpecialMaterial(0); kind < numSpecialMaterials; kind++ {
		name := fmt.Sprintf("%s (%v)", kind, ctx)
		switch kind {
		case SpecialNormals, SpecialTexCoords:
			material := libscn.NewMaterial(name, ctx, libscn.ShadingInputFragmentAttribute)
			if kind == SpecialNormals {
				material.SetInputAttribute(libscn.InputAttributeNormal)
			} else {
				material.SetInputAttribute(libscn.InputAttributeTexCoord)
			}
			special[kind] = material
		default:
			bodies := specialBodies[kind]
			program, err := ctx.Device.CreateProgram(libral.ProgramCreateInfo{
				Name:           name,
				VertexSource:   shadowcode.SpecialMaterialShaderBody(bodies[0]),
				FragmentSource: shadowcode.SpecialMaterialShaderBody(bodies[1]),
			})
			if err != nil {
				special.release()
				return fmt.Errorf("could not create special material %v for context %v: %w", kind, ctx, err)
			}
			special[kind] = libscn.NewProgramMaterial(name, ctx, program)
		}
	}
	m.special[ctx] = special
	return nil
}

// GetSpecialMaterial returns a special material of ctx.
// Contexts whose materials were not created on window-created, or failed to, get them now.
func (m *Materials) GetSpecialMaterial(ctx *libctx.Context, kind SpecialMaterial) (*libscn.Material, error) {
	if kind < 0 || kind >= numSpecialMaterials {
		log.Panicf("unrecognized special material: %v", kind)
	}
	if ctx.Destroyed() {
		log.Panicf("special material %v of destroyed context %v", kind, ctx)
	}
	if _, ok := m.special[ctx]; !ok {
		if err := m.AddContext(ctx); err != nil {
			return nil, err
		}
	}
	return m.special[ctx][kind], nil
}
