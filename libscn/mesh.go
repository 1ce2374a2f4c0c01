package libscn

import (
	"emerald/libral"
	"emerald/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

type MeshLayer struct {
	Material *Material
	Geometry libral.Geometry
}

type Mesh struct {
	Name string
	// Model space bounds
	AABB   libutil.AABB
	Layers []MeshLayer
}

// MeshInstance places a mesh in the scene graph.
type MeshInstance struct {
	Name           string
	Mesh           *Mesh
	ShadowCaster   bool
	ShadowReceiver bool
}

func NewMeshInstance(name string, mesh *Mesh) *MeshInstance {
	return &MeshInstance{
		Name:           name,
		Mesh:           mesh,
		ShadowCaster:   true,
		ShadowReceiver: true,
	}
}

func (mi *MeshInstance) WorldAABB(model mgl32.Mat4) libutil.AABB {
	return mi.Mesh.AABB.Transform(model)
}
