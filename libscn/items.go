package libscn

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshItem is a mesh instance collected for drawing.
type MeshItem struct {
	Mesh  *MeshInstance
	Model mgl32.Mat4
}

// MeshItemPool recycles mesh items between passes. Not safe for concurrent use.
type MeshItemPool struct {
	free []*MeshItem
	// Number of items handed out and not yet returned
	live int
}

func NewMeshItemPool() *MeshItemPool {
	return &MeshItemPool{}
}

func (pool *MeshItemPool) Get(mesh *MeshInstance, model mgl32.Mat4) *MeshItem {
	pool.live++
	if n := len(pool.free); n > 0 {
		item := pool.free[n-1]
		pool.free = pool.free[:n-1]
		item.Mesh, item.Model = mesh, model
		return item
	}
	return &MeshItem{Mesh: mesh, Model: model}
}

func (pool *MeshItemPool) Put(item *MeshItem) {
	item.Mesh = nil
	pool.live--
	pool.free = append(pool.free, item)
}

func (pool *MeshItemPool) Live() int {
	return pool.live
}
