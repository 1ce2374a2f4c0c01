package libral

import (
	"fmt"
	"log"
)

// TexturePool hands out textures and takes them back for reuse.
// Textures are matched by their exact create info.
type TexturePool struct {
	device Device
	idle   map[TextureCreateInfo][]*Texture
	inUse  map[*Texture]struct{}
}

func NewTexturePool(device Device) *TexturePool {
	return &TexturePool{
		device: device,
		idle:   map[TextureCreateInfo][]*Texture{},
		inUse:  map[*Texture]struct{}{},
	}
}

func (pool *TexturePool) Get(info TextureCreateInfo) (*Texture, error) {
	if idle := pool.idle[info]; len(idle) > 0 {
		tex := idle[len(idle)-1]
		pool.idle[info] = idle[:len(idle)-1]
		pool.inUse[tex] = struct{}{}
		return tex, nil
	}
	tex, err := pool.device.CreateTexture(info)
	if err != nil {
		return nil, fmt.Errorf("could not get %v %v texture (%dx%d) from pool: %w", info.Type, info.Format, info.Width, info.Height, err)
	}
	pool.inUse[tex] = struct{}{}
	return tex, nil
}

func (pool *TexturePool) Put(tex *Texture) {
	if _, ok := pool.inUse[tex]; !ok {
		log.Panicf("texture %d was not taken from this pool", tex.Id())
	}
	delete(pool.inUse, tex)
	pool.idle[tex.Info] = append(pool.idle[tex.Info], tex)
}

func (pool *TexturePool) InUse() int {
	return len(pool.inUse)
}

func (pool *TexturePool) Idle() int {
	n := 0
	for _, textures := range pool.idle {
		n += len(textures)
	}
	return n
}

// Release deletes every idle texture. Textures still in use are left alone.
func (pool *TexturePool) Release() {
	for info, textures := range pool.idle {
		for _, tex := range textures {
			tex.Delete()
		}
		delete(pool.idle, info)
	}
}
