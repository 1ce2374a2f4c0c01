package libral

import (
	"log"
)

type Texture struct {
	Info    TextureCreateInfo
	id      uint32
	device  Device
	deleted bool
}

// NewTexture wraps a backend texture object, it is meant to be called by Device implementations.
func NewTexture(device Device, id uint32, info TextureCreateInfo) *Texture {
	return &Texture{Info: info, id: id, device: device}
}

func (tex *Texture) Id() uint32 {
	return tex.id
}

func (tex *Texture) Deleted() bool {
	return tex.deleted
}

func (tex *Texture) Delete() {
	if tex.deleted {
		return
	}
	tex.device.DeleteTexture(tex)
	tex.deleted = true
}

// CreateView creates a view over the whole texture.
func (tex *Texture) CreateView() (*TextureView, error) {
	return tex.device.CreateTextureView(TextureViewCreateInfo{
		Texture: tex,
		Type:    tex.Info.Type,
		Format:  tex.Info.Format,
		Layers:  tex.Info.Layers,
		Mips:    tex.Info.Mips,
	})
}

// CreateLayerView creates a single layer 2D view over all mips.
func (tex *Texture) CreateLayerView(layer int) (*TextureView, error) {
	if layer < 0 || layer >= tex.Info.Layers {
		log.Panicf("layer %d out of range for texture with %d layers", layer, tex.Info.Layers)
	}
	return tex.device.CreateTextureView(TextureViewCreateInfo{
		Texture:  tex,
		Type:     Texture2D,
		Format:   tex.Info.Format,
		MinLayer: layer,
		Layers:   1,
		Mips:     tex.Info.Mips,
	})
}

// TextureView is reference counted. It starts with one reference owned by its creator.
type TextureView struct {
	Info   TextureViewCreateInfo
	id     uint32
	device Device
	refs   int
}

// NewTextureView wraps a backend view object, it is meant to be called by Device implementations.
func NewTextureView(device Device, id uint32, info TextureViewCreateInfo) *TextureView {
	return &TextureView{Info: info, id: id, device: device, refs: 1}
}

func (view *TextureView) Id() uint32 {
	return view.id
}

func (view *TextureView) Texture() *Texture {
	return view.Info.Texture
}

func (view *TextureView) Refs() int {
	return view.refs
}

func (view *TextureView) Alive() bool {
	return view.refs > 0
}

func (view *TextureView) Retain() *TextureView {
	if view.refs <= 0 {
		log.Panicf("retain of released texture view %d", view.id)
	}
	view.refs++
	return view
}

func (view *TextureView) Release() {
	if view.refs <= 0 {
		log.Panicf("texture view %d released too often", view.id)
	}
	view.refs--
	if view.refs == 0 {
		view.device.DeleteTextureView(view)
	}
}

func (view *TextureView) Size(mip int) (width, height int) {
	width = view.Info.Texture.Info.Width >> (view.Info.MinMip + mip)
	height = view.Info.Texture.Info.Height >> (view.Info.MinMip + mip)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return
}
