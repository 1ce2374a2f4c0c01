package libral

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Device creates and executes GPU objects. All calls must happen on the thread owning the context.
type Device interface {
	CreateTexture(info TextureCreateInfo) (*Texture, error)
	DeleteTexture(tex *Texture)
	CreateTextureView(info TextureViewCreateInfo) (*TextureView, error)
	// DeleteTextureView is called by TextureView.Release once the last reference is gone.
	DeleteTextureView(view *TextureView)
	CreateSampler(info SamplerCreateInfo) (*Sampler, error)
	DeleteSampler(sampler *Sampler)
	CreateProgram(info ProgramCreateInfo) (*Program, error)
	DeleteProgram(program *Program)
	CreateCommandBuffer(name string) (*CommandBuffer, error)
	DeleteCommandBuffer(cb *CommandBuffer)
	Submit(cb *CommandBuffer) error
	Release()
}

type TextureType int

const (
	Texture2D TextureType = iota
	Texture2DArray
	TextureCube
)

func (t TextureType) String() string {
	switch t {
	case Texture2D:
		return "2d"
	case Texture2DArray:
		return "2d array"
	case TextureCube:
		return "cube"
	}
	return fmt.Sprintf("texture type %d", int(t))
}

type Format int

const (
	FormatDepth32F Format = iota
	FormatRG32F
	FormatRGBA8
	FormatRGBA16F
)

func (f Format) IsDepth() bool {
	return f == FormatDepth32F
}

func (f Format) String() string {
	switch f {
	case FormatDepth32F:
		return "depth32f"
	case FormatRG32F:
		return "rg32f"
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA16F:
		return "rgba16f"
	}
	return fmt.Sprintf("format %d", int(f))
}

type TextureCreateInfo struct {
	Type   TextureType
	Format Format
	Width  int
	Height int
	// Array layers; cube maps always have 6
	Layers int
	Mips   int
}

type TextureViewCreateInfo struct {
	Texture  *Texture
	Type     TextureType
	Format   Format
	MinLayer int
	Layers   int
	MinMip   int
	Mips     int
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
	FilterLinearMipmapLinear
)

type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapClampToBorder
	WrapRepeat
)

type SamplerCreateInfo struct {
	MinFilter Filter
	MagFilter Filter
	Wrap      WrapMode
	// Enables depth comparison, used by shadow samplers
	Compare     bool
	BorderColor mgl32.Vec4
}

type Sampler struct {
	Info   SamplerCreateInfo
	id     uint32
	device Device
}

func NewSampler(device Device, id uint32, info SamplerCreateInfo) *Sampler {
	return &Sampler{Info: info, id: id, device: device}
}

func (s *Sampler) Id() uint32 {
	return s.id
}

func (s *Sampler) Delete() {
	if s.device == nil {
		return
	}
	s.device.DeleteSampler(s)
	s.device = nil
}

type ProgramCreateInfo struct {
	Name           string
	VertexSource   string
	FragmentSource string
}

type Program struct {
	Info   ProgramCreateInfo
	id     uint32
	device Device
}

func NewProgram(device Device, id uint32, info ProgramCreateInfo) *Program {
	return &Program{Info: info, id: id, device: device}
}

func (p *Program) Id() uint32 {
	return p.id
}

func (p *Program) Name() string {
	return p.Info.Name
}

func (p *Program) Delete() {
	if p.device == nil {
		return
	}
	p.device.DeleteProgram(p)
	p.device = nil
}

// Geometry is drawable mesh data owned by the backend.
type Geometry interface {
	ElementCount() int
}
