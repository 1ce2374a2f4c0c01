package libral

import (
	"fmt"
	"log"
)

// NullDevice is a Device that keeps all objects on the CPU.
// It validates usage the way a driver would and is used for tests and offline tools.
type NullDevice struct {
	nextId    uint32
	failAfter int
	released  bool

	Textures       map[uint32]*Texture
	Views          map[uint32]*TextureView
	Samplers       map[uint32]*Sampler
	Programs       map[uint32]*Program
	CommandBuffers map[uint32]*CommandBuffer

	Submitted []*CommandBuffer
	Draws     int
}

func NewNullDevice() *NullDevice {
	return &NullDevice{
		failAfter:      -1,
		Textures:       map[uint32]*Texture{},
		Views:          map[uint32]*TextureView{},
		Samplers:       map[uint32]*Sampler{},
		Programs:       map[uint32]*Program{},
		CommandBuffers: map[uint32]*CommandBuffer{},
	}
}

// FailAfter makes the allocation after n successful ones fail. A negative n disables failures.
func (dev *NullDevice) FailAfter(n int) {
	dev.failAfter = n
}

func (dev *NullDevice) allocate(what string) (uint32, error) {
	if dev.released {
		log.Panicf("null device: %s allocation on released device", what)
	}
	if dev.failAfter == 0 {
		return 0, fmt.Errorf("null device: %s: %w", what, ErrResourceCreation)
	}
	if dev.failAfter > 0 {
		dev.failAfter--
	}
	dev.nextId++
	return dev.nextId, nil
}

func (dev *NullDevice) CreateTexture(info TextureCreateInfo) (*Texture, error) {
	if info.Width <= 0 || info.Height <= 0 {
		log.Panicf("null device: invalid texture size %dx%d", info.Width, info.Height)
	}
	if info.Type == TextureCube && info.Layers != 6 {
		log.Panicf("null device: cube texture with %d layers", info.Layers)
	}
	if info.Layers < 1 || info.Mips < 1 {
		log.Panicf("null device: texture needs at least one layer and mip")
	}
	id, err := dev.allocate("texture")
	if err != nil {
		return nil, err
	}
	tex := NewTexture(dev, id, info)
	dev.Textures[id] = tex
	return tex, nil
}

func (dev *NullDevice) DeleteTexture(tex *Texture) {
	if _, ok := dev.Textures[tex.Id()]; !ok {
		log.Panicf("null device: unknown texture %d", tex.Id())
	}
	delete(dev.Textures, tex.Id())
}

func (dev *NullDevice) CreateTextureView(info TextureViewCreateInfo) (*TextureView, error) {
	if info.Texture == nil || info.Texture.Deleted() {
		log.Panicf("null device: view of missing texture")
	}
	if info.MinLayer+info.Layers > info.Texture.Info.Layers {
		log.Panicf("null device: view layers [%d,%d) exceed texture layers %d", info.MinLayer, info.MinLayer+info.Layers, info.Texture.Info.Layers)
	}
	if info.MinMip+info.Mips > info.Texture.Info.Mips {
		log.Panicf("null device: view mips [%d,%d) exceed texture mips %d", info.MinMip, info.MinMip+info.Mips, info.Texture.Info.Mips)
	}
	id, err := dev.allocate("texture view")
	if err != nil {
		return nil, err
	}
	view := NewTextureView(dev, id, info)
	dev.Views[id] = view
	return view, nil
}

func (dev *NullDevice) DeleteTextureView(view *TextureView) {
	if _, ok := dev.Views[view.Id()]; !ok {
		log.Panicf("null device: unknown texture view %d", view.Id())
	}
	delete(dev.Views, view.Id())
}

func (dev *NullDevice) CreateSampler(info SamplerCreateInfo) (*Sampler, error) {
	id, err := dev.allocate("sampler")
	if err != nil {
		return nil, err
	}
	s := NewSampler(dev, id, info)
	dev.Samplers[id] = s
	return s, nil
}

func (dev *NullDevice) DeleteSampler(sampler *Sampler) {
	delete(dev.Samplers, sampler.Id())
}

func (dev *NullDevice) CreateProgram(info ProgramCreateInfo) (*Program, error) {
	if info.VertexSource == "" || info.FragmentSource == "" {
		return nil, fmt.Errorf("null device: program %q is missing a stage: %w", info.Name, ErrResourceCreation)
	}
	id, err := dev.allocate("program")
	if err != nil {
		return nil, err
	}
	p := NewProgram(dev, id, info)
	dev.Programs[id] = p
	return p, nil
}

func (dev *NullDevice) DeleteProgram(program *Program) {
	delete(dev.Programs, program.Id())
}

func (dev *NullDevice) CreateCommandBuffer(name string) (*CommandBuffer, error) {
	id, err := dev.allocate("command buffer")
	if err != nil {
		return nil, err
	}
	cb := NewCommandBuffer(dev, id, name)
	dev.CommandBuffers[id] = cb
	return cb, nil
}

func (dev *NullDevice) DeleteCommandBuffer(cb *CommandBuffer) {
	delete(dev.CommandBuffers, cb.Id())
}

// Submit validates the recorded commands against the live objects.
func (dev *NullDevice) Submit(cb *CommandBuffer) error {
	if !cb.Ended() {
		return fmt.Errorf("null device: command buffer %q submitted while recording", cb.Name)
	}
	if cb.Deleted() {
		return fmt.Errorf("null device: command buffer %q was deleted", cb.Name)
	}
	var program *Program
	for i, cmd := range cb.Commands() {
		switch c := cmd.(type) {
		case SetRenderTargetsCommand:
			if c.Color.View == nil && c.Depth.View == nil {
				return fmt.Errorf("null device: %q command %d: no render targets", cb.Name, i)
			}
			for _, t := range []RenderTarget{c.Color, c.Depth} {
				if t.View != nil && !dev.viewAlive(t.View) {
					return fmt.Errorf("null device: %q command %d: render target view %d is gone", cb.Name, i, t.View.Id())
				}
			}
		case BindTextureCommand:
			if !dev.viewAlive(c.View) {
				return fmt.Errorf("null device: %q command %d: texture view %d is gone", cb.Name, i, c.View.Id())
			}
		case GenerateMipmapsCommand:
			if !dev.viewAlive(c.View) {
				return fmt.Errorf("null device: %q command %d: texture view %d is gone", cb.Name, i, c.View.Id())
			}
		case SetProgramCommand:
			if _, ok := dev.Programs[c.Program.Id()]; !ok {
				return fmt.Errorf("null device: %q command %d: program %q is gone", cb.Name, i, c.Program.Name())
			}
			program = c.Program
		case SetUniformCommand:
			if program == nil {
				return fmt.Errorf("null device: %q command %d: uniform %q set without program", cb.Name, i, c.Name)
			}
		case DrawGeometryCommand, DrawFullscreenQuadCommand:
			if program == nil {
				return fmt.Errorf("null device: %q command %d: draw without program", cb.Name, i)
			}
			dev.Draws++
		}
	}
	dev.Submitted = append(dev.Submitted, cb)
	return nil
}

func (dev *NullDevice) viewAlive(view *TextureView) bool {
	_, ok := dev.Views[view.Id()]
	return ok && view.Alive()
}

func (dev *NullDevice) Release() {
	dev.released = true
}
