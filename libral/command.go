package libral

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
)

type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

type GraphicsState struct {
	DepthTest   bool
	DepthFunc   CompareFunc
	DepthWrites bool
	ColorWrites bool
	Cull        CullMode
	// Enables gl_ClipDistance[0]
	ClipDistance0 bool
	// A static viewport, x, y, width, height. Ignored when width is 0.
	Viewport [4]int
}

// RenderTarget selects a layer of a view. Layer is a cube face for cube views.
type RenderTarget struct {
	View  *TextureView
	Layer int
}

type Command interface {
	command()
}

type SetGraphicsStateCommand struct {
	State GraphicsState
}

type SetRenderTargetsCommand struct {
	Color RenderTarget
	Depth RenderTarget
}

type ClearCommand struct {
	ClearColor bool
	Color      mgl32.Vec4
	ClearDepth bool
	Depth      float32
}

type SetViewportCommand struct {
	X, Y, Width, Height int
}

type SetProgramCommand struct {
	Program *Program
}

type SetUniformCommand struct {
	Name  string
	Value any
}

type BindTextureCommand struct {
	Unit    int
	View    *TextureView
	Sampler *Sampler
	// Sampler uniform that receives the unit, may be empty
	Uniform string
}

type DrawGeometryCommand struct {
	Geometry Geometry
}

type DrawFullscreenQuadCommand struct{}

type GenerateMipmapsCommand struct {
	View *TextureView
}

func (SetGraphicsStateCommand) command()   {}
func (SetRenderTargetsCommand) command()   {}
func (ClearCommand) command()              {}
func (SetViewportCommand) command()        {}
func (SetProgramCommand) command()         {}
func (SetUniformCommand) command()         {}
func (BindTextureCommand) command()        {}
func (DrawGeometryCommand) command()       {}
func (DrawFullscreenQuadCommand) command() {}
func (GenerateMipmapsCommand) command()    {}

// CommandBuffer records commands for later submission.
// Views referenced by recorded commands are retained until the buffer is deleted.
type CommandBuffer struct {
	Name     string
	id       uint32
	device   Device
	commands []Command
	retained []*TextureView
	ended    bool
	deleted  bool
}

func NewCommandBuffer(device Device, id uint32, name string) *CommandBuffer {
	return &CommandBuffer{Name: name, id: id, device: device}
}

func (cb *CommandBuffer) Id() uint32 {
	return cb.id
}

func (cb *CommandBuffer) Commands() []Command {
	return cb.commands
}

func (cb *CommandBuffer) Ended() bool {
	return cb.ended
}

func (cb *CommandBuffer) Deleted() bool {
	return cb.deleted
}

func (cb *CommandBuffer) Record(cmd Command) {
	if cb.ended {
		log.Panicf("command buffer %q: record after end", cb.Name)
	}
	switch c := cmd.(type) {
	case SetRenderTargetsCommand:
		cb.retain(c.Color.View)
		cb.retain(c.Depth.View)
	case BindTextureCommand:
		if c.View == nil {
			log.Panicf("command buffer %q: bind of nil texture view to unit %d", cb.Name, c.Unit)
		}
		cb.retain(c.View)
	case GenerateMipmapsCommand:
		cb.retain(c.View)
	case SetProgramCommand:
		if c.Program == nil {
			log.Panicf("command buffer %q: nil program", cb.Name)
		}
	}
	cb.commands = append(cb.commands, cmd)
}

func (cb *CommandBuffer) retain(view *TextureView) {
	if view == nil {
		return
	}
	cb.retained = append(cb.retained, view.Retain())
}

func (cb *CommandBuffer) SetGraphicsState(state GraphicsState) {
	cb.Record(SetGraphicsStateCommand{State: state})
}

func (cb *CommandBuffer) SetRenderTargets(color, depth RenderTarget) {
	cb.Record(SetRenderTargetsCommand{Color: color, Depth: depth})
}

func (cb *CommandBuffer) SetViewport(x, y, width, height int) {
	cb.Record(SetViewportCommand{X: x, Y: y, Width: width, Height: height})
}

func (cb *CommandBuffer) SetProgram(program *Program) {
	cb.Record(SetProgramCommand{Program: program})
}

func (cb *CommandBuffer) SetUniform(name string, value any) {
	cb.Record(SetUniformCommand{Name: name, Value: value})
}

func (cb *CommandBuffer) BindTexture(unit int, view *TextureView, sampler *Sampler, uniform string) {
	cb.Record(BindTextureCommand{Unit: unit, View: view, Sampler: sampler, Uniform: uniform})
}

func (cb *CommandBuffer) DrawGeometry(geometry Geometry) {
	cb.Record(DrawGeometryCommand{Geometry: geometry})
}

func (cb *CommandBuffer) DrawFullscreenQuad() {
	cb.Record(DrawFullscreenQuadCommand{})
}

func (cb *CommandBuffer) GenerateMipmaps(view *TextureView) {
	cb.Record(GenerateMipmapsCommand{View: view})
}

func (cb *CommandBuffer) End() {
	if cb.ended {
		log.Panicf("command buffer %q ended twice", cb.Name)
	}
	cb.ended = true
}

func (cb *CommandBuffer) Delete() {
	if cb.deleted {
		return
	}
	for _, view := range cb.retained {
		view.Release()
	}
	cb.retained = nil
	cb.commands = nil
	cb.device.DeleteCommandBuffer(cb)
	cb.deleted = true
}

func (cb *CommandBuffer) Clear(clear ClearCommand) {
	cb.Record(clear)
}
