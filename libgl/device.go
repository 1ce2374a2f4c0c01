package libgl

import (
	"fmt"
	"log"

	"emerald/libral"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type DeviceOptions struct {
	// Directory of the program binary cache, DefaultProgramCacheDir when empty
	ProgramCacheDir string
	// Installs a GL debug message callback, requires a debug context
	Debug bool
}

// Device implements libral.Device on top of the current OpenGL 4.5 context.
// It must only be used from the thread that owns the context.
type Device struct {
	cache        *ProgramCache
	pipelines    map[uint32]*pipeline
	framebuffers map[framebufferKey]*framebuffer
	// Empty vertex array for attribute-less draws
	quad     *vertexArray
	nextCbId uint32
	released bool
}

var _ libral.Device = (*Device)(nil)

// NewDevice expects a current context with loaded GL functions.
func NewDevice(options DeviceOptions) *Device {
	State = NewGlStateManager()
	GlEnv = GetGlEnv()
	if options.Debug {
		installDebugCallback()
	}
	return &Device{
		cache:        NewProgramCache(options.ProgramCacheDir, GlEnv.Vendor, GlEnv.Renderer, GlEnv.Version),
		pipelines:    map[uint32]*pipeline{},
		framebuffers: map[framebufferKey]*framebuffer{},
		quad:         newVertexArray(),
	}
}

func glTextureTarget(t libral.TextureType) uint32 {
	switch t {
	case libral.Texture2D:
		return gl.TEXTURE_2D
	case libral.Texture2DArray:
		return gl.TEXTURE_2D_ARRAY
	case libral.TextureCube:
		return gl.TEXTURE_CUBE_MAP
	}
	log.Panicf("unrecognized texture type: %v", t)
	return 0
}

func glInternalFormat(f libral.Format) uint32 {
	switch f {
	case libral.FormatDepth32F:
		return gl.DEPTH_COMPONENT32F
	case libral.FormatRG32F:
		return gl.RG32F
	case libral.FormatRGBA8:
		return gl.RGBA8
	case libral.FormatRGBA16F:
		return gl.RGBA16F
	}
	log.Panicf("unrecognized texture format: %v", f)
	return 0
}

func glFilter(f libral.Filter) int32 {
	switch f {
	case libral.FilterNearest:
		return gl.NEAREST
	case libral.FilterLinear:
		return gl.LINEAR
	case libral.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	log.Panicf("unrecognized filter: %v", f)
	return 0
}

func glWrap(w libral.WrapMode) int32 {
	switch w {
	case libral.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case libral.WrapClampToBorder:
		return gl.CLAMP_TO_BORDER
	case libral.WrapRepeat:
		return gl.REPEAT
	}
	log.Panicf("unrecognized wrap mode: %v", w)
	return 0
}

func glDepthFunc(c libral.CompareFunc) GlDepthFunc {
	switch c {
	case libral.CompareLess:
		return DepthFuncLess
	case libral.CompareLessEqual:
		return DepthFuncLEqual
	case libral.CompareAlways:
		return DepthFuncAlways
	}
	log.Panicf("unrecognized compare func: %v", c)
	return 0
}

func (dev *Device) CreateTexture(info libral.TextureCreateInfo) (*libral.Texture, error) {
	var id uint32
	target := glTextureTarget(info.Type)
	gl.CreateTextures(target, 1, &id)
	if id == 0 {
		return nil, fmt.Errorf("could not create %v texture: %w", info.Type, libral.ErrResourceCreation)
	}
	if GlEnv.UseIntelTextureBindingFix {
		GlEnv.IntelTextureBindingTargets[id] = target
	}
	format := glInternalFormat(info.Format)
	if info.Type == libral.Texture2DArray {
		gl.TextureStorage3D(id, int32(info.Mips), format, int32(info.Width), int32(info.Height), int32(info.Layers))
	} else {
		gl.TextureStorage2D(id, int32(info.Mips), format, int32(info.Width), int32(info.Height))
	}
	if err := checkErrors("texture storage"); err != nil {
		gl.DeleteTextures(1, &id)
		return nil, fmt.Errorf("could not allocate %v %v texture %dx%d: %v: %w", info.Type, info.Format, info.Width, info.Height, err, libral.ErrResourceCreation)
	}
	return libral.NewTexture(dev, id, info), nil
}

func (dev *Device) DeleteTexture(tex *libral.Texture) {
	id := tex.Id()
	delete(GlEnv.IntelTextureBindingTargets, id)
	State.ForgetTexture(id)
	gl.DeleteTextures(1, &id)
}

func (dev *Device) CreateTextureView(info libral.TextureViewCreateInfo) (*libral.TextureView, error) {
	var id uint32
	gl.GenTextures(1, &id)
	target := glTextureTarget(info.Type)
	gl.TextureView(id, target, info.Texture.Id(), glInternalFormat(info.Format), uint32(info.MinMip), uint32(info.Mips), uint32(info.MinLayer), uint32(info.Layers))
	if err := checkErrors("texture view"); err != nil {
		gl.DeleteTextures(1, &id)
		return nil, fmt.Errorf("could not create %v view of texture %d: %v: %w", info.Type, info.Texture.Id(), err, libral.ErrResourceCreation)
	}
	if GlEnv.UseIntelTextureBindingFix {
		GlEnv.IntelTextureBindingTargets[id] = target
	}
	return libral.NewTextureView(dev, id, info), nil
}

func (dev *Device) DeleteTextureView(view *libral.TextureView) {
	id := view.Id()
	for key, fb := range dev.framebuffers {
		if key.references(id) {
			fb.Delete()
			delete(dev.framebuffers, key)
		}
	}
	delete(GlEnv.IntelTextureBindingTargets, id)
	State.ForgetTexture(id)
	gl.DeleteTextures(1, &id)
}

func (dev *Device) CreateSampler(info libral.SamplerCreateInfo) (*libral.Sampler, error) {
	var id uint32
	gl.CreateSamplers(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("could not create sampler: %w", libral.ErrResourceCreation)
	}
	gl.SamplerParameteri(id, gl.TEXTURE_MIN_FILTER, glFilter(info.MinFilter))
	gl.SamplerParameteri(id, gl.TEXTURE_MAG_FILTER, glFilter(info.MagFilter))
	for _, axis := range []uint32{gl.TEXTURE_WRAP_S, gl.TEXTURE_WRAP_T, gl.TEXTURE_WRAP_R} {
		gl.SamplerParameteri(id, axis, glWrap(info.Wrap))
	}
	if info.Wrap == libral.WrapClampToBorder {
		gl.SamplerParameterfv(id, gl.TEXTURE_BORDER_COLOR, &info.BorderColor[0])
	}
	if info.Compare {
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	}
	return libral.NewSampler(dev, id, info), nil
}

func (dev *Device) DeleteSampler(sampler *libral.Sampler) {
	id := sampler.Id()
	for unit, bound := range State.SamplerUnits {
		if bound == id {
			State.SamplerUnits[unit] = 0
		}
	}
	gl.DeleteSamplers(1, &id)
}

func (dev *Device) CreateProgram(info libral.ProgramCreateInfo) (*libral.Program, error) {
	p, err := newPipeline(info, dev.cache)
	if err != nil {
		return nil, err
	}
	dev.pipelines[p.glId] = p
	return libral.NewProgram(dev, p.glId, info), nil
}

func (dev *Device) DeleteProgram(program *libral.Program) {
	p, ok := dev.pipelines[program.Id()]
	if !ok {
		return
	}
	if State.ProgramPipeline == p.glId {
		State.BindProgramPipeline(0)
	}
	delete(dev.pipelines, program.Id())
	p.delete()
}

// Command buffers are recorded on the CPU and replayed by Submit.
func (dev *Device) CreateCommandBuffer(name string) (*libral.CommandBuffer, error) {
	dev.nextCbId++
	return libral.NewCommandBuffer(dev, dev.nextCbId, name), nil
}

func (dev *Device) DeleteCommandBuffer(cb *libral.CommandBuffer) {}

func (dev *Device) framebuffer(color, depth libral.RenderTarget) (*framebuffer, error) {
	key := keyOf(color, depth)
	if fb, ok := dev.framebuffers[key]; ok {
		return fb, nil
	}
	fb, err := newFramebuffer(color, depth)
	if err != nil {
		return nil, err
	}
	fb.SetDebugLabel(fmt.Sprintf("targets %d:%d %d:%d", key.color, key.colorLayer, key.depth, key.depthLayer))
	dev.framebuffers[key] = fb
	return fb, nil
}

func applyGraphicsState(state libral.GraphicsState) {
	State.SetEnabled(DepthTest, state.DepthTest)
	State.DepthFunc(glDepthFunc(state.DepthFunc))
	State.DepthMask(state.DepthWrites)
	State.ColorMask(state.ColorWrites)
	switch state.Cull {
	case libral.CullNone:
		State.Disable(CullFace)
	case libral.CullBack:
		State.Enable(CullFace)
		State.CullBack()
	case libral.CullFront:
		State.Enable(CullFace)
		State.CullFront()
	}
	State.SetEnabled(ClipDistance0, state.ClipDistance0)
	if state.Viewport[2] > 0 {
		State.Viewport(state.Viewport[0], state.Viewport[1], state.Viewport[2], state.Viewport[3])
	}
}

// Submit replays the recorded commands inside a debug group named after the buffer.
func (dev *Device) Submit(cb *libral.CommandBuffer) error {
	if !cb.Ended() {
		return fmt.Errorf("command buffer %q submitted while recording", cb.Name)
	}
	if cb.Deleted() {
		return fmt.Errorf("command buffer %q was deleted", cb.Name)
	}
	pushDebugGroup(cb.Name)
	defer popDebugGroup()

	var program *pipeline
	for i, cmd := range cb.Commands() {
		switch c := cmd.(type) {
		case libral.SetGraphicsStateCommand:
			applyGraphicsState(c.State)
		case libral.SetRenderTargetsCommand:
			fb, err := dev.framebuffer(c.Color, c.Depth)
			if err != nil {
				return fmt.Errorf("%q command %d: %w", cb.Name, i, err)
			}
			State.BindDrawFramebuffer(fb.Id())
		case libral.ClearCommand:
			dev.clear(c)
		case libral.SetViewportCommand:
			State.Viewport(c.X, c.Y, c.Width, c.Height)
		case libral.SetProgramCommand:
			p, ok := dev.pipelines[c.Program.Id()]
			if !ok {
				return fmt.Errorf("%q command %d: program %q is gone", cb.Name, i, c.Program.Name())
			}
			program = p
			State.BindProgramPipeline(p.glId)
		case libral.SetUniformCommand:
			if program == nil {
				return fmt.Errorf("%q command %d: uniform %q set without program", cb.Name, i, c.Name)
			}
			program.SetUniform(c.Name, c.Value)
		case libral.BindTextureCommand:
			State.BindTextureUnit(c.Unit, c.View.Id())
			var sampler uint32
			if c.Sampler != nil {
				sampler = c.Sampler.Id()
			}
			State.BindSampler(c.Unit, sampler)
			if c.Uniform != "" && program != nil {
				program.SetUniform(c.Uniform, int32(c.Unit))
			}
		case libral.DrawGeometryCommand:
			geometry, ok := c.Geometry.(*MeshGeometry)
			if !ok {
				return fmt.Errorf("%q command %d: %T is not GL geometry", cb.Name, i, c.Geometry)
			}
			if program == nil {
				return fmt.Errorf("%q command %d: draw without program", cb.Name, i)
			}
			program.flush()
			geometry.draw()
		case libral.DrawFullscreenQuadCommand:
			if program == nil {
				return fmt.Errorf("%q command %d: draw without program", cb.Name, i)
			}
			program.flush()
			dev.quad.Bind()
			gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
		case libral.GenerateMipmapsCommand:
			gl.GenerateTextureMipmap(c.View.Id())
		default:
			log.Panicf("%q command %d: unrecognized command %T", cb.Name, i, cmd)
		}
	}
	return checkErrors(fmt.Sprintf("command buffer %q", cb.Name))
}

// clear ignores the write masks of the current graphics state, like a clear of a fresh attachment would.
func (dev *Device) clear(c libral.ClearCommand) {
	var mask uint32
	colorMask, depthMask := State.ColorWriteMask, State.DepthWriteMask
	if c.ClearColor {
		State.ClearColor(c.Color[0], c.Color[1], c.Color[2], c.Color[3])
		State.ColorMask(true)
		mask |= gl.COLOR_BUFFER_BIT
	}
	if c.ClearDepth {
		State.ClearDepth(c.Depth)
		State.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
	State.ColorMask(colorMask)
	State.DepthMask(depthMask)
}

// BlitToScreen copies a color view to the default framebuffer, scaling it to the window size.
func (dev *Device) BlitToScreen(view *libral.TextureView, width, height int) error {
	fb, err := dev.framebuffer(libral.RenderTarget{View: view}, libral.RenderTarget{})
	if err != nil {
		return err
	}
	srcWidth, srcHeight := view.Size(0)
	gl.BlitNamedFramebuffer(fb.Id(), 0,
		0, 0, int32(srcWidth), int32(srcHeight),
		0, 0, int32(width), int32(height),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
	return checkErrors("blit to screen")
}

func (dev *Device) Release() {
	if dev.released {
		return
	}
	for key, fb := range dev.framebuffers {
		fb.Delete()
		delete(dev.framebuffers, key)
	}
	for id, p := range dev.pipelines {
		p.delete()
		delete(dev.pipelines, id)
	}
	dev.quad.Delete()
	dev.released = true
}
