package libgl

import (
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type GlCapability uint32

const (
	DepthTest     GlCapability = gl.DEPTH_TEST
	CullFace      GlCapability = gl.CULL_FACE
	ClipDistance0 GlCapability = gl.CLIP_DISTANCE0
	ScissorTest   GlCapability = gl.SCISSOR_TEST
)

type GlDepthFunc uint32

const (
	DepthFuncLess   GlDepthFunc = gl.LESS
	DepthFuncLEqual GlDepthFunc = gl.LEQUAL
	DepthFuncAlways GlDepthFunc = gl.ALWAYS
)

// GlStateManager skips GL calls that would not change the current state.
type GlStateManager struct {
	Caps                             map[GlCapability]bool
	TextureUnits, SamplerUnits       []uint32
	DrawFramebuffer, ReadFramebuffer uint32
	UniformBuffers                   []uint32
	ProgramPipeline, VertexArray     uint32
	ActiveTextureUnit                int
	ViewportRect                     [4]int
	DepthFuncFn                      GlDepthFunc
	DepthWriteMask                   bool
	ColorWriteMask                   bool
	CullFaceMask                     uint32
	ClearColorRGBA                   [4]float32
	ClearDepthValue                  float32
}

var State *GlStateManager

func NewGlStateManager() *GlStateManager {
	return &GlStateManager{
		Caps:            map[GlCapability]bool{},
		TextureUnits:    make([]uint32, 32),
		SamplerUnits:    make([]uint32, 32),
		UniformBuffers:  make([]uint32, 36),
		DepthFuncFn:     DepthFuncLess,
		DepthWriteMask:  true,
		ColorWriteMask:  true,
		CullFaceMask:    gl.BACK,
		ClearDepthValue: 1,
	}
}

var GlEnv *GlEnvironment

type GlEnvironment struct {
	Vendor, Renderer, Version  string
	UseIntelTextureBindingFix  bool
	UseIntelCubemapDsaFix      bool
	IntelTextureBindingTargets map[uint32]uint32
}

const (
	VendorIntel   = "intel"
	VendorNvidia  = "nvidia"
	VendorAmd     = "ati"
	VendorUnknown = "unknown"
)

func classifyVendor(vendor string) string {
	vendor = strings.ToLower(strings.TrimSuffix(vendor, "\x00"))
	switch {
	case strings.Contains(vendor, "intel"):
		return VendorIntel
	case strings.Contains(vendor, "nvidia"):
		return VendorNvidia
	case strings.Contains(vendor, "ati ") || strings.Contains(vendor, "amd"):
		return VendorAmd
	}
	return VendorUnknown
}

func GetGlEnv() *GlEnvironment {
	vendor := classifyVendor(gl.GoStr(gl.GetString(gl.VENDOR)))
	return &GlEnvironment{
		Vendor:                     vendor,
		Renderer:                   gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:                    gl.GoStr(gl.GetString(gl.VERSION)),
		UseIntelTextureBindingFix:  vendor == VendorIntel,
		UseIntelCubemapDsaFix:      vendor == VendorIntel,
		IntelTextureBindingTargets: map[uint32]uint32{},
	}
}

func (s *GlStateManager) Enable(cap GlCapability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *GlStateManager) Disable(cap GlCapability) {
	if !s.Caps[cap] {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

func (s *GlStateManager) SetEnabled(cap GlCapability, enabled bool) {
	if enabled {
		s.Enable(cap)
	} else {
		s.Disable(cap)
	}
}

func (s *GlStateManager) CullFront() {
	if s.CullFaceMask == gl.FRONT {
		return
	}
	gl.CullFace(gl.FRONT)
	s.CullFaceMask = gl.FRONT
}

func (s *GlStateManager) CullBack() {
	if s.CullFaceMask == gl.BACK {
		return
	}
	gl.CullFace(gl.BACK)
	s.CullFaceMask = gl.BACK
}

func (s *GlStateManager) DepthFunc(fn GlDepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *GlStateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *GlStateManager) ColorMask(flag bool) {
	if s.ColorWriteMask == flag {
		return
	}
	gl.ColorMask(flag, flag, flag, flag)
	s.ColorWriteMask = flag
}

func (s *GlStateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	if GlEnv.UseIntelTextureBindingFix {
		s.ActiveTexture(unit)
		if texture != 0 {
			gl.BindTexture(GlEnv.IntelTextureBindingTargets[texture], texture)
		}
		s.TextureUnits[unit] = texture
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *GlStateManager) ActiveTexture(unit int) {
	if s.ActiveTextureUnit == unit {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	s.ActiveTextureUnit = unit
}

func (s *GlStateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

// ForgetTexture drops a deleted texture name from the unit cache, GL may hand it out again.
func (s *GlStateManager) ForgetTexture(texture uint32) {
	for i, t := range s.TextureUnits {
		if t == texture {
			s.TextureUnits[i] = 0
		}
	}
}

func (s *GlStateManager) BindUniformBufferBase(index int, buffer uint32) {
	if s.UniformBuffers[index] == buffer {
		return
	}
	gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(index), buffer)
	s.UniformBuffers[index] = buffer
}

func (s *GlStateManager) BindFramebuffer(target, framebuffer uint32) {
	if target == gl.DRAW_FRAMEBUFFER {
		s.BindDrawFramebuffer(framebuffer)
	} else if target == gl.READ_FRAMEBUFFER {
		s.BindReadFramebuffer(framebuffer)
	} else {
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *GlStateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *GlStateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *GlStateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *GlStateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *GlStateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect[0] == x && s.ViewportRect[1] == y && s.ViewportRect[2] == w && s.ViewportRect[3] == h {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *GlStateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA[0] == r && s.ClearColorRGBA[1] == g && s.ClearColorRGBA[2] == b && s.ClearColorRGBA[3] == a {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}

func (s *GlStateManager) ClearDepth(depth float32) {
	if s.ClearDepthValue == depth {
		return
	}
	gl.ClearDepthf(depth)
	s.ClearDepthValue = depth
}
