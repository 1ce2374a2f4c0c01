package effects

import (
	"fmt"
	"log"

	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinBlurTaps = 2
	MaxBlurTaps = 16
)

const fullscreenVertexShader = `#version 430 core

out vec2 uv;

void main()
{
    vec2 position = vec2(gl_VertexID & 1, gl_VertexID >> 1);
    uv            = position;
    gl_Position   = vec4(position * 2.0 - 1.0, 0.0, 1.0);
}
`

const blurFragmentShader = `#version 430 core

in vec2 uv;

uniform sampler2DArray source;
uniform int            layer;
uniform int            taps;
uniform float          weights[16];
uniform vec2           direction;

out vec4 result;

void main()
{
    float center = float(taps - 1) * 0.5;
    vec4  sum    = vec4(0.0);
    for (int i = 0; i < taps; i++) {
        vec2 offset = direction * (float(i) - center);
        sum += weights[i] * texture(source, vec3(uv + offset, float(layer)));
    }
    result = sum;
}
`

// BlurWeights returns the normalized binomial kernel with the given number of taps.
func BlurWeights(taps int) []float32 {
	n := taps - 1
	weights := make([]float32, taps)
	coefficient := float32(1)
	norm := math32.Pow(0.5, float32(n))
	for k := 0; k < taps; k++ {
		weights[k] = coefficient * norm
		coefficient = coefficient * float32(n-k) / float32(k+1)
	}
	return weights
}

// GaussianBlur creates separable blur tasks for multi layer color textures.
type GaussianBlur struct {
	device  libral.Device
	pool    *libral.TexturePool
	program *libral.Program
	sampler *libral.Sampler
}

func NewGaussianBlur(device libral.Device, pool *libral.TexturePool) (*GaussianBlur, error) {
	program, err := device.CreateProgram(libral.ProgramCreateInfo{
		Name:           "gaussian blur",
		VertexSource:   fullscreenVertexShader,
		FragmentSource: blurFragmentShader,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create blur program: %w", err)
	}
	sampler, err := device.CreateSampler(libral.SamplerCreateInfo{
		MinFilter: libral.FilterLinear,
		MagFilter: libral.FilterLinear,
		Wrap:      libral.WrapClampToEdge,
	})
	if err != nil {
		program.Delete()
		return nil, fmt.Errorf("could not create blur sampler: %w", err)
	}
	return &GaussianBlur{
		device:  device,
		pool:    pool,
		program: program,
		sampler: sampler,
	}, nil
}

func (blur *GaussianBlur) Release() {
	blur.program.Delete()
	blur.sampler.Delete()
}

// CreateTask blurs the first mip of every layer of view in place.
// taps must already be clamped to [MinBlurTaps, MaxBlurTaps].
// The task reads view as input 0 and exposes it again as output 0.
func (blur *GaussianBlur) CreateTask(view *libral.TextureView, taps, passes int, resolution libscn.BlurResolution) (*libral.PresentTask, error) {
	if taps < MinBlurTaps || taps > MaxBlurTaps {
		log.Panicf("blur taps %d out of range [%d, %d]", taps, MinBlurTaps, MaxBlurTaps)
	}
	if passes < 1 {
		log.Panicf("blur needs at least one pass, got %d", passes)
	}

	tex := view.Texture()
	layers := tex.Info.Layers
	width, height := view.Size(0)
	scratchWidth := libutil.MaxI(width/resolution.Divisor(), 1)
	scratchHeight := libutil.MaxI(height/resolution.Divisor(), 1)

	source, err := blur.device.CreateTextureView(libral.TextureViewCreateInfo{
		Texture: tex,
		Type:    libral.Texture2DArray,
		Format:  tex.Info.Format,
		Layers:  layers,
		MinMip:  view.Info.MinMip,
		Mips:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create blur source view: %w", err)
	}
	defer source.Release()

	scratchTex, err := blur.pool.Get(libral.TextureCreateInfo{
		Type:   libral.Texture2DArray,
		Format: tex.Info.Format,
		Width:  scratchWidth,
		Height: scratchHeight,
		Layers: layers,
		Mips:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("could not get blur scratch texture: %w", err)
	}
	// The scratch contents never outlive the task, so the texture can be shared right away.
	defer blur.pool.Put(scratchTex)
	scratch, err := scratchTex.CreateView()
	if err != nil {
		return nil, fmt.Errorf("could not create blur scratch view: %w", err)
	}
	defer scratch.Release()

	cb, err := blur.device.CreateCommandBuffer("gaussian blur")
	if err != nil {
		return nil, fmt.Errorf("could not create blur command buffer: %w", err)
	}
	cb.SetGraphicsState(libral.GraphicsState{ColorWrites: true})
	cb.SetProgram(blur.program)
	cb.SetUniform("taps", int32(taps))
	cb.SetUniform("weights", BlurWeights(taps))

	for pass := 0; pass < passes; pass++ {
		for layer := 0; layer < layers; layer++ {
			cb.SetUniform("layer", int32(layer))

			cb.SetRenderTargets(libral.RenderTarget{View: scratch, Layer: layer}, libral.RenderTarget{})
			cb.SetViewport(0, 0, scratchWidth, scratchHeight)
			cb.BindTexture(0, source, blur.sampler, "source")
			cb.SetUniform("direction", mgl32.Vec2{1 / float32(width), 0})
			cb.DrawFullscreenQuad()

			cb.SetRenderTargets(libral.RenderTarget{View: source, Layer: layer}, libral.RenderTarget{})
			cb.SetViewport(0, 0, width, height)
			cb.BindTexture(0, scratch, blur.sampler, "source")
			cb.SetUniform("direction", mgl32.Vec2{0, 1 / float32(scratchHeight)})
			cb.DrawFullscreenQuad()
		}
	}
	cb.End()

	return libral.NewGPUTask("gaussian blur", cb, []*libral.TextureView{view}, []*libral.TextureView{view}), nil
}
