package shadowmap

import (
	"fmt"
	"log"

	"emerald/effects"
	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"

	"github.com/go-gl/mathgl/mgl32"
)

// lightMaps are the textures of a light for the current frame.
type lightMaps struct {
	depth *libral.Texture
	color *libral.Texture
}

// ShadowMaps renders shadow map passes. Only one pass can be recorded at a time.
type ShadowMaps struct {
	device libral.Device
	pool   *libral.TexturePool
	blur   *effects.GaussianBlur
	maps   map[*libscn.Light]*lightMaps

	enabled bool
	light   *libscn.Light
	face    Face
	pass    int
	passes  int
	cb      *libral.CommandBuffer
	// Full views shared with the light
	depthView *libral.TextureView
	colorView *libral.TextureView
	// Views the pass renders into
	depthTarget libral.RenderTarget
	colorTarget libral.RenderTarget
}

func New(device libral.Device, pool *libral.TexturePool) (*ShadowMaps, error) {
	blur, err := effects.NewGaussianBlur(device, pool)
	if err != nil {
		return nil, fmt.Errorf("could not create shadow map blur: %w", err)
	}
	return &ShadowMaps{
		device: device,
		pool:   pool,
		blur:   blur,
		maps:   map[*libscn.Light]*lightMaps{},
	}, nil
}

// Release returns all shadow maps to the pool and deletes the blur resources.
func (sm *ShadowMaps) Release() {
	if sm.enabled {
		sm.abort()
	}
	for light := range sm.maps {
		sm.ReleaseLightShadowMaps(light)
	}
	sm.blur.Release()
}

func (sm *ShadowMaps) Enabled() bool {
	return sm.enabled
}

// CommandBuffer is the buffer of the pass being recorded.
func (sm *ShadowMaps) CommandBuffer() *libral.CommandBuffer {
	if !sm.enabled {
		log.Panicf("no shadow map pass is being recorded")
	}
	return sm.cb
}

func (sm *ShadowMaps) acquire(light *libscn.Light, face Face) error {
	textureType, _ := TextureTargetForFace(face)
	width, height := light.SMSize[0], light.SMSize[1]
	if textureType == libral.TextureCube && width != height {
		log.Panicf("light %q: cube shadow maps must be square, got %dx%d", light.Name, width, height)
	}
	maps := &lightMaps{}
	depth, err := sm.pool.Get(libral.TextureCreateInfo{
		Type:   textureType,
		Format: libral.FormatDepth32F,
		Width:  width,
		Height: height,
		Layers: layerCount(textureType),
		Mips:   1,
	})
	if err != nil {
		return err
	}
	maps.depth = depth
	sm.maps[light] = maps

	if light.SMAlgorithm == libscn.SMVariance {
		color, err := sm.pool.Get(libral.TextureCreateInfo{
			Type:   textureType,
			Format: libral.FormatRG32F,
			Width:  width,
			Height: height,
			Layers: layerCount(textureType),
			Mips:   libutil.MipCount(width, height),
		})
		if err != nil {
			return err
		}
		maps.color = color
		if light.SMColorView, err = color.CreateView(); err != nil {
			return err
		}
	}
	if light.SMDepthView, err = depth.CreateView(); err != nil {
		return err
	}
	return nil
}

// target creates the view a face renders into. Paraboloid faces get a view of their own layer,
// all other faces render into a layer of the full view.
func target(full *libral.TextureView, face Face) (libral.RenderTarget, error) {
	_, layer := TextureTargetForFace(face)
	if face.IsParaboloid() {
		view, err := full.Texture().CreateLayerView(layer)
		if err != nil {
			return libral.RenderTarget{}, err
		}
		return libral.RenderTarget{View: view}, nil
	}
	return libral.RenderTarget{View: full.Retain(), Layer: layer}, nil
}

// Start begins recording the pass of light that renders face.
// The textures of the light are acquired with its first face and kept until ReleaseLightShadowMaps.
func (sm *ShadowMaps) Start(light *libscn.Light, face Face) error {
	if sm.enabled {
		log.Panicf("shadow map pass for light %q started while the pass for %q is still recording", light.Name, sm.light.Name)
	}
	if !light.CastsShadows() {
		log.Panicf("light %q does not cast shadows", light.Name)
	}
	pass := passOf(light, face)
	if pass == 0 {
		if _, ok := sm.maps[light]; ok {
			sm.ReleaseLightShadowMaps(light)
		}
		if err := sm.acquire(light, face); err != nil {
			sm.ReleaseLightShadowMaps(light)
			return fmt.Errorf("could not create shadow maps for light %q: %w", light.Name, err)
		}
	} else if _, ok := sm.maps[light]; !ok {
		log.Panicf("light %q: %v started before the first face", light.Name, face)
	}

	sm.light, sm.face, sm.pass, sm.passes = light, face, pass, GetNumberOfSMPasses(light)
	sm.depthView = light.SMDepthView
	sm.colorView = light.SMColorView
	if err := sm.begin(); err != nil {
		sm.cleanup()
		sm.ReleaseLightShadowMaps(light)
		return fmt.Errorf("could not start %v shadow map pass for light %q: %w", face, light.Name, err)
	}
	sm.enabled = true
	return nil
}

func (sm *ShadowMaps) begin() error {
	var err error
	if sm.depthTarget, err = target(sm.depthView, sm.face); err != nil {
		return err
	}
	if sm.colorView != nil {
		if sm.colorTarget, err = target(sm.colorView, sm.face); err != nil {
			return err
		}
	}
	if sm.cb, err = sm.device.CreateCommandBuffer(fmt.Sprintf("shadow map %s %v", sm.light.Name, sm.face)); err != nil {
		return err
	}

	width, height := sm.light.SMSize[0], sm.light.SMSize[1]
	cull := libral.CullNone
	if sm.light.SMCullFrontFaces {
		cull = libral.CullFront
		// flip_z mirrors the rear hemisphere and reverses its winding
		if sm.face == FaceParaboloidRear {
			cull = libral.CullBack
		}
	}
	sm.cb.SetGraphicsState(libral.GraphicsState{
		DepthTest:     true,
		DepthFunc:     libral.CompareLess,
		DepthWrites:   true,
		ColorWrites:   sm.colorView != nil,
		Cull:          cull,
		ClipDistance0: sm.face.IsParaboloid(),
		Viewport:      [4]int{0, 0, width, height},
	})
	sm.cb.SetRenderTargets(sm.colorTarget, sm.depthTarget)
	sm.cb.Clear(libral.ClearCommand{
		ClearColor: sm.colorView != nil,
		Color:      mgl32.Vec4{1, 1, 1, 1},
		ClearDepth: true,
		Depth:      1,
	})
	return nil
}

// Stop ends the pass and returns its present task.
// The last face of a variance shadow map also blurs the moments and regenerates their mips.
func (sm *ShadowMaps) Stop() (*libral.PresentTask, error) {
	if !sm.enabled {
		log.Panicf("shadow map pass stopped without being started")
	}
	light, face := sm.light, sm.face
	last := sm.pass == sm.passes-1

	sm.cb.End()
	outputs := []*libral.TextureView{sm.depthView}
	if sm.colorView != nil {
		outputs = []*libral.TextureView{sm.colorView, sm.depthView}
	}
	task := libral.NewGPUTask(sm.cb.Name, sm.cb, nil, outputs)
	sm.cb = nil

	if last && sm.colorView != nil {
		var err error
		task, err = sm.postProcess(task)
		if err != nil {
			sm.cleanup()
			sm.ReleaseLightShadowMaps(light)
			return nil, fmt.Errorf("could not finish %v shadow map pass for light %q: %w", face, light.Name, err)
		}
	}
	sm.cleanup()
	return task, nil
}

// postProcess groups the raster task with the blur and mip generation of the moments.
// On failure the raster task is released.
func (sm *ShadowMaps) postProcess(raster *libral.PresentTask) (*libral.PresentTask, error) {
	light := sm.light
	taps := clampBlurTaps(light.VSMBlurTaps)
	blur, err := sm.blur.CreateTask(sm.colorView, taps, light.VSMBlurPasses, light.VSMBlurResolution)
	if err != nil {
		raster.Release()
		return nil, err
	}
	tasks := []*libral.PresentTask{raster, blur}
	connections := []libral.TaskConnection{{SrcTask: 0, SrcOutput: 0, DstTask: 1, DstInput: 0}}

	if sm.colorView.Texture().Info.Mips > 1 {
		cb, err := sm.device.CreateCommandBuffer(fmt.Sprintf("shadow map %s mips", light.Name))
		if err != nil {
			raster.Release()
			blur.Release()
			return nil, err
		}
		cb.GenerateMipmaps(sm.colorView)
		cb.End()
		views := []*libral.TextureView{sm.colorView}
		tasks = append(tasks, libral.NewGPUTask(cb.Name, cb, views, views))
		connections = append(connections, libral.TaskConnection{SrcTask: 1, SrcOutput: 0, DstTask: 2, DstInput: 0})
	}

	return libral.NewGroupTask(fmt.Sprintf("shadow map %s", light.Name), tasks, connections, nil, []libral.TaskOutputMapping{
		{GroupOutput: 0, Task: len(tasks) - 1, TaskOutput: 0},
		{GroupOutput: 1, Task: 0, TaskOutput: 1},
	}), nil
}

// cleanup drops the per pass state. The light keeps its views.
func (sm *ShadowMaps) cleanup() {
	if sm.cb != nil {
		sm.cb.End()
		sm.cb.Delete()
		sm.cb = nil
	}
	for _, t := range []*libral.RenderTarget{&sm.depthTarget, &sm.colorTarget} {
		if t.View != nil {
			t.View.Release()
		}
		*t = libral.RenderTarget{}
	}
	sm.depthView, sm.colorView = nil, nil
	sm.light = nil
	sm.enabled = false
}

// abort discards the pass being recorded together with the light's shadow maps.
func (sm *ShadowMaps) abort() {
	light := sm.light
	sm.cleanup()
	sm.ReleaseLightShadowMaps(light)
}

// ReleaseLightShadowMaps releases the views published on light and returns its textures to the pool.
// Present tasks that still reference the views keep them alive.
func (sm *ShadowMaps) ReleaseLightShadowMaps(light *libscn.Light) {
	if light.SMDepthView != nil {
		light.SMDepthView.Release()
		light.SMDepthView = nil
	}
	if light.SMColorView != nil {
		light.SMColorView.Release()
		light.SMColorView = nil
	}
	maps, ok := sm.maps[light]
	if !ok {
		return
	}
	if maps.depth != nil {
		sm.pool.Put(maps.depth)
	}
	if maps.color != nil {
		sm.pool.Put(maps.color)
	}
	delete(sm.maps, light)
}

func clampBlurTaps(taps int) int {
	clamped := libutil.ClampI(taps, effects.MinBlurTaps, effects.MaxBlurTaps)
	if clamped != taps {
		log.Printf("Warning: %d VSM blur taps are out of range, using %d", taps, clamped)
	}
	return clamped
}
