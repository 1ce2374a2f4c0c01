package renderer

import (
	"fmt"
	"log"
	"time"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"
	"emerald/materials"
	"emerald/shadowmap"
	"emerald/uber"

	"github.com/go-gl/mathgl/mgl32"
)

type Options struct {
	// Global switch for shadow mapping, the scene has its own
	ShadowMaps bool
	// Size of the color and depth output
	Width, Height int
	ClearColor    mgl32.Vec4
}

func DefaultOptions(width, height int) Options {
	return Options{
		ShadowMaps: true,
		Width:      width,
		Height:     height,
		ClearColor: mgl32.Vec4{0.1, 0.1, 0.1, 1},
	}
}

// Renderer draws a scene into its own color and depth textures.
type Renderer struct {
	ctx        *libctx.Context
	scene      *libscn.Scene
	materials  *materials.Materials
	pool       *libral.TexturePool
	options    Options
	shadowMaps *shadowmap.ShadowMaps
	items      *libscn.MeshItemPool
	visible    libutil.AABB
	samplers   uber.ShadowSamplers
	// Variants of foreign materials for this renderer's context
	local map[*libscn.Material]*libscn.Material

	colorTex, depthTex   *libral.Texture
	colorView, depthView *libral.TextureView
}

func New(ctx *libctx.Context, scene *libscn.Scene, mats *materials.Materials, pool *libral.TexturePool, options Options) (*Renderer, error) {
	r := &Renderer{
		ctx:       ctx,
		scene:     scene,
		materials: mats,
		pool:      pool,
		options:   options,
		items:     libscn.NewMeshItemPool(),
		visible:   libutil.EmptyAABB(),
		local:     map[*libscn.Material]*libscn.Material{},
	}
	if err := r.init(); err != nil {
		r.Release()
		return nil, fmt.Errorf("could not create renderer for scene %q: %w", scene.Name, err)
	}
	return r, nil
}

func (r *Renderer) init() error {
	device := r.ctx.Device
	var err error
	if r.shadowMaps, err = shadowmap.New(device, r.pool); err != nil {
		return err
	}
	if r.samplers.Compare, err = device.CreateSampler(libral.SamplerCreateInfo{
		MinFilter:   libral.FilterLinear,
		MagFilter:   libral.FilterLinear,
		Wrap:        libral.WrapClampToBorder,
		Compare:     true,
		BorderColor: mgl32.Vec4{1, 1, 1, 1},
	}); err != nil {
		return err
	}
	if r.samplers.Moments, err = device.CreateSampler(libral.SamplerCreateInfo{
		MinFilter: libral.FilterLinearMipmapLinear,
		MagFilter: libral.FilterLinear,
		Wrap:      libral.WrapClampToEdge,
	}); err != nil {
		return err
	}
	return r.resize(r.options.Width, r.options.Height)
}

func (r *Renderer) releaseTargets() {
	for _, view := range []*libral.TextureView{r.colorView, r.depthView} {
		if view != nil {
			view.Release()
		}
	}
	for _, tex := range []*libral.Texture{r.colorTex, r.depthTex} {
		if tex != nil {
			r.pool.Put(tex)
		}
	}
	r.colorView, r.depthView, r.colorTex, r.depthTex = nil, nil, nil, nil
}

func (r *Renderer) resize(width, height int) error {
	r.releaseTargets()
	r.options.Width, r.options.Height = width, height
	var err error
	info := libral.TextureCreateInfo{Type: libral.Texture2D, Format: libral.FormatRGBA8, Width: width, Height: height, Layers: 1, Mips: 1}
	if r.colorTex, err = r.pool.Get(info); err != nil {
		return err
	}
	if r.colorView, err = r.colorTex.CreateView(); err != nil {
		return err
	}
	info.Format = libral.FormatDepth32F
	if r.depthTex, err = r.pool.Get(info); err != nil {
		return err
	}
	if r.depthView, err = r.depthTex.CreateView(); err != nil {
		return err
	}
	return nil
}

// Resize replaces the output textures when the size changed.
func (r *Renderer) Resize(width, height int) error {
	if width == r.options.Width && height == r.options.Height {
		return nil
	}
	return r.resize(width, height)
}

func (r *Renderer) Release() {
	r.releaseTargets()
	if r.shadowMaps != nil {
		r.shadowMaps.Release()
	}
	if r.samplers.Compare != nil {
		r.samplers.Compare.Delete()
	}
	if r.samplers.Moments != nil {
		r.samplers.Moments.Delete()
	}
}

func (r *Renderer) Context() *libctx.Context {
	return r.ctx
}

func (r *Renderer) Materials() *materials.Materials {
	return r.materials
}

func (r *Renderer) MeshItems() *libscn.MeshItemPool {
	return r.items
}

func (r *Renderer) ResetVisibleAABB() {
	r.visible = libutil.EmptyAABB()
}

func (r *Renderer) VisibleAABB() *libutil.AABB {
	return &r.visible
}

func (r *Renderer) CullAgainstFrustum(mesh *libscn.MeshInstance, model mgl32.Mat4, behavior libscn.CullBehavior, data libscn.CullData) bool {
	return libscn.Cull(mesh.WorldAABB(model), behavior, data)
}

func (r *Renderer) ShadowMaps() *shadowmap.ShadowMaps {
	return r.shadowMaps
}

func (r *Renderer) Output() *libral.TextureView {
	return r.colorView
}

// localMaterial returns material as seen from this renderer's context.
func (r *Renderer) localMaterial(material *libscn.Material) *libscn.Material {
	if material.Context == r.ctx {
		return material
	}
	if local, ok := r.local[material]; ok {
		return local
	}
	local := material.Clone(material.Name)
	local.Context = r.ctx
	r.local[material] = local
	return local
}

// Render records the frame of camera at time t.
// The returned task outputs the color texture at index 0 and the depth texture at index 1.
func (r *Renderer) Render(camera *libscn.Camera, t time.Duration) (*libral.PresentTask, error) {
	if r.scene.Deleted() {
		log.Panicf("render of deleted scene %q", r.scene.Name)
	}
	useShadowMaps := r.options.ShadowMaps && r.scene.ShadowMapping && r.scene.HasShadowCasters()

	var smTask *libral.PresentTask
	if useShadowMaps {
		var err error
		if smTask, err = r.shadowMaps.RenderShadowMaps(r, r.scene, camera, t); err != nil {
			return nil, fmt.Errorf("could not render shadow maps: %w", err)
		}
	}

	forward, err := r.forwardPass(camera, t, useShadowMaps)
	for _, light := range r.scene.Lights() {
		r.shadowMaps.ReleaseLightShadowMaps(light)
	}
	if err != nil {
		if smTask != nil {
			smTask.Release()
		}
		return nil, err
	}
	if smTask == nil {
		return forward, nil
	}

	var connections []libral.TaskConnection
	input := 0
	for i, view := range smTask.Outputs() {
		if view == nil {
			continue
		}
		connections = append(connections, libral.TaskConnection{SrcTask: 0, SrcOutput: i, DstTask: 1, DstInput: input})
		input++
	}
	return libral.NewGroupTask("frame", []*libral.PresentTask{smTask, forward}, connections, nil, []libral.TaskOutputMapping{
		{GroupOutput: 0, Task: 1, TaskOutput: 0},
		{GroupOutput: 1, Task: 1, TaskOutput: 1},
	}), nil
}

func (r *Renderer) forwardPass(camera *libscn.Camera, t time.Duration, useShadowMaps bool) (*libral.PresentTask, error) {
	libscn.Traverse(r.scene.Root, nil, libscn.UpdateCamera, libscn.UpdateLight, nil, t)
	vp := camera.ProjectionMatrix().Mul4(camera.ViewMatrix())
	cull := libscn.CullData{Frustum: libscn.FrustumFromMatrix(vp)}
	var items []*libscn.MeshItem
	libscn.Traverse(r.scene.Root, nil, nil, nil, func(mesh *libscn.MeshInstance, model mgl32.Mat4) {
		if r.CullAgainstFrustum(mesh, model, libscn.CullUseCameraClipPlanes, cull) {
			items = append(items, r.items.Get(mesh, model))
		}
	}, t)
	defer func() {
		for _, item := range items {
			r.items.Put(item)
		}
	}()

	cb, err := r.ctx.Device.CreateCommandBuffer("forward")
	if err != nil {
		return nil, fmt.Errorf("could not create forward command buffer: %w", err)
	}
	cb.SetGraphicsState(libral.GraphicsState{
		DepthTest:   true,
		DepthFunc:   libral.CompareLess,
		DepthWrites: true,
		ColorWrites: true,
		Cull:        libral.CullBack,
		Viewport:    [4]int{0, 0, r.options.Width, r.options.Height},
	})
	cb.SetRenderTargets(libral.RenderTarget{View: r.colorView}, libral.RenderTarget{View: r.depthView})
	cb.Clear(libral.ClearCommand{ClearColor: true, Color: r.options.ClearColor, ClearDepth: true, Depth: 1})

	lights := r.scene.Lights()
	for _, item := range items {
		for _, layer := range item.Mesh.Mesh.Layers {
			if layer.Material == nil {
				continue
			}
			material := r.localMaterial(layer.Material)
			u, err := r.materials.GetUber(material, r.scene, useShadowMaps && item.Mesh.ShadowReceiver)
			if err != nil {
				cb.End()
				cb.Delete()
				return nil, fmt.Errorf("could not draw mesh %q: %w", item.Mesh.Name, err)
			}
			if u.Type == uber.TypeEmpty {
				continue
			}
			cb.SetProgram(u.Program)
			cb.SetUniform(uber.UniformModel, item.Model)
			cb.SetUniform(uber.UniformVP, vp)
			if u.Type == uber.TypeRegular && material.Shading.UsesLighting() {
				unit := u.BindMaterial(cb, material, t, 0)
				u.BindLights(cb, lights, camera.Position(), r.samplers, unit)
			}
			cb.DrawGeometry(layer.Geometry)
		}
	}
	cb.End()

	var inputs []*libral.TextureView
	if useShadowMaps {
		for _, light := range lights {
			if !light.CastsShadows() {
				continue
			}
			for _, view := range []*libral.TextureView{light.SMColorView, light.SMDepthView} {
				if view != nil {
					inputs = append(inputs, view)
				}
			}
		}
	}
	return libral.NewGPUTask("forward", cb, inputs, []*libral.TextureView{r.colorView, r.depthView}), nil
}
