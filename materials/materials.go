package materials

import (
	"fmt"
	"log"

	"emerald/libctx"
	"emerald/libscn"
	"emerald/uber"

	"golang.org/x/exp/slices"
)

// lightSignature is the part of a light that changes the generated uber.
type lightSignature struct {
	Type             libscn.LightType
	ShadowCaster     bool
	SMAlgorithm      libscn.SMAlgorithm
	SMBias           libscn.SMBias
	Falloff          libscn.Falloff
	PointSMAlgorithm libscn.PointSMAlgorithm
}

func signatureOf(light *libscn.Light) lightSignature {
	return lightSignature{
		Type:             light.Type,
		ShadowCaster:     light.ShadowCaster,
		SMAlgorithm:      light.SMAlgorithm,
		SMBias:           light.SMBias,
		Falloff:          light.Falloff,
		PointSMAlgorithm: light.PointSMAlgorithm,
	}
}

type item struct {
	ctx   *libctx.Context
	owner *libscn.Scene
	uber  *uber.Uber
}

type bucket struct {
	material *libscn.Material
	lights   []lightSignature
	shadows  bool
	items    []item
}

func (b *bucket) matches(material *libscn.Material, scene *libscn.Scene, shadows bool) bool {
	if !b.material.IsMatch(material) || b.shadows != shadows {
		return false
	}
	if !material.Shading.UsesLighting() {
		return true
	}
	lights := scene.Lights()
	if len(lights) != len(b.lights) {
		return false
	}
	for i, light := range lights {
		if signatureOf(light) != b.lights[i] {
			return false
		}
	}
	return true
}

// Materials caches ubers per material configuration and context.
type Materials struct {
	callbacks     *libctx.CallbackManager
	subscriptions []libctx.Subscription
	scenes        map[*libscn.Scene]libctx.Subscription
	buckets       []*bucket
	special       map[*libctx.Context]*specialMaterials
}

// New subscribes to context creation and destruction on callbacks.
func New(callbacks *libctx.CallbackManager) *Materials {
	m := &Materials{
		callbacks: callbacks,
		scenes:    map[*libscn.Scene]libctx.Subscription{},
		special:   map[*libctx.Context]*specialMaterials{},
	}
	m.subscriptions = append(m.subscriptions,
		callbacks.Subscribe(libctx.CallbackWindowCreated, func(arg any) {
			ctx := arg.(*libctx.Context)
			if err := m.AddContext(ctx); err != nil {
				log.Printf("Warning: %v, retrying on first use", err)
			}
		}),
		callbacks.Subscribe(libctx.CallbackWindowAboutToBeDestroyed, func(arg any) {
			m.removeContext(arg.(*libctx.Context))
		}),
	)
	return m
}

// GetUber returns the uber for material in scene, baking it on first use.
// The material's context selects the variant.
func (m *Materials) GetUber(material *libscn.Material, scene *libscn.Scene, useShadowMaps bool) (*uber.Uber, error) {
	if material == nil || scene == nil {
		log.Panicf("uber lookup needs a material and a scene")
	}
	ctx := material.Context
	if ctx == nil {
		log.Panicf("material %q has no context", material.Name)
	}
	m.watchScene(scene)
	shadows := shadowsEnabled(scene, useShadowMaps)

	for _, b := range m.buckets {
		if !b.matches(material, scene, shadows) {
			continue
		}
		for _, it := range b.items {
			if it.ctx == ctx {
				return it.uber, nil
			}
		}
		suffix := " copy without SM"
		if shadows {
			suffix = " copy with SM"
		}
		clone := b.material.Clone(b.material.Name + suffix)
		clone.Context = ctx
		u, err := m.bake(clone, scene, useShadowMaps)
		if err != nil {
			return nil, err
		}
		b.items = append(b.items, item{ctx: ctx, owner: scene, uber: u})
		return u, nil
	}

	u, err := m.bake(material, scene, useShadowMaps)
	if err != nil {
		return nil, err
	}
	b := &bucket{
		material: material,
		shadows:  shadows,
		items:    []item{{ctx: ctx, owner: scene, uber: u}},
	}
	if material.Shading.UsesLighting() {
		for _, light := range scene.Lights() {
			b.lights = append(b.lights, signatureOf(light))
		}
	}
	m.buckets = append(m.buckets, b)
	return u, nil
}

func (m *Materials) bake(material *libscn.Material, scene *libscn.Scene, useShadowMaps bool) (*uber.Uber, error) {
	name := UberName(material, scene, useShadowMaps)
	var u *uber.Uber

	switch {
	case material.Type == libscn.MaterialProgram:
		if material.Program == nil {
			log.Panicf("program material %q has no program", material.Name)
		}
		u = uber.New(name, material.Context, uber.TypeProgram)
		u.SetProgramSources(material.Program.Info.VertexSource, material.Program.Info.FragmentSource)
	case material.Shading == libscn.ShadingNone:
		u = uber.New(name, material.Context, uber.TypeEmpty)
	case material.Shading == libscn.ShadingInputFragmentAttribute:
		u = uber.New(name, material.Context, uber.TypeRegular)
		u.SetInputAttribute(material.Attachments[libscn.PropertyInputAttribute].InputAttribute)
	case material.Shading.UsesLighting():
		u = uber.New(name, material.Context, uber.TypeRegular)
		for p := libscn.PropertyAmbient; p <= libscn.PropertySpecular; p++ {
			if kind := material.Attachments[p].Kind; kind != libscn.AttachmentNone {
				u.AddProperty(p, kind)
			}
		}
		shadows := shadowsEnabled(scene, useShadowMaps)
		for _, light := range scene.Lights() {
			u.AddLight(uber.LightTypeFor(material.Shading, light.Type), light, light.ShadowCaster && shadows)
		}
	default:
		log.Panicf("material %q: unrecognized shading %v", material.Name, material.Shading)
	}

	if err := u.Compile(); err != nil {
		return nil, fmt.Errorf("could not bake material %q: %w", material.Name, err)
	}
	return u, nil
}

func (m *Materials) watchScene(scene *libscn.Scene) {
	if _, ok := m.scenes[scene]; ok {
		return
	}
	m.scenes[scene] = scene.Callbacks.Subscribe(libctx.CallbackSceneAboutToBeDeleted, func(arg any) {
		m.removeScene(arg.(*libscn.Scene))
	})
}

// purge releases the ubers of every item matching fn and drops buckets left empty.
func (m *Materials) purge(fn func(it item) bool) {
	for _, b := range m.buckets {
		b.items = slices.DeleteFunc(b.items, func(it item) bool {
			if fn(it) {
				it.uber.Release()
				return true
			}
			return false
		})
	}
	m.buckets = slices.DeleteFunc(m.buckets, func(b *bucket) bool {
		return len(b.items) == 0
	})
}

func (m *Materials) removeScene(scene *libscn.Scene) {
	m.purge(func(it item) bool {
		return it.owner == scene
	})
	if sub, ok := m.scenes[scene]; ok {
		scene.Callbacks.Unsubscribe(sub)
		delete(m.scenes, scene)
	}
}

func (m *Materials) removeContext(ctx *libctx.Context) {
	m.purge(func(it item) bool {
		return it.ctx == ctx
	})
	if special, ok := m.special[ctx]; ok {
		special.release()
		delete(m.special, ctx)
	}
}

// ForEachItem calls fn for every cached uber with its context and owner scene.
func (m *Materials) ForEachItem(fn func(ctx *libctx.Context, owner *libscn.Scene, u *uber.Uber)) {
	for _, b := range m.buckets {
		for _, it := range b.items {
			fn(it.ctx, it.owner, it.uber)
		}
	}
}

// Release unsubscribes from all notifications and releases every uber and special material.
func (m *Materials) Release() {
	for _, sub := range m.subscriptions {
		m.callbacks.Unsubscribe(sub)
	}
	m.subscriptions = nil
	for scene, sub := range m.scenes {
		scene.Callbacks.Unsubscribe(sub)
	}
	m.scenes = map[*libscn.Scene]libctx.Subscription{}
	m.purge(func(item) bool {
		return true
	})
	for ctx, special := range m.special {
		special.release()
		delete(m.special, ctx)
	}
}
