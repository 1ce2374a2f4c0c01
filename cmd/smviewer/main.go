package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"emerald/libctx"
	"emerald/libgl"
	"emerald/libral"
	"emerald/libscn"
	"emerald/libutil"
	"emerald/materials"
	"emerald/renderer"

	"github.com/chewxy/math32"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

var Arguments = struct {
	Light     string
	Width     int
	Height    int
	NoShadows bool
	Debug     bool
	CacheDir  string
}{
	Light:  "spot:plain",
	Width:  1600,
	Height: 900,
	Debug:  true,
}

func main() {
	flag.StringVar(&Arguments.Light, "light", Arguments.Light, "light description, type[:option...]")
	flag.IntVar(&Arguments.Width, "width", Arguments.Width, "window width")
	flag.IntVar(&Arguments.Height, "height", Arguments.Height, "window height")
	flag.BoolVar(&Arguments.NoShadows, "no-shadows", Arguments.NoShadows, "disable shadow maps")
	flag.BoolVar(&Arguments.Debug, "debug", Arguments.Debug, "create a debug context")
	flag.StringVar(&Arguments.CacheDir, "shader-cache", libgl.DefaultProgramCacheDir, "program binary cache directory")
	flag.Parse()

	runtime.LockOSThread()
	err := glfw.Init()
	check(err)
	defer glfw.Terminate()

	callbacks := libctx.NewCallbackManager()
	mats := materials.New(callbacks)
	defer mats.Release()

	window, err := libgl.NewWindowContext(libgl.WindowOptions{
		Title:   "Shadow Map Viewer",
		Width:   Arguments.Width,
		Height:  Arguments.Height,
		Visible: true,
		Device: libgl.DeviceOptions{
			ProgramCacheDir: Arguments.CacheDir,
			Debug:           Arguments.Debug,
		},
	}, callbacks)
	check(err)
	defer window.Destroy()
	glfw.SwapInterval(1)

	light, err := libscn.ParseLight("light", Arguments.Light)
	check(err)
	scene, geometries := createScene(window.Context, light)
	defer func() {
		scene.Delete()
		for _, g := range geometries {
			g.Delete()
		}
	}()

	pool := libral.NewTexturePool(window.Device)
	defer pool.Release()

	width, height := window.Size()
	options := renderer.DefaultOptions(width, height)
	options.ShadowMaps = !Arguments.NoShadows
	r, err := renderer.New(window.Context, scene, mats, pool, options)
	check(err)
	defer r.Release()

	camera := libscn.NewCamera("camera", 60*libutil.Deg2Rad, float32(width)/float32(height), 0.1, 100)
	start := time.Now()

	for !window.Glfw.ShouldClose() {
		glfw.PollEvents()
		if window.Glfw.GetKey(glfw.KeyEscape) == glfw.Press {
			window.Glfw.SetShouldClose(true)
		}

		if w, h := window.Size(); w > 0 && h > 0 && (w != width || h != height) {
			width, height = w, h
			camera.AspectRatio = float32(width) / float32(height)
			check(r.Resize(width, height))
		}

		t := time.Since(start)
		angle := float32(t.Seconds()) * 0.25
		eye := mgl32.Vec3{12 * math32.Sin(angle), 7, 12 * math32.Cos(angle)}
		camera.Transform = mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv()

		task, err := r.Render(camera, t)
		check(err)
		err = libral.Present(window.Device, task)
		task.Release()
		check(err)
		check(window.Device.BlitToScreen(r.Output(), width, height))

		window.Glfw.SwapBuffers()
	}
}

// createScene builds a ground plane with a ring of crates lit by light.
func createScene(ctx *libctx.Context, light *libscn.Light) (*libscn.Scene, []*libgl.MeshGeometry) {
	scene := libscn.NewScene("viewer")
	var geometries []*libgl.MeshGeometry

	ground := libscn.NewMaterial("ground", ctx, libscn.ShadingLambert)
	ground.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{0.6, 0.6, 0.6, 1})
	painted := libscn.NewMaterial("painted", ctx, libscn.ShadingPhong)
	painted.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{0.8, 0.3, 0.2, 1})
	painted.SetVec4(libscn.PropertySpecular, mgl32.Vec4{0.5, 0.5, 0.5, 1})
	painted.SetFloat(libscn.PropertyShininess, 32)

	box := func(name string, min, max mgl32.Vec3, material *libscn.Material) *libscn.MeshInstance {
		vertices, indices := libgl.BoxVertices(min, max)
		geometry := libgl.NewMeshGeometry(name, vertices, indices)
		geometries = append(geometries, geometry)
		instance := libscn.NewMeshInstance(name, &libscn.Mesh{
			Name:   name,
			AABB:   libutil.AABB{Min: min, Max: max},
			Layers: []libscn.MeshLayer{{Material: material, Geometry: geometry}},
		})
		instance.ShadowCaster = true
		instance.ShadowReceiver = true
		return instance
	}

	scene.Root.AttachMesh(box("ground", mgl32.Vec3{-15, -0.2, -15}, mgl32.Vec3{15, 0, 15}, ground))
	for i := 0; i < 6; i++ {
		node := libscn.NewNode("crate")
		angle := float32(i) * 2 * math32.Pi / 6
		node.Local = mgl32.Translate3D(5*math32.Cos(angle), 0, 5*math32.Sin(angle)).Mul4(mgl32.HomogRotate3DY(angle))
		node.AttachMesh(box("crate", mgl32.Vec3{-0.75, 0, -0.75}, mgl32.Vec3{0.75, 1.5 + float32(i%3), 0.75}, painted))
		scene.Root.Add(node)
	}
	spinner := libscn.NewNode("spinner")
	spinner.Animation = func(t time.Duration) mgl32.Mat4 {
		return mgl32.Translate3D(0, 1.5, 0).Mul4(mgl32.HomogRotate3DY(float32(t.Seconds())))
	}
	spinner.AttachMesh(box("spinner", mgl32.Vec3{-1, -0.5, -0.25}, mgl32.Vec3{1, 0.5, 0.25}, painted))
	scene.Root.Add(spinner)

	ambient := libscn.NewLight("ambient", libscn.LightAmbient)
	ambient.Color = mgl32.Vec3{0.1, 0.1, 0.1}
	scene.AddLight(ambient)

	node := libscn.NewNode("light")
	switch light.Type {
	case libscn.LightPoint:
		node.Local = mgl32.Translate3D(0, 4, 0)
		light.Range = 25
	default:
		node.Local = mgl32.LookAtV(mgl32.Vec3{8, 12, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}).Inv()
		light.Range = 40
		light.ConeAngleHalf = 35 * libutil.Deg2Rad
	}
	light.SMSize = [2]int{2048, 2048}
	node.AttachLight(light)
	scene.Root.Add(node)
	scene.AddLight(light)
	log.Printf("Light %q: %v, shadows %v (%v)", light.Name, light.Type, light.CastsShadows(), light.SMAlgorithm)

	return scene, geometries
}

func check(err error) {
	if err != nil {
		log.Panic(err)
	}
}
