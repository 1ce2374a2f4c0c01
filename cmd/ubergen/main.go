package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"emerald/libctx"
	"emerald/libral"
	"emerald/libscn"
	"emerald/materials"

	"github.com/go-gl/mathgl/mgl32"
)

var args = struct {
	lights  string
	shading string
	sm      bool
	texture bool
	stage   string
}{
	lights:  "ambient,directional:plain",
	shading: "phong",
	sm:      true,
	texture: false,
	stage:   "all",
}

func printGeneralUsage() {
	exe := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [arguments]\n\n", exe)
	fmt.Fprintf(os.Stderr, "Prints the uber shader generated for a material in a scene.\n")
	fmt.Fprintf(os.Stderr, "Lights are described as type[:option...], see libscn.ParseLight.\n\n")
	fmt.Fprintf(os.Stderr, "The arguments are:\n\n")
	flag.CommandLine.SetOutput(os.Stderr)
	flag.PrintDefaults()
	os.Exit(1)
}

func parseShading(name string) (libscn.Shading, error) {
	for _, shading := range []libscn.Shading{libscn.ShadingNone, libscn.ShadingLambert, libscn.ShadingPhong} {
		if shading.String() == name {
			return shading, nil
		}
	}
	return 0, fmt.Errorf("unknown shading %q", name)
}

func main() {
	flag.StringVar(&args.lights, "lights", args.lights, "comma separated light descriptions")
	flag.StringVar(&args.shading, "shading", args.shading, "none, lambert or phong")
	flag.BoolVar(&args.sm, "sm", args.sm, "enable shadow maps")
	flag.BoolVar(&args.texture, "texture", args.texture, "feed the diffuse color from a texture")
	flag.StringVar(&args.stage, "stage", args.stage, "vertex, fragment or all")
	flag.Usage = printGeneralUsage
	flag.Parse()

	if flag.NArg() != 0 {
		printGeneralUsage()
	}

	shading, err := parseShading(args.shading)
	harderr(err)
	lights, err := libscn.ParseLights(args.lights)
	harderr(err)

	callbacks := libctx.NewCallbackManager()
	mats := materials.New(callbacks)
	defer mats.Release()
	// Shaders are only generated, the null device never compiles them
	ctx := libctx.NewContext("ubergen", libral.NewNullDevice(), callbacks)
	defer ctx.Destroy()

	scene := libscn.NewScene("ubergen")
	scene.ShadowMapping = args.sm
	for _, light := range lights {
		scene.AddLight(light)
	}
	defer scene.Delete()

	material := libscn.NewMaterial("material", ctx, shading)
	if args.texture {
		material.SetTexture(libscn.PropertyDiffuse, nil, nil)
	} else {
		material.SetVec4(libscn.PropertyDiffuse, mgl32.Vec4{1, 1, 1, 1})
	}
	if shading == libscn.ShadingPhong {
		material.SetFloat(libscn.PropertyShininess, 32)
		material.SetVec4(libscn.PropertySpecular, mgl32.Vec4{1, 1, 1, 1})
	}

	u, err := mats.GetUber(material, scene, args.sm)
	harderr(err)

	fmt.Printf("// %s\n", u.Name)
	if args.stage == "all" || args.stage == "vertex" {
		fmt.Printf("// vertex shader\n%s\n", u.VertexSource)
	}
	if args.stage == "all" || args.stage == "fragment" {
		fmt.Printf("// fragment shader\n%s\n", u.FragmentSource)
	}
}

func harderr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
