package libshd_test

import (
	"strings"
	"testing"

	"emerald/libshd"
)

func TestSourceLayout(t *testing.T) {
	fs := libshd.NewShader(libshd.StageFragment)
	fs.AddConstant(libshd.Variable{Name: "floor_value", Type: "float", Default: "0.1"})
	fs.AddUniform("FragmentShaderProperties", libshd.Variable{Name: "light0_view", Type: "mat4", Layout: "row_major"})
	fs.AddUniform(libshd.DefaultBlock, libshd.Variable{Name: "light0_shadow_map", Type: "sampler2DShadow"})
	fs.AddInput(libshd.Variable{Name: "uv", Type: "vec2"})
	fs.AddOutput(libshd.Variable{Name: "result", Type: "vec4"})
	fs.AppendToMain("    result = vec4(uv, 0.0, 1.0);")

	expected := `#version 430 core

const float floor_value = 0.1;

layout(std140) uniform FragmentShaderProperties
{
    layout(row_major) mat4 light0_view;
};

uniform sampler2DShadow light0_shadow_map;

in vec2 uv;

out vec4 result;

void main()
{
    result = vec4(uv, 0.0, 1.0);
}
`
	if src := fs.Source(); src != expected {
		t.Errorf("source should be:\n%s\nbut is:\n%s", expected, src)
	}
}

func TestIsVariableDefined(t *testing.T) {
	vs := libshd.NewShader(libshd.StageVertex)
	if vs.IsVariableDefined("model") {
		t.Fatalf("model should not be defined yet")
	}
	vs.AddUniform("VertexShaderProperties", libshd.Variable{Name: "model", Type: "mat4"})
	if !vs.IsVariableDefined("model") {
		t.Errorf("model should be defined")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("redefining a variable should panic")
		}
	}()
	vs.AddOutput(libshd.Variable{Name: "model", Type: "vec4"})
}

func TestHelperFunctionsPrecedeMain(t *testing.T) {
	fs := libshd.NewShader(libshd.StageFragment)
	fs.AppendToMain("    float x = helper();")
	fs.AddFunction("float", "helper", "", "    return 1.0;")
	src := fs.Source()
	if strings.Index(src, "float helper()") > strings.Index(src, "void main()") {
		t.Errorf("helper should be emitted before main:\n%s", src)
	}
}

func TestBlockUniformDefaultPanics(t *testing.T) {
	vs := libshd.NewShader(libshd.StageVertex)
	defer func() {
		if recover() == nil {
			t.Errorf("default value in a named block should panic")
		}
	}()
	vs.AddUniform("VertexShaderProperties", libshd.Variable{Name: "x", Type: "float", Default: "1.0"})
}
