package libshd

import (
	"fmt"
	"log"
	"strings"
)

type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return fmt.Sprintf("stage %d", int(s))
}

const DefaultVersion = "430 core"

// DefaultBlock is the name of the block that holds loose uniforms such as samplers.
const DefaultBlock = ""

type Variable struct {
	Name string
	// GLSL type name, e.g. "mat4" or "sampler2DShadow"
	Type string
	// Contents of the layout qualifier without parentheses, e.g. "row_major" or "location = 0"
	Layout string
	// Zero for scalars
	ArraySize int
	// GLSL expression, required for constants. Only allowed for uniforms in the default block.
	Default string
}

func (v Variable) declaration(qualifier string) string {
	var sb strings.Builder
	if v.Layout != "" {
		fmt.Fprintf(&sb, "layout(%s) ", v.Layout)
	}
	if qualifier != "" {
		sb.WriteString(qualifier)
		sb.WriteByte(' ')
	}
	sb.WriteString(v.Type)
	sb.WriteByte(' ')
	sb.WriteString(v.Name)
	if v.ArraySize > 0 {
		fmt.Fprintf(&sb, "[%d]", v.ArraySize)
	}
	if v.Default != "" {
		sb.WriteString(" = ")
		sb.WriteString(v.Default)
	}
	sb.WriteByte(';')
	return sb.String()
}

type Block struct {
	Name      string
	Variables []Variable
}

type Function struct {
	Name       string
	ReturnType string
	// Parameter list without parentheses
	Parameters string
	body       []string
}

// Shader builds GLSL source for a single stage.
// Every declared name must be unique across blocks, inputs, outputs and constants.
type Shader struct {
	Stage     Stage
	Version   string
	constants []Variable
	blocks    []*Block
	inputs    []Variable
	outputs   []Variable
	functions []*Function
	names     map[string]struct{}
}

func NewShader(stage Stage) *Shader {
	return &Shader{
		Stage:     stage,
		Version:   DefaultVersion,
		blocks:    []*Block{{Name: DefaultBlock}},
		functions: []*Function{{Name: "main", ReturnType: "void"}},
		names:     map[string]struct{}{},
	}
}

func (s *Shader) IsVariableDefined(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s *Shader) define(name string) {
	if name == "" {
		log.Panicf("%v shader: empty variable name", s.Stage)
	}
	if s.IsVariableDefined(name) {
		log.Panicf("%v shader: %q is already defined", s.Stage, name)
	}
	s.names[name] = struct{}{}
}

// Block returns the uniform block with the given name, creating it if needed.
func (s *Shader) Block(name string) *Block {
	for _, b := range s.blocks {
		if b.Name == name {
			return b
		}
	}
	b := &Block{Name: name}
	s.blocks = append(s.blocks, b)
	return b
}

func (s *Shader) Blocks() []*Block {
	return s.blocks
}

func (s *Shader) AddUniform(block string, v Variable) {
	if block != DefaultBlock && v.Default != "" {
		log.Panicf("%v shader: uniform %q in block %q cannot have a default value", s.Stage, v.Name, block)
	}
	s.define(v.Name)
	b := s.Block(block)
	b.Variables = append(b.Variables, v)
}

func (s *Shader) AddInput(v Variable) {
	s.define(v.Name)
	s.inputs = append(s.inputs, v)
}

func (s *Shader) AddOutput(v Variable) {
	s.define(v.Name)
	s.outputs = append(s.outputs, v)
}

func (s *Shader) AddConstant(v Variable) {
	if v.Default == "" {
		log.Panicf("%v shader: constant %q needs a value", s.Stage, v.Name)
	}
	s.define(v.Name)
	s.constants = append(s.constants, v)
}

// AddFunction declares a helper function. Helpers are emitted before main in declaration order.
func (s *Shader) AddFunction(returnType, name, parameters, body string) {
	s.define(name)
	fn := &Function{Name: name, ReturnType: returnType, Parameters: parameters}
	if body != "" {
		fn.body = append(fn.body, body)
	}
	mainFn := s.functions[len(s.functions)-1]
	s.functions[len(s.functions)-1] = fn
	s.functions = append(s.functions, mainFn)
}

func (s *Shader) function(name string) *Function {
	for _, fn := range s.functions {
		if fn.Name == name {
			return fn
		}
	}
	log.Panicf("%v shader: function %q is not defined", s.Stage, name)
	return nil
}

func (s *Shader) AppendToFunction(name, code string) {
	fn := s.function(name)
	fn.body = append(fn.body, code)
}

func (s *Shader) AppendToMain(code string) {
	s.AppendToFunction("main", code)
}

// Source renders the GLSL text. The output only depends on the order of the calls made.
func (s *Shader) Source() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#version %s\n", s.Version)

	if len(s.constants) > 0 {
		sb.WriteByte('\n')
		for _, v := range s.constants {
			sb.WriteString(v.declaration("const"))
			sb.WriteByte('\n')
		}
	}

	for _, b := range s.blocks {
		if b.Name == DefaultBlock || len(b.Variables) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\nlayout(std140) uniform %s\n{\n", b.Name)
		for _, v := range b.Variables {
			sb.WriteString("    ")
			sb.WriteString(v.declaration(""))
			sb.WriteByte('\n')
		}
		sb.WriteString("};\n")
	}

	if loose := s.blocks[0].Variables; len(loose) > 0 {
		sb.WriteByte('\n')
		for _, v := range loose {
			sb.WriteString(v.declaration("uniform"))
			sb.WriteByte('\n')
		}
	}

	if len(s.inputs) > 0 {
		sb.WriteByte('\n')
		for _, v := range s.inputs {
			sb.WriteString(v.declaration("in"))
			sb.WriteByte('\n')
		}
	}
	if len(s.outputs) > 0 {
		sb.WriteByte('\n')
		for _, v := range s.outputs {
			sb.WriteString(v.declaration("out"))
			sb.WriteByte('\n')
		}
	}

	for _, fn := range s.functions {
		fmt.Fprintf(&sb, "\n%s %s(%s)\n{\n", fn.ReturnType, fn.Name, fn.Parameters)
		for _, code := range fn.body {
			sb.WriteString(code)
			if !strings.HasSuffix(code, "\n") {
				sb.WriteByte('\n')
			}
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}
