package libgl

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"reflect"
	"strings"

	"emerald/libral"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// blockMember locates a uniform inside a std140 block.
type blockMember struct {
	block        int
	offset       int
	arrayStride  int
	matrixStride int
	rowMajor     bool
}

type uniformBlock struct {
	name    string
	binding int
	buffer  *buffer
	data    []byte
	dirty   bool
}

type stageProgram struct {
	glId      uint32
	name      string
	locations map[string]int32
	members   map[string]blockMember
}

// pipeline is the GL side of a libral.Program, a program pipeline of separable vertex and fragment programs.
type pipeline struct {
	glId    uint32
	name    string
	stages  [2]*stageProgram
	blocks  []*uniformBlock
	missing map[string]bool
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)

	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func linkStatus(id uint32) bool {
	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	return ok != gl.FALSE
}

func compileStage(name string, stage uint32, source string, cache *ProgramCache) (uint32, error) {
	if ok, buf, format := cache.Get(source); ok {
		id := gl.CreateProgram()
		gl.ProgramParameteri(id, gl.PROGRAM_SEPARABLE, gl.TRUE)
		gl.ProgramBinary(id, format, Pointer(buf), int32(len(buf)))
		if linkStatus(id) {
			return id, nil
		}
		log.Printf("Warning: cached binary of %v is stale\n", name)
		gl.DeleteProgram(id)
		cache.Remove(source)
	}

	cStrs, free := gl.Strs(source + "\x00")
	id := gl.CreateShaderProgramv(stage, 1, cStrs)
	free()

	if !linkStatus(id) {
		err := fmt.Errorf("failed to link %v shader, log: %v: %w", name, readProgramInfoLog(id), libral.ErrResourceCreation)
		gl.DeleteProgram(id)
		return 0, err
	}
	var ok int32
	gl.ValidateProgram(id)
	gl.GetProgramiv(id, gl.VALIDATE_STATUS, &ok)
	if ok == gl.FALSE {
		err := fmt.Errorf("failed to validate %v shader, log: %v: %w", name, readProgramInfoLog(id), libral.ErrResourceCreation)
		gl.DeleteProgram(id)
		return 0, err
	}

	if !cache.Disabled {
		var length int32
		gl.GetProgramiv(id, gl.PROGRAM_BINARY_LENGTH, &length)
		if length > 0 {
			buf := make([]byte, length)
			var format uint32
			gl.GetProgramBinary(id, length, &length, &format, Pointer(buf))
			cache.Put(source, format, buf[:length])
		}
	}
	return id, nil
}

func newPipeline(info libral.ProgramCreateInfo, cache *ProgramCache) (*pipeline, error) {
	p := &pipeline{name: info.Name, missing: map[string]bool{}}
	sources := [2]string{info.VertexSource, info.FragmentSource}
	types := [2]uint32{gl.VERTEX_SHADER, gl.FRAGMENT_SHADER}
	for i := range sources {
		stageName := fmt.Sprintf("%q %v", info.Name, []string{"vertex", "fragment"}[i])
		id, err := compileStage(stageName, types[i], sources[i], cache)
		if err != nil {
			p.delete()
			return nil, err
		}
		p.stages[i] = &stageProgram{glId: id, name: stageName, locations: map[string]int32{}, members: map[string]blockMember{}}
		p.introspect(p.stages[i])
	}

	gl.CreateProgramPipelines(1, &p.glId)
	gl.UseProgramStages(p.glId, gl.VERTEX_SHADER_BIT, p.stages[0].glId)
	gl.UseProgramStages(p.glId, gl.FRAGMENT_SHADER_BIT, p.stages[1].glId)
	setObjectLabel(gl.PROGRAM_PIPELINE, p.glId, info.Name)
	return p, nil
}

// introspect records uniform locations and the std140 layout of the stage's blocks.
// Blocks get consecutive bindings across the stages of the pipeline.
func (p *pipeline) introspect(stage *stageProgram) {
	var blockCount int32
	gl.GetProgramiv(stage.glId, gl.ACTIVE_UNIFORM_BLOCKS, &blockCount)
	blockIndices := make(map[int32]int, blockCount)
	for b := int32(0); b < blockCount; b++ {
		var size, nameLength int32
		gl.GetActiveUniformBlockiv(stage.glId, uint32(b), gl.UNIFORM_BLOCK_DATA_SIZE, &size)
		gl.GetActiveUniformBlockiv(stage.glId, uint32(b), gl.UNIFORM_BLOCK_NAME_LENGTH, &nameLength)
		name := make([]uint8, nameLength+1)
		gl.GetActiveUniformBlockName(stage.glId, uint32(b), nameLength+1, nil, &name[0])

		block := &uniformBlock{
			name:    gl.GoStr(&name[0]),
			binding: len(p.blocks),
			buffer:  newBuffer(),
			data:    make([]byte, size),
		}
		block.buffer.AllocateEmpty(int(size), gl.DYNAMIC_STORAGE_BIT)
		gl.UniformBlockBinding(stage.glId, uint32(b), uint32(block.binding))
		blockIndices[b] = len(p.blocks)
		p.blocks = append(p.blocks, block)
	}

	var uniformCount int32
	gl.GetProgramiv(stage.glId, gl.ACTIVE_UNIFORMS, &uniformCount)
	for u := uint32(0); u < uint32(uniformCount); u++ {
		var nameLength int32
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_NAME_LENGTH, &nameLength)
		nameBuf := make([]uint8, nameLength+1)
		gl.GetActiveUniformName(stage.glId, u, nameLength+1, nil, &nameBuf[0])
		name := strings.TrimSuffix(gl.GoStr(&nameBuf[0]), "[0]")

		var blockIndex int32
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_BLOCK_INDEX, &blockIndex)
		if blockIndex == -1 {
			stage.locations[name] = gl.GetUniformLocation(stage.glId, gl.Str(name+"\x00"))
			continue
		}
		var offset, arrayStride, matrixStride, rowMajor int32
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_OFFSET, &offset)
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_ARRAY_STRIDE, &arrayStride)
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_MATRIX_STRIDE, &matrixStride)
		gl.GetActiveUniformsiv(stage.glId, 1, &u, gl.UNIFORM_IS_ROW_MAJOR, &rowMajor)
		stage.members[name] = blockMember{
			block:        blockIndices[blockIndex],
			offset:       int(offset),
			arrayStride:  int(arrayStride),
			matrixStride: int(matrixStride),
			rowMajor:     rowMajor != 0,
		}
	}
}

// SetUniform writes value to every stage that declares name.
// Unknown names are logged once, the compiler drops unused uniforms.
func (p *pipeline) SetUniform(name string, value any) {
	found := false
	for _, stage := range p.stages {
		if location, ok := stage.locations[name]; ok && location != -1 {
			setProgramUniformAny(stage.glId, location, value)
			found = true
		}
		if member, ok := stage.members[name]; ok {
			block := p.blocks[member.block]
			writeStd140(block.data, member, value)
			block.dirty = true
			found = true
		}
	}
	if !found && !p.missing[name] {
		p.missing[name] = true
		log.Printf("%v shader: could not get location of %q\n", p.name, name)
	}
}

// flush uploads modified blocks and binds all blocks of the pipeline.
func (p *pipeline) flush() {
	for _, block := range p.blocks {
		if block.dirty {
			block.buffer.WriteRange(0, len(block.data), block.data)
			block.dirty = false
		}
		State.BindUniformBufferBase(block.binding, block.buffer.Id())
	}
}

func (p *pipeline) delete() {
	for _, block := range p.blocks {
		block.buffer.Delete()
	}
	p.blocks = nil
	for i, stage := range p.stages {
		if stage != nil {
			gl.DeleteProgram(stage.glId)
			p.stages[i] = nil
		}
	}
	if p.glId != 0 {
		gl.DeleteProgramPipelines(1, &p.glId)
		p.glId = 0
	}
}

// writeStd140 stores value at the member's location in a block's backing memory.
// Row major matrices are written transposed, mgl32 matrices are column major.
func writeStd140(data []byte, member blockMember, value any) {
	putFloats := func(offset int, floats []float32) {
		for i, f := range floats {
			binary.LittleEndian.PutUint32(data[offset+4*i:], math.Float32bits(f))
		}
	}
	putMatrix := func(offset int, columns, rows int, m []float32) {
		stride := member.matrixStride
		if member.rowMajor {
			for r := 0; r < rows; r++ {
				for c := 0; c < columns; c++ {
					binary.LittleEndian.PutUint32(data[offset+r*stride+4*c:], math.Float32bits(m[c*rows+r]))
				}
			}
			return
		}
		for c := 0; c < columns; c++ {
			putFloats(offset+c*stride, m[c*rows:(c+1)*rows])
		}
	}

	switch v := value.(type) {
	case float32:
		putFloats(member.offset, []float32{v})
	case int32:
		binary.LittleEndian.PutUint32(data[member.offset:], uint32(v))
	case int:
		binary.LittleEndian.PutUint32(data[member.offset:], uint32(int32(v)))
	case bool:
		var b uint32
		if v {
			b = 1
		}
		binary.LittleEndian.PutUint32(data[member.offset:], b)
	case mgl32.Vec2:
		putFloats(member.offset, v[:])
	case mgl32.Vec3:
		putFloats(member.offset, v[:])
	case mgl32.Vec4:
		putFloats(member.offset, v[:])
	case mgl32.Mat3:
		putMatrix(member.offset, 3, 3, v[:])
	case mgl32.Mat4:
		putMatrix(member.offset, 4, 4, v[:])
	case []float32:
		for i, f := range v {
			putFloats(member.offset+i*member.arrayStride, []float32{f})
		}
	default:
		log.Panicf("Unsupported block member type %T", value)
	}
}

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case bool:
		var b int32
		if v {
			b = 1
		}
		gl.ProgramUniform1i(prog, location, b)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, location, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	case []float32:
		if len(v) > 0 {
			gl.ProgramUniform1fv(prog, location, int32(len(v)), &v[0])
		}
	default:
		log.Panicf("Unsupported type %T", value)
	}
}
