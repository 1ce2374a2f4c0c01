package libgl

import (
	"encoding/binary"
	"fmt"
	"log"
	"reflect"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Pointer returns the address of the first element of a slice or the value behind a pointer.
func Pointer(data any) unsafe.Pointer {
	if data == nil {
		return unsafe.Pointer(nil)
	}
	var addr unsafe.Pointer
	v := reflect.ValueOf(data)
	switch v.Type().Kind() {
	case reflect.Ptr:
		e := v.Elem()
		addr = unsafe.Pointer(e.UnsafeAddr())
	case reflect.Uintptr:
		addr = unsafe.Pointer(data.(uintptr))
	case reflect.Slice:
		if v.Len() == 0 {
			return unsafe.Pointer(nil)
		}
		addr = unsafe.Pointer(v.Index(0).UnsafeAddr())
	default:
		panic(fmt.Errorf("unsupported type %s; must be a slice, uintptr or pointer to a value", v.Type()))
	}
	return addr
}

type buffer struct {
	glId uint32
	size int
}

func newBuffer() *buffer {
	var id uint32
	gl.CreateBuffers(1, &id)
	return &buffer{glId: id}
}

func (vbo *buffer) Id() uint32 {
	return vbo.glId
}

// Allocate creates immutable storage initialized with data.
func (vbo *buffer) Allocate(data any, flags int) {
	size := binary.Size(data)
	if size == -1 {
		log.Panicf("%T does not have a fixed size", data)
	}
	if size == 0 {
		msg := "Zero size buffer allocation\x00"
		gl.DebugMessageInsert(gl.DEBUG_SOURCE_APPLICATION, gl.DEBUG_TYPE_ERROR, 1, gl.DEBUG_SEVERITY_MEDIUM, -1, gl.Str(msg))
		return
	}
	gl.NamedBufferStorage(vbo.glId, size, Pointer(data), uint32(flags))
	vbo.size = size
}

func (vbo *buffer) AllocateEmpty(size int, flags int) {
	gl.NamedBufferStorage(vbo.glId, size, nil, uint32(flags))
	vbo.size = size
}

func (vbo *buffer) WriteRange(offset int, size int, data any) {
	gl.NamedBufferSubData(vbo.glId, offset, size, Pointer(data))
}

func (vbo *buffer) Delete() {
	gl.DeleteBuffers(1, &vbo.glId)
	vbo.glId = 0
}

type vertexArray struct {
	glId uint32
}

func newVertexArray() *vertexArray {
	var id uint32
	gl.CreateVertexArrays(1, &id)
	return &vertexArray{glId: id}
}

func (vao *vertexArray) Bind() {
	State.BindVertexArray(vao.glId)
}

func (vao *vertexArray) Layout(bufferIndex int, attributeIndex int, size int, dataType int, normalized bool, offset int) {
	gl.EnableVertexArrayAttrib(vao.glId, uint32(attributeIndex))
	gl.VertexArrayAttribFormat(vao.glId, uint32(attributeIndex), int32(size), uint32(dataType), normalized, uint32(offset))
	gl.VertexArrayAttribBinding(vao.glId, uint32(attributeIndex), uint32(bufferIndex))
}

func (vao *vertexArray) BindBuffer(bufferIndex int, vbo *buffer, offset int, stride int) {
	gl.VertexArrayVertexBuffer(vao.glId, uint32(bufferIndex), vbo.Id(), offset, int32(stride))
}

func (vao *vertexArray) BindElementBuffer(ebo *buffer) {
	gl.VertexArrayElementBuffer(vao.glId, ebo.Id())
}

func (vao *vertexArray) Delete() {
	gl.DeleteVertexArrays(1, &vao.glId)
	vao.glId = 0
}

// Vertex matches the attribute locations of the uber vertex shader.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

const vertexStride = int(unsafe.Sizeof(Vertex{}))

// MeshGeometry is an indexed triangle list in GPU memory. It implements libral.Geometry.
type MeshGeometry struct {
	Name     string
	vao      *vertexArray
	vertices *buffer
	elements *buffer
	count    int
}

func NewMeshGeometry(name string, vertices []Vertex, indices []uint32) *MeshGeometry {
	g := &MeshGeometry{
		Name:     name,
		vao:      newVertexArray(),
		vertices: newBuffer(),
		elements: newBuffer(),
		count:    len(indices),
	}
	g.vertices.Allocate(vertices, 0)
	g.elements.Allocate(indices, 0)
	g.vao.Layout(0, 0, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Position)))
	g.vao.Layout(0, 1, 3, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.Normal)))
	g.vao.Layout(0, 2, 2, gl.FLOAT, false, int(unsafe.Offsetof(Vertex{}.UV)))
	g.vao.BindBuffer(0, g.vertices, 0, vertexStride)
	g.vao.BindElementBuffer(g.elements)
	setObjectLabel(gl.VERTEX_ARRAY, g.vao.glId, name)
	return g
}

func (g *MeshGeometry) ElementCount() int {
	return g.count
}

func (g *MeshGeometry) draw() {
	g.vao.Bind()
	gl.DrawElements(gl.TRIANGLES, int32(g.count), gl.UNSIGNED_INT, nil)
}

func (g *MeshGeometry) Delete() {
	g.vao.Delete()
	g.vertices.Delete()
	g.elements.Delete()
}
