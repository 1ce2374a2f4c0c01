package libscn

import (
	"log"
	"time"

	"emerald/libctx"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

type TransformFunc func(t time.Duration) mgl32.Mat4

type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
	Local    mgl32.Mat4
	// Overrides Local when set
	Animation TransformFunc
	// Updated by Traverse
	World   mgl32.Mat4
	Meshes  []*MeshInstance
	Lights  []*Light
	Cameras []*Camera
}

func NewNode(name string) *Node {
	return &Node{
		Name:  name,
		Local: mgl32.Ident4(),
		World: mgl32.Ident4(),
	}
}

func (n *Node) Remove(child *Node) {
	index := slices.Index(n.Children, child)
	if index == -1 {
		return
	}
	n.Children = slices.Delete(n.Children, index, index+1)
	child.Parent = nil
}

func (n *Node) Add(child *Node) {
	if n == child {
		log.Printf("Error: added node %q to itself", n.Name)
		return
	}

	if n.IsChildOf(child) {
		log.Printf("Error: added node %q to child of itself", child.Name)
		return
	}

	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) IsChildOf(anchestor *Node) bool {
	return anchestor.IsAnchestorOf(n)
}

func (n *Node) IsAnchestorOf(child *Node) bool {
	for child.Parent != nil {
		if child.Parent == n {
			return true
		}
		child = child.Parent
	}
	return false
}

func (n *Node) AttachMesh(mesh *MeshInstance) {
	n.Meshes = append(n.Meshes, mesh)
}

func (n *Node) AttachLight(light *Light) {
	n.Lights = append(n.Lights, light)
}

func (n *Node) AttachCamera(camera *Camera) {
	n.Cameras = append(n.Cameras, camera)
}

func (n *Node) localMatrix(t time.Duration) mgl32.Mat4 {
	if n.Animation != nil {
		return n.Animation(t)
	}
	return n.Local
}

// Traverse walks the graph depth first and computes world matrices.
// Every visitor may be nil. Each is called with the world matrix of the node the object is attached to.
func Traverse(
	root *Node,
	updateModelMatrix func(node *Node, world mgl32.Mat4),
	insertCamera func(camera *Camera, world mgl32.Mat4),
	updateLight func(light *Light, world mgl32.Mat4),
	visitMesh func(mesh *MeshInstance, world mgl32.Mat4),
	t time.Duration,
) {
	if root == nil {
		log.Panicf("traversal of nil scene graph")
	}
	traverseNode(root, mgl32.Ident4(), updateModelMatrix, insertCamera, updateLight, visitMesh, t)
}

func traverseNode(
	node *Node,
	parent mgl32.Mat4,
	updateModelMatrix func(node *Node, world mgl32.Mat4),
	insertCamera func(camera *Camera, world mgl32.Mat4),
	updateLight func(light *Light, world mgl32.Mat4),
	visitMesh func(mesh *MeshInstance, world mgl32.Mat4),
	t time.Duration,
) {
	node.World = parent.Mul4(node.localMatrix(t))
	if updateModelMatrix != nil {
		updateModelMatrix(node, node.World)
	}
	if insertCamera != nil {
		for _, c := range node.Cameras {
			insertCamera(c, node.World)
		}
	}
	if updateLight != nil {
		for _, l := range node.Lights {
			updateLight(l, node.World)
		}
	}
	if visitMesh != nil {
		for _, m := range node.Meshes {
			visitMesh(m, node.World)
		}
	}
	for _, child := range node.Children {
		traverseNode(child, node.World, updateModelMatrix, insertCamera, updateLight, visitMesh, t)
	}
}

type Scene struct {
	Name string
	Root *Node
	// Scene wide switch for shadow mapping
	ShadowMapping bool
	// Receives CallbackSceneAboutToBeDeleted
	Callbacks *libctx.CallbackManager
	lights    []*Light
	deleted   bool
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:          name,
		Root:          NewNode("root"),
		ShadowMapping: true,
		Callbacks:     libctx.NewCallbackManager(),
	}
}

// AddLight appends the light to the ordered light list. Light order is part of the uber configuration.
func (s *Scene) AddLight(light *Light) {
	if slices.Contains(s.lights, light) {
		log.Printf("Error: light %q added to scene %q twice", light.Name, s.Name)
		return
	}
	s.lights = append(s.lights, light)
}

func (s *Scene) RemoveLight(light *Light) {
	index := slices.Index(s.lights, light)
	if index == -1 {
		return
	}
	s.lights = slices.Delete(s.lights, index, index+1)
}

func (s *Scene) Lights() []*Light {
	return s.lights
}

func (s *Scene) HasShadowCasters() bool {
	for _, l := range s.lights {
		if l.CastsShadows() {
			return true
		}
	}
	return false
}

func (s *Scene) Deleted() bool {
	return s.deleted
}

// Delete notifies subscribers synchronously, then drops the scene contents.
func (s *Scene) Delete() {
	if s.deleted {
		return
	}
	s.Callbacks.Dispatch(libctx.CallbackSceneAboutToBeDeleted, s)
	s.lights = nil
	s.Root = nil
	s.deleted = true
}
