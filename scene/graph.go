// Package scene defines the input model consumed by the compilation
// pipeline: a transform hierarchy of mesh/light/camera nodes, PBR material
// definitions and decoded images. Asset loaders populate this model; the
// pipeline never touches files.
package scene

import "github.com/altair-render/altair/types"

// The kind of payload a graph node carries. The set is closed; traversal
// code switches exhaustively on it.
type NodeKind uint8

const (
	KindGroup NodeKind = iota
	KindMesh
	KindLight
	KindCamera
)

func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	}
	return "unknown"
}

// A node in the scene graph. Exactly the payload field matching Kind is
// populated; the others are nil.
type Node struct {
	Name string
	Kind NodeKind

	// Local transform, relative to the parent node.
	Transform types.Mat4

	Mesh   *Mesh
	Light  *Light
	Camera *Camera

	Children []*Node

	// Invisible nodes and their subtrees are excluded from extraction.
	Visible bool
}

// Create an empty group node with an identity transform.
func NewGroup(name string) *Node {
	return &Node{
		Name:      name,
		Kind:      KindGroup,
		Transform: types.Ident4(),
		Visible:   true,
	}
}

// Create a mesh node with an identity transform.
func NewMeshNode(name string, mesh *Mesh) *Node {
	return &Node{
		Name:      name,
		Kind:      KindMesh,
		Transform: types.Ident4(),
		Mesh:      mesh,
		Visible:   true,
	}
}

// Append a child node.
func (n *Node) Add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return n
}

// The type of an analytic light source.
type LightType uint8

const (
	PointLight LightType = iota
	DirectionalLight
	SpotLight
)

// An analytic light. Emissive geometry and the environment map are handled
// separately by the material and envmap paths.
type Light struct {
	Type      LightType
	Color     types.Vec3
	Intensity float32
}

// A camera definition. The extractor records the first camera it encounters
// during traversal.
type Camera struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// A range of mesh indices rendered with a single material. Meshes carrying
// multiple materials define one group per material.
type PrimitiveGroup struct {
	Material   *Material
	FirstIndex uint32
	IndexCount uint32
}

// Indexed triangle geometry. Positions are required; normals and UVs are
// optional and are synthesized/zeroed by the extractor when absent.
type Mesh struct {
	Positions []types.Vec3
	Normals   []types.Vec3
	UVs       []types.Vec2
	Indices   []uint32
	Groups    []PrimitiveGroup
}
