package compiler

import (
	"testing"

	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

func quadMesh(mat *scene.Material) *scene.Mesh {
	return &scene.Mesh{
		Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:   []types.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:       []types.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Groups: []scene.PrimitiveGroup{
			{Material: mat, FirstIndex: 0, IndexCount: 6},
		},
	}
}

func grayImage(size uint32) *scene.Image {
	data := make([]byte, size*size*4)
	for i := range data {
		data[i] = 128
	}
	img, _ := scene.NewImage(size, size, scene.Rgba8, data)
	return img
}

func TestExtractNilRoot(t *testing.T) {
	if _, err := Extract(nil); err != ErrNilRoot {
		t.Fatalf("expected ErrNilRoot; got %v", err)
	}
}

func TestExtractBakesTransforms(t *testing.T) {
	mat := scene.NewMaterial("a")
	root := scene.NewGroup("root")
	node := scene.NewMeshNode("quad", quadMesh(mat))
	node.Transform = types.Translation(types.XYZ(10, 0, 0))
	root.Add(node)

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Triangles) != 2 {
		t.Fatalf("expected 2 triangles; got %d", len(out.Triangles))
	}

	v := out.Triangles[0].V[0]
	if v[0] != 10 || v[1] != 0 || v[2] != 0 {
		t.Fatalf("expected translated vertex (10 0 0); got %v", v)
	}

	n := out.Triangles[0].N[0]
	if n[0] != 0 || n[1] != 0 || n[2] != 1 {
		t.Fatalf("expected unchanged normal (0 0 1); got %v", n)
	}
}

func TestExtractNestedTransforms(t *testing.T) {
	mat := scene.NewMaterial("a")
	root := scene.NewGroup("root")

	group := scene.NewGroup("offset")
	group.Transform = types.Translation(types.XYZ(0, 5, 0))
	root.Add(group)

	node := scene.NewMeshNode("quad", quadMesh(mat))
	node.Transform = types.Translation(types.XYZ(2, 0, 0))
	group.Add(node)

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}

	v := out.Triangles[0].V[0]
	if v[0] != 2 || v[1] != 5 || v[2] != 0 {
		t.Fatalf("expected vertex (2 5 0); got %v", v)
	}
}

func TestExtractMaterialDedup(t *testing.T) {
	shared := scene.NewMaterial("shared")
	other := scene.NewMaterial("other")

	root := scene.NewGroup("root")
	root.Add(scene.NewMeshNode("a", quadMesh(shared)))
	root.Add(scene.NewMeshNode("b", quadMesh(shared)))
	root.Add(scene.NewMeshNode("c", quadMesh(other)))

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Materials) != 2 {
		t.Fatalf("expected 2 deduplicated materials; got %d", len(out.Materials))
	}
	if out.Triangles[0].MaterialIndex != out.Triangles[2].MaterialIndex {
		t.Fatal("expected meshes sharing a material to share a record index")
	}
	if out.Triangles[0].MaterialIndex == out.Triangles[4].MaterialIndex {
		t.Fatal("expected distinct materials to have distinct record indices")
	}
}

func TestExtractImageDedupAndSlotCap(t *testing.T) {
	img := grayImage(4)
	matA := scene.NewMaterial("a")
	matA.Maps[scene.AlbedoMap] = img
	matB := scene.NewMaterial("b")
	matB.Maps[scene.AlbedoMap] = img

	root := scene.NewGroup("root")
	root.Add(scene.NewMeshNode("a", quadMesh(matA)))
	root.Add(scene.NewMeshNode("b", quadMesh(matB)))

	// Fill the albedo category past its cap with unique images.
	for i := 0; i < MaxImageSlots+4; i++ {
		mat := scene.NewMaterial("filler")
		mat.Maps[scene.AlbedoMap] = grayImage(2)
		root.Add(scene.NewMeshNode("filler", quadMesh(mat)))
	}

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Slots[scene.AlbedoMap]) != MaxImageSlots {
		t.Fatalf("expected %d albedo slots; got %d", MaxImageSlots, len(out.Slots[scene.AlbedoMap]))
	}
	if out.Materials[0].MapIndices[scene.AlbedoMap] != out.Materials[1].MapIndices[scene.AlbedoMap] {
		t.Fatal("expected shared image to collapse to one slot")
	}

	// Materials past the cap fall back to no texture.
	last := out.Materials[len(out.Materials)-1]
	if last.MapIndices[scene.AlbedoMap] != NoIndex {
		t.Fatalf("expected overflow material to drop its texture; got slot %d", last.MapIndices[scene.AlbedoMap])
	}
}

func TestExtractSkipsInvalidMeshes(t *testing.T) {
	mat := scene.NewMaterial("a")
	root := scene.NewGroup("root")
	root.Add(scene.NewMeshNode("good", quadMesh(mat)))
	root.Add(scene.NewMeshNode("empty", &scene.Mesh{}))
	root.Add(scene.NewMeshNode("nil-material", &scene.Mesh{
		Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
		Groups:    []scene.PrimitiveGroup{{Material: nil, FirstIndex: 0, IndexCount: 3}},
	}))
	root.Add(scene.NewMeshNode("bad-range", &scene.Mesh{
		Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
		Groups:    []scene.PrimitiveGroup{{Material: mat, FirstIndex: 0, IndexCount: 7}},
	}))

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Triangles) != 2 {
		t.Fatalf("expected only the valid mesh's 2 triangles; got %d", len(out.Triangles))
	}
	if out.SkippedMeshes != 3 {
		t.Fatalf("expected 3 skipped meshes; got %d", out.SkippedMeshes)
	}
}

func TestExtractInvisibleSubtree(t *testing.T) {
	mat := scene.NewMaterial("a")
	root := scene.NewGroup("root")

	hidden := scene.NewGroup("hidden")
	hidden.Visible = false
	hidden.Add(scene.NewMeshNode("quad", quadMesh(mat)))
	root.Add(hidden)

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Triangles) != 0 {
		t.Fatalf("expected invisible subtree to be excluded; got %d triangles", len(out.Triangles))
	}
}

func TestExtractEmissiveCount(t *testing.T) {
	lamp := scene.NewMaterial("lamp")
	lamp.EmissiveColor = types.XYZ(1, 1, 1)
	lamp.EmissiveIntensity = 10

	root := scene.NewGroup("root")
	root.Add(scene.NewMeshNode("lamp", quadMesh(lamp)))
	root.Add(scene.NewMeshNode("plain", quadMesh(scene.NewMaterial("plain"))))

	out, err := Extract(root)
	if err != nil {
		t.Fatal(err)
	}
	if out.EmissiveCount != 2 {
		t.Fatalf("expected 2 emissive triangles; got %d", out.EmissiveCount)
	}
}
