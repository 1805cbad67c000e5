package pipeline

import (
	"testing"

	"github.com/altair-render/altair/packer"
	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

func testScene() *scene.Node {
	gold := scene.NewMaterial("gold")
	gold.BaseColor = types.XYZ(1, 0.76, 0.33)
	gold.Metalness = 1

	lamp := scene.NewMaterial("lamp")
	lamp.EmissiveColor = types.XYZ(1, 1, 1)
	lamp.EmissiveIntensity = 5

	mesh := func(mat *scene.Material) *scene.Mesh {
		return &scene.Mesh{
			Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			Normals:   []types.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			UVs:       []types.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			Indices:   []uint32{0, 1, 2, 0, 2, 3},
			Groups:    []scene.PrimitiveGroup{{Material: mat, FirstIndex: 0, IndexCount: 6}},
		}
	}

	root := scene.NewGroup("root")
	for i := 0; i < 8; i++ {
		node := scene.NewMeshNode("quad", mesh(gold))
		node.Transform = types.Translation(types.XYZ(float32(i)*2, 0, 0))
		root.Add(node)
	}
	light := scene.NewMeshNode("lamp", mesh(lamp))
	light.Transform = types.Translation(types.XYZ(0, 4, 0))
	root.Add(light)
	return root
}

func testPanorama(t *testing.T) *scene.Image {
	const w, h = 16, 8
	pixels := make([]float32, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4] = 0.2
		pixels[i*4+1] = 0.3
		pixels[i*4+2] = 0.5
		pixels[i*4+3] = 1
	}
	img, err := scene.NewFloatImage(w, h, pixels)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestCompileScene(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Dispose()

	out, err := p.CompileScene(testScene())
	if err != nil {
		t.Fatal(err)
	}

	if out.Materials == nil || out.Triangles == nil || out.Nodes == nil {
		t.Fatal("expected material, triangle and node buffers")
	}
	if got := out.Stats.Triangles; got != 18 {
		t.Fatalf("expected 18 triangles; got %d", got)
	}
	if got := out.Stats.Materials; got != 2 {
		t.Fatalf("expected 2 materials; got %d", got)
	}
	if out.Stats.EmissiveCount != 2 {
		t.Fatalf("expected 2 emissive triangles; got %d", out.Stats.EmissiveCount)
	}
	if out.Triangles.Records != 18 {
		t.Fatalf("triangle buffer records mismatch: %d", out.Triangles.Records)
	}
	if p.LastScene() != out {
		t.Fatal("expected compile output to be retained")
	}
}

func TestCompileSceneRejectsConcurrent(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Dispose()

	p.sceneBusy.Store(true)
	if _, err := p.CompileScene(testScene()); err != ErrAlreadyProcessing {
		t.Fatalf("expected ErrAlreadyProcessing; got %v", err)
	}

	// Environment compiles are independent of the scene guard.
	if _, err := p.CompileEnvironment(testPanorama(t)); err != nil {
		t.Fatalf("environment compile failed under scene guard: %v", err)
	}
	p.sceneBusy.Store(false)
}

func TestCompileSceneFailureKeepsPrevious(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Dispose()

	out, err := p.CompileScene(testScene())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.CompileScene(nil); err == nil {
		t.Fatal("expected error from nil root")
	}
	if p.LastScene() != out {
		t.Fatal("failed compile must not clear the previous output")
	}

	// A scene with no geometry also fails without clearing state.
	if _, err := p.CompileScene(scene.NewGroup("empty")); err == nil {
		t.Fatal("expected error from empty scene")
	}
	if p.LastScene() != out {
		t.Fatal("empty-scene compile must not clear the previous output")
	}
}

func TestCompileEnvironment(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Dispose()

	out, err := p.CompileEnvironment(testPanorama(t))
	if err != nil {
		t.Fatal(err)
	}
	if out.Distribution == nil || out.Table == nil {
		t.Fatal("expected distribution and packed table")
	}
	if err := out.Distribution.Validate(); err != nil {
		t.Fatal(err)
	}
	if p.LastEnvironment() != out {
		t.Fatal("expected environment output to be retained")
	}
}

func TestUpdateMaterial(t *testing.T) {
	p := New(DefaultOptions())
	defer p.Dispose()

	if err := p.UpdateMaterial(0, MaterialPatch{}); err != ErrNoCompiledScene {
		t.Fatalf("expected ErrNoCompiledScene before first compile; got %v", err)
	}

	out, err := p.CompileScene(testScene())
	if err != nil {
		t.Fatal(err)
	}

	roughness := float32(0.42)
	baseColor := types.XYZ(0.1, 0.2, 0.3)
	patch := MaterialPatch{Roughness: &roughness, BaseColor: &baseColor}
	if err := p.UpdateMaterial(0, patch); err != nil {
		t.Fatal(err)
	}

	rec := packer.DecodeMaterial(out.Materials.Float[0:])
	if rec.Roughness != roughness {
		t.Fatalf("expected patched roughness %g; got %g", roughness, rec.Roughness)
	}
	if rec.BaseColor != baseColor {
		t.Fatalf("expected patched base color %v; got %v", baseColor, rec.BaseColor)
	}
	if rec.Metalness != 1 {
		t.Fatalf("unpatched field changed: metalness %g", rec.Metalness)
	}

	// The second record is untouched.
	other := packer.DecodeMaterial(out.Materials.Float[packer.MaterialPixels*4:])
	if other.Roughness == roughness {
		t.Fatal("patch leaked into neighbouring record")
	}

	if err := p.UpdateMaterial(99, MaterialPatch{}); err != ErrMaterialIndex {
		t.Fatalf("expected ErrMaterialIndex; got %v", err)
	}
	if err := p.UpdateMaterial(-1, MaterialPatch{}); err != ErrMaterialIndex {
		t.Fatalf("expected ErrMaterialIndex; got %v", err)
	}
}

func TestDispose(t *testing.T) {
	p := New(DefaultOptions())

	if _, err := p.CompileScene(testScene()); err != nil {
		t.Fatal(err)
	}

	p.Dispose()
	p.Dispose() // idempotent

	if _, err := p.CompileScene(testScene()); err != ErrPipelineClosed {
		t.Fatalf("expected ErrPipelineClosed; got %v", err)
	}
	if _, err := p.CompileEnvironment(testPanorama(t)); err != ErrPipelineClosed {
		t.Fatalf("expected ErrPipelineClosed; got %v", err)
	}
	if err := p.UpdateMaterial(0, MaterialPatch{}); err != ErrPipelineClosed {
		t.Fatalf("expected ErrPipelineClosed; got %v", err)
	}
	if p.LastScene() != nil {
		t.Fatal("expected retained buffers to be dropped on dispose")
	}
}

func TestSynchronousFallbackEquivalence(t *testing.T) {
	root := testScene()

	async := New(DefaultOptions())
	defer async.Dispose()

	sync := New(DefaultOptions())
	defer sync.Dispose()
	sync.workers.close()

	a, err := async.CompileScene(root)
	if err != nil {
		t.Fatal(err)
	}
	b, err := sync.CompileScene(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Triangles.Float) != len(b.Triangles.Float) {
		t.Fatalf("triangle buffer sizes differ: %d vs %d", len(a.Triangles.Float), len(b.Triangles.Float))
	}
	for i := range a.Triangles.Float {
		if a.Triangles.Float[i] != b.Triangles.Float[i] {
			t.Fatalf("triangle buffers differ at %d", i)
		}
	}
	for i := range a.Nodes.Float {
		if a.Nodes.Float[i] != b.Nodes.Float[i] {
			t.Fatalf("node buffers differ at %d", i)
		}
	}
}
