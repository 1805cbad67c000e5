package cmd

import (
	"github.com/chewxy/math32"

	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

// Build a procedural demo scene: a grid of pyramid meshes over a ground
// plane, cycling through a few representative materials. Used by the
// compile command to exercise the pipeline without an asset loader.
func demoScene(targetTriangles int) *scene.Node {
	root := scene.NewGroup("demo")

	gold := scene.NewMaterial("gold")
	gold.BaseColor = types.XYZ(1.0, 0.77, 0.34)
	gold.Metalness = 1.0
	gold.Roughness = 0.25

	glass := scene.NewMaterial("glass")
	glass.Transmission = 1.0
	glass.Roughness = 0.05
	glass.Thickness = 0.2

	lamp := scene.NewMaterial("lamp")
	lamp.EmissiveColor = types.XYZ(1, 0.95, 0.8)
	lamp.EmissiveIntensity = 20

	matte := scene.NewMaterial("matte")
	matte.BaseColor = types.XYZ(0.6, 0.62, 0.65)
	matte.Maps[scene.AlbedoMap] = checkerImage(64)

	materials := []*scene.Material{gold, glass, lamp, matte}

	// Each pyramid contributes 4 triangles; the ground contributes 2.
	side := 1
	for side*side*4+2 < targetTriangles {
		side++
	}

	for i := 0; i < side*side; i++ {
		x := float32(i%side) * 2.5
		z := float32(i/side) * 2.5
		node := scene.NewMeshNode("pyramid", pyramidMesh(materials[i%len(materials)]))
		node.Transform = types.Translation(types.XYZ(x, 0, z)).Mul4(types.RotationY(float32(i) * 0.37))
		root.Add(node)
	}

	extent := float32(side) * 2.5
	root.Add(scene.NewMeshNode("ground", groundMesh(matte, extent)))
	logger.Infof("generated demo scene: %d pyramids, ~%d triangles", side*side, side*side*4+2)

	camera := &scene.Node{
		Name:      "camera",
		Kind:      scene.KindCamera,
		Transform: types.Ident4(),
		Visible:   true,
		Camera: &scene.Camera{
			FOV:  45,
			Eye:  types.XYZ(extent/2, extent, -extent/2),
			Look: types.XYZ(extent/2, 0, extent/2),
			Up:   types.XYZ(0, 1, 0),
		},
	}
	root.Add(camera)

	return root
}

func pyramidMesh(mat *scene.Material) *scene.Mesh {
	positions := []types.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1},
		{0, 1.5, 0},
	}
	indices := []uint32{
		0, 1, 4,
		1, 2, 4,
		2, 3, 4,
		3, 0, 4,
	}
	return &scene.Mesh{
		Positions: positions,
		Indices:   indices,
		Groups: []scene.PrimitiveGroup{
			{Material: mat, FirstIndex: 0, IndexCount: uint32(len(indices))},
		},
	}
}

func groundMesh(mat *scene.Material, extent float32) *scene.Mesh {
	positions := []types.Vec3{
		{-2, 0, -2}, {extent, 0, -2}, {extent, 0, extent}, {-2, 0, extent},
	}
	uvs := []types.Vec2{{0, 0}, {8, 0}, {8, 8}, {0, 8}}
	normals := []types.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}}
	return &scene.Mesh{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   []uint32{0, 2, 1, 0, 3, 2},
		Groups: []scene.PrimitiveGroup{
			{Material: mat, FirstIndex: 0, IndexCount: 6},
		},
	}
}

func checkerImage(size int) *scene.Image {
	data := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var shade byte = 40
			if (x/8+y/8)%2 == 0 {
				shade = 220
			}
			offset := (y*size + x) * 4
			data[offset] = shade
			data[offset+1] = shade
			data[offset+2] = shade
			data[offset+3] = 255
		}
	}
	img, _ := scene.NewImage(uint32(size), uint32(size), scene.Rgba8, data)
	return img
}

// Build a synthetic HDR panorama: a sky gradient with a small bright sun
// disc, enough structure to exercise the CDF builder.
func demoPanorama(width, height int) *scene.Image {
	pixels := make([]float32, width*height*4)
	sunX := float32(width) * 0.7
	sunY := float32(height) * 0.3
	sunRadius := float32(height) * 0.02

	for y := 0; y < height; y++ {
		horizon := 1 - math32.Abs(float32(y)/float32(height)-0.5)*2
		for x := 0; x < width; x++ {
			dx := float32(x) - sunX
			dy := float32(y) - sunY
			offset := (y*width + x) * 4

			r := 0.2 + 0.3*horizon
			g := 0.35 + 0.3*horizon
			b := 0.6 + 0.2*horizon
			if math32.Sqrt(dx*dx+dy*dy) < sunRadius {
				r, g, b = 500, 480, 420
			}

			pixels[offset] = r
			pixels[offset+1] = g
			pixels[offset+2] = b
			pixels[offset+3] = 1
		}
	}

	img, _ := scene.NewFloatImage(uint32(width), uint32(height), pixels)
	return img
}
