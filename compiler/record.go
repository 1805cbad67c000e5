// Package compiler flattens a scene graph into the triangle, material and
// image-slot arrays consumed by the BVH builder and the GPU packer. World
// transforms are baked into vertex data at extraction time; nothing
// downstream applies transforms.
package compiler

import (
	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

// NoIndex marks an absent reference (unused texture slot, missing child
// node). It is the single definition of the sentinel; packed buffers encode
// it verbatim.
const NoIndex int32 = -1

// A triangle with baked world-space vertex data. The winding order of the
// source mesh is preserved.
type Triangle struct {
	V  [3]types.Vec3
	N  [3]types.Vec3
	UV [3]types.Vec2

	// Index into the extraction's material record list.
	MaterialIndex int32
}

// The axis-aligned bounds of the triangle.
func (t *Triangle) Bounds() (bmin, bmax types.Vec3) {
	bmin = types.MinVec3(types.MinVec3(t.V[0], t.V[1]), t.V[2])
	bmax = types.MaxVec3(types.MaxVec3(t.V[0], t.V[1]), t.V[2])
	return bmin, bmax
}

// The centroid of the triangle's bounds.
func (t *Triangle) Centroid() types.Vec3 {
	bmin, bmax := t.Bounds()
	return bmin.Add(bmax).Mul(0.5)
}

// A fully resolved material: every field defaulted, every texture reference
// replaced by an image-slot index (or NoIndex). Records are what the packer
// serializes and what UpdateMaterial patches.
type MaterialRecord struct {
	BaseColor types.Vec3
	Metalness float32
	Roughness float32
	IOR       float32
	Opacity   float32

	Emissive types.Vec3

	Transmission float32
	Thickness    float32

	AttenuationColor    types.Vec3
	AttenuationDistance float32

	SheenColor     types.Vec3
	SheenRoughness float32

	SpecularColor     types.Vec3
	SpecularIntensity float32

	Clearcoat          float32
	ClearcoatRoughness float32

	Iridescence          float32
	IridescenceIOR       float32
	IridescenceThickness float32

	NormalScale float32
	BumpScale   float32

	AlphaMode   int32
	AlphaCutoff float32
	Side        int32
	Visible     bool
	CastShadow  bool

	// Per-slot image index into the matching ImageSlots category, or NoIndex.
	MapIndices [scene.NumMapSlots]int32

	// Per-slot UV transform.
	MapTransforms [scene.NumMapSlots]types.Mat3
}

// Per-category image slot lists. Slot indices stored in material records
// address the matching category list.
type ImageSlots [scene.NumMapSlots][]*scene.Image

// Total number of referenced images across all categories.
func (s *ImageSlots) Count() int {
	total := 0
	for slot := range s {
		total += len(s[slot])
	}
	return total
}

// The output of a scene extraction.
type Extraction struct {
	Triangles []Triangle
	Materials []MaterialRecord
	Slots     ImageSlots

	// The first camera found during traversal, or nil.
	Camera *scene.Camera

	// Analytic lights found during traversal.
	Lights []scene.Light

	// Number of triangles carrying an emissive material.
	EmissiveCount int

	// Meshes (or primitive groups) skipped due to missing/invalid data.
	SkippedMeshes int
}
