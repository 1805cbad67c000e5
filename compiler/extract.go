package compiler

import (
	"errors"
	"time"

	"github.com/altair-render/altair/log"
	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

const (
	// Maximum number of image slots per map category. Insertions beyond the
	// cap are rejected so a pathological scene cannot grow texture memory
	// unbounded; the referencing material falls back to its scalar value.
	MaxImageSlots = 64
)

var (
	ErrNilRoot        = errors.New("compiler: nil scene root")
	ErrImageSlotsFull = errors.New("compiler: image slot limit reached")
)

type extractor struct {
	logger log.Logger
	out    *Extraction

	// Dedup caches. Materials and images collapse by pointer identity.
	matIndexCache map[*scene.Material]int32
	imgIndexCache [scene.NumMapSlots]map[*scene.Image]int32
}

type traversalItem struct {
	node  *scene.Node
	world types.Mat4
}

// Extract walks the scene graph, bakes world transforms into vertex data and
// produces flat triangle/material/image-slot arrays. Meshes with missing or
// malformed data are skipped with a warning; they never abort the extraction.
func Extract(root *scene.Node) (*Extraction, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	ex := &extractor{
		logger: log.New("extractor"),
		out:    &Extraction{},
	}
	ex.matIndexCache = make(map[*scene.Material]int32)
	for slot := range ex.imgIndexCache {
		ex.imgIndexCache[slot] = make(map[*scene.Image]int32)
	}

	start := time.Now()
	ex.logger.Notice("extracting scene geometry")

	// Iterative DFS carrying the accumulated world transform.
	stack := []traversalItem{{node: root, world: root.Transform}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := item.node
		if !node.Visible {
			continue
		}

		switch node.Kind {
		case scene.KindGroup:
			// Transform accumulation only.
		case scene.KindMesh:
			ex.extractMesh(node, item.world)
		case scene.KindLight:
			if node.Light != nil {
				ex.out.Lights = append(ex.out.Lights, *node.Light)
			}
		case scene.KindCamera:
			if ex.out.Camera == nil && node.Camera != nil {
				ex.out.Camera = node.Camera
			}
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			child := node.Children[i]
			stack = append(stack, traversalItem{
				node:  child,
				world: item.world.Mul4(child.Transform),
			})
		}
	}

	ex.logger.Noticef(
		"extracted %d triangles, %d materials, %d images in %d ms (%d meshes skipped)",
		len(ex.out.Triangles), len(ex.out.Materials), ex.out.Slots.Count(),
		time.Since(start).Nanoseconds()/1e6, ex.out.SkippedMeshes,
	)
	return ex.out, nil
}

// Convert one mesh node into triangles, one primitive group at a time.
func (ex *extractor) extractMesh(node *scene.Node, world types.Mat4) {
	mesh := node.Mesh
	if mesh == nil || len(mesh.Positions) == 0 || len(mesh.Indices) == 0 {
		ex.logger.Warningf("%q: skipping mesh with missing geometry", node.Name)
		ex.out.SkippedMeshes++
		return
	}
	if len(mesh.Groups) == 0 {
		ex.logger.Warningf("%q: skipping mesh with no material groups", node.Name)
		ex.out.SkippedMeshes++
		return
	}

	normalMat := world.NormalMat3()

	for _, group := range mesh.Groups {
		if group.Material == nil {
			ex.logger.Warningf("%q: skipping group with missing material", node.Name)
			ex.out.SkippedMeshes++
			continue
		}
		if group.IndexCount%3 != 0 ||
			int(group.FirstIndex)+int(group.IndexCount) > len(mesh.Indices) {
			ex.logger.Warningf("%q: skipping group with malformed index range [%d, %d)",
				node.Name, group.FirstIndex, group.FirstIndex+group.IndexCount)
			ex.out.SkippedMeshes++
			continue
		}

		matIndex := ex.resolveMaterial(group.Material)
		emissive := group.Material.IsEmissive()

		end := int(group.FirstIndex) + int(group.IndexCount)
		for i := int(group.FirstIndex); i < end; i += 3 {
			i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
			if int(i0) >= len(mesh.Positions) || int(i1) >= len(mesh.Positions) || int(i2) >= len(mesh.Positions) {
				ex.logger.Warningf("%q: skipping triangle with out-of-range vertex index", node.Name)
				continue
			}

			var tri Triangle
			tri.MaterialIndex = matIndex
			tri.V[0] = world.MulPoint(mesh.Positions[i0])
			tri.V[1] = world.MulPoint(mesh.Positions[i1])
			tri.V[2] = world.MulPoint(mesh.Positions[i2])

			if len(mesh.Normals) == len(mesh.Positions) {
				tri.N[0] = normalMat.MulVec3(mesh.Normals[i0]).Normalize()
				tri.N[1] = normalMat.MulVec3(mesh.Normals[i1]).Normalize()
				tri.N[2] = normalMat.MulVec3(mesh.Normals[i2]).Normalize()
			} else {
				// Synthesize a face normal from the baked vertices.
				n := tri.V[1].Sub(tri.V[0]).Cross(tri.V[2].Sub(tri.V[0])).Normalize()
				tri.N[0], tri.N[1], tri.N[2] = n, n, n
			}

			if len(mesh.UVs) == len(mesh.Positions) {
				tri.UV[0] = mesh.UVs[i0]
				tri.UV[1] = mesh.UVs[i1]
				tri.UV[2] = mesh.UVs[i2]
			}

			ex.out.Triangles = append(ex.out.Triangles, tri)
			if emissive {
				ex.out.EmissiveCount++
			}
		}
	}
}

// Look up or create the record index for a material. Records are dense and
// 0-based; duplicate materials collapse to one record.
func (ex *extractor) resolveMaterial(mat *scene.Material) int32 {
	if index, exists := ex.matIndexCache[mat]; exists {
		return index
	}

	rec := MaterialRecord{
		BaseColor:            mat.BaseColor,
		Metalness:            mat.Metalness,
		Roughness:            mat.Roughness,
		IOR:                  mat.IOR,
		Opacity:              mat.Opacity,
		Emissive:             mat.EmissiveColor.Mul(mat.EmissiveIntensity),
		Transmission:         mat.Transmission,
		Thickness:            mat.Thickness,
		AttenuationColor:     mat.AttenuationColor,
		AttenuationDistance:  mat.AttenuationDistance,
		SheenColor:           mat.SheenColor,
		SheenRoughness:       mat.SheenRoughness,
		SpecularColor:        mat.SpecularColor,
		SpecularIntensity:    mat.SpecularIntensity,
		Clearcoat:            mat.Clearcoat,
		ClearcoatRoughness:   mat.ClearcoatRoughness,
		Iridescence:          mat.Iridescence,
		IridescenceIOR:       mat.IridescenceIOR,
		IridescenceThickness: mat.IridescenceThickness,
		NormalScale:          mat.NormalScale,
		BumpScale:            mat.BumpScale,
		AlphaMode:            int32(mat.AlphaMode),
		AlphaCutoff:          mat.AlphaCutoff,
		Side:                 int32(mat.Side),
		Visible:              mat.Visible,
		CastShadow:           mat.CastShadow,
		MapTransforms:        mat.MapTransforms,
	}

	for slot := scene.MapSlot(0); slot < scene.NumMapSlots; slot++ {
		rec.MapIndices[slot] = ex.resolveImage(mat, slot)
	}

	index := int32(len(ex.out.Materials))
	ex.out.Materials = append(ex.out.Materials, rec)
	ex.matIndexCache[mat] = index
	return index
}

// Look up or insert an image into its category slot list. A full category
// drops the reference rather than growing unbounded.
func (ex *extractor) resolveImage(mat *scene.Material, slot scene.MapSlot) int32 {
	img := mat.Maps[slot]
	if img == nil {
		return NoIndex
	}

	if index, exists := ex.imgIndexCache[slot][img]; exists {
		return index
	}

	if len(ex.out.Slots[slot]) >= MaxImageSlots {
		ex.logger.Warningf("%q: %s image slots full (%d); dropping texture reference: %v",
			mat.Name, slot, MaxImageSlots, ErrImageSlotsFull)
		return NoIndex
	}

	if !img.Valid() {
		ex.logger.Warningf("%q: dropping invalid %s image", mat.Name, slot)
		return NoIndex
	}

	index := int32(len(ex.out.Slots[slot]))
	ex.out.Slots[slot] = append(ex.out.Slots[slot], img)
	ex.imgIndexCache[slot][img] = index
	return index
}
