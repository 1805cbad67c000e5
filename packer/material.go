package packer

import (
	"github.com/altair-render/altair/compiler"
	"github.com/altair-render/altair/scene"
	"github.com/altair-render/altair/types"
)

// Each material record occupies a fixed run of pixels. The field order is
// part of the GPU contract and must match the shading stage:
//
//	 0: base color rgb, metalness
//	 1: emissive rgb, roughness
//	 2: transmission, ior, thickness, opacity
//	 3: attenuation color rgb, attenuation distance
//	 4: sheen color rgb, sheen roughness
//	 5: specular color rgb, specular intensity
//	 6: clearcoat, clearcoat roughness, iridescence, iridescence ior
//	 7: iridescence thickness, normal scale, bump scale, alpha cutoff
//	 8: albedo/normal/bump/roughness map indices
//	 9: metalness/emissive map indices, alpha mode, flags
//	10..21: per-slot UV transforms, 2 pixels each (rows [a b tx], [c d ty])
//	22..23: padding
const MaterialPixels = 24

// Flag bit layout for pixel 9 channel w.
const (
	flagVisible    = 1 << 2
	flagCastShadow = 1 << 3
	sideMask       = 0x3
)

// Serialize one material record into dst, which must hold at least
// MaterialPixels*4 float values.
func EncodeMaterial(rec *compiler.MaterialRecord, dst []float32) {
	px := func(i int) []float32 { return dst[i*4 : i*4+4] }

	copy3(px(0), rec.BaseColor)
	px(0)[3] = rec.Metalness

	copy3(px(1), rec.Emissive)
	px(1)[3] = rec.Roughness

	p := px(2)
	p[0], p[1], p[2], p[3] = rec.Transmission, rec.IOR, rec.Thickness, rec.Opacity

	copy3(px(3), rec.AttenuationColor)
	px(3)[3] = rec.AttenuationDistance

	copy3(px(4), rec.SheenColor)
	px(4)[3] = rec.SheenRoughness

	copy3(px(5), rec.SpecularColor)
	px(5)[3] = rec.SpecularIntensity

	p = px(6)
	p[0], p[1], p[2], p[3] = rec.Clearcoat, rec.ClearcoatRoughness, rec.Iridescence, rec.IridescenceIOR

	p = px(7)
	p[0], p[1], p[2], p[3] = rec.IridescenceThickness, rec.NormalScale, rec.BumpScale, rec.AlphaCutoff

	p = px(8)
	p[0] = float32(rec.MapIndices[scene.AlbedoMap])
	p[1] = float32(rec.MapIndices[scene.NormalMap])
	p[2] = float32(rec.MapIndices[scene.BumpMap])
	p[3] = float32(rec.MapIndices[scene.RoughnessMap])

	flags := int32(rec.Side) & sideMask
	if rec.Visible {
		flags |= flagVisible
	}
	if rec.CastShadow {
		flags |= flagCastShadow
	}
	p = px(9)
	p[0] = float32(rec.MapIndices[scene.MetalnessMap])
	p[1] = float32(rec.MapIndices[scene.EmissiveMap])
	p[2] = float32(rec.AlphaMode)
	p[3] = float32(flags)

	for slot := 0; slot < int(scene.NumMapSlots); slot++ {
		m := rec.MapTransforms[slot]
		a := px(10 + slot*2)
		b := px(11 + slot*2)
		a[0], a[1], a[2], a[3] = m[0], m[1], m[2], m[3]
		b[0], b[1], b[2], b[3] = m[4], m[5], 0, 0
	}

	for i := 22 * 4; i < MaterialPixels*4; i++ {
		dst[i] = 0
	}
}

// Reconstruct a material record from its packed form. Inverse of
// EncodeMaterial; exact for every field (all channels are stored as float32).
func DecodeMaterial(src []float32) compiler.MaterialRecord {
	px := func(i int) []float32 { return src[i*4 : i*4+4] }

	var rec compiler.MaterialRecord
	rec.BaseColor = vec3(px(0))
	rec.Metalness = px(0)[3]
	rec.Emissive = vec3(px(1))
	rec.Roughness = px(1)[3]
	rec.Transmission, rec.IOR, rec.Thickness, rec.Opacity = px(2)[0], px(2)[1], px(2)[2], px(2)[3]
	rec.AttenuationColor = vec3(px(3))
	rec.AttenuationDistance = px(3)[3]
	rec.SheenColor = vec3(px(4))
	rec.SheenRoughness = px(4)[3]
	rec.SpecularColor = vec3(px(5))
	rec.SpecularIntensity = px(5)[3]
	rec.Clearcoat, rec.ClearcoatRoughness = px(6)[0], px(6)[1]
	rec.Iridescence, rec.IridescenceIOR = px(6)[2], px(6)[3]
	rec.IridescenceThickness, rec.NormalScale = px(7)[0], px(7)[1]
	rec.BumpScale, rec.AlphaCutoff = px(7)[2], px(7)[3]

	rec.MapIndices[scene.AlbedoMap] = int32(px(8)[0])
	rec.MapIndices[scene.NormalMap] = int32(px(8)[1])
	rec.MapIndices[scene.BumpMap] = int32(px(8)[2])
	rec.MapIndices[scene.RoughnessMap] = int32(px(8)[3])
	rec.MapIndices[scene.MetalnessMap] = int32(px(9)[0])
	rec.MapIndices[scene.EmissiveMap] = int32(px(9)[1])
	rec.AlphaMode = int32(px(9)[2])

	flags := int32(px(9)[3])
	rec.Side = flags & sideMask
	rec.Visible = flags&flagVisible != 0
	rec.CastShadow = flags&flagCastShadow != 0

	for slot := 0; slot < int(scene.NumMapSlots); slot++ {
		a := px(10 + slot*2)
		b := px(11 + slot*2)
		rec.MapTransforms[slot] = types.Mat3{
			a[0], a[1], a[2],
			a[3], b[0], b[1],
			0, 0, 1,
		}
	}

	return rec
}

// PackMaterials serializes material records into a pooled buffer. The buffer
// height is a power of two (GPU sampling friendly); the width absorbs the
// remainder. Zero records yields a nil buffer, not an error.
func PackMaterials(recs []compiler.MaterialRecord, pool *Pool) *Buffer {
	if len(recs) == 0 {
		return nil
	}

	totalPixels := len(recs) * MaterialPixels
	width, height := dimsPow2Height(totalPixels)

	buf := pool.Get(MaterialData, Float32, width, height, 1)
	buf.Records = uint32(len(recs))
	for i := range recs {
		EncodeMaterial(&recs[i], buf.Float[i*MaterialPixels*4:])
	}

	assertRecordsFit(buf, len(recs), MaterialPixels)
	return buf
}

func copy3(dst []float32, v types.Vec3) {
	dst[0], dst[1], dst[2] = v[0], v[1], v[2]
}

func vec3(src []float32) types.Vec3 {
	return types.Vec3{src[0], src[1], src[2]}
}
