package pipeline

import (
	"github.com/altair-render/altair/compiler"
	"github.com/altair-render/altair/types"
)

// A partial material update. Nil fields keep their current value. Texture
// bindings and UV transforms are fixed at compile time; changing them
// requires a scene recompile.
type MaterialPatch struct {
	BaseColor *types.Vec3
	Metalness *float32
	Roughness *float32
	IOR       *float32
	Opacity   *float32

	Emissive *types.Vec3

	Transmission *float32
	Thickness    *float32

	AttenuationColor    *types.Vec3
	AttenuationDistance *float32

	SheenColor     *types.Vec3
	SheenRoughness *float32

	SpecularColor     *types.Vec3
	SpecularIntensity *float32

	Clearcoat          *float32
	ClearcoatRoughness *float32

	Iridescence          *float32
	IridescenceIOR       *float32
	IridescenceThickness *float32

	NormalScale *float32
	BumpScale   *float32
	AlphaCutoff *float32

	Visible *bool
}

func (patch *MaterialPatch) apply(rec *compiler.MaterialRecord) {
	setVec3(&rec.BaseColor, patch.BaseColor)
	setFloat(&rec.Metalness, patch.Metalness)
	setFloat(&rec.Roughness, patch.Roughness)
	setFloat(&rec.IOR, patch.IOR)
	setFloat(&rec.Opacity, patch.Opacity)
	setVec3(&rec.Emissive, patch.Emissive)
	setFloat(&rec.Transmission, patch.Transmission)
	setFloat(&rec.Thickness, patch.Thickness)
	setVec3(&rec.AttenuationColor, patch.AttenuationColor)
	setFloat(&rec.AttenuationDistance, patch.AttenuationDistance)
	setVec3(&rec.SheenColor, patch.SheenColor)
	setFloat(&rec.SheenRoughness, patch.SheenRoughness)
	setVec3(&rec.SpecularColor, patch.SpecularColor)
	setFloat(&rec.SpecularIntensity, patch.SpecularIntensity)
	setFloat(&rec.Clearcoat, patch.Clearcoat)
	setFloat(&rec.ClearcoatRoughness, patch.ClearcoatRoughness)
	setFloat(&rec.Iridescence, patch.Iridescence)
	setFloat(&rec.IridescenceIOR, patch.IridescenceIOR)
	setFloat(&rec.IridescenceThickness, patch.IridescenceThickness)
	setFloat(&rec.NormalScale, patch.NormalScale)
	setFloat(&rec.BumpScale, patch.BumpScale)
	setFloat(&rec.AlphaCutoff, patch.AlphaCutoff)
	if patch.Visible != nil {
		rec.Visible = *patch.Visible
	}
}

func setFloat(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}

func setVec3(dst *types.Vec3, src *types.Vec3) {
	if src != nil {
		*dst = *src
	}
}
