package scene

import "github.com/altair-render/altair/types"

// Alpha handling modes.
type AlphaMode int32

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Which face(s) of a triangle are shaded.
type Side int32

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Texture slot categories. Each category is packed into its own layered
// image buffer.
type MapSlot int

const (
	AlbedoMap MapSlot = iota
	NormalMap
	BumpMap
	RoughnessMap
	MetalnessMap
	EmissiveMap

	NumMapSlots
)

func (s MapSlot) String() string {
	switch s {
	case AlbedoMap:
		return "albedo"
	case NormalMap:
		return "normal"
	case BumpMap:
		return "bump"
	case RoughnessMap:
		return "roughness"
	case MetalnessMap:
		return "metalness"
	case EmissiveMap:
		return "emissive"
	}
	return "unknown"
}

// Default values applied to absent material fields.
const (
	DefaultRoughness   = 1.0
	DefaultIOR         = 1.5
	DefaultOpacity     = 1.0
	DefaultAlphaCutoff = 0.5
	DefaultNormalScale = 1.0
	DefaultBumpScale   = 1.0
)

// A physically-based material definition. The field set is a fixed superset
// of what loaders deliver; NewMaterial fills every field with its documented
// default so absent source fields never leak zero values downstream.
//
// Materials are deduplicated by pointer identity during extraction: two mesh
// groups referencing the same *Material share one compiled record.
type Material struct {
	Name string

	BaseColor types.Vec3
	Metalness float32
	Roughness float32
	IOR       float32
	Opacity   float32

	EmissiveColor     types.Vec3
	EmissiveIntensity float32

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

	AlphaMode   AlphaMode
	AlphaCutoff float32
	Side        Side
	Visible     bool
	CastShadow  bool

	// Optional texture references, one per slot category. A nil entry means
	// the slot is unused.
	Maps [NumMapSlots]*Image

	// UV transform applied when sampling the corresponding map.
	MapTransforms [NumMapSlots]types.Mat3
}

// Create a material with every field set to its default value.
func NewMaterial(name string) *Material {
	mat := &Material{
		Name:              name,
		BaseColor:         types.XYZ(1, 1, 1),
		Roughness:         DefaultRoughness,
		IOR:               DefaultIOR,
		Opacity:           DefaultOpacity,
		EmissiveIntensity: 1.0,
		AttenuationColor:  types.XYZ(1, 1, 1),
		SpecularColor:     types.XYZ(1, 1, 1),
		SpecularIntensity: 1.0,
		IridescenceIOR:    1.3,
		NormalScale:       DefaultNormalScale,
		BumpScale:         DefaultBumpScale,
		AlphaCutoff:       DefaultAlphaCutoff,
		Visible:           true,
		CastShadow:        true,
	}
	for slot := range mat.MapTransforms {
		mat.MapTransforms[slot] = types.Ident3()
	}
	return mat
}

// True if the material contributes light to the scene.
func (m *Material) IsEmissive() bool {
	return m.EmissiveIntensity > 0 &&
		(m.EmissiveColor[0] > 0 || m.EmissiveColor[1] > 0 || m.EmissiveColor[2] > 0)
}
