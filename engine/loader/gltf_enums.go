package loader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
	"github.com/winnerineast/filament/common"
)

// gltfTopologyMap maps glTF primitive modes to render topologies. Line loops and triangle fans
// have no render equivalent and are absent.
var gltfTopologyMap = map[gltf.PrimitiveMode]wgpu.PrimitiveTopology{
	gltf.PrimitivePoints:        wgpu.PrimitiveTopologyPointList,
	gltf.PrimitiveLines:         wgpu.PrimitiveTopologyLineList,
	gltf.PrimitiveLineStrip:     wgpu.PrimitiveTopologyLineStrip,
	gltf.PrimitiveTriangles:     wgpu.PrimitiveTopologyTriangleList,
	gltf.PrimitiveTriangleStrip: wgpu.PrimitiveTopologyTriangleStrip,
}

var gltfPrimitiveModeNames = map[gltf.PrimitiveMode]string{
	gltf.PrimitivePoints:        "points",
	gltf.PrimitiveLines:         "lines",
	gltf.PrimitiveLineLoop:      "line loop",
	gltf.PrimitiveLineStrip:     "line strip",
	gltf.PrimitiveTriangles:     "triangles",
	gltf.PrimitiveTriangleStrip: "triangle strip",
	gltf.PrimitiveTriangleFan:   "triangle fan",
}

func primitiveModeName(m gltf.PrimitiveMode) string {
	if s, ok := gltfPrimitiveModeNames[m]; ok {
		return s
	}
	return "mode " + strconv.Itoa(int(m))
}

// indexFormat describes how an index accessor is stored in the destination buffer.
type indexFormat struct {
	format wgpu.IndexFormat
	// widen is set for 8-bit source indices, which the destination stores as 16-bit.
	widen bool
}

var gltfIndexFormatMap = map[gltf.ComponentType]indexFormat{
	gltf.ComponentUbyte:  {format: wgpu.IndexFormatUint16, widen: true},
	gltf.ComponentUshort: {format: wgpu.IndexFormatUint16},
	gltf.ComponentUint:   {format: wgpu.IndexFormatUint32},
}

// vertexFormatKey identifies one accessor layout.
type vertexFormatKey struct {
	typ        gltf.AccessorType
	component  gltf.ComponentType
	normalized bool
}

// gltfVertexFormatMap maps accessor layouts to vertex formats. Layouts the render backend cannot
// fetch, such as three-component 8-bit data, are absent.
var gltfVertexFormatMap = map[vertexFormatKey]wgpu.VertexFormat{
	{gltf.AccessorVec2, gltf.ComponentUbyte, false}:   wgpu.VertexFormatUint8x2,
	{gltf.AccessorVec4, gltf.ComponentUbyte, false}:   wgpu.VertexFormatUint8x4,
	{gltf.AccessorVec2, gltf.ComponentUbyte, true}:    wgpu.VertexFormatUnorm8x2,
	{gltf.AccessorVec4, gltf.ComponentUbyte, true}:    wgpu.VertexFormatUnorm8x4,
	{gltf.AccessorVec2, gltf.ComponentByte, false}:    wgpu.VertexFormatSint8x2,
	{gltf.AccessorVec4, gltf.ComponentByte, false}:    wgpu.VertexFormatSint8x4,
	{gltf.AccessorVec2, gltf.ComponentByte, true}:     wgpu.VertexFormatSnorm8x2,
	{gltf.AccessorVec4, gltf.ComponentByte, true}:     wgpu.VertexFormatSnorm8x4,
	{gltf.AccessorVec2, gltf.ComponentUshort, false}:  wgpu.VertexFormatUint16x2,
	{gltf.AccessorVec4, gltf.ComponentUshort, false}:  wgpu.VertexFormatUint16x4,
	{gltf.AccessorVec2, gltf.ComponentUshort, true}:   wgpu.VertexFormatUnorm16x2,
	{gltf.AccessorVec4, gltf.ComponentUshort, true}:   wgpu.VertexFormatUnorm16x4,
	{gltf.AccessorVec2, gltf.ComponentShort, false}:   wgpu.VertexFormatSint16x2,
	{gltf.AccessorVec4, gltf.ComponentShort, false}:   wgpu.VertexFormatSint16x4,
	{gltf.AccessorVec2, gltf.ComponentShort, true}:    wgpu.VertexFormatSnorm16x2,
	{gltf.AccessorVec4, gltf.ComponentShort, true}:    wgpu.VertexFormatSnorm16x4,
	{gltf.AccessorScalar, gltf.ComponentFloat, false}: wgpu.VertexFormatFloat32,
	{gltf.AccessorVec2, gltf.ComponentFloat, false}:   wgpu.VertexFormatFloat32x2,
	{gltf.AccessorVec3, gltf.ComponentFloat, false}:   wgpu.VertexFormatFloat32x3,
	{gltf.AccessorVec4, gltf.ComponentFloat, false}:   wgpu.VertexFormatFloat32x4,
	{gltf.AccessorScalar, gltf.ComponentUint, false}:  wgpu.VertexFormatUint32,
	{gltf.AccessorVec2, gltf.ComponentUint, false}:    wgpu.VertexFormatUint32x2,
	{gltf.AccessorVec3, gltf.ComponentUint, false}:    wgpu.VertexFormatUint32x3,
	{gltf.AccessorVec4, gltf.ComponentUint, false}:    wgpu.VertexFormatUint32x4,
}

// orientationFormat is the quantized quaternion format the normal slot is redirected to.
const orientationFormat = wgpu.VertexFormatSnorm16x4

// attributeKind is the semantic of a glTF vertex attribute name.
type attributeKind int

const (
	attributeUnknown attributeKind = iota
	attributePosition
	attributeNormal
	attributeTangent
	attributeTexCoord
	attributeColor
	attributeJoints
	attributeWeights
)

var indexedAttributes = []struct {
	prefix string
	kind   attributeKind
}{
	{"TEXCOORD_", attributeTexCoord},
	{"COLOR_", attributeColor},
	{"JOINTS_", attributeJoints},
	{"WEIGHTS_", attributeWeights},
}

// parseAttribute splits a glTF attribute name such as "TEXCOORD_1" into its kind and set index.
func parseAttribute(name string) (attributeKind, int) {
	switch name {
	case gltf.POSITION:
		return attributePosition, 0
	case gltf.NORMAL:
		return attributeNormal, 0
	case gltf.TANGENT:
		return attributeTangent, 0
	}
	for _, a := range indexedAttributes {
		rest, ok := strings.CutPrefix(name, a.prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return a.kind, n
		}
		break
	}
	return attributeUnknown, 0
}

// hasVertexColors reports whether a primitive carries any COLOR_n attribute.
func hasVertexColors(attrs gltf.PrimitiveAttributes) bool {
	for name := range attrs {
		if kind, _ := parseAttribute(name); kind == attributeColor {
			return true
		}
	}
	return false
}

// gltfSamplerToStagingData converts a glTF sampler to sampler staging data.
// A nil sampler yields the defaults: repeat wrapping, linear magnification, linear-mipmap-linear minification.
//
// Parameters:
//   - s: the glTF sampler, may be nil
//
// Returns:
//   - common.SamplerStagingData: the converted sampler configuration
func gltfSamplerToStagingData(s *gltf.Sampler) common.SamplerStagingData {
	result := common.DefaultSamplerStagingData()
	if s == nil {
		return result
	}

	switch s.MagFilter {
	case gltf.MagNearest:
		result.MagFilter = wgpu.FilterModeNearest
	case gltf.MagLinear:
		result.MagFilter = wgpu.FilterModeLinear
	}

	switch s.MinFilter {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		result.MinFilter = wgpu.FilterModeNearest
	case gltf.MinLinear, gltf.MinLinearMipMapNearest, gltf.MinLinearMipMapLinear:
		result.MinFilter = wgpu.FilterModeLinear
	}
	switch s.MinFilter {
	case gltf.MinNearestMipMapNearest, gltf.MinLinearMipMapNearest:
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gltf.MinNearestMipMapLinear, gltf.MinLinearMipMapLinear:
		result.MipmapFilter = wgpu.MipmapFilterModeLinear
	case gltf.MinNearest, gltf.MinLinear:
		// non-mipmapped filters sample the base level only
		result.MipmapFilter = wgpu.MipmapFilterModeNearest
		result.LodMaxClamp = 0
	}

	result.AddressModeU = gltfWrapToAddressMode(s.WrapS)
	result.AddressModeV = gltfWrapToAddressMode(s.WrapT)
	return result
}

// gltfWrapToAddressMode converts a glTF wrapping mode to a wgpu AddressMode.
//
// Parameters:
//   - wrap: the glTF wrapping mode
//
// Returns:
//   - wgpu.AddressMode: the corresponding wgpu address mode, repeat for unknown values
func gltfWrapToAddressMode(wrap gltf.WrappingMode) wgpu.AddressMode {
	switch wrap {
	case gltf.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
