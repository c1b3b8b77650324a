package prim

// FeatureNone is the packed id meaning "no feature"
const FeatureNone = -1

// Packed feature id tags. The numeric values are persisted with contacts and must not
// change.
const (
	tagBoxVertex = 0x00
	tagBoxEdge   = 0x20
	tagFace      = 0x40
	tagTriVertex = 0x80
	tagTriEdge   = 0xA0
	tagMask      = 0xE0
)

// TriFace is the feature id of a triangle's face
const TriFace = tagFace

type FeatureKind uint8

const (
	FeatureVertex FeatureKind = iota
	FeatureEdge
	FeatureFace
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureVertex:
		return "vertex"
	case FeatureEdge:
		return "edge"
	case FeatureFace:
		return "face"
	}
	return "unknown"
}

// Feature identifies a vertex, edge or face of a box.
//
// Signs meaning depends on Kind:
//   - vertex: bit i set means +Size along axis i (Axis unused)
//   - edge: the edge runs along Axis; bit 0 is the sign along the next axis (Axis+1 mod 3),
//     bit 1 the sign along the previous axis (Axis+2 mod 3)
//   - face: bit 0 set means the face on the positive side of Axis
type Feature struct {
	Kind  FeatureKind
	Axis  int
	Signs uint8
}

// Encode packs the feature into its integer id
func (f Feature) Encode() int {
	switch f.Kind {
	case FeatureVertex:
		return tagBoxVertex | int(f.Signs&7)
	case FeatureEdge:
		return tagBoxEdge | f.Axis<<2 | int(f.Signs&3)
	default:
		return tagFace | f.Axis<<1 | int(f.Signs&1)
	}
}

// DecodeBoxFeature is the inverse of Encode. It reports false for ids that do not name
// a box feature.
func DecodeBoxFeature(id int) (Feature, bool) {
	if id < 0 {
		return Feature{}, false
	}

	switch id & tagMask {
	case tagBoxVertex:
		if id > 7 {
			return Feature{}, false
		}
		return Feature{Kind: FeatureVertex, Signs: uint8(id)}, true
	case tagBoxEdge:
		axis := id >> 2 & 3
		if axis > 2 || id > tagBoxEdge|0x0F {
			return Feature{}, false
		}
		return Feature{Kind: FeatureEdge, Axis: axis, Signs: uint8(id & 3)}, true
	case tagFace:
		axis := id >> 1 & 3
		if axis > 2 || id > tagFace|0x07 {
			return Feature{}, false
		}
		return Feature{Kind: FeatureFace, Axis: axis, Signs: uint8(id & 1)}, true
	}
	return Feature{}, false
}

// BoxVertex returns the id of corner ivtx
func BoxVertex(ivtx int) int {
	return Feature{Kind: FeatureVertex, Signs: uint8(ivtx)}.Encode()
}

// BoxFace returns the id of the face of the given axis and side
func BoxFace(axis int, positive bool) int {
	f := Feature{Kind: FeatureFace, Axis: axis}
	if positive {
		f.Signs = 1
	}
	return f.Encode()
}

// EdgeFromVertex returns the id of the edge running along axis through corner ivtx
func EdgeFromVertex(ivtx, axis int) int {
	signs := ivtx>>incMod3[axis]&1 | (ivtx>>decMod3[axis]&1)<<1
	return Feature{Kind: FeatureEdge, Axis: axis, Signs: uint8(signs)}.Encode()
}

// VertexFromEdge returns the corner at one end of an edge: end 0 is the negative end
// along the edge axis, end 1 the positive one.
func VertexFromEdge(f Feature, end int) int {
	return (end&1)<<f.Axis | int(f.Signs&1)<<incMod3[f.Axis] | int(f.Signs>>1&1)<<decMod3[f.Axis]
}

// VertexSigns returns the corner index whose signs match the local point components
func VertexSigns(local [3]float64) int {
	ivtx := 0
	for i := 0; i < 3; i++ {
		if local[i] > 0 {
			ivtx |= 1 << i
		}
	}
	return ivtx
}

// TriVertex returns the id of triangle vertex i
func TriVertex(i int) int { return tagTriVertex | i }

// TriEdge returns the id of triangle edge i, running from Pt[i] to Pt[(i+1)%3]
func TriEdge(i int) int { return tagTriEdge | i }

// DecodeTriFeature splits a triangle feature id into its kind and element index
func DecodeTriFeature(id int) (FeatureKind, int, bool) {
	if id < 0 {
		return 0, 0, false
	}
	switch id & tagMask {
	case tagTriVertex:
		if id&0x1F > 2 {
			return 0, 0, false
		}
		return FeatureVertex, id & 3, true
	case tagTriEdge:
		if id&0x1F > 2 {
			return 0, 0, false
		}
		return FeatureEdge, id & 3, true
	case tagFace:
		if id != tagFace {
			return 0, 0, false
		}
		return FeatureFace, 0, true
	}
	return 0, 0, false
}
