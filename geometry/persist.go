package geometry

import (
	"io"
	"math"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Records are length-prefixed protobuf messages. Field numbers are shared by every
// geometry kind; a record only holds the fields of its kind.
const (
	fieldKind        protowire.Number = 1
	fieldID          protowire.Number = 2
	fieldOrigin      protowire.Number = 3
	fieldSize        protowire.Number = 4
	fieldBasis       protowire.Number = 5
	fieldOriented    protowire.Number = 6
	fieldStep        protowire.Number = 7
	fieldCellsX      protowire.Number = 8
	fieldCellsY      protowire.Number = 9
	fieldHeightScale protowire.Number = 10
	fieldHeights     protowire.Number = 11
	fieldTypes       protowire.Number = 12
	fieldDir         protowire.Number = 13
)

const (
	maxVarintLen = 10
	// maxRecordBytes bounds the body of a single record
	maxRecordBytes = 256 << 20
	// maxGridCells bounds the cell count of a loaded heightfield
	maxGridCells = 1 << 24
)

// ErrKindMismatch is returned when loading a record written by another geometry kind
var ErrKindMismatch = errors.New("geometry kind mismatch")

type recordWriter struct {
	b []byte
}

func newRecord(kind Kind, id uuid.UUID) *recordWriter {
	w := &recordWriter{}
	w.varint(fieldKind, uint64(kind))
	w.bytes(fieldID, id[:])
	return w
}

func (w *recordWriter) varint(num protowire.Number, v uint64) {
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, v)
}

func (w *recordWriter) bool(num protowire.Number, v bool) {
	w.varint(num, protowire.EncodeBool(v))
}

func (w *recordWriter) bytes(num protowire.Number, p []byte) {
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendBytes(w.b, p)
}

// floats writes vs as one packed run of fixed64 values
func (w *recordWriter) floats(num protowire.Number, vs ...float64) {
	p := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		p = protowire.AppendFixed64(p, math.Float64bits(v))
	}
	w.bytes(num, p)
}

func (w *recordWriter) flush(dst io.Writer) error {
	buf := protowire.AppendVarint(make([]byte, 0, len(w.b)+maxVarintLen), uint64(len(w.b)))
	buf = append(buf, w.b...)
	_, err := dst.Write(buf)
	return errors.Wrap(err, "write geometry record")
}

// record is a decoded message: the header plus its raw fields
type record struct {
	kind    Kind
	id      uuid.UUID
	varints map[protowire.Number]uint64
	bytes   map[protowire.Number][]byte
}

func readRecord(r io.Reader) (*record, error) {
	var hdr []byte
	var one [1]byte
	for {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return nil, errors.Wrap(err, "read record length")
		}
		hdr = append(hdr, one[0])
		if one[0] < 0x80 {
			break
		}
		if len(hdr) == maxVarintLen {
			return nil, errors.New("record length overflows")
		}
	}
	n, m := protowire.ConsumeVarint(hdr)
	if m < 0 {
		return nil, errors.Wrap(protowire.ParseError(m), "decode record length")
	}

	if n > maxRecordBytes {
		return nil, errors.Errorf("record body of %d bytes exceeds %d", n, maxRecordBytes)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrapf(err, "read record body of %d bytes", n)
	}
	return parseRecord(b)
}

func parseRecord(b []byte) (*record, error) {
	rec := &record{
		varints: make(map[protowire.Number]uint64),
		bytes:   make(map[protowire.Number][]byte),
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "decode field tag")
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "decode field %d", num)
			}
			rec.varints[num] = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "decode field %d", num)
			}
			rec.bytes[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "skip field %d", num)
			}
			b = b[n:]
		}
	}

	rec.kind = Kind(rec.varints[fieldKind])
	id, err := uuid.FromBytes(rec.bytes[fieldID])
	if err != nil {
		return nil, errors.Wrap(err, "decode geometry id")
	}
	rec.id = id
	return rec, nil
}

func (rec *record) expect(kind Kind) error {
	if rec.kind != kind {
		return errors.Wrapf(ErrKindMismatch, "record holds a %v, want a %v", rec.kind, kind)
	}
	return nil
}

// floats decodes a packed fixed64 run of exactly len(out) values
func (rec *record) floats(num protowire.Number, out []float64) error {
	p, ok := rec.bytes[num]
	if !ok {
		return errors.Errorf("missing field %d", num)
	}
	if len(p) != 8*len(out) {
		return errors.Errorf("field %d holds %d bytes, want %d", num, len(p), 8*len(out))
	}
	for i := range out {
		v, n := protowire.ConsumeFixed64(p)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "decode field %d", num)
		}
		out[i] = math.Float64frombits(v)
		p = p[n:]
	}
	return nil
}

func (rec *record) vec3(num protowire.Number) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	err := rec.floats(num, v[:])
	return v, err
}

func (g *Box) Save(w io.Writer) error {
	rec := newRecord(KindBox, g.id)
	rec.floats(fieldOrigin, g.box.Center[:]...)
	rec.floats(fieldSize, g.box.Size[:]...)
	rec.floats(fieldBasis, g.box.Basis[:]...)
	rec.bool(fieldOriented, g.box.Oriented)
	return errors.Wrapf(rec.flush(w), "save box %s", g.id)
}

func (g *Box) Load(r io.Reader) error {
	rec, err := readRecord(r)
	if err != nil {
		return errors.Wrap(err, "load box")
	}
	if err := rec.expect(KindBox); err != nil {
		return err
	}

	var b prim.Box
	if b.Center, err = rec.vec3(fieldOrigin); err != nil {
		return errors.Wrap(err, "load box center")
	}
	if b.Size, err = rec.vec3(fieldSize); err != nil {
		return errors.Wrap(err, "load box size")
	}
	if err = rec.floats(fieldBasis, b.Basis[:]); err != nil {
		return errors.Wrap(err, "load box basis")
	}
	b.Oriented = protowire.DecodeBool(rec.varints[fieldOriented])

	g.id = rec.id
	g.set(b)
	return nil
}

func (h *Heightfield) Save(w io.Writer) error {
	hf := h.hf
	rec := newRecord(KindHeightfield, h.id)
	rec.floats(fieldOrigin, hf.Origin[:]...)
	rec.floats(fieldBasis, hf.Basis[:]...)
	rec.bool(fieldOriented, hf.Oriented)
	rec.floats(fieldStep, hf.Step[:]...)
	rec.varint(fieldCellsX, uint64(hf.Size[0]))
	rec.varint(fieldCellsY, uint64(hf.Size[1]))
	rec.floats(fieldHeightScale, hf.HeightScale)

	heights := make([]byte, 0, 4*(hf.Size[0]+1)*(hf.Size[1]+1))
	for iy := 0; iy <= hf.Size[1]; iy++ {
		for ix := 0; ix <= hf.Size[0]; ix++ {
			heights = protowire.AppendFixed32(heights, math.Float32bits(float32(hf.Height(ix, iy))))
		}
	}
	rec.bytes(fieldHeights, heights)

	if hf.CellType != nil {
		types := make([]byte, 0, hf.Size[0]*hf.Size[1])
		for iy := 0; iy < hf.Size[1]; iy++ {
			for ix := 0; ix < hf.Size[0]; ix++ {
				types = append(types, byte(int8(hf.CellType(ix, iy))))
			}
		}
		rec.bytes(fieldTypes, types)
	}

	return errors.Wrapf(rec.flush(w), "save heightfield %s", h.id)
}

// Load replaces the grid with a table-backed copy of the record
func (h *Heightfield) Load(r io.Reader) error {
	rec, err := readRecord(r)
	if err != nil {
		return errors.Wrap(err, "load heightfield")
	}
	if err := rec.expect(KindHeightfield); err != nil {
		return err
	}

	cellsX, cellsY := rec.varints[fieldCellsX], rec.varints[fieldCellsY]
	if cellsX == 0 || cellsY == 0 || cellsX > maxGridCells || cellsY > maxGridCells || cellsX*cellsY > maxGridCells {
		return errors.Errorf("load heightfield: invalid grid of %d×%d cells", cellsX, cellsY)
	}

	var hf prim.Heightfield
	if hf.Origin, err = rec.vec3(fieldOrigin); err != nil {
		return errors.Wrap(err, "load heightfield origin")
	}
	if err = rec.floats(fieldBasis, hf.Basis[:]); err != nil {
		return errors.Wrap(err, "load heightfield basis")
	}
	hf.Oriented = protowire.DecodeBool(rec.varints[fieldOriented])

	var step mgl64.Vec2
	if err = rec.floats(fieldStep, step[:]); err != nil {
		return errors.Wrap(err, "load heightfield step")
	}
	hf.SetStep(step)

	var scale [1]float64
	if err = rec.floats(fieldHeightScale, scale[:]); err != nil {
		return errors.Wrap(err, "load heightfield scale")
	}
	hf.HeightScale = scale[0]

	table := prim.NewHeightTable(int(cellsX), int(cellsY))
	heights := rec.bytes[fieldHeights]
	if len(heights) != 4*len(table.Heights) {
		return errors.Errorf("load heightfield: %d height bytes for %d samples", len(heights), len(table.Heights))
	}
	for i := range table.Heights {
		v, n := protowire.ConsumeFixed32(heights)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "load heightfield samples")
		}
		table.Heights[i] = math.Float32frombits(v)
		heights = heights[n:]
	}

	if types, ok := rec.bytes[fieldTypes]; ok {
		if len(types) != len(table.Types) {
			return errors.Errorf("load heightfield: %d cell types for %d cells", len(types), len(table.Types))
		}
		for i, v := range types {
			table.Types[i] = int8(v)
		}
	}
	table.Bind(&hf)

	if h.Tolerances == (Tolerances{}) {
		h.Tolerances = DefaultTolerances()
	}
	h.id = rec.id
	h.table = table
	h.set(hf)
	return nil
}

func (g *Ray) Save(w io.Writer) error {
	rec := newRecord(KindRay, g.id)
	rec.floats(fieldOrigin, g.ray.Origin[:]...)
	rec.floats(fieldDir, g.ray.Dir[:]...)
	return errors.Wrapf(rec.flush(w), "save ray %s", g.id)
}

func (g *Ray) Load(r io.Reader) error {
	rec, err := readRecord(r)
	if err != nil {
		return errors.Wrap(err, "load ray")
	}
	if err := rec.expect(KindRay); err != nil {
		return err
	}

	var ray prim.Ray
	if ray.Origin, err = rec.vec3(fieldOrigin); err != nil {
		return errors.Wrap(err, "load ray origin")
	}
	if ray.Dir, err = rec.vec3(fieldDir); err != nil {
		return errors.Wrap(err, "load ray direction")
	}

	g.id = rec.id
	g.set(ray)
	return nil
}
