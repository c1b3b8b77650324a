package geometry

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestBoxSaveLoad(t *testing.T) {
	tests := []struct {
		name string
		box  prim.Box
	}{
		{"axis-aligned", prim.Box{Center: mgl64.Vec3{1, 2, 3}, Size: mgl64.Vec3{0.5, 1, 2}}},
		{"oriented", orientedBox(mgl64.Vec3{-1, 0, 4}, mgl64.Vec3{1, 1, 3}, mgl64.QuatRotate(math.Pi/5, mgl64.Vec3{1, 1, 0}.Normalize())).Box()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewBox(tt.box)
			var buf bytes.Buffer
			if err := src.Save(&buf); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			dst := NewBox(prim.Box{})
			if err := dst.Load(&buf); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if dst.ID() != src.ID() {
				t.Errorf("id = %v, want %v", dst.ID(), src.ID())
			}
			if dst.Box() != src.Box() {
				t.Errorf("box = %+v, want %+v", dst.Box(), src.Box())
			}
			if dst.ComputeAABB(prim.NewTransform()) != src.ComputeAABB(prim.NewTransform()) {
				t.Error("the bounding volume was not rebuilt")
			}
		})
	}
}

func TestHeightfieldSaveLoad(t *testing.T) {
	table := prim.NewHeightTable(3, 2)
	for i := range table.Heights {
		table.Heights[i] = float32(i) * 0.25
	}
	table.SetCellType(1, 1, -1)
	table.SetCellType(2, 0, 7)
	src := NewHeightfieldFromTable(mgl64.Vec3{1, 1, 0}, mgl64.Vec2{0.5, 2}, table, 3)

	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := NewHeightfieldFromTable(mgl64.Vec3{}, mgl64.Vec2{1, 1}, prim.NewHeightTable(1, 1), 1)
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if dst.ID() != src.ID() {
		t.Errorf("id = %v, want %v", dst.ID(), src.ID())
	}
	got, want := dst.Grid(), src.Grid()
	if got.Size != want.Size || got.Step != want.Step || got.Origin != want.Origin || got.HeightScale != want.HeightScale {
		t.Errorf("grid = %+v, want %+v", got, want)
	}
	for iy := 0; iy <= want.Size[1]; iy++ {
		for ix := 0; ix <= want.Size[0]; ix++ {
			if got.At(ix, iy) != want.At(ix, iy) {
				t.Errorf("height(%d, %d) = %v, want %v", ix, iy, got.At(ix, iy), want.At(ix, iy))
			}
		}
	}
	if !got.IsHole(1, 1) || got.IsHole(0, 0) || dst.Table().CellType(2, 0) != 7 {
		t.Error("cell types were not restored")
	}
	if dst.ComputeAABB(prim.NewTransform()) != src.ComputeAABB(prim.NewTransform()) {
		t.Error("bounds differ after reload")
	}
}

func TestRaySaveLoad(t *testing.T) {
	src := NewRay(mgl64.Vec3{1, -2, 3}, mgl64.Vec3{0.1, 0.2, -4})

	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if dst.ID() != src.ID() || dst.Ray() != src.Ray() {
		t.Errorf("ray = %+v %v, want %+v %v", dst.Ray(), dst.ID(), src.Ray(), src.ID())
	}
}

func TestSaveLoadSequence(t *testing.T) {
	box := NewBox(prim.Box{Size: mgl64.Vec3{1, 1, 1}})
	ray := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	hf, _ := flatGrid(2)

	var buf bytes.Buffer
	for _, g := range []Geometry{box, ray, hf} {
		if err := g.Save(&buf); err != nil {
			t.Fatalf("Save(%v) error = %v", g.Kind(), err)
		}
	}

	loaded := []Geometry{NewBox(prim.Box{}), NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}), NewHeightfield(prim.Heightfield{})}
	for _, g := range loaded {
		if err := g.Load(&buf); err != nil {
			t.Fatalf("Load(%v) error = %v", g.Kind(), err)
		}
	}
	if loaded[0].ID() != box.ID() || loaded[1].ID() != ray.ID() || loaded[2].ID() != hf.ID() {
		t.Error("records were read out of order")
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes left over", buf.Len())
	}
}

func TestLoadErrors(t *testing.T) {
	var boxRecord bytes.Buffer
	if err := NewBox(prim.Box{Size: mgl64.Vec3{1, 1, 1}}).Save(&boxRecord); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw := boxRecord.Bytes()

	t.Run("kind mismatch", func(t *testing.T) {
		err := NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}).Load(bytes.NewReader(raw))
		if errors.Cause(err) != ErrKindMismatch {
			t.Errorf("err = %v, want ErrKindMismatch", err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		if err := NewBox(prim.Box{}).Load(bytes.NewReader(raw[:len(raw)-5])); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if err := NewBox(prim.Box{}).Load(bytes.NewReader(nil)); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("oversized record length", func(t *testing.T) {
		stream := protowire.AppendVarint(nil, 1<<62)
		err := NewBox(prim.Box{}).Load(bytes.NewReader(stream))
		if err == nil || !strings.Contains(err.Error(), "exceeds") {
			t.Errorf("err = %v, want a size error", err)
		}
	})

	t.Run("invalid grid size", func(t *testing.T) {
		sizes := [][2]uint64{{0, 4}, {4, 0}, {1 << 40, 1}, {1 << 13, 1 << 13}}
		for _, size := range sizes {
			rec := newRecord(KindHeightfield, newID())
			rec.varint(fieldCellsX, size[0])
			rec.varint(fieldCellsY, size[1])
			var buf bytes.Buffer
			if err := rec.flush(&buf); err != nil {
				t.Fatalf("flush() error = %v", err)
			}

			hf, _ := flatGrid(1)
			if err := hf.Load(&buf); err == nil || !strings.Contains(err.Error(), "invalid grid") {
				t.Errorf("cells %v: err = %v, want a grid size error", size, err)
			}
		}
	})

	t.Run("short vector", func(t *testing.T) {
		rec := newRecord(KindBox, newID())
		rec.floats(fieldOrigin, 1, 2)
		var buf bytes.Buffer
		if err := rec.flush(&buf); err != nil {
			t.Fatalf("flush() error = %v", err)
		}
		if err := NewBox(prim.Box{}).Load(&buf); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestHeightfieldLoadIntoZeroValue(t *testing.T) {
	src, _ := flatGrid(2)
	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	dst := &Heightfield{}
	if err := dst.Load(&buf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if dst.Tolerances != DefaultTolerances() {
		t.Errorf("tolerances = %+v, want the defaults", dst.Tolerances)
	}
	if dst.Grid().Size != [2]int{2, 2} {
		t.Errorf("size = %v, want [2 2]", dst.Grid().Size)
	}
}
