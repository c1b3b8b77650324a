package main

import (
	"bytes"
	"fmt"
	"math"

	"github.com/akmonengine/quill"
	"github.com/akmonengine/quill/conlog"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/prim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// lineCounter is a debug sink that only counts what it is given
type lineCounter struct {
	lines int
}

func (l *lineCounter) DrawLine(p0, p1 mgl64.Vec3, color int) {
	l.lines++
}

func (l *lineCounter) DrawGeometry(g geometry.Geometry, t prim.Transform, color int) {
	g.DrawWireframe(l, t, color)
}

// SetupTerrain creates a rolling 16×16 heightfield with a pond of holes in the middle
func SetupTerrain() *geometry.Heightfield {
	const cells = 16
	table := prim.NewHeightTable(cells, cells)
	for iy := 0; iy <= cells; iy++ {
		for ix := 0; ix <= cells; ix++ {
			h := 0.5*math.Sin(float64(ix)*0.4) + 0.5*math.Cos(float64(iy)*0.3)
			table.SetHeight(ix, iy, float32(h))
		}
	}
	for iy := 0; iy < cells; iy++ {
		for ix := 0; ix < cells; ix++ {
			table.SetCellType(ix, iy, int8((ix+iy)%4))
		}
	}
	for iy := 7; iy < 9; iy++ {
		for ix := 7; ix < 9; ix++ {
			table.SetCellType(ix, iy, -1)
		}
	}

	return geometry.NewHeightfieldFromTable(mgl64.Vec3{}, mgl64.Vec2{1, 1}, table, 1)
}

func SetupScene(terrain *geometry.Heightfield) (*quill.Scene, []*quill.Entry) {
	scene := quill.NewScene(2, 256)
	scene.Workers = 4
	scene.Add(terrain, prim.NewTransform())

	var crates []*quill.Entry
	for i := 0; i < 6; i++ {
		box := geometry.NewBox(prim.Box{Size: mgl64.Vec3{0.4, 0.4, 0.4}, Basis: mgl64.Ident3()})
		t := prim.NewTransform()
		t.Position = mgl64.Vec3{2 + 2*float64(i), 3, 2}
		t.Rotation = mgl64.QuatRotate(0.3*float64(i), mgl64.Vec3{0, 0, 1})
		crates = append(crates, scene.Add(box, t))
	}

	scene.Tracker.Subscribe(quill.CONTACT_ENTER, func(e quill.Event) {
		fmt.Printf("enter %s/%s: %d contacts, depth %.4f\n", e.A.String()[:8], e.B.String()[:8], len(e.Contacts), e.Contacts[0].T)
	})
	scene.Tracker.Subscribe(quill.CONTACT_EXIT, func(e quill.Event) {
		fmt.Printf("exit %s/%s\n", e.A.String()[:8], e.B.String()[:8])
	})

	return scene, crates
}

func main() {
	conlog.SetPrintf(func(format string, v ...interface{}) { fmt.Printf(format, v...) })

	terrain := SetupTerrain()
	scene, crates := SetupScene(terrain)

	// lower the crates until they rest on the terrain, then lift them back
	for step := 0; step < 40; step++ {
		dz := -0.1
		if step >= 30 {
			dz = 0.5
		}
		for _, c := range crates {
			c.Transform.Position = c.Transform.Position.Add(mgl64.Vec3{0, 0, dz})
			c.Sweep = mgl64.Vec3{0, 0, dz}
		}
		jobs := scene.Step()
		fmt.Printf("step %d: %d pairs\n", step, len(jobs))
	}

	if c, hit, ok := scene.RayCast(mgl64.Vec3{8, 8, 10}, mgl64.Vec3{0.2, 0.1, -20}); ok {
		fmt.Printf("ray hit %s at %v, distance %.4f\n", hit.Geometry.Kind(), c.Pt, c.T)
	} else {
		fmt.Println("ray went through the pond")
	}

	// save and reload the terrain
	var buf bytes.Buffer
	essentials.Must(terrain.Save(&buf))
	size := buf.Len()
	reloaded := &geometry.Heightfield{}
	essentials.Must(reloaded.Load(&buf))
	fmt.Printf("terrain record: %d bytes\n", size)

	sink := &lineCounter{}
	sink.DrawGeometry(reloaded, prim.NewTransform(), 0xffffff)
	fmt.Printf("wireframe: %d lines\n", sink.lines)

	// cross-check a ray against the exported mesh
	collider := model3d.MeshToCollider(reloaded.Triangulate().Model3D())
	origin, dir := mgl64.Vec3{3.3, 4.1, 5}, mgl64.Vec3{0, 0, -10}
	if coll, ok := collider.FirstRayCollision(&model3d.Ray{
		Origin:    model3d.Coord3D{X: origin.X(), Y: origin.Y(), Z: origin.Z()},
		Direction: model3d.Coord3D{X: dir.X(), Y: dir.Y(), Z: dir.Z()},
	}); ok {
		c, _ := reloaded.IntersectRay(prim.Ray{Origin: origin, Dir: dir}, prim.NewTransform(), geometry.CullNone)
		fmt.Printf("model3d distance %.6f, heightfield distance %.6f\n", coll.Scale*dir.Len(), c.T)
	}
}
