package ebitenhost

import (
	"image/color"

	"cogentcore.org/core/math32"
	"github.com/phanxgames/arbor"
)

// Segment is one projected wireframe edge in screen pixels.
type Segment struct {
	X0, Y0, X1, Y1 float32
	Color          color.RGBA
}

// boxEdges index the corners returned by boxCorners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func boxCorners(b math32.Box3) [8]math32.Vector3 {
	var c [8]math32.Vector3
	for i := range c {
		c[i] = b.Min
		if i&1 != 0 {
			c[i].X = b.Max.X
		}
		if i&2 != 0 {
			c[i].Y = b.Max.Y
		}
		if i&4 != 0 {
			c[i].Z = b.Max.Z
		}
	}
	return c
}

// Wireframe projects the visible meshes of scene through camera into a
// width by height surface. Triangle geometries draw their triangles, other
// geometries their bounds. Edges with an end outside the clip volume are
// dropped.
func Wireframe(scene, camera *arbor.Object, width, height float64) []Segment {
	if scene == nil || camera == nil {
		return nil
	}
	scene.UpdateMatrixWorld()
	var out []Segment
	var walk func(o *arbor.Object)
	walk = func(o *arbor.Object) {
		if !o.Visible {
			return
		}
		switch o.Kind {
		case arbor.ObjectMesh:
			out = appendMesh(out, o, -1, camera, width, height)
		case arbor.ObjectInstancedMesh:
			for i := range o.Instances {
				out = appendMesh(out, o, i, camera, width, height)
			}
		}
		for _, c := range o.Children() {
			walk(c)
		}
	}
	walk(scene)
	return out
}

func appendMesh(out []Segment, o *arbor.Object, instance int, camera *arbor.Object, width, height float64) []Segment {
	g := o.Geometry
	if g == nil {
		return out
	}
	clr := meshColor(o.Material)
	edge := func(a, b math32.Vector3) {
		pa := camera.Project(o.WorldPoint(a, instance))
		pb := camera.Project(o.WorldPoint(b, instance))
		if !inClip(pa) || !inClip(pb) {
			return
		}
		x0, y0 := toScreen(pa, width, height)
		x1, y1 := toScreen(pb, width, height)
		out = append(out, Segment{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: clr})
	}
	if len(g.Positions) > 0 {
		tri := func(i int) (math32.Vector3, math32.Vector3, math32.Vector3) {
			if len(g.Indices) > 0 {
				return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
			}
			return g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]
		}
		n := len(g.Positions) / 3
		if len(g.Indices) > 0 {
			n = len(g.Indices) / 3
		}
		for i := 0; i < n; i++ {
			a, b, c := tri(i)
			edge(a, b)
			edge(b, c)
			edge(c, a)
		}
		return out
	}
	if g.Bounds.IsEmpty() {
		return out
	}
	corners := boxCorners(g.Bounds)
	for _, e := range boxEdges {
		edge(corners[e[0]], corners[e[1]])
	}
	return out
}

func inClip(p math32.Vector3) bool {
	return p.X >= -1 && p.X <= 1 && p.Y >= -1 && p.Y <= 1 && p.Z >= -1 && p.Z <= 1
}

func toScreen(ndc math32.Vector3, width, height float64) (float32, float32) {
	return float32((float64(ndc.X) + 1) / 2 * width), float32((1 - float64(ndc.Y)) / 2 * height)
}

func meshColor(material any) color.RGBA {
	var m *arbor.Material
	switch v := material.(type) {
	case *arbor.Material:
		m = v
	case []*arbor.Material:
		if len(v) > 0 {
			m = v[0]
		}
	}
	if m == nil {
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	to8 := func(f float32) uint8 { return uint8(math32.Clamp(f, 0, 1) * 255) }
	return color.RGBA{to8(m.Color.R), to8(m.Color.G), to8(m.Color.B), 0xff}
}
