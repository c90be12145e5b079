package arbor

import "cogentcore.org/core/math32"

// Geometry describes the shape of a mesh. Bounds is used for ray tests;
// when Positions is non-empty, rays are tested against its triangles
// (indexed by Indices when set, otherwise consecutive triples).
type Geometry struct {
	Slot

	ID        uint32
	Name      string
	Bounds    math32.Box3
	Positions []math32.Vector3
	Indices   []int

	disposed bool
}

// NewGeometry creates a geometry with the given bounds.
func NewGeometry(name string, bounds math32.Box3) *Geometry {
	return &Geometry{ID: nextObjectID(), Name: name, Bounds: bounds}
}

// NewBoxGeometry creates an axis-aligned box centered on the origin.
func NewBoxGeometry(width, height, depth float32) *Geometry {
	w, h, d := width/2, height/2, depth/2
	return NewGeometry("box", math32.B3(-w, -h, -d, w, h, d))
}

// NewPlaneGeometry creates a plane in the XY plane made of two triangles.
func NewPlaneGeometry(width, height float32) *Geometry {
	w, h := width/2, height/2
	g := NewGeometry("plane", math32.B3(-w, -h, 0, w, h, 0))
	g.Positions = []math32.Vector3{
		vec3(-w, -h, 0), vec3(w, -h, 0), vec3(w, h, 0), vec3(-w, h, 0),
	}
	g.Indices = []int{0, 1, 2, 0, 2, 3}
	return g
}

// DefaultAttach reports the property a geometry attaches to.
func (g *Geometry) DefaultAttach() string { return "geometry" }

// Dispose releases the geometry.
func (g *Geometry) Dispose() { g.disposed = true }

// IsDisposed reports whether Dispose was called.
func (g *Geometry) IsDisposed() bool { return g.disposed }

// triangleCount returns the number of triangles in the triangle soup.
func (g *Geometry) triangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// triangle returns the vertices of triangle i.
func (g *Geometry) triangle(i int) (a, b, c math32.Vector3) {
	if len(g.Indices) > 0 {
		return g.Positions[g.Indices[3*i]], g.Positions[g.Indices[3*i+1]], g.Positions[g.Indices[3*i+2]]
	}
	return g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]
}

// Material describes the surface of a mesh.
type Material struct {
	Slot

	ID          uint32
	Name        string
	Color       Color
	Opacity     float32
	Transparent bool
	Wireframe   bool
	// DoubleSided makes back faces hittable.
	DoubleSided bool
	// NeedsUpdate is set whenever a property changes through applyProps.
	NeedsUpdate bool

	disposed bool
}

// NewMaterial creates an opaque white material.
func NewMaterial(name string) *Material {
	return &Material{ID: nextObjectID(), Name: name, Color: ColorWhite, Opacity: 1}
}

// DefaultAttach reports the property a material attaches to.
func (m *Material) DefaultAttach() string { return "material" }

// Dispose releases the material.
func (m *Material) Dispose() { m.disposed = true }

// IsDisposed reports whether Dispose was called.
func (m *Material) IsDisposed() bool { return m.disposed }

// Shadow describes the shadow map of a light.
type Shadow struct {
	Slot

	MapSize math32.Vector2
	Bias    float32
	Radius  float32
}

// NewShadow returns a shadow with a 512x512 map.
func NewShadow() *Shadow {
	return &Shadow{MapSize: math32.Vec2(512, 512), Radius: 1}
}

// Fog describes linear scene fog.
type Fog struct {
	Slot

	Color     Color
	Near, Far float32
}

// NewFog creates linear fog.
func NewFog(color Color, near, far float32) *Fog {
	return &Fog{Color: color, Near: near, Far: far}
}

// DefaultAttacher is implemented by values that know which parent property
// they attach to when no attach attribute is given.
type DefaultAttacher interface {
	DefaultAttach() string
}

// Disposer is implemented by values holding native resources.
type Disposer interface {
	Dispose()
}
