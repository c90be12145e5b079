package arbor

import (
	"math"
	"sort"

	"cogentcore.org/core/math32"
)

// Intersection is one ray hit.
type Intersection struct {
	Distance float32
	// Point is the hit in world space.
	Point math32.Vector3
	// Object is the object hit.
	Object *Object
	// EventObject is the object the event is delivered to. It differs from
	// Object for hits bubbled to an ancestor.
	EventObject *Object
	// FaceIndex is the triangle hit, or -1 for bounding-box hits.
	FaceIndex int
	// InstanceID is the instance hit on an instanced mesh, or -1.
	InstanceID int

	// store is the root the hit was found through; nil for stateless hits.
	store *Store
}

// Store returns the root the hit was found through, or nil.
func (h *Intersection) Store() *Store { return h.store }

type cameraBinding uint8

const (
	cameraUnresolved cameraBinding = iota
	cameraResolved
	cameraDisabled
)

// Raycaster casts rays from a camera into the scene.
type Raycaster struct {
	Ray       math32.Ray
	Near, Far float32
	Layers    uint32
	// Enabled turns the raycaster off when false.
	Enabled bool

	camera       *Object
	binding      cameraBinding
	userDisabled bool
}

// NewRaycaster returns an enabled raycaster with no camera.
func NewRaycaster() *Raycaster {
	return &Raycaster{Far: math32.Inf(1), Layers: LayerAll, Enabled: true}
}

// Camera returns the camera the ray was last cast from.
func (r *Raycaster) Camera() *Object { return r.camera }

// CameraResolved reports whether a camera has been bound.
func (r *Raycaster) CameraResolved() bool { return r.binding == cameraResolved }

// CameraDisabled reports whether the camera was explicitly cleared.
func (r *Raycaster) CameraDisabled() bool { return r.binding == cameraDisabled }

// DisableCamera clears the camera binding. Roots whose raycaster has no
// camera are skipped by the event subsystem.
func (r *Raycaster) DisableCamera() {
	r.camera = nil
	r.binding = cameraDisabled
	r.userDisabled = true
}

// resetCamera forgets the camera so the next event computes it again.
// An explicitly disabled camera stays disabled.
func (r *Raycaster) resetCamera() {
	if r.userDisabled {
		return
	}
	r.camera = nil
	r.binding = cameraUnresolved
}

// SetFromCamera aims the ray through ndc, in normalized device coordinates,
// from cam.
func (r *Raycaster) SetFromCamera(ndc math32.Vector2, cam *Object) {
	if cam == nil {
		return
	}
	cam.UpdateMatrixWorld()
	r.camera = cam
	r.binding = cameraResolved
	r.userDisabled = false
	switch cam.Kind {
	case ObjectOrthographicCamera:
		z := (cam.Near + cam.Far) / (cam.Near - cam.Far)
		origin := cam.Unproject(vec3(ndc.X, ndc.Y, z))
		r.Ray = math32.Ray{Origin: origin, Dir: transformDirection(cam.matrixWorld, vec3(0, 0, -1))}
	default:
		origin := cam.WorldPosition()
		target := cam.Unproject(vec3(ndc.X, ndc.Y, 0.5))
		r.Ray = math32.Ray{Origin: origin, Dir: normalize(target.Sub(origin))}
	}
}

// IntersectObject tests o, and its descendants when recursive, against the
// ray. Hits are sorted by distance.
func (r *Raycaster) IntersectObject(o *Object, recursive bool) []*Intersection {
	var hits []*Intersection
	if !r.Enabled || o == nil {
		return nil
	}
	o.UpdateMatrixWorld()
	r.intersect(o, recursive, &hits)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func (r *Raycaster) intersect(o *Object, recursive bool, hits *[]*Intersection) {
	if o.Layers&r.Layers != 0 {
		r.raycastObject(o, hits)
	}
	if recursive {
		for _, c := range o.children {
			r.intersect(c, true, hits)
		}
	}
}

// raycastObject appends the hits on o itself.
func (r *Raycaster) raycastObject(o *Object, hits *[]*Intersection) {
	if o.Geometry == nil {
		return
	}
	switch o.Kind {
	case ObjectMesh:
		r.raycastMesh(o, o.matrixWorld, -1, hits)
	case ObjectInstancedMesh:
		for id, m := range o.Instances {
			r.raycastMesh(o, multiplyMatrices(o.matrixWorld, m), id, hits)
		}
	}
}

// raycastMesh tests o's geometry placed by world. Triangle soups report the
// closest front face; other geometries are tested by their bounds.
func (r *Raycaster) raycastMesh(o *Object, world math32.Matrix4, instanceID int, hits *[]*Intersection) {
	g := o.Geometry
	if g.Bounds.IsEmpty() && len(g.Positions) == 0 {
		return
	}
	inv, ok := invertMatrix(world)
	if !ok {
		return
	}
	local := math32.Ray{
		Origin: transformPoint(inv, r.Ray.Origin),
		Dir:    transformDirection(inv, r.Ray.Dir),
	}
	if !g.Bounds.IsEmpty() {
		if _, hit := local.IntersectBox(g.Bounds); !hit {
			return
		}
	}

	face := -1
	var point math32.Vector3
	found := false
	if n := g.triangleCount(); n > 0 {
		best := float32(math.MaxFloat32)
		cull := !doubleSided(o.Material)
		for i := 0; i < n; i++ {
			a, b, c := g.triangle(i)
			p, hit := local.IntersectTriangle(a, b, c, cull)
			if !hit {
				continue
			}
			if d := p.Sub(local.Origin).Length(); d < best {
				best, point, face, found = d, p, i, true
			}
		}
	} else {
		point, found = local.IntersectBox(g.Bounds)
	}
	if !found {
		return
	}

	wp := transformPoint(world, point)
	dist := wp.Sub(r.Ray.Origin).Length()
	if dist < r.Near || dist > r.Far {
		return
	}
	*hits = append(*hits, &Intersection{
		Distance:   dist,
		Point:      wp,
		Object:     o,
		FaceIndex:  face,
		InstanceID: instanceID,
	})
}

func doubleSided(material any) bool {
	switch m := material.(type) {
	case *Material:
		return m != nil && m.DoubleSided
	case []*Material:
		for _, mm := range m {
			if mm != nil && mm.DoubleSided {
				return true
			}
		}
	}
	return false
}
