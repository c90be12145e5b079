package arbor

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rayAt(x, y, z, dz float32) *Raycaster {
	r := NewRaycaster()
	r.Ray = math32.Ray{Origin: vec3(x, y, z), Dir: vec3(0, 0, dz)}
	return r
}

func TestRaycastBoxBounds(t *testing.T) {
	box := NewMesh("box", NewBoxGeometry(1, 1, 1), NewMaterial("m"))
	hits := rayAt(0, 0, 5, -1).IntersectObject(box, false)
	require.Len(t, hits, 1)
	h := hits[0]
	assert.InDelta(t, 4.5, h.Distance, epsilon)
	assertVec3(t, vec3(0, 0, 0.5), h.Point)
	assert.Same(t, box, h.Object)
	assert.Equal(t, -1, h.FaceIndex)
	assert.Equal(t, -1, h.InstanceID)
	assert.Nil(t, h.Store())

	assert.Empty(t, rayAt(2, 0, 5, -1).IntersectObject(box, false))
}

func TestRaycastPlaneFaces(t *testing.T) {
	plane := NewMesh("plane", NewPlaneGeometry(1, 1), NewMaterial("m"))

	hits := rayAt(0.25, -0.25, 5, -1).IntersectObject(plane, false)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].FaceIndex)
	assert.InDelta(t, 5, hits[0].Distance, epsilon)

	hits = rayAt(-0.25, 0.25, 5, -1).IntersectObject(plane, false)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].FaceIndex)
}

func TestRaycastBackfaceCulling(t *testing.T) {
	mat := NewMaterial("m")
	plane := NewMesh("plane", NewPlaneGeometry(1, 1), mat)
	behind := rayAt(0.25, -0.25, -5, 1)

	assert.Empty(t, behind.IntersectObject(plane, false))

	mat.DoubleSided = true
	hits := behind.IntersectObject(plane, false)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].FaceIndex)

	plane.Material = []*Material{NewMaterial("a"), mat}
	assert.Len(t, behind.IntersectObject(plane, false), 1)
}

func TestRaycastInstancedMesh(t *testing.T) {
	im := NewInstancedMesh("crowd", NewBoxGeometry(1, 1, 1), NewMaterial("m"), 2)
	im.Instances[1] = composeMatrix(vec3(3, 0, 0), vec3(0, 0, 0), vec3(1, 1, 1))

	hits := rayAt(3, 0, 5, -1).IntersectObject(im, false)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].InstanceID)
	assertVec3(t, vec3(3, 0, 0.5), hits[0].Point)

	hits = rayAt(0, 0, 5, -1).IntersectObject(im, false)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].InstanceID)
}

func TestRaycastFilters(t *testing.T) {
	box := NewMesh("box", NewBoxGeometry(1, 1, 1), nil)
	r := rayAt(0, 0, 5, -1)

	box.Layers = 1 << 1
	r.Layers = LayerDefault
	assert.Empty(t, r.IntersectObject(box, false))
	r.Layers = LayerAll
	assert.Len(t, r.IntersectObject(box, false), 1)

	r.Far = 4
	assert.Empty(t, r.IntersectObject(box, false))
	r.Far, r.Near = math32.Inf(1), 5
	assert.Empty(t, r.IntersectObject(box, false))
	r.Near = 0

	r.Enabled = false
	assert.Nil(t, r.IntersectObject(box, false))
	r.Enabled = true
	assert.Nil(t, r.IntersectObject(nil, true))

	assert.Empty(t, r.IntersectObject(NewMesh("empty", nil, nil), false))
}

func TestRaycastRecursiveSorted(t *testing.T) {
	group := NewGroup("group")
	group.SetPosition(0, 0, -1)
	near := NewMesh("near", NewBoxGeometry(1, 1, 1), nil)
	far := NewMesh("far", NewBoxGeometry(1, 1, 1), nil)
	far.SetPosition(0, 0, -3)
	group.Add(far)
	group.Add(near)

	r := rayAt(0, 0, 5, -1)
	assert.Empty(t, r.IntersectObject(group, false))

	hits := r.IntersectObject(group, true)
	require.Len(t, hits, 2)
	assert.Same(t, near, hits[0].Object)
	assert.InDelta(t, 5.5, hits[0].Distance, epsilon)
	assert.Same(t, far, hits[1].Object)
	assert.InDelta(t, 8.5, hits[1].Distance, epsilon)
}

func TestSetFromPerspectiveCamera(t *testing.T) {
	cam := NewPerspectiveCamera(75, 1, 0.1, 1000)
	cam.SetPosition(0, 0, 5)
	r := NewRaycaster()
	assert.False(t, r.CameraResolved())

	r.SetFromCamera(math32.Vec2(0, 0), cam)
	assert.True(t, r.CameraResolved())
	assert.Same(t, cam, r.Camera())
	assertVec3(t, vec3(0, 0, 5), r.Ray.Origin)
	assertVec3(t, vec3(0, 0, -1), r.Ray.Dir)

	r.SetFromCamera(math32.Vec2(1, 0), nil)
	assertVec3(t, vec3(0, 0, -1), r.Ray.Dir)
}

func TestSetFromOrthographicCamera(t *testing.T) {
	cam := NewOrthographicCamera(-4, 4, 3, -3, 0.1, 100)
	cam.SetPosition(0, 0, 5)
	r := NewRaycaster()
	r.SetFromCamera(math32.Vec2(0.5, 0.5), cam)

	assert.InDelta(t, 2, r.Ray.Origin.X, epsilon)
	assert.InDelta(t, 1.5, r.Ray.Origin.Y, epsilon)
	assertVec3(t, vec3(0, 0, -1), r.Ray.Dir)
}

func TestRaycasterCameraBinding(t *testing.T) {
	r := NewRaycaster()
	r.DisableCamera()
	assert.True(t, r.CameraDisabled())
	r.resetCamera()
	assert.True(t, r.CameraDisabled())

	cam := NewPerspectiveCamera(75, 1, 0.1, 1000)
	r.SetFromCamera(math32.Vec2(0, 0), cam)
	assert.True(t, r.CameraResolved())
	r.resetCamera()
	assert.False(t, r.CameraResolved())
	assert.Nil(t, r.Camera())
}
