package arbor

import (
	"cogentcore.org/core/math32"
)

// Camera helpers operate on objects whose Kind is a camera kind. They are
// no-ops (or return the identity) for other kinds.

// ProjectionMatrix returns the camera's projection for its current
// parameters. Zoom narrows the frustum.
func (o *Object) ProjectionMatrix() math32.Matrix4 {
	switch o.Kind {
	case ObjectPerspectiveCamera:
		fov := o.Fov
		if o.Zoom > 0 && o.Zoom != 1 {
			fov = float32(2 * math32.Atan(math32.Tan(fov*math32.Pi/360)/o.Zoom) * 180 / math32.Pi)
		}
		return perspectiveMatrix(fov, o.Aspect, o.Near, o.Far)
	case ObjectOrthographicCamera:
		zoom := o.Zoom
		if zoom <= 0 {
			zoom = 1
		}
		cx := (o.Left + o.Right) / 2
		cy := (o.Top + o.Bottom) / 2
		dx := (o.Right - o.Left) / (2 * zoom)
		dy := (o.Top - o.Bottom) / (2 * zoom)
		return orthographicMatrix(cx-dx, cx+dx, cy+dy, cy-dy, o.Near, o.Far)
	default:
		return identityMatrix()
	}
}

// ViewMatrix returns the inverse of the camera's world matrix.
func (o *Object) ViewMatrix() math32.Matrix4 {
	inv, _ := invertMatrix(o.matrixWorld)
	return inv
}

// Project converts a world-space point to normalized device coordinates.
func (o *Object) Project(world math32.Vector3) math32.Vector3 {
	o.UpdateMatrixWorld()
	return transformPoint(multiplyMatrices(o.ProjectionMatrix(), o.ViewMatrix()), world)
}

// Unproject converts normalized device coordinates to a world-space point.
func (o *Object) Unproject(ndc math32.Vector3) math32.Vector3 {
	o.UpdateMatrixWorld()
	invProj, _ := invertMatrix(o.ProjectionMatrix())
	return transformPoint(o.matrixWorld, transformPoint(invProj, ndc))
}

// UpdateAspect fits the camera to a drawable area. Perspective cameras take
// the new aspect ratio; orthographic cameras take a pixel-sized frustum
// centered on the origin. Manual cameras are left untouched.
func (o *Object) UpdateAspect(size Size) {
	if o.Manual || size.Width <= 0 || size.Height <= 0 {
		return
	}
	switch o.Kind {
	case ObjectPerspectiveCamera:
		o.Aspect = float32(size.Width / size.Height)
	case ObjectOrthographicCamera:
		w, h := float32(size.Width)/2, float32(size.Height)/2
		o.Left, o.Right, o.Top, o.Bottom = -w, w, h, -h
	}
}

// pointerToNDC maps a pointer offset inside size to normalized device
// coordinates in [-1, 1], Y up.
func pointerToNDC(offsetX, offsetY float64, size Size) math32.Vector2 {
	if size.Width <= 0 || size.Height <= 0 {
		return math32.Vector2{}
	}
	return math32.Vec2(
		float32(offsetX/size.Width*2-1),
		float32(-(offsetY/size.Height)*2+1),
	)
}
