package arbor

import (
	"math"

	"cogentcore.org/core/math32"
)

// Matrices are column-major [16]float32 values, translation in elements
// 12..14, the layout math32.Box3.MulMatrix4 expects.

// identityMatrix returns the 4x4 identity matrix.
func identityMatrix() math32.Matrix4 {
	return math32.Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// composeMatrix builds Translate(pos) * Rotate(euler XYZ) * Scale(scale).
func composeMatrix(pos, rot, scale math32.Vector3) math32.Matrix4 {
	sx, cx := math.Sincos(float64(rot.X))
	sy, cy := math.Sincos(float64(rot.Y))
	sz, cz := math.Sincos(float64(rot.Z))
	a, b := float32(cx), float32(sx)
	c, d := float32(cy), float32(sy)
	e, f := float32(cz), float32(sz)
	ae, af, be, bf := a*e, a*f, b*e, b*f

	var m math32.Matrix4
	m[0] = c * e * scale.X
	m[1] = (af + be*d) * scale.X
	m[2] = (bf - ae*d) * scale.X
	m[4] = -c * f * scale.Y
	m[5] = (ae - bf*d) * scale.Y
	m[6] = (be + af*d) * scale.Y
	m[8] = d * scale.Z
	m[9] = -b * c * scale.Z
	m[10] = a * c * scale.Z
	m[12] = pos.X
	m[13] = pos.Y
	m[14] = pos.Z
	m[15] = 1
	return m
}

// multiplyMatrices returns a * b.
func multiplyMatrices(a, b math32.Matrix4) math32.Matrix4 {
	var r math32.Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// invertMatrix returns the inverse of m. ok is false, and the identity is
// returned, when m is singular.
func invertMatrix(m math32.Matrix4) (inv math32.Matrix4, ok bool) {
	inv[0] = m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	inv[4] = -m[4]*m[10]*m[15] + m[4]*m[11]*m[14] + m[8]*m[6]*m[15] - m[8]*m[7]*m[14] - m[12]*m[6]*m[11] + m[12]*m[7]*m[10]
	inv[8] = m[4]*m[9]*m[15] - m[4]*m[11]*m[13] - m[8]*m[5]*m[15] + m[8]*m[7]*m[13] + m[12]*m[5]*m[11] - m[12]*m[7]*m[9]
	inv[12] = -m[4]*m[9]*m[14] + m[4]*m[10]*m[13] + m[8]*m[5]*m[14] - m[8]*m[6]*m[13] - m[12]*m[5]*m[10] + m[12]*m[6]*m[9]
	inv[1] = -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	inv[5] = m[0]*m[10]*m[15] - m[0]*m[11]*m[14] - m[8]*m[2]*m[15] + m[8]*m[3]*m[14] + m[12]*m[2]*m[11] - m[12]*m[3]*m[10]
	inv[9] = -m[0]*m[9]*m[15] + m[0]*m[11]*m[13] + m[8]*m[1]*m[15] - m[8]*m[3]*m[13] - m[12]*m[1]*m[11] + m[12]*m[3]*m[9]
	inv[13] = m[0]*m[9]*m[14] - m[0]*m[10]*m[13] - m[8]*m[1]*m[14] + m[8]*m[2]*m[13] + m[12]*m[1]*m[10] - m[12]*m[2]*m[9]
	inv[2] = m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	inv[6] = -m[0]*m[6]*m[15] + m[0]*m[7]*m[14] + m[4]*m[2]*m[15] - m[4]*m[3]*m[14] - m[12]*m[2]*m[7] + m[12]*m[3]*m[6]
	inv[10] = m[0]*m[5]*m[15] - m[0]*m[7]*m[13] - m[4]*m[1]*m[15] + m[4]*m[3]*m[13] + m[12]*m[1]*m[7] - m[12]*m[3]*m[5]
	inv[14] = -m[0]*m[5]*m[14] + m[0]*m[6]*m[13] + m[4]*m[1]*m[14] - m[4]*m[2]*m[13] - m[12]*m[1]*m[6] + m[12]*m[2]*m[5]
	inv[3] = -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	inv[7] = m[0]*m[6]*m[11] - m[0]*m[7]*m[10] - m[4]*m[2]*m[11] + m[4]*m[3]*m[10] + m[8]*m[2]*m[7] - m[8]*m[3]*m[6]
	inv[11] = -m[0]*m[5]*m[11] + m[0]*m[7]*m[9] + m[4]*m[1]*m[11] - m[4]*m[3]*m[9] - m[8]*m[1]*m[7] + m[8]*m[3]*m[5]
	inv[15] = m[0]*m[5]*m[10] - m[0]*m[6]*m[9] - m[4]*m[1]*m[10] + m[4]*m[2]*m[9] + m[8]*m[1]*m[6] - m[8]*m[2]*m[5]

	det := m[0]*inv[0] + m[1]*inv[4] + m[2]*inv[8] + m[3]*inv[12]
	if det > -1e-12 && det < 1e-12 {
		return identityMatrix(), false
	}
	invDet := 1 / det
	for i := range inv {
		inv[i] *= invDet
	}
	return inv, true
}

// transformPoint applies m to the point v, including the perspective divide.
func transformPoint(m math32.Matrix4, v math32.Vector3) math32.Vector3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	return math32.Vec3(
		(m[0]*v.X+m[4]*v.Y+m[8]*v.Z+m[12])/w,
		(m[1]*v.X+m[5]*v.Y+m[9]*v.Z+m[13])/w,
		(m[2]*v.X+m[6]*v.Y+m[10]*v.Z+m[14])/w,
	)
}

// transformDirection applies the rotation/scale part of m to v and normalizes.
func transformDirection(m math32.Matrix4, v math32.Vector3) math32.Vector3 {
	d := math32.Vec3(
		m[0]*v.X+m[4]*v.Y+m[8]*v.Z,
		m[1]*v.X+m[5]*v.Y+m[9]*v.Z,
		m[2]*v.X+m[6]*v.Y+m[10]*v.Z,
	)
	return normalize(d)
}

func normalize(v math32.Vector3) math32.Vector3 {
	l := float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
	if l == 0 {
		return v
	}
	return math32.Vec3(v.X/l, v.Y/l, v.Z/l)
}

// perspectiveMatrix builds a projection for a vertical field of view in degrees.
func perspectiveMatrix(fov, aspect, near, far float32) math32.Matrix4 {
	top := near * float32(math.Tan(float64(fov)*math.Pi/360))
	height := 2 * top
	width := aspect * height
	left := -width / 2
	right := left + width
	bottom := top - height

	var m math32.Matrix4
	m[0] = 2 * near / (right - left)
	m[5] = 2 * near / (top - bottom)
	m[8] = (right + left) / (right - left)
	m[9] = (top + bottom) / (top - bottom)
	m[10] = -(far + near) / (far - near)
	m[11] = -1
	m[14] = -2 * far * near / (far - near)
	return m
}

// orthographicMatrix builds an orthographic projection for the given frustum.
func orthographicMatrix(left, right, top, bottom, near, far float32) math32.Matrix4 {
	w := 1 / (right - left)
	h := 1 / (top - bottom)
	p := 1 / (far - near)

	var m math32.Matrix4
	m[0] = 2 * w
	m[5] = 2 * h
	m[10] = -2 * p
	m[12] = -(right + left) * w
	m[13] = -(top + bottom) * h
	m[14] = -(far + near) * p
	m[15] = 1
	return m
}

// updateMatrixWorld recomputes o's world matrix and those of its descendants.
// parentRecomputed forces recomputation even when o itself is clean.
func updateMatrixWorld(o *Object, parent math32.Matrix4, parentRecomputed bool) {
	recompute := o.matrixDirty || parentRecomputed
	if recompute {
		o.matrixWorld = multiplyMatrices(parent, composeMatrix(o.Position, o.Rotation, o.Scale))
		o.matrixDirty = false
	}
	for _, child := range o.children {
		updateMatrixWorld(child, o.matrixWorld, recompute)
	}
}

// --- Transform setters ---

// SetPosition sets the local position and marks the object dirty.
func (o *Object) SetPosition(x, y, z float32) {
	o.Position = math32.Vec3(x, y, z)
	o.matrixDirty = true
}

// SetRotation sets the local Euler rotation (radians, XYZ order) and marks
// the object dirty.
func (o *Object) SetRotation(x, y, z float32) {
	o.Rotation = math32.Vec3(x, y, z)
	o.matrixDirty = true
}

// SetScale sets the local scale and marks the object dirty.
func (o *Object) SetScale(x, y, z float32) {
	o.Scale = math32.Vec3(x, y, z)
	o.matrixDirty = true
}

// MarkDirty forces the world matrix to be recomputed on the next update.
// Call it after setting transform fields directly.
func (o *Object) MarkDirty() {
	o.matrixDirty = true
}

// UpdateMatrixWorld refreshes the world matrices of the tree that contains o,
// starting from its topmost ancestor.
func (o *Object) UpdateMatrixWorld() {
	top := o
	for top.Parent != nil {
		top = top.Parent
	}
	updateMatrixWorld(top, identityMatrix(), false)
}

// MatrixWorld returns the world matrix computed by the last update.
func (o *Object) MatrixWorld() math32.Matrix4 {
	return o.matrixWorld
}

// WorldPosition returns the translation part of the world matrix.
func (o *Object) WorldPosition() math32.Vector3 {
	return math32.Vec3(o.matrixWorld[12], o.matrixWorld[13], o.matrixWorld[14])
}

// WorldPoint transforms p from the local space of o to world space with the
// last computed world matrix. For an instanced mesh, instance selects the
// instance matrix applied first; pass -1 to skip it.
func (o *Object) WorldPoint(p math32.Vector3, instance int) math32.Vector3 {
	m := o.matrixWorld
	if instance >= 0 && instance < len(o.Instances) {
		m = multiplyMatrices(m, o.Instances[instance])
	}
	return transformPoint(m, p)
}
