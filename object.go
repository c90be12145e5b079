package arbor

import (
	"cogentcore.org/core/math32"
)

// objectIDCounter is a plain counter (no atomic: arbor is single-threaded).
var objectIDCounter uint32

func nextObjectID() uint32 {
	objectIDCounter++
	return objectIDCounter
}

// Slot carries the reconciler state of a native value. Every type the
// reconciler wraps embeds a Slot.
type Slot struct {
	inst *Instance
}

// LocalState returns the Instance attached to the value, or nil.
func (s *Slot) LocalState() *Instance { return s.inst }

// SetLocalState attaches inst to the value.
func (s *Slot) SetLocalState(inst *Instance) { s.inst = inst }

// LocalStater is implemented by values that can carry an Instance.
type LocalStater interface {
	LocalState() *Instance
	SetLocalState(inst *Instance)
}

// LocalStateOf returns the Instance attached to v, or nil when v carries none.
func LocalStateOf(v any) *Instance {
	if ls, ok := v.(LocalStater); ok && ls != nil {
		return ls.LocalState()
	}
	return nil
}

// NativeEvent is delivered to listeners registered with AddEventListener.
type NativeEvent struct {
	Type   string
	Target *Object
	Child  *Object // set for childadded / childremoved
}

type nativeListener struct {
	id uint32
	fn func(NativeEvent)
}

// Object is the scene graph element. A single flat struct is used for all
// object kinds; kind-specific fields are ignored by kinds that don't use them.
type Object struct {
	Slot

	// Identity
	ID   uint32
	Name string
	Kind ObjectKind

	// Hierarchy
	Parent   *Object
	children []*Object

	// Transform (local)
	Position math32.Vector3
	Rotation math32.Vector3
	Scale    math32.Vector3

	matrixWorld math32.Matrix4
	matrixDirty bool

	// Visibility & raycasting
	Visible bool
	Layers  uint32

	// Mesh fields (ObjectMesh, ObjectInstancedMesh)
	Geometry  *Geometry
	Material  any // *Material or []*Material
	Instances []math32.Matrix4

	// Camera fields (ObjectPerspectiveCamera, ObjectOrthographicCamera)
	Fov, Aspect, Near, Far   float32
	Zoom                     float32
	Left, Right, Top, Bottom float32
	// Manual stops the root from recomputing Aspect on resize.
	Manual bool

	// Light fields (ObjectLight)
	Color      Color
	Intensity  float32
	CastShadow bool
	Shadow     *Shadow

	// Scene fields (ObjectScene)
	Background *Color
	Fog        *Fog

	// Metadata
	UserData map[string]any

	listeners map[string][]nativeListener
	nextLID   uint32
	disposed  bool
}

func objectDefaults(o *Object) {
	o.ID = nextObjectID()
	o.Scale = math32.Vec3(1, 1, 1)
	o.Visible = true
	o.Layers = LayerDefault
	o.matrixDirty = true
	o.matrixWorld = identityMatrix()
}

// NewObject creates an object of the given kind with default field values.
func NewObject(name string, kind ObjectKind) *Object {
	o := &Object{Name: name, Kind: kind}
	objectDefaults(o)
	return o
}

// NewGroup creates a group object.
func NewGroup(name string) *Object {
	return NewObject(name, ObjectGroup)
}

// NewScene creates a scene container.
func NewScene() *Object {
	return NewObject("scene", ObjectScene)
}

// NewMesh creates a mesh with the given geometry and material. Either may be nil.
func NewMesh(name string, geometry *Geometry, material *Material) *Object {
	o := NewObject(name, ObjectMesh)
	o.Geometry = geometry
	if material != nil {
		o.Material = material
	}
	return o
}

// NewInstancedMesh creates a mesh drawn once per instance matrix.
func NewInstancedMesh(name string, geometry *Geometry, material *Material, count int) *Object {
	o := NewMesh(name, geometry, material)
	o.Kind = ObjectInstancedMesh
	o.Instances = make([]math32.Matrix4, count)
	for i := range o.Instances {
		o.Instances[i] = identityMatrix()
	}
	return o
}

// NewPerspectiveCamera creates a perspective camera. fov is vertical, in degrees.
func NewPerspectiveCamera(fov, aspect, near, far float32) *Object {
	o := NewObject("camera", ObjectPerspectiveCamera)
	o.Fov, o.Aspect, o.Near, o.Far = fov, aspect, near, far
	o.Zoom = 1
	return o
}

// NewOrthographicCamera creates an orthographic camera for the given frustum.
func NewOrthographicCamera(left, right, top, bottom, near, far float32) *Object {
	o := NewObject("camera", ObjectOrthographicCamera)
	o.Left, o.Right, o.Top, o.Bottom = left, right, top, bottom
	o.Near, o.Far = near, far
	o.Zoom = 1
	return o
}

// NewLight creates a light with a default shadow description.
func NewLight(name string, color Color, intensity float32) *Object {
	o := NewObject(name, ObjectLight)
	o.Color = color
	o.Intensity = intensity
	o.Shadow = NewShadow()
	return o
}

// IsScene reports whether o is a root scene container.
func (o *Object) IsScene() bool {
	return o.Kind == ObjectScene
}

// --- Tree manipulation ---

// Add appends child to this object's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this object (cycle).
func (o *Object) Add(child *Object) {
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	if isAncestor(child, o) {
		panic("arbor: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = o
	o.children = append(o.children, child)
	markSubtreeDirty(child)
	child.dispatch(NativeEvent{Type: NativeAdded, Target: child})
	o.dispatch(NativeEvent{Type: NativeChildAdded, Target: o, Child: child})
}

// Remove detaches child from this object. No-op when child is not a child of o.
func (o *Object) Remove(child *Object) {
	if child == nil || child.Parent != o {
		return
	}
	o.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
	child.dispatch(NativeEvent{Type: NativeRemoved, Target: child})
	o.dispatch(NativeEvent{Type: NativeChildRemoved, Target: o, Child: child})
}

// RemoveFromParent detaches this object from its parent.
func (o *Object) RemoveFromParent() {
	if o.Parent != nil {
		o.Parent.Remove(o)
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (o *Object) Children() []*Object {
	return o.children
}

// NumChildren returns the number of children.
func (o *Object) NumChildren() int {
	return len(o.children)
}

// Traverse calls fn for o and every descendant, depth first.
func (o *Object) Traverse(fn func(*Object)) {
	fn(o)
	for _, child := range o.children {
		child.Traverse(fn)
	}
}

// --- Native events ---

// AddEventListener registers fn for a native event type and returns a
// function that removes it.
func (o *Object) AddEventListener(typ string, fn func(NativeEvent)) func() {
	if o.listeners == nil {
		o.listeners = make(map[string][]nativeListener)
	}
	o.nextLID++
	id := o.nextLID
	o.listeners[typ] = append(o.listeners[typ], nativeListener{id: id, fn: fn})
	return func() {
		ls := o.listeners[typ]
		for i := range ls {
			if ls[i].id == id {
				o.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (o *Object) dispatch(ev NativeEvent) {
	ls := o.listeners[ev.Type]
	if len(ls) == 0 {
		return
	}
	// listeners may unsubscribe while being called
	for _, l := range append([]nativeListener(nil), ls...) {
		l.fn(ev)
	}
}

// --- Disposal ---

// Dispose releases the object. Children are not disposed; the reconciler
// decides which descendants are released.
func (o *Object) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	o.dispatch(NativeEvent{Type: NativeDisposed, Target: o})
	o.listeners = nil
}

// IsDisposed returns true if this object has been disposed.
func (o *Object) IsDisposed() bool {
	return o.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of (or equal to) node.
func isAncestor(candidate, node *Object) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from o.children without clearing child.Parent.
func (o *Object) removeChildByPtr(child *Object) {
	for i, c := range o.children {
		if c == child {
			copy(o.children[i:], o.children[i+1:])
			o.children[len(o.children)-1] = nil
			o.children = o.children[:len(o.children)-1]
			return
		}
	}
}

// markSubtreeDirty flags node and all its descendants for matrix recomputation.
func markSubtreeDirty(node *Object) {
	node.matrixDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}

// SetProperty stores unknown properties in UserData. It lets applyProps
// accept keys that have no matching field.
func (o *Object) SetProperty(name string, value any) bool {
	if o.UserData == nil {
		o.UserData = make(map[string]any)
	}
	o.UserData[name] = value
	return true
}
