package arbor

import "cogentcore.org/core/math32"

// Color represents an RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// ColorWhite is the default material color.
var ColorWhite = Color{1, 1, 1}

// Size is the drawable area of a root in CSS-like pixels.
// The origin is the top-left corner, with Y increasing downward.
type Size struct {
	Width, Height float64
	Top, Left     float64
}

// FrameLoop selects when a root renders.
type FrameLoop string

const (
	FrameLoopAlways FrameLoop = "always" // render every tick while active
	FrameLoopDemand FrameLoop = "demand" // render only after Invalidate
	FrameLoopNever  FrameLoop = "never"  // render only through Advance
)

// Valid reports whether f names a known frame-loop mode.
func (f FrameLoop) Valid() bool {
	switch f {
	case FrameLoopAlways, FrameLoopDemand, FrameLoopNever:
		return true
	}
	return false
}

// ObjectKind distinguishes the behavior of an Object.
type ObjectKind uint8

const (
	ObjectGroup              ObjectKind = iota // plain transform node
	ObjectMesh                                 // geometry + material, ray-testable
	ObjectInstancedMesh                        // mesh drawn once per instance matrix
	ObjectScene                                // root container of a root
	ObjectPerspectiveCamera                    // perspective projection camera
	ObjectOrthographicCamera                   // orthographic projection camera
	ObjectLight                                // light source, optionally with a shadow
)

// String returns the catalogue name of the kind.
func (k ObjectKind) String() string {
	switch k {
	case ObjectGroup:
		return "Group"
	case ObjectMesh:
		return "Mesh"
	case ObjectInstancedMesh:
		return "InstancedMesh"
	case ObjectScene:
		return "Scene"
	case ObjectPerspectiveCamera:
		return "PerspectiveCamera"
	case ObjectOrthographicCamera:
		return "OrthographicCamera"
	case ObjectLight:
		return "Light"
	default:
		return "Object"
	}
}

// IsCamera reports whether the kind carries a projection.
func (k ObjectKind) IsCamera() bool {
	return k == ObjectPerspectiveCamera || k == ObjectOrthographicCamera
}

// Layer masks. An object is visible to a raycaster when the masks share a bit.
const (
	LayerDefault uint32 = 1 << 0
	LayerAll     uint32 = 0xffffffff
)

// Pointer event names understood by the event subsystem.
const (
	EventClick              = "click"
	EventContextMenu        = "contextmenu"
	EventDoubleClick        = "dblclick"
	EventPointerDown        = "pointerdown"
	EventPointerUp          = "pointerup"
	EventPointerMove        = "pointermove"
	EventPointerOver        = "pointerover"
	EventPointerOut         = "pointerout"
	EventPointerEnter       = "pointerenter"
	EventPointerLeave       = "pointerleave"
	EventPointerCancel      = "pointercancel"
	EventPointerMissed      = "pointermissed"
	EventLostPointerCapture = "lostpointercapture"
	EventWheel              = "wheel"
)

// Reserved listen names that are not pointer handlers.
const (
	ListenBeforeRender = "beforeRender"
	ListenAfterUpdate  = "afterUpdate"
	ListenUpdated      = "updated"
	ListenAfterAttach  = "afterAttach"
	ListenAttached     = "attached"
)

// Native lifecycle events dispatched by Object.
const (
	NativeAdded        = "added"
	NativeRemoved      = "removed"
	NativeChildAdded   = "childadded"
	NativeChildRemoved = "childremoved"
	NativeDisposed     = "disposed"
)

func isClickEvent(name string) bool {
	return name == EventClick || name == EventContextMenu || name == EventDoubleClick
}

func isNativeEvent(name string) bool {
	switch name {
	case NativeAdded, NativeRemoved, NativeChildAdded, NativeChildRemoved, NativeDisposed:
		return true
	}
	return false
}

// hoverEvents are the handlers that make an object take part in pointer-move
// raycasting.
var hoverEvents = [...]string{EventPointerMove, EventPointerOver, EventPointerEnter, EventPointerOut, EventPointerLeave}

// vec3 is shorthand for math32.Vec3.
func vec3(x, y, z float32) math32.Vector3 {
	return math32.Vec3(x, y, z)
}
