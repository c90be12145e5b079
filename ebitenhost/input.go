package ebitenhost

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/arbor"
)

// Mouse buttons, numbered the way pointer events number them.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

// doubleClickWindow is the longest gap between two clicks of a double click.
const doubleClickWindow = 300 * time.Millisecond

// Pointer is one sample of the mouse.
type Pointer struct {
	X, Y    float64
	Pressed bool
	Button  int
	WheelY  float64
	// Outside is set while the window has lost focus.
	Outside bool
}

// Input samples the mouse once per tick.
type Input func() Pointer

// MouseInput polls ebiten for the cursor and buttons. If several buttons are
// down the left one wins, then the right one.
func MouseInput() Pointer {
	mx, my := ebiten.CursorPosition()
	p := Pointer{X: float64(mx), Y: float64(my), Outside: !ebiten.IsFocused()}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		p.Pressed = true
		switch {
		case left:
			p.Button = ButtonLeft
		case right:
			p.Button = ButtonRight
		default:
			p.Button = ButtonMiddle
		}
	}
	_, p.WheelY = ebiten.Wheel()
	return p
}

// pointerState tracks the mouse between samples.
type pointerState struct {
	seen    bool
	inside  bool
	down    bool
	button  int
	lastX   float64
	lastY   float64
	clickAt time.Duration
	clickX  float64
	clickY  float64
	clicked bool
}

// processPointer turns a sample into pointer events. The button pressed
// first is kept until release.
func (g *Game) processPointer(p Pointer) {
	ps := &g.pointer
	if p.Outside {
		if ps.inside {
			g.dispatch(arbor.EventPointerLeave, p)
			ps.inside = false
		}
		return
	}
	ps.inside = true

	if !ps.seen || p.X != ps.lastX || p.Y != ps.lastY {
		ps.seen = true
		ps.lastX, ps.lastY = p.X, p.Y
		g.dispatch(arbor.EventPointerMove, p)
	}
	if p.WheelY != 0 {
		g.dispatch(arbor.EventWheel, p)
	}

	switch {
	case p.Pressed && !ps.down:
		ps.down = true
		ps.button = p.Button
		g.dispatch(arbor.EventPointerDown, p)
	case !p.Pressed && ps.down:
		ps.down = false
		p.Button = ps.button
		g.dispatch(arbor.EventPointerUp, p)
		if p.Button == ButtonRight {
			g.dispatch(arbor.EventContextMenu, p)
			return
		}
		g.dispatch(arbor.EventClick, p)
		if ps.clicked && g.now-ps.clickAt <= doubleClickWindow &&
			math.Hypot(p.X-ps.clickX, p.Y-ps.clickY) <= 2 {
			g.dispatch(arbor.EventDoubleClick, p)
			ps.clicked = false
			return
		}
		ps.clicked = true
		ps.clickAt, ps.clickX, ps.clickY = g.now, p.X, p.Y
	}
}

func (g *Game) dispatch(name string, p Pointer) {
	ev := &arbor.PointerEvent{
		Type:    name,
		OffsetX: p.X,
		OffsetY: p.Y,
		Button:  p.Button,
		Target:  g,
	}
	g.store.Get().Events.Handle(name, ev)
}

// SetPointerCapture implements arbor.PointerCapturer.
func (g *Game) SetPointerCapture(pointerID int) {
	g.captured[pointerID] = true
}

// ReleasePointerCapture implements arbor.PointerCapturer.
func (g *Game) ReleasePointerCapture(pointerID int) {
	delete(g.captured, pointerID)
}

// HasPointerCapture reports whether a handler captured the pointer.
func (g *Game) HasPointerCapture(pointerID int) bool {
	return g.captured[pointerID]
}
