package arbor

import "time"

// Host supplies the animation-frame and microtask primitives the loop and
// the reconciler are driven by. Callbacks are run on the host's single
// thread.
type Host interface {
	// RequestAnimationFrame schedules fn for the next frame and returns an id
	// for CancelAnimationFrame.
	RequestAnimationFrame(fn func(timestamp time.Duration)) int
	// CancelAnimationFrame drops a pending frame callback.
	CancelAnimationFrame(id int)
	// QueueMicrotask runs fn after the current synchronous batch of work.
	QueueMicrotask(fn func())
}

type frameRequest struct {
	id int
	fn func(time.Duration)
}

// ManualHost is a Host stepped explicitly by its owner. Tests, the script
// runner and the ebiten adapter drive it by calling Frame.
type ManualHost struct {
	frames     []frameRequest
	microtasks []func()
	nextID     int
	now        time.Duration
}

// NewManualHost creates an idle host at time zero.
func NewManualHost() *ManualHost {
	return &ManualHost{}
}

// RequestAnimationFrame implements Host.
func (h *ManualHost) RequestAnimationFrame(fn func(time.Duration)) int {
	h.nextID++
	h.frames = append(h.frames, frameRequest{id: h.nextID, fn: fn})
	return h.nextID
}

// CancelAnimationFrame implements Host.
func (h *ManualHost) CancelAnimationFrame(id int) {
	for i, f := range h.frames {
		if f.id == id {
			h.frames = append(h.frames[:i:i], h.frames[i+1:]...)
			return
		}
	}
}

// QueueMicrotask implements Host.
func (h *ManualHost) QueueMicrotask(fn func()) {
	h.microtasks = append(h.microtasks, fn)
}

// Frame runs the frame callbacks requested before the call, at timestamp ts,
// then flushes microtasks. Callbacks requested while running wait for the
// next Frame. It returns the number of callbacks run.
func (h *ManualHost) Frame(ts time.Duration) int {
	h.now = ts
	pending := h.frames
	h.frames = nil
	for _, f := range pending {
		f.fn(ts)
		h.Flush()
	}
	h.Flush()
	return len(pending)
}

// Step advances the host clock by dt and runs one frame.
func (h *ManualHost) Step(dt time.Duration) int {
	return h.Frame(h.now + dt)
}

// Flush runs queued microtasks, including ones queued while flushing.
func (h *ManualHost) Flush() {
	for len(h.microtasks) > 0 {
		fn := h.microtasks[0]
		h.microtasks = h.microtasks[1:]
		fn()
	}
}

// Now returns the timestamp of the last frame.
func (h *ManualHost) Now() time.Duration {
	return h.now
}

// PendingFrames returns the number of frame callbacks waiting to run.
func (h *ManualHost) PendingFrames() int {
	return len(h.frames)
}

// PendingMicrotasks returns the number of queued microtasks.
func (h *ManualHost) PendingMicrotasks() int {
	return len(h.microtasks)
}
