package arbor

import (
	"time"
)

// maxInvalidateFrames caps the frames a bulk invalidate may accumulate.
const maxInvalidateFrames = 60

// Clock measures time between renders from host frame timestamps.
type Clock struct {
	Running     bool
	StartTime   time.Duration
	OldTime     time.Duration
	ElapsedTime time.Duration
}

// NewClock returns a stopped clock. It starts on the first Delta.
func NewClock() *Clock {
	return &Clock{}
}

// Delta returns the seconds since the previous call and advances the clock
// to ts. The first call starts the clock and returns zero.
func (c *Clock) Delta(ts time.Duration) float64 {
	if !c.Running {
		c.Running = true
		c.StartTime, c.OldTime = ts, ts
		c.ElapsedTime = 0
		return 0
	}
	d := ts - c.OldTime
	c.OldTime = ts
	c.ElapsedTime += d
	return d.Seconds()
}

// Elapsed returns the seconds the clock has run.
func (c *Clock) Elapsed() float64 {
	return c.ElapsedTime.Seconds()
}

// Effect is a global hook called once per tick with the frame timestamp.
type Effect func(timestamp time.Duration)

type effectEntry struct {
	fn Effect
}

type missedEntry struct {
	fn func(*PointerEvent)
}

// Loop is the render loop shared by every root. It runs only while some
// root has work, and restarts on the next Invalidate.
type Loop struct {
	host  Host
	roots []*Store

	before []*effectEntry
	after  []*effectEntry
	tail   []*effectEntry
	missed []*missedEntry

	running    bool
	frameID    int
	inProgress bool

	debug bool
	stats loopStats
}

// NewLoop creates an idle loop driven by host.
func NewLoop(host Host) *Loop {
	return &Loop{host: host}
}

// Host returns the host the loop is driven by.
func (l *Loop) Host() Host { return l.host }

// Running reports whether a tick is scheduled.
func (l *Loop) Running() bool { return l.running }

// Roots returns the registered root stores in registration order.
func (l *Loop) Roots() []*Store { return l.roots }

func (l *Loop) register(s *Store) {
	for _, r := range l.roots {
		if r == s {
			return
		}
	}
	l.roots = append(l.roots, s)
}

func (l *Loop) unregister(s *Store) {
	for k, r := range l.roots {
		if r == s {
			l.roots = append(l.roots[:k:k], l.roots[k+1:]...)
			return
		}
	}
}

func addEffect(list *[]*effectEntry, fn Effect) func() {
	e := &effectEntry{fn: fn}
	*list = append(*list, e)
	return func() {
		for k, c := range *list {
			if c == e {
				*list = append((*list)[:k:k], (*list)[k+1:]...)
				return
			}
		}
	}
}

// AddEffect registers fn to run at the start of every tick.
func (l *Loop) AddEffect(fn Effect) func() { return addEffect(&l.before, fn) }

// AddAfterEffect registers fn to run at the end of every tick.
func (l *Loop) AddAfterEffect(fn Effect) func() { return addEffect(&l.after, fn) }

// AddTail registers fn to run when the loop stops for lack of work.
func (l *Loop) AddTail(fn Effect) func() { return addEffect(&l.tail, fn) }

// OnPointerMissed registers fn on the process-wide channel for click-family
// events that hit nothing in any root.
func (l *Loop) OnPointerMissed(fn func(*PointerEvent)) func() {
	e := &missedEntry{fn: fn}
	l.missed = append(l.missed, e)
	return func() {
		for k, c := range l.missed {
			if c == e {
				l.missed = append(l.missed[:k:k], l.missed[k+1:]...)
				return
			}
		}
	}
}

func (l *Loop) emitPointerMissed(ev *PointerEvent) {
	for _, e := range append([]*missedEntry(nil), l.missed...) {
		e.fn(ev)
	}
}

func flushEffects(list []*effectEntry, ts time.Duration) {
	for _, e := range append([]*effectEntry(nil), list...) {
		e.fn(ts)
	}
}

// Invalidate requests frames for store's root, or for every root when store
// is nil. Inactive roots, roots presenting to XR and never-mode roots are
// left alone. frames above 1 accumulate up to 60; otherwise the root gets
// one pending frame, or two when called from a before-render callback.
func (l *Loop) Invalidate(store *Store, frames int) {
	if store == nil {
		for _, r := range l.roots {
			l.Invalidate(r, frames)
		}
		return
	}
	st := store.Root().state
	if st.XR.Presenting || !st.Internal.Active || st.Frameloop == FrameLoopNever {
		return
	}
	switch {
	case frames > 1:
		st.Internal.Frames = min(maxInvalidateFrames, st.Internal.Frames+frames)
	case l.inProgress:
		st.Internal.Frames = 2
	default:
		st.Internal.Frames = 1
	}
	if !l.running {
		l.running = true
		l.frameID = l.host.RequestAnimationFrame(l.tick)
	}
}

// Advance renders one root, or all roots when store is nil, at timestamp
// without touching the running state. It is the entry point for the never
// frame loop. frame is exposed to subscribers as RootState.XR.Frame.
func (l *Loop) Advance(ts time.Duration, runGlobalEffects bool, store *Store, frame any) {
	if runGlobalEffects {
		flushEffects(l.before, ts)
	}
	roots := l.roots
	if store != nil {
		roots = []*Store{store.Root()}
	}
	for _, r := range append([]*Store(nil), roots...) {
		r.state.XR.Frame = frame
		l.update(ts, r)
		r.state.XR.Frame = nil
	}
	if runGlobalEffects {
		flushEffects(l.after, ts)
	}
}

// tick is the animation-frame callback.
func (l *Loop) tick(ts time.Duration) {
	start := time.Now()
	l.running = true
	repeat := 0
	rendered := 0

	flushEffects(l.before, ts)
	l.inProgress = true
	for _, r := range append([]*Store(nil), l.roots...) {
		st := r.state
		if st.Internal.Active && (st.Frameloop == FrameLoopAlways || st.Internal.Frames > 0) && !st.XR.Presenting {
			repeat += l.update(ts, r)
			rendered++
		}
	}
	l.inProgress = false
	flushEffects(l.after, ts)

	if l.debug {
		l.stats = loopStats{tickTime: time.Since(start), roots: len(l.roots), rendered: rendered, repeat: repeat}
		l.debugLog(l.stats)
	}

	if repeat == 0 {
		flushEffects(l.tail, ts)
		l.running = false
		l.host.CancelAnimationFrame(l.frameID)
		return
	}
	l.frameID = l.host.RequestAnimationFrame(l.tick)
}

// update renders one root and returns the work it still has: 1 for the
// always loop, otherwise the frames left.
func (l *Loop) update(ts time.Duration, s *Store) int {
	st := s.state
	var delta float64
	if st.Frameloop == FrameLoopNever {
		delta = (ts - st.Clock.ElapsedTime).Seconds()
		st.Clock.OldTime = st.Clock.ElapsedTime
		st.Clock.ElapsedTime = ts
	} else {
		delta = st.Clock.Delta(ts)
	}

	inProgress := l.inProgress
	l.inProgress = true
	for _, sub := range append([]*Subscriber(nil), st.Internal.Subscribers...) {
		sub.Callback(sub.Store.state, delta)
	}
	l.inProgress = inProgress

	if st.Internal.Priority == 0 && st.Renderer != nil {
		st.Renderer.Render(st.Scene, st.Camera)
	}
	st.Internal.Frames = max(0, st.Internal.Frames-1)
	if st.Frameloop == FrameLoopAlways {
		return 1
	}
	return st.Internal.Frames
}
