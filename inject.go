package arbor

import "math"

// injectPriority runs the injected-input subscriber ahead of user callbacks.
const injectPriority = math.MinInt32

// InjectPress queues a pointerdown at surface offset (x, y). The queue is
// drained one event per rendered frame.
func (em *EventManager) InjectPress(x, y float64) {
	em.inject(EventPointerDown, x, y)
}

// InjectMove queues a pointermove.
func (em *EventManager) InjectMove(x, y float64) {
	em.inject(EventPointerMove, x, y)
}

// InjectRelease queues a pointerup.
func (em *EventManager) InjectRelease(x, y float64) {
	em.inject(EventPointerUp, x, y)
}

// InjectClick queues pointerdown, pointerup and click at one position.
func (em *EventManager) InjectClick(x, y float64) {
	em.InjectPress(x, y)
	em.InjectRelease(x, y)
	em.inject(EventClick, x, y)
}

// InjectDrag queues a press at the start, evenly spaced moves and a release
// at the end, frames events in all. frames below 2 is raised to 2.
func (em *EventManager) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	frames = max(frames, 2)
	em.InjectPress(fromX, fromY)
	for i := 1; i < frames-1; i++ {
		f := float64(i) / float64(frames-1)
		em.InjectMove(fromX+f*(toX-fromX), fromY+f*(toY-fromY))
	}
	em.InjectRelease(toX, toY)
}

// Pending returns the number of injected events not yet handled.
func (em *EventManager) Pending() int {
	return len(em.injectQueue)
}

func (em *EventManager) inject(name string, x, y float64) {
	em.injectQueue = append(em.injectQueue, &PointerEvent{Type: name, OffsetX: x, OffsetY: y})
	if em.injectUnsub == nil {
		em.injectUnsub = em.store.InjectBeforeRender(func(*RootState, float64) {
			em.processInjected()
		}, injectPriority)
	}
	em.store.Invalidate(1)
}

// processInjected pops one event from the inject queue and handles it. The
// subscriber removes itself once the queue is drained.
func (em *EventManager) processInjected() {
	if len(em.injectQueue) == 0 {
		if em.injectUnsub != nil {
			em.injectUnsub()
			em.injectUnsub = nil
		}
		return
	}
	ev := em.injectQueue[0]
	em.injectQueue = em.injectQueue[1:]
	em.Handle(ev.Type, ev)
	em.store.Invalidate(1)
}
