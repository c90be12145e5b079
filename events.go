package arbor

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"cogentcore.org/core/math32"
)

// PointerCapturer is the native side of pointer capture, usually the
// surface the events come from.
type PointerCapturer interface {
	SetPointerCapture(pointerID int)
	ReleasePointerCapture(pointerID int)
}

// PointerEvent is a native pointer event in surface pixel coordinates.
type PointerEvent struct {
	Type      string
	PointerID int
	OffsetX   float64
	OffsetY   float64
	Button    int
	Target    PointerCapturer
}

// CaptureData records a pointer capture: the hit that captured the pointer
// and the native target it was captured on.
type CaptureData struct {
	Intersection Intersection
	Target       PointerCapturer
}

// EventTarget exposes pointer capture operations for the object an event is
// delivered to.
type EventTarget struct {
	has     func(int) bool
	set     func(int)
	release func(int)
}

// HasPointerCapture reports whether the event object holds the pointer.
func (t EventTarget) HasPointerCapture(pointerID int) bool { return t.has != nil && t.has(pointerID) }

// SetPointerCapture routes later events of the pointer to the event object.
func (t EventTarget) SetPointerCapture(pointerID int) {
	if t.set != nil {
		t.set(pointerID)
	}
}

// ReleasePointerCapture undoes SetPointerCapture.
func (t EventTarget) ReleasePointerCapture(pointerID int) {
	if t.release != nil {
		t.release(pointerID)
	}
}

// ThreeEvent is delivered to pointer handlers: one hit plus the context of
// the native event that produced it.
type ThreeEvent struct {
	Intersection

	Name string
	// Pointer holds the normalized device coordinates of the event.
	Pointer       math32.Vector2
	Intersections []*Intersection
	// UnprojectedPoint is the pointer on the camera's near plane.
	UnprojectedPoint math32.Vector3
	// Delta is the pixel distance from the last pointerdown for click-family
	// events, zero otherwise.
	Delta       float64
	Ray         math32.Ray
	Camera      *Object
	Stopped     bool
	NativeEvent *PointerEvent
	Target      EventTarget

	stop func()
}

// StopPropagation keeps the event from reaching objects behind or above
// this one.
func (e *ThreeEvent) StopPropagation() {
	if e.stop != nil {
		e.stop()
	}
}

// ComputeFunc maps a native event to the state's pointer and aims its
// raycaster. previous is the state of the root a portal is nested under,
// nil for top-level roots.
type ComputeFunc func(ev *PointerEvent, state, previous *RootState)

// FilterFunc may reorder or drop hits before they are bubbled.
type FilterFunc func(hits []*Intersection, state *RootState) []*Intersection

// EventManager turns native pointer events into handler calls for one root.
type EventManager struct {
	Enabled  bool
	Priority int
	Compute  ComputeFunc
	Filter   FilterFunc

	store       *Store
	injectQueue []*PointerEvent
	injectUnsub func()
}

// DefaultCompute maps the pointer offset to normalized device coordinates
// and casts from the state's camera.
func DefaultCompute(ev *PointerEvent, state, previous *RootState) {
	state.Pointer = pointerToNDC(ev.OffsetX, ev.OffsetY, state.Size)
	state.Raycaster.SetFromCamera(state.Pointer, state.Camera)
}

// portalCompute reuses the pointer of the enclosing root and casts from
// the portal's camera.
func portalCompute(ev *PointerEvent, state, previous *RootState) {
	if previous == nil {
		DefaultCompute(ev, state, nil)
		return
	}
	state.Pointer = previous.Pointer
	state.Raycaster.SetFromCamera(state.Pointer, state.Camera)
}

func newEventManager(s *Store, cfg Config) *EventManager {
	em := &EventManager{
		Enabled:  cfg.EventsEnabled,
		Priority: cfg.EventPriority,
		Compute:  DefaultCompute,
		store:    s,
	}
	if cfg.ReplayPointer {
		s.InjectBeforeRender(func(*RootState, float64) { em.Update() }, 0)
	}
	return em
}

// Update replays the last native event as a pointer move, refreshing hover
// state after objects moved under a still pointer.
func (em *EventManager) Update() {
	last := em.store.Root().state.Internal.LastEvent
	if last == nil {
		return
	}
	replay := *last
	replay.Type = EventPointerMove
	em.Handle(EventPointerMove, &replay)
}

// instanceOf returns the Instance carried by o, or nil.
func instanceOf(o *Object) *Instance {
	if o == nil {
		return nil
	}
	return o.inst
}

// makeID identifies a hit by object, face and instance.
func makeID(h *Intersection) string {
	o := h.EventObject
	if o == nil {
		o = h.Object
	}
	return fmt.Sprintf("%d/%d/%d", o.ID, h.FaceIndex, h.InstanceID)
}

// compareHits orders hits by their roots' event priority, highest first,
// then by distance. Hits without a root compare by distance only.
func compareHits(a, b *Intersection) int {
	if a.store == nil || b.store == nil {
		return cmpFloat(a.Distance, b.Distance)
	}
	pa, pb := a.store.state.Events.Priority, b.store.state.Events.Priority
	if pa != pb {
		return pb - pa
	}
	return cmpFloat(a.Distance, b.Distance)
}

func cmpFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortHits sorts hits in place with compareHits, keeping equal hits in
// their original order.
func sortHits(hits []*Intersection) {
	sort.SliceStable(hits, func(i, j int) bool { return compareHits(hits[i], hits[j]) < 0 })
}

func hasHoverHandler(inst *Instance) bool {
	for _, name := range hoverEvents {
		if inst.hasHandler(name) {
			return true
		}
	}
	return false
}

func (em *EventManager) root() *RootState { return em.store.Root().state }

// intersect raycasts the interaction list and returns the bubbled hits,
// plus captured hits for the event's pointer.
func (em *EventManager) intersect(ev *PointerEvent, filter func(*Instance) bool) []*Intersection {
	state := em.store.state
	internal := &em.root().Internal
	duplicates := make(map[string]bool)

	var objects []*Instance
	for _, inst := range internal.Interaction {
		if filter == nil || filter(inst) {
			objects = append(objects, inst)
		}
	}

	for _, inst := range objects {
		if inst.Store != nil {
			inst.Store.state.Raycaster.resetCamera()
		}
	}
	if state.PreviousRoot == nil && state.Events.Compute != nil {
		state.Events.Compute(ev, state, nil)
	}

	var hits []*Intersection
	for _, inst := range objects {
		hits = append(hits, em.raycastInstance(ev, inst)...)
	}
	sortHits(hits)

	unique := hits[:0]
	for _, h := range hits {
		id := makeID(h)
		if duplicates[id] {
			continue
		}
		duplicates[id] = true
		unique = append(unique, h)
	}
	hits = unique

	if state.Events.Filter != nil {
		hits = state.Events.Filter(hits, state)
	}

	var intersections []*Intersection
	for _, h := range hits {
		for o := h.Object; o != nil; o = o.Parent {
			if inst := instanceOf(o); inst != nil && inst.eventCount > 0 {
				bubbled := *h
				bubbled.EventObject = o
				intersections = append(intersections, &bubbled)
			}
		}
	}

	if captures, ok := internal.CapturedMap[ev.PointerID]; ok {
		for _, data := range sortedCaptures(captures) {
			if !duplicates[makeID(&data.Intersection)] {
				hit := data.Intersection
				intersections = append(intersections, &hit)
			}
		}
	}
	return intersections
}

// raycastInstance tests one interaction-list member with its own root's
// raycaster.
func (em *EventManager) raycastInstance(ev *PointerEvent, inst *Instance) []*Intersection {
	obj := inst.NativeObject()
	if obj == nil || inst.Store == nil {
		return nil
	}
	state := inst.Store.state
	rc := state.Raycaster
	if !state.Events.Enabled || rc.binding == cameraDisabled {
		return nil
	}
	if rc.binding == cameraUnresolved {
		var previous *RootState
		if state.PreviousRoot != nil {
			previous = state.PreviousRoot.state
		}
		if state.Events.Compute != nil {
			state.Events.Compute(ev, state, previous)
		}
		if rc.binding == cameraUnresolved {
			rc.binding = cameraDisabled
			return nil
		}
	}
	hits := rc.IntersectObject(obj, true)
	for _, h := range hits {
		if hi := instanceOf(h.Object); hi != nil {
			h.store = hi.Store
		}
	}
	return hits
}

func sortedCaptures(captures map[*Object]*CaptureData) []*CaptureData {
	out := make([]*CaptureData, 0, len(captures))
	for _, d := range captures {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Intersection.EventObject.ID < out[j].Intersection.EventObject.ID })
	return out
}

func sortedHovered(hovered map[string]*ThreeEvent) []string {
	keys := make([]string, 0, len(hovered))
	for k := range hovered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// releaseInternalCapture drops obj's capture of pointerID, releasing the
// native capture when it was the last one.
func releaseInternalCapture(capturedMap map[int]map[*Object]*CaptureData, obj *Object, captures map[*Object]*CaptureData, pointerID int) {
	data, ok := captures[obj]
	if !ok {
		return
	}
	delete(captures, obj)
	if len(captures) == 0 {
		delete(capturedMap, pointerID)
		if data.Target != nil {
			data.Target.ReleasePointerCapture(pointerID)
		}
	}
}

// cancelPointer ends the hover of every hovered object that is not among
// hits, calling its pointerout and pointerleave handlers.
func (em *EventManager) cancelPointer(hits []*Intersection) {
	internal := &em.root().Internal
	for _, key := range sortedHovered(internal.Hovered) {
		hovered, ok := internal.Hovered[key]
		if !ok {
			continue
		}
		still := slices.ContainsFunc(hits, func(h *Intersection) bool {
			return h.Object == hovered.Object && h.FaceIndex == hovered.FaceIndex && h.InstanceID == hovered.InstanceID
		})
		if len(hits) > 0 && still {
			continue
		}
		delete(internal.Hovered, key)
		inst := instanceOf(hovered.EventObject)
		if inst == nil || inst.eventCount == 0 {
			continue
		}
		data := *hovered
		data.Intersections = hits
		callHandlers(inst, EventPointerOut, &data)
		callHandlers(inst, EventPointerLeave, &data)
	}
}

func callHandlers(inst *Instance, name string, v any) {
	for _, e := range append([]*handlerEntry(nil), inst.handlers[name]...) {
		e.fn(v)
	}
}

// pointerMissed calls the pointermissed handlers of objects.
func pointerMissed(ev *PointerEvent, objects []*Instance) {
	for _, inst := range objects {
		callHandlers(inst, EventPointerMissed, ev)
	}
}

// Handle dispatches a native pointer event of the given name.
func (em *EventManager) Handle(name string, ev *PointerEvent) {
	switch name {
	case EventPointerLeave, EventPointerCancel:
		em.cancelPointer(nil)
		return
	case EventLostPointerCapture:
		internal := &em.root().Internal
		if _, ok := internal.CapturedMap[ev.PointerID]; ok {
			em.store.Host().RequestAnimationFrame(func(time.Duration) {
				if _, ok := internal.CapturedMap[ev.PointerID]; ok {
					delete(internal.CapturedMap, ev.PointerID)
					em.cancelPointer(nil)
				}
			})
		}
		return
	}

	root := em.store.Root()
	internal := &root.state.Internal
	internal.LastEvent = ev

	isPointerMove := name == EventPointerMove
	isClick := isClickEvent(name)
	var filter func(*Instance) bool
	if isPointerMove {
		filter = hasHoverHandler
	}

	hits := em.intersect(ev, filter)
	var delta float64
	if isClick {
		dx := ev.OffsetX - internal.InitialClick[0]
		dy := ev.OffsetY - internal.InitialClick[1]
		delta = math.Round(math.Sqrt(dx*dx + dy*dy))
	}

	if name == EventPointerDown {
		internal.InitialClick = [2]float64{ev.OffsetX, ev.OffsetY}
		internal.InitialHits = internal.InitialHits[:0]
		for _, h := range hits {
			internal.InitialHits = append(internal.InitialHits, h.EventObject)
		}
	}

	if isClick && len(hits) == 0 && delta <= 2 {
		var lacking []*Instance
		for _, inst := range internal.Interaction {
			if !inst.hasHandler(name) {
				lacking = append(lacking, inst)
			}
		}
		pointerMissed(ev, lacking)
		if root.state.OnPointerMissed != nil {
			root.state.OnPointerMissed(ev)
		}
		root.loop.emitPointerMissed(ev)
	}

	if isPointerMove {
		em.cancelPointer(hits)
	}

	missedOthers := func() {
		var others []*Instance
		for _, inst := range internal.Interaction {
			if o := inst.NativeObject(); o != nil && !slices.Contains(internal.InitialHits, o) {
				others = append(others, inst)
			}
		}
		pointerMissed(ev, others)
	}

	em.handleIntersects(name, hits, ev, delta, func(data *ThreeEvent) {
		inst := instanceOf(data.EventObject)
		if inst == nil || inst.eventCount == 0 {
			return
		}
		if isPointerMove {
			if inst.hasHandler(EventPointerOver) || inst.hasHandler(EventPointerEnter) ||
				inst.hasHandler(EventPointerOut) || inst.hasHandler(EventPointerLeave) {
				id := makeID(&data.Intersection)
				if hovered, ok := internal.Hovered[id]; !ok {
					internal.Hovered[id] = data
					callHandlers(inst, EventPointerOver, data)
					callHandlers(inst, EventPointerEnter, data)
				} else if hovered.Stopped {
					data.StopPropagation()
				}
			}
			callHandlers(inst, EventPointerMove, data)
			return
		}
		if inst.hasHandler(name) {
			if !isClick || slices.Contains(internal.InitialHits, data.EventObject) {
				missedOthers()
				callHandlers(inst, name, data)
			}
		} else if isClick && slices.Contains(internal.InitialHits, data.EventObject) {
			missedOthers()
		}
	})
}

// handleIntersects builds an event per hit and passes it to callback until
// propagation is stopped.
func (em *EventManager) handleIntersects(name string, intersections []*Intersection, ev *PointerEvent, delta float64, callback func(*ThreeEvent)) {
	if len(intersections) == 0 {
		return
	}
	rootState := em.store.state
	stopped := false
	for idx, hit := range intersections {
		state := rootState
		internal := &em.root().Internal
		if hit.store != nil {
			state = hit.store.state
			internal = &hit.store.Root().state.Internal
		}
		eventObject := hit.EventObject

		data := &ThreeEvent{
			Intersection:     *hit,
			Name:             name,
			Pointer:          state.Pointer,
			Intersections:    intersections,
			UnprojectedPoint: state.Camera.Unproject(vec3(state.Pointer.X, state.Pointer.Y, 0)),
			Delta:            delta,
			Ray:              state.Raycaster.Ray,
			Camera:           state.Camera,
			Stopped:          stopped,
			NativeEvent:      ev,
		}
		data.Target = EventTarget{
			has: func(id int) bool {
				_, ok := internal.CapturedMap[id][eventObject]
				return ok
			},
			set: func(id int) {
				captureData := &CaptureData{Intersection: *hit, Target: ev.Target}
				if captures, ok := internal.CapturedMap[id]; ok {
					captures[eventObject] = captureData
				} else {
					internal.CapturedMap[id] = map[*Object]*CaptureData{eventObject: captureData}
				}
				if ev.Target != nil {
					ev.Target.SetPointerCapture(id)
				}
			},
			release: func(id int) {
				if captures, ok := internal.CapturedMap[id]; ok {
					releaseInternalCapture(internal.CapturedMap, eventObject, captures, id)
				}
			},
		}
		data.stop = func() {
			captures, captured := internal.CapturedMap[ev.PointerID]
			if captured {
				if _, ok := captures[eventObject]; !ok {
					return
				}
			}
			data.Stopped = true
			stopped = true
			hoveredSelf := false
			for _, h := range internal.Hovered {
				if h.EventObject == eventObject {
					hoveredSelf = true
					break
				}
			}
			if len(internal.Hovered) > 0 && hoveredSelf {
				higher := append(append([]*Intersection(nil), intersections[:idx]...), hit)
				em.cancelPointer(higher)
			}
		}

		callback(data)
		if stopped {
			break
		}
	}
}
