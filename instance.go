package arbor

// HierarchyKind selects one of an Instance's dependent lists.
type HierarchyKind uint8

const (
	// HierarchyObjects holds children added to the native scene graph.
	HierarchyObjects HierarchyKind = iota
	// HierarchyNonObjects holds children attached through a property path or
	// function.
	HierarchyNonObjects
	// HierarchyGeometry counts geometry changes.
	HierarchyGeometry

	hierarchyKinds
)

// HierarchyNotifyThreshold is the number of notifications of one kind an
// ancestor absorbs before forwarding one further up. The default of 1
// forwards every notification.
var HierarchyNotifyThreshold = 1

// AttachFunc attaches child to parent and returns an optional cleanup that
// undoes it.
type AttachFunc func(parent, child any, store *Store) func()

// attachRecord remembers the value a path attach replaced.
type attachRecord struct {
	ref      propRef
	previous any
}

type handlerEntry struct {
	fn Listener
}

type renderSub struct {
	cb    RenderCallback
	unsub func()
}

// Instance is the reconciler's state for one native object, resource, or
// raw value. It is stored in the value's Slot when the value has one.
type Instance struct {
	// Type is the catalogue name the instance was created from.
	Type string
	// Store is the root the instance renders in.
	Store *Store
	// Priority is the render priority given to beforeRender listeners.
	Priority int
	// IsRaw marks a value instance with no native object until a value is set.
	IsRaw bool
	// IsPrimitive marks an instance wrapping a user-supplied object.
	IsPrimitive bool

	object any
	rawSet bool

	parent        *Instance
	pendingParent *Instance
	objects       []*Instance
	nonObjects    []*Instance
	geometryStamp uint64
	versions      [hierarchyKinds]uint64
	throttle      [hierarchyKinds]int

	attachPath     []string
	attachFn       AttachFunc
	previousAttach any // attachRecord or func()

	handlers     map[string][]*handlerEntry
	propHandlers map[string]func()
	eventCount   int

	renderSubs []*renderSub
	onUpdate   []*handlerEntry
	onAttach   []*handlerEntry
	ref        Listener

	disposeQueued bool
	destroyed     bool
}

// prepare wraps obj in a new Instance and stores it in obj's Slot.
func prepare(obj any, typ string, store *Store) *Instance {
	inst := &Instance{Type: typ, Store: store, object: obj}
	if ls, ok := obj.(LocalStater); ok {
		ls.SetLocalState(inst)
	}
	return inst
}

// Object returns the native value. For raw instances it is the raw value,
// or nil until one is set.
func (i *Instance) Object() any {
	return i.object
}

// NativeObject returns the wrapped value when it is a scene-graph Object.
func (i *Instance) NativeObject() *Object {
	o, _ := i.object.(*Object)
	return o
}

// setRaw stores the value of a raw instance.
func (i *Instance) setRaw(v any) {
	i.object = v
	i.rawSet = true
}

// Parent returns the instance this one is attached under.
func (i *Instance) Parent() *Instance { return i.parent }

// SetParent sets the hierarchy parent without attaching.
func (i *Instance) SetParent(p *Instance) { i.parent = p }

// Objects returns the children added to the native scene graph.
func (i *Instance) Objects() []*Instance { return i.objects }

// NonObjects returns the children attached through a path or function.
func (i *Instance) NonObjects() []*Instance { return i.nonObjects }

// EventCount returns the number of registered pointer handlers.
func (i *Instance) EventCount() int { return i.eventCount }

// IsDestroyed reports whether Destroy was called.
func (i *Instance) IsDestroyed() bool { return i.destroyed }

// GeometryStamp increases every time a geometry is attached.
func (i *Instance) GeometryStamp() uint64 { return i.geometryStamp }

// Version returns the change counter for kind. It increases when the
// instance or a descendant gains or loses a dependent of that kind.
func (i *Instance) Version(kind HierarchyKind) uint64 { return i.versions[kind] }

// AttachPath returns the property path the instance attaches to, if any.
func (i *Instance) AttachPath() []string { return i.attachPath }

// Handlers returns the handlers registered for event name.
func (i *Instance) Handlers(name string) []Listener {
	entries := i.handlers[name]
	out := make([]Listener, len(entries))
	for k, e := range entries {
		out[k] = e.fn
	}
	return out
}

// hasHandler reports whether any handler is registered for name.
func (i *Instance) hasHandler(name string) bool {
	return len(i.handlers[name]) > 0
}

// root returns the authoritative store for interaction bookkeeping.
func (i *Instance) root() *Store {
	if i.Store == nil {
		return nil
	}
	return i.Store.Root()
}

// --- Hierarchy ---

func (i *Instance) list(kind HierarchyKind) *[]*Instance {
	if kind == HierarchyObjects {
		return &i.objects
	}
	return &i.nonObjects
}

// Add registers child under kind. A child already present is replaced in
// place; a child registered under the other kind is moved.
func (i *Instance) Add(child *Instance, kind HierarchyKind) {
	other := HierarchyNonObjects
	if kind == HierarchyNonObjects {
		other = HierarchyObjects
	}
	removeInstance(i.list(other), child)
	l := i.list(kind)
	replaced := false
	for k, c := range *l {
		if c == child {
			(*l)[k] = child
			replaced = true
			break
		}
	}
	if !replaced {
		*l = append(*l, child)
	}
	if _, ok := child.object.(*Geometry); ok {
		i.geometryStamp++
		notifyAncestors(i, HierarchyGeometry)
	}
	notifyAncestors(i, kind)
}

// Remove unregisters child from kind.
func (i *Instance) Remove(child *Instance, kind HierarchyKind) {
	if removeInstance(i.list(kind), child) {
		notifyAncestors(i, kind)
	}
}

func removeInstance(l *[]*Instance, child *Instance) bool {
	for k, c := range *l {
		if c == child {
			*l = append((*l)[:k:k], (*l)[k+1:]...)
			return true
		}
	}
	return false
}

// notifyAncestors bumps the kind version of inst and walks up through its
// parents. Each ancestor counts notifications per kind and forwards only
// every HierarchyNotifyThreshold-th one.
func notifyAncestors(inst *Instance, kind HierarchyKind) {
	threshold := max(HierarchyNotifyThreshold, 1)
	for a := inst; a != nil; a = a.parent {
		a.versions[kind]++
		a.throttle[kind]++
		if a.throttle[kind] < threshold {
			return
		}
		a.throttle[kind] = 0
	}
}

// --- Handlers ---

// addHandler registers fn under name and returns its remover. The first
// handler puts the instance in its root's interaction list and removing
// the last one takes it out.
func (i *Instance) addHandler(name string, fn Listener) func() {
	if i.handlers == nil {
		i.handlers = make(map[string][]*handlerEntry)
	}
	entry := &handlerEntry{fn: fn}
	i.handlers[name] = append(i.handlers[name], entry)
	i.eventCount++
	if i.eventCount == 1 {
		i.refreshInteraction()
	}
	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		if i.destroyed {
			return
		}
		entries := i.handlers[name]
		found := false
		for k, e := range entries {
			if e == entry {
				i.handlers[name] = append(entries[:k:k], entries[k+1:]...)
				found = true
				break
			}
		}
		if !found {
			return
		}
		if len(i.handlers[name]) == 0 {
			delete(i.handlers, name)
		}
		i.eventCount--
		if i.eventCount == 0 {
			i.refreshInteraction()
		}
	}
}

// setPropHandler replaces the handler set through a prop key.
func (i *Instance) setPropHandler(name string, fn Listener) {
	if i.propHandlers == nil {
		i.propHandlers = make(map[string]func())
	}
	if remove, ok := i.propHandlers[name]; ok {
		remove()
		delete(i.propHandlers, name)
	}
	if fn != nil {
		i.propHandlers[name] = i.addHandler(name, fn)
	}
}

// refreshInteraction puts the instance in, or takes it out of, its root's
// interaction list according to eventCount.
func (i *Instance) refreshInteraction() {
	root := i.root()
	if root == nil || i.NativeObject() == nil {
		return
	}
	if i.eventCount > 0 && !i.destroyed {
		root.addInteraction(i)
	} else {
		root.removeInteraction(i)
	}
}

// --- Emitters ---

func addEntry(l *[]*handlerEntry, fn Listener) func() {
	entry := &handlerEntry{fn: fn}
	*l = append(*l, entry)
	return func() {
		for k, e := range *l {
			if e == entry {
				*l = append((*l)[:k:k], (*l)[k+1:]...)
				return
			}
		}
	}
}

func emit(l []*handlerEntry, v any) {
	for _, e := range append([]*handlerEntry(nil), l...) {
		e.fn(v)
	}
}

func (i *Instance) emitUpdate() { emit(i.onUpdate, i.object) }

func (i *Instance) emitAttach() {
	emit(i.onAttach, i.object)
	if i.ref != nil {
		i.ref(i.object)
	}
}

// subscribeRender registers a beforeRender listener at the instance's
// current priority.
func (i *Instance) subscribeRender(cb RenderCallback) func() {
	sub := &renderSub{cb: cb}
	if i.Store != nil {
		sub.unsub = i.Store.InjectBeforeRender(cb, i.Priority)
	}
	i.renderSubs = append(i.renderSubs, sub)
	return func() {
		if sub.unsub != nil {
			sub.unsub()
			sub.unsub = nil
		}
		for k, s := range i.renderSubs {
			if s == sub {
				i.renderSubs = append(i.renderSubs[:k:k], i.renderSubs[k+1:]...)
				return
			}
		}
	}
}

// setPriority changes the render priority and moves existing beforeRender
// listeners to it.
func (i *Instance) setPriority(p int) {
	if p == i.Priority {
		return
	}
	i.Priority = p
	if i.Store == nil {
		return
	}
	for _, sub := range i.renderSubs {
		if sub.unsub != nil {
			sub.unsub()
		}
		sub.unsub = i.Store.InjectBeforeRender(sub.cb, p)
	}
}

// --- Lifecycle ---

// adoptStore moves the instance and its dependents that still point at
// from onto to.
func (i *Instance) adoptStore(from, to *Store) {
	if i.Store != from {
		return
	}
	hadInteraction := i.eventCount > 0 && i.NativeObject() != nil
	if hadInteraction && from != nil {
		from.Root().removeInteraction(i)
	}
	i.Store = to
	if hadInteraction {
		to.Root().addInteraction(i)
	}
	for _, sub := range i.renderSubs {
		if sub.unsub != nil {
			sub.unsub()
		}
		sub.unsub = to.InjectBeforeRender(sub.cb, i.Priority)
	}
	for _, c := range i.objects {
		c.adoptStore(from, to)
	}
	for _, c := range i.nonObjects {
		c.adoptStore(from, to)
	}
}

// invalidate requests a frame from the owning root unless one is pending.
func (i *Instance) invalidate() {
	if o := i.NativeObject(); o != nil {
		o.MarkDirty()
	}
	if i.Store == nil {
		return
	}
	if i.Store.Root().state.Internal.Frames == 0 {
		i.Store.Invalidate(1)
	}
}

// queueDispose schedules native disposal on the host microtask queue.
func (i *Instance) queueDispose() {
	if i.disposeQueued || i.Store == nil {
		return
	}
	d, ok := i.object.(Disposer)
	if !ok {
		return
	}
	if o, ok := i.object.(*Object); ok && o.IsScene() {
		return
	}
	i.disposeQueued = true
	i.Store.Host().QueueMicrotask(d.Dispose)
}

// Destroy tears the instance down along with its dependents. It removes
// every trace of the instance from its root's interaction, hover and
// capture state and schedules native disposal. Destroy is idempotent.
func (i *Instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	for _, c := range append(append([]*Instance(nil), i.objects...), i.nonObjects...) {
		c.Destroy()
	}
	i.objects, i.nonObjects = nil, nil
	for _, sub := range i.renderSubs {
		if sub.unsub != nil {
			sub.unsub()
		}
	}
	i.renderSubs = nil
	i.handlers, i.propHandlers = nil, nil
	i.eventCount = 0
	i.onUpdate, i.onAttach, i.ref = nil, nil, nil
	if root := i.root(); root != nil {
		root.removeInteractivity(i)
	}
	if !i.IsPrimitive {
		i.queueDispose()
	}
	i.parent, i.pendingParent = nil, nil
}
