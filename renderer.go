package arbor

import (
	"strconv"
	"strings"
)

// Delegate is the surrounding tree that hosts platform nodes.
type Delegate interface {
	CreateElement(tag string) any
	AppendChild(parent, child *TreeNode)
	InsertBefore(parent, child, ref *TreeNode)
	RemoveChild(parent, child *TreeNode)
}

type nopDelegate struct{}

func (nopDelegate) CreateElement(string) any                 { return nil }
func (nopDelegate) AppendChild(parent, child *TreeNode)       {}
func (nopDelegate) InsertBefore(parent, child, ref *TreeNode) {}
func (nopDelegate) RemoveChild(parent, child *TreeNode)       {}

// FrameEvent is passed to beforeRender listeners.
type FrameEvent struct {
	State  *RootState
	Delta  float64
	Object any
}

// Renderer applies tree mutations to a root's scene graph.
type Renderer struct {
	store      *Store
	catalogue  *Catalogue
	delegate   Delegate
	directives []*Directive
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithCatalogue sets the type catalogue. DefaultCatalogue is used otherwise.
func WithCatalogue(c *Catalogue) RendererOption {
	return func(r *Renderer) { r.catalogue = c }
}

// WithDelegate sets the host of platform nodes.
func WithDelegate(d Delegate) RendererOption {
	return func(r *Renderer) { r.delegate = d }
}

// NewRenderer returns a renderer creating instances in store.
func NewRenderer(store *Store, opts ...RendererOption) *Renderer {
	r := &Renderer{store: store, catalogue: DefaultCatalogue, delegate: nopDelegate{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the root store.
func (r *Renderer) Store() *Store { return r.store }

// SceneNode returns a scene-object node wrapping the root scene, to append
// top-level children to.
func (r *Renderer) SceneNode() *TreeNode {
	scene := r.store.Get().Scene
	inst := LocalStateOf(scene)
	if inst == nil {
		inst = prepare(scene, "Scene", r.store)
	}
	return &TreeNode{Kind: KindSceneObject, Tag: "scene", instance: inst}
}

// --- Creation ---

// CreateNode creates a node of kind. payload is the tag of scene-object and
// platform nodes and the text of comments. A portal node takes its store
// from injected arguments.
func (r *Renderer) CreateNode(kind NodeKind, payload string) *TreeNode {
	switch kind {
	case KindSceneObject:
		return r.CreateElement(payload)
	case KindComment:
		return r.CreateComment(payload)
	case KindPortal:
		var store *Store
		if args := r.lookupArgs(); len(args) > 0 {
			store, _ = args[0].(*Store)
		}
		return r.CreatePortal(store)
	}
	return &TreeNode{Kind: KindPlatform, Tag: payload, Payload: r.delegate.CreateElement(payload)}
}

// CreateElement creates the node for tag. Tags of catalogue types produce
// scene-object nodes; unknown tags produce platform nodes. "primitive"
// wraps its first injected argument and panics without one. "value" creates
// a raw value node.
func (r *Renderer) CreateElement(tag string) *TreeNode {
	args := r.lookupArgs()
	var inst *Instance
	switch tag {
	case "primitive":
		if len(args) == 0 || args[0] == nil {
			panic("arbor: primitive requires an object argument")
		}
		obj := args[0]
		inst = LocalStateOf(obj)
		if inst == nil {
			inst = prepare(obj, "primitive", r.store)
		}
		inst.IsPrimitive = true
	case "value":
		inst = &Instance{Type: "value", Store: r.store, IsRaw: true}
	default:
		name := CatalogueName(tag)
		ctor, ok := r.catalogue.Lookup(name)
		if !ok {
			logger.Debug("platform node", "tag", tag)
			return &TreeNode{Kind: KindPlatform, Tag: tag, Payload: r.delegate.CreateElement(tag)}
		}
		obj, err := ctor(args...)
		if err != nil {
			report(errorf(ErrUnknownType, "%s: %v", tag, err))
			return &TreeNode{Kind: KindPlatform, Tag: tag, Payload: r.delegate.CreateElement(tag)}
		}
		inst = prepare(obj, name, r.store)
		if da, ok := obj.(DefaultAttacher); ok {
			inst.attachPath = []string{da.DefaultAttach()}
		}
	}
	n := &TreeNode{Kind: KindSceneObject, Tag: tag, instance: inst}
	n.forcedParent = r.lookupParent()
	return n
}

// CreateComment creates a placeholder node.
func (r *Renderer) CreateComment(text string) *TreeNode {
	return &TreeNode{Kind: KindComment, Tag: text}
}

// CreatePortal creates a node whose children render into store's scene.
func (r *Renderer) CreatePortal(store *Store) *TreeNode {
	return &TreeNode{Kind: KindPortal, Tag: "portal", portal: &portalState{store: store}}
}

// --- Structure ---

// AppendChild appends child to parent.
func (r *Renderer) AppendChild(parent, child *TreeNode) {
	r.insert(parent, child, nil)
}

// InsertBefore inserts child into parent before ref.
func (r *Renderer) InsertBefore(parent, child, ref *TreeNode) {
	r.insert(parent, child, ref)
}

func (r *Renderer) insert(parent, child, ref *TreeNode) {
	if parent == nil || child == nil || parent == child {
		return
	}
	if r.store.loop.debug {
		debugCheckDestroyed(parent, "insert")
		debugCheckDestroyed(child, "insert")
	}
	if parent.destroyed || child.destroyed {
		report(errorf(ErrDestroyed, "insert %s into %s", child.Tag, parent.Tag))
		return
	}
	parent.link(child, ref)
	if r.store.loop.debug {
		debugCheckTreeDepth(child)
	}

	if parent.Kind == KindPlatform {
		if ref != nil {
			r.delegate.InsertBefore(parent, child, ref)
		} else {
			r.delegate.AppendChild(parent, child)
		}
	}
	switch child.Kind {
	case KindComment, KindPortal:
		return
	}
	target := r.targetInstance(parent)
	if target == nil {
		return
	}
	r.bridge(target, child)
}

// bridge attaches the scene objects of child, looking through platform
// nodes, to target.
func (r *Renderer) bridge(target *Instance, child *TreeNode) {
	switch child.Kind {
	case KindSceneObject:
		parent := target
		if child.forcedParent != nil {
			parent = child.forcedParent
		}
		if child.instance.parent == parent && child.instance.pendingParent == nil {
			return
		}
		attachChild(parent, child.instance)
	case KindPlatform:
		for _, c := range child.sceneDescendants() {
			r.bridge(target, c)
		}
	}
}

// targetInstance returns the instance children of n attach to: n's own
// instance, a portal's container, or the nearest such ancestor of a
// platform node.
func (r *Renderer) targetInstance(n *TreeNode) *Instance {
	for p := n; p != nil; p = p.parent {
		switch p.Kind {
		case KindSceneObject:
			return p.instance
		case KindPortal:
			return r.portalContainer(p)
		case KindComment:
			return nil
		}
	}
	return nil
}

// RemoveChild removes child from parent. A scene-object child is detached
// and destroyed.
func (r *Renderer) RemoveChild(parent, child *TreeNode) {
	if parent == nil || child == nil {
		return
	}
	if child.parent == parent {
		parent.unlink(child)
	}
	if parent.Kind == KindPlatform {
		r.delegate.RemoveChild(parent, child)
	}
	switch child.Kind {
	case KindSceneObject:
		if inst := child.instance; inst.parent != nil || inst.pendingParent != nil {
			detachChild(inst.parent, inst, true)
		}
		r.DestroyNode(child)
	case KindPlatform, KindPortal:
		for _, c := range child.sceneDescendants() {
			if inst := c.instance; inst.parent != nil || inst.pendingParent != nil {
				detachChild(inst.parent, inst, true)
			}
		}
	}
}

// DestroyNode destroys n and its descendants. Instances are destroyed and
// their native disposal queued. DestroyNode is idempotent.
func (r *Renderer) DestroyNode(n *TreeNode) {
	if n == nil || n.destroyed {
		return
	}
	n.destroyed = true
	for _, c := range append([]*TreeNode(nil), n.children...) {
		r.DestroyNode(c)
	}
	n.children = nil
	if n.parent != nil {
		n.parent.unlink(n)
	}
	if inst := n.instance; inst != nil {
		if inst.parent != nil {
			detachChild(inst.parent, inst, false)
		}
		inst.Destroy()
	}
	n.forcedParent = nil
}

// ParentNode returns the structural parent of n.
func (r *Renderer) ParentNode(n *TreeNode) *TreeNode {
	if n == nil {
		return nil
	}
	return n.parent
}

// --- Attributes and properties ---

// SetAttribute sets a string attribute. priority is parsed as a number,
// value is coerced to a bool or number when it looks like one and attach
// is split on dots. Everything else is applied as a prop.
func (r *Renderer) SetAttribute(n *TreeNode, name, value string) {
	if n == nil || n.Kind != KindSceneObject {
		return
	}
	switch name {
	case "priority":
		r.setPriority(n.instance, value)
	case "attach":
		r.setAttach(n.instance, strings.Split(value, "."))
	case "value":
		r.setValue(n.instance, coerceAttribute(value))
	default:
		r.SetProperty(n, name, value)
	}
}

// SetProperty sets a prop. Besides the reserved attribute names, ref takes
// a callback called with the native value once attached and parameters
// takes a map applied as props.
func (r *Renderer) SetProperty(n *TreeNode, name string, value any) {
	if n == nil || n.Kind != KindSceneObject {
		return
	}
	if r.store.loop.debug {
		debugCheckDestroyed(n, "set "+name)
	}
	inst := n.instance
	if inst.destroyed {
		return
	}
	switch name {
	case "priority":
		r.setPriority(inst, value)
	case "attach":
		switch v := value.(type) {
		case string:
			r.setAttach(inst, strings.Split(v, "."))
		case []string:
			r.setAttach(inst, v)
		case AttachFunc:
			r.setAttachFunc(inst, v)
		case func(parent, child any, store *Store) func():
			r.setAttachFunc(inst, v)
		default:
			configError(errorf(ErrConfig, "attach of type %T", value), "type", inst.Type)
		}
	case "value":
		r.setValue(inst, value)
	case "ref":
		fn, ok := toListener(value)
		if !ok {
			configError(errorf(ErrConfig, "ref of type %T", value), "type", inst.Type)
			return
		}
		inst.ref = fn
		if fn != nil && inst.hasNativeParent() {
			fn(inst.object)
		}
	case "parameters":
		props, ok := value.(map[string]any)
		if !ok {
			configError(errorf(ErrConfig, "parameters of type %T", value), "type", inst.Type)
			return
		}
		applyProps(inst, props)
	default:
		applyProps(inst, map[string]any{name: value})
	}
}

func (r *Renderer) setPriority(inst *Instance, value any) {
	p, err := parsePriority(value)
	if err != nil {
		configError(errorf(ErrInvalidPriority, "%v", value), "type", inst.Type)
		p = 0
	}
	inst.setPriority(p)
}

func parsePriority(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}
	return 0, ErrInvalidPriority
}

// setAttach changes the attach path and re-attaches to a known parent.
func (r *Renderer) setAttach(inst *Instance, path []string) {
	r.reattach(inst, func() {
		inst.attachPath = path
		inst.attachFn = nil
	})
}

func (r *Renderer) setAttachFunc(inst *Instance, fn AttachFunc) {
	r.reattach(inst, func() {
		inst.attachFn = fn
		inst.attachPath = nil
	})
}

func (r *Renderer) reattach(inst *Instance, change func()) {
	parent := inst.parent
	if parent == nil {
		parent = inst.pendingParent
	}
	if inst.parent != nil {
		unlinkChild(inst.parent, inst)
	}
	change()
	if parent != nil {
		attachChild(parent, inst)
	}
}

// setValue stores a raw value and attaches it to a known parent.
func (r *Renderer) setValue(inst *Instance, v any) {
	if !inst.IsRaw {
		applyProps(inst, map[string]any{"value": v})
		return
	}
	parent := inst.parent
	if parent == nil {
		parent = inst.pendingParent
	}
	inst.setRaw(v)
	if parent != nil {
		attachChild(parent, inst)
	}
}

// coerceAttribute converts attribute strings: "", "true" and "false" to
// bools, numeric strings to float64.
func coerceAttribute(s string) any {
	switch s {
	case "", "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func (i *Instance) hasNativeParent() bool {
	if o := i.NativeObject(); o != nil && o.Parent != nil {
		return true
	}
	return i.parent != nil
}

// --- Listeners ---

// Listen registers fn for event on n and returns the function removing it.
// beforeRender subscribes to the root's frame at the node's priority.
// afterUpdate and afterAttach listen to the node's emitters; afterAttach is
// called at once when the node is attached. Native lifecycle events are
// registered on the native object. Any other name is a pointer handler.
func (r *Renderer) Listen(n *TreeNode, event string, fn Listener) func() {
	nop := func() {}
	if n == nil || n.Kind != KindSceneObject || fn == nil {
		return nop
	}
	inst := n.instance
	if inst.destroyed {
		report(errorf(ErrDestroyed, "listen %s on %s", event, n.Tag))
		return nop
	}
	switch {
	case event == ListenBeforeRender:
		return inst.subscribeRender(func(state *RootState, delta float64) {
			fn(&FrameEvent{State: state, Delta: delta, Object: inst.object})
		})
	case event == ListenAfterUpdate || event == ListenUpdated:
		return addEntry(&inst.onUpdate, fn)
	case event == ListenAfterAttach || event == ListenAttached:
		remove := addEntry(&inst.onAttach, fn)
		if inst.parent != nil {
			fn(inst.object)
		}
		return remove
	case isNativeEvent(event):
		o := inst.NativeObject()
		if o == nil {
			return nop
		}
		remove := o.AddEventListener(event, func(ev NativeEvent) { fn(ev) })
		if (event == NativeAdded || event == NativeRemoved) && o.Parent != nil {
			fn(NativeEvent{Type: event, Target: o})
		}
		return remove
	}
	return inst.addHandler(event, fn)
}
