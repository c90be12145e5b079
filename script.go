package arbor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScriptStep is one mutation or input instruction of a Script. Op selects
// which of the other fields are read.
//
//	create     id, tag
//	comment    id, text
//	args       node (a comment), args
//	parent     node (a comment), parent
//	portal     id
//	append     parent, child
//	insert     parent, child, before
//	remove     parent, child
//	destroy    node
//	set        node, name, value (attribute, value as string)
//	prop       node, name, value
//	listen     node, event
//	unlisten   node, event
//	pointer    type, x, y, pointer
//	click      x, y (injected, one event per frame)
//	frame      count
//	advance    at (milliseconds)
//	invalidate frames
//	frameloop  value
//	dump
//
// Strings of the form "$id" in args, parent and value refer to the native
// value of node id.
type ScriptStep struct {
	Op      string  `yaml:"op"`
	ID      string  `yaml:"id,omitempty"`
	Tag     string  `yaml:"tag,omitempty"`
	Text    string  `yaml:"text,omitempty"`
	Node    string  `yaml:"node,omitempty"`
	Parent  string  `yaml:"parent,omitempty"`
	Child   string  `yaml:"child,omitempty"`
	Before  string  `yaml:"before,omitempty"`
	Name    string  `yaml:"name,omitempty"`
	Value   any     `yaml:"value,omitempty"`
	Args    []any   `yaml:"args,omitempty"`
	Event   string  `yaml:"event,omitempty"`
	Type    string  `yaml:"type,omitempty"`
	X       float64 `yaml:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"`
	Pointer int     `yaml:"pointer,omitempty"`
	Count   int     `yaml:"count,omitempty"`
	Frames  int     `yaml:"frames,omitempty"`
	At      float64 `yaml:"at,omitempty"`
}

// Script is a named list of steps played against a fresh root.
type Script struct {
	Name   string       `yaml:"name"`
	Config Config       `yaml:"config"`
	Steps  []ScriptStep `yaml:"steps"`
}

// ParseScript decodes a YAML (or JSON) script. Config fields the script
// leaves out keep their defaults.
func ParseScript(data []byte) (*Script, error) {
	s := &Script{Config: DefaultConfig()}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrScript, err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrScript)
	}
	return s, nil
}

// FrameInterval is the host time between script frames.
const FrameInterval = time.Second / 60

// ScriptRunner plays a Script and records a trace of what the root did.
type ScriptRunner struct {
	script   *Script
	host     *ManualHost
	loop     *Loop
	store    *Store
	renderer *Renderer

	nodes     map[string]*TreeNode
	listeners map[string]func()
	trace     []string
	renders   int
	cursor    int
	wait      int
}

// NewScriptRunner creates the root the script plays against. host may be
// shared with a windowed driver; nil creates a private one.
func NewScriptRunner(script *Script, host *ManualHost) *ScriptRunner {
	if host == nil {
		host = NewManualHost()
	}
	r := &ScriptRunner{
		script:    script,
		host:      host,
		nodes:     make(map[string]*TreeNode),
		listeners: make(map[string]func()),
	}
	r.loop = NewLoop(host)
	r.store = NewStore(r.loop,
		WithConfig(script.Config),
		WithRenderer(NativeRendererFunc(func(scene, camera *Object) {
			r.renders++
			r.tracef("render %d", r.renders)
		})),
	)
	r.store.Get().OnPointerMissed = func(ev *PointerEvent) {
		r.tracef("missed %s", ev.Type)
	}
	if scene := r.store.Get().Scene; scene.Name == "" {
		scene.Name = "scene"
	}
	r.renderer = NewRenderer(r.store)
	r.nodes["scene"] = r.renderer.SceneNode()
	r.store.Start()
	return r
}

// Store returns the root the script plays against.
func (r *ScriptRunner) Store() *Store { return r.store }

// Loop returns the runner's loop.
func (r *ScriptRunner) Loop() *Loop { return r.loop }

// Node returns the node created with id.
func (r *ScriptRunner) Node(id string) *TreeNode { return r.nodes[id] }

// Trace returns the recorded trace, one event per line.
func (r *ScriptRunner) Trace() string {
	return strings.Join(r.trace, "\n") + "\n"
}

// Done reports whether every step has been applied.
func (r *ScriptRunner) Done() bool {
	return r.cursor >= len(r.script.Steps) && r.wait == 0
}

// Run plays the whole script, stepping the host one frame per frame step.
func (r *ScriptRunner) Run() error {
	r.host.Step(FrameInterval)
	for {
		done, err := r.Tick()
		if err != nil {
			return err
		}
		if done {
			break
		}
		r.host.Step(FrameInterval)
	}
	r.host.Flush()
	return nil
}

// Tick applies steps up to the next frame step. The caller runs one host
// frame between calls. It reports whether the script is finished.
func (r *ScriptRunner) Tick() (bool, error) {
	if r.wait > 0 {
		r.wait--
		return false, nil
	}
	for r.cursor < len(r.script.Steps) {
		st := r.script.Steps[r.cursor]
		r.cursor++
		if st.Op == "frame" {
			r.wait = max(st.Count, 1) - 1
			return false, nil
		}
		if err := r.apply(st); err != nil {
			return true, fmt.Errorf("%w: step %d (%s): %v", ErrScript, r.cursor, st.Op, err)
		}
	}
	return true, nil
}

func (r *ScriptRunner) tracef(format string, args ...any) {
	r.trace = append(r.trace, fmt.Sprintf(format, args...))
}

func (r *ScriptRunner) node(id string) (*TreeNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return n, nil
}

// resolve replaces "$id" references with native values.
func (r *ScriptRunner) resolve(v any) any {
	switch x := v.(type) {
	case string:
		if id, ok := strings.CutPrefix(x, "$"); ok {
			if n, ok := r.nodes[id]; ok && n.instance != nil {
				return n.instance.object
			}
		}
	case []any:
		out := make([]any, len(x))
		for k, e := range x {
			out[k] = r.resolve(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = r.resolve(e)
		}
		return out
	}
	return v
}

func (r *ScriptRunner) apply(st ScriptStep) error {
	switch st.Op {
	case "create":
		n := r.renderer.CreateElement(st.Tag)
		if n.instance != nil {
			if o := n.instance.NativeObject(); o != nil {
				o.Name = st.ID
			}
		}
		r.nodes[st.ID] = n
		r.tracef("create %s %s %s", st.ID, st.Tag, n.Kind)
	case "comment":
		r.nodes[st.ID] = r.renderer.CreateComment(st.Text)
	case "portal":
		container := NewGroup(st.ID)
		portal := NewPortalStore(r.store, container)
		r.store.Get().Scene.Add(container)
		r.nodes[st.ID] = r.renderer.CreatePortal(portal)
	case "args", "parent":
		c, err := r.node(st.Node)
		if err != nil {
			return err
		}
		if st.Op == "args" {
			r.renderer.InjectArgs(c, r.resolve(st.Args).([]any)...)
		} else {
			p, err := r.node(st.Parent)
			if err != nil {
				return err
			}
			r.renderer.InjectParent(c, p)
		}
	case "append", "insert", "remove":
		p, err := r.node(st.Parent)
		if err != nil {
			return err
		}
		c, err := r.node(st.Child)
		if err != nil {
			return err
		}
		switch st.Op {
		case "append":
			r.renderer.AppendChild(p, c)
		case "insert":
			ref, err := r.node(st.Before)
			if err != nil {
				return err
			}
			r.renderer.InsertBefore(p, c, ref)
		default:
			r.renderer.RemoveChild(p, c)
		}
		r.tracef("%s %s %s", st.Op, st.Parent, st.Child)
	case "destroy":
		n, err := r.node(st.Node)
		if err != nil {
			return err
		}
		r.renderer.DestroyNode(n)
		r.tracef("destroy %s", st.Node)
	case "set":
		n, err := r.node(st.Node)
		if err != nil {
			return err
		}
		r.renderer.SetAttribute(n, st.Name, fmt.Sprint(st.Value))
	case "prop":
		n, err := r.node(st.Node)
		if err != nil {
			return err
		}
		r.renderer.SetProperty(n, st.Name, r.resolve(st.Value))
	case "listen":
		return r.listen(st)
	case "unlisten":
		key := st.Node + "/" + st.Event
		if remove, ok := r.listeners[key]; ok {
			remove()
			delete(r.listeners, key)
		}
	case "pointer":
		ev := &PointerEvent{Type: st.Type, PointerID: st.Pointer, OffsetX: st.X, OffsetY: st.Y}
		r.store.Get().Events.Handle(st.Type, ev)
	case "click":
		r.store.Get().Events.InjectClick(st.X, st.Y)
	case "advance":
		r.store.Advance(time.Duration(st.At * float64(time.Millisecond)))
	case "invalidate":
		r.store.Invalidate(max(st.Frames, 1))
	case "frameloop":
		r.store.SetFrameloop(FrameLoop(fmt.Sprint(st.Value)))
	case "dump":
		r.dump()
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	return nil
}

func (r *ScriptRunner) listen(st ScriptStep) error {
	n, err := r.node(st.Node)
	if err != nil {
		return err
	}
	id, event := st.Node, st.Event
	var fn Listener
	switch event {
	case ListenBeforeRender:
		fn = func(any) { r.tracef("frame %s priority=%d", id, n.instance.Priority) }
	case ListenAfterAttach, ListenAttached, ListenAfterUpdate, ListenUpdated:
		fn = func(any) { r.tracef("%s %s", event, id) }
	default:
		fn = func(e any) {
			switch ev := e.(type) {
			case *ThreeEvent:
				r.tracef("event %s %s object=%s distance=%.3f", id, ev.Name, objectName(ev.EventObject), ev.Distance)
			case NativeEvent:
				r.tracef("native %s %s", id, ev.Type)
			case *PointerEvent:
				r.tracef("event %s %s", id, ev.Type)
			}
		}
	}
	r.listeners[id+"/"+event] = r.renderer.Listen(n, event, fn)
	return nil
}

// dump writes the scene graph and the interaction list to the trace.
func (r *ScriptRunner) dump() {
	var walk func(o *Object, depth int)
	walk = func(o *Object, depth int) {
		r.tracef("%s%s %s", strings.Repeat("  ", depth), o.Kind, objectName(o))
		for _, c := range o.Children() {
			walk(c, depth+1)
		}
	}
	walk(r.store.Get().Scene, 0)
	var names []string
	for _, inst := range r.store.Get().Internal.Interaction {
		names = append(names, objectName(inst.NativeObject()))
	}
	sort.Strings(names)
	r.tracef("interaction [%s]", strings.Join(names, " "))
}

func objectName(o *Object) string {
	if o == nil {
		return "-"
	}
	if o.Name == "" {
		return fmt.Sprintf("#%d", o.ID)
	}
	return o.Name
}
