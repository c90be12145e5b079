package arbor

import (
	"sort"
	"time"

	"cogentcore.org/core/math32"
	"github.com/google/uuid"
)

// NativeRenderer draws a scene. It is the only rendering call the loop makes.
type NativeRenderer interface {
	Render(scene, camera *Object)
}

// NativeRendererFunc adapts a function to NativeRenderer.
type NativeRendererFunc func(scene, camera *Object)

// Render implements NativeRenderer.
func (f NativeRendererFunc) Render(scene, camera *Object) { f(scene, camera) }

// RenderCallback is called before a root renders. delta is in seconds.
type RenderCallback func(state *RootState, delta float64)

// Subscriber is a before-render callback registered on a root.
type Subscriber struct {
	Callback RenderCallback
	Priority int
	Store    *Store
}

// XRState reports whether the root is presenting to an immersive session.
// Presenting roots are not rendered by the loop.
type XRState struct {
	Presenting bool
	// Frame is the host frame handed to Loop.Advance. It is nil outside an
	// advance.
	Frame any
}

// InternalState is the bookkeeping the loop and the event subsystem share.
// Only the store reached by Store.Root carries the authoritative copy.
type InternalState struct {
	// Active becomes true one host frame after Start.
	Active bool
	// Priority counts subscribers that claimed manual rendering.
	Priority int
	// Frames is the number of pending frames.
	Frames int
	// Subscribers are sorted ascending by priority.
	Subscribers []*Subscriber
	// Interaction holds the instances with at least one pointer handler.
	Interaction []*Instance
	// Hovered maps intersection ids to the event that first hovered them.
	Hovered map[string]*ThreeEvent
	// CapturedMap maps pointer ids to captured objects.
	CapturedMap map[int]map[*Object]*CaptureData
	// InitialClick is the pointer offset of the last pointerdown.
	InitialClick [2]float64
	// InitialHits are the objects hit by the last pointerdown.
	InitialHits []*Object
	// LastEvent is the last native pointer event handled.
	LastEvent *PointerEvent
}

// RootState is the state of one canvas or portal root.
type RootState struct {
	ID        string
	Scene     *Object
	Camera    *Object
	Renderer  NativeRenderer
	Raycaster *Raycaster
	Clock     *Clock
	// Pointer holds normalized device coordinates of the last pointer event.
	Pointer   math32.Vector2
	Size      Size
	DPR       float64
	Frameloop FrameLoop
	Events    *EventManager
	XR        XRState
	// PreviousRoot is the store a portal root is nested under.
	PreviousRoot *Store
	// OnPointerMissed is called for click-family events that hit nothing.
	OnPointerMissed func(*PointerEvent)

	Internal InternalState
}

// Store owns a RootState and connects it to the loop.
type Store struct {
	state  *RootState
	loop   *Loop
	config Config

	subs   []*storeSub
	nextID int
}

type storeSub struct {
	id int
	fn func(*RootState)
}

// StoreOption configures a store at creation.
type StoreOption func(*Store)

// WithScene sets the scene root.
func WithScene(scene *Object) StoreOption {
	return func(s *Store) { s.state.Scene = scene }
}

// WithCamera sets the default camera.
func WithCamera(camera *Object) StoreOption {
	return func(s *Store) { s.state.Camera = camera }
}

// WithRenderer sets the native renderer.
func WithRenderer(r NativeRenderer) StoreOption {
	return func(s *Store) { s.state.Renderer = r }
}

// WithConfig replaces the configuration.
func WithConfig(cfg Config) StoreOption {
	return func(s *Store) { s.config = cfg }
}

// NewStore creates a root store registered with loop. The root renders
// nothing until Start is called.
func NewStore(loop *Loop, opts ...StoreOption) *Store {
	s := &Store{
		loop:   loop,
		config: DefaultConfig(),
		state: &RootState{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Raycaster: NewRaycaster(),
			Clock:     NewClock(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	cfg := s.config.normalize()
	s.config = cfg
	st := s.state
	st.Frameloop = cfg.Frameloop
	st.Size = cfg.Size
	st.DPR = cfg.clampDPR(cfg.DPR)
	if st.Scene == nil {
		st.Scene = NewScene()
	}
	if st.Camera == nil {
		st.Camera = cfg.Camera.build()
	}
	st.Camera.UpdateAspect(st.Size)
	st.Internal.Hovered = make(map[string]*ThreeEvent)
	st.Internal.CapturedMap = make(map[int]map[*Object]*CaptureData)
	st.Events = newEventManager(s, cfg)
	if LocalStateOf(st.Scene) == nil {
		prepare(st.Scene, "Scene", s)
	}
	loop.register(s)
	return s
}

// Get returns the live state. Mutations made through it are not observed
// by subscribers; use Update for that.
func (s *Store) Get() *RootState { return s.state }

// Snapshot returns a shallow copy of the state.
func (s *Store) Snapshot() RootState { return *s.state }

// Select applies fn to the store's state.
func Select[T any](s *Store, fn func(*RootState) T) T {
	return fn(s.state)
}

// Update applies fn to the state and notifies subscribers.
func (s *Store) Update(fn func(*RootState)) {
	fn(s.state)
	for _, sub := range append([]*storeSub(nil), s.subs...) {
		sub.fn(s.state)
	}
}

// Subscribe registers fn to be called after every Update.
func (s *Store) Subscribe(fn func(*RootState)) func() {
	s.nextID++
	sub := &storeSub{id: s.nextID, fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		for k, c := range s.subs {
			if c == sub {
				s.subs = append(s.subs[:k:k], s.subs[k+1:]...)
				return
			}
		}
	}
}

// Config returns the configuration the store was created with.
func (s *Store) Config() Config { return s.config }

// Loop returns the loop the store is registered with.
func (s *Store) Loop() *Loop { return s.loop }

// Host returns the loop's host.
func (s *Store) Host() Host { return s.loop.host }

// Root follows PreviousRoot links to the authoritative store.
func (s *Store) Root() *Store {
	r := s
	for r.state.PreviousRoot != nil {
		r = r.state.PreviousRoot
	}
	return r
}

// Start activates the root after one host frame.
func (s *Store) Start() {
	s.loop.host.RequestAnimationFrame(func(time.Duration) {
		s.Update(func(st *RootState) { st.Internal.Active = true })
		s.Invalidate(1)
	})
}

// Stop deactivates the root and unregisters it from the loop.
func (s *Store) Stop() {
	s.state.Internal.Active = false
	s.loop.unregister(s)
}

// Invalidate requests frames for this store's root.
func (s *Store) Invalidate(frames int) {
	s.loop.Invalidate(s, frames)
}

// Advance renders the root once at timestamp, for the never frame loop.
func (s *Store) Advance(ts time.Duration) {
	s.loop.Advance(ts, true, s, nil)
}

// SetSize resizes the root and fits the default camera to it.
func (s *Store) SetSize(size Size) {
	s.Update(func(st *RootState) {
		st.Size = size
		st.Camera.UpdateAspect(size)
	})
	s.Invalidate(1)
}

// SetDpr sets the device pixel ratio, clamped to the configured range.
func (s *Store) SetDpr(dpr float64) {
	s.Update(func(st *RootState) { st.DPR = s.config.clampDPR(dpr) })
	s.Invalidate(1)
}

// SetFrameloop switches the frame-loop mode. Unknown modes are ignored with
// a warning.
func (s *Store) SetFrameloop(mode FrameLoop) {
	if !mode.Valid() {
		configError(errorf(ErrConfig, "unknown frameloop %q", mode))
		return
	}
	s.Update(func(st *RootState) { st.Frameloop = mode })
	s.Invalidate(1)
}

// InjectBeforeRender subscribes cb to run before each render of the root.
// Subscribers run in ascending priority order; a positive priority also
// takes over rendering, so the loop skips the native draw while it is
// subscribed.
func (s *Store) InjectBeforeRender(cb RenderCallback, priority int) func() {
	internal := &s.Root().state.Internal
	if priority > 0 {
		internal.Priority++
	}
	sub := &Subscriber{Callback: cb, Priority: priority, Store: s}
	internal.Subscribers = append(internal.Subscribers, sub)
	sort.SliceStable(internal.Subscribers, func(a, b int) bool {
		return internal.Subscribers[a].Priority < internal.Subscribers[b].Priority
	})
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if priority > 0 {
			internal.Priority--
		}
		for k, c := range internal.Subscribers {
			if c == sub {
				internal.Subscribers = append(internal.Subscribers[:k:k], internal.Subscribers[k+1:]...)
				break
			}
		}
	}
}

// --- Interaction bookkeeping ---

func (s *Store) addInteraction(inst *Instance) {
	internal := &s.state.Internal
	for _, i := range internal.Interaction {
		if i == inst {
			return
		}
	}
	internal.Interaction = append(internal.Interaction, inst)
}

func (s *Store) removeInteraction(inst *Instance) {
	removeInstance(&s.state.Internal.Interaction, inst)
}

// removeInteractivity strips every reference to inst's object from the
// interaction, initial-hit, hover and capture state.
func (s *Store) removeInteractivity(inst *Instance) {
	internal := &s.state.Internal
	s.removeInteraction(inst)
	obj := inst.NativeObject()
	if obj == nil {
		return
	}
	hits := internal.InitialHits[:0]
	for _, o := range internal.InitialHits {
		if o != obj {
			hits = append(hits, o)
		}
	}
	internal.InitialHits = hits
	for key, hit := range internal.Hovered {
		if hit.EventObject == obj || hit.Object == obj {
			delete(internal.Hovered, key)
		}
	}
	for pointerID, captures := range internal.CapturedMap {
		releaseInternalCapture(internal.CapturedMap, obj, captures, pointerID)
	}
}
