package arbor

// NewPortalStore creates a store rendering into container, nested under
// parent. It shares the loop, interaction and subscriber bookkeeping of
// parent's root and computes pointers from the parent's pointer. The portal
// store is not registered with the loop.
func NewPortalStore(parent *Store, container *Object, opts ...StoreOption) *Store {
	ps := parent.state
	s := &Store{
		loop:   parent.loop,
		config: parent.config,
	}
	st := &RootState{
		ID:           ps.ID + "/portal",
		Scene:        container,
		Camera:       ps.Camera,
		Renderer:     ps.Renderer,
		Raycaster:    NewRaycaster(),
		Clock:        ps.Clock,
		Size:         ps.Size,
		DPR:          ps.DPR,
		Frameloop:    ps.Frameloop,
		PreviousRoot: parent,
	}
	st.Internal.Hovered = make(map[string]*ThreeEvent)
	st.Internal.CapturedMap = make(map[int]map[*Object]*CaptureData)
	s.state = st
	for _, opt := range opts {
		opt(s)
	}
	if st.Scene == nil {
		st.Scene = NewGroup("portal")
	}
	em := &EventManager{
		Enabled:  ps.Events.Enabled,
		Priority: ps.Events.Priority + 1,
		Compute:  portalCompute,
		store:    s,
	}
	st.Events = em
	if LocalStateOf(st.Scene) == nil {
		prepare(st.Scene, "Portal", s)
	}
	return s
}

// portalContainer resolves the instance of the portal's scene, creating a
// store for a portal created without one.
func (r *Renderer) portalContainer(n *TreeNode) *Instance {
	p := n.portal
	if p.container != nil {
		return p.container
	}
	if p.store == nil {
		if args := r.lookupArgs(); len(args) > 0 {
			p.store, _ = args[0].(*Store)
		}
	}
	if p.store == nil {
		configError(errorf(ErrNoParent, "portal without a store"))
		return nil
	}
	scene := p.store.state.Scene
	inst := LocalStateOf(scene)
	if inst == nil {
		inst = prepare(scene, "Portal", p.store)
	}
	p.container = inst
	return inst
}
