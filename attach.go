package arbor

import "fmt"

// attachChild makes child a dependent of parent. The child is attached
// through its attach function or path when it has one, and added to the
// native scene graph otherwise. Attaching a child already attached to
// parent is a no-op apart from re-applying a path or function.
func attachChild(parent, child *Instance) {
	if parent == nil || child == nil {
		report(ErrNoParent, "child", typeOf(child))
		return
	}
	if parent == child {
		return
	}
	if child.destroyed || parent.destroyed {
		report(errorf(ErrDestroyed, "attach %s to %s", child.Type, parent.Type))
		return
	}

	if parent.Store != nil && child.Store != parent.Store &&
		(child.Store == nil || child.Store == parent.Store.state.PreviousRoot) {
		child.adoptStore(child.Store, parent.Store)
	}
	if child.parent != nil && child.parent != parent {
		unlinkChild(child.parent, child)
	}

	added := false
	switch {
	case child.attachFn != nil:
		if child.IsRaw && !child.rawSet {
			child.pendingParent = parent
			return
		}
		child.pendingParent = nil
		if cleanup, ok := child.previousAttach.(func()); ok {
			cleanup()
		}
		child.previousAttach = nil
		if cleanup := child.attachFn(parent.object, child.object, parent.Store); cleanup != nil {
			child.previousAttach = cleanup
		}
	case len(child.attachPath) > 0:
		if child.IsRaw && !child.rawSet {
			child.pendingParent = parent
			return
		}
		child.pendingParent = nil
		if err := attachPath(parent, child); err != nil {
			report(fmt.Errorf("%w: %v", ErrNoParent, err), "child", child.Type, "parent", parent.Type)
			return
		}
	default:
		po, co := parent.NativeObject(), child.NativeObject()
		if po != nil && co != nil {
			if co.Parent != po {
				po.Add(co)
			}
			added = true
		}
	}

	kind := HierarchyNonObjects
	if added {
		kind = HierarchyObjects
	}
	parent.Add(child, kind)
	child.parent = parent
	child.emitAttach()
	child.invalidate()
	parent.invalidate()
	if child.eventCount > 0 {
		child.refreshInteraction()
	}
}

// attachPath assigns child's value at its attach path on parent. The value
// found there first is remembered so detach can put it back.
func attachPath(parent, child *Instance) error {
	path := child.attachPath
	if len(path) == 1 && path[0] == "none" {
		return nil
	}
	if len(path) == 2 && path[0] == "material" {
		if _, ok := child.object.(*Material); ok {
			if err := promoteMaterials(parent, path[1]); err != nil {
				return err
			}
		}
	}
	ref, err := resolvePath(parent.object, path, true)
	if err != nil {
		return err
	}
	previous := ref.get()
	if rec, ok := child.previousAttach.(attachRecord); ok && child.parent == parent {
		previous = rec.previous
	}
	if vl := vectorLike(ref); vl != nil && vl.CopyFrom(child.object) {
		child.previousAttach = attachRecord{ref: ref, previous: previous}
		return nil
	}
	if err := ref.set(child.object); err != nil {
		return err
	}
	markNeedsUpdate(ref)
	child.previousAttach = attachRecord{ref: ref, previous: previous}
	return nil
}

// promoteMaterials turns the parent's single material slot into a slice
// long enough to hold index.
func promoteMaterials(parent *Instance, index string) error {
	o := parent.NativeObject()
	if o == nil {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(index, "%d", &n); err != nil || n < 0 {
		return fmt.Errorf("material index %q", index)
	}
	var mats []*Material
	switch m := o.Material.(type) {
	case []*Material:
		mats = m
	case *Material:
		if m != nil {
			mats = []*Material{m}
		}
	}
	for len(mats) <= n {
		mats = append(mats, nil)
	}
	o.Material = mats
	return nil
}

// undoAttach reverses a path or function attach, or removes child from
// parent's native children.
func undoAttach(parent, child *Instance) {
	switch prev := child.previousAttach.(type) {
	case attachRecord:
		if err := prev.ref.set(prev.previous); err != nil {
			report(fmt.Errorf("%w: restore %v", ErrNoParent, err), "child", child.Type)
		}
		markNeedsUpdate(prev.ref)
	case func():
		prev()
	}
	child.previousAttach = nil
	if len(child.attachPath) > 0 || child.attachFn != nil || parent == nil {
		return
	}
	po, co := parent.NativeObject(), child.NativeObject()
	if po != nil && co != nil && co.Parent == po {
		po.Remove(co)
	}
}

// unlinkChild undoes a single attach without touching child's own
// dependents. It is used when a child moves to another parent.
func unlinkChild(parent, child *Instance) {
	parent.Remove(child, HierarchyObjects)
	parent.Remove(child, HierarchyNonObjects)
	undoAttach(parent, child)
	child.parent = nil
	parent.invalidate()
}

// detachChild removes child from parent and tears down the child's own
// scene-graph dependents. With dispose set, native disposal of the removed
// values is queued on the host. Primitives belong to the caller and are
// never disposed.
func detachChild(parent, child *Instance, dispose bool) {
	if child == nil {
		return
	}
	if parent != nil {
		parent.Remove(child, HierarchyObjects)
		parent.Remove(child, HierarchyNonObjects)
	}
	child.parent, child.pendingParent = nil, nil
	hadAttach := len(child.attachPath) > 0 || child.attachFn != nil
	undoAttach(parent, child)
	if !hadAttach {
		if root := child.root(); root != nil {
			root.removeInteractivity(child)
		}
	}
	if !child.IsPrimitive {
		for _, c := range append([]*Instance(nil), child.objects...) {
			detachChild(child, c, dispose)
		}
		if o := child.NativeObject(); o != nil && dispose && child.Store != nil {
			for _, n := range o.Children() {
				if LocalStateOf(n) == nil && !n.IsScene() {
					child.Store.Host().QueueMicrotask(n.Dispose)
				}
			}
		}
	}
	if dispose && !child.IsPrimitive {
		child.queueDispose()
	}
	if parent != nil {
		parent.invalidate()
	}
}

func typeOf(inst *Instance) string {
	if inst == nil {
		return "<nil>"
	}
	return inst.Type
}
