package arbor

// DirectiveKind selects what a Directive injects.
type DirectiveKind uint8

const (
	// DirectiveArgs injects constructor arguments.
	DirectiveArgs DirectiveKind = iota
	// DirectiveParent overrides the parent a created node attaches to.
	DirectiveParent
)

// Directive is a value injected through a comment node into the next
// matching node creation. Each value is consumed once; Set starts a new
// creation cycle.
type Directive struct {
	kind     DirectiveKind
	value    any
	consumed bool
	comment  *TreeNode
}

// Kind returns the directive kind.
func (d *Directive) Kind() DirectiveKind { return d.kind }

// Value returns the injected value.
func (d *Directive) Value() any { return d.value }

// Set replaces the injected value and makes it available again.
func (d *Directive) Set(v any) {
	d.value = v
	d.consumed = false
}

// Valid reports whether the directive can still be consumed.
func (d *Directive) Valid() bool {
	return !d.consumed && d.value != nil && d.comment != nil && !d.comment.destroyed
}

func (d *Directive) consume() any {
	d.consumed = true
	return d.value
}

// InjectArgs registers constructor arguments on comment. The next element
// created consumes them.
func (r *Renderer) InjectArgs(comment *TreeNode, args ...any) *Directive {
	return r.addDirective(comment, DirectiveArgs, args)
}

// InjectParent registers a parent override on comment. parent is a
// scene-object *TreeNode, an *Instance or a native value carrying one.
func (r *Renderer) InjectParent(comment *TreeNode, parent any) *Directive {
	return r.addDirective(comment, DirectiveParent, parent)
}

func (r *Renderer) addDirective(comment *TreeNode, kind DirectiveKind, v any) *Directive {
	if comment == nil || comment.Kind != KindComment {
		report(errorf(ErrNoParent, "directive needs a comment node"))
		return &Directive{kind: kind, consumed: true}
	}
	d := &Directive{kind: kind, value: v, comment: comment}
	comment.lookups = append(comment.lookups, d)
	r.directives = append(r.directives, d)
	return d
}

// lookup returns the value of the newest valid directive of kind and
// consumes it. Directives of destroyed comments are dropped.
func (r *Renderer) lookup(kind DirectiveKind) (any, bool) {
	live := r.directives[:0]
	for _, d := range r.directives {
		if !d.comment.destroyed {
			live = append(live, d)
		}
	}
	clear(r.directives[len(live):])
	r.directives = live
	for k := len(r.directives) - 1; k >= 0; k-- {
		if d := r.directives[k]; d.kind == kind && d.Valid() {
			return d.consume(), true
		}
	}
	return nil, false
}

// lookupArgs returns injected constructor arguments, if any.
func (r *Renderer) lookupArgs() []any {
	v, ok := r.lookup(DirectiveArgs)
	if !ok {
		return nil
	}
	args, _ := v.([]any)
	return args
}

// lookupParent returns the instance of an injected parent, if any.
func (r *Renderer) lookupParent() *Instance {
	v, ok := r.lookup(DirectiveParent)
	if !ok {
		return nil
	}
	switch p := v.(type) {
	case *TreeNode:
		return r.targetInstance(p)
	case *Instance:
		return p
	default:
		if inst := LocalStateOf(p); inst != nil {
			return inst
		}
		if o, ok := p.(*Object); ok {
			return prepare(o, o.Kind.String(), r.store)
		}
	}
	return nil
}
