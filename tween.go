package arbor

import (
	"fmt"
	"reflect"
	"strings"

	"cogentcore.org/core/base/reflectx"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates the numeric components of one prop of a scene-object
// node. Drive it with Update, or from a root's frames with Subscribe. The
// group stops when its node is destroyed.
type TweenGroup struct {
	tweens []*gween.Tween
	fields []reflect.Value
	target *Instance
	Done   bool
}

// TweenProp creates a group animating the prop name of n to to. name may be
// a dotted path. A prop holding a vector or color animates every component;
// a scalar to is used for all of them.
func TweenProp(n *TreeNode, name string, to any, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	if n == nil || n.instance == nil {
		return nil, ErrNoLocalState
	}
	inst := n.instance
	ref, err := resolvePath(inst.object, strings.Split(name, "."), false)
	if err != nil || !ref.v.IsValid() {
		return nil, fmt.Errorf("%w: tween %s: %v", ErrUnknownProp, name, err)
	}
	fields := numericFields(ref.v)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s is not numeric", ErrUnknownProp, name)
	}
	targets, err := tweenTargets(to, len(fields))
	if err != nil {
		return nil, err
	}
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{fields: fields, target: inst}
	for k, f := range fields {
		g.tweens = append(g.tweens, gween.New(float32(f.Float()), targets[k], duration, fn))
	}
	return g, nil
}

func tweenTargets(to any, n int) ([]float32, error) {
	if isScalar(to) {
		f, err := reflectx.ToFloat32(to)
		if err != nil {
			return nil, err
		}
		out := make([]float32, n)
		for k := range out {
			out[k] = f
		}
		return out, nil
	}
	out, err := toFloats(to)
	if err != nil {
		return nil, err
	}
	if len(out) < n {
		return nil, fmt.Errorf("tween needs %d components, got %d", n, len(out))
	}
	return out[:n], nil
}

// numericFields returns the settable float fields of v: v itself or the
// float fields of the struct it holds.
func numericFields(v reflect.Value) []reflect.Value {
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if v.CanSet() {
			return []reflect.Value{v}
		}
	case reflect.Struct:
		var out []reflect.Value
		for k := 0; k < v.NumField(); k++ {
			f := v.Field(k)
			if (f.Kind() == reflect.Float32 || f.Kind() == reflect.Float64) && f.CanSet() {
				out = append(out, f)
			}
		}
		return out
	}
	return nil
}

// Update advances the group by dt seconds and writes the values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target.destroyed {
		g.Done = true
		return
	}
	done := true
	for k, tw := range g.tweens {
		val, finished := tw.Update(dt)
		g.fields[k].SetFloat(float64(val))
		if !finished {
			done = false
		}
	}
	g.Done = done
	if o := g.target.NativeObject(); o != nil {
		o.MarkDirty()
	}
	setNeedsUpdate(g.target.object)
}

// Subscribe updates the group before every frame of store and keeps the
// root rendering until the group is done.
func (g *TweenGroup) Subscribe(store *Store) func() {
	var unsub func()
	unsub = store.InjectBeforeRender(func(_ *RootState, delta float64) {
		g.Update(float32(delta))
		if g.Done {
			unsub()
			return
		}
		store.Invalidate(1)
	}, 0)
	store.Invalidate(1)
	return unsub
}
