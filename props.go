package arbor

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"cogentcore.org/core/base/reflectx"
	"cogentcore.org/core/base/strcase"
	"cogentcore.org/core/math32"
)

// Listener receives the value of an event: a *ThreeEvent for pointer
// handlers, a *PointerEvent for pointermissed, a NativeEvent for native
// lifecycle events, a *FrameEvent for beforeRender and the native value for
// update and attach listeners.
type Listener func(event any)

// PropertySetter is implemented by values that accept properties with no
// matching field.
type PropertySetter interface {
	SetProperty(name string, value any) bool
}

// VectorLike is implemented by property values that are updated in place
// rather than replaced.
type VectorLike interface {
	// SetComponents sets the value from a component list.
	SetComponents(c []float32)
	// CopyFrom copies src when it has the same type and reports whether it did.
	CopyFrom(src any) bool
	// SetScalar sets every component to s.
	SetScalar(s float32)
}

// propRef is a settable location inside a value: a field or element, or a
// key of a map.
type propRef struct {
	v   reflect.Value
	m   reflect.Value
	key reflect.Value
}

func (p propRef) valid() bool { return p.v.IsValid() || p.m.IsValid() }

func (p propRef) get() any {
	if p.m.IsValid() {
		v := p.m.MapIndex(p.key)
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	}
	return p.v.Interface()
}

// set assigns val, converting it when its type differs from the location's.
func (p propRef) set(val any) error {
	if p.m.IsValid() {
		if val == nil {
			p.m.SetMapIndex(p.key, reflect.Value{})
			return nil
		}
		rv := reflect.ValueOf(val)
		et := p.m.Type().Elem()
		if !rv.Type().AssignableTo(et) {
			if !rv.Type().ConvertibleTo(et) {
				return fmt.Errorf("cannot assign %T to %s", val, et)
			}
			rv = rv.Convert(et)
		}
		p.m.SetMapIndex(p.key, rv)
		return nil
	}
	if !p.v.CanSet() {
		return fmt.Errorf("field is not settable")
	}
	if val == nil {
		p.v.Set(reflect.Zero(p.v.Type()))
		return nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(p.v.Type()) {
		p.v.Set(rv)
		return nil
	}
	return reflectx.SetRobust(p.v.Addr().Interface(), val)
}

// fieldName converts a prop key segment ("mapSize") to a Go field name.
func fieldName(seg string) string {
	return strcase.ToCamel(seg)
}

// resolvePath walks path from root and returns the location of its last
// segment. When create is set, nil pointers and maps met on the way are
// allocated.
func resolvePath(root any, path []string, create bool) (propRef, error) {
	if len(path) == 0 {
		return propRef{}, fmt.Errorf("empty path")
	}
	cur := reflect.ValueOf(root)
	for i, seg := range path {
		for cur.Kind() == reflect.Pointer || cur.Kind() == reflect.Interface {
			if cur.IsNil() {
				if !create || cur.Kind() != reflect.Pointer || !cur.CanSet() {
					return propRef{}, fmt.Errorf("%s is nil", strings.Join(path[:i], "."))
				}
				cur.Set(reflect.New(cur.Type().Elem()))
			}
			cur = cur.Elem()
		}
		last := i == len(path)-1
		var next reflect.Value
		switch cur.Kind() {
		case reflect.Struct:
			next = cur.FieldByName(fieldName(seg))
			if !next.IsValid() || !next.CanInterface() {
				return propRef{}, fmt.Errorf("no property %q", strings.Join(path[:i+1], "."))
			}
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= cur.Len() {
				return propRef{}, fmt.Errorf("no index %q", strings.Join(path[:i+1], "."))
			}
			next = cur.Index(idx)
		case reflect.Map:
			if cur.Type().Key().Kind() != reflect.String {
				return propRef{}, fmt.Errorf("map at %q has non-string keys", strings.Join(path[:i], "."))
			}
			key := reflect.ValueOf(seg).Convert(cur.Type().Key())
			if last {
				return propRef{m: cur, key: key}, nil
			}
			next = cur.MapIndex(key)
			if !next.IsValid() {
				return propRef{}, fmt.Errorf("no key %q", strings.Join(path[:i+1], "."))
			}
		default:
			return propRef{}, fmt.Errorf("cannot walk into %s at %q", cur.Kind(), strings.Join(path[:i+1], "."))
		}
		if last {
			return propRef{v: next}, nil
		}
		if next.Kind() == reflect.Map && next.IsNil() && create && next.CanSet() {
			next.Set(reflect.MakeMap(next.Type()))
		}
		cur = next
	}
	return propRef{}, fmt.Errorf("unreachable")
}

// vectorLike returns the in-place updater for the value at ref, if any.
func vectorLike(ref propRef) VectorLike {
	if !ref.v.IsValid() {
		return nil
	}
	if ref.v.CanAddr() {
		switch p := ref.v.Addr().Interface().(type) {
		case *math32.Vector2:
			return vec2Ref{p}
		case *math32.Vector3:
			return vec3Ref{p}
		case *math32.Vector4:
			return vec4Ref{p}
		case VectorLike:
			return p
		}
	}
	if vl, ok := ref.v.Interface().(VectorLike); ok && !ref.v.IsNil() {
		return vl
	}
	return nil
}

// snapshot copies the value v holds, looking through a pointer.
func snapshot(v reflect.Value) any {
	v = reflect.Indirect(v)
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// isScalar reports whether v is a plain number.
func isScalar(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// toFloats converts a numeric slice or array to float32 components.
func toFloats(v any) ([]float32, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%T is not a list", v)
	}
	out := make([]float32, rv.Len())
	for i := range out {
		f, err := reflectx.ToFloat32(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// equalValues reports reference or shallow equality of two property values.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// setProp applies one key of a prop map to target. It reports whether the
// target changed.
func setProp(target any, key string, val any) (changed bool, err error) {
	path := strings.Split(key, ".")
	ref, err := resolvePath(target, path, false)
	if err != nil {
		if ps, ok := target.(PropertySetter); ok && len(path) == 1 {
			return ps.SetProperty(key, val), nil
		}
		return false, err
	}
	if vl := vectorLike(ref); vl != nil {
		before := snapshot(ref.v)
		switch {
		case isScalar(val):
			f, _ := reflectx.ToFloat32(val)
			vl.SetScalar(f)
			return !reflect.DeepEqual(before, snapshot(ref.v)), nil
		case vl.CopyFrom(val):
			return !reflect.DeepEqual(before, snapshot(ref.v)), nil
		default:
			if comps, err := toFloats(val); err == nil {
				vl.SetComponents(comps)
				return !reflect.DeepEqual(before, snapshot(ref.v)), nil
			}
		}
	}
	if equalValues(ref.get(), val) {
		return false, nil
	}
	if err := ref.set(val); err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	markNeedsUpdate(ref)
	return true, nil
}

// markNeedsUpdate sets the NeedsUpdate flag of the value just assigned.
func markNeedsUpdate(ref propRef) {
	if !ref.v.IsValid() {
		return
	}
	v := ref.v
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return
	}
	if f := v.FieldByName("NeedsUpdate"); f.IsValid() && f.Kind() == reflect.Bool && f.CanSet() {
		f.SetBool(true)
	}
}

// setNeedsUpdate flags target itself, for materials and similar resources.
func setNeedsUpdate(target any) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return
	}
	if f := v.Elem().FieldByName("NeedsUpdate"); f.IsValid() && f.Kind() == reflect.Bool && f.CanSet() {
		f.SetBool(true)
	}
}

// handlerEventName maps a prop key like "onPointerMove" to its event name.
func handlerEventName(key string) (string, bool) {
	if len(key) < 3 || !strings.HasPrefix(key, "on") || key[2] < 'A' || key[2] > 'Z' {
		return "", false
	}
	name := strings.ToLower(key[2:])
	if name == "doubleclick" {
		name = EventDoubleClick
	}
	return name, true
}

func toListener(v any) (Listener, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, true
	case Listener:
		return fn, true
	case func(any):
		return fn, true
	case func(*ThreeEvent):
		return func(e any) {
			if te, ok := e.(*ThreeEvent); ok {
				fn(te)
			}
		}, true
	case func(*PointerEvent):
		return func(e any) {
			if pe, ok := e.(*PointerEvent); ok {
				fn(pe)
			}
		}, true
	}
	return nil, false
}

// sortedKeys returns the keys of props in a stable order.
func sortedKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// applyProps writes props to the instance's native value. Vector-like
// fields are updated in place, other fields are replaced when the value
// differs. Handler keys (onClick, ...) add or remove handlers. The owning
// root is invalidated after a change, and the update listeners of an
// attached instance fire once. It returns the number of changed keys.
func applyProps(inst *Instance, props map[string]any) int {
	target := inst.object
	if target == nil {
		return 0
	}
	changes := 0
	handlersBefore := inst.eventCount
	for _, key := range sortedKeys(props) {
		val := props[key]
		if name, ok := handlerEventName(key); ok {
			if fn, ok := toListener(val); ok {
				inst.setPropHandler(name, fn)
				changes++
				continue
			}
		}
		changed, err := setProp(target, key, val)
		if err != nil {
			report(fmt.Errorf("%w: %v", ErrUnknownProp, err), "type", inst.Type, "prop", key)
			continue
		}
		if changed {
			changes++
		}
	}
	if changes == 0 {
		return 0
	}
	setNeedsUpdate(target)
	if handlersBefore != inst.eventCount {
		inst.refreshInteraction()
	}
	inst.invalidate()
	if inst.parent != nil {
		inst.emitUpdate()
	}
	return changes
}

// applyFields writes props to a plain value, without an Instance.
func applyFields(target any, props map[string]any) error {
	for _, key := range sortedKeys(props) {
		if _, err := setProp(target, key, props[key]); err != nil {
			return err
		}
	}
	return nil
}

// --- Vector adapters ---

type vec2Ref struct{ v *math32.Vector2 }

func (r vec2Ref) SetComponents(c []float32) {
	if len(c) >= 2 {
		r.v.X, r.v.Y = c[0], c[1]
	}
}

func (r vec2Ref) CopyFrom(src any) bool {
	switch s := src.(type) {
	case math32.Vector2:
		*r.v = s
	case *math32.Vector2:
		*r.v = *s
	default:
		return false
	}
	return true
}

func (r vec2Ref) SetScalar(s float32) { r.v.X, r.v.Y = s, s }

type vec3Ref struct{ v *math32.Vector3 }

func (r vec3Ref) SetComponents(c []float32) {
	if len(c) >= 3 {
		r.v.X, r.v.Y, r.v.Z = c[0], c[1], c[2]
	}
}

func (r vec3Ref) CopyFrom(src any) bool {
	switch s := src.(type) {
	case math32.Vector3:
		*r.v = s
	case *math32.Vector3:
		*r.v = *s
	default:
		return false
	}
	return true
}

func (r vec3Ref) SetScalar(s float32) { r.v.X, r.v.Y, r.v.Z = s, s, s }

type vec4Ref struct{ v *math32.Vector4 }

func (r vec4Ref) SetComponents(c []float32) {
	if len(c) >= 4 {
		r.v.X, r.v.Y, r.v.Z, r.v.W = c[0], c[1], c[2], c[3]
	}
}

func (r vec4Ref) CopyFrom(src any) bool {
	switch s := src.(type) {
	case math32.Vector4:
		*r.v = s
	case *math32.Vector4:
		*r.v = *s
	default:
		return false
	}
	return true
}

func (r vec4Ref) SetScalar(s float32) { r.v.X, r.v.Y, r.v.Z, r.v.W = s, s, s, s }

// SetComponents implements VectorLike.
func (c *Color) SetComponents(comps []float32) {
	if len(comps) >= 3 {
		c.R, c.G, c.B = comps[0], comps[1], comps[2]
	}
}

// CopyFrom implements VectorLike. It also accepts "#rrggbb" strings.
func (c *Color) CopyFrom(src any) bool {
	switch s := src.(type) {
	case Color:
		*c = s
	case *Color:
		*c = *s
	case string:
		parsed, ok := ParseColor(s)
		if !ok {
			return false
		}
		*c = parsed
	default:
		return false
	}
	return true
}

// SetScalar implements VectorLike.
func (c *Color) SetScalar(s float32) { c.R, c.G, c.B = s, s, s }

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{
		R: float32((n>>16)&0xff) / 255,
		G: float32((n>>8)&0xff) / 255,
		B: float32(n&0xff) / 255,
	}, true
}
