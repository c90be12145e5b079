package arbor

import (
	"fmt"
	"sort"

	"cogentcore.org/core/base/reflectx"
	"cogentcore.org/core/base/strcase"
	"cogentcore.org/core/math32"
)

// Constructor builds a native value from constructor arguments.
type Constructor func(args ...any) (any, error)

// Catalogue maps type names to constructors. Names use UpperCamel case
// ("MeshBasicMaterial"); declarative tags use kebab case and are converted
// with CatalogueName.
type Catalogue struct {
	types map[string]Constructor
}

// NewCatalogue creates an empty catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{types: make(map[string]Constructor)}
}

// DefaultCatalogue holds the built-in native types. Renderers use it unless
// given another catalogue.
var DefaultCatalogue = NewCatalogue()

func init() {
	registerBuiltins(DefaultCatalogue)
}

// Extend registers constructors, replacing existing entries with the same name.
func (c *Catalogue) Extend(types map[string]Constructor) {
	for name, ctor := range types {
		c.types[name] = ctor
	}
}

// Remove unregisters the named types.
func (c *Catalogue) Remove(names ...string) {
	for _, name := range names {
		delete(c.types, name)
	}
}

// Lookup returns the constructor registered under name.
func (c *Catalogue) Lookup(name string) (Constructor, bool) {
	ctor, ok := c.types[name]
	return ctor, ok
}

// Names returns the registered names in sorted order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CatalogueName converts a kebab-case tag ("box-geometry") to the
// catalogue's naming convention ("BoxGeometry").
func CatalogueName(tag string) string {
	return strcase.ToCamel(tag)
}

// --- Built-in types ---

func registerBuiltins(c *Catalogue) {
	group := func(args ...any) (any, error) { return NewGroup(""), nil }
	c.Extend(map[string]Constructor{
		"Object3D": group,
		"Group":    group,
		"Scene":    func(args ...any) (any, error) { return NewScene(), nil },
		"Mesh": func(args ...any) (any, error) {
			geo, _ := argAt(args, 0).(*Geometry)
			mat, _ := argAt(args, 1).(*Material)
			return NewMesh("", geo, mat), nil
		},
		"InstancedMesh": func(args ...any) (any, error) {
			geo, _ := argAt(args, 0).(*Geometry)
			mat, _ := argAt(args, 1).(*Material)
			count, err := argFloat(args, 2, 1)
			if err != nil {
				return nil, err
			}
			return NewInstancedMesh("", geo, mat, int(count)), nil
		},
		"PerspectiveCamera": func(args ...any) (any, error) {
			v, err := argFloats(args, 50, 1, 0.1, 2000)
			if err != nil {
				return nil, err
			}
			return NewPerspectiveCamera(v[0], v[1], v[2], v[3]), nil
		},
		"OrthographicCamera": func(args ...any) (any, error) {
			v, err := argFloats(args, -1, 1, 1, -1, 0.1, 2000)
			if err != nil {
				return nil, err
			}
			return NewOrthographicCamera(v[0], v[1], v[2], v[3], v[4], v[5]), nil
		},
		"AmbientLight":     lightConstructor("ambient"),
		"DirectionalLight": lightConstructor("directional"),
		"PointLight":       lightConstructor("point"),
		"SpotLight":        lightConstructor("spot"),
		"BufferGeometry": func(args ...any) (any, error) {
			return NewGeometry("buffer", math32.B3Empty()), nil
		},
		"BoxGeometry": func(args ...any) (any, error) {
			v, err := argFloats(args, 1, 1, 1)
			if err != nil {
				return nil, err
			}
			return NewBoxGeometry(v[0], v[1], v[2]), nil
		},
		"PlaneGeometry": func(args ...any) (any, error) {
			v, err := argFloats(args, 1, 1)
			if err != nil {
				return nil, err
			}
			return NewPlaneGeometry(v[0], v[1]), nil
		},
		"MeshBasicMaterial":    materialConstructor("basic"),
		"MeshStandardMaterial": materialConstructor("standard"),
		"MeshPhongMaterial":    materialConstructor("phong"),
		"Fog": func(args ...any) (any, error) {
			col, err := argColor(args, 0, ColorWhite)
			if err != nil {
				return nil, err
			}
			v, err := argFloats(args[min(len(args), 1):], 1, 1000)
			if err != nil {
				return nil, err
			}
			return NewFog(col, v[0], v[1]), nil
		},
		"Color": func(args ...any) (any, error) {
			col, err := argColor(args, 0, ColorWhite)
			if err != nil {
				return nil, err
			}
			return &col, nil
		},
	})
}

func lightConstructor(name string) Constructor {
	return func(args ...any) (any, error) {
		col, err := argColor(args, 0, ColorWhite)
		if err != nil {
			return nil, err
		}
		intensity, err := argFloat(args, 1, 1)
		if err != nil {
			return nil, err
		}
		return NewLight(name, col, intensity), nil
	}
}

func materialConstructor(name string) Constructor {
	return func(args ...any) (any, error) {
		m := NewMaterial(name)
		if params, ok := argAt(args, 0).(map[string]any); ok {
			if err := applyFields(m, params); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
}

// --- Argument helpers ---

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argFloat(args []any, i int, def float32) (float32, error) {
	v := argAt(args, i)
	if v == nil {
		return def, nil
	}
	f, err := reflectx.ToFloat32(v)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i, err)
	}
	return f, nil
}

// argFloats converts leading args to float32, using defs for missing ones.
func argFloats(args []any, defs ...float32) ([]float32, error) {
	out := make([]float32, len(defs))
	for i, def := range defs {
		f, err := argFloat(args, i, def)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func argColor(args []any, i int, def Color) (Color, error) {
	switch v := argAt(args, i).(type) {
	case nil:
		return def, nil
	case Color:
		return v, nil
	case *Color:
		return *v, nil
	default:
		comps, err := toFloats(v)
		if err != nil || len(comps) != 3 {
			return def, fmt.Errorf("argument %d: %v is not a color", i, v)
		}
		return Color{comps[0], comps[1], comps[2]}, nil
	}
}
