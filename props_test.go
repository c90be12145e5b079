package arbor

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPropVectorForms(t *testing.T) {
	o := NewGroup("g")

	changed, err := setProp(o, "position", []float64{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, math32.Vec3(1, 2, 3), o.Position)

	_, err = setProp(o, "scale", 2)
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(2, 2, 2), o.Scale)

	_, err = setProp(o, "rotation", math32.Vec3(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(0, 1, 0), o.Rotation)

	_, err = setProp(o, "position.x", 7)
	require.NoError(t, err)
	assert.InDelta(t, 7, o.Position.X, epsilon)
}

func TestSetPropSkipsEqualValues(t *testing.T) {
	o := NewGroup("g")
	changed, err := setProp(o, "name", "g")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = setProp(o, "name", "h")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "h", o.Name)
}

func TestSetPropSkipsEqualVectors(t *testing.T) {
	o := NewGroup("g")
	changed, err := setProp(o, "position", []float64{0, 0, 0})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = setProp(o, "scale", 1)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = setProp(o, "position", math32.Vec3(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = setProp(o, "position", math32.Vec3(0, 1, 0))
	require.NoError(t, err)
	assert.False(t, changed)

	m := NewMaterial("basic")
	_, err = setProp(m, "color", "#ff0000")
	require.NoError(t, err)
	changed, err = setProp(m, "color", "#ff0000")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyPropsSkipsEqualVector(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	n := tr.mesh(t, "box")
	tr.frames(1)
	require.False(t, tr.loop.Running())

	updates := 0
	tr.renderer.Listen(n, ListenAfterUpdate, func(any) { updates++ })
	assert.Zero(t, applyProps(n.Instance(), map[string]any{"position": []float64{0, 0, 0}}))
	assert.Zero(t, updates)
	assert.False(t, tr.loop.Running())
}

func TestSetPropColor(t *testing.T) {
	m := NewMaterial("basic")
	_, err := setProp(m, "color", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 1}, m.Color)

	_, err = setProp(m, "color", []float32{0, 0.5, 1})
	require.NoError(t, err)
	assert.Equal(t, Color{G: 0.5, B: 1}, m.Color)
}

func TestSetPropMapLeafAndFallback(t *testing.T) {
	o := NewGroup("g")
	_, err := setProp(o, "team", "red")
	require.NoError(t, err)
	assert.Equal(t, "red", o.UserData["team"])

	_, err = setProp(o, "userData.team", "blue")
	require.NoError(t, err)
	assert.Equal(t, "blue", o.UserData["team"])

	_, err = setProp(NewMaterial("m"), "sparkle", true)
	assert.Error(t, err)
}

func TestSetPropMarksNeedsUpdate(t *testing.T) {
	mesh := NewMesh("m", nil, NewMaterial("basic"))
	mat := mesh.Material.(*Material)
	_, err := setProp(mesh, "material.opacity", 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, mat.Opacity, epsilon)

	other := NewMaterial("other")
	_, err = setProp(mesh, "material", other)
	require.NoError(t, err)
	assert.True(t, other.NeedsUpdate)
}

func TestHandlerEventName(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"onClick", EventClick, true},
		{"onPointerMove", EventPointerMove, true},
		{"onDoubleClick", EventDoubleClick, true},
		{"onPointerMissed", EventPointerMissed, true},
		{"one", "", false},
		{"on", "", false},
		{"position", "", false},
	}
	for _, tt := range tests {
		got, ok := handlerEventName(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestApplyPropsInvalidatesAndEmits(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	n := tr.mesh(t, "box")
	inst := n.Instance()
	tr.frames(1)
	require.False(t, tr.loop.Running())

	updates := 0
	tr.renderer.Listen(n, ListenAfterUpdate, func(any) { updates++ })

	changed := applyProps(inst, map[string]any{"position": []float64{1, 0, 0}, "visible": false})
	assert.Equal(t, 2, changed)
	assert.Equal(t, 1, updates)
	assert.True(t, tr.loop.Running())

	assert.Zero(t, applyProps(inst, map[string]any{"visible": false}))
	assert.Equal(t, 1, updates)
}

func TestApplyPropsHandlers(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	n := tr.mesh(t, "box")
	inst := n.Instance()

	applyProps(inst, map[string]any{"onClick": func(*ThreeEvent) {}})
	assert.Equal(t, 1, inst.EventCount())
	assert.Equal(t, []*Instance{inst}, tr.store.Get().Internal.Interaction)

	applyProps(inst, map[string]any{"onClick": nil})
	assert.Equal(t, 0, inst.EventCount())
	assert.Empty(t, tr.store.Get().Internal.Interaction)
}

func TestApplyPropsReportsUnknown(t *testing.T) {
	buf := captureLog(t)
	tr := newTestRoot(t, FrameLoopDemand)
	mat := tr.renderer.CreateElement("mesh-basic-material")
	tr.renderer.SetProperty(mat, "sparkle", 1)
	assert.Contains(t, buf.String(), ErrUnknownProp.Error())
	assert.Contains(t, buf.String(), "prop=sparkle")
}

func TestParseColor(t *testing.T) {
	c, ok := ParseColor("#00ff00")
	require.True(t, ok)
	assert.Equal(t, Color{G: 1}, c)

	_, ok = ParseColor("green")
	assert.False(t, ok)
}
