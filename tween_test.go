package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func TestTweenPropVector(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	box := tr.mesh(t, "box")
	obj := box.Instance().NativeObject()

	g, err := TweenProp(box, "position", []float32{2, 4, 6}, 1, nil)
	require.NoError(t, err)

	g.Update(0.5)
	assertVec3(t, vec3(1, 2, 3), obj.Position)
	assert.False(t, g.Done)

	g.Update(0.5)
	assertVec3(t, vec3(2, 4, 6), obj.Position)
	assert.True(t, g.Done)

	g.Update(1)
	assertVec3(t, vec3(2, 4, 6), obj.Position)
}

func TestTweenPropScalarAndPath(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	box := tr.mesh(t, "box")
	obj := box.Instance().NativeObject()

	g, err := TweenProp(box, "scale", 3, 2, ease.InOutQuad)
	require.NoError(t, err)
	g.Update(2)
	assertVec3(t, vec3(3, 3, 3), obj.Scale)

	g, err = TweenProp(box, "position.y", 10, 1, nil)
	require.NoError(t, err)
	g.Update(0.25)
	assert.InDelta(t, 2.5, obj.Position.Y, epsilon)
	assert.Zero(t, obj.Position.X)
}

func TestTweenPropErrors(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	box := tr.mesh(t, "box")

	_, err := TweenProp(nil, "position", 1, 1, nil)
	assert.ErrorIs(t, err, ErrNoLocalState)
	_, err = TweenProp(box, "sparkle", 1, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownProp)
	_, err = TweenProp(box, "name", 1, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownProp)
	_, err = TweenProp(box, "position", []float32{1}, 1, nil)
	assert.Error(t, err)
	_, err = TweenProp(box, "position", "far", 1, nil)
	assert.Error(t, err)
}

func TestTweenStopsOnDestroy(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	box := tr.mesh(t, "box")
	obj := box.Instance().NativeObject()

	g, err := TweenProp(box, "position.x", 4, 1, nil)
	require.NoError(t, err)
	tr.renderer.RemoveChild(tr.scene, box)
	tr.renderer.DestroyNode(box)

	g.Update(0.5)
	assert.True(t, g.Done)
	assert.Zero(t, obj.Position.X)
}

func TestTweenSubscribeDrivesFrames(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	tr.frames(1)
	box := tr.mesh(t, "box")
	obj := box.Instance().NativeObject()

	g, err := TweenProp(box, "position.x", 1, 0.05, nil)
	require.NoError(t, err)
	g.Subscribe(tr.store)
	assert.True(t, tr.loop.Running())

	tr.frames(10)
	assert.True(t, g.Done)
	assert.InDelta(t, 1, obj.Position.X, epsilon)
	assert.Empty(t, tr.store.Get().Internal.Subscribers)
	assert.False(t, tr.loop.Running())
}
