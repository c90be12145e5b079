package ebitenhost

import (
	"strings"
	"testing"

	"github.com/phanxgames/arbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samples replays pointer samples, repeating the last one.
func samples(ps ...Pointer) Input {
	return func() Pointer {
		p := ps[0]
		if len(ps) > 1 {
			ps = ps[1:]
		}
		return p
	}
}

type fixture struct {
	host     *arbor.ManualHost
	store    *arbor.Store
	renderer *arbor.Renderer
	game     *Game
}

func newFixture(t *testing.T, input Input) *fixture {
	t.Helper()
	host := arbor.NewManualHost()
	cfg := arbor.DefaultConfig()
	cfg.Frameloop = arbor.FrameLoopDemand
	store := arbor.NewStore(arbor.NewLoop(host), arbor.WithConfig(cfg))
	store.Start()
	g := New(store, host, Options{Input: input})
	t.Cleanup(g.Close)
	return &fixture{host: host, store: store, renderer: arbor.NewRenderer(store), game: g}
}

func (f *fixture) box(t *testing.T) *arbor.TreeNode {
	t.Helper()
	n := f.renderer.CreateElement("mesh")
	n.Instance().NativeObject().Name = "box"
	f.renderer.AppendChild(n, f.renderer.CreateElement("box-geometry"))
	f.renderer.AppendChild(f.renderer.SceneNode(), n)
	return n
}

func (f *fixture) updates(t *testing.T, n int) {
	t.Helper()
	for range n {
		require.NoError(t, f.game.Update())
	}
}

func TestPointerSamplesBecomeEvents(t *testing.T) {
	center := Pointer{X: 400, Y: 300}
	down := Pointer{X: 400, Y: 300, Pressed: true}
	right := Pointer{X: 400, Y: 300, Pressed: true, Button: ButtonRight}
	f := newFixture(t, samples(center, down, center, down, center, right, center))
	box := f.box(t)

	var got []string
	for _, name := range []string{
		arbor.EventPointerDown, arbor.EventPointerUp, arbor.EventClick,
		arbor.EventDoubleClick, arbor.EventContextMenu,
	} {
		f.renderer.Listen(box, name, func(e any) { got = append(got, e.(*arbor.ThreeEvent).Name) })
	}

	f.updates(t, 7)
	assert.Equal(t, []string{
		"pointerdown", "pointerup", "click",
		"pointerdown", "pointerup", "click", "dblclick",
		"pointerdown", "pointerup", "contextmenu",
	}, got)
}

func TestFocusLossLeavesHovered(t *testing.T) {
	f := newFixture(t, samples(Pointer{X: 400, Y: 300}, Pointer{Outside: true}))
	box := f.box(t)
	var got []string
	f.renderer.Listen(box, arbor.EventPointerEnter, func(any) { got = append(got, "enter") })
	f.renderer.Listen(box, arbor.EventPointerLeave, func(any) { got = append(got, "leave") })

	f.updates(t, 3)
	assert.Equal(t, []string{"enter", "leave"}, got)
	assert.Empty(t, f.store.Get().Internal.Hovered)
}

func TestPointerCaptureOnGame(t *testing.T) {
	f := newFixture(t, samples(Pointer{X: 400, Y: 300}, Pointer{X: 400, Y: 300, Pressed: true}, Pointer{X: 10, Y: 10, Pressed: true}, Pointer{X: 10, Y: 10}))
	box := f.box(t)
	var moves int
	f.renderer.Listen(box, arbor.EventPointerDown, func(e any) {
		ev := e.(*arbor.ThreeEvent)
		ev.Target.SetPointerCapture(ev.NativeEvent.PointerID)
	})
	f.renderer.Listen(box, arbor.EventPointerMove, func(any) { moves++ })
	f.renderer.Listen(box, arbor.EventPointerUp, func(e any) {
		ev := e.(*arbor.ThreeEvent)
		ev.Target.ReleasePointerCapture(ev.NativeEvent.PointerID)
	})

	f.updates(t, 2)
	assert.True(t, f.game.HasPointerCapture(0))
	f.updates(t, 1)
	assert.Equal(t, 2, moves)
	f.updates(t, 1)
	assert.False(t, f.game.HasPointerCapture(0))
}

func TestWireframeCapturedOnRender(t *testing.T) {
	f := newFixture(t, samples(Pointer{X: -1, Y: -1}))
	f.box(t)

	f.updates(t, 1)
	assert.Zero(t, f.game.Renders())
	f.updates(t, 1)
	assert.Equal(t, 1, f.game.Renders())
	require.Len(t, f.game.Segments(), 12)
	for _, s := range f.game.Segments() {
		assert.True(t, s.X0 > 0 && s.X0 < 800 && s.Y0 > 0 && s.Y0 < 600)
	}

	f.updates(t, 3)
	assert.Equal(t, 1, f.game.Renders())
}

func TestLayoutResizesRoot(t *testing.T) {
	f := newFixture(t, samples(Pointer{}))
	w, h := f.game.Layout(400, 400)
	assert.Equal(t, 400, w)
	assert.Equal(t, 400, h)
	assert.Equal(t, 400.0, f.store.Get().Size.Width)
	assert.InDelta(t, 1, f.store.Get().Camera.Aspect, 1e-6)
}

func TestScriptGamePlaysScript(t *testing.T) {
	script, err := arbor.ParseScript([]byte(`
config: {frameloop: demand}
steps:
  - {op: create, id: box, tag: mesh}
  - {op: append, parent: scene, child: box}
  - {op: frame, count: 2}
  - {op: invalidate}
  - {op: frame}
  - {op: dump}
`))
	require.NoError(t, err)
	host := arbor.NewManualHost()
	runner := arbor.NewScriptRunner(script, host)
	g := NewScriptGame(runner, host, Options{Input: samples(Pointer{X: -1, Y: -1})})
	defer g.Close()

	for i := 0; i < 10 && !runner.Done(); i++ {
		require.NoError(t, g.Update())
	}
	assert.True(t, runner.Done())
	assert.Equal(t, 2, strings.Count(runner.Trace(), "render"))
	assert.Equal(t, 2, g.Renders())
}
