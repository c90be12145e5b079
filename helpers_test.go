package arbor

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingRenderer counts native draw calls.
type countingRenderer struct {
	renders int
}

func (c *countingRenderer) Render(scene, camera *Object) { c.renders++ }

type testRoot struct {
	host     *ManualHost
	loop     *Loop
	store    *Store
	native   *countingRenderer
	renderer *Renderer
	scene    *TreeNode
}

// newTestRoot creates a started root in mode, with one host frame already
// run so the root is active.
func newTestRoot(t *testing.T, mode FrameLoop) *testRoot {
	t.Helper()
	host := NewManualHost()
	loop := NewLoop(host)
	cfg := DefaultConfig()
	cfg.Frameloop = mode
	native := &countingRenderer{}
	store := NewStore(loop, WithConfig(cfg), WithRenderer(native))
	store.Start()
	host.Step(FrameInterval)
	require.True(t, store.Get().Internal.Active)
	r := NewRenderer(store)
	return &testRoot{host: host, loop: loop, store: store, native: native, renderer: r, scene: r.SceneNode()}
}

// frames steps the host n times.
func (tr *testRoot) frames(n int) {
	for range n {
		tr.host.Step(FrameInterval)
	}
}

// mesh creates a unit box mesh node appended to the scene.
func (tr *testRoot) mesh(t *testing.T, name string) *TreeNode {
	t.Helper()
	n := tr.renderer.CreateElement("mesh")
	require.Equal(t, KindSceneObject, n.Kind)
	n.Instance().NativeObject().Name = name
	geo := tr.renderer.CreateElement("box-geometry")
	tr.renderer.AppendChild(n, geo)
	tr.renderer.AppendChild(tr.scene, n)
	return n
}

// pointer handles a native event at surface coordinates.
func (tr *testRoot) pointer(name string, x, y float64) {
	tr.store.Get().Events.Handle(name, &PointerEvent{Type: name, OffsetX: x, OffsetY: y})
}

// recorder collects handler calls.
type recorder struct {
	calls []string
}

func (r *recorder) listener(label string) Listener {
	return func(e any) {
		switch ev := e.(type) {
		case *ThreeEvent:
			r.calls = append(r.calls, label+":"+ev.Name+":"+objectName(ev.EventObject))
		default:
			r.calls = append(r.calls, label)
		}
	}
}

// captureLog routes the package logger to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}
