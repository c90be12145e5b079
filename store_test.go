package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreDefaults(t *testing.T) {
	loop := NewLoop(NewManualHost())
	s := NewStore(loop)
	st := s.Get()

	assert.NotEmpty(t, st.ID)
	assert.True(t, st.Scene.IsScene())
	require.NotNil(t, st.Camera)
	assert.Equal(t, ObjectPerspectiveCamera, st.Camera.Kind)
	assert.InDelta(t, 800.0/600.0, st.Camera.Aspect, epsilon)
	assert.Equal(t, FrameLoopAlways, st.Frameloop)
	assert.False(t, st.Internal.Active)
	assert.NotNil(t, LocalStateOf(st.Scene))
	assert.Equal(t, []*Store{s}, loop.Roots())
	assert.Same(t, s, s.Root())

	other := NewStore(loop)
	assert.NotEqual(t, st.ID, other.Get().ID)
}

func TestNewStoreOptions(t *testing.T) {
	scene := NewScene()
	cam := NewOrthographicCamera(-1, 1, 1, -1, 0.1, 10)
	s := NewStore(NewLoop(NewManualHost()), WithScene(scene), WithCamera(cam))
	assert.Same(t, scene, s.Get().Scene)
	assert.Same(t, cam, s.Get().Camera)
	assert.InDelta(t, 400, cam.Right, epsilon)
}

func TestConfigNormalize(t *testing.T) {
	buf := captureLog(t)
	cfg := Config{Frameloop: "sometimes", DPRMin: 2, DPRMax: 1}
	n := cfg.normalize()
	def := DefaultConfig()

	assert.Equal(t, FrameLoopAlways, n.Frameloop)
	assert.Equal(t, Size{Width: def.Width, Height: def.Height}, n.Size)
	assert.Equal(t, 2.0, n.DPRMax)
	assert.Equal(t, def.Camera.Fov, n.Camera.Fov)
	assert.Contains(t, buf.String(), "sometimes")
	assert.Contains(t, buf.String(), ErrConfig.Error())
}

func TestSetDprClamps(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	tr.store.SetDpr(5)
	assert.Equal(t, 2.0, tr.store.Get().DPR)
	tr.store.SetDpr(0.25)
	assert.Equal(t, 1.0, tr.store.Get().DPR)
}

func TestSetSizeUpdatesCamera(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	tr.frames(1)
	notified := 0
	unsub := tr.store.Subscribe(func(*RootState) { notified++ })

	tr.store.SetSize(Size{Width: 400, Height: 400})
	assert.InDelta(t, 1, tr.store.Get().Camera.Aspect, epsilon)
	assert.Equal(t, 1, notified)
	assert.True(t, tr.loop.Running())

	unsub()
	tr.store.SetSize(Size{Width: 200, Height: 100})
	assert.Equal(t, 1, notified)
}

func TestSetFrameloopRejectsUnknown(t *testing.T) {
	buf := captureLog(t)
	tr := newTestRoot(t, FrameLoopDemand)
	tr.store.SetFrameloop("sometimes")
	assert.Equal(t, FrameLoopDemand, tr.store.Get().Frameloop)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestSelectAndSnapshot(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	w := Select(tr.store, func(st *RootState) float64 { return st.Size.Width })
	assert.Equal(t, 800.0, w)

	snap := tr.store.Snapshot()
	tr.store.Update(func(st *RootState) { st.DPR = 1.5 })
	assert.Equal(t, 1.0, snap.DPR)
	assert.Equal(t, 1.5, tr.store.Get().DPR)
}

func TestRemoveInteractivityClearsState(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	inst := tr.mesh(t, "box").Instance()
	obj := inst.NativeObject()
	inst.addHandler(EventPointerOver, func(any) {})

	capturer := &fakeCapturer{}
	internal := &tr.store.Get().Internal
	internal.InitialHits = []*Object{obj}
	internal.Hovered["x"] = &ThreeEvent{Intersection: Intersection{Object: obj, EventObject: obj}}
	internal.CapturedMap[1] = map[*Object]*CaptureData{obj: {Target: capturer}}

	tr.store.removeInteractivity(inst)
	assert.Empty(t, internal.Interaction)
	assert.Empty(t, internal.InitialHits)
	assert.Empty(t, internal.Hovered)
	assert.Empty(t, internal.CapturedMap)
	assert.Equal(t, []int{1}, capturer.released)
}

// fakeCapturer records native pointer capture calls.
type fakeCapturer struct {
	captured []int
	released []int
}

func (f *fakeCapturer) SetPointerCapture(id int)     { f.captured = append(f.captured, id) }
func (f *fakeCapturer) ReleasePointerCapture(id int) { f.released = append(f.released, id) }
