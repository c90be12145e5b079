package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// portalRoot adds a container to the scene and returns a portal node
// rendering into it.
func (tr *testRoot) portalRoot(t *testing.T) (*Store, *TreeNode) {
	t.Helper()
	container := NewGroup("portal")
	tr.store.Get().Scene.Add(container)
	ps := NewPortalStore(tr.store, container)
	portal := tr.renderer.CreatePortal(ps)
	tr.renderer.AppendChild(tr.scene, portal)
	return ps, portal
}

func TestPortalStoreSharesRoot(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	ps, portal := tr.portalRoot(t)
	st := ps.Get()

	assert.Same(t, tr.store, ps.Root())
	assert.Same(t, tr.store, st.PreviousRoot)
	assert.Same(t, tr.store.Get().Camera, st.Camera)
	assert.Same(t, tr.store.Get().Clock, st.Clock)
	assert.NotSame(t, tr.store.Get().Raycaster, st.Raycaster)
	assert.Equal(t, tr.store.Get().Events.Priority+1, st.Events.Priority)
	assert.Equal(t, []*Store{tr.store}, tr.loop.Roots())
	assert.Same(t, ps, portal.PortalStore())
	assert.Equal(t, "Portal", LocalStateOf(st.Scene).Type)
}

func TestPortalChildrenAdoptPortalStore(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	ps, portal := tr.portalRoot(t)

	mesh := tr.renderer.CreateElement("mesh")
	tr.renderer.AppendChild(portal, mesh)
	geo := tr.renderer.CreateElement("box-geometry")
	tr.renderer.AppendChild(mesh, geo)

	inst := mesh.Instance()
	assert.Same(t, ps, inst.Store)
	assert.Same(t, ps, geo.Instance().Store)
	assert.Same(t, ps.Get().Scene, inst.NativeObject().Parent)

	inst.addHandler(EventClick, func(any) {})
	assert.Equal(t, []*Instance{inst}, tr.store.Get().Internal.Interaction)
	assert.Empty(t, ps.Get().Internal.Interaction)

	tr.frames(1)
	require.False(t, tr.loop.Running())
	inst.invalidate()
	assert.True(t, tr.loop.Running())
}

func TestRemovePortalDetachesChildren(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	ps, portal := tr.portalRoot(t)
	container := ps.Get().Scene

	mesh := tr.renderer.CreateElement("mesh")
	tr.renderer.AppendChild(portal, mesh)
	tr.renderer.Listen(mesh, EventClick, func(any) {})
	obj := mesh.Instance().NativeObject()
	require.Same(t, container, obj.Parent)
	require.Len(t, tr.store.Get().Internal.Interaction, 1)

	tr.renderer.RemoveChild(tr.scene, portal)
	assert.Nil(t, obj.Parent)
	assert.Empty(t, container.Children())
	assert.Empty(t, tr.store.Get().Internal.Interaction)
	assert.Empty(t, LocalStateOf(container).Objects())
	assert.Nil(t, portal.Parent())

	tr.host.Flush()
	assert.True(t, obj.IsDisposed())
}

func TestPortalSubscribersRunOnRoot(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	ps, _ := tr.portalRoot(t)

	var got *RootState
	ps.InjectBeforeRender(func(st *RootState, _ float64) { got = st }, 0)
	require.Len(t, tr.store.Get().Internal.Subscribers, 1)
	tr.frames(1)
	assert.Same(t, ps.Get(), got)
}

func TestPortalNodeFromArgs(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	container := NewGroup("portal")
	ps := NewPortalStore(tr.store, container)

	tr.renderer.InjectArgs(tr.renderer.CreateComment("args"), ps)
	portal := tr.renderer.CreateNode(KindPortal, "")
	assert.Equal(t, KindPortal, portal.Kind)
	assert.Same(t, ps, portal.PortalStore())
}

func TestPortalWithoutStoreWarns(t *testing.T) {
	buf := captureLog(t)
	tr := newTestRoot(t, FrameLoopDemand)
	portal := tr.renderer.CreatePortal(nil)
	tr.renderer.AppendChild(tr.scene, portal)
	mesh := tr.renderer.CreateElement("mesh")
	tr.renderer.AppendChild(portal, mesh)

	assert.Nil(t, mesh.Instance().Parent())
	assert.Contains(t, buf.String(), "portal without a store")
}

func TestPortalHitsOutrankRoot(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	_, portal := tr.portalRoot(t)
	rec := &recorder{}

	front := tr.mesh(t, "front")
	tr.renderer.Listen(front, EventPointerDown, rec.listener("front"))

	back := tr.renderer.CreateElement("mesh")
	back.Instance().NativeObject().Name = "back"
	back.Instance().NativeObject().SetPosition(0, 0, -2)
	tr.renderer.AppendChild(portal, back)
	tr.renderer.AppendChild(back, tr.renderer.CreateElement("box-geometry"))
	tr.renderer.Listen(back, EventPointerDown, rec.listener("back"))

	tr.pointer(EventPointerDown, 400, 300)
	assert.Equal(t, []string{"back:pointerdown:back", "front:pointerdown:front"}, rec.calls)
}

func TestPortalDisabledCameraSkipsHits(t *testing.T) {
	tr := newTestRoot(t, FrameLoopDemand)
	ps, portal := tr.portalRoot(t)
	rec := &recorder{}

	mesh := tr.renderer.CreateElement("mesh")
	mesh.Instance().NativeObject().Name = "inside"
	tr.renderer.AppendChild(portal, mesh)
	tr.renderer.AppendChild(mesh, tr.renderer.CreateElement("box-geometry"))
	tr.renderer.Listen(mesh, EventPointerDown, rec.listener("inside"))

	ps.Get().Raycaster.DisableCamera()
	tr.pointer(EventPointerDown, 400, 300)
	tr.pointer(EventPointerDown, 400, 300)
	assert.Empty(t, rec.calls)
	assert.True(t, ps.Get().Raycaster.CameraDisabled())
}
