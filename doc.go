// Package arbor keeps a retained 3D scene graph in sync with a declarative
// tree, dispatches pointer events to the objects under the pointer and
// schedules rendering for every root from one shared loop.
//
// # Roots
//
// A [Store] holds the state of one root: scene, camera, raycaster, clock,
// frame-loop mode and the bookkeeping the events and the loop share. All
// roots of a process are registered with a single [Loop], driven by a
// [Host] that supplies animation frames and microtasks:
//
//	host := arbor.NewManualHost()
//	loop := arbor.NewLoop(host)
//	store := arbor.NewStore(loop, arbor.WithRenderer(myRenderer))
//	store.Start()
//
// Tests and scripts use [ManualHost]; package ebitenhost drives a loop from
// an Ebitengine window.
//
// # Reconciler
//
// A [Renderer] applies tree mutations to a root. It creates [TreeNode]s from
// tags, resolving them through a [Catalogue], and attaches each scene
// object's [Instance] to its parent either in the native scene graph or
// through an attach path such as "geometry" or "shadow.mapSize":
//
//	r := arbor.NewRenderer(store)
//	box := r.CreateElement("mesh")
//	geo := r.CreateElement("box-geometry")
//	r.AppendChild(box, geo)
//	r.AppendChild(r.SceneNode(), box)
//	r.SetAttribute(box, "priority", "5")
//	r.Listen(box, "click", func(e any) { ... })
//
// Constructor arguments and parent overrides are injected through comment
// nodes with [Renderer.InjectArgs] and [Renderer.InjectParent].
//
// # Events
//
// Objects with at least one pointer handler are raycast individually on
// every pointer event. Hits are ordered by root priority and distance,
// bubbled to ancestors with handlers and merged with pointer captures. See
// [EventManager.Handle].
//
// # Frame loop
//
// In "always" mode a root renders every frame. In "demand" mode it renders
// only after [Store.Invalidate], and the loop stops once no root has pending
// frames. In "never" mode frames are rendered with [Store.Advance].
// Before-render callbacks registered with [Store.InjectBeforeRender] run in
// ascending priority; a positive priority takes over the native draw call.
package arbor
