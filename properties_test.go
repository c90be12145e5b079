//go:build property

package arbor

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestLoopProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("bulk invalidate accumulates up to the cap", prop.ForAll(
		func(requests []int) bool {
			tr := newTestRoot(t, FrameLoopDemand)
			tr.frames(1)
			want := 0
			for _, n := range requests {
				tr.store.Invalidate(n)
				want = min(maxInvalidateFrames, want+n)
			}
			return tr.store.Get().Internal.Frames == want
		},
		gen.SliceOf(gen.IntRange(2, 40)),
	))

	properties.Property("demand renders exactly the requested frames", prop.ForAll(
		func(n int) bool {
			tr := newTestRoot(t, FrameLoopDemand)
			tr.frames(1)
			tr.store.Invalidate(n)
			tr.frames(n + 5)
			return tr.native.renders == 1+n && !tr.loop.Running()
		},
		gen.IntRange(2, maxInvalidateFrames),
	))

	properties.TestingRun(t)
}

func TestEventProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	roots := []*Store{fakeRoot(0), fakeRoot(1), fakeRoot(2)}

	properties.Property("sorted hits are ordered by priority then distance", prop.ForAll(
		func(distances []float32, owners []int) bool {
			var hits []*Intersection
			for k, d := range distances {
				hits = append(hits, &Intersection{Distance: d, store: roots[owners[k%len(owners)]]})
			}
			sortHits(hits)
			for k := 1; k < len(hits); k++ {
				a, b := hits[k-1], hits[k]
				pa, pb := a.store.state.Events.Priority, b.store.state.Events.Priority
				if pa < pb || (pa == pb && a.Distance > b.Distance) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float32Range(0, 1000)),
		gen.SliceOfN(4, gen.IntRange(0, 2)),
	))

	properties.Property("pointer offsets inside the surface map into [-1, 1]", prop.ForAll(
		func(x, y float64) bool {
			ndc := pointerToNDC(x, y, Size{Width: 800, Height: 600})
			return ndc.X >= -1 && ndc.X <= 1 && ndc.Y >= -1 && ndc.Y <= 1
		},
		gen.Float64Range(0, 800),
		gen.Float64Range(0, 600),
	))

	properties.TestingRun(t)
}

func TestTransformProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(97531)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("inverse undoes a composed transform", prop.ForAll(
		func(px, py, pz, rx, ry, rz, s float32) bool {
			m := composeMatrix(vec3(px, py, pz), vec3(rx, ry, rz), vec3(s, s, s))
			inv, ok := invertMatrix(m)
			if !ok {
				return false
			}
			p := vec3(1, -2, 3)
			back := transformPoint(inv, transformPoint(m, p))
			d := back.Sub(p)
			return math.Abs(float64(d.X))+math.Abs(float64(d.Y))+math.Abs(float64(d.Z)) < 1e-3
		},
		gen.Float32Range(-10, 10),
		gen.Float32Range(-10, 10),
		gen.Float32Range(-10, 10),
		gen.Float32Range(-math.Pi, math.Pi),
		gen.Float32Range(-math.Pi, math.Pi),
		gen.Float32Range(-math.Pi, math.Pi),
		gen.Float32Range(0.5, 4),
	))

	properties.TestingRun(t)
}
