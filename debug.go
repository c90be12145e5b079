package arbor

import (
	"time"
)

// loopStats holds per-tick timing and render counts.
// Only populated when the loop is in debug mode.
type loopStats struct {
	tickTime time.Duration
	roots    int
	rendered int
	repeat   int
}

// SetDebugMode turns per-tick statistics and reconciler sanity warnings on
// or off. Output goes to the package logger at debug and warn level.
func (l *Loop) SetDebugMode(on bool) {
	l.debug = on
}

// DebugMode reports whether debug mode is on.
func (l *Loop) DebugMode() bool {
	return l.debug
}

// debugLog logs the stats of one tick.
func (l *Loop) debugLog(stats loopStats) {
	if !l.debug {
		return
	}
	logger.Debug("tick",
		"time", stats.tickTime,
		"roots", stats.roots,
		"rendered", stats.rendered,
		"repeat", stats.repeat,
		"running", stats.repeat > 0)
}

// debugMaxTreeDepth is the tree depth past which a warning is logged.
const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if n sits deeper than debugMaxTreeDepth.
func debugCheckTreeDepth(n *TreeNode) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger.Warn("tree depth exceeds threshold", "depth", depth, "threshold", debugMaxTreeDepth, "tag", n.Tag)
	}
}

// debugCheckDestroyed warns when op is applied to a destroyed node.
func debugCheckDestroyed(n *TreeNode, op string) {
	if n.destroyed {
		logger.Warn("operation on destroyed node", "op", op, "tag", n.Tag, "kind", n.Kind)
	}
}
