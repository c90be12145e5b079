package arbor

// NodeKind is the kind of a TreeNode.
type NodeKind uint8

const (
	// KindSceneObject nodes wrap an Instance.
	KindSceneObject NodeKind = iota
	// KindPortal nodes redirect their children into another root's scene.
	KindPortal
	// KindComment nodes are structural placeholders carrying directives.
	KindComment
	// KindPlatform nodes are hosted by the surrounding tree and hold no
	// scene object.
	KindPlatform
)

var nodeKindNames = [...]string{
	KindSceneObject: "scene-object",
	KindPortal:      "portal",
	KindComment:     "comment",
	KindPlatform:    "platform",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

// portalState is the payload of a portal node. The container is resolved
// from the store's scene the first time a child is appended.
type portalState struct {
	store     *Store
	container *Instance
}

// TreeNode is one node of the declarative tree. A destroyed node has no
// children and no parent.
type TreeNode struct {
	Kind NodeKind
	// Tag is the tag the node was created from, or the comment text.
	Tag string
	// Payload is the value the Delegate returned for platform nodes.
	Payload any

	parent    *TreeNode
	children  []*TreeNode
	destroyed bool

	instance     *Instance
	portal       *portalState
	lookups      []*Directive
	forcedParent *Instance
}

// Parent returns the structural parent.
func (n *TreeNode) Parent() *TreeNode { return n.parent }

// Children returns the structural children. The slice must not be mutated.
func (n *TreeNode) Children() []*TreeNode { return n.children }

// Instance returns the Instance of a scene-object node.
func (n *TreeNode) Instance() *Instance { return n.instance }

// IsDestroyed reports whether the node was destroyed.
func (n *TreeNode) IsDestroyed() bool { return n.destroyed }

// Lookups returns the directives registered on a comment node.
func (n *TreeNode) Lookups() []*Directive { return n.lookups }

// PortalStore returns the store a portal node renders into.
func (n *TreeNode) PortalStore() *Store {
	if n.portal == nil {
		return nil
	}
	return n.portal.store
}

// link inserts child into n's children before ref, or at the end when ref
// is nil or not a child. A child of another node is moved.
func (n *TreeNode) link(child, ref *TreeNode) {
	if child.parent != nil {
		child.parent.unlink(child)
	}
	child.parent = n
	if ref != nil {
		for k, c := range n.children {
			if c == ref {
				n.children = append(n.children[:k], append([]*TreeNode{child}, n.children[k:]...)...)
				return
			}
		}
	}
	n.children = append(n.children, child)
}

// unlink removes child from n's children.
func (n *TreeNode) unlink(child *TreeNode) {
	for k, c := range n.children {
		if c == child {
			n.children = append(n.children[:k:k], n.children[k+1:]...)
			break
		}
	}
	if child.parent == n {
		child.parent = nil
	}
}

// sceneDescendants returns the nearest scene-object nodes below n, looking
// through platform nodes.
func (n *TreeNode) sceneDescendants() []*TreeNode {
	var out []*TreeNode
	for _, c := range n.children {
		switch c.Kind {
		case KindSceneObject:
			out = append(out, c)
		case KindPlatform:
			out = append(out, c.sceneDescendants()...)
		}
	}
	return out
}
