// Package scene provides the node tree that generated level content hangs from.
package scene

// Vec3 is a world-space position
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum of two vectors
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Node is a named element in the content tree. Nodes are not safe for
// concurrent use; a tree belongs to a single generation at a time.
type Node struct {
	Name     string
	Kind     string
	Position Vec3

	hidden   bool
	parent   *Node
	children []*Node
}

// NewNode creates a detached node at the given position
func NewNode(name string, pos Vec3) *Node {
	return &Node{Name: name, Position: pos}
}

// AddChild attaches child to n, detaching it from any previous parent.
// It returns the child for chaining.
func (n *Node) AddChild(child *Node) *Node {
	if child.parent != nil {
		child.Detach()
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// Parent returns the node's parent, or nil for a root
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's children
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Detach removes the node (and its subtree) from its parent
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, c := range siblings {
		if c == n {
			n.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Clear destroys every child subtree of n
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// SetVisible toggles the node's own visibility flag
func (n *Node) SetVisible(visible bool) {
	n.hidden = !visible
}

// Visible reports whether the node and all of its ancestors are visible
func (n *Node) Visible() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.hidden {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the visited node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree rooted at n, including n
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// FindKind returns every node in the subtree with the given kind
func (n *Node) FindKind(kind string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}
