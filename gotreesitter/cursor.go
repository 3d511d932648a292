package gotreesitter

// TreeCursor provides efficient, stateful navigation over a syntax tree.
// Unlike walking via Node.Child/Parent directly, a TreeCursor tracks the
// path of child indices down from the root so CurrentFieldID and
// CurrentDepth are O(1), and GotoFirstChildForByte/Point can skip past
// whole subtrees that don't contain the target position.
type TreeCursor struct {
	node  *Node
	stack []cursorFrame
}

type cursorFrame struct {
	node       *Node
	childIndex int
}

func newTreeCursor(root *Node) *TreeCursor {
	return &TreeCursor{node: root}
}

// CurrentNode returns the node the cursor currently points at.
func (c *TreeCursor) CurrentNode() *Node { return c.node }

// CurrentDepth returns the cursor's depth below the root (0 at the root).
func (c *TreeCursor) CurrentDepth() int { return len(c.stack) }

// CurrentFieldID returns the field ID of the current node within its
// parent, or 0 if none (or at the root).
func (c *TreeCursor) CurrentFieldID() FieldID {
	if len(c.stack) == 0 {
		return 0
	}
	top := c.stack[len(c.stack)-1]
	return top.node.FieldIDAt(top.childIndex)
}

// Reset repositions the cursor at node, clearing any path history.
func (c *TreeCursor) Reset(node *Node) {
	c.node = node
	c.stack = c.stack[:0]
}

// Copy returns an independent TreeCursor at the same position.
func (c *TreeCursor) Copy() *TreeCursor {
	cp := &TreeCursor{node: c.node, stack: append([]cursorFrame(nil), c.stack...)}
	return cp
}

// GotoFirstChild moves to the first child of the current node. Reports
// false (cursor unchanged) if the current node has no children.
func (c *TreeCursor) GotoFirstChild() bool {
	if len(c.node.children) == 0 {
		return false
	}
	c.stack = append(c.stack, cursorFrame{node: c.node, childIndex: 0})
	c.node = c.node.children[0]
	return true
}

// GotoLastChild moves to the last child of the current node.
func (c *TreeCursor) GotoLastChild() bool {
	n := len(c.node.children)
	if n == 0 {
		return false
	}
	c.stack = append(c.stack, cursorFrame{node: c.node, childIndex: n - 1})
	c.node = c.node.children[n-1]
	return true
}

// GotoNextSibling moves to the next sibling of the current node.
func (c *TreeCursor) GotoNextSibling() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	if top.childIndex+1 >= len(top.node.children) {
		return false
	}
	top.childIndex++
	c.node = top.node.children[top.childIndex]
	return true
}

// GotoPreviousSibling moves to the previous sibling of the current node.
func (c *TreeCursor) GotoPreviousSibling() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	if top.childIndex == 0 {
		return false
	}
	top.childIndex--
	c.node = top.node.children[top.childIndex]
	return true
}

// GotoParent moves to the current node's parent. Reports false if already
// at the root the cursor was reset to.
func (c *TreeCursor) GotoParent() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.node = top.node
	return true
}

// GotoDescendant moves directly to the node at the given 0-based
// pre-order descendant index among all nodes under the cursor's original
// root (the root itself is index 0).
func (c *TreeCursor) GotoDescendant(index int) bool {
	root := c.rootNode()
	c.Reset(root)
	if index == 0 {
		return true
	}
	var size func(n *Node) int
	size = func(n *Node) int {
		s := 1
		for _, ch := range n.children {
			s += size(ch)
		}
		return s
	}
	remaining := index
	for {
		found := false
		for i, child := range c.node.children {
			count := size(child)
			if remaining <= count {
				c.stack = append(c.stack, cursorFrame{node: c.node, childIndex: i})
				c.node = child
				remaining--
				found = true
				break
			}
			remaining -= count
		}
		if !found {
			return remaining == 0
		}
		if remaining == 0 {
			return true
		}
	}
}

func (c *TreeCursor) rootNode() *Node {
	if len(c.stack) == 0 {
		return c.node
	}
	return c.stack[0].node
}

// GotoFirstChildForByte descends to the child containing byte offset b,
// returning the index of the child descended into, or -1 if b falls
// outside every child's range.
func (c *TreeCursor) GotoFirstChildForByte(b uint32) int {
	for i, child := range c.node.children {
		if b >= child.startByte && b < child.endByte {
			c.stack = append(c.stack, cursorFrame{node: c.node, childIndex: i})
			c.node = child
			return i
		}
	}
	return -1
}

// GotoFirstChildForPoint descends to the child containing point p,
// returning the index descended into, or -1 if none contains it.
func (c *TreeCursor) GotoFirstChildForPoint(p Point) int {
	for i, child := range c.node.children {
		if !p.Less(child.startPoint) && p.Less(child.endPoint) {
			c.stack = append(c.stack, cursorFrame{node: c.node, childIndex: i})
			c.node = child
			return i
		}
	}
	return -1
}
