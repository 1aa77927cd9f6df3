package syntax

// Cursor is a red-tree node: a cheap, cheaply cloneable handle over a
// Green subtree carrying its absolute byte offset and a back-reference to
// its parent. Cursor identity is structural — two cursors referring to the
// same green node at the same offset are equivalent — rather than
// pointer identity.
type Cursor struct {
	green  *Green
	offset int
	parent *Cursor
	slot   int // this cursor's index among parent's children, -1 at root
}

// NewRoot creates the root cursor for a green tree, with offset 0 and no
// parent.
func NewRoot(root *Green) *Cursor {
	return &Cursor{green: root, offset: 0, parent: nil, slot: -1}
}

// Green returns the underlying immutable green node.
func (c *Cursor) Green() *Green { return c.green }

// Kind returns the cursor's syntax kind.
func (c *Cursor) Kind() Kind { return c.green.Kind() }

// Offset returns the absolute byte offset of this node's first byte within
// the document's source.
func (c *Cursor) Offset() int { return c.offset }

// End returns the absolute byte offset one past this node's last byte.
func (c *Cursor) End() int { return c.offset + c.green.Len() }

// Parent returns the enclosing cursor, or nil at the root.
func (c *Cursor) Parent() *Cursor { return c.parent }

// Slot returns this cursor's index among its parent's children, or -1 at
// the root. Invariant: for any non-root cursor c, c.Parent().Child(c.Slot())
// refers to the same green node as c.
func (c *Cursor) Slot() int { return c.slot }

// ChildCount returns the number of direct children (0 for tokens).
func (c *Cursor) ChildCount() int { return c.green.ChildCount() }

// Child returns the i'th direct child cursor, computing its absolute
// offset from the accumulated lengths of its preceding siblings.
func (c *Cursor) Child(i int) *Cursor {
	children := c.green.Children()
	if i < 0 || i >= len(children) {
		return nil
	}
	off := c.offset
	for j := 0; j < i; j++ {
		off += children[j].Len()
	}
	return &Cursor{green: children[i], offset: off, parent: c, slot: i}
}

// Children returns all direct child cursors in order.
func (c *Cursor) Children() []*Cursor {
	n := c.ChildCount()
	out := make([]*Cursor, n)
	off := c.offset
	for i := 0; i < n; i++ {
		ch := c.green.Children()[i]
		out[i] = &Cursor{green: ch, offset: off, parent: c, slot: i}
		off += ch.Len()
	}
	return out
}

// NextSibling returns the cursor immediately following this one among its
// parent's children, or nil if this is the last child or the root.
// It goes through the parent's Child, which starts from the cached parent
// offset and sums the widths of the preceding siblings, so its cost grows
// with the slot index.
func (c *Cursor) NextSibling() *Cursor {
	if c.parent == nil {
		return nil
	}
	return c.parent.Child(c.slot + 1)
}

// PrevSibling returns the cursor immediately preceding this one, or nil.
func (c *Cursor) PrevSibling() *Cursor {
	if c.parent == nil || c.slot <= 0 {
		return nil
	}
	return c.parent.Child(c.slot - 1)
}

// Text returns the literal token text for a leaf cursor.
func (c *Cursor) Text() string { return c.green.Text() }

// IsToken reports whether the cursor refers to a leaf token.
func (c *Cursor) IsToken() bool { return c.green.IsToken() }

// NonTrivia returns the child cursors whose Kind is not trivia
// (whitespace/comment), in order. This is the primary way the typed AST
// layer filters children without allocating extra state.
func (c *Cursor) NonTrivia() []*Cursor {
	all := c.Children()
	out := make([]*Cursor, 0, len(all))
	for _, ch := range all {
		if !ch.Kind().IsTrivia() {
			out = append(out, ch)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child with the given kind, or
// nil.
func (c *Cursor) FirstChildOfKind(k Kind) *Cursor {
	for _, ch := range c.Children() {
		if ch.Kind() == k {
			return ch
		}
	}
	return nil
}

// ChildrenOfKind returns every direct child with the given kind, in order.
func (c *Cursor) ChildrenOfKind(k Kind) []*Cursor {
	var out []*Cursor
	for _, ch := range c.Children() {
		if ch.Kind() == k {
			out = append(out, ch)
		}
	}
	return out
}
