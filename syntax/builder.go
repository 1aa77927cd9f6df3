package syntax

// Builder incrementally assembles a green tree: StartNode/FinishNode bracket
// a composite node's children, and Token appends a leaf. Because every
// token — including trivia — passes through Token in lexical order, the
// resulting tree satisfies the round-trip invariant by construction.
type Builder struct {
	stack [][]*Green
}

// NewBuilder creates a Builder with one open frame for the eventual root.
func NewBuilder() *Builder {
	return &Builder{stack: [][]*Green{nil}}
}

// StartNode opens a new composite-node frame.
func (b *Builder) StartNode() { b.stack = append(b.stack, nil) }

// FinishNode closes the innermost frame, builds a composite Green node of
// the given kind from its accumulated children, and appends it as a child
// of the enclosing frame.
func (b *Builder) FinishNode(kind Kind) *Green {
	n := len(b.stack) - 1
	children := b.stack[n]
	b.stack = b.stack[:n]
	node := NewNode(kind, children)
	b.stack[n-1] = append(b.stack[n-1], node)
	return node
}

// Token appends a leaf token to the innermost open frame.
func (b *Builder) Token(kind Kind, text string) {
	n := len(b.stack) - 1
	b.stack[n] = append(b.stack[n], NewToken(kind, text))
}

// Mark returns a checkpoint into the innermost open frame: the number of
// children already accumulated there. Pair it with WrapFrom to retroactively
// group everything emitted since the checkpoint into one composite node,
// which is how left-associative binary expressions are built without
// knowing in advance that an operator follows the left operand.
func (b *Builder) Mark() int {
	n := len(b.stack) - 1
	return len(b.stack[n])
}

// WrapFrom replaces every child accumulated in the innermost frame since
// mark with a single composite node of the given kind wrapping them.
func (b *Builder) WrapFrom(mark int, kind Kind) *Green {
	n := len(b.stack) - 1
	children := append([]*Green{}, b.stack[n][mark:]...)
	node := NewNode(kind, children)
	b.stack[n] = append(b.stack[n][:mark], node)
	return node
}

// Finish closes the outermost frame (which must be the sole pending child,
// the root) and returns it. Call this once, after the top-level FinishNode
// for KindRoot.
func (b *Builder) Finish() *Green {
	if len(b.stack[0]) != 1 {
		panic("syntax: Builder.Finish called with an unbalanced tree")
	}
	return b.stack[0][0]
}
