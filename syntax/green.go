package syntax

// Green is an immutable, shareable syntax tree node. A Green node is
// either a token (Kind + literal source text) or a composite subtree
// (Kind + ordered Children). Green nodes never carry parent pointers or
// absolute offsets; those belong to the Cursor (red) layer.
//
// Invariant: concatenating the Text() of every leaf token in left-to-right
// order reproduces the source byte-for-byte, including trivia.
type Green struct {
	kind     Kind
	text     string  // set for tokens; empty for composites
	length   int     // byte length of the subtree this node spans
	children []*Green // nil for tokens
}

// NewToken builds a leaf green node covering exactly text.
func NewToken(kind Kind, text string) *Green {
	return &Green{kind: kind, text: text, length: len(text)}
}

// NewNode builds a composite green node from already-built children. Its
// length is the sum of its children's lengths, which must equal the byte
// span of source it was parsed from.
func NewNode(kind Kind, children []*Green) *Green {
	n := &Green{kind: kind, children: children}
	for _, c := range children {
		n.length += c.length
	}
	return n
}

// Kind returns the node's syntax kind.
func (g *Green) Kind() Kind { return g.kind }

// Len returns the byte length of the subtree rooted at g.
func (g *Green) Len() int { return g.length }

// IsToken reports whether g is a leaf token (as opposed to a composite node).
func (g *Green) IsToken() bool { return g.children == nil }

// Text returns the literal source text of a token node. It panics if g is
// a composite node; callers should check IsToken first.
func (g *Green) Text() string {
	if !g.IsToken() {
		panic("syntax: Text called on composite node")
	}
	return g.text
}

// Children returns the ordered child nodes of a composite node. It returns
// nil for tokens.
func (g *Green) Children() []*Green { return g.children }

// ChildCount returns the number of direct children.
func (g *Green) ChildCount() int { return len(g.children) }

// FullText reconstructs the exact source span covered by g, including
// trivia, by concatenating leaf token text. It is O(n) in subtree size and
// mainly intended for tests and debugging; production code should prefer
// Document's cached source slice together with a Cursor's byte offsets.
func (g *Green) FullText() string {
	if g.IsToken() {
		return g.text
	}
	var buf []byte
	var walk func(*Green)
	walk = func(n *Green) {
		if n.IsToken() {
			buf = append(buf, n.text...)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(g)
	return string(buf)
}
