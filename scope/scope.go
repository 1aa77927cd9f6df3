// Package scope implements the hierarchical name-resolution table of
// spec.md §4.4: a tree of scopes each owning a name-to-binding map, used
// by resolve to look up identifiers with correct shadowing.
package scope

// OwnerKind classifies what introduced a Scope, used by resolve to apply
// owner-specific visibility rules (e.g. a scatter variable is visible only
// within its own body).
type OwnerKind int

const (
	OwnerDocument OwnerKind = iota
	OwnerTask
	OwnerWorkflow
	OwnerInput
	OwnerOutput
	OwnerScatter
	OwnerConditional
	OwnerCall
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerDocument:
		return "document"
	case OwnerTask:
		return "task"
	case OwnerWorkflow:
		return "workflow"
	case OwnerInput:
		return "input"
	case OwnerOutput:
		return "output"
	case OwnerScatter:
		return "scatter"
	case OwnerConditional:
		return "conditional"
	case OwnerCall:
		return "call"
	default:
		return "unknown"
	}
}

// Binding is one name bound within a Scope: the declaration node's byte
// span (for "go to definition" and duplicate-declaration diagnostics) and
// an opaque type-checker handle filled in by the resolve/types pass.
type Binding struct {
	Name     string
	Offset   int
	End      int
	TypeInfo interface{} // set by resolve to a *types.Type; kept opaque here to avoid an import cycle
}

// Scope is one node of the name-resolution tree: a byte span, an owner
// kind, a parent pointer, and its own declarations.
type Scope struct {
	Owner    OwnerKind
	Offset   int
	End      int
	Parent   *Scope
	names    map[string]Binding
	Children []*Scope
}

// New creates a root scope (no parent), used for a single document's
// outermost scope.
func New(owner OwnerKind, offset, end int) *Scope {
	return &Scope{Owner: owner, Offset: offset, End: end, names: map[string]Binding{}}
}

// Push creates a child scope nested inside s.
func (s *Scope) Push(owner OwnerKind, offset, end int) *Scope {
	child := New(owner, offset, end)
	child.Parent = s
	s.Children = append(s.Children, child)
	return child
}

// Declare binds name within s, returning false (without overwriting) if
// name is already bound directly in s — the caller should report a
// duplicate-declaration diagnostic in that case. Shadowing an outer
// scope's binding is always allowed; only same-scope redeclaration is
// rejected, per spec.md §4.4.
func (s *Scope) Declare(b Binding) bool {
	if _, exists := s.names[b.Name]; exists {
		return false
	}
	s.names[b.Name] = b
	return true
}

// Lookup searches s and its ancestors for name, returning the nearest
// (most-shadowing) binding.
func (s *Scope) Lookup(name string) (Binding, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.names[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// LocalNames returns every name declared directly in s (not ancestors), in
// no particular order; used for completion and "unused variable" lint
// rules.
func (s *Scope) LocalNames() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	return out
}

// Enclosing returns the innermost scope in the tree rooted at s whose span
// contains offset, descending into children when possible.
func (s *Scope) Enclosing(offset int) *Scope {
	if offset < s.Offset || offset > s.End {
		return nil
	}
	for _, c := range s.Children {
		if found := c.Enclosing(offset); found != nil {
			return found
		}
	}
	return s
}
