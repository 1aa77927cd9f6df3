// Package ast provides the typed view over syntax.Cursor nodes described
// in spec.md §4.3: thin wrappers asserting a cursor's kind belongs to a
// set valid for that view, with zero-copy, non-allocating accessors.
package ast

import "github.com/viant/wdl/syntax"

// Node is the common interface every typed view satisfies.
type Node interface {
	// Cursor returns the underlying red-tree cursor.
	Cursor() *syntax.Cursor
	// Kind returns the cursor's syntax kind.
	Kind() syntax.Kind
}

// base embeds the cursor shared by every typed view.
type base struct{ c *syntax.Cursor }

func (b base) Cursor() *syntax.Cursor { return b.c }
func (b base) Kind() syntax.Kind      { return b.c.Kind() }

// Document wraps the root node of a parsed source.
type Document struct{ base }

// WrapDocument asserts c is a KindRoot cursor and returns its typed view.
// It never allocates beyond the returned struct.
func WrapDocument(c *syntax.Cursor) (Document, bool) {
	if c == nil || c.Kind() != syntax.KindRoot {
		return Document{}, false
	}
	return Document{base{c}}, true
}

// VersionStatement returns the version statement child, if present.
func (d Document) VersionStatement() (VersionStatement, bool) {
	c := d.c.FirstChildOfKind(syntax.KindVersionStatementNode)
	if c == nil {
		return VersionStatement{}, false
	}
	return VersionStatement{base{c}}, true
}

// Imports returns every top-level import declaration, in source order.
func (d Document) Imports() []Import {
	cs := d.c.ChildrenOfKind(syntax.KindImportNode)
	out := make([]Import, len(cs))
	for i, c := range cs {
		out[i] = Import{base{c}}
	}
	return out
}

// Structs returns every top-level struct declaration.
func (d Document) Structs() []StructDef {
	cs := d.c.ChildrenOfKind(syntax.KindStructNode)
	out := make([]StructDef, len(cs))
	for i, c := range cs {
		out[i] = StructDef{base{c}}
	}
	return out
}

// Enums returns every top-level enum declaration.
func (d Document) Enums() []EnumDef {
	cs := d.c.ChildrenOfKind(syntax.KindEnumNode)
	out := make([]EnumDef, len(cs))
	for i, c := range cs {
		out[i] = EnumDef{base{c}}
	}
	return out
}

// Tasks returns every top-level task declaration.
func (d Document) Tasks() []Task {
	cs := d.c.ChildrenOfKind(syntax.KindTaskNode)
	out := make([]Task, len(cs))
	for i, c := range cs {
		out[i] = Task{base{c}}
	}
	return out
}

// Workflows returns every top-level workflow declaration (well-formed WDL
// has at most one, but malformed input may parse more than one; callers
// decide how to diagnose that).
func (d Document) Workflows() []Workflow {
	cs := d.c.ChildrenOfKind(syntax.KindWorkflowNode)
	out := make([]Workflow, len(cs))
	for i, c := range cs {
		out[i] = Workflow{base{c}}
	}
	return out
}

// VersionStatement wraps a parsed `version X` node.
type VersionStatement struct{ base }

// Literal returns the raw version-literal token text (e.g. "1.2", "draft-3").
func (v VersionStatement) Literal() string {
	if t := v.c.FirstChildOfKind(syntax.KindVersionLiteral); t != nil {
		return t.Text()
	}
	return ""
}

// Import wraps an `import "uri" as ns` / `alias A as B` declaration.
type Import struct{ base }

// URI returns the quoted import URI's text (unescaped by the caller as needed).
func (i Import) URI() string {
	if t := i.c.FirstChildOfKind(syntax.KindStringLiteralText); t != nil {
		return t.Text()
	}
	return ""
}

// Namespace returns the `as NAME` alias, if present, else the empty string.
func (i Import) Namespace() string {
	if t := i.c.FirstChildOfKind(syntax.KindIdentifier); t != nil {
		return t.Text()
	}
	return ""
}

// Aliases returns every `alias A as B` sub-clause.
func (i Import) Aliases() []ImportAlias {
	cs := i.c.ChildrenOfKind(syntax.KindImportAliasNode)
	out := make([]ImportAlias, len(cs))
	for idx, c := range cs {
		out[idx] = ImportAlias{base{c}}
	}
	return out
}

// ImportAlias wraps a single `alias A as B` clause.
type ImportAlias struct{ base }

// From returns the original struct name being aliased.
func (a ImportAlias) From() string {
	idents := a.c.ChildrenOfKind(syntax.KindIdentifier)
	if len(idents) > 0 {
		return idents[0].Text()
	}
	return ""
}

// To returns the local alias name.
func (a ImportAlias) To() string {
	idents := a.c.ChildrenOfKind(syntax.KindIdentifier)
	if len(idents) > 1 {
		return idents[1].Text()
	}
	return ""
}

// Named is satisfied by any declaration view exposing a single identifying
// name (struct, enum, task, workflow).
type Named interface {
	Node
	Name() string
}

func firstIdentText(c *syntax.Cursor) string {
	if t := c.FirstChildOfKind(syntax.KindIdentifier); t != nil {
		return t.Text()
	}
	return ""
}

// StructDef wraps a `struct S { ... }` declaration.
type StructDef struct{ base }

func (s StructDef) Name() string { return firstIdentText(s.c) }

// Members returns the struct's member declarations in source order.
func (s StructDef) Members() []StructMember {
	cs := s.c.ChildrenOfKind(syntax.KindStructMemberNode)
	out := make([]StructMember, len(cs))
	for i, c := range cs {
		out[i] = StructMember{base{c}}
	}
	return out
}

// StructMember wraps a single typed struct member declaration.
type StructMember struct{ base }

func (m StructMember) Name() string { return firstIdentText(m.c) }

// TypeNode returns the member's declared type node.
func (m StructMember) TypeNode() (TypeExpr, bool) {
	c := m.c.FirstChildOfKind(syntax.KindTypeNode)
	if c == nil {
		return TypeExpr{}, false
	}
	return TypeExpr{base{c}}, true
}

// EnumDef wraps an `enum E { A, B, C }` declaration.
type EnumDef struct{ base }

func (e EnumDef) Name() string { return firstIdentText(e.c) }

// Variants returns the enum's variant names in declaration order.
func (e EnumDef) Variants() []string {
	cs := e.c.ChildrenOfKind(syntax.KindEnumVariantNode)
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = firstIdentText(c)
	}
	return out
}

// Task wraps a `task T { ... }` declaration.
type Task struct{ base }

// WrapTask asserts c is a KindTaskNode cursor.
func WrapTask(c *syntax.Cursor) (Task, bool) {
	if c == nil || c.Kind() != syntax.KindTaskNode {
		return Task{}, false
	}
	return Task{base{c}}, true
}

func (t Task) Name() string { return firstIdentText(t.c) }

func (t Task) Meta() (MetaSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindMetaSectionNode)
	if c == nil {
		return MetaSection{}, false
	}
	return MetaSection{base{c}}, true
}

func (t Task) ParameterMeta() (ParameterMetaSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindParameterMetaSectionNode)
	if c == nil {
		return ParameterMetaSection{}, false
	}
	return ParameterMetaSection{base{c}}, true
}

func (t Task) Input() (InputSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindInputSectionNode)
	if c == nil {
		return InputSection{}, false
	}
	return InputSection{base{c}}, true
}

func (t Task) Output() (OutputSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindOutputSectionNode)
	if c == nil {
		return OutputSection{}, false
	}
	return OutputSection{base{c}}, true
}

func (t Task) Command() (CommandSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindCommandSectionNode)
	if c == nil {
		return CommandSection{}, false
	}
	return CommandSection{base{c}}, true
}

func (t Task) Runtime() (RuntimeSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindRuntimeSectionNode)
	if c == nil {
		return RuntimeSection{}, false
	}
	return RuntimeSection{base{c}}, true
}

func (t Task) Requirements() (RequirementsSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindRequirementsSectionNode)
	if c == nil {
		return RequirementsSection{}, false
	}
	return RequirementsSection{base{c}}, true
}

func (t Task) Hints() (HintsSection, bool) {
	c := t.c.FirstChildOfKind(syntax.KindHintsSectionNode)
	if c == nil {
		return HintsSection{}, false
	}
	return HintsSection{base{c}}, true
}

func (t Task) Declarations() []Declaration {
	cs := t.c.ChildrenOfKind(syntax.KindDeclarationNode)
	out := make([]Declaration, len(cs))
	for i, c := range cs {
		out[i] = Declaration{base{c}}
	}
	return out
}

// Workflow wraps a `workflow W { ... }` declaration.
type Workflow struct{ base }

// WrapWorkflow asserts c is a KindWorkflowNode cursor.
func WrapWorkflow(c *syntax.Cursor) (Workflow, bool) {
	if c == nil || c.Kind() != syntax.KindWorkflowNode {
		return Workflow{}, false
	}
	return Workflow{base{c}}, true
}

func (w Workflow) Name() string { return firstIdentText(w.c) }

func (w Workflow) Meta() (MetaSection, bool) {
	c := w.c.FirstChildOfKind(syntax.KindMetaSectionNode)
	if c == nil {
		return MetaSection{}, false
	}
	return MetaSection{base{c}}, true
}

func (w Workflow) ParameterMeta() (ParameterMetaSection, bool) {
	c := w.c.FirstChildOfKind(syntax.KindParameterMetaSectionNode)
	if c == nil {
		return ParameterMetaSection{}, false
	}
	return ParameterMetaSection{base{c}}, true
}

func (w Workflow) Input() (InputSection, bool) {
	c := w.c.FirstChildOfKind(syntax.KindInputSectionNode)
	if c == nil {
		return InputSection{}, false
	}
	return InputSection{base{c}}, true
}

func (w Workflow) Output() (OutputSection, bool) {
	c := w.c.FirstChildOfKind(syntax.KindOutputSectionNode)
	if c == nil {
		return OutputSection{}, false
	}
	return OutputSection{base{c}}, true
}

// Body returns the workflow's top-level execution statements: calls,
// scatters, conditionals, and declarations, in source order.
func (w Workflow) Body() []Node {
	var out []Node
	for _, c := range w.c.Children() {
		switch c.Kind() {
		case syntax.KindCallNode:
			out = append(out, Call{base{c}})
		case syntax.KindScatterNode:
			out = append(out, Scatter{base{c}})
		case syntax.KindConditionalNode:
			out = append(out, Conditional{base{c}})
		case syntax.KindDeclarationNode:
			out = append(out, Declaration{base{c}})
		}
	}
	return out
}

// InputSection wraps an `input { ... }` block.
type InputSection struct{ base }

func (s InputSection) Declarations() []Declaration {
	cs := s.c.ChildrenOfKind(syntax.KindDeclarationNode)
	out := make([]Declaration, len(cs))
	for i, c := range cs {
		out[i] = Declaration{base{c}}
	}
	return out
}

// OutputSection wraps an `output { ... }` block.
type OutputSection struct{ base }

func (s OutputSection) Declarations() []Declaration {
	cs := s.c.ChildrenOfKind(syntax.KindDeclarationNode)
	out := make([]Declaration, len(cs))
	for i, c := range cs {
		out[i] = Declaration{base{c}}
	}
	return out
}

// Declaration wraps a single `Type name = expr` binding.
type Declaration struct{ base }

func (d Declaration) Name() string { return firstIdentText(d.c) }

func (d Declaration) TypeNode() (TypeExpr, bool) {
	c := d.c.FirstChildOfKind(syntax.KindTypeNode)
	if c == nil {
		return TypeExpr{}, false
	}
	return TypeExpr{base{c}}, true
}

// Expr returns the declaration's initializer expression, if any (workflow
// and task inputs may be unbound).
func (d Declaration) Expr() (Expr, bool) {
	return firstExprChild(d.c)
}

// CommandSection wraps a `command { ... }` / `command <<< ... >>>` body.
type CommandSection struct{ base }

// Parts returns the alternating literal-text and placeholder parts of the
// command template, in source order.
func (c CommandSection) Parts() []Node {
	var out []Node
	for _, ch := range c.c.Children() {
		switch ch.Kind() {
		case syntax.KindCommandText:
			out = append(out, literalText{base{ch}})
		case syntax.KindExprPlaceholderNode:
			out = append(out, Placeholder{base{ch}})
		}
	}
	return out
}

type literalText struct{ base }

// Text returns the literal command text of this part.
func (l literalText) Text() string { return l.c.Text() }

// Placeholder wraps a `~{expr}` / `${expr}` command/string interpolation.
type Placeholder struct{ base }

func (p Placeholder) Expr() (Expr, bool) { return firstExprChild(p.c) }

// RuntimeSection, RequirementsSection, HintsSection, MetaSection, and
// ParameterMetaSection all share the same key/value shape; MetaObjectNode
// children hold the MetaKeyValueNode entries.
type RuntimeSection struct{ base }
type RequirementsSection struct{ base }
type HintsSection struct{ base }
type MetaSection struct{ base }
type ParameterMetaSection struct{ base }

func keyValues(c *syntax.Cursor) []MetaKeyValue {
	cs := c.ChildrenOfKind(syntax.KindMetaKeyValueNode)
	out := make([]MetaKeyValue, len(cs))
	for i, kv := range cs {
		out[i] = MetaKeyValue{base{kv}}
	}
	return out
}

func (s RuntimeSection) Entries() []MetaKeyValue      { return keyValues(s.c) }
func (s RequirementsSection) Entries() []MetaKeyValue { return keyValues(s.c) }
func (s HintsSection) Entries() []MetaKeyValue        { return keyValues(s.c) }
func (s MetaSection) Entries() []MetaKeyValue         { return keyValues(s.c) }
func (s ParameterMetaSection) Entries() []MetaKeyValue { return keyValues(s.c) }

// MetaKeyValue wraps a single `key: value` pair in a metadata-shaped
// section (runtime, requirements, hints, meta, parameter_meta, object
// literals).
type MetaKeyValue struct{ base }

func (kv MetaKeyValue) Key() string { return firstIdentText(kv.c) }

func (kv MetaKeyValue) Value() (Expr, bool) { return firstExprChild(kv.c) }

// Call wraps a `call task_or_workflow [as alias] [{ input: ... }]` statement.
type Call struct{ base }

// Target returns the dotted call target name (e.g. "ns.task").
func (c Call) Target() string {
	target := ""
	for _, ch := range c.c.Children() {
		switch k := ch.Kind(); {
		case k.IsTrivia() || k == syntax.KindKeywordCall:
			continue
		case k == syntax.KindIdentifier || k == syntax.KindDot:
			target += ch.Text()
		default:
			return target
		}
	}
	return target
}

func (c Call) Inputs() []CallInput {
	cs := c.c.ChildrenOfKind(syntax.KindCallInputNode)
	out := make([]CallInput, len(cs))
	for i, ci := range cs {
		out[i] = CallInput{base{ci}}
	}
	return out
}

// CallInput wraps a single `name = expr` (or shorthand `name`) call-input
// binding.
type CallInput struct{ base }

func (ci CallInput) Name() string { return firstIdentText(ci.c) }

func (ci CallInput) Expr() (Expr, bool) { return firstExprChild(ci.c) }

// Scatter wraps a `scatter (x in expr) { ... }` block.
type Scatter struct{ base }

func (s Scatter) Variable() string { return firstIdentText(s.c) }

func (s Scatter) Collection() (Expr, bool) { return firstExprChild(s.c) }

func (s Scatter) Body() []Node { return bodyOf(s.c) }

// Conditional wraps an `if (expr) { ... }` block.
type Conditional struct{ base }

func (c Conditional) Guard() (Expr, bool) { return firstExprChild(c.c) }

func (c Conditional) Body() []Node { return bodyOf(c.c) }

func bodyOf(c *syntax.Cursor) []Node {
	var out []Node
	for _, ch := range c.Children() {
		switch ch.Kind() {
		case syntax.KindCallNode:
			out = append(out, Call{base{ch}})
		case syntax.KindScatterNode:
			out = append(out, Scatter{base{ch}})
		case syntax.KindConditionalNode:
			out = append(out, Conditional{base{ch}})
		case syntax.KindDeclarationNode:
			out = append(out, Declaration{base{ch}})
		}
	}
	return out
}

// TypeExpr wraps a type annotation node (e.g. `Array[File]+?`).
type TypeExpr struct{ base }

// Name returns the base type keyword/identifier text (e.g. "Array", "Int",
// a struct/enum name).
func (t TypeExpr) Name() string {
	for _, ch := range t.c.Children() {
		if !ch.Kind().IsTrivia() {
			return ch.Text()
		}
	}
	return ""
}

// TypeArgs returns the bracketed type parameters (e.g. [K, V] in Map[K,V]).
func (t TypeExpr) TypeArgs() []TypeExpr {
	cs := t.c.ChildrenOfKind(syntax.KindTypeNode)
	out := make([]TypeExpr, len(cs))
	for i, c := range cs {
		out[i] = TypeExpr{base{c}}
	}
	return out
}

// Optional reports whether the type is suffixed with `?`.
func (t TypeExpr) Optional() bool { return t.c.FirstChildOfKind(syntax.KindQuestion) != nil }

// NonEmpty reports whether the array type is suffixed with `+`.
func (t TypeExpr) NonEmpty() bool { return t.c.FirstChildOfKind(syntax.KindPlus) != nil }
