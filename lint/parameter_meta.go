package lint

import (
	"fmt"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/walk"
)

const parameterMetaMatchedID = "ParameterMetaMatched"

// parameterMetaMatched checks that every task/workflow input has a
// corresponding entry in that section's parameter_meta block, and flags
// parameter_meta entries with no matching input; a key repeated for one
// input is not flagged. Grounded on
// crates/wdl-lint/src/rules/parameter_meta_matched.rs.
type parameterMetaMatched struct {
	sink func(diagnostics.Diagnostic)
}

func newParameterMetaMatched(sink func(diagnostics.Diagnostic)) walk.Visitor {
	return &parameterMetaMatched{sink: sink}
}

func (p *parameterMetaMatched) Enter(c *syntax.Cursor) bool {
	switch c.Kind() {
	case syntax.KindTaskNode:
		t, ok := ast.WrapTask(c)
		if !ok {
			return true
		}
		in, hasInput := t.Input()
		var inputs []ast.Declaration
		if hasInput {
			inputs = in.Declarations()
		}
		meta, hasMeta := t.ParameterMeta()
		p.check("task", t.Name(), inputs, meta, hasMeta)
	case syntax.KindWorkflowNode:
		w, ok := ast.WrapWorkflow(c)
		if !ok {
			return true
		}
		in, hasInput := w.Input()
		var inputs []ast.Declaration
		if hasInput {
			inputs = in.Declarations()
		}
		meta, hasMeta := w.ParameterMeta()
		p.check("workflow", w.Name(), inputs, meta, hasMeta)
	}
	return true
}

func (p *parameterMetaMatched) Exit(*syntax.Cursor) {}

func (p *parameterMetaMatched) check(context, name string, inputs []ast.Declaration, meta ast.ParameterMetaSection, hasMeta bool) {
	if len(inputs) == 0 {
		return
	}
	declared := map[string]bool{}
	for _, d := range inputs {
		declared[d.Name()] = true
	}
	seen := map[string]bool{}
	if hasMeta {
		for _, kv := range meta.Entries() {
			key := kv.Key()
			seen[key] = true
			if !declared[key] {
				span := diagnostics.Span{Start: kv.Cursor().Offset(), End: kv.Cursor().End()}
				p.sink(diagnostics.New(diagnostics.Note,
					fmt.Sprintf("%s %q has an extraneous parameter metadata key named %q", context, name, key), span).
					WithRule(parameterMetaMatchedID))
			}
		}
	}
	for _, d := range inputs {
		if !seen[d.Name()] {
			span := diagnostics.Span{Start: d.Cursor().Offset(), End: d.Cursor().End()}
			p.sink(diagnostics.New(diagnostics.Warning,
				fmt.Sprintf("%s %q is missing a parameter metadata key for input %q", context, name, d.Name()), span).
				WithRule(parameterMetaMatchedID).
				WithFix(fmt.Sprintf("add a %q key to the parameter_meta section with a detailed description of the input", d.Name())))
		}
	}
}
