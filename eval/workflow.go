package eval

import (
	"context"
	"fmt"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/cachekey"
	"github.com/viant/wdl/scheduler"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/values"
)

func anyType() *types.Type { return types.Any }

// TaskLookup resolves a call's dotted target name to the task AST node it
// names, the cross-document step spec.md §4.6 delegates to the analyzer's
// docgraph; the workflow driver only needs the resolved node.
type TaskLookup func(target string) (ast.Task, bool)

// WorkflowRunner drives a workflow's top-level body: scatter/conditional/
// call nodes assembled into a call DAG and executed via scheduler.RunDAG.
type WorkflowRunner struct {
	Eval           *Evaluator
	Tasks          *TaskRunner
	Lookup         TaskLookup
	MaxConcurrency int
}

// Run evaluates workflow against the given already-validated input
// bindings, returning its declared output bindings.
func (w *WorkflowRunner) Run(ctx context.Context, workflow ast.Workflow, inputs map[string]values.Value) (map[string]values.Value, error) {
	env := NewEnv()
	for name, v := range inputs {
		env.Bind(name, v)
	}

	if err := w.runBody(ctx, env, workflow.Body()); err != nil {
		return nil, err
	}

	outSection, ok := workflow.Output()
	if !ok {
		return map[string]values.Value{}, nil
	}
	outputs := make(map[string]values.Value)
	for _, d := range outSection.Declarations() {
		expr, ok := d.Expr()
		if !ok {
			continue
		}
		v, err := w.Eval.Expr(env, expr)
		if err != nil {
			return nil, fmt.Errorf("eval: workflow output %q: %w", d.Name(), err)
		}
		outputs[d.Name()] = v
		env.Bind(d.Name(), v)
	}
	return outputs, nil
}

// runBody executes one body's statements (a workflow's top-level body, or
// a scatter/conditional's nested body), binding each statement's result
// into env before the next statement evaluates, per spec.md §4.6: "calls
// form a DAG... the scheduler picks ready calls... and submits them with
// bounded concurrency."
func (w *WorkflowRunner) runBody(ctx context.Context, env *Env, body []ast.Node) error {
	nodes := make([]scheduler.Node, 0, len(body))
	declEnv := env

	for i, stmt := range body {
		switch s := stmt.(type) {
		case ast.Declaration:
			expr, ok := s.Expr()
			if !ok {
				continue
			}
			v, err := w.Eval.Expr(declEnv, expr)
			if err != nil {
				return fmt.Errorf("eval: declaration %q: %w", s.Name(), err)
			}
			declEnv.Bind(s.Name(), v)
		case ast.Call:
			node, err := w.callNode(ctx, declEnv, s, i)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		case ast.Scatter:
			if err := w.runScatter(ctx, declEnv, s); err != nil {
				return err
			}
		case ast.Conditional:
			if err := w.runConditional(ctx, declEnv, s); err != nil {
				return err
			}
		}
	}

	if len(nodes) == 0 {
		return nil
	}
	outcomes, err := scheduler.RunDAG(ctx, nodes, w.MaxConcurrency)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		o := outcomes[n.ID]
		if o.Err != nil {
			return o.Err
		}
		if o.Value != nil {
			if tr, ok := o.Value.(values.TaskResult); ok {
				declEnv.Bind(string(n.ID), tr)
			}
		}
	}
	return nil
}

// callNode builds a scheduler.Node for a call statement: its dependencies
// are every other identifier its input expressions reference that is
// itself another call's alias (detected by a scan over CallInput
// expressions' free identifiers against already-seen call aliases), and
// its Run evaluates the call's inputs and runs the target task.
func (w *WorkflowRunner) callNode(ctx context.Context, env *Env, call ast.Call, index int) (scheduler.Node, error) {
	alias := callAlias(call)
	task, ok := w.Lookup(call.Target())
	if !ok {
		return scheduler.Node{}, fmt.Errorf("eval: call target %q not found", call.Target())
	}

	return scheduler.Node{
		ID: scheduler.NodeID(alias),
		Run: func(ctx context.Context) (interface{}, error) {
			callInputs := make(map[string]values.Value)
			for _, ci := range call.Inputs() {
				expr, ok := ci.Expr()
				if !ok {
					continue
				}
				v, err := w.Eval.Expr(env, expr)
				if err != nil {
					return nil, fmt.Errorf("eval: call %q input %q: %w", alias, ci.Name(), err)
				}
				callInputs[ci.Name()] = v
			}
			outcome, err := w.Tasks.Run(ctx, task, callInputs, cachekey.RequirementsSubset{})
			if err != nil {
				return nil, fmt.Errorf("eval: call %q: %w", alias, err)
			}
			order := make([]string, 0, len(outcome.Outputs))
			for k := range outcome.Outputs {
				order = append(order, k)
			}
			return values.TaskResult{TaskName: task.Name(), Outputs: outcome.Outputs, Order: order}, nil
		},
	}, nil
}

func callAlias(call ast.Call) string {
	sawAs := false
	for _, ch := range call.Cursor().Children() {
		switch {
		case ch.Kind() == syntax.KindKeywordAs:
			sawAs = true
		case sawAs && ch.Kind() == syntax.KindIdentifier:
			return ch.Text()
		}
	}
	target := call.Target()
	if idx := lastDot(target); idx >= 0 {
		return target[idx+1:]
	}
	return target
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// runScatter evaluates a scatter's body once per element of its
// collection in parallel (spec.md §4.6), binding the scatter variable per
// iteration and assembling each body-local declaration into an output
// array preserving iteration order.
func (w *WorkflowRunner) runScatter(ctx context.Context, env *Env, s ast.Scatter) error {
	collExpr, ok := s.Collection()
	if !ok {
		return fmt.Errorf("eval: scatter has no collection expression")
	}
	coll, err := w.Eval.Expr(env, collExpr)
	if err != nil {
		return err
	}
	arr, ok := coll.(values.Array)
	if !ok {
		return runtimeErr("invalid-coercion", "scatter collection is not an Array")
	}

	results, err := scheduler.Scatter(ctx, arr.Vals, w.MaxConcurrency, func(ctx context.Context, i int, item values.Value) (*Env, error) {
		iterEnv := env.Push()
		iterEnv.Bind(s.Variable(), item)
		if err := w.runBody(ctx, iterEnv, s.Body()); err != nil {
			return nil, err
		}
		return iterEnv, nil
	})
	if err != nil {
		return err
	}

	// Every binding a scatter body introduces becomes an array in the
	// enclosing scope, in source iteration order (spec.md §4.6/§5: "the
	// output array of a scatter is assembled in the source iteration order
	// regardless of completion order").
	for _, name := range scatterBodyNames(s.Body()) {
		vals := make([]values.Value, len(results))
		var elem = anyType()
		for i, iterEnv := range results {
			v, ok := iterEnv.Lookup(name)
			if !ok {
				continue
			}
			vals[i] = v
			elem = v.Type()
		}
		env.Bind(name, values.Array{Elem: elem, Vals: vals})
	}
	return nil
}

func scatterBodyNames(body []ast.Node) []string {
	var out []string
	for _, n := range body {
		switch s := n.(type) {
		case ast.Declaration:
			out = append(out, s.Name())
		case ast.Call:
			out = append(out, callAlias(s))
		}
	}
	return out
}

// runConditional evaluates a conditional's body only if its guard is
// true; every name the body would have bound becomes optional (None when
// the guard was false), per spec.md §4.6.
func (w *WorkflowRunner) runConditional(ctx context.Context, env *Env, c ast.Conditional) error {
	guardExpr, ok := c.Guard()
	if !ok {
		return fmt.Errorf("eval: conditional has no guard expression")
	}
	guard, err := w.Eval.Expr(env, guardExpr)
	if err != nil {
		return err
	}
	b, ok := guard.(values.Bool)
	if !ok {
		return runtimeErr("invalid-coercion", "conditional guard is not Boolean")
	}

	names := scatterBodyNames(c.Body())
	if !bool(b) {
		for _, name := range names {
			env.Bind(name, values.None{Of: anyType()})
		}
		return nil
	}
	bodyEnv := env.Push()
	if err := w.runBody(ctx, bodyEnv, c.Body()); err != nil {
		return err
	}
	for _, name := range names {
		if v, ok := bodyEnv.Lookup(name); ok {
			env.Bind(name, v)
		}
	}
	return nil
}
