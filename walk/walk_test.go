package walk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/walk"
)

func treeOf() *syntax.Cursor {
	leaf1 := syntax.NewToken(syntax.KindIdentifier, "a")
	leaf2 := syntax.NewToken(syntax.KindIdentifier, "b")
	inner := syntax.NewNode(syntax.KindTaskNode, []*syntax.Green{leaf1, leaf2})
	root := syntax.NewNode(syntax.KindRoot, []*syntax.Green{inner})
	return syntax.NewRoot(root)
}

func TestWalkVisitsPreOrderThenPostOrder(t *testing.T) {
	var events []string
	r := walk.NewRegistry()
	r.Register("rule", walk.Func{
		OnEnter: func(c *syntax.Cursor) bool {
			events = append(events, "enter:"+c.Kind().String())
			return true
		},
		OnExit: func(c *syntax.Cursor) {
			events = append(events, "exit:"+c.Kind().String())
		},
	})

	walk.Walk(treeOf(), r, nil)

	assert.Equal(t, []string{
		"enter:Root",
		"enter:Task",
		"enter:Identifier",
		"exit:Identifier",
		"enter:Identifier",
		"exit:Identifier",
		"exit:Task",
		"exit:Root",
	}, events)
}

func TestWalkSkipsChildrenWhenEnterReturnsFalse(t *testing.T) {
	var entered []string
	r := walk.NewRegistry()
	r.Register("rule", walk.Func{
		OnEnter: func(c *syntax.Cursor) bool {
			entered = append(entered, c.Kind().String())
			return c.Kind() != syntax.KindTaskNode
		},
	})

	walk.Walk(treeOf(), r, nil)

	assert.Equal(t, []string{"Root", "Task"}, entered)
}

func TestWalkHonorsIsEnabledPredicate(t *testing.T) {
	var fired []string
	r := walk.NewRegistry()
	r.Register("suppressed-rule", walk.Func{
		OnEnter: func(c *syntax.Cursor) bool {
			fired = append(fired, c.Kind().String())
			return true
		},
	})

	enabled := func(ruleID string, c *syntax.Cursor) bool {
		return c.Kind() != syntax.KindTaskNode
	}
	walk.Walk(treeOf(), r, enabled)

	assert.Equal(t, []string{"Root", "Identifier", "Identifier"}, fired)
}

func TestRegistryRuleIDsPreservesRegistrationOrder(t *testing.T) {
	r := walk.NewRegistry()
	r.Register("first", walk.Func{})
	r.Register("second", walk.Func{})
	assert.Equal(t, []string{"first", "second"}, r.RuleIDs())
}

func TestFuncDefaultsAllowEverythingWhenCallbacksNil(t *testing.T) {
	f := walk.Func{}
	assert.True(t, f.Enter(nil))
	assert.NotPanics(t, func() { f.Exit(nil) })
}

func TestAllEnabledNeverSuppresses(t *testing.T) {
	assert.True(t, walk.AllEnabled("anything", nil))
}
