package gridfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextVars(t *testing.T) {
	ctx := NewContext(map[string]any{"name": "World"})

	assert.Equal(t, "World", ctx.GetVar("name"))
	assert.True(t, ctx.ContainsVar("name"))
	assert.False(t, ctx.ContainsVar("missing"))

	ctx.PutVar("count", 42)
	assert.Equal(t, 42, ctx.GetVar("count"))

	ctx.RemoveVar("count")
	assert.Nil(t, ctx.GetVar("count"))
	assert.False(t, ctx.ContainsVar("count"))
}

func TestContextEvaluate(t *testing.T) {
	ctx := NewContext(map[string]any{"x": 3, "y": 5})

	result, err := ctx.Evaluate("x * y")
	require.NoError(t, err)
	assert.Equal(t, 15, result)

	ok, err := ctx.IsConditionTrue("x < y")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = ctx.IsConditionTrue("x + y")
	assert.Error(t, err) // not a boolean
}

func TestRunVarShadowing(t *testing.T) {
	ctx := NewContext(map[string]any{"e": "outer-data"})

	outer := NewRunVar(ctx, "e")
	outer.Set("outer-loop")
	assert.Equal(t, "outer-loop", ctx.GetVar("e"))

	// Nested loop reusing the same variable name.
	inner := NewRunVar(ctx, "e")
	inner.Set("inner-loop")
	assert.Equal(t, "inner-loop", ctx.GetVar("e"))

	inner.Close()
	assert.Equal(t, "outer-loop", ctx.GetVar("e"))

	outer.Close()
	// Run variable gone, data binding visible again.
	assert.Equal(t, "outer-data", ctx.GetVar("e"))
}

func TestRunVarWithIndex(t *testing.T) {
	ctx := NewContext(nil)

	rv := NewRunVarWithIndex(ctx, "e", "idx")
	rv.SetWithIndex("item", 3)
	assert.Equal(t, "item", ctx.GetVar("e"))
	assert.Equal(t, 3, ctx.GetVar("idx"))

	rv.Close()
	assert.False(t, ctx.ContainsVar("e"))
	assert.False(t, ctx.ContainsVar("idx"))
}

func TestContextToMapMergesRunVars(t *testing.T) {
	ctx := NewContext(map[string]any{"a": 1, "b": 2})
	rv := NewRunVar(ctx, "b")
	rv.Set(20)

	m := ctx.ToMap()
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, 20, m["b"]) // run var shadows data

	rv.Close()
	assert.Equal(t, 2, ctx.ToMap()["b"])
}
