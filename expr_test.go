package gridfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorBasics(t *testing.T) {
	ev := NewExpressionEvaluator()

	result, err := ev.Evaluate("a + b", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 5, result)

	result, err = ev.Evaluate("", nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = ev.Evaluate("missing", map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = ev.Evaluate("1 +* 2", nil)
	assert.Error(t, err)
}

func TestEvaluatorConditions(t *testing.T) {
	ev := NewExpressionEvaluator()

	ok, err := ev.IsConditionTrue("n > 10", map[string]any{"n": 15})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.IsConditionTrue("nothing", map[string]any{})
	require.NoError(t, err)
	assert.False(t, ok) // nil is false

	_, err = ev.IsConditionTrue("n + 1", map[string]any{"n": 1})
	assert.Error(t, err) // not a boolean
}

func TestEvaluatorReusesCompiledPrograms(t *testing.T) {
	ev := NewExpressionEvaluator()
	for i := 0; i < 3; i++ {
		result, err := ev.Evaluate("n * 2", map[string]any{"n": i})
		require.NoError(t, err)
		assert.Equal(t, i*2, result)
	}
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		value string
		want  []ExpressionSegment
	}{
		{"plain", []ExpressionSegment{{false, "plain"}}},
		{"${x}", []ExpressionSegment{{true, "x"}}},
		{"Name: ${e.Name}", []ExpressionSegment{{false, "Name: "}, {true, "e.Name"}}},
		{"${a}-${b}", []ExpressionSegment{{true, "a"}, {false, "-"}, {true, "b"}}},
		{`${ {"a": 1}.a }`, []ExpressionSegment{{true, ` {"a": 1}.a `}}},
		{`${v + "}"} end`, []ExpressionSegment{{true, `v + "}"`}, {false, " end"}}},
		{"${c == '}'}", []ExpressionSegment{{true, "c == '}'"}}},
		{"${unterminated", []ExpressionSegment{{false, "${unterminated"}}},
		{"", nil},
	}
	for _, tt := range tests {
		got := ParseExpressions(tt.value, "${", "}")
		assert.Equal(t, tt.want, got, tt.value)
	}
}

func TestParseExpressionsCustomNotation(t *testing.T) {
	got := ParseExpressions("[[x]] and [[y]]", "[[", "]]")
	want := []ExpressionSegment{{true, "x"}, {false, " and "}, {true, "y"}}
	assert.Equal(t, want, got)
}
