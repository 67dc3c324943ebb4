package gridfill

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExpressionEvaluator evaluates template expressions against a variable binding.
type ExpressionEvaluator interface {
	Evaluate(expression string, data map[string]any) (any, error)
	IsConditionTrue(condition string, data map[string]any) (bool, error)
}

// exprEvaluator implements ExpressionEvaluator using expr-lang/expr.
type exprEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

// NewExpressionEvaluator creates an expression evaluator backed by expr-lang/expr.
func NewExpressionEvaluator() ExpressionEvaluator {
	return &exprEvaluator{}
}

func (e *exprEvaluator) Evaluate(expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := e.compile(expression, data)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, data)
	if err != nil {
		return nil, fmt.Errorf("run expression %q: %w", expression, err)
	}
	return result, nil
}

func (e *exprEvaluator) IsConditionTrue(condition string, data map[string]any) (bool, error) {
	result, err := e.Evaluate(condition, data)
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil // nil treated as false
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %T, expected bool", condition, result)
	}
	return b, nil
}

func (e *exprEvaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

// ExpressionSegment is a part of a cell value: either literal text or an
// expression (without its delimiters).
type ExpressionSegment struct {
	IsExpression bool
	Text         string
}

// ParseExpressions splits a cell value into segments of literal text and
// expressions. "Name: ${e.Name}" → [{false, "Name: "}, {true, "e.Name"}]
func ParseExpressions(value string, begin, end string) []ExpressionSegment {
	if begin == "" || end == "" {
		begin = "${"
		end = "}"
	}

	var segments []ExpressionSegment
	remaining := value

	for {
		startIdx := strings.Index(remaining, begin)
		if startIdx < 0 {
			break
		}

		// Find the matching end delimiter, accounting for nested braces
		searchFrom := startIdx + len(begin)
		endIdx := findMatchingEnd(remaining[searchFrom:], begin, end)
		if endIdx < 0 {
			break
		}
		endIdx += searchFrom

		if startIdx > 0 {
			segments = append(segments, ExpressionSegment{
				IsExpression: false,
				Text:         remaining[:startIdx],
			})
		}

		segments = append(segments, ExpressionSegment{
			IsExpression: true,
			Text:         remaining[startIdx+len(begin) : endIdx],
		})

		remaining = remaining[endIdx+len(end):]
	}

	if remaining != "" {
		segments = append(segments, ExpressionSegment{
			IsExpression: false,
			Text:         remaining,
		})
	}

	return segments
}

// findMatchingEnd finds the position of the matching end delimiter.
// Nested begin/end pairs are tracked, end tokens inside single- or
// double-quoted string literals are skipped, and with the default "}"
// end token a bare "{" opens a nesting level so map literals like
// ${ {"a": 1}.a } terminate at the right brace.
func findMatchingEnd(s string, begin, end string) int {
	depth := 0
	var quote byte
	for i := 0; i <= len(s)-len(end); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(s[i:], begin):
			depth++
			i += len(begin) - 1
		case end == "}" && c == '{':
			depth++
		case strings.HasPrefix(s[i:], end):
			if depth == 0 {
				return i
			}
			depth--
			i += len(end) - 1
		}
	}
	return -1
}
