package gridfill

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // template will fail at runtime
	SeverityWarning                 // template may produce unexpected results
)

// ValidationIssue is a single problem found during template validation.
type ValidationIssue struct {
	Severity Severity
	Pos      Pos
	Message  string
}

// String formats the issue as "[ERROR] Sheet1!A2: message".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, v.Pos, v.Message)
}

// Validate performs static checks on an ingested template without
// requiring data: structural consistency of the area tree, expression
// syntax in cells, and command attribute expressions. A non-nil error means
// the template markup could not be built at all.
func (e *Engine) Validate(t *Transformer) ([]ValidationIssue, error) {
	areas, err := e.BuildAreas(t)
	if err != nil {
		return nil, fmt.Errorf("build areas: %w", err)
	}

	var issues []ValidationIssue
	for _, area := range areas {
		issues = append(issues, e.validateExpressions(t, area)...)
		issues = append(issues, e.validateCommandAttributes(area)...)
	}
	return issues, nil
}

// validateExpressions compiles every embedded expression within the area.
func (e *Engine) validateExpressions(t *Transformer, area *Area) []ValidationIssue {
	var issues []ValidationIssue
	for row := 0; row < area.AreaSize.Height; row++ {
		for col := 0; col < area.AreaSize.Width; col++ {
			pos := NewPos(area.Start.Sheet, area.Start.Row+row, area.Start.Col+col)
			cd := t.GetCellData(pos)
			if cd == nil {
				continue
			}
			if strVal, ok := cd.Value.(string); ok && strings.Contains(strVal, e.opts.notationBegin) {
				issues = append(issues, checkExpressionSyntax(pos, strVal, e.opts.notationBegin, e.opts.notationEnd)...)
			}
		}
	}
	return issues
}

// checkExpressionSyntax compiles the embedded expressions of a cell value.
func checkExpressionSyntax(pos Pos, value, notationBegin, notationEnd string) []ValidationIssue {
	var issues []ValidationIssue
	for _, seg := range ParseExpressions(value, notationBegin, notationEnd) {
		if !seg.IsExpression {
			continue
		}
		if _, err := expr.Compile(seg.Text, expr.AllowUndefinedVariables()); err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Pos:      pos,
				Message:  fmt.Sprintf("invalid expression syntax %q: %v", seg.Text, err),
			})
		}
	}
	return issues
}

// validateCommandAttributes compiles command attribute expressions,
// recursing into nested command areas.
func (e *Engine) validateCommandAttributes(area *Area) []ValidationIssue {
	var issues []ValidationIssue
	for _, b := range area.Bindings {
		switch cmd := b.Command.(type) {
		case *EachCommand:
			issues = appendCompileIssue(issues, b.Start, "each", "items", cmd.Items)
			issues = appendCompileIssue(issues, b.Start, "each", "select", cmd.Select)
			issues = appendCompileIssue(issues, b.Start, "each", "groupBy", cmd.GroupBy)
		case *IfCommand:
			issues = appendCompileIssue(issues, b.Start, "if", "condition", cmd.Condition)
		}
		if childArea := commandArea(b.Command); childArea != nil {
			issues = append(issues, e.validateCommandAttributes(childArea)...)
		}
	}
	return issues
}

// appendCompileIssue compiles an attribute expression and appends an issue
// on failure. Empty expressions are skipped.
func appendCompileIssue(issues []ValidationIssue, pos Pos, cmdName, attrName, expression string) []ValidationIssue {
	if expression == "" {
		return issues
	}
	if _, err := expr.Compile(expression, expr.AllowUndefinedVariables()); err != nil {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Pos:      pos,
			Message:  fmt.Sprintf("%s command has invalid %s expression %q: %v", cmdName, attrName, expression, err),
		})
	}
	return issues
}
