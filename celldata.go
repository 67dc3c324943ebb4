package gridfill

import (
	"fmt"
	"strings"
	"time"
)

// CellType represents the type of data in a cell.
type CellType int

const (
	CellBlank CellType = iota
	CellString
	CellNumber
	CellBoolean
	CellDate
	CellFormula
	CellError
)

// String returns a human-readable name for the CellType.
func (ct CellType) String() string {
	switch ct {
	case CellBlank:
		return "Blank"
	case CellString:
		return "String"
	case CellNumber:
		return "Number"
	case CellBoolean:
		return "Boolean"
	case CellDate:
		return "Date"
	case CellFormula:
		return "Formula"
	case CellError:
		return "Error"
	default:
		return "Unknown"
	}
}

// User formula notation: a whole-value wrapper marking the substituted
// string as a spreadsheet formula rather than literal text.
const (
	userFormulaPrefix = "$["
	userFormulaSuffix = "]"
)

// IsUserFormula returns true if the string is wrapped in user formula notation.
func IsUserFormula(s string) bool {
	return strings.HasPrefix(s, userFormulaPrefix) && strings.HasSuffix(s, userFormulaSuffix)
}

// CellData holds all information about a single cell in the template.
// Evaluation never mutates the raw value or type: re-evaluating the same
// cell against a different context is not influenced by a prior evaluation.
type CellData struct {
	Pos     Pos      // source position
	Value   any      // raw cell value
	Type    CellType // raw value type
	Formula string   // formula text (formula cells and user-formula strings)
	Comment string   // cell comment/note text

	// Target tracking: every destination this cell has been written to,
	// in call order. Appended by the Transformer; duplicates allowed.
	targetPositions []Pos
}

// NewCellData creates a CellData with a position, value, and type.
// For formula cells and user-formula-wrapped strings the formula text is
// derived from the value.
func NewCellData(pos Pos, value any, cellType CellType) *CellData {
	cd := &CellData{
		Pos:   pos,
		Value: value,
		Type:  cellType,
	}
	switch {
	case cellType == CellFormula:
		if value != nil {
			cd.Formula = fmt.Sprintf("%v", value)
		}
	case cellType == CellString && value != nil:
		if s, ok := value.(string); ok && IsUserFormula(s) {
			cd.Formula = s[len(userFormulaPrefix) : len(s)-len(userFormulaSuffix)]
		}
	}
	return cd
}

// IsFormulaCell returns true if this cell contains a formula, either native
// or user-formula-wrapped.
func (cd *CellData) IsFormulaCell() bool {
	return cd.Formula != ""
}

// AddTargetPos records that this cell was written to the given position.
func (cd *CellData) AddTargetPos(pos Pos) {
	cd.targetPositions = append(cd.targetPositions, pos)
}

// TargetPositions returns the recorded destination history in call order.
func (cd *CellData) TargetPositions() []Pos {
	return cd.targetPositions
}

// ResetTargetPositions clears the recorded destination history.
func (cd *CellData) ResetTargetPositions() {
	cd.targetPositions = cd.targetPositions[:0]
}

// Evaluate resolves the cell against the given context and returns the
// transient result plus the type to use when writing it to a target.
//
// Non-string cells pass through unchanged. String cells have their embedded
// sub-expressions evaluated: a value that is a single expression keeps the
// native type of its result, mixed content is concatenated into a string,
// and a user-formula wrapper forces the target type to Formula. A nil
// result forces the target type to Blank.
func (cd *CellData) Evaluate(ctx *Context) (any, CellType, error) {
	if cd.Type != CellString || cd.Value == nil {
		return cd.Value, cd.Type, nil
	}

	strValue, ok := cd.Value.(string)
	if !ok {
		return cd.Value, cd.Type, nil
	}

	text := strValue
	forceFormula := false
	if IsUserFormula(strValue) {
		text = strValue[len(userFormulaPrefix) : len(strValue)-len(userFormulaSuffix)]
		forceFormula = true
	}

	result, targetType, err := cd.evaluateText(text, ctx)
	if err != nil {
		return nil, CellBlank, err
	}

	if forceFormula && result != nil {
		result = fmt.Sprintf("%v", result)
		targetType = CellFormula
	}
	if result == nil {
		targetType = CellBlank
	}
	return result, targetType, nil
}

// evaluateText evaluates the embedded expressions of a string cell value.
func (cd *CellData) evaluateText(text string, ctx *Context) (any, CellType, error) {
	segments := ParseExpressions(text, ctx.notationBegin, ctx.notationEnd)

	exprCount := 0
	for _, seg := range segments {
		if seg.IsExpression {
			exprCount++
		}
	}

	// No expressions: the text is the result, verbatim.
	if exprCount == 0 {
		return text, CellString, nil
	}

	// A single expression spanning the full text keeps the native type
	// of the evaluation result.
	if exprCount == 1 && len(segments) == 1 {
		result, err := ctx.Evaluate(segments[0].Text)
		if err != nil {
			return nil, CellBlank, &EvaluationError{Expression: segments[0].Text, Pos: cd.Pos, Err: err}
		}
		return result, inferCellType(result), nil
	}

	// Mixed content: every expression is replaced in place by its
	// stringified value inside the surrounding literal text.
	var b strings.Builder
	for _, seg := range segments {
		if !seg.IsExpression {
			b.WriteString(seg.Text)
			continue
		}
		val, err := ctx.Evaluate(seg.Text)
		if err != nil {
			return nil, CellBlank, &EvaluationError{Expression: seg.Text, Pos: cd.Pos, Err: err}
		}
		if val != nil {
			fmt.Fprintf(&b, "%v", val)
		}
	}
	return b.String(), CellString, nil
}

// inferCellType determines the target CellType from an evaluation result.
func inferCellType(v any) CellType {
	if v == nil {
		return CellBlank
	}
	switch v.(type) {
	case bool:
		return CellBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return CellNumber
	case time.Time:
		return CellDate
	default:
		return CellString
	}
}

// String formats the cell data for error messages.
func (cd *CellData) String() string {
	return fmt.Sprintf("CellData{%s %s %v}", cd.Pos, cd.Type, cd.Value)
}
