package gridfill

import "fmt"

// ConfigurationError reports invalid command or engine configuration, such as
// an unknown direction literal or a second body area added to a single-area
// command. It is detected before any cell is written.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "gridfill: " + e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// EvaluationError reports an expression failure during cell or attribute
// evaluation. It carries the offending expression text and, when known, the
// source position of the faulting template cell.
type EvaluationError struct {
	Expression string
	Pos        Pos
	Err        error
}

func (e *EvaluationError) Error() string {
	if e.Pos != (Pos{}) {
		return fmt.Sprintf("gridfill: evaluate %q at %s: %v", e.Expression, e.Pos, e.Err)
	}
	return fmt.Sprintf("gridfill: evaluate %q: %v", e.Expression, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// LookupError reports a missing or wrong-typed context variable, such as an
// absent sheet-name list for a multisheet iteration.
type LookupError struct {
	Name string
	Msg  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("gridfill: variable %q: %s", e.Name, e.Msg)
}

// StructuralError reports an inconsistency in the template structure or its
// expansion: overlapping command regions inside an area, a cell reference
// generator asked for an index beyond its domain, or group keys that cannot
// be ordered.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "gridfill: " + e.Msg
}

func structuralErrorf(format string, args ...any) error {
	return &StructuralError{Msg: fmt.Sprintf(format, args...)}
}
