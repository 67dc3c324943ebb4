package gridfill

import (
	"fmt"
	"reflect"
	"strings"
)

// Direction controls how an each command lays out its iterations.
type Direction string

const (
	DirectionDown  Direction = "DOWN"
	DirectionRight Direction = "RIGHT"
)

// ParseDirection parses a direction literal. An unknown literal is a
// ConfigurationError.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(DirectionDown):
		return DirectionDown, nil
	case string(DirectionRight):
		return DirectionRight, nil
	default:
		return "", configErrorf("invalid direction %q (want DOWN or RIGHT)", s)
	}
}

// groupVarName is the reserved loop variable name bound to GroupData
// buckets when grouping is active and no explicit var is configured.
const groupVarName = "_group"

// EachCommand repeats its body area once per element of a collection.
type EachCommand struct {
	Items      string           // expression yielding the collection
	Collection any              // literal collection, used when Items is empty
	Var        string           // loop variable name
	VarIndex   string           // optional index variable name
	Direction  Direction        // DOWN (default) or RIGHT
	Select     string           // optional boolean filter expression
	GroupBy    string           // optional grouping key expression
	GroupOrder string           // "ASC" or "DESC" bucket ordering by key
	MultiSheet string           // context variable naming the output sheets
	Generator  CellRefGenerator // optional placement override

	area *Area
}

// NewEachCommand creates an each command iterating the named collection
// with the given loop variable and direction.
func NewEachCommand(varName, items string, direction Direction) *EachCommand {
	if direction == "" {
		direction = DirectionDown
	}
	return &EachCommand{Items: items, Var: varName, Direction: direction}
}

func (c *EachCommand) Name() string { return "each" }

// AddArea attaches the single body area. A second call is a
// ConfigurationError.
func (c *EachCommand) AddArea(area *Area) error {
	if c.area != nil {
		return configErrorf("each command accepts only a single body area")
	}
	c.area = area
	return nil
}

// Area returns the attached body area.
func (c *EachCommand) Area() *Area { return c.area }

// newEachCommandFromAttrs creates an EachCommand from parsed markup
// attributes.
func newEachCommandFromAttrs(attrs map[string]string) (Command, error) {
	direction, err := ParseDirection(attrs["direction"])
	if err != nil {
		return nil, err
	}
	cmd := &EachCommand{
		Items:      attrs["items"],
		Var:        attrs["var"],
		VarIndex:   attrs["varIndex"],
		Direction:  direction,
		Select:     attrs["select"],
		GroupBy:    attrs["groupBy"],
		GroupOrder: attrs["groupOrder"],
		MultiSheet: attrs["multisheet"],
	}
	if cmd.Items == "" {
		return nil, configErrorf("each command requires 'items' attribute")
	}
	if cmd.Var == "" && cmd.GroupBy == "" {
		return nil, configErrorf("each command requires 'var' attribute")
	}
	return cmd, nil
}

// ApplyAt resolves the collection, optionally groups it, and expands the
// body area once per surviving element. Without a generator the cursor
// walks DOWN or RIGHT and the aggregate size accumulates along that
// direction; with a generator the generator owns placement and the
// aggregate is the maximum width and height seen.
func (c *EachCommand) ApplyAt(anchor Pos, ctx *Context, t *Transformer) (Size, error) {
	if c.area == nil {
		return ZeroSize, configErrorf("each command has no body area")
	}

	items, err := c.resolveItems(ctx)
	if err != nil {
		return ZeroSize, err
	}

	varName := c.Var
	if c.GroupBy != "" {
		if varName == "" {
			varName = groupVarName
		}
		groups, err := GroupCollection(ctx, items, c.GroupBy, varName, c.GroupOrder)
		if err != nil {
			return ZeroSize, err
		}
		items = make([]any, len(groups))
		for i, g := range groups {
			items[i] = g
		}
	}

	gen := c.Generator
	if gen == nil && c.MultiSheet != "" {
		gen, err = c.sheetGenerator(anchor, ctx)
		if err != nil {
			return ZeroSize, err
		}
	}

	cursor := anchor
	total := ZeroSize
	index := 0 // emission index: select-skipped elements do not advance it

	for _, item := range items {
		var rv *RunVar
		if c.VarIndex != "" {
			rv = NewRunVarWithIndex(ctx, varName, c.VarIndex)
			rv.SetWithIndex(item, index)
		} else {
			rv = NewRunVar(ctx, varName)
			rv.Set(item)
		}

		if c.Select != "" {
			ok, serr := ctx.IsConditionTrue(c.Select)
			if serr != nil {
				rv.Close()
				return ZeroSize, &EvaluationError{Expression: c.Select, Err: serr}
			}
			if !ok {
				rv.Close()
				continue
			}
		}

		target := cursor
		if gen != nil {
			target, err = gen.CellRef(index, ctx)
			if err != nil {
				rv.Close()
				return ZeroSize, err
			}
		}

		size, err := c.area.ApplyAt(target, ctx)
		rv.Close()
		if err != nil {
			return ZeroSize, fmt.Errorf("each iteration %d: %w", index, err)
		}
		index++

		switch {
		case gen != nil:
			if size.Width > total.Width {
				total.Width = size.Width
			}
			if size.Height > total.Height {
				total.Height = size.Height
			}
		case c.Direction == DirectionRight:
			cursor = NewPos(cursor.Sheet, cursor.Row, cursor.Col+size.Width)
			total.Width += size.Width
			if size.Height > total.Height {
				total.Height = size.Height
			}
		default: // DOWN
			cursor = NewPos(cursor.Sheet, cursor.Row+size.Height, cursor.Col)
			total.Height += size.Height
			if size.Width > total.Width {
				total.Width = size.Width
			}
		}
	}

	return total, nil
}

// resolveItems evaluates the items expression (or takes the literal
// collection) and normalizes it to an ordered slice.
func (c *EachCommand) resolveItems(ctx *Context) ([]any, error) {
	val := c.Collection
	if c.Items != "" {
		var err error
		val, err = ctx.Evaluate(c.Items)
		if err != nil {
			return nil, &EvaluationError{Expression: c.Items, Err: err}
		}
	}
	return toSlice(val), nil
}

// sheetGenerator builds the sheet-fan-out generator from the context
// variable named by MultiSheet.
func (c *EachCommand) sheetGenerator(anchor Pos, ctx *Context) (CellRefGenerator, error) {
	if !ctx.ContainsVar(c.MultiSheet) {
		return nil, &LookupError{Name: c.MultiSheet, Msg: "sheet name list not found"}
	}
	names, err := toStringSlice(ctx.GetVar(c.MultiSheet))
	if err != nil {
		return nil, &LookupError{Name: c.MultiSheet, Msg: err.Error()}
	}
	return NewSheetNameGenerator(names, anchor), nil
}

// toSlice normalizes a value to an ordered collection: nil becomes empty,
// slices and arrays keep their elements, anything else becomes a
// single-element collection.
func toSlice(val any) []any {
	if val == nil {
		return nil
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			result[i] = v.Index(i).Interface()
		}
		return result
	default:
		return []any{val}
	}
}

// toStringSlice converts a collection value to []string.
func toStringSlice(val any) ([]string, error) {
	if val == nil {
		return nil, fmt.Errorf("value is nil")
	}
	v := reflect.ValueOf(val)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("value is %T, want a string slice", val)
	}
	result := make([]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		result[i] = fmt.Sprintf("%v", v.Index(i).Interface())
	}
	return result, nil
}
