package gridfill

// IfCommand renders one of two areas depending on a boolean condition.
type IfCommand struct {
	Condition string
	ifArea    *Area
	elseArea  *Area
}

// NewIfCommand creates an if command with the given condition expression.
func NewIfCommand(condition string) *IfCommand {
	return &IfCommand{Condition: condition}
}

func (c *IfCommand) Name() string { return "if" }

// AddArea attaches the if-branch area. A second call is a
// ConfigurationError; use SetElseArea for the else branch.
func (c *IfCommand) AddArea(area *Area) error {
	if c.ifArea != nil {
		return configErrorf("if command accepts only a single if area")
	}
	c.ifArea = area
	return nil
}

// SetElseArea attaches the optional else-branch area.
func (c *IfCommand) SetElseArea(area *Area) {
	c.elseArea = area
}

// newIfCommandFromAttrs creates an IfCommand from parsed markup attributes.
func newIfCommandFromAttrs(attrs map[string]string) (Command, error) {
	cmd := &IfCommand{Condition: attrs["condition"]}
	if cmd.Condition == "" {
		return nil, configErrorf("if command requires 'condition' attribute")
	}
	return cmd, nil
}

// ApplyAt evaluates the condition and expands the matching branch. A
// missing branch emits nothing.
func (c *IfCommand) ApplyAt(anchor Pos, ctx *Context, t *Transformer) (Size, error) {
	result, err := ctx.IsConditionTrue(c.Condition)
	if err != nil {
		return ZeroSize, &EvaluationError{Expression: c.Condition, Err: err}
	}

	if result {
		if c.ifArea != nil {
			return c.ifArea.ApplyAt(anchor, ctx)
		}
	} else if c.elseArea != nil {
		return c.elseArea.ApplyAt(anchor, ctx)
	}
	return ZeroSize, nil
}
