package gridfill

// Context is the scoped variable environment for one generation run.
// It holds caller-supplied data plus loop iteration variables (runVars)
// that shadow data entries of the same name.
type Context struct {
	data          map[string]any
	runVars       map[string]any
	evaluator     ExpressionEvaluator
	notationBegin string
	notationEnd   string

	// Cached merged map for expression evaluation.
	// Invalidated (set to nil) whenever variables change.
	cachedMap map[string]any
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithNotation sets custom expression notation delimiters.
func WithNotation(begin, end string) ContextOption {
	return func(c *Context) {
		c.notationBegin = begin
		c.notationEnd = end
	}
}

// WithEvaluator sets a custom expression evaluator.
func WithEvaluator(ev ExpressionEvaluator) ContextOption {
	return func(c *Context) {
		c.evaluator = ev
	}
}

// NewContext creates a Context with the given data and options.
func NewContext(data map[string]any, opts ...ContextOption) *Context {
	if data == nil {
		data = make(map[string]any)
	}
	c := &Context{
		data:          data,
		runVars:       make(map[string]any),
		evaluator:     NewExpressionEvaluator(),
		notationBegin: "${",
		notationEnd:   "}",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetVar returns a variable value. Checks runVars first, then data.
func (c *Context) GetVar(name string) any {
	if v, ok := c.runVars[name]; ok {
		return v
	}
	return c.data[name]
}

// PutVar sets a variable in the data map.
func (c *Context) PutVar(name string, value any) {
	c.data[name] = value
	c.invalidateCache()
}

// RemoveVar removes a variable from the data map.
func (c *Context) RemoveVar(name string) {
	delete(c.data, name)
	c.invalidateCache()
}

// ContainsVar returns true if the variable exists in either runVars or data.
func (c *Context) ContainsVar(name string) bool {
	if _, ok := c.runVars[name]; ok {
		return true
	}
	_, ok := c.data[name]
	return ok
}

// ToMap returns a merged map of data and runVars. RunVars override data.
// The result is cached and reused until variables are modified.
func (c *Context) ToMap() map[string]any {
	if c.cachedMap != nil {
		return c.cachedMap
	}
	m := make(map[string]any, len(c.data)+len(c.runVars))
	for k, v := range c.data {
		m[k] = v
	}
	for k, v := range c.runVars {
		m[k] = v
	}
	c.cachedMap = m
	return m
}

// invalidateCache clears the cached merged map.
func (c *Context) invalidateCache() {
	c.cachedMap = nil
}

// Evaluate evaluates an expression string against the merged variables.
func (c *Context) Evaluate(expression string) (any, error) {
	return c.evaluator.Evaluate(expression, c.ToMap())
}

// IsConditionTrue evaluates a boolean condition against the merged variables.
func (c *Context) IsConditionTrue(condition string) (bool, error) {
	return c.evaluator.IsConditionTrue(condition, c.ToMap())
}

// setRunVar sets a run variable (loop iteration variable).
func (c *Context) setRunVar(name string, value any) {
	c.runVars[name] = value
	c.invalidateCache()
}

// removeRunVar removes a run variable.
func (c *Context) removeRunVar(name string) {
	delete(c.runVars, name)
	c.invalidateCache()
}

// RunVar manages a scoped loop variable with save/restore of any prior
// binding under the same name, so nested iterations may reuse a variable
// name and restore it exactly on exit.
// Use with defer: rv := NewRunVar(ctx, "e"); defer rv.Close()
type RunVar struct {
	ctx      *Context
	varName  string
	oldValue any
	hadOld   bool
	idxName  string
	oldIdx   any
	hadIdx   bool
}

// NewRunVar creates a RunVar for a single loop variable.
func NewRunVar(ctx *Context, varName string) *RunVar {
	rv := &RunVar{
		ctx:     ctx,
		varName: varName,
	}
	if old, ok := ctx.runVars[varName]; ok {
		rv.oldValue = old
		rv.hadOld = true
	}
	return rv
}

// NewRunVarWithIndex creates a RunVar for a loop variable and its index.
func NewRunVarWithIndex(ctx *Context, varName, idxName string) *RunVar {
	rv := NewRunVar(ctx, varName)
	rv.idxName = idxName
	if old, ok := ctx.runVars[idxName]; ok {
		rv.oldIdx = old
		rv.hadIdx = true
	}
	return rv
}

// Set sets the loop variable value.
func (rv *RunVar) Set(value any) {
	rv.ctx.setRunVar(rv.varName, value)
}

// SetWithIndex sets both the loop variable and its index.
func (rv *RunVar) SetWithIndex(value any, index int) {
	rv.ctx.setRunVar(rv.varName, value)
	if rv.idxName != "" {
		rv.ctx.setRunVar(rv.idxName, index)
	}
}

// Close restores the previous variable values. Designed for use with defer.
func (rv *RunVar) Close() {
	if rv.hadOld {
		rv.ctx.setRunVar(rv.varName, rv.oldValue)
	} else {
		rv.ctx.removeRunVar(rv.varName)
	}
	if rv.idxName != "" {
		if rv.hadIdx {
			rv.ctx.setRunVar(rv.idxName, rv.oldIdx)
		} else {
			rv.ctx.removeRunVar(rv.idxName)
		}
	}
}
