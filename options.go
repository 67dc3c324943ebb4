package gridfill

// Options holds configuration for the Engine.
type Options struct {
	notationBegin      string
	notationEnd        string
	evaluator          ExpressionEvaluator
	customCommands     map[string]CommandFactory
	clearTemplateCells bool
}

func defaultOptions() *Options {
	return &Options{
		notationBegin:      "${",
		notationEnd:        "}",
		clearTemplateCells: true,
	}
}

// Option configures the Engine.
type Option func(*Options)

// WithExpressionNotation sets the expression delimiters (default: "${", "}").
func WithExpressionNotation(begin, end string) Option {
	return func(o *Options) {
		o.notationBegin = begin
		o.notationEnd = end
	}
}

// WithExpressionEvaluator sets a custom expression evaluator for contexts
// created by the engine.
func WithExpressionEvaluator(ev ExpressionEvaluator) Option {
	return func(o *Options) { o.evaluator = ev }
}

// WithCommand registers a custom command factory under the given markup name.
func WithCommand(name string, factory CommandFactory) Option {
	return func(o *Options) {
		if o.customCommands == nil {
			o.customCommands = make(map[string]CommandFactory)
		}
		o.customCommands[name] = factory
	}
}

// WithClearTemplateCells controls whether template cells are blanked before
// expansion so that unexpanded markup does not leak into the output
// (default: true).
func WithClearTemplateCells(clear bool) Option {
	return func(o *Options) { o.clearTemplateCells = clear }
}
