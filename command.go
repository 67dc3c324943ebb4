package gridfill

// Command is a named strategy that expands template content at an anchor
// position and reports the space it occupied.
type Command interface {
	// Name returns the command identifier (e.g. "each").
	Name() string
	// ApplyAt expands the command at the given anchor and returns the
	// emitted size.
	ApplyAt(anchor Pos, ctx *Context, t *Transformer) (Size, error)
	// AddArea attaches a body area. Single-area commands report a
	// ConfigurationError on a second call.
	AddArea(area *Area) error
}

// CommandFactory creates a Command from parsed markup attributes.
type CommandFactory func(attrs map[string]string) (Command, error)

// CommandRegistry maps command names to their factories.
type CommandRegistry struct {
	factories map[string]CommandFactory
}

// NewCommandRegistry creates a registry with the built-in commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{
		factories: make(map[string]CommandFactory),
	}
	r.Register("each", newEachCommandFromAttrs)
	r.Register("if", newIfCommandFromAttrs)
	return r
}

// Register adds a command factory.
func (r *CommandRegistry) Register(name string, factory CommandFactory) {
	r.factories[name] = factory
}

// Create creates a Command by name. Unknown commands yield (nil, nil) and
// are ignored by the caller.
func (r *CommandRegistry) Create(name string, attrs map[string]string) (Command, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, nil
	}
	return factory(attrs)
}
