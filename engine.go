package gridfill

import (
	"fmt"
	"sort"
)

// Engine builds the Area/Command tree from cell-comment markup and drives
// template expansion.
type Engine struct {
	opts     *Options
	registry *CommandRegistry
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	reg := NewCommandRegistry()
	for name, factory := range o.customCommands {
		reg.Register(name, factory)
	}
	return &Engine{opts: o, registry: reg}
}

// NewContext creates a Context configured with the engine's notation and
// evaluator.
func (e *Engine) NewContext(data map[string]any) *Context {
	ctxOpts := []ContextOption{WithNotation(e.opts.notationBegin, e.opts.notationEnd)}
	if e.opts.evaluator != nil {
		ctxOpts = append(ctxOpts, WithEvaluator(e.opts.evaluator))
	}
	return NewContext(data, ctxOpts...)
}

// Render builds the area tree from the ingested template and expands every
// root area in place against the given data.
func (e *Engine) Render(t *Transformer, data map[string]any) error {
	areas, err := e.BuildAreas(t)
	if err != nil {
		return err
	}

	if e.opts.clearTemplateCells {
		for _, area := range areas {
			area.ClearCells()
		}
	}

	ctx := e.NewContext(data)
	for _, area := range areas {
		if _, err := area.ApplyAt(area.Start, ctx); err != nil {
			return err
		}
	}
	return nil
}

// BuildAreas parses all commented cells and builds the Area/Command
// hierarchy: gx:area commands become root areas, other commands nest into
// the tightest strictly-larger region containing them.
func (e *Engine) BuildAreas(t *Transformer) ([]*Area, error) {
	commented := t.CommentedCells()
	if len(commented) == 0 {
		return nil, configErrorf("no commented cells found in template")
	}

	type parsedCell struct {
		cellData *CellData
		commands []ParsedCommand
	}

	var parsed []parsedCell
	for _, cd := range commented {
		cmds, err := ParseComment(cd.Comment, cd.Pos)
		if err != nil {
			return nil, err
		}
		if len(cmds) > 0 {
			parsed = append(parsed, parsedCell{cellData: cd, commands: cmds})
		}
	}

	// Root areas come from gx:area commands.
	var rootAreas []*Area
	for _, p := range parsed {
		for _, cmd := range p.commands {
			if cmd.Name != "area" {
				continue
			}
			start := p.cellData.Pos
			size := regionSize(start, cmd.LastCell)
			rootAreas = append(rootAreas, NewArea(start, size, t))
		}
	}
	if len(rootAreas) == 0 {
		return nil, configErrorf("no gx:area commands found in template")
	}

	// Instantiate all non-area commands with their inner areas.
	type commandInfo struct {
		command Command
		start   Pos
		size    Size
	}
	var allCommands []commandInfo

	for _, p := range parsed {
		for _, cmd := range p.commands {
			if cmd.Name == "area" {
				continue
			}

			command, err := e.registry.Create(cmd.Name, cmd.Attrs)
			if err != nil {
				return nil, fmt.Errorf("create command %q at %s: %w", cmd.Name, p.cellData.Pos, err)
			}
			if command == nil {
				continue // unknown command, silently ignored
			}

			start := p.cellData.Pos
			size := regionSize(start, cmd.LastCell)
			if err := command.AddArea(NewArea(start, size, t)); err != nil {
				return nil, err
			}

			// The if command's optional else area comes from areas=[...].
			if ifCmd, ok := command.(*IfCommand); ok && len(cmd.Areas) >= 2 {
				elseRef := cmd.Areas[1]
				ifCmd.SetElseArea(NewArea(elseRef.First, elseRef.Size(), t))
			}

			allCommands = append(allCommands, commandInfo{command: command, start: start, size: size})
		}
	}

	// Largest regions first, so parents are considered before children.
	sort.Slice(allCommands, func(i, j int) bool {
		return allCommands[i].size.Width*allCommands[i].size.Height >
			allCommands[j].size.Width*allCommands[j].size.Height
	})

	// Nest each command into the smallest strictly-larger command region
	// containing it, or into a root area when no command contains it.
	for i, ci := range allCommands {
		ciArea := ci.size.Width * ci.size.Height

		bestParent := -1
		bestParentSize := -1
		for j, cj := range allCommands {
			if i == j {
				continue
			}
			cjArea := cj.size.Width * cj.size.Height
			if cjArea <= ciArea {
				continue
			}
			parentArea := commandArea(cj.command)
			if parentArea == nil || !parentArea.Contains(ci.start) {
				continue
			}
			if bestParent == -1 || cjArea < bestParentSize {
				bestParent = j
				bestParentSize = cjArea
			}
		}

		if bestParent >= 0 {
			if err := commandArea(allCommands[bestParent].command).AddCommand(ci.command, ci.start, ci.size); err != nil {
				return nil, err
			}
			continue
		}
		for _, rootArea := range rootAreas {
			if rootArea.Contains(ci.start) {
				if err := rootArea.AddCommand(ci.command, ci.start, ci.size); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	// Deterministic row/column processing order.
	sortBindings(rootAreas)
	for _, ci := range allCommands {
		if area := commandArea(ci.command); area != nil && len(area.Bindings) > 0 {
			sortBindings([]*Area{area})
		}
	}

	return rootAreas, nil
}

// commandArea returns the body area of a built-in command, or nil.
func commandArea(cmd Command) *Area {
	switch c := cmd.(type) {
	case *EachCommand:
		return c.Area()
	case *IfCommand:
		return c.ifArea
	}
	return nil
}

// sortBindings orders each area's bindings by row then column.
func sortBindings(areas []*Area) {
	for _, area := range areas {
		sort.Slice(area.Bindings, func(i, j int) bool {
			bi, bj := area.Bindings[i], area.Bindings[j]
			if bi.Start.Row != bj.Start.Row {
				return bi.Start.Row < bj.Start.Row
			}
			return bi.Start.Col < bj.Start.Col
		})
	}
}

// regionSize computes the inclusive size between a start cell and lastCell.
func regionSize(start, lastCell Pos) Size {
	return Size{
		Width:  lastCell.Col - start.Col + 1,
		Height: lastCell.Row - start.Row + 1,
	}
}
