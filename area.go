package gridfill

import (
	"fmt"
	"sort"
)

// CommandBinding binds a Command to the sub-rectangle it occupies within a
// parent area.
type CommandBinding struct {
	Command Command
	Start   Pos  // start cell of this command's region (absolute)
	Size    Size // static footprint of the command's region
}

// Area is a rectangular source region owning static cells plus an ordered
// list of non-overlapping command sub-regions. An Area itself is stateless
// and may be expanded many times.
type Area struct {
	Start       Pos
	AreaSize    Size
	Bindings    []*CommandBinding
	Transformer *Transformer
}

// NewArea creates an Area anchored at start with the given size.
func NewArea(start Pos, size Size, t *Transformer) *Area {
	return &Area{
		Start:       start,
		AreaSize:    size,
		Transformer: t,
	}
}

// AddCommand registers a command over a sub-rectangle of this area. The
// sub-rectangle must lie within the area's bounds and must not overlap any
// previously registered command region.
func (a *Area) AddCommand(cmd Command, start Pos, size Size) error {
	endRow := start.Row + size.Height - 1
	endCol := start.Col + size.Width - 1
	if !a.Contains(start) || endRow >= a.Start.Row+a.AreaSize.Height || endCol >= a.Start.Col+a.AreaSize.Width {
		return structuralErrorf("command %q region %s%s extends beyond area %s%s",
			cmd.Name(), start, size, a.Start, a.AreaSize)
	}
	for _, b := range a.Bindings {
		if regionsOverlap(b.Start, b.Size, start, size) {
			return structuralErrorf("command %q region %s%s overlaps command %q region %s%s",
				cmd.Name(), start, size, b.Command.Name(), b.Start, b.Size)
		}
	}
	a.Bindings = append(a.Bindings, &CommandBinding{
		Command: cmd,
		Start:   start,
		Size:    size,
	})
	return nil
}

// regionsOverlap reports whether two rectangles share at least one cell.
func regionsOverlap(aStart Pos, aSize Size, bStart Pos, bSize Size) bool {
	if aStart.Sheet != bStart.Sheet {
		return false
	}
	return aStart.Row < bStart.Row+bSize.Height &&
		bStart.Row < aStart.Row+aSize.Height &&
		aStart.Col < bStart.Col+bSize.Width &&
		bStart.Col < aStart.Col+aSize.Width
}

// Contains returns true if the given position lies within this area.
func (a *Area) Contains(pos Pos) bool {
	if pos.Sheet != a.Start.Sheet {
		return false
	}
	return pos.Row >= a.Start.Row &&
		pos.Row < a.Start.Row+a.AreaSize.Height &&
		pos.Col >= a.Start.Col &&
		pos.Col < a.Start.Col+a.AreaSize.Width
}

// ApplyAt expands this area at the given target position: static cells are
// transformed directly, commands are executed at their translated anchors,
// and everything positioned after a command that grew is shifted by the
// excess height. Returns the bounding box of everything emitted.
func (a *Area) ApplyAt(target Pos, ctx *Context) (Size, error) {
	if a.Transformer == nil {
		return ZeroSize, configErrorf("area %s has no transformer", a.Start)
	}

	if len(a.Bindings) == 0 {
		return a.transformStatic(target, ctx)
	}
	return a.applyWithCommands(target, ctx)
}

// transformStatic transforms every cell of the area without any command
// processing.
func (a *Area) transformStatic(target Pos, ctx *Context) (Size, error) {
	for row := 0; row < a.AreaSize.Height; row++ {
		for col := 0; col < a.AreaSize.Width; col++ {
			src := NewPos(a.Start.Sheet, a.Start.Row+row, a.Start.Col+col)
			dst := NewPos(target.Sheet, target.Row+row, target.Col+col)
			if err := a.Transformer.Transform(src, dst, ctx); err != nil {
				return ZeroSize, fmt.Errorf("transform cell %s → %s: %w", src, dst, err)
			}
		}
	}
	return a.AreaSize, nil
}

// applyWithCommands walks the area in row-major order: static row bands
// between commands, then each command band. Commands whose source row
// ranges overlap share one band and run side by side at their own column
// offsets. The target row accumulator is the explicit position delta that
// shifts later bands when an earlier command grows or shrinks.
func (a *Area) applyWithCommands(target Pos, ctx *Context) (Size, error) {
	totalHeight := 0
	maxWidth := a.AreaSize.Width
	targetRow := target.Row

	srcRow := a.Start.Row // source traversal cursor

	for _, band := range a.commandBands() {
		bandRow := band[0].Start.Row
		bandEnd := bandRow
		for _, b := range band {
			if end := b.Start.Row + b.Size.Height; end > bandEnd {
				bandEnd = end
			}
		}
		bandHeight := bandEnd - bandRow

		// Static rows between the previous band and this one.
		staticRows := bandRow - srcRow
		if staticRows > 0 {
			if err := a.transformRows(srcRow, staticRows, target.Sheet, targetRow, target.Col, ctx, nil); err != nil {
				return ZeroSize, err
			}
			targetRow += staticRows
			totalHeight += staticRows
		}

		// Static cells inside the band rows but outside every command region.
		if err := a.transformRows(bandRow, bandHeight, target.Sheet, targetRow, target.Col, ctx, band); err != nil {
			return ZeroSize, err
		}

		rowsConsumed := 0
		for _, b := range band {
			relRow := b.Start.Row - bandRow
			cmdColStart := b.Start.Col - a.Start.Col
			cmdTarget := NewPos(target.Sheet, targetRow+relRow, target.Col+cmdColStart)
			cmdSize, err := b.Command.ApplyAt(cmdTarget, ctx, a.Transformer)
			if err != nil {
				return ZeroSize, fmt.Errorf("command %s at %s: %w", b.Command.Name(), cmdTarget, err)
			}
			if relRow+cmdSize.Height > rowsConsumed {
				rowsConsumed = relRow + cmdSize.Height
			}
			if cmdSize.Width+cmdColStart > maxWidth {
				maxWidth = cmdSize.Width + cmdColStart
			}
		}

		// A band fully covered by its commands may contract; a band that
		// carries static cells keeps at least its static footprint since
		// those cells were emitted alongside the commands.
		if rowsConsumed < bandHeight && a.bandHasStaticCells(band, bandRow, bandHeight) {
			rowsConsumed = bandHeight
		}
		targetRow += rowsConsumed
		totalHeight += rowsConsumed

		srcRow = bandEnd
	}

	// Static rows after the last command.
	remaining := (a.Start.Row + a.AreaSize.Height) - srcRow
	if remaining > 0 {
		if err := a.transformRows(srcRow, remaining, target.Sheet, targetRow, target.Col, ctx, nil); err != nil {
			return ZeroSize, err
		}
		totalHeight += remaining
	}

	return Size{Width: maxWidth, Height: totalHeight}, nil
}

// commandBands groups the area's bindings into row bands: bindings whose
// source row ranges overlap (transitively) share a band. Bands are ordered
// top to bottom, bindings within a band left to right.
func (a *Area) commandBands() [][]*CommandBinding {
	bindings := make([]*CommandBinding, len(a.Bindings))
	copy(bindings, a.Bindings)
	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Start.Row != bindings[j].Start.Row {
			return bindings[i].Start.Row < bindings[j].Start.Row
		}
		return bindings[i].Start.Col < bindings[j].Start.Col
	})

	var bands [][]*CommandBinding
	bandEnd := 0
	for _, b := range bindings {
		if len(bands) == 0 || b.Start.Row >= bandEnd {
			bands = append(bands, []*CommandBinding{b})
			bandEnd = b.Start.Row + b.Size.Height
			continue
		}
		last := len(bands) - 1
		bands[last] = append(bands[last], b)
		if end := b.Start.Row + b.Size.Height; end > bandEnd {
			bandEnd = end
		}
	}
	return bands
}

// bandCovers reports whether any binding of the band occupies the given
// absolute source cell.
func bandCovers(band []*CommandBinding, row, col int) bool {
	for _, b := range band {
		if row >= b.Start.Row && row < b.Start.Row+b.Size.Height &&
			col >= b.Start.Col && col < b.Start.Col+b.Size.Width {
			return true
		}
	}
	return false
}

// bandHasStaticCells reports whether the band rows contain at least one
// cell outside every command region.
func (a *Area) bandHasStaticCells(band []*CommandBinding, bandRow, bandHeight int) bool {
	for row := bandRow; row < bandRow+bandHeight; row++ {
		for col := a.Start.Col; col < a.Start.Col+a.AreaSize.Width; col++ {
			if !bandCovers(band, row, col) {
				return true
			}
		}
	}
	return false
}

// transformRows transforms a band of rows from source to target, skipping
// cells occupied by the given command bindings.
func (a *Area) transformRows(srcStartRow, rowCount int, targetSheet string, targetStartRow, targetStartCol int, ctx *Context, exclude []*CommandBinding) error {
	for row := 0; row < rowCount; row++ {
		for col := 0; col < a.AreaSize.Width; col++ {
			if bandCovers(exclude, srcStartRow+row, a.Start.Col+col) {
				continue
			}
			src := NewPos(a.Start.Sheet, srcStartRow+row, a.Start.Col+col)
			dst := NewPos(targetSheet, targetStartRow+row, targetStartCol+col)
			if err := a.Transformer.Transform(src, dst, ctx); err != nil {
				return fmt.Errorf("transform cell %s → %s: %w", src, dst, err)
			}
		}
	}
	return nil
}

// ClearCells blanks every template cell of this area in the output grid.
func (a *Area) ClearCells() {
	if a.Transformer == nil {
		return
	}
	for row := 0; row < a.AreaSize.Height; row++ {
		for col := 0; col < a.AreaSize.Width; col++ {
			pos := NewPos(a.Start.Sheet, a.Start.Row+row, a.Start.Col+col)
			_ = a.Transformer.ClearCell(pos)
		}
	}
}
