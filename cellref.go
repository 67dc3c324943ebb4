package gridfill

// CellRefGenerator computes the destination position for each iteration of
// an each command, overriding the default cursor placement. When a
// generator is configured the command no longer accumulates sizes along a
// direction; it reports the maximum width and height seen instead.
type CellRefGenerator interface {
	// CellRef returns the anchor for the given emission index.
	CellRef(index int, ctx *Context) (Pos, error)
}

// SheetNameGenerator fans iterations out across a fixed list of sheet
// names: emission index i lands at the same row and column on sheet i.
type SheetNameGenerator struct {
	sheetNames []string
	start      Pos
}

// NewSheetNameGenerator creates a generator over the given sheet names,
// anchored at start's row and column.
func NewSheetNameGenerator(sheetNames []string, start Pos) *SheetNameGenerator {
	return &SheetNameGenerator{sheetNames: sheetNames, start: start}
}

// CellRef returns the anchor on the index-th sheet. An index beyond the
// sheet-name list is a StructuralError.
func (g *SheetNameGenerator) CellRef(index int, _ *Context) (Pos, error) {
	if index < 0 || index >= len(g.sheetNames) {
		return Pos{}, structuralErrorf("sheet name list exhausted: index %d, %d sheet names", index, len(g.sheetNames))
	}
	return NewPos(SafeSheetName(g.sheetNames[index]), g.start.Row, g.start.Col), nil
}
