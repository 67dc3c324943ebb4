package gridfill

import "fmt"

// SheetData holds ingested template data for a single sheet.
type SheetData struct {
	Name   string
	Rows   map[int]*RowData
	Merged []MergedRegion
}

// RowData holds ingested template data for a single row.
type RowData struct {
	Cells map[int]*CellData
}

// TransformerOption configures a Transformer.
type TransformerOption func(*Transformer)

// WithCellSizeCopy controls whether the source row height and column width
// are copied onto the destination during transform (default: true).
func WithCellSizeCopy(enabled bool) TransformerOption {
	return func(t *Transformer) {
		t.copySizes = enabled
	}
}

// Transformer owns the ingested template state for one generation run and
// performs the evaluate-and-write step for every cell. It tracks where each
// source cell has been written and remaps merged regions onto destinations.
// Not safe for concurrent use.
type Transformer struct {
	wb        Workbook
	sheets    map[string]*SheetData
	copySizes bool
}

// NewTransformer ingests all template cell data, comments and merged
// regions from the workbook and returns a Transformer ready for use.
func NewTransformer(wb Workbook, opts ...TransformerOption) (*Transformer, error) {
	t := &Transformer{
		wb:        wb,
		sheets:    make(map[string]*SheetData),
		copySizes: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.ingest(); err != nil {
		return nil, err
	}
	return t, nil
}

// ingest reads every sheet's cells, comments and merged regions into memory.
func (t *Transformer) ingest() error {
	for _, name := range t.wb.SheetNames() {
		sd := &SheetData{
			Name: name,
			Rows: make(map[int]*RowData),
		}

		cells, err := t.wb.ReadSheet(name)
		if err != nil {
			return fmt.Errorf("ingest sheet %q: %w", name, err)
		}
		for _, cd := range cells {
			sd.putCell(cd)
		}

		comments, err := t.wb.Comments(name)
		if err != nil {
			return fmt.Errorf("ingest comments of sheet %q: %w", name, err)
		}
		for pos, text := range comments {
			cd := sd.cell(pos.Row, pos.Col)
			if cd == nil {
				cd = NewCellData(pos, nil, CellBlank)
				sd.putCell(cd)
			}
			cd.Comment = text
		}

		merged, err := t.wb.MergedRegions(name)
		if err != nil {
			return fmt.Errorf("ingest merged regions of sheet %q: %w", name, err)
		}
		sd.Merged = merged

		t.sheets[name] = sd
	}
	return nil
}

func (sd *SheetData) putCell(cd *CellData) {
	rd, ok := sd.Rows[cd.Pos.Row]
	if !ok {
		rd = &RowData{Cells: make(map[int]*CellData)}
		sd.Rows[cd.Pos.Row] = rd
	}
	rd.Cells[cd.Pos.Col] = cd
}

func (sd *SheetData) cell(row, col int) *CellData {
	rd, ok := sd.Rows[row]
	if !ok {
		return nil
	}
	return rd.Cells[col]
}

// Workbook returns the underlying workbook.
func (t *Transformer) Workbook() Workbook {
	return t.wb
}

// GetCellData returns the ingested cell data at a source position, or nil.
func (t *Transformer) GetCellData(pos Pos) *CellData {
	sd, ok := t.sheets[pos.Sheet]
	if !ok {
		return nil
	}
	return sd.cell(pos.Row, pos.Col)
}

// CommentedCells returns every ingested cell carrying a comment.
func (t *Transformer) CommentedCells() []*CellData {
	var result []*CellData
	for _, sd := range t.sheets {
		for _, rd := range sd.Rows {
			for _, cd := range rd.Cells {
				if cd.Comment != "" {
					result = append(result, cd)
				}
			}
		}
	}
	return result
}

// FormulaCells returns every ingested cell whose type is Formula or whose
// raw value is user-formula-wrapped. Together with the target histories this
// is the input to a downstream formula-reference fixup pass, which cannot
// run until all insertions for the run are known.
func (t *Transformer) FormulaCells() []*CellData {
	var result []*CellData
	for _, sd := range t.sheets {
		for _, rd := range sd.Rows {
			for _, cd := range rd.Cells {
				if cd.IsFormulaCell() {
					result = append(result, cd)
				}
			}
		}
	}
	return result
}

// Transform evaluates the cell at src against the context and writes the
// result to target, creating the destination sheet on demand. It appends
// target to the source cell's destination history, copies the source row
// height and column width (unless disabled), and recreates any merged
// region anchored at src, translated by the anchor delta.
func (t *Transformer) Transform(src, target Pos, ctx *Context) error {
	cd := t.GetCellData(src)
	if cd == nil {
		return nil // nothing to transform
	}

	result, targetType, err := cd.Evaluate(ctx)
	if err != nil {
		return err
	}

	if target.Sheet == "" {
		target.Sheet = src.Sheet
	}
	if err := t.ensureSheet(target.Sheet); err != nil {
		return err
	}

	// Content write. Never best-effort: a failure aborts the transform.
	switch {
	case targetType == CellFormula:
		text := cd.Formula
		if cd.Type == CellString {
			// User formula: the substituted text is the formula.
			text = fmt.Sprintf("%v", result)
		}
		if err := t.wb.SetCellFormula(target, text); err != nil {
			return fmt.Errorf("write formula to %s: %w", target, err)
		}
	default:
		if err := t.wb.SetCellValue(target, targetType, result); err != nil {
			return fmt.Errorf("write cell %s: %w", target, err)
		}
	}

	cd.AddTargetPos(target)

	// Row/column sizing is cosmetic: failures are skipped, the content
	// write above has already succeeded.
	if t.copySizes {
		t.copyCellSizes(src, target)
	}

	return t.remapMergedRegion(src, target)
}

// ensureSheet creates the destination sheet if it does not exist yet.
func (t *Transformer) ensureSheet(name string) error {
	if t.wb.HasSheet(name) {
		return nil
	}
	if err := t.wb.CreateSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	return nil
}

// copyCellSizes copies the source row height and column width onto the
// destination. Safe to repeat; errors are ignored.
func (t *Transformer) copyCellSizes(src, target Pos) {
	if h, err := t.wb.RowHeight(src.Sheet, src.Row); err == nil && h > 0 {
		_ = t.wb.SetRowHeight(target.Sheet, target.Row, h)
	}
	if w, err := t.wb.ColumnWidth(src.Sheet, src.Col); err == nil && w > 0 {
		_ = t.wb.SetColumnWidth(target.Sheet, target.Col, w)
	}
}

// remapMergedRegion recreates a merged region anchored at src at the
// destination, with identical span, translated by (target − src).
func (t *Transformer) remapMergedRegion(src, target Pos) error {
	sd, ok := t.sheets[src.Sheet]
	if !ok {
		return nil
	}
	for _, region := range sd.Merged {
		if region.FirstRow != src.Row || region.FirstCol != src.Col {
			continue
		}
		translated := region.Translate(target.Row-src.Row, target.Col-src.Col)
		if translated == region && target.Sheet == src.Sheet {
			continue // writing in place, region already present
		}
		if err := t.wb.AddMergedRegion(target.Sheet, translated); err != nil {
			return fmt.Errorf("merge region at %s: %w", target, err)
		}
	}
	return nil
}

// SetFormula writes a formula directly, bypassing expression evaluation.
func (t *Transformer) SetFormula(pos Pos, formula string) error {
	if err := t.ensureSheet(pos.Sheet); err != nil {
		return err
	}
	return t.wb.SetCellFormula(pos, formula)
}

// ClearCell blanks a template cell in the output grid. The ingested cell
// data is untouched, so the cell can still be transformed afterwards.
func (t *Transformer) ClearCell(pos Pos) error {
	return t.wb.SetCellValue(pos, CellString, "")
}

// TargetPositions returns the recorded destination history of a source
// cell, in call order.
func (t *Transformer) TargetPositions(src Pos) []Pos {
	cd := t.GetCellData(src)
	if cd == nil {
		return nil
	}
	return cd.TargetPositions()
}

// ResetTargetPositions clears all recorded destination histories without
// altering already-written grid content. Used to discard bookkeeping from a
// dry-run sizing pass before a final pass.
func (t *Transformer) ResetTargetPositions() {
	for _, sd := range t.sheets {
		for _, rd := range sd.Rows {
			for _, cd := range rd.Cells {
				cd.ResetTargetPositions()
			}
		}
	}
}
