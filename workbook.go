package gridfill

import "io"

// MergedRegion is a rectangular block of cells presented as a single
// visual cell. Coordinates are 0-based and inclusive.
type MergedRegion struct {
	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int
}

// Anchor returns the top-left position of the region on the given sheet.
func (m MergedRegion) Anchor(sheet string) Pos {
	return NewPos(sheet, m.FirstRow, m.FirstCol)
}

// Translate returns the region shifted by the given row/column delta.
func (m MergedRegion) Translate(rowDelta, colDelta int) MergedRegion {
	return MergedRegion{
		FirstRow: m.FirstRow + rowDelta,
		LastRow:  m.LastRow + rowDelta,
		FirstCol: m.FirstCol + colDelta,
		LastCol:  m.LastCol + colDelta,
	}
}

// Workbook abstracts the physical grid document. The Transformer reads
// template state through it during ingestion and writes every generated
// cell back through it. Implementations are not safe for concurrent use.
type Workbook interface {
	// Sheet inventory
	SheetNames() []string
	HasSheet(name string) bool
	CreateSheet(name string) error
	RemoveSheet(name string) error

	// Template ingestion
	ReadSheet(name string) ([]*CellData, error)
	Comments(sheet string) (map[Pos]string, error)

	// Cell writes
	SetCellValue(pos Pos, cellType CellType, value any) error
	SetCellFormula(pos Pos, formula string) error

	// Row/column sizing (0-based indices)
	RowHeight(sheet string, row int) (float64, error)
	SetRowHeight(sheet string, row int, height float64) error
	ColumnWidth(sheet string, col int) (float64, error)
	SetColumnWidth(sheet string, col int, width float64) error

	// Merged regions
	MergedRegions(sheet string) ([]MergedRegion, error)
	AddMergedRegion(sheet string, region MergedRegion) error

	// Output
	Write(w io.Writer) error
	Close() error
}
