package gridfill

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExcelizeWorkbook implements Workbook on top of an excelize file.
type ExcelizeWorkbook struct {
	file *excelize.File
}

// NewExcelizeWorkbook wraps an open excelize file.
func NewExcelizeWorkbook(f *excelize.File) *ExcelizeWorkbook {
	return &ExcelizeWorkbook{file: f}
}

// OpenWorkbook opens an xlsx file as a Workbook.
func OpenWorkbook(path string) (*ExcelizeWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return NewExcelizeWorkbook(f), nil
}

// File returns the underlying excelize file for advanced operations.
func (wb *ExcelizeWorkbook) File() *excelize.File {
	return wb.file
}

// SheetNames returns all sheet names.
func (wb *ExcelizeWorkbook) SheetNames() []string {
	return wb.file.GetSheetList()
}

// HasSheet returns true if the workbook contains the named sheet.
func (wb *ExcelizeWorkbook) HasSheet(name string) bool {
	idx, err := wb.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// CreateSheet adds a new empty sheet.
func (wb *ExcelizeWorkbook) CreateSheet(name string) error {
	_, err := wb.file.NewSheet(name)
	return err
}

// RemoveSheet deletes a sheet from the workbook.
func (wb *ExcelizeWorkbook) RemoveSheet(name string) error {
	return wb.file.DeleteSheet(name)
}

// ReadSheet reads every cell of a sheet into CellData, resolving types and
// formulas.
func (wb *ExcelizeWorkbook) ReadSheet(name string) ([]*CellData, error) {
	rows, err := wb.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
	}

	var cells []*CellData
	for rowIdx, row := range rows {
		for colIdx, cellVal := range row {
			pos := NewPos(name, rowIdx, colIdx)
			cellName := pos.CellName()

			formula, err := wb.file.GetCellFormula(name, cellName)
			if err == nil && formula != "" {
				cd := NewCellData(pos, cellVal, CellFormula)
				cd.Formula = formula
				cells = append(cells, cd)
				continue
			}

			value, cellType := wb.resolveCellValue(name, cellName, cellVal)
			cells = append(cells, NewCellData(pos, value, cellType))
		}
	}
	return cells, nil
}

// resolveCellValue maps an excelize cell to a typed template value.
func (wb *ExcelizeWorkbook) resolveCellValue(sheet, cellName, raw string) (any, CellType) {
	ct, err := wb.file.GetCellType(sheet, cellName)
	if err == nil {
		switch ct {
		case excelize.CellTypeBool:
			return raw == "TRUE" || raw == "1", CellBoolean
		case excelize.CellTypeNumber:
			if f, perr := strconv.ParseFloat(raw, 64); perr == nil {
				return f, CellNumber
			}
		case excelize.CellTypeDate:
			return raw, CellDate
		case excelize.CellTypeError:
			return raw, CellError
		}
	}
	if raw == "" {
		return nil, CellBlank
	}
	// Number cells carry no explicit type attribute in xlsx.
	if f, perr := strconv.ParseFloat(raw, 64); perr == nil {
		return f, CellNumber
	}
	return raw, CellString
}

// Comments returns the comment text per cell position for a sheet.
func (wb *ExcelizeWorkbook) Comments(sheet string) (map[Pos]string, error) {
	comments, err := wb.file.GetComments(sheet)
	if err != nil {
		return nil, fmt.Errorf("read comments from sheet %q: %w", sheet, err)
	}
	result := make(map[Pos]string, len(comments))
	for _, c := range comments {
		pos, err := ParsePos(sheet + "!" + c.Cell)
		if err != nil {
			continue
		}
		result[pos] = c.Text
	}
	return result, nil
}

// SetCellValue writes a typed value to a cell. Blank leaves the cell empty.
func (wb *ExcelizeWorkbook) SetCellValue(pos Pos, cellType CellType, value any) error {
	cell := pos.CellName()
	switch cellType {
	case CellBlank:
		return nil
	case CellFormula:
		return wb.file.SetCellFormula(pos.Sheet, cell, fmt.Sprintf("%v", value))
	case CellBoolean:
		if b, ok := value.(bool); ok {
			return wb.file.SetCellBool(pos.Sheet, cell, b)
		}
		return wb.file.SetCellValue(pos.Sheet, cell, value)
	default:
		return wb.file.SetCellValue(pos.Sheet, cell, value)
	}
}

// SetCellFormula writes a formula to a cell.
func (wb *ExcelizeWorkbook) SetCellFormula(pos Pos, formula string) error {
	return wb.file.SetCellFormula(pos.Sheet, pos.CellName(), formula)
}

// RowHeight returns the height of a row (0-based index).
func (wb *ExcelizeWorkbook) RowHeight(sheet string, row int) (float64, error) {
	return wb.file.GetRowHeight(sheet, row+1)
}

// SetRowHeight sets the height of a row (0-based index).
func (wb *ExcelizeWorkbook) SetRowHeight(sheet string, row int, height float64) error {
	return wb.file.SetRowHeight(sheet, row+1, height)
}

// ColumnWidth returns the width of a column (0-based index).
func (wb *ExcelizeWorkbook) ColumnWidth(sheet string, col int) (float64, error) {
	return wb.file.GetColWidth(sheet, ColToName(col))
}

// SetColumnWidth sets the width of a column (0-based index).
func (wb *ExcelizeWorkbook) SetColumnWidth(sheet string, col int, width float64) error {
	name := ColToName(col)
	return wb.file.SetColWidth(sheet, name, name, width)
}

// MergedRegions returns the merged regions of a sheet.
func (wb *ExcelizeWorkbook) MergedRegions(sheet string) ([]MergedRegion, error) {
	merged, err := wb.file.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells from sheet %q: %w", sheet, err)
	}
	var regions []MergedRegion
	for _, m := range merged {
		first, err := ParsePos(m.GetStartAxis())
		if err != nil {
			continue
		}
		last, err := ParsePos(m.GetEndAxis())
		if err != nil {
			continue
		}
		regions = append(regions, MergedRegion{
			FirstRow: first.Row,
			LastRow:  last.Row,
			FirstCol: first.Col,
			LastCol:  last.Col,
		})
	}
	return regions, nil
}

// AddMergedRegion merges a rectangular block of cells on a sheet.
func (wb *ExcelizeWorkbook) AddMergedRegion(sheet string, region MergedRegion) error {
	topLeft := NewPos(sheet, region.FirstRow, region.FirstCol).CellName()
	bottomRight := NewPos(sheet, region.LastRow, region.LastCol).CellName()
	return wb.file.MergeCell(sheet, topLeft, bottomRight)
}

// Write writes the workbook to the given writer.
func (wb *ExcelizeWorkbook) Write(w io.Writer) error {
	return wb.file.Write(w)
}

// Close closes the underlying excelize file.
func (wb *ExcelizeWorkbook) Close() error {
	return wb.file.Close()
}
