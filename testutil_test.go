package gridfill

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// newTestTransformer builds an in-memory workbook via the provided callback
// and ingests it into a Transformer.
func newTestTransformer(t *testing.T, build func(f *excelize.File), opts ...TransformerOption) *Transformer {
	t.Helper()
	f := excelize.NewFile()
	if build != nil {
		build(f)
	}
	tr, err := NewTransformer(NewExcelizeWorkbook(f), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return tr
}

// sheetCell reads a cell value from the transformer's underlying workbook.
func sheetCell(t *testing.T, tr *Transformer, sheet, cell string) string {
	t.Helper()
	f := tr.Workbook().(*ExcelizeWorkbook).File()
	val, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return val
}

// sheetFormula reads a cell formula from the transformer's underlying workbook.
func sheetFormula(t *testing.T, tr *Transformer, sheet, cell string) string {
	t.Helper()
	f := tr.Workbook().(*ExcelizeWorkbook).File()
	formula, err := f.GetCellFormula(sheet, cell)
	require.NoError(t, err)
	return formula
}

// addComment attaches a markup comment to a cell.
func addComment(t *testing.T, f *excelize.File, sheet, cell, text string) {
	t.Helper()
	require.NoError(t, f.AddComment(sheet, excelize.Comment{
		Cell:   cell,
		Author: "gridfill",
		Text:   text,
	}))
}
