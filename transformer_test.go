package gridfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTransformEvaluatesAndWrites(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "Name: ${name}")
		f.SetCellValue("Sheet1", "B1", "${x*y}")
	})
	ctx := NewContext(map[string]any{"name": "World", "x": 3, "y": 5})

	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 0), NewPos("Sheet1", 4, 0), ctx))
	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 1), NewPos("Sheet1", 4, 1), ctx))

	assert.Equal(t, "Name: World", sheetCell(t, tr, "Sheet1", "A5"))
	assert.Equal(t, "15", sheetCell(t, tr, "Sheet1", "B5"))
}

func TestTransformWritesUserFormula(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "$[SUM(A1:A${n})]")
	})
	ctx := NewContext(map[string]any{"n": 5})

	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 0), NewPos("Sheet1", 9, 0), ctx))
	assert.Equal(t, "SUM(A1:A5)", sheetFormula(t, tr, "Sheet1", "A10"))
}

func TestTransformCreatesTargetSheet(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "hello")
	})
	ctx := NewContext(nil)

	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 0), NewPos("Report", 0, 0), ctx))
	assert.True(t, tr.Workbook().HasSheet("Report"))
	assert.Equal(t, "hello", sheetCell(t, tr, "Report", "A1"))
}

func TestTransformMissingSourceIsNoop(t *testing.T) {
	tr := newTestTransformer(t, nil)
	ctx := NewContext(nil)
	require.NoError(t, tr.Transform(NewPos("Sheet1", 50, 50), NewPos("Sheet1", 0, 0), ctx))
}

func TestTargetPositionHistory(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "v")
	})
	ctx := NewContext(nil)
	src := NewPos("Sheet1", 0, 0)

	first := NewPos("Sheet1", 1, 0)
	second := NewPos("Sheet1", 2, 0)
	require.NoError(t, tr.Transform(src, first, ctx))
	require.NoError(t, tr.Transform(src, second, ctx))
	assert.Equal(t, []Pos{first, second}, tr.TargetPositions(src))

	tr.ResetTargetPositions()
	assert.Empty(t, tr.TargetPositions(src))

	// Already-written content survives the reset.
	assert.Equal(t, "v", sheetCell(t, tr, "Sheet1", "A2"))

	third := NewPos("Sheet1", 3, 0)
	require.NoError(t, tr.Transform(src, third, ctx))
	assert.Equal(t, []Pos{third}, tr.TargetPositions(src))
}

func TestTransformRemapsMergedRegion(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "Title")
		require.NoError(t, f.MergeCell("Sheet1", "A1", "B2"))
	})
	ctx := NewContext(nil)

	// Anchor moves down 9 rows and right 3 columns; the span is identical.
	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 0), NewPos("Sheet1", 9, 3), ctx))

	regions, err := tr.Workbook().MergedRegions("Sheet1")
	require.NoError(t, err)
	assert.Contains(t, regions, MergedRegion{FirstRow: 9, LastRow: 10, FirstCol: 3, LastCol: 4})
}

func TestTransformNonAnchorCellLeavesRegionAlone(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "Title")
		f.SetCellValue("Sheet1", "C1", "side")
		require.NoError(t, f.MergeCell("Sheet1", "A1", "B2"))
	})
	ctx := NewContext(nil)

	// C1 is not the region anchor, so no region is recreated.
	require.NoError(t, tr.Transform(NewPos("Sheet1", 0, 2), NewPos("Sheet1", 9, 2), ctx))

	regions, err := tr.Workbook().MergedRegions("Sheet1")
	require.NoError(t, err)
	assert.Len(t, regions, 1)
}

func TestFormulaCells(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellFormula("Sheet1", "A1", "SUM(B1:B5)")
		f.SetCellValue("Sheet1", "A2", "$[A1*2]")
		f.SetCellValue("Sheet1", "A3", "plain")
	})

	cells := tr.FormulaCells()
	require.Len(t, cells, 2)
	formulas := map[string]bool{}
	for _, cd := range cells {
		formulas[cd.Formula] = true
	}
	assert.True(t, formulas["SUM(B1:B5)"])
	assert.True(t, formulas["A1*2"])
}

func TestClearCell(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "${x}")
	})
	src := NewPos("Sheet1", 0, 0)

	require.NoError(t, tr.ClearCell(src))
	assert.Equal(t, "", sheetCell(t, tr, "Sheet1", "A1"))

	// Ingested data is untouched: the cell still transforms.
	ctx := NewContext(map[string]any{"x": 7})
	require.NoError(t, tr.Transform(src, NewPos("Sheet1", 0, 1), ctx))
	assert.Equal(t, "7", sheetCell(t, tr, "Sheet1", "B1"))
}

func TestCommentedCells(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "anchor")
		addComment(t, f, "Sheet1", "A1", `gx:area(lastCell="B2")`)
		addComment(t, f, "Sheet1", "C5", "just a note")
	})

	cells := tr.CommentedCells()
	require.Len(t, cells, 2)

	// A comment on an empty cell still yields ingested cell data.
	cd := tr.GetCellData(NewPos("Sheet1", 4, 2))
	require.NotNil(t, cd)
	assert.Equal(t, "just a note", cd.Comment)
	assert.Equal(t, CellBlank, cd.Type)
}
