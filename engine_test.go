package gridfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// employeeTemplate is a header/detail/footer sheet: the each command over
// row 2 repeats per employee inside the root area.
func employeeTemplate(t *testing.T) *Transformer {
	t.Helper()
	return newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "Name")
		f.SetCellValue("Sheet1", "B1", "Age")
		f.SetCellValue("Sheet1", "A2", "${e.Name}")
		f.SetCellValue("Sheet1", "B2", "${e.Age}")
		f.SetCellValue("Sheet1", "A3", "Total: ${len(employees)}")
		addComment(t, f, "Sheet1", "A1", `gx:area(lastCell="B3")`)
		addComment(t, f, "Sheet1", "A2", `gx:each(items="employees" var="e" lastCell="B2")`)
	})
}

func TestEngineRender(t *testing.T) {
	tr := employeeTemplate(t)
	engine := NewEngine()

	err := engine.Render(tr, map[string]any{"employees": []any{
		employee{Name: "Ann", Age: 30},
		employee{Name: "Bob", Age: 25},
		employee{Name: "Cid", Age: 41},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Name", sheetCell(t, tr, "Sheet1", "A1"))
	assert.Equal(t, "Ann", sheetCell(t, tr, "Sheet1", "A2"))
	assert.Equal(t, "Bob", sheetCell(t, tr, "Sheet1", "A3"))
	assert.Equal(t, "Cid", sheetCell(t, tr, "Sheet1", "A4"))
	assert.Equal(t, "41", sheetCell(t, tr, "Sheet1", "B4"))
	assert.Equal(t, "Total: 3", sheetCell(t, tr, "Sheet1", "A5"))
}

func TestEngineRenderEmptyCollection(t *testing.T) {
	tr := employeeTemplate(t)
	engine := NewEngine()

	require.NoError(t, engine.Render(tr, map[string]any{"employees": []any{}}))

	// The detail row vanished and the footer moved up. Template markup does
	// not leak into the vacated cells.
	assert.Equal(t, "Total: 0", sheetCell(t, tr, "Sheet1", "A2"))
	assert.Equal(t, "", sheetCell(t, tr, "Sheet1", "A3"))
}

func TestEngineRenderNestedEach(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "${d.Name}")
		f.SetCellValue("Sheet1", "A2", "- ${e.Name}")
		addComment(t, f, "Sheet1", "A1", "gx:area(lastCell=\"A2\")\n"+
			`gx:each(items="departments" var="d" lastCell="A2")`)
		addComment(t, f, "Sheet1", "A2", `gx:each(items="d.Staff" var="e" lastCell="A2")`)
	})
	engine := NewEngine()

	type dept struct {
		Name  string
		Staff []employee
	}
	err := engine.Render(tr, map[string]any{"departments": []any{
		dept{Name: "IT", Staff: []employee{{Name: "Ann"}, {Name: "Bob"}}},
		dept{Name: "HR", Staff: []employee{{Name: "Cid"}}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "IT", sheetCell(t, tr, "Sheet1", "A1"))
	assert.Equal(t, "- Ann", sheetCell(t, tr, "Sheet1", "A2"))
	assert.Equal(t, "- Bob", sheetCell(t, tr, "Sheet1", "A3"))
	assert.Equal(t, "HR", sheetCell(t, tr, "Sheet1", "A4"))
	assert.Equal(t, "- Cid", sheetCell(t, tr, "Sheet1", "A5"))
}

func TestEngineRenderIfInsideEach(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A2", "${e.Name}")
		f.SetCellValue("Sheet1", "B2", "senior")
		addComment(t, f, "Sheet1", "A2", "gx:area(lastCell=\"B2\")\n"+
			`gx:each(items="employees" var="e" lastCell="B2")`)
		addComment(t, f, "Sheet1", "B2", `gx:if(condition="e.Age >= 40" lastCell="B2")`)
	})
	engine := NewEngine()

	err := engine.Render(tr, map[string]any{"employees": []any{
		employee{Name: "Ann", Age: 30},
		employee{Name: "Cid", Age: 41},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Ann", sheetCell(t, tr, "Sheet1", "A2"))
	assert.Equal(t, "", sheetCell(t, tr, "Sheet1", "B2"))
	assert.Equal(t, "Cid", sheetCell(t, tr, "Sheet1", "A3"))
	assert.Equal(t, "senior", sheetCell(t, tr, "Sheet1", "B3"))
}

func TestEngineRenderWithoutMarkupFails(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "no markup here")
	})
	err := NewEngine().Render(tr, nil)
	require.Error(t, err)
}

func TestEngineCustomNotation(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "[[greeting]]")
		addComment(t, f, "Sheet1", "A1", `gx:area(lastCell="A1")`)
	})
	engine := NewEngine(WithExpressionNotation("[[", "]]"))

	require.NoError(t, engine.Render(tr, map[string]any{"greeting": "hello"}))
	assert.Equal(t, "hello", sheetCell(t, tr, "Sheet1", "A1"))
}

func TestEngineCustomCommand(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "${x}")
		addComment(t, f, "Sheet1", "A1", "gx:area(lastCell=\"A1\")\n"+
			`gx:stamp(lastCell="A1")`)
	})

	engine := NewEngine(WithCommand("stamp", func(attrs map[string]string) (Command, error) {
		return &stampCommand{}, nil
	}))
	require.NoError(t, engine.Render(tr, map[string]any{"x": 1}))
	assert.Equal(t, "stamped", sheetCell(t, tr, "Sheet1", "A1"))
}

// stampCommand writes a fixed marker at its anchor.
type stampCommand struct {
	area *Area
}

func (c *stampCommand) Name() string { return "stamp" }

func (c *stampCommand) AddArea(area *Area) error {
	c.area = area
	return nil
}

func (c *stampCommand) ApplyAt(anchor Pos, ctx *Context, t *Transformer) (Size, error) {
	if err := t.Workbook().SetCellValue(anchor, CellString, "stamped"); err != nil {
		return ZeroSize, err
	}
	return Size{Width: 1, Height: 1}, nil
}

func TestEngineUnknownCommandIgnored(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "${x}")
		addComment(t, f, "Sheet1", "A1", "gx:area(lastCell=\"A1\")\n"+
			`gx:frobnicate(lastCell="A1")`)
	})
	require.NoError(t, NewEngine().Render(tr, map[string]any{"x": 5}))
	assert.Equal(t, "5", sheetCell(t, tr, "Sheet1", "A1"))
}

func TestEngineValidate(t *testing.T) {
	tr := newTestTransformer(t, func(f *excelize.File) {
		f.SetCellValue("Sheet1", "A1", "${good + 1}")
		f.SetCellValue("Sheet1", "A2", "${1 +* 2}")
		addComment(t, f, "Sheet1", "A1", `gx:area(lastCell="A3")`)
		addComment(t, f, "Sheet1", "A3", `gx:each(items="1 +* 2" var="e" lastCell="A3")`)
	})
	engine := NewEngine()

	issues, err := engine.Validate(tr)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, SeverityError, issue.Severity)
	}
}

func TestEngineValidateCleanTemplate(t *testing.T) {
	tr := employeeTemplate(t)
	issues, err := NewEngine().Validate(tr)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
