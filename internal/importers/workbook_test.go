package importers

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mrlokans/booklearn/internal/entities"
)

type sheet struct {
	name string
	rows [][]any
}

// writeWorkbook saves sheets to a temporary .xlsx file and returns its path.
func writeWorkbook(t *testing.T, sheets ...sheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, s := range sheets {
		_, err := f.NewSheet(s.name)
		require.NoError(t, err)
		for i, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	path := filepath.Join(t.TempDir(), "Structured_Book_Data.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func sampleSheets() []sheet {
	return []sheet{
		{name: "Books", rows: [][]any{
			{"BookID", "Title", "Description", "ImageURL"},
			{"b1", "Learning Go", "A book", "http://img/1"},
			{"", "No id"},
		}},
		{name: "Parts", rows: [][]any{
			{"PartID", "BookID", "Title"},
			{"p1", "b1", "Basics"},
		}},
		{name: "Chapters", rows: [][]any{
			{"ChapterID", "BookID", "PartID", "Title", "Text", "TotalQuestions", "QuestionsPerSession", "Order", "PassingPercentage"},
			{"c1", "b1", "p1", "Types", "Text one", 99, 5, 2, ""},
			{"c2", "b1", "p1", "Slices", "Text two", "", "", 1, 70},
		}},
		{name: "Questions", rows: [][]any{
			{"QuestionID", "ChapterID", "QuestionText", "Type", "Options", "CorrectAnswers"},
			{"q1", "c1", "Is Go typed?", "truefalse", "True|False", "True"},
			{"q2", "c1", "Pick", "Multiple", `["a", "b", 3]`, `["a", "3"]`},
			{"q3", "c2", "Pick one", "Single", "x\ny", "0"},
		}},
		{name: "Notes", rows: [][]any{{"Anything"}, {"ignored"}}},
	}
}

func TestClassifySheet(t *testing.T) {
	cases := map[string]SheetKind{
		"Books":             SheetBooks,
		"book_data":         SheetBooks,
		"PARTS":             SheetParts,
		"Chapter list":      SheetChapters,
		"Chapter Questions": SheetQuestions,
		"BookParts":         SheetParts,
	}
	for name, want := range cases {
		got, ok := ClassifySheet(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ClassifySheet("Summary")
	assert.False(t, ok)
}

func TestParseList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a|b| c ", []string{"a", "b", "c"}},
		{"a\nb\r\n\nc", []string{"a", "b", "c"}},
		{`["x", " y ", 1, true]`, []string{"x", "y", "1", "true"}},
		{"single", []string{"single"}},
	}
	for _, tc := range cases {
		got, err := ParseList(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseList("[broken")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	for cell, want := range map[string]int{"": 7, "3": 3, "3.0": 3, "-2": -2, "2147483647": math.MaxInt32} {
		got, err := parseInt(cell, 7)
		require.NoError(t, err, cell)
		assert.Equal(t, want, got, cell)
	}
	for _, cell := range []string{"1.5", "abc", "1e30", "-1e30", "2147483648", "Inf", "NaN"} {
		_, err := parseInt(cell, 0)
		assert.Error(t, err, cell)
	}
}

func TestWorkbookConverter_Convert(t *testing.T) {
	path := writeWorkbook(t, sampleSheets()...)
	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	ds, err := wb.Convert()
	require.NoError(t, err)

	require.Len(t, ds.Books, 1)
	assert.Equal(t, "Learning Go", ds.Books[0].Entity.Title)
	assert.Equal(t, "http://img/1", ds.Books[0].Entity.ImageURL)

	require.Len(t, ds.Chapters, 2)
	c1 := ds.Chapters[0].Entity
	assert.Equal(t, 5, c1.QuestionsPerSession)
	assert.Equal(t, 2, c1.Order)
	assert.Equal(t, entities.DefaultPassingPercentage, c1.PassingPercentage)
	assert.Equal(t, 0, c1.TotalQuestions)
	assert.Equal(t, 70, ds.Chapters[1].Entity.PassingPercentage)

	require.Len(t, ds.Questions, 3)
	assert.Equal(t, entities.QuestionTypeTrueFalse, ds.Questions[0].Entity.QuestionType)
	assert.Equal(t, []string{"a", "b", "3"}, []string(ds.Questions[1].Entity.Options))
	assert.Equal(t, []string{"x", "y"}, []string(ds.Questions[2].Entity.Options))

	require.Len(t, ds.Skipped, 1)
	assert.Equal(t, SkippedRow{Sheet: "Books", Row: 3, Reason: "missing required column BookID"}, ds.Skipped[0])
}

func TestWorkbookConverter_BadNumber(t *testing.T) {
	path := writeWorkbook(t, sheet{name: "Chapters", rows: [][]any{
		{"ChapterID", "BookID", "PartID", "Title", "Text", "Order"},
		{"c1", "b1", "p1", "T", "X", "first"},
	}})
	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	ds, err := wb.Convert()
	require.NoError(t, err)
	assert.Empty(t, ds.Chapters)
	require.Len(t, ds.Skipped, 1)
	assert.Equal(t, "c1", ds.Skipped[0].ID)
	assert.Contains(t, ds.Skipped[0].Reason, "Order")
}

func TestWorkbookConverter_NoKnownSheets(t *testing.T) {
	path := writeWorkbook(t, sheet{name: "Summary", rows: [][]any{{"x"}}})
	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.Convert()
	assert.Error(t, err)
}

func TestOpenWorkbook_MissingFile(t *testing.T) {
	_, err := OpenWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
