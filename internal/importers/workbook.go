package importers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mrlokans/booklearn/internal/entities"
)

// SheetKind is the entity type a worksheet holds.
type SheetKind string

const (
	SheetBooks     SheetKind = "book"
	SheetParts     SheetKind = "part"
	SheetChapters  SheetKind = "chapter"
	SheetQuestions SheetKind = "question"
)

// Most specific first, so "Chapter Questions" is a question sheet.
var sheetKinds = []SheetKind{SheetQuestions, SheetChapters, SheetParts, SheetBooks}

// ClassifySheet matches a sheet name against the known kinds by
// case-insensitive substring. ok is false for unrelated sheets.
func ClassifySheet(name string) (SheetKind, bool) {
	lower := strings.ToLower(name)
	for _, kind := range sheetKinds {
		if strings.Contains(lower, string(kind)) {
			return kind, true
		}
	}
	return "", false
}

var requiredColumns = map[SheetKind][]string{
	SheetBooks:     {"BookID", "Title"},
	SheetParts:     {"PartID", "BookID", "Title"},
	SheetChapters:  {"ChapterID", "BookID", "PartID", "Title", "Text"},
	SheetQuestions: {"QuestionID", "ChapterID", "QuestionText", "Type"},
}

// SkippedRow is a workbook row that was not imported.
type SkippedRow struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"` // 1-based, as shown in spreadsheet tools
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Dataset is the parsed content of a workbook, in sheet order.
type Dataset struct {
	Books     []Record[entities.Book]
	Parts     []Record[entities.Part]
	Chapters  []Record[entities.Chapter]
	Questions []Record[entities.Question]
	Skipped   []SkippedRow
}

// Record remembers where an entity came from so later failures can point
// back at the row.
type Record[T any] struct {
	Sheet  string
	Row    int
	Entity T
}

// WorkbookConverter turns an .xlsx workbook into a Dataset.
type WorkbookConverter struct {
	file *excelize.File
	name string
}

// OpenWorkbook opens the workbook at path. Callers must Close it.
func OpenWorkbook(path string) (*WorkbookConverter, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &WorkbookConverter{file: f, name: filepath.Base(path)}, nil
}

func (w *WorkbookConverter) Name() string {
	return w.name
}

func (w *WorkbookConverter) Close() error {
	return w.file.Close()
}

// Convert implements Converter.
func (w *WorkbookConverter) Convert() (*Dataset, error) {
	ds := &Dataset{}
	classified := 0
	for _, sheet := range w.file.GetSheetList() {
		kind, ok := ClassifySheet(sheet)
		if !ok {
			log.Printf("Skipping sheet %q: not a book, part, chapter or question sheet", sheet)
			continue
		}
		rows, err := w.file.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		classified++
		ds.addSheet(sheet, kind, rows)
	}
	if classified == 0 {
		return nil, fmt.Errorf("workbook %s has no book, part, chapter or question sheets", w.name)
	}
	return ds, nil
}

// sheetRow gives column access by header name.
type sheetRow struct {
	header map[string]int
	cells  []string
}

func (r sheetRow) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

func (r sheetRow) missing(columns []string) string {
	for _, c := range columns {
		if r.get(c) == "" {
			return c
		}
	}
	return ""
}

func (ds *Dataset) addSheet(sheet string, kind SheetKind, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, dup := header[name]; !dup && name != "" {
			header[name] = i
		}
	}

	for i, cells := range rows[1:] {
		rowNum := i + 2
		row := sheetRow{header: header, cells: cells}
		if isBlank(cells) {
			continue
		}
		if col := row.missing(requiredColumns[kind]); col != "" {
			ds.skip(sheet, rowNum, row.get(idColumn(kind)), "missing required column "+col)
			continue
		}
		if err := ds.addRow(sheet, rowNum, kind, row); err != nil {
			ds.skip(sheet, rowNum, row.get(idColumn(kind)), err.Error())
		}
	}
}

func (ds *Dataset) addRow(sheet string, rowNum int, kind SheetKind, row sheetRow) error {
	switch kind {
	case SheetBooks:
		ds.Books = append(ds.Books, Record[entities.Book]{Sheet: sheet, Row: rowNum, Entity: entities.Book{
			BookID:      row.get("BookID"),
			Title:       row.get("Title"),
			Description: row.get("Description"),
			ImageURL:    row.get("ImageURL"),
		}})
	case SheetParts:
		ds.Parts = append(ds.Parts, Record[entities.Part]{Sheet: sheet, Row: rowNum, Entity: entities.Part{
			PartID: row.get("PartID"),
			BookID: row.get("BookID"),
			Title:  row.get("Title"),
		}})
	case SheetChapters:
		perSession, err := parseInt(row.get("QuestionsPerSession"), 0)
		if err != nil {
			return fmt.Errorf("QuestionsPerSession: %w", err)
		}
		order, err := parseInt(row.get("Order"), 0)
		if err != nil {
			return fmt.Errorf("Order: %w", err)
		}
		passing, err := parseInt(row.get("PassingPercentage"), entities.DefaultPassingPercentage)
		if err != nil {
			return fmt.Errorf("PassingPercentage: %w", err)
		}
		// TotalQuestions is recomputed after import and never read from the sheet.
		ds.Chapters = append(ds.Chapters, Record[entities.Chapter]{Sheet: sheet, Row: rowNum, Entity: entities.Chapter{
			ChapterID:           row.get("ChapterID"),
			BookID:              row.get("BookID"),
			PartID:              row.get("PartID"),
			Title:               row.get("Title"),
			Text:                row.get("Text"),
			QuestionsPerSession: perSession,
			Order:               order,
			PassingPercentage:   passing,
		}})
	case SheetQuestions:
		options, err := ParseList(row.get("Options"))
		if err != nil {
			return fmt.Errorf("Options: %w", err)
		}
		answers, err := ParseList(row.get("CorrectAnswers"))
		if err != nil {
			return fmt.Errorf("CorrectAnswers: %w", err)
		}
		ds.Questions = append(ds.Questions, Record[entities.Question]{Sheet: sheet, Row: rowNum, Entity: entities.Question{
			QuestionID:     row.get("QuestionID"),
			ChapterID:      row.get("ChapterID"),
			QuestionText:   row.get("QuestionText"),
			QuestionType:   parseQuestionType(row.get("Type")),
			Options:        options,
			CorrectAnswers: answers,
		}})
	}
	return nil
}

func (ds *Dataset) skip(sheet string, row int, id, reason string) {
	ds.Skipped = append(ds.Skipped, SkippedRow{Sheet: sheet, Row: row, ID: id, Reason: reason})
}

func idColumn(kind SheetKind) string {
	return requiredColumns[kind][0]
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseInt accepts integral numbers in the int32 range, including
// spreadsheet floats like "3.0". Empty cells yield def.
func parseInt(cell string, def int) (int, error) {
	if cell == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", cell)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q is out of range", cell)
	}
	return int(f), nil
}

func parseQuestionType(cell string) entities.QuestionType {
	for _, t := range []entities.QuestionType{
		entities.QuestionTypeTrueFalse,
		entities.QuestionTypeSingle,
		entities.QuestionTypeMultiple,
	} {
		if strings.EqualFold(cell, string(t)) {
			return t
		}
	}
	return entities.QuestionType(cell)
}

// ParseList reads an Options or CorrectAnswers cell. A cell starting with
// "[" is a JSON array; anything else is split on "|" or newlines. Items
// are trimmed and empty items dropped.
func ParseList(cell string) ([]string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(cell, "[") {
		var raw []any
		if err := json.Unmarshal([]byte(cell), &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON list: %w", err)
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			var s string
			switch v := v.(type) {
			case string:
				s = v
			case float64:
				s = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				s = strconv.FormatBool(v)
			default:
				return nil, fmt.Errorf("unsupported list item %v", v)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == '|' || r == '\n' || r == '\r' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
