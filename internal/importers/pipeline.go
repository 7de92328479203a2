package importers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/booklearn/internal/library"
)

// Converter turns a source into a Dataset.
//
// Implementations:
//   - WorkbookConverter (workbook.go) - multi-sheet .xlsx workbooks
type Converter interface {
	Convert() (*Dataset, error)
	Name() string
}

// Recorder keeps a record of every import run, failed ones included.
// Implemented by audit.Service.
type Recorder interface {
	LogImport(ctx context.Context, source string, summary any, err error)
}

// Counts tallies what happened to one entity type.
type Counts struct {
	Parsed    int `json:"parsed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

func (c *Counts) add(r library.UpsertResult) {
	switch r {
	case library.Created:
		c.Created++
	case library.Updated:
		c.Updated++
	default:
		c.Unchanged++
	}
}

// Result summarizes one import run.
type Result struct {
	Source    string       `json:"source"`
	DryRun    bool         `json:"dryRun"`
	Books     Counts       `json:"books"`
	Parts     Counts       `json:"parts"`
	Chapters  Counts       `json:"chapters"`
	Questions Counts       `json:"questions"`
	Recounted int          `json:"recounted"`
	Skipped   []SkippedRow `json:"skipped"`
}

// Changed reports whether the run wrote anything.
func (r Result) Changed() bool {
	for _, c := range []Counts{r.Books, r.Parts, r.Chapters, r.Questions} {
		if c.Created+c.Updated > 0 {
			return true
		}
	}
	return r.Recounted > 0
}

func (r Result) String() string {
	return fmt.Sprintf("books %d/%d/%d, parts %d/%d/%d, chapters %d/%d/%d, questions %d/%d/%d (created/updated/unchanged), %d rows skipped",
		r.Books.Created, r.Books.Updated, r.Books.Unchanged,
		r.Parts.Created, r.Parts.Updated, r.Parts.Unchanged,
		r.Chapters.Created, r.Chapters.Updated, r.Chapters.Unchanged,
		r.Questions.Created, r.Questions.Updated, r.Questions.Unchanged,
		len(r.Skipped))
}

// Options tune a single run.
type Options struct {
	// DryRun parses and validates without touching the store.
	DryRun bool
}

// Pipeline handles the import workflow:
// convert → validate → upsert parents first → recount chapters → notify.
type Pipeline struct {
	store    library.ContentStore
	notifier library.Notifier
	recorder Recorder
}

// NewPipeline creates a new import pipeline. notifier and recorder may be nil.
func NewPipeline(store library.ContentStore, notifier library.Notifier, recorder Recorder) *Pipeline {
	return &Pipeline{store: store, notifier: notifier, recorder: recorder}
}

// ImportFile opens the workbook at path and imports it.
func (p *Pipeline) ImportFile(ctx context.Context, path string, opts Options) (Result, error) {
	wb, err := OpenWorkbook(path)
	if err != nil {
		if !opts.DryRun {
			p.record(ctx, path, nil, err)
		}
		return Result{Source: path, DryRun: opts.DryRun}, err
	}
	defer wb.Close()
	return p.Import(ctx, wb, opts)
}

// Import processes a converter's dataset. Rows that fail validation or
// reference a missing parent are skipped and reported; store failures
// abort the run.
func (p *Pipeline) Import(ctx context.Context, converter Converter, opts Options) (Result, error) {
	result, err := p.run(ctx, converter, opts)
	if !opts.DryRun {
		p.record(ctx, converter.Name(), result, err)
	}
	if err != nil {
		return result, err
	}
	log.Printf("Imported %s: %s", converter.Name(), result)
	if !opts.DryRun && p.notifier != nil {
		p.notifier.Notify(ctx, library.Change{
			Kind:   library.KindImport,
			Action: library.ActionImported,
			ID:     converter.Name(),
			Detail: result.String(),
		})
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, converter Converter, opts Options) (Result, error) {
	result := Result{Source: converter.Name(), DryRun: opts.DryRun, Skipped: []SkippedRow{}}
	ds, err := converter.Convert()
	if err != nil {
		return result, err
	}
	result.Skipped = append(result.Skipped, ds.Skipped...)
	for _, s := range ds.Skipped {
		if kind, ok := ClassifySheet(s.Sheet); ok {
			result.counts(kind).Skipped++
		}
	}

	s := &stage{ctx: ctx, result: &result, dryRun: opts.DryRun}

	for _, rec := range ds.Books {
		book := rec.Entity
		s.apply(SheetBooks, rec.Sheet, rec.Row, book.BookID, library.ValidateBook(&book), func() (library.UpsertResult, error) {
			return p.store.UpsertBook(ctx, &book)
		})
	}
	for _, rec := range ds.Parts {
		part := rec.Entity
		s.apply(SheetParts, rec.Sheet, rec.Row, part.PartID, library.ValidatePart(&part), func() (library.UpsertResult, error) {
			return p.store.UpsertPart(ctx, &part)
		})
	}
	touched := map[string]bool{}
	for _, rec := range ds.Chapters {
		chapter := rec.Entity
		if s.apply(SheetChapters, rec.Sheet, rec.Row, chapter.ChapterID, library.ValidateChapter(&chapter), func() (library.UpsertResult, error) {
			return p.store.UpsertChapter(ctx, &chapter)
		}) {
			touched[chapter.ChapterID] = true
		}
	}
	for _, rec := range ds.Questions {
		question := rec.Entity
		if s.apply(SheetQuestions, rec.Sheet, rec.Row, question.QuestionID, library.ValidateQuestion(&question), func() (library.UpsertResult, error) {
			previous, err := p.currentChapter(ctx, question.QuestionID)
			if err != nil {
				return library.Unchanged, err
			}
			res, err := p.store.UpsertQuestion(ctx, &question)
			if err == nil && previous != "" && previous != question.ChapterID {
				touched[previous] = true
			}
			return res, err
		}) {
			touched[question.ChapterID] = true
		}
	}
	if s.err != nil {
		return result, s.err
	}

	if opts.DryRun || len(touched) == 0 {
		return result, nil
	}
	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	result.Recounted, err = p.store.RecountQuestions(ctx, ids...)
	if err != nil {
		return result, fmt.Errorf("failed to recount questions: %w", err)
	}
	return result, nil
}

// currentChapter returns the chapter a stored question belongs to, or ""
// for a new question.
func (p *Pipeline) currentChapter(ctx context.Context, questionID string) (string, error) {
	existing, err := p.store.GetQuestion(ctx, questionID)
	if errors.Is(err, library.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return existing.ChapterID, nil
}

func (r *Result) counts(kind SheetKind) *Counts {
	switch kind {
	case SheetBooks:
		return &r.Books
	case SheetParts:
		return &r.Parts
	case SheetChapters:
		return &r.Chapters
	default:
		return &r.Questions
	}
}

// stage applies rows one at a time and stops at the first store failure.
type stage struct {
	ctx    context.Context
	result *Result
	dryRun bool
	err    error
}

// apply reports whether the row was accepted.
func (s *stage) apply(kind SheetKind, sheet string, row int, id string, validation error, upsert func() (library.UpsertResult, error)) bool {
	if s.err != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	counts := s.result.counts(kind)
	counts.Parsed++
	if validation != nil {
		counts.Skipped++
		s.result.Skipped = append(s.result.Skipped, SkippedRow{Sheet: sheet, Row: row, ID: id, Reason: validation.Error()})
		return false
	}
	if s.dryRun {
		return true
	}
	res, err := upsert()
	if errors.Is(err, library.ErrValidation) {
		counts.Skipped++
		s.result.Skipped = append(s.result.Skipped, SkippedRow{Sheet: sheet, Row: row, ID: id, Reason: err.Error()})
		return false
	}
	if err != nil {
		s.err = fmt.Errorf("failed to import %s %s (sheet %s, row %d): %w", kind, id, sheet, row, err)
		return false
	}
	counts.add(res)
	return true
}

func (p *Pipeline) record(ctx context.Context, source string, summary any, err error) {
	if p.recorder != nil {
		p.recorder.LogImport(ctx, source, summary, err)
	}
}
