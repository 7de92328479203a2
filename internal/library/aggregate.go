package library

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/booklearn/internal/entities"
)

// DefaultConcurrency bounds sibling fetches when no limit is configured.
const DefaultConcurrency = 8

// Branch status is set on a node whose children could not be fetched. The
// node is still returned with an empty child list.
type Branch struct {
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ChapterTree struct {
	entities.Chapter
	Questions []entities.Question `json:"questions"`
	Branch
}

type PartTree struct {
	entities.Part
	Chapters []ChapterTree `json:"chapters"`
	Branch
}

type BookTree struct {
	entities.Book
	Parts []PartTree `json:"parts"`
	Branch
}

// IsDegraded reports whether any branch of the tree failed to load.
func (t *BookTree) IsDegraded() bool {
	if t.Degraded {
		return true
	}
	for _, p := range t.Parts {
		if p.Degraded {
			return true
		}
		for _, c := range p.Chapters {
			if c.Degraded {
				return true
			}
		}
	}
	return false
}

// TreeReader is what HTTP handlers read aggregated content through. The
// cache package decorates it.
type TreeReader interface {
	AllBooks(ctx context.Context) ([]BookTree, error)
	Book(ctx context.Context, bookID string) (*BookTree, error)
	AllChapters(ctx context.Context) ([]ChapterTree, error)
	Chapter(ctx context.Context, chapterID string) (*ChapterTree, error)
}

// Aggregator assembles denormalized trees one level at a time: books, then
// parts of every book, then chapters of every part, then questions of every
// chapter. Siblings at a level are fetched concurrently up to limit.
type Aggregator struct {
	store ContentReader
	limit int
}

func NewAggregator(store ContentReader, limit int) *Aggregator {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Aggregator{store: store, limit: limit}
}

// AllBooks returns every book with its full tree. Failing to list the books
// themselves is an error; failures further down degrade single branches.
func (a *Aggregator) AllBooks(ctx context.Context) ([]BookTree, error) {
	books, err := a.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	trees := make([]BookTree, len(books))
	for i, b := range books {
		trees[i] = BookTree{Book: b, Parts: []PartTree{}}
	}
	if err := a.expandBooks(ctx, trees); err != nil {
		return nil, err
	}
	return trees, nil
}

// Book returns one book with its full tree, or NotFound.
func (a *Aggregator) Book(ctx context.Context, bookID string) (*BookTree, error) {
	book, err := a.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	trees := []BookTree{{Book: *book, Parts: []PartTree{}}}
	if err := a.expandBooks(ctx, trees); err != nil {
		return nil, err
	}
	return &trees[0], nil
}

// AllChapters returns every chapter with its questions.
func (a *Aggregator) AllChapters(ctx context.Context) ([]ChapterTree, error) {
	chapters, err := a.store.ListChapters(ctx)
	if err != nil {
		return nil, err
	}
	trees := make([]ChapterTree, len(chapters))
	ptrs := make([]*ChapterTree, len(chapters))
	for i, c := range chapters {
		trees[i] = ChapterTree{Chapter: c, Questions: []entities.Question{}}
		ptrs[i] = &trees[i]
	}
	if err := a.expandChapters(ctx, ptrs); err != nil {
		return nil, err
	}
	return trees, nil
}

// Chapter returns one chapter with its questions, or NotFound.
func (a *Aggregator) Chapter(ctx context.Context, chapterID string) (*ChapterTree, error) {
	chapter, err := a.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	tree := &ChapterTree{Chapter: *chapter, Questions: []entities.Question{}}
	if err := a.expandChapters(ctx, []*ChapterTree{tree}); err != nil {
		return nil, err
	}
	return tree, nil
}

func (a *Aggregator) expandBooks(ctx context.Context, books []BookTree) error {
	err := a.fanOut(ctx, len(books), func(ctx context.Context, i int) {
		book := &books[i]
		parts, err := a.store.ListPartsByBook(ctx, book.BookID)
		if err != nil {
			log.Printf("Error fetching parts for book %s: %v", book.BookID, err)
			book.Branch = Branch{Degraded: true, Error: err.Error()}
			return
		}
		book.Parts = make([]PartTree, len(parts))
		for j, p := range parts {
			book.Parts[j] = PartTree{Part: p, Chapters: []ChapterTree{}}
		}
	})
	if err != nil {
		return err
	}

	var parts []*PartTree
	for i := range books {
		for j := range books[i].Parts {
			parts = append(parts, &books[i].Parts[j])
		}
	}
	err = a.fanOut(ctx, len(parts), func(ctx context.Context, i int) {
		part := parts[i]
		chapters, err := a.store.ListChaptersByPart(ctx, part.PartID)
		if err != nil {
			log.Printf("Error fetching chapters for part %s: %v", part.PartID, err)
			part.Branch = Branch{Degraded: true, Error: err.Error()}
			return
		}
		sortChapters(chapters)
		part.Chapters = make([]ChapterTree, len(chapters))
		for j, c := range chapters {
			part.Chapters[j] = ChapterTree{Chapter: c, Questions: []entities.Question{}}
		}
	})
	if err != nil {
		return err
	}

	var chapters []*ChapterTree
	for _, p := range parts {
		for j := range p.Chapters {
			chapters = append(chapters, &p.Chapters[j])
		}
	}
	return a.expandChapters(ctx, chapters)
}

func (a *Aggregator) expandChapters(ctx context.Context, chapters []*ChapterTree) error {
	return a.fanOut(ctx, len(chapters), func(ctx context.Context, i int) {
		chapter := chapters[i]
		questions, err := a.store.ListQuestionsByChapter(ctx, chapter.ChapterID)
		if err != nil {
			log.Printf("Error fetching questions for chapter %s: %v", chapter.ChapterID, err)
			chapter.Branch = Branch{Degraded: true, Error: err.Error()}
			return
		}
		if questions == nil {
			questions = []entities.Question{}
		}
		chapter.Questions = questions
	})
}

// fanOut runs fn for every index with bounded parallelism. Branch failures
// are recorded by fn itself, so the group only fails when ctx is done.
func (a *Aggregator) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// sortChapters orders chapters by their order field, then by chapterId.
func sortChapters(chapters []entities.Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		if chapters[i].Order != chapters[j].Order {
			return chapters[i].Order < chapters[j].Order
		}
		return chapters[i].ChapterID < chapters[j].ChapterID
	})
}
