package cache

import (
	"context"
	"log"

	"github.com/mrlokans/booklearn/internal/library"
)

type treeStore interface {
	generation(ctx context.Context) (int64, error)
	load(ctx context.Context, key string, dest any) (bool, error)
	store(ctx context.Context, key string, value any, gen int64) (bool, error)
}

// Reader serves book trees from the cache. Chapter reads pass through.
type Reader struct {
	next  library.TreeReader
	cache treeStore
}

var _ library.TreeReader = (*Reader)(nil)

func NewReader(next library.TreeReader, cache *Cache) *Reader {
	return &Reader{next: next, cache: cache}
}

func (r *Reader) AllBooks(ctx context.Context) ([]library.BookTree, error) {
	var trees []library.BookTree
	if r.lookup(ctx, allBooksKey, &trees) {
		return trees, nil
	}
	gen, cacheable := r.generation(ctx)
	trees, err := r.next.AllBooks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range trees {
		if trees[i].IsDegraded() {
			return trees, nil
		}
	}
	if cacheable {
		r.save(ctx, allBooksKey, trees, gen)
	}
	return trees, nil
}

func (r *Reader) Book(ctx context.Context, bookID string) (*library.BookTree, error) {
	var tree library.BookTree
	if r.lookup(ctx, bookKey(bookID), &tree) {
		return &tree, nil
	}
	gen, cacheable := r.generation(ctx)
	fresh, err := r.next.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if cacheable && !fresh.IsDegraded() {
		r.save(ctx, bookKey(bookID), fresh, gen)
	}
	return fresh, nil
}

func (r *Reader) AllChapters(ctx context.Context) ([]library.ChapterTree, error) {
	return r.next.AllChapters(ctx)
}

func (r *Reader) Chapter(ctx context.Context, chapterID string) (*library.ChapterTree, error) {
	return r.next.Chapter(ctx, chapterID)
}

// lookup treats cache errors as misses.
func (r *Reader) lookup(ctx context.Context, key string, dest any) bool {
	ok, err := r.cache.load(ctx, key, dest)
	if err != nil {
		log.Printf("Tree cache read failed for %s: %v", key, err)
		return false
	}
	return ok
}

// generation is read before building a tree. ok is false when Redis
// cannot tell, and the tree is then not stored.
func (r *Reader) generation(ctx context.Context) (int64, bool) {
	gen, err := r.cache.generation(ctx)
	if err != nil {
		log.Printf("Tree cache generation read failed: %v", err)
		return 0, false
	}
	return gen, true
}

// save stores a tree built under generation gen.
func (r *Reader) save(ctx context.Context, key string, value any, gen int64) {
	stored, err := r.cache.store(ctx, key, value, gen)
	if err != nil {
		log.Printf("Tree cache write failed for %s: %v", key, err)
		return
	}
	if !stored {
		log.Printf("Tree cache invalidated while building %s, not stored", key)
	}
}
