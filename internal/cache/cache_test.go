package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklearn/internal/library"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	c, err := New(context.Background(), url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Invalidate(context.Background())
		_ = c.Close()
	})
	return c
}

func TestCache_StoreLoadInvalidate(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	gen, err := c.generation(ctx)
	require.NoError(t, err)
	stored, err := c.store(ctx, bookKey("b1"), map[string]string{"bookId": "b1"}, gen)
	require.NoError(t, err)
	require.True(t, stored)
	stored, err = c.store(ctx, allBooksKey, []string{"b1"}, gen)
	require.NoError(t, err)
	require.True(t, stored)

	var got map[string]string
	ok, err := c.load(ctx, bookKey("b1"), &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b1", got["bookId"])

	// Progress changes leave cached trees alone.
	c.Notify(ctx, library.Change{Kind: library.KindProgress, Action: library.ActionUpdated})
	ok, err = c.load(ctx, allBooksKey, &[]string{})
	require.NoError(t, err)
	assert.True(t, ok)

	c.Notify(ctx, library.Change{Kind: library.KindQuestion, Action: library.ActionCreated, ID: "q1"})
	ok, err = c.load(ctx, bookKey("b1"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.load(ctx, allBooksKey, &[]string{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_StoreAfterInvalidationIsDropped(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	gen, err := c.generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	stored, err := c.store(ctx, allBooksKey, []string{"b1"}, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	ok, err := c.load(ctx, allBooksKey, &[]string{})
	require.NoError(t, err)
	assert.False(t, ok)

	current, err := c.generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, current)
}
