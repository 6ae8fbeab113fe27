package doccache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylist-tw/docsearch/internal/doccache"
	"github.com/paylist-tw/docsearch/internal/document"
)

func TestMemoryPutGet(t *testing.T) {
	cache := doccache.NewMemory()

	_, ok := cache.Get("d1")
	assert.False(t, ok)

	cache.Put(&document.Document{DocID: "d1", Title: "門診費用"})
	doc, ok := cache.Get("d1")
	require.True(t, ok)
	assert.Equal(t, "門診費用", doc.Title)
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryIgnoresDocsWithoutID(t *testing.T) {
	cache := doccache.NewMemory()
	cache.Put(nil)
	cache.Put(&document.Document{Title: "nameless"})
	assert.Zero(t, cache.Len())
}

func TestMemoryReplace(t *testing.T) {
	cache := doccache.NewMemory()
	cache.Put(&document.Document{DocID: "stale"})

	cache.Replace([]document.Document{
		{DocID: "d1"},
		{DocID: "d2"},
	})

	_, ok := cache.Get("stale")
	assert.False(t, ok)
	_, ok = cache.Get("d1")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	cache := doccache.NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			cache.Put(&document.Document{DocID: id})
		}(string(rune('a' + i)))
		go func(id string) {
			defer wg.Done()
			cache.Get(id)
		}(string(rune('a' + i)))
	}
	wg.Wait()
	assert.Equal(t, 8, cache.Len())
}
