package searcher_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/index"
	"github.com/paylist-tw/docsearch/internal/searcher"
)

// installSnapshot hand-builds a snapshot so hit positions line up exactly
// with the concatenated heading-space-content stream snippets are cut from.
func installSnapshot(e *searcher.Engine, terms map[string]map[string]*index.Posting) {
	snap := index.NewSnapshot()
	snap.Terms = terms
	for _, docs := range terms {
		for docID := range docs {
			if _, ok := snap.Directory[docID]; !ok {
				snap.Directory[docID] = index.DirectoryEntry{Title: docID}
			}
		}
	}
	snap.ComputeTermFreqs()
	snap.Meta.TotalDocuments = len(snap.Directory)
	snap.Meta.TotalTerms = len(snap.Terms)
	e.Install(snap)
}

func TestSnippetHighlightsAndResolvesSection(t *testing.T) {
	// Stream: "收費 診察費用說明\n外科 此處亦有診察項目\n"
	// runes:   0-1  3-8           10-11 13-20
	doc := &document.Document{
		DocID: "d1",
		Sections: []document.Section{
			{ID: "s1", Heading: "收費", Content: "診察費用說明"},
			{ID: "s2", Heading: "外科", Content: "此處亦有診察項目"},
		},
	}
	e := searcher.New(testTokenizer(), mapCache{"d1": doc})
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 2, Positions: []int{3, 17}, Sections: []string{"s1", "s2"}}},
	})

	results, _, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 2)

	first := results[0].Matches[0]
	assert.Equal(t, "s1", first.SectionID)
	assert.Equal(t, "收費", first.SectionTitle)
	assert.Equal(t, 3, first.Position)
	assert.True(t, strings.HasPrefix(first.Snippet, "..."))
	assert.True(t, strings.HasSuffix(first.Snippet, "..."))
	assert.Contains(t, first.Snippet, "<mark>診察</mark>")

	second := results[0].Matches[1]
	assert.Equal(t, "s2", second.SectionID)
	assert.Equal(t, "外科", second.SectionTitle)
	assert.Equal(t, 17, second.Position)
}

func TestSnippetWindowClipsToRadius(t *testing.T) {
	padding := strings.Repeat("甲", 70)
	trailing := strings.Repeat("乙", 70)
	doc := &document.Document{
		DocID: "d1",
		Sections: []document.Section{
			// Heading is empty, so the stream starts with one space.
			{ID: "s1", Content: padding + "診察" + trailing},
		},
	}
	e := searcher.New(testTokenizer(), mapCache{"d1": doc})
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 1, Positions: []int{71}, Sections: []string{"s1"}}},
	})

	results, _, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)

	snippet := results[0].Matches[0].Snippet
	assert.Equal(t, 60, strings.Count(snippet, "甲"))
	assert.Equal(t, 60, strings.Count(snippet, "乙"))
	assert.Contains(t, snippet, "<mark>診察</mark>")
}

func TestSnippetSkippedWhenContentMissing(t *testing.T) {
	e := searcher.New(testTokenizer(), mapCache{})
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 1, Positions: []int{0}, Sections: []string{"s1"}}},
	})

	results, total, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Matches)
	assert.InDelta(t, 650.0, results[0].TotalScore, 0.001)
}

func TestSnippetSkippedWithoutContentCache(t *testing.T) {
	e := searcher.New(testTokenizer(), nil)
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 1, Positions: []int{0}, Sections: []string{"s1"}}},
	})

	results, _, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Matches)
}

func TestSnippetExactKeepsThreePositionsFuzzyKeepsOne(t *testing.T) {
	content := "診察一二診察三四診察五六診察七八診察"
	doc := &document.Document{
		DocID:    "d1",
		Sections: []document.Section{{ID: "s1", Content: content}},
	}
	positions := []int{1, 5, 9, 13, 17}
	e := searcher.New(testTokenizer(), mapCache{"d1": doc})
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 5, Positions: positions, Sections: []string{"s1"}}},
	})

	results, _, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Matches, 3)

	// A fuzzy hit on the same posting keeps only the first position. The
	// query term is indexable but absent from the vocabulary.
	results, _, err = e.Search(context.Background(), "clinik", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	installSnapshot(e, map[string]map[string]*index.Posting{
		"clinic": {"d1": {Frequency: 5, Positions: positions, Sections: []string{"s1"}}},
	})
	results, _, err = e.Search(context.Background(), "clinik", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Matches, 1)
	assert.Equal(t, 1, results[0].Matches[0].Position)
}

func TestSnippetPositionOutsideSectionsIsUnknown(t *testing.T) {
	doc := &document.Document{
		DocID:    "d1",
		Sections: []document.Section{{ID: "s1", Heading: "收費", Content: "診察"}},
	}
	// Position 100 is beyond the stream; the window clips to nothing and
	// no section range contains it.
	e := searcher.New(testTokenizer(), mapCache{"d1": doc})
	installSnapshot(e, map[string]map[string]*index.Posting{
		"診察": {"d1": {Frequency: 1, Positions: []int{100}, Sections: []string{"s1"}}},
	})

	results, _, err := e.Search(context.Background(), "診察", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, "unknown", results[0].Matches[0].SectionID)
}
