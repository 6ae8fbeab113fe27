// Package searcher answers free-text queries and autocomplete requests
// against an installed index snapshot. Snapshots are immutable; the engine
// holds the current one behind an atomic pointer so a rebuild swaps in a new
// snapshot without blocking readers.
package searcher

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/index"
	"github.com/paylist-tw/docsearch/internal/tokenizer"
	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
	"github.com/paylist-tw/docsearch/pkg/metrics"
)

// Scoring weights. The coverage bonus is deliberately larger than any single
// exact match so a document matching every query term outranks one matching
// a strict subset.
const (
	scoreContentExact  = 150.0
	scoreTitlePerHit   = 50.0
	scoreFuzzyBase     = 60.0
	scoreCoverageBonus = 500.0

	fuzzyRatioThreshold = 80
)

// Result limits. Zero or negative limits fall back to the default; larger
// limits are clamped.
const (
	DefaultSearchLimit  = 20
	MaxSearchLimit      = 100
	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 20
)

// Match is one highlighted hit inside a result document.
type Match struct {
	SectionID    string  `json:"section_id"`
	SectionTitle string  `json:"section_title"`
	Snippet      string  `json:"snippet"`
	Position     int     `json:"position"`
	Score        float64 `json:"score"`
}

// Result is one ranked document.
type Result struct {
	DocID      string  `json:"doc_id"`
	DocTitle   string  `json:"doc_title"`
	TotalScore float64 `json:"total_score"`
	Matches    []Match `json:"matches"`
}

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Text      string `json:"text"`
	Frequency int    `json:"frequency"`
}

// ContentCache supplies parsed document content for snippet rendering.
// Snippets are best-effort: a miss skips snippets for that document without
// affecting its score.
type ContentCache interface {
	Get(docID string) (*document.Document, bool)
}

// Engine serves search and suggest queries over the installed snapshot.
type Engine struct {
	tok     *tokenizer.Tokenizer
	content ContentCache
	snap    atomic.Pointer[index.Snapshot]
	logger  *slog.Logger
}

// New creates an Engine with no snapshot installed. Content may be nil, in
// which case results carry no snippets.
func New(tok *tokenizer.Tokenizer, content ContentCache) *Engine {
	return &Engine{
		tok:     tok,
		content: content,
		logger:  slog.Default().With("component", "search-engine"),
	}
}

// Install publishes a snapshot. Queries running concurrently keep reading
// the snapshot they started with.
func (e *Engine) Install(snap *index.Snapshot) {
	e.snap.Store(snap)
	if snap != nil {
		metrics.DocumentsIndexed.Set(float64(snap.Meta.TotalDocuments))
		metrics.IndexTermCount.Set(float64(snap.Meta.TotalTerms))
		e.logger.Info("snapshot installed",
			"documents", snap.Meta.TotalDocuments,
			"terms", snap.Meta.TotalTerms)
	}
}

// Ready reports whether a snapshot has been installed.
func (e *Engine) Ready() bool {
	return e.snap.Load() != nil
}

// Meta returns the installed snapshot's metadata.
func (e *Engine) Meta() (index.Metadata, bool) {
	snap := e.snap.Load()
	if snap == nil {
		return index.Metadata{}, false
	}
	return snap.Meta, true
}

// candidate accumulates one document's score while a query is evaluated.
type candidate struct {
	score   float64
	matches []Match
	matched map[string]struct{}
}

// Search runs a ranked full-text query. The returned total counts every
// candidate document found, not just the returned page. Searching before a
// snapshot is installed returns ErrIndexNotReady; an empty or unsegmentable
// query returns no results and no error.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, int, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, 0, apperrors.ErrIndexNotReady
	}
	if strings.TrimSpace(query) == "" {
		return []Result{}, 0, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	} else if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	terms := e.tok.QueryTerms(query)
	if len(terms) == 0 {
		e.logger.Debug("query yielded no indexable terms", "query", query)
		return []Result{}, 0, nil
	}

	candidates := make(map[string]*candidate)
	for _, term := range terms {
		if postings := snap.Postings(term); postings != nil {
			e.scoreExact(term, postings, candidates)
		} else {
			e.scoreFuzzy(snap, term, candidates)
		}
	}

	for _, cand := range candidates {
		if len(cand.matched) == len(terms) {
			cand.score += scoreCoverageBonus
		}
	}

	docIDs := make([]string, 0, len(candidates))
	for docID := range candidates {
		docIDs = append(docIDs, docID)
	}
	sort.Slice(docIDs, func(i, j int) bool {
		a, b := candidates[docIDs[i]], candidates[docIDs[j]]
		if a.score != b.score {
			return a.score > b.score
		}
		return docIDs[i] < docIDs[j]
	})

	total := len(docIDs)
	if len(docIDs) > limit {
		docIDs = docIDs[:limit]
	}

	results := make([]Result, 0, len(docIDs))
	for _, docID := range docIDs {
		cand := candidates[docID]
		title := docID
		if entry, ok := snap.Directory[docID]; ok && entry.Title != "" {
			title = entry.Title
		}
		results = append(results, Result{
			DocID:      docID,
			DocTitle:   title,
			TotalScore: cand.score,
			Matches:    cand.matches,
		})
	}

	if total == 0 {
		metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	} else {
		metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
	metrics.SearchResultsCount.Observe(float64(len(results)))
	e.logger.Debug("search complete", "query", query, "terms", len(terms), "total", total)
	return results, total, nil
}

// scoreExact credits every document holding a posting for the term. Title
// occurrences earn a per-hit premium on top of the base score.
func (e *Engine) scoreExact(term string, postings map[string]*index.Posting, candidates map[string]*candidate) {
	for docID, posting := range postings {
		cand := getCandidate(candidates, docID)
		cand.score += scoreContentExact + scoreTitlePerHit*float64(posting.TitleFrequency)
		cand.matched[term] = struct{}{}

		positions := posting.Positions
		if len(positions) > 3 {
			positions = positions[:3]
		}
		cand.matches = append(cand.matches, e.extractMatches(docID, term, positions)...)
	}
}

// scoreFuzzy compares the unindexed query term against the whole vocabulary
// and credits the documents of every sufficiently similar indexed term. Only
// the first hit position is kept, to bound snippet output on noisy matches.
func (e *Engine) scoreFuzzy(snap *index.Snapshot, term string, candidates map[string]*candidate) {
	for indexedTerm, postings := range snap.Terms {
		ratio := similarityRatio(term, indexedTerm)
		if ratio < fuzzyRatioThreshold {
			continue
		}
		contribution := scoreFuzzyBase * float64(ratio) / 100
		for docID, posting := range postings {
			cand := getCandidate(candidates, docID)
			cand.score += contribution
			cand.matched[term] = struct{}{}

			positions := posting.Positions
			if len(positions) > 1 {
				positions = positions[:1]
			}
			cand.matches = append(cand.matches, e.extractMatches(docID, indexedTerm, positions)...)
		}
	}
}

func getCandidate(candidates map[string]*candidate, docID string) *candidate {
	cand := candidates[docID]
	if cand == nil {
		cand = &candidate{matched: make(map[string]struct{})}
		candidates[docID] = cand
	}
	return cand
}

// similarityRatio is a rune-based edit-distance similarity on a 0-100
// scale: 100 means identical, 0 means nothing in common.
func similarityRatio(a, b string) int {
	if a == b {
		return 100
	}
	alen := utf8.RuneCountInString(a)
	blen := utf8.RuneCountInString(b)
	maxLen := alen
	if blen > maxLen {
		maxLen = blen
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	ratio := 100 * (1 - float64(dist)/float64(maxLen))
	if ratio < 0 {
		return 0
	}
	return int(ratio + 0.5)
}
