package searcher

import (
	"context"
	"sort"
	"strings"

	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
	"github.com/paylist-tw/docsearch/pkg/metrics"
)

// Suggest returns autocomplete candidates for a partially typed query. Only
// the last segment of the prefix is completed, so earlier words of a
// multi-word query are left alone. Candidates are indexed terms literally
// starting with that segment, ranked by aggregate frequency descending with
// term ascending as the tie-break.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, apperrors.ErrIndexNotReady
	}
	if strings.TrimSpace(prefix) == "" {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	} else if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}
	metrics.SuggestRequestsTotal.Inc()

	effective := e.tok.LastSegment(prefix)
	if effective == "" {
		return []Suggestion{}, nil
	}

	suggestions := make([]Suggestion, 0, 16)
	for term, freq := range snap.TermFreqs {
		if strings.HasPrefix(term, effective) {
			suggestions = append(suggestions, Suggestion{Text: term, Frequency: freq})
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Frequency != suggestions[j].Frequency {
			return suggestions[i].Frequency > suggestions[j].Frequency
		}
		return suggestions[i].Text < suggestions[j].Text
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
