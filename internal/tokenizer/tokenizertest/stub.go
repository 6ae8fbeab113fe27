// Package tokenizertest provides a deterministic dictionary segmenter for
// tests, so behavior tests never depend on the embedded dictionary's
// segmentation choices.
package tokenizertest

// StubSegmenter segments by greedy longest-prefix match against a fixed word
// list, falling back to single runes. Every rune of the input appears in
// exactly one segment, preserving the partition invariant position tracking
// relies on.
type StubSegmenter struct {
	words []string
}

// NewStubSegmenter builds a segmenter over the given dictionary. Longer
// words win over shorter ones regardless of list order.
func NewStubSegmenter(words ...string) *StubSegmenter {
	return &StubSegmenter{words: words}
}

// Segment cuts text deterministically.
func (s *StubSegmenter) Segment(text string) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		best := 1
		for _, w := range s.words {
			wr := []rune(w)
			if len(wr) > best && i+len(wr) <= len(runes) && string(runes[i:i+len(wr)]) == w {
				best = len(wr)
			}
		}
		out = append(out, string(runes[i:i+best]))
		i += best
	}
	return out
}
