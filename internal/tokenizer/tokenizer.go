// Package tokenizer converts raw document and query text into indexable
// terms. Normalization applies a fixed variant-character table and
// casefolding; segmentation is dictionary-based word segmentation suited to
// a CJK text stream with no explicit word boundaries. The same pipeline runs
// at index-build time and at query time so exact-match lookups line up.
package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// minTermLen is the minimum rune length for an indexable term.
const minTermLen = 2

// variantTable maps rare character variants and narrower clinical terms to
// their standard forms before segmentation. Kept as an ordered slice so
// normalization is deterministic.
var variantTable = []struct{ variant, standard string }{
	{"腫廇", "腫瘤"},
	{"檢驗", "檢查"},
}

var stopWords = map[string]struct{}{
	"的": {}, "一": {}, "是": {}, "在": {}, "了": {}, "和": {}, "人": {}, "這": {}, "中": {}, "大": {},
	"為": {}, "上": {}, "個": {}, "國": {}, "我": {}, "以": {}, "要": {}, "他": {}, "時": {}, "來": {},
	"用": {}, "們": {}, "生": {}, "到": {}, "作": {}, "地": {}, "于": {}, "出": {}, "就": {}, "分": {},
	"對": {}, "成": {}, "會": {}, "可": {}, "主": {}, "發": {}, "年": {}, "動": {}, "同": {}, "工": {},
	"也": {}, "能": {}, "下": {}, "過": {}, "子": {}, "說": {}, "產": {}, "樣": {}, "配": {}, "知": {},
	"三": {}, "之": {}, "長": {}, "其": {}, "又": {}, "多": {}, "然": {}, "前": {}, "並": {}, "完": {},
	"由": {}, "與": {}, "及": {}, "各": {}, "既": {}, "無": {}, "當": {}, "根": {}, "如": {}, "或": {},
}

// Segmenter cuts normalized text into word segments. Implementations must
// return segments that partition the input in order, so callers can advance
// a character cursor by each segment's length.
type Segmenter interface {
	Segment(text string) []string
}

// Token is one segment of normalized text. Len is the segment's rune length;
// it is reported for every segment, indexable or not, so position arithmetic
// downstream stays aligned with the original text.
type Token struct {
	Term      string
	Len       int
	Indexable bool
}

// Tokenizer runs the normalize+segment pipeline.
type Tokenizer struct {
	seg Segmenter
}

// New creates a Tokenizer over the given segmenter.
func New(seg Segmenter) *Tokenizer {
	return &Tokenizer{seg: seg}
}

// NewDefault creates a Tokenizer backed by the embedded traditional-Chinese
// dictionary segmenter.
func NewDefault() (*Tokenizer, error) {
	seg, err := NewDictSegmenter()
	if err != nil {
		return nil, err
	}
	return New(seg), nil
}

// Normalize applies the variant-character substitutions and casefolding.
func (t *Tokenizer) Normalize(text string) string {
	for _, v := range variantTable {
		text = strings.ReplaceAll(text, v.variant, v.standard)
	}
	return strings.ToLower(text)
}

// Tokenize normalizes and segments text, returning every segment with its
// rune length and indexability. Callers that track character positions must
// advance their cursor by Len for every token, including non-indexable ones.
func (t *Tokenizer) Tokenize(text string) []Token {
	normalized := t.Normalize(text)
	segments := t.seg.Segment(normalized)
	tokens := make([]Token, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:      seg,
			Len:       utf8.RuneCountInString(seg),
			Indexable: Indexable(seg),
		})
	}
	return tokens
}

// QueryTerms returns the indexable terms of a query, deduplicated in first
// occurrence order.
func (t *Tokenizer) QueryTerms(query string) []string {
	tokens := t.Tokenize(query)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.Indexable {
			continue
		}
		if _, dup := seen[tok.Term]; dup {
			continue
		}
		seen[tok.Term] = struct{}{}
		terms = append(terms, tok.Term)
	}
	return terms
}

// LastSegment normalizes and segments text and returns the final non-empty
// segment, used as the effective prefix for autocomplete.
func (t *Tokenizer) LastSegment(text string) string {
	segments := t.seg.Segment(t.Normalize(text))
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// Indexable reports whether a term is long enough and not a stop word.
func Indexable(term string) bool {
	if utf8.RuneCountInString(term) < minTermLen {
		return false
	}
	_, stop := stopWords[term]
	return !stop
}
