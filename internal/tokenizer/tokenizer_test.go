package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paylist-tw/docsearch/internal/tokenizer"
	"github.com/paylist-tw/docsearch/internal/tokenizer/tokenizertest"
)

func newTestTokenizer(words ...string) *tokenizer.Tokenizer {
	return tokenizer.New(tokenizertest.NewStubSegmenter(words...))
}

func TestNormalizeAppliesVariantsAndCasefolds(t *testing.T) {
	tok := newTestTokenizer()

	assert.Equal(t, "腫瘤", tok.Normalize("腫廇"))
	assert.Equal(t, "檢查", tok.Normalize("檢驗"))
	assert.Equal(t, "ct scan", tok.Normalize("CT Scan"))
	assert.Equal(t, "腫瘤檢查 mri", tok.Normalize("腫廇檢驗 MRI"))
}

func TestTokenizeMarksIndexability(t *testing.T) {
	tok := newTestTokenizer("門診", "診察")

	tokens := tok.Tokenize("門診的診察")
	require.Len(t, tokens, 3)

	assert.Equal(t, "門診", tokens[0].Term)
	assert.Equal(t, 2, tokens[0].Len)
	assert.True(t, tokens[0].Indexable)

	// Stop word: still reported so the position cursor can advance.
	assert.Equal(t, "的", tokens[1].Term)
	assert.Equal(t, 1, tokens[1].Len)
	assert.False(t, tokens[1].Indexable)

	assert.Equal(t, "診察", tokens[2].Term)
	assert.True(t, tokens[2].Indexable)
}

func TestTokenizeSingleRuneNotIndexable(t *testing.T) {
	tok := newTestTokenizer("費用")

	tokens := tok.Tokenize("費用表")
	require.Len(t, tokens, 2)
	assert.True(t, tokens[0].Indexable)
	assert.Equal(t, "表", tokens[1].Term)
	assert.False(t, tokens[1].Indexable)
}

func TestTokenLengthsPartitionInput(t *testing.T) {
	tok := newTestTokenizer("門診", "診察費")

	text := "門診 診察費之費用"
	total := 0
	for _, token := range tok.Tokenize(text) {
		total += token.Len
	}
	assert.Equal(t, len([]rune(text)), total)
}

func TestQueryTermsDedupesPreservingOrder(t *testing.T) {
	tok := newTestTokenizer("門診", "診察")

	terms := tok.QueryTerms("門診的診察門診")
	assert.Equal(t, []string{"門診", "診察"}, terms)
}

func TestQueryTermsNormalizesBeforeSegmenting(t *testing.T) {
	tok := newTestTokenizer("腫瘤", "檢查")

	terms := tok.QueryTerms("腫廇檢驗")
	assert.Equal(t, []string{"腫瘤", "檢查"}, terms)
}

func TestLastSegment(t *testing.T) {
	tok := newTestTokenizer("門診", "診察")

	assert.Equal(t, "診察", tok.LastSegment("門診診察"))
	assert.Equal(t, "門診", tok.LastSegment("門診"))
	assert.Equal(t, "", tok.LastSegment(""))
}

func TestIndexable(t *testing.T) {
	assert.False(t, tokenizer.Indexable("的"))
	assert.False(t, tokenizer.Indexable("表"))
	assert.True(t, tokenizer.Indexable("門診"))
	assert.True(t, tokenizer.Indexable("ct"))
}
