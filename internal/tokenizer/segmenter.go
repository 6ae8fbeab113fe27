package tokenizer

import (
	"fmt"

	"github.com/go-ego/gse"
)

// DictSegmenter wraps the gse dictionary segmenter. It is safe for
// concurrent use once loaded.
type DictSegmenter struct {
	seg gse.Segmenter
}

// NewDictSegmenter loads the embedded traditional-Chinese dictionary.
func NewDictSegmenter() (*DictSegmenter, error) {
	var seg gse.Segmenter
	if err := seg.LoadDictEmbed("zh_t"); err != nil {
		return nil, fmt.Errorf("loading segmentation dictionary: %w", err)
	}
	return &DictSegmenter{seg: seg}, nil
}

// Segment cuts text into dictionary words using hidden-Markov-model
// recognition for out-of-vocabulary runs.
func (d *DictSegmenter) Segment(text string) []string {
	return d.seg.Cut(text, true)
}
