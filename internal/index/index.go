// Package index defines the inverted-index data model: postings, the
// document directory, snapshot metadata, and the immutable Snapshot the
// search side reads. A Snapshot is never mutated after the builder hands it
// off; readers swap whole snapshots atomically.
package index

import "time"

// FormatVersion identifies the on-disk snapshot layout.
const FormatVersion = "1.0"

// Posting records one term's occurrences within one document.
type Posting struct {
	// Frequency counts occurrences across headings, body text, and tables.
	Frequency int `json:"frequency"`
	// Positions are rune offsets into the document's text stream, ascending.
	Positions []int `json:"positions"`
	// Sections lists the distinct section IDs the term occurs in, sorted.
	Sections []string `json:"sections"`
	// TitleFrequency counts occurrences inside section headings only.
	TitleFrequency int `json:"title_frequency"`
}

// DirectoryEntry summarizes one indexed document.
type DirectoryEntry struct {
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	WordCount    int       `json:"word_count"`
	SectionCount int       `json:"section_count"`
	ParsedAt     time.Time `json:"parsed_at"`
}

// Metadata describes a snapshot as a whole.
type Metadata struct {
	TotalDocuments int       `json:"total_documents"`
	TotalTerms     int       `json:"total_terms"`
	LastUpdate     time.Time `json:"last_update"`
	FormatVersion  string    `json:"format_version"`
}

// Snapshot is a complete, immutable index: the term postings, the document
// directory, and build metadata. TermFreqs is the aggregate occurrence count
// per term; it is derived from Terms and recomputed when a snapshot is
// loaded from disk rather than persisted.
type Snapshot struct {
	Terms     map[string]map[string]*Posting
	Directory map[string]DirectoryEntry
	Meta      Metadata
	TermFreqs map[string]int
}

// NewSnapshot returns an empty snapshot stamped with the current format
// version.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Terms:     make(map[string]map[string]*Posting),
		Directory: make(map[string]DirectoryEntry),
		Meta:      Metadata{FormatVersion: FormatVersion},
		TermFreqs: make(map[string]int),
	}
}

// ComputeTermFreqs rebuilds the aggregate term-frequency table from the
// postings.
func (s *Snapshot) ComputeTermFreqs() {
	s.TermFreqs = make(map[string]int, len(s.Terms))
	for term, docs := range s.Terms {
		total := 0
		for _, p := range docs {
			total += p.Frequency
		}
		s.TermFreqs[term] = total
	}
}

// Postings returns the per-document postings for a term, or nil when the
// term is not indexed.
func (s *Snapshot) Postings(term string) map[string]*Posting {
	return s.Terms[term]
}
