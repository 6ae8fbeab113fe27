// Package document defines the normalized document model produced by the
// extraction collaborators (word-processor, spreadsheet, and delimited-text
// parsers). The search core only ever reads these values; it never parses
// office formats itself.
package document

import "time"

// Table holds one table extracted from a section: a header row plus data
// rows. Row widths are not enforced against the header.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Section is one heading-delimited slice of a document. Position is the
// rune offset of the section within the document's concatenated text stream
// and is non-decreasing across a document's section list.
type Section struct {
	ID       string  `json:"id"`
	Heading  string  `json:"heading"`
	Level    int     `json:"level"`
	Content  string  `json:"content"`
	Tables   []Table `json:"tables,omitempty"`
	Position int     `json:"position"`
}

// Document is a fully parsed source file. Immutable once produced.
type Document struct {
	DocID    string         `json:"doc_id"`
	Title    string         `json:"title"`
	Filename string         `json:"filename"`
	Sections []Section      `json:"sections"`
	Metadata map[string]any `json:"metadata,omitempty"`
	ParsedAt time.Time      `json:"parsed_at"`
	FileHash string         `json:"file_hash"`
}

// IntMeta returns the named metadata value as an int, tolerating the
// numeric types JSON decoding produces. Missing or non-numeric values
// yield zero.
func (d *Document) IntMeta(key string) int {
	v, ok := d.Metadata[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// WordCount reports the word count recorded by the extraction layer.
func (d *Document) WordCount() int { return d.IntMeta("word_count") }

// SectionCount reports the number of sections, preferring the extraction
// layer's count when present.
func (d *Document) SectionCount() int {
	if n := d.IntMeta("section_count"); n > 0 {
		return n
	}
	return len(d.Sections)
}
