package searcher

import (
	"strings"

	"github.com/paylist-tw/docsearch/internal/document"
)

// snippetRadius is the number of runes of context kept on each side of a
// hit position.
const snippetRadius = 60

// sectionRange maps a [start, end) rune range of the concatenated text
// stream back to the section occupying it.
type sectionRange struct {
	start, end int
	id         string
	title      string
}

// extractMatches renders highlighted snippets for the given hit positions.
// Best-effort: a document absent from the content cache yields no matches,
// and the caller keeps the document's score regardless.
func (e *Engine) extractMatches(docID, term string, positions []int) []Match {
	if e.content == nil || len(positions) == 0 {
		return nil
	}
	doc, ok := e.content.Get(docID)
	if !ok || doc == nil {
		return nil
	}

	stream, ranges := concatSections(doc)
	termLen := len([]rune(term))

	matches := make([]Match, 0, len(positions))
	for _, pos := range positions {
		start := pos - snippetRadius
		if start < 0 {
			start = 0
		}
		end := pos + termLen + snippetRadius
		if end > len(stream) {
			end = len(stream)
		}
		if start > len(stream) {
			start = len(stream)
		}

		snippet := strings.ReplaceAll(string(stream[start:end]), term, "<mark>"+term+"</mark>")

		sectionID, sectionTitle := "unknown", ""
		for _, r := range ranges {
			if r.start <= pos && pos < r.end {
				sectionID, sectionTitle = r.id, r.title
				break
			}
		}

		matches = append(matches, Match{
			SectionID:    sectionID,
			SectionTitle: sectionTitle,
			Snippet:      "..." + snippet + "...",
			Position:     pos,
			Score:        scoreContentExact,
		})
	}
	return matches
}

// concatSections joins each section's heading and body, space-separated and
// newline-terminated, into one rune stream, recording the range each
// section occupies.
func concatSections(doc *document.Document) ([]rune, []sectionRange) {
	var stream []rune
	ranges := make([]sectionRange, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		text := []rune(section.Heading + " " + section.Content)
		ranges = append(ranges, sectionRange{
			start: len(stream),
			end:   len(stream) + len(text),
			id:    section.ID,
			title: section.Heading,
		})
		stream = append(stream, text...)
		stream = append(stream, '\n')
	}
	return stream, ranges
}
