// Package indexer builds complete index snapshots from parsed documents.
// Builds are full rebuilds: the builder never patches an existing snapshot,
// it produces a fresh one the caller installs and persists. A single busy
// flag serializes builds; a second Build while one is running is rejected,
// not queued.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/internal/index"
	"github.com/paylist-tw/docsearch/internal/tokenizer"
	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
	"github.com/paylist-tw/docsearch/pkg/metrics"
)

// Store persists finished snapshots.
type Store interface {
	Save(ctx context.Context, snap *index.Snapshot) error
}

// Builder turns a batch of documents into an index snapshot.
type Builder struct {
	tok      *tokenizer.Tokenizer
	store    Store
	building atomic.Bool
	logger   *slog.Logger
}

// NewBuilder creates a Builder. Store may be nil for in-memory-only use.
func NewBuilder(tok *tokenizer.Tokenizer, store Store) *Builder {
	return &Builder{
		tok:    tok,
		store:  store,
		logger: slog.Default().With("component", "index-builder"),
	}
}

// Building reports whether a build is currently running.
func (b *Builder) Building() bool {
	return b.building.Load()
}

// postingAccum accumulates one (term, doc) posting during a build; it is
// converted to an immutable index.Posting at the end.
type postingAccum struct {
	frequency      int
	positions      []int
	sections       map[string]struct{}
	titleFrequency int
}

// Build indexes every document and returns the finished snapshot. Any
// invalid document aborts the whole build; partial snapshots are never
// returned. When persistence fails the snapshot is still returned alongside
// the error, so the caller can keep serving it from memory.
func (b *Builder) Build(ctx context.Context, docs []document.Document) (*index.Snapshot, error) {
	if !b.building.CompareAndSwap(false, true) {
		return nil, apperrors.ErrBuildInProgress
	}
	defer b.building.Store(false)

	start := time.Now()
	b.logger.Info("starting index build", "documents", len(docs))

	accums := make(map[string]map[string]*postingAccum)
	snap := index.NewSnapshot()

	for i := range docs {
		if err := ctx.Err(); err != nil {
			metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("index build canceled: %w", err)
		}
		doc := &docs[i]
		if err := b.indexDocument(accums, snap, doc); err != nil {
			metrics.IndexBuildsTotal.WithLabelValues("error").Inc()
			b.logger.Error("index build aborted", "doc_id", doc.DocID, "error", err)
			return nil, err
		}
	}

	for term, byDoc := range accums {
		postings := make(map[string]*index.Posting, len(byDoc))
		for docID, acc := range byDoc {
			sort.Ints(acc.positions)
			sections := make([]string, 0, len(acc.sections))
			for id := range acc.sections {
				sections = append(sections, id)
			}
			sort.Strings(sections)
			postings[docID] = &index.Posting{
				Frequency:      acc.frequency,
				Positions:      acc.positions,
				Sections:       sections,
				TitleFrequency: acc.titleFrequency,
			}
		}
		snap.Terms[term] = postings
	}
	snap.ComputeTermFreqs()
	snap.Meta = index.Metadata{
		TotalDocuments: len(snap.Directory),
		TotalTerms:     len(snap.Terms),
		LastUpdate:     time.Now().UTC(),
		FormatVersion:  index.FormatVersion,
	}

	duration := time.Since(start)
	metrics.IndexBuildDuration.Observe(duration.Seconds())
	metrics.DocumentsIndexed.Set(float64(snap.Meta.TotalDocuments))
	metrics.IndexTermCount.Set(float64(snap.Meta.TotalTerms))

	if b.store != nil {
		if err := b.store.Save(ctx, snap); err != nil {
			metrics.IndexBuildsTotal.WithLabelValues("persist_error").Inc()
			b.logger.Error("snapshot persist failed", "error", err)
			return snap, fmt.Errorf("persisting snapshot: %w", err)
		}
	}

	metrics.IndexBuildsTotal.WithLabelValues("success").Inc()
	b.logger.Info("index build complete",
		"documents", snap.Meta.TotalDocuments,
		"terms", snap.Meta.TotalTerms,
		"duration", duration)
	return snap, nil
}

func (b *Builder) indexDocument(accums map[string]map[string]*postingAccum, snap *index.Snapshot, doc *document.Document) error {
	if doc.DocID == "" {
		return apperrors.Newf(apperrors.ErrInvalidInput, "document %q has no doc_id", doc.Filename)
	}
	snap.Directory[doc.DocID] = index.DirectoryEntry{
		Title:        doc.Title,
		Filename:     doc.Filename,
		WordCount:    doc.WordCount(),
		SectionCount: doc.SectionCount(),
		ParsedAt:     doc.ParsedAt,
	}

	for _, section := range doc.Sections {
		b.indexBlob(accums, doc.DocID, section.ID, section.Heading, section.Position, true)
		b.indexBlob(accums, doc.DocID, section.ID, section.Content, section.Position, false)
		for _, table := range section.Tables {
			for _, header := range table.Headers {
				b.indexBlob(accums, doc.DocID, section.ID, header, section.Position, false)
			}
			for _, row := range table.Rows {
				for _, cell := range row {
					b.indexBlob(accums, doc.DocID, section.ID, cell, section.Position, false)
				}
			}
		}
	}
	return nil
}

// indexBlob tokenizes one text blob and records postings. The position
// cursor starts at the section's recorded offset and advances by every
// segment's rune length, indexable or not.
func (b *Builder) indexBlob(accums map[string]map[string]*postingAccum, docID, sectionID, text string, base int, isTitle bool) {
	if text == "" {
		return
	}
	cursor := base
	for _, token := range b.tok.Tokenize(text) {
		if token.Indexable {
			byDoc := accums[token.Term]
			if byDoc == nil {
				byDoc = make(map[string]*postingAccum)
				accums[token.Term] = byDoc
			}
			acc := byDoc[docID]
			if acc == nil {
				acc = &postingAccum{sections: make(map[string]struct{})}
				byDoc[docID] = acc
			}
			acc.frequency++
			acc.positions = append(acc.positions, cursor)
			acc.sections[sectionID] = struct{}{}
			if isTitle {
				acc.titleFrequency++
			}
		}
		cursor += token.Len
	}
}
