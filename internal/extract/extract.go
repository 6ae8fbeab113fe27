// Package extract orchestrates turning a directory of source files into
// normalized documents. Heavy format parsing lives behind the Parser
// interface; the shipped parser reads the normalized JSON model emitted by
// the external extraction tooling. Files are parsed independently on a
// bounded worker pool, and individual failures are skipped with a warning
// rather than failing the batch.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paylist-tw/docsearch/internal/document"
)

// DefaultWorkers bounds parse parallelism when the caller does not choose.
const DefaultWorkers = 4

// Parser turns one source file into a normalized document.
type Parser interface {
	Supports(filename string) bool
	Parse(path string) (*document.Document, error)
}

// Runner scans a directory and parses every supported file.
type Runner struct {
	parsers []Parser
	workers int
	logger  *slog.Logger
}

// NewRunner creates a Runner over the given parsers. workers <= 0 selects
// the default pool size.
func NewRunner(workers int, parsers ...Parser) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{
		parsers: parsers,
		workers: workers,
		logger:  slog.Default().With("component", "extract"),
	}
}

// Run parses every supported file under dir and returns the batch sorted by
// document ID. Unreadable or malformed files are logged and skipped; only a
// missing directory or a canceled context fails the run.
func (r *Runner) Run(ctx context.Context, dir string) ([]document.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}

	var (
		mu   sync.Mutex
		docs []document.Document
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parser := r.parserFor(entry.Name())
		if parser == nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := parser.Parse(path)
			if err != nil {
				r.logger.Warn("skipping unparsable file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			docs = append(docs, *doc)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction canceled: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	r.logger.Info("extraction complete", "dir", dir, "documents", len(docs))
	return docs, nil
}

func (r *Runner) parserFor(filename string) Parser {
	for _, p := range r.parsers {
		if p.Supports(filename) {
			return p
		}
	}
	return nil
}

// JSONParser reads documents already in the normalized model.
type JSONParser struct{}

// Supports accepts .json files.
func (JSONParser) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// Parse decodes one normalized document. A file with no doc_id falls back
// to its own name stem so re-extraction of the same file stays stable.
func (JSONParser) Parse(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if doc.DocID == "" {
		base := filepath.Base(path)
		doc.DocID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &doc, nil
}
