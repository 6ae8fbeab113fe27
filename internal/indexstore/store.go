// Package indexstore persists index snapshots as three JSON artifacts in a
// single directory: the term postings, the document directory, and the
// build metadata. Writes go through a temp file and rename so a crashed
// build never leaves a half-written artifact behind.
package indexstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paylist-tw/docsearch/internal/index"
	apperrors "github.com/paylist-tw/docsearch/pkg/errors"
)

const (
	termsFile = "terms_index.json"
	docsFile  = "documents_index.json"
	metaFile  = "metadata.json"
)

// Store reads and writes snapshots under a base directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir. The directory is created on first Save.
func New(dir string) *Store {
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "index-store"),
	}
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string { return s.dir }

// Save writes all three artifacts. The aggregate term-frequency table is
// derived data and is not persisted.
func (s *Store) Save(ctx context.Context, snap *index.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := s.writeArtifact(ctx, termsFile, snap.Terms); err != nil {
		return err
	}
	if err := s.writeArtifact(ctx, docsFile, snap.Directory); err != nil {
		return err
	}
	if err := s.writeArtifact(ctx, metaFile, snap.Meta); err != nil {
		return err
	}
	s.logger.Info("snapshot persisted",
		"dir", s.dir,
		"documents", snap.Meta.TotalDocuments,
		"terms", snap.Meta.TotalTerms)
	return nil
}

// Load reads all three artifacts and rebuilds the derived term-frequency
// table. A directory with no snapshot yields ErrNoSnapshot; unreadable
// artifacts yield ErrSnapshotCorrupt.
func (s *Store) Load(ctx context.Context) (*index.Snapshot, error) {
	snap := index.NewSnapshot()
	if err := s.readArtifact(ctx, termsFile, &snap.Terms); err != nil {
		return nil, err
	}
	if err := s.readArtifact(ctx, docsFile, &snap.Directory); err != nil {
		return nil, err
	}
	if err := s.readArtifact(ctx, metaFile, &snap.Meta); err != nil {
		return nil, err
	}
	if snap.Meta.FormatVersion != index.FormatVersion {
		s.logger.Warn("snapshot format version mismatch",
			"found", snap.Meta.FormatVersion,
			"expected", index.FormatVersion)
	}
	snap.ComputeTermFreqs()
	s.logger.Info("snapshot loaded",
		"dir", s.dir,
		"documents", snap.Meta.TotalDocuments,
		"terms", snap.Meta.TotalTerms)
	return snap, nil
}

func (s *Store) writeArtifact(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	return nil
}

func (s *Store) readArtifact(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s missing: %w", name, apperrors.ErrNoSnapshot)
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, apperrors.ErrSnapshotCorrupt)
	}
	return nil
}
