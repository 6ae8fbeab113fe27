// Package docstore archives parsed documents in postgres. The indexer
// upserts each extraction batch; searcher replicas load the archive at
// startup to warm their content caches without access to the extraction
// directory.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paylist-tw/docsearch/internal/document"
	"github.com/paylist-tw/docsearch/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS parsed_documents (
    doc_id      TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    filename    TEXT NOT NULL DEFAULT '',
    file_hash   TEXT NOT NULL DEFAULT '',
    content     JSONB NOT NULL,
    parsed_at   TIMESTAMPTZ,
    archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store reads and writes the parsed-document archive.
type Store struct {
	client *postgres.Client
	logger *slog.Logger
}

// New creates a Store over an existing postgres client.
func New(client *postgres.Client) *Store {
	return &Store{
		client: client,
		logger: slog.Default().With("component", "doc-store"),
	}
}

// EnsureSchema creates the archive table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating parsed_documents table: %w", err)
	}
	return nil
}

// SaveBatch upserts a whole extraction batch in one transaction. Documents
// already archived under the same doc_id are replaced.
func (s *Store) SaveBatch(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO parsed_documents (doc_id, title, filename, file_hash, content, parsed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (doc_id) DO UPDATE SET
				title = EXCLUDED.title,
				filename = EXCLUDED.filename,
				file_hash = EXCLUDED.file_hash,
				content = EXCLUDED.content,
				parsed_at = EXCLUDED.parsed_at,
				archived_at = now()`)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()

		for i := range docs {
			doc := &docs[i]
			content, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encoding document %s: %w", doc.DocID, err)
			}
			if _, err := stmt.ExecContext(ctx, doc.DocID, doc.Title, doc.Filename, doc.FileHash, content, doc.ParsedAt); err != nil {
				return fmt.Errorf("upserting document %s: %w", doc.DocID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("document batch archived", "documents", len(docs))
	return nil
}

// LoadAll streams every archived document back, typically to warm a content
// cache.
func (s *Store) LoadAll(ctx context.Context) ([]document.Document, error) {
	rows, err := s.client.DB.QueryContext(ctx, `SELECT content FROM parsed_documents ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("querying parsed_documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var content []byte
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning archived document: %w", err)
		}
		var doc document.Document
		if err := json.Unmarshal(content, &doc); err != nil {
			s.logger.Warn("skipping undecodable archived document", "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parsed_documents: %w", err)
	}
	return docs, nil
}
