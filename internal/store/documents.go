package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lab271/sensorkb/internal/kb"
)

// ReplaceDocument atomically writes a document and its full chunk set,
// removing any prior version first. Readers see either the old chunk set
// or the new one, never a mix; a cancelled context rolls the whole write
// back.
func (s *Store) ReplaceDocument(ctx context.Context, doc kb.Document, chunks []kb.Chunk) error {
	// Validation never reaches storage: check every vector up front.
	for _, c := range chunks {
		if err := s.checkDim(c.Vector); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		if c.Text == "" {
			return fmt.Errorf("chunk %s: empty text", c.ID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kb.WrapStorage("replace document", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return kb.WrapStorage("delete old chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return kb.WrapStorage("delete old document", err)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, title, source_type, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, string(doc.SourceType), doc.Content, doc.CreatedAt,
	); err != nil {
		return kb.WrapStorage("insert document", err)
	}

	for _, c := range chunks {
		var blob []byte
		if c.Vector != nil {
			blob = encodeVector(c.Vector)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, document_id, seq, body, vector) VALUES (?, ?, ?, ?, ?)`,
			c.ID, doc.ID, c.Sequence, c.Text, blob,
		); err != nil {
			return kb.WrapStorage("insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return kb.WrapStorage("commit document", err)
	}
	return nil
}

// GetDocument returns the document with the given id, or kb.ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (*kb.Document, error) {
	var doc kb.Document
	var srcType string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, source_type, content, created_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Title, &srcType, &doc.Content, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document %s: %w", id, kb.ErrNotFound)
	}
	if err != nil {
		return nil, kb.WrapStorage("get document", err)
	}
	doc.SourceType = kb.SourceType(srcType)
	return &doc, nil
}

// ListDocuments returns all documents in insertion order.
func (s *Store) ListDocuments(ctx context.Context) ([]kb.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, source_type, content, created_at FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, kb.WrapStorage("list documents", err)
	}
	defer rows.Close()

	var docs []kb.Document
	for rows.Next() {
		var doc kb.Document
		var srcType string
		if err := rows.Scan(&doc.ID, &doc.Title, &srcType, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, kb.WrapStorage("scan document", err)
		}
		doc.SourceType = kb.SourceType(srcType)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetChunks returns the chunks of a document ordered by sequence number.
// The document must exist.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]kb.Chunk, error) {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, seq, body, vector FROM chunks WHERE document_id = ? ORDER BY seq`,
		documentID)
	if err != nil {
		return nil, kb.WrapStorage("get chunks", err)
	}
	defer rows.Close()

	var chunks []kb.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteDocument removes a document and cascades to its chunks. Returns
// kb.ErrNotFound for an unknown id.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return kb.WrapStorage("delete document", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return kb.WrapStorage("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return kb.WrapStorage("delete document", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, kb.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return kb.WrapStorage("delete chunks", err)
	}

	if err := tx.Commit(); err != nil {
		return kb.WrapStorage("commit delete", err)
	}
	return nil
}

func scanChunk(rows *sql.Rows) (kb.Chunk, error) {
	var c kb.Chunk
	var blob []byte
	if err := rows.Scan(&c.ID, &c.DocumentID, &c.Sequence, &c.Text, &blob); err != nil {
		return kb.Chunk{}, kb.WrapStorage("scan chunk", err)
	}
	if len(blob) > 0 {
		vec, err := decodeVector(blob)
		if err != nil {
			return kb.Chunk{}, kb.WrapStorage("decode chunk vector", err)
		}
		c.Vector = vec
	}
	return c, nil
}
