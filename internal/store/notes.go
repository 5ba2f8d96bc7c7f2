package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lab271/sensorkb/internal/kb"
)

// AddNote persists a knowledge note for a sensor. The sensor must exist;
// the note id is generated when empty.
func (s *Store) AddNote(ctx context.Context, note kb.KnowledgeNote) (*kb.KnowledgeNote, error) {
	if err := s.checkDim(note.Vector); err != nil {
		return nil, err
	}
	if note.Content == "" {
		return nil, fmt.Errorf("note content must not be empty")
	}
	if _, err := s.GetSensor(ctx, note.OwnerID); err != nil {
		return nil, err
	}

	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	var blob []byte
	if note.Vector != nil {
		blob = encodeVector(note.Vector)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, sensor_id, content, vector, created_at) VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.OwnerID, note.Content, blob, note.CreatedAt,
	)
	if err != nil {
		return nil, kb.WrapStorage("insert note", err)
	}
	return &note, nil
}

// GetNote returns a note by id, or kb.ErrNotFound.
func (s *Store) GetNote(ctx context.Context, id string) (*kb.KnowledgeNote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sensor_id, content, vector, created_at FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note %s: %w", id, kb.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotes returns notes for a sensor (all sensors when ownerID is
// empty), optionally restricted to a creation-time window, ordered by
// creation time.
func (s *Store) ListNotes(ctx context.Context, ownerID string, from, to time.Time) ([]kb.KnowledgeNote, error) {
	query := `SELECT id, sensor_id, content, vector, created_at FROM notes WHERE 1=1`
	var args []any
	if ownerID != "" {
		query += ` AND sensor_id = ?`
		args = append(args, ownerID)
	}
	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kb.WrapStorage("list notes", err)
	}
	defer rows.Close()

	var notes []kb.KnowledgeNote
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note by id.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return kb.WrapStorage("delete note", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("note %s: %w", id, kb.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*kb.KnowledgeNote, error) {
	var note kb.KnowledgeNote
	var blob []byte
	err := row.Scan(&note.ID, &note.OwnerID, &note.Content, &blob, &note.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, kb.WrapStorage("scan note", err)
	}
	if len(blob) > 0 {
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, kb.WrapStorage("decode note vector", err)
		}
		note.Vector = vec
	}
	return &note, nil
}
