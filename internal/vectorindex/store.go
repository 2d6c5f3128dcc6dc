package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		position INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		vector BLOB NOT NULL
	)
`

// Store writes an index file. Rows are position-aligned: row i holds the
// metadata and vector of document i.
type Store struct {
	db *sql.DB
}

// CreateStore opens path for writing, creating the file and schema if needed.
func CreateStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Replace swaps the stored documents for docs in a single transaction.
func (s *Store) Replace(ctx context.Context, docs []Document, vectors [][]float32) (err error) {
	if len(docs) != len(vectors) {
		return fmt.Errorf("%d documents but %d vectors", len(docs), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (position, title, url, description, vector)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if _, err = stmt.ExecContext(ctx, i, doc.Title, doc.URL, doc.Description, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func readAll(ctx context.Context, db *sql.DB) ([]Document, [][]float32, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT title, url, description, vector
		FROM documents
		ORDER BY position
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var (
		docs    []Document
		vectors [][]float32
	)
	for rows.Next() {
		var doc Document
		var raw []byte
		if err := rows.Scan(&doc.Title, &doc.URL, &doc.Description, &raw); err != nil {
			return nil, nil, fmt.Errorf("scan document: %w", err)
		}
		vec, err := decodeVector(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", len(docs), err)
		}
		docs = append(docs, doc)
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, vectors, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, errors.New("vector blob length is not a multiple of 4")
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
