// Package chunkstore stores embedded text chunks in an in-memory DuckDB
// database, one logical index per artifact. Nothing survives a process
// restart; DuckDB is used for memory efficiency with large corpora, not
// persistence.
package chunkstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Store is a DuckDB-backed chunk store.
type Store struct {
	db *sql.DB

	mu  sync.Mutex
	seq int64
}

// New creates an in-memory chunk store.
func New() (*Store, error) {
	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("creating DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE chunks (
			seq         BIGINT NOT NULL,
			artifact_id VARCHAR NOT NULL,
			source      VARCHAR NOT NULL,
			kind        VARCHAR NOT NULL,
			page        INTEGER,
			content     VARCHAR NOT NULL,
			embedding   BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert appends chunks in order. Embeddings must already be populated.
func (s *Store) Insert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (seq, artifact_id, source, kind, page, content, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	s.mu.Lock()
	base := s.seq
	s.seq += int64(len(chunks))
	s.mu.Unlock()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			base+int64(i), c.ArtifactID, c.Source, string(c.Type), c.Page, c.Content,
			encodeEmbedding(c.Embedding),
		); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

// ArtifactIDs returns the distinct artifact ids in insertion order.
func (s *Store) ArtifactIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artifact_id FROM chunks GROUP BY artifact_id ORDER BY min(seq)`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChunksFor returns all chunks of one artifact in insertion order.
func (s *Store) ChunksFor(ctx context.Context, artifactID string) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT artifact_id, source, kind, page, content, embedding
		 FROM chunks WHERE artifact_id = ? ORDER BY seq`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var kind string
		var blob []byte
		if err := rows.Scan(&c.ArtifactID, &c.Source, &kind, &c.Page, &c.Content, &blob); err != nil {
			return nil, err
		}
		c.Type = models.CitationType(kind)
		c.Embedding = decodeEmbedding(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n)
	return n, err
}

// Clear drops every chunk (the /clear_db operation).
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks`)
	return err
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Embeddings travel as little-endian float32 blobs.

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
