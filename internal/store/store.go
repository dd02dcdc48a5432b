// Package store persists documents, their embedded chunks, and prompt
// templates in PostgreSQL with pgvector.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/solon0/solon/internal/chunker"
	"github.com/solon0/solon/internal/log"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrNotFound is returned when a requested row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("store: not found")

// Document processing status. Documents are inserted as processing and
// flip to completed only after every chunk row is committed, so searches
// never see a half-ingested document.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document is a stored document's metadata row. Chunk text and embeddings
// live in document_chunks.
type Document struct {
	ID          uuid.UUID
	OwnerID     string
	SessionID   string
	Filename    string
	FileType    string
	DisplayName string
	Description string
	Category    string
	IsPublic    bool
	IsActive    bool
	Status      string
	ChunkCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StoredChunk is a chunk row read back from the store.
type StoredChunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Content    string
	ChunkIndex int
	TokenCount int
}

// documentCols is the standard SELECT column list for scanDocument.
const documentCols = `id, owner_id, COALESCE(session_id, ''), filename, file_type,
	display_name, description, category, is_public, is_active, status,
	chunk_count, created_at, updated_at`

// Store is the PostgreSQL persistence layer.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates a Store over an existing connection pool.
func New(pool *pgxpool.Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// InsertDocument creates a document row in processing status and returns
// its id.
func (s *Store) InsertDocument(ctx context.Context, doc Document) (uuid.UUID, error) {
	if doc.OwnerID == "" {
		return uuid.Nil, fmt.Errorf("owner id is required")
	}
	var sessionID any
	if doc.SessionID != "" {
		sessionID = doc.SessionID
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (owner_id, session_id, filename, file_type,
		     display_name, description, category, is_public, is_active, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		doc.OwnerID, sessionID, doc.Filename, doc.FileType,
		doc.DisplayName, doc.Description, doc.Category,
		doc.IsPublic, doc.IsActive, StatusProcessing,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

// InsertChunks stores a document's embedded chunks and marks the document
// completed, in one transaction. Every chunk must carry an embedding.
func (s *Store) InsertChunks(ctx context.Context, documentID uuid.UUID, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to insert")
	}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d has no embedding", c.Index)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		keywords := c.Keywords
		if keywords == nil {
			// pgx encodes a nil slice as SQL NULL; the column is NOT NULL.
			keywords = []string{}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (document_id, chunk_index, content, embedding,
			     token_count, character_count, word_count,
			     chapter_title, section_title, keywords)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			documentID, c.Index, c.Text, pgvector.NewVector(c.Embedding),
			c.TokenCount, c.CharacterCount, c.WordCount,
			c.ChapterTitle, c.SectionTitle, keywords,
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE documents
		 SET status = $2, chunk_count = $3, updated_at = now()
		 WHERE id = $1`,
		documentID, StatusCompleted, len(chunks))
	if err != nil {
		return fmt.Errorf("completing document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("completing document: %w", ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// MarkDocumentFailed flips a document to failed status after an ingestion
// error. Best effort: a document stuck in processing is also invisible to
// search.
func (s *Store) MarkDocumentFailed(ctx context.Context, documentID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`,
		documentID, StatusFailed)
	if err != nil {
		return fmt.Errorf("marking document failed: %w", err)
	}
	return nil
}

// GetDocument fetches one document by id.
func (s *Store) GetDocument(ctx context.Context, documentID uuid.UUID) (*Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents WHERE id = $1`, documentID)
	return scanDocument(row)
}

// ListDocuments returns the owner's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]*Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentCols+`
		 FROM documents
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetChunks returns up to limit of a document's chunks in index order.
// limit <= 0 returns all chunks.
func (s *Store) GetChunks(ctx context.Context, documentID uuid.UUID, limit int) ([]StoredChunk, error) {
	sql := `SELECT id, document_id, content, chunk_index, token_count
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index`
	args := []any{documentID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var c StoredChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.ChunkIndex, &c.TokenCount); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteDocument removes a document the owner controls, cascading to its
// chunks. Returns ErrNotFound when no owned row matched.
func (s *Store) DeleteDocument(ctx context.Context, documentID uuid.UUID, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		documentID, ownerID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.SessionID, &d.Filename, &d.FileType,
		&d.DisplayName, &d.Description, &d.Category, &d.IsPublic, &d.IsActive,
		&d.Status, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &d, nil
}
