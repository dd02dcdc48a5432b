package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/solon0/solon/internal/search"
)

// SearchChunks finds the chunks nearest to queryVec inside one document
// pool. Similarity is scored server-side by pgvector, so the candidates
// come back with Scored set and no embedding payload.
//
// Pool visibility:
//   - public: is_public AND is_active documents, optionally filtered by
//     category;
//   - user: the owner's private, non-session documents;
//   - session: documents uploaded in the given session.
//
// Only completed documents are visible in any pool.
func (s *Store) SearchChunks(ctx context.Context, f search.Filter, queryVec []float32, fetchLimit int) ([]search.Candidate, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if fetchLimit <= 0 {
		return nil, nil
	}

	where, args, err := chunkFilterClause(f)
	if err != nil {
		return nil, err
	}

	// $1 is the query vector, $2 the limit; filter args follow.
	sql := `SELECT c.id, c.document_id, c.content, c.chunk_index,
	            d.display_name, d.category,
	            1 - (c.embedding <=> $1) AS similarity
	        FROM document_chunks c
	        JOIN documents d ON d.id = c.document_id
	        WHERE d.status = 'completed' AND ` + where + `
	        ORDER BY c.embedding <=> $1
	        LIMIT $2`

	queryArgs := append([]any{pgvector.NewVector(queryVec), fetchLimit}, args...)
	rows, err := s.pool.Query(ctx, sql, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("searching %s pool: %w", f.Source, err)
	}
	defer rows.Close()

	var candidates []search.Candidate
	for rows.Next() {
		var c search.Candidate
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Content, &c.ChunkIndex,
			&c.DocumentTitle, &c.DocumentCategory, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c.Scored = true
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// chunkFilterClause translates a pool filter into a WHERE fragment with
// positional args starting at $3 ($1 and $2 are reserved for the query
// vector and limit).
func chunkFilterClause(f search.Filter) (string, []any, error) {
	switch f.Source {
	case search.SourcePublic:
		if len(f.Categories) > 0 {
			return "d.is_public AND d.is_active AND d.category = ANY($3)",
				[]any{f.Categories}, nil
		}
		return "d.is_public AND d.is_active", nil, nil

	case search.SourceUser:
		if f.OwnerID == "" {
			return "", nil, fmt.Errorf("user pool search requires an owner id")
		}
		return "d.owner_id = $3 AND NOT d.is_public AND d.session_id IS NULL",
			[]any{f.OwnerID}, nil

	case search.SourceSession:
		if f.SessionID == "" {
			return "", nil, fmt.Errorf("session pool search requires a session id")
		}
		return "d.session_id = $3", []any{f.SessionID}, nil

	default:
		return "", nil, fmt.Errorf("unknown source type %q", f.Source)
	}
}
