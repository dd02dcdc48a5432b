// Package search implements pool-scoped retrieval over the chunk store and
// the hybrid merge that combines the three pools into one ranking.
//
// Three pools exist: the public knowledge base, the requesting user's
// private documents, and documents uploaded in the current chat session.
// Each pool search is independent and failure-isolated; the merge is a pure
// function of the three candidate lists and the boost table, so the final
// ranking is stable regardless of pool completion order.
package search

import "fmt"

// SourceType identifies the document pool a result came from.
type SourceType string

const (
	SourcePublic  SourceType = "public"
	SourceUser    SourceType = "user"
	SourceSession SourceType = "session"
)

// Authority boosts added to raw similarity per pool. Session documents are
// presumptively most relevant to the immediate conversation; public sources
// outrank a user's private documents for general legal grounding.
const (
	boostPublic  = 0.10
	boostUser    = 0.05
	boostSession = 0.15
)

// Boost returns the authority boost for the pool. Unknown source types
// boost nothing.
func (s SourceType) Boost() float64 {
	switch s {
	case SourcePublic:
		return boostPublic
	case SourceUser:
		return boostUser
	case SourceSession:
		return boostSession
	default:
		return 0
	}
}

// Label returns the human-readable pool name used in source attribution.
func (s SourceType) Label() string {
	switch s {
	case SourcePublic:
		return "Legal Knowledge Base"
	case SourceUser:
		return "Your Documents"
	case SourceSession:
		return "Current Session Documents"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known pool.
func (s SourceType) Valid() bool {
	switch s {
	case SourcePublic, SourceUser, SourceSession:
		return true
	}
	return false
}

// Candidate is a raw chunk row fetched from the store before thresholding
// and ranking. When the store scored the row server-side, Scored is true
// and Similarity holds the score; otherwise Embedding is present and the
// pool computes cosine similarity in-process.
type Candidate struct {
	ChunkID          string
	DocumentID       string
	Content          string
	ChunkIndex       int
	Embedding        []float32
	Similarity       float64
	Scored           bool
	DocumentTitle    string
	DocumentCategory string
}

// Result wraps a candidate with query-time ranking fields. Results are
// ephemeral: never persisted, recomputed per query.
type Result struct {
	ChunkID          string
	DocumentID       string
	Content          string
	ChunkIndex       int
	DocumentTitle    string
	DocumentCategory string

	Source      SourceType
	SourceLabel string

	// Similarity is the raw cosine similarity in [0,1].
	Similarity float64

	// Boosted is Similarity + Source.Boost(), the sort key of the merged
	// ranking.
	Boosted float64
}

func (r Result) String() string {
	return fmt.Sprintf("%s/%s sim=%.3f boosted=%.3f", r.Source, r.DocumentTitle, r.Similarity, r.Boosted)
}
