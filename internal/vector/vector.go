// Package vector provides the in-process similarity math used when chunk
// candidates arrive from the store without a server-side similarity score.
//
// The primary search path delegates scoring to pgvector; this package is the
// fallback for stores (or store revisions) without a native vector index,
// and the reference implementation the ranking tests are written against.
package vector

import "math"

// Dimension is the embedding dimensionality produced by the configured
// Gemini embedding model and enforced by the document_chunks schema.
const Dimension = 768

// Cosine returns the cosine similarity between a and b, clamped to [0, 1].
//
// Embeddings in this domain are not meaningfully anti-correlated, so
// negative cosine values are clipped to 0 rather than allowed to produce
// negative boosted scores downstream.
//
// Degenerate inputs are defined, not errors: a zero-magnitude vector or a
// dimension mismatch yields 0. Callers treat a mismatch as a data-integrity
// warning (see search.Pool).
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		// Floating point drift can push identical vectors slightly above 1.
		return 1
	}
	return sim
}
