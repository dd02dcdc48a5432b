package search

import (
	"context"
	"sort"

	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/vector"
)

// OversampleFactor is how many candidates are fetched per requested result,
// leaving room for threshold filtering. It also bounds the in-process
// cosine scan on the fallback path.
const OversampleFactor = 3

// DefaultThreshold is the minimum raw similarity a candidate needs to
// survive filtering. Lower values trade precision for recall.
const DefaultThreshold = 0.5

// Filter selects which chunks a pool search may see.
type Filter struct {
	// Source selects the pool and its visibility rules:
	// public → is_public AND is_active documents, optionally by category;
	// user → documents owned by OwnerID with private visibility;
	// session → documents scoped to SessionID regardless of owner.
	Source     SourceType
	OwnerID    string
	SessionID  string
	Categories []string
}

// ChunkSearcher is the store-side contract a pool searches through.
// Implementations return candidates matching the filter, best-first when
// the store scores server-side, in any order otherwise.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, f Filter, queryVec []float32, fetchLimit int) ([]Candidate, error)
}

// Pool searches one document pool. Safe for concurrent use.
type Pool struct {
	searcher ChunkSearcher
	source   SourceType
	logger   log.Logger
}

// NewPool creates a pool adapter for the given source type.
func NewPool(searcher ChunkSearcher, source SourceType, logger log.Logger) *Pool {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pool{
		searcher: searcher,
		source:   source,
		logger:   logger.With("pool", string(source)),
	}
}

// Search returns up to limit results above threshold, best-first.
//
// A store failure yields an empty result set, not an error: partial pool
// availability is an expected condition and must never abort the overall
// hybrid search. The failure is logged for diagnosis.
func (p *Pool) Search(ctx context.Context, queryVec []float32, f Filter, limit int, threshold float64) []Result {
	if limit <= 0 {
		return nil
	}
	f.Source = p.source

	candidates, err := p.searcher.SearchChunks(ctx, f, queryVec, limit*OversampleFactor)
	if err != nil {
		p.logger.Warn("pool search failed, continuing without this pool", "error", err)
		return nil
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		sim := c.Similarity
		if !c.Scored {
			// Fallback path: the store returned unscored rows.
			if len(c.Embedding) != len(queryVec) {
				p.logger.Warn("embedding dimension mismatch, scoring 0",
					"chunk_id", c.ChunkID,
					"got", len(c.Embedding),
					"want", len(queryVec))
			}
			sim = vector.Cosine(queryVec, c.Embedding)
		}
		sim = clamp01(sim)
		if sim < threshold {
			continue
		}
		results = append(results, Result{
			ChunkID:          c.ChunkID,
			DocumentID:       c.DocumentID,
			Content:          c.Content,
			ChunkIndex:       c.ChunkIndex,
			DocumentTitle:    c.DocumentTitle,
			DocumentCategory: c.DocumentCategory,
			Source:           p.source,
			SourceLabel:      p.source.Label(),
			Similarity:       sim,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
