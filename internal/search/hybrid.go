package search

import (
	"context"
	"sync"

	"github.com/solon0/solon/internal/log"
)

// DefaultLimit is the total result budget of a hybrid search when the
// caller does not specify one.
const DefaultLimit = 10

// Params scope one hybrid search.
type Params struct {
	// OwnerID is the requesting user; scopes the user pool.
	OwnerID string

	// SessionID scopes the session pool. Empty skips the session pool.
	SessionID string

	// IncludePublic and IncludeUserDocs toggle their pools.
	IncludePublic   bool
	IncludeUserDocs bool

	// Categories optionally narrows the public pool.
	Categories []string

	// Limit is the overall result budget, split across pools. Default:
	// DefaultLimit.
	Limit int

	// Threshold is the minimum raw similarity. Default: DefaultThreshold.
	Threshold float64
}

func (p Params) withDefaults() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Threshold <= 0 {
		p.Threshold = DefaultThreshold
	}
	return p
}

// Hybrid searches the three pools and merges their results into one
// ranking. Safe for concurrent use.
type Hybrid struct {
	public  *Pool
	user    *Pool
	session *Pool
	logger  log.Logger
}

// NewHybrid creates a Hybrid searcher over one chunk store.
func NewHybrid(searcher ChunkSearcher, logger log.Logger) *Hybrid {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Hybrid{
		public:  NewPool(searcher, SourcePublic, logger),
		user:    NewPool(searcher, SourceUser, logger),
		session: NewPool(searcher, SourceSession, logger),
		logger:  logger,
	}
}

// Search runs the enabled pool searches concurrently and merges their
// results. The pools are independent: they have no required relative
// ordering, and a failed pool contributes an empty list (already handled
// inside Pool.Search). The merge is deterministic regardless of which pool
// finishes first.
//
// Per-pool budgets: half the limit each for public and user, a third for
// session.
func (h *Hybrid) Search(ctx context.Context, queryVec []float32, p Params) []Result {
	p = p.withDefaults()

	var public, user, session []Result
	var wg sync.WaitGroup

	if p.IncludePublic {
		wg.Add(1)
		go func() {
			defer wg.Done()
			public = h.public.Search(ctx, queryVec, Filter{Categories: p.Categories}, p.Limit/2, p.Threshold)
		}()
	}
	if p.IncludeUserDocs && p.OwnerID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user = h.user.Search(ctx, queryVec, Filter{OwnerID: p.OwnerID}, p.Limit/2, p.Threshold)
		}()
	}
	if p.SessionID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session = h.session.Search(ctx, queryVec, Filter{SessionID: p.SessionID}, p.Limit/3, p.Threshold)
		}()
	}
	wg.Wait()

	merged := Merge(public, user, session)
	h.logger.Debug("hybrid search merged",
		"public", len(public),
		"user", len(user),
		"session", len(session),
		"merged", len(merged))
	return merged
}
