package search

import (
	"crypto/sha256"
	"sort"
	"strings"
)

// dedupePrefixLen is how much normalized content feeds the duplicate hash.
// Hashing a prefix catches the same paragraph surfacing through
// near-identical chunks without full-text comparison.
const dedupePrefixLen = 200

// Merge combines the three pools' results into the single ranking used
// downstream. It is a pure function: same inputs, same output, regardless
// of how the pool searches were scheduled.
//
// Each result's boosted similarity is its raw similarity plus the pool's
// authority boost. Results are concatenated in pool order (public, user,
// session), sorted descending by boosted similarity with ties keeping
// insertion order, then deduplicated keeping the first occurrence per
// content hash.
func Merge(public, user, session []Result) []Result {
	merged := make([]Result, 0, len(public)+len(user)+len(session))
	for _, group := range [][]Result{public, user, session} {
		for _, r := range group {
			r.Boosted = r.Similarity + r.Source.Boost()
			if r.SourceLabel == "" {
				r.SourceLabel = r.Source.Label()
			}
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Boosted > merged[j].Boosted
	})

	seen := make(map[[sha256.Size]byte]bool, len(merged))
	deduped := merged[:0]
	for _, r := range merged {
		h := contentHash(r.Content)
		if seen[h] {
			continue
		}
		seen[h] = true
		deduped = append(deduped, r)
	}
	return deduped
}

// contentHash hashes the first dedupePrefixLen characters of the
// lowercased, trimmed content. The prefix is measured in runes so a
// multi-byte character at the boundary is kept or dropped whole, never cut.
func contentHash(content string) [sha256.Size]byte {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if len(normalized) > dedupePrefixLen {
		if runes := []rune(normalized); len(runes) > dedupePrefixLen {
			normalized = string(runes[:dedupePrefixLen])
		}
	}
	return sha256.Sum256([]byte(normalized))
}
