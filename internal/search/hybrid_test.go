package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/solon0/solon/internal/log"
)

func TestHybrid_Search_MergesAllPools(t *testing.T) {
	defer goleak.VerifyNone(t)
	fake := &fakeSearcher{candidates: map[SourceType][]Candidate{
		SourcePublic:  {scored("pub", 0.80)},
		SourceUser:    {scored("usr", 0.80)},
		SourceSession: {scored("ses", 0.80)},
	}}
	h := NewHybrid(fake, log.NewNop())

	results := h.Search(context.Background(), []float32{1}, Params{
		OwnerID:         "user-1",
		SessionID:       "sess-1",
		IncludePublic:   true,
		IncludeUserDocs: true,
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	wantOrder := []SourceType{SourceSession, SourcePublic, SourceUser}
	for i, want := range wantOrder {
		if results[i].Source != want {
			t.Errorf("position %d source = %s, want %s", i, results[i].Source, want)
		}
	}
}

func TestHybrid_Search_Deterministic(t *testing.T) {
	fake := &fakeSearcher{candidates: map[SourceType][]Candidate{
		SourcePublic:  {scored("p1", 0.9), scored("p2", 0.7)},
		SourceUser:    {scored("u1", 0.85)},
		SourceSession: {scored("s1", 0.6)},
	}}
	h := NewHybrid(fake, log.NewNop())
	params := Params{
		OwnerID:         "user-1",
		SessionID:       "sess-1",
		IncludePublic:   true,
		IncludeUserDocs: true,
	}

	first := h.Search(context.Background(), []float32{1}, params)
	for i := 0; i < 20; i++ {
		again := h.Search(context.Background(), []float32{1}, params)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d results, first run had %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].ChunkID != first[j].ChunkID {
				t.Fatalf("run %d position %d: %s, first run had %s", i, j, again[j].ChunkID, first[j].ChunkID)
			}
		}
	}
}

func TestHybrid_Search_SkipsDisabledPools(t *testing.T) {
	fake := &fakeSearcher{candidates: map[SourceType][]Candidate{
		SourcePublic:  {scored("pub", 0.9)},
		SourceUser:    {scored("usr", 0.9)},
		SourceSession: {scored("ses", 0.9)},
	}}
	h := NewHybrid(fake, log.NewNop())

	results := h.Search(context.Background(), []float32{1}, Params{
		OwnerID:       "user-1",
		IncludePublic: true,
		// No user docs, no session.
	})

	if len(results) != 1 || results[0].Source != SourcePublic {
		t.Fatalf("got %v, want only the public result", results)
	}
	seen := fake.seenSources()
	if seen[SourceUser] || seen[SourceSession] {
		t.Errorf("disabled pools were searched: %v", seen)
	}
}

func TestHybrid_Search_UserPoolNeedsOwner(t *testing.T) {
	fake := &fakeSearcher{candidates: map[SourceType][]Candidate{
		SourceUser: {scored("usr", 0.9)},
	}}
	h := NewHybrid(fake, log.NewNop())

	results := h.Search(context.Background(), []float32{1}, Params{
		IncludeUserDocs: true,
	})

	if len(results) != 0 {
		t.Errorf("got %d results, want 0 without an owner", len(results))
	}
	if fake.seenSources()[SourceUser] {
		t.Error("user pool searched without an owner id")
	}
}

func TestHybrid_Search_FailedPoolDoesNotAbort(t *testing.T) {
	defer goleak.VerifyNone(t)
	fake := &fakeSearcher{
		candidates: map[SourceType][]Candidate{
			SourcePublic:  {scored("pub", 0.9)},
			SourceSession: {scored("ses", 0.8)},
		},
		err: map[SourceType]error{
			SourceUser: errors.New("pool down"),
		},
	}
	h := NewHybrid(fake, log.NewNop())

	results := h.Search(context.Background(), []float32{1}, Params{
		OwnerID:         "user-1",
		SessionID:       "sess-1",
		IncludePublic:   true,
		IncludeUserDocs: true,
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 from the surviving pools", len(results))
	}
	for _, r := range results {
		if r.Source == SourceUser {
			t.Errorf("failed pool contributed a result: %v", r)
		}
	}
}

func TestHybrid_Search_EmptyStore(t *testing.T) {
	h := NewHybrid(&fakeSearcher{}, log.NewNop())

	results := h.Search(context.Background(), []float32{1}, Params{
		OwnerID:         "user-1",
		SessionID:       "sess-1",
		IncludePublic:   true,
		IncludeUserDocs: true,
	})
	if len(results) != 0 {
		t.Errorf("got %d results from an empty store, want 0", len(results))
	}
}

func TestHybrid_Search_PoolBudgets(t *testing.T) {
	fake := &fakeSearcher{}
	h := NewHybrid(fake, log.NewNop())

	h.Search(context.Background(), []float32{1}, Params{
		OwnerID:         "user-1",
		SessionID:       "sess-1",
		IncludePublic:   true,
		IncludeUserDocs: true,
		Limit:           12,
	})

	fake.mu.Lock()
	defer fake.mu.Unlock()
	wantFetch := map[SourceType]int{
		SourcePublic:  6 * OversampleFactor,
		SourceUser:    6 * OversampleFactor,
		SourceSession: 4 * OversampleFactor,
	}
	for i, filter := range fake.filters {
		if fake.limits[i] != wantFetch[filter.Source] {
			t.Errorf("%s fetch limit = %d, want %d", filter.Source, fake.limits[i], wantFetch[filter.Source])
		}
	}
	if len(fake.filters) != 3 {
		t.Errorf("store called %d times, want 3", len(fake.filters))
	}
}
