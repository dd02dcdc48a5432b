package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/solon0/solon/internal/chunker"
)

// fakeAPI records embed calls and returns canned vectors or errors.
type fakeAPI struct {
	dimension int
	failAt    int // 1-based call index that fails; 0 = never
	calls     int
	taskTypes []string
	texts     []string
}

func (f *fakeAPI) EmbedContent(_ context.Context, _ string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.calls++
	if config != nil {
		f.taskTypes = append(f.taskTypes, config.TaskType)
	}
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.texts = append(f.texts, contents[0].Parts[0].Text)
	}
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, errors.New("provider unavailable")
	}
	dim := f.dimension
	if dim == 0 {
		dim = 4
	}
	values := make([]float32, dim)
	for i := range values {
		values[i] = float32(f.calls)
	}
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: values}},
	}, nil
}

func newTestGenerator(api embedAPI, dim int) *Generator {
	return newGenerator(api, Config{Model: "test-embedding", Dimension: dim}, nil)
}

func TestEmbedDocument_TaskType(t *testing.T) {
	api := &fakeAPI{dimension: 4}
	g := newTestGenerator(api, 4)

	if _, err := g.EmbedDocument(context.Background(), "some text"); err != nil {
		t.Fatalf("EmbedDocument() error = %v", err)
	}
	if _, err := g.EmbedQuery(context.Background(), "some query"); err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}

	want := []string{"RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY"}
	for i, tt := range want {
		if api.taskTypes[i] != tt {
			t.Errorf("call %d task type = %q, want %q", i, api.taskTypes[i], tt)
		}
	}
}

func TestEmbed_EmptyTextRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	g := newTestGenerator(api, 4)

	for _, text := range []string{"", "   \n\t"} {
		_, err := g.EmbedDocument(context.Background(), text)
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("EmbedDocument(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
	if api.calls != 0 {
		t.Errorf("empty input reached the provider: %d calls", api.calls)
	}
}

func TestEmbed_DimensionMismatchFailsLoudly(t *testing.T) {
	api := &fakeAPI{dimension: 3}
	g := newTestGenerator(api, 4)

	_, err := g.EmbedDocument(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "dimension") {
		t.Errorf("expected dimension error, got %v", err)
	}
}

func TestEmbed_TruncatesLongInput(t *testing.T) {
	api := &fakeAPI{dimension: 4}
	g := newTestGenerator(api, 4)

	long := strings.Repeat("w ", MaxEmbedChars) // well over the ceiling
	if _, err := g.EmbedDocument(context.Background(), long); err != nil {
		t.Fatalf("EmbedDocument() error = %v", err)
	}
	if got := len(api.texts[0]); got > MaxEmbedChars {
		t.Errorf("submitted %d chars, ceiling is %d", got, MaxEmbedChars)
	}
}

func TestEmbed_TruncationKeepsRunesWhole(t *testing.T) {
	api := &fakeAPI{dimension: 4}
	g := newTestGenerator(api, 4)

	// Three-byte runes, well over the ceiling: byte slicing would cut a
	// rune in half and send invalid UTF-8 to the provider.
	long := strings.Repeat("法", MaxEmbedChars+100)
	if _, err := g.EmbedDocument(context.Background(), long); err != nil {
		t.Fatalf("EmbedDocument() error = %v", err)
	}

	sent := api.texts[0]
	if !utf8.ValidString(sent) {
		t.Error("submitted text is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(sent); got != MaxEmbedChars {
		t.Errorf("submitted %d runes, want %d", got, MaxEmbedChars)
	}
}

func TestEmbedChunks_AttachesAllEmbeddings(t *testing.T) {
	api := &fakeAPI{dimension: 4}
	g := newTestGenerator(api, 4)

	chunks := []chunker.Chunk{
		{Text: "first chunk", Index: 0},
		{Text: "second chunk", Index: 1},
		{Text: "third chunk", Index: 2},
	}

	got, err := g.EmbedChunks(context.Background(), chunks)
	if err != nil {
		t.Fatalf("EmbedChunks() error = %v", err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("got %d chunks, want %d", len(got), len(chunks))
	}
	for i, ch := range got {
		if len(ch.Embedding) != 4 {
			t.Errorf("chunk %d embedding dimension = %d, want 4", i, len(ch.Embedding))
		}
	}
	// Input slice must not be mutated.
	for i, ch := range chunks {
		if ch.Embedding != nil {
			t.Errorf("input chunk %d was mutated", i)
		}
	}
}

func TestEmbedChunks_FailureNamesPositionAndAborts(t *testing.T) {
	api := &fakeAPI{dimension: 4, failAt: 2}
	g := newTestGenerator(api, 4)

	chunks := []chunker.Chunk{
		{Text: "first"}, {Text: "second"}, {Text: "third"},
	}

	_, err := g.EmbedChunks(context.Background(), chunks)
	if err == nil {
		t.Fatal("expected error on failing chunk")
	}
	if !strings.Contains(err.Error(), "chunk 2 of 3") {
		t.Errorf("error should name the failing position, got %v", err)
	}
	// Aborts: the third chunk is never submitted.
	if api.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (abort after failure)", api.calls)
	}
}
