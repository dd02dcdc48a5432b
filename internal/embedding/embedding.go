// Package embedding converts text into fixed-dimension vectors through the
// Gemini embedding API.
//
// Document and query embeddings use distinct task types (asymmetric
// embedding): documents are embedded for retrieval storage, queries for
// retrieval lookup. Batch generation is rate-paced between batches to
// respect external quota; this is backpressure, not polish.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/solon0/solon/internal/chunker"
	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/vector"
)

// Task types understood by the Gemini embedding API.
const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// MaxEmbedChars is the conservative character ceiling applied before text is
// submitted to the embedding model. Longer inputs are truncated, and the
// truncation is logged rather than silently dropped.
const MaxEmbedChars = 20000

// DefaultBatchSize bounds how many chunks are embedded between pacing
// pauses.
const DefaultBatchSize = 10

// ErrEmptyText indicates embedding was requested for empty input. Rejected
// locally, never sent to the provider.
var ErrEmptyText = errors.New("embedding text is empty")

// embedAPI is the slice of the genai client the generator needs.
// *genai.Models satisfies it; tests supply fakes.
type embedAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config controls the embedding generator.
type Config struct {
	// Model is the embedding model identifier.
	Model string

	// Dimension is the expected output dimensionality. Responses with a
	// different dimension fail loudly; they must never silently score 0.
	Dimension int

	// BatchSize bounds chunks embedded between pacing pauses.
	// Default: DefaultBatchSize.
	BatchSize int

	// Limiter paces batch submission. nil disables pacing (tests).
	Limiter *rate.Limiter
}

// Generator produces embeddings for chunks and queries.
// Safe for concurrent use.
type Generator struct {
	api       embedAPI
	model     string
	dimension int
	batchSize int
	limiter   *rate.Limiter
	logger    log.Logger
}

// NewGenerator creates a Generator backed by a genai client.
func NewGenerator(client *genai.Client, cfg Config, logger log.Logger) *Generator {
	return newGenerator(client.Models, cfg, logger)
}

// newGenerator is the fake-friendly constructor used by tests.
func newGenerator(api embedAPI, cfg Config, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = vector.Dimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Generator{
		api:       api,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		limiter:   cfg.Limiter,
		logger:    logger,
	}
}

// EmbedDocument embeds a single document text.
func (g *Generator) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, taskDocument)
}

// EmbedQuery embeds a search query. Queries use a distinct task type from
// documents so the model places them in the matching retrieval space.
func (g *Generator) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, taskQuery)
}

// EmbedChunks attaches embeddings to chunks, processing them in rate-paced
// batches. A failure on any chunk aborts the whole operation with an error
// naming the chunk's position: a document is never stored with a partial
// embedding set.
func (g *Generator) EmbedChunks(ctx context.Context, chunks []chunker.Chunk) ([]chunker.Chunk, error) {
	out := make([]chunker.Chunk, len(chunks))
	copy(out, chunks)

	for start := 0; start < len(out); start += g.batchSize {
		end := min(start+g.batchSize, len(out))

		for i := start; i < end; i++ {
			vec, err := g.embed(ctx, out[i].Text, taskDocument)
			if err != nil {
				return nil, fmt.Errorf("embedding chunk %d of %d: %w", i+1, len(out), err)
			}
			out[i].Embedding = vec
		}

		g.logger.Debug("embedded batch",
			"from", start,
			"to", end,
			"total", len(out))

		// Pace between batches to respect provider rate limits.
		if g.limiter != nil && end < len(out) {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pacing wait: %w", err)
			}
		}
	}

	return out, nil
}

func (g *Generator) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	cleaned := g.cleanText(text)
	if cleaned == "" {
		return nil, ErrEmptyText
	}

	dim := int32(g.dimension) // #nosec G115 -- validated positive, small
	resp, err := g.api.EmbedContent(ctx, g.model,
		genai.Text(cleaned),
		&genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: &dim,
		})
	if err != nil {
		return nil, fmt.Errorf("embed content (%s): %w", taskType, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned (%s)", taskType)
	}

	values := resp.Embeddings[0].Values
	if len(values) != g.dimension {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(values), g.dimension)
	}
	return values, nil
}

// cleanText collapses whitespace and enforces the input ceiling. The
// ceiling counts runes, not bytes, so truncation never splits a multi-byte
// character and the provider always receives valid UTF-8.
func (g *Generator) cleanText(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) <= MaxEmbedChars {
		return cleaned
	}
	runes := []rune(cleaned)
	if len(runes) <= MaxEmbedChars {
		return cleaned
	}
	g.logger.Warn("truncating embedding input",
		"original_chars", len(runes),
		"max_chars", MaxEmbedChars)
	return string(runes[:MaxEmbedChars])
}
