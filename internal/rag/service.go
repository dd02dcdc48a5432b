// Package rag wires the question-answering pipeline: document ingestion
// (chunk, embed, store) and answering (embed query, hybrid search,
// context assembly, generation).
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/solon0/solon/internal/chunker"
	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/prompt"
	"github.com/solon0/solon/internal/search"
	"github.com/solon0/solon/internal/store"
)

// ErrNoContent means the requested document has no stored chunks.
var ErrNoContent = errors.New("rag: document has no content")

// AuthenticatedUser is the caller's identity as established by the
// authentication boundary. It is the only user representation the
// pipeline accepts.
type AuthenticatedUser struct {
	ID    string
	Email string
}

// Storage is the persistence slice the pipeline needs. *store.Store
// satisfies it.
type Storage interface {
	InsertDocument(ctx context.Context, doc store.Document) (uuid.UUID, error)
	InsertChunks(ctx context.Context, documentID uuid.UUID, chunks []chunker.Chunk) error
	MarkDocumentFailed(ctx context.Context, documentID uuid.UUID) error
	GetChunks(ctx context.Context, documentID uuid.UUID, limit int) ([]store.StoredChunk, error)
}

// Embedder produces query and chunk embeddings. *embedding.Generator
// satisfies it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedChunks(ctx context.Context, chunks []chunker.Chunk) ([]chunker.Chunk, error)
}

// Searcher runs the hybrid pool search. *search.Hybrid satisfies it.
type Searcher interface {
	Search(ctx context.Context, queryVec []float32, p search.Params) []search.Result
}

// TextGenerator runs one model call. *Orchestrator satisfies it.
type TextGenerator interface {
	Generate(ctx context.Context, promptText string, temperature float32, maxTokens int32) (*Generation, error)
}

// summaryChunkLimit is how many leading chunks feed a document summary.
const summaryChunkLimit = 5

// Service is the assembled pipeline. All dependencies are injected at
// construction; Service holds no hidden state and is safe for concurrent
// use.
type Service struct {
	chunker   *chunker.Chunker
	embedder  Embedder
	storage   Storage
	searcher  Searcher
	prompts   *prompt.Provider
	generator TextGenerator
	logger    log.Logger
}

// NewService assembles the pipeline.
func NewService(c *chunker.Chunker, e Embedder, st Storage, se Searcher,
	p *prompt.Provider, g TextGenerator, logger log.Logger) (*Service, error) {
	switch {
	case c == nil:
		return nil, fmt.Errorf("chunker is required")
	case e == nil:
		return nil, fmt.Errorf("embedder is required")
	case st == nil:
		return nil, fmt.Errorf("storage is required")
	case se == nil:
		return nil, fmt.Errorf("searcher is required")
	case p == nil:
		return nil, fmt.Errorf("prompt provider is required")
	case g == nil:
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		chunker:   c,
		embedder:  e,
		storage:   st,
		searcher:  se,
		prompts:   p,
		generator: g,
		logger:    logger,
	}, nil
}

// IngestResult reports a completed document ingestion.
type IngestResult struct {
	DocumentID uuid.UUID
	ChunkCount int
	TokenCount int
}

// ProcessDocument ingests an already-extracted document text for one
// user: chunk, embed, store. An empty sessionID stores the document in
// the user's private pool; otherwise it is scoped to the session.
//
// The document row is created first in processing status, so a failure
// partway leaves a failed row rather than chunks visible to search.
func (s *Service) ProcessDocument(ctx context.Context, user AuthenticatedUser,
	sessionID, text string, meta chunker.DocumentMetadata) (*IngestResult, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.ingest(ctx, store.Document{
		OwnerID:     user.ID,
		SessionID:   sessionID,
		Filename:    meta.Filename,
		FileType:    meta.FileType,
		DisplayName: meta.DisplayName,
		Description: meta.Description,
	}, text, meta)
}

// ProcessAdminDocument ingests a document into the public knowledge base
// under the given category. The document is active and visible to every
// user's public pool search once ingestion completes.
func (s *Service) ProcessAdminDocument(ctx context.Context, admin AuthenticatedUser,
	category, text string, meta chunker.DocumentMetadata) (*IngestResult, error) {
	if admin.ID == "" {
		return nil, fmt.Errorf("admin user id is required")
	}
	return s.ingest(ctx, store.Document{
		OwnerID:     admin.ID,
		Filename:    meta.Filename,
		FileType:    meta.FileType,
		DisplayName: meta.DisplayName,
		Description: meta.Description,
		Category:    category,
		IsPublic:    true,
		IsActive:    true,
	}, text, meta)
}

func (s *Service) ingest(ctx context.Context, doc store.Document, text string, meta chunker.DocumentMetadata) (*IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	chunks := s.chunker.Chunk(text, meta)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}

	docID, err := s.storage.InsertDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	embedded, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		s.markFailed(ctx, docID)
		return nil, fmt.Errorf("embedding document: %w", err)
	}

	if err := s.storage.InsertChunks(ctx, docID, embedded); err != nil {
		s.markFailed(ctx, docID)
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	tokens := 0
	for _, c := range embedded {
		tokens += c.TokenCount
	}
	s.logger.Info("document ingested",
		"document_id", docID,
		"chunks", len(embedded),
		"tokens", tokens,
		"public", doc.IsPublic)
	return &IngestResult{DocumentID: docID, ChunkCount: len(embedded), TokenCount: tokens}, nil
}

func (s *Service) markFailed(ctx context.Context, docID uuid.UUID) {
	if err := s.storage.MarkDocumentFailed(ctx, docID); err != nil {
		s.logger.Warn("marking document failed", "document_id", docID, "error", err)
	}
}

// AnswerParams scope one question.
type AnswerParams struct {
	Query     string
	SessionID string
	UserType  prompt.UserType
	History   []ConversationEntry

	IncludePublic   bool
	IncludeUserDocs bool
	Categories      []string

	// Limit and Threshold tune retrieval; zero values use the search
	// package defaults.
	Limit     int
	Threshold float64
}

// Answer is a complete question-answering result with audit provenance
// and source attribution.
type Answer struct {
	Response    string
	Prompt      string
	RawResponse string
	Sources     []SourceRef
	ContextUsed bool
}

// Answer runs the full pipeline for one question: embed the query,
// search the enabled pools, assemble context, format the audience's
// prompt, generate. Retrieval emptiness is not an error: the model
// answers from general knowledge over the fallback context.
func (s *Service) Answer(ctx context.Context, user AuthenticatedUser, p AnswerParams) (*Answer, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	userType := p.UserType
	if !userType.Valid() || userType == prompt.UserTypeAll {
		userType = prompt.UserTypeNormal
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results := s.searcher.Search(ctx, queryVec, search.Params{
		OwnerID:         user.ID,
		SessionID:       p.SessionID,
		IncludePublic:   p.IncludePublic,
		IncludeUserDocs: p.IncludeUserDocs,
		Categories:      p.Categories,
		Limit:           p.Limit,
		Threshold:       p.Threshold,
	})

	contextBlock := AssembleContext(results)

	vars := map[string]string{
		"query":   p.Query,
		"context": contextBlock,
	}
	if history := BuildConversationContext(p.History); history != "" {
		vars["conversation_history"] = "\nCONVERSATION HISTORY:\n" + history + "\n"
	}

	promptText, err := s.prompts.Format(ctx, prompt.NameHybridRAG, userType, vars)
	if err != nil {
		return nil, fmt.Errorf("formatting prompt: %w", err)
	}

	temperature, maxTokens := generationConfigFor(userType)
	gen, err := s.generator.Generate(ctx, promptText, temperature, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("answering query: %w", err)
	}

	s.logger.Debug("query answered",
		"user_type", string(userType),
		"results", len(results),
		"context_used", len(results) > 0)
	return &Answer{
		Response:    gen.Response,
		Prompt:      gen.Prompt,
		RawResponse: gen.RawResponse,
		Sources:     FormatSources(results),
		ContextUsed: len(results) > 0,
	}, nil
}

// DocumentSummary generates a short summary from a document's leading
// chunks. Returns ErrNoContent when the document has no stored chunks.
func (s *Service) DocumentSummary(ctx context.Context, documentID uuid.UUID) (*Generation, error) {
	chunks, err := s.storage.GetChunks(ctx, documentID, summaryChunkLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching document chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	promptText, err := s.prompts.Format(ctx, prompt.NameDocumentSummary, prompt.UserTypeAll,
		map[string]string{"document_text": strings.Join(texts, " ")})
	if err != nil {
		return nil, fmt.Errorf("formatting summary prompt: %w", err)
	}

	gen, err := s.generator.Generate(ctx, promptText, summaryTemperature, summaryMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("summarizing document: %w", err)
	}
	return gen, nil
}
