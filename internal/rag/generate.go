package rag

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/prompt"
)

// Generation settings per audience. Lawyers get a colder, longer answer;
// the general audience a more conversational one.
const (
	lawyerTemperature = 0.3
	lawyerMaxTokens   = 3000

	normalTemperature = 0.7
	normalMaxTokens   = 2048

	summaryTemperature = 0.3
	summaryMaxTokens   = 512
)

// generateAPI is the slice of the genai client the orchestrator calls.
// *genai.Models satisfies it.
type generateAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generation is one completed model call, kept whole for auditability:
// the exact prompt sent, the provider's raw text, and the cleaned answer.
type Generation struct {
	Prompt      string
	RawResponse string
	Response    string
}

// Orchestrator runs generation calls against a primary credential with a
// single backup retry on quota exhaustion. The backup is used for that
// one call only; the next call starts from the primary again.
//
// Safe for concurrent use.
type Orchestrator struct {
	primary generateAPI
	backup  generateAPI
	model   string
	logger  log.Logger
}

// NewOrchestrator creates an Orchestrator. backupClient may be nil, in
// which case quota failures propagate immediately.
func NewOrchestrator(primaryClient, backupClient *genai.Client, model string, logger log.Logger) (*Orchestrator, error) {
	if primaryClient == nil {
		return nil, fmt.Errorf("primary client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	var backup generateAPI
	if backupClient != nil {
		backup = backupClient.Models
	}
	return newOrchestrator(primaryClient.Models, backup, model, logger), nil
}

func newOrchestrator(primary, backup generateAPI, model string, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{primary: primary, backup: backup, model: model, logger: logger}
}

// Generate runs one model call. The backup credential is tried exactly
// once, and only for quota or rate-limit failures: other errors (bad
// request, safety block, network) are not the credential's fault and
// propagate directly.
func (o *Orchestrator) Generate(ctx context.Context, promptText string, temperature float32, maxTokens int32) (*Generation, error) {
	if strings.TrimSpace(promptText) == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: maxTokens,
	}

	resp, err := o.primary.GenerateContent(ctx, o.model, genai.Text(promptText), config)
	if err == nil {
		return buildGeneration(promptText, resp)
	}
	if !quotaError(err) || o.backup == nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	o.logger.Warn("primary credential quota exhausted, retrying with backup", "error", err)
	resp, backupErr := o.backup.GenerateContent(ctx, o.model, genai.Text(promptText), config)
	if backupErr != nil {
		o.logger.Error("backup credential also failed", "error", backupErr)
		// Report the original quota failure; the backup failure is logged.
		return nil, fmt.Errorf("generating content (backup also failed): %w", err)
	}
	return buildGeneration(promptText, resp)
}

// generationConfigFor maps an audience to its sampling settings.
func generationConfigFor(userType prompt.UserType) (temperature float32, maxTokens int32) {
	if userType == prompt.UserTypeLawyer {
		return lawyerTemperature, lawyerMaxTokens
	}
	return normalTemperature, normalMaxTokens
}

func buildGeneration(promptText string, resp *genai.GenerateContentResponse) (*Generation, error) {
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("model returned empty response")
	}
	return &Generation{
		Prompt:      promptText,
		RawResponse: raw,
		Response:    strings.TrimSpace(raw),
	}, nil
}

// quotaError reports whether the failure looks like quota or rate-limit
// exhaustion, the only class the backup credential can help with.
func quotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"rate limit", "quota exceeded", "resource exhausted", "resource_exhausted", "429")
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
