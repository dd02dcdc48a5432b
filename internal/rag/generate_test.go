package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/prompt"
)

// fakeGenAPI returns a canned response or error and counts calls.
type fakeGenAPI struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenAPI) GenerateContent(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: f.text}},
			},
		}},
	}, nil
}

func TestOrchestrator_Generate_Primary(t *testing.T) {
	primary := &fakeGenAPI{text: "  answer text\n"}
	backup := &fakeGenAPI{text: "backup answer"}
	o := newOrchestrator(primary, backup, "gemini-2.0-flash", log.NewNop())

	gen, err := o.Generate(context.Background(), "some prompt", 0.7, 2048)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Response != "answer text" {
		t.Errorf("Response = %q, want trimmed answer", gen.Response)
	}
	if gen.RawResponse != "  answer text\n" {
		t.Errorf("RawResponse = %q, want untrimmed provider text", gen.RawResponse)
	}
	if gen.Prompt != "some prompt" {
		t.Errorf("Prompt = %q, want the prompt echoed for audit", gen.Prompt)
	}
	if backup.calls != 0 {
		t.Errorf("backup called %d times on a healthy primary", backup.calls)
	}
}

// Quota exhaustion on the primary triggers exactly one backup attempt,
// and the primary is back in use for the next call.
func TestOrchestrator_Generate_QuotaFallback(t *testing.T) {
	primary := &fakeGenAPI{err: errors.New("googleapi: Error 429: quota exceeded")}
	backup := &fakeGenAPI{text: "backup answer"}
	o := newOrchestrator(primary, backup, "gemini-2.0-flash", log.NewNop())

	gen, err := o.Generate(context.Background(), "p", 0.7, 2048)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Response != "backup answer" {
		t.Errorf("Response = %q, want the backup's text", gen.Response)
	}
	if primary.calls != 1 || backup.calls != 1 {
		t.Errorf("calls primary=%d backup=%d, want 1/1", primary.calls, backup.calls)
	}

	// Primary recovers: the next call must go to it first.
	primary.err = nil
	primary.text = "primary again"
	gen, err = o.Generate(context.Background(), "p", 0.7, 2048)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Response != "primary again" {
		t.Errorf("Response = %q, want the primary's text after recovery", gen.Response)
	}
	if backup.calls != 1 {
		t.Errorf("backup called again after primary recovered")
	}
}

func TestOrchestrator_Generate_NonQuotaErrorNoFallback(t *testing.T) {
	primary := &fakeGenAPI{err: errors.New("invalid request: malformed content")}
	backup := &fakeGenAPI{text: "backup answer"}
	o := newOrchestrator(primary, backup, "gemini-2.0-flash", log.NewNop())

	_, err := o.Generate(context.Background(), "p", 0.7, 2048)
	if err == nil {
		t.Fatal("expected error")
	}
	if backup.calls != 0 {
		t.Errorf("backup called for a non-quota failure")
	}
}

func TestOrchestrator_Generate_NoBackupConfigured(t *testing.T) {
	primary := &fakeGenAPI{err: errors.New("rate limit exceeded")}
	o := newOrchestrator(primary, nil, "gemini-2.0-flash", log.NewNop())

	_, err := o.Generate(context.Background(), "p", 0.7, 2048)
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("error = %v, want the quota failure propagated", err)
	}
}

func TestOrchestrator_Generate_BackupFailureReportsOriginal(t *testing.T) {
	primary := &fakeGenAPI{err: errors.New("quota exceeded for project")}
	backup := &fakeGenAPI{err: errors.New("permission denied")}
	o := newOrchestrator(primary, backup, "gemini-2.0-flash", log.NewNop())

	_, err := o.Generate(context.Background(), "p", 0.7, 2048)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error = %v, want the original quota failure", err)
	}
}

func TestOrchestrator_Generate_EmptyPrompt(t *testing.T) {
	primary := &fakeGenAPI{text: "x"}
	o := newOrchestrator(primary, nil, "gemini-2.0-flash", log.NewNop())

	if _, err := o.Generate(context.Background(), "   ", 0.7, 2048); err == nil {
		t.Error("expected error for empty prompt")
	}
	if primary.calls != 0 {
		t.Errorf("provider called for an empty prompt")
	}
}

func TestOrchestrator_Generate_EmptyModelResponse(t *testing.T) {
	primary := &fakeGenAPI{text: "   "}
	o := newOrchestrator(primary, nil, "gemini-2.0-flash", log.NewNop())

	if _, err := o.Generate(context.Background(), "p", 0.7, 2048); err == nil {
		t.Error("expected error for blank model output")
	}
}

func TestQuotaError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("googleapi: Error 429: Resource has been exhausted"), true},
		{errors.New("RATE LIMIT exceeded"), true},
		{errors.New("quota exceeded for quota metric"), true},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("invalid API key"), false},
		{errors.New("connection reset by peer"), false},
	}
	for _, tt := range tests {
		if got := quotaError(tt.err); got != tt.want {
			t.Errorf("quotaError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGenerationConfigFor(t *testing.T) {
	if temp, max := generationConfigFor(prompt.UserTypeLawyer); temp != 0.3 || max != 3000 {
		t.Errorf("lawyer config = %v/%v, want 0.3/3000", temp, max)
	}
	if temp, max := generationConfigFor(prompt.UserTypeNormal); temp != 0.7 || max != 2048 {
		t.Errorf("normal config = %v/%v, want 0.7/2048", temp, max)
	}
}
