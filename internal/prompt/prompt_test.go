package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/solon0/solon/internal/log"
)

func TestTemplate_Format(t *testing.T) {
	tmpl := &Template{
		Name:     "test",
		Required: []string{"query", "context"},
		Content:  "Context: {context}\n{conversation_history}Question: {query}",
	}

	t.Run("all placeholders supplied", func(t *testing.T) {
		out, err := tmpl.Format(map[string]string{
			"query":                "What is negligence?",
			"context":              "Tort law basics.",
			"conversation_history": "PRIOR: hello\n",
		})
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		want := "Context: Tort law basics.\nPRIOR: hello\nQuestion: What is negligence?"
		if out != want {
			t.Errorf("Format() = %q, want %q", out, want)
		}
	})

	t.Run("optional placeholder renders empty", func(t *testing.T) {
		out, err := tmpl.Format(map[string]string{
			"query":   "q",
			"context": "c",
		})
		if err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.Contains(out, "{") {
			t.Errorf("unsubstituted placeholder left in output: %q", out)
		}
	})

	t.Run("missing required placeholder fails", func(t *testing.T) {
		_, err := tmpl.Format(map[string]string{"query": "q"})
		if !errors.Is(err, ErrMissingPlaceholder) {
			t.Errorf("Format() error = %v, want ErrMissingPlaceholder", err)
		}
		if err != nil && !strings.Contains(err.Error(), "context") {
			t.Errorf("error %q does not name the missing placeholder", err)
		}
	})

	t.Run("blank required placeholder fails", func(t *testing.T) {
		_, err := tmpl.Format(map[string]string{"query": "q", "context": "   "})
		if !errors.Is(err, ErrMissingPlaceholder) {
			t.Errorf("Format() error = %v, want ErrMissingPlaceholder", err)
		}
	})
}

func TestTemplate_Placeholders(t *testing.T) {
	tmpl := &Template{Content: "{a} then {b} then {a} again"}
	got := tmpl.Placeholders()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Placeholders() = %v, want [a b]", got)
	}
}

// fakeStore serves templates keyed by name and user type.
type fakeStore struct {
	templates map[string]*Template // key: name + "/" + userType
	err       error
	lookups   []string
}

func (s *fakeStore) GetTemplate(_ context.Context, name string, userType UserType) (*Template, error) {
	s.lookups = append(s.lookups, name+"/"+string(userType))
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.templates[name+"/"+string(userType)]; ok {
		return t, nil
	}
	return nil, ErrTemplateNotFound
}

func TestProvider_Get_PrefersAudienceSpecific(t *testing.T) {
	store := &fakeStore{templates: map[string]*Template{
		"hybrid_rag_prompt/lawyer": {Name: NameHybridRAG, UserType: UserTypeLawyer, Content: "lawyer body {query}", Required: []string{"query"}},
		"hybrid_rag_prompt/all":    {Name: NameHybridRAG, UserType: UserTypeAll, Content: "generic body {query}", Required: []string{"query"}},
	}}
	p := NewProvider(store, log.NewNop())

	got, err := p.Get(context.Background(), NameHybridRAG, UserTypeLawyer)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserType != UserTypeLawyer {
		t.Errorf("Get() returned %s template, want lawyer-specific", got.UserType)
	}
}

func TestProvider_Get_FallsBackToAll(t *testing.T) {
	store := &fakeStore{templates: map[string]*Template{
		"hybrid_rag_prompt/all": {Name: NameHybridRAG, UserType: UserTypeAll, Content: "generic {query}", Required: []string{"query"}},
	}}
	p := NewProvider(store, log.NewNop())

	got, err := p.Get(context.Background(), NameHybridRAG, UserTypeNormal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserType != UserTypeAll {
		t.Errorf("Get() returned %s template, want the all fallback", got.UserType)
	}
	want := []string{"hybrid_rag_prompt/normal", "hybrid_rag_prompt/all"}
	if len(store.lookups) != 2 || store.lookups[0] != want[0] || store.lookups[1] != want[1] {
		t.Errorf("lookup order = %v, want %v", store.lookups, want)
	}
}

func TestProvider_Get_StoreMissUsesDefaults(t *testing.T) {
	p := NewProvider(&fakeStore{}, log.NewNop())

	got, err := p.Get(context.Background(), NameHybridRAG, UserTypeLawyer)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserType != UserTypeLawyer {
		t.Errorf("default template user type = %s, want lawyer", got.UserType)
	}
}

func TestProvider_Get_StoreFailureUsesDefaults(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	p := NewProvider(store, log.NewNop())

	got, err := p.Get(context.Background(), NameDocumentSummary, UserTypeNormal)
	if err != nil {
		t.Fatalf("Get() error = %v, want default despite store failure", err)
	}
	if got.Name != NameDocumentSummary {
		t.Errorf("Get() template = %s, want %s", got.Name, NameDocumentSummary)
	}
}

func TestProvider_Get_UnknownName(t *testing.T) {
	p := NewProvider(nil, log.NewNop())

	_, err := p.Get(context.Background(), "no_such_template", UserTypeNormal)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Get() error = %v, want ErrTemplateNotFound", err)
	}
}

func TestProvider_Format(t *testing.T) {
	p := NewProvider(nil, log.NewNop())

	out, err := p.Format(context.Background(), NameHybridRAG, UserTypeNormal, map[string]string{
		"query":   "Can I break my lease early?",
		"context": "=== LEGAL KNOWLEDGE BASE ===\nLease termination rules.",
	})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(out, "Can I break my lease early?") {
		t.Errorf("formatted prompt missing the query: %q", out)
	}
	if !strings.Contains(out, "Lease termination rules.") {
		t.Errorf("formatted prompt missing the context: %q", out)
	}
	if strings.Contains(out, "{") {
		t.Errorf("unsubstituted placeholder in output: %q", out)
	}
}

func TestDefaultTemplates_FormatCleanly(t *testing.T) {
	vars := map[string]string{
		"query":         "q",
		"context":       "c",
		"document_text": "d",
	}
	for _, tc := range []struct {
		name     string
		userType UserType
	}{
		{NameHybridRAG, UserTypeNormal},
		{NameHybridRAG, UserTypeLawyer},
		{NameDocumentSummary, UserTypeAll},
	} {
		tmpl, ok := defaultTemplate(tc.name, tc.userType)
		if !ok {
			t.Fatalf("no default for %s/%s", tc.name, tc.userType)
		}
		out, err := tmpl.Format(vars)
		if err != nil {
			t.Errorf("%s/%s Format() error = %v", tc.name, tc.userType, err)
		}
		if strings.Contains(out, "{") {
			t.Errorf("%s/%s leaves unsubstituted placeholder", tc.name, tc.userType)
		}
	}
}
