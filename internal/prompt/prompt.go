// Package prompt supplies named, user-type-scoped prompt templates.
//
// Templates declare their placeholders up front: formatting fails fast when
// a required placeholder is missing, and optional placeholders substitute
// the empty string. Lookup goes through a store with built-in default
// templates as the last resort, so a database outage degrades prompt
// quality instead of failing the request.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/solon0/solon/internal/log"
)

// UserType scopes a template to an audience.
type UserType string

const (
	UserTypeNormal UserType = "normal"
	UserTypeLawyer UserType = "lawyer"

	// UserTypeAll matches any audience; lookup falls back to it when no
	// audience-specific template exists.
	UserTypeAll UserType = "all"
)

// Valid reports whether u is a known user type.
func (u UserType) Valid() bool {
	switch u {
	case UserTypeNormal, UserTypeLawyer, UserTypeAll:
		return true
	}
	return false
}

// Template names the orchestrator asks for.
const (
	NameHybridRAG       = "hybrid_rag_prompt"
	NameDocumentSummary = "document_summary_prompt"
)

var (
	// ErrTemplateNotFound means neither the store nor the built-in
	// defaults know the requested template name.
	ErrTemplateNotFound = errors.New("prompt: template not found")

	// ErrMissingPlaceholder means a required placeholder had no value.
	ErrMissingPlaceholder = errors.New("prompt: missing required placeholder")
)

// placeholderPattern matches {name} placeholders in template content.
var placeholderPattern = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Template is a named prompt body with declared placeholders.
type Template struct {
	Name     string
	UserType UserType
	Content  string

	// Required placeholders must be supplied to Format. Placeholders that
	// appear in Content but not here are optional and render empty when
	// absent.
	Required []string
}

// Format substitutes vars into the template. Required placeholders that
// are missing or empty cause an error; optional placeholders render as ""
// when absent. Unknown vars are ignored.
func (t *Template) Format(vars map[string]string) (string, error) {
	for _, name := range t.Required {
		if strings.TrimSpace(vars[name]) == "" {
			return "", fmt.Errorf("%w: %s in template %s", ErrMissingPlaceholder, name, t.Name)
		}
	}

	out := placeholderPattern.ReplaceAllStringFunc(t.Content, func(m string) string {
		name := m[1 : len(m)-1]
		return vars[name]
	})
	return out, nil
}

// Placeholders lists every placeholder appearing in the template content,
// in order of first appearance.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Store looks up a template body by name and audience. Implementations
// return ErrTemplateNotFound (possibly wrapped) when no active template
// matches.
type Store interface {
	GetTemplate(ctx context.Context, name string, userType UserType) (*Template, error)
}

// Provider resolves and formats templates. Lookup order: the store with
// the exact audience, the store with the "all" audience, then the built-in
// defaults. Store failures are logged and treated as misses.
type Provider struct {
	store  Store
	logger log.Logger
}

// NewProvider creates a Provider. A nil store serves built-in defaults
// only.
func NewProvider(store Store, logger log.Logger) *Provider {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Provider{store: store, logger: logger}
}

// Get resolves a template for the given audience.
func (p *Provider) Get(ctx context.Context, name string, userType UserType) (*Template, error) {
	if p.store != nil {
		for _, ut := range []UserType{userType, UserTypeAll} {
			t, err := p.store.GetTemplate(ctx, name, ut)
			if err == nil {
				return t, nil
			}
			if !errors.Is(err, ErrTemplateNotFound) {
				p.logger.Warn("template store lookup failed, falling back",
					"template", name, "user_type", string(ut), "error", err)
				break
			}
		}
	}

	if t, ok := defaultTemplate(name, userType); ok {
		p.logger.Debug("using built-in default template", "template", name, "user_type", string(userType))
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

// Format resolves the template and substitutes vars in one step.
func (p *Provider) Format(ctx context.Context, name string, userType UserType, vars map[string]string) (string, error) {
	t, err := p.Get(ctx, name, userType)
	if err != nil {
		return "", err
	}
	out, err := t.Format(vars)
	if err != nil {
		return "", err
	}
	return out, nil
}
