package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solon0/solon/internal/prompt"
)

// GetTemplate fetches the active prompt template matching name and
// audience. It satisfies prompt.Store; the provider handles the normal →
// all → built-in fallback chain, so this lookup is exact.
func (s *Store) GetTemplate(ctx context.Context, name string, userType prompt.UserType) (*prompt.Template, error) {
	var t prompt.Template
	err := s.pool.QueryRow(ctx,
		`SELECT name, user_type, template_content, required_placeholders
		 FROM prompt_templates
		 WHERE name = $1 AND user_type = $2 AND is_active
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		name, string(userType),
	).Scan(&t.Name, &t.UserType, &t.Content, &t.Required)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", prompt.ErrTemplateNotFound, name, userType)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching template %s: %w", name, err)
	}
	return &t, nil
}
