package rag

import (
	"strings"

	"github.com/solon0/solon/internal/search"
)

// FallbackContext is what the model sees when retrieval found nothing.
// Retrieval emptiness is a normal condition: the answer degrades to
// general knowledge instead of failing.
const FallbackContext = "Based on general legal knowledge and procedures:"

// sourcePreviewLen caps the chunk preview attached to source attributions.
const sourcePreviewLen = 200

// maxHistoryEntries bounds the conversation context to the last three
// exchanges (user + assistant pairs).
const maxHistoryEntries = 6

// ConversationEntry is one prior turn of the conversation.
type ConversationEntry struct {
	Role    string
	Content string
}

// SourceRef attributes part of an answer to a stored document.
type SourceRef struct {
	Title      string
	Source     search.SourceType
	Category   string
	Similarity float64
	Preview    string
}

// AssembleContext renders ranked results into the context block the
// prompt template embeds. Results are grouped by pool under fixed
// headers, each chunk attributed to its document; the public block also
// names the document category. Empty input yields FallbackContext, never
// a blank string.
func AssembleContext(results []search.Result) string {
	if len(results) == 0 {
		return FallbackContext
	}

	var byPool = map[search.SourceType][]search.Result{}
	for _, r := range results {
		byPool[r.Source] = append(byPool[r.Source], r)
	}

	var parts []string
	appendBlock := func(source search.SourceType, header string, withCategory bool) {
		group := byPool[source]
		if len(group) == 0 {
			return
		}
		parts = append(parts, header)
		for _, r := range group {
			title := r.DocumentTitle
			if title == "" {
				title = "Unknown Document"
			}
			if withCategory {
				category := r.DocumentCategory
				if category == "" {
					category = "General"
				}
				parts = append(parts, "Source: "+title+" ("+category+")")
			} else {
				parts = append(parts, "Source: "+title)
			}
			parts = append(parts, "Content: "+r.Content)
			parts = append(parts, "---")
		}
	}

	appendBlock(search.SourcePublic, "=== LEGAL KNOWLEDGE BASE ===", true)
	appendBlock(search.SourceUser, "=== YOUR DOCUMENTS ===", false)
	appendBlock(search.SourceSession, "=== CURRENT SESSION DOCUMENTS ===", false)

	return strings.Join(parts, "\n")
}

// BuildConversationContext renders the most recent history entries,
// role-labelled, for the prompt's conversation block. Older entries are
// dropped to keep the prompt bounded.
func BuildConversationContext(history []ConversationEntry) string {
	if len(history) == 0 {
		return ""
	}
	recent := history
	if len(recent) > maxHistoryEntries {
		recent = recent[len(recent)-maxHistoryEntries:]
	}

	parts := make([]string, 0, len(recent))
	for _, e := range recent {
		role := e.Role
		if role == "" {
			role = "user"
		}
		parts = append(parts, titleCase(role)+": "+e.Content)
	}
	return strings.Join(parts, "\n")
}

// FormatSources builds the per-answer source attribution list, one entry
// per document title, first (highest-ranked) occurrence wins.
func FormatSources(results []search.Result) []SourceRef {
	seen := make(map[string]bool, len(results))
	var sources []SourceRef
	for _, r := range results {
		title := r.DocumentTitle
		if title == "" {
			title = "Unknown"
		}
		if seen[title] {
			continue
		}
		seen[title] = true

		preview := r.Content
		if len(preview) > sourcePreviewLen {
			preview = preview[:sourcePreviewLen] + "..."
		}
		sources = append(sources, SourceRef{
			Title:      title,
			Source:     r.Source,
			Category:   r.DocumentCategory,
			Similarity: r.Similarity,
			Preview:    preview,
		})
	}
	return sources
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
