package chunker

import (
	"strings"
	"unicode/utf8"
)

// estimateTokens provides a rough token count without a tokenizer
// dependency. Rune count divided by 2 is a conservative estimate that works
// for both English (~4 chars/token) and CJK (~1.5 chars/token) text; legal
// documents in practice land well inside the embedding model's real limit.
func estimateTokens(text string) int {
	runeCount := utf8.RuneCountInString(text)
	return runeCount / 2
}

// countWords counts whitespace-separated words.
func countWords(text string) int {
	return len(strings.Fields(text))
}
