// Package chunker splits raw document text into overlapping, metadata-tagged
// segments sized for the embedding model.
//
// Chunk boundaries fall on sentence boundaries where possible; a sentence
// that alone exceeds the token budget is split on word boundaries. The tail
// of every closed chunk is carried into the next one so retrieval quality
// does not degrade at chunk edges.
//
// Chunking is deterministic: identical input text and configuration always
// produce the identical chunk sequence.
package chunker

import (
	"regexp"
	"strings"

	"github.com/solon0/solon/internal/log"
)

// Defaults for Config, matching the token budget the embedding pipeline is
// tuned for.
const (
	DefaultChunkSize    = 1000 // tokens
	DefaultChunkOverlap = 200  // tokens
)

// Config controls chunk sizing.
type Config struct {
	// ChunkSize is the maximum token count per chunk.
	ChunkSize int

	// ChunkOverlap is the number of tokens from the end of a closed chunk
	// carried over as the seed of the next one.
	ChunkOverlap int
}

// withDefaults returns cfg with zero values replaced by defaults. An
// overlap equal to or above the chunk size would make cutting loop forever,
// so it is capped at half the chunk size.
func (cfg Config) withDefaults() Config {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 2
	}
	return cfg
}

// DocumentMetadata carries parent-document attributes copied onto every
// chunk for attribution.
type DocumentMetadata struct {
	Filename    string
	FileType    string
	DisplayName string
	Description string
}

// Chunk is the unit of retrievable text. The embedding is attached later by
// the embedding generator; chunks are immutable once stored (re-processing
// a document creates new chunks).
type Chunk struct {
	Text           string
	Index          int // zero-based, contiguous per document
	TokenCount     int
	CharacterCount int
	WordCount      int
	Embedding      []float32 // nil until embedding generation

	ChapterTitle string // heuristic, may be empty
	SectionTitle string // heuristic, may be empty
	Keywords     []string

	Document DocumentMetadata
}

// Chunker splits document text. Safe for concurrent use.
type Chunker struct {
	cfg    Config
	logger log.Logger
}

// New creates a Chunker. A nil logger falls back to a no-op logger.
func New(cfg Config, logger log.Logger) *Chunker {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chunker{cfg: cfg.withDefaults(), logger: logger}
}

// Chunk splits text into overlapping chunks tagged with meta. Empty or
// whitespace-only input yields an empty slice, not an error.
func (c *Chunker) Chunk(text string, meta DocumentMetadata) []Chunk {
	cleaned := normalizeText(text)
	if cleaned == "" {
		return []Chunk{}
	}

	sentences := splitSentences(cleaned)

	// First pass: accumulate sentences up to the token budget.
	var raw []string
	var buf strings.Builder
	for _, sentence := range sentences {
		if buf.Len() > 0 && estimateTokens(buf.String())+estimateTokens(sentence) > c.cfg.ChunkSize {
			closed := strings.TrimSpace(buf.String())
			raw = append(raw, closed)
			buf.Reset()
			buf.WriteString(overlapTail(closed, c.cfg.ChunkOverlap))
			if buf.Len() > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(sentence)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		raw = append(raw, s)
	}

	// Second pass: a single sentence can exceed the budget on its own;
	// split those chunks on word boundaries with the same overlap policy.
	var texts []string
	for _, chunk := range raw {
		if estimateTokens(chunk) <= c.cfg.ChunkSize {
			texts = append(texts, chunk)
			continue
		}
		texts = append(texts, splitByWords(chunk, c.cfg.ChunkSize, c.cfg.ChunkOverlap)...)
	}

	chunks := make([]Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, Chunk{
			Text:           t,
			Index:          i,
			TokenCount:     estimateTokens(t),
			CharacterCount: len(t),
			WordCount:      countWords(t),
			ChapterTitle:   extractChapterTitle(t),
			SectionTitle:   extractSectionTitle(t),
			Keywords:       extractKeywords(t),
			Document:       meta,
		})
	}

	c.logger.Debug("chunked document",
		"filename", meta.Filename,
		"chunks", len(chunks),
		"characters", len(cleaned))

	return chunks
}

// allowedChars strips characters outside the legal-document-safe allow-list:
// word characters, whitespace and common punctuation survive.
var allowedChars = regexp.MustCompile(`[^\w\s.,!?;:\-()\[\]{}"'/]`)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// normalizeText removes characters outside the allow-list and collapses
// whitespace runs to a single space.
func normalizeText(text string) string {
	text = allowedChars.ReplaceAllString(text, "")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// abbreviations that commonly precede a capitalized word without ending a
// sentence. Lowercase, without the trailing period.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"jr": true, "sr": true, "st": true, "no": true, "vol": true,
	"art": true, "sec": true, "para": true, "fig": true, "v": true,
	"vs": true, "etc": true, "inc": true, "ltd": true, "corp": true,
	"co": true, "al": true, "cf": true, "ex": true, "rev": true,
}

// splitSentences splits normalized text into sentence-like units. A
// boundary is a '.', '!' or '?' followed by whitespace and a capital
// letter, unless the word before the period is a known abbreviation
// ("Mr. Smith" does not split) or a single-letter initial ("John Q. Public").
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Require whitespace then an uppercase letter after the terminator.
		j := i + 1
		if j >= len(runes) || runes[j] != ' ' {
			continue
		}
		k := j
		for k < len(runes) && runes[k] == ' ' {
			k++
		}
		if k >= len(runes) || !isUpper(runes[k]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = k
		i = k - 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the text ends in a word that should not
// terminate a sentence at a following period.
func isAbbreviation(before []rune) bool {
	// Walk back over the last word.
	end := len(before)
	i := end
	for i > 0 && isWordRune(before[i-1]) {
		i--
	}
	word := strings.ToLower(string(before[i:end]))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	// Single-letter initials: "John Q. Public".
	return len([]rune(word)) == 1
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// overlapTail returns the trailing words of text whose combined estimated
// token count fits in overlapTokens. Words are taken whole so the carried
// context stays readable.
func overlapTail(text string, overlapTokens int) string {
	if overlapTokens <= 0 {
		return ""
	}
	if estimateTokens(text) <= overlapTokens {
		return text
	}

	words := strings.Fields(text)
	var taken []string
	budget := 0
	for i := len(words) - 1; i >= 0; i-- {
		cost := estimateTokens(words[i]) + 1
		if budget+cost > overlapTokens {
			break
		}
		taken = append([]string{words[i]}, taken...)
		budget += cost
	}
	return strings.Join(taken, " ")
}

// splitByWords splits an oversize chunk on word boundaries, applying the
// same overlap policy across sub-chunks. Only a single word longer than
// chunkSize tokens can still exceed the budget.
func splitByWords(text string, chunkSize, overlapTokens int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current []string
	tokens := 0

	for _, word := range words {
		cost := estimateTokens(word) + 1
		if tokens+cost > chunkSize && len(current) > 0 {
			closed := strings.Join(current, " ")
			chunks = append(chunks, closed)

			seed := strings.Fields(overlapTail(closed, overlapTokens))
			current = append(seed, word)
			tokens = 0
			for _, w := range current {
				tokens += estimateTokens(w) + 1
			}
			continue
		}
		current = append(current, word)
		tokens += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
