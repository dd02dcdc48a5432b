package chunker

import (
	"regexp"
	"strings"
)

// Heading patterns found in statutes, contracts and court filings. Matching
// is heuristic: false negatives are acceptable, no NLP model is involved.
var (
	chapterPattern = regexp.MustCompile(`(?i)\bCHAPTER\s+(?:\d+|[IVXLCDM]+)\b[^.!?]*`)
	sectionPattern = regexp.MustCompile(`(?i)\b(?:Section|Article)\s+\d+(?:\.\d+)*\b[^.!?]*`)
)

// legalKeywords is the fixed lexicon scanned case-insensitively against
// chunk text. Terms are lowercase.
var legalKeywords = []string{
	"contract", "agreement", "liability", "plaintiff", "defendant",
	"negligence", "damages", "statute", "jurisdiction", "indemnity",
	"warranty", "breach", "tort", "arbitration", "clause", "covenant",
	"appeal", "testimony", "evidence", "injunction", "settlement",
	"prosecution", "verdict", "litigation", "compliance", "regulation",
	"provision", "amendment", "termination", "confidentiality",
}

// extractChapterTitle returns the first chapter heading found in text, or
// the empty string.
func extractChapterTitle(text string) string {
	return strings.TrimSpace(chapterPattern.FindString(text))
}

// extractSectionTitle returns the first section or article heading found in
// text, or the empty string.
func extractSectionTitle(text string) string {
	return strings.TrimSpace(sectionPattern.FindString(text))
}

// extractKeywords returns the lexicon terms present in text. Matching is
// case-insensitive on the whole chunk; each term appears at most once, in
// lexicon order, so output is deterministic. The result is never nil: a
// chunk without matches yields an empty slice, which persists as an empty
// TEXT[] rather than NULL.
func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
