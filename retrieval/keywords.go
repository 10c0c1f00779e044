package retrieval

import (
	"strings"
	"unicode"
)

// minTokenLength is the shortest token kept by Tokenize
const minTokenLength = 3

// stopWords are common English function words dropped from keyword queries
var stopWords = map[string]bool{
	"the": true, "and": true, "are": true, "was": true, "were": true, "for": true,
	"that": true, "this": true, "these": true, "those": true, "with": true, "from": true,
	"have": true, "has": true, "had": true, "not": true, "but": true, "you": true,
	"your": true, "our": true, "can": true, "could": true, "should": true, "would": true,
	"will": true, "shall": true, "what": true, "which": true, "who": true, "whom": true,
	"when": true, "where": true, "why": true, "how": true, "does": true, "did": true,
	"doing": true, "there": true, "their": true, "they": true, "them": true, "then": true,
	"than": true, "into": true, "onto": true, "about": true, "any": true, "all": true,
	"some": true, "such": true, "may": true, "might": true, "must": true, "been": true,
	"being": true, "also": true, "just": true, "only": true, "very": true, "its": true,
	"his": true, "her": true, "hers": true, "him": true, "she": true, "each": true,
	"other": true, "more": true, "most": true, "over": true, "under": true, "again": true,
	"here": true, "out": true, "off": true, "own": true, "same": true, "too": true,
	"is": true, "it": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "at": true, "by": true, "as": true, "be": true, "do": true, "or": true,
	"if": true, "so": true, "am": true, "me": true, "my": true, "we": true, "us": true,
	"get": true, "got": true,
}

// Tokenize lowercases the question and returns the runs of letters, digits
// and hyphens that are longer than two characters.
func Tokenize(question string) []string {
	lower := strings.ToLower(question)
	tokens := make([]string, 0, 8)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		if tok := b.String(); len([]rune(tok)) >= minTokenLength {
			tokens = append(tokens, tok)
		}
		b.Reset()
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// ExtractKeywords returns Tokenize output without stop words. Order and
// duplicates are preserved.
func ExtractKeywords(question string) []string {
	tokens := Tokenize(question)
	keywords := tokens[:0]
	for _, tok := range tokens {
		if !stopWords[tok] {
			keywords = append(keywords, tok)
		}
	}
	return keywords
}

// UniqueKeywords is ExtractKeywords with duplicates removed, first occurrence kept
func UniqueKeywords(question string) []string {
	return dedupe(ExtractKeywords(question))
}

// ScoringTokens returns the token set used for relevance scoring: the unique
// keywords, or the unique tokens when every token is a stop word.
func ScoringTokens(question string) []string {
	if kw := UniqueKeywords(question); len(kw) > 0 {
		return kw
	}
	return dedupe(Tokenize(question))
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
