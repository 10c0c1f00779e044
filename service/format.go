package service

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"hoa-assistant-backend/models"
)

const (
	DefaultExcerptCount = 2
	DefaultExcerptChars = 1200

	// TruncationMarker is appended to excerpts cut at the character budget
	TruncationMarker = "…"
)

// FormatOptions controls the rendered clause block
type FormatOptions struct {
	ExcerptCount int // leading entries that get a clause text excerpt
	ExcerptChars int // excerpt budget in characters; 0 shows the full text
}

// DefaultFormatOptions returns the standard presentation settings
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{ExcerptCount: DefaultExcerptCount, ExcerptChars: DefaultExcerptChars}
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.ExcerptCount < 0 {
		o.ExcerptCount = 0
	}
	if o.ExcerptChars < 0 {
		o.ExcerptChars = DefaultExcerptChars
	}
	return o
}

// SortByPrecedence returns a copy of clauses ordered by precedence level,
// lowest first. Clauses without a numeric level sort last; ties keep input order.
func SortByPrecedence(clauses []models.Clause) []models.Clause {
	sorted := make([]models.Clause, len(clauses))
	copy(sorted, clauses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PrecedenceLevel.Level() < sorted[j].PrecedenceLevel.Level()
	})
	return sorted
}

// FormatClauses renders clauses as an HTML citation block in precedence order
func FormatClauses(clauses []models.Clause, opts FormatOptions) string {
	opts = opts.withDefaults()

	sorted := SortByPrecedence(clauses)
	entries := make([]string, 0, len(sorted))
	for i, c := range sorted {
		entries = append(entries, formatEntry(i+1, c, i < opts.ExcerptCount, opts.ExcerptChars))
	}
	return strings.Join(entries, "<br><br>")
}

func formatEntry(idx int, c models.Clause, withExcerpt bool, excerptChars int) string {
	citation := c.Citation
	if citation == "" {
		citation = fmt.Sprintf("Clause %d", idx)
	}

	ref := html.EscapeString(citation)
	if c.Link != "" {
		ref = fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(c.Link), ref)
	}

	summary := strings.TrimSuffix(strings.TrimSpace(c.SummaryOrDefault()), ".")

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d. <strong>Summary of Clause</strong>: According to %s, %s.</b><br>",
		idx, ref, html.EscapeString(summary))
	fmt.Fprintf(&b, "<strong>Match Source</strong>: %s • <code>%s</code> • <strong>Reviewer ID</strong>: <code>%s</code><br>",
		html.EscapeString(string(c.MatchSource)),
		html.EscapeString(c.DocumentOrDefault()),
		html.EscapeString(c.ClauseID),
	)

	if withExcerpt && strings.TrimSpace(c.ClauseText) != "" {
		fmt.Fprintf(&b, "<details><summary>Clause text</summary><blockquote>%s</blockquote></details>",
			html.EscapeString(Excerpt(c.ClauseText, excerptChars)))
	}
	return b.String()
}

// Excerpt truncates text to at most limit characters, appending
// TruncationMarker when anything was cut
func Excerpt(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + TruncationMarker
}

var markdownLink = regexp.MustCompile(`\[(.*?)\] \((.*?)\)`)

// FlattenLinks rewrites "[text] (url)" pairs as "text url"
func FlattenLinks(answer string) string {
	return markdownLink.ReplaceAllString(answer, "$1 $2")
}
