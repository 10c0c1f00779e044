package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MatchSource records which retrieval leg produced a clause
type MatchSource string

const (
	SourceSemantic MatchSource = "SemanticMatch"
	SourceKeyword  MatchSource = "KeywordFallback"
	SourceSoft     MatchSource = "SoftFallback"
	SourceInjected MatchSource = "InjectedFallback"
)

// DefaultPrecedence is used when precedence_level is missing or not numeric
const DefaultPrecedence = 99

// clauseNamespace seeds deterministic IDs for clauses that arrive without any identifier
var clauseNamespace = uuid.MustParse("6f1c8e52-3a0d-4b7e-9d54-2c1b7a9e0f13")

// Precedence holds the raw precedence_level value as stored. It is integer-like
// in practice but nothing guarantees it.
type Precedence string

// Level returns the numeric precedence, or DefaultPrecedence when missing or non-numeric
func (p Precedence) Level() int {
	n, ok := p.Int()
	if !ok {
		return DefaultPrecedence
	}
	return n
}

// Int parses the precedence, reporting whether it was numeric
func (p Precedence) Int() (int, bool) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	// Numeric JSON sometimes arrives as "3.0"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// UnmarshalJSON accepts numbers, strings and null
func (p *Precedence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Precedence(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// Objects, arrays and booleans are treated as absent
		*p = ""
		return nil
	}
	*p = Precedence(n.String())
	return nil
}

// MarshalJSON writes numeric values as numbers and everything else as strings
func (p Precedence) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	if n, ok := p.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(p))
}

// Tags is a set of string labels. Anything that is not a list decodes as empty.
type Tags []string

// UnmarshalJSON tolerates non-list values and non-string elements
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = nil
		return nil
	}
	out := make(Tags, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	*t = out
	return nil
}

// Lower returns the tags lowercased, as a set
func (t Tags) Lower() map[string]struct{} {
	set := make(map[string]struct{}, len(t))
	for _, tag := range t {
		set[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	return set
}

// Clause represents a single provision from a governing document
type Clause struct {
	ID              string      `json:"id,omitempty"`
	ClauseID        string      `json:"clause_id"`
	PlainSummary    string      `json:"plain_summary,omitempty"`
	ClauseText      string      `json:"clause_text,omitempty"`
	Citation        string      `json:"citation,omitempty"`
	Link            string      `json:"link"`
	Document        string      `json:"document,omitempty"`
	PrecedenceLevel Precedence  `json:"precedence_level"`
	Tags            Tags        `json:"tags,omitempty"`
	StructureType   string      `json:"structure_type,omitempty"`
	ConcernLevel    string      `json:"concern_level,omitempty"`
	MatchSource     MatchSource `json:"match_source,omitempty"`
	Similarity      float64     `json:"similarity,omitempty"` // Only set on semantic results
}

// ResolveID fills ClauseID from the row identifier, or from the clause content
// when the row has no identifier either.
func (c *Clause) ResolveID() {
	if c.ClauseID != "" {
		return
	}
	if c.ID != "" {
		c.ClauseID = c.ID
		return
	}
	seed := strings.Join([]string{c.Document, c.Citation, c.PlainSummary, c.ClauseText}, "\x1f")
	c.ClauseID = uuid.NewSHA1(clauseNamespace, []byte(seed)).String()
}

// Tag stamps provenance and resolves the identifier
func (c *Clause) Tag(source MatchSource) {
	c.MatchSource = source
	c.ResolveID()
}

// SummaryOrDefault returns the plain summary or a placeholder
func (c *Clause) SummaryOrDefault() string {
	if c.PlainSummary == "" {
		return "No summary provided."
	}
	return c.PlainSummary
}

// DocumentOrDefault returns the source document name or "Unknown"
func (c *Clause) DocumentOrDefault() string {
	if c.Document == "" {
		return "Unknown"
	}
	return c.Document
}

// SearchText is the lowercased text used for token coverage
func (c *Clause) SearchText() string {
	return strings.ToLower(c.PlainSummary + " " + c.ClauseText)
}

// ScoredClause pairs a clause with its relevance score during ranking
type ScoredClause struct {
	Score  float64
	Clause Clause
}
