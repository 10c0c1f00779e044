package models

// ClauseField names a searchable text column on the clause table
type ClauseField string

const (
	FieldPlainSummary ClauseField = "plain_summary"
	FieldClauseText   ClauseField = "clause_text"
)

// SearchableFields lists the fields the keyword leg matches against, in query order
var SearchableFields = []ClauseField{FieldPlainSummary, FieldClauseText}

// Filters holds the optional restrictions applied to keyword lookups
type Filters struct {
	Tags          []string `json:"tags,omitempty"`
	StructureType string   `json:"structure_type,omitempty"`
	ConcernLevel  string   `json:"concern_level,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f Filters) IsEmpty() bool {
	return len(f.Tags) == 0 && f.StructureType == "" && f.ConcernLevel == ""
}

// KeywordQuery is a disjunctive substring match of Terms over all SearchableFields
type KeywordQuery struct {
	Terms   []string
	Filters Filters
	Limit   int
}
