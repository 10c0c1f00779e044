package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecedenceLevel(t *testing.T) {
	tests := []struct {
		raw  Precedence
		want int
	}{
		{"1", 1},
		{" 4 ", 4},
		{"3.0", 3},
		{"", DefaultPrecedence},
		{"high", DefaultPrecedence},
		{"2.5", DefaultPrecedence},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.raw.Level(), "raw %q", tt.raw)
	}
}

func TestClauseUnmarshal_LenientFields(t *testing.T) {
	var c Clause
	err := json.Unmarshal([]byte(`{
		"id": "row-7",
		"plain_summary": "Fences may not exceed six feet.",
		"precedence_level": 2,
		"tags": "fence"
	}`), &c)
	require.NoError(t, err)

	assert.Equal(t, 2, c.PrecedenceLevel.Level())
	assert.Empty(t, c.Tags)

	err = json.Unmarshal([]byte(`{"precedence_level": "n/a", "tags": ["fence", 3, "height"]}`), &c)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrecedence, c.PrecedenceLevel.Level())
	assert.Equal(t, Tags{"fence", "height"}, c.Tags)

	err = json.Unmarshal([]byte(`{"precedence_level": null, "tags": null}`), &c)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrecedence, c.PrecedenceLevel.Level())
	assert.Empty(t, c.Tags)
}

func TestPrecedenceMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Precedence `json:"a"`
		B Precedence `json:"b"`
		C Precedence `json:"c"`
	}{"3", "first", ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 3, "b": "first", "c": null}`, string(out))
}

func TestClauseResolveID(t *testing.T) {
	c := Clause{ClauseID: "ART-6.2", ID: "42"}
	c.ResolveID()
	assert.Equal(t, "ART-6.2", c.ClauseID)

	c = Clause{ID: "42"}
	c.Tag(SourceKeyword)
	assert.Equal(t, "42", c.ClauseID)
	assert.Equal(t, SourceKeyword, c.MatchSource)

	a := Clause{PlainSummary: "Sheds need approval."}
	b := Clause{PlainSummary: "Sheds need approval."}
	a.ResolveID()
	b.ResolveID()
	assert.NotEmpty(t, a.ClauseID)
	assert.Equal(t, a.ClauseID, b.ClauseID, "content-derived ids are deterministic")
}

func TestClauseDefaults(t *testing.T) {
	c := Clause{}
	assert.Equal(t, "No summary provided.", c.SummaryOrDefault())
	assert.Equal(t, "Unknown", c.DocumentOrDefault())
}
