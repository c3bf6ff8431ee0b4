package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTextRoundTrip(t *testing.T) {
	inputs := []string{
		`"collection" = 'landsat8'`,
		`"a" = 1 AND "b" = 2 AND "c" = 3`,
		`NOT ("name" LIKE 'foo%')`,
		`"value" BETWEEN 10 AND 20`,
		`1 + 2 * 3`,
		`(1 + 2) * 3`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			expr, err := ParseText(in)
			require.NoError(t, err)
			text, err := ToText(expr)
			require.NoError(t, err)
			reparsed, err := ParseText(text)
			require.NoError(t, err)
			assert.True(t, Equals(expr, reparsed), "round-trip mismatch: %s -> %s", in, text)
		})
	}
}

func TestToTextUppercasesKeywords(t *testing.T) {
	expr := Operation{Op: OpAnd, Args: []Expr{Bool(true), Bool(false)}}
	text, err := ToText(expr)
	require.NoError(t, err)
	assert.Contains(t, text, "AND")
}

func TestToTextQuotesIdentifiersAlways(t *testing.T) {
	text, err := ToText(Property{Name: "simple"})
	require.NoError(t, err)
	assert.Equal(t, `"simple"`, text)
}

func TestToTextTemporalUppercase(t *testing.T) {
	start, err := parseTimestampValue("2020-01-01T00:00:00Z")
	require.NoError(t, err)
	end, err := parseTimestampValue("2021-01-01T00:00:00Z")
	require.NoError(t, err)
	op := Operation{Op: "t_before", Args: []Expr{
		Timestamp{Time: start},
		Timestamp{Time: end},
	}}
	text, err := ToText(op)
	require.NoError(t, err)
	assert.Contains(t, text, "T_BEFORE")
}
