package cql2

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToJSONRoundTrip(t *testing.T) {
	inputs := []string{
		`"collection" = 'landsat8'`,
		`"a" = 1 AND "b" = 2`,
		`"value" BETWEEN 10 AND 20`,
		`"name" IN ('a', 'b', 'c')`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			expr, err := ParseText(in)
			require.NoError(t, err)
			data, err := ToJSON(expr)
			require.NoError(t, err)
			reparsed, err := ParseJSON(data)
			require.NoError(t, err)
			assert.True(t, Equals(expr, reparsed))
		})
	}
}

func TestToJSONFieldOrder(t *testing.T) {
	expr := Operation{Op: OpEq, Args: []Expr{Property{Name: "x"}, Integer(1)}}
	data, err := ToJSON(expr)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, string(data), `"op"`)
	opIdx := indexOf(string(data), `"op"`)
	argsIdx := indexOf(string(data), `"args"`)
	assert.Less(t, opIdx, argsIdx, "\"op\" must precede \"args\" in canonical cql2-json")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
