package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Expr
	}{
		{
			name:  "comparison",
			input: `{"op": "=", "args": [{"property": "collection"}, "landsat8"]}`,
			expected: Operation{Op: OpEq, Args: []Expr{
				Property{Name: "collection"}, String("landsat8"),
			}},
		},
		{
			name:  "and",
			input: `{"op": "and", "args": [true, false]}`,
			expected: Operation{Op: OpAnd, Args: []Expr{Bool(true), Bool(false)}},
		},
		{
			name:     "integer literal stays integer",
			input:    `{"op": "+", "args": [1, 2]}`,
			expected: Operation{Op: OpAdd, Args: []Expr{Integer(1), Integer(2)}},
		},
		{
			name:     "float literal",
			input:    `{"op": "+", "args": [1.5, 2]}`,
			expected: Operation{Op: OpAdd, Args: []Expr{Float(1.5), Integer(2)}},
		},
		{
			name:  "property",
			input: `{"property": "eo:cloud_cover"}`,
			expected: Property{Name: "eo:cloud_cover"},
		},
		{
			name:  "date",
			input: `{"date": "2020-01-01"}`,
		},
		{
			name:  "bbox",
			input: `{"bbox": [-180, -90, 180, 90]}`,
			expected: BBox{Values: []float64{-180, -90, 180, 90}},
		},
		{
			name:  "interval with open bound",
			input: `{"interval": ["2020-01-01", ".."]}`,
		},
		{
			name:  "array literal",
			input: `[1, 2, 3]`,
			expected: Array{Items: []Expr{Integer(1), Integer(2), Integer(3)}},
		},
		{
			name:     "null",
			input:    `null`,
			expected: Null{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON([]byte(tt.input))
			require.NoError(t, err)
			if tt.expected != nil {
				assert.True(t, Equals(tt.expected, got), "got %#v, want %#v", got, tt.expected)
			}
		})
	}
}

func TestParseJSONGeometry(t *testing.T) {
	input := `{"type": "Point", "coordinates": [36.3, 32.3]}`
	expr, err := ParseJSON([]byte(input))
	require.NoError(t, err)
	_, ok := expr.(Geometry)
	assert.True(t, ok)
}

func TestParseJSONArityError(t *testing.T) {
	_, err := ParseJSON([]byte(`{"op": "between", "args": [1, 2]}`))
	assert.Error(t, err)
}

func TestParseJSONInvalidShape(t *testing.T) {
	_, err := ParseJSON([]byte(`{"unexpected": true}`))
	assert.Error(t, err)
}
