package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Expr
	}{
		{
			name:  "simple equals",
			input: `"collection" = 'landsat8'`,
			expected: Operation{Op: OpEq, Args: []Expr{
				Property{Name: "collection"}, String("landsat8"),
			}},
		},
		{
			name:     "arithmetic",
			input:    "1 + 2",
			expected: Operation{Op: OpAdd, Args: []Expr{Integer(1), Integer(2)}},
		},
		{
			name:  "and flattening",
			input: `a = 1 AND b = 2 AND c = 3`,
			expected: Operation{Op: OpAnd, Args: []Expr{
				Operation{Op: OpEq, Args: []Expr{Property{Name: "a"}, Integer(1)}},
				Operation{Op: OpEq, Args: []Expr{Property{Name: "b"}, Integer(2)}},
				Operation{Op: OpEq, Args: []Expr{Property{Name: "c"}, Integer(3)}},
			}},
		},
		{
			name:  "not like folds outward",
			input: `"name" NOT LIKE 'foo%'`,
			expected: Operation{Op: OpNot, Args: []Expr{
				Operation{Op: OpLike, Args: []Expr{Property{Name: "name"}, String("foo%")}},
			}},
		},
		{
			name:  "between",
			input: `"value" BETWEEN 10 AND 20`,
			expected: Operation{Op: OpBetween, Args: []Expr{
				Property{Name: "value"}, Integer(10), Integer(20),
			}},
		},
		{
			name:  "unary minus on literal",
			input: "-5",
			expected: Integer(-5),
		},
		{
			name:  "unary minus on expression",
			input: `-"x"`,
			expected: Operation{Op: OpMul, Args: []Expr{Integer(-1), Property{Name: "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseText(tt.input)
			require.NoError(t, err)
			assert.True(t, Equals(tt.expected, got), "got %#v, want %#v", got, tt.expected)
		})
	}
}

func TestParseTextNotLikeEqualsExplicitNot(t *testing.T) {
	a, err := ParseText(`NOT "name" LIKE 'foo%'`)
	require.NoError(t, err)
	b, err := ParseText(`"name" NOT LIKE 'foo%'`)
	require.NoError(t, err)
	assert.True(t, Equals(a, b))
}

func TestParseTextSpatialPreserved(t *testing.T) {
	expr, err := ParseText(`S_INTERSECTS("geometry", POINT(36.3 32.3))`)
	require.NoError(t, err)
	op, ok := expr.(Operation)
	require.True(t, ok)
	assert.Equal(t, "s_intersects", op.Op)
	_, ok = op.Args[1].(Geometry)
	assert.True(t, ok)
}

func TestParseTextInvalid(t *testing.T) {
	invalid := []string{
		``,
		`(unclosed`,
		`"a" === "b"`,
	}
	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := ParseText(input)
			assert.Error(t, err)
		})
	}
}

func TestParseTextWKTGeometry(t *testing.T) {
	expr, err := ParseText(`LINESTRING(1 1, 2 2, 3 3)`)
	require.NoError(t, err)
	g, ok := expr.(Geometry)
	require.True(t, ok)
	assert.Equal(t, 3, g.Geom.(interface{ NumCoords() int }).NumCoords())
}
