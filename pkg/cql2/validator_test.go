package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidExpressions(t *testing.T) {
	inputs := []string{
		`"collection" = 'landsat8'`,
		`"a" = 1 AND "b" = 2`,
		`"value" BETWEEN 10 AND 20`,
		`S_INTERSECTS("geometry", POINT(36.3 32.3))`,
		`"name" IN ('a', 'b', 'c')`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			expr, err := ParseText(in)
			require.NoError(t, err)
			assert.NoError(t, Validate(expr))
			assert.True(t, IsValid(expr))
		})
	}
}

func TestValidateWrongArity(t *testing.T) {
	expr := Operation{Op: OpBetween, Args: []Expr{Property{Name: "value"}, Integer(10)}}
	err := Validate(expr)
	assert.Error(t, err)
	assert.False(t, IsValid(expr))
}

func TestValidateWrongArgType(t *testing.T) {
	expr := Operation{Op: OpAnd, Args: []Expr{String("not a boolean"), Bool(true)}}
	err := Validate(expr)
	assert.Error(t, err)
}

func TestValidateGeometryShape(t *testing.T) {
	expr, err := ParseText(`S_WITHIN("geometry", POLYGON((0 0, 0 1, 1 1, 1 0, 0 0)))`)
	require.NoError(t, err)
	assert.NoError(t, Validate(expr))
}
