package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceArithmetic(t *testing.T) {
	expr, err := ParseText("1 + 2")
	require.NoError(t, err)
	reduced, err := Reduce(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, Integer(3), reduced)
}

func TestReduceWithItem(t *testing.T) {
	expr, err := ParseText(`"id" + 10`)
	require.NoError(t, err)
	item, err := DecodeItem([]byte(`{"id": 5}`))
	require.NoError(t, err)
	reduced, err := Reduce(expr, item)
	require.NoError(t, err)
	assert.Equal(t, Integer(15), reduced)
}

func TestReduceMissingPropertyIsNull(t *testing.T) {
	expr, err := ParseText(`"missing" IS NULL`)
	require.NoError(t, err)
	matched, err := Matches(expr, map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceLogicalShortCircuit(t *testing.T) {
	expr, err := ParseText(`"x" = 1 AND false`)
	require.NoError(t, err)
	reduced, err := Reduce(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, Bool(false), reduced)
}

func TestReduceDoubleNot(t *testing.T) {
	expr := Operation{Op: OpNot, Args: []Expr{
		Operation{Op: OpNot, Args: []Expr{Property{Name: "x"}}},
	}}
	reduced, err := Reduce(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, Property{Name: "x"}, reduced)
}

func TestReduceLike(t *testing.T) {
	expr, err := ParseText(`'landsat8' LIKE 'land%'`)
	require.NoError(t, err)
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceBetweenScenario(t *testing.T) {
	expr, err := ParseText(`"value" BETWEEN 10 AND 20`)
	require.NoError(t, err)
	item, err := DecodeItem([]byte(`{"value": 15}`))
	require.NoError(t, err)
	matched, err := Matches(expr, item)
	require.NoError(t, err)
	assert.True(t, matched)

	err = Validate(expr)
	require.NoError(t, err)

	query, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "BETWEEN")
}

func TestReduceDivisionByZero(t *testing.T) {
	expr, err := ParseText("1 / 0")
	require.NoError(t, err)
	_, err = Reduce(expr, nil)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestReduceIn(t *testing.T) {
	expr, err := ParseText(`"status" IN ('active', 'pending')`)
	require.NoError(t, err)
	item, err := DecodeItem([]byte(`{"status": "active"}`))
	require.NoError(t, err)
	matched, err := Matches(expr, item)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceSpatialPreserved(t *testing.T) {
	expr, err := ParseText(`S_INTERSECTS("geometry", POINT(36.3 32.3))`)
	require.NoError(t, err)
	reduced, err := Reduce(expr, map[string]interface{}{})
	require.NoError(t, err)
	op, ok := reduced.(Operation)
	require.True(t, ok)
	assert.Equal(t, "s_intersects", op.Op)
}

func TestReduceCaseiAccenti(t *testing.T) {
	expr, err := ParseText(`CASEI('Foo') = CASEI('foo')`)
	require.NoError(t, err)
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)

	expr, err = ParseText(`ACCENTI('café') = ACCENTI('cafe')`)
	require.NoError(t, err)
	matched, err = Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestMatchesNonBooleanErrors(t *testing.T) {
	expr, err := ParseText("1 + 2")
	require.NoError(t, err)
	_, err = Matches(expr, nil)
	assert.ErrorIs(t, err, ErrNotBoolean)
}

func TestReduceTemporalBefore(t *testing.T) {
	expr, err := ParseText(`T_BEFORE(DATE('2020-01-01'), DATE('2021-01-01'))`)
	require.NoError(t, err)
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceTemporalMeets(t *testing.T) {
	expr, err := ParseText(
		`T_MEETS(INTERVAL(DATE('2020-01-01'), DATE('2020-06-01')), ` +
			`INTERVAL(DATE('2020-06-01'), DATE('2020-12-01')))`)
	require.NoError(t, err)
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceTemporalDuring(t *testing.T) {
	expr, err := ParseText(
		`T_DURING(INTERVAL(DATE('2020-02-01'), DATE('2020-03-01')), ` +
			`INTERVAL(DATE('2020-01-01'), DATE('2020-06-01')))`)
	require.NoError(t, err)
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

// TestReduceTemporalOverlapsOpenStart covers the open-start interval case:
// an interval unbounded in the past never "overlaps" one strictly inside
// it — that relation is t_during, not t_overlaps.
func TestReduceTemporalOverlapsOpenStart(t *testing.T) {
	x := `INTERVAL(DATE('2020-01-01'), DATE('2020-03-01'))`
	y := `INTERVAL('..', DATE('2020-06-01'))`

	overlaps, err := ParseText(`T_OVERLAPS(` + x + `, ` + y + `)`)
	require.NoError(t, err)
	matched, err := Matches(overlaps, nil)
	require.NoError(t, err)
	assert.False(t, matched, "x strictly inside y's (-inf, end] range is 'during', not 'overlaps'")

	during, err := ParseText(`T_DURING(` + x + `, ` + y + `)`)
	require.NoError(t, err)
	matched, err = Matches(during, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceArrayEquals(t *testing.T) {
	expr := Operation{Op: "a_equals", Args: []Expr{
		Array{Items: []Expr{String("a"), String("b")}},
		Array{Items: []Expr{String("a"), String("b")}},
	}}
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceArrayContains(t *testing.T) {
	expr := Operation{Op: "a_contains", Args: []Expr{
		Array{Items: []Expr{String("a"), String("b"), String("c")}},
		Array{Items: []Expr{String("b"), String("c")}},
	}}
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceArrayContainedBy(t *testing.T) {
	expr := Operation{Op: "a_containedBy", Args: []Expr{
		Array{Items: []Expr{String("b"), String("c")}},
		Array{Items: []Expr{String("a"), String("b"), String("c")}},
	}}
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestReduceArrayOverlaps(t *testing.T) {
	expr := Operation{Op: "a_overlaps", Args: []Expr{
		Array{Items: []Expr{String("a"), String("b")}},
		Array{Items: []Expr{String("b"), String("c")}},
	}}
	matched, err := Matches(expr, nil)
	require.NoError(t, err)
	assert.True(t, matched)

	disjoint := Operation{Op: "a_overlaps", Args: []Expr{
		Array{Items: []Expr{String("a"), String("b")}},
		Array{Items: []Expr{String("c"), String("d")}},
	}}
	matched, err = Matches(disjoint, nil)
	require.NoError(t, err)
	assert.False(t, matched)
}
