package cql2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSQLPositionalParams(t *testing.T) {
	expr, err := ParseText(`"collection" = 'landsat8' AND "cloud_cover" < 10`)
	require.NoError(t, err)
	query, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "$1")
	assert.Contains(t, query.Query, "$2")
	require.Len(t, query.Params, 2)
	assert.Equal(t, "landsat8", query.Params[0])
	assert.Equal(t, int64(10), query.Params[1])
}

func TestToSQLLikeDialects(t *testing.T) {
	expr, err := ParseText(`"name" LIKE 'foo%'`)
	require.NoError(t, err)

	def, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, def.Query, "LIKE")

	duck, err := ToSQL(expr, DialectDuckDB)
	require.NoError(t, err)
	assert.Contains(t, duck.Query, "~~")
}

func TestToSQLBetween(t *testing.T) {
	expr, err := ParseText(`"value" BETWEEN 10 AND 20`)
	require.NoError(t, err)
	query, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "BETWEEN")
	assert.Contains(t, query.Query, "AND")
	require.Len(t, query.Params, 2)
}

func TestToSQLArrayPredicateDuckDB(t *testing.T) {
	expr := Operation{Op: "a_contains", Args: []Expr{
		Property{Name: "tags"},
		Array{Items: []Expr{String("a"), String("b")}},
	}}

	duck, err := ToSQL(expr, DialectDuckDB)
	require.NoError(t, err)
	assert.Contains(t, duck.Query, "list_contains_all")

	def, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, def.Query, "a_contains(")
}

func TestToSQLSpatialFunctionCallPreserved(t *testing.T) {
	expr, err := ParseText(`S_INTERSECTS("geometry", POINT(36.3 32.3))`)
	require.NoError(t, err)
	query, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "s_intersects(")
	require.Len(t, query.Params, 1)
	assert.Contains(t, query.Params[0], "POINT")
}

func TestToSQLIdentifierQuoting(t *testing.T) {
	query, err := ToSQL(Property{Name: "eo:cloud_cover"}, DialectDefault)
	require.NoError(t, err)
	assert.Equal(t, `"eo:cloud_cover"`, query.Query)
	assert.Empty(t, query.Params)
}

func TestToSQLIntervalWithOpenBound(t *testing.T) {
	expr := Operation{Op: "t_during", Args: []Expr{
		Property{Name: "datetime"},
		Interval{Start: Timestamp{Time: mustParseTimestamp("2020-01-01T00:00:00Z")}, End: OpenBound{}},
	}}
	query, err := ToSQL(expr, DialectDefault)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "NULL")
}

func mustParseTimestamp(s string) time.Time {
	t, err := parseTimestampValue(s)
	if err != nil {
		panic(err)
	}
	return t
}
