package cql2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAutoDetectsJSON(t *testing.T) {
	expr, err := ParseAuto([]byte(`  {"op": "=", "args": [{"property": "collection"}, "landsat8"]}`))
	require.NoError(t, err)
	_, ok := expr.(Operation)
	assert.True(t, ok)
}

func TestParseAutoDetectsText(t *testing.T) {
	expr, err := ParseAuto([]byte(`"collection" = 'landsat8'`))
	require.NoError(t, err)
	text, err := ToText(expr)
	require.NoError(t, err)
	assert.Contains(t, text, "collection")
}

func TestParseAutoEquivalence(t *testing.T) {
	textExpr, err := ParseAuto([]byte(`"a" = 1 AND "b" = 2`))
	require.NoError(t, err)
	jsonExpr, err := ParseAuto([]byte(`{"op": "and", "args": [{"op": "=", "args": [{"property": "a"}, 1]}, {"op": "=", "args": [{"property": "b"}, 2]}]}`))
	require.NoError(t, err)
	assert.True(t, Equals(textExpr, jsonExpr))
}

func TestDecodeItemPreservesIntegers(t *testing.T) {
	item, err := DecodeItem([]byte(`{"id": 5, "cloud_cover": 12.5, "name": "x"}`))
	require.NoError(t, err)
	expr, err := ParseText(`"id" + 1`)
	require.NoError(t, err)
	reduced, err := Reduce(expr, item)
	require.NoError(t, err)
	assert.Equal(t, Integer(6), reduced)
}

func TestDecodeItemInvalidJSON(t *testing.T) {
	_, err := DecodeItem([]byte(`not json`))
	assert.Error(t, err)
}
