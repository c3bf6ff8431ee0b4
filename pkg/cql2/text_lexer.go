package cql2

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// textLexer tokenizes cql2-text. Rule order matters for participle's simple
// lexer: more specific patterns are listed before the generic Ident catch-all.
var textLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "QuotedIdent", Pattern: `"(?:""|[^"])*"`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},
	{Name: "CompOp", Pattern: `<>|<=|>=|[=<>]`},
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|NOT|LIKE|BETWEEN|IN|IS|NULL|DIV|TRUE|FALSE|DATE|TIMESTAMP|INTERVAL|BBOX)\b`},
	{Name: "GeomKeyword", Pattern: `(?i)\b(POINT|LINESTRING|POLYGON|MULTIPOINT|MULTILINESTRING|MULTIPOLYGON|GEOMETRYCOLLECTION)\b`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}0-9_.:]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "ArithOp", Pattern: `\|\||[-+*/%^]`},
})

// unquoteCQL2String strips the outer single quotes and collapses the
// SQL-style doubled-quote escape (§4.1): 'it''s' -> it's.
func unquoteCQL2String(raw string) string {
	inner := raw[1 : len(raw)-1]
	return strings.ReplaceAll(inner, "''", "'")
}

// unquoteCQL2Ident strips the outer double quotes of a quoted identifier
// and collapses the doubled double-quote escape.
func unquoteCQL2Ident(raw string) string {
	inner := raw[1 : len(raw)-1]
	return strings.ReplaceAll(inner, `""`, `"`)
}
