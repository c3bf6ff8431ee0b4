// Package cql2 implements the OGC CQL2 expression engine: parsing both
// concrete syntaxes (cql2-text, cql2-json) into a single AST, validating
// that AST against the CQL2 JSON Schema, partially or fully reducing it
// against an optional item, and emitting canonical text, JSON, or SQL.
package cql2

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Expr is the sum type of every CQL2 expression node. It is never mutated
// in place; transformations return a new tree.
type Expr interface {
	isExpr()
}

// Bool is a truth literal.
type Bool bool

func (Bool) isExpr() {}

// Integer is a signed integer literal. Kept distinct from Float so that
// round-tripping `1` does not turn into `1.0`.
type Integer int64

func (Integer) isExpr() {}

// Float is a 64-bit IEEE-754 numeric literal.
type Float float64

func (Float) isExpr() {}

// String is a Unicode string literal.
type String string

func (String) isExpr() {}

// Null is the SQL-style NULL literal.
type Null struct{}

func (Null) isExpr() {}

// Date is a calendar date in ISO-8601 (YYYY-MM-DD), parsed to midnight UTC.
type Date struct {
	Time time.Time
}

func (Date) isExpr() {}

// Timestamp is an RFC 3339 instant, optionally with fractional seconds and
// a time zone offset.
type Timestamp struct {
	Time time.Time
}

func (Timestamp) isExpr() {}

// OpenBound is the ".." sentinel used as an open-ended interval endpoint.
type OpenBound struct{}

func (OpenBound) isExpr() {}

// Interval is an ordered pair of temporal bounds. Each bound is a Date, a
// Timestamp, an OpenBound, or a nested Expr that must reduce to one of
// those.
type Interval struct {
	Start Expr
	End   Expr
}

func (Interval) isExpr() {}

// Property references a field of the item being evaluated against. Names
// are preserved verbatim, including dots, colons, and Unicode letters.
type Property struct {
	Name string
}

func (Property) isExpr() {}

// Geometry wraps a GeoJSON/WKT geometry value.
type Geometry struct {
	Geom geom.T
}

func (Geometry) isExpr() {}

// BBox is an ordered sequence of 4 or 6 numbers: [xmin, ymin, (zmin,)
// xmax, ymax, (zmax)].
type BBox struct {
	Values []float64
}

func (BBox) isExpr() {}

// Array is an ordered sequence of sub-expressions.
type Array struct {
	Items []Expr
}

func (Array) isExpr() {}

// Operation is a named operator applied to an ordered argument list. Op is
// always the canonical lower-case name; unrecognized names are preserved
// verbatim as user-defined functions.
type Operation struct {
	Op   string
	Args []Expr
}

func (Operation) isExpr() {}

// Canonical operator names.
const (
	OpAnd     = "and"
	OpOr      = "or"
	OpNot     = "not"
	OpEq      = "="
	OpNeq     = "<>"
	OpLt      = "<"
	OpLte     = "<="
	OpGt      = ">"
	OpGte     = ">="
	OpAdd     = "+"
	OpSub     = "-"
	OpMul     = "*"
	OpDiv     = "/"
	OpMod     = "%"
	OpPow     = "^"
	OpIntDiv  = "div"
	OpConcat  = "||"
	OpLike    = "like"
	OpBetween = "between"
	OpIn      = "in"
	OpIsNull  = "isNull"
	OpCasei   = "casei"
	OpAccenti = "accenti"
)

// Allen interval algebra predicate names.
var temporalOps = map[string]bool{
	"t_before": true, "t_after": true, "t_equals": true, "t_disjoint": true,
	"t_intersects": true, "t_contains": true, "t_during": true, "t_meets": true,
	"t_metBy": true, "t_overlaps": true, "t_overlappedBy": true,
	"t_starts": true, "t_startedBy": true, "t_finishes": true, "t_finishedBy": true,
}

// Spatial predicate names. Always preserved verbatim; never evaluated.
var spatialOps = map[string]bool{
	"s_intersects": true, "s_contains": true, "s_within": true,
	"s_disjoint": true, "s_equals": true, "s_touches": true,
	"s_overlaps": true, "s_crosses": true,
}

// Array predicate names.
var arrayOps = map[string]bool{
	"a_equals": true, "a_contains": true, "a_containedBy": true, "a_overlaps": true,
}

var comparisonOps = map[string]bool{
	OpEq: true, OpNeq: true, OpLt: true, OpLte: true, OpGt: true, OpGte: true,
}

var arithmeticOps = map[string]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true, OpPow: true, OpIntDiv: true,
}

func isTemporalOp(op string) bool { return temporalOps[op] }
func isSpatialOp(op string) bool  { return spatialOps[op] }
func isArrayOp(op string) bool    { return arrayOps[op] }

// arity reports the required argument count for built-in operators, and
// whether that count is exact (false means "at least").
//
// Unknown operators (user-defined functions) return ok=false: the caller
// treats them as variadic extension points rather than arity errors.
func arity(op string) (n int, exact bool, ok bool) {
	switch op {
	case OpAnd, OpOr:
		return 2, false, true
	case OpNot, OpIsNull, OpCasei, OpAccenti:
		return 1, true, true
	case OpBetween:
		return 3, true, true
	case OpIn:
		return 2, true, true
	case OpLike:
		return 2, true, true
	case OpConcat:
		return 2, true, true
	}
	if comparisonOps[op] || arithmeticOps[op] {
		return 2, true, true
	}
	if isTemporalOp(op) || isSpatialOp(op) || isArrayOp(op) {
		return 2, true, true
	}
	return 0, false, false
}
