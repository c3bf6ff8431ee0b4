package cql2

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL rendering flavor for ToSQL.
type Dialect int

const (
	// DialectDefault emits vanilla ANSI-ish SQL: `LIKE`, `x IN (...)`
	// membership, and a_* array predicates as function calls of the same name.
	DialectDefault Dialect = iota
	// DialectDuckDB substitutes DuckDB's case-sensitive `~~` LIKE operator
	// and `list_*` functions for array predicates.
	DialectDuckDB
)

// SQLQuery is a parameterized SQL fragment: Query has positional `$1, $2,
// ...` placeholders; Params holds the corresponding values in left-to-right
// order of appearance.
type SQLQuery struct {
	Query  string
	Params []interface{}
}

// ToSQL renders expr as a parameterized SQL boolean expression. The core
// never executes the query; downstream code supplies Params to its own
// driver.
func ToSQL(expr Expr, dialect Dialect) (SQLQuery, error) {
	b := &sqlBuilder{dialect: dialect}
	if err := b.write(expr); err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{Query: b.sb.String(), Params: b.params}, nil
}

type sqlBuilder struct {
	sb      strings.Builder
	params  []interface{}
	dialect Dialect
}

func (b *sqlBuilder) bind(v interface{}) {
	b.params = append(b.params, v)
	fmt.Fprintf(&b.sb, "$%d", len(b.params))
}

func (b *sqlBuilder) write(e Expr) error {
	switch v := e.(type) {
	case Bool:
		b.bind(bool(v))
		return nil
	case Integer:
		b.bind(int64(v))
		return nil
	case Float:
		b.bind(float64(v))
		return nil
	case String:
		b.bind(string(v))
		return nil
	case Null:
		b.sb.WriteString("NULL")
		return nil
	case Date:
		b.bind(v.Time.Format("2006-01-02"))
		return nil
	case Timestamp:
		b.bind(canonicalTimestamp(v.Time))
		return nil
	case Property:
		b.sb.WriteString(sqlQuoteIdent(v.Name))
		return nil
	case BBox:
		b.sb.WriteString("(")
		for i, f := range v.Values {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.bind(f)
		}
		b.sb.WriteString(")")
		return nil
	case Geometry:
		s, err := serializeWKT(v)
		if err != nil {
			return err
		}
		b.bind(s)
		return nil
	case Array:
		b.sb.WriteString("(")
		for i, item := range v.Items {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			if err := b.write(item); err != nil {
				return err
			}
		}
		b.sb.WriteString(")")
		return nil
	case Interval:
		b.sb.WriteString("(")
		if err := b.writeIntervalBound(v.Start); err != nil {
			return err
		}
		b.sb.WriteString(", ")
		if err := b.writeIntervalBound(v.End); err != nil {
			return err
		}
		b.sb.WriteString(")")
		return nil
	case Operation:
		return b.writeOperation(v)
	}
	return newEvalError("", nil, "cannot render %T to SQL", e)
}

func (b *sqlBuilder) writeIntervalBound(e Expr) error {
	if _, ok := e.(OpenBound); ok {
		b.sb.WriteString("NULL")
		return nil
	}
	return b.write(e)
}

func (b *sqlBuilder) writeOperation(op Operation) error {
	switch op.Op {
	case OpAnd, OpOr:
		return b.writeVariadic(op)
	case OpNot:
		b.sb.WriteString("NOT (")
		if err := b.write(op.Args[0]); err != nil {
			return err
		}
		b.sb.WriteString(")")
		return nil
	case OpLike:
		return b.writeBinary(op.Args[0], op.Args[1], b.likeOperator())
	case OpBetween:
		b.sb.WriteString("(")
		if err := b.write(op.Args[0]); err != nil {
			return err
		}
		b.sb.WriteString(" BETWEEN ")
		if err := b.write(op.Args[1]); err != nil {
			return err
		}
		b.sb.WriteString(" AND ")
		if err := b.write(op.Args[2]); err != nil {
			return err
		}
		b.sb.WriteString(")")
		return nil
	case OpIn:
		return b.writeBinary(op.Args[0], op.Args[1], "IN")
	case OpIsNull:
		b.sb.WriteString("(")
		if err := b.write(op.Args[0]); err != nil {
			return err
		}
		b.sb.WriteString(" IS NULL)")
		return nil
	case OpConcat:
		return b.writeBinary(op.Args[0], op.Args[1], "||")
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return b.writeBinary(op.Args[0], op.Args[1], op.Op)
	case OpIntDiv:
		return b.writeBinary(op.Args[0], op.Args[1], "/")
	}
	if comparisonOps[op.Op] {
		return b.writeBinary(op.Args[0], op.Args[1], op.Op)
	}
	if isArrayOp(op.Op) {
		return b.writeArrayPredicate(op)
	}
	// Temporal and spatial predicates, and any unrecognized user function,
	// all render as `name(arg, arg, ...)`; downstream engines must supply
	// the implementation.
	return b.writeFunctionCall(op)
}

func (b *sqlBuilder) writeVariadic(op Operation) error {
	kw := " AND "
	if op.Op == OpOr {
		kw = " OR "
	}
	b.sb.WriteString("(")
	for i, arg := range op.Args {
		if i > 0 {
			b.sb.WriteString(kw)
		}
		if err := b.write(arg); err != nil {
			return err
		}
	}
	b.sb.WriteString(")")
	return nil
}

func (b *sqlBuilder) writeBinary(left, right Expr, op string) error {
	b.sb.WriteString("(")
	if err := b.write(left); err != nil {
		return err
	}
	b.sb.WriteString(" ")
	b.sb.WriteString(op)
	b.sb.WriteString(" ")
	if err := b.write(right); err != nil {
		return err
	}
	b.sb.WriteString(")")
	return nil
}

func (b *sqlBuilder) writeFunctionCall(op Operation) error {
	b.sb.WriteString(op.Op)
	b.sb.WriteString("(")
	for i, a := range op.Args {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		if err := b.write(a); err != nil {
			return err
		}
	}
	b.sb.WriteString(")")
	return nil
}

func (b *sqlBuilder) likeOperator() string {
	if b.dialect == DialectDuckDB {
		return "~~"
	}
	return "LIKE"
}

// writeArrayPredicate renders a_* predicates; DuckDB gets its native
// list_* function family, the default dialect falls back to the same
// function-call form spatial/temporal predicates use.
func (b *sqlBuilder) writeArrayPredicate(op Operation) error {
	if b.dialect != DialectDuckDB {
		return b.writeFunctionCall(op)
	}
	var name string
	left, right := op.Args[0], op.Args[1]
	switch op.Op {
	case "a_equals":
		name = "list_equals"
	case "a_contains":
		name = "list_contains_all"
	case "a_containedBy":
		name = "list_contains_all"
		left, right = right, left
	case "a_overlaps":
		name = "list_intersect_all"
	default:
		return b.writeFunctionCall(op)
	}
	b.sb.WriteString(name)
	b.sb.WriteString("(")
	if err := b.write(left); err != nil {
		return err
	}
	b.sb.WriteString(", ")
	if err := b.write(right); err != nil {
		return err
	}
	b.sb.WriteString(")")
	return nil
}

func sqlQuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
