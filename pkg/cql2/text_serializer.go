package cql2

import (
	"fmt"
	"strconv"
	"strings"
)

// ToText renders an Expr as canonical cql2-text: upper-case keywords for
// logical/temporal/LIKE/BETWEEN/IN/NULL combinators, infix symbols for
// comparison and arithmetic, double-quoted identifiers always, and
// parentheses everywhere precedence would otherwise be ambiguous except
// around the outermost expression.
func ToText(e Expr) (string, error) {
	var sb strings.Builder
	if err := writeText(&sb, e, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// precedence levels, lowest to highest, matching the text_parser.go ladder.
const (
	precOr = iota
	precAnd
	precNot
	precComparison
	precConcat
	precAdditive
	precMultiplicative
	precPow
	precUnary
	precAtom
)

func opPrecedence(op string) int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpNot:
		return precNot
	case OpConcat:
		return precConcat
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv, OpMod, OpIntDiv:
		return precMultiplicative
	case OpPow:
		return precPow
	}
	if comparisonOps[op] {
		return precComparison
	}
	return precAtom
}

func writeText(sb *strings.Builder, e Expr, minPrec int) error {
	switch v := e.(type) {
	case Bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
		return nil
	case Integer:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
		return nil
	case Float:
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
		return nil
	case String:
		sb.WriteString(quoteText(string(v)))
		return nil
	case Null:
		sb.WriteString("NULL")
		return nil
	case Date:
		fmt.Fprintf(sb, "DATE('%s')", v.Time.Format("2006-01-02"))
		return nil
	case Timestamp:
		fmt.Fprintf(sb, "TIMESTAMP('%s')", canonicalTimestamp(v.Time))
		return nil
	case OpenBound:
		sb.WriteString("'..'")
		return nil
	case Interval:
		sb.WriteString("INTERVAL(")
		if err := writeIntervalBound(sb, v.Start); err != nil {
			return err
		}
		sb.WriteString(", ")
		if err := writeIntervalBound(sb, v.End); err != nil {
			return err
		}
		sb.WriteString(")")
		return nil
	case Property:
		sb.WriteString(quoteIdent(v.Name))
		return nil
	case Geometry:
		s, err := serializeWKT(v)
		if err != nil {
			return err
		}
		sb.WriteString(s)
		return nil
	case BBox:
		sb.WriteString("BBOX(")
		for i, f := range v.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
		sb.WriteString(")")
		return nil
	case Array:
		sb.WriteString("(")
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeText(sb, item, 0); err != nil {
				return err
			}
		}
		sb.WriteString(")")
		return nil
	case Operation:
		return writeOperation(sb, v, minPrec)
	}
	return newParseError(Pos{}, "cannot serialize %T to text", e)
}

func writeIntervalBound(sb *strings.Builder, e Expr) error {
	if _, ok := e.(OpenBound); ok {
		sb.WriteString("'..'")
		return nil
	}
	return writeText(sb, e, 0)
}

func writeOperation(sb *strings.Builder, op Operation, minPrec int) error {
	switch op.Op {
	case OpAnd, OpOr:
		return writeVariadicBool(sb, op, minPrec)
	case OpNot:
		return writeNot(sb, op, minPrec)
	case OpLike:
		return writeInfixKeyword(sb, op, "LIKE", minPrec)
	case OpBetween:
		return writeBetween(sb, op, minPrec)
	case OpIn:
		return writeIn(sb, op, minPrec)
	case OpIsNull:
		return writeIsNull(sb, op, minPrec)
	case OpConcat:
		return writeBinaryInfix(sb, op, "||", precConcat, minPrec)
	case OpAdd:
		return writeBinaryInfix(sb, op, "+", precAdditive, minPrec)
	case OpSub:
		return writeBinaryInfix(sb, op, "-", precAdditive, minPrec)
	case OpMul:
		return writeBinaryInfix(sb, op, "*", precMultiplicative, minPrec)
	case OpDiv:
		return writeBinaryInfix(sb, op, "/", precMultiplicative, minPrec)
	case OpMod:
		return writeBinaryInfix(sb, op, "%", precMultiplicative, minPrec)
	case OpIntDiv:
		return writeBinaryInfix(sb, op, "DIV", precMultiplicative, minPrec)
	case OpPow:
		return writeBinaryInfix(sb, op, "^", precPow, minPrec)
	}
	if comparisonOps[op.Op] {
		return writeBinaryInfix(sb, op, op.Op, precComparison, minPrec)
	}
	// Temporal, spatial, array predicates and user-defined functions all
	// render as NAME(arg, arg, ...).
	return writeFunctionCall(sb, op)
}

func writeVariadicBool(sb *strings.Builder, op Operation, minPrec int) error {
	prec := opPrecedence(op.Op)
	needParen := prec < minPrec
	if needParen {
		sb.WriteString("(")
	}
	kw := " AND "
	if op.Op == OpOr {
		kw = " OR "
	}
	for i, arg := range op.Args {
		if i > 0 {
			sb.WriteString(kw)
		}
		if err := writeText(sb, arg, prec+1); err != nil {
			return err
		}
	}
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeNot(sb *strings.Builder, op Operation, minPrec int) error {
	prec := precNot
	needParen := prec < minPrec
	if needParen {
		sb.WriteString("(")
	}
	sb.WriteString("NOT ")
	if err := writeText(sb, op.Args[0], prec); err != nil {
		return err
	}
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeInfixKeyword(sb *strings.Builder, op Operation, keyword string, minPrec int) error {
	needParen := precComparison < minPrec
	if needParen {
		sb.WriteString("(")
	}
	if err := writeText(sb, op.Args[0], precComparison+1); err != nil {
		return err
	}
	sb.WriteString(" ")
	sb.WriteString(keyword)
	sb.WriteString(" ")
	if s, ok := op.Args[1].(String); ok {
		sb.WriteString(quoteText(string(s)))
	} else if err := writeText(sb, op.Args[1], precComparison+1); err != nil {
		return err
	}
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeBetween(sb *strings.Builder, op Operation, minPrec int) error {
	needParen := precComparison < minPrec
	if needParen {
		sb.WriteString("(")
	}
	if err := writeText(sb, op.Args[0], precComparison+1); err != nil {
		return err
	}
	sb.WriteString(" BETWEEN ")
	if err := writeText(sb, op.Args[1], precAdditive); err != nil {
		return err
	}
	sb.WriteString(" AND ")
	if err := writeText(sb, op.Args[2], precAdditive); err != nil {
		return err
	}
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeIn(sb *strings.Builder, op Operation, minPrec int) error {
	needParen := precComparison < minPrec
	if needParen {
		sb.WriteString("(")
	}
	if err := writeText(sb, op.Args[0], precComparison+1); err != nil {
		return err
	}
	sb.WriteString(" IN (")
	if arr, ok := op.Args[1].(Array); ok {
		for i, item := range arr.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeText(sb, item, 0); err != nil {
				return err
			}
		}
	}
	sb.WriteString(")")
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeIsNull(sb *strings.Builder, op Operation, minPrec int) error {
	needParen := precComparison < minPrec
	if needParen {
		sb.WriteString("(")
	}
	if err := writeText(sb, op.Args[0], precComparison+1); err != nil {
		return err
	}
	sb.WriteString(" IS NULL")
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeBinaryInfix(sb *strings.Builder, op Operation, symbol string, prec, minPrec int) error {
	needParen := prec < minPrec
	if needParen {
		sb.WriteString("(")
	}
	leftMin := prec
	rightMin := prec + 1
	if symbol == "^" {
		// right-associative: the left operand needs the tighter bound.
		leftMin, rightMin = prec+1, prec
	}
	if err := writeText(sb, op.Args[0], leftMin); err != nil {
		return err
	}
	sb.WriteString(" ")
	sb.WriteString(symbol)
	sb.WriteString(" ")
	if err := writeText(sb, op.Args[1], rightMin); err != nil {
		return err
	}
	if needParen {
		sb.WriteString(")")
	}
	return nil
}

func writeFunctionCall(sb *strings.Builder, op Operation) error {
	name := op.Op
	if isTemporalOp(name) || isSpatialOp(name) || isArrayOp(name) || name == OpCasei || name == OpAccenti {
		name = strings.ToUpper(name)
	}
	sb.WriteString(name)
	sb.WriteString("(")
	for i, a := range op.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := writeText(sb, a, 0); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

// quoteText escapes a string literal using the SQL-style doubled-quote rule.
func quoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent double-quotes a property name: identifiers are always emitted
// double-quoted in canonical cql2-text.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
