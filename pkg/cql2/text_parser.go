package cql2

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
)

// textParser implements the cql2-text precedence ladder, lowest to
// highest: or, and, not, comparison (=, <>, <, <=, >, >=, like, between,
// in, is [not] null), ||, +/-, * / div %, ^, unary minus. Each level is a
// struct parsed by participle and converted to Expr bottom-up by toExpr.
var textParser = participle.MustBuild[textOrExpr](
	participle.Lexer(textLexer),
	participle.CaseInsensitive("Keyword", "GeomKeyword"),
	participle.UseLookahead(2),
)

// ParseText parses a cql2-text expression into an Expr.
func ParseText(input string) (Expr, error) {
	ast, err := textParser.ParseString("", input)
	if err != nil {
		if perr, ok := err.(participle.Error); ok {
			p := perr.Position()
			return nil, newParseError(Pos{Line: p.Line, Column: p.Column, Offset: p.Offset}, "%s", perr.Message())
		}
		return nil, wrapParseError(err, "failed to parse cql2-text")
	}
	return ast.toExpr()
}

// --- or / and / not -------------------------------------------------------

type textOrExpr struct {
	Left *textAndExpr   `@@`
	Rest []*textAndExpr `("OR" @@)*`
}

func (e *textOrExpr) toExpr() (Expr, error) {
	return buildAssoc(OpOr, e.Left.toExpr, e.Rest, func(n *textAndExpr) (Expr, error) { return n.toExpr() })
}

type textAndExpr struct {
	Left *textNotExpr   `@@`
	Rest []*textNotExpr `("AND" @@)*`
}

func (e *textAndExpr) toExpr() (Expr, error) {
	return buildAssoc(OpAnd, e.Left.toExpr, e.Rest, func(n *textNotExpr) (Expr, error) { return n.toExpr() })
}

// buildAssoc folds a left + rest chain into a flattened n-ary Operation,
// splicing any direct child that is already the same operator, so
// "(a AND b) AND c" and "a AND (b AND c)" both reduce to one node.
func buildAssoc[T any](op string, first func() (Expr, error), rest []T, conv func(T) (Expr, error)) (Expr, error) {
	head, err := first()
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return head, nil
	}
	args := flattenInto(op, nil, head)
	for _, r := range rest {
		e, err := conv(r)
		if err != nil {
			return nil, err
		}
		args = flattenInto(op, args, e)
	}
	return Operation{Op: op, Args: args}, nil
}

func flattenInto(op string, args []Expr, e Expr) []Expr {
	if o, ok := e.(Operation); ok && o.Op == op {
		return append(args, o.Args...)
	}
	return append(args, e)
}

type textNotExpr struct {
	Not *textNotExpr        `  "NOT" @@`
	Cmp *textComparisonExpr `| @@`
}

func (e *textNotExpr) toExpr() (Expr, error) {
	if e.Not != nil {
		inner, err := e.Not.toExpr()
		if err != nil {
			return nil, err
		}
		return Operation{Op: OpNot, Args: []Expr{inner}}, nil
	}
	return e.Cmp.toExpr()
}

// --- comparison (with NOT LIKE / NOT IN / NOT BETWEEN / IS [NOT] NULL folding) ---

type textComparisonExpr struct {
	Left *textConcatExpr `@@`
	Tail *textCompTail   `@@?`
}

func (e *textComparisonExpr) toExpr() (Expr, error) {
	left, err := e.Left.toExpr()
	if err != nil {
		return nil, err
	}
	if e.Tail == nil {
		return left, nil
	}
	return e.Tail.apply(left)
}

type textCompTail struct {
	Compare *textCompareTail `  @@`
	Like    *textLikeTail    `| @@`
	Between *textBetweenTail `| @@`
	In      *textInTail      `| @@`
	IsNull  *textIsNullTail  `| @@`
}

func (t *textCompTail) apply(left Expr) (Expr, error) {
	switch {
	case t.Compare != nil:
		right, err := t.Compare.Right.toExpr()
		if err != nil {
			return nil, err
		}
		return Operation{Op: t.Compare.Op, Args: []Expr{left, right}}, nil
	case t.Like != nil:
		inner := Expr(Operation{Op: OpLike, Args: []Expr{left, String(unquoteCQL2String(t.Like.Pattern))}})
		return wrapNot(inner, t.Like.Not), nil
	case t.Between != nil:
		lo, err := t.Between.Lower.toExpr()
		if err != nil {
			return nil, err
		}
		hi, err := t.Between.Upper.toExpr()
		if err != nil {
			return nil, err
		}
		inner := Expr(Operation{Op: OpBetween, Args: []Expr{left, lo, hi}})
		return wrapNot(inner, t.Between.Not), nil
	case t.In != nil:
		items := make([]Expr, 0, len(t.In.Values))
		for _, v := range t.In.Values {
			e, err := v.toExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		inner := Expr(Operation{Op: OpIn, Args: []Expr{left, Array{Items: items}}})
		return wrapNot(inner, t.In.Not), nil
	case t.IsNull != nil:
		inner := Expr(Operation{Op: OpIsNull, Args: []Expr{left}})
		return wrapNot(inner, t.IsNull.Not), nil
	}
	return left, nil
}

func wrapNot(e Expr, negate bool) Expr {
	if !negate {
		return e
	}
	return Operation{Op: OpNot, Args: []Expr{e}}
}

type textCompareTail struct {
	Op    string          `@CompOp`
	Right *textConcatExpr `@@`
}

type textLikeTail struct {
	Not     bool   `@"NOT"?`
	Pattern string `"LIKE" @String`
}

type textBetweenTail struct {
	Not   bool            `@"NOT"?`
	Lower *textConcatExpr `"BETWEEN" @@`
	Upper *textConcatExpr `"AND" @@`
}

type textInTail struct {
	Not    bool              `@"NOT"?`
	Values []*textConcatExpr `"IN" "(" @@ ("," @@)* ")"`
}

type textIsNullTail struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

// --- || concatenation -------------------------------------------------------

type textConcatExpr struct {
	Left *textAdditiveExpr   `@@`
	Rest []*textAdditiveExpr `("||" @@)*`
}

func (e *textConcatExpr) toExpr() (Expr, error) {
	result, err := e.Left.toExpr()
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		next, err := r.toExpr()
		if err != nil {
			return nil, err
		}
		result = Operation{Op: OpConcat, Args: []Expr{result, next}}
	}
	return result, nil
}

// --- + / - ------------------------------------------------------------------

type textAdditiveExpr struct {
	Left *textMultiplicativeExpr   `@@`
	Ops  []string                  `( @("+" | "-")`
	Rest []*textMultiplicativeExpr `  @@ )*`
}

func (e *textAdditiveExpr) toExpr() (Expr, error) {
	result, err := e.Left.toExpr()
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		next, err := e.Rest[i].toExpr()
		if err != nil {
			return nil, err
		}
		result = Operation{Op: op, Args: []Expr{result, next}}
	}
	return result, nil
}

// --- * / / / % / div ---------------------------------------------------------

type textMultiplicativeExpr struct {
	Left *textPowExpr   `@@`
	Ops  []string       `( @("*" | "/" | "%" | "DIV")`
	Rest []*textPowExpr `  @@ )*`
}

func (e *textMultiplicativeExpr) toExpr() (Expr, error) {
	result, err := e.Left.toExpr()
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		next, err := e.Rest[i].toExpr()
		if err != nil {
			return nil, err
		}
		result = Operation{Op: strings.ToLower(op), Args: []Expr{result, next}}
	}
	return result, nil
}

// --- ^ (right-associative) ---------------------------------------------------

type textPowExpr struct {
	Left  *textUnaryExpr `@@`
	Right *textPowExpr   `("^" @@)?`
}

func (e *textPowExpr) toExpr() (Expr, error) {
	left, err := e.Left.toExpr()
	if err != nil {
		return nil, err
	}
	if e.Right == nil {
		return left, nil
	}
	right, err := e.Right.toExpr()
	if err != nil {
		return nil, err
	}
	return Operation{Op: OpPow, Args: []Expr{left, right}}, nil
}

// --- unary minus --------------------------------------------------------------

type textUnaryExpr struct {
	Neg  bool      `@"-"?`
	Atom *textAtom `@@`
}

func (e *textUnaryExpr) toExpr() (Expr, error) {
	atom, err := e.Atom.toExpr()
	if err != nil {
		return nil, err
	}
	if !e.Neg {
		return atom, nil
	}
	// §4.1/§4.3: unary minus on a numeric literal produces a signed
	// literal; on anything else it becomes `(-1) * expr`.
	switch v := atom.(type) {
	case Integer:
		return Integer(-v), nil
	case Float:
		return Float(-v), nil
	default:
		return Operation{Op: OpMul, Args: []Expr{Integer(-1), atom}}, nil
	}
}

// --- atoms ---------------------------------------------------------------

type textAtom struct {
	Array       *textArrayLiteral     `(  @@`
	Group       *textOrExpr           ` | "(" @@ ")"`
	DateLit     *textDateLiteral      ` | @@`
	TSLit       *textTimestampLiteral ` | @@`
	IntervalLit *textIntervalLiteral  ` | @@`
	BBoxLit     *textBBoxLiteral      ` | @@`
	Geometry    *wktGeometryText      ` | @@`
	Function    *textFunctionCall     ` | @@`
	Number      *string               ` | @Number`
	Str         *string               ` | @String`
	BoolLit     *string               ` | @("TRUE" | "FALSE")`
	NullLit     bool                  ` | @"NULL"`
	QuotedProp  *string               ` | @QuotedIdent`
	Property    *string               ` | @Ident )`
}

func (a *textAtom) toExpr() (Expr, error) {
	switch {
	case a.Array != nil:
		return a.Array.toExpr()
	case a.Group != nil:
		return a.Group.toExpr()
	case a.DateLit != nil:
		return a.DateLit.toExpr()
	case a.TSLit != nil:
		return a.TSLit.toExpr()
	case a.IntervalLit != nil:
		return a.IntervalLit.toExpr()
	case a.BBoxLit != nil:
		return a.BBoxLit.toExpr()
	case a.Geometry != nil:
		g, err := a.Geometry.toGeom()
		if err != nil {
			return nil, err
		}
		return Geometry{Geom: g}, nil
	case a.Function != nil:
		return a.Function.toExpr()
	case a.Number != nil:
		return parseNumberLiteral(*a.Number)
	case a.Str != nil:
		return String(unquoteCQL2String(*a.Str)), nil
	case a.BoolLit != nil:
		return Bool(strings.EqualFold(*a.BoolLit, "TRUE")), nil
	case a.NullLit:
		return Null{}, nil
	case a.QuotedProp != nil:
		return Property{Name: unquoteCQL2Ident(*a.QuotedProp)}, nil
	case a.Property != nil:
		return Property{Name: *a.Property}, nil
	}
	return nil, newParseError(Pos{}, "empty atom")
}

func parseNumberLiteral(raw string) (Expr, error) {
	if !strings.ContainsAny(raw, ".eE") {
		var i int64
		if _, err := fmt.Sscanf(raw, "%d", &i); err == nil {
			return Integer(i), nil
		}
	}
	var f float64
	if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
		return nil, wrapParseError(err, "invalid numeric literal %q", raw)
	}
	return Float(f), nil
}

type textArrayLiteral struct {
	First *textConcatExpr   `"(" @@`
	Rest  []*textConcatExpr `("," @@)+ ")"`
}

func (a *textArrayLiteral) toExpr() (Expr, error) {
	first, err := a.First.toExpr()
	if err != nil {
		return nil, err
	}
	items := []Expr{first}
	for _, r := range a.Rest {
		e, err := r.toExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return Array{Items: items}, nil
}

type textDateLiteral struct {
	Value string `"DATE" "(" @String ")"`
}

func (d *textDateLiteral) toExpr() (Expr, error) {
	v := unquoteCQL2String(d.Value)
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, wrapParseError(err, "invalid DATE literal %q", v)
	}
	return Date{Time: t}, nil
}

type textTimestampLiteral struct {
	Value string `"TIMESTAMP" "(" @String ")"`
}

func (ts *textTimestampLiteral) toExpr() (Expr, error) {
	v := unquoteCQL2String(ts.Value)
	t, err := parseTimestampValue(v)
	if err != nil {
		return nil, wrapParseError(err, "invalid TIMESTAMP literal %q", v)
	}
	return Timestamp{Time: t}, nil
}

type textIntervalLiteral struct {
	Start *textIntervalBound `"INTERVAL" "(" @@`
	End   *textIntervalBound `"," @@ ")"`
}

func (iv *textIntervalLiteral) toExpr() (Expr, error) {
	start, err := iv.Start.toExpr()
	if err != nil {
		return nil, err
	}
	end, err := iv.End.toExpr()
	if err != nil {
		return nil, err
	}
	return Interval{Start: start, End: end}, nil
}

type textIntervalBound struct {
	Str   *string         `  @String`
	Value *textConcatExpr `| @@`
}

func (b *textIntervalBound) toExpr() (Expr, error) {
	if b.Str != nil {
		v := unquoteCQL2String(*b.Str)
		if v == ".." {
			return OpenBound{}, nil
		}
		return parseTemporalBoundString(v)
	}
	return b.Value.toExpr()
}

// parseTemporalBoundString lets a bare quoted bound (outside DATE()/
// TIMESTAMP()) be interpreted directly, matching common real-world CQL2
// corpora that write `INTERVAL('2020-01-01', '2021-01-01')`.
func parseTemporalBoundString(v string) (Expr, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := parseTimestampValue(v); err == nil {
		return Timestamp{Time: t}, nil
	}
	return nil, newParseError(Pos{}, "interval bound %q is not a date, timestamp, or '..'", v)
}

type textBBoxLiteral struct {
	Values []float64 `"BBOX" "(" @Number ("," @Number)* ")"`
}

func (b *textBBoxLiteral) toExpr() (Expr, error) {
	box, err := newBBox(b.Values)
	if err != nil {
		return nil, err
	}
	return box, nil
}

type textFunctionCall struct {
	Name string            `@Ident "("`
	Args []*textConcatExpr `(@@ ("," @@)*)? ")"`
}

func (f *textFunctionCall) toExpr() (Expr, error) {
	args := make([]Expr, 0, len(f.Args))
	for _, a := range f.Args {
		e, err := a.toExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	op := canonicalFunctionName(f.Name)
	if n, exact, ok := arity(op); ok {
		if (exact && len(args) != n) || (!exact && len(args) < n) {
			perr := newParseError(Pos{}, "%s requires %d argument(s), got %d", op, n, len(args))
			perr.Cause = ErrWrongArity
			return nil, perr
		}
	}
	return Operation{Op: op, Args: args}, nil
}

// canonicalFunctionName lower-cases known built-ins (casei, accenti,
// s_*, t_*, a_*) while leaving genuinely unknown user functions as
// written: the canonical operator name is lower-case, but user-defined
// function names are preserved verbatim.
func canonicalFunctionName(name string) string {
	lower := strings.ToLower(name)
	if lower == OpCasei || lower == OpAccenti || isTemporalOp(lower) || isSpatialOp(lower) || isArrayOp(lower) {
		return lower
	}
	return name
}
