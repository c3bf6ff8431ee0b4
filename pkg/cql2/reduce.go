package cql2

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Reduce partially or fully evaluates expr. If item is non-nil, Property
// references resolve by dotted/array-indexed JSON path lookup into item;
// a missing property reduces to Null. Reduction is bottom-up. A branch
// that cannot be reduced further (type mismatch, unknown user function,
// spatial/s_* predicate) is returned unreduced. An evaluation error in
// any sub-expression (such as division by zero) is returned as the error
// of the whole call, with a nil Expr.
func Reduce(expr Expr, item map[string]interface{}) (Expr, error) {
	return reduceOnce(expr, item)
}

func reduceOnce(expr Expr, item map[string]interface{}) (Expr, error) {
	switch v := expr.(type) {
	case Property:
		if item == nil {
			return v, nil
		}
		val, ok := lookupProperty(item, v.Name)
		if !ok {
			return Null{}, nil
		}
		return ParseValue(val)
	case Interval:
		start, err := reduceOnce(v.Start, item)
		if err != nil {
			return nil, err
		}
		end, err := reduceOnce(v.End, item)
		if err != nil {
			return nil, err
		}
		return Interval{Start: start, End: end}, nil
	case Array:
		items := make([]Expr, len(v.Items))
		for i, it := range v.Items {
			r, err := reduceOnce(it, item)
			if err != nil {
				return nil, err
			}
			items[i] = r
		}
		return Array{Items: items}, nil
	case Operation:
		return reduceOperation(v, item)
	default:
		return expr, nil
	}
}

func reduceOperation(op Operation, item map[string]interface{}) (Expr, error) {
	args := make([]Expr, len(op.Args))
	for i, a := range op.Args {
		r, err := reduceOnce(a, item)
		if err != nil {
			return nil, err
		}
		args[i] = r
	}

	switch op.Op {
	case OpAnd:
		return reduceAnd(args)
	case OpOr:
		return reduceOr(args)
	case OpNot:
		return reduceNot(args[0])
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return reduceComparison(op.Op, args[0], args[1])
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow, OpIntDiv:
		return reduceArithmetic(op.Op, args[0], args[1])
	case OpConcat:
		return reduceConcat(args[0], args[1])
	case OpLike:
		return reduceLike(args[0], args[1])
	case OpBetween:
		return reduceBetween(args[0], args[1], args[2])
	case OpIn:
		return reduceIn(args[0], args[1])
	case OpIsNull:
		return reduceIsNull(args[0])
	case OpCasei:
		return reduceCasei(args[0])
	case OpAccenti:
		return reduceAccenti(args[0])
	}

	if isTemporalOp(op.Op) {
		return reduceTemporal(op.Op, args[0], args[1])
	}
	if isArrayOp(op.Op) {
		return reduceArrayPredicate(op.Op, args[0], args[1])
	}
	// Spatial predicates (s_*) and unrecognized user functions have no
	// local evaluator, so they're preserved verbatim for a downstream
	// engine (a database, a geometry library) to evaluate.
	return Operation{Op: op.Op, Args: args}, nil
}

func reduceAnd(args []Expr) (Expr, error) {
	kept := make([]Expr, 0, len(args))
	for _, a := range args {
		if b, ok := a.(Bool); ok {
			if !bool(b) {
				return Bool(false), nil
			}
			continue // drop constant-true conjuncts
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return Bool(true), nil
	}
	if len(kept) == 1 {
		return kept[0], nil
	}
	return Operation{Op: OpAnd, Args: kept}, nil
}

func reduceOr(args []Expr) (Expr, error) {
	kept := make([]Expr, 0, len(args))
	for _, a := range args {
		if b, ok := a.(Bool); ok {
			if bool(b) {
				return Bool(true), nil
			}
			continue // drop constant-false disjuncts
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return Bool(false), nil
	}
	if len(kept) == 1 {
		return kept[0], nil
	}
	return Operation{Op: OpOr, Args: kept}, nil
}

func reduceNot(arg Expr) (Expr, error) {
	if b, ok := arg.(Bool); ok {
		return Bool(!bool(b)), nil
	}
	if o, ok := arg.(Operation); ok && o.Op == OpNot {
		return o.Args[0], nil
	}
	return Operation{Op: OpNot, Args: []Expr{arg}}, nil
}

// asNumber widens Integer/Float to a float64 view plus a flag noting
// whether the original was an Integer, so arithmetic can decide whether to
// stay integral or widen to Float.
func asNumber(e Expr) (f float64, isInt bool, ok bool) {
	switch v := e.(type) {
	case Integer:
		return float64(v), true, true
	case Float:
		return float64(v), false, true
	}
	return 0, false, false
}

func reduceComparison(op string, left, right Expr) (Expr, error) {
	lf, _, lok := asNumber(left)
	rf, _, rok := asNumber(right)
	if lok && rok {
		return Bool(compareOrdered(op, numCompare(lf, rf))), nil
	}
	if ls, ok := left.(String); ok {
		if rs, ok := right.(String); ok {
			return Bool(compareOrdered(op, strings.Compare(string(ls), string(rs)))), nil
		}
	}
	if lt, lok := temporalInstant(left); lok {
		if rt, rok := temporalInstant(right); rok {
			return Bool(compareOrdered(op, numCompare(float64(lt.Unix()), float64(rt.Unix())))), nil
		}
	}
	if lb, ok := left.(Bool); ok {
		if rb, ok := right.(Bool); ok {
			return Bool(compareOrdered(op, boolCompare(lb, rb))), nil
		}
	}
	return Operation{Op: op, Args: []Expr{left, right}}, nil
}

func boolCompare(a, b Bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func numCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func temporalInstant(e Expr) (time.Time, bool) {
	switch v := e.(type) {
	case Date:
		return v.Time, true
	case Timestamp:
		return v.Time, true
	}
	return time.Time{}, false
}

func compareOrdered(op string, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

func reduceArithmetic(op string, left, right Expr) (Expr, error) {
	lf, lIsInt, lok := asNumber(left)
	rf, rIsInt, rok := asNumber(right)
	if lok && rok {
		return evalArithmetic(op, lf, rf, lIsInt && rIsInt)
	}
	// Temporal +/- with a numeric day-count duration.
	if (op == OpAdd || op == OpSub) && isTemporalInstant(left) && rok {
		return addTemporal(left, rf, op == OpSub)
	}
	if op == OpAdd && isTemporalInstant(right) && lok {
		return addTemporal(right, lf, false)
	}
	return Operation{Op: op, Args: []Expr{left, right}}, nil
}

func isTemporalInstant(e Expr) bool {
	switch e.(type) {
	case Date, Timestamp:
		return true
	}
	return false
}

func addTemporal(original Expr, days float64, negate bool) (Expr, error) {
	switch v := original.(type) {
	case Date:
		t := addDuration(v.Time, days, negate)
		return Date{Time: t}, nil
	case Timestamp:
		t := addDuration(v.Time, days, negate)
		return Timestamp{Time: t}, nil
	}
	return original, nil
}

func evalArithmetic(op string, a, b float64, bothInt bool) (Expr, error) {
	switch op {
	case OpAdd:
		return numericResult(a+b, bothInt), nil
	case OpSub:
		return numericResult(a-b, bothInt), nil
	case OpMul:
		return numericResult(a*b, bothInt), nil
	case OpDiv:
		if b == 0 {
			return nil, newEvalError(op, ErrDivisionByZero, "division by zero")
		}
		return numericResult(a/b, false), nil
	case OpMod:
		if b == 0 {
			return nil, newEvalError(op, ErrDivisionByZero, "modulo by zero")
		}
		return numericResult(float64(int64(a)%int64(b)), bothInt), nil
	case OpIntDiv:
		if b == 0 {
			return nil, newEvalError(op, ErrDivisionByZero, "integer division by zero")
		}
		return Integer(int64(a) / int64(b)), nil
	case OpPow:
		return numericResult(math.Pow(a, b), false), nil
	}
	return nil, newEvalError(op, nil, "unknown arithmetic operator")
}

func numericResult(f float64, asInt bool) Expr {
	if asInt && f == float64(int64(f)) {
		return Integer(int64(f))
	}
	return Float(f)
}

func reduceConcat(left, right Expr) (Expr, error) {
	ls, lok := left.(String)
	rs, rok := right.(String)
	if lok && rok {
		return String(string(ls) + string(rs)), nil
	}
	return Operation{Op: OpConcat, Args: []Expr{left, right}}, nil
}

func reduceLike(left, pattern Expr) (Expr, error) {
	ls, lok := left.(String)
	ps, pok := pattern.(String)
	if lok && pok {
		return Bool(likeMatch(string(ls), string(ps))), nil
	}
	return Operation{Op: OpLike, Args: []Expr{left, pattern}}, nil
}

// likeMatch implements SQL LIKE semantics: `%` matches any sequence
// (possibly empty), `_` matches exactly one character.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatchRunes(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}

func reduceBetween(v, lo, hi Expr) (Expr, error) {
	geLo, err := reduceComparison(OpGte, v, lo)
	if err != nil {
		return nil, err
	}
	leHi, err := reduceComparison(OpLte, v, hi)
	if err != nil {
		return nil, err
	}
	return reduceAnd([]Expr{geLo, leHi})
}

func reduceIn(left Expr, right Expr) (Expr, error) {
	arr, ok := right.(Array)
	if !ok {
		return Operation{Op: OpIn, Args: []Expr{left, right}}, nil
	}
	if !isConstant(left) {
		return Operation{Op: OpIn, Args: []Expr{left, right}}, nil
	}
	for _, item := range arr.Items {
		if !isConstant(item) {
			return Operation{Op: OpIn, Args: []Expr{left, right}}, nil
		}
		if exprEqualConstant(left, item) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func reduceIsNull(arg Expr) (Expr, error) {
	if _, ok := arg.(Null); ok {
		return Bool(true), nil
	}
	if isConstant(arg) {
		return Bool(false), nil
	}
	return Operation{Op: OpIsNull, Args: []Expr{arg}}, nil
}

func reduceCasei(arg Expr) (Expr, error) {
	if s, ok := arg.(String); ok {
		return String(strings.ToLower(string(s))), nil
	}
	return Operation{Op: OpCasei, Args: []Expr{arg}}, nil
}

func reduceAccenti(arg Expr) (Expr, error) {
	if s, ok := arg.(String); ok {
		return String(stripDiacritics(string(s))), nil
	}
	return Operation{Op: OpAccenti, Args: []Expr{arg}}, nil
}

// diacriticFold maps common Latin-1 Supplement accented letters down to
// their unaccented ASCII base, backing the accenti() predicate. Unmapped
// runes pass through unchanged.
var diacriticFold = map[rune]rune{
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'Ñ': 'N', 'ñ': 'n',
	'Ç': 'C', 'ç': 'c',
	'Ý': 'Y', 'ý': 'y', 'ÿ': 'y',
}

func stripDiacritics(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if folded, ok := diacriticFold[r]; ok {
			r = folded
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func reduceTemporal(op string, left, right Expr) (Expr, error) {
	if !isTemporalConstant(left) || !isTemporalConstant(right) {
		return Operation{Op: op, Args: []Expr{left, right}}, nil
	}
	b, err := allenCompare(op, left, right)
	if err != nil {
		return nil, err
	}
	return Bool(b), nil
}

func isTemporalConstant(e Expr) bool {
	switch v := e.(type) {
	case Date, Timestamp:
		return true
	case Interval:
		return isTemporalBoundConstant(v.Start) && isTemporalBoundConstant(v.End)
	}
	return false
}

func isTemporalBoundConstant(e Expr) bool {
	switch e.(type) {
	case Date, Timestamp, OpenBound:
		return true
	}
	return false
}

func reduceArrayPredicate(op string, left, right Expr) (Expr, error) {
	la, lok := left.(Array)
	ra, rok := right.(Array)
	if !lok || !rok || !allConstant(la.Items) || !allConstant(ra.Items) {
		return Operation{Op: op, Args: []Expr{left, right}}, nil
	}
	switch op {
	case "a_equals":
		return Bool(arrayEqualsOrdered(la.Items, ra.Items)), nil
	case "a_contains":
		return Bool(arraySubset(ra.Items, la.Items)), nil
	case "a_containedBy":
		return Bool(arraySubset(la.Items, ra.Items)), nil
	case "a_overlaps":
		return Bool(arrayIntersects(la.Items, ra.Items)), nil
	}
	return Operation{Op: op, Args: []Expr{left, right}}, nil
}

func allConstant(items []Expr) bool {
	for _, it := range items {
		if !isConstant(it) {
			return false
		}
	}
	return true
}

func arrayEqualsOrdered(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !exprEqualConstant(a[i], b[i]) {
			return false
		}
	}
	return true
}

func arraySubset(needles, haystack []Expr) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if exprEqualConstant(n, h) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func arrayIntersects(a, b []Expr) bool {
	for _, x := range a {
		for _, y := range b {
			if exprEqualConstant(x, y) {
				return true
			}
		}
	}
	return false
}

// isConstant reports whether e contains no unresolved Property/user
// operation — i.e. reduction has bottomed out for this sub-tree.
func isConstant(e Expr) bool {
	switch v := e.(type) {
	case Property:
		return false
	case Operation:
		return false
	case Array:
		return allConstant(v.Items)
	case Interval:
		return isConstant(v.Start) && isConstant(v.End)
	default:
		return true
	}
}

func exprEqualConstant(a, b Expr) bool {
	return Equals(a, b)
}

// Matches fully reduces expr against item and requires a boolean result:
// `matches(expr, item) = reduce(expr, item).as_bool()`.
func Matches(expr Expr, item map[string]interface{}) (bool, error) {
	reduced, err := Reduce(expr, item)
	if err != nil {
		return false, err
	}
	b, ok := reduced.(Bool)
	if !ok {
		return false, newEvalError("", ErrNotBoolean, "expression reduced to %T, not a boolean", reduced)
	}
	return bool(b), nil
}

// lookupProperty resolves a dotted, array-indexable JSON path ("a.b[2].c"
// or the simpler "a.b.2.c") into item.
func lookupProperty(item map[string]interface{}, path string) (interface{}, bool) {
	segments := splitPropertyPath(path)
	var cur interface{} = item
	for _, seg := range segments {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func splitPropertyPath(path string) []string {
	path = strings.ReplaceAll(path, "[", ".")
	path = strings.ReplaceAll(path, "]", "")
	parts := strings.Split(path, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
