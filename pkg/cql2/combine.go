package cql2

// Combine joins two expressions with `and`, flattening either operand that
// is already an `and` node so repeated combination never nests, matching
// the canonicalisation `buildAssoc` already applies during parsing.
func Combine(e1, e2 Expr) Expr {
	args := flattenInto(OpAnd, nil, e1)
	args = flattenInto(OpAnd, args, e2)
	return Operation{Op: OpAnd, Args: args}
}

// Equals reports whether two expressions are structurally identical after
// canonicalisation — the same comparison reduce.go's constant-folding
// helpers (reduceIn, array predicates) rely on to compare literal values.
func Equals(e1, e2 Expr) bool {
	switch a := e1.(type) {
	case Bool:
		b, ok := e2.(Bool)
		return ok && a == b
	case Integer:
		switch b := e2.(type) {
		case Integer:
			return a == b
		case Float:
			return float64(a) == float64(b)
		}
		return false
	case Float:
		switch b := e2.(type) {
		case Integer:
			return float64(a) == float64(b)
		case Float:
			return a == b
		}
		return false
	case String:
		b, ok := e2.(String)
		return ok && a == b
	case Null:
		_, ok := e2.(Null)
		return ok
	case Date:
		b, ok := e2.(Date)
		return ok && a.Time.Equal(b.Time)
	case Timestamp:
		b, ok := e2.(Timestamp)
		return ok && a.Time.Equal(b.Time)
	case OpenBound:
		_, ok := e2.(OpenBound)
		return ok
	case Interval:
		b, ok := e2.(Interval)
		return ok && Equals(a.Start, b.Start) && Equals(a.End, b.End)
	case Property:
		b, ok := e2.(Property)
		return ok && a.Name == b.Name
	case BBox:
		b, ok := e2.(BBox)
		if !ok || len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if a.Values[i] != b.Values[i] {
				return false
			}
		}
		return true
	case Array:
		b, ok := e2.(Array)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equals(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case Geometry:
		b, ok := e2.(Geometry)
		if !ok {
			return false
		}
		wa, errA := serializeWKT(a)
		wb, errB := serializeWKT(b)
		return errA == nil && errB == nil && wa == wb
	case Operation:
		b, ok := e2.(Operation)
		if !ok || a.Op != b.Op || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equals(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}
