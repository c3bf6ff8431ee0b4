package cql2

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ParseJSON parses a cql2-json document into an Expr.
func ParseJSON(input []byte) (Expr, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, wrapParseError(err, "failed to unmarshal cql2-json")
	}
	return ParseValue(raw)
}

// ParseValue parses an already-decoded JSON value (as produced by
// json.Decoder with UseNumber, or a plain interface{} tree) into an Expr,
// dispatching on the value's Go type and, for objects, its key shape
// ("op"/"args", "property", "date", "timestamp", "interval", "bbox", or a
// GeoJSON "type").
func ParseValue(v interface{}) (Expr, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return parseJSONNumber(val)
	case float64:
		return parseJSONNumber(json.Number(strconv.FormatFloat(val, 'g', -1, 64)))
	case []interface{}:
		items := make([]Expr, 0, len(val))
		for _, item := range val {
			e, err := ParseValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return Array{Items: items}, nil
	case map[string]interface{}:
		return parseJSONObject(val)
	}
	return nil, newParseError(Pos{}, "unrecognized JSON value of type %T", v)
}

// parseJSONNumber keeps integers as Integer and only falls back to Float
// when the literal actually carries a fraction or exponent, mirroring the
// Integer/Float split the text parser makes in parseNumberLiteral.
func parseJSONNumber(n json.Number) (Expr, error) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Integer(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, wrapParseError(err, "invalid JSON number %q", s)
	}
	return Float(f), nil
}

func parseJSONObject(obj map[string]interface{}) (Expr, error) {
	if opRaw, ok := obj["op"]; ok {
		op, ok := opRaw.(string)
		if !ok {
			return nil, newParseError(Pos{}, "\"op\" must be a string")
		}
		argsRaw, ok := obj["args"]
		if !ok {
			return nil, newParseError(Pos{}, "operator %q missing \"args\"", op)
		}
		argsList, ok := argsRaw.([]interface{})
		if !ok {
			return nil, newParseError(Pos{}, "operator %q \"args\" must be an array", op)
		}
		args := make([]Expr, 0, len(argsList))
		for _, a := range argsList {
			e, err := ParseValue(a)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		if n, exact, ok := arity(op); ok {
			if (exact && len(args) != n) || (!exact && len(args) < n) {
				perr := newParseError(Pos{}, "%s requires %d argument(s), got %d", op, n, len(args))
				perr.Cause = ErrWrongArity
				return nil, perr
			}
		}
		return Operation{Op: op, Args: args}, nil
	}

	if name, ok := obj["property"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, newParseError(Pos{}, "\"property\" must be a string")
		}
		return Property{Name: s}, nil
	}

	if d, ok := obj["date"]; ok {
		s, ok := d.(string)
		if !ok {
			return nil, newParseError(Pos{}, "\"date\" must be a string")
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, wrapParseError(err, "invalid date %q", s)
		}
		return Date{Time: t}, nil
	}

	if ts, ok := obj["timestamp"]; ok {
		s, ok := ts.(string)
		if !ok {
			return nil, newParseError(Pos{}, "\"timestamp\" must be a string")
		}
		t, err := parseTimestampValue(s)
		if err != nil {
			return nil, wrapParseError(err, "invalid timestamp %q", s)
		}
		return Timestamp{Time: t}, nil
	}

	if iv, ok := obj["interval"]; ok {
		arr, ok := iv.([]interface{})
		if !ok || len(arr) != 2 {
			return nil, newParseError(Pos{}, "\"interval\" must be a 2-element array")
		}
		start, err := parseIntervalBoundJSON(arr[0])
		if err != nil {
			return nil, err
		}
		end, err := parseIntervalBoundJSON(arr[1])
		if err != nil {
			return nil, err
		}
		return Interval{Start: start, End: end}, nil
	}

	if bb, ok := obj["bbox"]; ok {
		arr, ok := bb.([]interface{})
		if !ok {
			return nil, newParseError(Pos{}, "\"bbox\" must be an array")
		}
		values := make([]float64, 0, len(arr))
		for _, v := range arr {
			f, err := jsonValueToFloat(v)
			if err != nil {
				return nil, newParseError(Pos{}, "bbox values must be numbers")
			}
			values = append(values, f)
		}
		return newBBox(values)
	}

	if _, ok := obj["type"]; ok && looksLikeGeoJSON(obj) {
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, wrapParseError(err, "failed to re-marshal geometry")
		}
		g, err := parseGeoJSON(raw)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	return nil, newParseError(Pos{}, "unrecognized JSON object shape: %v", keysOf(obj))
}

func parseIntervalBoundJSON(v interface{}) (Expr, error) {
	if s, ok := v.(string); ok && s == ".." {
		return OpenBound{}, nil
	}
	return ParseValue(v)
}

func jsonValueToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	}
	return 0, newParseError(Pos{}, "not a number: %v", v)
}

func keysOf(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
