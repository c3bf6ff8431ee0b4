package cql2

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParseAuto sniffs whether input is cql2-json (starts with `{` or `[` once
// leading whitespace is trimmed) or cql2-text, and dispatches to ParseJSON
// or ParseText accordingly. This is the entry point CLI-style collaborators
// use when the concrete syntax isn't known ahead of time.
func ParseAuto(input []byte) (Expr, error) {
	trimmed := strings.TrimSpace(string(input))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ParseJSON(input)
	}
	return ParseText(trimmed)
}

// DecodeItem decodes a JSON object as the item Reduce/Matches evaluate
// Property references against, preserving integer-vs-float distinctions
// via json.Number the same way ParseJSON does for expressions.
func DecodeItem(data []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var item map[string]interface{}
	if err := dec.Decode(&item); err != nil {
		return nil, wrapParseError(err, "failed to decode item")
	}
	return item, nil
}
