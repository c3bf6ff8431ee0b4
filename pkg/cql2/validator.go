package cql2

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

//go:embed schema/cql2.json schema/geometry.json
var schemaFS embed.FS

// compiledSchema and its compilation error are initialized lazily, exactly
// once, process-wide (the text grammar, by contrast, is a package-level var
// built eagerly by participle.MustBuild): a concurrent first call to
// Validate from multiple goroutines only pays the parse-and-resolve cost
// once.
var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Resolved
	schemaErr      error
)

func loadEmbeddedSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func resolvedSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		root, err := loadEmbeddedSchema("schema/cql2.json")
		if err != nil {
			schemaErr = fmt.Errorf("cql2: failed to load schema: %w", err)
			return
		}
		compiledSchema, err = root.Resolve(&jsonschema.ResolveOptions{
			Loader: func(id string) (*jsonschema.Schema, error) {
				if id == "geometry.json" || strings.HasSuffix(id, "/geometry.json") {
					return loadEmbeddedSchema("schema/geometry.json")
				}
				return nil, fmt.Errorf("cql2: unknown schema reference %q", id)
			},
		})
		if err != nil {
			schemaErr = fmt.Errorf("cql2: failed to compile schema: %w", err)
		}
	})
	return compiledSchema, schemaErr
}

// Validate serializes expr to cql2-json and checks it against the bundled
// CQL2 JSON Schema. Validation never mutates expr.
func Validate(expr Expr) error {
	resolved, err := resolvedSchema()
	if err != nil {
		return &ValidationError{Message: "schema unavailable", Cause: err}
	}
	data, err := ToJSON(expr)
	if err != nil {
		return &ValidationError{Message: "failed to serialize expression for validation", Cause: err}
	}
	var decoded interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return &ValidationError{Message: "failed to decode serialized expression", Cause: err}
	}
	if err := resolved.Validate(decoded); err != nil {
		return &ValidationError{Path: schemaFailurePath(err), Message: err.Error(), Cause: err}
	}
	return nil
}

// IsValid is the boolean convenience wrapper around Validate, matching the
// CQL2 is_valid() function.
func IsValid(expr Expr) bool {
	return Validate(expr) == nil
}

// schemaFailurePath extracts a JSON-Pointer-shaped prefix from the
// underlying library error when it embeds one, falling back to empty.
func schemaFailurePath(err error) string {
	type instanceLocationer interface {
		InstanceLocation() string
	}
	if il, ok := err.(instanceLocationer); ok {
		return il.InstanceLocation()
	}
	return ""
}
