// Package validation turns untyped request payloads into validated DTOs.
//
// A Schema is an ordered list of string fields, each with a required
// message and a list of rules. Rules are go-playground/validator tags
// evaluated one by one with Validate.Var, so every constraint carries its
// own message. Parsing is fail-fast: the first violation stops evaluation
// and is reported as a *SchemaError.
//
// Schemas are built once at package init and never mutated, so they are
// safe for concurrent use.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// validate is shared by all schemas. *validator.Validate is safe for
// concurrent use once its custom tags are registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterAuthValidators(v); err != nil {
		panic(fmt.Sprintf("validation: register custom tags: %v", err))
	}
	return v
}

// Rule is a single constraint: a validator tag and the message reported
// when it fails.
type Rule struct {
	Tag     string
	Message string
}

// Field describes one string field of a payload.
//
// Path may be dotted ("user.email") to address nested objects.
// Required is reported when the key is absent or null.
type Field struct {
	Path      string
	Required  string
	Rules     []Rule
	Lowercase bool
}

// Schema is an ordered, declarative set of field constraints.
type Schema struct {
	Name   string
	Fields []Field
}

// Values holds the normalized field values of a parsed payload, keyed by path.
type Values map[string]string

// Issue is one schema violation.
type Issue struct {
	Path    string
	Message string
}

// SchemaError reports schema violations. Parse stops at the first one, so
// Issues holds a single entry in practice.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		return "schema validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Path+": "+is.Message)
	}
	return strings.Join(parts, ", ")
}

func violation(path, msg string) *SchemaError {
	return &SchemaError{Issues: []Issue{{Path: path, Message: msg}}}
}

// Parse evaluates raw against the schema.
//
// raw is expected to be a decoded JSON object (map[string]any). A nil raw
// value is treated as an empty object, so a missing body fails on the first
// required field. Any other non-object value fails with an issue at the
// empty path.
func (s *Schema) Parse(raw any) (Values, error) {
	obj, err := asObject(raw)
	if err != nil {
		return nil, err
	}

	out := make(Values, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := lookup(obj, f.Path)
		if !ok || v == nil {
			return nil, violation(f.Path, f.Required)
		}
		str, isStr := v.(string)
		if !isStr {
			return nil, violation(f.Path, "Expected string, received "+typeName(v))
		}
		for _, r := range f.Rules {
			if err := validate.Var(str, r.Tag); err != nil {
				return nil, violation(f.Path, r.Message)
			}
		}
		if f.Lowercase {
			// Casers are stateful; build one per use.
			str = cases.Lower(language.Und).String(str)
		}
		out[f.Path] = str
	}
	return out, nil
}

func asObject(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, violation("", "Expected object, received "+typeName(raw))
	}
}

// lookup resolves a dotted path through nested objects.
func lookup(obj map[string]any, path string) (any, bool) {
	keys := strings.Split(path, ".")
	var cur any = obj
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
