// Package schema validates a built configuration tree against a JSON Schema.
package schema

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists every schema violation found.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// ValidateFile validates tree against the schema stored at schemaPath.
func ValidateFile(schemaPath string, tree map[string]interface{}) error {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("resolving schema path: %w", err)
	}
	return validate(gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(abs)), tree)
}

// Validate validates tree against an in-memory schema document.
func Validate(schema []byte, tree map[string]interface{}) error {
	return validate(gojsonschema.NewBytesLoader(schema), tree)
}

func validate(schemaLoader gojsonschema.JSONLoader, tree map[string]interface{}) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(Document(tree)))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}

// Document converts a configuration tree, where every leaf is a string and
// arrays were flattened to index keys, back into a JSON-shaped value.
// Sections whose keys are exactly 0..n-1 become arrays; leaves spelling a
// boolean or a number become that type.
func Document(tree map[string]interface{}) interface{} {
	return convert(tree)
}

func convert(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if items, ok := asArray(t); ok {
			return items
		}
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			out[k] = convert(child)
		}
		return out
	case string:
		return scalar(t)
	default:
		return t
	}
}

func asArray(m map[string]interface{}) ([]interface{}, bool) {
	if len(m) == 0 {
		return nil, false
	}
	items := make([]interface{}, len(m))
	for k, child := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || strconv.Itoa(i) != k {
			return nil, false
		}
		items[i] = convert(child)
	}
	return items, true
}

func scalar(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == s {
		return f
	}
	return s
}
