// Package mockdata supplies the mock data context used by preview
// compilation: a default demo context for fresh sessions, name-aware sample
// values, and loaders for caller-provided JSON or YAML context files.
package mockdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/nucleator/internal/interpolate"
)

var titleCaser = cases.Title(language.English)

// DefaultContext is the context a preview session starts with: enough shape
// to exercise loops, two-part access and scalar substitution.
func DefaultContext() interpolate.Context {
	return interpolate.Context{
		"site":  "Nucleus Demo",
		"year":  2025,
		"count": 3,
		"user": map[string]any{
			"name":  "John Doe",
			"email": "john@example.com",
			"plan":  "pro",
		},
		"products": []any{
			map[string]any{"name": "Fusion Lamp", "price": "49.00", "stock": 12},
			map[string]any{"name": "Atom Mug", "price": "14.50", "stock": 80},
			map[string]any{"name": "Quark Tee", "price": "25.00", "stock": 34},
		},
		"posts": []any{
			map[string]any{"title": "Hello Nucleus", "author": "Ada"},
			map[string]any{"title": "Islands in Practice", "author": "Linus"},
		},
	}
}

// SampleValue generates a sample string for a named field, matching on
// conventional field names before falling back to a title-cased echo.
func SampleValue(field string) string {
	switch strings.ToLower(field) {
	case "title", "heading":
		return "Sample Title"
	case "name", "username":
		return "John Doe"
	case "email":
		return "john@example.com"
	case "url", "link", "href":
		return "https://example.com"
	case "variant", "kind":
		return "primary"
	case "color":
		return "blue"
	case "size":
		return "medium"
	default:
		return "Sample " + titleCaser.String(field)
	}
}

// LoadFile reads a context file, dispatching on extension: .json is decoded
// with goccy/go-json, .yml/.yaml with yaml.v3.
func LoadFile(path string) (interpolate.Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mock data file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(raw)
	case ".yml", ".yaml":
		return ParseYAML(raw)
	default:
		return nil, fmt.Errorf("unsupported mock data format %q", filepath.Ext(path))
	}
}

// ParseJSON decodes a JSON object into a context.
func ParseJSON(raw []byte) (interpolate.Context, error) {
	var ctx interpolate.Context
	if err := json.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("parsing mock data JSON: %w", err)
	}
	return ctx, nil
}

// ParseYAML decodes a YAML mapping into a context.
func ParseYAML(raw []byte) (interpolate.Context, error) {
	var ctx interpolate.Context
	if err := yaml.Unmarshal(raw, &ctx); err != nil {
		return nil, fmt.Errorf("parsing mock data YAML: %w", err)
	}
	return ctx, nil
}
