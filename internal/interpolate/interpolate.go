// Package interpolate resolves interpolation tokens against a mock data
// context after all structural directive processing is complete.
//
// Resolution is deliberately forgiving: a token that cannot be resolved stays
// in the output verbatim so the template author can see that an intended
// binding was never found. Only the token syntax itself is normalized at the
// end of the pipeline, never silently dropped.
package interpolate

import (
	"fmt"
	"regexp"
	"strings"
)

// Context is the read-only nested data structure substituted into
// interpolation tokens and iteration directives during preview compilation.
// Array-valued entries are iterated by loop directives, object-valued entries
// support two-part property access, and scalar entries support direct
// single-token substitution.
type Context map[string]any

// Token syntax. Both the single-brace form {name} and the legacy
// double-brace form {{ name }} are accepted; the double-brace form is
// rewritten to the single-brace form by Normalize.
var (
	twoPartToken    = regexp.MustCompile(`\{\{?\s*([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\s*\}?\}`)
	singlePartToken = regexp.MustCompile(`\{\{?\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}?\}`)
	doubleBrace     = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
)

// lengthProps are the property names treated as a length query when the
// object they are read from is array-valued.
var lengthProps = map[string]bool{
	"len":    true,
	"length": true,
	"count":  true,
}

// Resolve substitutes all resolvable interpolation tokens in doc against ctx.
// Two-part tokens (object.property) are resolved before single-part tokens so
// that {user.name} is never half-consumed as {user}. Unresolved tokens are
// left unchanged.
func Resolve(doc string, ctx Context) string {
	if ctx == nil {
		return doc
	}

	doc = twoPartToken.ReplaceAllStringFunc(doc, func(token string) string {
		m := twoPartToken.FindStringSubmatch(token)
		if v, ok := lookupTwoPart(ctx, m[1], m[2]); ok {
			return v
		}
		return token
	})

	return singlePartToken.ReplaceAllStringFunc(doc, func(token string) string {
		m := singlePartToken.FindStringSubmatch(token)
		if v, ok := lookupScalar(ctx, m[1]); ok {
			return v
		}
		return token
	})
}

// ResolveScoped substitutes tokens of the form {item.prop} (and bare {item})
// against a single element of an iterated collection. Used by the loop
// directives: each repetition of a loop body is resolved against its own
// element before the document-wide pass runs.
func ResolveScoped(body, itemName string, element any) string {
	scoped := Context{itemName: element}

	body = twoPartToken.ReplaceAllStringFunc(body, func(token string) string {
		m := twoPartToken.FindStringSubmatch(token)
		if m[1] != itemName {
			return token
		}
		if v, ok := lookupTwoPart(scoped, m[1], m[2]); ok {
			return v
		}
		return token
	})

	return singlePartToken.ReplaceAllStringFunc(body, func(token string) string {
		m := singlePartToken.FindStringSubmatch(token)
		if m[1] != itemName {
			return token
		}
		if s, ok := scalar(element); ok {
			return s
		}
		return token
	})
}

// Normalize rewrites any surviving double-brace token syntax into the
// single-brace visible form. Unresolved tokens remain visible evidence of a
// missing binding; only the stray {{ }} syntax is guaranteed absent from the
// final output.
func Normalize(doc string) string {
	return doubleBrace.ReplaceAllString(doc, "{$1}")
}

// Collection looks up an array-valued context entry by name. The second
// return is false for missing or non-array entries.
func Collection(ctx Context, name string) ([]any, bool) {
	if ctx == nil {
		return nil, false
	}
	switch v := ctx[name].(type) {
	case []any:
		return v, true
	case []map[string]any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return items, true
	default:
		return nil, false
	}
}

func lookupTwoPart(ctx Context, object, property string) (string, bool) {
	entry, ok := ctx[object]
	if !ok {
		return "", false
	}

	// Length-like property access on an array-valued entry.
	if items, isArray := Collection(ctx, object); isArray {
		if lengthProps[property] {
			return fmt.Sprintf("%d", len(items)), true
		}
		return "", false
	}

	obj, ok := entry.(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := obj[property]
	if !ok {
		return "", false
	}
	return scalar(v)
}

func lookupScalar(ctx Context, name string) (string, bool) {
	v, ok := ctx[name]
	if !ok {
		return "", false
	}
	return scalar(v)
}

// scalar renders a context value for substitution. Composite values are not
// substituted into single tokens; they only make sense behind loops or
// two-part access.
func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return fmt.Sprintf("%t", val), true
	case int, int32, int64:
		return fmt.Sprintf("%d", val), true
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", val), "0"), "."), true
	case float32:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", val), "0"), "."), true
	default:
		return "", false
	}
}
