package components

import (
	"regexp"
	"strings"
)

// Definition is a named reusable markup fragment collected from an
// n:component declaration. Definitions are rebuilt from the source on every
// compile call; nothing persists between calls.
type Definition struct {
	Name string
	Body string
}

var slotMarker = regexp.MustCompile(`<n:slot\s*/?>|<!--\s*slot\s*-->`)

// ExpandDeclared rewrites usages of author-declared components. Attribute
// values fill the {prop} tokens of the declared body and the usage children
// replace its slot marker. Declared names shadow the built-in catalogue.
func ExpandDeclared(doc string, defs map[string]Definition) string {
	if len(defs) == 0 {
		return doc
	}

	for range maxNesting {
		next := expandDeclaredOnce(doc, defs)
		if next == doc {
			return doc
		}
		doc = next
	}
	return doc
}

func expandDeclaredOnce(doc string, defs map[string]Definition) string {
	doc = selfTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := selfTag.FindStringSubmatch(tag)
		def, ok := defs[m[1]]
		if !ok {
			return tag
		}
		return instantiate(def, ParseAttrs(m[2]), "")
	})

	return pairedTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := pairedTag.FindStringSubmatch(tag)
		if m[1] != m[4] {
			return tag
		}
		def, ok := defs[m[1]]
		if !ok {
			return tag
		}
		return instantiate(def, ParseAttrs(m[2]), strings.TrimSpace(m[3]))
	})
}

func instantiate(def Definition, attrs Attrs, children string) string {
	body := def.Body
	for name, value := range attrs {
		body = strings.ReplaceAll(body, "{"+name+"}", value)
		body = strings.ReplaceAll(body, "{{"+name+"}}", value)
		body = strings.ReplaceAll(body, "{{ "+name+" }}", value)
	}
	return slotMarker.ReplaceAllString(body, children)
}
