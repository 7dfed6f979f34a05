// Package components expands the fixed catalogue of reusable UI component
// tags into normalized markup.
//
// Dispatch is a lookup table from tag name to renderer function, closed over
// the supported set. Each renderer parses a flat attribute string with
// per-field defaults; unknown attributes are ignored and missing content
// defaults to an empty body, never an error.
package components

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/conneroisu/nucleator/internal/mockdata"
)

// Attrs holds the parsed attribute list of one component tag: order
// independent name="value" pairs plus boolean presence flags.
type Attrs map[string]string

// Get returns the attribute value, or fallback when absent.
func (a Attrs) Get(name, fallback string) string {
	if v, ok := a[name]; ok {
		return v
	}
	return fallback
}

// Has reports attribute presence, covering boolean flags like "disabled".
func (a Attrs) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Renderer produces the markup for one component tag occurrence.
type Renderer func(attrs Attrs, body string) string

// Catalogue is the closed set of supported component tags.
var Catalogue = map[string]Renderer{
	"Button":   renderButton,
	"Input":    renderInput,
	"Select":   renderSelect,
	"Checkbox": renderCheckbox,
	"Card":     renderCard,
	"Badge":    renderBadge,
	"Stat":     renderStat,
	"Group":    renderGroup,
}

var (
	// The paired-tag body may not contain another capitalized tag, so the
	// innermost occurrence always matches first; Expand iterates outward.
	pairedTag = regexp.MustCompile(`(?s)<([A-Z][A-Za-z0-9]*)((?:\s+[^<>]*?)?)>((?:[^<]|</?[^A-Z])*?)</([A-Z][A-Za-z0-9]*)>`)
	selfTag   = regexp.MustCompile(`<([A-Z][A-Za-z0-9]*)((?:\s+[^<>]*?)?)/>`)
	attrPair  = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)(?:\s*=\s*"([^"]*)")?`)
)

// maxNesting bounds the innermost-first expansion of paired component tags.
const maxNesting = 16

// Expand rewrites every catalogue tag in doc. Tags outside the catalogue
// (and mismatched open/close pairs) pass through unchanged.
func Expand(doc string) string {
	for range maxNesting {
		next := expandOnce(doc)
		if next == doc {
			return doc
		}
		doc = next
	}
	return doc
}

func expandOnce(doc string) string {
	doc = selfTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := selfTag.FindStringSubmatch(tag)
		render, ok := Catalogue[m[1]]
		if !ok {
			return tag
		}
		return render(ParseAttrs(m[2]), "")
	})

	return pairedTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := pairedTag.FindStringSubmatch(tag)
		if m[1] != m[4] {
			return tag
		}
		render, ok := Catalogue[m[1]]
		if !ok {
			return tag
		}
		return render(ParseAttrs(m[2]), strings.TrimSpace(m[3]))
	})
}

// ParseAttrs parses a flat attribute string. Valueless names become boolean
// presence flags with an empty value.
func ParseAttrs(raw string) Attrs {
	attrs := make(Attrs)
	for _, m := range attrPair.FindAllStringSubmatch(raw, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// passthrough carries identifier, click wiring and caller classes onto the
// emitted element regardless of which element kind is chosen.
func passthrough(attrs Attrs) string {
	var b strings.Builder
	if id := attrs.Get("id", ""); id != "" {
		fmt.Fprintf(&b, ` id="%s"`, html.EscapeString(id))
	}
	if onclick := attrs.Get("onclick", ""); onclick != "" {
		fmt.Fprintf(&b, ` onclick="%s"`, html.EscapeString(onclick))
	}
	return b.String()
}

func classes(base string, attrs Attrs) string {
	if extra := attrs.Get("class", ""); extra != "" {
		return base + " " + extra
	}
	return base
}

// renderButton emits either an interactive control or, when a navigation
// target is present, a hyperlink carrying the same identifier, click wiring
// and styling classes.
func renderButton(attrs Attrs, body string) string {
	variant := attrs.Get("variant", "primary")
	size := attrs.Get("size", "md")
	class := classes(fmt.Sprintf("btn btn-%s btn-%s", variant, size), attrs)

	if href := attrs.Get("href", ""); href != "" {
		return fmt.Sprintf(`<a href="%s" class="%s"%s>%s</a>`,
			html.EscapeString(href), class, passthrough(attrs), body)
	}

	disabled := ""
	if attrs.Has("disabled") {
		disabled = " disabled"
	}
	return fmt.Sprintf(`<button type="button" class="%s"%s%s>%s</button>`,
		class, passthrough(attrs), disabled, body)
}

func renderInput(attrs Attrs, body string) string {
	name := attrs.Get("name", "field")
	inputType := attrs.Get("type", "text")

	var b strings.Builder
	b.WriteString(`<div class="field">`)
	if label := attrs.Get("label", ""); label != "" {
		fmt.Fprintf(&b, `<label for="%s">%s</label>`, name, html.EscapeString(label))
	}
	fmt.Fprintf(&b, `<input type="%s" id="%s" name="%s"`, inputType, name, name)
	placeholder := attrs.Get("placeholder", "")
	if placeholder == "" {
		// Previews get a name-derived sample placeholder instead of an
		// empty field.
		placeholder = mockdata.SampleValue(name)
	}
	fmt.Fprintf(&b, ` placeholder="%s"`, html.EscapeString(placeholder))
	if value := attrs.Get("value", ""); value != "" {
		fmt.Fprintf(&b, ` value="%s"`, html.EscapeString(value))
	}
	if attrs.Has("required") {
		b.WriteString(" required")
	}
	b.WriteString(`/></div>`)
	return b.String()
}

func renderSelect(attrs Attrs, body string) string {
	name := attrs.Get("name", "field")
	selected := attrs.Get("selected", "")

	var b strings.Builder
	b.WriteString(`<div class="field">`)
	if label := attrs.Get("label", ""); label != "" {
		fmt.Fprintf(&b, `<label for="%s">%s</label>`, name, html.EscapeString(label))
	}
	fmt.Fprintf(&b, `<select id="%s" name="%s">`, name, name)
	for _, option := range strings.Split(attrs.Get("options", ""), ",") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		mark := ""
		if option == selected {
			mark = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(option), mark, html.EscapeString(option))
	}
	b.WriteString(`</select></div>`)
	return b.String()
}

func renderCheckbox(attrs Attrs, body string) string {
	name := attrs.Get("name", "field")
	checked := ""
	if attrs.Has("checked") {
		checked = " checked"
	}
	label := attrs.Get("label", "")
	return fmt.Sprintf(`<label class="checkbox"><input type="checkbox" name="%s"%s/> %s</label>`,
		name, checked, html.EscapeString(label))
}

func renderCard(attrs Attrs, body string) string {
	var b strings.Builder
	b.WriteString(`<div class="card">`)
	if title := attrs.Get("title", ""); title != "" {
		fmt.Fprintf(&b, `<div class="card-header">%s</div>`, html.EscapeString(title))
	}
	fmt.Fprintf(&b, `<div class="card-body">%s</div>`, body)
	if footer := attrs.Get("footer", ""); footer != "" {
		fmt.Fprintf(&b, `<div class="card-footer">%s</div>`, html.EscapeString(footer))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func renderBadge(attrs Attrs, body string) string {
	variant := attrs.Get("variant", "neutral")
	return fmt.Sprintf(`<span class="badge badge-%s">%s</span>`, variant, body)
}

func renderStat(attrs Attrs, body string) string {
	var b strings.Builder
	b.WriteString(`<div class="stat">`)
	fmt.Fprintf(&b, `<div class="stat-value">%s</div>`, html.EscapeString(attrs.Get("value", "")))
	fmt.Fprintf(&b, `<div class="stat-label">%s</div>`, html.EscapeString(attrs.Get("label", "")))
	if delta := attrs.Get("delta", ""); delta != "" {
		class := "stat-delta-up"
		if strings.HasPrefix(delta, "-") {
			class = "stat-delta-down"
		}
		fmt.Fprintf(&b, `<div class="%s">%s</div>`, class, html.EscapeString(delta))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func renderGroup(attrs Attrs, body string) string {
	direction := attrs.Get("direction", "row")
	gap := attrs.Get("gap", "8px")
	return fmt.Sprintf(`<div class="group" style="display:flex;flex-direction:%s;gap:%s">%s</div>`,
		direction, gap, body)
}
