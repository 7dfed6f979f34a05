package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/nucleator/internal/components"
	"github.com/conneroisu/nucleator/internal/interpolate"
)

// Directive patterns. All bodies are matched lazily with (?s) so partially
// typed constructs degrade to no-match instead of swallowing the document.
var (
	componentDecl = regexp.MustCompile(`(?s)<n:component((?:\s+[^<>]*?)?)>(.*?)</n:component>`)
	propsBlock    = regexp.MustCompile(`(?s)<n:props>.*?</n:props>`)

	viewTag = regexp.MustCompile(`(?s)<n:view((?:\s+[^<>]*?)?)>(.*?)</n:view>`)

	layoutOpen  = regexp.MustCompile(`<n:layout((?:\s+[^<>]*?)?)/?>`)
	layoutClose = regexp.MustCompile(`</n:layout>`)

	slotTag       = regexp.MustCompile(`(?s)<n:slot((?:\s+[^<>]*?)?)>(?:.*?</n:slot>)?|<n:slot((?:\s+[^<>]*?)?)/>`)
	scopedStyle   = regexp.MustCompile(`<style\s+scoped\s*>`)
	forTag        = regexp.MustCompile(`(?s)<n:for((?:\s+[^<>]*?)?)>(.*?)</n:for>`)
	bracketFor    = regexp.MustCompile(`(?s)\{%\s*for\s+([A-Za-z_][A-Za-z0-9_]*)\s+in\s+([A-Za-z_][A-Za-z0-9_]*)\s*%\}(.*?)\{%\s*endfor\s*%\}`)
	bracketIf     = regexp.MustCompile(`(?s)\{%\s*if\s+(.*?)\s*%\}(.*?)\{%\s*endif\s*%\}`)
	ifTag         = regexp.MustCompile(`(?s)<n:if((?:\s+[^<>]*?)?)>(.*?)</n:if>`)
	linkTag       = regexp.MustCompile(`(?s)<n:link((?:\s+[^<>]*?)?)>(.*?)</n:link>`)
	imageTag      = regexp.MustCompile(`<n:image((?:\s+[^<>]*?)?)/?>`)
	loaderBlock   = regexp.MustCompile(`(?s)<n:loader((?:\s+[^<>]*?)?)>.*?</n:loader>`)
	actionBlock   = regexp.MustCompile(`(?s)<n:action((?:\s+[^<>]*?)?)>.*?</n:action>`)
	clientBlock   = regexp.MustCompile(`(?s)<n:client((?:\s+[^<>]*?)?)>.*?</n:client>`)
	scriptBlock   = regexp.MustCompile(`(?s)<n:script((?:\s+[^<>]*?)?)>(.*?)</n:script>`)
	formTag       = regexp.MustCompile(`(?s)<n:form((?:\s+[^<>]*?)?)>(.*?)</n:form>`)
	inputTag      = regexp.MustCompile(`<n:input((?:\s+[^<>]*?)?)/?>`)
	includeTag    = regexp.MustCompile(`(?s)<n:include((?:\s+[^<>]*?)?)>(?:.*?</n:include>)?|<n:include((?:\s+[^<>]*?)?)/>`)
	knownFalsePat = regexp.MustCompile(`==\s*0\b|\.is_empty\(\)|==\s*""|==\s*''|\bis\s+empty\b|\.len\(\)\s*==\s*0`)
)

// extractComponents removes n:component declarations from the stream and
// records them for the component expansion stage. Definitions are rebuilt
// from the current source on every call.
func (p *processor) extractComponents(doc string) string {
	p.defs = make(map[string]components.Definition)

	return componentDecl.ReplaceAllStringFunc(doc, func(tag string) string {
		m := componentDecl.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		name := attrs.Get("name", "")
		if name == "" {
			// Anonymous declaration: nothing can reference it, drop it.
			return ""
		}
		body := strings.TrimSpace(propsBlock.ReplaceAllString(m[2], ""))
		p.defs[name] = components.Definition{Name: name, Body: body}
		return ""
	})
}

// wrapView replaces the page-root n:view wrapper with the full output
// document shell. Source without a view wrapper still compiles: the whole
// text becomes the body under the configured title.
func (p *processor) wrapView(doc string) string {
	wrapped := false

	doc = viewTag.ReplaceAllStringFunc(doc, func(tag string) string {
		if wrapped {
			// One document shell per compile; later views stay literal.
			return tag
		}
		m := viewTag.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		title := attrs.Get("title", "")
		if title == "" {
			title = p.title
		}
		wrapped = true
		return p.shell(title, strings.TrimSpace(m[2]))
	})

	if !wrapped {
		return p.shell(p.title, strings.TrimSpace(doc))
	}
	return doc
}

// markLayout replaces layout wrappers with a comment marker. Layout
// resolution itself belongs to the full framework compiler, not the preview.
func (p *processor) markLayout(doc string) string {
	doc = layoutOpen.ReplaceAllStringFunc(doc, func(tag string) string {
		m := layoutOpen.FindStringSubmatch(tag)
		name := components.ParseAttrs(m[1]).Get("name", "default")
		return fmt.Sprintf("<!-- layout: %s -->", name)
	})
	return layoutClose.ReplaceAllString(doc, "")
}

// resolveSlots reduces slot and prop declarations to their markers. Both are
// component-authoring constructs; at preview level they are structural no-ops.
func (p *processor) resolveSlots(doc string) string {
	doc = slotTag.ReplaceAllString(doc, "<!-- slot -->")
	return propsBlock.ReplaceAllString(doc, "")
}

// stripScoped removes the scoped qualifier from style blocks. Scope
// enforcement is out of scope for the preview.
func (p *processor) stripScoped(doc string) string {
	return scopedStyle.ReplaceAllString(doc, "<style>")
}

// expandFor expands tag-based iteration directives against the mock data
// context.
func (p *processor) expandFor(doc string) string {
	return forTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := forTag.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		each := attrs.Get("each", "")
		coll := attrs.Get("in", "")
		if each == "" || coll == "" {
			return tag
		}
		return p.repeat(each, coll, m[2])
	})
}

// expandBracketFor expands the bracket-based iteration syntax with the same
// semantics as expandFor.
func (p *processor) expandBracketFor(doc string) string {
	return bracketFor.ReplaceAllStringFunc(doc, func(tag string) string {
		m := bracketFor.FindStringSubmatch(tag)
		return p.repeat(m[1], m[2], m[3])
	})
}

// repeat emits body once per element of the named collection, resolving
// item-scoped tokens against that specific element. An absent or empty
// collection produces the empty-result marker and zero repetitions.
func (p *processor) repeat(each, coll, body string) string {
	items, ok := interpolate.Collection(p.ctx, coll)
	if !ok || len(items) == 0 {
		return fmt.Sprintf("<!-- empty: %s -->", coll)
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString(interpolate.ResolveScoped(body, each, item))
	}
	return b.String()
}

// resolveConditionals applies the conservative known-false heuristic: a
// condition phrased as an equality-to-zero or emptiness check drops its body,
// everything else is included. This is a textual approximation, not
// expression evaluation.
func (p *processor) resolveConditionals(doc string) string {
	doc = bracketIf.ReplaceAllStringFunc(doc, func(tag string) string {
		m := bracketIf.FindStringSubmatch(tag)
		if knownFalse(m[1]) {
			return ""
		}
		return m[2]
	})

	return ifTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := ifTag.FindStringSubmatch(tag)
		cond := components.ParseAttrs(m[1]).Get("test", "")
		if knownFalse(cond) {
			return ""
		}
		return m[2]
	})
}

func knownFalse(cond string) bool {
	return knownFalsePat.MatchString(cond)
}

// normalizeLinks rewrites navigation links into plain anchors carrying the
// client-navigation marker attribute.
func (p *processor) normalizeLinks(doc string) string {
	return linkTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := linkTag.FindStringSubmatch(tag)
		href := components.ParseAttrs(m[1]).Get("href", "#")
		if href == "" {
			href = "#"
		}
		return fmt.Sprintf(`<a href="%s" data-nucleus-link="true">%s</a>`, href, m[2])
	})
}

// normalizeImages rewrites optimized-image directives into lazy-loading img
// elements.
func (p *processor) normalizeImages(doc string) string {
	return imageTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := imageTag.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		return fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy" decoding="async"/>`,
			attrs.Get("src", ""), attrs.Get("alt", ""))
	})
}

// dropServerBlocks removes data-loading and action declarations; both run on
// an external collaborator the preview never touches.
func (p *processor) dropServerBlocks(doc string) string {
	doc = loaderBlock.ReplaceAllString(doc, "")
	return actionBlock.ReplaceAllString(doc, "")
}

// dropClientBlocks removes client-only blocks, leaving a marker.
func (p *processor) dropClientBlocks(doc string) string {
	return clientBlock.ReplaceAllString(doc, "<!-- client block -->")
}

// normalizeScripts rewrites inline script directives into plain script
// elements. Server-language scripts are removed entirely.
func (p *processor) normalizeScripts(doc string) string {
	return scriptBlock.ReplaceAllStringFunc(doc, func(tag string) string {
		m := scriptBlock.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		if attrs.Get("lang", "") == "rust" {
			return ""
		}
		return "<script>" + m[2] + "</script>"
	})
}

// expandForms rewrites form helpers into standard form controls wired to a
// synthetic submission notification so the preview never performs a network
// request.
func (p *processor) expandForms(doc string) string {
	doc = formTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := formTag.FindStringSubmatch(tag)
		body := expandInputs(m[2])

		var b strings.Builder
		b.WriteString(`<form onsubmit="event.preventDefault(); alert('Form submitted (preview only)');">`)
		b.WriteString(body)
		if !strings.Contains(body, `type="submit"`) {
			b.WriteString(`<button type="submit" class="btn btn-primary btn-md">Submit</button>`)
		}
		b.WriteString("</form>")
		return b.String()
	})

	// Field helpers outside a form still expand to standard controls.
	return expandInputs(doc)
}

func expandInputs(doc string) string {
	return inputTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := inputTag.FindStringSubmatch(tag)
		return components.Catalogue["Input"](components.ParseAttrs(m[1]), "")
	})
}

// maxIncludeDepth bounds nested include expansion; anything deeper stays
// unexpanded rather than recursing.
const maxIncludeDepth = 8

// expandIncludes resolves template inclusion by name against the lookup
// table. Missing targets and self-inclusion (any reference already on the
// current expansion chain) fail open: the tag is left unexpanded.
func (p *processor) expandIncludes(doc string) string {
	return p.expandIncludesIn(doc, nil, 0)
}

func (p *processor) expandIncludesIn(doc string, chain map[string]bool, depth int) string {
	if depth >= maxIncludeDepth {
		return doc
	}

	return includeTag.ReplaceAllStringFunc(doc, func(tag string) string {
		m := includeTag.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1] + " " + m[2])
		ref := attrs.Get("src", "")
		if ref == "" {
			return tag
		}
		body, ok := p.lookup[ref]
		if !ok || chain[ref] {
			return tag
		}

		child := make(map[string]bool, len(chain)+1)
		for r := range chain {
			child[r] = true
		}
		child[ref] = true
		return p.expandIncludesIn(body, child, depth+1)
	})
}
