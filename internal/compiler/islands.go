package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conneroisu/nucleator/internal/components"
	"github.com/conneroisu/nucleator/internal/reactive"
)

var (
	islandPaired = regexp.MustCompile(`(?s)<n:island((?:\s+[^<>]*?)?)>(.*?)</n:island>`)
	islandSelf   = regexp.MustCompile(`<n:island((?:\s+[^<>]*?)?)/>`)
)

// hydrationModes is the closed set of island hydration timings. Anything
// else degrades to immediate hydration.
var hydrationModes = map[string]bool{
	"load":    true,
	"visible": true,
	"idle":    true,
}

// hydrationMode extracts the client:MODE directive from an island's
// attribute list.
func hydrationMode(attrs components.Attrs) string {
	for name := range attrs {
		if mode, ok := strings.CutPrefix(name, "client:"); ok && hydrationModes[mode] {
			return mode
		}
	}
	return "load"
}

// extractIslands hands inline island bodies to the reactive transpiler and
// replaces each with the transpiler's output. Islands are never re-entered:
// the emitted markup contains no island syntax.
func (p *processor) extractIslands(doc string) string {
	return islandPaired.ReplaceAllStringFunc(doc, func(tag string) string {
		m := islandPaired.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		if attrs.Get("src", "") != "" {
			// External reference with a body: the body is advisory, the
			// reference wins. Handled by the external pass.
			return fmt.Sprintf(`<n:island src="%s" client:%s/>`, attrs.Get("src", ""), hydrationMode(attrs))
		}
		return reactive.Transpile(m[2], hydrationMode(attrs)).Render()
	})
}

// resolveExternalIslands resolves island references through the provided
// lookup. A recognized reference is transpiled; one whose body declares no
// bindings gets the synthesized default counter stand-in. An unrecognized
// reference becomes a passive placeholder annotated with the reference and
// hydration mode for traceability.
func (p *processor) resolveExternalIslands(doc string) string {
	return islandSelf.ReplaceAllStringFunc(doc, func(tag string) string {
		m := islandSelf.FindStringSubmatch(tag)
		attrs := components.ParseAttrs(m[1])
		mode := hydrationMode(attrs)
		ref := attrs.Get("src", "")
		if ref == "" {
			// An island with neither body nor reference renders nothing.
			return fmt.Sprintf(`<div class="island" data-hydrate="%s"></div>`, mode)
		}

		body, ok := p.lookup[ref]
		if !ok {
			return fmt.Sprintf(
				`<div class="island island-placeholder" data-island-src="%s" data-hydrate="%s"><!-- island %q not found --></div>`,
				ref, mode, ref)
		}

		island := reactive.Transpile(body, mode)
		if !island.HasBindings() {
			island = reactive.DefaultCounter(mode)
		}
		return fmt.Sprintf("<!-- island: %s (client:%s) -->\n%s", ref, mode, island.Render())
	})
}
