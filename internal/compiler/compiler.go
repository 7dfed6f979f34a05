// Package compiler turns Nucleus template source into a standalone HTML
// preview document.
//
// The compiler is a single-direction pipeline: an ordered sequence of
// directive rewrite passes, island transpilation, component expansion and
// token substitution. It runs continuously against live editor content, so
// the whole pipeline is fail-open: a directive whose attributes do not match
// the expected shape is left as literal text instead of aborting the compile.
// Compile is a pure function of its inputs; nothing is cached or shared
// between calls and arbitrary call concurrency is safe.
package compiler

import (
	"fmt"
	"strings"

	"github.com/conneroisu/nucleator/internal/components"
	"github.com/conneroisu/nucleator/internal/interpolate"
)

// Lookup maps external island references and include names to their
// pre-registered template bodies. Callers must not mutate it during a call.
type Lookup map[string]string

// Options carries the per-call knobs of a compile.
type Options struct {
	// Title is used when the source has no n:view wrapper with its own
	// title attribute.
	Title string

	// Data is the mock data context resolved into interpolation tokens and
	// iterated by loop directives.
	Data interpolate.Context
}

// DefaultTitle is the document title used when neither the source nor the
// options supply one.
const DefaultTitle = "Nucleus Preview"

// Compile runs the full pipeline over one source document and returns the
// complete output document. style is appended to the generated style block.
func Compile(source, style string, lookup Lookup, opts Options) string {
	p := &processor{
		style:  style,
		lookup: lookup,
		ctx:    opts.Data,
		title:  opts.Title,
	}
	if p.title == "" {
		p.title = DefaultTitle
	}

	doc := source
	for _, pass := range p.passes() {
		doc = pass.fn(doc)
	}

	doc = components.ExpandDeclared(doc, p.defs)
	// Declared component bodies were captured before the directive passes
	// ran, so the content passes repeat over the expanded document.
	for _, pass := range p.contentPasses() {
		doc = pass.fn(doc)
	}
	doc = components.Expand(doc)
	doc = interpolate.Resolve(doc, p.ctx)
	return strings.TrimSpace(interpolate.Normalize(doc))
}

// processor holds the per-call state of one compile: the extracted component
// definitions and the read-only collaborators. It never outlives the call.
type processor struct {
	style  string
	lookup Lookup
	ctx    interpolate.Context
	title  string
	defs   map[string]components.Definition
}

// pass is one directive rewrite step. Passes take and return the whole
// document string; ordering is the contract, not an optimization.
type pass struct {
	name string
	fn   func(string) string
}

// passes returns the ordered directive pipeline. Structural wrapping runs
// before content-level passes, which run before island extraction, which runs
// before the attribute-level passes on whatever markup remains.
func (p *processor) passes() []pass {
	return append([]pass{
		{"components", p.extractComponents},
		{"view", p.wrapView},
	}, p.contentPasses()...)
}

// contentPasses is the directive pipeline minus component extraction and
// document wrapping. It runs once inside passes and a second time after
// declared components are expanded, since their bodies re-enter the document
// unprocessed. Every pass in it leaves already-rewritten markup alone.
func (p *processor) contentPasses() []pass {
	return []pass{
		{"layout", p.markLayout},
		{"slots", p.resolveSlots},
		{"scoped-style", p.stripScoped},
		{"for", p.expandFor},
		{"for-brackets", p.expandBracketFor},
		{"if", p.resolveConditionals},
		{"islands", p.extractIslands},
		{"islands-external", p.resolveExternalIslands},
		{"links", p.normalizeLinks},
		{"images", p.normalizeImages},
		{"loaders", p.dropServerBlocks},
		{"client", p.dropClientBlocks},
		{"scripts", p.normalizeScripts},
		{"forms", p.expandForms},
		{"includes", p.expandIncludes},
	}
}

// baseStyle is the stylesheet every compiled document carries; the caller's
// style text is concatenated after it.
const baseStyle = `body { font-family: system-ui, sans-serif; margin: 2rem; color: #1f2933; }
.btn { display: inline-block; border: 0; border-radius: 6px; cursor: pointer; text-decoration: none; }
.btn-sm { padding: 4px 10px; font-size: 0.85rem; }
.btn-md { padding: 8px 16px; font-size: 1rem; }
.btn-lg { padding: 12px 22px; font-size: 1.15rem; }
.btn-primary { background: #007acc; color: #fff; }
.btn-secondary { background: #e4e7eb; color: #1f2933; }
.btn-danger { background: #d64545; color: #fff; }
.btn-ghost { background: transparent; color: #007acc; }
.card { background: #fff; border: 1px solid #e4e7eb; border-radius: 8px; padding: 1rem; margin: 0.5rem 0; }
.card-header { font-weight: 600; border-bottom: 1px solid #e4e7eb; padding-bottom: 0.5rem; margin-bottom: 0.5rem; }
.card-footer { border-top: 1px solid #e4e7eb; padding-top: 0.5rem; margin-top: 0.5rem; color: #616e7c; }
.badge { display: inline-block; border-radius: 999px; padding: 2px 10px; font-size: 0.8rem; }
.badge-neutral { background: #e4e7eb; color: #1f2933; }
.badge-success { background: #d1f0d1; color: #1f6f1f; }
.badge-info { background: #d6e9ff; color: #0b5394; }
.stat { display: inline-block; padding: 0.5rem 1rem; }
.stat-value { font-size: 1.6rem; font-weight: 700; }
.stat-label { color: #616e7c; font-size: 0.85rem; }
.stat-delta-up { color: #1f6f1f; }
.stat-delta-down { color: #b33636; }
.field { margin: 0.5rem 0; }
.field label { display: block; margin-bottom: 0.25rem; font-size: 0.9rem; }
.island { border: 1px dashed #cbd2d9; border-radius: 8px; padding: 0.75rem; margin: 0.5rem 0; }
.island-placeholder { color: #616e7c; font-style: italic; }
.is-odd { color: #b33636; }`

// shell wraps body into the complete output document: doctype, head with the
// title and generated style block, then the expanded body.
func (p *processor) shell(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", title)
	b.WriteString("<style>\n")
	b.WriteString(baseStyle)
	if strings.TrimSpace(p.style) != "" {
		b.WriteString("\n")
		b.WriteString(p.style)
	}
	b.WriteString("\n</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>")
	return b.String()
}
