// Package reactive transpiles the body of a Nucleus island into inline
// binding markup plus a companion runtime fragment.
//
// The transpiler recognizes a restricted expression grammar — signal
// declarations, single-dependency computed declarations, and declarative
// click handlers — without evaluating anything. Input is live editor content,
// so every scan is tolerant: an island with no recognizable declarations
// still compiles to static markup with no runtime fragment.
package reactive

import (
	"fmt"
	"regexp"
	"strings"
)

// Signal is a declared reactive cell with an initial-value literal.
// The literal is carried verbatim so negative and fractional values survive
// into the generated runtime untouched.
type Signal struct {
	Name    string
	Literal string
}

// Computed is a named value derived from exactly one signal. It is recorded
// for binding purposes only; the runtime performs a naive re-derivation, not
// expression evaluation.
type Computed struct {
	Name string
	Dep  string
	Expr string
}

// Action is the (signal, operator, operand) triple extracted from a
// declarative click handler. Operator is one of "+=", "-=" or "=".
type Action struct {
	Signal  string
	Op      string
	Operand string
}

// Encode renders the action in the wire form carried by the data-action
// attribute, e.g. "count:+=:1".
func (a Action) Encode() string {
	return a.Signal + ":" + a.Op + ":" + a.Operand
}

// Island is the transpiled form of one island body.
type Island struct {
	Markup   string
	Signals  []Signal
	Computed []Computed
	Actions  []Action
	Mode     string
}

// HasBindings reports whether the island declared any reactive state. An
// island without bindings is emitted as static markup only.
func (is *Island) HasBindings() bool {
	return len(is.Signals) > 0
}

const literalPattern = `-?[0-9]+(?:\.[0-9]+)?|"[^"]*"|true|false`

var (
	signalDecl   = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=\s*signal\(\s*(` + literalPattern + `)\s*\)`)
	computedDecl = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=\s*computed\(\s*([A-Za-z_][A-Za-z0-9_]*)\.clone\(\)\s*,\s*([^)]*)\)`)
	bindingToken = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}`)

	// Click handlers span lines in real editor content, so the match is
	// permissive: anything up to the closing brace, containing one update
	// or set call.
	clickHandler = regexp.MustCompile(`(?s)onclick\s*=\s*\{([^{}]*?([A-Za-z_][A-Za-z0-9_]*)\.(update|set)\s*\(((?:[^()]|\([^()]*\))*)\)[^{}]*)\}`)

	// Handlers with no update/set call never match clickHandler; they are
	// neutralized wholesale so template syntax cannot leak into an attribute.
	leftoverHandler = regexp.MustCompile(`(?s)onclick\s*=\s*\{[^{}]*\}`)

	declLine   = regexp.MustCompile(`(?m)^[ \t]*(?:let\s+)?[A-Za-z_][A-Za-z0-9_]*\s*=\s*(?:signal|computed)\([^\n]*\)\s*;?\s*$\n?`)
	assignLit  = regexp.MustCompile(`^\s*(` + literalPattern + `)\s*$`)
	incDecOp   = regexp.MustCompile(`([+-])=?\s*([0-9]+(?:\.[0-9]+)?)`)
)

// Transpile converts one island body into binding markup, recorded bindings
// and actions. mode is the island's hydration timing (load, visible, idle).
func Transpile(body, mode string) *Island {
	island := &Island{Mode: mode}

	for _, m := range signalDecl.FindAllStringSubmatch(body, -1) {
		island.Signals = append(island.Signals, Signal{Name: m[1], Literal: m[2]})
	}
	for _, m := range computedDecl.FindAllStringSubmatch(body, -1) {
		island.Computed = append(island.Computed, Computed{
			Name: m[1],
			Dep:  m[2],
			Expr: strings.TrimSpace(m[3]),
		})
	}

	markup := declLine.ReplaceAllString(body, "")

	markup = clickHandler.ReplaceAllStringFunc(markup, func(handler string) string {
		m := clickHandler.FindStringSubmatch(handler)
		action, ok := parseAction(m[2], m[4])
		if !ok {
			// Unrecognized handler shape: strip it rather than leaking
			// template syntax into an attribute.
			return `onclick="return false"`
		}
		island.Actions = append(island.Actions, action)
		return fmt.Sprintf(`data-action="%s" onclick="return false"`, action.Encode())
	})
	markup = leftoverHandler.ReplaceAllString(markup, `onclick="return false"`)

	markup = bindingToken.ReplaceAllStringFunc(markup, func(token string) string {
		name := bindingToken.FindStringSubmatch(token)[1]
		if !island.binds(name) {
			return token
		}
		return fmt.Sprintf(`<span data-bind="%s"></span>`, name)
	})

	island.Markup = strings.TrimSpace(markup)
	return island
}

// binds reports whether name refers to a declared signal or computed value.
// Tokens for anything else are left for the substitution engine.
func (is *Island) binds(name string) bool {
	for _, s := range is.Signals {
		if s.Name == name {
			return true
		}
	}
	for _, c := range is.Computed {
		if c.Name == name {
			return true
		}
	}
	return false
}

// parseAction classifies the argument text of an update/set call into the
// (signal, operator, operand) triple. A bare literal argument is an
// assignment; a "+ n" / "+= n" shape increments; "- n" / "-= n" decrements.
func parseAction(signal, args string) (Action, bool) {
	if m := assignLit.FindStringSubmatch(args); m != nil {
		return Action{Signal: signal, Op: "=", Operand: strings.Trim(m[1], `"`)}, true
	}
	if m := incDecOp.FindStringSubmatch(args); m != nil {
		return Action{Signal: signal, Op: m[1] + "=", Operand: m[2]}, true
	}
	return Action{}, false
}
