package reactive

import (
	"fmt"
	"strings"
)

// RuntimeFragment emits the self-contained script for one island. Each
// fragment owns a local state object seeded from the island's signal
// declarations; no two islands share mutable state. On load it performs one
// render pass over every binding marker, then attaches one click listener per
// action marker which applies the encoded operation and re-renders changed
// and dependent keys.
func (is *Island) RuntimeFragment() string {
	if !is.HasBindings() {
		return ""
	}

	var b strings.Builder
	b.WriteString("<script>\n(function () {\n")
	b.WriteString("  var root = document.currentScript.parentElement;\n")
	b.WriteString("  var state = {};\n")
	for _, s := range is.Signals {
		fmt.Fprintf(&b, "  state.%s = %s;\n", s.Name, s.Literal)
	}

	// Computed values re-derive naively from their single dependency: the
	// recorded closure text is documentation, not evaluated code.
	b.WriteString("  var derived = {};\n")
	for _, c := range is.Computed {
		fmt.Fprintf(&b, "  derived.%s = %q; // %s\n", c.Name, c.Dep, strings.ReplaceAll(c.Expr, "\n", " "))
	}

	b.WriteString(`  function value(key) {
    if (key in state) return state[key];
    if (key in derived) return state[derived[key]];
    return "";
  }
  function render(keys) {
    var markers = root.querySelectorAll("[data-bind]");
    for (var i = 0; i < markers.length; i++) {
      var key = markers[i].getAttribute("data-bind");
      if (keys && keys.indexOf(key) < 0 && keys.indexOf(derived[key]) < 0) continue;
      markers[i].textContent = String(value(key));
    }
`)
	if primary := is.primarySignal(); primary != "" {
		// Parity class toggle on the primary counter binding, as a demo of
		// conditional styling tied to state.
		fmt.Fprintf(&b, `    var primary = root.querySelectorAll('[data-bind="%s"]');
    for (var j = 0; j < primary.length; j++) {
      primary[j].classList.toggle("is-odd", Number(state.%s) %% 2 !== 0);
    }
`, primary, primary)
	}
	b.WriteString("  }\n")

	b.WriteString(`  function dispatch(encoded) {
    var parts = encoded.split(":");
    var key = parts[0], op = parts[1], operand = parts[2];
    if (!(key in state)) return;
    var n = Number(operand);
    if (op === "+=") state[key] = Number(state[key]) + n;
    else if (op === "-=") state[key] = Number(state[key]) - n;
    else state[key] = isNaN(n) ? operand : n;
    render(dependents(key));
  }
  function dependents(key) {
    var keys = [key];
    for (var name in derived) {
      if (derived[name] === key) keys.push(name);
    }
    return keys;
  }
  var triggers = root.querySelectorAll("[data-action]");
  for (var i = 0; i < triggers.length; i++) {
    (function (el) {
      el.addEventListener("click", function () {
        dispatch(el.getAttribute("data-action"));
      });
    })(triggers[i]);
  }
  render(null);
})();
</script>`)

	return b.String()
}

// primarySignal is the first declared signal; it carries the parity toggle.
func (is *Island) primarySignal() string {
	if len(is.Signals) == 0 {
		return ""
	}
	return is.Signals[0].Name
}

// Render wraps the island markup and its runtime fragment in the hydration
// container that the compiled document embeds.
func (is *Island) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="island" data-hydrate="%s">`, is.Mode)
	b.WriteString("\n")
	b.WriteString(is.Markup)
	if fragment := is.RuntimeFragment(); fragment != "" {
		b.WriteString("\n")
		b.WriteString(fragment)
	}
	b.WriteString("\n</div>")
	return b.String()
}

// DefaultCounter synthesizes the stand-in binding used for recognized
// external island references: a single counter signal with an increment
// action.
func DefaultCounter(mode string) *Island {
	body := `count = signal(0)
<p>Count: {count}</p>
<button onclick={ count.update(|c| c += 1) }>Increment</button>`
	return Transpile(body, mode)
}
