// Package errors holds the diagnostic types surfaced by the preview tool.
// Compilation itself never fails, so these cover tool-level faults: unreadable
// fragment files, bad config, watcher and server errors.
package errors

import (
	"fmt"
	"html"
	"strings"
	"sync"
	"time"
)

// Severity represents the severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single tool-level problem tied to a source or fragment.
type Diagnostic struct {
	Source    string
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.Source == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Source, d.Severity, d.Message)
}

// Collector accumulates diagnostics across a preview session. Safe for
// concurrent use; the server records from watcher and websocket goroutines.
type Collector struct {
	mu          sync.RWMutex
	diagnostics []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{diagnostics: make([]Diagnostic, 0)}
}

// Add records a diagnostic, stamping it with the current time.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d.Timestamp = time.Now()
	c.diagnostics = append(c.diagnostics, d)
}

// AddError records a plain error against a source at error severity.
func (c *Collector) AddError(source string, err error) {
	if err == nil {
		return
	}
	c.Add(Diagnostic{Source: source, Message: err.Error(), Severity: SeverityError})
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Clear drops all recorded diagnostics.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = c.diagnostics[:0]
}

// BySource returns the diagnostics recorded against one source.
func (c *Collector) BySource(source string) []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Diagnostic
	for _, d := range c.diagnostics {
		if d.Source == source {
			out = append(out, d)
		}
	}
	return out
}

// Overlay renders the collected diagnostics as an HTML fragment the preview
// page can append to the compiled output. Empty when nothing was recorded.
func (c *Collector) Overlay() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.diagnostics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="nucleator-diagnostics" style="position:fixed;bottom:0;left:0;right:0;max-height:40%;overflow:auto;background:#1a202c;color:#e2e8f0;font-family:monospace;font-size:13px;padding:12px;z-index:9999;">`)
	b.WriteString(`<strong style="color:#feca57;">Preview diagnostics</strong>`)

	for _, d := range c.diagnostics {
		color := "#48dbfb"
		switch d.Severity {
		case SeverityWarning:
			color = "#feca57"
		case SeverityError:
			color = "#ff6b6b"
		}
		fmt.Fprintf(&b,
			`<div style="margin-top:8px;border-left:3px solid %s;padding-left:8px;"><span style="color:%s;">%s</span> %s <span style="color:#a0aec0;">(%s, %s)</span></div>`,
			color, color, d.Severity, html.EscapeString(d.Message),
			html.EscapeString(d.Source), d.Timestamp.Format("15:04:05"))
	}

	b.WriteString(`</div>`)
	return b.String()
}
