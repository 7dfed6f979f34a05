// Package internal contains the core implementation packages for nucleator.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the nucleator CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - compiler: The directive pipeline turning Nucleus source into HTML
//   - components: Catalogue and declared component expansion
//   - reactive: Island transpilation and the self-contained runtime
//   - interpolate: Token substitution against the mock data context
//   - config: Configuration management with validation
//   - errors: Diagnostic collection and HTML overlay generation
//   - logging: Structured logging built on log/slog
//   - mockdata: Default preview context and data file loading
//   - registry: Fragment registry and event broadcasting
//   - server: HTTP server, websocket live compile, and middleware
//   - watcher: File system monitoring with debouncing
//   - version: Build-time version information
//
// # Inter-Package Communication
//
// The compiler and its supporting packages (components, reactive,
// interpolate) are pure: Compile is a function of its inputs and never
// touches the filesystem. The registry supplies the fragment lookup table,
// the watcher keeps it fresh, and the server wires everything to the
// browser.
package internal
