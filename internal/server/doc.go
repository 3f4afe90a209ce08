// Package server hosts the Fiber HTTP surface used by `-serve` mode.
// It exposes GET /news, which runs one fetch through the orchestrator and maps
// its outcome to a status code, and the /-/ diagnostics routes registered by
// the routes subpackage. Every response carries an X-Request-ID header.
// The package also owns the shared upstream http.Client so that the fetch
// pipeline and the connectivity probe reuse one tuned transport.
package server
