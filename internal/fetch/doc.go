// Package fetch coordinates one news fetch at a time.
//
// The Orchestrator picks a source (cache when the caller prefers it or when
// the network is unreachable, remote otherwise), runs it on a background
// goroutine and reports the outcome twice: once to the Listener supplied at
// construction and once on a one-shot channel returned by Start. A failed
// fetch is classified by the source that produced it, so callers can tell
// "the server is broken" apart from "nothing is cached yet".
package fetch
