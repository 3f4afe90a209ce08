// Package cache owns the single on-disk news blob (StoragePath/news_dump.txt).
// A Controller runs one worker goroutine that drains read/write requests in
// arrival order, so a read never observes a half-written blob and two writes
// never interleave. Writes are fire-and-forget and use temp file + rename;
// reads block the caller until the worker answers or the read timeout expires.
// The Registry keeps at most one live Controller per blob path and is passed
// explicitly to whoever needs a controller instead of living in a global.
package cache
