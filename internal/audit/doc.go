// Package audit defines the engine's structured audit event model and an
// asynchronous dispatcher that forwards events to a caller-supplied sink
// without blocking authentication hot paths.
package audit
