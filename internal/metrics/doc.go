// Package metrics provides lock-free counters for engine observability.
//
// Counters are stored in cache-line-padded slots and incremented atomically,
// so the write path is allocation-free and contention between unrelated
// counters never shares a cache line.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation only. It performs no
// I/O and imports no sibling package; exporting snapshots to an external
// system is the caller's concern.
package metrics
