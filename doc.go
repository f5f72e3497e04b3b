// Package replayable provides a concurrent replay cache for single-pass
// sequences: wrap a producer that can only be walked forward once, and any
// number of goroutines can traverse the same items, in the same order, with
// the producer driven at most once per position.
//
// The main components include:
//
//   - Source: the externally supplied one-shot producer, opened lazily via an OpenFunc; adapters FromSlice, FromFunc, and FromChan cover the common shapes
//   - Sequence: the shared cache; opens the source exactly once, arbitrates a single driving goroutine through a non-blocking lock, and publishes items append-only
//   - Cursor: one consumer's position into the sequence, created per traversal with NewCursor; replay is a new cursor, not a rewind
//   - Message / Chan: bridge a cursor into channel-style consumption
//   - All: bridge a cursor into a range-over-func iterator
//
// Contention is resolved by spin-polling with a yield step rather than by
// parking threads: drives are expected to complete in microseconds, so
// polling has lower latency than blocking, at the cost of CPU under heavy
// contention. A source failure is captured once, at the index it occurred,
// and replayed identically to every cursor that reaches that index; the
// source is never retried.
package replayable
