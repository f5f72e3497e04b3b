package replayable

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	stateNew int32 = iota
	stateOpening
	stateReady
)

// Sequence caches the output of a one-shot Source so that any number of
// cursors can traverse the same items, in the same order, while the source
// is pulled at most once per position. The source is opened lazily by the
// first cursor to start; exactly one goroutine at a time is allowed to pull
// from it, arbitrated by a non-blocking lock, and everyone else observes the
// result through the published cache.
//
// A Sequence is safe for concurrent use. Individual cursors are not; each
// consumer owns its own.
type Sequence[T any] struct {
	open OpenFunc[T]

	state    atomic.Int32
	disposed atomic.Bool

	// items is the append-only cache. Only the goroutine holding driveMu
	// appends; it publishes the grown header through the pointer so readers
	// can index below the length they loaded without any lock.
	items atomic.Pointer[[]T]

	// fault is written at most once and never cleared. Once set, the cache
	// never grows past fault.Index and every cursor reaching that position
	// gets this exact value back.
	fault atomic.Pointer[SourceError]

	// driveMu guards src and the right to append. It is not re-entrant and
	// is held only across a single Next call plus the append that publishes
	// its result.
	driveMu  sync.Mutex
	src      Source[T]
	consumed atomic.Bool

	spin     spinConfig
	capacity int
	stats    stats
}

// Option configures a Sequence.
type Option[T any] func(*Sequence[T])

// WithCapacity pre-sizes the cache for sequences whose length is roughly
// known, avoiding growth reallocations while driving.
func WithCapacity[T any](n int) Option[T] {
	return func(s *Sequence[T]) {
		s.capacity = n
	}
}

// WithSpin tunes the wait step used while another cursor is opening the
// source or driving the next item: the first yields iterations call
// runtime.Gosched, after which each iteration sleeps for the given duration.
func WithSpin[T any](yields int, sleep time.Duration) Option[T] {
	return func(s *Sequence[T]) {
		s.spin = spinConfig{yields: yields, sleep: sleep}
	}
}

// New creates a Sequence over the source produced by open. The source is not
// opened until the first cursor starts.
func New[T any](open OpenFunc[T], opts ...Option[T]) *Sequence[T] {
	s := &Sequence[T]{
		open: open,
		spin: spinConfig{yields: defaultSpinYields, sleep: defaultSpinSleep},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCursor returns a new cursor positioned before the first item. It may be
// called any number of times, from any goroutine.
func (s *Sequence[T]) NewCursor() *Cursor[T] {
	return &Cursor[T]{seq: s, pos: -1}
}

// Len returns the number of items cached so far.
func (s *Sequence[T]) Len() int {
	return len(s.loadItems())
}

// Faulted returns the captured source failure, or nil if none has occurred.
func (s *Sequence[T]) Faulted() error {
	if f := s.fault.Load(); f != nil {
		return f
	}
	return nil
}

// Dispose closes the source and releases the cache. It is idempotent; any
// operation on the sequence or its cursors afterwards fails with
// ErrDisposed. The error, if any, comes from closing the source.
func (s *Sequence[T]) Dispose() error {
	if !s.disposed.CompareAndSwap(false, true) {
		return nil
	}
	// Let an in-flight open finish so its source doesn't leak.
	for b := (backoff{cfg: s.spin}); s.state.Load() == stateOpening; b.wait() {
	}
	s.driveMu.Lock()
	defer s.driveMu.Unlock()
	var err error
	if s.src != nil {
		err = s.src.Close()
		s.src = nil
	}
	s.items.Store(nil)
	slog.Debug("replayable: sequence disposed")
	return err
}

func (s *Sequence[T]) loadItems() []T {
	if p := s.items.Load(); p != nil {
		return *p
	}
	return nil
}

// ensureInit opens the source exactly once. The first caller wins the CAS
// and performs the open; everyone else spins until the state is ready. If
// the open fails, the fault is recorded and the state still advances so
// waiters are released; they get the same error back.
func (s *Sequence[T]) ensureInit() error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	if s.state.CompareAndSwap(stateNew, stateOpening) {
		src, err := s.open()
		if err != nil {
			f := &SourceError{Index: -1, Err: err}
			s.fault.Store(f)
			s.state.Store(stateReady)
			return f
		}
		items := make([]T, 0, s.capacity)
		s.driveMu.Lock()
		s.src = src
		s.items.Store(&items)
		s.driveMu.Unlock()
		s.state.Store(stateReady)
		if s.disposed.Load() {
			// Dispose raced with the open; don't leak the source.
			s.driveMu.Lock()
			if s.src != nil {
				s.src.Close()
				s.src = nil
			}
			s.items.Store(nil)
			s.driveMu.Unlock()
			return ErrDisposed
		}
		return nil
	}
	for b := (backoff{cfg: s.spin}); s.state.Load() != stateReady; b.wait() {
		if s.disposed.Load() {
			return ErrDisposed
		}
	}
	if f := s.fault.Load(); f != nil && f.Index < 0 {
		return f
	}
	if s.disposed.Load() {
		return ErrDisposed
	}
	return nil
}

// itemAt returns the item at index i, driving the source forward by one if
// i is the next uncached position. ok is false once the sequence ends before
// i. Cursors only ever ask for their own position + 1, so i is never more
// than one past the cached length.
func (s *Sequence[T]) itemAt(i int) (T, bool, error) {
	var zero T
	for b := (backoff{cfg: s.spin}); ; b.wait() {
		if s.disposed.Load() {
			return zero, false, ErrDisposed
		}
		items := s.loadItems()
		if i < len(items) {
			s.stats.hits.Add(1)
			return items[i], true, nil
		}
		if f := s.fault.Load(); f != nil {
			return zero, false, f
		}
		if s.consumed.Load() {
			return zero, false, nil
		}
		if s.driveMu.TryLock() {
			item, ok, err, done := s.driveOne(i)
			s.driveMu.Unlock()
			if done {
				return item, ok, err
			}
			continue
		}
		// Someone else is driving; poll until the index appears, the
		// source runs out, or a fault is recorded.
		s.stats.waits.Add(1)
	}
}

// driveOne pulls at most one item while holding driveMu. done is false only
// when the sequence was disposed between the outer check and the lock.
func (s *Sequence[T]) driveOne(i int) (item T, ok bool, err error, done bool) {
	var zero T
	// Re-check under the lock: the previous driver may already have
	// published this index or ended the sequence.
	items := s.loadItems()
	if i < len(items) {
		s.stats.hits.Add(1)
		return items[i], true, nil, true
	}
	if f := s.fault.Load(); f != nil {
		return zero, false, f, true
	}
	if s.consumed.Load() {
		return zero, false, nil, true
	}
	if s.src == nil {
		// Disposed while we were acquiring the lock.
		return zero, false, nil, false
	}

	s.stats.pulls.Add(1)
	item, ok, err = s.src.Next()
	if err != nil {
		f := &SourceError{Index: i, Err: err}
		s.fault.Store(f)
		s.closeSource()
		slog.Debug("replayable: source fault", "index", i, "error", err)
		return zero, false, f, true
	}
	if !ok {
		s.consumed.Store(true)
		s.closeSource()
		return zero, false, nil, true
	}
	next := append(items, item)
	s.items.Store(&next)
	return item, true, nil, true
}

// closeSource is called with driveMu held, after exhaustion or a fault, so
// no further drive attempts can touch the source.
func (s *Sequence[T]) closeSource() {
	if s.src == nil {
		return
	}
	if err := s.src.Close(); err != nil {
		slog.Debug("replayable: source close failed", "error", err)
	}
	s.src = nil
}
