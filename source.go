package replayable

// Source is a one-shot producer of items. Next returns the next item, or
// ok == false once the source is exhausted, or a non-nil error if production
// failed. Exhaustion is never signalled through an error.
//
// A Source is single-threaded by contract: the Sequence guarantees that Next
// is never called concurrently, so implementations need no locking of their
// own. Close releases whatever the source holds; it is called at most once.
type Source[T any] interface {
	Next() (item T, ok bool, err error)
	Close() error
}

// OpenFunc lazily creates a Source. It is invoked at most once per Sequence,
// by whichever cursor starts first.
type OpenFunc[T any] func() (Source[T], error)

// SourceFunc is the functional form of a source's Next method.
type SourceFunc[T any] func() (item T, ok bool, err error)

type funcSource[T any] struct {
	next SourceFunc[T]
}

func (s *funcSource[T]) Next() (T, bool, error) { return s.next() }

func (s *funcSource[T]) Close() error { return nil }

// FromFunc adapts a plain next-function into an OpenFunc. Open never fails
// and Close is a no-op.
func FromFunc[T any](next SourceFunc[T]) OpenFunc[T] {
	return func() (Source[T], error) {
		return &funcSource[T]{next: next}, nil
	}
}

type sliceSource[T any] struct {
	items []T
	pos   int
}

func (s *sliceSource[T]) Next() (T, bool, error) {
	var zero T
	if s.pos >= len(s.items) {
		return zero, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

func (s *sliceSource[T]) Close() error {
	s.items = nil
	return nil
}

// FromSlice returns an OpenFunc producing the given items in order. Mostly
// useful in tests and examples; a slice-backed sequence is already cheap to
// re-read without caching.
func FromSlice[T any](items []T) OpenFunc[T] {
	return func() (Source[T], error) {
		return &sliceSource[T]{items: items}, nil
	}
}

type chanSource[T any] struct {
	ch <-chan T
}

func (s *chanSource[T]) Next() (T, bool, error) {
	item, ok := <-s.ch
	return item, ok, nil
}

func (s *chanSource[T]) Close() error { return nil }

// FromChan returns an OpenFunc that drains the given channel. The sequence
// ends when the channel is closed. Next blocks while the channel is open but
// empty, which stalls every cursor waiting on that position; the sender owns
// the channel and is responsible for closing it.
func FromChan[T any](ch <-chan T) OpenFunc[T] {
	return func() (Source[T], error) {
		return &chanSource[T]{ch: ch}, nil
	}
}
