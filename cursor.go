package replayable

type cursorState int8

const (
	cursorNew cursorState = iota
	cursorActive
	cursorExhausted
	cursorClosed
)

// Cursor is one consumer's position into a shared Sequence. Cursors are
// independent: each advances at its own pace and observes the same items at
// the same indices as every other cursor. A Cursor is owned by a single
// consumer and is not safe for concurrent use; the Sequence it points at is.
type Cursor[T any] struct {
	seq   *Sequence[T]
	pos   int
	cur   T
	err   error
	valid bool
	state cursorState
}

// Start opens the shared source if no cursor has done so yet, and otherwise
// waits for whichever cursor is opening it. Calling Start again is a no-op:
// it neither reopens the source nor resets the position. Advance calls Start
// implicitly, so calling it yourself is only useful to surface open errors
// early.
func (c *Cursor[T]) Start() error {
	switch c.state {
	case cursorClosed:
		return ErrInvalidCursor
	case cursorNew:
		if err := c.seq.ensureInit(); err != nil {
			return err
		}
		c.state = cursorActive
		c.pos = -1
	}
	return nil
}

// Advance moves to the next item, returning true if one is available via
// Current. It returns false at the end of the sequence or on error; Err
// distinguishes the two. A fault does not advance the position, so calling
// Advance again re-observes the same fault at the same index.
func (c *Cursor[T]) Advance() bool {
	var zero T
	if c.seq.disposed.Load() {
		c.cur, c.valid, c.err = zero, false, ErrDisposed
		return false
	}
	switch c.state {
	case cursorClosed:
		c.cur, c.valid, c.err = zero, false, ErrInvalidCursor
		return false
	case cursorExhausted:
		c.cur, c.valid, c.err = zero, false, nil
		return false
	case cursorNew:
		if err := c.Start(); err != nil {
			c.cur, c.valid, c.err = zero, false, err
			return false
		}
	}

	c.pos++
	item, ok, err := c.seq.itemAt(c.pos)
	if err != nil {
		c.pos--
		c.cur, c.valid, c.err = zero, false, err
		return false
	}
	if !ok {
		c.state = cursorExhausted
		c.cur, c.valid, c.err = zero, false, nil
		return false
	}
	c.cur, c.valid, c.err = item, true, nil
	return true
}

// Current returns the item produced by the most recent successful Advance.
// It fails with ErrInvalidCursor if Advance has not been called, did not
// succeed, or the cursor is exhausted or closed.
func (c *Cursor[T]) Current() (T, error) {
	var zero T
	if c.seq.disposed.Load() {
		return zero, ErrDisposed
	}
	if !c.valid {
		return zero, ErrInvalidCursor
	}
	return c.cur, nil
}

// Err returns the error that caused the last Advance to return false, or
// nil if it returned false because the sequence ended.
func (c *Cursor[T]) Err() error {
	return c.err
}

// Position returns the index of the current item, or -1 before the first
// successful Advance.
func (c *Cursor[T]) Position() int {
	return c.pos
}

// Reset always fails with ErrResetUnsupported. To traverse the sequence
// again, create a new cursor with NewCursor; the cache makes the second
// pass cheap.
func (c *Cursor[T]) Reset() error {
	return ErrResetUnsupported
}

// Close releases cursor-local state. It never touches the shared Sequence:
// other cursors and the cache are unaffected. Close is idempotent.
func (c *Cursor[T]) Close() error {
	var zero T
	c.state = cursorClosed
	c.cur, c.valid, c.err = zero, false, nil
	return nil
}
