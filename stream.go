package replayable

// Message carries one item or one terminal error to channel consumers.
type Message[T any] struct {
	Value T     // The item at this position
	Err   error // Terminal error, if the sequence faulted
}

// Chan drains the cursor into a channel from a background goroutine,
// bridging cursor-style traversal into channel-style consumption. Each item
// is sent as a Message; if the sequence faults, a final Message carrying the
// error is sent. The channel is closed when the sequence ends, faults, or
// stop is closed.
//
// The goroutine takes over the cursor: the caller must not call Advance or
// Current on it after Chan returns. Closing stop abandons the traversal
// without affecting the shared sequence or other cursors.
func (c *Cursor[T]) Chan(stop <-chan struct{}) <-chan Message[T] {
	out := make(chan Message[T])
	go func() {
		defer close(out)
		for c.Advance() {
			item, _ := c.Current()
			select {
			case out <- Message[T]{Value: item}:
			case <-stop:
				return
			}
		}
		if err := c.Err(); err != nil {
			select {
			case out <- Message[T]{Err: err}:
			case <-stop:
			}
		}
	}()
	return out
}
