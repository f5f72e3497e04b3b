package replayable

import "iter"

// All adapts the cursor to a range-over-func iterator. Each iteration
// yields an item and a nil error; if the sequence faults, one final pair
// with the zero value and the error is yielded. Breaking out of the range
// leaves the cursor where it stopped.
func (c *Cursor[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for c.Advance() {
			item, _ := c.Current()
			if !yield(item, nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}
