package replayable

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

// TestSingleDrive verifies that no matter how many cursors race through the
// sequence, the source's Next is called exactly N+1 times system-wide.
func TestSingleDrive(t *testing.T) {
	log.Println("============== TestSingleDrive ================")
	const cursors = 5
	seq, calls, _ := newTracked([]int{10, 20, 30}, -1, nil)
	defer seq.Dispose()

	results := make([][]int, cursors)
	var g errgroup.Group
	for i := range cursors {
		g.Go(func() error {
			cur := seq.NewCursor()
			defer cur.Close()
			var got []int
			for cur.Advance() {
				item, err := cur.Current()
				if err != nil {
					return err
				}
				got = append(got, item)
			}
			results[i] = got
			return cur.Err()
		})
	}
	assert.NoError(t, g.Wait())

	assert.Equal(t, int64(4), calls.Load(), "3 successes + 1 terminal, regardless of cursor count")
	for i := range cursors {
		assert.Equal(t, []int{10, 20, 30}, results[i], "cursor %d", i)
	}
	assert.Equal(t, uint64(4), seq.Stats().Pulls)
}

// TestOrderUnderContention runs many cursors over a longer sequence and
// checks that every one of them observed identical values at identical
// indices, in production order.
func TestOrderUnderContention(t *testing.T) {
	const (
		items   = 500
		cursors = 8
	)
	want := make([]int, items)
	for i := range want {
		want[i] = i * 3
	}
	seq := New(FromSlice(want))
	defer seq.Dispose()

	results := make([][]int, cursors)
	var g errgroup.Group
	for i := range cursors {
		g.Go(func() error {
			cur := seq.NewCursor()
			defer cur.Close()
			got := make([]int, 0, items)
			for cur.Advance() {
				item, err := cur.Current()
				if err != nil {
					return err
				}
				got = append(got, item)
			}
			results[i] = got
			return cur.Err()
		})
	}
	assert.NoError(t, g.Wait())

	for i := range cursors {
		assert.Equal(t, want, results[i], "cursor %d diverged", i)
	}
	assert.Equal(t, items, seq.Len())
}

// TestFaultReplayUnderContention verifies that a production fault is
// observed with the same identity, at the same index, by every cursor that
// reaches it, while cursors stopping earlier see nothing.
func TestFaultReplayUnderContention(t *testing.T) {
	const cursors = 4
	boom := errors.New("connection reset")
	seq, calls, _ := newTracked([]int{0, 1, 2, 3, 4}, 2, boom)
	defer seq.Dispose()

	faults := make([]*SourceError, cursors)
	var g errgroup.Group
	for i := range cursors {
		g.Go(func() error {
			cur := seq.NewCursor()
			defer cur.Close()
			var got []int
			for cur.Advance() {
				item, err := cur.Current()
				if err != nil {
					return err
				}
				got = append(got, item)
			}
			if !errors.Is(cur.Err(), boom) {
				return cur.Err()
			}
			var srcErr *SourceError
			if !errors.As(cur.Err(), &srcErr) {
				return cur.Err()
			}
			faults[i] = srcErr
			if len(got) != 2 || got[0] != 0 || got[1] != 1 {
				return errors.New("items before the fault diverged")
			}
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	for i := 1; i < cursors; i++ {
		assert.Same(t, faults[0], faults[i], "fault must replay with identical identity")
	}
	assert.Equal(t, 2, faults[0].Index)
	assert.Equal(t, int64(3), calls.Load(), "the source must never be retried after a fault")

	// A cursor that stops before the fault's origin sees no error.
	early := seq.NewCursor()
	assert.True(t, early.Advance())
	assert.True(t, early.Advance())
	assert.NoError(t, early.Err())
}

// TestRacingStarts verifies the init gate: many cursors starting at once
// open the source exactly once, and all of them observe the same cache.
func TestRacingStarts(t *testing.T) {
	const cursors = 16
	opened := new(atomic.Int64)
	seq := New(func() (Source[int], error) {
		opened.Add(1)
		return &sliceSource[int]{items: []int{1, 2, 3}}, nil
	})
	defer seq.Dispose()

	var ready sync.WaitGroup
	ready.Add(cursors)
	release := make(chan struct{})

	var g errgroup.Group
	for range cursors {
		g.Go(func() error {
			cur := seq.NewCursor()
			defer cur.Close()
			ready.Done()
			<-release
			return cur.Start()
		})
	}
	ready.Wait()
	close(release)

	assert.NoError(t, g.Wait())
	assert.Equal(t, int64(1), opened.Load())
}

// TestRacingOpenFault verifies that when the open itself fails under a
// racing start, every cursor gets the same captured error and the open is
// attempted exactly once.
func TestRacingOpenFault(t *testing.T) {
	const cursors = 8
	boom := errors.New("no route to host")
	opened := new(atomic.Int64)
	seq := New(func() (Source[int], error) {
		opened.Add(1)
		return nil, boom
	})
	defer seq.Dispose()

	errsCh := make(chan error, cursors)
	var g errgroup.Group
	for range cursors {
		g.Go(func() error {
			cur := seq.NewCursor()
			defer cur.Close()
			errsCh <- cur.Start()
			return nil
		})
	}
	assert.NoError(t, g.Wait())
	close(errsCh)

	var first *SourceError
	for err := range errsCh {
		var srcErr *SourceError
		assert.ErrorAs(t, err, &srcErr)
		assert.Equal(t, -1, srcErr.Index)
		if first == nil {
			first = srcErr
		} else {
			assert.Same(t, first, srcErr)
		}
	}
	assert.Equal(t, int64(1), opened.Load())
}

// TestSlowDriverDoesNotBlockCachedReads pins the drive lock inside a slow
// Next call and checks that a cursor reading already-published indices is
// served from the cache without waiting on the driver.
func TestSlowDriverDoesNotBlockCachedReads(t *testing.T) {
	gate := make(chan struct{})
	n := 0
	seq := New(FromFunc(func() (int, bool, error) {
		if n == 2 {
			<-gate // third item stalls until released
		}
		if n >= 4 {
			return 0, false, nil
		}
		n++
		return n, true, nil
	}))
	defer seq.Dispose()

	warm := seq.NewCursor()
	assert.True(t, warm.Advance())
	assert.True(t, warm.Advance())

	// Park a driver on the stalled third item.
	driving := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		cur := seq.NewCursor()
		defer cur.Close()
		cur.Advance()
		cur.Advance()
		close(driving)
		cur.Advance() // blocks inside Next
		return cur.Err()
	})
	<-driving

	// Cached indices stay readable while the driver is stuck.
	reader := seq.NewCursor()
	assert.True(t, reader.Advance())
	item, err := reader.Current()
	assert.NoError(t, err)
	assert.Equal(t, 1, item)

	close(gate)
	assert.NoError(t, g.Wait())
}
