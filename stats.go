package replayable

import "sync/atomic"

type stats struct {
	pulls atomic.Uint64
	hits  atomic.Uint64
	waits atomic.Uint64
}

// Stats is a snapshot of a Sequence's counters.
type Stats struct {
	// Cached is the number of items published so far.
	Cached int
	// Pulls counts calls made to the source's Next method. For a source of
	// N items fully traversed this is exactly N+1 (N successes plus the
	// terminal call), no matter how many cursors traversed.
	Pulls uint64
	// Hits counts reads served from the cache without touching the source.
	Hits uint64
	// Waits counts spin iterations spent waiting on another cursor's drive.
	Waits uint64
}

// Stats returns a snapshot of the sequence's counters. The fields are read
// individually, so a snapshot taken while cursors are running is only
// loosely consistent.
func (s *Sequence[T]) Stats() Stats {
	return Stats{
		Cached: s.Len(),
		Pulls:  s.stats.pulls.Load(),
		Hits:   s.stats.hits.Load(),
		Waits:  s.stats.waits.Load(),
	}
}
