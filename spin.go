package replayable

import (
	"runtime"
	"time"
)

const (
	defaultSpinYields = 64
	defaultSpinSleep  = 50 * time.Microsecond
)

type spinConfig struct {
	yields int
	sleep  time.Duration
}

// backoff is the wait step used while another goroutine is opening the
// source or driving the next item. Drives are expected to complete in
// microseconds, so the first iterations just yield the processor; after
// that a short sleep keeps a stalled source from pegging a core. There is
// no deadline: a source that never returns stalls every waiting cursor.
type backoff struct {
	cfg spinConfig
	n   int
}

func (b *backoff) wait() {
	b.n++
	if b.n <= b.cfg.yields {
		runtime.Gosched()
		return
	}
	time.Sleep(b.cfg.sleep)
}
