//go:build !tinygo

package hal

import "time"

type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// advance converts elapsed wall time into whole ticks of length d.
func (t *hostTime) advance(now time.Time, d time.Duration) uint64 {
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(1)
		return 1
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / d)
	if ticks == 0 {
		return 0
	}
	t.acc = t.acc % d
	t.stepN(ticks)
	return ticks
}

func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
