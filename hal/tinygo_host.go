//go:build tinygo && !baremetal

package hal

import "time"

type tinyGoHostHAL struct {
	logger *tinyGoHostLogger
	t      *tinyGoHostTime
	cpu    *Sim
	timer  Timer
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU.
func New() HAL {
	cpu := NewSim(SimConfig{})
	t := newTinyGoHostTime()
	return &tinyGoHostHAL{
		logger: &tinyGoHostLogger{},
		t:      t,
		cpu:    cpu,
		timer:  NewTickTimer(t, cpu),
	}
}

func (h *tinyGoHostHAL) Logger() Logger { return h.logger }
func (h *tinyGoHostHAL) Time() Time     { return h.t }
func (h *tinyGoHostHAL) Timer() Timer   { return h.timer }
func (h *tinyGoHostHAL) CPU() CPU       { return h.cpu }

type tinyGoHostTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoHostTime() *tinyGoHostTime {
	t := &tinyGoHostTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoHostTime) Ticks() <-chan uint64 { return t.ch }

type tinyGoHostLogger struct{}

func (l *tinyGoHostLogger) WriteLineString(s string) {
	println(s)
}

func (l *tinyGoHostLogger) WriteLineBytes(b []byte) {
	println(string(b))
}
