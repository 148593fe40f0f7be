//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig selects how the host HAL drives the tick line.
type HostConfig struct {
	// Hz is the wall-clock tick rate. Zero selects the step-counting timer.
	Hz int
	// TimerPeriod is the number of CPU steps per tick when Hz is zero.
	TimerPeriod uint64
	// Sim configures the simulated CPU.
	Sim SimConfig
	// Log receives log lines (os.Stdout when nil).
	Log io.Writer
}

type hostHAL struct {
	logger *hostLogger
	cpu    *Sim
	t      *hostTime
	timer  Timer
}

// New returns a host HAL with a 1kHz wall-clock tick.
func New() HAL {
	return NewHost(HostConfig{Hz: 1000})
}

// NewHost returns a host HAL backed by a simulated CPU.
func NewHost(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	w := cfg.Log
	if w == nil {
		w = os.Stdout
	}
	h := &hostHAL{
		logger: &hostLogger{w: w},
		cpu:    NewSim(cfg.Sim),
		t:      newHostTime(),
	}
	if cfg.Hz > 0 {
		h.timer = NewTickTimer(h.t, h.cpu)
	} else {
		h.timer = NewSimTimer(h.cpu, cfg.TimerPeriod)
	}
	return h
}

func (h *hostHAL) Logger() Logger { return h.logger }
func (h *hostHAL) Time() Time     { return h.t }
func (h *hostHAL) Timer() Timer   { return h.timer }
func (h *hostHAL) CPU() CPU       { return h.cpu }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
