//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HeadlessConfig controls the host runner.
type HeadlessConfig struct {
	Hz          int
	Ticks       uint64
	TimerPeriod uint64
	Sim         SimConfig
}

// RunHeadless builds a host HAL and runs the system returned by newApp.
//
// With Hz > 0 ticks come from the wall clock and Ticks (when non-zero) stops
// the run after that many. With Hz == 0 the timer counts CPU steps and the
// run ends at the step limit.
func RunHeadless(ctx context.Context, newApp func(HAL) (func(context.Context) error, error), cfg HeadlessConfig) error {
	if cfg.Hz < 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHost(HostConfig{Hz: cfg.Hz, TimerPeriod: cfg.TimerPeriod, Sim: cfg.Sim})
	run, err := newApp(h)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Hz > 0 {
		d := time.Second / time.Duration(cfg.Hz)
		if d <= 0 {
			return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
		}
		go func() {
			t := time.NewTicker(d)
			defer t.Stop()
			var tick uint64
			for {
				select {
				case <-runCtx.Done():
					return
				case now := <-t.C:
					tick += h.t.advance(now, d)
					if cfg.Ticks > 0 && tick >= cfg.Ticks {
						cancel()
						return
					}
				}
			}
		}()
	}

	err = run(runCtx)
	switch {
	case errors.Is(err, ErrHalted):
		return nil
	case errors.Is(err, context.Canceled) && ctx.Err() == nil:
		return nil
	}
	return err
}
