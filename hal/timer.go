package hal

import (
	"fmt"
	"sync"
)

// tickTimer forwards a tick stream into a CPU's interrupt flags.
type tickTimer struct {
	once sync.Once
	t    Time
	cpu  CPU
}

// NewTickTimer returns a Timer that pends its line once per tick of t.
func NewTickTimer(t Time, cpu CPU) Timer {
	return &tickTimer{t: t, cpu: cpu}
}

func (t *tickTimer) Arm(line Line) error {
	if line.Mask() == 0 {
		return fmt.Errorf("arm %d: no such line", line)
	}
	ch := t.t.Ticks()
	if ch == nil {
		return fmt.Errorf("arm %d: %w", line, ErrNotImplemented)
	}
	t.once.Do(func() {
		go func() {
			for range ch {
				t.cpu.Pend(line)
			}
		}()
	})
	return nil
}
