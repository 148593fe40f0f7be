package kernel

import (
	"context"
	"fmt"
)

// StartScheduler arms the tick, ends the boot-time masked state and traps
// into the tick handler, which resumes the first selected task.
//
// On hardware it never returns. On a simulated CPU it returns when the
// simulation stops (step limit or ctx). If the trap did not reach the handler
// it returns ErrStartupFailure.
func (p *Port) StartScheduler(ctx context.Context) error {
	if err := p.hooks.ConfigureTimerInterrupt(); err != nil {
		err = fmt.Errorf("configure tick timer: %w", err)
		p.raiseFault(err)
		return err
	}

	p.criticalNesting = 0
	p.cpu.Trap(p.cfg.Line)

	if !p.entered {
		p.raiseFault(ErrStartupFailure)
		return ErrStartupFailure
	}
	return p.cpu.Run(ctx)
}

// EndScheduler does nothing: an interrupt-driven scheduler cannot be unwound
// back to the boot context on this CPU. Disabling the tick line is the most a
// caller could do, and the port does not do it.
func (p *Port) EndScheduler() {}
