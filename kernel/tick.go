package kernel

import "c28rtos/hal"

// tickPreemptive is the tick/yield vector in preemptive builds.
//
// It runs with INTM set and its own IER bit cleared. Every step below
// completes before any task runs again.
func (p *Port) tickPreemptive() {
	cause := CauseTick
	switch {
	case p.firstStart:
		// Entered from StartScheduler: the boot context is never resumed.
		cause = CauseFirst
	default:
		p.save()
	}

	ier := p.cpu.IER()
	// Keep the tick line enabled whatever the interrupted task had set.
	ier |= p.cfg.Line.Mask()
	p.firstStart = false
	p.entered = true

	if p.yieldPending {
		cause = CauseYield
	} else {
		p.hooks.AdvanceTick()
	}
	p.yieldPending = false

	p.hooks.SelectNextTask(p)
	if p.current == nil {
		p.halt(ErrNoCurrentTask)
		return
	}
	p.trace(cause)

	p.restore()
	p.restoreIER(ier)
	p.cpu.Return()
}

// tickCooperative is the vector when preemption is disabled. There is no
// yield bookkeeping and no IER fix-up: each task resumes with the IER saved
// in its own frame.
//
// The first entry comes from StartScheduler on the boot stack, so it skips
// the save like the preemptive handler: saving there would write the boot
// context into the seeded task's stack and overwrite its initial frame.
func (p *Port) tickCooperative() {
	cause := CauseTick
	if p.firstStart {
		cause = CauseFirst
	} else {
		p.save()
	}
	p.firstStart = false
	p.entered = true
	p.yieldPending = false

	p.hooks.AdvanceTick()
	p.hooks.SelectNextTask(p)
	if p.current == nil {
		p.halt(ErrNoCurrentTask)
		return
	}
	p.trace(cause)

	p.restore()
	p.cpu.Return()
}

// halt reports err and stops the CPU; no task image is left to return into.
func (p *Port) halt(err error) {
	p.raiseFault(err)
	p.cpu.Halt(err)
}

// save pushes the interrupted image onto the current task's stack and
// records the new top in its TCB.
func (p *Port) save() {
	if p.current == nil {
		return
	}
	p.cpu.SaveImage()
	p.current.SetTopOfStack(p.cpu.SP())
}

// restore switches SP to the current task's saved frame and loads it.
func (p *Port) restore() {
	p.cpu.SetSP(p.current.TopOfStack())
	p.cpu.RestoreImage()
}

// restoreIER overwrites the IER word of the frame about to be popped. Its
// depth below SP depends on how many auxiliary registers the frame holds.
func (p *Port) restoreIER(ier uint16) {
	p.cpu.WriteWord(p.cpu.SP()-hal.IERDepth, ier)
}
