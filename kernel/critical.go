package kernel

// EnterCritical masks interrupts on the outermost entry and counts nesting.
func (p *Port) EnterCritical() {
	if p.criticalNesting == 0 {
		p.cpu.DisableInterrupts()
	}
	p.criticalNesting++
}

// ExitCritical undoes one EnterCritical and unmasks interrupts when the
// outermost section ends.
//
// An unmatched call leaves interrupts masked, reports ErrCriticalUnderflow to
// the fault handler and returns it.
func (p *Port) ExitCritical() error {
	if p.criticalNesting == 0 {
		p.cpu.DisableInterrupts()
		p.raiseFault(ErrCriticalUnderflow)
		return ErrCriticalUnderflow
	}
	p.criticalNesting--
	if p.criticalNesting == 0 {
		p.cpu.EnableInterrupts()
	}
	return nil
}
