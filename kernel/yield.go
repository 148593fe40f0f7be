package kernel

// Yield asks for an immediate reschedule without advancing the tick.
//
// It traps into the tick handler on the calling task's context. The caller
// continues only once it is selected again.
func (p *Port) Yield() {
	p.yieldPending = true
	p.cpu.Trap(p.cfg.Line)
}
