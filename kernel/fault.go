package kernel

import "sync"

// FaultInfo describes a fatal port condition.
type FaultInfo struct {
	Err   error
	Task  TCB
	Stack []byte
}

type faultState struct {
	once    sync.Once
	active  bool
	handler func(FaultInfo)
}

// Faulted reports whether a fault has been raised.
func (p *Port) Faulted() bool { return p.fault.active }

// SetFaultHandler installs the handler for fatal port conditions.
//
// The handler is invoked at most once (on the first fault). It must not panic.
func (p *Port) SetFaultHandler(fn func(FaultInfo)) {
	p.fault.handler = fn
}

func (p *Port) raiseFault(err error) {
	p.fault.once.Do(func() {
		p.fault.active = true
		if p.fault.handler != nil {
			p.fault.handler(FaultInfo{Err: err, Task: p.current, Stack: captureStack()})
		}
	})
}
