package kernel

// Cause is why the tick handler was entered.
type Cause uint8

const (
	CauseFirst Cause = iota + 1
	CauseTick
	CauseYield
)

func (c Cause) String() string {
	switch c {
	case CauseFirst:
		return "first"
	case CauseTick:
		return "tick"
	case CauseYield:
		return "yield"
	default:
		return "unknown"
	}
}

// Event describes one handler entry, after the next task was selected.
type Event struct {
	Seq   uint64
	Cause Cause
	Task  TCB
}

func (p *Port) trace(cause Cause) {
	p.seq++
	if p.cfg.Trace != nil {
		p.cfg.Trace(Event{Seq: p.seq, Cause: cause, Task: p.current})
	}
}

// Entries returns the number of completed handler entries.
func (p *Port) Entries() uint64 { return p.seq }
