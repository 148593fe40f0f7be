// Package kernel is the tick-driven context-switch port for the C28x-style
// CPU described by package hal.
//
// All process-wide port state (current task, critical nesting, yield and
// first-start flags) lives in one Port value.
package kernel

import (
	"c28rtos/hal"
)

// InitialCriticalNesting keeps interrupts masked until StartScheduler runs,
// whatever ExitCritical calls happen during boot.
const InitialCriticalNesting uint16 = 10

// TCB is the part of a task control record the port reads and writes.
type TCB interface {
	TopOfStack() hal.Addr
	SetTopOfStack(sp hal.Addr)
}

// Switcher gives the selection hook access to the current task.
type Switcher interface {
	CurrentTask() TCB
	SetCurrentTask(t TCB)
}

// Hooks are provided by the scheduling policy.
type Hooks interface {
	// AdvanceTick advances the time base; called for timer entries only.
	AdvanceTick()
	// SelectNextTask picks the task to resume and sets it on sw.
	SelectNextTask(sw Switcher)
	// ConfigureTimerInterrupt arms the periodic tick source.
	ConfigureTimerInterrupt() error
}

// Config is the port's build configuration.
type Config struct {
	// Preemption selects the preemptive tick handler. When false the
	// cooperative handler is installed.
	Preemption bool
	// Line is the interrupt line shared by the tick timer and Yield.
	Line hal.Line
	// Trace, when set, receives one Event per handler entry.
	Trace func(Event)
}

// DefaultConfig returns the configuration selected by build tags.
func DefaultConfig() Config {
	return Config{
		Preemption: PreemptionEnabled,
		Line:       hal.TickLine,
	}
}

// Port is the context-switch core bound to one CPU.
type Port struct {
	cpu   hal.CPU
	hooks Hooks
	cfg   Config

	current TCB

	criticalNesting uint16
	yieldPending    bool
	firstStart      bool
	entered         bool

	seq   uint64
	fault faultState
}

// New creates a port and installs its tick handler on the CPU.
func New(cpu hal.CPU, hooks Hooks, cfg Config) *Port {
	if cfg.Line == 0 {
		cfg.Line = hal.TickLine
	}
	p := &Port{
		cpu:             cpu,
		hooks:           hooks,
		cfg:             cfg,
		criticalNesting: InitialCriticalNesting,
		firstStart:      true,
	}
	if cfg.Preemption {
		cpu.SetVector(cfg.Line, p.tickPreemptive)
	} else {
		cpu.SetVector(cfg.Line, p.tickCooperative)
	}
	return p
}

// CPU returns the CPU the port drives.
func (p *Port) CPU() hal.CPU { return p.cpu }

// Preemptive reports which handler is installed.
func (p *Port) Preemptive() bool { return p.cfg.Preemption }

// CurrentTask returns the task whose image is live in the CPU.
func (p *Port) CurrentTask() TCB { return p.current }

// SetCurrentTask is called by the selection hook, or once before startup to
// seed the first task.
func (p *Port) SetCurrentTask(t TCB) { p.current = t }

// CriticalNesting returns the critical section depth.
func (p *Port) CriticalNesting() uint16 { return p.criticalNesting }
