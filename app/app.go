package app

import (
	"context"
	"fmt"

	"c28rtos/hal"
	"c28rtos/internal/config"
	"c28rtos/kernel"
	"c28rtos/sched"
)

// Board memory map. Task stacks are carved upwards from StackBase; each task
// gets its own program slot in flash.
const (
	StackBase   hal.Addr = 0x0400
	ProgramBase hal.Addr = 0x3F8000
	programSlot hal.Addr = 0x0010

	idleStackWords = 64
)

// Record is one traced handler entry.
type Record struct {
	Seq   uint64
	Cause kernel.Cause
	Task  string
	Tick  uint64
}

func (r Record) String() string {
	return fmt.Sprintf("%04d %-5s -> %-8s tick=%d", r.Seq, r.Cause, r.Task, r.Tick)
}

// System is a configured board: CPU, port, scheduler and task programs.
type System struct {
	h     hal.HAL
	cpu   hal.CPU
	log   hal.Logger
	port  *kernel.Port
	sched *sched.Scheduler
	board config.Board

	trace   []Record
	runs    map[string]uint64
	corrupt uint64
}

// New builds the system described by board on h.
func New(h hal.HAL, board config.Board) (*System, error) {
	s := &System{
		h:     h,
		cpu:   h.CPU(),
		log:   h.Logger(),
		board: board,
		runs:  make(map[string]uint64),
	}

	cfg := kernel.DefaultConfig()
	cfg.Preemption = board.PreemptionOr(kernel.PreemptionEnabled)
	cfg.Trace = s.record

	s.sched = sched.New(h.Timer(), cfg.Line)
	s.port = kernel.New(s.cpu, s.sched, cfg)
	s.sched.Bind(s.port)
	s.installFaultHandler()

	next := StackBase
	for i, ts := range board.Tasks {
		entry := ProgramBase + hal.Addr(i)*programSlot
		stack, err := s.cpu.Stack(next, ts.StackWords)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", ts.Name, err)
		}
		next += hal.Addr(ts.StackWords)

		s.cpu.Load(entry, s.program(ts))
		t, err := s.sched.CreateTask(ts.Name, entry, ts.Param, stack)
		if err != nil {
			return nil, err
		}
		s.logf("task %s: entry=%#06x param=%#x stack=%#06x+%d top=%#06x",
			t.Name(), entry, ts.Param, stack.Base, len(stack.Words), t.TopOfStack())
	}

	idleEntry := ProgramBase + hal.Addr(len(board.Tasks))*programSlot
	stack, err := s.cpu.Stack(next, idleStackWords)
	if err != nil {
		return nil, fmt.Errorf("idle task: %w", err)
	}
	s.cpu.Load(idleEntry, func(hal.CPU) { s.runs[config.IdleTaskName]++ })
	if _, err := s.sched.CreateIdleTask(idleEntry, stack); err != nil {
		return nil, err
	}
	return s, nil
}

// Run starts the scheduler. It returns only when the simulation stops or the
// start fails.
func (s *System) Run(ctx context.Context) error {
	mode := "preemptive"
	if !s.port.Preemptive() {
		mode = "cooperative"
	}
	s.logf("scheduler start: %s, %d aux registers, frame %d words, %d tasks",
		mode, hal.AuxRegisters, hal.FrameWords, len(s.sched.Tasks()))
	err := s.port.StartScheduler(ctx)
	s.logf("scheduler stopped: ticks=%d entries=%d err=%v", s.sched.TickCount(), s.port.Entries(), err)
	return err
}

// Port returns the kernel port.
func (s *System) Port() *kernel.Port { return s.port }

// Scheduler returns the scheduling policy.
func (s *System) Scheduler() *sched.Scheduler { return s.sched }

// Trace returns the handler entries recorded so far.
func (s *System) Trace() []Record { return s.trace }

// Runs returns how many program steps the named task executed.
func (s *System) Runs(name string) uint64 { return s.runs[name] }

// Corrupt counts program steps that found a register image other than the
// one their task was created with.
func (s *System) Corrupt() uint64 { return s.corrupt }

func (s *System) record(ev kernel.Event) {
	r := Record{Seq: ev.Seq, Cause: ev.Cause, Tick: s.sched.TickCount()}
	if t, ok := ev.Task.(*sched.Task); ok {
		r.Task = t.Name()
	}
	s.trace = append(s.trace, r)
}

func (s *System) program(ts config.TaskSpec) hal.Program {
	want := ts.Param & 0x00FFFFFF
	check := func(cpu hal.CPU) {
		s.runs[ts.Name]++
		if cpu.ACC() != want {
			s.corrupt++
			s.logf("task %s: acc=%#x, want %#x", ts.Name, cpu.ACC(), want)
		}
	}

	switch ts.Program {
	case config.ProgramYield:
		return func(cpu hal.CPU) {
			check(cpu)
			s.port.Yield()
		}
	case config.ProgramDelay:
		return func(cpu hal.CPU) {
			check(cpu)
			s.sched.Delay(ts.Delay)
		}
	case config.ProgramCritical:
		return func(cpu hal.CPU) {
			s.port.EnterCritical()
			check(cpu)
			if err := s.port.ExitCritical(); err != nil {
				s.logf("task %s: %v", ts.Name, err)
			}
		}
	default:
		return check
	}
}

func (s *System) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}

// Run builds the default board on h and runs it forever (TinyGo entrypoint).
func Run(h hal.HAL) {
	s, err := New(h, config.Default())
	if err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString("boot: " + err.Error())
		}
		select {}
	}
	_ = s.Run(context.Background())
	select {}
}
