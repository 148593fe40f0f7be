package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c28rtos/hal"
)

type stubTask struct {
	name string
	top  hal.Addr
}

func (t *stubTask) TopOfStack() hal.Addr      { return t.top }
func (t *stubTask) SetTopOfStack(sp hal.Addr) { t.top = sp }

// roundRobin selects tasks in creation order and counts ticks.
type roundRobin struct {
	cpu    *hal.Sim
	period uint64
	armErr error

	tasks      []*stubTask
	next       int
	ticks      int
	selections []string
}

func (r *roundRobin) AdvanceTick() { r.ticks++ }

func (r *roundRobin) SelectNextTask(sw Switcher) {
	if len(r.tasks) == 0 {
		sw.SetCurrentTask(nil)
		return
	}
	t := r.tasks[r.next%len(r.tasks)]
	r.next++
	r.selections = append(r.selections, t.name)
	sw.SetCurrentTask(t)
}

func (r *roundRobin) ConfigureTimerInterrupt() error {
	if r.armErr != nil {
		return r.armErr
	}
	if r.period > 0 {
		r.cpu.ArmTimer(hal.TickLine, r.period)
	}
	return nil
}

type fixture struct {
	cpu    *hal.Sim
	hooks  *roundRobin
	port   *Port
	events []Event
}

func newFixture(t *testing.T, preempt bool, steps uint64) *fixture {
	t.Helper()
	f := &fixture{cpu: hal.NewSim(hal.SimConfig{StepLimit: steps})}
	f.hooks = &roundRobin{cpu: f.cpu}
	f.port = New(f.cpu, f.hooks, Config{
		Preemption: preempt,
		Line:       hal.TickLine,
		Trace:      func(ev Event) { f.events = append(f.events, ev) },
	})
	return f
}

// addTask creates a task running prog and makes it the current task.
func (f *fixture) addTask(t *testing.T, name string, param uint32, prog hal.Program) *stubTask {
	t.Helper()
	i := len(f.hooks.tasks)
	stack, err := f.cpu.Stack(hal.Addr(0x400+i*0x100), 0x100)
	require.NoError(t, err)
	entry := hal.Addr(0x3F8000 + i*0x10)
	top, err := f.port.InitializeTaskStack(stack, entry, param)
	require.NoError(t, err)
	f.cpu.Load(entry, prog)
	task := &stubTask{name: name, top: top}
	f.hooks.tasks = append(f.hooks.tasks, task)
	f.port.SetCurrentTask(task)
	return task
}

func (f *fixture) causes() []Cause {
	out := make([]Cause, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Cause)
	}
	return out
}

func TestTimerRoundRobinThreeEntries(t *testing.T) {
	f := newFixture(t, true, 3)
	f.hooks.period = 1

	var ran []string
	f.addTask(t, "T1", 1, func(hal.CPU) { ran = append(ran, "T1") })
	f.addTask(t, "T2", 2, func(hal.CPU) { ran = append(ran, "T2") })

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, hal.ErrHalted)

	assert.Equal(t, []string{"T1", "T2", "T1"}, f.hooks.selections)
	assert.Equal(t, []string{"T1", "T2", "T1"}, ran)
	assert.Equal(t, 3, f.hooks.ticks)
	assert.Equal(t, []Cause{CauseFirst, CauseTick, CauseTick}, f.causes())
	assert.Equal(t, uint16(0), f.port.CriticalNesting())
}

func TestYieldSwitchesWithoutTick(t *testing.T) {
	f := newFixture(t, true, 2)

	yielded := false
	f.addTask(t, "T1", 1, func(hal.CPU) {
		if !yielded {
			yielded = true
			f.port.Yield()
		}
	})
	f.addTask(t, "T2", 2, func(hal.CPU) {})

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, hal.ErrHalted)

	assert.Equal(t, []string{"T1", "T2"}, f.hooks.selections)
	assert.Equal(t, 1, f.hooks.ticks, "only the startup entry advances time")
	assert.Equal(t, []Cause{CauseFirst, CauseYield}, f.causes())
	assert.False(t, f.port.yieldPending)
}

func TestTickEntryAdvancesTimeByOne(t *testing.T) {
	f := newFixture(t, true, 0)
	f.addTask(t, "T1", 1, func(hal.CPU) {})
	f.addTask(t, "T2", 2, func(hal.CPU) {})

	f.cpu.Trap(hal.TickLine)
	require.Equal(t, 1, f.hooks.ticks)

	for i := 0; i < 5; i++ {
		before := f.hooks.ticks
		f.cpu.Pend(hal.TickLine)
		require.NoError(t, f.cpu.Step())
		assert.Equal(t, before+1, f.hooks.ticks)
	}
	assert.Len(t, f.hooks.selections, 6)
}

func TestTickKeepsOwnLineEnabled(t *testing.T) {
	f := newFixture(t, true, 3)

	f.addTask(t, "T1", 1, func(cpu hal.CPU) {
		// Disable everything but INT1, then give up the CPU.
		cpu.SetIER(0x0001)
		f.port.Yield()
	})
	f.addTask(t, "T2", 2, func(hal.CPU) {})

	f.cpu.Trap(hal.TickLine)
	require.Equal(t, hal.TickLine.Mask(), f.cpu.IER())

	require.NoError(t, f.cpu.Step())
	assert.Equal(t, []string{"T1", "T2"}, f.hooks.selections)
	assert.Equal(t, hal.TickLine.Mask()|0x0001, f.cpu.IER())
	assert.False(t, f.cpu.InterruptsMasked())
}

func TestSaveRestoreSameTaskIsBitIdentical(t *testing.T) {
	f := newFixture(t, true, 2)
	f.hooks.period = 1

	var seen []hal.RegisterImage
	f.addTask(t, "T1", 0x00C0FFEE, func(hal.CPU) {
		img := f.cpu.Registers()
		if len(seen) == 0 {
			img[hal.IdxT] = 0x1234
			img[hal.IdxDP] = 0x0300
			img.SetAux(0, 0xDEADBEEF)
			img.SetAux(hal.AuxRegisters-1, 0x00C0FFEE)
			f.cpu.LoadRegisters(img)
		}
		seen = append(seen, img)
	})

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, hal.ErrHalted)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, []string{"T1", "T1"}, f.hooks.selections)
}

func TestFirstEntrySkipsSave(t *testing.T) {
	f := newFixture(t, true, 0)
	f.cpu.SetSP(0x2000)
	task := f.addTask(t, "T1", 1, func(hal.CPU) {})
	top := task.top

	f.cpu.Trap(hal.TickLine)

	assert.Equal(t, top-hal.FrameWords, f.cpu.SP(), "SP is the task's frame base after IRET")
	assert.Equal(t, hal.Word(0), f.cpu.ReadWord(0x2000), "boot stack untouched")
	assert.False(t, f.port.firstStart)
}

func TestCooperativeHandlerAdvancesEveryEntry(t *testing.T) {
	f := newFixture(t, false, 3)
	f.hooks.period = 1

	f.addTask(t, "T1", 1, func(hal.CPU) { f.port.Yield() })
	f.addTask(t, "T2", 2, func(hal.CPU) { f.port.Yield() })

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, hal.ErrHalted)

	assert.Equal(t, []string{"T1", "T2", "T1", "T2"}, f.hooks.selections)
	assert.Equal(t, 4, f.hooks.ticks)
	assert.Equal(t, uint16(0), f.cpu.IER(), "frames keep their own IER")
	assert.False(t, f.port.yieldPending)
	assert.Equal(t, []Cause{CauseFirst, CauseTick, CauseTick, CauseTick}, f.causes())
}

type deadTrapCPU struct {
	*hal.Sim
}

func (deadTrapCPU) Trap(hal.Line) {}

func TestStartSchedulerReportsFailureWhenTrapLost(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{})
	hooks := &roundRobin{cpu: sim}
	p := New(deadTrapCPU{Sim: sim}, hooks, DefaultConfig())

	var faults []error
	p.SetFaultHandler(func(info FaultInfo) { faults = append(faults, info.Err) })

	err := p.StartScheduler(context.Background())
	require.ErrorIs(t, err, ErrStartupFailure)
	assert.Equal(t, []error{ErrStartupFailure}, faults)
	assert.Equal(t, uint16(0), p.CriticalNesting())
	assert.True(t, p.Faulted())
}

func TestStartSchedulerTimerError(t *testing.T) {
	f := newFixture(t, true, 1)
	f.hooks.armErr = errors.New("no timer")
	f.addTask(t, "T1", 1, func(hal.CPU) {})

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, f.hooks.armErr)
	assert.Empty(t, f.hooks.selections)
	assert.Equal(t, InitialCriticalNesting, f.port.CriticalNesting())
}

func TestStartSchedulerStopsOnContext(t *testing.T) {
	f := newFixture(t, true, 0)
	f.addTask(t, "T1", 1, func(hal.CPU) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.port.StartScheduler(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"T1"}, f.hooks.selections)
}

func TestNoTaskSelectedFaults(t *testing.T) {
	f := newFixture(t, true, 1)

	var got error
	f.port.SetFaultHandler(func(info FaultInfo) { got = info.Err })

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, ErrNoCurrentTask, "the CPU halts instead of resuming the boot context")
	assert.ErrorIs(t, got, ErrNoCurrentTask)
	assert.Zero(t, f.cpu.Steps())
}

func TestCooperativeNoTaskSelectedHalts(t *testing.T) {
	f := newFixture(t, false, 1)

	err := f.port.StartScheduler(context.Background())
	require.ErrorIs(t, err, ErrNoCurrentTask)
	assert.True(t, f.port.Faulted())
}

func TestTickLineOutsideCPUIsLostTrap(t *testing.T) {
	sim := hal.NewSim(hal.SimConfig{})
	p := New(sim, &roundRobin{cpu: sim}, Config{Preemption: true, Line: 20})

	require.NotPanics(t, p.Yield)
	err := p.StartScheduler(context.Background())
	require.ErrorIs(t, err, ErrStartupFailure)
	assert.True(t, p.Faulted())
}

func TestEndSchedulerIsNoOp(t *testing.T) {
	f := newFixture(t, true, 0)
	task := f.addTask(t, "T1", 1, func(hal.CPU) {})
	f.cpu.Trap(hal.TickLine)
	regs := f.cpu.Registers()

	f.port.EndScheduler()

	assert.Equal(t, regs, f.cpu.Registers())
	assert.Equal(t, TCB(task), f.port.CurrentTask())
	assert.Equal(t, InitialCriticalNesting, f.port.CriticalNesting())
}
