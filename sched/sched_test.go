package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"c28rtos/hal"
	"c28rtos/kernel"
)

func newBound(t *testing.T) (*Scheduler, *kernel.Port, *hal.Sim) {
	t.Helper()
	cpu := hal.NewSim(hal.SimConfig{})
	s := New(hal.NewSimTimer(cpu, 1), hal.TickLine)
	cfg := kernel.DefaultConfig()
	cfg.Preemption = true
	p := kernel.New(cpu, s, cfg)
	s.Bind(p)
	return s, p, cpu
}

func mustStack(t *testing.T, cpu *hal.Sim, base hal.Addr) hal.Stack {
	t.Helper()
	st, err := cpu.Stack(base, 0x80)
	require.NoError(t, err)
	return st
}

func TestCreateTaskRequiresPort(t *testing.T) {
	s := New(nil, hal.TickLine)
	_, err := s.CreateTask("a", 0x3F8000, 0, hal.Stack{Words: make([]hal.Word, 64)})
	require.Error(t, err)
}

func TestCreateTaskBuildsFrameAndSetsCurrent(t *testing.T) {
	s, p, cpu := newBound(t)

	a, err := s.CreateTask("a", 0x3F8000, 0x11, mustStack(t, cpu, 0x400))
	require.NoError(t, err)
	b, err := s.CreateTask("b", 0x3F8010, 0x22, mustStack(t, cpu, 0x480))
	require.NoError(t, err)
	_, err = s.CreateIdleTask(0x3F8020, mustStack(t, cpu, 0x500))
	require.NoError(t, err)

	assert.Equal(t, kernel.TCB(b), p.CurrentTask(), "latest non-idle task is current")
	assert.Equal(t, hal.Addr(0x400+hal.FrameWords), a.TopOfStack())
	assert.Equal(t, hal.Word(0x11), cpu.ReadWord(0x400+hal.IdxAL))
	assert.Equal(t, hal.Word(0x8010), cpu.ReadWord(0x480+hal.IdxPCL))

	// Creation uses critical sections; the boot sentinel keeps interrupts masked.
	assert.Equal(t, kernel.InitialCriticalNesting, p.CriticalNesting())
	assert.True(t, cpu.InterruptsMasked())

	names := []string{}
	for _, task := range s.Tasks() {
		names = append(names, task.Name())
	}
	assert.Equal(t, []string{"a", "b", IdleName}, names)
}

func TestCreateTaskStackTooSmall(t *testing.T) {
	s, p, _ := newBound(t)
	_, err := s.CreateTask("tiny", 0x3F8000, 0, hal.Stack{Base: 0x400, Words: make([]hal.Word, hal.FrameWords-1)})
	require.ErrorIs(t, err, kernel.ErrStackTooSmall)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, kernel.InitialCriticalNesting, p.CriticalNesting())
}

func TestCreateIdleTaskOnce(t *testing.T) {
	s, _, cpu := newBound(t)
	_, err := s.CreateIdleTask(0x3F8000, mustStack(t, cpu, 0x400))
	require.NoError(t, err)
	_, err = s.CreateIdleTask(0x3F8000, mustStack(t, cpu, 0x480))
	require.Error(t, err)
}

func TestSelectNextTaskRoundRobinSkipsIdle(t *testing.T) {
	s, p, cpu := newBound(t)
	a, _ := s.CreateTask("a", 0x3F8000, 0, mustStack(t, cpu, 0x400))
	b, _ := s.CreateTask("b", 0x3F8010, 0, mustStack(t, cpu, 0x480))
	_, _ = s.CreateIdleTask(0x3F8020, mustStack(t, cpu, 0x500))

	var got []string
	for i := 0; i < 5; i++ {
		s.SelectNextTask(p)
		got = append(got, p.CurrentTask().(*Task).Name())
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, got)
	assert.Equal(t, uint64(3), a.SwitchIns())
	assert.Equal(t, uint64(2), b.SwitchIns())
}

func TestDelayedTasksWakeOnTick(t *testing.T) {
	s, p, cpu := newBound(t)
	a, _ := s.CreateTask("a", 0x3F8000, 0, mustStack(t, cpu, 0x400))
	idle, _ := s.CreateIdleTask(0x3F8020, mustStack(t, cpu, 0x500))

	a.state = Delayed
	a.wakeAt = 2

	s.SelectNextTask(p)
	assert.Equal(t, kernel.TCB(idle), p.CurrentTask())

	s.AdvanceTick()
	assert.Equal(t, Delayed, a.State())
	s.AdvanceTick()
	assert.Equal(t, Ready, a.State())
	assert.Equal(t, uint64(2), s.TickCount())

	s.SelectNextTask(p)
	assert.Equal(t, kernel.TCB(a), p.CurrentTask())
}

func TestDelayBlocksAndYields(t *testing.T) {
	s, p, cpu := newBound(t)
	a, _ := s.CreateTask("a", 0x3F8000, 0, mustStack(t, cpu, 0x400))
	b, _ := s.CreateTask("b", 0x3F8010, 0, mustStack(t, cpu, 0x480))
	cpu.Load(a.Entry(), func(hal.CPU) { s.Delay(3) })
	cpu.Load(b.Entry(), func(hal.CPU) {})

	cpu.Trap(hal.TickLine)
	require.Equal(t, kernel.TCB(a), p.CurrentTask())
	require.Equal(t, uint64(1), s.TickCount())

	require.NoError(t, cpu.Step())
	assert.Equal(t, kernel.TCB(b), p.CurrentTask())
	assert.Equal(t, Delayed, a.State())
	assert.Equal(t, uint64(1), s.TickCount(), "yield does not tick")
	assert.Equal(t, kernel.InitialCriticalNesting, p.CriticalNesting())
}

func TestConfigureTimerInterrupt(t *testing.T) {
	require.ErrorIs(t, New(nil, hal.TickLine).ConfigureTimerInterrupt(), hal.ErrNotImplemented)

	cpu := hal.NewSim(hal.SimConfig{})
	cpu.Load(0, func(hal.CPU) {})
	s := New(hal.NewSimTimer(cpu, 1), hal.TickLine)
	require.NoError(t, s.ConfigureTimerInterrupt())
	require.NoError(t, cpu.Step())
	assert.Equal(t, hal.TickLine.Mask(), cpu.IFR())
}
