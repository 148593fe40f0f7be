// Package sched is a round-robin scheduling policy for the kernel port: it
// owns task records, the tick count and delayed tasks.
package sched

import (
	"fmt"

	"c28rtos/hal"
	"c28rtos/kernel"
)

const maxTasks = 16

// IdleName names the idle task.
const IdleName = "idle"

// TaskID indexes a task within its scheduler.
type TaskID uint8

// State is a task's scheduling state.
type State uint8

const (
	Ready State = iota
	Delayed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Delayed:
		return "delayed"
	default:
		return "unknown"
	}
}

// Task is a task control record.
type Task struct {
	id    TaskID
	name  string
	entry hal.Addr
	param uint32
	stack hal.Stack
	top   hal.Addr

	state  State
	wakeAt uint64
	idle   bool

	switchIns uint64
}

func (t *Task) ID() TaskID      { return t.id }
func (t *Task) Name() string    { return t.name }
func (t *Task) Entry() hal.Addr { return t.entry }
func (t *Task) Param() uint32   { return t.param }
func (t *Task) State() State    { return t.state }
func (t *Task) Idle() bool      { return t.idle }

// SwitchIns counts how often the task was selected to run.
func (t *Task) SwitchIns() uint64 { return t.switchIns }

// Stack returns the task's stack region.
func (t *Task) Stack() hal.Stack { return t.stack }

func (t *Task) TopOfStack() hal.Addr      { return t.top }
func (t *Task) SetTopOfStack(sp hal.Addr) { t.top = sp }

// Scheduler selects tasks round robin and keeps the tick count.
type Scheduler struct {
	port *kernel.Port

	tasks     [maxTasks]*Task
	taskCount TaskID
	idle      *Task

	rr   TaskID
	tick uint64

	timer hal.Timer
	line  hal.Line
}

// New creates an empty scheduler. timer arms the tick line on startup.
func New(timer hal.Timer, line hal.Line) *Scheduler {
	return &Scheduler{timer: timer, line: line}
}

// Bind attaches the port the scheduler's tasks run on.
func (s *Scheduler) Bind(p *kernel.Port) {
	s.port = p
}

// CreateTask builds the task's initial frame and makes it ready. The most
// recently created task becomes the port's current task.
func (s *Scheduler) CreateTask(name string, entry hal.Addr, param uint32, stack hal.Stack) (*Task, error) {
	return s.create(name, entry, param, stack, false)
}

// CreateIdleTask creates the task that runs when no other task is ready.
func (s *Scheduler) CreateIdleTask(entry hal.Addr, stack hal.Stack) (*Task, error) {
	if s.idle != nil {
		return nil, fmt.Errorf("create idle task: already created")
	}
	return s.create(IdleName, entry, 0, stack, true)
}

func (s *Scheduler) create(name string, entry hal.Addr, param uint32, stack hal.Stack, idle bool) (*Task, error) {
	if s.port == nil {
		return nil, fmt.Errorf("create task %q: scheduler not bound to a port", name)
	}
	if s.taskCount >= maxTasks {
		return nil, fmt.Errorf("create task %q: task table full (%d)", name, maxTasks)
	}

	s.port.EnterCritical()
	defer func() { _ = s.port.ExitCritical() }()

	top, err := s.port.InitializeTaskStack(stack, entry, param)
	if err != nil {
		return nil, fmt.Errorf("create task %q: %w", name, err)
	}

	t := &Task{
		id:    s.taskCount,
		name:  name,
		entry: entry,
		param: param,
		stack: stack,
		top:   top,
		idle:  idle,
	}
	s.tasks[t.id] = t
	s.taskCount++
	if idle {
		s.idle = t
	}
	if cur := s.port.CurrentTask(); cur == nil || !idle {
		s.port.SetCurrentTask(t)
	}
	return t, nil
}

// Tasks returns the created tasks in creation order.
func (s *Scheduler) Tasks() []*Task {
	out := make([]*Task, 0, s.taskCount)
	for i := TaskID(0); i < s.taskCount; i++ {
		out = append(out, s.tasks[i])
	}
	return out
}

// TickCount returns the number of ticks since startup.
func (s *Scheduler) TickCount() uint64 { return s.tick }

// AdvanceTick increments the tick count and readies tasks whose delay expired.
func (s *Scheduler) AdvanceTick() {
	s.tick++
	for i := TaskID(0); i < s.taskCount; i++ {
		t := s.tasks[i]
		if t.state == Delayed && t.wakeAt <= s.tick {
			t.state = Ready
		}
	}
}

// SelectNextTask picks the next ready task after the last selected one, or
// the idle task when none is ready.
func (s *Scheduler) SelectNextTask(sw kernel.Switcher) {
	if s.taskCount == 0 {
		return
	}

	for i := TaskID(0); i < s.taskCount; i++ {
		id := (s.rr + i) % s.taskCount
		t := s.tasks[id]
		if t.idle || t.state != Ready {
			continue
		}
		s.rr = (id + 1) % s.taskCount
		s.switchIn(sw, t)
		return
	}

	if s.idle != nil {
		s.switchIn(sw, s.idle)
	}
}

func (s *Scheduler) switchIn(sw kernel.Switcher, t *Task) {
	t.switchIns++
	sw.SetCurrentTask(t)
}

// ConfigureTimerInterrupt arms the tick line.
func (s *Scheduler) ConfigureTimerInterrupt() error {
	if s.timer == nil {
		return fmt.Errorf("tick line %d: %w", s.line, hal.ErrNotImplemented)
	}
	return s.timer.Arm(s.line)
}

// Current returns the running task.
func (s *Scheduler) Current() *Task {
	if s.port == nil {
		return nil
	}
	t, _ := s.port.CurrentTask().(*Task)
	return t
}

// Delay blocks the running task for ticks ticks and yields.
//
// Called from task code; the task's program must return right after it.
func (s *Scheduler) Delay(ticks uint64) {
	if ticks == 0 {
		s.port.Yield()
		return
	}
	t := s.Current()
	if t == nil {
		return
	}
	s.port.EnterCritical()
	t.state = Delayed
	t.wakeAt = s.tick + ticks
	_ = s.port.ExitCritical()
	s.port.Yield()
}
