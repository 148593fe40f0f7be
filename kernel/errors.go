package kernel

import "errors"

var (
	// ErrStartupFailure means StartScheduler got control back: the tick
	// vector did not run.
	ErrStartupFailure = errors.New("scheduler start: tick handler not entered")

	// ErrCriticalUnderflow means ExitCritical ran without a matching EnterCritical.
	ErrCriticalUnderflow = errors.New("critical section underflow")

	// ErrNoCurrentTask means the selection hook left no task to resume.
	ErrNoCurrentTask = errors.New("tick handler: no current task selected")

	// ErrStackTooSmall means a task stack cannot hold the initial register image.
	ErrStackTooSmall = errors.New("task stack too small for register image")
)
