package hal

import (
	"context"
	"errors"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrHalted is returned by CPU.Run when a host simulation reaches its step limit.
	ErrHalted = errors.New("cpu halted")

	// ErrNoProgram means the PC points at an address with no loaded code.
	ErrNoProgram = errors.New("no program at pc")
)

// Time provides a base tick stream.
//
// The tick duration is platform-defined.
type Time interface {
	Ticks() <-chan uint64
}

// Line is a CPU interrupt line (INT1..INT14).
type Line uint8

// TickLine is the line used for the scheduler tick (CPU Timer 2).
const TickLine Line = 14

// Mask returns the IER/IFR bit for the line.
func (l Line) Mask() uint16 {
	if l == 0 || l > 16 {
		return 0
	}
	return 1 << (l - 1)
}

// Timer arms the periodic interrupt source for a line.
type Timer interface {
	Arm(line Line) error
}

// Program is code placed at a program address. It runs once per CPU step
// while the PC points at its address.
type Program func(cpu CPU)

// CPU is the narrow register-level contract the port layer is built on.
//
// Only Pend may be called from a goroutine other than the one running the CPU.
type CPU interface {
	// DisableInterrupts sets INTM (DINT).
	DisableInterrupts()
	// EnableInterrupts clears INTM (EINT).
	EnableInterrupts()
	InterruptsMasked() bool

	IER() uint16
	SetIER(ier uint16)

	// SetVector installs the service routine for a line.
	SetVector(line Line, isr func())
	// Trap raises a line synchronously regardless of INTM and IER (INTR).
	Trap(line Line)
	// Pend flags a line in IFR; it is serviced when INTM and IER allow.
	Pend(line Line)

	SP() Addr
	SetSP(sp Addr)

	// SaveImage pushes the interrupted register image at SP.
	SaveImage()
	// RestoreImage loads the software-saved part of the image below SP.
	RestoreImage()
	// WriteWord stores one word of data memory.
	WriteWord(a Addr, w Word)
	// Return pops the hardware part of the image below SP and resumes at its PC (IRET).
	Return()

	// ACC returns the 32-bit accumulator.
	ACC() uint32

	// Stack returns a view of n words of RAM starting at base.
	Stack(base Addr, n int) (Stack, error)
	// Load places a program at addr.
	Load(addr Addr, p Program)

	// Halt stops the CPU; Run returns err. Only the first Halt counts.
	Halt(err error)
	// Run executes until the context is done or the CPU halts.
	Run(ctx context.Context) error
}

// HAL provides the only contact point between the port and the outside world.
type HAL interface {
	Logger() Logger
	Time() Time
	Timer() Timer
	CPU() CPU
}
