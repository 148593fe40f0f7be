package hal

import (
	"context"
	"fmt"
	"sync/atomic"
)

// DefaultRAMWords is the simulated data RAM size.
const DefaultRAMWords = 0x8000

// SimConfig controls a simulated CPU.
type SimConfig struct {
	// RAMWords is the size of data RAM in words (DefaultRAMWords when zero).
	RAMWords int
	// StepLimit halts Run after that many executed program steps (0 = no limit).
	StepLimit uint64
	// BootSP is the stack pointer the CPU comes out of reset with.
	BootSP Addr
}

// Sim is a cycle-stepped model of the CPU's register file, data RAM and
// interrupt logic. One step either services one pending interrupt or runs
// the program at PC once.
type Sim struct {
	ram  []Word
	live RegisterImage
	sp   Addr

	ifr     atomic.Uint32
	vectors [17]func()

	programs map[Addr]Program

	inISR    bool
	entryIER Word
	entryST1 Word

	executed uint64
	limit    uint64

	timerLine   Line
	timerPeriod uint64

	err error
}

// NewSim creates a simulated CPU in its reset state: INTM set, IER clear.
func NewSim(cfg SimConfig) *Sim {
	if cfg.RAMWords <= 0 {
		cfg.RAMWords = DefaultRAMWords
	}
	c := &Sim{
		ram:      make([]Word, cfg.RAMWords),
		sp:       cfg.BootSP,
		programs: make(map[Addr]Program),
		limit:    cfg.StepLimit,
	}
	c.live[IdxST1] = ST1INTM
	return c
}

func (c *Sim) DisableInterrupts()     { c.live[IdxST1] |= ST1INTM }
func (c *Sim) EnableInterrupts()      { c.live[IdxST1] &^= ST1INTM }
func (c *Sim) InterruptsMasked() bool { return c.live[IdxST1]&ST1INTM != 0 }

func (c *Sim) IER() uint16       { return c.live[IdxIER] }
func (c *Sim) SetIER(ier uint16) { c.live[IdxIER] = ier }

// IFR returns the pending interrupt flags.
func (c *Sim) IFR() uint16 { return uint16(c.ifr.Load()) }

func (c *Sim) SetVector(line Line, isr func()) {
	if int(line) < len(c.vectors) {
		c.vectors[line] = isr
	}
}

// Trap services line immediately. Without a vector, or on a line the CPU does
// not have, the trap is lost.
func (c *Sim) Trap(line Line) {
	c.accept(line)
}

// Pend is safe for concurrent use.
func (c *Sim) Pend(line Line) {
	m := uint32(line.Mask())
	for {
		old := c.ifr.Load()
		if c.ifr.CompareAndSwap(old, old|m) {
			return
		}
	}
}

func (c *Sim) clearPending(line Line) {
	m := uint32(line.Mask())
	for {
		old := c.ifr.Load()
		if c.ifr.CompareAndSwap(old, old&^m) {
			return
		}
	}
}

// ArmTimer pends line every period executed steps.
func (c *Sim) ArmTimer(line Line, period uint64) {
	c.timerLine = line
	c.timerPeriod = period
}

func (c *Sim) SP() Addr      { return c.sp }
func (c *Sim) SetSP(sp Addr) { c.sp = sp }

func (c *Sim) PC() Addr     { return c.live.PC() }
func (c *Sim) ACC() uint32  { return c.live.ACC() }
func (c *Sim) InISR() bool  { return c.inISR }
func (c *Sim) Err() error   { return c.err }
func (c *Sim) Steps() uint64 { return c.executed }

// Registers returns a copy of the live register file.
func (c *Sim) Registers() RegisterImage { return c.live }

// LoadRegisters replaces the live register file.
func (c *Sim) LoadRegisters(img RegisterImage) { c.live = img }

// ReadWord loads one word of data memory.
func (c *Sim) ReadWord(a Addr) Word {
	if int(a) >= len(c.ram) {
		c.fail(fmt.Errorf("read %#06x: outside ram", a))
		return 0
	}
	return c.ram[a]
}

func (c *Sim) WriteWord(a Addr, w Word) {
	if int(a) >= len(c.ram) {
		c.fail(fmt.Errorf("write %#06x: outside ram", a))
		return
	}
	c.ram[a] = w
}

func (c *Sim) Stack(base Addr, n int) (Stack, error) {
	if n < 0 || int(base)+n > len(c.ram) {
		return Stack{}, fmt.Errorf("stack %#06x+%d: outside ram (%d words)", base, n, len(c.ram))
	}
	return Stack{Base: base, Words: c.ram[base : int(base)+n : int(base)+n]}, nil
}

func (c *Sim) Load(addr Addr, p Program) {
	c.programs[addr] = p
}

// SaveImage pushes the register image the interrupt interrupted.
func (c *Sim) SaveImage() {
	img := c.live
	if c.inISR {
		img[IdxIER] = c.entryIER
		img[IdxST1] = c.entryST1
	}
	base := c.sp
	if int(base)+FrameWords > len(c.ram) {
		c.fail(fmt.Errorf("save at %#06x: stack overflow", base))
		return
	}
	copy(c.ram[base:], img[:])
	c.sp = base + FrameWords
}

// RestoreImage loads the software-saved words of the frame below SP. SP is
// left at the top of the frame so the hardware part can still be patched.
func (c *Sim) RestoreImage() {
	base, ok := c.frameBase()
	if !ok {
		return
	}
	copy(c.live[HardwareFrameWords:], c.ram[base+HardwareFrameWords:base+FrameWords])
}

// Return pops the hardware frame below SP and resumes at its PC.
func (c *Sim) Return() {
	base, ok := c.frameBase()
	if !ok {
		return
	}
	copy(c.live[:HardwareFrameWords], c.ram[base:base+HardwareFrameWords])
	c.sp = base
	c.inISR = false
}

func (c *Sim) frameBase() (Addr, bool) {
	if c.sp < FrameWords || int(c.sp) > len(c.ram) {
		c.fail(fmt.Errorf("restore at %#06x: stack underflow", c.sp))
		return 0, false
	}
	return c.sp - FrameWords, true
}

func (c *Sim) accept(line Line) {
	c.clearPending(line)
	if int(line) >= len(c.vectors) {
		return
	}
	isr := c.vectors[line]
	if isr == nil {
		return
	}
	c.entryIER = c.live[IdxIER]
	c.entryST1 = c.live[IdxST1]
	c.live[IdxST1] |= ST1INTM
	c.live[IdxIER] &^= line.Mask()
	c.inISR = true
	isr()
	if c.inISR {
		// No IRET: unwind to the interrupted state.
		c.live[IdxIER] = c.entryIER
		c.live[IdxST1] = c.entryST1
		c.inISR = false
	}
}

func (c *Sim) deliverable() (Line, bool) {
	if c.InterruptsMasked() {
		return 0, false
	}
	ready := c.IFR() & c.IER()
	if ready == 0 {
		return 0, false
	}
	for l := Line(1); l <= 16; l++ {
		if ready&l.Mask() != 0 {
			return l, true
		}
	}
	return 0, false
}

// Step services one pending interrupt, or runs the program at PC once.
func (c *Sim) Step() error {
	if c.err != nil {
		return c.err
	}
	if l, ok := c.deliverable(); ok {
		c.accept(l)
		return c.err
	}
	pc := c.PC()
	p := c.programs[pc]
	if p == nil {
		return fmt.Errorf("%w %#06x", ErrNoProgram, pc)
	}
	p(c)
	c.executed++
	if c.timerPeriod > 0 && c.executed%c.timerPeriod == 0 {
		c.Pend(c.timerLine)
	}
	return c.err
}

func (c *Sim) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.limit > 0 && c.executed >= c.limit {
			return ErrHalted
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
}

func (c *Sim) Halt(err error) { c.fail(err) }

func (c *Sim) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

type simTimer struct {
	cpu    *Sim
	period uint64
}

// NewSimTimer returns a Timer that pends its line every period CPU steps.
func NewSimTimer(cpu *Sim, period uint64) Timer {
	return &simTimer{cpu: cpu, period: period}
}

func (t *simTimer) Arm(line Line) error {
	if t.period == 0 {
		return fmt.Errorf("arm %d: zero timer period", line)
	}
	t.cpu.ArmTimer(line, t.period)
	return nil
}
