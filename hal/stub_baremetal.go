//go:build tinygo && baremetal

package hal

import "context"

// stubCPU accepts every call and never services a trap.
type stubCPU struct{}

func (stubCPU) DisableInterrupts()     {}
func (stubCPU) EnableInterrupts()      {}
func (stubCPU) InterruptsMasked() bool { return true }

func (stubCPU) IER() uint16     { return 0 }
func (stubCPU) SetIER(_ uint16) {}

func (stubCPU) SetVector(_ Line, _ func()) {}
func (stubCPU) Trap(_ Line)                {}
func (stubCPU) Pend(_ Line)                {}

func (stubCPU) SP() Addr      { return 0 }
func (stubCPU) SetSP(_ Addr)  {}
func (stubCPU) SaveImage()    {}
func (stubCPU) RestoreImage() {}
func (stubCPU) Return()       {}
func (stubCPU) ACC() uint32   { return 0 }

func (stubCPU) WriteWord(_ Addr, _ Word) {}

func (stubCPU) Stack(_ Addr, _ int) (Stack, error) { return Stack{}, ErrNotImplemented }
func (stubCPU) Load(_ Addr, _ Program)             {}

func (stubCPU) Halt(_ error)                {}
func (stubCPU) Run(_ context.Context) error { return ErrNotImplemented }
