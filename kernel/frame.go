package kernel

import (
	"fmt"

	"c28rtos/hal"
)

// Initial status register values: ST0 with PSM=0 (no product shift), ST1 with
// INTM clear so the first IRET into a task enables interrupts.
const (
	initialST0 hal.Word = 0x0080
	initialST1 hal.Word = 0x8A08
)

// addrHighMask keeps the high half of a 32-bit value inside the 24-bit
// ACC/PC field pair.
const addrHighMask = 0x00FF

// InitialImage returns the register image a new task starts from: the frame
// the tick handler would have saved had the task been interrupted just
// before its first instruction.
func InitialImage(entry hal.Addr, param uint32) hal.RegisterImage {
	var img hal.RegisterImage

	img[hal.IdxST0] = initialST0
	img[hal.IdxT] = 0x0000
	img[hal.IdxAL] = hal.Word(param & 0xFFFF)
	img[hal.IdxAH] = hal.Word((param >> 16) & addrHighMask)
	img[hal.IdxPL] = 0xFFFF
	img[hal.IdxPH] = 0xFFFF
	img[hal.IdxAR0] = 0xFFFF
	img[hal.IdxAR1] = 0xFFFF
	img[hal.IdxST1] = initialST1
	img[hal.IdxDP] = 0x0000
	img[hal.IdxIER] = 0x0000
	img[hal.IdxDBGSTAT] = 0x0000
	img[hal.IdxPCL] = hal.Word(uint32(entry) & 0xFFFF)
	img[hal.IdxPCH] = hal.Word((uint32(entry) >> 16) & addrHighMask)
	img[hal.IdxAlign] = hal.AlignFill

	// Auxiliary registers and the trailing alignment slot stay zero.
	return img
}

// InitializeTaskStack writes the initial register image at the bottom of
// stack and returns the top of stack to store in the task's TCB.
func (p *Port) InitializeTaskStack(stack hal.Stack, entry hal.Addr, param uint32) (hal.Addr, error) {
	return InitializeTaskStack(stack, entry, param)
}

// InitializeTaskStack is the CPU-independent form of Port.InitializeTaskStack.
func InitializeTaskStack(stack hal.Stack, entry hal.Addr, param uint32) (hal.Addr, error) {
	if len(stack.Words) < hal.FrameWords {
		return 0, fmt.Errorf("stack at %#06x: %d words, need %d: %w",
			stack.Base, len(stack.Words), hal.FrameWords, ErrStackTooSmall)
	}
	img := InitialImage(entry, param)
	copy(stack.Words, img[:])
	return stack.Base + hal.FrameWords, nil
}
