package hal

// Word is one 16-bit memory location.
type Word = uint16

// Addr is a word address in data or program space.
type Addr uint32

// Register image layout. Indices 0 through HardwareFrameWords-1 are stacked by
// the CPU on interrupt entry and popped by IRET; the rest are pushed by the
// tick handler.
const (
	IdxST0 = iota
	IdxT
	IdxAL
	IdxAH
	IdxPL
	IdxPH
	IdxAR0
	IdxAR1
	IdxST1
	IdxDP
	IdxIER
	IdxDBGSTAT
	IdxPCL
	IdxPCH
	IdxAlign

	// IdxAux is the first auxiliary register word (low half first).
	IdxAux
)

const (
	// HardwareFrameWords is the size of the automatic interrupt frame.
	HardwareFrameWords = IdxAlign

	// FrameWords is the full register image size, including the trailing
	// stack-pointer alignment slot.
	FrameWords = 16 + 2*AuxRegisters

	// IERDepth is the distance from the top of a saved frame down to its IER word.
	IERDepth = FrameWords - IdxIER

	// AlignFill marks the alignment filler word.
	AlignFill Word = 0xAAAA
)

// ST1 bits.
const (
	ST1INTM Word = 1 << 0
)

// RegisterImage is the serialized register state of one task.
type RegisterImage [FrameWords]Word

// PC returns the program counter held in the image.
func (img *RegisterImage) PC() Addr {
	return Addr(img[IdxPCH])<<16 | Addr(img[IdxPCL])
}

// ACC returns the accumulator held in the image.
func (img *RegisterImage) ACC() uint32 {
	return uint32(img[IdxAH])<<16 | uint32(img[IdxAL])
}

// Aux returns auxiliary register i.
func (img *RegisterImage) Aux(i int) uint32 {
	j := IdxAux + 2*i
	return uint32(img[j+1])<<16 | uint32(img[j])
}

// SetAux stores auxiliary register i.
func (img *RegisterImage) SetAux(i int, v uint32) {
	j := IdxAux + 2*i
	img[j] = Word(v)
	img[j+1] = Word(v >> 16)
}

// RegisterName names the word at index i of an image.
func RegisterName(i int) string {
	switch {
	case i < IdxAux:
		return baseNames[i]
	case i < IdxAux+2*AuxRegisters:
		half := "L"
		if (i-IdxAux)%2 == 1 {
			half = "H"
		}
		return auxNames[(i-IdxAux)/2] + "." + half
	case i < FrameWords:
		return "RSVD"
	default:
		return "?"
	}
}

var baseNames = [IdxAux]string{
	"ST0", "T", "AL", "AH", "PL", "PH", "AR0", "AR1",
	"ST1", "DP", "IER", "DBGSTAT", "PCL", "PCH", "ALIGN",
}

// Stack is a task's private stack region. The stack grows towards higher addresses.
type Stack struct {
	Base  Addr
	Words []Word
}
