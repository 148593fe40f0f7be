//go:build fpu32

package hal

// AuxRegisters is the number of 32-bit registers saved beyond the hardware frame.
const AuxRegisters = 12

// ExtendedRegisterSet reports whether the FPU32 register group is saved.
const ExtendedRegisterSet = true

var auxNames = [AuxRegisters]string{
	"XAR2", "XAR3", "XAR4", "XAR5", "XAR6", "XAR7",
	"R0H", "R1H", "R2H", "R3H", "STF", "RB",
}
