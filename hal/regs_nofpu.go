//go:build !fpu32

package hal

// AuxRegisters is the number of 32-bit registers saved beyond the hardware frame.
const AuxRegisters = 6

// ExtendedRegisterSet reports whether the FPU32 register group is saved.
const ExtendedRegisterSet = false

var auxNames = [AuxRegisters]string{"XAR2", "XAR3", "XAR4", "XAR5", "XAR6", "XAR7"}
