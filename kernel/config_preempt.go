//go:build !nopreempt

package kernel

// PreemptionEnabled is the default handler mode.
const PreemptionEnabled = true
