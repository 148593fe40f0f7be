//go:build tinygo && baremetal && !picocalc

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	t      *tinyGoTime
	cpu    stubCPU
	timer  Timer
}

// New returns a bare-metal HAL.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. The register-level CPU is
// not reachable from Go on this target, so CPU() is a stub and the scheduler
// reports a startup failure.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	t := newTinyGoTime()
	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		t:      t,
		timer:  NewTickTimer(t, stubCPU{}),
	}
}

func (h *tinyGoHAL) Logger() Logger { return h.logger }
func (h *tinyGoHAL) Time() Time     { return h.t }
func (h *tinyGoHAL) Timer() Timer   { return h.timer }
func (h *tinyGoHAL) CPU() CPU       { return h.cpu }
