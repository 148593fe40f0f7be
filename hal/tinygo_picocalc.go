//go:build tinygo && baremetal && picocalc

package hal

import (
	"errors"
	"machine"
	"time"
)

type picoCalcHAL struct {
	logger Logger
	t      *tinyGoTime
	cpu    stubCPU
	timer  Timer
}

// New returns the PicoCalc HAL: the bare-metal HAL with log lines also drawn
// on the 320x320 LCD. Without the LCD it logs to UART only.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	var logger Logger = &uartLogger{uart: uart}
	if lcd, err := newILI9488(); err == nil {
		logger = NewScreenLogger(lcd, logger)
	} else {
		logger.WriteLineString("lcd: " + err.Error())
	}

	t := newTinyGoTime()
	return &picoCalcHAL{
		logger: logger,
		t:      t,
		timer:  NewTickTimer(t, stubCPU{}),
	}
}

func (h *picoCalcHAL) Logger() Logger { return h.logger }
func (h *picoCalcHAL) Time() Time     { return h.t }
func (h *picoCalcHAL) Timer() Timer   { return h.timer }
func (h *picoCalcHAL) CPU() CPU       { return h.cpu }

// ili9488 drives the PicoCalc LCD over SPI1 in 16bpp mode.
type ili9488 struct {
	spi *machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin
}

func newILI9488() (*ili9488, error) {
	if machine.SPI1 == nil {
		return nil, errors.New("SPI1 unavailable")
	}
	err := machine.SPI1.Configure(machine.SPIConfig{
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		SDI:       machine.GP12,
		Frequency: 40_000_000,
	})
	if err != nil {
		return nil, err
	}

	d := &ili9488{spi: machine.SPI1, cs: machine.GP13, dc: machine.GP14, rst: machine.GP15}
	for _, p := range []machine.Pin{d.cs, d.dc, d.rst} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.High()
	}

	d.rst.Low()
	time.Sleep(64 * time.Millisecond)
	d.rst.High()
	time.Sleep(140 * time.Millisecond)

	d.cmd(0xC0, 0x17, 0x15)             // PWCTRL1
	d.cmd(0xC1, 0x41)                   // PWCTRL2
	d.cmd(0xC5, 0x00, 0x12, 0x80, 0x40) // VMCTRL
	d.cmd(0x3A, 0x55)                   // COLMOD 16bpp
	d.cmd(0xB1, 0xA0, 0x11)             // FRMCTRL1
	d.cmd(0xB6, 0x02, 0x22, 0x27)       // DISCTRL
	d.cmd(0x21)                         // INVON
	d.cmd(0x36, 0x40|0x04|0x08)         // MADCTL MX|MH|BGR
	d.cmd(0x11)                         // SLPOUT
	time.Sleep(120 * time.Millisecond)
	d.cmd(0x29) // DISPON
	return d, nil
}

func (d *ili9488) Size() (w, h int16) { return 320, 320 }

func (d *ili9488) Blit(x, y, w, h int16, rgb565 []byte) error {
	if w <= 0 || h <= 0 || len(rgb565) < int(w)*int(h)*2 {
		return errors.New("lcd: short blit buffer")
	}
	x1, y1 := uint16(x+w-1), uint16(y+h-1)
	d.cmd(0x2A, byte(uint16(x)>>8), byte(x), byte(x1>>8), byte(x1))
	d.cmd(0x2B, byte(uint16(y)>>8), byte(y), byte(y1>>8), byte(y1))
	d.cmd(0x2C)

	d.cs.Low()
	d.dc.High()
	err := d.spi.Tx(rgb565[:int(w)*int(h)*2], nil)
	d.cs.High()
	return err
}

func (d *ili9488) cmd(c byte, data ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{c}, nil)
	d.dc.High()
	if len(data) > 0 {
		d.spi.Tx(data, nil)
	}
	d.cs.High()
}
