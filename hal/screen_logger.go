package hal

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Panel is an RGB565 display that takes rectangular blits. Pixels are
// big-endian, as the controller expects them on the wire.
type Panel interface {
	Size() (w, h int16)
	Blit(x, y, w, h int16, rgb565 []byte) error
}

const (
	screenLineHeight = 8
	screenBaseline   = 6
)

var (
	screenFG = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	screenBG = color.RGBA{A: 0xFF}
)

// ScreenLogger draws log lines top to bottom on a panel, wrapping to the top
// when the panel is full. Lines are also passed to next when it is set.
type ScreenLogger struct {
	next  Logger
	strip lineStrip
	row   int16
	rows  int16
}

// NewScreenLogger returns a logger that renders onto p and tees to next.
func NewScreenLogger(p Panel, next Logger) *ScreenLogger {
	w, h := p.Size()
	rows := h / screenLineHeight
	if rows < 1 {
		rows = 1
	}
	return &ScreenLogger{
		next: next,
		strip: lineStrip{
			panel: p,
			w:     w,
			buf:   make([]byte, int(w)*screenLineHeight*2),
		},
		rows: rows,
	}
}

func (l *ScreenLogger) WriteLineString(s string) {
	if l.next != nil {
		l.next.WriteLineString(s)
	}
	l.draw(s)
}

func (l *ScreenLogger) WriteLineBytes(b []byte) {
	if l.next != nil {
		l.next.WriteLineBytes(b)
	}
	l.draw(string(b))
}

func (l *ScreenLogger) draw(s string) {
	l.strip.fill(screenBG)
	tinyfont.WriteLine(&l.strip, &tinyfont.TomThumb, 0, screenBaseline, s, screenFG)
	l.strip.y = l.row * screenLineHeight
	_ = l.strip.Display()
	l.row = (l.row + 1) % l.rows
}

// lineStrip is one text row of pixels, blitted to the panel on Display.
type lineStrip struct {
	panel Panel
	w     int16
	y     int16
	buf   []byte
}

var _ drivers.Displayer = (*lineStrip)(nil)

func (s *lineStrip) Size() (x, y int16) { return s.w, screenLineHeight }

func (s *lineStrip) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= s.w || y < 0 || y >= screenLineHeight {
		return
	}
	px := rgb565(c)
	off := (int(y)*int(s.w) + int(x)) * 2
	s.buf[off] = byte(px >> 8)
	s.buf[off+1] = byte(px)
}

func (s *lineStrip) Display() error {
	return s.panel.Blit(0, s.y, s.w, screenLineHeight, s.buf)
}

func (s *lineStrip) fill(c color.RGBA) {
	px := rgb565(c)
	for i := 0; i+1 < len(s.buf); i += 2 {
		s.buf[i] = byte(px >> 8)
		s.buf[i+1] = byte(px)
	}
}

func rgb565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}
