package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"c28rtos/app"
	"c28rtos/hal"
	"c28rtos/kernel"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	yieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	firstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func style(s lipgloss.Style, color bool, text string) string {
	if !color {
		return text
	}
	return s.Render(text)
}

func renderTrace(records []app.Record, color bool) string {
	var b strings.Builder
	b.WriteString(style(headerStyle, color, fmt.Sprintf("%-4s %-5s    %-8s %s", "SEQ", "CAUSE", "TASK", "TICK")))
	for _, r := range records {
		b.WriteByte('\n')
		line := r.String()
		switch r.Cause {
		case kernel.CauseYield:
			line = style(yieldStyle, color, line)
		case kernel.CauseFirst:
			line = style(firstStyle, color, line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func renderSummary(sys *app.System, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks=%d entries=%d corrupt=%d", sys.Scheduler().TickCount(), sys.Port().Entries(), sys.Corrupt())
	for _, t := range sys.Scheduler().Tasks() {
		fmt.Fprintf(&b, "\n%-8s %-7s runs=%-5d switch-ins=%d", t.Name(), t.State(), sys.Runs(t.Name()), t.SwitchIns())
	}
	if !color {
		return b.String()
	}
	return boxStyle.Render(b.String())
}

func renderFrame(img *hal.RegisterImage, color bool) string {
	var b strings.Builder
	b.WriteString(style(headerStyle, color, fmt.Sprintf("%-4s %-8s %s", "IDX", "REG", "VALUE")))
	for i := range img {
		fmt.Fprintf(&b, "\n%4d %-8s 0x%04x", i, hal.RegisterName(i), img[i])
	}
	fmt.Fprintf(&b, "\n%d words, %d aux registers", hal.FrameWords, hal.AuxRegisters)
	return b.String()
}
