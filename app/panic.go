package app

import (
	"fmt"
	"strings"

	"c28rtos/kernel"
	"c28rtos/sched"
)

func (s *System) installFaultHandler() {
	s.port.SetFaultHandler(func(info kernel.FaultInfo) {
		if s.log == nil {
			return
		}
		task := "-"
		if t, ok := info.Task.(*sched.Task); ok {
			task = t.Name()
		}
		s.log.WriteLineString(fmt.Sprintf("port fault: task=%s err=%v", task, info.Err))
		if len(info.Stack) == 0 {
			return
		}
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line == "" {
				continue
			}
			s.log.WriteLineString(line)
		}
	})
}
