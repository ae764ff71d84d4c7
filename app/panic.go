package app

import (
	"fmt"
	"strings"
	"time"

	"ubit/hal"
	"ubit/ubitos/kernel"
	"ubit/ubitos/services/display"
)

var sadFace = display.Parse([display.Height]string{
	".....",
	".#.#.",
	".....",
	".###.",
	"#...#",
})

// panicked runs once, on the task that aborted, after every other task has stopped.
func (s *System) panicked(info kernel.PanicInfo) {
	if l := s.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("ubit panic: task=%d (%s) panic=%v", info.TaskID, info.Task, info.Value))
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	}
	scanFace(s.h.Matrix(), sadFace)
}

// scanFace drives one full scan of img without the timer; the drivers are gone by now.
func scanFace(m hal.Matrix, img display.Image) {
	rows := m.Rows()
	if rows > display.Height {
		rows = display.Height
	}
	for row := 0; row < rows; row++ {
		m.Blank()
		m.SetColumns(img[row])
		m.EnableRow(row)
		time.Sleep(2 * time.Millisecond)
	}
}
