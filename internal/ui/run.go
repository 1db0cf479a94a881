package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"flowscope/internal/driver"
)

// RunProgress renders the analysis of the files of dir until events is
// closed. Events left after the program exits early are drained so producers
// never block.
func RunProgress(out io.Writer, dir string, files []string, events <-chan driver.Event) error {
	program := tea.NewProgram(NewProgressModel(dir, files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, err := program.Run()
	for range events {
	}
	return err
}
