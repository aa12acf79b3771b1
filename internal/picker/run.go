package picker

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ErrCancelled is returned by Run when the user quits without choosing.
var ErrCancelled = errors.New("picker cancelled")

// Run shows the picker on the controlling terminal and returns the
// chosen outfit. It draws on /dev/tty so stdout stays free for output.
func Run(m Model) (Choice, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return Choice{}, fmt.Errorf("cannot open terminal: %w", err)
	}
	defer tty.Close()

	// Styles were built against stdout; detect from the real terminal.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
	).Run()
	if err != nil {
		return Choice{}, fmt.Errorf("picker failed: %w", err)
	}

	fm, ok := final.(Model)
	if !ok {
		return Choice{}, errors.New("picker returned an unexpected model")
	}
	choice, chosen := fm.Result()
	if !chosen {
		return Choice{}, ErrCancelled
	}
	return choice, nil
}
