package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// RunProgram runs the live view until the event stream closes and returns
// the final model. The color profile is detected from stdout so package
// styles render correctly even when lipgloss would default to no color;
// color=false forces a monochrome profile regardless of the terminal.
func RunProgram(ctx context.Context, model Model, color bool) (Model, error) {
	if color {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).ColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	p := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return model, fmt.Errorf("progress view: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return model, fmt.Errorf("progress view: unexpected model type")
	}
	return m, nil
}
