// Package tui renders live pipeline progress in the terminal. The rich view
// is a Bubble Tea model fed by the pipeline store; a plain line-per-event
// display covers non-interactive output.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vintner-cli/vintner/internal/pipeline"
)

// tailLines is how many output lines are shown under the running step.
const tailLines = 6

// eventMsg wraps one store event for the Bubble Tea runtime.
type eventMsg struct {
	event pipeline.Event
}

// streamClosedMsg is sent when the store closes the subscription, meaning
// the run has finished.
type streamClosedMsg struct{}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	jobStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	outputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

// Model is the Bubble Tea model for a live pipeline run.
type Model struct {
	state   pipeline.Pipeline
	events  <-chan pipeline.Event
	spinner spinner.Model

	width  int
	height int
	done   bool

	// tail holds the last output lines of the currently running step.
	tail    []string
	partial string
}

// NewModel creates a model over a snapshot and its event stream. The
// subscription must be made before the run starts so no event is missed.
func NewModel(snapshot pipeline.Pipeline, events <-chan pipeline.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle
	return Model{
		state:   snapshot,
		events:  events,
		spinner: sp,
	}
}

// Done reports whether the event stream has ended.
func (m Model) Done() bool {
	return m.done
}

// State returns the last observed pipeline state.
func (m Model) State() pipeline.Pipeline {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Ctrl+C is handled by the surrounding signal context; the view
		// keeps running until the store closes so the final statuses render.
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(msg.event)
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// apply folds one store event into the local pipeline copy.
func (m *Model) apply(ev pipeline.Event) {
	switch ev.Kind {
	case pipeline.EventPipelineStatus:
		m.state.Status = ev.Status

	case pipeline.EventStepStatus:
		if step := m.step(ev.Job, ev.Step); step != nil {
			step.Status = ev.Status
			if ev.Status == pipeline.StatusInProgress {
				m.tail = nil
				m.partial = ""
			}
		}

	case pipeline.EventStepOutput:
		if step := m.step(ev.Job, ev.Step); step != nil {
			step.Output += ev.Chunk
		}
		m.appendTail(ev.Chunk)
	}
}

func (m *Model) step(job, step int) *pipeline.Step {
	if job < 0 || job >= len(m.state.Jobs) {
		return nil
	}
	j := m.state.Jobs[job]
	if step < 0 || step >= len(j.Steps) {
		return nil
	}
	return j.Steps[step]
}

func (m *Model) appendTail(chunk string) {
	m.partial += chunk
	for {
		idx := strings.IndexByte(m.partial, '\n')
		if idx < 0 {
			break
		}
		m.tail = append(m.tail, m.partial[:idx])
		m.partial = m.partial[idx+1:]
	}
	if len(m.tail) > tailLines {
		m.tail = m.tail[len(m.tail)-tailLines:]
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.state.Name))
	b.WriteString("  ")
	b.WriteString(m.statusLabel(m.state.Status))
	b.WriteString("\n\n")

	for _, job := range m.state.Jobs {
		b.WriteString(jobStyle.Render(job.Name))
		b.WriteByte('\n')
		for _, step := range job.Steps {
			b.WriteString("  ")
			b.WriteString(m.stepLine(step))
			b.WriteByte('\n')
			if step.Status == pipeline.StatusInProgress {
				for _, line := range m.tail {
					b.WriteString("      ")
					b.WriteString(outputStyle.Render(truncate(line, m.width-8)))
					b.WriteByte('\n')
				}
			}
		}
	}

	return b.String()
}

func (m Model) stepLine(step *pipeline.Step) string {
	name := truncate(step.Name, m.width-6)
	switch step.Status {
	case pipeline.StatusInProgress:
		return m.spinner.View() + " " + runningStyle.Render(name)
	case pipeline.StatusSuccess:
		return successStyle.Render("✓ " + name)
	case pipeline.StatusError:
		return errorStyle.Render("✗ " + name)
	case pipeline.StatusCancelled:
		return cancelledStyle.Render("⊘ " + name)
	default:
		return pendingStyle.Render("○ " + name)
	}
}

func (m Model) statusLabel(status pipeline.Status) string {
	switch status {
	case pipeline.StatusInProgress:
		return runningStyle.Render("running")
	case pipeline.StatusSuccess:
		return successStyle.Render("success")
	case pipeline.StatusError:
		return errorStyle.Render("error")
	case pipeline.StatusCancelled:
		return cancelledStyle.Render("cancelled")
	default:
		return pendingStyle.Render("pending")
	}
}

// truncate clips a line to the given display width, two-column characters
// included.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		// Before the first WindowSizeMsg there is no width to honour.
		return s
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth-1 {
			return s[:i] + "…"
		}
		w += rw
	}
	return s
}

// Summary formats a one-line result for printing after the program exits.
func Summary(res *pipeline.RunResult) string {
	var success, failed, cancelled int
	for _, step := range res.Steps {
		switch step.Status {
		case pipeline.StatusSuccess:
			success++
		case pipeline.StatusError:
			failed++
		case pipeline.StatusCancelled:
			cancelled++
		}
	}
	parts := []string{fmt.Sprintf("%d succeeded", success)}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if cancelled > 0 {
		parts = append(parts, fmt.Sprintf("%d cancelled", cancelled))
	}
	return fmt.Sprintf("%s (%s, %.2fs)", res.Status, strings.Join(parts, ", "),
		float64(res.DurationMs)/1000)
}
