package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vintner-cli/vintner/internal/pipeline"
)

// DisplayMode controls how run progress is rendered.
type DisplayMode int

const (
	// DisplayTUI uses the interactive Bubble Tea view.
	DisplayTUI DisplayMode = iota
	// DisplayPlain uses simple one-line-per-event output.
	DisplayPlain
)

// DetectMode picks the display mode. An explicit "tui" or "plain" setting
// wins; "auto" uses the interactive view only when stdout is a TTY, TERM is
// not "dumb", and NO_COLOR is unset.
func DetectMode(progress string) DisplayMode {
	switch progress {
	case "tui":
		return DisplayTUI
	case "plain":
		return DisplayPlain
	}
	if os.Getenv("TERM") == "dumb" {
		return DisplayPlain
	}
	// Respect NO_COLOR (https://no-color.org/).
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return DisplayPlain
	}
	fi, err := os.Stdout.Stat()
	if err == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
		return DisplayTUI
	}
	return DisplayPlain
}

// Display renders pipeline progress as plain lines, one per event, suitable
// for logs and pipes.
type Display struct {
	writer  io.Writer
	verbose bool
}

// NewDisplay creates a plain display. When verbose is set, step output is
// echoed through as well.
func NewDisplay(writer io.Writer, verbose bool) *Display {
	return &Display{writer: writer, verbose: verbose}
}

// Follow consumes events until the stream closes, labelling each against
// the given snapshot. It blocks and is meant to run while the pipeline
// executes.
func (d *Display) Follow(snapshot pipeline.Pipeline, events <-chan pipeline.Event) {
	for ev := range events {
		switch ev.Kind {
		case pipeline.EventPipelineStatus:
			fmt.Fprintf(d.writer, "[pipeline] %s %s\n", snapshot.Name, ev.Status)

		case pipeline.EventStepStatus:
			fmt.Fprintf(d.writer, "[step] %s %s\n", d.label(snapshot, ev), ev.Status)

		case pipeline.EventStepOutput:
			if !d.verbose {
				continue
			}
			for _, line := range strings.Split(strings.TrimRight(ev.Chunk, "\n"), "\n") {
				fmt.Fprintf(d.writer, "  %s\n", line)
			}
		}
	}
}

func (d *Display) label(snapshot pipeline.Pipeline, ev pipeline.Event) string {
	if ev.Job < 0 || ev.Job >= len(snapshot.Jobs) {
		return "?"
	}
	job := snapshot.Jobs[ev.Job]
	if ev.Step < 0 || ev.Step >= len(job.Steps) {
		return job.Name
	}
	return job.Name + "/" + job.Steps[ev.Step].Name
}

// StepFailure prints the retained output tail of a failed step.
func (d *Display) StepFailure(res *pipeline.StepResult) {
	output := strings.TrimSpace(res.Tail)
	if output == "" {
		return
	}
	for _, line := range strings.Split(output, "\n") {
		fmt.Fprintf(d.writer, "[output] %s\n", line)
	}
}

// RunEnd prints the final run summary line.
func (d *Display) RunEnd(res *pipeline.RunResult) {
	fmt.Fprintf(d.writer, "[done] %s\n", Summary(res))
}
