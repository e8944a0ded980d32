package pipeline

// Status represents the execution state of a step or a whole pipeline.
type Status string

// Status constants. A step moves strictly forward:
// pending -> in_progress -> {success | error | cancelled}.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// allowedTransition reports whether a step may move from one status to
// another. Backward transitions and escapes from a terminal state are
// rejected so observers never see a step "un-finish".
func allowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to.Terminal()
	default:
		return false
	}
}

// ScriptKind discriminates the two ways a step names its work.
type ScriptKind string

// Script kinds.
const (
	// ScriptInline carries the shell template directly in the step.
	ScriptInline ScriptKind = "inline"
	// ScriptNamed references a registered script by identifier and is
	// resolved into a template once, when the pipeline is built.
	ScriptNamed ScriptKind = "named"
)

// Script is the tagged source of a step's command template.
type Script struct {
	Kind ScriptKind
	// Inline template or, until resolution, a named script identifier.
	Text string
}

// Inline builds an inline script source.
func Inline(template string) Script {
	return Script{Kind: ScriptInline, Text: template}
}

// Named builds a reference to a registered script.
func Named(id string) Script {
	return Script{Kind: ScriptNamed, Text: id}
}

// StepOptions carries per-step execution modifiers.
type StepOptions struct {
	// Env is layered onto the run environment before the step executes
	// and stays visible to every later step.
	Env map[string]string `yaml:"env,omitempty"`
	// Force keeps executing remaining statements in the step after a
	// non-zero exit. The step still reports error if any statement failed.
	Force bool `yaml:"force,omitempty"`
	// Echo prints each statement into the captured output before running it.
	Echo bool `yaml:"echo,omitempty"`
	// Shell selects the interpreter: "" uses the platform default shell,
	// "none" switches to argv mode, anything else is an explicit shell path.
	Shell string `yaml:"shell,omitempty"`
}

// Step is one named unit of work. Command holds the resolved template;
// Status and Output are populated only during and after execution.
type Step struct {
	Name    string
	Command string
	Options StepOptions
	Status  Status
	Output  string
}

// Job is an ordered list of steps. Jobs execute strictly in sequence.
type Job struct {
	Name  string
	Steps []*Step
}

// Pipeline is one end-to-end operation: an ordered list of jobs plus an
// aggregate status. It is owned by exactly one Runner for the duration of
// a run and observed through the Store.
type Pipeline struct {
	Name   string
	Jobs   []*Job
	Status Status
}

// StepCount returns the total number of steps across all jobs.
func (p *Pipeline) StepCount() int {
	total := 0
	for _, j := range p.Jobs {
		total += len(j.Steps)
	}
	return total
}
