package cmd

// Exit codes reported to the shell.
const (
	ExitSuccess         = 0
	ExitStepFailed      = 1
	ExitValidationError = 2
	ExitCancelled       = 4
)

// ExitError is an error that carries a specific exit code. cobra.RunE
// returns this so the caller can set the process exit code; cobra prints
// the message, main only maps the code.
type ExitError struct {
	Message string
	Code    int
}

func (e *ExitError) Error() string {
	return e.Message
}
