package pipeline

import (
	"strconv"
	"strings"
)

// StatusMarker is the sentinel prefix a probe statement prints to smuggle a
// statement's exit code through the text output channel. It is the only
// inter-process signal available from shell adapters that cannot report
// exit codes natively; adapters that can (the local exec adapter) make the
// probe unnecessary, and the runner then relies on the structured code.
const StatusMarker = "STATUS_COMMAND_CODE:"

// probeStatement is appended after a statement to print its exit code.
const probeStatement = `echo "` + StatusMarker + `$?"`

// withProbe appends the status probe to a shell statement.
func withProbe(statement string) string {
	return statement + "; " + probeStatement
}

// parseMarkerCode extracts the exit code following a StatusMarker occurrence
// in line. Returns (0, false) when the line carries no parseable marker.
func parseMarkerCode(line string) (int, bool) {
	idx := strings.Index(line, StatusMarker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(StatusMarker):])
	// The code is the leading digit run; trailing text is tolerated.
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}

// stripMarker removes the StatusMarker and its code from line. A line that
// consists only of the marker collapses to the empty string, signalling to
// the caller that the whole line should be dropped from visible output.
func stripMarker(line string) string {
	idx := strings.Index(line, StatusMarker)
	if idx < 0 {
		return line
	}
	rest := line[idx+len(StatusMarker):]
	end := 0
	for end < len(rest) && (rest[end] == ' ' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	return strings.TrimRight(line[:idx]+rest[end:], " ")
}
