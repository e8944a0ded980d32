package pipeline

import (
	"bytes"
	"sync"
)

// DefaultTailSize is the default capacity of the retained output tail (4KB).
const DefaultTailSize = 4096

// OutputBuffer is the io.Writer a step's stdout/stderr streams into.
// It is line-aware: complete lines are scanned for the status marker,
// probe exit codes are recorded, the marker is stripped, and the cleaned
// text is forwarded to the sink (the live store) as it arrives. A bounded
// tail of the cleaned output is retained for summaries and history,
// discarding oldest bytes when full. Thread-safe.
type OutputBuffer struct {
	mu      sync.Mutex
	sink    func(chunk string)
	partial []byte // carry for an incomplete trailing line

	tail     []byte
	tailSize int
	capacity int

	codes []int
}

// NewOutputBuffer creates a buffer with the given tail capacity. sink may be
// nil when no live observer is attached. A capacity <= 0 uses DefaultTailSize.
func NewOutputBuffer(capacity int, sink func(chunk string)) *OutputBuffer {
	if capacity <= 0 {
		capacity = DefaultTailSize
	}
	return &OutputBuffer{
		sink:     sink,
		tail:     make([]byte, capacity),
		capacity: capacity,
	}
}

// Write implements io.Writer. Always returns len(p), nil: a step's output
// is never a reason to fail the write side of the pipe.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial = append(b.partial, p...)
	for {
		idx := bytes.IndexByte(b.partial, '\n')
		if idx < 0 {
			break
		}
		line := string(b.partial[:idx])
		b.partial = b.partial[idx+1:]
		b.emitLine(line, true)
	}
	return len(p), nil
}

// Flush processes any incomplete trailing line. Called once the step's
// command has settled, before the buffer is read.
func (b *OutputBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.partial) == 0 {
		return
	}
	line := string(b.partial)
	b.partial = nil
	b.emitLine(line, false)
}

// emitLine strips the marker from one line, records any probe code, and
// forwards the cleaned text. A line that was nothing but a marker is
// dropped entirely so probes never show up in the visible log.
func (b *OutputBuffer) emitLine(line string, newline bool) {
	code, hasMarker := parseMarkerCode(line)
	if hasMarker {
		b.codes = append(b.codes, code)
	}
	cleaned := stripMarker(line)
	if cleaned == "" && hasMarker {
		return
	}
	if newline {
		cleaned += "\n"
	}
	b.retain(cleaned)
	if b.sink != nil {
		b.sink(cleaned)
	}
}

// retain appends cleaned text to the bounded tail, shifting out the oldest
// bytes on overflow.
func (b *OutputBuffer) retain(s string) {
	n := len(s)
	if n == 0 {
		return
	}
	if n >= b.capacity {
		copy(b.tail, s[n-b.capacity:])
		b.tailSize = b.capacity
		return
	}
	avail := b.capacity - b.tailSize
	if n > avail {
		discard := n - avail
		copy(b.tail, b.tail[discard:b.tailSize])
		b.tailSize -= discard
	}
	copy(b.tail[b.tailSize:], s)
	b.tailSize += n
}

// Tail returns the retained cleaned output.
func (b *OutputBuffer) Tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.tail[:b.tailSize])
}

// ExitCodes returns the probe exit codes observed so far, in order.
func (b *OutputBuffer) ExitCodes() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int, len(b.codes))
	copy(out, b.codes)
	return out
}

// MarkerFailure reports whether any probe printed a non-zero exit code.
// Any non-zero code counts as failure, not only 1.
func (b *OutputBuffer) MarkerFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.codes {
		if c != 0 {
			return true
		}
	}
	return false
}
