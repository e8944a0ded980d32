package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMarkerCode(t *testing.T) {
	tests := []struct {
		name string
		line string
		code int
		ok   bool
	}{
		{"zero", "STATUS_COMMAND_CODE:0", 0, true},
		{"one", "STATUS_COMMAND_CODE:1", 1, true},
		{"multi digit", "STATUS_COMMAND_CODE:127", 127, true},
		{"embedded", "done STATUS_COMMAND_CODE:2", 2, true},
		{"spaced", "STATUS_COMMAND_CODE: 3", 3, true},
		{"no marker", "plain output", 0, false},
		{"marker without code", "STATUS_COMMAND_CODE:", 0, false},
		{"marker with junk", "STATUS_COMMAND_CODE:x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := parseMarkerCode(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestStripMarker(t *testing.T) {
	assert.Equal(t, "", stripMarker("STATUS_COMMAND_CODE:0"))
	assert.Equal(t, "done", stripMarker("done STATUS_COMMAND_CODE:1"))
	assert.Equal(t, "no marker here", stripMarker("no marker here"))
}

func TestWithProbe(t *testing.T) {
	probed := withProbe("winetricks corefonts")
	assert.Equal(t, `winetricks corefonts; echo "STATUS_COMMAND_CODE:$?"`, probed)
}
