package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_Basic(t *testing.T) {
	got := Expand("WINEPREFIX={{P}}", map[string]string{"P": "/tmp/app"})
	assert.Equal(t, "WINEPREFIX=/tmp/app", got)
}

func TestExpand_MissingKeyIsEmpty(t *testing.T) {
	got := Expand("{{Q}}", map[string]string{})
	assert.Equal(t, "", got)

	got = Expand("a {{Q}} b", nil)
	assert.Equal(t, "a  b", got)
}

func TestExpand_MultiplePlaceholders(t *testing.T) {
	values := map[string]string{
		"ENGINE": "WS11WineCX",
		"HOME":   "/Users/demo",
	}
	got := Expand("{{HOME}}/engines/{{ENGINE}}/{{ENGINE}}.tar.xz", values)
	assert.Equal(t, "/Users/demo/engines/WS11WineCX/WS11WineCX.tar.xz", got)
}

func TestExpand_WhitespaceAroundKey(t *testing.T) {
	got := Expand("{{ NAME }}", map[string]string{"NAME": "wrapper"})
	assert.Equal(t, "wrapper", got)
}

func TestExpand_NoPlaceholders(t *testing.T) {
	got := Expand("echo plain", map[string]string{"X": "y"})
	assert.Equal(t, "echo plain", got)
}

func TestExpand_Idempotent(t *testing.T) {
	values := map[string]string{"P": "/opt/wine"}
	once := Expand("cd {{P}}; ls {{MISSING}}", values)
	twice := Expand(once, values)
	assert.Equal(t, once, twice)
}

func TestExpand_EmptyKey(t *testing.T) {
	got := Expand("x{{}}y", map[string]string{"": "never"})
	assert.Equal(t, "xy", got)
}
