package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironment_Merge(t *testing.T) {
	env := NewEnvironment(map[string]string{"A": "1", "B": "2"})
	env.Merge(map[string]string{"B": "override", "C": "3"})

	assert.Equal(t, "1", env["A"])
	assert.Equal(t, "override", env["B"])
	assert.Equal(t, "3", env["C"])
}

func TestEnvironment_MergeIsInPlace(t *testing.T) {
	env := NewEnvironment(nil)
	returned := env.Merge(map[string]string{"X": "1"})

	assert.Equal(t, "1", env["X"])
	assert.Equal(t, "1", returned["X"])
}

func TestEnvironment_Clone(t *testing.T) {
	env := NewEnvironment(map[string]string{"A": "1"})
	clone := env.Clone()
	clone["A"] = "changed"

	assert.Equal(t, "1", env["A"])
}

func TestEnvironment_Slice(t *testing.T) {
	t.Setenv("VINTNER_TEST_SLICE", "from-os")

	env := NewEnvironment(map[string]string{
		"VINTNER_TEST_SLICE": "overlay-wins",
		"WINEPREFIX":         "/tmp/prefix",
	})
	slice := env.Slice()

	assert.Contains(t, slice, "VINTNER_TEST_SLICE=overlay-wins")
	assert.Contains(t, slice, "WINEPREFIX=/tmp/prefix")
	assert.NotContains(t, slice, "VINTNER_TEST_SLICE=from-os")
}
