package pipeline

import (
	"os"
	"sort"
)

// Environment is the key-value overlay substituted into script templates.
// One Environment is built per pipeline run and mutated in place as steps
// execute: a step's option env merges onto it permanently, so later steps
// observe earlier steps' overlays. That ordering-dependent visibility is
// deliberate (a step that discovers an install path propagates it forward).
type Environment map[string]string

// NewEnvironment returns an environment seeded with the given values.
func NewEnvironment(seed map[string]string) Environment {
	env := make(Environment, len(seed))
	for k, v := range seed {
		env[k] = v
	}
	return env
}

// Merge layers overlay onto the environment in place and returns it.
func (e Environment) Merge(overlay map[string]string) Environment {
	for k, v := range overlay {
		e[k] = v
	}
	return e
}

// Clone returns an independent copy.
func (e Environment) Clone() Environment {
	return NewEnvironment(e)
}

// Slice renders the environment as "KEY=value" entries layered on top of
// the OS environment, in the format exec.Cmd expects. Overlay keys win.
func (e Environment) Slice() []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range e {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+merged[k])
	}
	return result
}
