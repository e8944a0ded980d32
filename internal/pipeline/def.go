package pipeline

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PipelineDef is the top-level pipeline file.
type PipelineDef struct {
	Name string            `yaml:"name"`
	Env  map[string]string `yaml:"env,omitempty"`
	Jobs []*JobDef         `yaml:"jobs"`
}

// JobDef represents a single job within a pipeline file. Jobs are a YAML
// sequence, not a mapping: their order is their execution order.
type JobDef struct {
	Name  string     `yaml:"name"`
	Steps []*StepDef `yaml:"steps"`
}

// StepDef represents a single step. Exactly one of Run (an inline shell
// template) or Script (a registered script identifier) must be set.
type StepDef struct {
	Name   string            `yaml:"name"`
	Run    string            `yaml:"run,omitempty"`
	Script string            `yaml:"script,omitempty"`
	Env    map[string]string `yaml:"env,omitempty"`
	Force  bool              `yaml:"force,omitempty"`
	Echo   bool              `yaml:"echo,omitempty"`
	Shell  string            `yaml:"shell,omitempty"`
}

// ParsePipeline parses YAML bytes into a PipelineDef. Strict decoding:
// unknown fields produce a parse error, preventing silent typos.
func ParsePipeline(data []byte) (*PipelineDef, error) {
	var def PipelineDef
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &def, nil
}

// ValidationError represents a single validation failure with its location.
type ValidationError struct {
	Field   string // dot-separated path, e.g. "jobs[0].steps[2].run"
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validShellValues are the interpreters a step may name.
var validShellValues = map[string]bool{
	ShellDefault: true,
	ShellNone:    true,
	"sh":         true,
	"bash":       true,
	"zsh":        true,
}

// Validate checks a parsed PipelineDef for structural errors. It returns
// all errors found, not just the first. An empty jobs list is legal: the
// pipeline completes immediately with status success.
func Validate(def *PipelineDef) []ValidationError {
	if def == nil {
		return []ValidationError{{Field: "pipeline", Message: "pipeline definition is required"}}
	}

	var errs []ValidationError
	if def.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "pipeline name is required"})
	}

	for ji, job := range def.Jobs {
		jobField := fmt.Sprintf("jobs[%d]", ji)
		if job == nil {
			errs = append(errs, ValidationError{Field: jobField, Message: "job definition is nil"})
			continue
		}
		if job.Name == "" {
			errs = append(errs, ValidationError{Field: jobField + ".name", Message: "job name is required"})
		}
		for si, step := range job.Steps {
			errs = append(errs, validateStep(fmt.Sprintf("%s.steps[%d]", jobField, si), step)...)
		}
	}
	return errs
}

func validateStep(field string, step *StepDef) []ValidationError {
	if step == nil {
		return []ValidationError{{Field: field, Message: "step definition is nil"}}
	}

	var errs []ValidationError
	if step.Name == "" {
		errs = append(errs, ValidationError{Field: field + ".name", Message: "step name is required"})
	}
	switch {
	case step.Run == "" && step.Script == "":
		errs = append(errs, ValidationError{Field: field, Message: "step needs either run or script"})
	case step.Run != "" && step.Script != "":
		errs = append(errs, ValidationError{Field: field, Message: "run and script are mutually exclusive"})
	}
	if !validShellValues[step.Shell] {
		errs = append(errs, ValidationError{
			Field:   field + ".shell",
			Message: fmt.Sprintf("invalid shell %q; must be one of: sh, bash, zsh, none", step.Shell),
		})
	}
	return errs
}

// ScriptResolver resolves a named script identifier to its template.
// Implemented by the scripts registry.
type ScriptResolver interface {
	Resolve(id string) (string, error)
}

// Build turns a validated definition into an executable Pipeline. Named
// script references are resolved here, once, so the runner only ever sees
// a plain command template per step.
func Build(def *PipelineDef, resolver ScriptResolver) (*Pipeline, error) {
	p := &Pipeline{Name: def.Name}
	for _, jobDef := range def.Jobs {
		job := &Job{Name: jobDef.Name}
		for _, stepDef := range jobDef.Steps {
			script := Inline(stepDef.Run)
			if stepDef.Script != "" {
				script = Named(stepDef.Script)
			}
			step, err := BuildStep(stepDef.Name, script, StepOptions{
				Env:   stepDef.Env,
				Force: stepDef.Force,
				Echo:  stepDef.Echo,
				Shell: stepDef.Shell,
			}, resolver)
			if err != nil {
				return nil, fmt.Errorf("job %q step %q: %w", jobDef.Name, stepDef.Name, err)
			}
			job.Steps = append(job.Steps, step)
		}
		p.Jobs = append(p.Jobs, job)
	}
	return p, nil
}

// BuildStep resolves a script source into an executable step.
func BuildStep(name string, script Script, opts StepOptions, resolver ScriptResolver) (*Step, error) {
	command := script.Text
	if script.Kind == ScriptNamed {
		if resolver == nil {
			return nil, fmt.Errorf("script %q: no resolver configured", script.Text)
		}
		template, err := resolver.Resolve(script.Text)
		if err != nil {
			return nil, fmt.Errorf("resolving script %q: %w", script.Text, err)
		}
		command = template
	}
	return &Step{Name: name, Command: command, Options: opts, Status: StatusPending}, nil
}
