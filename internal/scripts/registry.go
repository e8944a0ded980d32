// Package scripts provides the named script registry. Builtin scripts ship
// embedded in the binary; a user script directory can add new scripts or
// shadow builtin ones by id.
package scripts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinFS embed.FS

// Script is a reusable shell script template addressed by id.
type Script struct {
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// Entry pairs a script with its id for listing.
type Entry struct {
	ID      string
	Builtin bool
	Script  Script
}

// NotFoundError reports a script id with no registered template.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("script %q not found", e.ID)
}

// Registry resolves script ids to templates. It implements
// pipeline.ScriptResolver.
type Registry struct {
	scripts map[string]Script
	builtin map[string]bool
}

// NewRegistry returns a registry populated with the builtin scripts.
func NewRegistry() (*Registry, error) {
	data, err := builtinFS.ReadFile("builtin.yaml")
	if err != nil {
		return nil, fmt.Errorf("read builtin scripts: %w", err)
	}
	scripts, err := parseScripts(data)
	if err != nil {
		return nil, fmt.Errorf("parse builtin scripts: %w", err)
	}
	builtin := make(map[string]bool, len(scripts))
	for id := range scripts {
		builtin[id] = true
	}
	return &Registry{scripts: scripts, builtin: builtin}, nil
}

// LoadDir merges scripts from every *.yaml file in dir into the registry.
// User scripts override builtins with the same id. A missing directory is
// not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read script dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read script file %s: %w", path, err)
		}
		scripts, err := parseScripts(data)
		if err != nil {
			return fmt.Errorf("parse script file %s: %w", path, err)
		}
		for id, script := range scripts {
			r.scripts[id] = script
			delete(r.builtin, id)
		}
	}
	return nil
}

// Resolve returns the template registered under id.
func (r *Registry) Resolve(id string) (string, error) {
	script, ok := r.scripts[id]
	if !ok {
		return "", &NotFoundError{ID: id}
	}
	return script.Template, nil
}

// List returns all registered scripts sorted by id.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.scripts))
	for id, script := range r.scripts {
		entries = append(entries, Entry{ID: id, Builtin: r.builtin[id], Script: script})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func parseScripts(data []byte) (map[string]Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	scripts := make(map[string]Script)
	if err := dec.Decode(&scripts); err != nil {
		return nil, err
	}
	for id, script := range scripts {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("script with empty id")
		}
		if strings.TrimSpace(script.Template) == "" {
			return nil, fmt.Errorf("script %q has an empty template", id)
		}
	}
	return scripts, nil
}
