// Package engine manages packaged Wine engine archives. An engine is a
// tar.gz of a Wine build, addressed by its file name without the extension.
package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const archiveSuffix = ".tar.gz"

// Engine describes one installed engine archive.
type Engine struct {
	Name string
	Path string
	Size int64
}

// NotFoundError reports an engine name with no archive on disk.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("engine %q not installed", e.Name)
}

// Manager lists and installs engine archives under a base directory.
type Manager struct {
	dir string
}

// NewManager returns a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the engine archive directory.
func (m *Manager) Dir() string {
	return m.dir
}

// List returns all installed engines sorted by name. A missing directory
// yields an empty list.
func (m *Manager) List() ([]Engine, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read engines dir: %w", err)
	}

	var engines []Engine
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), archiveSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		engines = append(engines, Engine{
			Name: strings.TrimSuffix(entry.Name(), archiveSuffix),
			Path: filepath.Join(m.dir, entry.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i].Name < engines[j].Name })
	return engines, nil
}

// Resolve returns the engine registered under name.
func (m *Manager) Resolve(name string) (*Engine, error) {
	path := filepath.Join(m.dir, name+archiveSuffix)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("stat engine: %w", err)
	}
	return &Engine{Name: name, Path: path, Size: info.Size()}, nil
}

// Install copies an engine archive from src into the engine directory and
// returns the resulting engine. The name is taken from the file name.
func (m *Manager) Install(src string) (*Engine, error) {
	base := filepath.Base(src)
	if !strings.HasSuffix(base, archiveSuffix) {
		return nil, fmt.Errorf("engine archive must end in %s: %s", archiveSuffix, base)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("create engines dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open engine archive: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(m.dir, base)
	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create engine archive: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("copy engine archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("write engine archive: %w", err)
	}

	return m.Resolve(strings.TrimSuffix(base, archiveSuffix))
}

// Default picks the engine to use when none is named: the configured default
// if installed, otherwise the lexically newest installed engine.
func (m *Manager) Default(configured string) (*Engine, error) {
	if configured != "" {
		return m.Resolve(configured)
	}
	engines, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("no engines installed in %s", m.dir)
	}
	latest := engines[len(engines)-1]
	return &latest, nil
}
