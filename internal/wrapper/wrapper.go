// Package wrapper manages Wine wrapper bundles. A wrapper is an .app-style
// directory holding its own Wine prefix, an engine reference, and a
// wrapper.yml describing how to launch the wrapped program.
package wrapper

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Wrapper describes a single wrapper bundle on disk.
type Wrapper struct {
	Name    string `yaml:"name"`
	Engine  string `yaml:"engine"`
	Program string `yaml:"program"` // Windows path of the wrapped executable
	Args    string `yaml:"args,omitempty"`

	// Path is the bundle root. Not serialized; derived from location.
	Path string `yaml:"-"`
}

// NotFoundError reports a wrapper name with no bundle on disk.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("wrapper %q not found", e.Name)
}

const (
	bundleSuffix = ".app"
	metaFile     = "wrapper.yml"
)

// BundlePath returns the bundle directory for a wrapper name.
func BundlePath(dir, name string) string {
	return filepath.Join(dir, name+bundleSuffix)
}

// PrefixPath returns the Wine prefix directory inside a bundle.
func PrefixPath(bundle string) string {
	return filepath.Join(bundle, "Contents", "SharedSupport", "prefix")
}

// EnginePath returns the directory where the engine is unpacked inside a
// bundle.
func EnginePath(bundle string) string {
	return filepath.Join(bundle, "Contents", "SharedSupport", "wine")
}

// WineBin returns the wine executable path inside a bundle.
func WineBin(bundle string) string {
	return filepath.Join(EnginePath(bundle), "bin", "wine")
}

// Store creates, loads and lists wrapper bundles under a base directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the base directory holding the bundles.
func (s *Store) Dir() string {
	return s.dir
}

// Create writes a new bundle skeleton and its metadata. The prefix itself is
// initialised later by the create pipeline.
func (s *Store) Create(w Wrapper) (*Wrapper, error) {
	if err := validateName(w.Name); err != nil {
		return nil, err
	}
	if w.Engine == "" {
		return nil, fmt.Errorf("wrapper %q: engine is required", w.Name)
	}

	bundle := BundlePath(s.dir, w.Name)
	if _, err := os.Stat(bundle); err == nil {
		return nil, fmt.Errorf("wrapper %q already exists at %s", w.Name, bundle)
	}

	dirs := []string{
		filepath.Join(bundle, "Contents", "MacOS"),
		filepath.Join(bundle, "Contents", "Resources"),
		filepath.Join(bundle, "Contents", "SharedSupport"),
		PrefixPath(bundle),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create bundle skeleton: %w", err)
		}
	}

	if err := writeInfoPlist(bundle, w); err != nil {
		return nil, err
	}

	w.Path = bundle
	if err := s.saveMeta(&w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Load reads a wrapper bundle's metadata by name.
func (s *Store) Load(name string) (*Wrapper, error) {
	bundle := BundlePath(s.dir, name)
	data, err := os.ReadFile(filepath.Join(bundle, "Contents", metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("read wrapper metadata: %w", err)
	}

	var w Wrapper
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse wrapper metadata: %w", err)
	}
	w.Path = bundle
	if w.Name == "" {
		w.Name = name
	}
	return &w, nil
}

// Save persists updated metadata for an existing wrapper.
func (s *Store) Save(w *Wrapper) error {
	if w.Path == "" {
		w.Path = BundlePath(s.dir, w.Name)
	}
	return s.saveMeta(w)
}

// List returns all wrappers under the base directory, sorted by name.
// A missing base directory yields an empty list.
func (s *Store) List() ([]*Wrapper, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wrappers dir: %w", err)
	}

	var wrappers []*Wrapper
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), bundleSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), bundleSuffix)
		w, err := s.Load(name)
		if err != nil {
			// Skip bundles with unreadable metadata rather than failing the
			// whole listing.
			continue
		}
		wrappers = append(wrappers, w)
	}
	sort.Slice(wrappers, func(i, j int) bool { return wrappers[i].Name < wrappers[j].Name })
	return wrappers, nil
}

func (s *Store) saveMeta(w *Wrapper) error {
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal wrapper metadata: %w", err)
	}
	path := filepath.Join(w.Path, "Contents", metaFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write wrapper metadata: %w", err)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("wrapper name is required")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid wrapper name %q", name)
	}
	return nil
}
