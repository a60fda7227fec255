package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager keeps scenario files in one directory.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

func (m *Manager) Dir() string { return m.dir }

func (m *Manager) Init() error {
	return os.MkdirAll(m.dir, 0755)
}

// List returns the scenario file names in the directory, sorted. A missing
// directory lists as empty.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a scenario by file name. Without an extension the name is
// tried as .yaml, .yml and .json in turn.
func (m *Manager) Load(name string) (*Scenario, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		base := FileName(name, "")
		candidates = []string{base + ".yaml", base + ".yml", base + ".json"}
	}
	for _, c := range candidates {
		path := filepath.Join(m.dir, c)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		s, err := Load(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrScenarioNotFound, name, m.dir)
}

// Save writes s under fileName, or under its derived default name when
// fileName is empty, and returns the path written.
func (m *Manager) Save(s *Scenario, fileName string) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if err := m.Init(); err != nil {
		return "", err
	}
	if fileName == "" {
		fileName = FileName(s.Name, DefaultExt)
	}
	path := filepath.Join(m.dir, fileName)
	if err := Save(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// CreatePresets writes every preset scenario and returns the paths.
func (m *Manager) CreatePresets() ([]string, error) {
	paths := make([]string, 0, len(presetOrder))
	for _, name := range presetOrder {
		path, err := m.Save(GetPreset(name), "")
		if err != nil {
			return paths, fmt.Errorf("preset %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
