package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigStore persists the profile set between sessions.
type ConfigStore interface {
	Read() (ProfileSet, error)
	Write(set ProfileSet) error
}

// Store backends.
const (
	StoreBackendYAML   = "yaml"
	StoreBackendSQLite = "sqlite"
)

// openConfigStore opens the configured backend. The returned close function
// is never nil.
func openConfigStore(cfg StoreConfig, limits Limits) (ConfigStore, func() error, error) {
	path := ExpandPath(cfg.Path)
	switch cfg.Backend {
	case StoreBackendYAML, "":
		return newYAMLStore(path, limits), func() error { return nil }, nil
	case StoreBackendSQLite:
		st, err := openSQLiteStore(path, limits)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

// yamlStore keeps the profile set in a single YAML document.
type yamlStore struct {
	path   string
	limits Limits
}

func newYAMLStore(path string, limits Limits) *yamlStore {
	return &yamlStore{path: path, limits: limits}
}

// Read loads the profile set. A missing file yields the defaults.
func (s *yamlStore) Read() (ProfileSet, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultProfileSet(s.limits), nil
	}
	if err != nil {
		return ProfileSet{}, fmt.Errorf("read profile store: %w", err)
	}

	set := DefaultProfileSet(s.limits)

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return ProfileSet{}, fmt.Errorf("decode profile store %s: %w", s.path, err)
	}

	return finishRead(set, s.limits)
}

// Write replaces the file atomically.
func (s *yamlStore) Write(set ProfileSet) error {
	b, err := yaml.Marshal(&set)
	if err != nil {
		return fmt.Errorf("encode profile store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create profile store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".profiles-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp profile store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close profile store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace profile store: %w", err)
	}
	return nil
}

// finishRead clamps loaded values into bounds and validates bindings and
// transition times.
func finishRead(set ProfileSet, limits Limits) (ProfileSet, error) {
	for i := range set.Profiles {
		set.Profiles[i].Clamp(limits)
	}
	if err := set.Validate(); err != nil {
		return ProfileSet{}, fmt.Errorf("invalid profile store: %w", err)
	}
	return set, nil
}
