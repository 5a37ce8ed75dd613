package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the flat key/value config file edited by the config command
type File struct {
	path   string
	values map[string]string
}

// LoadFile reads the config file at path. A missing file loads empty.
func LoadFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrapf(err, "failed to read config '%s'", path)
	}

	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config '%s'", path)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

// Path returns where the file is stored
func (f *File) Path() string {
	return f.path
}

// Get returns a value and whether it is set
func (f *File) Get(key string) (string, bool) {
	value, ok := f.values[key]
	return value, ok
}

// Set stores a value. skills-dir is stored expanded.
func (f *File) Set(key, value string) {
	if key == KeySkillsDir {
		value = ExpandPath(value)
	}
	f.values[key] = value
}

// Keys returns the set keys in sorted order
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.values))
	for key := range f.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the file, creating its directory when needed
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(f.values)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config '%s'", f.path)
	}
	return nil
}
