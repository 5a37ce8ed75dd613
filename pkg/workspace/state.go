package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/prime-agent/pkg/logger"
	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

// syncState is what Sync remembers between runs: the fingerprint of every
// body as it stood after the last successful sync.
type syncState struct {
	AgentsPath string            `yaml:"agents-path"`
	SkillsDir  string            `yaml:"skills-dir"`
	Sections   map[string]string `yaml:"sections"`
}

// loadBase returns the recorded fingerprints. A missing or unreadable state
// file yields no base, which leaves every divergence to the policy.
func (w *Workspace) loadBase(ctx context.Context) map[string]string {
	if w.statePath == "" {
		return nil
	}

	data, err := os.ReadFile(w.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("file", w.statePath).Warn("ignoring unreadable sync state")
		}
		return nil
	}

	var state syncState
	if err := yaml.Unmarshal(data, &state); err != nil {
		logger.G(ctx).WithError(err).WithField("file", w.statePath).Warn("ignoring corrupt sync state")
		return nil
	}
	return state.Sections
}

func (w *Workspace) saveBase(base map[string]string) error {
	if w.statePath == "" {
		return nil
	}

	state := syncState{
		AgentsPath: absPath(w.agentsPath),
		SkillsDir:  absPath(w.store.Root()),
		Sections:   base,
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return errors.Wrap(err, "failed to marshal sync state")
	}

	if err := os.MkdirAll(filepath.Dir(w.statePath), 0o755); err != nil {
		return sections.WrapIO(err, "failed to create state dir '%s'", filepath.Dir(w.statePath))
	}
	if err := os.WriteFile(w.statePath, data, 0o644); err != nil {
		return sections.WrapIO(err, "failed to write sync state '%s'", w.statePath)
	}
	return nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
