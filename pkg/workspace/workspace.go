// Package workspace implements the prime-agent operations over one aggregate
// file and one skills directory. All file I/O happens here; merge decisions
// are delegated to the reconcile package.
package workspace

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/jingkaihe/prime-agent/pkg/agentsmd"
	"github.com/jingkaihe/prime-agent/pkg/logger"
	"github.com/jingkaihe/prime-agent/pkg/reconcile"
	"github.com/jingkaihe/prime-agent/pkg/skills"
	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

// DefaultAgentsPath is the aggregate file used when none is configured
const DefaultAgentsPath = "AGENTS.md"

// Workspace pairs a skill store with an aggregate file path
type Workspace struct {
	store      *skills.Store
	agentsPath string
	policy     reconcile.Policy
	statePath  string
}

// Option configures a Workspace
type Option func(*Workspace)

// WithPolicy sets the conflict policy used by Sync
func WithPolicy(policy reconcile.Policy) Option {
	return func(w *Workspace) {
		w.policy = policy
	}
}

// WithStateFile sets where Sync records the bodies of the last successful
// sync. With a recorded base a name edited on one side only is copied to the
// other without consulting the policy. Without a state file every divergence
// goes to the policy.
func WithStateFile(path string) Option {
	return func(w *Workspace) {
		w.statePath = path
	}
}

// New creates a Workspace. An empty agentsPath means DefaultAgentsPath.
func New(store *skills.Store, agentsPath string, opts ...Option) *Workspace {
	if agentsPath == "" {
		agentsPath = DefaultAgentsPath
	}
	w := &Workspace{
		store:      store,
		agentsPath: agentsPath,
		policy:     reconcile.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AgentsPath returns the aggregate file path
func (w *Workspace) AgentsPath() string {
	return w.agentsPath
}

// Store returns the underlying skill store
func (w *Workspace) Store() *skills.Store {
	return w.store
}

// Get writes a fresh aggregate holding exactly the named skills in the given
// order. The existing aggregate is ignored and overwritten. A name given twice
// fails with ErrDuplicateSection.
func (w *Workspace) Get(ctx context.Context, names []string) error {
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return errors.Wrapf(sections.ErrDuplicateSection, "skill '%s' requested more than once", dups[0])
	}

	secs := make([]sections.Section, 0, len(names))
	for _, name := range names {
		if err := sections.ValidateName(name); err != nil {
			return err
		}
		content, err := w.store.Read(name)
		if err != nil {
			return err
		}
		if err := agentsmd.CheckBody(name, content); err != nil {
			return err
		}
		secs = append(secs, sections.New(name, content))
	}

	if err := w.writeAgents(agentsmd.RenderSections(secs)); err != nil {
		return err
	}

	logger.G(ctx).WithField("file", w.agentsPath).WithField("skills", names).Debug("aggregate file built")
	return nil
}

// Set stores the file at path as the body of skill name, replacing any
// existing body.
func (w *Workspace) Set(ctx context.Context, name, path string) error {
	if err := sections.ValidateName(name); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(sections.ErrNotFound, "source file '%s'", path)
		}
		return sections.WrapIO(err, "failed to read '%s'", path)
	}

	if err := w.store.Write(name, string(content)); err != nil {
		return err
	}

	logger.G(ctx).WithField("skill", name).WithField("source", path).Debug("skill saved")
	return nil
}

// Delete removes a section from the aggregate. The skill file is untouched.
func (w *Workspace) Delete(ctx context.Context, name string) error {
	if err := sections.ValidateName(name); err != nil {
		return err
	}

	doc, _, exists, err := w.readAgents()
	if err != nil {
		return err
	}
	if !exists {
		return errors.Wrapf(sections.ErrNotFound, "aggregate file '%s'", w.agentsPath)
	}
	if !doc.Remove(name) {
		return errors.Wrapf(sections.ErrNotFound, "section '%s' in '%s'", name, w.agentsPath)
	}

	if err := w.writeAgents(doc.Render()); err != nil {
		return err
	}

	logger.G(ctx).WithField("section", name).Debug("section deleted")
	return nil
}

// DeleteGlobally removes both the section and the skill file. Either may be
// missing; it fails with ErrNotFound only when neither existed.
func (w *Workspace) DeleteGlobally(ctx context.Context, name string) error {
	if err := sections.ValidateName(name); err != nil {
		return err
	}

	doc, _, exists, err := w.readAgents()
	if err != nil {
		return err
	}

	sectionRemoved := exists && doc.Remove(name)
	if sectionRemoved {
		if err := w.writeAgents(doc.Render()); err != nil {
			return err
		}
	}

	skillRemoved, err := w.store.RemoveIfExists(name)
	if err != nil {
		return err
	}

	if !sectionRemoved && !skillRemoved {
		return errors.Wrapf(sections.ErrNotFound, "skill '%s' is neither in '%s' nor in '%s'", name, w.agentsPath, w.store.Root())
	}

	logger.G(ctx).
		WithField("skill", name).
		WithField("section_removed", sectionRemoved).
		WithField("skill_removed", skillRemoved).
		Debug("skill deleted globally")
	return nil
}

// readAgents parses the aggregate file. A missing file is an empty document
// and exists is false.
func (w *Workspace) readAgents() (doc *agentsmd.Document, modTime time.Time, exists bool, err error) {
	info, err := os.Stat(w.agentsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return agentsmd.Empty(), time.Time{}, false, nil
		}
		return nil, time.Time{}, false, sections.WrapIO(err, "failed to stat '%s'", w.agentsPath)
	}

	data, err := os.ReadFile(w.agentsPath)
	if err != nil {
		return nil, time.Time{}, false, sections.WrapIO(err, "failed to read '%s'", w.agentsPath)
	}

	doc, err = agentsmd.Parse(string(data))
	if err != nil {
		return nil, time.Time{}, false, errors.Wrapf(err, "failed to parse '%s'", w.agentsPath)
	}
	return doc, info.ModTime(), true, nil
}

func (w *Workspace) writeAgents(content string) error {
	if err := os.WriteFile(w.agentsPath, []byte(content), 0o644); err != nil {
		return sections.WrapIO(err, "failed to write '%s'", w.agentsPath)
	}
	return nil
}
