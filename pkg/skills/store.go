package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/jingkaihe/prime-agent/pkg/agentsmd"
	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

const skillFileName = "SKILL.md"

// Store gives by-name access to the skill files under a root directory
type Store struct {
	root       string
	createRoot bool
}

// Option is a function that configures a Store
type Option func(*Store)

// WithCreateRoot lets Write create the skills root when it does not exist yet.
// Without it only the per-skill directory is created.
func WithCreateRoot() Option {
	return func(s *Store) {
		s.createRoot = true
	}
}

// NewStore creates a store rooted at root
func NewStore(root string, opts ...Option) *Store {
	s := &Store{root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the skills directory
func (s *Store) Root() string {
	return s.root
}

// Path returns the SKILL.md path for name without validating it
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name, skillFileName)
}

// List returns the sorted names of all skills. A missing root is an empty
// store. Directories without SKILL.md, or whose name is not a valid skill
// name, are skipped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, sections.WrapIO(err, "failed to read skills dir '%s'", s.root)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if sections.ValidateName(name) != nil {
			continue
		}

		// Stat follows symlinks so linked skill directories are listed too.
		info, err := os.Stat(filepath.Join(s.root, name))
		if err != nil || !info.IsDir() {
			continue
		}
		if !s.Exists(name) {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Exists reports whether name has a SKILL.md file
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// Read returns the body of a skill
func (s *Store) Read(name string) (string, error) {
	if err := sections.ValidateName(name); err != nil {
		return "", err
	}

	content, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(sections.ErrNotFound, "skill '%s' (%s)", name, s.Path(name))
		}
		return "", sections.WrapIO(err, "failed to read skill '%s'", s.Path(name))
	}
	return string(content), nil
}

// ModTime returns the modification time of a skill file
func (s *Store) ModTime(name string) (time.Time, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, errors.Wrapf(sections.ErrNotFound, "skill '%s'", name)
		}
		return time.Time{}, sections.WrapIO(err, "failed to stat skill '%s'", s.Path(name))
	}
	return info.ModTime(), nil
}

// Write replaces or creates the skill file for name. Bodies that could not be
// carried as an AGENTS.md section are rejected with ErrInvalidBody.
func (s *Store) Write(name, content string) error {
	if err := sections.ValidateName(name); err != nil {
		return err
	}
	if err := agentsmd.CheckBody(name, content); err != nil {
		return err
	}

	if s.createRoot {
		if err := os.MkdirAll(s.root, 0o755); err != nil {
			return sections.WrapIO(err, "failed to create skills dir '%s'", s.root)
		}
	} else if info, err := os.Stat(s.root); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return sections.WrapIO(err, "skills dir '%s' is not available", s.root)
	}

	dir := filepath.Join(s.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sections.WrapIO(err, "failed to create skill dir '%s'", dir)
	}
	if err := os.WriteFile(s.Path(name), []byte(content), 0o644); err != nil {
		return sections.WrapIO(err, "failed to write skill '%s'", s.Path(name))
	}
	return nil
}

// Remove deletes the skill file and fails with ErrNotFound when it is absent
func (s *Store) Remove(name string) error {
	removed, err := s.RemoveIfExists(name)
	if err != nil {
		return err
	}
	if !removed {
		return errors.Wrapf(sections.ErrNotFound, "skill '%s' (%s)", name, s.Path(name))
	}
	return nil
}

// RemoveIfExists deletes the skill file if present and reports whether it
// did. The skill directory is removed too once it is empty.
func (s *Store) RemoveIfExists(name string) (bool, error) {
	if err := sections.ValidateName(name); err != nil {
		return false, err
	}

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, sections.WrapIO(err, "failed to delete skill '%s'", s.Path(name))
	}

	// Leftover assets keep the directory alive; that is not an error.
	_ = os.Remove(filepath.Join(s.root, name))
	return true, nil
}

// Snapshot reads every skill with its modification time
func (s *Store) Snapshot() (map[string]Entry, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]Entry, len(names))
	for _, name := range names {
		content, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		modTime, err := s.ModTime(name)
		if err != nil {
			return nil, err
		}
		snapshot[name] = Entry{Name: name, Content: content, ModTime: modTime}
	}
	return snapshot, nil
}

// Describe reads the optional frontmatter of a skill. A skill without
// frontmatter yields empty metadata.
func (s *Store) Describe(name string) (Metadata, error) {
	content, err := s.Read(name)
	if err != nil {
		return Metadata{}, err
	}
	return ParseMetadata(content)
}

// ParseMetadata extracts the YAML frontmatter from a skill body
func ParseMetadata(content string) (Metadata, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "failed to parse frontmatter")
	}

	var m Metadata
	m.Name, _ = metaData["name"].(string)
	m.Description, _ = metaData["description"].(string)
	return m, nil
}
