package skills

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/prime-agent/pkg/types/sections"
)

func writeSkill(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

func TestStoreList(t *testing.T) {
	t.Run("missing root is empty", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "nope"))
		names, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sorted skill directories only", func(t *testing.T) {
		root := t.TempDir()
		writeSkill(t, root, "zeta", "z")
		writeSkill(t, root, "alpha", "a")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "no-skill-file"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "loose.md"), []byte("x"), 0o644))
		writeSkill(t, root, "bad name", "x")

		names, err := NewStore(root).List()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta"}, names)
	})

	t.Run("follows symlinked skill directories", func(t *testing.T) {
		tmp := t.TempDir()
		root := filepath.Join(tmp, "skills")
		require.NoError(t, os.MkdirAll(root, 0o755))
		writeSkill(t, filepath.Join(tmp, "elsewhere"), "linked", "l")
		require.NoError(t, os.Symlink(filepath.Join(tmp, "elsewhere", "linked"), filepath.Join(root, "linked")))

		names, err := NewStore(root).List()
		require.NoError(t, err)
		assert.Equal(t, []string{"linked"}, names)
	})
}

func TestStoreRead(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "foo", "Do X.\n")
	store := NewStore(root)

	content, err := store.Read("foo")
	require.NoError(t, err)
	assert.Equal(t, "Do X.\n", content)

	_, err = store.Read("missing")
	assert.True(t, errors.Is(err, sections.ErrNotFound))
	assert.Contains(t, err.Error(), "missing")

	_, err = store.Read("../foo")
	assert.True(t, errors.Is(err, sections.ErrInvalidName))
}

func TestStoreReadKeepsOSError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "foo", "SKILL.md"), 0o755))

	_, err := NewStore(root).Read("foo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sections.ErrIO))
	assert.True(t, errors.Is(err, syscall.EISDIR))

	var pathErr *os.PathError
	assert.True(t, errors.As(err, &pathErr))
}

func TestStoreWrite(t *testing.T) {
	t.Run("creates skill directory", func(t *testing.T) {
		root := t.TempDir()
		store := NewStore(root)

		require.NoError(t, store.Write("foo", "Do X."))
		data, err := os.ReadFile(filepath.Join(root, "foo", "SKILL.md"))
		require.NoError(t, err)
		assert.Equal(t, "Do X.", string(data))

		require.NoError(t, store.Write("foo", "Do Y."))
		content, err := store.Read("foo")
		require.NoError(t, err)
		assert.Equal(t, "Do Y.", content)
	})

	t.Run("does not create the root by default", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "skills")
		err := NewStore(root).Write("foo", "Do X.")
		assert.True(t, errors.Is(err, sections.ErrIO))
		assert.NoDirExists(t, root)
	})

	t.Run("creates the root when allowed", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "skills")
		require.NoError(t, NewStore(root, WithCreateRoot()).Write("foo", "Do X."))
		assert.FileExists(t, filepath.Join(root, "foo", "SKILL.md"))
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		err := NewStore(t.TempDir()).Write("a/b", "x")
		assert.True(t, errors.Is(err, sections.ErrInvalidName))
	})

	t.Run("rejects a body holding its own end marker", func(t *testing.T) {
		root := t.TempDir()
		err := NewStore(root).Write("foo", "A\n<!-- prime-agent(End foo) -->\nB\n")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sections.ErrInvalidBody))
		assert.Contains(t, err.Error(), "line 2")
		assert.NoFileExists(t, filepath.Join(root, "foo", "SKILL.md"))
	})
}

func TestStoreRemove(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "foo", "Do X.")
	store := NewStore(root)

	require.NoError(t, store.Remove("foo"))
	assert.False(t, store.Exists("foo"))
	assert.NoDirExists(t, filepath.Join(root, "foo"))

	err := store.Remove("foo")
	assert.True(t, errors.Is(err, sections.ErrNotFound))

	removed, err := store.RemoveIfExists("foo")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStoreRemoveKeepsAssets(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "foo", "Do X.")
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo", "notes.txt"), []byte("keep"), 0o644))

	removed, err := NewStore(root).RemoveIfExists("foo")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.FileExists(t, filepath.Join(root, "foo", "notes.txt"))
}

func TestStoreSnapshot(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "foo", "Do X.")
	writeSkill(t, root, "bar", "Do Y.")

	past := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "foo", "SKILL.md"), past, past))

	snapshot, err := NewStore(root).Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "Do X.", snapshot["foo"].Content)
	assert.Equal(t, "foo", snapshot["foo"].Name)
	assert.True(t, snapshot["foo"].ModTime.Equal(past))
	assert.Equal(t, "Do Y.", snapshot["bar"].Content)
}

func TestDescribe(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "with-meta", `---
name: with-meta
description: Formats Go code
---

# Go formatting
`)
	writeSkill(t, root, "plain", "Just text.\n")
	store := NewStore(root)

	m, err := store.Describe("with-meta")
	require.NoError(t, err)
	assert.Equal(t, "with-meta", m.Name)
	assert.Equal(t, "Formats Go code", m.Description)

	m, err = store.Describe("plain")
	require.NoError(t, err)
	assert.Empty(t, m.Description)

	_, err = store.Describe("missing")
	assert.True(t, errors.Is(err, sections.ErrNotFound))
}
