package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	v, err := NewFS(dir, ".md")
	require.NoError(t, err)
	return v
}

func TestNotesEnumeration(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.Create(ctx, "Inbox/Todo.md", "buy milk")
	require.NoError(t, err)
	_, err = v.Create(ctx, "Python Basics.md", "loops")
	require.NoError(t, err)

	// Non-note files and hidden directories are invisible.
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "image.png"), []byte{1}, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(v.Root(), ".obsidian"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), ".obsidian", "workspace.md"), []byte("x"), 0644))

	notes, err := v.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Inbox/Todo.md", notes[0].Path)
	assert.Equal(t, "Todo", notes[0].Title)
	assert.Equal(t, "Inbox", notes[0].Folder())
	assert.Equal(t, "Python Basics.md", notes[1].Path)
	assert.Equal(t, "", notes[1].Folder())
}

func TestReadWriteRoundTrip(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.Create(ctx, "note.md", "first")
	require.NoError(t, err)

	content, err := v.Read(ctx, "note.md")
	require.NoError(t, err)
	assert.Equal(t, "first", content)

	require.NoError(t, v.Write(ctx, "note.md", "second"))
	content, err = v.Read(ctx, "note.md")
	require.NoError(t, err)
	assert.Equal(t, "second", content)
}

func TestWriteMissingNoteFails(t *testing.T) {
	v := newTestVault(t)
	err := v.Write(context.Background(), "ghost.md", "boo")
	require.Error(t, err)
}

func TestCreateRefusesExisting(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.Create(ctx, "dup.md", "one")
	require.NoError(t, err)
	_, err = v.Create(ctx, "dup.md", "two")
	require.Error(t, err)

	// The original content is untouched.
	content, err := v.Read(ctx, "dup.md")
	require.NoError(t, err)
	assert.Equal(t, "one", content)
}

func TestCreateMakesFolders(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	n, err := v.Create(ctx, "a/b/c/deep.md", "text")
	require.NoError(t, err)
	assert.Equal(t, "deep", n.Title)
	assert.True(t, v.FolderExists("a/b/c"))
}

func TestCreateFolderIdempotent(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, v.CreateFolder(ctx, "projects"))
	require.NoError(t, v.CreateFolder(ctx, "projects"))
	assert.True(t, v.FolderExists("projects"))
	assert.False(t, v.NoteExists("projects"))
}

func TestPathsConfinedToRoot(t *testing.T) {
	v := newTestVault(t)

	// A file outside the root must stay unreachable through the vault.
	outside := filepath.Join(filepath.Dir(v.Root()), "outside.md")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	_, err := v.Read(context.Background(), "../outside.md")
	require.Error(t, err)
	assert.False(t, v.NoteExists("../outside.md"))
}
