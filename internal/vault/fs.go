package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/quill-ai/quill/internal/errors"
)

// DefaultExtension is the note file extension used when none is configured.
const DefaultExtension = ".md"

// FS is a filesystem-backed vault rooted at a directory.
type FS struct {
	root string
	ext  string
}

// NewFS creates a vault over the directory at root.
func NewFS(root, ext string) (*FS, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "vault directory not accessible", apperrors.CategoryConfig)
	}
	if !info.IsDir() {
		return nil, apperrors.Config(apperrors.CodeConfigInvalid, fmt.Sprintf("vault path is not a directory: %s", root))
	}
	return &FS{root: abs, ext: ext}, nil
}

// Root returns the absolute vault root directory.
func (v *FS) Root() string {
	return v.root
}

// Extension returns the note file extension, including the dot.
func (v *FS) Extension() string {
	return v.ext
}

// Notes enumerates all notes under the root, in stable path order.
// Hidden directories (dot-prefixed) are skipped.
func (v *FS) Notes(ctx context.Context) ([]Note, error) {
	var notes []Note
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, never abort the walk.
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), v.ext) {
			return nil
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		notes = append(notes, Note{
			Path:  rel,
			Title: strings.TrimSuffix(d.Name(), v.ext),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Path < notes[j].Path })
	return notes, nil
}

// Read returns the full text of the note at path.
func (v *FS) Read(ctx context.Context, path string) (string, error) {
	abs, err := v.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.New(apperrors.CodeNoteNotFound, fmt.Sprintf("note not found: %s", path), apperrors.CategoryNotFound)
		}
		return "", apperrors.Wrap(err, apperrors.CodeVaultReadError, fmt.Sprintf("failed to read %s", path), apperrors.CategoryInternal)
	}
	return string(data), nil
}

// Write replaces the full text of an existing note.
func (v *FS) Write(ctx context.Context, path, content string) error {
	abs, err := v.resolve(path)
	if err != nil {
		return err
	}
	if !v.NoteExists(path) {
		return apperrors.New(apperrors.CodeNoteNotFound, fmt.Sprintf("note not found: %s", path), apperrors.CategoryNotFound)
	}
	return os.WriteFile(abs, []byte(content), 0644)
}

// Create creates a new note at path, folders included.
func (v *FS) Create(ctx context.Context, path, content string) (Note, error) {
	abs, err := v.resolve(path)
	if err != nil {
		return Note{}, err
	}
	if v.NoteExists(path) {
		return Note{}, apperrors.New(apperrors.CodeNoteExists, fmt.Sprintf("note already exists: %s", path), apperrors.CategoryNotFound)
	}
	// MkdirAll tolerates folders that already exist.
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return Note{}, err
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return Note{}, err
	}
	return Note{
		Path:  path,
		Title: strings.TrimSuffix(filepath.Base(abs), v.ext),
	}, nil
}

// CreateFolder creates a folder at path, parents included.
func (v *FS) CreateFolder(ctx context.Context, path string) error {
	abs, err := v.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, 0755)
}

// NoteExists reports whether a note exists at path.
func (v *FS) NoteExists(path string) bool {
	abs, err := v.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// FolderExists reports whether a folder exists at path.
func (v *FS) FolderExists(path string) bool {
	abs, err := v.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// resolve maps a vault path to an absolute path, rejecting escapes from
// the root.
func (v *FS) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	abs := filepath.Join(v.root, clean)
	if abs != v.root && !strings.HasPrefix(abs, v.root+string(filepath.Separator)) {
		return "", apperrors.New(apperrors.CodeConfigInvalid, fmt.Sprintf("path escapes vault: %s", path), apperrors.CategoryInternal)
	}
	return abs, nil
}
