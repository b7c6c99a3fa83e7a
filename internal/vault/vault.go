// Package vault provides access to the user's note collection.
//
// A vault is a tree of plain-text notes addressable by hierarchical,
// slash-separated paths relative to the vault root.
package vault

import "context"

// Note identifies a document in the vault.
type Note struct {
	// Path is the slash-separated path relative to the vault root,
	// including the note extension.
	Path string

	// Title is the base file name without the extension.
	Title string
}

// Folder returns the parent folder of the note, or "" for root-level notes.
func (n Note) Folder() string {
	for i := len(n.Path) - 1; i >= 0; i-- {
		if n.Path[i] == '/' {
			return n.Path[:i]
		}
	}
	return ""
}

// Vault exposes the note collection to the rest of the system.
//
// Writes are single atomic operations from the caller's point of view; the
// host environment serializes access to any one note.
type Vault interface {
	// Notes enumerates all notes with path and title metadata.
	Notes(ctx context.Context) ([]Note, error)

	// Read returns the full text of the note at path.
	Read(ctx context.Context, path string) (string, error)

	// Write replaces the full text of an existing note.
	Write(ctx context.Context, path, content string) error

	// Create creates a new note at path. Intervening folders are created
	// as needed; an already-existing folder is not an error.
	Create(ctx context.Context, path, content string) (Note, error)

	// CreateFolder creates a folder at path, parents included.
	CreateFolder(ctx context.Context, path string) error

	// NoteExists reports whether a note exists at path.
	NoteExists(path string) bool

	// FolderExists reports whether a folder exists at path.
	FolderExists(path string) bool

	// Extension returns the note file extension, including the dot.
	Extension() string
}
