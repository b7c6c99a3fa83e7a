// Package executor provides the vault tool implementations.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/quill-ai/quill/internal/vault"
)

// maxCandidates caps the file-name hints included in not-found results.
const maxCandidates = 10

// resolveNote resolves a requested path to an existing note. The literal
// path wins; otherwise the first note whose base name matches (with or
// without the extension) does.
func resolveNote(ctx context.Context, v vault.Vault, requested string) (vault.Note, bool) {
	if v.NoteExists(requested) {
		base := path.Base(requested)
		return vault.Note{Path: requested, Title: strings.TrimSuffix(base, v.Extension())}, true
	}

	notes, err := v.Notes(ctx)
	if err != nil {
		return vault.Note{}, false
	}

	base := path.Base(requested)
	bare := strings.TrimSuffix(base, v.Extension())
	for _, note := range notes {
		if path.Base(note.Path) == base || note.Title == bare {
			return note, true
		}
	}
	return vault.Note{}, false
}

// notFoundText builds the error text for an unresolvable path, with up to
// maxCandidates file names as actionable hints.
func notFoundText(ctx context.Context, v vault.Vault, requested string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: could not find file %q.", requested)

	notes, err := v.Notes(ctx)
	if err != nil || len(notes) == 0 {
		return sb.String()
	}

	sb.WriteString(" Available files include:")
	for i, note := range notes {
		if i == maxCandidates {
			break
		}
		sb.WriteString("\n- ")
		sb.WriteString(note.Path)
	}
	return sb.String()
}

// ============================================================
// read_note
// ============================================================

// ReadNote returns the full text of a note.
type ReadNote struct {
	Vault vault.Vault
}

func (t *ReadNote) Name() string        { return "read_note" }
func (t *ReadNote) Description() string { return "Read the full content of a note in the vault" }

type readNoteArgs struct {
	FilePath string `json:"file_path"`
}

func (t *ReadNote) Execute(ctx context.Context, raw json.RawMessage) *Result {
	start := time.Now()

	var args readNoteArgs
	if res := decodeArgs(raw, &args); res != nil {
		return TimedResult(res, start)
	}
	if args.FilePath == "" {
		return TimedResult(NewErrorText("Error: file_path is required"), start)
	}

	note, ok := resolveNote(ctx, t.Vault, args.FilePath)
	if !ok {
		return TimedResult(&Result{Success: false, Text: notFoundText(ctx, t.Vault, args.FilePath)}, start)
	}

	content, err := t.Vault.Read(ctx, note.Path)
	if err != nil {
		return TimedResult(NewErrorText("Error reading %q: %v", note.Path, err), start)
	}
	return TimedResult(NewTextResult(content), start)
}

// ============================================================
// list_files
// ============================================================

// ListFiles lists vault notes, optionally scoped to a folder.
type ListFiles struct {
	Vault vault.Vault
}

func (t *ListFiles) Name() string { return "list_files" }
func (t *ListFiles) Description() string {
	return "List notes in the vault, optionally under a folder, grouped by parent folder"
}

type listFilesArgs struct {
	FolderPath     string `json:"folder_path"`
	IncludeFolders bool   `json:"include_folders"`
}

func (t *ListFiles) Execute(ctx context.Context, raw json.RawMessage) *Result {
	start := time.Now()

	var args listFilesArgs
	if res := decodeArgs(raw, &args); res != nil {
		return TimedResult(res, start)
	}

	notes, err := t.Vault.Notes(ctx)
	if err != nil {
		return TimedResult(NewErrorText("Error listing files: %v", err), start)
	}

	if args.FolderPath != "" {
		return TimedResult(listFolder(notes, args.FolderPath), start)
	}
	return TimedResult(listGrouped(notes, args.IncludeFolders), start)
}

func listFolder(notes []vault.Note, folder string) *Result {
	folder = strings.Trim(folder, "/")
	var sb strings.Builder
	count := 0
	for _, note := range notes {
		if strings.HasPrefix(note.Path, folder+"/") {
			fmt.Fprintf(&sb, "- %s\n", note.Path)
			count++
		}
	}
	fmt.Fprintf(&sb, "%d files in %q", count, folder)
	return NewTextResult(sb.String())
}

func listGrouped(notes []vault.Note, includeFolders bool) *Result {
	groups := make(map[string][]vault.Note)
	var folders []string
	for _, note := range notes {
		folder := note.Folder()
		if _, seen := groups[folder]; !seen {
			folders = append(folders, folder)
		}
		groups[folder] = append(groups[folder], note)
	}
	sort.Strings(folders)

	var sb strings.Builder
	for _, folder := range folders {
		if includeFolders {
			if folder == "" {
				sb.WriteString("(vault root):\n")
			} else {
				fmt.Fprintf(&sb, "%s/:\n", folder)
			}
		}
		for _, note := range groups[folder] {
			fmt.Fprintf(&sb, "- %s\n", note.Path)
		}
	}
	fmt.Fprintf(&sb, "%d files total", len(notes))
	return NewTextResult(sb.String())
}

// ============================================================
// edit_file
// ============================================================

// EditFile rewrites an existing note in one of three modes.
type EditFile struct {
	Vault vault.Vault
}

func (t *EditFile) Name() string { return "edit_file" }
func (t *EditFile) Description() string {
	return "Edit an existing note: replace its content, or append/prepend to it"
}

type editFileArgs struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	Mode     string `json:"mode"`
}

func (t *EditFile) Execute(ctx context.Context, raw json.RawMessage) *Result {
	start := time.Now()

	var args editFileArgs
	if res := decodeArgs(raw, &args); res != nil {
		return TimedResult(res, start)
	}
	if args.FilePath == "" {
		return TimedResult(NewErrorText("Error: file_path is required"), start)
	}

	note, ok := resolveNote(ctx, t.Vault, args.FilePath)
	if !ok {
		return TimedResult(NewErrorText(
			"Error: could not find file %q. Use create_file to create a new file.", args.FilePath), start)
	}

	var updated string
	switch args.Mode {
	case "replace":
		updated = args.Content
	case "append", "prepend":
		current, err := t.Vault.Read(ctx, note.Path)
		if err != nil {
			return TimedResult(NewErrorText("Error reading %q: %v", note.Path, err), start)
		}
		if args.Mode == "append" {
			updated = current + "\n\n" + args.Content
		} else {
			updated = args.Content + "\n\n" + current
		}
	default:
		return TimedResult(NewErrorText(
			"Error: invalid mode %q (expected replace, append or prepend)", args.Mode), start)
	}

	if err := t.Vault.Write(ctx, note.Path, updated); err != nil {
		return TimedResult(NewErrorText("Error writing %q: %v", note.Path, err), start)
	}
	return TimedResult(NewTextResult(fmt.Sprintf("Updated %q (%s)", note.Path, args.Mode)), start)
}

// ============================================================
// create_file
// ============================================================

// CreateFile creates a new note, folders included.
type CreateFile struct {
	Vault vault.Vault
}

func (t *CreateFile) Name() string        { return "create_file" }
func (t *CreateFile) Description() string { return "Create a new note at a vault path" }

type createFileArgs struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

func (t *CreateFile) Execute(ctx context.Context, raw json.RawMessage) *Result {
	start := time.Now()

	var args createFileArgs
	if res := decodeArgs(raw, &args); res != nil {
		return TimedResult(res, start)
	}
	if args.FilePath == "" {
		return TimedResult(NewErrorText("Error: file_path is required"), start)
	}

	target := args.FilePath
	if !strings.HasSuffix(target, t.Vault.Extension()) {
		target += t.Vault.Extension()
	}

	if t.Vault.NoteExists(target) {
		return TimedResult(NewErrorText(
			"Error: file %q already exists. Use edit_file to modify it.", target), start)
	}

	note, err := t.Vault.Create(ctx, target, args.Content)
	if err != nil {
		return TimedResult(NewErrorText("Error creating %q: %v", target, err), start)
	}
	return TimedResult(NewTextResult(fmt.Sprintf("Created %q", note.Path)), start)
}

// ============================================================
// create_folder
// ============================================================

// CreateFolder creates a folder. Creating an existing folder succeeds.
type CreateFolder struct {
	Vault vault.Vault
}

func (t *CreateFolder) Name() string        { return "create_folder" }
func (t *CreateFolder) Description() string { return "Create a folder at a vault path" }

type createFolderArgs struct {
	FolderPath string `json:"folder_path"`
}

func (t *CreateFolder) Execute(ctx context.Context, raw json.RawMessage) *Result {
	start := time.Now()

	var args createFolderArgs
	if res := decodeArgs(raw, &args); res != nil {
		return TimedResult(res, start)
	}
	if args.FolderPath == "" {
		return TimedResult(NewErrorText("Error: folder_path is required"), start)
	}

	if t.Vault.FolderExists(args.FolderPath) {
		return TimedResult(NewTextResult(fmt.Sprintf("Folder %q already exists", args.FolderPath)), start)
	}
	if err := t.Vault.CreateFolder(ctx, args.FolderPath); err != nil {
		return TimedResult(NewErrorText("Error creating folder %q: %v", args.FolderPath, err), start)
	}
	return TimedResult(NewTextResult(fmt.Sprintf("Created folder %q", args.FolderPath)), start)
}
