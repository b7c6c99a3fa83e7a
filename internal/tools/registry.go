// Package tools provides a unified tool registry with schemas and executors.
//
// The declared action set is a fixed contract: adding an action means adding
// one schema entry and one executor here, without touching the agent loop.
package tools

import (
	"context"
	"encoding/json"

	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/tools/executor"
	"github.com/quill-ai/quill/internal/tools/schemas"
	"github.com/quill-ai/quill/internal/vault"
)

// Registry combines schemas and executors for complete tool management.
type Registry struct {
	schemas   *schemas.Registry
	executors *executor.Registry
}

// NewRegistry creates a registry with the vault actions registered.
func NewRegistry(v vault.Vault) *Registry {
	r := &Registry{
		schemas:   schemas.NewRegistry(),
		executors: executor.NewRegistry(),
	}
	r.initialize(v)
	return r
}

// Register registers both a schema and executor for a tool.
func (r *Registry) Register(tool executor.Tool, schema *schemas.Schema) {
	r.executors.Register(tool)
	r.schemas.Register(schema)
}

// Schemas returns the schema registry.
func (r *Registry) Schemas() *schemas.Registry {
	return r.schemas
}

// Tools returns all declared actions in the completion-service wire format,
// in stable name order.
func (r *Registry) Tools() []model.Tool {
	all := r.schemas.All()
	out := make([]model.Tool, 0, len(all))
	for _, s := range all {
		out = append(out, model.Tool{
			Type: "function",
			Function: model.ToolDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return out
}

// Dispatch executes one model-requested call and returns the textual result
// fed back into the conversation. It never fails: unknown actions and
// malformed payloads degrade to error text the model can react to.
func (r *Registry) Dispatch(ctx context.Context, call model.ToolCall) string {
	result := r.executors.Execute(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
	return result.Text
}

// initialize registers the vault actions with their schemas and executors.
func (r *Registry) initialize(v vault.Vault) {
	r.Register(&executor.ReadNote{Vault: v}, schemas.NewSchema("read_note", "Read the full content of a note in the vault").
		AddParam("file_path", "string", "Vault path or file name of the note", true).
		Build())

	r.Register(&executor.ListFiles{Vault: v}, schemas.NewSchema("list_files", "List notes in the vault, grouped by folder").
		AddParam("folder_path", "string", "Only list notes under this folder", false).
		AddParam("include_folders", "boolean", "Include folder headers in the listing", false).
		Build())

	r.Register(&executor.EditFile{Vault: v}, schemas.NewSchema("edit_file", "Edit an existing note").
		AddParam("file_path", "string", "Vault path or file name of the note", true).
		AddParam("content", "string", "Content to write", true).
		AddParamWithEnum("mode", "string", "How to apply the content", []string{"replace", "append", "prepend"}, true).
		Build())

	r.Register(&executor.CreateFile{Vault: v}, schemas.NewSchema("create_file", "Create a new note at a vault path").
		AddParam("file_path", "string", "Vault path for the new note", true).
		AddParam("content", "string", "Initial content", true).
		Build())

	r.Register(&executor.CreateFolder{Vault: v}, schemas.NewSchema("create_folder", "Create a folder at a vault path").
		AddParam("folder_path", "string", "Vault path for the folder", true).
		Build())
}
