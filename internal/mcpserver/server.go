// Package mcpserver exposes read-only vault access over the Model Context
// Protocol, so external MCP clients can search and read notes.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/search"
	"github.com/quill-ai/quill/internal/tools"
	"github.com/quill-ai/quill/internal/vault"
)

// Version is reported in the MCP handshake.
const Version = "1.0.0"

// Server serves vault tools over an MCP transport.
type Server struct {
	registry *tools.Registry
	engine   *search.Engine
	logger   *zap.Logger
}

// New creates a server over the given vault.
func New(v vault.Vault, engine *search.Engine, logger *zap.Logger) *Server {
	return &Server{
		registry: tools.NewRegistry(v),
		engine:   engine,
		logger:   logger,
	}
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", zap.String("version", Version))
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "quill", Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_note",
		Description: "Read the full content of a note in the vault",
	}, s.readNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List notes in the vault, grouped by folder",
	}, s.listFiles)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Search notes by relevance to a query",
	}, s.searchNotes)

	return server
}

type readNoteInput struct {
	FilePath string `json:"file_path" jsonschema:"vault path or file name of the note"`
}

type listFilesInput struct {
	FolderPath string `json:"folder_path,omitempty" jsonschema:"only list notes under this folder"`
}

type searchNotesInput struct {
	Query string `json:"query" jsonschema:"text to search the vault for"`
}

func (s *Server) readNote(ctx context.Context, req *mcp.CallToolRequest, in readNoteInput) (*mcp.CallToolResult, any, error) {
	return s.dispatch(ctx, "read_note", map[string]any{"file_path": in.FilePath})
}

func (s *Server) listFiles(ctx context.Context, req *mcp.CallToolRequest, in listFilesInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"include_folders": true}
	if in.FolderPath != "" {
		args["folder_path"] = in.FolderPath
	}
	return s.dispatch(ctx, "list_files", args)
}

func (s *Server) searchNotes(ctx context.Context, req *mcp.CallToolRequest, in searchNotesInput) (*mcp.CallToolResult, any, error) {
	results, err := s.engine.Search(ctx, in.Query)
	if err != nil {
		return nil, nil, err
	}
	return textResult(formatResults(in.Query, results)), nil, nil
}

// dispatch routes through the shared action registry so MCP clients see
// exactly the behavior the conversation loop sees.
func (s *Server) dispatch(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, any, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, nil, err
	}
	text := s.registry.Dispatch(ctx, model.ToolCall{
		Type:     "function",
		Function: model.FunctionCall{Name: name, Arguments: string(payload)},
	})
	s.logger.Debug("mcp tool dispatched", zap.String("tool", name))
	return textResult(text), nil, nil
}

func formatResults(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No notes matched %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d notes matched %q:\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(&sb, "\n%s (score %.1f)\n", r.Note.Path, r.Score)
		for _, line := range r.Matches {
			fmt.Fprintf(&sb, "  > %s\n", line)
		}
	}
	return sb.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
