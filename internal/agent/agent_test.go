package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/search"
	"github.com/quill-ai/quill/internal/tools"
	"github.com/quill-ai/quill/internal/vault"
)

// scriptedClient replays a fixed sequence of assistant turns and records
// every request it receives.
type scriptedClient struct {
	turns    []model.Message
	err      error
	requests []model.ChatRequest
}

func (c *scriptedClient) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	c.requests = append(c.requests, *req)
	if c.err != nil {
		return nil, c.err
	}
	turn := c.turns[0]
	if len(c.turns) > 1 {
		c.turns = c.turns[1:]
	}
	return &model.ChatResponse{
		Message: turn,
		Usage:   model.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (c *scriptedClient) IsAvailable() bool { return true }
func (c *scriptedClient) Name() string      { return "scripted" }

func assistantText(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}

func assistantCalls(calls ...model.ToolCall) model.Message {
	return model.Message{Role: model.RoleAssistant, ToolCalls: calls}
}

func call(id, name, args string) model.ToolCall {
	return model.ToolCall{
		ID:       id,
		Type:     "function",
		Function: model.FunctionCall{Name: name, Arguments: args},
	}
}

func newAgent(t *testing.T, client model.Client, maxIterations int) (*Agent, *vault.FS) {
	t.Helper()
	v, err := vault.NewFS(t.TempDir(), ".md")
	require.NoError(t, err)
	return New(Config{
		Client:        client,
		Tools:         tools.NewRegistry(v),
		MaxIterations: maxIterations,
	}), v
}

func TestImmediateAnswerTerminatesAfterOneCall(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{assistantText("the answer")}}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "question", UseTools: true})
	require.NoError(t, err)
	assert.Equal(t, "the answer", res.Answer)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, client.requests, 1)

	// The request offered the declared actions with automatic tool choice.
	assert.Equal(t, "auto", client.requests[0].ToolChoice)
	assert.NotEmpty(t, client.requests[0].Tools)
}

func TestToolBatchDispatchedInOrder(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(
			call("a", "create_file", `{"file_path":"one","content":"1"}`),
			call("b", "create_file", `{"file_path":"two","content":"2"}`),
			call("c", "list_files", `{}`),
		),
		assistantText("done"),
	}}
	a, v := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "make notes", UseTools: true})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Answer)
	assert.Equal(t, 2, res.Iterations)

	// Transcript: system, user, assistant batch, tools a/b/c, final answer.
	require.Len(t, res.Messages, 7)
	assert.Equal(t, model.RoleSystem, res.Messages[0].Role)
	assert.Equal(t, model.RoleUser, res.Messages[1].Role)
	assert.Equal(t, model.RoleAssistant, res.Messages[2].Role)
	for i, wantID := range []string{"a", "b", "c"} {
		m := res.Messages[3+i]
		assert.Equal(t, model.RoleTool, m.Role)
		assert.Equal(t, wantID, m.ToolCallID)
	}
	assert.Equal(t, model.RoleAssistant, res.Messages[6].Role)

	// Side effects happened in request order.
	assert.True(t, v.NoteExists("one.md"))
	assert.True(t, v.NoteExists("two.md"))
}

func TestUsageSummedAcrossIterations(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(call("a", "list_files", `{}`)),
		assistantText("done"),
	}}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "list", UseTools: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 30, res.Usage.TotalTokens)
	assert.Equal(t, 20, res.Usage.PromptTokens)
}

func TestToolFailureFedBackNotFatal(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(call("x", "read_note", `{"file_path":"missing.md"}`)),
		assistantText("recovered"),
	}}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "read it", UseTools: true})
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Answer)

	toolMsg := res.Messages[3]
	assert.Equal(t, model.RoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "could not find file")
}

func TestMaxIterationsSoftFail(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(call("loop", "list_files", `{}`)),
	}}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "spin", UseTools: true})
	require.ErrorIs(t, err, ErrMaxIterations)
	assert.Empty(t, res.Answer)
	assert.Equal(t, DefaultMaxIterations, res.Iterations)
	assert.Len(t, client.requests, DefaultMaxIterations)
}

func TestConfiguredIterationCap(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(call("loop", "list_files", `{}`)),
	}}
	a, _ := newAgent(t, client, 3)

	_, err := a.Run(context.Background(), Request{Message: "spin", UseTools: true})
	require.ErrorIs(t, err, ErrMaxIterations)
	assert.Len(t, client.requests, 3)
}

func TestTransportErrorAborts(t *testing.T) {
	boom := errors.New("status 500")
	client := &scriptedClient{err: boom}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "hi", UseTools: true})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)
}

func TestHistorySystemTurnsDropped(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{assistantText("ok")}}
	a, _ := newAgent(t, client, 0)

	history := []model.Message{
		model.SystemMessage("stale instructions"),
		model.UserMessage("earlier question"),
		assistantText("earlier answer"),
	}
	_, err := a.Run(context.Background(), Request{Message: "next", History: history, UseTools: true})
	require.NoError(t, err)

	sent := client.requests[0].Messages
	systemCount := 0
	for _, m := range sent {
		if m.Role == model.RoleSystem {
			systemCount++
			assert.NotContains(t, m.Content, "stale instructions")
		}
	}
	assert.Equal(t, 1, systemCount)
	assert.Equal(t, "earlier question", sent[1].Content)
}

func TestGroundingInjectedIntoSystemPrompt(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{assistantText("ok")}}
	a, _ := newAgent(t, client, 0)

	long := strings.Repeat("x", 2000)
	grounding := []search.Result{{
		Note:    vault.Note{Path: "Projects/Plan.md", Title: "Plan"},
		Content: long,
		Score:   6,
	}}
	_, err := a.Run(context.Background(), Request{Message: "q", Grounding: grounding, UseTools: true})
	require.NoError(t, err)

	system := client.requests[0].Messages[0]
	assert.Contains(t, system.Content, "Plan")
	assert.Contains(t, system.Content, "Projects/Plan.md")
	// The excerpt is bounded, so the full 2000-byte note never ships.
	assert.Less(t, len(system.Content), 1500)
}

func TestSimplePathSingleCallNoTools(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{assistantText("plain answer")}}
	a, _ := newAgent(t, client, 0)

	grounding := []search.Result{{
		Note:    vault.Note{Path: "a.md", Title: "a"},
		Content: "grounding text",
	}}
	res, err := a.Run(context.Background(), Request{Message: "q", Grounding: grounding, UseTools: false})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", res.Answer)
	require.Len(t, client.requests, 1)

	req := client.requests[0]
	assert.Empty(t, req.Tools)
	assert.Empty(t, req.ToolChoice)

	// Grounding is folded into the single user turn.
	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, model.RoleUser, last.Role)
	assert.Contains(t, last.Content, "grounding text")
	assert.Contains(t, last.Content, "q")
}

func TestMissingCallIDsNormalized(t *testing.T) {
	client := &scriptedClient{turns: []model.Message{
		assistantCalls(call("", "list_files", `{}`)),
		assistantText("done"),
	}}
	a, _ := newAgent(t, client, 0)

	res, err := a.Run(context.Background(), Request{Message: "list", UseTools: true})
	require.NoError(t, err)

	assistant := res.Messages[2]
	toolMsg := res.Messages[3]
	assert.NotEmpty(t, assistant.ToolCalls[0].ID)
	assert.Equal(t, assistant.ToolCalls[0].ID, toolMsg.ToolCallID)
}
