// Package agent drives a bounded multi-turn exchange with the completion
// service, letting the model take zero or more vault actions before it
// produces a final answer.
package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/search"
	"github.com/quill-ai/quill/internal/tools"
)

// DefaultMaxIterations is the circuit breaker against runaway tool-call
// cycles, e.g. a model that keeps requesting the same read without ever
// concluding.
const DefaultMaxIterations = 10

// ErrMaxIterations reports that the loop stopped before the model produced
// a final answer. It is a soft-fail condition, not a transport failure.
var ErrMaxIterations = errors.New("agent reached maximum iterations")

// Agent orchestrates conversations with the completion service.
type Agent struct {
	client        model.Client
	tools         *tools.Registry
	logger        *zap.Logger
	maxIterations int
	excerptChars  int
}

// Config configures the agent.
type Config struct {
	Client        model.Client
	Tools         *tools.Registry
	Logger        *zap.Logger
	MaxIterations int // 0 means DefaultMaxIterations
	ExcerptChars  int // 0 means DefaultExcerptChars
}

// New creates an agent.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	excerptChars := cfg.ExcerptChars
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	return &Agent{
		client:        cfg.Client,
		tools:         cfg.Tools,
		logger:        logger,
		maxIterations: maxIterations,
		excerptChars:  excerptChars,
	}
}

// Request is one user turn. Search and tool use are explicit inputs; the
// loop reads no ambient state.
type Request struct {
	// Message is the new user message.
	Message string

	// History is the prior conversation. System-role entries are dropped
	// to avoid duplicating operating instructions.
	History []model.Message

	// Grounding holds search results injected into the system prompt.
	Grounding []search.Result

	// UseTools enables the tool-calling loop. When false exactly one
	// completion call is made and no tool can be invoked.
	UseTools bool
}

// Result is the outcome of a completed run.
type Result struct {
	// Answer is the user-visible final answer.
	Answer string

	// Messages is the full transcript of the run, tool turns included.
	Messages []model.Message

	// Iterations counts completion-service calls made.
	Iterations int

	// Usage sums token counts across all completion calls in the run.
	Usage model.Usage
}

func (r *Result) addUsage(u model.Usage) {
	r.Usage.PromptTokens += u.PromptTokens
	r.Usage.CompletionTokens += u.CompletionTokens
	r.Usage.TotalTokens += u.TotalTokens
}

// Run drives the conversation until the model stops requesting actions or
// the iteration cap is hit.
//
// Only transport and configuration errors abort the run. Tool failures are
// folded into the conversation as textual results so the model can
// self-correct.
func (a *Agent) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.UseTools {
		return a.runSimple(ctx, req)
	}

	messages := make([]model.Message, 0, len(req.History)+2)
	messages = append(messages, model.SystemMessage(systemPrompt(req.Grounding, a.excerptChars)))
	messages = append(messages, dropSystemTurns(req.History)...)
	messages = append(messages, model.UserMessage(req.Message))

	toolDefs := a.tools.Tools()

	result := &Result{}
	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		resp, err := a.client.Chat(ctx, &model.ChatRequest{
			Messages:   messages,
			Tools:      toolDefs,
			ToolChoice: "auto",
		})
		if err != nil {
			// Conversation state is left as-is: no partial assistant
			// message is appended.
			return nil, err
		}
		result.addUsage(resp.Usage)

		assistant := resp.Message
		normalizeToolCalls(assistant.ToolCalls)
		messages = append(messages, assistant)

		if len(assistant.ToolCalls) == 0 {
			result.Answer = assistant.Content
			result.Messages = messages
			result.Iterations = iteration
			return result, nil
		}

		// A tool-calling turn is never a final answer; its content, if
		// any, stays out of the user-visible result. Calls run strictly
		// in the order the model requested them, and one call's failure
		// never skips the rest of the batch.
		for _, call := range assistant.ToolCalls {
			a.logger.Debug("dispatching tool call",
				zap.String("tool", call.Function.Name),
				zap.String("call_id", call.ID),
				zap.Int("iteration", iteration))
			output := a.tools.Dispatch(ctx, call)
			messages = append(messages, model.ToolMessage(call.ID, output))
		}
	}

	a.logger.Warn("agent hit iteration cap", zap.Int("max_iterations", a.maxIterations))
	result.Messages = messages
	result.Iterations = a.maxIterations
	return result, ErrMaxIterations
}

// runSimple is the non-agentic path: grounding is folded into the user
// turn and exactly one completion call is made, with no tools offered.
func (a *Agent) runSimple(ctx context.Context, req Request) (*Result, error) {
	messages := append([]model.Message{}, dropSystemTurns(req.History)...)
	messages = append(messages, model.UserMessage(groundedUserTurn(req.Message, req.Grounding, a.excerptChars)))

	resp, err := a.client.Chat(ctx, &model.ChatRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	messages = append(messages, resp.Message)
	return &Result{
		Answer:     resp.Message.Content,
		Messages:   messages,
		Iterations: 1,
		Usage:      resp.Usage,
	}, nil
}

// dropSystemTurns filters prior system-role entries out of the history.
func dropSystemTurns(history []model.Message) []model.Message {
	out := make([]model.Message, 0, len(history))
	for _, m := range history {
		if m.Role == model.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// normalizeToolCalls fills in missing call ids so every tool result can be
// correlated. Ids come from the completion service and are untrusted.
func normalizeToolCalls(calls []model.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
}
