// Package tui provides an interactive chat view over the conversation loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quill-ai/quill/internal/agent"
	"github.com/quill-ai/quill/internal/model"
	"github.com/quill-ai/quill/internal/search"
)

// State represents the current state of the chat view.
type State int

const (
	StateReady   State = iota // Ready for input
	StateWaiting              // Request in flight
)

type entry struct {
	role string
	text string
}

// answerMsg delivers a completed run.
type answerMsg struct {
	result *agent.Result
	err    error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State

	agent        *agent.Agent
	engine       *search.Engine // nil when search is disabled
	toolsEnabled bool

	history    []model.Message
	transcript []entry

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool
}

// NewModel creates the chat model. engine may be nil to disable grounding.
func NewModel(a *agent.Agent, engine *search.Engine, toolsEnabled bool) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your notes..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	vp := viewport.New(80, 20)

	return Model{
		state:        StateReady,
		agent:        a,
		engine:       engine,
		toolsEnabled: toolsEnabled,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
	}
}

// Run starts the chat program in the alternate screen.
func Run(a *agent.Agent, engine *search.Engine, toolsEnabled bool) error {
	p := tea.NewProgram(NewModel(a, engine, toolsEnabled), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case answerMsg:
		return m.handleAnswer(msg)

	case spinner.TickMsg:
		if m.state == StateWaiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.state == StateReady {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// Header, input line and status line are fixed-height.
	const reservedHeight = 4
	vpHeight := m.height - reservedHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.input.Width = m.width - 4
	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit

	case "esc":
		if m.state == StateReady {
			return m, tea.Quit
		}
		return m, nil

	case "pgup", "ctrl+u":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown", "ctrl+d":
		m.viewport.HalfViewDown()
		return m, nil

	case "enter":
		if m.state == StateReady && strings.TrimSpace(m.input.Value()) != "" {
			return m.submit()
		}
		return m, nil
	}

	// Input is inert while a request is in flight.
	if m.state != StateReady {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	message := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.input.Blur()
	m.state = StateWaiting

	m.transcript = append(m.transcript, entry{role: "user", text: message})
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spinner.Tick, m.ask(message))
}

// ask runs search grounding and the conversation loop off the UI goroutine.
func (m Model) ask(message string) tea.Cmd {
	a := m.agent
	engine := m.engine
	history := m.history
	useTools := m.toolsEnabled

	return func() tea.Msg {
		ctx := context.Background()

		var grounding []search.Result
		if engine != nil {
			grounding, _ = engine.Search(ctx, message)
		}

		result, err := a.Run(ctx, agent.Request{
			Message:   message,
			History:   history,
			Grounding: grounding,
			UseTools:  useTools,
		})
		return answerMsg{result: result, err: err}
	}
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.input.Focus()

	switch {
	case msg.err != nil && msg.result == nil:
		m.transcript = append(m.transcript, entry{role: "error", text: msg.err.Error()})

	case msg.err != nil:
		// Iteration cap: keep the transcript but flag the missing answer.
		m.history = msg.result.Messages
		m.transcript = append(m.transcript, entry{
			role: "error",
			text: "The conversation hit the action limit before producing an answer.",
		})

	default:
		m.history = msg.result.Messages
		m.transcript = append(m.transcript, entry{role: "assistant", text: msg.result.Answer})
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) renderTranscript() string {
	var sb strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch e.role {
		case "user":
			sb.WriteString(userStyle.Render("You: ") + e.text)
		case "assistant":
			sb.WriteString(assistantStyle.Render(e.text))
		case "error":
			sb.WriteString(errorStyle.Render("Error: " + e.text))
		}
	}
	return sb.String()
}

// View renders the chat view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := statusStyle.Render("enter: send | esc: quit | pgup/pgdn: scroll")
	inputLine := m.input.View()
	if m.state == StateWaiting {
		inputLine = m.spinner.View() + " thinking..."
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		titleStyle.Render("Quill"),
		m.viewport.View(),
		inputLine,
		status)
}
