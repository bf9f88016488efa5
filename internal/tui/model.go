// Package tui is the terminal chat front end. It renders the running
// conversation and drives one session; questions are dispatched as
// asynchronous commands so the interface stays responsive while the
// model answers.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docuchat/docuchat/internal/chat"
)

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type answerMsg struct {
	question string
	resp     chat.Response
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	manager  *chat.Manager
	session  *chat.Session
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	lines    []string
	status   string
	waiting  bool
	ready    bool
}

// New creates the chat screen bound to a fresh session.
func New(manager *chat.Manager, identity string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		manager:  manager,
		session:  manager.Open(identity),
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   "Connected. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		vh := msg.Height - th - ih - 3
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.manager.Close(m.session.ID)
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.status = "Thinking..."
			m.appendLine(questionStyle.Render("You: ") + question)
			return m, tea.Batch(m.spin.Tick, m.ask(question))
		}

	case answerMsg:
		m.waiting = false
		m.status = "Ready."
		m.renderResponse(msg.resp)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, input box, and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DocuChat")
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spin.View() + " " + status
	}
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *Model) ask(question string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		answer, err := session.Ask(context.Background(), question)
		return answerMsg{question: question, resp: chat.ResponseFor(answer, err)}
	}
}

func (m *Model) renderResponse(resp chat.Response) {
	if resp.Error != nil {
		m.appendLine(errorStyle.Render(resp.Error.Message))
		m.appendLine("")
		return
	}
	m.appendLine("Assistant: " + resp.Answer)
	for _, src := range resp.Sources {
		m.appendLine(sourceStyle.Render(fmt.Sprintf("  source: %s (chunk %d, score %.3f)", src.Filename, src.ChunkIndex, src.Score)))
	}
	m.appendLine("")
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}
