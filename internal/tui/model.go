package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"report-rag/internal/rag"
)

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	botStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Responder is the TUI-facing subset of the RAG service.
type Responder interface {
	GetContext(ctx context.Context, query string, k int) (string, error)
	Respond(ctx context.Context, history []rag.Message, contextText string) (string, error)
}

type answerMsg struct {
	content string
	err     error
}

// Model is the Bubble Tea model for the chat session: a message history, a
// query input and a clear-history action.
type Model struct {
	svc      Responder
	k        int
	input    textinput.Model
	viewport viewport.Model
	history  []rag.Message
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat TUI over the given RAG service.
func New(svc Responder, k int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the report and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		svc:      svc,
		k:        k,
		input:    ti,
		viewport: vp,
		status:   "Ready. Enter submits, ctrl+l clears history, esc quits.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = append(m.history, rag.Message{Role: rag.RoleAssistant, Content: msg.content})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlL:
			m.history = nil
			m.status = "History cleared."
			m.viewport.SetContent(m.renderHistory())
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.history = append(m.history, rag.Message{Role: rag.RoleUser, Content: q})
			m.input.Reset()
			m.waiting = true
			m.status = "Searching the report..."
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs retrieval and chat completion off the UI loop.
func (m Model) ask(query string) tea.Cmd {
	history := make([]rag.Message, len(m.history))
	copy(history, m.history)
	svc, k := m.svc, m.k
	return func() tea.Msg {
		ctx := context.Background()
		contextText, err := svc.GetContext(ctx, query, k)
		if err != nil {
			return answerMsg{err: err}
		}
		content, err := svc.Respond(ctx, history, contextText)
		return answerMsg{content: content, err: err}
	}
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return statusStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for _, msg := range m.history {
		if msg.Role == rag.RoleUser {
			b.WriteString(userStyle.Render("You") + "\n")
		} else {
			b.WriteString(botStyle.Render("Assistant") + "\n")
		}
		b.WriteString(msg.Content + "\n\n")
	}
	return b.String()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Report Chat Assistant")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}
