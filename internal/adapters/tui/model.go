// Package tui is the terminal chat front end: a transcript viewport, a query
// input and a sidebar with the session counters.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// Agent is the TUI-facing subset of the support agent.
type Agent interface {
	GenerateResponse(ctx context.Context, query string) (*entities.AgentResponse, error)
}

type turn struct {
	query string
	resp  *entities.AgentResponse
	err   error
}

// answerMsg carries the agent result back into Update.
type answerMsg struct {
	query string
	resp  *entities.AgentResponse
	err   error
}

const sidebarWidth = 30

// Model is the Bubble Tea model for the chat.
type Model struct {
	ctx         context.Context
	agent       Agent
	session     *entities.Session
	input       textinput.Model
	viewport    viewport.Model
	turns       []turn
	busy        bool
	showSources bool
	status      string
	ready       bool
}

// New creates a chat model bound to one session.
func New(ctx context.Context, agent Agent, session *entities.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about Flow and press Enter"
	ti.Focus()
	ti.CharLimit = 500
	return Model{
		ctx:      ctx,
		agent:    agent,
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready. Ctrl+S toggles sources, Esc quits.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, resizes and agent answers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, qh := queryBoxStyle.GetFrameSize()
		_, th := transcriptStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-sidebarWidth-4)
		m.viewport.Height = max(3, msg.Height-qh-th-4)
		m.input.Width = max(10, msg.Width-sidebarWidth-8)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		m.session.Record(msg.resp)
		m.settle(msg)
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Answered in %d ms", msg.resp.ProcessingTimeMs)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.showSources = !m.showSources
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.Reset()
			m.status = "Searching documentation..."
			m.turns = append(m.turns, turn{query: q})
			m.refresh()
			return m, m.ask(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	vp, vcmd := m.viewport.Update(msg)
	m.viewport = vp
	return m, tea.Batch(cmd, vcmd)
}

// ask runs the agent off the UI goroutine.
func (m Model) ask(query string) tea.Cmd {
	ctx, agent := m.ctx, m.agent
	return func() tea.Msg {
		resp, err := agent.GenerateResponse(ctx, query)
		return answerMsg{query: query, resp: resp, err: err}
	}
}

// View renders the transcript, sidebar, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("FlowSupport AI")
	main := lipgloss.JoinVertical(lipgloss.Left,
		transcriptStyle.Render(m.viewport.View()),
		queryBoxStyle.Render(m.input.View()),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, sidebarStyle.Render(m.renderSidebar()))
	return header + "\n" + body + "\n" + statusStyle.Render(m.status)
}

// settle fills the pending turn for the answered query.
func (m *Model) settle(msg answerMsg) {
	for i := len(m.turns) - 1; i >= 0; i-- {
		t := &m.turns[i]
		if t.query == msg.query && t.resp == nil && t.err == nil {
			t.resp, t.err = msg.resp, msg.err
			return
		}
	}
	m.turns = append(m.turns, turn{query: msg.query, resp: msg.resp, err: msg.err})
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return mutedStyle.Render("Try: \"How do I change my hotkey?\" or \"I want a refund\"")
	}
	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(userStyle.Render("You: ") + t.query + "\n")
		switch {
		case t.err != nil:
			b.WriteString(errorStyle.Render("Error: "+t.err.Error()) + "\n")
		case t.resp == nil:
			b.WriteString(mutedStyle.Render("...") + "\n")
		default:
			b.WriteString(renderAnswer(t.resp, width, m.showSources))
		}
	}
	return b.String()
}

func renderAnswer(r *entities.AgentResponse, width int, sources bool) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Render(r.Response) + "\n")

	meta := fmt.Sprintf("%s confidence · relevance %.1f%% · %d ms",
		r.Confidence, r.AvgRelevanceScore*100, r.ProcessingTimeMs)
	b.WriteString(confidenceStyle(r.Confidence).Render(meta) + "\n")

	if r.Escalation.ShouldEscalate {
		b.WriteString(escalationStyle.Render(fmt.Sprintf("Escalated to %s (%s): %s",
			r.Escalation.Team("General Support"), r.Escalation.Priority, r.Escalation.Reason)) + "\n")
	}
	if sources {
		for i, d := range r.RetrievedDocs {
			if i == 3 {
				break
			}
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d. %s p.%s (%.1f%%)",
				i+1, d.Source, d.Page, d.RelevanceScore*100)) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderSidebar() string {
	st := m.session.Stats()
	lines := []string{
		titleStyle.Render("Session"),
		fmt.Sprintf("Total queries   %d", st.TotalQueries),
		fmt.Sprintf("Escalations     %d", st.Escalations),
	}
	if st.TotalQueries > 0 {
		lines = append(lines,
			fmt.Sprintf("Autonomous      %.0f%%", st.AutonomousRate),
			fmt.Sprintf("High confidence %.0f%%", st.HighConfidenceRate),
			fmt.Sprintf("Clarifications  %.0f%%", st.ClarificationRate),
		)
	}
	return strings.Join(lines, "\n")
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(sidebarWidth - 4)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	escalationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func confidenceStyle(c entities.ConfidenceLevel) lipgloss.Style {
	switch c {
	case entities.ConfidenceHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case entities.ConfidenceMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
}
