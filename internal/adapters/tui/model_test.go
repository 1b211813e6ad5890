package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

type fakeAgent struct {
	resp    *entities.AgentResponse
	err     error
	queries []string
}

func (f *fakeAgent) GenerateResponse(ctx context.Context, query string) (*entities.AgentResponse, error) {
	f.queries = append(f.queries, query)
	return f.resp, f.err
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func submit(t *testing.T, m Model, query string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(query)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_AskRecordsSession(t *testing.T) {
	agent := &fakeAgent{resp: &entities.AgentResponse{
		Response:   "Open Settings and pick a new hotkey.",
		Confidence: entities.ConfidenceHigh,
		Escalation: entities.EscalationDecision{Reason: "Can be answered from documentation"},
	}}
	sess := entities.NewSession("cli")
	m := sized(t, New(context.Background(), agent, sess))

	m, cmd := submit(t, m, "  How do I change my hotkey on Mac? ")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value(), "input clears on submit")
	assert.Zero(t, sess.Stats().TotalQueries, "nothing recorded before the answer arrives")

	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.False(t, m.busy)
	assert.Len(t, m.turns, 1, "the answer fills the pending turn")
	assert.Equal(t, []string{"How do I change my hotkey on Mac?"}, agent.queries)
	st := sess.Stats()
	assert.Equal(t, 1, st.TotalQueries)
	assert.Equal(t, 1, st.HighConfidence)
	assert.Contains(t, m.renderTranscript(), "Open Settings and pick a new hotkey.")
	assert.Contains(t, m.renderSidebar(), "Total queries   1")
	assert.Contains(t, m.View(), "FlowSupport AI")
}

func TestModel_EscalationShown(t *testing.T) {
	agent := &fakeAgent{resp: &entities.AgentResponse{
		Response:   "I'd like to connect you with our support team.",
		Confidence: entities.ConfidenceLow,
		Escalation: entities.EscalationDecision{
			ShouldEscalate: true,
			Reason:         "Billing dispute detected: 'refund'",
			Priority:       entities.PriorityHigh,
			SuggestedTeam:  entities.TeamPtr("billing"),
		},
	}}
	sess := entities.NewSession("cli")
	m := sized(t, New(context.Background(), agent, sess))

	m, cmd := submit(t, m, "I want a refund")
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Contains(t, m.renderTranscript(), "Escalated to billing (high)")
	assert.Equal(t, 1, sess.Stats().Escalations)
}

func TestModel_ErrorAnswer(t *testing.T) {
	agent := &fakeAgent{err: errors.New("index unavailable")}
	sess := entities.NewSession("cli")
	m := sized(t, New(context.Background(), agent, sess))

	m, cmd := submit(t, m, "hello")
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Contains(t, m.status, "index unavailable")
	assert.Contains(t, m.renderTranscript(), "index unavailable")
	assert.Zero(t, sess.Stats().TotalQueries, "failed queries are not counted")
}

func TestModel_IgnoresEmptyAndBusySubmits(t *testing.T) {
	agent := &fakeAgent{resp: &entities.AgentResponse{}}
	m := sized(t, New(context.Background(), agent, entities.NewSession("cli")))

	_, cmd := submit(t, m, "   ")
	assert.Nil(t, cmd)

	m, cmd = submit(t, m, "first")
	require.NotNil(t, cmd)
	_, cmd = submit(t, m, "second")
	assert.Nil(t, cmd, "a second query waits for the first answer")
}

func TestModel_ToggleSourcesAndQuit(t *testing.T) {
	agent := &fakeAgent{resp: &entities.AgentResponse{
		Response: "answer",
		RetrievedDocs: []entities.RetrievedDocument{
			{Source: "guide.pdf", Page: "3", RelevanceScore: 0.9},
		},
	}}
	m := sized(t, New(context.Background(), agent, entities.NewSession("cli")))
	m, cmd := submit(t, m, "q")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.NotContains(t, m.renderTranscript(), "guide.pdf")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	assert.Contains(t, m.renderTranscript(), "guide.pdf p.3")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := New(context.Background(), &fakeAgent{}, entities.NewSession("cli"))
	assert.Equal(t, "Loading...", m.View())
}
