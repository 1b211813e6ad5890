package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/rules"
)

func newAgent(ret Retriever, llm *mockLLM) *SupportAgent {
	a := NewSupportAgent(ret, llm, rules.Default(), 5)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	a.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 40 * time.Millisecond)
	}
	return a
}

func TestSupportAgent_BillingDisputeEscalates(t *testing.T) {
	llm := &mockLLM{}
	a := newAgent(&mockRetriever{result: withDistances(0.2, 0.3)}, llm)

	resp, err := a.GenerateResponse(context.Background(), "I want a refund")
	require.NoError(t, err)

	assert.True(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, entities.CategoryBilling, resp.Escalation.Category)
	assert.Equal(t, entities.PriorityHigh, resp.Escalation.Priority)
	require.NotNil(t, resp.Escalation.SuggestedTeam)
	assert.Equal(t, "billing", *resp.Escalation.SuggestedTeam)
	assert.Contains(t, resp.Escalation.Reason, "refund")
	assert.Equal(t, entities.ConfidenceLow, resp.Confidence)
	assert.Contains(t, resp.Response, "**Team:** billing")
	assert.Contains(t, resp.Response, SupportEmail)
	assert.Zero(t, llm.calls, "escalated queries never reach the model")
	assert.Len(t, resp.RetrievedDocs, 2, "retrieved documents are still reported")
}

func TestSupportAgent_KeywordEscalationGroups(t *testing.T) {
	tests := []struct {
		query    string
		category entities.QueryCategory
		priority entities.Priority
		team     string
	}{
		{"Please delete my account and all data", entities.CategoryAccount, entities.PriorityUrgent, "privacy"},
		{"Can I talk to a person about this?", entities.CategoryGeneral, entities.PriorityMedium, "general"},
		{"My payment failed twice", entities.CategoryBilling, entities.PriorityHigh, "billing"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			a := newAgent(&mockRetriever{result: withDistances(0.1)}, &mockLLM{})
			d := a.AnalyzeEscalation(tt.query, nil)
			assert.True(t, d.ShouldEscalate)
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, tt.priority, d.Priority)
			assert.Equal(t, tt.team, d.Team(""))
		})
	}
}

func TestSupportAgent_DeviceClarification(t *testing.T) {
	llm := &mockLLM{}
	ret := &mockRetriever{result: withDistances(0.2)}
	a := newAgent(ret, llm)

	resp, err := a.GenerateResponse(context.Background(), "Flow won't install")
	require.NoError(t, err)

	assert.Equal(t, DeviceClarificationMessage, resp.Response)
	assert.Equal(t, entities.ConfidenceMedium, resp.Confidence)
	assert.True(t, resp.NeedsClarification)
	assert.False(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, entities.CategoryTechnical, resp.Escalation.Category)
	assert.Zero(t, llm.calls)
	assert.Equal(t, []string{"Flow won't install"}, ret.queries, "retrieval happens before clarification")
}

func TestSupportAgent_NeedsClarification(t *testing.T) {
	a := newAgent(&mockRetriever{}, &mockLLM{})

	ok, kind := a.NeedsClarification("The app keeps crashing")
	assert.True(t, ok)
	assert.Equal(t, ClarifyDevice, kind)

	ok, _ = a.NeedsClarification("Flow crashes on my Mac")
	assert.False(t, ok)

	ok, _ = a.NeedsClarification("What languages are supported?")
	assert.False(t, ok)
}

func TestSupportAgent_NoDocumentsEscalates(t *testing.T) {
	llm := &mockLLM{}
	a := newAgent(&mockRetriever{}, llm)

	resp, err := a.GenerateResponse(context.Background(), "What is the meaning of life?")
	require.NoError(t, err)

	assert.True(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, "No relevant documentation found", resp.Escalation.Reason)
	assert.Equal(t, entities.PriorityLow, resp.Escalation.Priority)
	assert.Equal(t, entities.ConfidenceLow, resp.Confidence)
	assert.Zero(t, resp.AvgRelevanceScore)
	assert.Empty(t, resp.RetrievedDocs)
	assert.Zero(t, llm.calls)
}

func TestSupportAgent_LowRelevanceEscalates(t *testing.T) {
	a := newAgent(&mockRetriever{result: withDistances(0.9, 0.9)}, &mockLLM{})

	resp, err := a.GenerateResponse(context.Background(), "Tell me about dictation on mac")
	require.NoError(t, err)

	assert.True(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, "Low confidence - avg relevance: 10.00%", resp.Escalation.Reason)
	assert.Equal(t, entities.CategoryGeneral, resp.Escalation.Category)
	assert.InDelta(t, 0.1, resp.AvgRelevanceScore, 1e-9)
}

func TestSupportAgent_AnswersWithHighConfidence(t *testing.T) {
	llm := &mockLLM{response: "Open Settings and pick a new hotkey. Hope that helps!"}
	a := newAgent(&mockRetriever{result: withDistances(0.2, 0.3)}, llm)

	resp, err := a.GenerateResponse(context.Background(), "How do I change my hotkey on Mac?")
	require.NoError(t, err)

	assert.Equal(t, llm.response, resp.Response)
	assert.False(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, "Can be answered from documentation", resp.Escalation.Reason)
	assert.Equal(t, entities.ConfidenceHigh, resp.Confidence)
	assert.InDelta(t, 0.75, resp.AvgRelevanceScore, 1e-9)
	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, int64(40), resp.ProcessingTimeMs)
	assert.Equal(t, time.UTC, resp.Timestamp.Location())

	require.Len(t, resp.RetrievedDocs, 2)
	assert.Equal(t, "1", resp.RetrievedDocs[0].Page)
	assert.InDelta(t, 0.8, resp.RetrievedDocs[0].RelevanceScore, 1e-9)
	assert.Equal(t, entities.CategoryProduct, resp.RetrievedDocs[0].Category)

	assert.Equal(t, systemInstruction, llm.system)
	assert.Contains(t, llm.user, "User Question: How do I change my hotkey on Mac?")
	assert.Contains(t, llm.user, "[Document 1] (Source: guide.pdf, Page: 1)")
	assert.Contains(t, llm.user, "[Document 2] (Source: guide.pdf, Page: 2)")
	assert.NotContains(t, llm.user, "CHECK SYSTEM REQUIREMENTS")
}

func TestSupportAgent_MediumConfidence(t *testing.T) {
	a := newAgent(&mockRetriever{result: withDistances(0.4)}, &mockLLM{})

	resp, err := a.GenerateResponse(context.Background(), "How do I change my hotkey on Mac?")
	require.NoError(t, err)
	assert.Equal(t, entities.ConfidenceMedium, resp.Confidence)
}

func TestSupportAgent_RequirementsBlockForInstallQueries(t *testing.T) {
	llm := &mockLLM{}
	a := newAgent(&mockRetriever{result: withDistances(0.2)}, llm)

	_, err := a.GenerateResponse(context.Background(), "How do I install Flow on Windows?")
	require.NoError(t, err)

	require.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.user, "[CRITICAL - CHECK SYSTEM REQUIREMENTS FIRST]")
	assert.Less(t,
		strings.Index(llm.user, "CHECK SYSTEM REQUIREMENTS"),
		strings.Index(llm.user, "[Document 1]"),
		"requirements come before the documents")
}

func TestSupportAgent_GenerationErrorEscalates(t *testing.T) {
	llm := &mockLLM{err: errors.New("rate limit exceeded")}
	a := newAgent(&mockRetriever{result: withDistances(0.1, 0.1)}, llm)

	resp, err := a.GenerateResponse(context.Background(), "How do I use dictation on my iPhone?")
	require.NoError(t, err, "model failures are not returned as errors")

	assert.True(t, resp.Escalation.ShouldEscalate)
	assert.Equal(t, entities.CategoryProduct, resp.Escalation.Category)
	assert.Equal(t, "Can be answered from documentation", resp.Escalation.Reason)
	assert.Equal(t, entities.ConfidenceLow, resp.Confidence, "high relevance does not lift a failed answer")
	assert.Contains(t, resp.Response, "the answer service is unavailable")
	assert.NotContains(t, resp.Response, "rate limit exceeded", "provider detail stays in the logs")
	assert.InDelta(t, 0.9, resp.AvgRelevanceScore, 1e-9)
}

func TestSupportAgent_GenerationTimeoutMessage(t *testing.T) {
	llm := &mockLLM{err: fmt.Errorf("POST https://api.example.com/v1/chat/completions: %w", context.DeadlineExceeded)}
	a := newAgent(&mockRetriever{result: withDistances(0.1)}, llm)

	resp, err := a.GenerateResponse(context.Background(), "How do I change my hotkey on Mac?")
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "the answer took too long")
	assert.NotContains(t, resp.Response, "api.example.com")
	assert.Contains(t, resp.Response, SupportEmail)
}

func TestSupportAgent_RetrievalErrorPropagates(t *testing.T) {
	llm := &mockLLM{}
	a := newAgent(&mockRetriever{err: errors.New("index unavailable")}, llm)

	resp, err := a.GenerateResponse(context.Background(), "How do I change my hotkey on Mac?")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "index unavailable")
	assert.Zero(t, llm.calls)
}

func TestFinalizeEscalation(t *testing.T) {
	d := entities.EscalationDecision{
		Reason:   "Can be answered from documentation",
		Category: entities.CategoryProduct,
		Priority: entities.PriorityLow,
	}

	assert.Equal(t, d, FinalizeEscalation(d, nil))

	got := FinalizeEscalation(d, errors.New("timeout"))
	assert.True(t, got.ShouldEscalate)
	assert.Equal(t, d.Category, got.Category)
	assert.Equal(t, d.Reason, got.Reason)
	assert.False(t, d.ShouldEscalate, "input decision is left untouched")
}
