package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
	"github.com/0xcro3dile/flowsupport/internal/domain/rules"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

// ClarifyDevice is the only clarification kind the agent asks for.
const ClarifyDevice = "device"

// Retriever finds chunks relevant to a query. VectorStore implements it.
type Retriever interface {
	Search(ctx context.Context, query string, n int) (SearchResult, error)
}

// SupportAgent answers one query at a time: retrieve, clarify, escalate or generate.
type SupportAgent struct {
	retriever Retriever
	llm       ports.LLMService
	rules     rules.Rules
	nResults  int
	now       func() time.Time
}

// NewSupportAgent creates a SupportAgent with injected dependencies.
func NewSupportAgent(retriever Retriever, llm ports.LLMService, r rules.Rules, nResults int) *SupportAgent {
	if nResults <= 0 {
		nResults = 5
	}
	return &SupportAgent{
		retriever: retriever,
		llm:       llm,
		rules:     r,
		nResults:  nResults,
		now:       time.Now,
	}
}

// BuildContext retrieves documents for query and renders them as model context.
func (a *SupportAgent) BuildContext(ctx context.Context, query string) (string, []entities.RetrievedDocument, error) {
	res, err := a.retriever.Search(ctx, query, a.nResults)
	if err != nil {
		return "", nil, fmt.Errorf("retrieving context: %w", err)
	}

	var parts []string
	if a.rules.WantsRequirements(query) {
		parts = append(parts, requirementsBlock)
	}

	docs := make([]entities.RetrievedDocument, 0, res.Len())
	for i := range res.Documents {
		meta := res.Metadatas[i]
		parts = append(parts, fmt.Sprintf("[Document %d] (Source: %s, Page: %d)\n%s\n",
			i+1, meta.Source, meta.Page, res.Documents[i]))
		docs = append(docs, entities.RetrievedDocument{
			Content:        res.Documents[i],
			Source:         meta.Source,
			Page:           strconv.Itoa(meta.Page),
			RelevanceScore: entities.RelevanceFromDistance(res.Distances[i]),
			Category:       entities.QueryCategory(meta.Category),
		})
	}
	return strings.Join(parts, "\n"), docs, nil
}

// NeedsClarification reports whether the query must name a device before it can be answered.
func (a *SupportAgent) NeedsClarification(query string) (bool, string) {
	if a.rules.NeedsDevice(query) {
		return true, ClarifyDevice
	}
	return false, ""
}

// AnalyzeEscalation decides whether a human team should take the query.
func (a *SupportAgent) AnalyzeEscalation(query string, docs []entities.RetrievedDocument) entities.EscalationDecision {
	if rule, trigger, ok := a.rules.MatchEscalation(query); ok {
		return rule.Decision(trigger)
	}

	if len(docs) == 0 {
		return entities.EscalationDecision{
			ShouldEscalate: true,
			Reason:         "No relevant documentation found",
			Category:       entities.CategoryGeneral,
			Priority:       entities.PriorityLow,
			SuggestedTeam:  entities.TeamPtr("general"),
		}
	}

	avg := entities.AverageRelevance(docs)
	if avg < a.rules.LowRelevanceThreshold {
		return entities.EscalationDecision{
			ShouldEscalate: true,
			Reason:         fmt.Sprintf("Low confidence - avg relevance: %.2f%%", avg*100),
			Category:       entities.CategoryGeneral,
			Priority:       entities.PriorityLow,
			SuggestedTeam:  entities.TeamPtr("general"),
		}
	}

	return entities.EscalationDecision{
		ShouldEscalate: false,
		Reason:         "Can be answered from documentation",
		Category:       entities.CategoryProduct,
		Priority:       entities.PriorityLow,
	}
}

// FinalizeEscalation returns the decision that stands after the generation attempt.
// A failed generation hands the query to a human while keeping the routing of d.
func FinalizeEscalation(d entities.EscalationDecision, generationErr error) entities.EscalationDecision {
	if generationErr == nil {
		return d
	}
	d.ShouldEscalate = true
	return d
}

// GenerateResponse runs the full pipeline for one query.
// Only a retrieval failure is returned as an error; model failures become a canned reply.
func (a *SupportAgent) GenerateResponse(ctx context.Context, query string) (*entities.AgentResponse, error) {
	start := a.now()

	contextText, docs, err := a.BuildContext(ctx, query)
	if err != nil {
		return nil, err
	}

	resp := &entities.AgentResponse{
		QueryID:       uuid.NewString(),
		Query:         query,
		RetrievedDocs: docs,
	}

	if clarify, kind := a.NeedsClarification(query); clarify && kind == ClarifyDevice {
		logger.Debug("query %s: asking for device", resp.QueryID)
		resp.Response = DeviceClarificationMessage
		resp.Confidence = entities.ConfidenceMedium
		resp.NeedsClarification = true
		resp.Escalation = entities.EscalationDecision{
			ShouldEscalate: false,
			Reason:         "Requesting device clarification",
			Category:       entities.CategoryTechnical,
			Priority:       entities.PriorityLow,
		}
		return a.stamp(resp, start), nil
	}

	decision := a.AnalyzeEscalation(query, docs)
	if decision.ShouldEscalate {
		logger.Debug("query %s: escalating (%s)", resp.QueryID, decision.Reason)
		resp.Response = escalationMessage(decision)
		resp.Confidence = entities.ConfidenceLow
		resp.Escalation = decision
		return a.stamp(resp, start), nil
	}

	answer, genErr := a.llm.Generate(ctx, systemInstruction, userInstruction(query, contextText))
	resp.Escalation = FinalizeEscalation(decision, genErr)
	if genErr != nil {
		logger.Error("query %s: generation failed: %v", resp.QueryID, genErr)
		resp.Response = generationErrorMessage(genErr)
		resp.Confidence = entities.ConfidenceLow
	} else {
		resp.Response = answer
		resp.Confidence = a.rules.Confidence(entities.AverageRelevance(docs))
	}
	return a.stamp(resp, start), nil
}

func (a *SupportAgent) stamp(resp *entities.AgentResponse, start time.Time) *entities.AgentResponse {
	now := a.now()
	resp.ProcessingTimeMs = now.Sub(start).Milliseconds()
	resp.AvgRelevanceScore = entities.Round3(entities.AverageRelevance(resp.RetrievedDocs))
	resp.Timestamp = now.UTC()
	return resp
}
