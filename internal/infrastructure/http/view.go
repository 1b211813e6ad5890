package http

import (
	"strings"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

const (
	maxPreviewDocs  = 3
	maxPreviewChars = 200
)

// QueryView is the JSON body returned by POST /api/query.
type QueryView struct {
	QueryID            string                `json:"query_id"`
	Response           string                `json:"response"`
	Confidence         string                `json:"confidence"`
	NeedsClarification bool                  `json:"needs_clarification"`
	Escalation         EscalationView        `json:"escalation"`
	Docs               []DocView             `json:"docs"`
	Relevance          float64               `json:"relevance"`
	ElapsedMs          int64                 `json:"elapsed_ms"`
	Session            entities.SessionStats `json:"session"`
}

// EscalationView summarizes the routing decision for display.
type EscalationView struct {
	Flag     bool   `json:"flag"`
	Reason   string `json:"reason"`
	Team     string `json:"team"`
	Priority string `json:"priority"`
}

// DocView is a shortened retrieved document.
type DocView struct {
	Source    string  `json:"source"`
	Page      string  `json:"page"`
	Relevance float64 `json:"relevance"`
	Category  string  `json:"category,omitempty"`
	Preview   string  `json:"preview"`
}

// NewQueryView renders a response for the chat page.
func NewQueryView(resp *entities.AgentResponse, stats entities.SessionStats) QueryView {
	v := QueryView{
		QueryID:            resp.QueryID,
		Response:           resp.Response,
		Confidence:         string(resp.Confidence),
		NeedsClarification: resp.NeedsClarification,
		Escalation: EscalationView{
			Flag:     resp.Escalation.ShouldEscalate,
			Reason:   resp.Escalation.Reason,
			Team:     resp.Escalation.Team("General Support"),
			Priority: string(resp.Escalation.Priority),
		},
		Docs:      []DocView{},
		Relevance: resp.AvgRelevanceScore,
		ElapsedMs: resp.ProcessingTimeMs,
		Session:   stats,
	}
	for i, d := range resp.RetrievedDocs {
		if i == maxPreviewDocs {
			break
		}
		v.Docs = append(v.Docs, DocView{
			Source:    d.Source,
			Page:      d.Page,
			Relevance: d.RelevanceScore,
			Category:  string(d.Category),
			Preview:   preview(d.Content, maxPreviewChars),
		})
	}
	return v
}

// preview cuts s to at most max runes, marking the cut with "...".
func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
