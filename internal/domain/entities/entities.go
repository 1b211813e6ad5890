// Package entities contains core business entities.
// These are plain domain objects with no knowledge of storage, embedding or transport.
package entities

import (
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// QueryCategory is the coarse topic of a chunk or a query.
type QueryCategory string

const (
	CategoryBilling   QueryCategory = "billing"
	CategoryTechnical QueryCategory = "technical"
	CategoryProduct   QueryCategory = "product"
	CategoryAccount   QueryCategory = "account"
	CategoryGeneral   QueryCategory = "general"
)

// Valid reports whether c is one of the known categories.
func (c QueryCategory) Valid() bool {
	switch c {
	case CategoryBilling, CategoryTechnical, CategoryProduct, CategoryAccount, CategoryGeneral:
		return true
	}
	return false
}

// ConfidenceLevel summarizes how well-supported an answer is.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Priority of an escalation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// MinChunkTextLen is the shortest text a persisted chunk may carry.
const MinChunkTextLen = 10

// ErrInvalidChunk is returned by Chunk.Validate.
var ErrInvalidChunk = errors.New("invalid chunk")

// Chunk is a bounded span of manual text, the unit indexed for retrieval.
// Chunks are immutable once created and replaced wholesale on reprocessing.
type Chunk struct {
	Text     string         `json:"text"`
	Source   string         `json:"source"`
	Page     int            `json:"page"`
	ChunkID  int            `json:"chunk_id"`
	Category *QueryCategory `json:"category"`
}

// Validate checks the chunk invariants.
func (c Chunk) Validate() error {
	switch {
	case utf8.RuneCountInString(c.Text) < MinChunkTextLen:
		return fmt.Errorf("%w: text shorter than %d characters", ErrInvalidChunk, MinChunkTextLen)
	case c.Page <= 0:
		return fmt.Errorf("%w: page must be positive, got %d", ErrInvalidChunk, c.Page)
	case c.ChunkID < 0:
		return fmt.Errorf("%w: negative chunk_id %d", ErrInvalidChunk, c.ChunkID)
	case c.Category != nil && !c.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidChunk, *c.Category)
	}
	return nil
}

// CategoryOrDefault returns the chunk category, or general when unset.
func (c Chunk) CategoryOrDefault() QueryCategory {
	if c.Category == nil {
		return CategoryGeneral
	}
	return *c.Category
}

// CategoryPtr is a helper for populating Chunk.Category.
func CategoryPtr(c QueryCategory) *QueryCategory {
	return &c
}

// RetrievedDocument is a chunk returned for one query, scored against it.
type RetrievedDocument struct {
	Content        string        `json:"content"`
	Source         string        `json:"source"`
	Page           string        `json:"page"`
	RelevanceScore float64       `json:"relevance_score"`
	Category       QueryCategory `json:"category,omitempty"`
}

// RelevanceFromDistance converts an index distance into a score in [0,1], rounded to 3 places.
func RelevanceFromDistance(distance float64) float64 {
	return Round3(clamp01(1 - distance))
}

// Round3 rounds to three decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AverageRelevance is the mean relevance of docs, or 0 when there are none.
func AverageRelevance(docs []RetrievedDocument) float64 {
	if len(docs) == 0 {
		return 0
	}
	var sum float64
	for _, d := range docs {
		sum += d.RelevanceScore
	}
	return clamp01(sum / float64(len(docs)))
}

// EscalationDecision records whether a query goes to a human team and why.
type EscalationDecision struct {
	ShouldEscalate bool          `json:"should_escalate"`
	Reason         string        `json:"reason"`
	Category       QueryCategory `json:"category"`
	Priority       Priority      `json:"priority"`
	SuggestedTeam  *string       `json:"suggested_team"`
}

// Team returns the suggested team or a display fallback.
func (d EscalationDecision) Team(fallback string) string {
	if d.SuggestedTeam == nil || *d.SuggestedTeam == "" {
		return fallback
	}
	return *d.SuggestedTeam
}

// TeamPtr is a helper for populating EscalationDecision.SuggestedTeam.
func TeamPtr(team string) *string {
	return &team
}

// AgentResponse is the terminal output of one query.
type AgentResponse struct {
	QueryID            string              `json:"query_id"`
	Query              string              `json:"query"`
	Response           string              `json:"response"`
	Escalation         EscalationDecision  `json:"escalation"`
	RetrievedDocs      []RetrievedDocument `json:"retrieved_docs"`
	Confidence         ConfidenceLevel     `json:"confidence"`
	NeedsClarification bool                `json:"needs_clarification"`
	AvgRelevanceScore  float64             `json:"avg_relevance_score"`
	ProcessingTimeMs   int64               `json:"processing_time_ms"`
	Timestamp          time.Time           `json:"timestamp"`
}
