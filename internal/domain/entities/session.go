package entities

import "sync"

// Session holds the running counters for one chat user.
// It is passed explicitly to whichever layer renders the conversation.
type Session struct {
	ID string

	mu             sync.Mutex
	totalQueries   int
	escalations    int
	highConfidence int
	clarifications int
}

// SessionStats is a point-in-time copy of a session's counters.
type SessionStats struct {
	TotalQueries       int     `json:"total_queries"`
	Escalations        int     `json:"escalations"`
	HighConfidence     int     `json:"high_confidence"`
	Clarifications     int     `json:"clarifications"`
	AutonomousRate     float64 `json:"autonomous_rate"`
	HighConfidenceRate float64 `json:"high_confidence_rate"`
	ClarificationRate  float64 `json:"clarification_rate"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Record folds one response into the counters.
func (s *Session) Record(resp *AgentResponse) {
	if resp == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalQueries++
	if resp.Escalation.ShouldEscalate {
		s.escalations++
	}
	if resp.Confidence == ConfidenceHigh {
		s.highConfidence++
	}
	if resp.NeedsClarification {
		s.clarifications++
	}
}

// Stats returns the counters and derived percentages (0-100).
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionStats{
		TotalQueries:   s.totalQueries,
		Escalations:    s.escalations,
		HighConfidence: s.highConfidence,
		Clarifications: s.clarifications,
	}
	if s.totalQueries > 0 {
		n := float64(s.totalQueries)
		st.AutonomousRate = float64(s.totalQueries-s.escalations) / n * 100
		st.HighConfidenceRate = float64(s.highConfidence) / n * 100
		st.ClarificationRate = float64(s.clarifications) / n * 100
	}
	return st
}
