// Package rules holds the keyword tables that drive chunk categorization,
// clarification and escalation. Tables are ordered: the first matching entry wins.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

// TriggerPlaceholder is replaced by the matched phrase in an escalation reason.
const TriggerPlaceholder = "{trigger}"

// CategoryRule maps a keyword set to a chunk category.
type CategoryRule struct {
	Category entities.QueryCategory `yaml:"category" toml:"category"`
	Keywords []string               `yaml:"keywords" toml:"keywords"`
}

// EscalationRule routes matching queries to a human team.
type EscalationRule struct {
	Name     string                 `yaml:"name" toml:"name"`
	Triggers []string               `yaml:"triggers" toml:"triggers"`
	Reason   string                 `yaml:"reason" toml:"reason"`
	Category entities.QueryCategory `yaml:"category" toml:"category"`
	Priority entities.Priority      `yaml:"priority" toml:"priority"`
	Team     string                 `yaml:"team" toml:"team"`
}

// Decision builds the escalation decision for a matched trigger.
func (r EscalationRule) Decision(trigger string) entities.EscalationDecision {
	d := entities.EscalationDecision{
		ShouldEscalate: true,
		Reason:         strings.ReplaceAll(r.Reason, TriggerPlaceholder, trigger),
		Category:       r.Category,
		Priority:       r.Priority,
	}
	if r.Team != "" {
		d.SuggestedTeam = entities.TeamPtr(r.Team)
	}
	return d
}

// Rules is the complete keyword configuration of the pipeline.
type Rules struct {
	// Categories is checked in order by Categorize.
	Categories []CategoryRule `yaml:"categories" toml:"categories"`

	// RequirementsTriggers prepend the system requirements block to the model context.
	RequirementsTriggers []string `yaml:"requirements_triggers" toml:"requirements_triggers"`

	DeviceProblems       []string `yaml:"device_problems" toml:"device_problems"`
	InstallationKeywords []string `yaml:"installation_keywords" toml:"installation_keywords"`
	DeviceIndicators     []string `yaml:"device_indicators" toml:"device_indicators"`

	// Escalations is checked in order; the first group with a matching trigger wins.
	Escalations []EscalationRule `yaml:"escalations" toml:"escalations"`

	LowRelevanceThreshold float64 `yaml:"low_relevance_threshold" toml:"low_relevance_threshold"`
	HighConfidenceAbove   float64 `yaml:"high_confidence_above" toml:"high_confidence_above"`
	MediumConfidenceAbove float64 `yaml:"medium_confidence_above" toml:"medium_confidence_above"`
}

// Default returns a fresh copy of the built-in tables.
func Default() Rules {
	return Rules{
		Categories: []CategoryRule{
			{Category: entities.CategoryBilling, Keywords: []string{"trial", "subscription", "pricing", "billing", "payment", "upgrade", "pro plan", "cancel"}},
			{Category: entities.CategoryTechnical, Keywords: []string{"troubleshoot", "error", "not working", "issue", "fix", "desktop", "ios", "install"}},
			{Category: entities.CategoryAccount, Keywords: []string{"account", "sign up", "login", "password", "delete"}},
			{Category: entities.CategoryProduct, Keywords: []string{"feature", "use case", "workflow", "app", "integration", "dictation"}},
		},
		RequirementsTriggers: []string{"install", "won't install", "can't install", "download", "setup"},
		DeviceProblems: []string{
			"not working", "won't work", "doesn't work", "can't get",
			"won't install", "won't open", "crash", "error",
			"won't paste", "freezes", "won't sync", "not pasting",
		},
		InstallationKeywords: []string{"install", "setup", "download", "get started"},
		DeviceIndicators:     []string{"mac", "windows", "iphone", "ios", "desktop", "mobile", "pc", "computer", "phone"},
		Escalations: []EscalationRule{
			{
				Name: "account_deletion",
				Triggers: []string{"delete my account", "remove my account", "close my account",
					"delete my data", "remove my information", "gdpr request"},
				Reason:   "Account deletion/data request - requires human verification",
				Category: entities.CategoryAccount,
				Priority: entities.PriorityUrgent,
				Team:     "privacy",
			},
			{
				Name: "billing_dispute",
				Triggers: []string{"refund", "charge me wrong", "incorrect charge", "overcharged",
					"billing issue", "dispute charge", "payment failed"},
				Reason:   "Billing dispute detected: '" + TriggerPlaceholder + "'",
				Category: entities.CategoryBilling,
				Priority: entities.PriorityHigh,
				Team:     "billing",
			},
			{
				Name: "human_request",
				Triggers: []string{"speak to human", "talk to person", "talk to a person",
					"real person", "customer service representative", "talk to support"},
				Reason:   "User explicitly requested human support",
				Category: entities.CategoryGeneral,
				Priority: entities.PriorityMedium,
				Team:     "general",
			},
		},
		LowRelevanceThreshold: 0.25,
		HighConfidenceAbove:   0.7,
		MediumConfidenceAbove: 0.5,
	}
}

// Validate checks that every table entry is usable.
func (r Rules) Validate() error {
	var errs []error
	for i, c := range r.Categories {
		if !c.Category.Valid() {
			errs = append(errs, fmt.Errorf("categories[%d]: unknown category %q", i, c.Category))
		}
		if len(c.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("categories[%d]: no keywords", i))
		}
	}
	for i, e := range r.Escalations {
		if len(e.Triggers) == 0 {
			errs = append(errs, fmt.Errorf("escalations[%d] %s: no triggers", i, e.Name))
		}
		if !e.Category.Valid() {
			errs = append(errs, fmt.Errorf("escalations[%d] %s: unknown category %q", i, e.Name, e.Category))
		}
		switch e.Priority {
		case entities.PriorityLow, entities.PriorityMedium, entities.PriorityHigh, entities.PriorityUrgent:
		default:
			errs = append(errs, fmt.Errorf("escalations[%d] %s: unknown priority %q", i, e.Name, e.Priority))
		}
	}
	if r.LowRelevanceThreshold < 0 || r.LowRelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("low_relevance_threshold %v outside [0,1]", r.LowRelevanceThreshold))
	}
	if r.MediumConfidenceAbove > r.HighConfidenceAbove {
		errs = append(errs, errors.New("medium_confidence_above exceeds high_confidence_above"))
	}
	return errors.Join(errs...)
}

// MatchAny returns the first keyword that occurs as a substring of text.
// text is expected to be lower-cased already.
func MatchAny(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}

// Categorize returns the category of the first table entry matching text, or general.
func (r Rules) Categorize(text string) entities.QueryCategory {
	lower := strings.ToLower(text)
	for _, c := range r.Categories {
		if _, ok := MatchAny(lower, c.Keywords); ok {
			return c.Category
		}
	}
	return entities.CategoryGeneral
}

// WantsRequirements reports whether the query is about getting Flow installed.
func (r Rules) WantsRequirements(query string) bool {
	_, ok := MatchAny(strings.ToLower(query), r.RequirementsTriggers)
	return ok
}

// NeedsDevice reports whether the query describes a problem or an installation
// without naming the device it happens on.
func (r Rules) NeedsDevice(query string) bool {
	lower := strings.ToLower(query)
	if _, ok := MatchAny(lower, r.DeviceIndicators); ok {
		return false
	}
	_, problem := MatchAny(lower, r.DeviceProblems)
	_, install := MatchAny(lower, r.InstallationKeywords)
	return problem || install
}

// MatchEscalation returns the first escalation group with a trigger in query.
func (r Rules) MatchEscalation(query string) (EscalationRule, string, bool) {
	lower := strings.ToLower(query)
	for _, e := range r.Escalations {
		if trigger, ok := MatchAny(lower, e.Triggers); ok {
			return e, trigger, true
		}
	}
	return EscalationRule{}, "", false
}

// Confidence classifies an average relevance score.
func (r Rules) Confidence(avgRelevance float64) entities.ConfidenceLevel {
	switch {
	case avgRelevance > r.HighConfidenceAbove:
		return entities.ConfidenceHigh
	case avgRelevance > r.MediumConfidenceAbove:
		return entities.ConfidenceMedium
	default:
		return entities.ConfidenceLow
	}
}
