package script

import "papercast/internal/models"

// SectionSummary pairs one outline section with its generated summary.
type SectionSummary struct {
	Section models.Section `json:"section"`
	Summary string         `json:"summary"`
}

// SummaryList accumulates summaries keyed by the stable section key,
// preserving insertion order and rejecting duplicate keys.
type SummaryList struct {
	entries []SectionSummary
	keys    map[string]struct{}
}

func NewSummaryList() *SummaryList {
	return &SummaryList{keys: make(map[string]struct{})}
}

// Add appends the summary unless its section key is already present.
func (l *SummaryList) Add(s SectionSummary) bool {
	key := s.Section.Key()
	if _, ok := l.keys[key]; ok {
		return false
	}
	l.keys[key] = struct{}{}
	l.entries = append(l.entries, s)
	return true
}

func (l *SummaryList) Len() int {
	return len(l.entries)
}

// Entries returns the summaries in insertion order.
func (l *SummaryList) Entries() []SectionSummary {
	return l.entries
}

// EvaluateResult is the evaluator's verdict on one draft.
type EvaluateResult struct {
	IsValid         bool   `json:"is_valid"`
	FeedbackMessage string `json:"feedback_message"`
}

// Result is the outcome of one script-writing run. A non-relevant paper
// yields Relevant=false and an empty script. An exhausted retry loop yields
// Accepted=false with the last rejected draft carried as-is.
type Result struct {
	Relevant   bool
	Accepted   bool
	Script     string
	Iterations int
}
