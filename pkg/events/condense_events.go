package events

import "time"

// Topic names published during condensation.
const (
	TopicSectionCondensed   = "section.condensed"
	TopicRoundCompleted     = "round.completed"
	TopicBackstoryCondensed = "backstory.condensed"
)

// SectionCondensedEvent is published after each oracle call of a round.
type SectionCondensedEvent struct {
	Round           int    // 1-based
	Section         int    // 1-based
	SubRound        string // "a", "b", ... for strong backstory passes, empty otherwise
	ChunkTokens     int
	PromptTokens    int
	ResponseTokens  int
	RemainingTokens int
	Duration        time.Duration
}

// Topic returns the event topic for a condensed section
func (e SectionCondensedEvent) Topic() string {
	return TopicSectionCondensed
}

// RoundCompletedEvent is published once a round has consumed its input.
type RoundCompletedEvent struct {
	Round              int
	Sections           int
	InputTokens        int
	OutputTokens       int
	OutputChars        int
	CondensationFactor float64
	Final              bool
}

// Topic returns the event topic for a completed round
func (e RoundCompletedEvent) Topic() string {
	return TopicRoundCompleted
}

// BackstoryCondensedEvent is published whenever accumulated responses had
// to be reduced to fit the backstory budget.
type BackstoryCondensedEvent struct {
	Strength          string
	TotalTokens       int
	KeptTokens        int
	DiscardedFraction float64
	SubRounds         int
}

// Topic returns the event topic for a reduced backstory
func (e BackstoryCondensedEvent) Topic() string {
	return TopicBackstoryCondensed
}
