package condense

import (
	"context"
	"fmt"
	"sync"
)

// ResponseLog is an append-only record of oracle responses keyed by
// (round, section), both zero-based.
type ResponseLog interface {
	Append(ctx context.Context, round, section int, text string) error
	Round(ctx context.Context, round int) ([]string, error)
}

// Finisher is implemented by logs that record how a run ended.
type Finisher interface {
	Finish(ctx context.Context, runErr error) error
}

// LogOpener creates the response log for one summarization of source.
type LogOpener func(ctx context.Context, source string) (ResponseLog, error)

// MemoryLog keeps responses in process memory.
type MemoryLog struct {
	mu     sync.Mutex
	rounds [][]string
}

var _ ResponseLog = (*MemoryLog)(nil)

// NewMemoryLog returns an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// OpenMemoryLog is a LogOpener producing a fresh MemoryLog per run.
func OpenMemoryLog(context.Context, string) (ResponseLog, error) {
	return NewMemoryLog(), nil
}

// Append records text at (round, section). Sections of a round must arrive
// in order and rounds may only be opened one at a time.
func (l *MemoryLog) Append(_ context.Context, round, section int, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if round < 0 || round > len(l.rounds) {
		return fmt.Errorf("response log: round %d out of order (have %d rounds)", round, len(l.rounds))
	}
	if round == len(l.rounds) {
		l.rounds = append(l.rounds, nil)
	}
	if section != len(l.rounds[round]) {
		return fmt.Errorf("response log: section %d out of order in round %d (have %d)", section, round, len(l.rounds[round]))
	}
	l.rounds[round] = append(l.rounds[round], text)
	return nil
}

// Round returns a copy of the responses recorded for round.
func (l *MemoryLog) Round(_ context.Context, round int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if round < 0 || round >= len(l.rounds) {
		return nil, nil
	}
	return append([]string(nil), l.rounds[round]...), nil
}

// Rounds returns a copy of every round recorded so far.
func (l *MemoryLog) Rounds() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]string, len(l.rounds))
	for i, r := range l.rounds {
		out[i] = append([]string(nil), r...)
	}
	return out
}
