package cli

import (
	"fmt"
	"io"

	"github.com/kcaldas/synopsis/pkg/events"
)

// subscribeProgress prints one line per condensation event to w.
func subscribeProgress(bus events.Subscriber, w io.Writer) {
	bus.Subscribe(events.TopicSectionCondensed, func(event interface{}) {
		e, ok := event.(events.SectionCondensedEvent)
		if !ok {
			return
		}
		label := fmt.Sprintf("round %d section %d", e.Round, e.Section)
		if e.SubRound != "" {
			label = fmt.Sprintf("backstory pass %s section %d", e.SubRound, e.Section)
		}
		line := fmt.Sprintf("  %s: %d tokens in, %d out, %d remaining", label, e.ChunkTokens, e.ResponseTokens, e.RemainingTokens)
		if e.Duration > 0 {
			line += fmt.Sprintf(" (%.0fs)", e.Duration.Seconds())
		}
		fmt.Fprintln(w, line)
	})

	bus.Subscribe(events.TopicRoundCompleted, func(event interface{}) {
		e, ok := event.(events.RoundCompletedEvent)
		if !ok {
			return
		}
		fmt.Fprintf(w, "round %d: %d sections, %d -> %d tokens (%.0f%% condensed)\n",
			e.Round, e.Sections, e.InputTokens, e.OutputTokens, e.CondensationFactor*100)
	})

	bus.Subscribe(events.TopicBackstoryCondensed, func(event interface{}) {
		e, ok := event.(events.BackstoryCondensedEvent)
		if !ok {
			return
		}
		if e.Strength == "strong" {
			fmt.Fprintf(w, "  backstory condensed in %d passes (%d tokens)\n", e.SubRounds, e.TotalTokens)
			return
		}
		fmt.Fprintf(w, "  backstory trimmed, %.0f%% discarded\n", e.DiscardedFraction*100)
	})
}
