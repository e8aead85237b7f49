package deepgram

import (
	"strings"

	"clinicchat/internal/domain"
)

// transcriptAggregator joins final segments, falling back to the most recent
// partial when the provider never finalized the tail of the utterance.
type transcriptAggregator struct {
	finals      []string
	lastPartial string
}

func (a *transcriptAggregator) Add(event domain.TranscriptEvent) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return
	}
	if event.Kind == domain.TranscriptKindFinal {
		a.finals = append(a.finals, text)
		a.lastPartial = ""
		return
	}
	a.lastPartial = text
}

func (a *transcriptAggregator) Text() string {
	parts := append([]string(nil), a.finals...)
	if a.lastPartial != "" {
		parts = append(parts, a.lastPartial)
	}
	return strings.Join(parts, " ")
}
