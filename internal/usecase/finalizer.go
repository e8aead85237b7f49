package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

// transcriptFinalizer turns one audio snapshot into a TranscriptionResult.
type transcriptFinalizer struct {
	transcriber ports.Transcriber
	rules       ports.RulesEngine
}

func newTranscriptFinalizer(transcriber ports.Transcriber, rules ports.RulesEngine) transcriptFinalizer {
	return transcriptFinalizer{transcriber: transcriber, rules: rules}
}

// Finalize returns the result plus the raw provider text before rewriting.
func (f transcriptFinalizer) Finalize(ctx context.Context, snapshot []byte) (domain.TranscriptionResult, string) {
	if len(snapshot) == 0 {
		return domain.TranscriptionResult{Reason: "no audio captured"}, ""
	}

	raw, err := f.transcriber.Transcribe(ctx, snapshot)
	if err != nil {
		log.Warn().Err(err).Int("audio_bytes", len(snapshot)).Msg("transcription failed")
		return domain.TranscriptionResult{Reason: err.Error()}, ""
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TranscriptionResult{Reason: "no speech recognized"}, ""
	}

	text := raw
	if f.rules != nil {
		rewritten, err := f.rules.Apply(raw)
		if err != nil {
			return domain.TranscriptionResult{Reason: "rules processing failed: " + err.Error()}, raw
		}
		text = strings.TrimSpace(rewritten)
	}
	if text == "" {
		return domain.TranscriptionResult{Reason: "transcript empty after rewriting"}, raw
	}
	return domain.TranscriptionResult{Text: text, Succeeded: true}, raw
}
