package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"clinicchat/internal/audio"
)

// Config controls the OpenAI transcription backend.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Language   string
	SampleRate int
	Channels   int
}

// Transcriber uploads a captured snapshot to the OpenAI transcription API.
type Transcriber struct {
	client *openai.Client
	cfg    Config
}

// NewTranscriber builds the client. A missing key is reported by Transcribe so
// that text chat keeps working without voice credentials.
func NewTranscriber(cfg Config) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Transcriber{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

func (t *Transcriber) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", errors.New("OPENAI_API_KEY is not configured")
	}
	if len(pcm) == 0 {
		return "", errors.New("no audio captured")
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.cfg.Model,
		FilePath: "speech.wav",
		Reader:   bytes.NewReader(audio.EncodeWAV(pcm, t.cfg.SampleRate, t.cfg.Channels)),
		Language: t.cfg.Language,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription failed: %w", err)
	}

	log.Debug().Str("model", t.cfg.Model).Int("audio_bytes", len(pcm)).Msg("whisper transcription finished")
	return strings.TrimSpace(resp.Text), nil
}
