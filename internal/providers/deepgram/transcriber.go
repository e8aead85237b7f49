package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"clinicchat/internal/domain"
)

const (
	defaultBaseURL   = "https://api.deepgram.com/v1"
	defaultModel     = "nova-2"
	defaultChunkSize = 8192

	defaultCloseTimeout = 10 * time.Second
)

// Config controls the Deepgram listen connection.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	SampleRate  int
	Channels    int
	ChunkSize   int

	// CloseTimeout bounds the wait for the server to finish after CloseStream.
	CloseTimeout time.Duration
}

// Transcriber streams one captured snapshot to Deepgram's live listen
// endpoint and collects the finalized transcript.
type Transcriber struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewTranscriber(cfg Config) *Transcriber {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}
	return &Transcriber{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if strings.TrimSpace(t.cfg.APIKey) == "" {
		return "", errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(audio) == 0 {
		return "", errors.New("no audio captured")
	}

	listenURL, err := buildListenURL(t.cfg)
	if err != nil {
		return "", err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+t.cfg.APIKey)

	conn, _, err := t.dialer.DialContext(ctx, listenURL, headers)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}
	defer conn.Close()

	type readResult struct {
		text string
		err  error
	}
	results := make(chan readResult, 1)
	go func() {
		text, err := readTranscript(conn)
		results <- readResult{text: text, err: err}
	}()

	if err := t.sendAudio(conn, audio); err != nil {
		_ = conn.Close()
		<-results
		return "", err
	}

	select {
	case res := <-results:
		log.Debug().Int("audio_bytes", len(audio)).Int("chars", len(res.text)).Msg("deepgram transcription finished")
		return res.text, res.err
	case <-ctx.Done():
		_ = conn.Close()
		<-results
		return "", ctx.Err()
	case <-time.After(t.cfg.CloseTimeout):
		_ = conn.Close()
		res := <-results
		if res.text != "" {
			log.Warn().Dur("timeout", t.cfg.CloseTimeout).Msg("deepgram did not close the stream; using transcript received so far")
			return res.text, nil
		}
		return "", fmt.Errorf("timed out after %s waiting for Deepgram transcript", t.cfg.CloseTimeout)
	}
}

func (t *Transcriber) sendAudio(conn *websocket.Conn, audio []byte) error {
	for start := 0; start < len(audio); start += t.cfg.ChunkSize {
		end := start + t.cfg.ChunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			return fmt.Errorf("failed to send audio: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	return nil
}

// readTranscript consumes provider events until the server closes the socket.
func readTranscript(conn *websocket.Conn) (string, error) {
	var aggregator transcriptAggregator
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return aggregator.Text(), nil
			}
			if text := aggregator.Text(); text != "" {
				log.Warn().Err(err).Msg("deepgram connection dropped after partial transcript")
				return text, nil
			}
			return "", fmt.Errorf("failed to read provider event: %w", err)
		}

		var response listenResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}
		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			return "", errors.New(message)
		}

		text := response.transcript()
		if text == "" {
			continue
		}
		kind := domain.TranscriptKindPartial
		if response.IsFinal || response.SpeechFinal {
			kind = domain.TranscriptKindFinal
		}
		aggregator.Add(domain.TranscriptEvent{Kind: kind, Text: text})
	}
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (r listenResponse) transcript() string {
	if len(r.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Channel.Alternatives[0].Transcript)
}

func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	listenURL, err := url.Parse(strings.TrimRight(base, "/") + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	query.Set("channels", strconv.Itoa(cfg.Channels))
	query.Set("interim_results", "false")
	query.Set("smart_format", strconv.FormatBool(cfg.SmartFormat))
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
