package ports

import (
	"context"
	"io"

	"clinicchat/internal/domain"
)

// RawResponse is an HTTP status plus the unparsed body.
type RawResponse struct {
	Status int
	Body   []byte
}

// RemoteGateway reaches the chat backend. Non-2xx statuses come back as a
// RawResponse; only transport faults are returned as errors.
type RemoteGateway interface {
	Chat(ctx context.Context, userID string, message string) (RawResponse, error)
	History(ctx context.Context, userID string) (RawResponse, error)
	Test(ctx context.Context) (RawResponse, error)
}

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Transcriber converts one captured snapshot of PCM audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// RulesEngine rewrites transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// EventSink is the rendering surface the core reports into.
type EventSink interface {
	VoiceStateChanged(state domain.VoiceState, reason domain.VoiceStateReason)
	DraftUpdated(raw string, draft string)
	TurnCompleted(turn domain.ChatTurn)
	SessionError(code domain.ErrorCode, detail string)
}
