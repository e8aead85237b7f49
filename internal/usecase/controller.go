package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/audio"
	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

var ErrNoActiveRecording = errors.New("no active recording")

// VoiceConfig controls capture behavior.
type VoiceConfig struct {
	Audio          ports.AudioConfig
	ChunkSize      int
	MaxBufferBytes int
}

// VoiceController records push-to-talk audio, transcribes it, and hands the
// result to the SessionClient as a draft.
type VoiceController struct {
	audio     ports.AudioCapture
	client    *SessionClient
	events    ports.EventSink
	finalizer transcriptFinalizer
	cfg       VoiceConfig

	mu      sync.Mutex
	current *activeRecording
}

func NewVoiceController(
	capture ports.AudioCapture,
	transcriber ports.Transcriber,
	rules ports.RulesEngine,
	client *SessionClient,
	events ports.EventSink,
	cfg VoiceConfig,
) *VoiceController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.MaxBufferBytes <= 0 {
		cfg.MaxBufferBytes = 120 * audio.BytesPerSecond(cfg.Audio.SampleRate, cfg.Audio.Channels)
	}
	return &VoiceController{
		audio:     capture,
		client:    client,
		events:    events,
		finalizer: newTranscriptFinalizer(transcriber, rules),
		cfg:       cfg,
	}
}

// Start begins capturing. An in-progress recording is discarded first.
func (c *VoiceController) Start(ctx context.Context) error {
	c.mu.Lock()
	previous := c.current
	c.current = nil
	c.mu.Unlock()

	if previous != nil {
		c.stopRecording(previous)
	}

	recordingCtx, cancel := context.WithCancel(ctx)
	source, err := c.audio.Start(recordingCtx, c.cfg.Audio)
	if err != nil {
		cancel()
		c.events.SessionError(domain.ErrorCodeAudioCapture, err.Error())
		return err
	}

	active := &activeRecording{
		cancel:   cancel,
		audio:    source,
		buffer:   audio.NewFrameBuffer(c.cfg.MaxBufferBytes),
		state:    domain.VoiceStateRecording,
		pumpDone: make(chan struct{}),
	}

	c.mu.Lock()
	c.current = active
	c.mu.Unlock()

	go pumpAudioFrames(active.audio, active.buffer, c.cfg.ChunkSize, c.events, active.pumpDone)

	reason := domain.VoiceReasonRecordingStarted
	if previous != nil {
		reason = domain.VoiceReasonRecordingRestarted
	}
	c.events.VoiceStateChanged(domain.VoiceStateRecording, reason)
	return nil
}

// Stop ends the recording, transcribes everything captured so far and
// ingests the result into session. Transcription and auto-send failures are
// reported in the outcome; only a missing recording is returned as an error.
func (c *VoiceController) Stop(ctx context.Context, session *domain.Session) (domain.IngestOutcome, error) {
	active, err := c.getCurrent()
	if err != nil {
		return domain.IngestOutcome{}, err
	}

	active.setState(domain.VoiceStateTranscribing)
	c.events.VoiceStateChanged(domain.VoiceStateTranscribing, domain.VoiceReasonTranscribing)

	if err := active.audio.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeAudioStop, "failed to stop audio capture cleanly")
	}
	<-active.pumpDone

	if dropped := active.buffer.Dropped(); dropped > 0 {
		log.Warn().Int("dropped_bytes", dropped).Msg("recording exceeded buffer capacity; tail discarded")
	}
	snapshot := active.buffer.DrainAndClear()

	result, raw := c.finalizer.Finalize(ctx, snapshot)
	outcome := c.client.IngestTranscription(ctx, session, result)

	switch {
	case outcome.Failure != nil:
		c.events.SessionError(domain.ErrorCodeTranscription, outcome.Failure.Error())
		reason := domain.VoiceReasonTranscriptionFailed
		if len(snapshot) == 0 {
			reason = domain.VoiceReasonNoAudio
		}
		c.finishRecording(active, domain.VoiceStateError, reason)
	case outcome.SendErr != nil:
		c.events.DraftUpdated(raw, outcome.Draft)
		c.events.SessionError(domain.ErrorCodeFor(outcome.SendErr), outcome.SendErr.Error())
		c.finishRecording(active, domain.VoiceStateIdle, domain.VoiceReasonAutoSendFailed)
	case outcome.Sent:
		c.events.DraftUpdated(raw, result.Text)
		c.events.TurnCompleted(*outcome.Turn)
		c.finishRecording(active, domain.VoiceStateIdle, domain.VoiceReasonDraftSent)
	default:
		c.events.DraftUpdated(raw, outcome.Draft)
		c.finishRecording(active, domain.VoiceStateIdle, domain.VoiceReasonDraftReady)
	}
	return outcome, nil
}

// Abort discards an in-progress recording without transcribing it.
func (c *VoiceController) Abort() error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}

	c.stopRecording(active)
	active.buffer.DrainAndClear()
	c.finishRecording(active, domain.VoiceStateIdle, domain.VoiceReasonRecordingDiscarded)
	return nil
}

// Status returns the recorder state.
func (c *VoiceController) Status() domain.VoiceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.VoiceStatus{State: domain.VoiceStateIdle}
	}
	state := c.current.getState()
	return domain.VoiceStatus{State: state, Active: state != domain.VoiceStateIdle}
}

func (c *VoiceController) getCurrent() (*activeRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveRecording
	}
	return c.current, nil
}

func (c *VoiceController) stopRecording(active *activeRecording) {
	active.cancel()
	_ = active.audio.Stop()
	<-active.pumpDone
}

func (c *VoiceController) finishRecording(active *activeRecording, state domain.VoiceState, reason domain.VoiceStateReason) {
	active.cancel()
	active.setState(state)

	c.mu.Lock()
	if c.current == active {
		c.current = nil
	}
	c.mu.Unlock()

	c.events.VoiceStateChanged(state, reason)
}
