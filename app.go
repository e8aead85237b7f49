package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"clinicchat/internal/bootstrap"
	"clinicchat/internal/config"
	"clinicchat/internal/domain"
	"clinicchat/internal/logging"
	"clinicchat/internal/usecase"
)

const (
	eventVoice = "clinicchat:voice"
	eventDraft = "clinicchat:draft"
	eventTurn  = "clinicchat:turn"
	eventError = "clinicchat:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	client  *usecase.SessionClient
	voice   *usecase.VoiceController
	session *domain.Session
	cfg     config.Config
	bootErr error
}

// VoiceResult is the frontend view of a finished recording.
type VoiceResult struct {
	Draft     string           `json:"draft"`
	Sent      bool             `json:"sent"`
	Turn      *domain.ChatTurn `json:"turn,omitempty"`
	Failure   string           `json:"failure,omitempty"`
	SendError string           `json:"sendError,omitempty"`
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	logging.Setup(a.cfg.Log.Level, a.cfg.Log.Format, os.Stderr)
	a.client = services.Client
	a.voice = services.Voice
	a.session = services.Session
	a.VoiceStateChanged(domain.VoiceStateIdle, domain.VoiceReasonReady)
}

// SendMessage sends text as the active user and returns the completed turn.
func (a *App) SendMessage(text string) (domain.ChatTurn, error) {
	if err := a.requireReady(); err != nil {
		return domain.ChatTurn{}, err
	}
	turn, err := a.client.SendMessage(a.ctx, a.session, text)
	if err != nil {
		a.reportError(err)
		return domain.ChatTurn{}, err
	}
	a.TurnCompleted(turn)
	return turn, nil
}

// SubmitDraft sends the pending dictated draft.
func (a *App) SubmitDraft() (domain.ChatTurn, error) {
	if err := a.requireReady(); err != nil {
		return domain.ChatTurn{}, err
	}
	turn, err := a.client.SubmitDraft(a.ctx, a.session)
	if err != nil {
		a.reportError(err)
		return domain.ChatTurn{}, err
	}
	a.TurnCompleted(turn)
	return turn, nil
}

// SetDraft replaces the pending draft with text edited in the UI.
func (a *App) SetDraft(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.session.SetPendingMessage(text)
	return nil
}

// SwitchUser changes the active speaker.
func (a *App) SwitchUser(userID string) (domain.Snapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.Snapshot{}, err
	}
	if err := a.client.SwitchUser(a.session, userID); err != nil {
		a.reportError(err)
		return domain.Snapshot{}, err
	}
	return a.session.Snapshot(), nil
}

// GetHistory loads stored turns for userID, or for the active user when blank.
func (a *App) GetHistory(userID string) ([]domain.ChatTurn, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		userID = a.session.ActiveUserID()
	}
	turns, err := a.client.FetchHistory(a.ctx, userID)
	if err != nil {
		a.reportError(err)
		return nil, err
	}
	return turns, nil
}

// TestConnection probes the backend and returns its decoded payload.
func (a *App) TestConnection() (any, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	payload, err := a.client.TestConnection(a.ctx)
	if err != nil {
		a.reportError(err)
		return nil, err
	}
	return payload, nil
}

// StartRecording starts push-to-talk capture.
func (a *App) StartRecording() (domain.VoiceStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.VoiceStatus{}, err
	}
	if err := a.voice.Start(a.ctx); err != nil {
		return domain.VoiceStatus{}, err
	}
	return a.voice.Status(), nil
}

// StopRecording stops capture and turns the audio into a draft.
func (a *App) StopRecording() (VoiceResult, error) {
	if err := a.requireReady(); err != nil {
		return VoiceResult{}, err
	}
	outcome, err := a.voice.Stop(a.ctx, a.session)
	if err != nil {
		return VoiceResult{}, err
	}
	return newVoiceResult(outcome), nil
}

// AbortRecording discards an in-progress recording.
func (a *App) AbortRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.voice.Abort(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveRecording) {
			return nil
		}
		a.SessionError(domain.ErrorCodeAudioStop, err.Error())
		return err
	}
	return nil
}

// GetStatus returns the recorder status.
func (a *App) GetStatus() domain.VoiceStatus {
	if a.voice == nil {
		if a.bootErr != nil {
			return domain.VoiceStatus{State: domain.VoiceStateError, Active: false, Message: a.bootErr.Error()}
		}
		return domain.VoiceStatus{State: domain.VoiceStateIdle, Active: false}
	}
	return a.voice.Status()
}

// GetSession returns the active user and pending draft.
func (a *App) GetSession() domain.Snapshot {
	if a.session == nil {
		return domain.Snapshot{ActiveUserID: domain.DefaultUserID}
	}
	return a.session.Snapshot()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	info := map[string]string{
		"baseURL":          a.cfg.Gateway.BaseURL,
		"transcriber":      a.cfg.Speech.Transcriber,
		"autoSend":         fmt.Sprintf("%t", a.cfg.Session.AutoSend),
		"rulesFile":        a.cfg.Rules.Path,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
	}
	if a.cfg.Speech.Transcriber == config.TranscriberWhisper {
		info["model"] = a.cfg.OpenAI.Model
		info["language"] = a.cfg.OpenAI.Language
	} else {
		info["model"] = a.cfg.Deepgram.Model
		info["language"] = a.cfg.Deepgram.Language
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.client == nil || a.voice == nil || a.session == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) reportError(err error) {
	a.SessionError(domain.ErrorCodeFor(err), err.Error())
}

// VoiceStateChanged emits recorder lifecycle updates to the frontend.
func (a *App) VoiceStateChanged(state domain.VoiceState, reason domain.VoiceStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventVoice, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": voiceReasonMessage(reason),
	})
}

// DraftUpdated emits a freshly transcribed draft.
func (a *App) DraftUpdated(raw string, draft string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDraft, map[string]string{
		"raw":   raw,
		"draft": draft,
	})
}

// TurnCompleted emits a finished exchange.
func (a *App) TurnCompleted(turn domain.ChatTurn) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTurn, turn)
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func newVoiceResult(outcome domain.IngestOutcome) VoiceResult {
	result := VoiceResult{
		Draft: outcome.Draft,
		Sent:  outcome.Sent,
		Turn:  outcome.Turn,
	}
	if outcome.Failure != nil {
		result.Failure = outcome.Failure.Error()
	}
	if outcome.SendErr != nil {
		result.SendError = outcome.SendErr.Error()
	}
	return result
}

func voiceReasonMessage(reason domain.VoiceStateReason) string {
	switch reason {
	case domain.VoiceReasonReady:
		return "Ready"
	case domain.VoiceReasonRecordingStarted:
		return "Recording started"
	case domain.VoiceReasonRecordingRestarted:
		return "Recording restarted; previous capture discarded"
	case domain.VoiceReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case domain.VoiceReasonDraftReady:
		return "Transcription ready for review"
	case domain.VoiceReasonDraftSent:
		return "Transcription sent"
	case domain.VoiceReasonAutoSendFailed:
		return "Transcription ready (send failed)"
	case domain.VoiceReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.VoiceReasonNoAudio:
		return "No audio captured"
	case domain.VoiceReasonTranscriptionFailed:
		return "Transcription failed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeInvalidInput:
		return "Invalid input"
	case domain.ErrorCodeHTTP:
		return "Server returned an error"
	case domain.ErrorCodeTransport:
		return "Request failed"
	case domain.ErrorCodeReply:
		return "Unexpected server reply"
	case domain.ErrorCodeAudioCapture:
		return "Audio capture issue"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
