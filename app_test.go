package main

import (
	"errors"
	"testing"

	"clinicchat/internal/domain"
)

func TestVoiceReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.VoiceStateReason]string{
		domain.VoiceReasonReady:               "Ready",
		domain.VoiceReasonRecordingStarted:    "Recording started",
		domain.VoiceReasonRecordingRestarted:  "Recording restarted; previous capture discarded",
		domain.VoiceReasonTranscribing:        "Recording stopped. Transcribing...",
		domain.VoiceReasonDraftReady:          "Transcription ready for review",
		domain.VoiceReasonDraftSent:           "Transcription sent",
		domain.VoiceReasonAutoSendFailed:      "Transcription ready (send failed)",
		domain.VoiceReasonRecordingDiscarded:  "Recording discarded",
		domain.VoiceReasonNoAudio:             "No audio captured",
		domain.VoiceReasonTranscriptionFailed: "Transcription failed",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := voiceReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := voiceReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:       "Startup failed",
		domain.ErrorCodeInvalidInput:  "Invalid input",
		domain.ErrorCodeHTTP:          "Server returned an error",
		domain.ErrorCodeTransport:     "Request failed",
		domain.ErrorCodeReply:         "Unexpected server reply",
		domain.ErrorCodeAudioCapture:  "Audio capture issue",
		domain.ErrorCodeAudioStop:     "Audio stop issue",
		domain.ErrorCodeTranscription: "Transcription error",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	if _, err := app.SendMessage("hello"); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error from SendMessage, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.VoiceStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}
	if snap := app.GetSession(); snap.ActiveUserID != domain.DefaultUserID {
		t.Fatalf("unexpected session snapshot: %+v", snap)
	}

	app.bootErr = errors.New("boot")
	status = app.GetStatus()
	if status.State != domain.VoiceStateError || status.Active != false || status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
}

func TestNewVoiceResult(t *testing.T) {
	t.Parallel()

	turn := &domain.ChatTurn{UserMessage: "hi", AssistantResponse: "hello"}
	got := newVoiceResult(domain.IngestOutcome{Draft: "", Sent: true, Turn: turn})
	if !got.Sent || got.Turn != turn || got.Failure != "" || got.SendError != "" {
		t.Fatalf("unexpected sent result: %+v", got)
	}

	got = newVoiceResult(domain.IngestOutcome{
		Draft:   "draft",
		SendErr: &domain.HTTPError{Status: 500, Body: "boom"},
	})
	if got.Draft != "draft" || got.SendError != "Error 500: boom" {
		t.Fatalf("unexpected send failure result: %+v", got)
	}

	got = newVoiceResult(domain.IngestOutcome{Failure: &domain.TranscriptionError{Reason: "no audio captured"}})
	if got.Failure == "" {
		t.Fatalf("expected failure text: %+v", got)
	}
}
