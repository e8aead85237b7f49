package domain

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultUserID is the active speaker a fresh session starts with.
const DefaultUserID = "user_1234"

// ChatTurn is one user-message/assistant-response pair.
type ChatTurn struct {
	UserMessage       string `json:"userMessage"`
	AssistantResponse string `json:"assistantResponse"`
}

// TranscriptionResult is the outcome of one recording attempt.
type TranscriptionResult struct {
	Text      string `json:"text"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}

// IngestOutcome reports what happened when a transcription reached the session.
type IngestOutcome struct {
	Draft string    `json:"draft"`
	Sent  bool      `json:"sent"`
	Turn  *ChatTurn `json:"turn,omitempty"`

	// Failure is set when the transcription itself failed. The draft is untouched.
	Failure error `json:"-"`
	// SendErr is set when auto-send was enabled and the submit failed.
	SendErr error `json:"-"`
}

// Session is the state of one interactive user. It is owned by the caller and
// passed into every SessionClient operation.
type Session struct {
	id string

	mu           sync.Mutex
	activeUserID string
	pending      string
}

// NewSession creates a session for userID, falling back to DefaultUserID.
func NewSession(userID string) *Session {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = DefaultUserID
	}
	return &Session{id: uuid.NewString(), activeUserID: userID}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) ActiveUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeUserID
}

func (s *Session) SetActiveUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeUserID = userID
}

// PendingMessage returns the unsent draft.
func (s *Session) PendingMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetPendingMessage replaces the draft.
func (s *Session) SetPendingMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = text
}

// ClearPendingIf empties the draft only if it still equals sent.
func (s *Session) ClearPendingIf(sent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(s.pending) != sent {
		return false
	}
	s.pending = ""
	return true
}

// Snapshot is a read-only view of a session for rendering surfaces.
type Snapshot struct {
	ID             string `json:"id"`
	ActiveUserID   string `json:"activeUserId"`
	PendingMessage string `json:"pendingMessage"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.id, ActiveUserID: s.activeUserID, PendingMessage: s.pending}
}

// VoiceState models the push-to-talk lifecycle.
type VoiceState string

const (
	VoiceStateIdle         VoiceState = "idle"
	VoiceStateRecording    VoiceState = "recording"
	VoiceStateTranscribing VoiceState = "transcribing"
	VoiceStateError        VoiceState = "error"
)

// VoiceStateReason gives a structured reason for a voice state transition.
type VoiceStateReason string

const (
	VoiceReasonReady               VoiceStateReason = "ready"
	VoiceReasonRecordingStarted    VoiceStateReason = "recording_started"
	VoiceReasonRecordingRestarted  VoiceStateReason = "recording_restarted"
	VoiceReasonTranscribing        VoiceStateReason = "transcribing"
	VoiceReasonDraftReady          VoiceStateReason = "draft_ready"
	VoiceReasonDraftSent           VoiceStateReason = "draft_sent"
	VoiceReasonAutoSendFailed      VoiceStateReason = "auto_send_failed"
	VoiceReasonRecordingDiscarded  VoiceStateReason = "recording_discarded"
	VoiceReasonNoAudio             VoiceStateReason = "no_audio"
	VoiceReasonTranscriptionFailed VoiceStateReason = "transcription_failed"
)

// VoiceStatus summarizes the recorder for rendering surfaces.
type VoiceStatus struct {
	State   VoiceState `json:"state"`
	Active  bool       `json:"active"`
	Message string     `json:"message,omitempty"`
}

// TranscriptKind identifies whether a provider event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent is one piece of provider output.
type TranscriptEvent struct {
	Kind TranscriptKind `json:"kind"`
	Text string         `json:"text"`
}
