package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"clinicchat/internal/domain"
)

// renderer prints chat output and voice events to a terminal. It is the
// EventSink the voice controller reports into, so writes are serialized.
type renderer struct {
	mu  sync.Mutex
	out io.Writer

	you       *color.Color
	assistant *color.Color
	draft     *color.Color
	muted     *color.Color
	failure   *color.Color
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{
		out:       out,
		you:       color.New(color.FgCyan, color.Bold),
		assistant: color.New(color.FgGreen),
		draft:     color.New(color.FgYellow),
		muted:     color.New(color.Faint),
		failure:   color.New(color.FgRed),
	}
}

func (r *renderer) VoiceStateChanged(state domain.VoiceState, reason domain.VoiceStateReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted.Fprintf(r.out, "[voice] %s (%s)\n", state, reason)
}

func (r *renderer) DraftUpdated(raw string, draft string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raw != "" && raw != draft {
		r.muted.Fprintf(r.out, "Heard: %s\n", raw)
	}
	r.draft.Fprintf(r.out, "Draft: %s\n", draft)
}

func (r *renderer) TurnCompleted(turn domain.ChatTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeTurn(turn)
}

func (r *renderer) SessionError(code domain.ErrorCode, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure.Fprintf(r.out, "[%s] %s\n", code, detail)
}

func (r *renderer) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure.Fprintln(r.out, err.Error())
}

func (r *renderer) info(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted.Fprintf(r.out, format+"\n", args...)
}

func (r *renderer) activeUser(snap domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Active user: %s\n", r.you.Sprint(snap.ActiveUserID))
}

func (r *renderer) pending(draft string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(draft) == "" {
		r.muted.Fprintln(r.out, "No pending draft")
		return
	}
	r.draft.Fprintf(r.out, "Draft: %s\n", draft)
}

func (r *renderer) probe(payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assistant.Fprintln(r.out, "Connection OK")
	fmt.Fprintln(r.out, payload)
}

func (r *renderer) history(userID string, turns []domain.ChatTurn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(turns) == 0 {
		r.muted.Fprintf(r.out, "No history for %s\n", userID)
		return
	}
	r.muted.Fprintf(r.out, "History for %s (%d turns)\n", userID, len(turns))
	r.muted.Fprintln(r.out, strings.Repeat("─", 40))
	for _, turn := range turns {
		r.writeTurn(turn)
	}
}

func (r *renderer) prompt(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.you.Fprintf(r.out, "%s> ", userID)
}

func (r *renderer) writeTurn(turn domain.ChatTurn) {
	fmt.Fprintf(r.out, "%s %s\n", r.you.Sprint("You:"), turn.UserMessage)
	fmt.Fprintf(r.out, "%s %s\n", r.assistant.Sprint("Assistant:"), turn.AssistantResponse)
}
