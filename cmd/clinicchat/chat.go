package main

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"clinicchat/internal/usecase"
)

const chatHelp = `Commands:
  /user <id>       switch the active user
  /history [id]    show stored turns (default: active user)
  /test            probe the backend
  /voice           start recording, or stop and transcribe
  /cancel          discard the current recording
  /draft           show the pending draft
  /send            send the pending draft
  /quit            leave
Anything else is sent as a message.`

func (c *cli) runChat(ctx context.Context) error {
	snap := c.services.Session.Snapshot()
	c.render.activeUser(snap)
	c.render.info("Type /help for commands.")

	scanner := bufio.NewScanner(c.in)
	for {
		c.render.prompt(c.services.Session.ActiveUserID())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := c.handleLine(ctx, line); quit {
			break
		}
	}

	if c.services.Voice.Status().Active {
		_ = c.services.Voice.Abort()
	}
	return scanner.Err()
}

// handleLine runs one line of chat input and reports whether to leave.
func (c *cli) handleLine(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		c.render.info(chatHelp)
	case "/user":
		if err := c.services.Client.SwitchUser(c.services.Session, arg); err != nil {
			c.render.fail(err)
			return false
		}
		c.render.activeUser(c.services.Session.Snapshot())
	case "/history":
		if arg == "" {
			arg = c.services.Session.ActiveUserID()
		}
		if err := c.runHistory(ctx, arg); err != nil {
			c.render.fail(err)
		}
	case "/test":
		if err := c.runTest(ctx); err != nil {
			c.render.fail(err)
		}
	case "/voice":
		c.toggleVoice(ctx)
	case "/cancel":
		if err := c.services.Voice.Abort(); err != nil && !errors.Is(err, usecase.ErrNoActiveRecording) {
			c.render.fail(err)
		}
	case "/draft":
		c.render.pending(c.services.Session.PendingMessage())
	case "/send":
		turn, err := c.services.Client.SubmitDraft(ctx, c.services.Session)
		if err != nil {
			c.render.fail(err)
			return false
		}
		c.render.TurnCompleted(turn)
	default:
		c.render.info("Unknown command %s. Type /help for commands.", command)
	}
	return false
}

func (c *cli) send(ctx context.Context, text string) {
	turn, err := c.services.Client.SendMessage(ctx, c.services.Session, text)
	if err != nil {
		c.render.fail(err)
		return
	}
	c.render.TurnCompleted(turn)
}

// toggleVoice starts a recording, or stops the current one. Outcomes are
// reported through the renderer's EventSink methods.
func (c *cli) toggleVoice(ctx context.Context) {
	if !c.services.Voice.Status().Active {
		// Start failures are already reported as audio_capture events.
		_ = c.services.Voice.Start(ctx)
		return
	}
	if _, err := c.services.Voice.Stop(ctx, c.services.Session); err != nil {
		c.render.fail(err)
	}
}
