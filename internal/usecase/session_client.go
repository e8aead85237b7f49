package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

// ClientConfig controls draft handling.
type ClientConfig struct {
	// AutoSend submits a draft as soon as a transcription fills it.
	AutoSend bool
}

// SessionClient mediates between typed or transcribed input and the remote
// gateway. It is stateless; every operation receives the caller's session.
type SessionClient struct {
	gateway ports.RemoteGateway
	cfg     ClientConfig
}

func NewSessionClient(gateway ports.RemoteGateway, cfg ClientConfig) *SessionClient {
	return &SessionClient{gateway: gateway, cfg: cfg}
}

// AutoSend reports whether transcriptions are submitted without confirmation.
func (c *SessionClient) AutoSend() bool {
	return c.cfg.AutoSend
}

// SwitchUser changes the active speaker for all later calls on session.
func (c *SessionClient) SwitchUser(session *domain.Session, newID string) error {
	trimmed := strings.TrimSpace(newID)
	if trimmed == "" {
		return &domain.InvalidInputError{Field: "user id", Reason: "cannot be empty"}
	}

	previous := session.ActiveUserID()
	session.SetActiveUserID(trimmed)
	log.Info().
		Str("session_id", session.ID()).
		Str("from", previous).
		Str("to", trimmed).
		Msg("switched active user")
	return nil
}

// SendMessage submits text for the active user. It is never retried: the
// backend appends a turn to history on every successful call.
func (c *SessionClient) SendMessage(ctx context.Context, session *domain.Session, text string) (domain.ChatTurn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ChatTurn{}, &domain.InvalidInputError{Field: "message", Reason: "cannot be empty"}
	}

	userID := session.ActiveUserID()
	logger := log.With().Str("session_id", session.ID()).Str("user_id", userID).Logger()

	started := time.Now()
	raw, err := c.gateway.Chat(ctx, userID, trimmed)
	if err != nil {
		logger.Warn().Err(err).Msg("chat request failed")
		return domain.ChatTurn{}, err
	}

	turn, err := decodeChatReply(trimmed, raw)
	if err != nil {
		logger.Warn().Err(err).Int("status", raw.Status).Msg("chat request rejected")
		return domain.ChatTurn{}, err
	}

	logger.Info().Dur("duration", time.Since(started)).Msg("chat turn completed")
	logger.Debug().Str("user_message", turn.UserMessage).Str("assistant_response", turn.AssistantResponse).Msg("chat turn")
	return turn, nil
}

// SubmitDraft sends the pending draft and clears it on success.
func (c *SessionClient) SubmitDraft(ctx context.Context, session *domain.Session) (domain.ChatTurn, error) {
	draft := session.PendingMessage()
	turn, err := c.SendMessage(ctx, session, draft)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	session.ClearPendingIf(turn.UserMessage)
	return turn, nil
}

// FetchHistory lists prior turns for userID. A missing or empty history is
// an empty slice, not an error.
func (c *SessionClient) FetchHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, &domain.InvalidInputError{Field: "user id", Reason: "cannot be empty"}
	}

	raw, err := c.gateway.History(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	turns, err := decodeHistory(raw)
	if err != nil {
		log.Warn().Err(err).Str("user_id", trimmed).Int("status", raw.Status).Msg("history request rejected")
		return nil, err
	}

	log.Debug().Str("user_id", trimmed).Int("turns", len(turns)).Msg("history fetched")
	return turns, nil
}

// TestConnection probes the backend and returns its JSON payload untouched.
func (c *SessionClient) TestConnection(ctx context.Context) (any, error) {
	raw, err := c.gateway.Test(ctx)
	if err != nil {
		return nil, err
	}
	return decodeProbe(raw)
}

// IngestTranscription places a transcription into the session draft. A failed
// transcription leaves the draft as it was and is reported in the outcome.
func (c *SessionClient) IngestTranscription(ctx context.Context, session *domain.Session, result domain.TranscriptionResult) domain.IngestOutcome {
	if !result.Succeeded {
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = "no transcript produced"
		}
		return domain.IngestOutcome{
			Draft:   session.PendingMessage(),
			Failure: &domain.TranscriptionError{Reason: reason},
		}
	}

	session.SetPendingMessage(result.Text)
	outcome := domain.IngestOutcome{Draft: result.Text}
	if !c.cfg.AutoSend {
		return outcome
	}

	turn, err := c.SubmitDraft(ctx, session)
	if err != nil {
		outcome.SendErr = err
		if errors.Is(err, domain.ErrInvalidInput) {
			log.Debug().Str("session_id", session.ID()).Msg("auto-send skipped for blank transcript")
		}
		return outcome
	}
	outcome.Sent = true
	outcome.Turn = &turn
	outcome.Draft = session.PendingMessage()
	return outcome
}
