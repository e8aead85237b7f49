package usecase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

type historyReply struct {
	History []historyItem `json:"history"`
}

type historyItem struct {
	UserMessage       string  `json:"user_message"`
	AssistantResponse *string `json:"assistant_response"`
	Response          *string `json:"response"`
}

// decodeChatReply accepts both reply key names seen across backend
// deployments. A key that is present counts even when its value is null.
func decodeChatReply(userMessage string, raw ports.RawResponse) (domain.ChatTurn, error) {
	if raw.Status != http.StatusOK {
		return domain.ChatTurn{}, &domain.HTTPError{Status: raw.Status, Body: string(raw.Body)}
	}

	var reply map[string]json.RawMessage
	if err := json.Unmarshal(raw.Body, &reply); err != nil {
		return domain.ChatTurn{}, &domain.ReplyError{Message: fmt.Sprintf("invalid chat reply: %v", err)}
	}

	response, hasResponse := replyText(reply, "response")
	assistant, hasAssistant := replyText(reply, "assistant_response")
	switch {
	case hasResponse:
		if hasAssistant && assistant != response {
			log.Warn().Msg("chat reply carries both response and assistant_response; using response")
		}
		return domain.ChatTurn{UserMessage: userMessage, AssistantResponse: response}, nil
	case hasAssistant:
		return domain.ChatTurn{UserMessage: userMessage, AssistantResponse: assistant}, nil
	default:
		return domain.ChatTurn{}, &domain.ReplyError{Message: replyErrorMessage(reply["error"])}
	}
}

// replyText reads key as text. null reads as "", other JSON values verbatim.
func replyText(reply map[string]json.RawMessage, key string) (string, bool) {
	value, ok := reply[key]
	if !ok {
		return "", false
	}
	if string(value) == "null" {
		return "", true
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return string(value), true
	}
	return text, true
}

func replyErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "Unknown error"
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return "Unknown error"
		}
		return text
	}
	return string(raw)
}

func decodeHistory(raw ports.RawResponse) ([]domain.ChatTurn, error) {
	if raw.Status != http.StatusOK {
		return nil, &domain.HTTPError{Status: raw.Status, Body: string(raw.Body)}
	}

	var reply historyReply
	if err := json.Unmarshal(raw.Body, &reply); err != nil {
		return nil, &domain.ReplyError{Message: fmt.Sprintf("invalid history reply: %v", err)}
	}

	turns := make([]domain.ChatTurn, 0, len(reply.History))
	for _, item := range reply.History {
		turn := domain.ChatTurn{UserMessage: item.UserMessage}
		switch {
		case item.AssistantResponse != nil:
			turn.AssistantResponse = *item.AssistantResponse
		case item.Response != nil:
			turn.AssistantResponse = *item.Response
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func decodeProbe(raw ports.RawResponse) (any, error) {
	if raw.Status != http.StatusOK {
		return nil, &domain.HTTPError{Status: raw.Status, Body: string(raw.Body)}
	}

	var payload any
	if err := json.Unmarshal(raw.Body, &payload); err != nil {
		return nil, &domain.ReplyError{Message: fmt.Sprintf("invalid test reply: %v", err)}
	}
	return payload, nil
}
