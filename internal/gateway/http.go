package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"clinicchat/internal/domain"
	"clinicchat/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Config controls the HTTP gateway.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPGateway implements ports.RemoteGateway over plain HTTP.
type HTTPGateway struct {
	base   string
	client *http.Client
}

func NewHTTPGateway(cfg Config) (*HTTPGateway, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway base URL is not configured")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &HTTPGateway{base: base, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

// BaseURL returns the normalized endpoint root.
func (g *HTTPGateway) BaseURL() string {
	return g.base
}

type chatRequest struct {
	UserID      string `json:"user_id"`
	UserMessage string `json:"user_message"`
}

func (g *HTTPGateway) Chat(ctx context.Context, userID string, message string) (ports.RawResponse, error) {
	body, err := json.Marshal(chatRequest{UserID: userID, UserMessage: message})
	if err != nil {
		return ports.RawResponse{}, fmt.Errorf("failed to encode chat request: %w", err)
	}
	return g.do(ctx, http.MethodPost, g.base+"/chat", body)
}

func (g *HTTPGateway) History(ctx context.Context, userID string) (ports.RawResponse, error) {
	return g.do(ctx, http.MethodGet, g.base+"/history/"+url.PathEscape(userID), nil)
}

func (g *HTTPGateway) Test(ctx context.Context) (ports.RawResponse, error) {
	return g.do(ctx, http.MethodGet, g.base+"/test", nil)
}

func (g *HTTPGateway) do(ctx context.Context, method string, target string, body []byte) (ports.RawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return ports.RawResponse{}, &domain.TransportError{Reason: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("url", target).Msg("gateway request failed")
		return ports.RawResponse{}, &domain.TransportError{Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.RawResponse{}, &domain.TransportError{Reason: "failed to read response body: " + err.Error(), Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("gateway request completed")

	return ports.RawResponse{Status: resp.StatusCode, Body: payload}, nil
}
