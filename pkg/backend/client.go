// Package backend is the HTTP client for the Stella agent backend.
//
// The relay sits between the portfolio client and the backend like so:
//
//	Client <--> Relay <--> Stella backend
//
// and this package owns the second leg: the non-streaming /chat round trip,
// the /chat/stream SSE connection, and the trace pass-through.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// chatPayload is the request body both backend chat endpoints accept.
type chatPayload struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Client issues requests against the backend base URL.
type Client struct {
	baseURL string
	logger  *zap.Logger

	// chatClient carries a bounded timeout for single round trips.
	chatClient *http.Client

	// streamClient has no client-level timeout: the streaming path is
	// bounded per-request via context deadlines so a healthy long stream
	// is not cut off mid-flight.
	streamClient *http.Client
}

// NewClient creates a backend client. chatTimeout bounds non-streaming
// round trips (the trace proxy included).
func NewClient(baseURL string, chatTimeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:      baseURL,
		logger:       logger,
		chatClient:   &http.Client{Timeout: chatTimeout},
		streamClient: &http.Client{},
	}
}

// Chat performs one non-streaming round trip against POST /chat and returns
// the raw response body.
func (c *Client) Chat(ctx context.Context, message, sessionID string) ([]byte, error) {
	body, err := json.Marshal(chatPayload{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.chatClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading backend chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// OpenStream opens the backend's SSE endpoint POST /chat/stream and returns
// the response body for the caller to pump. The caller owns the reader and
// must close it on every exit path. A non-OK status or a missing body is a
// connector-level failure, never silently swallowed.
func (c *Client) OpenStream(ctx context.Context, message, sessionID string) (io.ReadCloser, error) {
	body, err := json.Marshal(chatPayload{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("encoding stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend stream request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if resp.Body == nil {
		return nil, ErrNoBody
	}

	c.logger.Debug("opened backend stream",
		zap.String("session_id", sessionID),
	)

	return resp.Body, nil
}

// Trace fetches the LangSmith trace for a session via the backend's trace
// endpoint, returning the status code and raw body for pass-through.
func (c *Client) Trace(ctx context.Context, sessionID string) (int, []byte, error) {
	target := c.baseURL + "/langsmith-trace/" + url.PathEscape(sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating trace request: %w", err)
	}

	resp, err := c.chatClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("backend trace request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading backend trace response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
