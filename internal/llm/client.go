// Package llm talks to the remote model service: a streaming SSE endpoint for
// token-by-token responses and a sibling non-streaming endpoint used as a
// fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"shopchat/backend/internal/model"
	"shopchat/backend/internal/sse"
)

// ChatRequest is the body both endpoints accept.
type ChatRequest struct {
	Message   string `json:"message"`
	Model     string `json:"model"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// StreamDelta publishes the accumulated assistant text after each chunk.
// Content only ever grows; observers see the trailing message fill in
// monotonically.
type StreamDelta struct {
	Content string
}

// FallbackResponse is the non-streaming endpoint's payload. Products, when
// present, are authoritative and make text extraction unnecessary.
type FallbackResponse struct {
	Response string          `json:"response"`
	Products []model.Product `json:"products,omitempty"`
}

// ErrEmptyStream reports a stream that ended normally without delivering any
// content. Indistinguishable from a silently-broken backend, so callers treat
// it like any other transport failure.
var ErrEmptyStream = errors.New("llm: stream delivered no content")

// Provider is the transport contract the chat service depends on.
type Provider interface {
	// Stream issues one streaming request and publishes growing totals on
	// ch until the stream resolves. It closes ch before returning. The
	// final accumulated text is returned on success; any HTTP failure,
	// explicit error frame, or empty stream is an error. No retry happens
	// here. Cancelling ctx aborts the read loop.
	Stream(ctx context.Context, req *ChatRequest, ch chan<- StreamDelta) (string, error)

	// Complete issues one non-streaming request with the identical body.
	Complete(ctx context.Context, req *ChatRequest) (*FallbackResponse, error)
}

type client struct {
	http        *http.Client
	rest        *resty.Client
	streamURL   string
	fallbackURL string
}

// NewClient builds a Provider for the model service at baseURL. streamPath
// and fallbackPath are the two sibling endpoints.
func NewClient(baseURL, streamPath, fallbackPath string) Provider {
	base := strings.TrimRight(baseURL, "/")
	return &client{
		http:        &http.Client{},
		rest:        resty.New().SetBaseURL(base),
		streamURL:   base + streamPath,
		fallbackURL: fallbackPath,
	}
}

func (c *client) Stream(ctx context.Context, req *ChatRequest, ch chan<- StreamDelta) (string, error) {
	defer close(ch)

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.streamURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("stream endpoint returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var total strings.Builder
	dec := sse.NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if err != nil {
			return "", fmt.Errorf("reading stream: %w", err)
		}
		switch ev.Kind {
		case sse.KindChunk:
			total.WriteString(ev.Text)
			select {
			case ch <- StreamDelta{Content: total.String()}:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		case sse.KindError:
			return "", fmt.Errorf("stream error frame: %s", ev.Message)
		case sse.KindEnd:
			if total.Len() == 0 {
				return "", ErrEmptyStream
			}
			return total.String(), nil
		}
	}
}

func (c *client) Complete(ctx context.Context, req *ChatRequest) (*FallbackResponse, error) {
	var out FallbackResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post(c.fallbackURL)
	if err != nil {
		return nil, fmt.Errorf("fallback request failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("fallback endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}
