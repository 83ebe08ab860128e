package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Retry policy for transient embedding failures (429 and 5xx).
const (
	defaultAttempts = 3
	retryBase       = 500 * time.Millisecond
	// maxResponseBytes caps a decoded embeddings payload.
	maxResponseBytes = 64 << 20
)

// statusError is a non-2xx reply. Body is kept so each backend can pull its
// own error message out of it.
type statusError struct {
	Code int
	Body []byte
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// endpoint is one JSON POST target shared by the embedders.
type endpoint struct {
	client   *http.Client
	url      string
	header   http.Header
	attempts int
}

// post sends in as JSON and decodes the reply into out. 429 and 5xx replies
// are retried with exponential backoff until attempts run out or ctx ends.
func (ep endpoint) post(ctx context.Context, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	attempts := max(ep.attempts, 1)
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBase << (attempt - 1)):
			}
		}

		body, code, err := ep.do(ctx, payload)
		switch {
		case err != nil:
			return err
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			lastErr = &statusError{Code: code, Body: body}
			continue
		case code < 200 || code >= 300:
			return &statusError{Code: code, Body: body}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return lastErr
}

func (ep endpoint) do(ctx context.Context, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range ep.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ep.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
