package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	httpMaxAttempts = 3
	httpBackoffBase = 250 * time.Millisecond
	httpBackoffCap  = 2 * time.Second
)

// HTTPAdapter forwards generation requests to a collaborator service
// speaking a small JSON contract: the request plus an action field,
// answered with {"content": ...} or plain text.
type HTTPAdapter struct {
	url    string
	client *http.Client
}

func NewHTTPAdapter(url string, timeout time.Duration) *HTTPAdapter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPAdapter{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

type httpRequest struct {
	Action string `json:"action"`
	Request
}

func (a *HTTPAdapter) Generate(ctx context.Context, req Request) (string, error) {
	content, err := a.post(ctx, httpRequest{Action: "generate", Request: req})
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

func (a *HTTPAdapter) ShouldContinue(ctx context.Context, req Request) (bool, error) {
	answer, err := a.post(ctx, httpRequest{Action: "should_continue", Request: req})
	if err != nil {
		return false, err
	}
	if answer == "" {
		return false, ErrEmptyContent
	}
	return parseContinueDecision(answer), nil
}

// post sends one generation request, retrying retryable statuses with
// capped backoff. Context cancellation stops the retry loop.
func (a *HTTPAdapter) post(ctx context.Context, body httpRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrGeneration, err)
	}

	var lastErr error
	for attempt := 0; attempt < httpMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
			case <-time.After(backoff(attempt-1, httpBackoffBase, httpBackoffCap)):
			}
		}

		content, retryable, err := a.once(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (a *HTTPAdapter) once(ctx context.Context, payload []byte) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("%w: send request: %v", ErrGeneration, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", isRetryableStatus(res.StatusCode),
			fmt.Errorf("%w: collaborator status %d: %s", ErrGeneration, res.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", true, fmt.Errorf("%w: read response: %v", ErrGeneration, err)
	}

	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && strings.TrimSpace(obj.Content) != "" {
		return strings.TrimSpace(obj.Content), false, nil
	}
	return strings.TrimSpace(string(body)), false, nil
}
