package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTimeout marks a send that exceeded the wall-clock timeout. The
// dispatcher records it on the message row as "timeout".
var ErrTimeout = errors.New("timeout")

// DefaultSendTimeout bounds a single send call.
const DefaultSendTimeout = 30 * time.Second

// WebhookClient posts campaign messages to a webhook-style HTTP endpoint.
type WebhookClient struct {
	endpoint    string
	authKey     string
	sendTimeout time.Duration
	httpClient  *http.Client
}

// NewWebhookClient creates a client for the given endpoint and auth key.
// A non-positive timeout falls back to DefaultSendTimeout.
func NewWebhookClient(endpoint, authKey string, sendTimeout time.Duration) *WebhookClient {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &WebhookClient{
		endpoint:    endpoint,
		authKey:     authKey,
		sendTimeout: sendTimeout,
		httpClient: &http.Client{
			Timeout: sendTimeout + 5*time.Second,
		},
	}
}

type sendPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// withTimeout wraps the context with a timeout if it doesn't already have one.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		// Already has a deadline; no need to wrap again.
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Send implements Client.Send by posting a JSON payload to the endpoint.
// Success requires both an HTTP 2xx status and a success:true body.
func (c *WebhookClient) Send(ctx context.Context, name, phone, body string) error {
	// The send timeout always applies; an earlier caller deadline still wins.
	ctx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	payload, err := json.Marshal(sendPayload{
		Name:    name,
		Phone:   phone,
		Message: body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal send payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authKey != "" {
		req.Header.Set("x-webhook-key", c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	rawBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}

	var parsed sendResult
	if err := json.Unmarshal(rawBytes, &parsed); err != nil {
		return fmt.Errorf("failed to parse webhook response: %w", err)
	}

	if !parsed.Success {
		if parsed.Error != "" {
			return fmt.Errorf("endpoint rejected message: %s", parsed.Error)
		}
		return errors.New("endpoint rejected message")
	}

	return nil
}

// Health implements Client.Health with a simple GET request to the endpoint.
func (c *WebhookClient) Health(ctx context.Context) error {
	// Lightweight ping with a short timeout.
	ctx, cancel := withTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("health: failed to create request: %w", err)
	}

	if c.authKey != "" {
		req.Header.Set("x-webhook-key", c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("health: request timeout or canceled: %w", err)
		}
		return fmt.Errorf("health: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health: non-2xx status: %d", resp.StatusCode)
	}

	return nil
}

// compile-time check: WebhookClient satisfies the Client interface.
var _ Client = (*WebhookClient)(nil)
