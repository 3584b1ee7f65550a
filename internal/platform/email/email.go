// Package email delivers outbound notifications through an HTTP mail provider.
// Send failures never block or reverse the state change that triggered them;
// callers log the error and move on.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPSender posts messages as JSON to a hosted mail provider.
type HTTPSender struct {
	client      *http.Client
	providerURL string
	apiKey      string
	from        string
}

// NewHTTPSender creates a sender for the given provider endpoint.
func NewHTTPSender(providerURL, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		client:      &http.Client{Timeout: 15 * time.Second},
		providerURL: providerURL,
		apiKey:      apiKey,
		from:        from,
	}
}

var _ Sender = (*HTTPSender)(nil)

// Send posts the message to the provider. Any non-2xx response is an error.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(struct {
		From string `json:"from"`
		Message
	}{From: s.from, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}

// NopSender discards messages. Used when no provider is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, msg Message) error { return nil }
