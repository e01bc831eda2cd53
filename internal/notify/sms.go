package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

const telnyxBaseURL = "https://api.telnyx.com/v2"

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// TelnyxSender sends SMS via the Telnyx REST API.
type TelnyxSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// TelnyxConfig holds configuration for the Telnyx sender.
type TelnyxConfig struct {
	APIKey     string
	From       string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewTelnyxSender creates a Telnyx SMS sender. Returns nil when no API key is
// configured so callers can fall back to a stub.
func NewTelnyxSender(cfg TelnyxConfig, logger *logging.Logger) *TelnyxSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = telnyxBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &TelnyxSender{
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SendSMS posts one outbound message.
func (s *TelnyxSender) SendSMS(ctx context.Context, to, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("notify: sms recipient required")
	}
	payload, err := json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}{From: s.from, To: to, Text: body})
	if err != nil {
		return fmt.Errorf("notify: marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("telnyx send failed", "error", err, "to", to)
		return fmt.Errorf("notify: telnyx send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("telnyx returned error status", "status", resp.StatusCode, "body", string(snippet), "to", to)
		return fmt.Errorf("notify: telnyx returned status %d", resp.StatusCode)
	}

	s.logger.Info("sms sent via telnyx", "to", to, "status", resp.StatusCode)
	return nil
}

// StubSMSSender is a no-op sender for testing or when SMS is disabled.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// SendSMS logs but doesn't send.
func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ SMSSender = (*TelnyxSender)(nil)
var _ SMSSender = (*StubSMSSender)(nil)
