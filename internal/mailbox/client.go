// Package mailbox retrieves verification emails from the disposable-mailbox
// provider. It polls the inbox-listing endpoint until a message matching the
// configured subject marker arrives, then fetches the message body.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrVerificationTimeout is returned when the verification email does not
	// arrive within the configured number of polls.
	ErrVerificationTimeout = errors.New("verification email did not arrive in time")
	// ErrEmailFetchFailed is returned when the provider refuses to hand out a
	// message body.
	ErrEmailFetchFailed = errors.New("failed to read email content")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Message is one entry in an inbox listing.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

type listResponse struct {
	Success bool      `json:"success"`
	Result  []Message `json:"result"`
}

type messageResponse struct {
	Success bool `json:"success"`
	Result  struct {
		HTMLContent string `json:"html_content"`
	} `json:"result"`
}

// Config holds mailbox client configuration.
type Config struct {
	BaseURL       string
	SubjectMarker string
	PollInterval  time.Duration
	MaxAttempts   int
	Timeout       time.Duration
}

// Client queries the disposable-mailbox provider.
type Client struct {
	baseURL       string
	subjectMarker string
	pollInterval  time.Duration
	maxAttempts   int
	http          *http.Client
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *slog.Logger
}

// NewClient creates a mailbox client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		subjectMarker: strings.ToLower(cfg.SubjectMarker),
		pollInterval:  cfg.PollInterval,
		maxAttempts:   cfg.MaxAttempts,
		http:          &http.Client{Timeout: cfg.Timeout},
		sleep:         sleepContext,
		logger:        logger,
	}
}

// AwaitVerificationEmail polls the inbox for the given address until a
// message whose subject contains the configured marker appears, and returns
// its message ID. Transport errors are logged and polling continues; only
// exhausting the poll ceiling fails, with ErrVerificationTimeout.
func (c *Client) AwaitVerificationEmail(ctx context.Context, email string) (string, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		id, found, err := c.checkInbox(ctx, email)
		if err != nil {
			c.logger.Warn("inbox poll failed",
				"email", email,
				"attempt", attempt,
				"error", err,
			)
		} else if found {
			c.logger.Info("verification email found", "email", email, "message_id", id)
			return id, nil
		}

		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
	}
	return "", ErrVerificationTimeout
}

// FetchBody retrieves the HTML body of a message by ID.
func (c *Client) FetchBody(ctx context.Context, messageID string) (string, error) {
	var out messageResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/inbox/%s", c.baseURL, messageID), &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", ErrEmailFetchFailed
	}
	return out.Result.HTMLContent, nil
}

func (c *Client) checkInbox(ctx context.Context, email string) (string, bool, error) {
	var out listResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/emails/%s", c.baseURL, email), &out); err != nil {
		return "", false, err
	}
	if !out.Success {
		return "", false, nil
	}
	for _, msg := range out.Result {
		if strings.Contains(strings.ToLower(msg.Subject), c.subjectMarker) {
			return msg.ID, true, nil
		}
	}
	return "", false, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailbox: unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mailbox: decode response: %w", err)
	}
	return nil
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
