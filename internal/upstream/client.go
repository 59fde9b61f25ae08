// Package upstream talks to the statement-conversion service: its account
// API (register, activate, login) and its conversion API (upload, convert).
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrLoginFailed is returned when the login response carries no token.
	ErrLoginFailed = errors.New("login failed: token not found")
	// ErrUploadFailed is returned when the upload response lacks an artifact id.
	ErrUploadFailed = errors.New("upload failed: artifact id not found")
	// ErrConversionTimeout is returned when the artifact is still not ready
	// at the polling deadline.
	ErrConversionTimeout = errors.New("conversion timed out")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxActivationRedirects bounds redirect-following on activation-link visits.
const maxActivationRedirects = 5

// Config holds upstream client configuration.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	PollDeadline time.Duration
}

// Client is the HTTP client for the upstream service. Individual calls are
// not retried here; retry policy lives with the callers (session renewal
// loops, conversion polling).
type Client struct {
	baseURL      string
	pollInterval time.Duration
	pollDeadline time.Duration
	http         *http.Client
	redirecting  *http.Client
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

// NewClient creates an upstream client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		pollDeadline: cfg.PollDeadline,
		http:         &http.Client{Timeout: cfg.Timeout},
		redirecting: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxActivationRedirects {
					return fmt.Errorf("stopped after %d redirects", maxActivationRedirects)
				}
				return nil
			},
		},
		sleep:  sleepContext,
		logger: logger,
	}
}

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
