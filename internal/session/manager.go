// Package session owns the upstream credential lifecycle: it hands out the
// cached token while it has quota left and otherwise drives the full
// registration, email verification, activation, and login sequence to mint
// a new one.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bankconv/internal/identity"
)

var (
	// ErrSessionCreationExhausted is returned when every registration attempt
	// of a renewal has failed.
	ErrSessionCreationExhausted = errors.New("failed to create a new session after all registration attempts")
	// ErrVerificationLinkMissing is returned when the verification email
	// contains no recognizable activation link.
	ErrVerificationLinkMissing = errors.New("verification link not found in email")
)

// Accounts is the slice of the upstream account API used during renewal.
type Accounts interface {
	Register(ctx context.Context, id identity.Identity) (int, error)
	Activate(ctx context.Context, link string) error
	Login(ctx context.Context, email, password string) (string, error)
}

// Mailbox waits for and retrieves the verification email.
type Mailbox interface {
	AwaitVerificationEmail(ctx context.Context, email string) (string, error)
	FetchBody(ctx context.Context, messageID string) (string, error)
}

// Config holds session manager tunables.
type Config struct {
	MaxUsage                int
	MaxRegistrationAttempts int
}

// Manager decides whether the stored token is still usable and renews it
// when it is not. Concurrent renewals are not serialized: two requests that
// both observe an exhausted token each mint a valid session and the last
// write wins, which wastes work but never hands out a bad token.
type Manager struct {
	store    Store
	accounts Accounts
	mailbox  Mailbox
	generate func() identity.Identity
	extract  func(htmlContent string) (string, bool)

	maxUsage    int
	maxAttempts int
	logger      *slog.Logger
}

// NewManager creates a session manager.
func NewManager(
	store Store,
	accounts Accounts,
	mailbox Mailbox,
	generate func() identity.Identity,
	extract func(htmlContent string) (string, bool),
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		store:       store,
		accounts:    accounts,
		mailbox:     mailbox,
		generate:    generate,
		extract:     extract,
		maxUsage:    cfg.MaxUsage,
		maxAttempts: cfg.MaxRegistrationAttempts,
		logger:      logger,
	}
}

// AcquireToken returns the stored token if it still has quota left, and
// otherwise renews the session and returns the new token. It never returns
// a token already past the usage ceiling.
func (m *Manager) AcquireToken(ctx context.Context) (string, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to load session, forcing renewal", "error", err)
		sess = Session{}
	}

	if sess.Usable(m.maxUsage) {
		return sess.Token, nil
	}

	m.logger.Info("token absent or exhausted, creating new session",
		"usage_count", sess.UsageCount,
		"max_usage", m.maxUsage,
	)
	sess, err = m.renew(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// RecordUsage increments the usage counter after a successful conversion and
// returns the new count. The read-modify-write is not atomic; under
// concurrency the counter is approximate, which only delays renewal by at
// most one conversion.
func (m *Manager) RecordUsage(ctx context.Context) (int, error) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	sess.UsageCount++
	if err := m.store.Save(ctx, sess); err != nil {
		return 0, err
	}
	m.logger.Info("token usage updated", "usage_count", sess.UsageCount, "max_usage", m.maxUsage)
	return sess.UsageCount, nil
}

// renew runs independent registration attempts, each with a fresh identity,
// until one produces a token or the attempt budget is spent. The winning
// session is persisted before it is returned.
func (m *Manager) renew(ctx context.Context) (Session, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		m.logger.Info("registration attempt", "attempt", attempt, "max_attempts", m.maxAttempts)

		token, err := m.attempt(ctx)
		if err != nil {
			m.logger.Error("session creation attempt failed", "attempt", attempt, "error", err)
			continue
		}

		sess := Session{Token: token, UsageCount: 0}
		if err := m.store.Save(ctx, sess); err != nil {
			return Session{}, fmt.Errorf("persist new session: %w", err)
		}
		m.logger.Info("new session created and saved")
		return sess, nil
	}
	return Session{}, ErrSessionCreationExhausted
}

func (m *Manager) attempt(ctx context.Context) (string, error) {
	id := m.generate()
	m.logger.Info("generated new credentials", "email", id.Email)

	status, err := m.accounts.Register(ctx, id)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("registration rejected with status %d", status)
	}

	messageID, err := m.mailbox.AwaitVerificationEmail(ctx, id.Email)
	if err != nil {
		return "", err
	}

	body, err := m.mailbox.FetchBody(ctx, messageID)
	if err != nil {
		return "", err
	}

	link, ok := m.extract(body)
	if !ok {
		return "", ErrVerificationLinkMissing
	}

	if err := m.accounts.Activate(ctx, link); err != nil {
		return "", err
	}

	return m.accounts.Login(ctx, id.Email, id.Password)
}
