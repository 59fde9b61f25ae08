package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 5, cfg.MaxUsage)
	assert.Equal(t, 3, cfg.MaxRegistrationAttempts)
	assert.Equal(t, 5*time.Second, cfg.MailboxPollInterval)
	assert.Equal(t, 15, cfg.MailboxPollAttempts)
	assert.Equal(t, 3*time.Second, cfg.ConvertPollInterval)
	assert.Equal(t, 90*time.Second, cfg.ConvertDeadline)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "verify email", cfg.SubjectMarker)
	assert.Equal(t, "verify my email", cfg.LinkMarker)
	assert.NotEmpty(t, cfg.MailboxDomains)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MAX_USAGE", "9")
	t.Setenv("MAILBOX_POLL_INTERVAL", "250ms")
	t.Setenv("MAILBOX_DOMAINS", "a.test, b.test,")
	t.Setenv("SUBJECT_MARKER", "confirm your address")

	cfg := Load()

	assert.Equal(t, 9, cfg.MaxUsage)
	assert.Equal(t, 250*time.Millisecond, cfg.MailboxPollInterval)
	assert.Equal(t, []string{"a.test", "b.test"}, cfg.MailboxDomains)
	assert.Equal(t, "confirm your address", cfg.SubjectMarker)
}

func TestGetEnvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("MAX_USAGE", "not-a-number")
	assert.Equal(t, 5, Load().MaxUsage)
}
