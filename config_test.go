package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	opts, err := accounts.LoadConfigFrom(map[string]string{
		"ACCOUNTS_TOKEN_SIGNING_KEY": "super-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, accounts.DriverSQLite, opts.DatabaseDriver)
	assert.Equal(t, 3, opts.GetLockoutThreshold())
	assert.Equal(t, 2*time.Hour, opts.GetLockoutDuration())
	assert.Equal(t, "super-secret", opts.GetTokenSigningKey())
	assert.Equal(t, accounts.DefaultTokenIssuer, opts.GetTokenIssuer())
	assert.Equal(t, accounts.DefaultConfirmationTTL, opts.GetTokenTTL())
	assert.Equal(t, accounts.DefaultStoreTimeout, opts.GetStoreTimeout())
	assert.Equal(t, accounts.DefaultNotifyTimeout, opts.GetNotifyTimeout())
	assert.False(t, opts.GetRevealUnregistered())
	assert.Equal(t, ":8080", opts.HTTPAddr)
	assert.False(t, opts.SMTP.Enabled())
	assert.Equal(t, 587, opts.SMTP.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	opts, err := accounts.LoadConfigFrom(map[string]string{
		"ACCOUNTS_DATABASE_DRIVER":     "postgres",
		"ACCOUNTS_DATABASE_DSN":        "postgres://localhost/accounts",
		"ACCOUNTS_LOCKOUT_THRESHOLD":   "5",
		"ACCOUNTS_LOCKOUT_DURATION":    "15m",
		"ACCOUNTS_TOKEN_SIGNING_KEY":   "super-secret",
		"ACCOUNTS_REVEAL_UNREGISTERED": "true",
		"ACCOUNTS_SMTP_HOST":           "smtp.example.com",
		"ACCOUNTS_SMTP_FROM":           "no-reply@example.com",
		"ACCOUNTS_NOTIFY_TIMEOUT":      "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, accounts.DriverPostgres, opts.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/accounts", opts.DatabaseDSN)
	assert.Equal(t, 5, opts.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, opts.LockoutDuration)
	assert.True(t, opts.RevealUnregistered)
	assert.True(t, opts.SMTP.Enabled())
	assert.Equal(t, "no-reply@example.com", opts.SMTP.From)
	assert.Equal(t, 5*time.Second, opts.GetNotifyTimeout())

	policy := accounts.LockoutPolicyFromConfig(opts)
	assert.Equal(t, 5, policy.Threshold)
	assert.Equal(t, 15*time.Minute, policy.Duration)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"missing signing key", map[string]string{}},
		{"unknown driver", map[string]string{
			"ACCOUNTS_TOKEN_SIGNING_KEY": "super-secret",
			"ACCOUNTS_DATABASE_DRIVER":   "oracle",
		}},
		{"zero threshold", map[string]string{
			"ACCOUNTS_TOKEN_SIGNING_KEY": "super-secret",
			"ACCOUNTS_LOCKOUT_THRESHOLD": "0",
		}},
		{"unparsable duration", map[string]string{
			"ACCOUNTS_TOKEN_SIGNING_KEY": "super-secret",
			"ACCOUNTS_LOCKOUT_DURATION":  "forever",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.LoadConfigFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}
