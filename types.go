package accounts

import (
	"context"
	"time"
)

// Logger is the structured logger used across the package.
// Args are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds account lifecycle options
type Config interface {
	GetLockoutThreshold() int
	GetLockoutDuration() time.Duration
	GetTokenSigningKey() string
	GetTokenIssuer() string
	GetTokenTTL() time.Duration
	GetStoreTimeout() time.Duration
	GetNotifyTimeout() time.Duration
	GetRevealUnregistered() bool
}

// CredentialStore persists accounts and owns password hashing
type CredentialStore interface {
	CreateAccount(ctx context.Context, email, displayName, password string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	VerifyPassword(account *Account, password string) bool
	RecordFailedAttempt(ctx context.Context, account *Account, now time.Time) (*Account, error)
	RecordSuccessfulLogin(ctx context.Context, account *Account) (*Account, error)
	SetEmailConfirmed(ctx context.Context, account *Account) (*Account, error)
	DeleteAccount(ctx context.Context, account *Account) error
}

// ConfirmationTokens issues and verifies email confirmation tokens.
// Verify never mutates the account.
type ConfirmationTokens interface {
	Issue(account *Account) (string, error)
	Verify(account *Account, token string) bool
}

// ConfirmationNotifier delivers a freshly issued confirmation token to the
// account owner
type ConfirmationNotifier interface {
	NotifyConfirmation(ctx context.Context, account *AccountSummary, token string) error
}

// ConfirmationNotifierFunc adapts a function to the ConfirmationNotifier interface
type ConfirmationNotifierFunc func(ctx context.Context, account *AccountSummary, token string) error

// NotifyConfirmation implements ConfirmationNotifier
func (f ConfirmationNotifierFunc) NotifyConfirmation(ctx context.Context, account *AccountSummary, token string) error {
	if f == nil {
		return nil
	}
	return f(ctx, account, token)
}

type noopNotifier struct{}

func (noopNotifier) NotifyConfirmation(context.Context, *AccountSummary, string) error {
	return nil
}
