package accounts_test

import (
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsStoreUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Sentinel",
			err:      accounts.ErrStoreUnavailable,
			expected: true,
		},
		{
			name: "Wrapped driver error with text code",
			err: goerrors.Wrap(errors.New("dial tcp: connection refused"), goerrors.CategoryInternal, "failed").
				WithTextCode(accounts.TextCodeStoreUnavailable),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrAccountNotFound,
			expected: false,
		},
		{
			name:     "Plain error",
			err:      errors.New("boom"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.IsStoreUnavailable(tt.err))
		})
	}
}

func TestIsAccountNotFound(t *testing.T) {
	withMeta := accounts.ErrAccountNotFound.Clone().WithMetadata(map[string]any{"email": "ann@x.com"})

	assert.True(t, accounts.IsAccountNotFound(accounts.ErrAccountNotFound))
	assert.True(t, accounts.IsAccountNotFound(withMeta))
	assert.False(t, accounts.IsAccountNotFound(accounts.ErrDuplicateEmail))
	assert.False(t, accounts.IsAccountNotFound(nil))
}

func TestIsSecurityStampMismatch(t *testing.T) {
	withMeta := accounts.ErrSecurityStampMismatch.Clone().WithMetadata(map[string]any{"id": "acc-1"})

	assert.True(t, accounts.IsSecurityStampMismatch(accounts.ErrSecurityStampMismatch))
	assert.True(t, accounts.IsSecurityStampMismatch(withMeta))
	assert.False(t, accounts.IsSecurityStampMismatch(accounts.ErrAccountNotFound))
	assert.False(t, accounts.IsSecurityStampMismatch(nil))
}

func TestIsDuplicateEmail(t *testing.T) {
	withMeta := accounts.ErrDuplicateEmail.Clone().WithMetadata(map[string]any{"email": "ann@x.com"})

	assert.True(t, accounts.IsDuplicateEmail(accounts.ErrDuplicateEmail))
	assert.True(t, accounts.IsDuplicateEmail(withMeta))
	assert.False(t, accounts.IsDuplicateEmail(accounts.ErrStoreUnavailable))
	assert.False(t, accounts.IsDuplicateEmail(errors.New("duplicate")))
}

func TestSentinelCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category any
		textCode string
	}{
		{"duplicate email", accounts.ErrDuplicateEmail, goerrors.CategoryConflict, accounts.TextCodeDuplicateEmail},
		{"account not found", accounts.ErrAccountNotFound, goerrors.CategoryNotFound, accounts.TextCodeAccountNotFound},
		{"store unavailable", accounts.ErrStoreUnavailable, goerrors.CategoryInternal, accounts.TextCodeStoreUnavailable},
		{"token expired", accounts.ErrTokenExpired, goerrors.CategoryAuth, accounts.TextCodeTokenExpired},
		{"token malformed", accounts.ErrTokenMalformed, goerrors.CategoryAuth, accounts.TextCodeTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}
