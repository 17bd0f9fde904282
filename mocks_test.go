package accounts_test

import (
	"context"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockCredentialStore implements accounts.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) CreateAccount(ctx context.Context, email, displayName, password string) (*accounts.Account, error) {
	args := m.Called(ctx, email, displayName, password)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	args := m.Called(ctx, email)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockCredentialStore) VerifyPassword(account *accounts.Account, password string) bool {
	args := m.Called(account, password)
	return args.Bool(0)
}

func (m *MockCredentialStore) RecordFailedAttempt(ctx context.Context, account *accounts.Account, now time.Time) (*accounts.Account, error) {
	args := m.Called(ctx, account, now)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockCredentialStore) RecordSuccessfulLogin(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockCredentialStore) SetEmailConfirmed(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	return accountArg(args, 0), args.Error(1)
}

func (m *MockCredentialStore) DeleteAccount(ctx context.Context, account *accounts.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func accountArg(args mock.Arguments, idx int) *accounts.Account {
	if v := args.Get(idx); v != nil {
		return v.(*accounts.Account)
	}
	return nil
}

// MockLifecycle implements accounts.AccountLifecycle
type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Register(ctx context.Context, cmd accounts.RegisterCommand) (accounts.Outcome, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(accounts.Outcome), args.Error(1)
}

func (m *MockLifecycle) Login(ctx context.Context, cmd accounts.LoginCommand) (accounts.Outcome, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(accounts.Outcome), args.Error(1)
}

func (m *MockLifecycle) ConfirmEmail(ctx context.Context, cmd accounts.ConfirmEmailCommand) (accounts.Outcome, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(accounts.Outcome), args.Error(1)
}

func (m *MockLifecycle) RemoveAccount(ctx context.Context, cmd accounts.RemoveAccountCommand) (accounts.Outcome, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(accounts.Outcome), args.Error(1)
}
