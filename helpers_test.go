package accounts_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var testSigningKey = []byte("test-signing-key")

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "accounts.db")
	db, err := accounts.OpenDB(accounts.DriverSQLite, dsn)
	require.NoError(t, err)

	require.NoError(t, accounts.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

type testEnv struct {
	db        *bun.DB
	store     accounts.Accounts
	tokens    *accounts.ConfirmationTokenService
	lifecycle *accounts.Lifecycle
	clock     *testClock
	events    *eventRecorder
}

func newTestEnv(t *testing.T, opts ...accounts.LifecycleOption) *testEnv {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	db := newTestDB(t)
	store := accounts.NewAccountsRepository(db, accounts.WithAccountsClock(clock.Now))
	tokens := accounts.NewConfirmationTokenService(testSigningKey, "", 0, accounts.WithTokenClock(clock.Now))
	events := &eventRecorder{}

	lifecycleOpts := append([]accounts.LifecycleOption{
		accounts.WithClock(clock.Now),
		accounts.WithActivitySink(events),
	}, opts...)

	lifecycle := accounts.NewLifecycle(store, tokens, lifecycleOpts...)
	t.Cleanup(lifecycle.Wait)

	return &testEnv{
		db:        db,
		store:     store,
		tokens:    tokens,
		lifecycle: lifecycle,
		clock:     clock,
		events:    events,
	}
}

// registerConfirmed creates an account and confirms its email
func (e *testEnv) registerConfirmed(t *testing.T, name, email, password string) *accounts.AccountSummary {
	t.Helper()
	ctx := context.Background()

	out, err := e.lifecycle.Register(ctx, accounts.RegisterCommand{
		Name: name, Email: email, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	require.Equal(t, accounts.OutcomeRegistered, out.Kind)

	out, err = e.lifecycle.ConfirmEmail(ctx, accounts.ConfirmEmailCommand{Email: email, Token: out.Token})
	require.NoError(t, err)
	require.Equal(t, accounts.OutcomeConfirmationSucceeded, out.Kind)

	return out.Account
}

type eventRecorder struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (r *eventRecorder) Record(_ context.Context, event accounts.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []accounts.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]accounts.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
