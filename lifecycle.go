package accounts

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultStoreTimeout bounds every lifecycle operation against the store
const DefaultStoreTimeout = 10 * time.Second

// DefaultNotifyTimeout bounds the delivery of one confirmation notification
const DefaultNotifyTimeout = 30 * time.Second

// AccountLifecycle is the surface adapters call into
type AccountLifecycle interface {
	Register(ctx context.Context, cmd RegisterCommand) (Outcome, error)
	Login(ctx context.Context, cmd LoginCommand) (Outcome, error)
	ConfirmEmail(ctx context.Context, cmd ConfirmEmailCommand) (Outcome, error)
	RemoveAccount(ctx context.Context, cmd RemoveAccountCommand) (Outcome, error)
}

// Lifecycle orchestrates validation, the credential store, the lockout
// policy and confirmation tokens. Domain rejections are returned as an
// Outcome, the error return is reserved for infrastructure faults.
type Lifecycle struct {
	store              CredentialStore
	tokens             ConfirmationTokens
	notifier           ConfirmationNotifier
	activitySink       ActivitySink
	logger             Logger
	now                func() time.Time
	timeout            time.Duration
	notifyTimeout      time.Duration
	revealUnregistered bool
	pending            sync.WaitGroup
}

var _ AccountLifecycle = (*Lifecycle)(nil)

// LifecycleOption configures a Lifecycle
type LifecycleOption func(*Lifecycle)

// WithLogger overrides the logger
func WithLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithNotifier sets who delivers confirmation tokens to account owners
func WithNotifier(notifier ConfirmationNotifier) LifecycleOption {
	return func(l *Lifecycle) {
		if notifier != nil {
			l.notifier = notifier
		}
	}
}

// WithStoreTimeout bounds each operation. Non-positive values are ignored.
func WithStoreTimeout(timeout time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithNotifyTimeout bounds each confirmation notification. Non-positive
// values are ignored.
func WithNotifyTimeout(timeout time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if timeout > 0 {
			l.notifyTimeout = timeout
		}
	}
}

// WithRevealUnregistered makes Login report unknown emails as unregistered
// instead of bad credentials.
func WithRevealUnregistered(reveal bool) LifecycleOption {
	return func(l *Lifecycle) {
		l.revealUnregistered = reveal
	}
}

// WithConfig applies the lifecycle related settings of cfg
func WithConfig(cfg Config) LifecycleOption {
	return func(l *Lifecycle) {
		if cfg == nil {
			return
		}
		WithStoreTimeout(cfg.GetStoreTimeout())(l)
		WithNotifyTimeout(cfg.GetNotifyTimeout())(l)
		l.revealUnregistered = cfg.GetRevealUnregistered()
	}
}

// NewLifecycle creates the account lifecycle controller
func NewLifecycle(store CredentialStore, tokens ConfirmationTokens, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store:         store,
		tokens:        tokens,
		notifier:      noopNotifier{},
		activitySink:  noopActivitySink{},
		logger:        defLogger("accounts.lifecycle"),
		now:           time.Now,
		timeout:       DefaultStoreTimeout,
		notifyTimeout: DefaultNotifyTimeout,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// Register creates an unverified account and issues its confirmation token
func (l *Lifecycle) Register(ctx context.Context, cmd RegisterCommand) (Outcome, error) {
	l.logger.Debug("register requested", "operation", cmd.Type())

	if fe := ValidateRegistration(cmd); fe != nil {
		l.logger.Warn("register validation failed", "fields", fe.Fields())
		return validationFailed(fe), nil
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account, err := l.store.CreateAccount(ctx, cmd.Email, cmd.Name, cmd.Password)
	if err != nil {
		if IsDuplicateEmail(err) {
			l.logger.Info("register rejected, email taken")
			return failed(OutcomeRegistrationFailed, ReasonDuplicate), nil
		}
		return Outcome{}, l.infraError(err, "failed to create account")
	}

	token, err := l.tokens.Issue(account)
	if err != nil {
		return Outcome{}, l.infraError(err, "failed to issue confirmation token")
	}

	summary := account.Summary()
	l.notify(ctx, summary, token)

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		AccountID: summary.ID,
		Email:     account.EmailNormalized,
		ToState:   AccountStateUnverified,
	})

	return Outcome{
		Kind:    OutcomeRegistered,
		Account: summary,
		Token:   token,
	}, nil
}

// Login verifies credentials. The checks run in a fixed order: existence,
// confirmed email, lockout, password.
func (l *Lifecycle) Login(ctx context.Context, cmd LoginCommand) (Outcome, error) {
	l.logger.Debug("login requested", "operation", cmd.Type())

	if fe := ValidateLogin(cmd); fe != nil {
		l.logger.Warn("login validation failed", "fields", fe.Fields())
		return validationFailed(fe), nil
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account, err := l.store.FindByEmail(ctx, cmd.Email)
	if err != nil {
		if IsAccountNotFound(err) {
			return l.unregisteredLogin(ctx, cmd), nil
		}
		return Outcome{}, l.infraError(err, "failed to find account")
	}

	if !account.EmailConfirmed {
		token, err := l.tokens.Issue(account)
		if err != nil {
			return Outcome{}, l.infraError(err, "failed to issue confirmation token")
		}
		l.notify(ctx, account.Summary(), token)
		l.recordLoginFailure(ctx, account, ReasonUnconfirmedEmail)
		return Outcome{
			Kind:   OutcomeLoginFailed,
			Reason: ReasonUnconfirmedEmail,
			Token:  token,
		}, nil
	}

	now := l.now()

	if IsLockedOut(account, now) {
		l.logger.Warn("login rejected, account locked out", "account_id", account.ID.String())
		l.recordLoginFailure(ctx, account, ReasonLockedOut)
		endsAt := *account.LockoutEndsAt
		return Outcome{
			Kind:          OutcomeLoginFailed,
			Reason:        ReasonLockedOut,
			LockoutEndsAt: &endsAt,
		}, nil
	}

	if !l.store.VerifyPassword(account, cmd.Password) {
		updated, err := l.store.RecordFailedAttempt(ctx, account, now)
		if err != nil {
			return Outcome{}, l.infraError(err, "failed to record failed attempt")
		}

		l.recordLoginFailure(ctx, updated, ReasonBadCredentials)

		if IsLockedOut(updated, now) {
			l.logger.Warn("account locked out",
				"account_id", updated.ID.String(),
				"failed_attempts", updated.FailedAttemptCount,
			)
			l.recordActivity(ctx, ActivityEvent{
				EventType: ActivityEventLocked,
				AccountID: updated.ID.String(),
				Email:     updated.EmailNormalized,
				FromState: AccountStateVerified,
				ToState:   AccountStateLockedOut,
				Metadata: map[string]any{
					"failed_attempts": updated.FailedAttemptCount,
					"lockout_ends_at": *updated.LockoutEndsAt,
				},
				OccurredAt: now,
			})
		}

		return failed(OutcomeLoginFailed, ReasonBadCredentials), nil
	}

	updated, err := l.store.RecordSuccessfulLogin(ctx, account)
	if err != nil {
		return Outcome{}, l.infraError(err, "failed to record successful login")
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		AccountID:  updated.ID.String(),
		Email:      updated.EmailNormalized,
		Metadata:   map[string]any{"remember_me": cmd.RememberMe},
		OccurredAt: now,
	})

	return Outcome{
		Kind:       OutcomeLoginSucceeded,
		Account:    updated.Summary(),
		RememberMe: cmd.RememberMe,
	}, nil
}

// ConfirmEmail marks the email as confirmed when token was issued for it
func (l *Lifecycle) ConfirmEmail(ctx context.Context, cmd ConfirmEmailCommand) (Outcome, error) {
	l.logger.Debug("email confirmation requested", "operation", cmd.Type())

	if fe := ValidateEmailConfirmation(cmd); fe != nil {
		l.logger.Warn("email confirmation validation failed", "fields", fe.Fields())
		return validationFailed(fe), nil
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account, err := l.store.FindByEmail(ctx, cmd.Email)
	if err != nil {
		if IsAccountNotFound(err) {
			return failed(OutcomeConfirmationFailed, ReasonUnknownUser), nil
		}
		return Outcome{}, l.infraError(err, "failed to find account")
	}

	if !l.tokens.Verify(account, cmd.Token) {
		l.logger.Info("email confirmation rejected, invalid token", "account_id", account.ID.String())
		return failed(OutcomeConfirmationFailed, ReasonInvalidToken), nil
	}

	from := StateOf(account, l.now())
	if err := checkTransition(from, AccountStateVerified); err != nil {
		l.logger.Info("email confirmation rejected", "account_id", account.ID.String(), "state", from)
		return failed(OutcomeConfirmationFailed, ReasonInvalidToken), nil
	}

	updated, err := l.store.SetEmailConfirmed(ctx, account)
	if err != nil {
		if IsSecurityStampMismatch(err) {
			l.logger.Info("email confirmation rejected, token already used", "account_id", account.ID.String())
			return failed(OutcomeConfirmationFailed, ReasonInvalidToken), nil
		}
		if IsAccountNotFound(err) {
			return failed(OutcomeConfirmationFailed, ReasonUnknownUser), nil
		}
		return Outcome{}, l.infraError(err, "failed to confirm email")
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventEmailConfirmed,
		AccountID: updated.ID.String(),
		Email:     updated.EmailNormalized,
		FromState: from,
		ToState:   AccountStateVerified,
	})

	return Outcome{
		Kind:    OutcomeConfirmationSucceeded,
		Account: updated.Summary(),
	}, nil
}

// RemoveAccount permanently deletes the account registered under the email
func (l *Lifecycle) RemoveAccount(ctx context.Context, cmd RemoveAccountCommand) (Outcome, error) {
	l.logger.Debug("account removal requested", "operation", cmd.Type())

	if fe := ValidateRemoveAccount(cmd); fe != nil {
		l.logger.Warn("account removal validation failed", "fields", fe.Fields())
		return validationFailed(fe), nil
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account, err := l.store.FindByEmail(ctx, cmd.Email)
	if err != nil {
		if IsAccountNotFound(err) {
			return failed(OutcomeRemovalFailed, ReasonUnknownUser), nil
		}
		return Outcome{}, l.infraError(err, "failed to find account")
	}

	if err := l.store.DeleteAccount(ctx, account); err != nil {
		if IsAccountNotFound(err) {
			return failed(OutcomeRemovalFailed, ReasonUnknownUser), nil
		}
		return Outcome{}, l.infraError(err, "failed to delete account")
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRemoved,
		AccountID: account.ID.String(),
		Email:     account.EmailNormalized,
		FromState: StateOf(account, l.now()),
	})

	return Outcome{Kind: OutcomeRemovalSucceeded}, nil
}

func (l *Lifecycle) unregisteredLogin(ctx context.Context, cmd LoginCommand) Outcome {
	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Email:     NormalizeEmail(cmd.Email),
		Metadata:  map[string]any{"reason": string(ReasonUnregistered)},
	})

	if l.revealUnregistered {
		return failed(OutcomeLoginFailed, ReasonUnregistered)
	}

	burnPasswordCompare(cmd.Password)
	return failed(OutcomeLoginFailed, ReasonBadCredentials)
}

func (l *Lifecycle) recordLoginFailure(ctx context.Context, account *Account, reason FailureReason) {
	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		AccountID: account.ID.String(),
		Email:     account.EmailNormalized,
		Metadata: map[string]any{
			"reason":          string(reason),
			"failed_attempts": account.FailedAttemptCount,
		},
	})
}

// notify delivers the token in the background so a slow notifier never holds
// up the operation. Delivery gets its own deadline and outlives the caller's
// cancellation.
func (l *Lifecycle) notify(ctx context.Context, summary *AccountSummary, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.notifyTimeout)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		defer cancel()

		if err := l.notifier.NotifyConfirmation(ctx, summary, token); err != nil {
			l.logger.Warn("confirmation notification failed", "account_id", summary.ID, "error", err)
		}
	}()
}

// Wait blocks until every pending confirmation notification finished
func (l *Lifecycle) Wait() {
	l.pending.Wait()
}

func (l *Lifecycle) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = systemActor
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now()
	}

	sink := normalizeActivitySink(l.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("lifecycle activity sink error", "event", event.EventType, "error", err)
	}
}

func (l *Lifecycle) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Lifecycle) infraError(err error, msg string) error {
	l.logger.Error(msg, "error", err)
	if IsStoreUnavailable(err) {
		return err
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return err
	}

	return storeUnavailable(err, msg)
}
