package accounts

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

// A lockout that already ended restarts the failed attempt count, so every
// lockout is earned by a fresh run of failures.
const (
	lockoutExpiredSQL   = "(lockout_ends_at IS NOT NULL AND lockout_ends_at <= ?)"
	nextAttemptCountSQL = "CASE WHEN " + lockoutExpiredSQL + " THEN 1 ELSE failed_attempt_count + 1 END"
)

// Accounts is the bun backed CredentialStore. Every operation has a Tx
// variant so callers can compose them inside RunInTx.
type Accounts interface {
	repository.Repository[*Account]
	CredentialStore

	CreateAccountTx(ctx context.Context, tx bun.IDB, email, displayName, password string) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)
	RecordFailedAttemptTx(ctx context.Context, tx bun.IDB, account *Account, now time.Time) (*Account, error)
	RecordSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	SetEmailConfirmedTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	DeleteAccountTx(ctx context.Context, tx bun.IDB, account *Account) error
}

type accounts struct {
	repository.Repository[*Account]
	db        *bun.DB
	policy    LockoutPolicy
	now       func() time.Time
	useHashid bool
	logger    Logger
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// AccountsOption configures the accounts repository
type AccountsOption func(*accounts)

// WithAccountsLockoutPolicy sets the policy applied by RecordFailedAttempt
func WithAccountsLockoutPolicy(policy LockoutPolicy) AccountsOption {
	return func(a *accounts) {
		a.policy = policy
	}
}

// WithAccountsClock injects the clock used for bookkeeping timestamps
func WithAccountsClock(clock func() time.Time) AccountsOption {
	return func(a *accounts) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithAccountsHashid derives account IDs from the normalized email
func WithAccountsHashid(enabled bool) AccountsOption {
	return func(a *accounts) {
		a.useHashid = enabled
	}
}

// WithAccountsLogger overrides the logger
func WithAccountsLogger(logger Logger) AccountsOption {
	return func(a *accounts) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAccountsRepository returns a CredentialStore backed by db
func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(record *Account) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Account, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email_normalized"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
		policy:     DefaultLockoutPolicy(),
		now:        time.Now,
		logger:     defLogger("accounts.repository"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func (a *accounts) CreateAccount(ctx context.Context, email, displayName, password string) (*Account, error) {
	return a.CreateAccountTx(ctx, a.db, email, displayName, password)
}

func (a *accounts) CreateAccountTx(ctx context.Context, tx bun.IDB, email, displayName, password string) (*Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	record := &Account{
		ID:              a.newID(email),
		Email:           strings.TrimSpace(email),
		EmailNormalized: NormalizeEmail(email),
		DisplayName:     strings.TrimSpace(displayName),
		PasswordHash:    hash,
		SecurityStamp:   newSecurityStamp(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail.Clone().WithMetadata(map[string]any{
				"email": record.EmailNormalized,
			})
		}
		return nil, storeUnavailable(err, "failed to create account")
	}

	if created == nil {
		return record, nil
	}

	return created, nil
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	normalized := NormalizeEmail(email)

	record, err := a.Repository.GetTx(ctx, tx, selectByNormalizedEmail(normalized))
	if err != nil {
		return nil, a.lookupError(err, "failed to find account by email", map[string]any{
			"email": normalized,
		})
	}

	return record, nil
}

func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *accounts) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	record, err := a.Repository.GetByIDTx(ctx, tx, id.String())
	if err != nil {
		return nil, a.lookupError(err, "failed to find account by id", map[string]any{
			"id": id.String(),
		})
	}

	return record, nil
}

// VerifyPassword compares password against the stored bcrypt hash
func (a *accounts) VerifyPassword(account *Account, password string) bool {
	if account == nil {
		return false
	}
	return VerifyPassword(password, account.PasswordHash)
}

func (a *accounts) RecordFailedAttempt(ctx context.Context, account *Account, now time.Time) (*Account, error) {
	var updated *Account
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		updated, err = a.RecordFailedAttemptTx(ctx, tx, account, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordFailedAttemptTx increments the counter in the database so concurrent
// failures are never lost, and sets the lockout end once the threshold is hit.
// The row is read back in the same transaction.
func (a *accounts) RecordFailedAttemptTx(ctx context.Context, tx bun.IDB, account *Account, now time.Time) (*Account, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	now = now.UTC()
	endsAt := a.policy.EndsAt(now)

	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("failed_attempt_count = "+nextAttemptCountSQL, now).
		Set("lockout_ends_at = CASE WHEN "+nextAttemptCountSQL+" >= ? THEN ? WHEN "+lockoutExpiredSQL+" THEN NULL ELSE lockout_ends_at END",
			now, a.policy.Threshold, endsAt, now).
		Set("updated_at = ?", now).
		Where("id = ?", account.ID).
		Exec(ctx)
	if err != nil {
		return nil, storeUnavailable(err, "failed to record failed login attempt")
	}

	if err := expectAffected(res, ErrAccountNotFound, account); err != nil {
		return nil, err
	}

	return a.FindByIDTx(ctx, tx, account.ID)
}

func (a *accounts) RecordSuccessfulLogin(ctx context.Context, account *Account) (*Account, error) {
	return a.RecordSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accounts) RecordSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	now := a.now().UTC()
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("failed_attempt_count = 0").
		Set("lockout_ends_at = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", account.ID).
		Exec(ctx)
	if err != nil {
		return nil, storeUnavailable(err, "failed to record successful login")
	}

	if err := expectAffected(res, ErrAccountNotFound, account); err != nil {
		return nil, err
	}

	updated := *account
	updated.FailedAttemptCount = 0
	updated.LockoutEndsAt = nil
	updated.UpdatedAt = now
	return &updated, nil
}

func (a *accounts) SetEmailConfirmed(ctx context.Context, account *Account) (*Account, error) {
	return a.SetEmailConfirmedTx(ctx, a.db, account)
}

// SetEmailConfirmedTx marks the email as confirmed and rotates the security
// stamp, which invalidates every confirmation token issued so far. The update
// only applies while the stored stamp still matches account, otherwise it
// fails with ErrSecurityStampMismatch.
func (a *accounts) SetEmailConfirmedTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	now := a.now().UTC()
	stamp := newSecurityStamp()

	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("email_confirmed = ?", true).
		Set("security_stamp = ?", stamp).
		Set("updated_at = ?", now).
		Where("id = ?", account.ID).
		Where("security_stamp = ?", account.SecurityStamp).
		Exec(ctx)
	if err != nil {
		return nil, storeUnavailable(err, "failed to confirm account email")
	}

	if err := expectAffected(res, ErrSecurityStampMismatch, account); err != nil {
		return nil, err
	}

	updated := *account
	updated.EmailConfirmed = true
	updated.SecurityStamp = stamp
	updated.UpdatedAt = now
	return &updated, nil
}

func (a *accounts) DeleteAccount(ctx context.Context, account *Account) error {
	return a.DeleteAccountTx(ctx, a.db, account)
}

func (a *accounts) DeleteAccountTx(ctx context.Context, tx bun.IDB, account *Account) error {
	if account == nil {
		return ErrAccountNotFound
	}

	record, err := a.FindByIDTx(ctx, tx, account.ID)
	if err != nil {
		return err
	}

	if err := a.Repository.DeleteTx(ctx, tx, record); err != nil {
		return storeUnavailable(err, "failed to delete account")
	}

	return nil
}

func (a *accounts) newID(email string) uuid.UUID {
	if !a.useHashid {
		return uuid.New()
	}

	id, err := hashid.NewUUID(NormalizeEmail(email))
	if err != nil {
		a.logger.Warn("hashid generation failed, using random id", "error", err)
		return uuid.New()
	}
	return id
}

func (a *accounts) lookupError(err error, msg string, meta map[string]any) error {
	if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound.Clone().WithMetadata(meta)
	}
	return storeUnavailable(err, msg)
}

func selectByNormalizedEmail(email string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email_normalized = ?", email)
	}
}

func expectAffected(res sql.Result, notAffected *goerrors.Error, account *Account) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeUnavailable(err, "failed to read affected rows")
	}
	if n == 0 {
		return notAffected.Clone().WithMetadata(map[string]any{
			"id": account.ID.String(),
		})
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryConflict {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
