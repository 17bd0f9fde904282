package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted identity record keyed by a unique email
type Account struct {
	bun.BaseModel      `bun:"table:accounts,alias:acc"`
	ID                 uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Email              string     `bun:"email,notnull" json:"email"`
	EmailNormalized    string     `bun:"email_normalized,notnull,unique" json:"-"`
	DisplayName        string     `bun:"display_name,notnull" json:"display_name"`
	PasswordHash       string     `bun:"password_hash,notnull" json:"-"`
	EmailConfirmed     bool       `bun:"email_confirmed,notnull,default:false" json:"email_confirmed"`
	FailedAttemptCount int        `bun:"failed_attempt_count,notnull,default:0" json:"failed_attempt_count"`
	LockoutEndsAt      *time.Time `bun:"lockout_ends_at,nullzero" json:"lockout_ends_at,omitempty"`
	SecurityStamp      string     `bun:"security_stamp,notnull" json:"-"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Summary returns the public view of the account
func (a *Account) Summary() *AccountSummary {
	if a == nil {
		return nil
	}
	return &AccountSummary{
		ID:             a.ID.String(),
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		EmailConfirmed: a.EmailConfirmed,
	}
}

// AccountSummary is the only account shape that leaves the core
type AccountSummary struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// NormalizeEmail returns the key used for case-insensitive email lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newSecurityStamp() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
