package accounts

import "time"

const (
	// DefaultLockoutThreshold is the number of failed attempts that triggers a lockout
	DefaultLockoutThreshold = 3
	// DefaultLockoutDuration is how long a lockout lasts
	DefaultLockoutDuration = 2 * time.Hour
)

// LockoutPolicy decides when repeated failed logins lock an account
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the 3 attempts / 2 hours policy
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// LockoutPolicyFromConfig builds a policy, falling back to defaults for
// unset values
func LockoutPolicyFromConfig(cfg Config) LockoutPolicy {
	p := DefaultLockoutPolicy()
	if cfg == nil {
		return p
	}
	if t := cfg.GetLockoutThreshold(); t > 0 {
		p.Threshold = t
	}
	if d := cfg.GetLockoutDuration(); d > 0 {
		p.Duration = d
	}
	return p
}

// Reached reports whether count failed attempts cross the threshold
func (p LockoutPolicy) Reached(count int) bool {
	return p.Threshold > 0 && count >= p.Threshold
}

// EndsAt returns the lockout end for a lockout starting at now
func (p LockoutPolicy) EndsAt(now time.Time) time.Time {
	return now.Add(p.Duration)
}

// IsLockedOut reports whether the account rejects logins at now
func IsLockedOut(account *Account, now time.Time) bool {
	if account == nil || account.LockoutEndsAt == nil {
		return false
	}
	return account.LockoutEndsAt.After(now)
}
