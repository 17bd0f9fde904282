package accounts

import "time"

// AccountState is the lifecycle state derived from an account record
type AccountState string

const (
	AccountStateUnverified AccountState = "unverified"
	AccountStateVerified   AccountState = "verified"
	// AccountStateLockedOut is time bounded and layered on top of Verified
	AccountStateLockedOut AccountState = "locked_out"
)

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
}

var systemActor = ActorRef{Type: "system"}

// accountTransitions lists the persisted state changes the controller may
// perform. LockedOut is never stored, it expires on its own.
var accountTransitions = map[AccountState]map[AccountState]struct{}{
	AccountStateUnverified: {
		AccountStateVerified: {},
	},
}

// StateOf returns the state of account at now
func StateOf(account *Account, now time.Time) AccountState {
	if account == nil {
		return ""
	}
	if !account.EmailConfirmed {
		return AccountStateUnverified
	}
	if IsLockedOut(account, now) {
		return AccountStateLockedOut
	}
	return AccountStateVerified
}

// CanTransition reports whether moving from one state to the other is allowed
func CanTransition(from, to AccountState) bool {
	if allowed, ok := accountTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func checkTransition(from, to AccountState) error {
	if CanTransition(from, to) {
		return nil
	}
	return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
		"from": from,
		"to":   to,
	})
}
