package accounts

import "time"

// OutcomeKind tags the result of a lifecycle operation
type OutcomeKind string

const (
	OutcomeRegistered            OutcomeKind = "registered"
	OutcomeValidationFailed      OutcomeKind = "validation_failed"
	OutcomeRegistrationFailed    OutcomeKind = "registration_failed"
	OutcomeLoginSucceeded        OutcomeKind = "login_succeeded"
	OutcomeLoginFailed           OutcomeKind = "login_failed"
	OutcomeConfirmationSucceeded OutcomeKind = "confirmation_succeeded"
	OutcomeConfirmationFailed    OutcomeKind = "confirmation_failed"
	OutcomeRemovalSucceeded      OutcomeKind = "removal_succeeded"
	OutcomeRemovalFailed         OutcomeKind = "removal_failed"
)

// FailureReason explains a failed outcome
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonDuplicate        FailureReason = "duplicate"
	ReasonUnregistered     FailureReason = "unregistered"
	ReasonUnconfirmedEmail FailureReason = "unconfirmed_email"
	ReasonLockedOut        FailureReason = "locked_out"
	ReasonBadCredentials   FailureReason = "bad_credentials"
	ReasonUnknownUser      FailureReason = "unknown_user"
	ReasonInvalidToken     FailureReason = "invalid_token"
)

// Outcome is the tagged result of a lifecycle operation.
// Only the fields relevant to Kind are set.
type Outcome struct {
	Kind          OutcomeKind     `json:"kind"`
	Reason        FailureReason   `json:"reason,omitempty"`
	Account       *AccountSummary `json:"account,omitempty"`
	Token         string          `json:"token,omitempty"`
	FieldErrors   FieldErrors     `json:"field_errors,omitempty"`
	RememberMe    bool            `json:"remember_me,omitempty"`
	LockoutEndsAt *time.Time      `json:"lockout_ends_at,omitempty"`
}

// Succeeded reports whether the operation completed
func (o Outcome) Succeeded() bool {
	switch o.Kind {
	case OutcomeRegistered, OutcomeLoginSucceeded, OutcomeConfirmationSucceeded, OutcomeRemovalSucceeded:
		return true
	default:
		return false
	}
}

// Is reports whether the outcome has the given kind and reason
func (o Outcome) Is(kind OutcomeKind, reason FailureReason) bool {
	return o.Kind == kind && o.Reason == reason
}

func validationFailed(fe FieldErrors) Outcome {
	return Outcome{Kind: OutcomeValidationFailed, FieldErrors: fe}
}

func failed(kind OutcomeKind, reason FailureReason) Outcome {
	return Outcome{Kind: kind, Reason: reason}
}
