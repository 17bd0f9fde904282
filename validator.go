package accounts

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	PasswordMinLength = 6
	PasswordMaxLength = 30
)

// FieldError holds every violation found for a single field
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// FieldErrors is an ordered mapping from field name to violation messages.
// Fields keep the order in which they were validated.
type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, fe := range f {
		parts = append(parts, fe.Field+": "+strings.Join(fe.Messages, " "))
	}
	return strings.Join(parts, "; ")
}

// Get returns the messages for field
func (f FieldErrors) Get(field string) []string {
	for _, fe := range f {
		if fe.Field == field {
			return fe.Messages
		}
	}
	return nil
}

// Has reports whether field has at least one violation
func (f FieldErrors) Has(field string) bool {
	return len(f.Get(field)) > 0
}

// Fields returns the names of the invalid fields in order
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for _, fe := range f {
		out = append(out, fe.Field)
	}
	return out
}

// Map returns the violations keyed by field, used by adapters
func (f FieldErrors) Map() map[string][]string {
	out := make(map[string][]string, len(f))
	for _, fe := range f {
		out[fe.Field] = append([]string(nil), fe.Messages...)
	}
	return out
}

// fieldRules runs every rule against value and keeps each failure
type fieldRules struct {
	name  string
	value any
	rules []validation.Rule
}

func field(name string, value any, rules ...validation.Rule) fieldRules {
	return fieldRules{name: name, value: value, rules: rules}
}

func validateFields(fields ...fieldRules) FieldErrors {
	var out FieldErrors
	for _, f := range fields {
		var messages []string
		for _, rule := range f.rules {
			if err := validation.Validate(f.value, rule); err != nil {
				messages = append(messages, err.Error())
			}
		}
		if len(messages) > 0 {
			out = append(out, FieldError{Field: f.name, Messages: messages})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(message)
		}
		return nil
	}
}

func emailRules(required, invalid string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(required),
		is.Email.Error(invalid),
	}
}

// ValidateRegistration checks a RegisterCommand
func ValidateRegistration(cmd RegisterCommand) FieldErrors {
	return validateFields(
		field("name", strings.TrimSpace(cmd.Name),
			validation.Required.Error("Name is required."),
		),
		field("email", cmd.Email,
			emailRules("Email is required.", "Not a valid email.")...,
		),
		field("password", cmd.Password,
			validation.Required.Error("Password is required."),
			validation.Length(PasswordMinLength, PasswordMaxLength).
				Error("Password must be between 6 and 30 characters."),
		),
		field("confirmPassword", cmd.ConfirmPassword,
			validation.Required.Error("ConfirmPassword is required."),
			validation.By(ValidateStringEquals(cmd.Password, "Password and ConfirmPassword must be same.")),
		),
	)
}

// ValidateLogin checks a LoginCommand
func ValidateLogin(cmd LoginCommand) FieldErrors {
	return validateFields(
		field("email", cmd.Email,
			emailRules("Email is required.", "Not a correct email format.")...,
		),
		field("password", cmd.Password,
			validation.Required.Error("Password is required."),
		),
	)
}

// ValidateEmailConfirmation checks a ConfirmEmailCommand
func ValidateEmailConfirmation(cmd ConfirmEmailCommand) FieldErrors {
	return validateFields(
		field("email", cmd.Email,
			emailRules("Email required.", "Must be an email address.")...,
		),
		field("token", strings.TrimSpace(cmd.Token),
			validation.Required.Error("Token required for email confirmation."),
		),
	)
}

// ValidateRemoveAccount checks a RemoveAccountCommand
func ValidateRemoveAccount(cmd RemoveAccountCommand) FieldErrors {
	return validateFields(
		field("email", strings.TrimSpace(cmd.Email),
			validation.Required.Error("Email is required."),
		),
	)
}
