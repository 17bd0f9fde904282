package accounts

// RegisterCommand requests a new account
type RegisterCommand struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirm_password"`
}

func (c RegisterCommand) Type() string { return "account.register" }

// Validate will run validation rules
func (c RegisterCommand) Validate() error { return nilIfValid(ValidateRegistration(c)) }

// LoginCommand requests credential verification.
// RememberMe only matters to the session layer of the caller.
type LoginCommand struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"rememberMe" form:"remember_me"`
}

func (c LoginCommand) Type() string { return "account.login" }

// Validate will run validation rules
func (c LoginCommand) Validate() error { return nilIfValid(ValidateLogin(c)) }

// ConfirmEmailCommand proves ownership of the registered email
type ConfirmEmailCommand struct {
	Email string `json:"email" form:"email"`
	Token string `json:"token" form:"token"`
}

func (c ConfirmEmailCommand) Type() string { return "account.confirm_email" }

// Validate will run validation rules
func (c ConfirmEmailCommand) Validate() error { return nilIfValid(ValidateEmailConfirmation(c)) }

// RemoveAccountCommand deletes an account
type RemoveAccountCommand struct {
	Email string `json:"email" form:"email"`
}

func (c RemoveAccountCommand) Type() string { return "account.remove" }

// Validate will run validation rules
func (c RemoveAccountCommand) Validate() error { return nilIfValid(ValidateRemoveAccount(c)) }

func nilIfValid(fe FieldErrors) error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
