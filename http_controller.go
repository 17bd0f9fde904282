package accounts

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

const problemContentType = "application/problem+json"

// AccountControllerRoutes are the paths the controller binds
type AccountControllerRoutes struct {
	Register     string
	Login        string
	ConfirmEmail string
	Remove       string
}

// AccountController translates HTTP requests into lifecycle commands and
// outcomes into responses. It owns no account rules.
type AccountController struct {
	Debug        bool
	ExposeTokens bool
	Logger       Logger
	Lifecycle    AccountLifecycle
	Routes       *AccountControllerRoutes
}

// AccountControllerOption configures an AccountController
type AccountControllerOption func(*AccountController)

// WithControllerDebug prints request payloads and outcomes, secrets redacted
func WithControllerDebug(debug bool) AccountControllerOption {
	return func(a *AccountController) {
		a.Debug = debug
	}
}

// WithControllerLogger overrides the logger
func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(a *AccountController) {
		if logger != nil {
			a.Logger = logger
		}
	}
}

// WithExposeTokens includes confirmation tokens in responses. Use it only
// when no notifier delivers them out of band.
func WithExposeTokens(expose bool) AccountControllerOption {
	return func(a *AccountController) {
		a.ExposeTokens = expose
	}
}

// WithControllerRoutes overrides the default paths
func WithControllerRoutes(routes *AccountControllerRoutes) AccountControllerOption {
	return func(a *AccountController) {
		if routes != nil {
			a.Routes = routes
		}
	}
}

// NewAccountController creates a controller with the default routes
func NewAccountController(lifecycle AccountLifecycle, opts ...AccountControllerOption) *AccountController {
	a := &AccountController{
		Logger:    defLogger("accounts.http"),
		Lifecycle: lifecycle,
		Routes: &AccountControllerRoutes{
			Register:     "/api/user/register",
			Login:        "/api/user/login",
			ConfirmEmail: "/api/user/emailconfirmation",
			Remove:       "/api/user/remove",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// RegisterAccountRoutes binds the account routes on router
func RegisterAccountRoutes(router fiber.Router, lifecycle AccountLifecycle, opts ...AccountControllerOption) *AccountController {
	controller := NewAccountController(lifecycle, opts...)

	router.Post(controller.Routes.Register, controller.Register).Name("account.register")
	router.Post(controller.Routes.Login, controller.Login).Name("account.login")
	router.Post(controller.Routes.ConfirmEmail, controller.ConfirmEmail).Name("account.confirm_email")
	router.Delete(controller.Routes.Remove, controller.RemoveAccount).Name("account.remove")

	return controller
}

func (a *AccountController) Register(c *fiber.Ctx) error {
	var cmd RegisterCommand
	if err := c.BodyParser(&cmd); err != nil {
		return a.badRequest(c, err)
	}

	if a.Debug {
		redacted := cmd
		redacted.Password = "[REDACTED]"
		redacted.ConfirmPassword = "[REDACTED]"
		fmt.Println(print.MaybePrettyJSON(redacted))
	}

	outcome, err := a.Lifecycle.Register(c.UserContext(), cmd)
	return a.render(c, outcome, err)
}

func (a *AccountController) Login(c *fiber.Ctx) error {
	var cmd LoginCommand
	if err := c.BodyParser(&cmd); err != nil {
		return a.badRequest(c, err)
	}

	if a.Debug {
		redacted := cmd
		redacted.Password = "[REDACTED]"
		fmt.Println(print.MaybePrettyJSON(redacted))
	}

	outcome, err := a.Lifecycle.Login(c.UserContext(), cmd)
	return a.render(c, outcome, err)
}

func (a *AccountController) ConfirmEmail(c *fiber.Ctx) error {
	var cmd ConfirmEmailCommand
	if err := c.BodyParser(&cmd); err != nil {
		return a.badRequest(c, err)
	}

	outcome, err := a.Lifecycle.ConfirmEmail(c.UserContext(), cmd)
	return a.render(c, outcome, err)
}

func (a *AccountController) RemoveAccount(c *fiber.Ctx) error {
	var cmd RemoveAccountCommand
	if err := c.BodyParser(&cmd); err != nil {
		return a.badRequest(c, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(cmd))
	}

	outcome, err := a.Lifecycle.RemoveAccount(c.UserContext(), cmd)
	return a.render(c, outcome, err)
}

// StatusForOutcome maps an outcome to its HTTP status code
func StatusForOutcome(o Outcome) int {
	switch o.Kind {
	case OutcomeRegistered:
		return http.StatusCreated
	case OutcomeLoginSucceeded, OutcomeConfirmationSucceeded, OutcomeRemovalSucceeded:
		return http.StatusOK
	case OutcomeValidationFailed:
		return http.StatusBadRequest
	case OutcomeRegistrationFailed:
		return http.StatusConflict
	case OutcomeLoginFailed:
		return http.StatusUnauthorized
	case OutcomeConfirmationFailed:
		if o.Reason == ReasonUnknownUser {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case OutcomeRemovalFailed:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *AccountController) render(c *fiber.Ctx, outcome Outcome, err error) error {
	if err != nil {
		a.Logger.Error("account operation failed", "path", c.Path(), "error", err)
		return a.problem(c, http.StatusServiceUnavailable, "Service Unavailable",
			"the account service is temporarily unavailable", nil)
	}

	status := StatusForOutcome(outcome)

	if outcome.Kind == OutcomeValidationFailed {
		return a.problem(c, status, "Validation Failed",
			"one or more fields are invalid", outcome.FieldErrors.Map())
	}

	if !a.ExposeTokens {
		outcome.Token = ""
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(outcome))
	}

	return c.Status(status).JSON(outcome)
}

func (a *AccountController) badRequest(c *fiber.Ctx, err error) error {
	a.Logger.Warn("unable to parse request body", "path", c.Path(), "error", err)
	return a.problem(c, http.StatusBadRequest, "Bad Request", "request body could not be parsed", nil)
}

func (a *AccountController) problem(c *fiber.Ctx, status int, title, detail string, fieldErrors map[string][]string) error {
	body := fiber.Map{
		"type":   "about:blank",
		"title":  title,
		"status": status,
		"detail": detail,
	}
	if len(fieldErrors) > 0 {
		body["errors"] = fieldErrors
	}
	return c.Status(status).JSON(body, problemContentType)
}
