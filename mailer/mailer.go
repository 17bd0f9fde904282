package mailer

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	textTemplate "text/template"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/gomail.v2"
)

const DefaultSubject = "Confirm your email address"

// Mailer sends confirmation tokens by email
type Mailer struct {
	config  Config
	dial    func() (gomail.SendCloser, error)
	subject string
	logger  accounts.Logger
}

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	ConfirmationURL string
}

// FromOptions maps the service options to a mailer Config
func FromOptions(opts accounts.Options) Config {
	return Config{
		Host:            opts.SMTP.Host,
		Port:            opts.SMTP.Port,
		Username:        opts.SMTP.Username,
		Password:        opts.SMTP.Password,
		From:            opts.SMTP.From,
		ConfirmationURL: opts.ConfirmationURL,
	}
}

// Option customizes a Mailer
type Option func(*Mailer)

// WithSender replaces the SMTP dialer, tests use gomail.SendFunc
func WithSender(sender gomail.Sender) Option {
	return func(m *Mailer) {
		if sender == nil {
			return
		}
		m.dial = func() (gomail.SendCloser, error) {
			return nopCloser{sender}, nil
		}
	}
}

// WithSubject overrides the email subject
func WithSubject(subject string) Option {
	return func(m *Mailer) {
		if subject != "" {
			m.subject = subject
		}
	}
}

// WithLogger overrides the logger
func WithLogger(logger accounts.Logger) Option {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a new Mailer instance with the given configuration.
func New(cfg Config, opts ...Option) (*Mailer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	m := &Mailer{
		config:  cfg,
		dial:    func() (gomail.SendCloser, error) { return dialer.Dial() },
		subject: DefaultSubject,
		logger:  accounts.NewLogger("accounts.mailer", "info"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

// NotifyConfirmation implements accounts.ConfirmationNotifier
func (m *Mailer) NotifyConfirmation(ctx context.Context, account *accounts.AccountSummary, token string) error {
	if account == nil || account.Email == "" {
		return goerrors.New("no recipient for confirmation email", goerrors.CategoryBadInput)
	}

	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled before sending confirmation email")
	default:
	}

	data := messageData{
		Name:  account.DisplayName,
		Email: account.Email,
		Token: token,
		Link:  m.confirmationLink(account.Email, token),
	}

	msg, err := m.buildMessage(account.Email, data)
	if err != nil {
		return err
	}

	// gomail has no context support, the send runs aside so ctx still bounds the caller
	done := make(chan error, 1)
	go func() {
		done <- m.send(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "confirmation email not sent before deadline")
	}

	m.logger.Debug("confirmation email sent", "account_id", account.ID)
	return nil
}

func (m *Mailer) send(msg *gomail.Message) error {
	sender, err := m.dial()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to connect to SMTP server")
	}
	defer sender.Close()

	if err := gomail.Send(sender, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send confirmation email")
	}
	return nil
}

type messageData struct {
	Name  string
	Email string
	Token string
	Link  string
}

func (m *Mailer) buildMessage(to string, data messageData) (*gomail.Message, error) {
	var text, html bytes.Buffer
	if err := plainBody.Execute(&text, data); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render confirmation email")
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render confirmation email")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", m.subject)
	msg.SetBody("text/plain", text.String())
	msg.AddAlternative("text/html", html.String())

	return msg, nil
}

func (m *Mailer) confirmationLink(email, token string) string {
	if m.config.ConfirmationURL == "" {
		return ""
	}

	u, err := url.Parse(m.config.ConfirmationURL)
	if err != nil {
		m.logger.Warn("invalid confirmation url", "error", err)
		return ""
	}

	q := u.Query()
	q.Set("email", email)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c Config) validate() error {
	switch {
	case c.Host == "":
		return goerrors.New("missing SMTP host", goerrors.CategoryBadInput)
	case c.Port == 0:
		return goerrors.New("missing SMTP port", goerrors.CategoryBadInput)
	case c.From == "":
		return goerrors.New("missing SMTP from address", goerrors.CategoryBadInput)
	}
	return nil
}

type nopCloser struct {
	gomail.Sender
}

func (nopCloser) Close() error { return nil }

var plainBody = textTemplate.Must(textTemplate.New("plain").Parse(`Hello {{.Name}},

Please confirm the email address {{.Email}} for your account.
{{if .Link}}
Open this link to confirm: {{.Link}}
{{else}}
Your confirmation code: {{.Token}}
{{end}}
If you did not create an account you can ignore this message.
`))

var htmlBody = template.Must(template.New("html").Parse(`<p>Hello {{.Name}},</p>
<p>Please confirm the email address <strong>{{.Email}}</strong> for your account.</p>
{{if .Link}}<p><a href="{{.Link}}">Confirm my email</a></p>{{else}}<p>Your confirmation code: <code>{{.Token}}</code></p>{{end}}
<p>If you did not create an account you can ignore this message.</p>
`))

var _ accounts.ConfirmationNotifier = (*Mailer)(nil)
