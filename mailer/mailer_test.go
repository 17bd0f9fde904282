package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type sentMessage struct {
	from string
	to   []string
	raw  string
}

func captureSender(out *[]sentMessage) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		var buf bytes.Buffer
		if _, err := msg.WriteTo(&buf); err != nil {
			return err
		}
		*out = append(*out, sentMessage{from: from, to: to, raw: buf.String()})
		return nil
	}
}

func testConfig() mailer.Config {
	return mailer.Config{
		Host: "smtp.example.com",
		Port: 587,
		From: "no-reply@example.com",
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := mailer.New(mailer.Config{})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.From = ""
	_, err = mailer.New(cfg)
	assert.Error(t, err)

	_, err = mailer.New(testConfig())
	assert.NoError(t, err)
}

func TestNotifyConfirmationSendsToken(t *testing.T) {
	var sent []sentMessage
	m, err := mailer.New(testConfig(), mailer.WithSender(captureSender(&sent)), mailer.WithSubject("Welcome aboard"))
	require.NoError(t, err)

	err = m.NotifyConfirmation(context.Background(), &accounts.AccountSummary{
		ID: "acc-1", Email: "ann@x.com", DisplayName: "Ann",
	}, "tok123")
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Equal(t, "no-reply@example.com", sent[0].from)
	assert.Equal(t, []string{"ann@x.com"}, sent[0].to)
	assert.Contains(t, sent[0].raw, "Subject: Welcome aboard")
	assert.Contains(t, sent[0].raw, "tok123")
	assert.Contains(t, sent[0].raw, "text/html")
}

func TestNotifyConfirmationWithLink(t *testing.T) {
	var sent []sentMessage
	cfg := testConfig()
	cfg.ConfirmationURL = "https://app.example.com/confirm"

	m, err := mailer.New(cfg, mailer.WithSender(captureSender(&sent)))
	require.NoError(t, err)

	err = m.NotifyConfirmation(context.Background(), &accounts.AccountSummary{Email: "ann@x.com", DisplayName: "Ann"}, "tok123")
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].raw, "app.example.com/confirm")
	assert.Contains(t, sent[0].raw, "Subject: "+mailer.DefaultSubject)
}

func TestNotifyConfirmationErrors(t *testing.T) {
	failing := gomail.SendFunc(func(string, []string, io.WriterTo) error {
		return errors.New("connection reset")
	})

	m, err := mailer.New(testConfig(), mailer.WithSender(failing))
	require.NoError(t, err)

	err = m.NotifyConfirmation(context.Background(), &accounts.AccountSummary{Email: "ann@x.com"}, "tok123")
	assert.Error(t, err)

	err = m.NotifyConfirmation(context.Background(), &accounts.AccountSummary{}, "tok123")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.NotifyConfirmation(ctx, &accounts.AccountSummary{Email: "ann@x.com"}, "tok123")
	assert.Error(t, err)
}

func TestNotifyConfirmationHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stuck := gomail.SendFunc(func(string, []string, io.WriterTo) error {
		<-release
		return nil
	})

	m, err := mailer.New(testConfig(), mailer.WithSender(stuck))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	err = m.NotifyConfirmation(ctx, &accounts.AccountSummary{Email: "ann@x.com"}, "tok123")
	assert.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestFromOptions(t *testing.T) {
	cfg := mailer.FromOptions(accounts.Options{
		ConfirmationURL: "https://app.example.com/confirm",
		SMTP: accounts.SMTPOptions{
			Host: "smtp.example.com", Port: 2525, Username: "user", Password: "pass", From: "no-reply@example.com",
		},
	})

	assert.Equal(t, mailer.Config{
		Host:            "smtp.example.com",
		Port:            2525,
		Username:        "user",
		Password:        "pass",
		From:            "no-reply@example.com",
		ConfirmationURL: "https://app.example.com/confirm",
	}, cfg)
}
