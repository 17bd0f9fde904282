package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
	"github.com/goliatone/go-accounts/mailer"
	"github.com/goliatone/go-print"
)

func main() {
	cfg, err := accounts.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := accounts.NewLogger("accounts", cfg.LogLevel)

	if cfg.Debug {
		redacted := cfg
		redacted.TokenSigningKey = "[REDACTED]"
		redacted.SMTP.Password = "[REDACTED]"
		fmt.Println(print.MaybePrettyJSON(redacted))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("accounts service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg accounts.Options, logger *accounts.ZeroLogger) error {
	db, err := accounts.OpenDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db,
		accounts.WithAccountsLockoutPolicy(accounts.LockoutPolicyFromConfig(cfg)),
		accounts.WithAccountsHashid(cfg.UseHashid),
		accounts.WithAccountsLogger(logger),
	)
	repo.MustValidate()

	if err := repo.CreateSchema(ctx); err != nil {
		return err
	}

	tokens := accounts.NewConfirmationTokenServiceFromConfig(cfg,
		accounts.WithTokenLogger(logger),
	)

	lifecycleOpts := []accounts.LifecycleOption{
		accounts.WithConfig(cfg),
		accounts.WithLogger(logger),
		accounts.WithActivitySink(activitymap.LogSink(logger)),
	}

	exposeTokens := true
	if cfg.SMTP.Enabled() {
		m, err := mailer.New(mailer.FromOptions(cfg), mailer.WithLogger(logger))
		if err != nil {
			return err
		}
		lifecycleOpts = append(lifecycleOpts, accounts.WithNotifier(m))
		exposeTokens = false
	} else {
		logger.Warn("SMTP not configured, confirmation tokens are returned in responses")
	}

	lifecycle := accounts.NewLifecycle(repo.Accounts(), tokens, lifecycleOpts...)

	app := fiber.New(fiber.Config{
		AppName:               "go-accounts",
		DisableStartupMessage: !cfg.Debug,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	accounts.RegisterAccountRoutes(app, lifecycle,
		accounts.WithControllerDebug(cfg.Debug),
		accounts.WithControllerLogger(logger),
		accounts.WithExposeTokens(exposeTokens),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accounts service listening", "addr", cfg.HTTPAddr)
		errCh <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down accounts service")
	err = app.ShutdownWithTimeout(10 * time.Second)

	lifecycle.Wait()
	return err
}
