package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/crazzype/checkout-go/internal/checkout"
	"github.com/crazzype/checkout-go/internal/config"
	"github.com/crazzype/checkout-go/internal/gateway"
	"github.com/crazzype/checkout-go/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "cli").Logger()
	obs.MustRegisterDomainMetrics("crazzype", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := gateway.NewClient(cfg.APIBaseURL, cfg.Key, cfg.HTTPTimeout, logger)

	exitCode := 1
	session, err := checkout.New(checkout.Options{
		Key:         cfg.Key,
		Amount:      cfg.Amount,
		Currency:    cfg.Currency,
		Name:        cfg.MerchantName,
		Description: cfg.Description,
		Image:       cfg.MerchantImage,
		OrderID:     cfg.OrderID,
		CallbackURL: cfg.CallbackURL,
		Prefill: checkout.Prefill{
			Name:    cfg.CustomerName,
			Email:   cfg.CustomerEmail,
			Contact: cfg.CustomerMobile,
		},
		OnSuccess: func(resp checkout.SuccessResponse) {
			logger.Info().
				Str("order_id", resp.OrderID).
				Str("payment_id", resp.PaymentID).
				Msg("payment confirmed")
			exitCode = 0
		},
		OnFailure: func(e *checkout.Error) {
			logger.Error().
				Str("code", e.Code).
				Str("reason", e.Reason).
				Msg(e.Description)
			exitCode = 1
		},
		OnDismiss: func() {
			logger.Info().Msg("checkout dismissed")
			exitCode = 2
		},
		Gateway:   client,
		Presenter: checkout.LogPresenter{Logger: logger},
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid checkout options")
	}

	go func() {
		<-ctx.Done()
		session.Close()
	}()

	if err := session.Open(context.Background()); err != nil && !errors.Is(err, checkout.ErrSessionConsumed) {
		logger.Error().Err(err).Msg("checkout did not run")
	}
	os.Exit(exitCode)
}
