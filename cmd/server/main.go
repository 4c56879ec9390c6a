package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dokanlabs/dokan/internal/config"
	"github.com/dokanlabs/dokan/internal/events"
	"github.com/dokanlabs/dokan/internal/handler"
	"github.com/dokanlabs/dokan/internal/logger"
	"github.com/dokanlabs/dokan/internal/payment"
	"github.com/dokanlabs/dokan/internal/repository"
	"github.com/dokanlabs/dokan/internal/service"
	"github.com/dokanlabs/dokan/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrations.Run(ctx, cfg.Database.URL); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	publisher, err := events.NewNATSPublisher(cfg.NATS.URL, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	log.Info().Strs("gateways", registry.Names()).Msg("payment gateways registered")

	store := repository.NewStore(pool)

	e := handler.New(handler.Deps{
		Catalog:  service.NewCatalogService(store, log),
		Cart:     service.NewCartService(store, log),
		Checkout: service.NewCheckoutService(store, publisher, log),
		Orders:   service.NewOrderService(store, publisher, log),
		Payments: service.NewPaymentService(store, registry, publisher, log),
		Reviews:  service.NewReviewService(store, log),
		DB:       pool,
		Logger:   log,

		PaymentSuccessURL: cfg.Payment.SuccessURL,
		PaymentFailureURL: cfg.Payment.FailureURL,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      e,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRegistry assembles the enabled gateway adapters. COD is always
// registered; the remote gateways need credentials.
func buildRegistry(cfg *config.Config) (*payment.Registry, error) {
	gateways := []payment.Gateway{payment.NewCODGateway()}
	callback := func(name string) string {
		return cfg.PublicBaseURL + "/payments/" + name + "/callback"
	}

	if cfg.Bkash.Enabled {
		gw, err := payment.NewBkashGateway(payment.BkashConfig{
			AppKey:      cfg.Bkash.Key,
			AppSecret:   cfg.Bkash.Secret,
			Username:    cfg.Bkash.Username,
			Password:    cfg.Bkash.Password,
			BaseURL:     cfg.Bkash.BaseURL,
			CallbackURL: callback("bkash"),
			Timeout:     cfg.Bkash.Timeout,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	if cfg.Nagad.Enabled {
		gw, err := payment.NewNagadGateway(payment.NagadConfig{
			MerchantID:  cfg.Nagad.MerchantID,
			MerchantKey: cfg.Nagad.Secret,
			BaseURL:     cfg.Nagad.BaseURL,
			CallbackURL: callback("nagad"),
			Timeout:     cfg.Nagad.Timeout,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	if cfg.SSLCommerz.Enabled {
		gw, err := payment.NewSSLCommerzGateway(payment.SSLCommerzConfig{
			StoreID:       cfg.SSLCommerz.MerchantID,
			StorePassword: cfg.SSLCommerz.Password,
			BaseURL:       cfg.SSLCommerz.BaseURL,
			SuccessURL:    callback("sslcommerz"),
			FailURL:       callback("sslcommerz"),
			CancelURL:     callback("sslcommerz"),
			IPNURL:        callback("sslcommerz"),
			Timeout:       cfg.SSLCommerz.Timeout,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	if cfg.Rocket.Enabled {
		gw, err := payment.NewRocketGateway(payment.RocketConfig{
			MerchantID:  cfg.Rocket.MerchantID,
			APIKey:      cfg.Rocket.Key,
			APISecret:   cfg.Rocket.Secret,
			BaseURL:     cfg.Rocket.BaseURL,
			CallbackURL: callback("rocket"),
			Timeout:     cfg.Rocket.Timeout,
		})
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	return payment.NewRegistry(gateways...)
}
