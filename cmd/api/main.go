package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"shopcheckout/internal/checkout"
	"shopcheckout/internal/config"
	"shopcheckout/internal/db"
	"shopcheckout/internal/domain"
	"shopcheckout/internal/gateway"
	"shopcheckout/internal/httpserver"
	"shopcheckout/internal/metrics"
	"shopcheckout/internal/notification"
	memberrepo "shopcheckout/internal/repository/member"
	orderrepo "shopcheckout/internal/repository/order"
	"shopcheckout/internal/session"
)

func main() {
	cfg := config.FromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	checkoutMetrics := metrics.New(registry)

	orderRepo := orderrepo.NewPostgres(dbpool)
	memberRepo := memberrepo.NewPostgres(dbpool)
	mailer := notification.NewMailer(logger, cfg.MailFrom, cfg.AdminMail)
	sessions := session.NewStore()
	gateways := gateway.NewRegistry(gatewayConfigs(cfg), logger)

	// Fulfilment and other collaborators subscribe here; the paid hook is
	// where a picking/shipping system would be handed the order.
	hooks := checkout.NewHooks().
		OnPaid(func(o *domain.Order) {
			logger.Info("order ready for fulfilment", zap.String("order_ref", o.Reference))
		})

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Orders:   orderRepo,
		Members:  memberRepo,
		Gateways: gateways,
		Notifier: mailer,
		Sessions: sessions,
		Hooks:    hooks,
		Metrics:  checkoutMetrics,
		Checkout: checkout.Config{
			SendConfirmation:      cfg.SendConfirmation,
			SendAdminNotification: cfg.SendAdminNotification,
			AllowZeroOrderTotal:   cfg.AllowZeroOrderTotal,
			BaseCurrency:          cfg.BaseCurrency,
			SiteBaseURL:           cfg.SiteBaseURL,
			CustomerGroup:         cfg.CustomerGroup,
		},
		Registry: registry,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func gatewayConfigs(cfg config.Config) map[string]gateway.GatewayConfig {
	authorize := make(map[string]bool, len(cfg.AuthorizeGateways))
	for _, id := range cfg.AuthorizeGateways {
		authorize[id] = true
	}
	offsite := make(map[string]bool, len(cfg.OffsiteGateways))
	for _, id := range cfg.OffsiteGateways {
		offsite[id] = true
	}

	gateways := make(map[string]gateway.GatewayConfig, len(cfg.Gateways))
	for _, id := range cfg.Gateways {
		gc := gateway.GatewayConfig{Kind: gateway.KindOnsite, Intent: gateway.IntentPurchase}
		if authorize[id] {
			gc.Intent = gateway.IntentAuthorize
		}
		if offsite[id] {
			gc.Kind = gateway.KindOffsite
			gc.PageURL = cfg.HostedPaymentURL
		}
		gateways[id] = gc
	}
	return gateways
}
