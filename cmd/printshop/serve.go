package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/config"
	"github.com/fjod/printshop/internal/gooten"
	httphandler "github.com/fjod/printshop/internal/http"
	"github.com/fjod/printshop/internal/mail"
	"github.com/fjod/printshop/internal/poller"
	"github.com/fjod/printshop/internal/pricing"
	"github.com/fjod/printshop/internal/publisher"
	"github.com/fjod/printshop/internal/repository"
	"github.com/fjod/printshop/internal/service"
	"github.com/fjod/printshop/internal/stripe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, outbox publisher and order consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().Bool("migrate", true, "apply migrations before serving")
	return cmd
}

func runServe(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting printshop",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Bool("fulfillment_enabled", cfg.Fulfilment.Enabled))

	orders, err := openOrders(cfg, migrate)
	if err != nil {
		return err
	}
	defer orders.Close()
	log.Info("connected to postgres", zap.String("database", cfg.Database.DBName))

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(disconnectCtx); err != nil {
			log.Error("failed to disconnect mongodb", zap.Error(err))
		}
	}()
	carts := repository.NewMongoRepository(mongoDB)
	if err := repository.CreateIndexes(ctx, carts); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	log.Info("connected to mongodb", zap.String("database", cfg.Mongo.DBName))

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	products, err := openCatalog(cfg, migrate)
	if err != nil {
		return err
	}
	defer products.Close()

	rules := pricing.Rules{
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShipping:          cfg.Pricing.FlatShipping,
		TaxRate:               cfg.Pricing.TaxRate,
	}

	cartService := service.NewCartService(carts, cache.NewRedisCartCache(redisClient), products, rules, log)
	projector := service.NewStatusProjector(orders, cache.NewRedisOrderCache(redisClient), log)

	paymentService := service.NewPaymentService(
		service.NewPaymentHandler(stripe.NewClient(cfg.Payment.StripeSecretKey, nil, log), cfg.Timeouts.Payment),
		rules, cfg.Payment.Currency, log)

	var (
		fulfillment *service.FulfillmentHandler
		shipping    *service.ShippingHandler
	)
	if partner := gootenClient(cfg, log); partner != nil {
		fulfillment = service.NewFulfillmentHandler(partner, cfg.Timeouts.Fulfilment)
		shipping = service.NewShippingHandler(partner, cfg.Timeouts.Request)
	}
	shippingService := service.NewShippingService(shipping, cfg.Payment.Currency, log)

	orderService := service.NewOrderService(
		orders,
		fulfillment,
		notificationHandler(cfg, log),
		service.OrderConfig{Rules: rules, Currency: cfg.Payment.Currency, PersistTimeout: cfg.Timeouts.Persist},
		log)

	outbox := publisher.NewOutboxPoller(orders, cfg.Kafka.Topic, log, cfg.Kafka.Brokers...)
	defer outbox.Close()
	consumer := poller.NewPoller(cartService, cfg.Kafka.Topic, cfg.Kafka.GroupID, log, cfg.Kafka.Brokers...)
	defer consumer.Close()

	go outbox.Run(ctx)
	go consumer.Run(ctx)

	router := httphandler.NewRouter(httphandler.Handlers{
		Cart:    httphandler.NewCartHandler(cartService, cfg.Timeouts.Request, log),
		Payment: httphandler.NewPaymentHandler(paymentService, cfg.Timeouts.Request+cfg.Timeouts.Payment, log),
		Orders: httphandler.NewOrdersHandler(orderService, projector, cartService,
			cfg.Timeouts.Request+cfg.Timeouts.Fulfilment, log),
		Shipping: httphandler.NewShippingHandler(shippingService, cfg.Timeouts.Request*2, log),
		Webhooks: httphandler.NewWebhookHandler(projector, cfg.FulfilmentWebhookSecret, cfg.Timeouts.Request, log),
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
		return err
	}
	log.Info("stopped")
	return nil
}

// gootenClient returns nil when the partner integration is disabled: orders are
// parked for manual fulfillment and shipping quotes are unavailable.
func gootenClient(cfg *config.Config, log *zap.Logger) *gooten.Client {
	if !cfg.Fulfilment.Enabled {
		log.Warn("fulfillment dispatch disabled, orders will need manual fulfillment")
		return nil
	}
	return gooten.NewClient(gooten.Config{
		BaseURL:           cfg.Fulfilment.BaseURL,
		RecipeID:          cfg.Fulfilment.RecipeID,
		PartnerBillingKey: cfg.Fulfilment.PartnerBillingKey,
		TestMode:          cfg.Fulfilment.TestMode,
	}, log)
}

// notificationHandler returns nil without a SendGrid key, which skips the email.
func notificationHandler(cfg *config.Config, log *zap.Logger) *service.NotificationHandler {
	if cfg.Mail.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, order confirmation emails are disabled")
		return nil
	}
	mailer := mail.NewSendGridMailer(mail.Config{
		APIKey:    cfg.Mail.SendGridAPIKey,
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
	}, log)
	return service.NewNotificationHandler(mailer, cfg.Timeouts.Notification)
}
