package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mserebryaakov/aggregator-client-service/config"
	"github.com/mserebryaakov/aggregator-client-service/internal/auth"
	"github.com/mserebryaakov/aggregator-client-service/internal/basket"
	"github.com/mserebryaakov/aggregator-client-service/internal/catalog"
	"github.com/mserebryaakov/aggregator-client-service/internal/client"
	"github.com/mserebryaakov/aggregator-client-service/internal/notification"
	"github.com/mserebryaakov/aggregator-client-service/internal/order"
	"github.com/mserebryaakov/aggregator-client-service/internal/payment"
	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/mserebryaakov/aggregator-client-service/pkg/httpserver"
	"github.com/mserebryaakov/aggregator-client-service/pkg/logger"
	"github.com/mserebryaakov/aggregator-client-service/pkg/postgres"
	"github.com/mserebryaakov/aggregator-client-service/pkg/realtime"
	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
)

func main() {
	log := logger.NewLogger("debug", &logger.MainLogHook{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configs: %v", err)
	}

	env, err := config.GetEnvironment()
	if err != nil {
		log.Fatalf(err.Error())
	}

	if env.ApiBaseURL != "" {
		cfg.Api.BaseURL = env.ApiBaseURL
	}
	if env.NatsURL != "" {
		cfg.Realtime.URL = env.NatsURL
	}

	postgresConfig := postgres.Config{
		Host:     env.PgHost,
		Port:     env.PgPort,
		Username: env.PgUser,
		Password: env.PgPassword,
		DBName:   env.PgDbName,
		SSLMode:  env.SSLMode,
		TimeZone: env.TimeZone,
	}

	db, err := postgres.NewConnection(postgresConfig, log)
	if err != nil {
		log.Fatalf("failed connection to db: %v", err)
	}

	if err := storage.RunMigration(db); err != nil {
		log.Fatalf("failed to run migration: %v", err)
	}

	store := storage.NewStorage(db)

	apiClientLog := logger.NewLogger(env.LogLvl, &apiclient.ApiClientLogHook{})
	apiClient := apiclient.NewClient(apiclient.Config{
		BaseURL:    cfg.Api.BaseURL,
		Timeout:    time.Duration(cfg.Api.TimeoutSeconds) * time.Second,
		RetryCount: cfg.Api.RetryCount,
		RetryDelay: time.Duration(cfg.Api.RetryDelayMs) * time.Millisecond,
	}, store, apiClientLog)

	bus := notification.NewBus()
	apiClient.SetUnauthorizedHandler(func(message string) {
		bus.Warning(message)
	})

	realtimeLog := logger.NewLogger(env.LogLvl, &realtime.RealtimeLogHook{})
	channel := realtime.NewChannel(cfg.Realtime.URL, realtimeLog)

	basketLog := logger.NewLogger(env.LogLvl, &basket.BasketLogHook{})
	basketStore, err := basket.NewStore(store, basketLog)
	if err != nil {
		log.Fatalf("failed to init basket store: %v", err)
	}

	orderLog := logger.NewLogger(env.LogLvl, &order.OrderLogHook{})
	orderStore, err := order.NewStore(store, channel, cfg.Realtime.Subject, bus, orderLog)
	if err != nil {
		log.Fatalf("failed to init order store: %v", err)
	}
	orderStore.StartRealtime()

	paymentLog := logger.NewLogger(env.LogLvl, &payment.PaymentLogHook{})
	paymentStore, err := payment.NewStore(store, paymentLog)
	if err != nil {
		log.Fatalf("failed to init payment store: %v", err)
	}

	orderApi := order.NewOrderAdapter(apiClient, orderLog)
	paymentApi := payment.NewPaymentAdapter(apiClient, paymentLog)
	customMealApi := basket.NewCustomMealAdapter(apiClient, basketLog)

	catalogLog := logger.NewLogger(env.LogLvl, &catalog.CatalogLogHook{})
	catalogApi := catalog.NewCatalogAdapter(apiClient, catalogLog)

	authLog := logger.NewLogger(env.LogLvl, &auth.AuthLogHook{})
	authApi := auth.NewService(apiClient, store, authLog)

	router := gin.New()

	clientLog := logger.NewLogger(env.LogLvl, &client.ClientLogHook{})
	clientHandler := client.NewHandler(basketStore, orderStore, paymentStore, bus,
		orderApi, paymentApi, customMealApi, catalogApi, authApi, clientLog)
	clientHandler.Register(router)

	server := new(httpserver.Server)

	go func() {
		if err := server.Run(cfg.Server.Port, router); err != nil {
			log.Fatalf("Failed running server %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	oscall := <-interrupt
	log.Infof("Shutdown server, %s", oscall)

	orderStore.Close()
	channel.Close()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Errorf("Error occured on server shutting down: %v", err)
	}
}
