package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/retail-orders/internal/config"
	"github.com/prudhivi99/retail-orders/internal/db"
	"github.com/prudhivi99/retail-orders/internal/discovery"
	"github.com/prudhivi99/retail-orders/internal/handlers"
	"github.com/prudhivi99/retail-orders/internal/logger"
	"github.com/prudhivi99/retail-orders/internal/messaging"
	"github.com/prudhivi99/retail-orders/internal/orders"
	"github.com/prudhivi99/retail-orders/internal/publisher"
	"github.com/prudhivi99/retail-orders/internal/service"
	"github.com/prudhivi99/retail-orders/internal/store"
)

func main() {
	configFile := flag.String("config", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(config.Service{Name: "order-service", Port: 8082}, *configFile)
	if err != nil {
		bootLog := logger.New("order-service", "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, closeStore, err := store.Open(ctx, cfg.StoreDriver, cfg.Postgres(), db.Tables, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	customerRepo := db.NewCustomerRepository(gw)
	productRepo := db.NewProductRepository(gw)
	orderRepo := db.NewOrderRepository(gw)

	opts := []orders.Option{orders.WithStockRetries(cfg.StockRetries)}

	// Events are best effort; the service runs without a broker.
	if cfg.EventsEnabled {
		rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ(), log)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, order events disabled")
		} else {
			defer rabbitMQ.Close()
			orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create publisher")
			}
			opts = append(opts, orders.WithPublisher(orderPublisher))
		}
	}

	engine := orders.NewEngine(customerRepo, productRepo, orderRepo, log, opts...)
	orderService := service.NewOrderService(engine, orderRepo, log)
	customerService := service.NewCustomerService(customerRepo, log)

	router := gin.New()
	router.Use(handlers.RequestLogger(log))
	handlers.NewOrderHandler(orderService).Register(router)
	handlers.NewCustomerHandler(customerService).Register(router)

	if cfg.ConsulEnabled {
		consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, log)
		if err != nil {
			log.Warn().Err(err).Msg("Consul unavailable, skipping registration")
		} else {
			err = consul.Register(discovery.ServiceConfig{
				Name:    cfg.ServiceName,
				ID:      cfg.ServiceID,
				Address: cfg.AdvertiseAddress,
				Port:    cfg.ServerPort,
				Tags:    []string{"api", "orders", "customers"},
			})
			if err != nil {
				log.Fatal().Err(err).Msg("failed to register service")
			}
			defer consul.Deregister(cfg.ServiceID)
		}
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("order service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
