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
	"github.com/rs/zerolog"

	"github.com/prudhivi99/retail-orders/internal/cache"
	"github.com/prudhivi99/retail-orders/internal/config"
	"github.com/prudhivi99/retail-orders/internal/consumer"
	"github.com/prudhivi99/retail-orders/internal/db"
	"github.com/prudhivi99/retail-orders/internal/discovery"
	"github.com/prudhivi99/retail-orders/internal/handlers"
	"github.com/prudhivi99/retail-orders/internal/logger"
	"github.com/prudhivi99/retail-orders/internal/messaging"
	"github.com/prudhivi99/retail-orders/internal/publisher"
	"github.com/prudhivi99/retail-orders/internal/store"
)

func main() {
	configFile := flag.String("config", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(config.Service{Name: "catalog-service", Port: 8081}, *configFile)
	if err != nil {
		bootLog := logger.New("catalog-service", "info", false)
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

	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisCache.Close()

	productRepo := db.NewProductRepository(gw)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache, log)

	if cfg.EventsEnabled {
		rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ(), log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rabbitMQ.Close()

		catalogConsumer := consumer.NewCatalogConsumer(cachedRepo, log)
		for _, queue := range []string{publisher.OrderPlacedQueue, publisher.OrderCancelledQueue} {
			if err := startEventConsumer(ctx, rabbitMQ, queue, catalogConsumer); err != nil {
				log.Fatal().Err(err).Str("queue", queue).Msg("failed to start consumer")
			}
		}
	}

	router := gin.New()
	router.Use(handlers.RequestLogger(log))
	handlers.NewProductHandler(cachedRepo).Register(router)

	if cfg.ConsulEnabled {
		defer registerWithConsul(cfg, log)()
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("catalog service starting")
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

func startEventConsumer(ctx context.Context, mq *messaging.RabbitMQ, queue string, c *consumer.CatalogConsumer) error {
	if err := mq.DeclareQueue(queue); err != nil {
		return err
	}

	messages, err := mq.Consume(queue)
	if err != nil {
		return err
	}

	go c.Process(ctx, messages)
	return nil
}

// registerWithConsul returns the matching deregistration.
func registerWithConsul(cfg *config.Config, log zerolog.Logger) func() {
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, log)
	if err != nil {
		log.Warn().Err(err).Msg("Consul unavailable, skipping registration")
		return func() {}
	}

	err = consul.Register(discovery.ServiceConfig{
		Name:    cfg.ServiceName,
		ID:      cfg.ServiceID,
		Address: cfg.AdvertiseAddress,
		Port:    cfg.ServerPort,
		Tags:    []string{"api", "products"},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register service")
	}

	return func() {
		if err := consul.Deregister(cfg.ServiceID); err != nil {
			log.Warn().Err(err).Msg("failed to deregister")
		}
	}
}
