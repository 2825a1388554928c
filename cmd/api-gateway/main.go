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
	"github.com/prudhivi99/retail-orders/internal/discovery"
	"github.com/prudhivi99/retail-orders/internal/gateway"
	"github.com/prudhivi99/retail-orders/internal/handlers"
	"github.com/prudhivi99/retail-orders/internal/logger"
)

func main() {
	configFile := flag.String("config", ".env", "optional env file")
	flag.Parse()

	cfg, err := config.Load(config.Service{Name: "api-gateway", Port: 8080}, *configFile)
	if err != nil {
		bootLog := logger.New("api-gateway", "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var locator discovery.Locator
	if cfg.ConsulEnabled {
		consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, log)
		if err != nil {
			log.Warn().Err(err).Msg("Consul unavailable, using fallback URLs")
		} else {
			locator = consul
		}
	}

	gw := gateway.New(locator, map[string]string{
		gateway.OrderService:   cfg.OrderServiceURL,
		gateway.CatalogService: cfg.CatalogServiceURL,
	}, log)
	if locator != nil {
		go gw.Watch(ctx, 10*time.Second)
	}

	router := gin.New()
	router.Use(handlers.RequestLogger(log))
	gw.Register(router)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api gateway starting")
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
