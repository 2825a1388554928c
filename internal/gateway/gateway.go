// Package gateway routes public paths to backend services found through
// service discovery, falling back to fixed URLs when discovery has no
// healthy instance.
package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prudhivi99/retail-orders/internal/discovery"
	"github.com/rs/zerolog"
)

const (
	OrderService   = "order-service"
	CatalogService = "catalog-service"
)

type Gateway struct {
	locator   discovery.Locator
	fallbacks map[string]string
	log       zerolog.Logger

	mutex    sync.RWMutex
	proxies  map[string]*httputil.ReverseProxy
	services map[string]string
	client   *http.Client
}

// New resolves every service in fallbacks once. locator may be nil, in
// which case only the fallbacks are used.
func New(locator discovery.Locator, fallbacks map[string]string, log zerolog.Logger) *Gateway {
	g := &Gateway{
		locator:   locator,
		fallbacks: fallbacks,
		log:       log.With().Str("component", "gateway").Logger(),
		proxies:   make(map[string]*httputil.ReverseProxy),
		services:  make(map[string]string),
		client:    &http.Client{Timeout: 2 * time.Second},
	}
	g.discoverServices()
	return g
}

func (g *Gateway) discoverServices() {
	for svc, fallback := range g.fallbacks {
		target := fallback
		if g.locator != nil {
			found, err := g.locator.GetServiceURL(svc)
			if err != nil {
				g.log.Warn().Err(err).Str("service", svc).Str("fallback", fallback).Msg("service not found")
			} else {
				target = found
			}
		}
		g.updateProxy(svc, target)
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.services[serviceName] == serviceURL {
		return
	}

	target, err := url.Parse(serviceURL)
	if err != nil {
		g.log.Error().Err(err).Str("service", serviceName).Msg("invalid service URL")
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.log.Error().Err(err).Str("service", serviceName).Msg("proxy error")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "service unavailable"}`)
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	g.log.Info().Str("service", serviceName).Str("url", serviceURL).Msg("updated route")
}

// Watch re-resolves services every interval until ctx is done.
func (g *Gateway) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.discoverServices()
		}
	}
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

// Proxy forwards the request unchanged to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": serviceName + " unavailable"})
			return
		}
		g.log.Debug().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Str("service", serviceName).Msg("routing")
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	services := make(map[string]string, len(g.services))
	for name, u := range g.services {
		services[name] = u
	}
	g.mutex.RUnlock()

	statuses := make(map[string]string, len(services))
	allHealthy := true
	for name, u := range services {
		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, u+"/health", nil)
		if err != nil {
			statuses[name] = "unhealthy"
			allHealthy = false
			continue
		}
		resp, err := g.client.Do(req)
		if err != nil || resp.StatusCode != http.StatusOK {
			statuses[name] = "unhealthy"
			allHealthy = false
		} else {
			statuses[name] = "healthy"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

func (g *Gateway) Register(r gin.IRouter) {
	r.GET("/health", g.HealthCheck)
	r.GET("/services", g.ListServices)

	orders := g.Proxy(OrderService)
	r.Any("/orders", orders)
	r.Any("/orders/*path", orders)
	r.Any("/customers", orders)
	r.Any("/customers/*path", orders)

	catalog := g.Proxy(CatalogService)
	r.Any("/products", catalog)
	r.Any("/products/*path", catalog)
}
