// Package api exposes the HTTP surface: the webhook ingestion endpoint, the
// broker query pass-through, and health.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domrepo "github.com/alloc33/market/internal/domain/repository"
	xhttp "github.com/alloc33/market/pkg/http"
	"github.com/alloc33/market/pkg/http/middleware"
	xlogger "github.com/alloc33/market/pkg/logger"
)

// Router composes the handlers and registers all routes. Everything except
// /health and /metrics requires the API key.
type Router struct {
	logger  *xlogger.Logger
	webhook *WebhookHandler
	query   *QueryHandler
	store   domrepo.AlertStore
	apiKey  string
}

func NewRouter(
	logger *xlogger.Logger,
	webhook *WebhookHandler,
	query *QueryHandler,
	store domrepo.AlertStore,
	apiKey string,
) *Router {
	return &Router{
		logger:  logger,
		webhook: webhook,
		query:   query,
		store:   store,
		apiKey:  apiKey,
	}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.Health)

	auth := middleware.APIKey(r.apiKey)

	wh := e.Group("/webhook", auth)
	wh.POST("/alert", r.webhook.Alert)

	g := e.Group("/api", auth)
	g.GET("/account", r.query.Account)
	g.GET("/asset/:symbol", r.query.Asset)
	g.GET("/assets", r.query.Assets)
	g.GET("/orders", r.query.Orders)
	g.GET("/order/:id", r.query.Order)
	g.DELETE("/order/:id", r.query.CancelOrder)
	g.GET("/positions", r.query.Positions)
	g.GET("/alerts", r.query.Alerts)
}

// Health reports liveness plus alert-store reachability.
func (r *Router) Health(c echo.Context) error {
	if err := r.store.Health(c.Request().Context()); err != nil {
		r.logger.Warn("health check degraded", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, echo.Map{
			"status": "degraded",
			"store":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, echo.Map{"status": "ok"})
}
