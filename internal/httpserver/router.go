package httpserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shopcheckout/internal/checkout"
	"shopcheckout/internal/gateway"
	memberrepo "shopcheckout/internal/repository/member"
	orderrepo "shopcheckout/internal/repository/order"
	"shopcheckout/internal/session"
)

// Deps carries the wired collaborators the checkout routes need.
type Deps struct {
	Orders   orderrepo.Repository
	Members  memberrepo.Repository
	Gateways gateway.Adapter
	Notifier checkout.Notifier
	Sessions *session.Store
	Hooks    *checkout.Hooks
	Metrics  checkout.Recorder
	Checkout checkout.Config

	// Registry serves /metrics; nil disables the route.
	Registry *prometheus.Registry
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Session-Token", "X-Member-ID"},
		ExposeHeaders: []string{"X-Session-Token"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	h := &checkoutHandler{deps: deps, logger: logger}
	co := router.Group("/checkout")
	co.PUT("/cart", h.setCart)
	co.GET("/orders/:ref", h.getOrder)
	co.POST("/orders/:ref/place", h.placeOrder)
	co.POST("/orders/:ref/payments", h.makePayment)
	co.POST("/payments/:id/complete", h.completePayment)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
