package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feichai0017/invoice-extractor/api/handlers"
	"github.com/feichai0017/invoice-extractor/api/middleware"
)

// SetupRoutes wires the ops endpoints
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, reg *prometheus.Registry) {
	r.Use(middleware.CORS())

	r.GET("/healthz", h.Health)
	r.GET("/status", h.Status)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}
