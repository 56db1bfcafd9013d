package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mosesedem/servixing-sub001/internal/config"
	"github.com/Mosesedem/servixing-sub001/internal/http/handlers"
	"github.com/Mosesedem/servixing-sub001/internal/http/middleware"
)

type Deps struct {
	Cfg    config.Config
	DB     *gorm.DB
	Logger *slog.Logger

	Payments   *handlers.PaymentHandler
	Warranty   *handlers.WarrantyHandler
	WorkOrders *handlers.WorkOrderHandler
	Webhooks   *handlers.WebhookHandler
	Health     *handlers.HealthHandler
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.SessionMiddleware(middleware.SessionCfg{
		DB:         d.DB,
		CookieName: d.Cfg.SessionCookieName,
		Secure:     d.Cfg.SecureCookies,
		TTL:        d.Cfg.SessionTTL,
	}))

	r.GET("/healthz", d.Health.Get)

	// Signature check happens in the handler; no session required.
	r.POST("/webhooks/:provider", d.Webhooks.Handle)

	api := r.Group("/api")
	{
		api.POST("/payments/initialize", d.Payments.Initialize)
		api.POST("/payments/verify", d.Payments.VerifyPayment)
		api.GET("/payments/:id", d.Payments.GetPayment)
		api.POST("/payments/:id/refund", middleware.RequireAdmin(), d.Payments.Refund)

		api.POST("/warranty/status", d.Warranty.GetStatus)

		wo := api.Group("/workorders", middleware.RequireAuth())
		{
			wo.GET("", d.WorkOrders.List)
			wo.GET("/:id", d.WorkOrders.Get)
		}
	}

	return r
}
