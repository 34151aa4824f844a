package routes

import (
	"net/http"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes
type Handlers struct {
	User     *handler.UserHandler
	Usage    *handler.UsageHandler
	Referral *handler.ReferralHandler
	Webhook  *handler.WebhookHandler
	Admin    *handler.AdminHandler
	Health   *handler.HealthHandler
}

// Options carries the route-level secrets and the metrics exposition handler
type Options struct {
	ServiceToken   string
	AdminToken     string
	MetricsHandler http.Handler
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers, opts Options, logger coreport.Logger) {
	router.GET("/healthz", h.Health.Healthz)
	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	v1 := router.Group("/v1")

	// Payment provider callbacks authenticate with their signature
	v1.POST("/webhooks/payments", h.Webhook.PaymentWebhook)

	service := v1.Group("")
	service.Use(middleware.RequireToken(middleware.ServiceTokenHeader, opts.ServiceToken, logger))
	{
		service.POST("/users", h.User.EnsureUser)
		service.GET("/users/:userId/wallet", h.User.GetWallet)
		service.GET("/users/:userId/transactions", h.User.ListTransactions)
		service.GET("/users/:userId/limits", h.User.GetLimits)
		service.GET("/users/:userId/usage", h.Usage.ListUsage)
		service.POST("/users/:userId/referral-code", h.Referral.GenerateCode)
		service.POST("/users/:userId/referral-redemptions", h.Referral.Redeem)

		service.POST("/usage", h.Usage.RecordUsage)
		service.GET("/models", h.Usage.ListModels)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireToken(middleware.AdminTokenHeader, opts.AdminToken, logger))
	{
		admin.POST("/rates", h.Admin.PublishRate)
		admin.GET("/rates/:modelId", h.Admin.RateHistory)
		admin.DELETE("/rates/:modelId", h.Admin.RetireModel)

		admin.PUT("/users/:userId/postpaid", h.Admin.SetPostpaid)
		admin.PUT("/users/:userId/quota", h.Admin.SetQuota)
		admin.POST("/users/:userId/adjustments", h.Admin.Adjust)
		admin.POST("/users/:userId/reconcile", h.Admin.Reconcile)
		admin.GET("/users/:userId/cycles", h.Admin.ListCycles)

		admin.GET("/jobs", h.Admin.ListJobs)
		admin.POST("/jobs/:job/run", h.Admin.RunJob)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, allowedOrigins []string) {
	// Apply middlewares in the correct order
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(allowedOrigins))
}
