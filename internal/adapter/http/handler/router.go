package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
// The gin mode is left to the caller.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	h := NewWalletHandler(deps.WalletSvc)
	wallet := r.Group("/api/v1/wallet")
	{
		wallet.POST("/create", rl(middleware.GroupWalletCreate), h.Create)
		wallet.POST("/transfer", rl(middleware.GroupTransfer), h.Transfer)
		wallet.POST("/:id/fund", rl(middleware.GroupWalletFund), h.Fund)
		wallet.GET("/:id/get-wallet", rl(middleware.GroupWalletRead), h.GetWallet)
		wallet.GET("/:id/transactions", rl(middleware.GroupWalletRead), h.GetTransactions)
		wallet.POST("/:id/pin/update", rl(middleware.GroupPin), h.UpdatePin)
		wallet.POST("/:id/pin/reset", rl(middleware.GroupPin), h.ResetPin)
	}

	return r
}
