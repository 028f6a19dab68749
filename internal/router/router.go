// Package router 提供路由注册
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SagarBarate/CleanNFT-sub001/internal/handler"
	"github.com/SagarBarate/CleanNFT-sub001/internal/middleware"
	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Waste  *handler.WasteHandler
	Point  *handler.PointHandler
	Nft    *handler.NftHandler
	Admin  *handler.AdminHandler
}

// Register 注册全部中间件与路由
func Register(engine *gin.Engine, auth *middleware.AuthMiddleware, h *Handlers) {
	// 中间件链: Recovery → Logger → Metrics
	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(),
	)

	// 探针与监控端点
	engine.GET("/health/live", h.Health.Live)
	engine.GET("/health/ready", h.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")

	// 认证
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", auth.Required(), h.Auth.Logout)
	}

	// 投递事件: 设备网关匿名上报只建事件，带会话上报才计分
	v1.POST("/waste/events", auth.Optional(), h.Waste.RecordEvent)

	// 用户接口
	user := v1.Group("", auth.Required())
	{
		user.GET("/waste/events", h.Waste.ListMyEvents)
		user.GET("/waste/events/:id", h.Waste.GetEvent)

		user.GET("/points/balance", h.Point.GetMyBalance)
		user.GET("/points/ledger", h.Point.ListMyLedger)
		user.GET("/points/history", h.Point.ListMyLedger)
		user.GET("/points/summary", h.Point.GetMySummary)

		user.GET("/nft/definitions", h.Nft.ListDefinitions)
		user.POST("/nft/claims", h.Nft.Claim)
		user.GET("/nft/claims", h.Nft.ListMyClaims)
		user.GET("/nft/claims/:id", h.Nft.GetClaim)
	}

	// 管理接口
	admin := v1.Group("/admin", auth.Required(), auth.RequireRole(model.RoleAdmin))
	{
		admin.POST("/point-rules", h.Admin.CreateRule)
		admin.POST("/points/adjust", h.Admin.ManualAdjust)
		admin.POST("/nft/claims", h.Admin.ManualClaim)
		admin.PUT("/nft/claims/:id/finalize", h.Admin.FinalizeClaim)
		admin.GET("/waste-events", h.Waste.ListEvents)
		admin.GET("/stations/:code/waste-events", h.Waste.ListStationEvents)
		admin.POST("/txs/retry", h.Admin.RetryTx)
		admin.GET("/txs", h.Admin.ListTxs)
		admin.GET("/health", h.Admin.Health)
		admin.GET("/audit-logs", h.Admin.ListAuditLogs)
	}
}
