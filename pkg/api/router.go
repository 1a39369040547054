package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Eugenepoly/market-agent/pkg/api/handler"
	"github.com/Eugenepoly/market-agent/pkg/api/middleware"
	"github.com/Eugenepoly/market-agent/pkg/core/orchestrator"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// SetupRouter 设置路由
func SetupRouter(orch *orchestrator.Orchestrator, artifacts storage.ArtifactStore, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	workflowHandler := handler.NewWorkflowHandler(orch, artifacts)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		workflows := v1.Group("/workflows")
		{
			workflows.POST("", workflowHandler.Start)
			workflows.GET("", workflowHandler.List)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.GET("/:id/draft", workflowHandler.Draft)
			workflows.POST("/:id/approve", workflowHandler.Approve)
			workflows.POST("/:id/reject", workflowHandler.Reject)
		}
	}

	return router
}
