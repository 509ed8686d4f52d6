package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"stamp-core/internal/handler"
	"stamp-core/pkg/monitor"
)

type Handlers struct {
	Health   gin.HandlerFunc
	Market   *handler.MarketHandler
	Cip33    *handler.Cip33Handler
	Estimate *handler.EstimateHandler
	PSBT     *handler.PSBTHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/fees", h.Market.Fees)
		api.GET("/price", h.Market.Price)
		api.GET("/warmer/status", h.Market.WarmerStatus)
		api.POST("/warmer/warm", h.Market.Warm)

		cip := api.Group("/cip33")
		cip.POST("/encode", h.Cip33.Encode)
		cip.POST("/decode", h.Cip33.Decode)

		api.POST("/estimate", h.Estimate.Estimate)
		api.GET("/estimate/:session_id", h.Estimate.Session)

		api.POST("/psbt", h.PSBT.Build)
	}

	return r
}
