package routes

import (
	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/controllers"
	"github.com/flowstart/douyin-web/middleware"

	"github.com/gin-gonic/gin"
)

// InitStatsRoutes 初始化统计相关路由
// 退货率手动修改属于管理操作，需要JWT认证
func InitStatsRoutes(router *gin.Engine) {
	statsController := &controllers.StatsController{}
	appConfig := config.LoadConfig()

	statsGroup := router.Group("/api/stats/")
	{
		statsGroup.GET("sku", statsController.GetSkuStats)
		statsGroup.POST("calculate", statsController.RecalculateStats)
		statsGroup.GET("summary", statsController.GetSummary)
		statsGroup.GET("province", statsController.GetProvinceStats)
		statsGroup.GET("trend", statsController.GetTrend)
	}

	protectedGroup := router.Group("/api/stats/", middleware.JWTAuthMiddleware(appConfig))
	{
		protectedGroup.POST("return_rate", statsController.UpdateReturnRate)
		protectedGroup.POST("return_rate/reset", statsController.ResetReturnRate)
	}
}
