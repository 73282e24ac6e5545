package routes

import (
	"github.com/flowstart/douyin-web/controllers"

	"github.com/gin-gonic/gin"
)

// InitLogisticsRoutes 初始化物流相关路由
func InitLogisticsRoutes(router *gin.Engine) {
	logisticsController := &controllers.LogisticsController{}

	logisticsGroup := router.Group("/api/logistics/")
	{
		logisticsGroup.GET("query", logisticsController.QueryTracking)
		logisticsGroup.POST("check_all", logisticsController.CheckAll)
		logisticsGroup.GET("overview", logisticsController.Overview)
	}
}
