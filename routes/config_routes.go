package routes

import (
	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/controllers"
	"github.com/flowstart/douyin-web/middleware"

	"github.com/gin-gonic/gin"
)

// InitConfigRoutes 初始化系统配置相关路由
// 配置读取开放，配置写入需要JWT认证
func InitConfigRoutes(router *gin.Engine) {
	configController := &controllers.ConfigController{}
	appConfig := config.LoadConfig()

	configGroup := router.Group("/api/config/")
	{
		configGroup.GET("", configController.ListConfigs)
	}

	protectedGroup := router.Group("/api/config/", middleware.JWTAuthMiddleware(appConfig))
	{
		protectedGroup.POST("update", configController.UpdateConfig)
		protectedGroup.POST("batch_update", configController.BatchUpdateConfigs)
	}
}
