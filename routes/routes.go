package routes

import (
	"github.com/flowstart/douyin-web/controllers"

	"github.com/gin-gonic/gin"
)

// InitRoutes 初始化路由配置
func InitRoutes(router *gin.Engine) {
	// 管理认证路由
	authController := &controllers.AuthController{}
	router.POST("api/auth/setup/", authController.Setup)
	router.POST("api/auth/login/", authController.Login)

	// 初始化上传与任务相关路由
	InitUploadRoutes(router)

	// 初始化统计相关路由
	InitStatsRoutes(router)

	// 初始化物流相关路由
	InitLogisticsRoutes(router)

	// 初始化系统配置相关路由
	InitConfigRoutes(router)

	// 健康检查路由
	router.GET("api/health/", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 404 路由
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "页面不存在"})
	})

	// 405 路由
	router.NoMethod(func(c *gin.Context) {
		c.JSON(405, gin.H{"error": "请求方法不允许"})
	})
}
