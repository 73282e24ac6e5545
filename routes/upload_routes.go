package routes

import (
	"github.com/flowstart/douyin-web/controllers"

	"github.com/gin-gonic/gin"
)

// InitUploadRoutes 初始化上传与任务相关路由
func InitUploadRoutes(router *gin.Engine) {
	uploadController := &controllers.UploadController{}

	uploadGroup := router.Group("/api/upload/")
	{
		uploadGroup.POST("orders", uploadController.UploadOrders)
		uploadGroup.POST("aftersales", uploadController.UploadAfterSales)
		uploadGroup.POST("all", uploadController.UploadAll)
		uploadGroup.POST("sku_image", uploadController.UploadSkuImage)
	}

	taskGroup := router.Group("/api/tasks/")
	{
		taskGroup.GET("", uploadController.ListTasks)
		taskGroup.GET(":task_id", uploadController.GetTaskStatus)
	}
}
