package main

import (
	"log"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/method"
	"github.com/flowstart/douyin-web/middleware"
	"github.com/flowstart/douyin-web/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	appConfig := config.LoadConfig()

	// 初始化数据库
	db.InitDB(appConfig)
	// 初始化Redis（可选，用于物流查询的跨进程锁）
	db.InitRedis(appConfig)
	// 运行数据库迁移，同步表结构变更
	db.RunMigrations()

	// 启动导入任务worker
	if appConfig.EnableImportWorker {
		log.Println("正在启动导入任务worker...")
		method.StartImportWorker(db.DB, appConfig)
	}

	// 启动物流签收定时调度器
	if appConfig.EnableLogisticsScheduler {
		log.Println("正在启动物流签收定时调度器...")
		method.StartLogisticsScheduler(db.DB, appConfig)
	}

	// 创建Gin引擎
	router := gin.Default()

	// 设置中间件
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestLogMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware())

	// 设置静态文件服务
	router.Static("/media", "./media")

	// 初始化路由
	routes.InitRoutes(router)

	// 启动服务器
	log.Printf("Server starting on port %s\n", appConfig.ServerPort)
	if err := router.Run(":" + appConfig.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
