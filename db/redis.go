package db

import (
	"context"
	"log"
	"time"

	"github.com/flowstart/douyin-web/config"

	"github.com/redis/go-redis/v9"
)

// RDB 全局Redis客户端，未配置REDIS_ADDR时为nil
var RDB *redis.Client

// InitRedis 初始化Redis连接（可选组件）
func InitRedis(appConfig config.Config) {
	if appConfig.RedisConfig.Addr == "" {
		log.Println("未配置Redis地址，物流查询锁使用进程内锁")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     appConfig.RedisConfig.Addr,
		Password: appConfig.RedisConfig.Password,
		DB:       appConfig.RedisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		// Redis不可用时降级为进程内锁，不阻止服务启动
		log.Printf("Redis连接失败，降级为进程内锁: %v", err)
		RDB = nil
		return
	}

	log.Println("Redis连接初始化完成")
}
