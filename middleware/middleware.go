package middleware

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/utils"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

var (
	accessLogger     *utils.Logger
	accessLoggerOnce sync.Once
)

// RequestLogMiddleware 请求访问日志中间件，写入logs/access.log
func RequestLogMiddleware() gin.HandlerFunc {
	accessLoggerOnce.Do(func() {
		logger, err := utils.NewLogger("logs", "access.log")
		if err != nil {
			log.Printf("初始化访问日志失败: %v", err)
			return
		}
		accessLogger = logger
	})

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if accessLogger == nil {
			return
		}
		if err := accessLogger.Access("%s %s %d %v %s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
		); err != nil {
			log.Printf("写入访问日志失败: %v", err)
		}
	}
}

// ErrorHandlerMiddleware 兜底错误处理中间件
// handler中通过c.Error记录的错误统一转成JSON响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": c.Errors.Last().Error()})
		}
	}
}

// JWTAuthMiddleware JWT认证中间件
// token来源：Authorization头的Bearer token，或URL参数access_token
func JWTAuthMiddleware(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			authParts := strings.SplitN(authHeader, " ", 2)
			if len(authParts) == 2 && authParts[0] == "Bearer" {
				tokenString = authParts[1]
			}
		}

		if tokenString == "" {
			tokenString = c.Query("access_token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required, either in header or as access_token query parameter"})
			c.Abort()
			return
		}

		token, err := utils.ParseToken(tokenString, cfg)
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
