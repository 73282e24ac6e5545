package config

import (
	"os"
	"strconv"
)

// Config 应用配置结构体
type Config struct {
	// 服务配置
	ServerPort string

	// 数据库配置
	DBConfig DBConfig

	// Redis配置（可选，不配置则物流查询锁退化为进程内锁）
	RedisConfig RedisConfig

	// JWT配置
	JWTConfig JWTConfig

	// 快递100 API地址
	KD100APIURL string

	// 文件上传目录
	UploadDir string

	// 是否启用导入Worker和物流定时调度器
	EnableImportWorker       bool
	EnableLogisticsScheduler bool
}

// DBConfig 数据库配置
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // 小时
	RefreshTokenTTL int // 小时
}

// LoadConfig 从环境变量加载配置，未设置时使用默认值
func LoadConfig() Config {
	return Config{
		ServerPort: getEnv("SERVER_PORT", "8000"),
		DBConfig: DBConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "douyin_orders"),
		},
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWTConfig: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", "douyin-web-secret"),
			AccessTokenTTL:  getEnvInt("JWT_ACCESS_TOKEN_TTL", 12),
			RefreshTokenTTL: getEnvInt("JWT_REFRESH_TOKEN_TTL", 168),
		},
		KD100APIURL:              getEnv("KD100_API_URL", "https://poll.kuaidi100.com/poll/query.do"),
		UploadDir:                getEnv("UPLOAD_DIR", "./uploads"),
		EnableImportWorker:       getEnvBool("ENABLE_IMPORT_WORKER", true),
		EnableLogisticsScheduler: getEnvBool("ENABLE_LOGISTICS_SCHEDULER", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
