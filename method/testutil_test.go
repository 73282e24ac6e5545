package method

import (
	"testing"
	"time"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 创建内存数据库并迁移全部表结构
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接各自独立，限制连接池为单连接
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.Order{},
		&models.OrderSku{},
		&models.AfterSale{},
		&models.SkuStats{},
		&models.ProvinceStats{},
		&models.ProvinceSkuStats{},
		&models.LogisticsQueryLog{},
		&models.ImportTask{},
		&models.ImportJob{},
		&models.SystemConfig{},
	)
	require.NoError(t, err)

	return gdb
}

// testConfig 测试用应用配置
func testConfig() config.Config {
	return config.Config{
		KD100APIURL: "https://poll.kuaidi100.com/poll/query.do",
		UploadDir:   ".",
	}
}

// timePtr 秒级精度时间指针，避免序列化精度差异干扰相等比较
func timePtr(t time.Time) *time.Time {
	truncated := t.Truncate(time.Second)
	return &truncated
}
