package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupLogisticsRouter 构造内存库与物流路由
func setupLogisticsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接各自独立，限制连接池为单连接
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.Order{},
		&models.LogisticsQueryLog{},
		&models.ImportTask{},
		&models.ImportJob{},
		&models.SystemConfig{},
	))
	db.DB = gdb

	router := gin.New()
	logisticsController := &LogisticsController{}
	router.POST("/api/logistics/check_all", logisticsController.CheckAll)
	return router
}

func TestCheckAllWithoutCandidates(t *testing.T) {
	router := setupLogisticsRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/logistics/check_all", nil)
	router.ServeHTTP(w, req)

	// 没有候选单号时不建任务，直接返回提示
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "没有待检查的物流单号")

	var taskCount, jobCount int64
	require.NoError(t, db.DB.Model(&models.ImportTask{}).Count(&taskCount).Error)
	require.NoError(t, db.DB.Model(&models.ImportJob{}).Count(&jobCount).Error)
	assert.Zero(t, taskCount)
	assert.Zero(t, jobCount)
}

func TestCheckAllCreatesTask(t *testing.T) {
	router := setupLogisticsRouter(t)

	require.NoError(t, db.DB.Create(&models.SystemConfig{
		ConfigKey: models.ConfigKeyKD100Customer, ConfigValue: "test-customer",
	}).Error)
	require.NoError(t, db.DB.Create(&models.SystemConfig{
		ConfigKey: models.ConfigKeyKD100Key, ConfigValue: "test-key",
	}).Error)
	require.NoError(t, db.DB.Create(&models.Order{
		OrderID:       "CK001",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "CK-CODE",
		Company:       "顺丰速运",
	}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/logistics/check_all", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "task_id")

	var taskCount, jobCount int64
	require.NoError(t, db.DB.Model(&models.ImportTask{}).Count(&taskCount).Error)
	require.NoError(t, db.DB.Model(&models.ImportJob{}).Count(&jobCount).Error)
	assert.Equal(t, int64(1), taskCount)
	assert.Equal(t, int64(1), jobCount)
}
