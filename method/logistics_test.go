package method

import (
	"testing"
	"time"

	"github.com/flowstart/douyin-web/method/kd100"
	"github.com/flowstart/douyin-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChecker 物流查询桩实现，按单号返回预设结果并记录调用次数
type stubChecker struct {
	results map[string]kd100.TrackStatus
	calls   map[string]int
}

func newStubChecker() *stubChecker {
	return &stubChecker{
		results: make(map[string]kd100.TrackStatus),
		calls:   make(map[string]int),
	}
}

func (s *stubChecker) CheckSigned(trackingNumber, companyName string) kd100.TrackStatus {
	s.calls[trackingNumber]++
	if status, ok := s.results[trackingNumber]; ok {
		return status
	}
	return kd100.TrackStatus{Status: "in_transit", StatusDesc: "在途"}
}

func TestCheckLogisticsSignedFanOut(t *testing.T) {
	gdb := newTestDB(t)

	// 两个订单共享同一物流单号
	for _, orderID := range []string{"FAN001", "FAN002"} {
		require.NoError(t, gdb.Create(&models.Order{
			OrderID:       orderID,
			OrderStatus:   models.OrderStatusShipped,
			LogisticsCode: "SF0001",
			Company:       "顺丰速运",
		}).Error)
	}

	checker := newStubChecker()
	checker.results["SF0001"] = kd100.TrackStatus{
		IsSigned:   true,
		Status:     "signed",
		StatusDesc: "已签收",
	}

	stats, err := CheckLogisticsSignStatus(gdb, checker, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Checked)
	assert.Equal(t, 1, stats.Signed)
	assert.Equal(t, 1, checker.calls["SF0001"])

	// 同一单号只外呼一次，两个订单都被置为已签收
	var orders []models.Order
	require.NoError(t, gdb.Where("logistics_code = ?", "SF0001").Find(&orders).Error)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.True(t, o.IsSigned)
		require.NotNil(t, o.SignTime)
	}

	var logRow models.LogisticsQueryLog
	require.NoError(t, gdb.Where("tracking_code = ?", "SF0001").First(&logRow).Error)
	assert.True(t, logRow.IsSigned)
	assert.Equal(t, 1, logRow.QueryCount)
}

func TestCheckLogisticsRateLimit(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:       "RATE001",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "ZT0001",
		Company:       "中通快递",
	}).Error)

	// 刚刚查询过：间隔未到，直接跳过不外呼
	require.NoError(t, gdb.Create(&models.LogisticsQueryLog{
		TrackingCode: "ZT0001",
		Company:      "中通快递",
		LastQueryAt:  time.Now().Add(-5 * time.Minute),
		LastState:    "in_transit",
		QueryCount:   1,
	}).Error)

	checker := newStubChecker()
	stats, err := CheckLogisticsSignStatus(gdb, checker, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Checked)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, checker.calls["ZT0001"])

	// 间隔已到（默认35分钟）：重新外呼
	require.NoError(t, gdb.Model(&models.LogisticsQueryLog{}).
		Where("tracking_code = ?", "ZT0001").
		Update("last_query_at", time.Now().Add(-40*time.Minute)).Error)

	stats, err = CheckLogisticsSignStatus(gdb, checker, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Checked)
	assert.Equal(t, 1, checker.calls["ZT0001"])

	var logRow models.LogisticsQueryLog
	require.NoError(t, gdb.Where("tracking_code = ?", "ZT0001").First(&logRow).Error)
	assert.Equal(t, 2, logRow.QueryCount)
}

func TestCheckLogisticsFailureRecorded(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:       "FAIL001",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "YD0001",
		Company:       "韵达快递",
	}).Error)

	checker := newStubChecker()
	checker.results["YD0001"] = kd100.TrackStatus{Status: "error", StatusDesc: "查询失败"}

	stats, err := CheckLogisticsSignStatus(gdb, checker, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Checked)
	assert.Zero(t, stats.Signed)
	require.Len(t, stats.Failures, 1)
	assert.Contains(t, stats.Failures[0], "YD0001")

	// 失败也会刷新查询时间，避免高频重试异常单号
	var logRow models.LogisticsQueryLog
	require.NoError(t, gdb.Where("tracking_code = ?", "YD0001").First(&logRow).Error)
	assert.False(t, logRow.IsSigned)

	stats, err = CheckLogisticsSignStatus(gdb, checker, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Checked)
	assert.Equal(t, 1, stats.Skipped)
}

func TestCheckLogisticsLimit(t *testing.T) {
	gdb := newTestDB(t)

	for _, code := range []string{"LIM001", "LIM002", "LIM003"} {
		require.NoError(t, gdb.Create(&models.Order{
			OrderID:       "O-" + code,
			OrderStatus:   models.OrderStatusShipped,
			LogisticsCode: code,
			Company:       "圆通速递",
		}).Error)
	}

	checker := newStubChecker()
	stats, err := CheckLogisticsSignStatus(gdb, checker, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 1, stats.Skipped)
}

func TestCheckLogisticsRecheckAfterLock(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:       "RC001",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "RC123",
		Company:       "中通快递",
	}).Error)
	// 过期日志：快照判定为可查询
	require.NoError(t, gdb.Create(&models.LogisticsQueryLog{
		TrackingCode: "RC123",
		LastQueryAt:  time.Now().Add(-2 * time.Hour),
		QueryCount:   1,
	}).Error)

	// 进度回调里刷新日志时间，模拟快照加载后别的批次已外呼过
	checker := newStubChecker()
	progress := func(done, total int) {
		require.NoError(t, gdb.Model(&models.LogisticsQueryLog{}).
			Where("tracking_code = ?", "RC123").
			Update("last_query_at", time.Now()).Error)
	}

	stats, err := CheckLogisticsSignStatus(gdb, checker, 0, progress)
	require.NoError(t, err)
	assert.Zero(t, stats.Checked)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, checker.calls)
}

func TestPendingTrackingCount(t *testing.T) {
	gdb := newTestDB(t)

	count, err := PendingTrackingCount(gdb)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 两个订单共享一个单号，外加一个已签收订单，候选只算1个单号
	for _, orderID := range []string{"PC001", "PC002"} {
		require.NoError(t, gdb.Create(&models.Order{
			OrderID:       orderID,
			OrderStatus:   models.OrderStatusShipped,
			LogisticsCode: "PC-CODE",
			Company:       "韵达快递",
		}).Error)
	}
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:       "PC003",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "PC-DONE",
		IsSigned:      true,
	}).Error)

	count, err = PendingTrackingCount(gdb)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQueryTrackingUpdatesLog(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:       "SINGLE001",
		OrderStatus:   models.OrderStatusShipped,
		LogisticsCode: "JT0001",
		Company:       "极兔速递",
	}).Error)

	checker := newStubChecker()
	checker.results["JT0001"] = kd100.TrackStatus{
		IsSigned:   true,
		Status:     "signed",
		StatusDesc: "已签收",
	}

	// 未传公司名时从订单回查
	status, err := QueryTracking(gdb, checker, "JT0001", "")
	require.NoError(t, err)
	assert.True(t, status.IsSigned)

	var order models.Order
	require.NoError(t, gdb.Where("order_id = ?", "SINGLE001").First(&order).Error)
	assert.True(t, order.IsSigned)

	_, err = QueryTracking(gdb, checker, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}
