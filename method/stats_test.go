package method

import (
	"fmt"
	"testing"
	"time"

	"github.com/flowstart/douyin-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkuStatsReturnRateFloor(t *testing.T) {
	gdb := newTestDB(t)
	payTime := timePtr(time.Now().Add(-48 * time.Hour))

	addSigned := func(i int) string {
		orderID := fmt.Sprintf("SIGNED%03d", i)
		require.NoError(t, gdb.Create(&models.Order{
			OrderID:     orderID,
			OrderStatus: models.OrderStatusCompleted,
			IsSigned:    true,
			PayTime:     payTime,
		}).Error)
		require.NoError(t, gdb.Create(&models.OrderSku{
			OrderID: orderID, SkuCode: "SKU-A", SkuName: "商品A", Quantity: 1,
		}).Error)
		return orderID
	}

	// 9个签收样本：不足10，退货率取默认30%
	for i := 0; i < 9; i++ {
		addSigned(i)
	}
	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.Equal(t, 9, statsList[0].SignedCount)
	assert.InDelta(t, DefaultReturnRate, statsList[0].EstimatedReturnRate, 1e-9)

	// 补到10个样本并加2个退货：退货率=2/10=0.2
	addSigned(9)
	for i := 0; i < 2; i++ {
		require.NoError(t, gdb.Create(&models.AfterSale{
			AfterSaleID:     fmt.Sprintf("AS%03d", i),
			OrderID:         fmt.Sprintf("SIGNED%03d", i),
			SkuCode:         "SKU-A",
			AfterSaleType:   models.AfterSaleTypeReturnRefund,
			AfterSaleStatus: models.AfterSaleStatusCompleted,
		}).Error)
	}

	statsList, err = CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.Equal(t, 10, statsList[0].SignedCount)
	assert.Equal(t, 2, statsList[0].SignedReturnCount)
	assert.InDelta(t, 0.2, statsList[0].EstimatedReturnRate, 1e-9)
}

func TestSkuStatsStockGap(t *testing.T) {
	gdb := newTestDB(t)

	// 待发货100件
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "PENDING001",
		OrderStatus: models.OrderStatusPendingShip,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "PENDING001", SkuCode: "SKU-GAP", Quantity: 100,
	}).Error)

	// 在途34件，默认退货率30% -> 预估退货 int(34*0.3)=10
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "TRANSIT001",
		OrderStatus: models.OrderStatusShipped,
		IsSigned:    false,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "TRANSIT001", SkuCode: "SKU-GAP", Quantity: 34,
	}).Error)

	// 售后未完结10单
	for i := 0; i < 10; i++ {
		require.NoError(t, gdb.Create(&models.AfterSale{
			AfterSaleID:     fmt.Sprintf("GAP-AS%03d", i),
			OrderID:         "PENDING001",
			SkuCode:         "SKU-GAP",
			AfterSaleType:   models.AfterSaleTypeRefundOnly,
			AfterSaleStatus: models.AfterSaleStatusPendingReceive,
		}).Error)
	}

	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)

	s := statsList[0]
	assert.Equal(t, 100, s.PendingShipCount)
	assert.Equal(t, 10, s.AfterSalePendingCount)
	assert.Equal(t, 34, s.InTransitCount)
	assert.Equal(t, 10, s.InTransitReturnEstimate)
	// 缺口 = 100 - 10 - 10 = 80
	assert.Equal(t, 80, s.StockGap)
}

func TestQualityReturnRateIndependent(t *testing.T) {
	gdb := newTestDB(t)

	// 无签收样本的SKU：整体退货率用默认值，品质退货率保持0
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "NOQ001",
		OrderStatus: models.OrderStatusPendingShip,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "NOQ001", SkuCode: "SKU-NQ", Quantity: 1,
	}).Error)

	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.InDelta(t, DefaultReturnRate, statsList[0].EstimatedReturnRate, 1e-9)
	assert.Zero(t, statsList[0].QualityReturnRate)
	assert.Zero(t, statsList[0].QualityReturnCount)
}

func TestQualityReturnCountsAllAfterSaleTypes(t *testing.T) {
	gdb := newTestDB(t)
	payTime := timePtr(time.Now().Add(-24 * time.Hour))

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "Q001",
		OrderStatus: models.OrderStatusCompleted,
		IsSigned:    true,
		PayTime:     payTime,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "Q001", SkuCode: "SKU-Q", Quantity: 1,
	}).Error)

	// 品质原因的仅退款售后同样计入品质退货
	require.NoError(t, gdb.Create(&models.AfterSale{
		AfterSaleID:     "QAS001",
		OrderID:         "Q001",
		SkuCode:         "SKU-Q",
		AfterSaleType:   models.AfterSaleTypeRefundOnly,
		AfterSaleStatus: models.AfterSaleStatusCompleted,
		IsQualityIssue:  true,
	}).Error)

	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.Equal(t, 1, statsList[0].QualityReturnCount)
	assert.InDelta(t, 1.0, statsList[0].QualityReturnRate, 1e-9)
}

func TestQualityReturnDistinctByOrder(t *testing.T) {
	gdb := newTestDB(t)
	payTime := timePtr(time.Now().Add(-24 * time.Hour))

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "Q002",
		OrderStatus: models.OrderStatusCompleted,
		IsSigned:    true,
		PayTime:     payTime,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "Q002", SkuCode: "SKU-QD", Quantity: 2,
	}).Error)

	// 同一订单的多条品质售后只按订单计一次
	for i, asType := range []int{models.AfterSaleTypeReturnRefund, models.AfterSaleTypeExchange} {
		require.NoError(t, gdb.Create(&models.AfterSale{
			AfterSaleID:     fmt.Sprintf("QDAS%03d", i),
			OrderID:         "Q002",
			SkuCode:         "SKU-QD",
			AfterSaleType:   asType,
			AfterSaleStatus: models.AfterSaleStatusCompleted,
			IsQualityIssue:  true,
		}).Error)
	}

	// 支付时间在窗口外的品质退货不计入
	oldPay := timePtr(time.Now().AddDate(0, 0, -120))
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "Q003",
		OrderStatus: models.OrderStatusCompleted,
		IsSigned:    true,
		PayTime:     oldPay,
	}).Error)
	require.NoError(t, gdb.Create(&models.AfterSale{
		AfterSaleID:     "QDAS900",
		OrderID:         "Q003",
		SkuCode:         "SKU-QD",
		AfterSaleType:   models.AfterSaleTypeReturnRefund,
		AfterSaleStatus: models.AfterSaleStatusCompleted,
		IsQualityIssue:  true,
	}).Error)

	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.Equal(t, 1, statsList[0].QualityReturnCount)
}

func TestSignedWindowExcludesOldOrders(t *testing.T) {
	gdb := newTestDB(t)

	// 支付时间超出90天窗口的签收订单不进入样本
	oldPay := timePtr(time.Now().AddDate(0, 0, -120))
	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "OLD001",
		OrderStatus: models.OrderStatusCompleted,
		IsSigned:    true,
		PayTime:     oldPay,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "OLD001", SkuCode: "SKU-OLD", Quantity: 1,
	}).Error)

	statsList, err := CalculateSkuStats(gdb)
	require.NoError(t, err)
	require.Len(t, statsList, 1)
	assert.Zero(t, statsList[0].SignedCount)
}

func TestManualRateSurvivesRecompute(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID:     "MANUAL001",
		OrderStatus: models.OrderStatusShipped,
	}).Error)
	require.NoError(t, gdb.Create(&models.OrderSku{
		OrderID: "MANUAL001", SkuCode: "SKU-M", Quantity: 20,
	}).Error)

	_, err := RecalculateAllStats(gdb)
	require.NoError(t, err)

	// 手动设置退货率为0.5
	updated, err := UpdateReturnRate(gdb, "SKU-M", 0.5)
	require.NoError(t, err)
	assert.True(t, updated.IsRateManual)
	assert.InDelta(t, 0.5, updated.EstimatedReturnRate, 1e-9)
	assert.Equal(t, 10, updated.InTransitReturnEstimate)

	// 重算后手动值保留，派生指标按手动值计算
	_, err = RecalculateAllStats(gdb)
	require.NoError(t, err)

	var stats models.SkuStats
	require.NoError(t, gdb.Where("sku_code = ?", "SKU-M").First(&stats).Error)
	assert.True(t, stats.IsRateManual)
	assert.InDelta(t, 0.5, stats.EstimatedReturnRate, 1e-9)
	assert.Equal(t, 10, stats.InTransitReturnEstimate)

	// 取消手动后恢复自动口径（样本不足 -> 默认30%）
	reset, err := ResetReturnRate(gdb, "SKU-M")
	require.NoError(t, err)
	assert.False(t, reset.IsRateManual)
	assert.InDelta(t, DefaultReturnRate, reset.EstimatedReturnRate, 1e-9)
}

func TestUpdateReturnRateValidation(t *testing.T) {
	gdb := newTestDB(t)

	_, err := UpdateReturnRate(gdb, "SKU-X", 1.5)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = UpdateReturnRate(gdb, "SKU-X", 0.5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProvinceStatsSimpleRatio(t *testing.T) {
	gdb := newTestDB(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, gdb.Create(&models.Order{
			OrderID:      fmt.Sprintf("ZJ%03d", i),
			OrderStatus:  models.OrderStatusCompleted,
			ProvinceName: "浙江省",
		}).Error)
		require.NoError(t, gdb.Create(&models.OrderSku{
			OrderID: fmt.Sprintf("ZJ%03d", i), SkuCode: "SKU-P", Quantity: 1,
		}).Error)
	}
	require.NoError(t, gdb.Create(&models.AfterSale{
		AfterSaleID:   "ZJAS001",
		OrderID:       "ZJ000",
		SkuCode:       "SKU-P",
		AfterSaleType: models.AfterSaleTypeReturnRefund,
		ProvinceName:  "浙江省",
	}).Error)

	provinceStats, provinceSkuStats, err := CalculateProvinceStats(gdb)
	require.NoError(t, err)
	require.Len(t, provinceStats, 1)
	assert.Equal(t, "浙江省", provinceStats[0].ProvinceName)
	assert.Equal(t, 4, provinceStats[0].OrderCount)
	assert.Equal(t, 1, provinceStats[0].ReturnCount)
	// 省份维度无样本量下限，直接是简单比值
	assert.InDelta(t, 0.25, provinceStats[0].ReturnRate, 1e-9)

	require.Len(t, provinceSkuStats, 1)
	assert.Equal(t, "SKU-P", provinceSkuStats[0].SkuCode)
	assert.InDelta(t, 0.25, provinceSkuStats[0].ReturnRate, 1e-9)
}

func TestGetSkuStatsSearchAndTopN(t *testing.T) {
	gdb := newTestDB(t)

	for i, code := range []string{"AAA-1", "AAA-2", "BBB-1"} {
		require.NoError(t, gdb.Create(&models.SkuStats{
			SkuCode:  code,
			SkuName:  "商品" + code,
			StockGap: (i + 1) * 10,
		}).Error)
	}

	// 搜索过滤
	list, total, err := GetSkuStats(gdb, SkuStatsQuery{Search: "AAA", SortBy: "stock_gap", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "AAA-2", list[0].SkuCode)

	// TopN按排序截取
	list, total, err = GetSkuStats(gdb, SkuStatsQuery{SortBy: "stock_gap", Order: "desc", TopN: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "BBB-1", list[0].SkuCode)
}

func TestGetSummary(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, gdb.Create(&models.Order{
		OrderID: "S001", OrderStatus: models.OrderStatusPendingShip,
	}).Error)
	require.NoError(t, gdb.Create(&models.Order{
		OrderID: "S002", OrderStatus: models.OrderStatusShipped,
	}).Error)
	require.NoError(t, gdb.Create(&models.SkuStats{SkuCode: "SKU-S", StockGap: -5}).Error)

	summary, err := GetSummary(gdb)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.Equal(t, int64(1), summary.PendingShipOrders)
	assert.Equal(t, int64(1), summary.InTransitOrders)
	assert.Equal(t, int64(-5), summary.TotalStockGap)
}
