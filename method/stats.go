package method

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flowstart/douyin-web/models"

	"gorm.io/gorm"
)

const (
	// DefaultReturnRate 签收样本不足时的默认退货率
	DefaultReturnRate = 0.3
	// minSignedSample 使用真实退货率所需的最小签收样本量
	minSignedSample = 10
	// statsWindowDays 退货率统计的支付时间窗口（天）
	statsWindowDays = 90
)

// orderLite 统计用的订单精简投影
type orderLite struct {
	OrderID      string
	OrderStatus  int
	IsSigned     bool
	PayTime      *time.Time
	ProvinceName string
}

// skuLite 统计用的SKU明细精简投影
type skuLite struct {
	OrderID  string
	SkuCode  string
	SkuName  string
	Quantity int
}

// afterSaleLite 统计用的售后精简投影
// 表列名带 aftersale_ 前缀，与gorm默认的 after_sale_ 推导不一致，需显式指定
type afterSaleLite struct {
	AfterSaleID     string `gorm:"column:aftersale_id"`
	OrderID         string
	SkuCode         string
	AfterSaleType   int `gorm:"column:aftersale_type"`
	AfterSaleStatus int `gorm:"column:aftersale_status"`
	IsQualityIssue  bool
	ProvinceName    string
}

// loadStatsSource 一次性加载统计所需的三类精简数据
func loadStatsSource(gdb *gorm.DB) ([]orderLite, []skuLite, []afterSaleLite, error) {
	var orders []orderLite
	if err := gdb.Model(&models.Order{}).
		Select("order_id", "order_status", "is_signed", "pay_time", "province_name").
		Find(&orders).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("%w: 加载订单失败: %v", ErrStore, err)
	}

	var skus []skuLite
	if err := gdb.Model(&models.OrderSku{}).
		Select("order_id", "sku_code", "sku_name", "quantity").
		Where("sku_code <> ''").
		Find(&skus).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("%w: 加载SKU明细失败: %v", ErrStore, err)
	}

	var afterSales []afterSaleLite
	if err := gdb.Model(&models.AfterSale{}).
		Select("aftersale_id", "order_id", "sku_code", "aftersale_type", "aftersale_status", "is_quality_issue", "province_name").
		Find(&afterSales).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("%w: 加载售后单失败: %v", ErrStore, err)
	}

	return orders, skus, afterSales, nil
}

// inPendingStatus 售后是否处于未完结状态
func inPendingStatus(status int) bool {
	for _, s := range models.AfterSalePendingStatus {
		if status == s {
			return true
		}
	}
	return false
}

// CalculateSkuStats 基于当前记录计算各SKU统计指标（不落库）
//
// 指标口径：
//   - 待发货量/在途量按商品件数累计
//   - 签收样本 = 近90天内支付且已签收的订单，样本<10时退货率取默认30%
//   - 品质退货按订单去重，只受支付时间窗口约束，不限售后类型与签收状态；
//     品质退货率独立计算，无签收样本时为0，不使用默认值兜底
//   - 商品缺口 = 待发货 - 售后未完结 - 在途预估退货，品质退货不参与扣减
func CalculateSkuStats(gdb *gorm.DB) ([]models.SkuStats, error) {
	orders, skus, afterSales, err := loadStatsSource(gdb)
	if err != nil {
		return nil, err
	}

	orderMap := make(map[string]orderLite, len(orders))
	for _, o := range orders {
		orderMap[o.OrderID] = o
	}

	windowStart := time.Now().AddDate(0, 0, -statsWindowDays)
	// 近90天内支付的订单
	inPayWindow := func(o orderLite) bool {
		return o.PayTime != nil && o.PayTime.After(windowStart)
	}
	// 签收样本：近90天内支付且已签收的订单
	inSignedWindow := func(o orderLite) bool {
		return o.IsSigned && inPayWindow(o)
	}

	type skuAgg struct {
		skuName          string
		pendingShip      int
		inTransit        int
		signedOrders     map[string]bool
		returnOrders     map[string]bool
		qualityOrders    map[string]bool
		afterSalePending int
	}
	aggMap := make(map[string]*skuAgg)
	getAgg := func(code string) *skuAgg {
		agg, ok := aggMap[code]
		if !ok {
			agg = &skuAgg{
				signedOrders:  make(map[string]bool),
				returnOrders:  make(map[string]bool),
				qualityOrders: make(map[string]bool),
			}
			aggMap[code] = agg
		}
		return agg
	}

	// 1. 遍历SKU明细：件数口径的待发货/在途，订单口径的签收样本
	for _, sku := range skus {
		order, ok := orderMap[sku.OrderID]
		if !ok {
			continue
		}
		agg := getAgg(sku.SkuCode)
		if sku.SkuName != "" {
			agg.skuName = sku.SkuName
		}

		switch order.OrderStatus {
		case models.OrderStatusPendingShip:
			agg.pendingShip += sku.Quantity
		case models.OrderStatusShipped:
			if !order.IsSigned {
				agg.inTransit += sku.Quantity
			}
		}

		if inSignedWindow(order) {
			agg.signedOrders[sku.OrderID] = true
		}
	}

	// 2. 遍历售后单：未完结数、品质退货订单数、签收样本中的退货数
	for _, as := range afterSales {
		if as.SkuCode == "" {
			continue
		}
		agg := getAgg(as.SkuCode)

		if inPendingStatus(as.AfterSaleStatus) {
			agg.afterSalePending++
		}

		order, hasOrder := orderMap[as.OrderID]

		// 品质退货按订单去重，仅退款/换货的品质问题同样计入
		if as.IsQualityIssue && hasOrder && inPayWindow(order) {
			agg.qualityOrders[as.OrderID] = true
		}

		if as.AfterSaleType != models.AfterSaleTypeReturnRefund {
			continue
		}
		if !hasOrder || !inSignedWindow(order) {
			continue
		}
		// 退货退款的订单必然已签收，计入签收样本
		agg.signedOrders[as.OrderID] = true
		agg.returnOrders[as.OrderID] = true
	}

	// 3. 汇总成统计行
	result := make([]models.SkuStats, 0, len(aggMap))
	for code, agg := range aggMap {
		signedCount := len(agg.signedOrders)
		returnCount := len(agg.returnOrders)
		qualityCount := len(agg.qualityOrders)

		rate := DefaultReturnRate
		if signedCount >= minSignedSample {
			rate = float64(returnCount) / float64(signedCount)
		}

		qualityRate := 0.0
		if signedCount > 0 {
			qualityRate = float64(qualityCount) / float64(signedCount)
		}

		inTransitEstimate := int(float64(agg.inTransit) * rate)

		result = append(result, models.SkuStats{
			SkuCode:                 code,
			SkuName:                 agg.skuName,
			Product:                 agg.skuName,
			PendingShipCount:        agg.pendingShip,
			AfterSalePendingCount:   agg.afterSalePending,
			SignedCount:             signedCount,
			SignedReturnCount:       returnCount,
			EstimatedReturnRate:     rate,
			InTransitCount:          agg.inTransit,
			InTransitReturnEstimate: inTransitEstimate,
			StockGap:                agg.pendingShip - agg.afterSalePending - inTransitEstimate,
			QualityReturnCount:      qualityCount,
			QualityReturnRate:       qualityRate,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SkuCode < result[j].SkuCode
	})
	return result, nil
}

// SaveSkuStats 将统计结果写入缓存表
// 手动修改过退货率的SKU保留手动值，派生指标按手动值重算；图片URL不被覆盖
func SaveSkuStats(gdb *gorm.DB, statsList []models.SkuStats) error {
	now := time.Now()

	return gdb.Transaction(func(tx *gorm.DB) error {
		for i := range statsList {
			s := &statsList[i]

			var existing models.SkuStats
			err := tx.Where("sku_code = ?", s.SkuCode).First(&existing).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: 查询SKU统计失败: %v", ErrStore, err)
				}
				s.LastCalculatedAt = &now
				if err := tx.Create(s).Error; err != nil {
					return fmt.Errorf("%w: 写入SKU统计失败: %v", ErrStore, err)
				}
				continue
			}

			rate := s.EstimatedReturnRate
			isManual := existing.IsRateManual
			if isManual {
				// 手动设置的退货率优先，重算只刷新计数类指标
				rate = existing.EstimatedReturnRate
			}
			inTransitEstimate := int(float64(s.InTransitCount) * rate)

			updates := map[string]interface{}{
				"sku_name":                   s.SkuName,
				"product_name":               s.Product,
				"pending_ship_count":         s.PendingShipCount,
				"aftersale_pending_count":    s.AfterSalePendingCount,
				"signed_count":               s.SignedCount,
				"signed_return_count":        s.SignedReturnCount,
				"estimated_return_rate":      rate,
				"is_rate_manual":             isManual,
				"in_transit_count":           s.InTransitCount,
				"in_transit_return_estimate": inTransitEstimate,
				"stock_gap":                  s.PendingShipCount - s.AfterSalePendingCount - inTransitEstimate,
				"quality_return_count":       s.QualityReturnCount,
				"quality_return_rate":        s.QualityReturnRate,
				"last_calculated_at":         now,
			}
			if err := tx.Model(&models.SkuStats{}).Where("sku_code = ?", s.SkuCode).Updates(updates).Error; err != nil {
				return fmt.Errorf("%w: 更新SKU统计失败: %v", ErrStore, err)
			}
		}
		return nil
	})
}

// RecalculateAllStats 重算并持久化全部统计（SKU + 省份 + 省份×SKU）
// 返回SKU统计行数
func RecalculateAllStats(gdb *gorm.DB) (int, error) {
	skuStats, err := CalculateSkuStats(gdb)
	if err != nil {
		return 0, err
	}
	if err := SaveSkuStats(gdb, skuStats); err != nil {
		return 0, err
	}

	provinceStats, provinceSkuStats, err := CalculateProvinceStats(gdb)
	if err != nil {
		return 0, err
	}
	if err := SaveProvinceStats(gdb, provinceStats, provinceSkuStats); err != nil {
		return 0, err
	}

	return len(skuStats), nil
}

// SkuStatsQuery SKU统计列表查询参数
type SkuStatsQuery struct {
	Search   string // 按SKU编码/名称模糊搜索
	SortBy   string // 排序字段
	Order    string // asc/desc
	TopN     int    // 只取前N条（按排序字段），0表示不限制
	Page     int
	PageSize int
	Realtime bool // true时实时计算，false读缓存表
}

// 允许排序的字段白名单，防止排序参数注入
var skuStatsSortFields = map[string]bool{
	"sku_code":                   true,
	"pending_ship_count":         true,
	"aftersale_pending_count":    true,
	"signed_count":               true,
	"estimated_return_rate":      true,
	"in_transit_count":           true,
	"in_transit_return_estimate": true,
	"stock_gap":                  true,
	"quality_return_rate":        true,
}

// GetSkuStats 查询SKU统计列表，支持搜索/排序/TopN/分页
// Realtime=true 时绕过缓存实时计算（数据量大时较慢）
func GetSkuStats(gdb *gorm.DB, query SkuStatsQuery) ([]models.SkuStats, int64, error) {
	if query.Realtime {
		return getRealtimeSkuStats(gdb, query)
	}

	db := gdb.Model(&models.SkuStats{})
	if query.Search != "" {
		like := "%" + query.Search + "%"
		db = db.Where("sku_code LIKE ? OR sku_name LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: 统计行数查询失败: %v", ErrStore, err)
	}

	sortBy := query.SortBy
	if !skuStatsSortFields[sortBy] {
		sortBy = "stock_gap"
	}
	direction := "DESC"
	if strings.EqualFold(query.Order, "asc") {
		direction = "ASC"
	}
	db = db.Order(sortBy + " " + direction)

	if query.TopN > 0 {
		db = db.Limit(query.TopN)
		if total > int64(query.TopN) {
			total = int64(query.TopN)
		}
	} else if query.Page > 0 && query.PageSize > 0 {
		db = db.Offset((query.Page - 1) * query.PageSize).Limit(query.PageSize)
	}

	var list []models.SkuStats
	if err := db.Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: 统计列表查询失败: %v", ErrStore, err)
	}
	return list, total, nil
}

// getRealtimeSkuStats 实时计算后在内存中完成搜索/排序/截取
func getRealtimeSkuStats(gdb *gorm.DB, query SkuStatsQuery) ([]models.SkuStats, int64, error) {
	all, err := CalculateSkuStats(gdb)
	if err != nil {
		return nil, 0, err
	}

	if query.Search != "" {
		filtered := all[:0]
		for _, s := range all {
			if strings.Contains(s.SkuCode, query.Search) || strings.Contains(s.SkuName, query.Search) {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	sortBy := query.SortBy
	if !skuStatsSortFields[sortBy] {
		sortBy = "stock_gap"
	}
	asc := strings.EqualFold(query.Order, "asc")
	sort.SliceStable(all, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "sku_code":
			less = all[i].SkuCode < all[j].SkuCode
		case "pending_ship_count":
			less = all[i].PendingShipCount < all[j].PendingShipCount
		case "aftersale_pending_count":
			less = all[i].AfterSalePendingCount < all[j].AfterSalePendingCount
		case "signed_count":
			less = all[i].SignedCount < all[j].SignedCount
		case "estimated_return_rate":
			less = all[i].EstimatedReturnRate < all[j].EstimatedReturnRate
		case "in_transit_count":
			less = all[i].InTransitCount < all[j].InTransitCount
		case "in_transit_return_estimate":
			less = all[i].InTransitReturnEstimate < all[j].InTransitReturnEstimate
		case "quality_return_rate":
			less = all[i].QualityReturnRate < all[j].QualityReturnRate
		default:
			less = all[i].StockGap < all[j].StockGap
		}
		if asc {
			return less
		}
		return !less
	})

	total := int64(len(all))
	if query.TopN > 0 && len(all) > query.TopN {
		all = all[:query.TopN]
		total = int64(query.TopN)
	} else if query.Page > 0 && query.PageSize > 0 {
		start := (query.Page - 1) * query.PageSize
		if start >= len(all) {
			return []models.SkuStats{}, total, nil
		}
		end := start + query.PageSize
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}

	return all, total, nil
}

// UpdateReturnRate 手动设置某SKU的预估退货率并重算派生指标
// 手动值在后续重算中保持不变，直到调用 ResetReturnRate
func UpdateReturnRate(gdb *gorm.DB, skuCode string, rate float64) (*models.SkuStats, error) {
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w: 退货率必须在0到1之间", ErrValidation)
	}

	var stats models.SkuStats
	if err := gdb.Where("sku_code = ?", skuCode).First(&stats).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: SKU %s 无统计记录", ErrNotFound, skuCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	inTransitEstimate := int(float64(stats.InTransitCount) * rate)
	updates := map[string]interface{}{
		"estimated_return_rate":      rate,
		"is_rate_manual":             true,
		"in_transit_return_estimate": inTransitEstimate,
		"stock_gap":                  stats.PendingShipCount - stats.AfterSalePendingCount - inTransitEstimate,
	}
	if err := gdb.Model(&models.SkuStats{}).Where("sku_code = ?", skuCode).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("%w: 更新退货率失败: %v", ErrStore, err)
	}

	if err := gdb.Where("sku_code = ?", skuCode).First(&stats).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &stats, nil
}

// ResetReturnRate 取消手动退货率，恢复自动计算口径
func ResetReturnRate(gdb *gorm.DB, skuCode string) (*models.SkuStats, error) {
	var stats models.SkuStats
	if err := gdb.Where("sku_code = ?", skuCode).First(&stats).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: SKU %s 无统计记录", ErrNotFound, skuCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	rate := DefaultReturnRate
	if stats.SignedCount >= minSignedSample {
		rate = float64(stats.SignedReturnCount) / float64(stats.SignedCount)
	}
	inTransitEstimate := int(float64(stats.InTransitCount) * rate)
	updates := map[string]interface{}{
		"estimated_return_rate":      rate,
		"is_rate_manual":             false,
		"in_transit_return_estimate": inTransitEstimate,
		"stock_gap":                  stats.PendingShipCount - stats.AfterSalePendingCount - inTransitEstimate,
	}
	if err := gdb.Model(&models.SkuStats{}).Where("sku_code = ?", skuCode).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("%w: 重置退货率失败: %v", ErrStore, err)
	}

	if err := gdb.Where("sku_code = ?", skuCode).First(&stats).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &stats, nil
}

// UpdateSkuImage 更新SKU统计行的商品图片URL
func UpdateSkuImage(gdb *gorm.DB, skuCode, imageURL string) error {
	result := gdb.Model(&models.SkuStats{}).Where("sku_code = ?", skuCode).Update("image_url", imageURL)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: SKU %s 无统计记录", ErrNotFound, skuCode)
	}
	return nil
}

// CalculateProvinceStats 计算省份维度与省份×SKU维度的退货率
// 口径为简单比值（退货退款数/订单数），无样本量下限
func CalculateProvinceStats(gdb *gorm.DB) ([]models.ProvinceStats, []models.ProvinceSkuStats, error) {
	orders, skus, afterSales, err := loadStatsSource(gdb)
	if err != nil {
		return nil, nil, err
	}

	orderMap := make(map[string]orderLite, len(orders))
	provinceOrders := make(map[string]int)
	provinceReturns := make(map[string]int)
	for _, o := range orders {
		orderMap[o.OrderID] = o
		if o.ProvinceName != "" {
			provinceOrders[o.ProvinceName]++
		}
	}

	type psKey struct{ province, sku string }
	psOrders := make(map[psKey]int)
	psReturns := make(map[psKey]int)
	for _, sku := range skus {
		order, ok := orderMap[sku.OrderID]
		if !ok || order.ProvinceName == "" {
			continue
		}
		psOrders[psKey{order.ProvinceName, sku.SkuCode}]++
	}

	for _, as := range afterSales {
		if as.AfterSaleType != models.AfterSaleTypeReturnRefund {
			continue
		}
		province := as.ProvinceName
		if province == "" {
			if order, ok := orderMap[as.OrderID]; ok {
				province = order.ProvinceName
			}
		}
		if province == "" {
			continue
		}
		provinceReturns[province]++
		if as.SkuCode != "" {
			psReturns[psKey{province, as.SkuCode}]++
		}
	}

	provinceStats := make([]models.ProvinceStats, 0, len(provinceOrders))
	for province, count := range provinceOrders {
		returns := provinceReturns[province]
		rate := 0.0
		if count > 0 {
			rate = float64(returns) / float64(count)
		}
		provinceStats = append(provinceStats, models.ProvinceStats{
			ProvinceName: province,
			OrderCount:   count,
			ReturnCount:  returns,
			ReturnRate:   rate,
		})
	}
	sort.Slice(provinceStats, func(i, j int) bool {
		return provinceStats[i].ReturnRate > provinceStats[j].ReturnRate
	})

	provinceSkuStats := make([]models.ProvinceSkuStats, 0, len(psOrders))
	for key, count := range psOrders {
		returns := psReturns[key]
		rate := 0.0
		if count > 0 {
			rate = float64(returns) / float64(count)
		}
		provinceSkuStats = append(provinceSkuStats, models.ProvinceSkuStats{
			ProvinceName: key.province,
			SkuCode:      key.sku,
			OrderCount:   count,
			ReturnCount:  returns,
			ReturnRate:   rate,
		})
	}
	sort.Slice(provinceSkuStats, func(i, j int) bool {
		if provinceSkuStats[i].ProvinceName != provinceSkuStats[j].ProvinceName {
			return provinceSkuStats[i].ProvinceName < provinceSkuStats[j].ProvinceName
		}
		return provinceSkuStats[i].SkuCode < provinceSkuStats[j].SkuCode
	})

	return provinceStats, provinceSkuStats, nil
}

// SaveProvinceStats 整表覆盖写入省份统计缓存
func SaveProvinceStats(gdb *gorm.DB, provinceStats []models.ProvinceStats, provinceSkuStats []models.ProvinceSkuStats) error {
	now := time.Now()
	for i := range provinceStats {
		provinceStats[i].LastCalculatedAt = &now
	}
	for i := range provinceSkuStats {
		provinceSkuStats[i].LastCalculatedAt = &now
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ProvinceStats{}).Error; err != nil {
			return fmt.Errorf("%w: 清空省份统计失败: %v", ErrStore, err)
		}
		if len(provinceStats) > 0 {
			if err := tx.CreateInBatches(&provinceStats, 100).Error; err != nil {
				return fmt.Errorf("%w: 写入省份统计失败: %v", ErrStore, err)
			}
		}

		if err := tx.Where("1 = 1").Delete(&models.ProvinceSkuStats{}).Error; err != nil {
			return fmt.Errorf("%w: 清空省份SKU统计失败: %v", ErrStore, err)
		}
		if len(provinceSkuStats) > 0 {
			if err := tx.CreateInBatches(&provinceSkuStats, 100).Error; err != nil {
				return fmt.Errorf("%w: 写入省份SKU统计失败: %v", ErrStore, err)
			}
		}
		return nil
	})
}

// GetProvinceStats 查询省份统计，provinceName非空时附带该省份的SKU明细
func GetProvinceStats(gdb *gorm.DB, provinceName string) ([]models.ProvinceStats, []models.ProvinceSkuStats, error) {
	var provinceStats []models.ProvinceStats
	db := gdb.Model(&models.ProvinceStats{}).Order("return_rate DESC")
	if provinceName != "" {
		db = db.Where("province_name = ?", provinceName)
	}
	if err := db.Find(&provinceStats).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var skuDetails []models.ProvinceSkuStats
	if provinceName != "" {
		if err := gdb.Where("province_name = ?", provinceName).
			Order("return_rate DESC").
			Find(&skuDetails).Error; err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	return provinceStats, skuDetails, nil
}

// SummaryStats 看板汇总指标
type SummaryStats struct {
	TotalOrders       int64      `json:"total_orders"`
	PendingShipOrders int64      `json:"pending_ship_orders"`
	InTransitOrders   int64      `json:"in_transit_orders"`
	SignedOrders      int64      `json:"signed_orders"`
	TotalAfterSales   int64      `json:"total_aftersales"`
	PendingAfterSales int64      `json:"pending_aftersales"`
	SkuCount          int64      `json:"sku_count"`
	TotalStockGap     int64      `json:"total_stock_gap"`
	LastCalculatedAt  *time.Time `json:"last_calculated_at"`
}

// GetSummary 查询看板汇总指标
func GetSummary(gdb *gorm.DB) (*SummaryStats, error) {
	summary := &SummaryStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&summary.TotalOrders, gdb.Model(&models.Order{})},
		{&summary.PendingShipOrders, gdb.Model(&models.Order{}).Where("order_status = ?", models.OrderStatusPendingShip)},
		{&summary.InTransitOrders, gdb.Model(&models.Order{}).Where("order_status = ? AND is_signed = ?", models.OrderStatusShipped, false)},
		{&summary.SignedOrders, gdb.Model(&models.Order{}).Where("is_signed = ?", true)},
		{&summary.TotalAfterSales, gdb.Model(&models.AfterSale{})},
		{&summary.PendingAfterSales, gdb.Model(&models.AfterSale{}).Where("aftersale_status IN ?", models.AfterSalePendingStatus)},
		{&summary.SkuCount, gdb.Model(&models.SkuStats{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("%w: 汇总统计查询失败: %v", ErrStore, err)
		}
	}

	var gapSum struct{ Total int64 }
	if err := gdb.Model(&models.SkuStats{}).
		Select("COALESCE(SUM(stock_gap), 0) AS total").
		Scan(&gapSum).Error; err != nil {
		return nil, fmt.Errorf("%w: 缺口汇总查询失败: %v", ErrStore, err)
	}
	summary.TotalStockGap = gapSum.Total

	var latest models.SkuStats
	if err := gdb.Where("last_calculated_at IS NOT NULL").
		Order("last_calculated_at DESC").
		First(&latest).Error; err == nil {
		summary.LastCalculatedAt = latest.LastCalculatedAt
	}

	return summary, nil
}

// TrendPoint 每日趋势点
type TrendPoint struct {
	Date           string `json:"date"`
	OrderCount     int    `json:"order_count"`
	AfterSaleCount int    `json:"aftersale_count"`
}

// GetTrend 查询近N天订单量与售后量趋势
// 订单按提交时间计入，售后按申请时间计入；无数据的日期补0
func GetTrend(gdb *gorm.DB, days int) ([]TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	startDate := time.Now().AddDate(0, 0, -(days - 1))
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())

	type trendOrder struct{ CreateTime *time.Time }
	var orderTimes []trendOrder
	if err := gdb.Model(&models.Order{}).
		Select("create_time").
		Where("create_time >= ?", start).
		Find(&orderTimes).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	type trendAfterSale struct{ ApplyTime *time.Time }
	var afterSaleTimes []trendAfterSale
	if err := gdb.Model(&models.AfterSale{}).
		Select("apply_time").
		Where("apply_time >= ?", start).
		Find(&afterSaleTimes).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	orderByDate := make(map[string]int)
	for _, o := range orderTimes {
		if o.CreateTime != nil {
			orderByDate[o.CreateTime.Format("2006-01-02")]++
		}
	}
	afterSaleByDate := make(map[string]int)
	for _, a := range afterSaleTimes {
		if a.ApplyTime != nil {
			afterSaleByDate[a.ApplyTime.Format("2006-01-02")]++
		}
	}

	points := make([]TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		points = append(points, TrendPoint{
			Date:           date,
			OrderCount:     orderByDate[date],
			AfterSaleCount: afterSaleByDate[date],
		})
	}
	return points, nil
}
