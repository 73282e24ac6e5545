package method

import (
	"fmt"
	"time"

	"github.com/flowstart/douyin-web/models"

	"gorm.io/gorm"
)

// 分批入库大小，避免单条SQL占位符超限、缩短事务持锁时间
const importBatchSize = 500

// OrderRow 归一化后的订单行记录
// Excel解析层负责把导出文件映射成该结构，导入引擎只关心字段语义
type OrderRow struct {
	OrderID       string
	OrderStatus   int
	StatusDesc    string
	CreateTime    *time.Time
	PayTime       *time.Time
	UpdateTime    *time.Time
	ReceiverName  string
	ProvinceName  string
	CityName      string
	LogisticsCode string
	Company       string
	TotalAmount   float64
	PayAmount     float64
	SkuCode       string
	SkuCodeRaw    string
	SkuName       string
	Quantity      int
	Price         float64
}

// AfterSaleRow 归一化后的售后行记录
type AfterSaleRow struct {
	AfterSaleID     string
	OrderID         string
	SkuCode         string
	SkuCodeRaw      string
	AfterSaleType   int
	AfterSaleStatus int
	StatusDesc      string
	ReasonCode      string
	ReasonText      string
	IsQualityIssue  bool
	RefundAmount    float64
	ApplyTime       *time.Time
	FinishTime      *time.Time
}

// ImportOrders 幂等导入订单行
// 同一订单号重复导入时原地更新；内容完全一致时跳过不落盘
// 事务按批次提交：某一批失败不回滚之前已提交的批次
func ImportOrders(gdb *gorm.DB, rows []OrderRow) (models.ImportStats, error) {
	stats := models.ImportStats{}

	for start := 0; start < len(rows); start += importBatchSize {
		end := start + importBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batchStats, err := importOrderBatch(gdb, rows[start:end])
		stats.Total += batchStats.Total
		stats.Created += batchStats.Created
		stats.Updated += batchStats.Updated
		stats.Skipped += batchStats.Skipped
		if err != nil {
			return stats, fmt.Errorf("%w: 订单批次[%d:%d]导入失败: %v", ErrStore, start, end, err)
		}
	}

	return stats, nil
}

// importOrderBatch 处理一批订单行，单批一个事务
func importOrderBatch(gdb *gorm.DB, rows []OrderRow) (models.ImportStats, error) {
	stats := models.ImportStats{Total: len(rows)}

	// 1. 过滤缺少订单号的行（校验失败按跳过计数，不中断批次）
	valid := make([]OrderRow, 0, len(rows))
	orderIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.OrderID == "" {
			stats.Skipped++
			continue
		}
		valid = append(valid, row)
		orderIDs = append(orderIDs, row.OrderID)
	}
	if len(valid) == 0 {
		return stats, nil
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		// 2. 批量查询已存在订单，用于区分 created/updated/skipped
		var existingOrders []models.Order
		if err := tx.Where("order_id IN ?", orderIDs).Find(&existingOrders).Error; err != nil {
			return err
		}
		existingMap := make(map[string]models.Order, len(existingOrders))
		for _, o := range existingOrders {
			existingMap[o.OrderID] = o
		}

		var toCreate []models.Order
		for _, row := range valid {
			if existing, ok := existingMap[row.OrderID]; ok {
				if orderRowEqual(existing, row) {
					stats.Skipped++
					continue
				}
				// 只覆盖导入来源字段，签收状态由物流轮询维护，不在此回退
				updates := map[string]interface{}{
					"order_status":      row.OrderStatus,
					"order_status_desc": row.StatusDesc,
					"create_time":       row.CreateTime,
					"pay_time":          row.PayTime,
					"update_time":       row.UpdateTime,
					"receiver_name":     row.ReceiverName,
					"province_name":     row.ProvinceName,
					"city_name":         row.CityName,
					"logistics_code":    row.LogisticsCode,
					"logistics_company": row.Company,
					"total_amount":      row.TotalAmount,
					"pay_amount":        row.PayAmount,
				}
				if err := tx.Model(&models.Order{}).Where("order_id = ?", row.OrderID).Updates(updates).Error; err != nil {
					return err
				}
				stats.Updated++
				continue
			}

			toCreate = append(toCreate, models.Order{
				OrderID:         row.OrderID,
				OrderStatus:     row.OrderStatus,
				OrderStatusDesc: row.StatusDesc,
				CreateTime:      row.CreateTime,
				PayTime:         row.PayTime,
				UpdateTime:      row.UpdateTime,
				ReceiverName:    row.ReceiverName,
				ProvinceName:    row.ProvinceName,
				CityName:        row.CityName,
				LogisticsCode:   row.LogisticsCode,
				Company:         row.Company,
				TotalAmount:     row.TotalAmount,
				PayAmount:       row.PayAmount,
			})
		}

		if len(toCreate) > 0 {
			if err := tx.CreateInBatches(&toCreate, 100).Error; err != nil {
				return err
			}
			stats.Created += len(toCreate)
		}

		// 3. 替换式重写本批订单的SKU明细，避免重复行和逐条查重
		return replaceOrderSkus(tx, valid)
	})
	if err != nil {
		// 事务回滚后本批计数不再可信，归零避免误报
		return models.ImportStats{Total: len(rows)}, err
	}

	return stats, nil
}

// replaceOrderSkus 先删后插重写订单SKU明细
func replaceOrderSkus(tx *gorm.DB, rows []OrderRow) error {
	orderIDSet := make(map[string]bool)
	var skus []models.OrderSku
	for _, row := range rows {
		if row.SkuCode == "" {
			continue
		}
		orderIDSet[row.OrderID] = true
		skus = append(skus, models.OrderSku{
			OrderID:     row.OrderID,
			SkuCode:     row.SkuCode,
			SkuCodeRaw:  row.SkuCodeRaw,
			SkuName:     row.SkuName,
			ProductName: row.SkuName,
			Quantity:    row.Quantity,
			Price:       row.Price,
		})
	}
	if len(skus) == 0 {
		return nil
	}

	orderIDs := make([]string, 0, len(orderIDSet))
	for id := range orderIDSet {
		orderIDs = append(orderIDs, id)
	}

	if err := tx.Where("order_id IN ?", orderIDs).Delete(&models.OrderSku{}).Error; err != nil {
		return err
	}
	return tx.CreateInBatches(&skus, 100).Error
}

// orderRowEqual 判断已存在订单与导入行的受控字段是否完全一致
func orderRowEqual(o models.Order, row OrderRow) bool {
	return o.OrderStatus == row.OrderStatus &&
		o.OrderStatusDesc == row.StatusDesc &&
		timePtrEqual(o.CreateTime, row.CreateTime) &&
		timePtrEqual(o.PayTime, row.PayTime) &&
		timePtrEqual(o.UpdateTime, row.UpdateTime) &&
		o.ReceiverName == row.ReceiverName &&
		o.ProvinceName == row.ProvinceName &&
		o.CityName == row.CityName &&
		o.LogisticsCode == row.LogisticsCode &&
		o.Company == row.Company &&
		o.TotalAmount == row.TotalAmount &&
		o.PayAmount == row.PayAmount
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ImportAfterSales 幂等导入售后行
// 同一售后单号重复导入时原地更新；内容完全一致时跳过
func ImportAfterSales(gdb *gorm.DB, rows []AfterSaleRow) (models.ImportStats, error) {
	stats := models.ImportStats{}

	for start := 0; start < len(rows); start += importBatchSize {
		end := start + importBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		batchStats, err := importAfterSaleBatch(gdb, rows[start:end])
		stats.Total += batchStats.Total
		stats.Created += batchStats.Created
		stats.Updated += batchStats.Updated
		stats.Skipped += batchStats.Skipped
		if err != nil {
			return stats, fmt.Errorf("%w: 售后批次[%d:%d]导入失败: %v", ErrStore, start, end, err)
		}
	}

	return stats, nil
}

// importAfterSaleBatch 处理一批售后行，单批一个事务
func importAfterSaleBatch(gdb *gorm.DB, rows []AfterSaleRow) (models.ImportStats, error) {
	stats := models.ImportStats{Total: len(rows)}

	valid := make([]AfterSaleRow, 0, len(rows))
	afterSaleIDs := make([]string, 0, len(rows))
	orderIDSet := make(map[string]bool)
	for _, row := range rows {
		if row.AfterSaleID == "" {
			stats.Skipped++
			continue
		}
		valid = append(valid, row)
		afterSaleIDs = append(afterSaleIDs, row.AfterSaleID)
		if row.OrderID != "" {
			orderIDSet[row.OrderID] = true
		}
	}
	if len(valid) == 0 {
		return stats, nil
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		// 1. 批量查关联订单的省份，冗余到售后行便于省份维度统计
		provinceMap := make(map[string]string)
		if len(orderIDSet) > 0 {
			orderIDs := make([]string, 0, len(orderIDSet))
			for id := range orderIDSet {
				orderIDs = append(orderIDs, id)
			}
			var orders []models.Order
			if err := tx.Select("order_id", "province_name").Where("order_id IN ?", orderIDs).Find(&orders).Error; err != nil {
				return err
			}
			for _, o := range orders {
				provinceMap[o.OrderID] = o.ProvinceName
			}
		}

		// 2. 批量查询已存在售后单
		var existingList []models.AfterSale
		if err := tx.Where("aftersale_id IN ?", afterSaleIDs).Find(&existingList).Error; err != nil {
			return err
		}
		existingMap := make(map[string]models.AfterSale, len(existingList))
		for _, a := range existingList {
			existingMap[a.AfterSaleID] = a
		}

		var toCreate []models.AfterSale
		var refundOrderIDs []string
		for _, row := range valid {
			province := provinceMap[row.OrderID]

			// 退货退款意味着买家已收到货并退回，可据此确认订单已签收
			if row.AfterSaleType == models.AfterSaleTypeReturnRefund && row.OrderID != "" {
				refundOrderIDs = append(refundOrderIDs, row.OrderID)
			}

			if existing, ok := existingMap[row.AfterSaleID]; ok {
				if afterSaleRowEqual(existing, row, province) {
					stats.Skipped++
					continue
				}
				updates := map[string]interface{}{
					"order_id":              row.OrderID,
					"sku_code":              row.SkuCode,
					"sku_code_raw":          row.SkuCodeRaw,
					"aftersale_type":        row.AfterSaleType,
					"aftersale_status":      row.AfterSaleStatus,
					"aftersale_status_desc": row.StatusDesc,
					"reason_code":           row.ReasonCode,
					"reason_text":           row.ReasonText,
					"is_quality_issue":      row.IsQualityIssue,
					"refund_amount":         row.RefundAmount,
					"apply_time":            row.ApplyTime,
					"finish_time":           row.FinishTime,
					"province_name":         province,
				}
				if err := tx.Model(&models.AfterSale{}).Where("aftersale_id = ?", row.AfterSaleID).Updates(updates).Error; err != nil {
					return err
				}
				stats.Updated++
				continue
			}

			toCreate = append(toCreate, models.AfterSale{
				AfterSaleID:     row.AfterSaleID,
				OrderID:         row.OrderID,
				SkuCode:         row.SkuCode,
				SkuCodeRaw:      row.SkuCodeRaw,
				AfterSaleType:   row.AfterSaleType,
				AfterSaleStatus: row.AfterSaleStatus,
				StatusDesc:      row.StatusDesc,
				ReasonCode:      row.ReasonCode,
				ReasonText:      row.ReasonText,
				IsQualityIssue:  row.IsQualityIssue,
				RefundAmount:    row.RefundAmount,
				ApplyTime:       row.ApplyTime,
				FinishTime:      row.FinishTime,
				ProvinceName:    province,
			})
		}

		if len(toCreate) > 0 {
			if err := tx.CreateInBatches(&toCreate, 100).Error; err != nil {
				return err
			}
			stats.Created += len(toCreate)
		}

		// 3. 退货退款类型的售后：将对应订单标记为已签收
		if len(refundOrderIDs) > 0 {
			if err := tx.Model(&models.Order{}).
				Where("order_id IN ?", refundOrderIDs).
				Where("is_signed = ?", false).
				Update("is_signed", true).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.ImportStats{Total: len(rows)}, err
	}

	return stats, nil
}

// afterSaleRowEqual 判断已存在售后单与导入行是否完全一致
func afterSaleRowEqual(a models.AfterSale, row AfterSaleRow, province string) bool {
	return a.OrderID == row.OrderID &&
		a.SkuCode == row.SkuCode &&
		a.AfterSaleType == row.AfterSaleType &&
		a.AfterSaleStatus == row.AfterSaleStatus &&
		a.StatusDesc == row.StatusDesc &&
		a.ReasonCode == row.ReasonCode &&
		a.ReasonText == row.ReasonText &&
		a.IsQualityIssue == row.IsQualityIssue &&
		a.RefundAmount == row.RefundAmount &&
		timePtrEqual(a.ApplyTime, row.ApplyTime) &&
		timePtrEqual(a.FinishTime, row.FinishTime) &&
		a.ProvinceName == province
}
