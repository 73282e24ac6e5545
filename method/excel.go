package method

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flowstart/douyin-web/method/kd100"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/utils"

	"github.com/xuri/excelize/v2"
)

// 订单导出文件的状态文案映射
var orderStatusTextMap = map[string]int{
	"待确认":  models.OrderStatusPendingPay,
	"待付款":  models.OrderStatusPendingPay,
	"待发货":  models.OrderStatusPendingShip,
	"已发货":  models.OrderStatusShipped,
	"部分发货": models.OrderStatusShipped,
	"已关闭":  models.OrderStatusCancelled,
	"已取消":  models.OrderStatusCancelled,
	"已完成":  models.OrderStatusCompleted,
	"售后中":  models.OrderStatusAfterSale,
}

// 售后导出文件的类型文案映射
var afterSaleTypeTextMap = map[string]int{
	"退货退款": models.AfterSaleTypeReturnRefund,
	"仅退款":  models.AfterSaleTypeRefundOnly,
	"换货":   models.AfterSaleTypeExchange,
}

// 售后导出文件的状态文案映射
var afterSaleStatusTextMap = map[string]int{
	"待商家处理": models.AfterSaleStatusPendingMerchant,
	"待买家退货": models.AfterSaleStatusPendingBuyer,
	"待买家寄货": models.AfterSaleStatusPendingBuyer,
	"待商家收货": models.AfterSaleStatusPendingReceive,
	"售后成功":  models.AfterSaleStatusCompleted,
	"已完成":   models.AfterSaleStatusCompleted,
	"已关闭":   models.AfterSaleStatusRejected,
	"商家已拒绝": models.AfterSaleStatusRejected,
}

// 售后原因中判定为品质问题的关键词
var qualityKeywords = []string{
	"质量", "破损", "与描述不符", "假货", "品质", "做工", "商品损坏",
}

// readSheetRows 打开Excel文件并读取第一个工作表的全部行
func readSheetRows(filePath string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("打开Excel文件失败: %v", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("Excel文件中没有工作表")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %v", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel文件中没有数据行")
	}

	return rows, nil
}

// buildHeaderIndex 将表头行映射为 列名->列号
func buildHeaderIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name != "" {
			index[name] = i
		}
	}
	return index
}

// cellValue 按列名取单元格值，列不存在或越界返回空串
func cellValue(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseCellTime 解析时间单元格，空值与无法解析的值返回nil
func parseCellTime(value string) *time.Time {
	if value == "" || value == "-" {
		return nil
	}
	t, err := utils.ParseDateTime(value)
	if err != nil {
		return nil
	}
	return &t
}

// parseCellFloat 解析金额单元格，兼容带货币符号的导出格式
func parseCellFloat(value string) float64 {
	value = strings.TrimSpace(strings.TrimPrefix(value, "¥"))
	value = strings.ReplaceAll(value, ",", "")
	if value == "" || value == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// parseCellInt 解析数量单元格，非法值按1件处理
func parseCellInt(value string) int {
	if value == "" {
		return 1
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// ParseOrderFile 解析抖店订单导出Excel为归一化订单行
// limit > 0 时只取前limit行（调试用途）
func ParseOrderFile(filePath string, limit int) ([]OrderRow, error) {
	rows, err := readSheetRows(filePath)
	if err != nil {
		return nil, err
	}

	index := buildHeaderIndex(rows[0])
	if _, ok := index["子订单编号"]; !ok {
		return nil, fmt.Errorf("订单文件缺少「子订单编号」列，请检查导出模板")
	}

	var result []OrderRow
	for _, row := range rows[1:] {
		if limit > 0 && len(result) >= limit {
			break
		}

		statusText := cellValue(row, index, "订单状态")
		express := kd100.ParseExpressInfo(cellValue(row, index, "快递信息"))
		skuRaw := cellValue(row, index, "商家编码")

		result = append(result, OrderRow{
			OrderID:       cellValue(row, index, "子订单编号"),
			OrderStatus:   orderStatusTextMap[statusText],
			StatusDesc:    statusText,
			CreateTime:    parseCellTime(cellValue(row, index, "订单提交时间")),
			PayTime:       parseCellTime(cellValue(row, index, "支付完成时间")),
			UpdateTime:    parseCellTime(cellValue(row, index, "订单完成时间")),
			ReceiverName:  cellValue(row, index, "收件人"),
			ProvinceName:  cellValue(row, index, "省"),
			CityName:      cellValue(row, index, "市"),
			LogisticsCode: express.TrackingNumber,
			Company:       express.CompanyName,
			TotalAmount:   parseCellFloat(cellValue(row, index, "订单应付金额")),
			PayAmount:     parseCellFloat(cellValue(row, index, "买家实际支付金额")),
			SkuCode:       utils.CleanSkuCode(skuRaw),
			SkuCodeRaw:    skuRaw,
			SkuName:       cellValue(row, index, "选购商品"),
			Quantity:      parseCellInt(cellValue(row, index, "商品数量")),
			Price:         parseCellFloat(cellValue(row, index, "商品单价")),
		})
	}

	return result, nil
}

// isQualityReason 根据售后原因文本/标签判定是否品质问题
func isQualityReason(reasonText, reasonTag string) bool {
	combined := reasonText + reasonTag
	for _, kw := range qualityKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}

// ParseAfterSaleFile 解析抖店售后导出Excel为归一化售后行
func ParseAfterSaleFile(filePath string, limit int) ([]AfterSaleRow, error) {
	rows, err := readSheetRows(filePath)
	if err != nil {
		return nil, err
	}

	index := buildHeaderIndex(rows[0])
	if _, ok := index["售后单号"]; !ok {
		return nil, fmt.Errorf("售后文件缺少「售后单号」列，请检查导出模板")
	}

	var result []AfterSaleRow
	for _, row := range rows[1:] {
		if limit > 0 && len(result) >= limit {
			break
		}

		statusText := cellValue(row, index, "售后状态")
		reasonText := cellValue(row, index, "售后原因")
		reasonTag := cellValue(row, index, "售后原因标签")
		skuRaw := cellValue(row, index, "商家编码")

		result = append(result, AfterSaleRow{
			AfterSaleID:     cellValue(row, index, "售后单号"),
			OrderID:         cellValue(row, index, "订单号"),
			SkuCode:         utils.CleanSkuCode(skuRaw),
			SkuCodeRaw:      skuRaw,
			AfterSaleType:   afterSaleTypeTextMap[cellValue(row, index, "售后类型")],
			AfterSaleStatus: afterSaleStatusTextMap[statusText],
			StatusDesc:      statusText,
			ReasonCode:      reasonTag,
			ReasonText:      reasonText,
			IsQualityIssue:  isQualityReason(reasonText, reasonTag),
			RefundAmount:    parseCellFloat(cellValue(row, index, "退款金额")),
			ApplyTime:       parseCellTime(cellValue(row, index, "售后申请时间")),
			FinishTime:      parseCellTime(cellValue(row, index, "售后完结时间")),
		})
	}

	return result, nil
}
