package models

import (
	"time"
)

// 售后类型
const (
	AfterSaleTypeReturnRefund = 1 // 退货退款
	AfterSaleTypeRefundOnly   = 2 // 仅退款
	AfterSaleTypeExchange     = 3 // 换货
)

// 售后状态
const (
	AfterSaleStatusPendingMerchant = 1 // 待商家处理
	AfterSaleStatusPendingBuyer    = 2 // 待买家寄货
	AfterSaleStatusPendingReceive  = 3 // 待商家收货
	AfterSaleStatusCompleted       = 5 // 已完成
	AfterSaleStatusRejected        = 6 // 已关闭/已拒绝
)

// AfterSalePendingStatus 售后未完结的状态集合
var AfterSalePendingStatus = []int{
	AfterSaleStatusPendingBuyer,
	AfterSaleStatusPendingReceive,
}

// AfterSale 售后单模型
type AfterSale struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	AfterSaleID     string     `gorm:"column:aftersale_id;size:64;not null;uniqueIndex" json:"aftersale_id"` // 售后单号
	OrderID         string     `gorm:"column:order_id;size:64;index" json:"order_id"`                        // 关联订单号
	SkuCode         string     `gorm:"column:sku_code;size:64;index" json:"sku_code"`                        // 商家SKU净编码
	SkuCodeRaw      string     `gorm:"column:sku_code_raw;size:128" json:"sku_code_raw"`                     // 原始商家编码
	AfterSaleType   int        `gorm:"column:aftersale_type;not null" json:"aftersale_type"`                 // 售后类型: 1-退货退款 2-仅退款 3-换货
	AfterSaleStatus int        `gorm:"column:aftersale_status;index;not null" json:"aftersale_status"`       // 售后状态
	StatusDesc      string     `gorm:"column:aftersale_status_desc;size:32" json:"aftersale_status_desc"`    // 售后状态描述
	ReasonCode      string     `gorm:"column:reason_code;size:32" json:"reason_code"`                        // 售后原因标签
	ReasonText      string     `gorm:"column:reason_text;size:256" json:"reason_text"`                       // 售后原因文本
	IsQualityIssue  bool       `gorm:"column:is_quality_issue;default:false" json:"is_quality_issue"`        // 是否品质问题
	RefundAmount    float64    `gorm:"column:refund_amount;type:decimal(10,2);default:0" json:"refund_amount"` // 退款金额
	ApplyTime       *time.Time `gorm:"column:apply_time" json:"apply_time"`                                  // 申请时间
	FinishTime      *time.Time `gorm:"column:finish_time" json:"finish_time"`                                // 完结时间
	ProvinceName    string     `gorm:"column:province_name;size:32;index" json:"province_name"`              // 省份名称（冗余存储，便于统计）
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (AfterSale) TableName() string {
	return "after_sales"
}
