package models

import (
	"time"
)

// SkuStats SKU统计缓存表 - 存储最新一份统计快照，每次重算整表覆盖
type SkuStats struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SkuCode  string `gorm:"column:sku_code;size:64;not null;uniqueIndex" json:"sku_code"` // 商家SKU净编码
	SkuName  string `gorm:"column:sku_name;size:256" json:"sku_name"`                     // SKU名称
	Product  string `gorm:"column:product_name;size:256" json:"product_name"`             // 商品名称
	ImageURL string `gorm:"column:image_url;size:512" json:"image_url"`                   // 商品图片URL

	PendingShipCount      int `gorm:"column:pending_ship_count;default:0" json:"pending_ship_count"`           // 待发货量
	AfterSalePendingCount int `gorm:"column:aftersale_pending_count;default:0" json:"aftersale_pending_count"` // 售后未完结数量
	SignedCount           int `gorm:"column:signed_count;default:0" json:"signed_count"`                       // 已签收订单数（近90天）
	SignedReturnCount     int `gorm:"column:signed_return_count;default:0" json:"signed_return_count"`         // 已签收订单的退货数（近90天）

	// 预估退货率（已签收退货数/已签收数，签收数<10时取默认30%）
	EstimatedReturnRate float64 `gorm:"column:estimated_return_rate;default:0.3" json:"estimated_return_rate"`
	IsRateManual        bool    `gorm:"column:is_rate_manual;default:false" json:"is_rate_manual"` // 退货率是否手动修改

	InTransitCount          int `gorm:"column:in_transit_count;default:0" json:"in_transit_count"`                     // 已发货在途未签收数量
	InTransitReturnEstimate int `gorm:"column:in_transit_return_estimate;default:0" json:"in_transit_return_estimate"` // 在途预估退货数量

	// 商品缺口 = 待发货数量 - 售后未完结数量 - 在途预估退货数量
	// 允许为负数，负数表示预估过剩；品质退货不参与扣减
	StockGap int `gorm:"column:stock_gap;default:0" json:"stock_gap"`

	QualityReturnCount int     `gorm:"column:quality_return_count;default:0" json:"quality_return_count"` // 品质问题退货数量
	QualityReturnRate  float64 `gorm:"column:quality_return_rate;default:0" json:"quality_return_rate"`   // 品质退货率

	LastCalculatedAt *time.Time `gorm:"column:last_calculated_at" json:"last_calculated_at"` // 最后计算时间
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (SkuStats) TableName() string {
	return "sku_stats"
}
