package models

import (
	"time"
)

// ProvinceStats 省份退货率统计缓存表
type ProvinceStats struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProvinceName     string     `gorm:"column:province_name;size:32;not null;uniqueIndex" json:"province_name"` // 省份名称
	OrderCount       int        `gorm:"column:order_count;default:0" json:"order_count"`                        // 订单数
	ReturnCount      int        `gorm:"column:return_count;default:0" json:"return_count"`                      // 退货数
	ReturnRate       float64    `gorm:"column:return_rate;default:0" json:"return_rate"`                        // 退货率（简单比值，无样本量下限）
	LastCalculatedAt *time.Time `gorm:"column:last_calculated_at" json:"last_calculated_at"`                    // 最后计算时间
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (ProvinceStats) TableName() string {
	return "province_stats"
}

// ProvinceSkuStats 省份×SKU退货率统计缓存表
type ProvinceSkuStats struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProvinceName     string     `gorm:"column:province_name;size:32;not null;uniqueIndex:uix_province_sku" json:"province_name"` // 省份名称
	SkuCode          string     `gorm:"column:sku_code;size:64;not null;uniqueIndex:uix_province_sku" json:"sku_code"`           // 商家SKU净编码
	OrderCount       int        `gorm:"column:order_count;default:0" json:"order_count"`                                         // 订单数
	ReturnCount      int        `gorm:"column:return_count;default:0" json:"return_count"`                                       // 退货数
	ReturnRate       float64    `gorm:"column:return_rate;default:0" json:"return_rate"`                                         // 退货率
	LastCalculatedAt *time.Time `gorm:"column:last_calculated_at" json:"last_calculated_at"`                                     // 最后计算时间
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (ProvinceSkuStats) TableName() string {
	return "province_sku_stats"
}
