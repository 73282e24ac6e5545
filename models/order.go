package models

import (
	"time"
)

// 订单状态
const (
	OrderStatusPendingPay  = 1 // 待确认/待付款
	OrderStatusPendingShip = 2 // 待发货
	OrderStatusShipped     = 3 // 已发货
	OrderStatusCancelled   = 4 // 已关闭
	OrderStatusCompleted   = 5 // 已完成
	OrderStatusAfterSale   = 6 // 售后中
)

// OrderStatusDesc 订单状态中文描述
var OrderStatusDesc = map[int]string{
	OrderStatusPendingPay:  "待确认",
	OrderStatusPendingShip: "待发货",
	OrderStatusShipped:     "已发货",
	OrderStatusCancelled:   "已关闭",
	OrderStatusCompleted:   "已完成",
	OrderStatusAfterSale:   "售后中",
}

// Order 订单模型
type Order struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         string     `gorm:"column:order_id;size:64;not null;uniqueIndex" json:"order_id"`      // 抖音订单号
	OrderStatus     int        `gorm:"column:order_status;index;not null" json:"order_status"`            // 订单状态
	OrderStatusDesc string     `gorm:"column:order_status_desc;size:32" json:"order_status_desc"`         // 订单状态描述
	CreateTime      *time.Time `gorm:"column:create_time;index" json:"create_time"`                       // 订单创建时间
	UpdateTime      *time.Time `gorm:"column:update_time" json:"update_time"`                             // 订单更新时间
	PayTime         *time.Time `gorm:"column:pay_time;index" json:"pay_time"`                             // 支付时间
	ReceiverName    string     `gorm:"column:receiver_name;size:64" json:"receiver_name"`                 // 收货人姓名
	ProvinceName    string     `gorm:"column:province_name;size:32;index" json:"province_name"`           // 省份名称
	CityName        string     `gorm:"column:city_name;size:32" json:"city_name"`                         // 城市名称
	LogisticsCode   string     `gorm:"column:logistics_code;size:64;index" json:"logistics_code"`         // 物流单号
	LogisticsDesc   string     `gorm:"column:logistics_desc;size:32" json:"logistics_desc"`               // 物流状态描述
	Company         string     `gorm:"column:logistics_company;size:32" json:"logistics_company"`         // 快递公司
	IsSigned        bool       `gorm:"column:is_signed;default:false;index" json:"is_signed"`             // 是否已签收
	SignTime        *time.Time `gorm:"column:sign_time" json:"sign_time"`                                 // 签收时间
	TotalAmount     float64    `gorm:"column:total_amount;type:decimal(10,2);default:0" json:"total_amount"` // 订单总金额
	PayAmount       float64    `gorm:"column:pay_amount;type:decimal(10,2);default:0" json:"pay_amount"`  // 实付金额
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (Order) TableName() string {
	return "orders"
}

// OrderSku 订单SKU明细模型
type OrderSku struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     string    `gorm:"column:order_id;size:64;not null;index" json:"order_id"`    // 关联订单号
	SkuCode     string    `gorm:"column:sku_code;size:64;index" json:"sku_code"`             // 商家SKU净编码
	SkuCodeRaw  string    `gorm:"column:sku_code_raw;size:128" json:"sku_code_raw"`          // 原始商家编码（未去括号，用于追溯）
	SkuName     string    `gorm:"column:sku_name;size:256" json:"sku_name"`                  // SKU名称
	ProductName string    `gorm:"column:product_name;size:256" json:"product_name"`          // 商品名称
	Quantity    int       `gorm:"column:quantity;default:1" json:"quantity"`                 // 购买数量
	Price       float64   `gorm:"column:price;type:decimal(10,2);default:0" json:"price"`    // 单价
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 设置表名
func (OrderSku) TableName() string {
	return "order_skus"
}
