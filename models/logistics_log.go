package models

import (
	"time"
)

// LogisticsQueryLog 物流查询日志表 - 每个物流单号一行
// 用于控制同一单号的最小查询间隔，避免触发快递100的频率封锁
type LogisticsQueryLog struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackingCode string     `gorm:"column:tracking_code;size:64;not null;uniqueIndex" json:"tracking_code"` // 物流单号
	Company      string     `gorm:"column:company;size:32" json:"company"`                                  // 快递公司
	LastQueryAt  time.Time  `gorm:"column:last_query_at;index;not null" json:"last_query_at"`               // 最后查询时间
	LastState    string     `gorm:"column:last_state;size:32" json:"last_state"`                            // 最后归一化状态
	StatusDesc   string     `gorm:"column:status_desc;size:64" json:"status_desc"`                          // 最后状态描述
	IsSigned     bool       `gorm:"column:is_signed;default:false" json:"is_signed"`                        // 是否已签收
	LatestInfo   string     `gorm:"column:latest_info;size:512" json:"latest_info"`                         // 最新轨迹描述
	LatestTime   *time.Time `gorm:"column:latest_time" json:"latest_time"`                                  // 最新轨迹时间
	QueryCount   int        `gorm:"column:query_count;default:0" json:"query_count"`                        // 累计查询次数
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (LogisticsQueryLog) TableName() string {
	return "logistics_query_logs"
}
