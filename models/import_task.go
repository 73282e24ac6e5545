package models

import (
	"time"
)

// 任务类型
const (
	TaskTypeOrders     = "orders"     // 订单导入
	TaskTypeAfterSales = "aftersales" // 售后导入
	TaskTypeAll        = "all"        // 订单+售后导入并重算统计
	TaskTypeLogistics  = "logistics"  // 物流签收检查
)

// 任务状态机：processing -> completed / failed，终态不可再变更
const (
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// ImportStats 导入结果统计
type ImportStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// LogisticsStats 物流检查结果统计
type LogisticsStats struct {
	Total    int      `json:"total"`    // 本次候选单号数
	Checked  int      `json:"checked"`  // 实际发起查询数
	Signed   int      `json:"signed"`   // 本次新确认签收数
	Skipped  int      `json:"skipped"`  // 间隔未到被跳过数
	Failures []string `json:"failures"` // 单号级失败明细
}

// ImportTask 任务记录表 - 给前端展示任务状态/进度/结果
type ImportTask struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID   string `gorm:"column:task_id;size:64;not null;uniqueIndex" json:"task_id"` // 任务ID
	TaskType string `gorm:"column:task_type;size:32;not null" json:"task_type"`         // 任务类型: orders/aftersales/all/logistics
	Status   string `gorm:"column:status;size:32;default:processing" json:"status"`     // 状态: processing/completed/failed
	Progress string `gorm:"column:progress;size:128" json:"progress"`                   // 当前进度描述
	Filename string `gorm:"column:filename;size:256" json:"filename"`                   // 关联文件名

	OrderStats     *ImportStats    `gorm:"column:order_stats;serializer:json" json:"order_stats"`         // 订单导入统计
	AfterSaleStats *ImportStats    `gorm:"column:aftersale_stats;serializer:json" json:"aftersale_stats"` // 售后导入统计
	Logistics      *LogisticsStats `gorm:"column:logistics_stats;serializer:json" json:"logistics_stats"` // 物流检查统计
	SkuStatsCount  int             `gorm:"column:sku_stats_count;default:0" json:"sku_stats_count"`       // 重算覆盖的SKU数

	Error       string     `gorm:"column:error;type:text" json:"error"`                 // 错误信息
	StartedAt   time.Time  `gorm:"column:started_at;index;not null" json:"started_at"`  // 开始时间
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`             // 完成时间
}

// TableName 设置表名
func (ImportTask) TableName() string {
	return "import_tasks"
}

// IsTerminal 任务是否已进入终态
func (t *ImportTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// 队列状态：queued -> processing -> completed/failed
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobPayload 队列任务参数
type JobPayload struct {
	OrdersFilename     string `json:"orders_filename,omitempty"`
	AfterSalesFilename string `json:"aftersales_filename,omitempty"`
	Limit              int    `json:"limit,omitempty"` // 物流检查数量上限，0表示全部
}

// ImportJob 导入队列任务表 - 由worker原子领取消费
type ImportJob struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID    string      `gorm:"column:task_id;size:64;not null;uniqueIndex" json:"task_id"` // 关联的任务ID
	TaskType  string      `gorm:"column:task_type;size:32;not null" json:"task_type"`
	Status    string      `gorm:"column:status;size:32;default:queued;index" json:"status"`
	Payload   *JobPayload `gorm:"column:payload;serializer:json" json:"payload"`
	PickedAt  *time.Time  `gorm:"column:picked_at" json:"picked_at"` // 被worker取走时间
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (ImportJob) TableName() string {
	return "import_jobs"
}
