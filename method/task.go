package method

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/service/notify"

	"gorm.io/gorm"
)

// MaxTaskHistory 任务历史保留条数，超出的连同队列记录一起清理
const MaxTaskHistory = 15

// GenerateTaskID 生成任务ID，格式: 类型_20060102_150405
func GenerateTaskID(taskType string) string {
	return fmt.Sprintf("%s_%s", taskType, time.Now().Format("20060102_150405"))
}

// CreateTask 创建任务记录，在实际工作开始前调用
// 创建即处于processing状态，保证前端任意时刻可查到任务
func CreateTask(gdb *gorm.DB, taskID, taskType, filename string) (*models.ImportTask, error) {
	task := &models.ImportTask{
		TaskID:    taskID,
		TaskType:  taskType,
		Status:    models.TaskStatusProcessing,
		Progress:  "等待处理...",
		Filename:  filename,
		StartedAt: time.Now(),
	}
	if err := gdb.Create(task).Error; err != nil {
		return nil, fmt.Errorf("%w: 创建任务失败: %v", ErrStore, err)
	}

	// 创建新任务时顺带清理历史，失败不影响主流程
	if err := CleanupOldTasks(gdb); err != nil {
		log.Printf("清理历史任务失败: %v", err)
	}
	return task, nil
}

// GetTask 按任务ID查询任务
func GetTask(gdb *gorm.DB, taskID string) (*models.ImportTask, error) {
	var task models.ImportTask
	if err := gdb.Where("task_id = ?", taskID).First(&task).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: 任务 %s 不存在", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &task, nil
}

// UpdateTask 更新任务字段
// 终态任务不可再变更，返回 ErrTaskTerminal
func UpdateTask(gdb *gorm.DB, taskID string, updates map[string]interface{}) error {
	task, err := GetTask(gdb, taskID)
	if err != nil {
		return err
	}
	if task.IsTerminal() {
		return fmt.Errorf("%w: 任务 %s 已是 %s 状态", ErrTaskTerminal, taskID, task.Status)
	}

	// map形式的Updates不经过模型字段上的serializer，结果负载在这里先序列化
	for key, value := range updates {
		switch value.(type) {
		case *models.ImportStats, *models.LogisticsStats:
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("%w: 序列化任务结果失败: %v", ErrStore, err)
			}
			updates[key] = string(encoded)
		}
	}

	if err := gdb.Model(&models.ImportTask{}).Where("task_id = ?", taskID).Updates(updates).Error; err != nil {
		return fmt.Errorf("%w: 更新任务失败: %v", ErrStore, err)
	}
	return nil
}

// updateTaskProgress 只刷新进度描述，终态拒绝静默忽略
func updateTaskProgress(gdb *gorm.DB, taskID, progress string) {
	if err := UpdateTask(gdb, taskID, map[string]interface{}{"progress": progress}); err != nil {
		log.Printf("更新任务进度失败 %s: %v", taskID, err)
	}
}

// completeTask 任务转为完成终态
func completeTask(gdb *gorm.DB, taskID string, updates map[string]interface{}) error {
	now := time.Now()
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = models.TaskStatusCompleted
	updates["progress"] = "完成"
	updates["completed_at"] = now
	return UpdateTask(gdb, taskID, updates)
}

// failTask 任务转为失败终态并记录错误
func failTask(gdb *gorm.DB, taskID string, taskErr error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TaskStatusFailed,
		"progress":     "失败",
		"error":        taskErr.Error(),
		"completed_at": now,
	}
	if err := UpdateTask(gdb, taskID, updates); err != nil {
		log.Printf("标记任务失败出错 %s: %v", taskID, err)
	}
}

// ListRecentTasks 查询最近的任务列表，按开始时间倒序
func ListRecentTasks(gdb *gorm.DB, limit int) ([]models.ImportTask, error) {
	if limit <= 0 || limit > MaxTaskHistory {
		limit = MaxTaskHistory
	}
	var tasks []models.ImportTask
	if err := gdb.Order("started_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return tasks, nil
}

// CleanupOldTasks 清理超出保留条数的历史任务及其队列记录
func CleanupOldTasks(gdb *gorm.DB) error {
	var keep []models.ImportTask
	if err := gdb.Select("task_id").Order("started_at DESC").Limit(MaxTaskHistory).Find(&keep).Error; err != nil {
		return err
	}
	if len(keep) < MaxTaskHistory {
		return nil
	}

	keepIDs := make([]string, 0, len(keep))
	for _, t := range keep {
		keepIDs = append(keepIDs, t.TaskID)
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id NOT IN ?", keepIDs).Delete(&models.ImportTask{}).Error; err != nil {
			return err
		}
		return tx.Where("task_id NOT IN ?", keepIDs).Delete(&models.ImportJob{}).Error
	})
}

// EnqueueJob 将任务放入队列等待worker消费
func EnqueueJob(gdb *gorm.DB, taskID, taskType string, payload *models.JobPayload) error {
	job := models.ImportJob{
		TaskID:   taskID,
		TaskType: taskType,
		Status:   models.JobStatusQueued,
		Payload:  payload,
	}
	if err := gdb.Create(&job).Error; err != nil {
		return fmt.Errorf("%w: 任务入队失败: %v", ErrStore, err)
	}
	return nil
}

// ClaimJob 原子领取一个排队中的任务
// 通过条件更新抢占，RowsAffected=0说明被其他worker抢走，返回nil
func ClaimJob(gdb *gorm.DB) (*models.ImportJob, error) {
	var job models.ImportJob
	err := gdb.Where("status = ?", models.JobStatusQueued).Order("id ASC").First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	now := time.Now()
	result := gdb.Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", job.ID, models.JobStatusQueued).
		Updates(map[string]interface{}{
			"status":    models.JobStatusProcessing,
			"picked_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	job.Status = models.JobStatusProcessing
	job.PickedAt = &now
	return &job, nil
}

// finishJob 将队列记录标记为终态
func finishJob(gdb *gorm.DB, jobID uint, status string) {
	if err := gdb.Model(&models.ImportJob{}).Where("id = ?", jobID).Update("status", status).Error; err != nil {
		log.Printf("更新队列状态失败 job=%d: %v", jobID, err)
	}
}

// ProcessJob 执行一个队列任务
// 子步骤失败即中止后续步骤并标记任务失败，已提交的批次保持不回滚
func ProcessJob(gdb *gorm.DB, cfg config.Config, job *models.ImportJob) {
	var err error
	switch job.TaskType {
	case models.TaskTypeOrders, models.TaskTypeAfterSales, models.TaskTypeAll:
		err = runImportTask(gdb, cfg, job)
	case models.TaskTypeLogistics:
		err = runLogisticsTask(gdb, cfg, job)
	default:
		err = fmt.Errorf("%w: 未知任务类型 %s", ErrValidation, job.TaskType)
	}

	if err != nil {
		failTask(gdb, job.TaskID, err)
		finishJob(gdb, job.ID, models.JobStatusFailed)
		notify.SendTaskFailureAlert(gdb, job.TaskID, err.Error())
		return
	}

	finishJob(gdb, job.ID, models.JobStatusCompleted)
	if task, gerr := GetTask(gdb, job.TaskID); gerr == nil {
		notify.SendTaskSummary(gdb, task)
	}
}

// runImportTask 执行订单/售后导入任务
func runImportTask(gdb *gorm.DB, cfg config.Config, job *models.ImportJob) error {
	payload := job.Payload
	if payload == nil {
		return fmt.Errorf("%w: 任务缺少文件参数", ErrValidation)
	}

	finalUpdates := map[string]interface{}{}

	// 1. 订单导入
	if job.TaskType == models.TaskTypeOrders || job.TaskType == models.TaskTypeAll {
		if payload.OrdersFilename == "" {
			return fmt.Errorf("%w: 缺少订单文件", ErrValidation)
		}
		updateTaskProgress(gdb, job.TaskID, "正在导入订单...")

		rows, err := ParseOrderFile(filepath.Join(cfg.UploadDir, payload.OrdersFilename), payload.Limit)
		if err != nil {
			return err
		}
		stats, err := ImportOrders(gdb, rows)
		finalUpdates["order_stats"] = &stats
		if err != nil {
			// 已完成批次的计数先落到任务上再返回错误
			_ = UpdateTask(gdb, job.TaskID, map[string]interface{}{"order_stats": &stats})
			return err
		}
	}

	// 2. 售后导入
	if job.TaskType == models.TaskTypeAfterSales || job.TaskType == models.TaskTypeAll {
		if payload.AfterSalesFilename == "" {
			return fmt.Errorf("%w: 缺少售后文件", ErrValidation)
		}
		updateTaskProgress(gdb, job.TaskID, "正在导入售后单...")

		rows, err := ParseAfterSaleFile(filepath.Join(cfg.UploadDir, payload.AfterSalesFilename), payload.Limit)
		if err != nil {
			return err
		}
		stats, err := ImportAfterSales(gdb, rows)
		finalUpdates["aftersale_stats"] = &stats
		if err != nil {
			_ = UpdateTask(gdb, job.TaskID, map[string]interface{}{"aftersale_stats": &stats})
			return err
		}
	}

	// 3. 重算统计
	updateTaskProgress(gdb, job.TaskID, "正在重新计算统计...")
	skuCount, err := RecalculateAllStats(gdb)
	if err != nil {
		return err
	}
	finalUpdates["sku_stats_count"] = skuCount

	return completeTask(gdb, job.TaskID, finalUpdates)
}

// runLogisticsTask 执行物流签收检查任务
func runLogisticsTask(gdb *gorm.DB, cfg config.Config, job *models.ImportJob) error {
	checker, err := NewTrackerFromConfig(gdb, cfg)
	if err != nil {
		return err
	}

	limit := 0
	if job.Payload != nil {
		limit = job.Payload.Limit
	}

	updateTaskProgress(gdb, job.TaskID, "正在检查物流签收状态...")
	stats, err := CheckLogisticsSignStatus(gdb, checker, limit, func(done, total int) {
		if done > 0 && done%20 == 0 {
			updateTaskProgress(gdb, job.TaskID, fmt.Sprintf("正在检查物流签收状态... (%d/%d)", done, total))
		}
	})
	if err != nil {
		_ = UpdateTask(gdb, job.TaskID, map[string]interface{}{"logistics_stats": &stats})
		return err
	}

	// 有新签收时刷新统计缓存
	skuCount := 0
	if stats.Signed > 0 {
		updateTaskProgress(gdb, job.TaskID, "正在重新计算统计...")
		if skuCount, err = RecalculateAllStats(gdb); err != nil {
			return err
		}
	}

	return completeTask(gdb, job.TaskID, map[string]interface{}{
		"logistics_stats": &stats,
		"sku_stats_count": skuCount,
	})
}

// StartImportWorker 启动队列消费worker
// 单进程单worker轮询消费，空闲时2秒一轮
func StartImportWorker(gdb *gorm.DB, cfg config.Config) {
	go func() {
		log.Println("导入任务worker已启动")
		for {
			job, err := ClaimJob(gdb)
			if err != nil {
				log.Printf("领取队列任务失败: %v", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if job == nil {
				time.Sleep(2 * time.Second)
				continue
			}

			log.Printf("开始处理任务 %s (%s)", job.TaskID, job.TaskType)
			ProcessJob(gdb, cfg, job)
			log.Printf("任务处理结束 %s", job.TaskID)
		}
	}()
}
