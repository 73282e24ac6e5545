package method

import (
	"log"
	"time"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/models"

	"gorm.io/gorm"
)

// StartLogisticsScheduler 启动物流签收定时调度器
// 对齐到整点/半点后每30分钟触发一次，触发动作是往队列投递一个
// logistics任务，实际执行由worker完成。单号级的最小查询间隔由
// 查询日志控制，调度频率高于间隔不会造成重复外呼。
func StartLogisticsScheduler(gdb *gorm.DB, cfg config.Config) {
	go func() {
		log.Println("物流签收定时调度器启动，每30分钟执行一次")

		// 启动即触发一次
		enqueueScheduledLogisticsTask(gdb)

		// 等待到下一个整点或半点
		now := time.Now()
		var nextExecuteTime time.Time
		if now.Minute() < 30 {
			nextExecuteTime = time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 30, 0, 0, now.Location())
		} else {
			nextExecuteTime = time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
		}
		waitDuration := nextExecuteTime.Sub(now)
		log.Printf("等待到下次执行时间：%s，等待时长：%v", nextExecuteTime.Format("2006-01-02 15:04:05"), waitDuration)
		time.Sleep(waitDuration)

		enqueueScheduledLogisticsTask(gdb)

		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			log.Println("定时器触发，开始投递物流检查任务")
			enqueueScheduledLogisticsTask(gdb)
		}
	}()
}

// enqueueScheduledLogisticsTask 投递一个物流检查任务到队列
// 已有排队/执行中的物流任务时跳过本轮，避免队列堆积
func enqueueScheduledLogisticsTask(gdb *gorm.DB) {
	var running int64
	if err := gdb.Model(&models.ImportJob{}).
		Where("task_type = ?", models.TaskTypeLogistics).
		Where("status IN ?", []string{models.JobStatusQueued, models.JobStatusProcessing}).
		Count(&running).Error; err != nil {
		log.Printf("查询物流任务队列失败: %v", err)
		return
	}
	if running > 0 {
		log.Println("已有物流检查任务在执行，跳过本轮调度")
		return
	}

	taskID := GenerateTaskID(models.TaskTypeLogistics)
	if _, err := CreateTask(gdb, taskID, models.TaskTypeLogistics, ""); err != nil {
		log.Printf("创建定时物流任务失败: %v", err)
		return
	}
	if err := EnqueueJob(gdb, taskID, models.TaskTypeLogistics, &models.JobPayload{}); err != nil {
		log.Printf("定时物流任务入队失败: %v", err)
		return
	}
	log.Printf("定时物流检查任务已投递: %s", taskID)
}
