package method

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/flowstart/douyin-web/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTaskID(t *testing.T) {
	taskID := GenerateTaskID(models.TaskTypeOrders)
	assert.True(t, strings.HasPrefix(taskID, "orders_"))
	// 格式: orders_20060102_150405
	assert.Len(t, taskID, len("orders_")+15)
}

func TestTaskLifecycle(t *testing.T) {
	gdb := newTestDB(t)

	taskID := GenerateTaskID(models.TaskTypeOrders)
	task, err := CreateTask(gdb, taskID, models.TaskTypeOrders, "orders.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, task.Status)
	assert.False(t, task.IsTerminal())

	// 进度更新
	require.NoError(t, UpdateTask(gdb, taskID, map[string]interface{}{"progress": "正在导入订单..."}))

	fetched, err := GetTask(gdb, taskID)
	require.NoError(t, err)
	assert.Equal(t, "正在导入订单...", fetched.Progress)

	// 完成后任务进入终态
	stats := &models.ImportStats{Total: 10, Created: 8, Skipped: 2}
	require.NoError(t, completeTask(gdb, taskID, map[string]interface{}{"order_stats": stats}))

	fetched, err = GetTask(gdb, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, fetched.Status)
	assert.Equal(t, "完成", fetched.Progress)
	require.NotNil(t, fetched.CompletedAt)
	require.NotNil(t, fetched.OrderStats)
	assert.Equal(t, 8, fetched.OrderStats.Created)
}

func TestTaskResultPayloadRoundTrip(t *testing.T) {
	gdb := newTestDB(t)

	taskID := GenerateTaskID(models.TaskTypeAll)
	_, err := CreateTask(gdb, taskID, models.TaskTypeAll, "all.xlsx")
	require.NoError(t, err)

	// 中途先落订单导入结果
	orderStats := &models.ImportStats{Total: 5, Created: 5}
	require.NoError(t, UpdateTask(gdb, taskID, map[string]interface{}{"order_stats": orderStats}))

	// 完成时同时带售后与物流结果
	afterStats := &models.ImportStats{Total: 3, Updated: 3}
	logiStats := &models.LogisticsStats{Total: 7, Checked: 4, Signed: 2, Skipped: 3, Failures: []string{"SF1: 超时"}}
	require.NoError(t, completeTask(gdb, taskID, map[string]interface{}{
		"aftersale_stats": afterStats,
		"logistics_stats": logiStats,
		"sku_stats_count": 12,
	}))

	task, err := GetTask(gdb, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.OrderStats)
	assert.Equal(t, 5, task.OrderStats.Created)
	require.NotNil(t, task.AfterSaleStats)
	assert.Equal(t, 3, task.AfterSaleStats.Updated)
	require.NotNil(t, task.Logistics)
	assert.Equal(t, 2, task.Logistics.Signed)
	require.Len(t, task.Logistics.Failures, 1)
	assert.Equal(t, 12, task.SkuStatsCount)
}

func TestTerminalTaskImmutable(t *testing.T) {
	gdb := newTestDB(t)

	taskID := GenerateTaskID(models.TaskTypeLogistics)
	_, err := CreateTask(gdb, taskID, models.TaskTypeLogistics, "")
	require.NoError(t, err)
	require.NoError(t, completeTask(gdb, taskID, nil))

	// 终态后任何更新都被拒绝
	err = UpdateTask(gdb, taskID, map[string]interface{}{"progress": "重新处理"})
	assert.ErrorIs(t, err, ErrTaskTerminal)

	err = UpdateTask(gdb, taskID, map[string]interface{}{"status": models.TaskStatusFailed})
	assert.ErrorIs(t, err, ErrTaskTerminal)

	fetched, err := GetTask(gdb, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, fetched.Status)
}

func TestGetTaskNotFound(t *testing.T) {
	gdb := newTestDB(t)

	_, err := GetTask(gdb, "orders_19700101_000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimJobAtomic(t *testing.T) {
	gdb := newTestDB(t)

	require.NoError(t, EnqueueJob(gdb, "task-1", models.TaskTypeOrders, &models.JobPayload{OrdersFilename: "a.xlsx"}))
	require.NoError(t, EnqueueJob(gdb, "task-2", models.TaskTypeAfterSales, &models.JobPayload{AfterSalesFilename: "b.xlsx"}))

	// 按入队顺序领取
	job1, err := ClaimJob(gdb)
	require.NoError(t, err)
	require.NotNil(t, job1)
	assert.Equal(t, "task-1", job1.TaskID)
	assert.Equal(t, models.JobStatusProcessing, job1.Status)
	require.NotNil(t, job1.PickedAt)

	job2, err := ClaimJob(gdb)
	require.NoError(t, err)
	require.NotNil(t, job2)
	assert.Equal(t, "task-2", job2.TaskID)

	// 队列空时返回nil
	job3, err := ClaimJob(gdb)
	require.NoError(t, err)
	assert.Nil(t, job3)

	// payload经序列化往返后保持不变
	var stored models.ImportJob
	require.NoError(t, gdb.Where("task_id = ?", "task-1").First(&stored).Error)
	require.NotNil(t, stored.Payload)
	assert.Equal(t, "a.xlsx", stored.Payload.OrdersFilename)
}

func TestCleanupOldTasks(t *testing.T) {
	gdb := newTestDB(t)

	// 写入20个任务，时间依次递增
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		require.NoError(t, gdb.Create(&models.ImportTask{
			TaskID:    fmt.Sprintf("orders_2024_%03d", i),
			TaskType:  models.TaskTypeOrders,
			Status:    models.TaskStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
		require.NoError(t, gdb.Create(&models.ImportJob{
			TaskID:   fmt.Sprintf("orders_2024_%03d", i),
			TaskType: models.TaskTypeOrders,
			Status:   models.JobStatusCompleted,
		}).Error)
	}

	require.NoError(t, CleanupOldTasks(gdb))

	var taskCount, jobCount int64
	require.NoError(t, gdb.Model(&models.ImportTask{}).Count(&taskCount).Error)
	require.NoError(t, gdb.Model(&models.ImportJob{}).Count(&jobCount).Error)
	assert.Equal(t, int64(MaxTaskHistory), taskCount)
	assert.Equal(t, int64(MaxTaskHistory), jobCount)

	// 最早的任务被清理，最新的保留
	var gone int64
	require.NoError(t, gdb.Model(&models.ImportTask{}).Where("task_id = ?", "orders_2024_000").Count(&gone).Error)
	assert.Zero(t, gone)

	var kept int64
	require.NoError(t, gdb.Model(&models.ImportTask{}).Where("task_id = ?", "orders_2024_019").Count(&kept).Error)
	assert.Equal(t, int64(1), kept)
}

func TestProcessJobFailureMarksTask(t *testing.T) {
	gdb := newTestDB(t)

	// 未配置快递100凭证时物流任务直接失败
	taskID := GenerateTaskID(models.TaskTypeLogistics)
	_, err := CreateTask(gdb, taskID, models.TaskTypeLogistics, "")
	require.NoError(t, err)
	require.NoError(t, EnqueueJob(gdb, taskID, models.TaskTypeLogistics, &models.JobPayload{}))

	job, err := ClaimJob(gdb)
	require.NoError(t, err)
	require.NotNil(t, job)

	ProcessJob(gdb, testConfig(), job)

	task, err := GetTask(gdb, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, "失败", task.Progress)
	assert.Contains(t, task.Error, "customer")
	require.NotNil(t, task.CompletedAt)

	var storedJob models.ImportJob
	require.NoError(t, gdb.Where("task_id = ?", taskID).First(&storedJob).Error)
	assert.Equal(t, models.JobStatusFailed, storedJob.Status)
}

func TestListRecentTasksOrder(t *testing.T) {
	gdb := newTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, gdb.Create(&models.ImportTask{
			TaskID:    fmt.Sprintf("list_%d", i),
			TaskType:  models.TaskTypeOrders,
			Status:    models.TaskStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	tasks, err := ListRecentTasks(gdb, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	// 最新的在前
	assert.Equal(t, "list_2", tasks[0].TaskID)
	assert.Equal(t, "list_1", tasks[1].TaskID)
}
