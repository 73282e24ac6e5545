package controllers

import (
	"net/http"
	"strconv"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/method"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/service/msg"

	"github.com/gin-gonic/gin"
)

// LogisticsController 物流控制器
type LogisticsController struct{}

// QueryTracking 手动查询单个物流单号的实时状态
// 参数: tracking_code（必填）、company（可选，缺省从订单回查）
func (lc *LogisticsController) QueryTracking(c *gin.Context) {
	trackingCode := c.Query("tracking_code")
	if trackingCode == "" {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("缺少tracking_code参数"))
		return
	}

	appConfig := config.LoadConfig()
	checker, err := method.NewTrackerFromConfig(db.DB, appConfig)
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("快递100配置不完整", err))
		return
	}

	status, err := method.QueryTracking(db.DB, checker, trackingCode, c.Query("company"))
	if err != nil {
		c.JSON(http.StatusBadGateway, msg.ErrResponse("物流查询失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{
		"tracking_code": trackingCode,
		"status":        status,
	}))
}

// CheckAll 启动批量签收检查任务
// 可选参数limit限制本次实际外呼的单号数量；没有候选单号时不建任务
func (lc *LogisticsController) CheckAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	count, err := method.PendingTrackingCount(db.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询候选单号失败", err))
		return
	}
	if count == 0 {
		c.JSON(http.StatusOK, msg.SuccessResponse("没有待检查的物流单号", &map[string]any{
			"task_id": nil,
			"count":   0,
		}))
		return
	}

	// 配置不完整时直接拒绝，而不是让任务入队后失败
	appConfig := config.LoadConfig()
	if _, err := method.NewTrackerFromConfig(db.DB, appConfig); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("快递100配置不完整", err))
		return
	}

	taskID := method.GenerateTaskID(models.TaskTypeLogistics)
	if _, err := method.CreateTask(db.DB, taskID, models.TaskTypeLogistics, ""); err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("创建检查任务失败", err))
		return
	}
	if err := method.EnqueueJob(db.DB, taskID, models.TaskTypeLogistics, &models.JobPayload{Limit: limit}); err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("检查任务入队失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("签收检查任务已创建", &map[string]any{
		"task_id": taskID,
		"count":   count,
	}))
}

// Overview 查询物流状态总览
func (lc *LogisticsController) Overview(c *gin.Context) {
	overview, err := method.GetLogisticsOverview(db.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询物流总览失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{"overview": overview}))
}
