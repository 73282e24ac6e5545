package controllers

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/method"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/service/msg"
	"github.com/flowstart/douyin-web/utils"

	"github.com/gin-gonic/gin"
	_ "golang.org/x/image/webp"
)

// UploadController 文件上传与任务控制器
type UploadController struct{}

// saveUpload 保存上传文件到上传目录，返回落盘后的文件名
func (uc *UploadController) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("缺少上传文件 %s: %v", field, err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		return "", fmt.Errorf("仅支持xlsx/xls格式文件")
	}

	appConfig := config.LoadConfig()
	filename := utils.GenerateUniqueFilename(file.Filename)
	if _, err := utils.SaveUploadedFile(file, appConfig.UploadDir, filename); err != nil {
		return "", err
	}
	return filename, nil
}

// parseLimit 解析导入行数上限参数，0表示不限制
func (uc *UploadController) parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultPostForm("limit", "0"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

// createAndEnqueue 创建任务并入队，返回任务ID
func (uc *UploadController) createAndEnqueue(taskType, filename string, payload *models.JobPayload) (string, error) {
	taskID := method.GenerateTaskID(taskType)
	if _, err := method.CreateTask(db.DB, taskID, taskType, filename); err != nil {
		return "", err
	}
	if err := method.EnqueueJob(db.DB, taskID, taskType, payload); err != nil {
		return "", err
	}
	return taskID, nil
}

// UploadOrders 上传订单Excel并启动异步导入
func (uc *UploadController) UploadOrders(c *gin.Context) {
	filename, err := uc.saveUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("上传订单文件失败", err))
		return
	}

	taskID, err := uc.createAndEnqueue(models.TaskTypeOrders, filename, &models.JobPayload{
		OrdersFilename: filename,
		Limit:          uc.parseLimit(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("创建导入任务失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("订单导入任务已创建", &map[string]any{"task_id": taskID}))
}

// UploadAfterSales 上传售后Excel并启动异步导入
func (uc *UploadController) UploadAfterSales(c *gin.Context) {
	filename, err := uc.saveUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("上传售后文件失败", err))
		return
	}

	taskID, err := uc.createAndEnqueue(models.TaskTypeAfterSales, filename, &models.JobPayload{
		AfterSalesFilename: filename,
		Limit:              uc.parseLimit(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("创建导入任务失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("售后导入任务已创建", &map[string]any{"task_id": taskID}))
}

// UploadAll 同时上传订单与售后Excel，导入后重算统计
func (uc *UploadController) UploadAll(c *gin.Context) {
	ordersFilename, err := uc.saveUpload(c, "orders_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("上传订单文件失败", err))
		return
	}
	afterSalesFilename, err := uc.saveUpload(c, "aftersales_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("上传售后文件失败", err))
		return
	}

	taskID, err := uc.createAndEnqueue(models.TaskTypeAll, ordersFilename+";"+afterSalesFilename, &models.JobPayload{
		OrdersFilename:     ordersFilename,
		AfterSalesFilename: afterSalesFilename,
		Limit:              uc.parseLimit(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("创建导入任务失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("全量导入任务已创建", &map[string]any{"task_id": taskID}))
}

// GetTaskStatus 查询任务状态
func (uc *UploadController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		taskID = c.Query("task_id")
	}
	if taskID == "" {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("缺少task_id参数"))
		return
	}

	task, err := method.GetTask(db.DB, taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, msg.ErrResponse("查询任务失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{"task": task}))
}

// ListTasks 查询最近的任务列表
func (uc *UploadController) ListTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))
	tasks, err := method.ListRecentTasks(db.DB, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询任务列表失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	}))
}

// UploadSkuImage 上传SKU商品图片
// 支持jpg/png/gif/webp，保存前做图片解码校验
func (uc *UploadController) UploadSkuImage(c *gin.Context) {
	skuCode := c.PostForm("sku_code")
	if skuCode == "" {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("缺少sku_code参数"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("缺少图片文件", err))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("打开图片失败", err))
		return
	}
	_, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponseStr("无法识别的图片格式，支持jpg/png/gif/webp"))
		return
	}

	filename := fmt.Sprintf("sku_%s.%s", utils.GenerateUniqueFilename(skuCode), format)
	if _, err := utils.SaveUploadedFile(file, "media/sku_images", filename); err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("保存图片失败", err))
		return
	}

	imageURL := "/media/sku_images/" + filename
	if err := method.UpdateSkuImage(db.DB, skuCode, imageURL); err != nil {
		c.JSON(http.StatusNotFound, msg.ErrResponse("更新SKU图片失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("图片上传成功", &map[string]any{
		"sku_code":  skuCode,
		"image_url": imageURL,
	}))
}
