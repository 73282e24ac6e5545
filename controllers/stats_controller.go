package controllers

import (
	"net/http"
	"strconv"

	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/method"
	"github.com/flowstart/douyin-web/service/msg"

	"github.com/gin-gonic/gin"
)

// StatsController 统计控制器
type StatsController struct{}

// GetSkuStats 查询SKU统计列表
// 参数: search/sort_by/order/top_n/page/page_size/realtime
func (sc *StatsController) GetSkuStats(c *gin.Context) {
	topN, _ := strconv.Atoi(c.DefaultQuery("top_n", "0"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	query := method.SkuStatsQuery{
		Search:   c.Query("search"),
		SortBy:   c.DefaultQuery("sort_by", "stock_gap"),
		Order:    c.DefaultQuery("order", "desc"),
		TopN:     topN,
		Page:     page,
		PageSize: pageSize,
		Realtime: c.Query("realtime") == "true",
	}

	list, total, err := method.GetSkuStats(db.DB, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询SKU统计失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{
		"list":     list,
		"total":    total,
		"realtime": query.Realtime,
	}))
}

// RecalculateStats 同步重算全部统计并刷新缓存
func (sc *StatsController) RecalculateStats(c *gin.Context) {
	skuCount, err := method.RecalculateAllStats(db.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("重算统计失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("统计重算完成", &map[string]any{"sku_count": skuCount}))
}

// updateRateRequest 手动修改退货率的请求体
type updateRateRequest struct {
	SkuCode    string   `json:"sku_code" binding:"required"`
	ReturnRate *float64 `json:"return_rate" binding:"required"`
}

// UpdateReturnRate 手动设置某SKU的预估退货率
func (sc *StatsController) UpdateReturnRate(c *gin.Context) {
	var req updateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	stats, err := method.UpdateReturnRate(db.DB, req.SkuCode, *req.ReturnRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("修改退货率失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("退货率修改成功", &map[string]any{"stats": stats}))
}

// resetRateRequest 取消手动退货率的请求体
type resetRateRequest struct {
	SkuCode string `json:"sku_code" binding:"required"`
}

// ResetReturnRate 取消手动退货率，恢复自动计算
func (sc *StatsController) ResetReturnRate(c *gin.Context) {
	var req resetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	stats, err := method.ResetReturnRate(db.DB, req.SkuCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("重置退货率失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("退货率已恢复自动计算", &map[string]any{"stats": stats}))
}

// GetSummary 查询看板汇总指标
func (sc *StatsController) GetSummary(c *gin.Context) {
	summary, err := method.GetSummary(db.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询汇总失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{"summary": summary}))
}

// GetProvinceStats 查询省份退货率统计
// 指定province参数时附带该省份的SKU明细
func (sc *StatsController) GetProvinceStats(c *gin.Context) {
	provinceName := c.Query("province")

	provinceStats, skuDetails, err := method.GetProvinceStats(db.DB, provinceName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询省份统计失败", err))
		return
	}

	data := map[string]any{"list": provinceStats}
	if provinceName != "" {
		data["sku_details"] = skuDetails
	}
	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &data))
}

// GetTrend 查询近N天订单/售后趋势
func (sc *StatsController) GetTrend(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	points, err := method.GetTrend(db.DB, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询趋势失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{"trend": points}))
}
