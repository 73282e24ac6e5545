package method

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/method/kd100"
	"github.com/flowstart/douyin-web/models"

	"gorm.io/gorm"
)

// TrackChecker 物流签收查询接口，*kd100.Client 是默认实现
// 单测中用桩实现替换，避免真实外呼
type TrackChecker interface {
	CheckSigned(trackingNumber, companyName string) kd100.TrackStatus
}

// NewTrackerFromConfig 从系统配置构建快递100客户端
// customer/key 未配置时返回错误，调用方据此提示用户先完成配置
func NewTrackerFromConfig(gdb *gorm.DB, cfg config.Config) (*kd100.Client, error) {
	customer := models.GetConfigValue(gdb, models.ConfigKeyKD100Customer, "")
	key := models.GetConfigValue(gdb, models.ConfigKeyKD100Key, "")
	if customer == "" || key == "" {
		return nil, fmt.Errorf("%w: 快递100的customer或key未配置", ErrValidation)
	}
	return kd100.NewClient(cfg.KD100APIURL, customer, key), nil
}

// 进程内单号锁，Redis不可用时的降级方案
var (
	localLockMu sync.Mutex
	localLocks  = make(map[string]bool)
)

// acquireCodeLock 获取单号级查询锁，防止并发任务重复查同一单号
// Redis可用时用SETNX跨进程互斥，否则退化为进程内互斥
func acquireCodeLock(code string, ttl time.Duration) bool {
	if db.RDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		ok, err := db.RDB.SetNX(ctx, "logistics:lock:"+code, 1, ttl).Result()
		if err != nil {
			// Redis异常时放行，靠查询日志的间隔控制兜底
			return true
		}
		return ok
	}

	localLockMu.Lock()
	defer localLockMu.Unlock()
	if localLocks[code] {
		return false
	}
	localLocks[code] = true
	return true
}

// releaseCodeLock 释放进程内单号锁（Redis锁靠TTL过期）
func releaseCodeLock(code string) {
	if db.RDB != nil {
		return
	}
	localLockMu.Lock()
	defer localLockMu.Unlock()
	delete(localLocks, code)
}

// candidateCodes 查询待检查的物流单号及其快递公司
// 候选 = 已发货且未签收且有单号的订单，按单号去重
func candidateCodes(gdb *gorm.DB) (map[string]string, error) {
	type codeRow struct {
		LogisticsCode string
		Company       string
	}
	var rows []codeRow
	if err := gdb.Model(&models.Order{}).
		Select("logistics_code", "logistics_company AS company").
		Where("order_status = ?", models.OrderStatusShipped).
		Where("is_signed = ?", false).
		Where("logistics_code <> ''").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: 查询候选单号失败: %v", ErrStore, err)
	}

	codes := make(map[string]string, len(rows))
	for _, r := range rows {
		if _, ok := codes[r.LogisticsCode]; !ok || codes[r.LogisticsCode] == "" {
			codes[r.LogisticsCode] = r.Company
		}
	}
	return codes, nil
}

// PendingTrackingCount 当前待检查的物流单号数
func PendingTrackingCount(gdb *gorm.DB) (int, error) {
	codes, err := candidateCodes(gdb)
	if err != nil {
		return 0, err
	}
	return len(codes), nil
}

// markOrdersSigned 将共享同一物流单号的全部未签收订单标记为已签收
// 签收时间只在首次确认时写入，重复确认不覆盖
func markOrdersSigned(gdb *gorm.DB, trackingCode, statusDesc string) error {
	now := time.Now()
	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("logistics_code = ?", trackingCode).
			Where("is_signed = ?", false).
			Updates(map[string]interface{}{
				"is_signed":      true,
				"logistics_desc": statusDesc,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).
			Where("logistics_code = ?", trackingCode).
			Where("sign_time IS NULL").
			Update("sign_time", now).Error
	})
}

// upsertQueryLog 写入/更新单号查询日志，实际外呼后调用
func upsertQueryLog(gdb *gorm.DB, trackingCode, company string, status kd100.TrackStatus) error {
	now := time.Now()
	var latestTime *time.Time
	if status.LatestTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", status.LatestTime, time.Local); err == nil {
			latestTime = &t
		}
	}

	var logRow models.LogisticsQueryLog
	err := gdb.Where("tracking_code = ?", trackingCode).First(&logRow).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		logRow = models.LogisticsQueryLog{
			TrackingCode: trackingCode,
			Company:      company,
			LastQueryAt:  now,
			LastState:    status.Status,
			StatusDesc:   status.StatusDesc,
			IsSigned:     status.IsSigned,
			LatestInfo:   status.LatestContext,
			LatestTime:   latestTime,
			QueryCount:   1,
		}
		if err := gdb.Create(&logRow).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		return nil
	}

	updates := map[string]interface{}{
		"company":       company,
		"last_query_at": now,
		"last_state":    status.Status,
		"status_desc":   status.StatusDesc,
		"query_count":   gorm.Expr("query_count + 1"),
	}
	if status.IsSigned {
		updates["is_signed"] = true
	}
	if status.LatestContext != "" {
		updates["latest_info"] = status.LatestContext
	}
	if latestTime != nil {
		updates["latest_time"] = latestTime
	}
	if err := gdb.Model(&models.LogisticsQueryLog{}).
		Where("tracking_code = ?", trackingCode).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// CheckLogisticsSignStatus 批量检查在途订单的签收状态
//
// 同一单号两次查询的最小间隔由系统配置控制（默认35分钟），间隔未到的
// 单号直接跳过不外呼。limit>0时最多实际查询limit个单号。
// 单号级失败只记入Failures不中断批次。
func CheckLogisticsSignStatus(gdb *gorm.DB, checker TrackChecker, limit int, progress func(done, total int)) (models.LogisticsStats, error) {
	stats := models.LogisticsStats{Failures: []string{}}

	codes, err := candidateCodes(gdb)
	if err != nil {
		return stats, err
	}
	stats.Total = len(codes)
	if len(codes) == 0 {
		return stats, nil
	}

	// 查询间隔与已有日志
	interval := time.Duration(models.GetLogisticsInterval(gdb)) * time.Minute
	threshold := time.Now().Add(-interval)

	codeList := make([]string, 0, len(codes))
	for code := range codes {
		codeList = append(codeList, code)
	}
	sort.Strings(codeList)

	var logs []models.LogisticsQueryLog
	if err := gdb.Where("tracking_code IN ?", codeList).Find(&logs).Error; err != nil {
		return stats, fmt.Errorf("%w: 查询日志加载失败: %v", ErrStore, err)
	}
	logMap := make(map[string]models.LogisticsQueryLog, len(logs))
	for _, l := range logs {
		logMap[l.TrackingCode] = l
	}

	for i, code := range codeList {
		if progress != nil {
			progress(i, len(codeList))
		}

		// 日志已标记签收但订单未同步（例如之前的事务失败），直接补同步
		if logRow, ok := logMap[code]; ok && logRow.IsSigned {
			if err := markOrdersSigned(gdb, code, logRow.StatusDesc); err != nil {
				stats.Failures = append(stats.Failures, fmt.Sprintf("%s: 签收状态同步失败: %v", code, err))
			}
			stats.Skipped++
			continue
		}

		// 间隔未到，跳过不外呼
		if logRow, ok := logMap[code]; ok && logRow.LastQueryAt.After(threshold) {
			stats.Skipped++
			continue
		}

		if limit > 0 && stats.Checked >= limit {
			stats.Skipped++
			continue
		}

		if !acquireCodeLock(code, interval) {
			stats.Skipped++
			continue
		}

		// 拿锁后按库中最新日志复查间隔：快照加载后其他批次可能已外呼过该单号
		var fresh models.LogisticsQueryLog
		if err := gdb.Where("tracking_code = ?", code).First(&fresh).Error; err == nil && fresh.LastQueryAt.After(threshold) {
			stats.Skipped++
			releaseCodeLock(code)
			continue
		}

		status := checker.CheckSigned(code, codes[code])
		stats.Checked++

		// 失败也记录查询时间，避免对异常单号高频重试
		if err := upsertQueryLog(gdb, code, codes[code], status); err != nil {
			stats.Failures = append(stats.Failures, fmt.Sprintf("%s: %v", code, err))
			releaseCodeLock(code)
			continue
		}

		if status.Status == "error" {
			stats.Failures = append(stats.Failures, fmt.Sprintf("%s: %s", code, status.StatusDesc))
			releaseCodeLock(code)
			continue
		}

		if status.IsSigned {
			if err := markOrdersSigned(gdb, code, status.StatusDesc); err != nil {
				stats.Failures = append(stats.Failures, fmt.Sprintf("%s: 签收状态同步失败: %v", code, err))
			} else {
				stats.Signed++
			}
		}
		releaseCodeLock(code)
	}

	return stats, nil
}

// QueryTracking 查询单个物流单号的实时状态并刷新查询日志
// 手动单查不受最小间隔限制
func QueryTracking(gdb *gorm.DB, checker TrackChecker, trackingCode, company string) (kd100.TrackStatus, error) {
	if trackingCode == "" {
		return kd100.TrackStatus{}, fmt.Errorf("%w: 物流单号不能为空", ErrValidation)
	}

	if company == "" {
		// 未指定公司时从订单中回查
		var order models.Order
		if err := gdb.Where("logistics_code = ?", trackingCode).First(&order).Error; err == nil {
			company = order.Company
		}
	}

	status := checker.CheckSigned(trackingCode, company)
	if status.Status == "error" {
		return status, fmt.Errorf("%w: %s", ErrProvider, status.StatusDesc)
	}

	if err := upsertQueryLog(gdb, trackingCode, company, status); err != nil {
		return status, err
	}
	if status.IsSigned {
		if err := markOrdersSigned(gdb, trackingCode, status.StatusDesc); err != nil {
			return status, err
		}
	}
	return status, nil
}

// LogisticsOverview 物流状态总览
type LogisticsOverview struct {
	InTransitOrders int64 `json:"in_transit_orders"` // 在途订单数
	SignedOrders    int64 `json:"signed_orders"`     // 已签收订单数
	TrackedCodes    int64 `json:"tracked_codes"`     // 已跟踪单号数
	SignedCodes     int64 `json:"signed_codes"`      // 已签收单号数
	EligibleCodes   int64 `json:"eligible_codes"`    // 当前可发起查询的单号数
}

// GetLogisticsOverview 查询物流状态总览
func GetLogisticsOverview(gdb *gorm.DB) (*LogisticsOverview, error) {
	overview := &LogisticsOverview{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&overview.InTransitOrders, gdb.Model(&models.Order{}).
			Where("order_status = ? AND is_signed = ?", models.OrderStatusShipped, false).
			Where("logistics_code <> ''")},
		{&overview.SignedOrders, gdb.Model(&models.Order{}).Where("is_signed = ?", true)},
		{&overview.TrackedCodes, gdb.Model(&models.LogisticsQueryLog{})},
		{&overview.SignedCodes, gdb.Model(&models.LogisticsQueryLog{}).Where("is_signed = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}
	}

	// 可查询单号 = 候选单号中间隔已到的部分
	codes, err := candidateCodes(gdb)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(models.GetLogisticsInterval(gdb)) * time.Minute
	threshold := time.Now().Add(-interval)
	for code := range codes {
		var logRow models.LogisticsQueryLog
		err := gdb.Where("tracking_code = ?", code).First(&logRow).Error
		if err == gorm.ErrRecordNotFound || (err == nil && !logRow.IsSigned && !logRow.LastQueryAt.After(threshold)) {
			overview.EligibleCodes++
		}
	}

	return overview, nil
}
