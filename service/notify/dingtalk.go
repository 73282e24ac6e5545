package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flowstart/douyin-web/models"

	"gorm.io/gorm"
)

// DingTalkMessage 钉钉消息
type DingTalkMessage struct {
	Msgtype  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
	At struct {
		IsAtAll bool `json:"isAtAll"`
	} `json:"at"`
}

// signWebhookURL 钉钉机器人加签
// 密钥为空时直接返回原始webhook
func signWebhookURL(webhook, secret string) string {
	if secret == "" {
		return webhook
	}

	timestamp := strconv.FormatInt(time.Now().UnixNano()/1000000, 10)
	signStr := timestamp + "\n" + secret
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(signStr))
	sign := url.QueryEscape(base64.StdEncoding.EncodeToString(h.Sum(nil)))

	return webhook + "&timestamp=" + timestamp + "&sign=" + sign
}

// SendDingTalkMessage 发送钉钉markdown消息
func SendDingTalkMessage(webhook, secret, title, text string) error {
	if webhook == "" {
		return nil
	}

	message := DingTalkMessage{Msgtype: "markdown"}
	message.Markdown.Title = title
	message.Markdown.Text = text
	message.At.IsAtAll = false

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %v", err)
	}

	req, err := http.NewRequest("POST", signWebhookURL(webhook, secret), bytes.NewBuffer(messageJSON))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("请求状态异常: %d", resp.StatusCode)
	}

	return nil
}

// buildTaskSummaryText 构建任务完成的markdown通知内容
func buildTaskSummaryText(task *models.ImportTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### 📦 任务 %s 处理完成\n\n", task.TaskID)

	if task.OrderStats != nil {
		s := task.OrderStats
		fmt.Fprintf(&b, "**订单导入**:\n- 总行数: %d\n- 新增: %d\n- 更新: %d\n- 跳过: %d\n\n", s.Total, s.Created, s.Updated, s.Skipped)
	}
	if task.AfterSaleStats != nil {
		s := task.AfterSaleStats
		fmt.Fprintf(&b, "**售后导入**:\n- 总行数: %d\n- 新增: %d\n- 更新: %d\n- 跳过: %d\n\n", s.Total, s.Created, s.Updated, s.Skipped)
	}
	if task.Logistics != nil {
		s := task.Logistics
		fmt.Fprintf(&b, "**物流检查**:\n- 候选单号: %d\n- 实际查询: %d\n- 新增签收: %d\n- 跳过: %d\n- 失败: %d\n\n", s.Total, s.Checked, s.Signed, s.Skipped, len(s.Failures))
	}
	if task.SkuStatsCount > 0 {
		fmt.Fprintf(&b, "**统计重算**: 覆盖 %d 个SKU\n\n", task.SkuStatsCount)
	}

	fmt.Fprintf(&b, "**处理时间**: %s", time.Now().Format("2006-01-02 15:04:05"))
	return b.String()
}

// SendTaskSummary 任务完成后发送钉钉通知
// 未配置webhook时静默跳过，发送失败只记日志不影响任务状态
func SendTaskSummary(gdb *gorm.DB, task *models.ImportTask) {
	webhook := models.GetConfigValue(gdb, models.ConfigKeyDingTalkWebhook, "")
	if webhook == "" {
		return
	}
	secret := models.GetConfigValue(gdb, models.ConfigKeyDingTalkSecret, "")

	if err := SendDingTalkMessage(webhook, secret, "数据同步报告", buildTaskSummaryText(task)); err != nil {
		log.Printf("发送钉钉通知失败 %s: %v", task.TaskID, err)
	}
}
