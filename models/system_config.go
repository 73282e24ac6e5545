package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// SystemConfig 系统配置表
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConfigKey   string    `gorm:"column:config_key;size:64;not null;uniqueIndex" json:"config_key"` // 配置键
	ConfigValue string    `gorm:"column:config_value;type:text" json:"config_value"`                // 配置值
	Description string    `gorm:"column:description;size:256" json:"description"`                   // 配置描述
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 设置表名
func (SystemConfig) TableName() string {
	return "system_configs"
}

// 预定义配置键
const (
	ConfigKeyKD100Customer     = "kd100_customer"           // 快递100 Customer ID
	ConfigKeyKD100Key          = "kd100_key"                // 快递100 API Key
	ConfigKeyLogisticsInterval = "logistics_query_interval" // 物流查询间隔（分钟）
	ConfigKeyAdminPassword     = "admin_password_hash"      // 管理密码（bcrypt哈希）
	ConfigKeyAlertPhone        = "alert_phone"              // 任务失败短信告警手机号
	ConfigKeySmsAccessKeyID    = "sms_access_key_id"        // 阿里云短信 AccessKeyId
	ConfigKeySmsAccessSecret   = "sms_access_key_secret"    // 阿里云短信 AccessKeySecret
	ConfigKeySmsSignName       = "sms_sign_name"            // 短信签名
	ConfigKeySmsTemplateCode   = "sms_template_code"        // 短信模板编码
	ConfigKeyDingTalkWebhook   = "dingtalk_webhook"         // 钉钉机器人Webhook
	ConfigKeyDingTalkSecret    = "dingtalk_secret"          // 钉钉机器人加签密钥
)

// 物流查询间隔边界（分钟）
// 间隔过短会触发快递100对单号的频率封锁，因此写入时强制钳制
const (
	DefaultLogisticsInterval = 35
	MinLogisticsInterval     = 30
	MaxLogisticsInterval     = 1440
)

// DefaultConfigs 默认配置项
var DefaultConfigs = []SystemConfig{
	{ConfigKey: ConfigKeyKD100Customer, ConfigValue: "", Description: "快递100 Customer ID"},
	{ConfigKey: ConfigKeyKD100Key, ConfigValue: "", Description: "快递100 API Key"},
	{ConfigKey: ConfigKeyLogisticsInterval, ConfigValue: "35", Description: "同一物流单号查询间隔（分钟），默认35分钟"},
	{ConfigKey: ConfigKeyAlertPhone, ConfigValue: "", Description: "任务失败短信告警手机号，留空不发送"},
	{ConfigKey: ConfigKeyDingTalkWebhook, ConfigValue: "", Description: "导入完成钉钉通知Webhook，留空不发送"},
}

// InitDefaultConfigs 初始化默认配置（不存在时写入）
func InitDefaultConfigs(db *gorm.DB) error {
	for _, cfg := range DefaultConfigs {
		var count int64
		if err := db.Model(&SystemConfig{}).Where("config_key = ?", cfg.ConfigKey).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// GetConfigValue 获取配置值，不存在时返回默认值
func GetConfigValue(db *gorm.DB, key, defaultValue string) string {
	var cfg SystemConfig
	if err := db.Where("config_key = ?", key).First(&cfg).Error; err != nil {
		return defaultValue
	}
	if cfg.ConfigValue == "" {
		return defaultValue
	}
	return cfg.ConfigValue
}

// GetLogisticsInterval 获取物流查询间隔（分钟），解析失败或越界时钳制到[30, 1440]
func GetLogisticsInterval(db *gorm.DB) int {
	value := GetConfigValue(db, ConfigKeyLogisticsInterval, strconv.Itoa(DefaultLogisticsInterval))
	interval, err := strconv.Atoi(value)
	if err != nil {
		return DefaultLogisticsInterval
	}
	if interval < MinLogisticsInterval {
		return MinLogisticsInterval
	}
	if interval > MaxLogisticsInterval {
		return MaxLogisticsInterval
	}
	return interval
}
