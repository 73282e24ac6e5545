package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/service/msg"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ConfigController 系统配置控制器
type ConfigController struct{}

// 值需要脱敏展示的配置键片段
var sensitiveKeyParts = []string{"key", "secret", "password", "token"}

// maskConfigValue 敏感配置值脱敏
func maskConfigValue(configKey, value string) string {
	if value == "" {
		return ""
	}
	lower := strings.ToLower(configKey)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return "******"
		}
	}
	return value
}

// ListConfigs 查询全部系统配置（敏感值脱敏）
func (cc *ConfigController) ListConfigs(c *gin.Context) {
	var configs []models.SystemConfig
	if err := db.DB.Order("config_key ASC").Find(&configs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("查询配置失败", err))
		return
	}

	list := make([]map[string]any, 0, len(configs))
	for _, cfg := range configs {
		list = append(list, map[string]any{
			"config_key":   cfg.ConfigKey,
			"config_value": maskConfigValue(cfg.ConfigKey, cfg.ConfigValue),
			"description":  cfg.Description,
			"is_set":       cfg.ConfigValue != "",
			"updated_at":   cfg.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("查询成功", &map[string]any{"configs": list}))
}

// updateConfigRequest 更新配置的请求体
type updateConfigRequest struct {
	ConfigKey   string `json:"config_key" binding:"required"`
	ConfigValue string `json:"config_value"`
	Description string `json:"description"`
}

// normalizeConfigValue 对特定配置键做写入前处理
// 查询间隔钳制到[30,1440]；管理密码存bcrypt哈希
func normalizeConfigValue(configKey, value string) (string, error) {
	switch configKey {
	case models.ConfigKeyLogisticsInterval:
		interval, err := strconv.Atoi(value)
		if err != nil {
			return "", err
		}
		if interval < models.MinLogisticsInterval {
			interval = models.MinLogisticsInterval
		}
		if interval > models.MaxLogisticsInterval {
			interval = models.MaxLogisticsInterval
		}
		return strconv.Itoa(interval), nil
	case models.ConfigKeyAdminPassword:
		hashed, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
	return value, nil
}

// upsertConfig 写入单个配置项
func upsertConfig(configKey, configValue, description string) error {
	value, err := normalizeConfigValue(configKey, configValue)
	if err != nil {
		return err
	}

	var existing models.SystemConfig
	if err := db.DB.Where("config_key = ?", configKey).First(&existing).Error; err != nil {
		cfg := models.SystemConfig{
			ConfigKey:   configKey,
			ConfigValue: value,
			Description: description,
		}
		return db.DB.Create(&cfg).Error
	}

	updates := map[string]interface{}{"config_value": value}
	if description != "" {
		updates["description"] = description
	}
	return db.DB.Model(&models.SystemConfig{}).Where("config_key = ?", configKey).Updates(updates).Error
}

// UpdateConfig 更新单个系统配置
func (cc *ConfigController) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	if err := upsertConfig(req.ConfigKey, req.ConfigValue, req.Description); err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("更新配置失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("配置更新成功", &map[string]any{"config_key": req.ConfigKey}))
}

// batchUpdateRequest 批量更新配置的请求体
type batchUpdateRequest struct {
	Configs map[string]string `json:"configs" binding:"required"`
}

// BatchUpdateConfigs 批量更新系统配置
func (cc *ConfigController) BatchUpdateConfigs(c *gin.Context) {
	var req batchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	updated := make([]string, 0, len(req.Configs))
	for key, value := range req.Configs {
		if err := upsertConfig(key, value, ""); err != nil {
			c.JSON(http.StatusInternalServerError, msg.ErrResponse("更新配置 "+key+" 失败", err))
			return
		}
		updated = append(updated, key)
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("配置批量更新成功", &map[string]any{"updated": updated}))
}
