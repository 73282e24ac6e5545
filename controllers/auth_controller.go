package controllers

import (
	"net/http"

	"github.com/flowstart/douyin-web/config"
	"github.com/flowstart/douyin-web/db"
	"github.com/flowstart/douyin-web/models"
	"github.com/flowstart/douyin-web/service/msg"
	"github.com/flowstart/douyin-web/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthController 管理认证控制器
type AuthController struct{}

// loginRequest 登录请求体
type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login 管理密码登录，校验通过后签发JWT
// 密码哈希存于系统配置表，未设置密码时拒绝登录
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	passwordHash := models.GetConfigValue(db.DB, models.ConfigKeyAdminPassword, "")
	if passwordHash == "" {
		c.JSON(http.StatusUnauthorized, msg.ErrResponseStr("管理密码未设置，请先通过配置接口设置admin_password_hash"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, msg.ErrResponseStr("密码错误"))
		return
	}

	appConfig := config.LoadConfig()
	token, err := utils.GenerateToken("admin", appConfig)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("生成令牌失败", err))
		return
	}

	c.JSON(http.StatusOK, msg.SuccessResponse("登录成功", &map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
	}))
}

// Setup 首次设置管理密码，仅在密码尚未设置时可用
// 之后修改密码走受保护的配置接口
func (ac *AuthController) Setup(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, msg.ErrResponse("参数校验失败", err))
		return
	}

	if models.GetConfigValue(db.DB, models.ConfigKeyAdminPassword, "") != "" {
		c.JSON(http.StatusForbidden, msg.ErrResponseStr("管理密码已设置，请通过配置接口修改"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, msg.ErrResponse("密码加密失败", err))
		return
	}

	cfg := models.SystemConfig{
		ConfigKey:   models.ConfigKeyAdminPassword,
		ConfigValue: string(hashed),
		Description: "管理密码（bcrypt哈希）",
	}
	var existing models.SystemConfig
	if err := db.DB.Where("config_key = ?", models.ConfigKeyAdminPassword).First(&existing).Error; err != nil {
		if err := db.DB.Create(&cfg).Error; err != nil {
			c.JSON(http.StatusInternalServerError, msg.ErrResponse("保存密码失败", err))
			return
		}
	} else {
		if err := db.DB.Model(&models.SystemConfig{}).
			Where("config_key = ?", models.ConfigKeyAdminPassword).
			Update("config_value", string(hashed)).Error; err != nil {
			c.JSON(http.StatusInternalServerError, msg.ErrResponse("保存密码失败", err))
			return
		}
	}

	c.JSON(http.StatusOK, msg.SuccessResponseStr("管理密码设置成功"))
}
