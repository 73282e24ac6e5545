package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flowstart/douyin-web/config"

	"github.com/golang-jwt/jwt/v4"
)

// GenerateToken 生成管理接口访问令牌
func GenerateToken(subject string, cfg config.Config) (string, error) {
	expirationTime := time.Now().Add(time.Duration(cfg.JWTConfig.AccessTokenTTL) * time.Hour)
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Subject:   subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTConfig.SecretKey))
}

// ParseToken 解析JWT令牌
func ParseToken(tokenString string, cfg config.Config) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTConfig.SecretKey), nil
	})

	return token, err
}

var (
	parenContentRe = regexp.MustCompile(`[（(][^）)]*[）)]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// CleanSkuCode 将商家编码清洗为净编码
// 规则：去掉中英文括号及括号内内容，去掉制表符，压缩连续空白
func CleanSkuCode(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\t", ""))
	if s == "" || s == "-" {
		return ""
	}

	s = parenContentRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	return s
}

// GenerateUniqueFilename 生成唯一的文件名
func GenerateUniqueFilename(originalFilename string) string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 8)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return fmt.Sprintf("%d_%s", timestamp, originalFilename)
	}

	randomStr := base64.URLEncoding.EncodeToString(randomBytes)
	randomStr = removeSpecialChars(randomStr)

	return fmt.Sprintf("%d_%s_%s", timestamp, randomStr, originalFilename)
}

// removeSpecialChars 移除字符串中的特殊字符
func removeSpecialChars(s string) string {
	result := ""
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') {
			result += string(char)
		}
	}
	return result
}

// FormatDateTime 格式化时间
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseDateTime 解析时间字符串，支持常见的几种导出格式
func ParseDateTime(datetimeStr string) (time.Time, error) {
	datetimeStr = strings.TrimSpace(datetimeStr)
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
	}
	var lastErr error
	for _, format := range formats {
		t, err := time.ParseInLocation(format, datetimeStr, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
