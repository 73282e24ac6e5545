package notify

import (
	"fmt"
	"log"

	"github.com/flowstart/douyin-web/models"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v5/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"gorm.io/gorm"
)

// createSmsClient 创建短信客户端，凭证从系统配置表读取
func createSmsClient(gdb *gorm.DB) (*dysmsapi20170525.Client, error) {
	accessKeyID := models.GetConfigValue(gdb, models.ConfigKeySmsAccessKeyID, "")
	accessKeySecret := models.GetConfigValue(gdb, models.ConfigKeySmsAccessSecret, "")
	if accessKeyID == "" || accessKeySecret == "" {
		return nil, fmt.Errorf("短信凭证未配置")
	}

	clientConfig := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
	}
	// Endpoint 请参考 https://api.aliyun.com/product/Dysmsapi
	clientConfig.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	return dysmsapi20170525.NewClient(clientConfig)
}

// SendSms 发送短信，模板参数为JSON字符串
func SendSms(gdb *gorm.DB, phoneNumber, templateParam string) (*string, error) {
	client, err := createSmsClient(gdb)
	if err != nil {
		return nil, fmt.Errorf("创建客户端失败: %v", err)
	}

	signName := models.GetConfigValue(gdb, models.ConfigKeySmsSignName, "")
	templateCode := models.GetConfigValue(gdb, models.ConfigKeySmsTemplateCode, "")
	if signName == "" || templateCode == "" {
		return nil, fmt.Errorf("短信签名或模板未配置")
	}

	sendSmsRequest := &dysmsapi20170525.SendSmsRequest{
		PhoneNumbers:  tea.String(phoneNumber),
		SignName:      tea.String(signName),
		TemplateCode:  tea.String(templateCode),
		TemplateParam: tea.String(templateParam),
	}
	runtime := &util.RuntimeOptions{}

	resp, err := client.SendSmsWithOptions(sendSmsRequest, runtime)
	if err != nil {
		var sdkErr = &tea.SDKError{}
		if _t, ok := err.(*tea.SDKError); ok {
			sdkErr = _t
		} else {
			sdkErr.Message = tea.String(err.Error())
		}
		return nil, fmt.Errorf("发送短信失败: %s", tea.StringValue(sdkErr.Message))
	}

	return util.ToJSONString(resp), nil
}

// SendTaskFailureAlert 任务失败时向告警手机号发送短信
// 未配置告警手机号时静默跳过，发送失败只记日志
func SendTaskFailureAlert(gdb *gorm.DB, taskID, errMsg string) {
	phone := models.GetConfigValue(gdb, models.ConfigKeyAlertPhone, "")
	if phone == "" {
		return
	}

	// 模板变量过长会被运营商拒绝，截断错误信息
	if runes := []rune(errMsg); len(runes) > 60 {
		errMsg = string(runes[:60])
	}
	param := fmt.Sprintf(`{"task":"%s","error":"%s"}`, taskID, errMsg)

	if _, err := SendSms(gdb, phone, param); err != nil {
		log.Printf("发送任务失败告警短信出错 %s: %v", taskID, err)
	}
}
