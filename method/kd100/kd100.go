package kd100

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// 快递公司编码映射（来源：快递100官方编码表）
// 包含常用快递公司及其别名映射
var companyCodeMap = map[string]string{
	// 顺丰
	"顺丰速运": "shunfeng",
	"顺丰快递": "shunfeng",
	"顺丰":   "shunfeng",
	"顺丰快运": "shunfengkuaiyun",
	// 中通
	"中通快递": "zhongtong",
	"中通":   "zhongtong",
	"中通快运": "zhongtongkuaiyun",
	// 圆通
	"圆通速递": "yuantong",
	"圆通快递": "yuantong",
	"圆通":   "yuantong",
	// 韵达
	"韵达快递": "yunda",
	"韵达":   "yunda",
	"韵达快运": "yundakuaiyun",
	// 申通
	"申通快递": "shentong",
	"申通":   "shentong",
	// 极兔
	"极兔速递": "jtexpress",
	"极兔快递": "jtexpress",
	"极兔":   "jtexpress",
	// 京东
	"京东物流": "jd",
	"京东快递": "jd",
	"京东":   "jd",
	// 邮政/EMS
	"邮政快递包裹": "youzhengguonei",
	"邮政快递":   "youzhengguonei",
	"邮政":     "youzhengguonei",
	"EMS":    "ems",
	"邮政电商标快": "youzhengdsbk",
	// 德邦
	"德邦快递": "debangkuaidi",
	"德邦":   "debangkuaidi",
	"德邦物流": "debangwuliu",
	// 百世
	"百世快递": "huitongkuaidi",
	"百世":   "huitongkuaidi",
	// 菜鸟
	"菜鸟速递": "danniao",
	"菜鸟":   "danniao",
	// 其他常用快递
	"天天快递": "tiantian",
	"跨越速运": "kuayue",
	"宅急送":  "zhaijisong",
	"苏宁物流": "suning",
}

// TrackStatus 归一化后的物流状态
type TrackStatus struct {
	IsSigned      bool   `json:"is_signed"`
	Status        string `json:"status"`
	StatusDesc    string `json:"status_desc"`
	LatestTime    string `json:"latest_time"`
	LatestContext string `json:"latest_context"`
	TrackCount    int    `json:"track_count"`
}

// QueryResponse 快递100实时查询接口响应
type QueryResponse struct {
	Message string `json:"message"`
	State   string `json:"state"`
	Status  string `json:"status"`
	Data    []struct {
		Time    string `json:"time"`
		Context string `json:"context"`
	} `json:"data"`
}

// Client 快递100 API 客户端
type Client struct {
	APIURL   string
	Customer string
	Key      string

	httpClient *http.Client
}

// NewClient 创建快递100客户端
func NewClient(apiURL, customer, key string) *Client {
	return &Client{
		APIURL:   apiURL,
		Customer: customer,
		Key:      key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetCompanyCode 根据快递公司名称获取编码
// 先精确匹配，再模糊匹配，最后回退为清理后的原名称
func GetCompanyCode(companyName string) string {
	if code, ok := companyCodeMap[companyName]; ok {
		return code
	}

	for name, code := range companyCodeMap {
		if strings.Contains(companyName, name) || strings.Contains(name, companyName) {
			return code
		}
	}

	code := strings.ToLower(companyName)
	code = strings.ReplaceAll(code, "快递", "")
	code = strings.ReplaceAll(code, "速递", "")
	return code
}

// generateSign 生成签名
// sign = MD5(param + key + customer)，转大写
func (c *Client) generateSign(param string) string {
	h := md5.New()
	h.Write([]byte(param + c.Key + c.Customer))
	return strings.ToUpper(fmt.Sprintf("%x", h.Sum(nil)))
}

// Query 查询物流轨迹，返回原始响应
func (c *Client) Query(trackingNumber, companyName string) (*QueryResponse, error) {
	companyCode := GetCompanyCode(companyName)

	// 构建请求参数，param为紧凑JSON
	paramBytes, err := json.Marshal(map[string]string{
		"com": companyCode,
		"num": trackingNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("构建请求参数失败: %v", err)
	}
	param := string(paramBytes)

	data := url.Values{}
	data.Set("customer", c.Customer)
	data.Set("sign", c.generateSign(param))
	data.Set("param", param)

	req, err := http.NewRequest("POST", c.APIURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求状态异常: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %v", err)
	}

	var result QueryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}

	return &result, nil
}

// 快递100 state 状态码：
// 常见：0-在途 1-揽收 2-疑难 3-签收 4-退签 5-派件 6-退回 7-转投
// 兼容扩展：301/302/303/304 也视为已签收（不同产品线可能返回扩展码）
var signedStates = map[string]bool{
	"3": true, "301": true, "302": true, "303": true, "304": true,
}

var stateMap = map[string][2]string{
	"0":   {"in_transit", "在途"},
	"1":   {"collected", "已揽收"},
	"2":   {"problem", "疑难"},
	"3":   {"signed", "已签收"},
	"301": {"signed", "已签收"},
	"302": {"signed", "已签收"},
	"303": {"signed", "已签收"},
	"304": {"signed", "已签收"},
	"4":   {"rejected", "退签"},
	"5":   {"delivering", "派件中"},
	"6":   {"returning", "退回"},
	"7":   {"transferred", "转投"},
}

// ParseStatus 解析物流状态为归一化结构
func ParseStatus(result *QueryResponse) TrackStatus {
	status, desc := "unknown", "未知"
	if info, ok := stateMap[result.State]; ok {
		status, desc = info[0], info[1]
	}

	parsed := TrackStatus{
		IsSigned:   signedStates[result.State],
		Status:     status,
		StatusDesc: desc,
		TrackCount: len(result.Data),
	}

	// 最新轨迹在数组首位
	if len(result.Data) > 0 {
		parsed.LatestTime = result.Data[0].Time
		parsed.LatestContext = result.Data[0].Context
	}

	return parsed
}

// CheckSigned 查询并判断是否已签收
// 外部调用失败不抛出，统一归一化为 status=error 的结果
func (c *Client) CheckSigned(trackingNumber, companyName string) TrackStatus {
	result, err := c.Query(trackingNumber, companyName)
	if err != nil {
		return TrackStatus{Status: "error", StatusDesc: err.Error()}
	}

	if result.Message != "ok" {
		desc := result.Message
		if desc == "" {
			desc = "查询失败"
		}
		return TrackStatus{Status: "error", StatusDesc: desc}
	}

	return ParseStatus(result)
}

// ExpressInfo 从快递信息字符串解析出的单号与公司
type ExpressInfo struct {
	TrackingNumber string
	CompanyName    string
}

// ParseExpressInfo 解析快递信息字符串
// 格式: "物流单号-快递公司,商品信息-商品ID,数量;"
// 例如: "770291786060549-申通快递,商品名称-3788410999938351943,1;"
func ParseExpressInfo(expressStr string) ExpressInfo {
	expressStr = strings.TrimSpace(expressStr)
	if expressStr == "" || expressStr == "-" {
		return ExpressInfo{}
	}

	firstPart := strings.Split(expressStr, ",")[0]
	parts := strings.SplitN(firstPart, "-", 2)
	if len(parts) < 2 {
		return ExpressInfo{}
	}

	return ExpressInfo{
		TrackingNumber: strings.TrimSpace(parts[0]),
		CompanyName:    strings.TrimSpace(parts[1]),
	}
}
