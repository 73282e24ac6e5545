package kd100

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCompanyCode(t *testing.T) {
	// 精确匹配
	assert.Equal(t, "shunfeng", GetCompanyCode("顺丰速运"))
	assert.Equal(t, "zhongtong", GetCompanyCode("中通快递"))
	assert.Equal(t, "jd", GetCompanyCode("京东物流"))

	// 模糊匹配
	assert.Equal(t, "yuantong", GetCompanyCode("圆通速递有限公司"))

	// 未知公司回退为清理后的小写名称
	assert.Equal(t, "unknownexpress", GetCompanyCode("UnknownExpress快递"))
}

func TestParseStatusSigned(t *testing.T) {
	for _, state := range []string{"3", "301", "302", "303", "304"} {
		result := &QueryResponse{State: state}
		parsed := ParseStatus(result)
		assert.True(t, parsed.IsSigned, "state %s 应判定为已签收", state)
		assert.Equal(t, "signed", parsed.Status)
	}
}

func TestParseStatusInTransit(t *testing.T) {
	result := &QueryResponse{State: "0"}
	result.Data = []struct {
		Time    string `json:"time"`
		Context string `json:"context"`
	}{
		{Time: "2024-01-02 10:00:00", Context: "快件已到达杭州转运中心"},
		{Time: "2024-01-01 20:00:00", Context: "快件已揽收"},
	}

	parsed := ParseStatus(result)
	assert.False(t, parsed.IsSigned)
	assert.Equal(t, "in_transit", parsed.Status)
	assert.Equal(t, "在途", parsed.StatusDesc)
	assert.Equal(t, 2, parsed.TrackCount)
	// 最新轨迹取数组首位
	assert.Equal(t, "2024-01-02 10:00:00", parsed.LatestTime)
	assert.Equal(t, "快件已到达杭州转运中心", parsed.LatestContext)
}

func TestParseStatusUnknownState(t *testing.T) {
	parsed := ParseStatus(&QueryResponse{State: "99"})
	assert.False(t, parsed.IsSigned)
	assert.Equal(t, "unknown", parsed.Status)
}

func TestGenerateSign(t *testing.T) {
	c := NewClient("https://poll.kuaidi100.com/poll/query.do", "customer1", "key1")

	sign := c.generateSign(`{"com":"shunfeng","num":"SF123"}`)
	// 32位大写十六进制
	assert.Len(t, sign, 32)
	assert.Equal(t, sign, c.generateSign(`{"com":"shunfeng","num":"SF123"}`))
	for _, ch := range sign {
		assert.True(t, (ch >= '0' && ch <= '9') || (ch >= 'A' && ch <= 'F'))
	}

	// 参数或密钥变化时签名变化
	other := NewClient("https://poll.kuaidi100.com/poll/query.do", "customer1", "key2")
	assert.NotEqual(t, sign, other.generateSign(`{"com":"shunfeng","num":"SF123"}`))
	assert.NotEqual(t, sign, c.generateSign(`{"com":"shunfeng","num":"SF124"}`))
}

func TestParseExpressInfo(t *testing.T) {
	info := ParseExpressInfo("770291786060549-申通快递,商品名称-3788410999938351943,1;")
	assert.Equal(t, "770291786060549", info.TrackingNumber)
	assert.Equal(t, "申通快递", info.CompanyName)

	// 空值与占位符
	assert.Equal(t, ExpressInfo{}, ParseExpressInfo(""))
	assert.Equal(t, ExpressInfo{}, ParseExpressInfo("-"))
	assert.Equal(t, ExpressInfo{}, ParseExpressInfo("无物流信息"))

	// 只有单号和公司
	info = ParseExpressInfo("SF1234567890-顺丰速运")
	assert.Equal(t, "SF1234567890", info.TrackingNumber)
	assert.Equal(t, "顺丰速运", info.CompanyName)
}
