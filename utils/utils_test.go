package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSkuCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"普通编码原样保留", "ABC-001", "ABC-001"},
		{"去除中文括号内容", "ABC-001（红色XL）", "ABC-001"},
		{"去除英文括号内容", "ABC-001(red)", "ABC-001"},
		{"混合括号", "ABC（赠品）-001(2件装)", "ABC-001"},
		{"去除制表符", "ABC\t-001", "ABC-001"},
		{"压缩连续空白", "ABC   001", "ABC 001"},
		{"首尾空白", "  ABC-001  ", "ABC-001"},
		{"空值", "", ""},
		{"占位符", "-", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanSkuCode(tc.in))
		})
	}
}

func TestParseDateTime(t *testing.T) {
	// 支持的几种导出格式
	for _, in := range []string{
		"2024-01-02 15:04:05",
		"2024-01-02",
		"2024/01/02 15:04:05",
		"2024/01/02",
	} {
		parsed, err := ParseDateTime(in)
		require.NoError(t, err, "格式 %s 应能解析", in)
		assert.Equal(t, 2024, parsed.Year())
		assert.Equal(t, time.January, parsed.Month())
		assert.Equal(t, 2, parsed.Day())
	}

	// 带首尾空白
	parsed, err := ParseDateTime("  2024-01-02 15:04:05  ")
	require.NoError(t, err)
	assert.Equal(t, 15, parsed.Hour())

	_, err = ParseDateTime("not-a-date")
	assert.Error(t, err)
}

func TestGenerateUniqueFilename(t *testing.T) {
	a := GenerateUniqueFilename("orders.xlsx")
	b := GenerateUniqueFilename("orders.xlsx")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "orders.xlsx")
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local)
	assert.Equal(t, "2024-01-02 15:04:05", FormatDateTime(ts))
}
