package method

import (
	"errors"
)

// 错误分级：行级/单号级错误被聚合进任务结果，仅存储错误升级为任务失败
var (
	// ErrNotFound 记录不存在（任务/SKU/配置键）
	ErrNotFound = errors.New("记录不存在")

	// ErrValidation 数据校验失败（缺少必要标识的行，按跳过计数，不中断批次）
	ErrValidation = errors.New("数据校验失败")

	// ErrProvider 快递100等外部服务调用失败（按单号记录，不中断批次）
	ErrProvider = errors.New("外部服务调用失败")

	// ErrStore 存储层I/O失败（当前任务致命，任务转为failed）
	ErrStore = errors.New("存储访问失败")

	// ErrTaskTerminal 任务已进入终态，不允许再变更
	ErrTaskTerminal = errors.New("任务已结束")
)
