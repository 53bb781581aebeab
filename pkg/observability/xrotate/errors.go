package xrotate

import (
	"errors"
	"fmt"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxBytes MaxBytes 为负数
	ErrInvalidMaxBytes = errors.New("xrotate: invalid MaxBytes")

	// ErrInvalidMode 打开模式无效（仅支持 "a" 与 "w"）
	ErrInvalidMode = errors.New("xrotate: invalid open mode")

	// ErrInvalidEncoding 无法识别的文本编码
	ErrInvalidEncoding = errors.New("xrotate: invalid encoding")

	// ErrInvalidRetryInterval 降级重试间隔为负数
	ErrInvalidRetryInterval = errors.New("xrotate: invalid retry interval")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")
)

// 注册表错误
var (
	// ErrUnknownKind 注册表中不存在该 kind
	ErrUnknownKind = errors.New("xrotate: unknown rotator kind")

	// ErrDuplicateKind kind 已注册
	ErrDuplicateKind = errors.New("xrotate: rotator kind already registered")

	// ErrNilFactory 构造函数为 nil 或 kind 为空
	ErrNilFactory = errors.New("xrotate: invalid factory")
)

// 运行期错误，经 OnError 上报
var (
	// ErrLockUnavailable 旁路锁文件无法打开或加锁，本次写入未加锁
	ErrLockUnavailable = errors.New("xrotate: lock file unavailable")

	// ErrRotateFailed 轮转失败
	ErrRotateFailed = errors.New("xrotate: rotation failed")
)

// DegradeError 降级模式切换事件
//
// Entering 为 true 表示因轮转失败进入降级模式，Err 为底层原因；
// 为 false 表示轮转恢复、退出降级模式（仅在 debug 模式下上报）。
type DegradeError struct {
	Entering bool
	PID      int
	Reason   string
	Err      error
}

func (e *DegradeError) Error() string {
	state := "EXITING"
	if e.Entering {
		state = "ENTERING"
	}
	if e.Err != nil {
		return fmt.Sprintf("xrotate: degrade mode %s (pid=%d): %s: %v", state, e.PID, e.Reason, e.Err)
	}
	return fmt.Sprintf("xrotate: degrade mode %s (pid=%d): %s", state, e.PID, e.Reason)
}

// Unwrap 返回底层原因；进入降级时同时匹配 [ErrRotateFailed]。
func (e *DegradeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Entering {
		errs = append(errs, ErrRotateFailed)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
