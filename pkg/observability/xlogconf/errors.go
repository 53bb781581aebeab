package xlogconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xlogconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xlogconf: unsupported config format")

	// ErrLoadFailed 读取配置失败
	ErrLoadFailed = errors.New("xlogconf: failed to load config")

	// ErrParseFailed 解析配置失败
	ErrParseFailed = errors.New("xlogconf: failed to parse config")

	// ErrUnmarshalFailed 配置结构不匹配
	ErrUnmarshalFailed = errors.New("xlogconf: failed to unmarshal config")

	// ErrUnknownHandler use 引用了未定义的 handler
	ErrUnknownHandler = errors.New("xlogconf: unknown handler")

	// ErrInvalidTarget stream handler 的 target 不是 stdout/stderr
	ErrInvalidTarget = errors.New("xlogconf: invalid stream target")

	// ErrNoHandlers use 为空
	ErrNoHandlers = errors.New("xlogconf: no handlers in use")
)
