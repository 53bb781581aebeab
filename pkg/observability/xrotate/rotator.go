package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xlog 等日志库的输出目标。
// 所有实现都必须是并发安全的。
//
// 实现约定：
//   - Write 写入一条完整记录，触发轮转条件时自动轮转
//   - Close 可重复调用；Close 后再 Write 会按需重新打开文件
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入日志数据
	Write(p []byte) (n int, err error)

	// Close 关闭文件句柄，释放资源
	Close() error

	// Rotate 手动触发日志轮转
	Rotate() error
}
