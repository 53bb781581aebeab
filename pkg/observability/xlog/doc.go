// Package xlog 基于 log/slog 的结构化日志库。
//
// # 创建 Logger
//
// Builder 模式，遇到的第一个配置错误由 [Builder.Build] 返回：
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelDebug).
//		SetRotation("/var/log/app/debug.log", xrotate.WithMaxBytes(300000)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// [Builder.SetRotation] 输出到多进程共享的按大小轮转文件（[xrotate.NewSize]），
// [Builder.SetRotator] 接受任意 [xrotate.Rotator]。[Builder.AddHandler] 追加额外输出，
// 同一条记录分发给所有输出，各输出可以有自己的级别与格式。
//
// # 全局 Logger
//
// [Default]、[SetDefault]、[ResetDefault] 以及 [Debug]、[Info]、[Warn]、[Error]、[Stack]。
// [Silence] 在函数执行期间关闭本包所有 Logger 的输出。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，与 slog 一致；
// LevelCritical(12) 只作阈值使用。[ParseLevel] 另外接受 warning、fatal、notset，
// 便于直接读取沿用 CRITICAL/NOTSET 写法的日志配置。
//
// 派生 Logger（With/WithGroup）共享父级的 LevelVar，动态级别变更同步生效。
package xlog
