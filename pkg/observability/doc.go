// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xrotate: 日志文件轮转，支持多进程共享同一文件
//   - xlogconf: 声明式日志配置，YAML/JSON 加载与级别热更新
//
// 设计原则：
//   - 轮转器不经 xlog 上报故障，避免写日志时递归
//   - 支持动态级别控制
package observability
