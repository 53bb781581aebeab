// Package xrotate 提供按大小轮转的日志文件写入器。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 实现
//
//   - [NewSize]: 多进程协作的按大小轮转（旁路锁文件 + 两次原子 rename）
//   - [NewLumberjack]: 基于 lumberjack v2 的单进程轮转，带备份保留与压缩
//
// # 多进程轮转
//
// [SizeRotator] 在每次写入时对 [LockPath] 推导出的旁路锁文件加排他锁，
// 锁内完成"检查大小 → 关闭 → 重命名 → 重新打开 → 追加"。
// 轮转后的文件命名为 <filename>.<UTC 时间戳>，同一秒内重复轮转时追加 .1、.2 后缀。
// 不做旧文件清理，需要保留策略时使用 lumberjack 实现或外部工具。
//
// 重命名失败（如 Windows 上文件被其他进程占用）时进入降级模式：不再反复尝试轮转，
// 写入继续追加到同一个文件，每次写入后关闭句柄以减少占用。文件大小回落到阈值以下
// 或重试间隔过后再次尝试。轮转错误从不返回给 Write 的调用方，只通过 OnError 回调上报。
//
// # 注册表
//
// [Registry] 按字符串 kind 查找构造函数，供声明式配置使用。内置 "size" 与 "lumberjack"，
// 在 [NewRegistry] 中显式注册，不依赖包导入副作用。
package xrotate
