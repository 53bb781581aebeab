// Package xfile 提供日志文件路径相关的文件系统工具。
//
//   - [SanitizePath]: 路径格式净化，拒绝空路径、空字节、相对路径穿越和目录路径
//   - [EnsureDir]/[EnsureDirWithPerm]: 确保文件父目录存在
//   - [Exists]: 判断路径是否已被占用（不跟随符号链接）
//
// 预定义错误变量支持 [errors.Is] 判断。
package xfile
