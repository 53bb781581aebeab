// Package xlogconf 声明式日志配置。
//
// 配置描述一组具名输出（handler）和根 Logger 使用其中哪些：
//
//	level: debug
//	use: [file]
//	handlers:
//	  default:
//	    kind: stream
//	    target: stderr
//	  file:
//	    kind: size
//	    rotation:
//	      filename: /var/log/app/debug.log
//	      max_bytes: 300000
//
// kind 为 "stream" 时写标准输出或标准错误，其余 kind 交给 [xrotate.Registry] 构造轮转器，
// 因此多个进程可以共享同一个配置、写同一个文件。
//
// [Load]/[LoadBytes] 通过 koanf 解析 YAML 或 JSON；[Build] 生成 xlog Logger；
// [Watcher] 基于 fsnotify 在配置文件变化时热更新日志级别。
//
// [FileLogger]、[StdoutLogger] 是最常见两种配置的快捷方式，直接替换全局 Logger。
package xlogconf
