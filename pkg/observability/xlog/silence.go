package xlog

import "sync/atomic"

// silenced Silence 的嵌套深度
var silenced atomic.Int32

// Silence 在 fn 执行期间关闭本包创建的所有 Logger 的输出
//
// 作用于整个进程，可嵌套；fn panic 时同样恢复。常用于测试中屏蔽预期内的噪声日志。
func Silence(fn func()) {
	silenced.Add(1)
	defer silenced.Add(-1)
	fn()
}

// Silenced 报告当前是否处于 Silence 期间
func Silenced() bool {
	return silenced.Load() > 0
}
