package xlog

// SetNewBuilderForTest 替换默认 Logger 的构建器工厂，返回恢复函数
func SetNewBuilderForTest(fn func() *Builder) func() {
	old := newBuilder
	newBuilder = fn
	return func() { newBuilder = old }
}

// ErrorCountOf 返回 Logger 的内部错误计数
func ErrorCountOf(l Logger) uint64 {
	if xl, ok := l.(*xlogger); ok {
		return xl.ErrorCount()
	}
	return 0
}
