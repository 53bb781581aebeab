package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xwrench/pkg/observability/xrotate"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrNoHandler 既没有输出目标也没有追加 handler
var ErrNoHandler = errors.New("xlog: no output or handler configured")

// ReplaceAttrFunc 属性替换函数类型
//
// 用于字段重命名、脱敏、过滤。返回空 Key 的 Attr 会移除该属性。
//
//	func(groups []string, a slog.Attr) slog.Attr {
//	    if a.Key == "password" {
//	        return slog.String("password", "***")
//	    }
//	    return a
//	}
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器
//
// first-error-wins：第一个配置错误之后的 Set 调用仍会执行，但 Build 返回该错误。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	handlers    []slog.Handler
	rotator     xrotate.Rotator
	onError     func(error)
	err         error
}

// New 创建配置构建器（默认 stderr、Info、text）
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   FormatText,
	}
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// SetOutput 设置主输出目标；nil 表示只使用 AddHandler 追加的 handler
func (b *Builder) SetOutput(w io.Writer) *Builder {
	b.output = w
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值视为 text
func (b *Builder) SetFormat(format string) *Builder {
	f, err := normalizeFormat(format)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.format = f
	return b
}

func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("xlog: unknown format %q", format)
	}
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 输出到多进程共享的按大小轮转文件
//
// 轮转器的故障回调未设置时使用 SetOnError 的回调。
func (b *Builder) SetRotation(filename string, opts ...xrotate.SizeOption) *Builder {
	if b.onError != nil {
		opts = append([]xrotate.SizeOption{xrotate.WithOnError(b.onError)}, opts...)
	}
	r, err := xrotate.NewSize(filename, opts...)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetRotator(r)
}

// SetRotator 使用已构造的轮转器作为主输出，cleanup 时关闭
func (b *Builder) SetRotator(r xrotate.Rotator) *Builder {
	if r == nil {
		b.setErr(fmt.Errorf("xlog: nil rotator"))
		return b
	}
	b.rotator = r
	b.output = r
	return b
}

// AddHandler 追加一个输出 handler，记录会同时分发给主输出和所有追加的 handler
//
// 追加的 handler 自带级别过滤，但同时受 Builder 级别约束。
func (b *Builder) AddHandler(h slog.Handler) *Builder {
	if h == nil {
		b.setErr(fmt.Errorf("xlog: nil handler"))
		return b
	}
	b.handlers = append(b.handlers, h)
	return b
}

// SetOnError 设置内部错误回调
//
// Handler.Handle 失败（磁盘满、writer 异常）时调用，日志调用本身不返回错误。
// 回调在写日志的 goroutine 中同步执行，应保持轻量。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// Build 构建 Logger 实例
//
// 返回的 cleanup 关闭 SetRotation/SetRotator 设置的轮转器，可重复调用。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	handlers := make([]slog.Handler, 0, len(b.handlers)+1)
	if b.output != nil {
		h, err := NewHandler(b.output, b.format, b.levelVar, b.replaceAttr)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, h)
	}
	handlers = append(handlers, b.handlers...)

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		return nil, nil, ErrNoHandler
	case 1:
		handler = handlers[0]
		if b.output == nil {
			handler = newFanoutHandler(b.levelVar, handler)
		}
	default:
		handler = newFanoutHandler(b.levelVar, handlers...)
	}

	logger := &xlogger{
		handler:        handler,
		levelVar:       b.levelVar,
		onError:        b.onError,
		errorCount:     new(atomic.Uint64),
		addSource:      b.addSource,
		inErrorHandler: new(atomic.Bool),
	}
	return logger, b.createCleanup(), nil
}

func (b *Builder) createCleanup() func() error {
	var once sync.Once
	var err error
	rotator := b.rotator

	return func() error {
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
