package xlogconf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/omeyang/xwrench/pkg/observability/xlog"
	"github.com/omeyang/xwrench/pkg/observability/xrotate"
)

// 默认配置值
const (
	// DefaultFilename 默认日志文件名
	DefaultFilename = "debug.log"

	// DefaultMaxBytes 默认轮转阈值
	DefaultMaxBytes = 300000

	// HandlerDefault 写标准错误的 handler 名
	HandlerDefault = "default"

	// HandlerFile 写轮转文件的 handler 名
	HandlerFile = "file"
)

// DefaultConfig 返回一份开箱即用的配置
//
// 定义两个 handler："default"（标准错误，text）与 "file"（logDir/filename 的按大小轮转文件，
// 阈值 300000 字节）。级别为 debug；use 为空时只使用 "file"。filename 为空时使用 debug.log。
func DefaultConfig(logDir, filename string, use ...string) Config {
	if filename == "" {
		filename = DefaultFilename
	}
	if len(use) == 0 {
		use = []string{HandlerFile}
	}

	path := filepath.Join(logDir, filename)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	return Config{
		Level:  "debug",
		Format: xlog.FormatText,
		Use:    use,
		Handlers: map[string]HandlerConfig{
			HandlerDefault: {
				Kind:   KindStream,
				Level:  "debug",
				Target: TargetStderr,
			},
			HandlerFile: {
				Kind:  xrotate.KindSize,
				Level: "debug",
				Rotation: xrotate.Config{
					Filename: path,
					MaxBytes: DefaultMaxBytes,
				},
			},
		},
	}
}

// buildOptions Build 的可选项
type buildOptions struct {
	registry *xrotate.Registry
	onError  func(error)
	stdout   io.Writer
	stderr   io.Writer
}

// Option Build 配置选项函数
type Option func(*buildOptions)

// WithRegistry 指定轮转器注册表，默认 xrotate.NewRegistry()
func WithRegistry(reg *xrotate.Registry) Option {
	return func(o *buildOptions) {
		o.registry = reg
	}
}

// WithOnError 设置轮转器与 Logger 的故障回调
func WithOnError(fn func(error)) Option {
	return func(o *buildOptions) {
		o.onError = fn
	}
}

// WithStreams 替换 stream handler 使用的标准输出与标准错误
func WithStreams(stdout, stderr io.Writer) Option {
	return func(o *buildOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// Build 按配置构建 Logger
//
// 返回的 cleanup 关闭所有轮转器。构建失败时已打开的轮转器会被关闭。
func Build(cfg Config, opts ...Option) (xlog.LoggerWithLevel, func() error, error) {
	o := buildOptions{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.registry == nil {
		o.registry = xrotate.NewRegistry()
	}
	if len(cfg.Use) == 0 {
		return nil, nil, ErrNoHandlers
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	b := xlog.New().SetOutput(nil).SetLevelString(level).SetOnError(o.onError)

	var rotators []xrotate.Rotator
	closeAll := func() error {
		var errs []error
		for _, r := range rotators {
			errs = append(errs, r.Close())
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Use {
		hc, ok := cfg.Handlers[name]
		if !ok {
			return nil, nil, errors.Join(fmt.Errorf("%w: %q", ErrUnknownHandler, name), closeAll())
		}
		w, rotator, err := openWriter(hc, &o)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("xlogconf: handler %q: %w", name, err), closeAll())
		}
		if rotator != nil {
			rotators = append(rotators, rotator)
		}

		h, err := newHandler(w, cfg, hc)
		if err != nil {
			return nil, nil, errors.Join(fmt.Errorf("xlogconf: handler %q: %w", name, err), closeAll())
		}
		b.AddHandler(h)
	}

	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, errors.Join(err, closeAll())
	}
	return logger, func() error {
		return errors.Join(cleanup(), closeAll())
	}, nil
}

func openWriter(hc HandlerConfig, o *buildOptions) (io.Writer, xrotate.Rotator, error) {
	if hc.Kind == KindStream {
		switch strings.ToLower(hc.Target) {
		case "", TargetStderr:
			return o.stderr, nil, nil
		case TargetStdout:
			return o.stdout, nil, nil
		default:
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidTarget, hc.Target)
		}
	}

	rc := hc.Rotation
	if rc.Kind == "" {
		rc.Kind = hc.Kind
	}
	if rc.OnError == nil {
		rc.OnError = o.onError
	}
	r, err := o.registry.Open(rc)
	if err != nil {
		return nil, nil, err
	}
	return r, r, nil
}

func newHandler(w io.Writer, cfg Config, hc HandlerConfig) (slog.Handler, error) {
	format := hc.Format
	if format == "" {
		format = cfg.Format
	}
	// 未设置级别时交给根级别控制
	var level slog.Leveler = slog.Level(-1 << 10)
	if hc.Level != "" {
		l, err := xlog.ParseLevel(hc.Level)
		if err != nil {
			return nil, err
		}
		level = slog.Level(l)
	}
	return xlog.NewHandler(w, format, level, nil)
}

// FileLogger 将全局 Logger 设置为写 logDir/<name>.log 的按大小轮转文件
//
// 返回的 cleanup 关闭文件；调用方负责在退出前调用。
func FileLogger(name, logDir string, level xlog.Level, opts ...Option) (func() error, error) {
	cfg := DefaultConfig(logDir, name+".log", HandlerFile)
	cfg.Level = level.String()
	file := cfg.Handlers[HandlerFile]
	file.Level = ""
	file.Rotation.MaxBytes = 0
	cfg.Handlers[HandlerFile] = file
	return install(cfg, opts...)
}

// StdoutLogger 将全局 Logger 设置为写标准输出
func StdoutLogger(level xlog.Level, opts ...Option) (func() error, error) {
	cfg := Config{
		Level: level.String(),
		Use:   []string{TargetStdout},
		Handlers: map[string]HandlerConfig{
			TargetStdout: {Kind: KindStream, Target: TargetStdout},
		},
	}
	return install(cfg, opts...)
}

func install(cfg Config, opts ...Option) (func() error, error) {
	logger, cleanup, err := Build(cfg, opts...)
	if err != nil {
		return nil, err
	}
	xlog.SetDefault(logger)
	return cleanup, nil
}
