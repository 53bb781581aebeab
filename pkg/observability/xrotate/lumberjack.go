package xrotate

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xwrench/pkg/util/xfile"
)

// LumberjackRotator 默认配置值
const (
	// DefaultMaxSizeMB 默认单个日志文件最大大小（MB）
	DefaultMaxSizeMB = 100

	// DefaultMaxBackups 默认保留的备份文件数量
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 默认保留备份的天数
	DefaultMaxAgeDays = 30

	maxSizeMB  = 10240
	maxBackups = 1024
	maxAgeDays = 3650
)

// lumberjackConfig 单进程轮转配置
type lumberjackConfig struct {
	// MaxSizeMB 单个日志文件最大大小（MB），必须 > 0
	MaxSizeMB int

	// MaxBackups 保留的备份数量，0 表示只按天数清理
	MaxBackups int

	// MaxAgeDays 保留备份的天数，0 表示只按数量清理
	MaxAgeDays int

	// Compress 备份是否 gzip 压缩
	Compress bool

	// LocalTime 备份文件名是否使用本地时间
	LocalTime bool

	// FileMode 日志文件权限，0 表示保持 lumberjack 默认的 0600
	FileMode os.FileMode

	OnError func(error)
}

// LumberjackOption LumberjackRotator 配置选项函数
type LumberjackOption func(*lumberjackConfig)

// WithMaxSize 设置单个日志文件最大大小（MB）
func WithMaxSize(mb int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.MaxSizeMB = mb
	}
}

// WithMaxBackups 设置保留的备份文件数量
func WithMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.MaxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数
func WithMaxAge(days int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.MaxAgeDays = days
	}
}

// WithCompress 设置是否压缩备份文件
func WithCompress(compress bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.Compress = compress
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间
func WithLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.LocalTime = local
	}
}

// WithLumberjackFileMode 设置日志文件权限
//
// lumberjack 以 0600 创建文件，此选项在写入后通过 chmod 调整。
func WithLumberjackFileMode(mode os.FileMode) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.FileMode = mode
	}
}

// WithLumberjackOnError 设置错误回调
func WithLumberjackOnError(fn func(error)) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.OnError = fn
	}
}

// LumberjackRotator 基于 lumberjack 的单进程轮转器
//
// 提供备份数量/天数清理和 gzip 压缩，但不协调多个进程：
// 同一文件只能由一个进程写入。需要多进程共享时使用 [NewSize]。
type LumberjackRotator struct {
	logger *lumberjack.Logger
	cfg    lumberjackConfig

	mu          sync.Mutex
	modeApplied bool

	chmodFn func(string, os.FileMode) error
}

var _ Rotator = (*LumberjackRotator)(nil)

// NewLumberjack 创建基于 lumberjack 的日志轮转器
//
// 文件在首次写入时创建。
func NewLumberjack(filename string, opts ...LumberjackOption) (*LumberjackRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateLumberjackConfig(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &LumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
		cfg: cfg,
	}, nil
}

func validateLumberjackConfig(cfg *lumberjackConfig) error {
	switch {
	case cfg.MaxSizeMB <= 0 || cfg.MaxSizeMB > maxSizeMB:
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, cfg.MaxSizeMB, maxSizeMB)
	case cfg.MaxBackups < 0 || cfg.MaxBackups > maxBackups:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, cfg.MaxBackups, maxBackups)
	case cfg.MaxAgeDays < 0 || cfg.MaxAgeDays > maxAgeDays:
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, cfg.MaxAgeDays, maxAgeDays)
	case cfg.MaxBackups == 0 && cfg.MaxAgeDays == 0:
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	case cfg.FileMode&^os.FileMode(0o777) != 0:
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	return nil
}

// Filename 返回日志文件路径
func (r *LumberjackRotator) Filename() string {
	return r.logger.Filename
}

// Write 实现 io.Writer
func (r *LumberjackRotator) Write(p []byte) (int, error) {
	n, err := r.logger.Write(p)
	if err != nil {
		return n, err
	}
	r.applyMode(false)
	return n, nil
}

// Rotate 手动触发轮转
func (r *LumberjackRotator) Rotate() error {
	if err := r.logger.Rotate(); err != nil {
		return err
	}
	r.applyMode(true)
	return nil
}

// Close 关闭当前文件，可重复调用；之后的 Write 会重新打开文件。
func (r *LumberjackRotator) Close() error {
	r.mu.Lock()
	r.modeApplied = false
	r.mu.Unlock()
	return r.logger.Close()
}

// applyMode 尽力调整文件权限；force 用于轮转后的新文件。
func (r *LumberjackRotator) applyMode(force bool) {
	if r.cfg.FileMode == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.modeApplied && !force {
		return
	}

	chmod := r.chmodFn
	if chmod == nil {
		chmod = os.Chmod
	}
	//#nosec G302 -- 日志文件权限由调用方配置决定
	err := chmod(r.logger.Filename, r.cfg.FileMode)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		r.report(fmt.Errorf("xrotate: chmod %s: %w", r.logger.Filename, err))
		return
	}
	r.modeApplied = err == nil
}

func (r *LumberjackRotator) report(err error) {
	if r.cfg.OnError == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	r.cfg.OnError(err)
}
