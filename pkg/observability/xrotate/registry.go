package xrotate

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// 内置轮转器 kind
const (
	KindSize       = "size"
	KindLumberjack = "lumberjack"
)

// Config 声明式轮转器配置
//
// 字段覆盖所有内置实现；各 kind 只读取与自己相关的字段。
type Config struct {
	// Kind 轮转器类型，空表示 [KindSize]
	Kind string `koanf:"kind" json:"kind" yaml:"kind"`

	// Filename 日志文件路径
	Filename string `koanf:"filename" json:"filename" yaml:"filename"`

	// size
	MaxBytes      int64         `koanf:"max_bytes" json:"max_bytes" yaml:"max_bytes"`
	Mode          string        `koanf:"mode" json:"mode" yaml:"mode"`
	Encoding      string        `koanf:"encoding" json:"encoding" yaml:"encoding"`
	Delay         bool          `koanf:"delay" json:"delay" yaml:"delay"`
	Debug         bool          `koanf:"debug" json:"debug" yaml:"debug"`
	RetryInterval time.Duration `koanf:"retry_interval" json:"retry_interval" yaml:"retry_interval"`

	// lumberjack
	MaxSizeMB  int  `koanf:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `koanf:"compress" json:"compress" yaml:"compress"`
	LocalTime  bool `koanf:"local_time" json:"local_time" yaml:"local_time"`

	// OnError 故障回调，不参与序列化
	OnError func(error) `koanf:"-" json:"-" yaml:"-"`
}

// Factory 根据配置构造轮转器
type Factory func(Config) (Rotator, error)

// Registry kind 到构造函数的映射，并发安全
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry 创建注册表并注册内置的 "size" 与 "lumberjack"
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories[KindSize] = newSizeFromConfig
	r.factories[KindLumberjack] = newLumberjackFromConfig
	return r
}

// Register 注册自定义 kind，重复注册返回 [ErrDuplicateKind]
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" || f == nil {
		return ErrNilFactory
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, kind)
	}
	r.factories[kind] = f
	return nil
}

// Open 按 cfg.Kind 构造轮转器
func (r *Registry) Open(cfg Config) (Rotator, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = KindSize
	}
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f(cfg)
}

// Kinds 返回已注册的 kind（升序）
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// SizeOptions 将配置转换为 [NewSize] 选项
func (c Config) SizeOptions() ([]SizeOption, error) {
	var truncate bool
	switch c.Mode {
	case "", "a":
	case "w":
		truncate = true
	default:
		return nil, fmt.Errorf("%w: %q, want \"a\" or \"w\"", ErrInvalidMode, c.Mode)
	}

	opts := []SizeOption{
		WithMaxBytes(c.MaxBytes),
		WithTruncate(truncate),
		WithEncoding(c.Encoding),
		WithDelay(c.Delay),
		WithDebug(c.Debug),
		WithOnError(c.OnError),
	}
	if c.RetryInterval > 0 {
		opts = append(opts, WithRetryInterval(c.RetryInterval))
	}
	return opts, nil
}

func newSizeFromConfig(cfg Config) (Rotator, error) {
	opts, err := cfg.SizeOptions()
	if err != nil {
		return nil, err
	}
	r, err := NewSize(cfg.Filename, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newLumberjackFromConfig(cfg Config) (Rotator, error) {
	opts := []LumberjackOption{
		WithCompress(cfg.Compress),
		WithLocalTime(cfg.LocalTime),
		WithLumberjackOnError(cfg.OnError),
	}
	if cfg.MaxSizeMB != 0 {
		opts = append(opts, WithMaxSize(cfg.MaxSizeMB))
	}
	if cfg.MaxBackups != 0 {
		opts = append(opts, WithMaxBackups(cfg.MaxBackups))
	}
	if cfg.MaxAgeDays != 0 {
		opts = append(opts, WithMaxAge(cfg.MaxAgeDays))
	}
	r, err := NewLumberjack(cfg.Filename, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}
