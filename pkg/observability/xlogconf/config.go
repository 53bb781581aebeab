package xlogconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xwrench/pkg/observability/xrotate"
)

// Format 配置文件格式
type Format string

// 支持的配置格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// KindStream 写标准输出/标准错误的 handler 类型
const KindStream = "stream"

// stream handler 的输出目标
const (
	TargetStderr = "stderr"
	TargetStdout = "stdout"
)

// Config 日志配置
type Config struct {
	// Level 根级别，各 handler 的级别在此之上再过滤；空表示 info
	Level string `koanf:"level" json:"level" yaml:"level"`

	// Format 默认输出格式（text/json），handler 可单独覆盖
	Format string `koanf:"format" json:"format" yaml:"format"`

	// Use 根 Logger 使用的 handler 名称
	Use []string `koanf:"use" json:"use" yaml:"use"`

	// Handlers 具名 handler 定义
	Handlers map[string]HandlerConfig `koanf:"handlers" json:"handlers" yaml:"handlers"`
}

// HandlerConfig 单个输出的配置
type HandlerConfig struct {
	// Kind "stream" 或 xrotate 注册表中的 kind（"size"、"lumberjack" ...）
	Kind string `koanf:"kind" json:"kind" yaml:"kind"`

	// Level 该输出的最低级别，空表示不额外过滤
	Level string `koanf:"level" json:"level" yaml:"level"`

	// Format 覆盖 Config.Format
	Format string `koanf:"format" json:"format" yaml:"format"`

	// Target stream 的目标：stderr（默认）或 stdout
	Target string `koanf:"target" json:"target" yaml:"target"`

	// Rotation 轮转器配置；Rotation.Kind 为空时取 Kind
	Rotation xrotate.Config `koanf:"rotation" json:"rotation" yaml:"rotation"`
}

// Load 从文件加载配置，按扩展名识别 YAML（.yaml/.yml）或 JSON（.json）
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	//#nosec G304 -- 配置路径由调用方提供
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载配置，空数据得到零值配置
func LoadBytes(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var cfg Config
	if len(data) == 0 {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return cfg, nil
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}
