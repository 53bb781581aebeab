package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
type Level slog.Level

// 日志级别常量
//
// 前四个与 slog 一致；LevelCritical 高于 ERROR，只用作阈值，
// 对应日志配置文件中的 CRITICAL/FATAL。
const (
	LevelDebug    = Level(slog.LevelDebug)
	LevelInfo     = Level(slog.LevelInfo)
	LevelWarn     = Level(slog.LevelWarn)
	LevelError    = Level(slog.LevelError)
	LevelCritical = Level(slog.LevelError + 4)
)

// levelNames 规范名称，String 与 ParseLevel 共用
var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarn:     "WARN",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// levelAliases 配置文件中可接受的别名（小写）
//
// notset 表示不过滤，取最低级别 DEBUG。
var levelAliases = map[string]Level{
	"notset":  LevelDebug,
	"warning": LevelWarn,
	"fatal":   LevelCritical,
}

// String 返回大写级别名（DEBUG/INFO/WARN/ERROR/CRITICAL），
// 其他值交给 slog.Level.String()，如 "INFO+2"。
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return slog.Level(l).String()
}

// MarshalText 实现 encoding.TextMarshaler，用于配置序列化
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，配置文件可直接写级别名
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名（大小写不敏感，忽略首尾空白）
//
// 接受 debug/info/warn/error/critical，以及别名 warning、fatal、notset。
// 无法识别时返回 LevelInfo 和错误。
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if l, ok := levelAliases[name]; ok {
		return l, nil
	}
	for l, canonical := range levelNames {
		if strings.ToLower(canonical) == name {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
}
