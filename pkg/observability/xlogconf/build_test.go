package xlogconf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xwrench/pkg/observability/xlog"
	"github.com/omeyang/xwrench/pkg/observability/xrotate"
)

func TestDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir, "")

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, []string{HandlerFile}, cfg.Use)
	require.Contains(t, cfg.Handlers, HandlerDefault)
	require.Contains(t, cfg.Handlers, HandlerFile)

	assert.Equal(t, KindStream, cfg.Handlers[HandlerDefault].Kind)
	assert.Equal(t, TargetStderr, cfg.Handlers[HandlerDefault].Target)

	file := cfg.Handlers[HandlerFile]
	assert.Equal(t, xrotate.KindSize, file.Kind)
	assert.Equal(t, filepath.Join(dir, DefaultFilename), file.Rotation.Filename)
	assert.Equal(t, int64(DefaultMaxBytes), file.Rotation.MaxBytes)

	cfg = DefaultConfig(dir, "trace.log", HandlerDefault, HandlerFile)
	assert.Equal(t, []string{HandlerDefault, HandlerFile}, cfg.Use)
	assert.Equal(t, filepath.Join(dir, "trace.log"), cfg.Handlers[HandlerFile].Rotation.Filename)
}

func TestDefaultConfig_RelativeDirMadeAbsolute(t *testing.T) {
	cfg := DefaultConfig("logs", "")
	assert.True(t, filepath.IsAbs(cfg.Handlers[HandlerFile].Rotation.Filename))
}

func TestBuild_DefaultConfigWritesFileAndStream(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer

	logger, cleanup, err := Build(DefaultConfig(dir, "", HandlerDefault, HandlerFile),
		WithStreams(&bytes.Buffer{}, &stderr))
	require.NoError(t, err)

	logger.Debug(context.Background(), "to both outputs")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	assert.Contains(t, stderr.String(), "to both outputs")
	data, err := os.ReadFile(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both outputs")
	assert.FileExists(t, filepath.Join(dir, "debug.lock"))
}

func TestBuild_HandlerLevels(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cfg := Config{
		Level: "debug",
		Use:   []string{"out", "err"},
		Handlers: map[string]HandlerConfig{
			"out": {Kind: KindStream, Target: "stdout"},
			"err": {Kind: KindStream, Target: "STDERR", Level: "error", Format: "json"},
		},
	}
	logger, cleanup, err := Build(cfg, WithStreams(&stdout, &stderr))
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	logger.Info(ctx, "info line")
	logger.Error(ctx, "error line")

	assert.Contains(t, stdout.String(), "info line")
	assert.Contains(t, stdout.String(), "error line")
	assert.NotContains(t, stderr.String(), "info line")
	assert.Contains(t, stderr.String(), `"msg":"error line"`)

	// 根级别在 handler 级别之前过滤
	logger.SetLevel(xlog.LevelError)
	logger.Warn(ctx, "dropped by root")
	assert.NotContains(t, stdout.String(), "dropped by root")
}

func TestBuild_RootLevelDefaultsToInfo(t *testing.T) {
	var stdout bytes.Buffer
	logger, cleanup, err := Build(Config{
		Use:      []string{"out"},
		Handlers: map[string]HandlerConfig{"out": {Kind: KindStream, Target: TargetStdout}},
	}, WithStreams(&stdout, nil))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, xlog.LevelInfo, logger.GetLevel())
}

func TestBuild_Rotation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	cfg := Config{
		Level: "info",
		Use:   []string{"file"},
		Handlers: map[string]HandlerConfig{
			"file": {Kind: "size", Rotation: xrotate.Config{Filename: file, MaxBytes: 256}},
		},
	}
	logger, cleanup, err := Build(cfg)
	require.NoError(t, err)

	for i := range 20 {
		logger.Info(context.Background(), "record", xlog.Count(int64(i)))
	}
	require.NoError(t, cleanup())

	rotated, err := filepath.Glob(file + ".*")
	require.NoError(t, err)
	assert.NotEmpty(t, rotated)
}

func TestBuild_CustomRegistry(t *testing.T) {
	reg := xrotate.NewRegistry()
	var opened []string
	require.NoError(t, reg.Register("tracked", func(c xrotate.Config) (xrotate.Rotator, error) {
		opened = append(opened, c.Filename)
		return xrotate.NewSize(c.Filename)
	}))

	file := filepath.Join(t.TempDir(), "tracked.log")
	_, cleanup, err := Build(Config{
		Use: []string{"t"},
		Handlers: map[string]HandlerConfig{
			"t": {Kind: "tracked", Rotation: xrotate.Config{Filename: file}},
		},
	}, WithRegistry(reg))
	require.NoError(t, err)
	require.NoError(t, cleanup())
	assert.Equal(t, []string{file}, opened)
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"没有 use", Config{}, ErrNoHandlers},
		{"未定义的 handler", Config{Use: []string{"missing"}}, ErrUnknownHandler},
		{"无效 target", Config{
			Use:      []string{"s"},
			Handlers: map[string]HandlerConfig{"s": {Kind: KindStream, Target: "syslog"}},
		}, ErrInvalidTarget},
		{"未知轮转器", Config{
			Use:      []string{"r"},
			Handlers: map[string]HandlerConfig{"r": {Kind: "timed", Rotation: xrotate.Config{Filename: filepath.Join(dir, "a.log")}}},
		}, xrotate.ErrUnknownKind},
		{"无效打开模式", Config{
			Use:      []string{"r"},
			Handlers: map[string]HandlerConfig{"r": {Kind: "size", Rotation: xrotate.Config{Filename: filepath.Join(dir, "b.log"), Mode: "x"}}},
		}, xrotate.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := Build(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, logger)
			assert.Nil(t, cleanup)
		})
	}
}

func TestBuild_InvalidLevel(t *testing.T) {
	_, _, err := Build(Config{
		Level:    "loud",
		Use:      []string{"s"},
		Handlers: map[string]HandlerConfig{"s": {Kind: KindStream}},
	})
	require.Error(t, err)

	_, _, err = Build(Config{
		Use:      []string{"s"},
		Handlers: map[string]HandlerConfig{"s": {Kind: KindStream, Level: "loud"}},
	})
	require.Error(t, err)
}

func TestBuild_ClosesRotatorsOnFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ok.log")
	_, _, err := Build(Config{
		Use: []string{"file", "missing"},
		Handlers: map[string]HandlerConfig{
			"file": {Kind: "size", Rotation: xrotate.Config{Filename: file}},
		},
	})
	require.ErrorIs(t, err, ErrUnknownHandler)

	// 文件句柄已释放，可以正常删除
	assert.NoError(t, os.Remove(file))
}

func TestFileLogger(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	dir := t.TempDir()
	cleanup, err := FileLogger("worker", dir, xlog.LevelInfo)
	require.NoError(t, err)

	xlog.Debug(context.Background(), "filtered")
	xlog.Info(context.Background(), "kept")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(filepath.Join(dir, "worker.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "filtered")
	assert.FileExists(t, filepath.Join(dir, "worker.lock"))
}

func TestStdoutLogger(t *testing.T) {
	xlog.ResetDefault()
	defer xlog.ResetDefault()

	var stdout bytes.Buffer
	cleanup, err := StdoutLogger(xlog.LevelDebug, WithStreams(&stdout, nil))
	require.NoError(t, err)
	defer cleanup()

	xlog.Debug(context.Background(), "hello stdout")
	assert.True(t, strings.Contains(stdout.String(), "hello stdout"))
	assert.Equal(t, xlog.LevelDebug, xlog.Default().GetLevel())
}
