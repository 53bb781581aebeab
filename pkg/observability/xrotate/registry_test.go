package xrotate

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Builtins(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{KindLumberjack, KindSize}, reg.Kinds())
}

func TestRegistry_OpenSize(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()

	tests := []struct {
		name string
		kind string
	}{
		{"显式 size", KindSize},
		{"空 kind 默认 size", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := reg.Open(Config{
				Kind:     tt.kind,
				Filename: filepath.Join(dir, tt.name+".log"),
				MaxBytes: 100,
				Mode:     "w",
			})
			require.NoError(t, err)
			defer r.Close()

			sr, ok := r.(*SizeRotator)
			require.True(t, ok)
			assert.Equal(t, int64(100), sr.cfg.MaxBytes)
			assert.True(t, sr.cfg.Truncate)
		})
	}
}

func TestRegistry_OpenLumberjack(t *testing.T) {
	reg := NewRegistry()
	r, err := reg.Open(Config{
		Kind:       KindLumberjack,
		Filename:   filepath.Join(t.TempDir(), "app.log"),
		MaxSizeMB:  5,
		MaxBackups: 2,
	})
	require.NoError(t, err)
	defer r.Close()

	lr, ok := r.(*LumberjackRotator)
	require.True(t, ok)
	assert.Equal(t, 5, lr.logger.MaxSize)
	assert.Equal(t, 2, lr.logger.MaxBackups)
	assert.Equal(t, DefaultMaxAgeDays, lr.logger.MaxAge)
}

func TestRegistry_OpenErrors(t *testing.T) {
	reg := NewRegistry()
	file := filepath.Join(t.TempDir(), "app.log")

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"未知 kind", Config{Kind: "syslog", Filename: file}, ErrUnknownKind},
		{"无效模式", Config{Filename: file, Mode: "r"}, ErrInvalidMode},
		{"空文件名", Config{}, ErrEmptyFilename},
		{"lumberjack 无效大小", Config{Kind: KindLumberjack, Filename: file, MaxSizeMB: -1}, ErrInvalidMaxSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := reg.Open(tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	called := false
	custom := func(cfg Config) (Rotator, error) {
		called = true
		return NewSize(cfg.Filename, WithDelay(true))
	}

	require.NoError(t, reg.Register("custom", custom))
	assert.ErrorIs(t, reg.Register("custom", custom), ErrDuplicateKind)
	assert.ErrorIs(t, reg.Register(KindSize, custom), ErrDuplicateKind)
	assert.ErrorIs(t, reg.Register("", custom), ErrNilFactory)
	assert.ErrorIs(t, reg.Register("nil", nil), ErrNilFactory)

	r, err := reg.Open(Config{Kind: "custom", Filename: filepath.Join(t.TempDir(), "c.log")})
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, called)
	assert.Contains(t, reg.Kinds(), "custom")
}

func TestRegistry_Independent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	require.NoError(t, a.Register("only-a", func(Config) (Rotator, error) {
		return nil, errors.New("unused")
	}))
	assert.NotContains(t, b.Kinds(), "only-a")
}

func TestConfig_SizeOptions(t *testing.T) {
	var got error
	cfg := Config{
		MaxBytes:      300000,
		Mode:          "a",
		Encoding:      "ISO-8859-1",
		Delay:         true,
		Debug:         true,
		RetryInterval: 5 * time.Second,
		OnError:       func(err error) { got = err },
	}
	opts, err := cfg.SizeOptions()
	require.NoError(t, err)

	var sc sizeConfig
	for _, opt := range opts {
		opt(&sc)
	}
	assert.Equal(t, int64(300000), sc.MaxBytes)
	assert.False(t, sc.Truncate)
	assert.Equal(t, "ISO-8859-1", sc.Encoding)
	assert.True(t, sc.Delay)
	assert.True(t, sc.Debug)
	assert.Equal(t, 5*time.Second, sc.RetryInterval)

	require.NotNil(t, sc.OnError)
	sc.OnError(ErrRotateFailed)
	assert.ErrorIs(t, got, ErrRotateFailed)
}
