package xlogconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
level: debug
format: json
use: [default, file]
handlers:
  default:
    kind: stream
    target: stdout
    level: warn
  file:
    kind: size
    rotation:
      filename: /tmp/app/debug.log
      max_bytes: 300000
      mode: w
      encoding: ISO-8859-1
      retry_interval: 5s
`

const sampleJSON = `{
  "level": "info",
  "use": ["archive"],
  "handlers": {
    "archive": {
      "kind": "lumberjack",
      "format": "text",
      "rotation": {"filename": "/tmp/app/archive.log", "max_size_mb": 10, "max_backups": 3, "compress": true}
    }
  }
}`

func TestLoadBytes_YAML(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"default", "file"}, cfg.Use)
	require.Len(t, cfg.Handlers, 2)

	def := cfg.Handlers["default"]
	assert.Equal(t, KindStream, def.Kind)
	assert.Equal(t, TargetStdout, def.Target)
	assert.Equal(t, "warn", def.Level)

	file := cfg.Handlers["file"]
	assert.Equal(t, "size", file.Kind)
	assert.Equal(t, "/tmp/app/debug.log", file.Rotation.Filename)
	assert.Equal(t, int64(300000), file.Rotation.MaxBytes)
	assert.Equal(t, "w", file.Rotation.Mode)
	assert.Equal(t, "ISO-8859-1", file.Rotation.Encoding)
	assert.Equal(t, 5*time.Second, file.Rotation.RetryInterval)
}

func TestLoadBytes_JSON(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleJSON), FormatJSON)
	require.NoError(t, err)

	archive := cfg.Handlers["archive"]
	assert.Equal(t, "lumberjack", archive.Kind)
	assert.Equal(t, "text", archive.Format)
	assert.Equal(t, 10, archive.Rotation.MaxSizeMB)
	assert.Equal(t, 3, archive.Rotation.MaxBackups)
	assert.True(t, archive.Rotation.Compress)
}

func TestLoadBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  Format
		wantErr error
	}{
		{"不支持的格式", "level: debug", Format("toml"), ErrUnsupportedFormat},
		{"YAML 语法错误", "level: [debug", FormatYAML, ErrParseFailed},
		{"JSON 语法错误", "{", FormatJSON, ErrParseFailed},
		{"类型不匹配", "handlers: 42", FormatYAML, ErrUnmarshalFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadBytes_Empty(t *testing.T) {
	cfg, err := LoadBytes(nil, FormatYAML)
	require.NoError(t, err)
	assert.Zero(t, cfg.Level)
	assert.Empty(t, cfg.Handlers)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "logging.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)

	jsonPath := filepath.Join(dir, "logging.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleJSON), 0o600))
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Level)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Load(filepath.Join(dir, "logging.ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
