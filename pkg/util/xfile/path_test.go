package xfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		wantErr  error
	}{
		{name: "普通绝对路径", filename: "/var/log/app.log", want: filepath.Clean("/var/log/app.log")},
		{name: "相对文件名", filename: "app.log", want: "app.log"},
		{name: "冗余点和分隔符", filename: "logs/./sub//app.log", want: filepath.Join("logs", "sub", "app.log")},
		{name: "绝对路径内的 .. 被消解", filename: "/var/log/../app.log", want: filepath.Clean("/var/app.log")},
		{name: "文件名中含双点", filename: "logs/app..2024.log", want: filepath.Join("logs", "app..2024.log")},
		{name: "空路径", filename: "", wantErr: ErrEmptyPath},
		{name: "空字节", filename: "app\x00.log", wantErr: ErrNullByte},
		{name: "尾部斜杠", filename: "/var/log/", wantErr: ErrInvalidPath},
		{name: "尾部反斜杠", filename: "logs\\", wantErr: ErrInvalidPath},
		{name: "相对路径穿越", filename: "../../etc/passwd", wantErr: ErrPathTraversal},
		{name: "仅当前目录", filename: ".", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.filename)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasDotDotSegment(t *testing.T) {
	assert.True(t, hasDotDotSegment(".."))
	assert.True(t, hasDotDotSegment("a/../b"))
	assert.True(t, hasDotDotSegment(`a\..\b`))
	assert.False(t, hasDotDotSegment("..config"))
	assert.False(t, hasDotDotSegment("a/...b/c"))
	assert.False(t, hasDotDotSegment(""))
}

func FuzzSanitizePath(f *testing.F) {
	f.Add("/tmp/test.log")
	f.Add("")
	f.Add("../x.log")
	f.Add("a/b/../c.log")
	f.Add("x\x00y")

	f.Fuzz(func(t *testing.T, filename string) {
		got, err := SanitizePath(filename)
		if err != nil {
			return
		}
		if hasDotDotSegment(got) {
			t.Errorf("SanitizePath(%q) = %q, still contains ..", filename, got)
		}
		if containsNullByte(got) {
			t.Errorf("SanitizePath(%q) = %q, contains null byte", filename, got)
		}
	})
}
