package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 内核在空字节处截断路径，Go 侧看到的路径与实际操作的路径会不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测 ".." 是否作为独立路径段出现，'/' 与 '\' 都视为分隔符。
// "app..2024.log"、"..config" 这类文件名不算穿越。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 校验并规范化日志文件路径
//
// 规则：
//   - 拒绝空路径和包含空字节的路径
//   - 拒绝以 "/" 或 "\" 结尾的目录路径
//   - 规范化后仍含 ".." 段（相对路径穿越）时拒绝
//   - 必须带文件名
//
// 绝对路径中的 ".." 由 filepath.Clean 正常消解（"/var/log/../app.log" -> "/var/app.log"）。
// 本函数只做格式净化，不把路径限制在某个目录内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// Clean 会去掉尾部分隔符，必须先检查
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}
