package xrotate

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoding 按 IANA 名称查找文本编码
//
// 空名称与 UTF-8 返回 nil，表示原样写入。
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidEncoding, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %q is not supported", ErrInvalidEncoding, name)
	}
	return enc, nil
}

// byteOrderMark 返回编码器在输出开头写入的字节序标记，不写 BOM 的编码返回 nil。
func byteOrderMark(enc encoding.Encoding) []byte {
	if enc == nil {
		return nil
	}
	buf := make([]byte, 8)
	n, _, err := enc.NewEncoder().Transform(buf, nil, true)
	if err != nil || n == 0 {
		return nil
	}
	return buf[:n]
}

// newEncoder 无法表示的字符替换为目标编码的替换符，避免整条记录丢失。
func newEncoder(enc encoding.Encoding) *encoding.Encoder {
	if enc == nil {
		return nil
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder())
}
