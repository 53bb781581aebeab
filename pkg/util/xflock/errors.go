package xflock

import "errors"

var (
	// ErrEmptyPath 锁文件路径为空
	ErrEmptyPath = errors.New("xflock: lock path is required")

	// ErrClosed 锁文件句柄已关闭（显式 Close 或描述符丢失）
	ErrClosed = errors.New("xflock: lock file is closed")
)
