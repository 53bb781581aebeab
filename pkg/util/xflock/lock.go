package xflock

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// lockFilePerm 锁文件权限
const lockFilePerm = 0o644

// Lock 旁路锁文件上的排他锁
//
// Lock/Unlock 不做进程内互斥，调用方需自行串行化同一实例上的加解锁。
type Lock struct {
	path string

	mu sync.Mutex // 保护 f
	f  *os.File
}

// Open 打开（必要时创建）锁文件，不加锁。
func Open(path string) (*Lock, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	l := &Lock{path: path}
	if err := l.Reopen(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path 返回锁文件路径
func (l *Lock) Path() string {
	return l.path
}

// Closed 报告句柄是否已关闭
func (l *Lock) Closed() bool {
	return l.file() == nil
}

// Reopen 重新打开锁文件句柄，句柄仍然有效时为空操作。
//
// 用于守护进程化等场景下描述符被外部关闭后的恢复。
func (l *Lock) Reopen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		return nil
	}
	//#nosec G302 -- 锁文件需要被协作进程打开
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err != nil {
		return fmt.Errorf("xflock: open %s: %w", l.path, err)
	}
	l.f = f
	return nil
}

// Lock 阻塞直到获得排他锁，没有超时。
//
// 句柄已关闭或描述符失效时返回 [ErrClosed]，调用方可 [Lock.Reopen] 后重试。
func (l *Lock) Lock() error {
	f := l.file()
	if f == nil {
		return ErrClosed
	}
	if err := lockFile(f); err != nil {
		return l.wrap("lock", err)
	}
	return nil
}

// TryLock 尝试非阻塞加锁，锁被其他句柄持有时返回 false。
func (l *Lock) TryLock() (bool, error) {
	f := l.file()
	if f == nil {
		return false, ErrClosed
	}
	ok, err := tryLockFile(f)
	if err != nil {
		return false, l.wrap("trylock", err)
	}
	return ok, nil
}

// Unlock 释放排他锁
func (l *Lock) Unlock() error {
	f := l.file()
	if f == nil {
		return ErrClosed
	}
	if err := unlockFile(f); err != nil {
		return l.wrap("unlock", err)
	}
	return nil
}

// Close 关闭锁文件句柄（同时释放锁），可重复调用。
func (l *Lock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("xflock: close %s: %w", l.path, err)
	}
	return nil
}

func (l *Lock) file() *os.File {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f
}

// wrap 包装系统调用错误；描述符已失效时丢弃句柄并归一为 ErrClosed。
func (l *Lock) wrap(op string, err error) error {
	if isBadHandle(err) {
		l.mu.Lock()
		if l.f != nil {
			_ = l.f.Close() //nolint:errcheck // 描述符已失效
			l.f = nil
		}
		l.mu.Unlock()
		return fmt.Errorf("xflock: %s %s: %w: %w", op, l.path, ErrClosed, err)
	}
	return fmt.Errorf("xflock: %s %s: %w", op, l.path, err)
}
