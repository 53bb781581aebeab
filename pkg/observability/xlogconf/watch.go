package xlogconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xwrench/pkg/observability/xlog"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 每次重载后调用，err 非 nil 表示重载失败（原级别保持不变）
type WatchCallback func(cfg Config, err error)

// WatchOption 监视器配置选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只重载一次
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并热更新日志级别
//
// 只有 level 字段会热更新；handler 变化需要重新 Build。
type Watcher struct {
	path     string
	leveler  xlog.Leveler
	callback WatchCallback
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	pending sync.WaitGroup // 已触发、正在执行的重载
}

// NewWatcher 创建监视器
//
// 监视配置文件所在目录而非文件本身：编辑器保存时常常先删除再创建。
func NewWatcher(path string, leveler xlog.Leveler, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if leveler == nil {
		return nil, errors.New("xlogconf: nil leveler")
	}
	if _, err := detectFormat(path); err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		leveler:  leveler,
		callback: callback,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xlogconf: create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xlogconf: watch directory %s: %w", dir, err), fs.Close())
	}
	w.fs = fs
	return w, nil
}

// Run 阻塞运行直到 ctx 取消或 [Watcher.Close]，返回前释放 fsnotify 资源
//
// Run 返回后不会再有重载或回调。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close() //nolint:errcheck // Close 总是返回 nil

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) == name &&
				event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				w.schedule(ctx)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.notify(Config{}, fmt.Errorf("xlogconf: watch error: %w", err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx) })
}

// fire 防抖计时器到期后执行重载，监视器已停止时跳过
func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.stopped || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.pending.Add(1)
	w.mu.Unlock()

	defer w.pending.Done()
	w.Reload()
}

// Reload 立即重新读取配置并应用级别
func (w *Watcher) Reload() {
	cfg, err := Load(w.path)
	if err == nil && cfg.Level != "" {
		var level xlog.Level
		level, err = xlog.ParseLevel(cfg.Level)
		if err == nil {
			w.leveler.SetLevel(level)
		}
	}
	w.notify(cfg, err)
}

func (w *Watcher) notify(cfg Config, err error) {
	if w.callback != nil {
		w.callback(cfg, err)
	}
}

// Close 停止监视并释放 fsnotify 资源，可重复调用
//
// 未调用 Run 的监视器需要 Close；正在执行的重载会先完成。
// 回调中不得调用 Close，否则会死锁。
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	w.pending.Wait()
	_ = w.fs.Close() //nolint:errcheck // 退出路径
	return nil
}
