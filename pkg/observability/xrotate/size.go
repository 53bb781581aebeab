package xrotate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"golang.org/x/text/encoding"

	"github.com/omeyang/xwrench/pkg/util/xflock"
	"github.com/omeyang/xwrench/pkg/util/xfile"
)

// SizeRotator 默认配置值
const (
	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0o644

	// DefaultRetryInterval 降级模式下两次轮转尝试的最小间隔
	DefaultRetryInterval = time.Second

	// lockReopenAttempts 锁文件句柄丢失后的重新打开次数
	lockReopenAttempts = 3

	// lockReopenDelay 锁文件重新打开的重试间隔
	lockReopenDelay = 10 * time.Millisecond
)

// sizeConfig SizeRotator 配置
type sizeConfig struct {
	// MaxBytes 触发轮转的文件大小，0 表示从不轮转
	MaxBytes int64

	// Truncate 首次打开时截断文件（"w" 模式），默认追加（"a" 模式）
	// 轮转后或确认检查时的重新打开总是追加
	Truncate bool

	// Encoding 写入文件使用的文本编码（IANA 名称），空表示 UTF-8 原样写入
	Encoding string

	// Delay 延迟到首次写入才打开文件；轮转后同样延迟到下一次写入
	Delay bool

	// Debug 在降级模式退出时也上报
	Debug bool

	// FileMode 新建日志文件的权限
	FileMode os.FileMode

	// RetryInterval 降级模式下再次尝试轮转前的等待时间，0 表示每次写入都重试
	RetryInterval time.Duration

	// OnError 故障上报回调（降级切换、关闭失败、锁不可用），nil 时输出到 stderr
	//
	// 回调不得向同一 Rotator 写入数据，否则会死锁。
	OnError func(error)
}

// SizeOption SizeRotator 配置选项函数
type SizeOption func(*sizeConfig)

// WithMaxBytes 设置触发轮转的文件大小（字节），0 表示从不轮转
func WithMaxBytes(n int64) SizeOption {
	return func(c *sizeConfig) {
		c.MaxBytes = n
	}
}

// WithTruncate 设置首次打开时是否截断文件
func WithTruncate(truncate bool) SizeOption {
	return func(c *sizeConfig) {
		c.Truncate = truncate
	}
}

// WithEncoding 设置文件文本编码（如 "ISO-8859-1"、"UTF-16LE"）
func WithEncoding(name string) SizeOption {
	return func(c *sizeConfig) {
		c.Encoding = name
	}
}

// WithDelay 设置是否延迟打开文件
func WithDelay(delay bool) SizeOption {
	return func(c *sizeConfig) {
		c.Delay = delay
	}
}

// WithDebug 设置是否输出详细的降级信息
func WithDebug(debug bool) SizeOption {
	return func(c *sizeConfig) {
		c.Debug = debug
	}
}

// WithFileMode 设置新建日志文件的权限
func WithFileMode(mode os.FileMode) SizeOption {
	return func(c *sizeConfig) {
		c.FileMode = mode
	}
}

// WithRetryInterval 设置降级模式下的轮转重试间隔
func WithRetryInterval(d time.Duration) SizeOption {
	return func(c *sizeConfig) {
		c.RetryInterval = d
	}
}

// WithOnError 设置故障上报回调
func WithOnError(fn func(error)) SizeOption {
	return func(c *sizeConfig) {
		c.OnError = fn
	}
}

// SizeRotator 多进程协作的按大小轮转写入器
//
// 同一路径可以被多个进程（或同一进程内多个实例）同时写入。每次 Write 在旁路锁文件
// 上持有排他锁完成大小检查、轮转与追加；进程内的并发写入由内部互斥锁串行化。
type SizeRotator struct {
	path string
	cfg  sizeConfig

	mu           sync.Mutex
	lock         *xflock.Lock
	file         *os.File
	encoder      *encoding.Encoder
	bom          []byte
	truncateNext bool
	degraded     bool
	degradedAt   time.Time

	// 可注入的依赖（nil 时使用默认实现），仅用于测试
	renameFn func(oldpath, newpath string) error
	nowFn    func() time.Time
	randFn   func(int) int
	stderr   io.Writer
}

// 编译时断言
var _ Rotator = (*SizeRotator)(nil)

// NewSize 创建按大小轮转的写入器
//
// 参数:
//   - filename: 日志文件路径（必需），会被规范化为绝对路径，父目录自动创建
//   - opts: 可选配置项
//
// 构造时即打开旁路锁文件 [LockPath]；未设置 [WithDelay] 时同时打开日志文件。
// 日志文件不存在时自动创建。
func NewSize(filename string, opts ...SizeOption) (*SizeRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := sizeConfig{
		FileMode:      DefaultFileMode,
		RetryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateSizeConfig(&cfg); err != nil {
		return nil, err
	}

	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(safePath)
	if err != nil {
		return nil, fmt.Errorf("xrotate: resolve %s: %w", safePath, err)
	}
	if err := xfile.EnsureDir(absPath); err != nil {
		return nil, err
	}

	lock, err := xflock.Open(LockPath(absPath))
	if err != nil {
		return nil, err
	}

	r := &SizeRotator{
		path:         absPath,
		cfg:          cfg,
		lock:         lock,
		encoder:      newEncoder(enc),
		bom:          byteOrderMark(enc),
		truncateNext: cfg.Truncate,
	}
	if !cfg.Delay {
		if err := r.open(); err != nil {
			return nil, errors.Join(err, lock.Close())
		}
	}
	return r, nil
}

func validateSizeConfig(cfg *sizeConfig) error {
	if cfg.MaxBytes < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidMaxBytes, cfg.MaxBytes)
	}
	if cfg.RetryInterval < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidRetryInterval, cfg.RetryInterval)
	}
	if cfg.FileMode == 0 || cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0001~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	return nil
}

// Filename 返回规范化后的日志文件绝对路径
func (r *SizeRotator) Filename() string {
	return r.path
}

// LockFilename 返回旁路锁文件路径
func (r *SizeRotator) LockFilename() string {
	return r.lock.Path()
}

// Degraded 报告当前是否处于降级模式
func (r *SizeRotator) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

// Write 追加一条记录
//
// 轮转相关的故障只经 OnError 上报；仅当记录本身无法写入文件时返回错误。
func (r *SizeRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := p
	if r.encoder != nil {
		encoded, err := r.encoder.Bytes(p)
		if err != nil {
			return 0, fmt.Errorf("xrotate: encode record: %w", err)
		}
		data = encoded
	}

	locked := r.acquire()
	defer r.release(locked)

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.shouldRotate() {
		_ = r.rotate() //nolint:errcheck // 已经由 rotate 上报
	}
	// 延迟打开模式下轮转后句柄为空
	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	data, err := r.stripBOM(data)
	if err != nil {
		return 0, err
	}
	if _, err := r.file.Write(data); err != nil {
		return 0, fmt.Errorf("xrotate: write %s: %w", r.path, err)
	}
	return len(p), nil
}

// stripBOM 每条记录单独编码都会带 BOM，只有空文件的第一条记录保留。
func (r *SizeRotator) stripBOM(data []byte) ([]byte, error) {
	if len(r.bom) == 0 || !bytes.HasPrefix(data, r.bom) {
		return data, nil
	}
	info, err := r.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("xrotate: stat %s: %w", r.path, err)
	}
	if info.Size() > 0 {
		return data[len(r.bom):], nil
	}
	return data, nil
}

// Rotate 手动触发轮转，不检查文件大小
//
// 文件尚不存在时为空操作。
func (r *SizeRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	locked := r.acquire()
	defer r.release(locked)

	exists, err := xfile.Exists(r.path)
	if err != nil {
		return fmt.Errorf("xrotate: stat %s: %w", r.path, err)
	}
	if !exists {
		return nil
	}
	return r.rotate()
}

// Close 关闭日志文件与锁文件句柄，可重复调用
//
// Close 后再 Write 会重新打开两个句柄。
func (r *SizeRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fileErr := r.closeFile()
	lockErr := r.lock.Close()
	if lockErr != nil {
		r.report(lockErr)
	}
	return errors.Join(fileErr, lockErr)
}

// acquire 获取旁路锁；锁文件句柄丢失时尝试重新打开，仍失败则本次不加锁。
func (r *SizeRotator) acquire() bool {
	if r.lock.Closed() {
		if err := r.reopenLock(); err != nil {
			r.report(fmt.Errorf("%w: %w", ErrLockUnavailable, err))
			return false
		}
	}

	err := r.lock.Lock()
	if errors.Is(err, xflock.ErrClosed) {
		// 描述符在外部被关闭（如守护进程化）
		if err = r.reopenLock(); err == nil {
			err = r.lock.Lock()
		}
	}
	if err != nil {
		r.report(fmt.Errorf("%w: %w", ErrLockUnavailable, err))
		return false
	}
	return true
}

func (r *SizeRotator) reopenLock() error {
	return retry.New(
		retry.Attempts(lockReopenAttempts),
		retry.Delay(lockReopenDelay),
		retry.LastErrorOnly(true),
	).Do(r.lock.Reopen)
}

// release 降级模式下关闭日志句柄以减少对文件的占用，然后释放旁路锁。
func (r *SizeRotator) release(locked bool) {
	if r.degraded {
		_ = r.closeFile() //nolint:errcheck // 已经由 closeFile 上报
	}
	if !locked {
		return
	}
	if err := r.lock.Unlock(); err != nil {
		r.report(err)
	}
}

// open 打开日志文件；只有首次打开会按配置截断。
func (r *SizeRotator) open() error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if r.truncateNext {
		flags |= os.O_TRUNC
	}
	//#nosec G302 G304 -- 路径已经过 SanitizePath，权限由调用方配置
	f, err := os.OpenFile(r.path, flags, r.cfg.FileMode)
	if err != nil {
		return fmt.Errorf("xrotate: open %s: %w", r.path, err)
	}
	r.truncateNext = false
	r.file = f
	return nil
}

// closeFile 同步并关闭日志句柄，错误会上报并返回。
func (r *SizeRotator) closeFile() error {
	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil

	syncErr := f.Sync()
	closeErr := f.Close()
	err := errors.Join(syncErr, closeErr)
	if err != nil {
		err = fmt.Errorf("xrotate: close %s: %w", r.path, err)
		r.report(err)
	}
	return err
}

// shouldRotate 判断是否需要轮转
//
// 当前句柄达到阈值时先关闭重开再确认一次：其他进程可能已完成轮转，
// 旧句柄此时指向的是已改名的文件。
func (r *SizeRotator) shouldRotate() bool {
	if r.cfg.MaxBytes == 0 || r.file == nil {
		return false
	}

	due, err := r.sizeReached()
	if err != nil {
		r.report(err)
		return false
	}
	if !due {
		r.restore("rotation done or not needed at this time")
		return false
	}
	if r.degraded && r.now().Sub(r.degradedAt) < r.cfg.RetryInterval {
		return false
	}

	_ = r.closeFile() //nolint:errcheck // 已经由 closeFile 上报
	if err := r.open(); err != nil {
		r.report(err)
		return false
	}
	due, err = r.sizeReached()
	if err != nil {
		r.report(err)
		return false
	}
	if !due {
		r.restore("rotated by another writer")
	}
	return due
}

func (r *SizeRotator) sizeReached() (bool, error) {
	info, err := r.file.Stat()
	if err != nil {
		return false, fmt.Errorf("xrotate: stat %s: %w", r.path, err)
	}
	return info.Size() >= r.cfg.MaxBytes, nil
}

// rotate 关闭当前文件，经临时名改名为 <path>.<时间戳>，再按需重新打开。
//
// 第一次改名失败时进入降级模式，当前文件保持原样。
func (r *SizeRotator) rotate() (err error) {
	_ = r.closeFile() //nolint:errcheck // 已经由 closeFile 上报

	defer func() {
		if r.cfg.Delay || r.file != nil {
			return
		}
		if openErr := r.open(); openErr != nil {
			r.report(openErr)
			err = errors.Join(err, openErr)
		}
	}()

	dst, err := uniqueRotatedName(r.path, r.now().UTC().Format(TimestampLayout))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRotateFailed, err)
		r.report(err)
		return err
	}
	tmp, err := uniqueTempName(r.path, r.randFn)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRotateFailed, err)
		r.report(err)
		return err
	}

	if err := r.rename(r.path, tmp); err != nil {
		return r.degrade("rename failed, file in use?", err)
	}
	if err := r.rename(tmp, dst); err != nil {
		err = fmt.Errorf("%w: %s -> %s: %w", ErrRotateFailed, tmp, dst, err)
		r.report(err)
		return err
	}

	r.restore("rotation completed")
	return nil
}

func (r *SizeRotator) rename(oldpath, newpath string) error {
	if r.renameFn != nil {
		return r.renameFn(oldpath, newpath)
	}
	return os.Rename(oldpath, newpath)
}

func (r *SizeRotator) now() time.Time {
	if r.nowFn != nil {
		return r.nowFn()
	}
	return time.Now()
}

// degrade 进入（或保持）降级模式并上报，返回上报的错误。
func (r *SizeRotator) degrade(reason string, cause error) error {
	r.degraded = true
	r.degradedAt = r.now()
	err := &DegradeError{Entering: true, PID: os.Getpid(), Reason: reason, Err: cause}
	r.report(err)
	return err
}

// restore 退出降级模式，仅 debug 模式上报。
func (r *SizeRotator) restore(reason string) {
	if !r.degraded {
		return
	}
	r.degraded = false
	if r.cfg.Debug {
		r.report(&DegradeError{Entering: false, PID: os.Getpid(), Reason: reason})
	}
}

// report 通过回调上报故障，未设置回调时写 stderr
//
// 不经过 xlog：Rotator 本身就是日志输出目标，写失败再打日志会递归。
// 回调 panic 被 recover 隔离。
func (r *SizeRotator) report(err error) {
	if err == nil {
		return
	}
	if r.cfg.OnError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.OnError(err)
		return
	}
	w := r.stderr
	if w == nil {
		w = os.Stderr
	}
	_, _ = fmt.Fprintln(w, err.Error()) //nolint:errcheck // 尽力而为
}
