// Package xflock 提供基于旁路锁文件的进程间排他锁（advisory lock）。
//
// 锁绑定在打开的文件句柄上：同一路径的两个 [Lock] 实例即使位于同一进程内也互斥，
// 句柄关闭或进程退出时锁自动释放。只有遵守同一约定的进程才会受其约束。
//
// 平台实现：
//
//   - unix: flock(2) LOCK_EX
//   - windows: LockFileEx(LOCKFILE_EXCLUSIVE_LOCK)
//
// 锁文件内容从不读写，仅作为加锁对象。
package xflock
