package importer

import "sync/atomic"

// ImportLock serializes imports into one snapshot. A second import fails fast
// with ErrImportInProgress rather than queueing behind the first.
type ImportLock struct {
	held atomic.Bool
}

// TryAcquire takes the lock if it is free and reports whether it did
func (l *ImportLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Only the holder may call it.
func (l *ImportLock) Release() {
	l.held.Store(false)
}

// Held reports whether an import is running
func (l *ImportLock) Held() bool {
	return l.held.Load()
}
