package sheet

import "time"

// Lock is the process-wide advisory lock guarding multi-table mutations.
// It is a capacity-1 semaphore with bounded-wait acquisition; nothing in
// the backend itself takes it, callers decide what it protects.
type Lock struct {
	sem chan struct{}
}

// NewLock creates an unheld lock.
func NewLock() *Lock {
	return &Lock{sem: make(chan struct{}, 1)}
}

// TryAcquire blocks until the lock is acquired or the timeout elapses.
// It returns false on timeout; the wait never cancels an in-flight holder.
func (l *Lock) TryAcquire(timeout time.Duration) bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release releases the lock. Callers must hold it.
func (l *Lock) Release() {
	<-l.sem
}
