/*
locks.go - Per-parent mutual exclusion

Conflicting writes serialize per order (distribution creation) and per
distribution (installment creation): each parent is a mutual-exclusion
boundary, so the read-validate-write sequence in allocation.go and
scheduler.go cannot interleave for the same parent. Operations on
different parents proceed in parallel.
*/
package engine

import "sync"

// keyedLocks hands out one mutex per key, created lazily.
// Locks are never removed; the key space (active parents) is small.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for key and returns its unlock function.
func (k *keyedLocks) acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
