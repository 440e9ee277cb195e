package service

import "sync"

// keyedMutex serialises mutation per route id. Two reoptimization or
// distribution operations touching the same route must not interleave;
// operations on distinct routes run in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*entry)}
}

// routeLocks is the single lock table shared by every service that mutates
// routes. Exclusivity must hold across services, not within one: a
// distribution commit and a reoptimization of the same route both go through
// this instance.
var routeLocks = newKeyedMutex()

// Lock acquires the mutex for key, creating it on first use.
func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key, dropping it once nothing waits on it.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	e := k.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
