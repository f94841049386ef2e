/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import "sync"

// threadLocks serializes the steps of one thread. Idle locks are dropped.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: map[string]*threadLock{}}
}

// lock blocks until threadID is free and returns the function releasing it.
func (l *threadLocks) lock(threadID string) func() {
	l.mu.Lock()

	tl, ok := l.locks[threadID]
	if !ok {
		tl = &threadLock{}
		l.locks[threadID] = tl
	}

	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	return func() {
		tl.mu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()

		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, threadID)
		}
	}
}

func (l *threadLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
