package ledger

import "sync"

// childLocks hands out one mutex per child so mutations for the same child
// are serialized while different children proceed independently.
type childLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newChildLocks() *childLocks {
	return &childLocks{locks: make(map[string]*sync.Mutex)}
}

func (c *childLocks) lock(name string) (unlock func()) {
	c.mu.Lock()
	m, ok := c.locks[name]
	if !ok {
		m = &sync.Mutex{}
		c.locks[name] = m
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}
