package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AccountCache remembers token accounts known to exist on chain, so a
// transfer does not have to ask the RPC node about the same account again
// until the entry is older than ttl.
type AccountCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewAccountCache(ttl time.Duration) *AccountCache {
	return &AccountCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Known reports whether address was remembered less than ttl ago.
func (c *AccountCache) Known(address string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	seenAt, ok := c.entries[address]
	if !ok {
		return false
	}
	if c.now().Sub(seenAt) > c.ttl {
		delete(c.entries, address)
		return false
	}

	logrus.Debugf("token account %s taken from cache", address)
	return true
}

func (c *AccountCache) Remember(address string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[address] = c.now()
}

func (c *AccountCache) Forget(address string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, address)
}
