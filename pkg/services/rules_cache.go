package services

import (
	"sync"
	"time"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/jonboulle/clockwork"
)

// RulesCache keeps active rules per board and trigger type.
// Mutations invalidate a whole board.
type RulesCache interface {
	// Get returns cached rules, or false on a miss or expired entry.
	Get(boardID string, triggerType models.TriggerType) ([]*models.Automation, bool)

	// Set stores rules loaded while the board was at generation. Loads that
	// raced with an invalidation are dropped.
	Set(boardID string, triggerType models.TriggerType, rules []*models.Automation, generation uint64)

	// Generation is read before loading rules from storage.
	Generation(boardID string) uint64

	InvalidateBoard(boardID string)
}

type CacheConfig struct {
	// TTL is the time-to-live for cached entries.
	// Set to 0 for no expiration (manual invalidation only).
	TTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: time.Minute}
}

type cacheKey struct {
	boardID     string
	triggerType models.TriggerType
}

type cacheEntry struct {
	rules    []*models.Automation
	cachedAt time.Time
}

// InMemoryRulesCache is safe for concurrent use.
type InMemoryRulesCache struct {
	config      CacheConfig
	clock       clockwork.Clock
	mu          sync.RWMutex
	entries     map[cacheKey]cacheEntry
	generations map[string]uint64
}

func NewInMemoryRulesCache(config CacheConfig, clock clockwork.Clock) *InMemoryRulesCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &InMemoryRulesCache{
		config:      config,
		clock:       clock,
		entries:     make(map[cacheKey]cacheEntry),
		generations: make(map[string]uint64),
	}
}

func (c *InMemoryRulesCache) Get(boardID string, triggerType models.TriggerType) ([]*models.Automation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey{boardID, triggerType}]
	if !ok {
		return nil, false
	}

	if c.config.TTL > 0 && c.clock.Since(entry.cachedAt) > c.config.TTL {
		return nil, false
	}

	rules := make([]*models.Automation, len(entry.rules))
	copy(rules, entry.rules)

	return rules, true
}

func (c *InMemoryRulesCache) Set(boardID string, triggerType models.TriggerType, rules []*models.Automation, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[boardID] != generation {
		return
	}

	stored := make([]*models.Automation, len(rules))
	copy(stored, rules)

	c.entries[cacheKey{boardID, triggerType}] = cacheEntry{rules: stored, cachedAt: c.clock.Now()}
}

func (c *InMemoryRulesCache) Generation(boardID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.generations[boardID]
}

func (c *InMemoryRulesCache) InvalidateBoard(boardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[boardID]++

	for key := range c.entries {
		if key.boardID == boardID {
			delete(c.entries, key)
		}
	}
}
