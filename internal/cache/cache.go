// Package cache provides the in-process store of enriched documents. Entries
// carry an absolute expiry and are evicted lazily when accessed after it.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/starford/memoirs/internal/models"
)

// Entry is an immutable cached value. A zero expiry never expires.
type Entry interface {
	Expiry() time.Time
}

// NoteEntry caches one resolved memo.
type NoteEntry struct {
	Document  *models.Document
	Relations []models.ResolvedRelation
	ExpiresAt time.Time
}

// Expiry implements Entry.
func (e *NoteEntry) Expiry() time.Time { return e.ExpiresAt }

// ListEntry caches one page of a list query.
type ListEntry struct {
	Documents []*models.Document
	HasMore   bool
	ExpiresAt time.Time
}

// Expiry implements Entry.
func (e *ListEntry) Expiry() time.Time { return e.ExpiresAt }

// MenuEntry caches the navigation menu of a partition.
type MenuEntry struct {
	Items     []models.MenuItem
	ExpiresAt time.Time
}

// Expiry implements Entry.
func (e *MenuEntry) Expiry() time.Time { return e.ExpiresAt }

// Stats summarises the cache content.
type Stats struct {
	EntryCount     int `json:"entryCount"`
	PartitionCount int `json:"partitionCount"`
}

// Cache is safe for concurrent use. Readers never block each other; writers
// and evictions are serialised so an eviction never removes a newer entry.
type Cache struct {
	items *gocache.Cache
	mu    sync.Mutex
	now   func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache. go-cache's janitor is disabled; expiry is
// tracked per entry.
func New(opts ...Option) *Cache {
	c := &Cache{
		items: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key unless it is missing or expired. Expired
// entries are deleted.
func (c *Cache) Get(key string) (Entry, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(Entry)
	if !c.expired(e) {
		return e, true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another writer may have replaced the entry meanwhile.
	if cur, ok := c.items.Get(key); ok && c.expired(cur.(Entry)) {
		c.items.Delete(key)
	}
	return nil, false
}

// Note returns the NoteEntry for key.
func (c *Cache) Note(key string) (*NoteEntry, bool) {
	e, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	n, ok := e.(*NoteEntry)
	return n, ok
}

// List returns the ListEntry for key.
func (c *Cache) List(key string) (*ListEntry, bool) {
	e, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := e.(*ListEntry)
	return l, ok
}

// Menu returns the MenuEntry for key.
func (c *Cache) Menu(key string) (*MenuEntry, bool) {
	e, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	m, ok := e.(*MenuEntry)
	return m, ok
}

// Set stores e under key, replacing any previous entry.
func (c *Cache) Set(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Set(key, e, gocache.NoExpiration)
}

// Delete removes key unconditionally.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Delete(key)
}

// Stats counts stored entries and the distinct partitions they belong to.
// Expired entries not yet evicted are counted.
func (c *Cache) Stats() Stats {
	items := c.items.Items()
	partitions := make(map[string]struct{})
	for key := range items {
		if p, ok := partitionOf(key); ok {
			partitions[p] = struct{}{}
		}
	}
	return Stats{EntryCount: len(items), PartitionCount: len(partitions)}
}

func (c *Cache) expired(e Entry) bool {
	exp := e.Expiry()
	return !exp.IsZero() && !c.now().Before(exp)
}
