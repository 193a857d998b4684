package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/starford/memoirs/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock
}

var partA = models.Partition{Host: "https://a.example", User: "alice"}

func TestSetGetDelete(t *testing.T) {
	c, clock := newTestCache()
	key := NoteKey(partA, 1)
	entry := &NoteEntry{
		Document:  &models.Document{Title: "One"},
		ExpiresAt: clock.Now().Add(time.Minute),
	}
	c.Set(key, entry)

	got, ok := c.Note(key)
	if !ok {
		t.Fatal("expected entry")
	}
	if got != entry {
		t.Errorf("got a different entry")
	}

	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Error("expected entry to be deleted")
	}
}

func TestGet_ExpiredEntryIsEvicted(t *testing.T) {
	c, clock := newTestCache()
	key := NoteKey(partA, 1)
	c.Set(key, &NoteEntry{ExpiresAt: clock.Now().Add(time.Minute)})

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(key); !ok {
		t.Fatal("entry should still be valid")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(key); ok {
		t.Fatal("entry should have expired")
	}
	if n := c.Stats().EntryCount; n != 0 {
		t.Errorf("entry count after eviction = %d, want 0", n)
	}
}

func TestGet_ZeroExpiryNeverExpires(t *testing.T) {
	c, clock := newTestCache()
	key := MenuKey(partA, models.RowStatusNormal)
	c.Set(key, &MenuEntry{Items: []models.MenuItem{{ID: "a"}}})

	clock.Advance(365 * 24 * time.Hour)
	if _, ok := c.Menu(key); !ok {
		t.Fatal("menu entry should never expire")
	}
}

func TestTypedGetters_MismatchIsAbsent(t *testing.T) {
	c, clock := newTestCache()
	key := NoteKey(partA, 1)
	c.Set(key, &ListEntry{ExpiresAt: clock.Now().Add(time.Minute)})
	if _, ok := c.Note(key); ok {
		t.Error("list entry must not be returned as note")
	}
	if _, ok := c.List(key); !ok {
		t.Error("list entry should be returned as list")
	}
}

func TestStats(t *testing.T) {
	c, clock := newTestCache()
	exp := clock.Now().Add(time.Minute)
	partB := models.Partition{Host: "https://b.example", User: "bob"}
	partA2 := models.Partition{Host: partA.Host, User: "carol"}

	c.Set(NoteKey(partA, 1), &NoteEntry{ExpiresAt: exp})
	c.Set(NoteKey(partA, 2), &NoteEntry{ExpiresAt: exp})
	c.Set(ListKey(partA, models.MemoQuery{Limit: 20}), &ListEntry{ExpiresAt: exp})
	c.Set(NoteKey(partB, 1), &NoteEntry{ExpiresAt: exp})
	c.Set(NoteKey(partA2, 1), &NoteEntry{ExpiresAt: exp})

	s := c.Stats()
	if s.EntryCount != 5 {
		t.Errorf("entries = %d, want 5", s.EntryCount)
	}
	if s.PartitionCount != 3 {
		t.Errorf("partitions = %d, want 3", s.PartitionCount)
	}
}

func TestKeys_Deterministic(t *testing.T) {
	q := models.MemoQuery{Tag: "go", RowStatus: models.RowStatusNormal, FilterPages: true, Limit: 20}
	if ListKey(partA, q) != ListKey(partA, q) {
		t.Error("identical queries produced different keys")
	}
	if NoteKey(partA, 5) != NoteKey(partA, 5) {
		t.Error("identical notes produced different keys")
	}
}

func TestKeys_NoCollisions(t *testing.T) {
	partB := models.Partition{Host: "https://b.example", User: "alice"}
	keys := []string{
		NoteKey(partA, 5),
		NoteKey(partB, 5),
		NoteKey(partA, 55),
		NoteKey(models.Partition{Host: "x§y", User: "z"}, 5),
		NoteKey(models.Partition{Host: "x", User: "y§z"}, 5),
		ListKey(partA, models.MemoQuery{Tag: "a_b"}),
		ListKey(partA, models.MemoQuery{Tag: "a", Content: "b"}),
		ListKey(partA, models.MemoQuery{Content: "a"}),
		ListKey(partA, models.MemoQuery{Tag: "a"}),
		ListKey(partA, models.MemoQuery{Tag: "a", FilterPages: true}),
		ListKey(partA, models.MemoQuery{Tag: "a", Limit: 20}),
		ListKey(partA, models.MemoQuery{Tag: "a", Limit: 20, Offset: 20}),
		MenuKey(partA, models.RowStatusNormal),
		MenuKey(partA, models.RowStatusArchived),
	}
	seen := make(map[string]int)
	for i, k := range keys {
		if j, dup := seen[k]; dup {
			t.Errorf("key %d collides with key %d: %q", i, j, k)
		}
		seen[k] = i
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, clock := newTestCache()
	exp := clock.Now().Add(time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := NoteKey(partA, int64(i%10))
				c.Set(key, &NoteEntry{Document: &models.Document{Title: fmt.Sprint(w)}, ExpiresAt: exp})
				if e, ok := c.Note(key); ok && e.Document == nil {
					t.Error("partial entry observed")
				}
				if i%7 == 0 {
					c.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := c.Stats().EntryCount; n > 10 {
		t.Errorf("entry count = %d, want at most 10", n)
	}
}
