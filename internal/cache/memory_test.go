package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type session struct {
	ID    string
	Email string
}

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache() (*Memory[string, session], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory[string, session]()
	c.now = clock.Now
	return c, clock
}

// stored counts the entries held by c, expired ones included until swept.
func stored[K comparable, V any](c *Memory[K, V]) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func TestMemory_Basic(t *testing.T) {
	c, _ := newTestCache()

	s1 := session{ID: "s1", Email: "alice@example.com"}
	c.Set("s1", s1, 0)

	if got, ok := c.Get("s1"); !ok || got != s1 {
		t.Errorf("Get(s1) = %v, %v; want %v, true", got, ok, s1)
	}
	if n := stored(c); n != 1 {
		t.Errorf("stored = %d, want 1", n)
	}

	c.Del("s1")
	if _, ok := c.Get("s1"); ok {
		t.Error("Get(s1) found item after Del")
	}
	if n := stored(c); n != 0 {
		t.Errorf("stored = %d, want 0", n)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c, clock := newTestCache()

	c.Set("short", session{ID: "short"}, time.Minute)
	c.Set("forever", session{ID: "forever"}, 0)

	clock.Advance(2 * time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("expired item still visible")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("item without ttl disappeared")
	}

	if n := stored(c); n != 2 {
		t.Errorf("stored before sweep = %d, want 2", n)
	}
	if removed := c.DeleteExpired(); removed != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", removed)
	}
	if n := stored(c); n != 1 {
		t.Errorf("stored after sweep = %d, want 1", n)
	}
	if removed := c.DeleteExpired(); removed != 0 {
		t.Errorf("second DeleteExpired() = %d, want 0", removed)
	}
}

func TestMemory_GetOrSet(t *testing.T) {
	c, clock := newTestCache()

	calls := 0
	create := func() session {
		calls++
		return session{ID: "created"}
	}

	first := c.GetOrSet("k", create, time.Minute)
	second := c.GetOrSet("k", create, time.Minute)
	if first != second || calls != 1 {
		t.Errorf("GetOrSet created %d times, want 1", calls)
	}

	// Access slides the expiry forward.
	clock.Advance(50 * time.Second)
	c.GetOrSet("k", create, time.Minute)
	clock.Advance(50 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("GetOrSet did not refresh ttl")
	}

	clock.Advance(2 * time.Minute)
	c.GetOrSet("k", create, time.Minute)
	if calls != 2 {
		t.Errorf("expired entry was not recreated, calls = %d", calls)
	}
}

func TestMemory_UpdateAndTake(t *testing.T) {
	c := NewMemory[string, []string]()

	push := func(v string) {
		c.Update("queue", func(cur []string, _ bool) []string {
			return append(cur, v)
		}, time.Minute)
	}
	push("a")
	push("b")

	got, ok := c.Take("queue")
	if !ok || len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Take() = %v, %v; want [a b], true", got, ok)
	}
	if _, ok := c.Take("queue"); ok {
		t.Error("Take() returned a value twice")
	}
}

func TestMemory_Janitor(t *testing.T) {
	c := NewMemory[string, int]()
	c.Set("gone", 1, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartJanitor(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for stored(c) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not sweep expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemory_Concurrency(t *testing.T) {
	c := NewMemory[int, int]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.Set(id, id, time.Minute)
			c.Get(id)
			c.GetOrSet(id%10, func() int { return id }, time.Minute)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		if _, ok := c.Get(i); !ok {
			t.Errorf("Get(%d) missing after concurrent writes", i)
		}
	}
	if n := stored(c); n != 100 {
		t.Errorf("stored = %d, want 100", n)
	}
}
