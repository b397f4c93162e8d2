package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestMemoryStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(ttl)
	store.now = clock.Now
	return store, clock
}

func TestMemoryStoreGetCreatesDefault(t *testing.T) {
	store, _ := newTestMemoryStore(time.Minute)
	s, err := store.Get(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ID != "new-user" || s.State != StateInitial {
		t.Errorf("unexpected default session %+v", s)
	}
	if store.Len() != 0 {
		t.Error("Get should not persist the default session")
	}
}

func TestMemoryStorePutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(30 * time.Minute)

	s := New("u1")
	s.State = StateAwaitingEmail
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if want := clock.Now().Add(30 * time.Minute); !s.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, want)
	}

	clock.Advance(20 * time.Minute)
	got, _ := store.Get(ctx, "u1")
	if got.State != StateAwaitingEmail {
		t.Fatalf("expected stored state, got %q", got.State)
	}
	if err := store.Put(ctx, got); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock.Advance(20 * time.Minute)
	got, _ = store.Get(ctx, "u1")
	if got.State != StateAwaitingEmail {
		t.Error("activity should have extended the session past the original deadline")
	}
}

func TestMemoryStoreExpiredReturnsDefault(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(time.Minute)

	s := New("u1")
	s.State = StateVerified
	s.Email = "a@b.com"
	_ = store.Put(ctx, s)

	clock.Advance(2 * time.Minute)
	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != StateInitial || got.Email != "" {
		t.Errorf("expired session should come back fresh, got %+v", got)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestMemoryStore(time.Minute)

	s := New("u1")
	s.History = []Turn{{Role: RoleUser, Text: "original"}}
	_ = store.Put(ctx, s)
	s.History[0].Text = "mutated after put"

	got, _ := store.Get(ctx, "u1")
	if got.History[0].Text != "original" {
		t.Error("stored session shares memory with the caller")
	}
	got.History[0].Text = "mutated after get"
	again, _ := store.Get(ctx, "u1")
	if again.History[0].Text != "original" {
		t.Error("returned session shares memory with the store")
	}
}

func TestMemoryStoreDeleteAndSweep(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestMemoryStore(time.Minute)

	for _, id := range []string{"a", "b", "c"} {
		_ = store.Put(ctx, New(id))
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", store.Len())
	}

	clock.Advance(30 * time.Second)
	_ = store.Put(ctx, New("d"))
	clock.Advance(45 * time.Second)

	removed, err := store.Sweep(ctx, clock.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 swept, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("expected only d to remain, got %d sessions", store.Len())
	}
}

func TestMemoryStoreConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			for j := 0; j < 20; j++ {
				s, err := store.Get(ctx, id)
				if err != nil {
					t.Errorf("Get: %v", err)
					return
				}
				s.Append(12, Turn{Role: RoleUser, Text: fmt.Sprint(j)})
				_ = store.Put(ctx, s)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		s, _ := store.Get(ctx, fmt.Sprintf("user-%d", i))
		if len(s.History) != 12 || s.History[11].Text != "19" {
			t.Fatalf("user-%d: unexpected history %+v", i, s.History)
		}
	}
}
