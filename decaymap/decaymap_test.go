package decaymap

import (
	"sync"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	m := New[string, int]()

	if _, ok := m.Get("a"); ok {
		t.Error("wanted a to not exist yet")
	}

	m.Set("a", 42, time.Minute)

	val, ok := m.Get("a")
	if !ok {
		t.Fatal("wanted a to exist")
	}
	if val != 42 {
		t.Errorf("wanted 42, got: %d", val)
	}
}

func TestExpiry(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1, 10*time.Millisecond)

	time.Sleep(15 * time.Millisecond)

	if _, ok := m.Get("a"); ok {
		t.Error("wanted a to be expired")
	}
}

func TestTakeOnce(t *testing.T) {
	m := New[string, string]()
	m.Set("key", "value", time.Minute)

	val, ok := m.Take("key")
	if !ok {
		t.Fatal("first Take should succeed")
	}
	if val != "value" {
		t.Errorf("wanted %q, got: %q", "value", val)
	}

	if _, ok := m.Take("key"); ok {
		t.Error("second Take should fail")
	}
}

func TestTakeConcurrent(t *testing.T) {
	m := New[string, int]()
	m.Set("key", 1, time.Minute)

	const workers = 8
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take("key"); ok {
				wins <- struct{}{}
			}
		}()
	}

	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}

	if count != 1 {
		t.Errorf("wanted exactly one Take to win, got: %d", count)
	}
}

func TestCleanup(t *testing.T) {
	m := New[string, int]()
	m.Set("dead", 1, -time.Second)
	m.Set("alive", 2, time.Minute)

	m.Cleanup()

	if m.Len() != 1 {
		t.Errorf("wanted 1 entry after cleanup, got: %d", m.Len())
	}

	if _, ok := m.Get("alive"); !ok {
		t.Error("wanted alive to survive cleanup")
	}
}
