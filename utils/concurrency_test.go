package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStringSetNoDuplicates(t *testing.T) {
	s := NewStringSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same value should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
	if !s.Contains("https://example.com/1") {
		t.Error("Contains should report the added value")
	}
}

func TestStringSetConcurrency(t *testing.T) {
	s := NewStringSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var running, peak int64

	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency: got %d, want <= 2", peak)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	start := time.Now()
	for i := 0; i < 3; i++ {
		pool.Submit(func() {})
	}
	pool.Wait()

	min := 2 * time.Duration(rateLimitMs) * time.Millisecond
	if elapsed := time.Since(start); elapsed < min {
		t.Errorf("3 jobs finished in %v, want at least %v", elapsed, min)
	}
}
