package datasource

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/logger"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache[string](time.Second)

	c.Set("key1", "value1")
	v, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if v != "value1" {
		t.Fatalf("got %v, want value1", v)
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache[int](time.Second)
	if _, ok := c.Get("nonexistent"); ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string](time.Millisecond)
	c.Set("key", "val")

	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("key"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache[string](0)
	c.Set("key", "val")
	if _, ok := c.Get("key"); ok {
		t.Fatal("zero TTL should disable caching")
	}
}

func TestCacheGetEvictsExpired(t *testing.T) {
	c := NewCache[string](time.Millisecond)
	c.Set("expired", "val")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("expired"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
	if n := c.Len(); n != 0 {
		t.Fatalf("expected expired entry removed on Get, have %d", n)
	}
}

func TestCacheSetSweepsUnreadKeys(t *testing.T) {
	c := NewCache[int](time.Millisecond)
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("query-%d", i), i)
	}
	time.Sleep(5 * time.Millisecond)

	c.Set("fresh", 1)
	if n := c.Len(); n != 1 {
		t.Fatalf("expected only the fresh entry after sweep, have %d", n)
	}
	if v, ok := c.Get("fresh"); !ok || v != 1 {
		t.Fatalf("Get(fresh) = %v, %v; want 1, true", v, ok)
	}
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d failed: %v", i, err)
		}
	}
}

func TestRateLimiterCancelledContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestErrHTTP(t *testing.T) {
	e := &ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "page not found"}
	if msg := e.Error(); msg != "HTTP 404 404 Not Found: page not found" {
		t.Fatalf("unexpected error message: %s", msg)
	}
	if e.Temporary() {
		t.Fatal("404 is not temporary")
	}
	for _, code := range []int{429, 500, 503} {
		if !(&ErrHTTP{StatusCode: code}).Temporary() {
			t.Fatalf("%d should be temporary", code)
		}
	}
}

func TestIsFinanceRelated(t *testing.T) {
	tests := []struct {
		title, desc string
		want        bool
	}{
		{"Stocks rally", "", true},
		{"Startup files for IPO", "The company plans to list", true},
		{"Weather", "Bondholders meet on Friday", true},
		{"Local team wins cup", "Fans celebrate in the city", false},
		{"", "", false},
		{"NIFTY closes higher", "", true},
	}
	for _, tt := range tests {
		if got := IsFinanceRelated(tt.title, tt.desc); got != tt.want {
			t.Errorf("IsFinanceRelated(%q, %q) = %v, want %v", tt.title, tt.desc, got, tt.want)
		}
	}
}

func TestNewFetcherFromConfig(t *testing.T) {
	withKey := NewFetcherFromConfig(config.NewsConfig{APIKey: "key-123456789"}, logger.Discard())
	if _, ok := withKey.(*Currents); !ok {
		t.Fatalf("expected *Currents, got %T", withKey)
	}

	noKey := NewFetcherFromConfig(config.NewsConfig{}, logger.Discard())
	rss, ok := noKey.(*RSS)
	if !ok {
		t.Fatalf("expected *RSS, got %T", noKey)
	}
	if len(rss.feeds) != len(config.DefaultFeeds) {
		t.Fatalf("expected default feeds, got %v", rss.feeds)
	}
}
