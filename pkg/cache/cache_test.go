package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/threadscope/threadscope/engine/thread"
)

func TestKey(t *testing.T) {
	if got := Key("C8H5FiCtESk"); got != "threadscope:thread:C8H5FiCtESk" {
		t.Fatalf("key: %q", got)
	}
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	c := New("", "", time.Minute)
	if c.Enabled() {
		t.Fatal("empty addr should disable the cache")
	}

	ctx := context.Background()
	if err := c.Set(ctx, "C1", thread.ThreadResult{}); err != nil {
		t.Fatalf("Set on disabled cache: %v", err)
	}
	_, hit, err := c.Get(ctx, "C1")
	if err != nil || hit {
		t.Fatalf("Get on disabled cache: hit=%v err=%v", hit, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on disabled cache: %v", err)
	}
}

// TestLiveRoundTrip needs a reachable Redis; set REDIS_ADDR to run it.
func TestLiveRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	c := New(addr, os.Getenv("REDIS_PASSWORD"), time.Minute)
	defer c.Close()
	ctx := context.Background()

	want := thread.ThreadResult{
		Thread: thread.PostRecord{Code: "CTEST", Username: "alice", Text: "cached"},
	}
	if err := c.Set(ctx, "CTEST", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, hit, err := c.Get(ctx, "CTEST")
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if got.Thread.Code != "CTEST" || got.Thread.Text != "cached" {
		t.Errorf("round trip: %+v", got.Thread)
	}

	_, hit, err = c.Get(ctx, "CNOPE")
	if err != nil || hit {
		t.Errorf("miss should not error: hit=%v err=%v", hit, err)
	}
}
