package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "probe:claude"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "probe:claude", []byte("true"), time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	val, ok, err := c.Get(ctx, "probe:claude")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "true" {
		t.Errorf("expected true, got %s", val)
	}

	if err := c.Delete(ctx, "probe:claude"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if _, ok, _ := c.Get(ctx, "probe:claude"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLExpiry(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "probe:codex", []byte("false"), 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "probe:codex"); ok {
		t.Fatal("expected entry to expire")
	}
}
