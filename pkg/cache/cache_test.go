package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", []byte("value1"), 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || !bytes.Equal(val, []byte("value1")) {
		t.Fatalf("expected value1, got %q, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", []byte("value1"), 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestExpiredKeysAreDropped(t *testing.T) {
	c := New()
	c.Set("key1", []byte("value1"), 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	c.Get("key1")
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted on read, have %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", []byte("value1"), 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}
