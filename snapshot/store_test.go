package snapshot

import (
	"testing"
)

func TestMemoryStorePutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put([]byte("sequencer-block-3"), []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, err := s.Get([]byte("sequencer-block-3"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "payload" {
		t.Fatalf("Get = %q, want %q", v, "payload")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get([]byte("nope")); err != ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Put([]byte("da-current-block"), []byte("1"))
	_ = s.Put([]byte("da-current-block"), []byte("2"))
	v, err := s.Get([]byte("da-current-block"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "2" {
		t.Fatalf("Get after overwrite = %q, want %q", v, "2")
	}
}

func TestMemoryStoreDoesNotAliasPutValue(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("original")
	_ = s.Put([]byte("k"), buf)
	buf[0] = 'X'

	v, err := s.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(v) != "original" {
		t.Fatalf("Put should copy its value; got %q", v)
	}
}

func TestReadCacheSetGet(t *testing.T) {
	c := NewReadCache(1024 * 1024)
	c.Set([]byte("k"), []byte("v"))
	v, ok := c.Get([]byte("k"))
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(v) != "v" {
		t.Fatalf("Get = %q, want %q", v, "v")
	}
}

func TestReadCacheMiss(t *testing.T) {
	c := NewReadCache(1024 * 1024)
	if _, ok := c.Get([]byte("absent")); ok {
		t.Fatal("expected cache miss")
	}
}
