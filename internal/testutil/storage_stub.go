// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"
	"time"
)

// ErrStoreFailure is returned by MemoryStore operations configured to fail.
var ErrStoreFailure = errors.New("object store unavailable")

// StoredObject is one object held by MemoryStore.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryStore is an in-memory object store for tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]StoredObject

	// FailPut makes Put fail for keys it returns true for.
	FailPut func(key string) bool
	// FailDelete makes every Delete fail.
	FailDelete bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]StoredObject)}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if s.FailPut != nil && s.FailPut(key) {
		return ErrStoreFailure
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: data, ContentType: contentType}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.FailDelete {
		return ErrStoreFailure
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Driver() string { return "memory" }

// Get returns a stored object.
func (s *MemoryStore) Get(key string) (StoredObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Keys lists stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
