package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ObjectStore keeps objects in memory and hands out mem:// URLs.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	seq     int

	PutError    error
	ListError   error
	DeleteError error
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *ObjectStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.PutError != nil {
		return "", s.PutError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("originals/%d", s.seq)
	s.objects[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return "mem://" + key, nil
}

func (s *ObjectStore) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ObjectStore) DeleteObjects(ctx context.Context, keys []string) error {
	if s.DeleteError != nil {
		return s.DeleteError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
		delete(s.types, k)
	}
	return nil
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// ContentType returns the content type an object was stored with.
func (s *ObjectStore) ContentType(url string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.types[strings.TrimPrefix(url, "mem://")]
}
