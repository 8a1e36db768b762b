package storage

import (
	"fmt"
	"sync"
)

// InMemoryStore is a Store implementation powered by a map, to be used for
// testing or as the default controller backend.
type InMemoryStore struct {
	sync.Mutex
	m map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		m: make(map[string]string),
	}
}

func (s *InMemoryStore) Put(key, value string) (err error) {
	s.Lock()
	s.m[key] = value
	s.Unlock()
	return nil
}

func (s *InMemoryStore) Get(key string) (value string, err error) {
	s.Lock()
	value, ok := s.m[key]
	s.Unlock()
	if !ok {
		return "", fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return value, nil
}
