package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockStorage is an in-memory ObjectStorage for testing
type MockStorage struct {
	objects map[string][]byte
	mu      sync.RWMutex
	// FailPut makes PutObject return an error
	FailPut bool
}

// NewMockStorage creates an empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{objects: make(map[string][]byte)}
}

// PutObject stores body in memory
func (m *MockStorage) PutObject(_ context.Context, key string, body []byte, _ string) error {
	if m.FailPut {
		return fmt.Errorf("mock storage: put failed")
	}
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), body...)
	m.mu.Unlock()
	return nil
}

// DeleteObject removes key
func (m *MockStorage) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// PublicURL returns a fake bucket URL
func (m *MockStorage) PublicURL(key string) string {
	return "https://test-bucket.s3.eu-central-1.amazonaws.com/" + key
}

// KeyFromURL reverses PublicURL
func (m *MockStorage) KeyFromURL(rawURL string) (string, bool) {
	key := strings.TrimPrefix(rawURL, m.PublicURL(""))
	return key, key != rawURL && key != ""
}

// Exists reports whether key is stored
func (m *MockStorage) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Object returns the stored bytes for key
func (m *MockStorage) Object(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key]
}

// Len returns the number of stored objects
func (m *MockStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
