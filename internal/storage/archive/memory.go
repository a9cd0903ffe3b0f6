package archive

import (
	"context"
	"sync"
)

// Memory keeps documents in process memory. Contents are lost on exit.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Write(ctx context.Context, path string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[path] = buf
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[path]
	if !ok {
		return nil, notFound(path)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (m *Memory) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}
