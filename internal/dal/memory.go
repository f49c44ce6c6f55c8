package dal

import "sync"

// MemoryDAL implements StorageDAL using in-memory storage
type MemoryDAL struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMemoryDAL creates a new in-memory data access layer
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{
		values: make(map[string]string),
	}
}

func (m *MemoryDAL) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryDAL) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.writes++
	return nil
}

func (m *MemoryDAL) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryDAL) Ping() error {
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}

// Writes returns how many Set calls have been applied
func (m *MemoryDAL) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
