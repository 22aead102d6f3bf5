package lock

import (
	"context"
	"sync"
)

// Memory is an in-process Locker for single-node runs and tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemory() *Memory { return &Memory{held: make(map[string]bool)} }

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, ErrLocked
	}
	m.held[key] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}
