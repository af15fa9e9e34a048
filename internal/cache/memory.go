package cache

import (
	"container/list"
	"context"
	"sync"
)

type memoryEntry struct {
	key   string
	value []byte
}

// Memory is an in-process bounded store.
type Memory struct {
	mu       sync.Mutex
	capacity int
	policy   Policy
	order    *list.List // front = most recently used
	items    map[string]*list.Element
}

func NewMemory(capacity int, policy Policy) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{
		capacity: capacity,
		policy:   policy,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if m.policy == PolicyLRU {
		m.order.MoveToFront(el)
	}
	return el.Value.(*memoryEntry).value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		el.Value.(*memoryEntry).value = value
		if m.policy == PolicyLRU {
			m.order.MoveToFront(el)
		}
		return nil
	}

	if len(m.items) >= m.capacity {
		if m.policy == PolicyFreeze {
			return nil
		}
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memoryEntry).key)
	}

	m.items[key] = m.order.PushFront(&memoryEntry{key: key, value: value})
	return nil
}

func (m *Memory) Len(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *Memory) Capacity() int {
	return m.capacity
}
