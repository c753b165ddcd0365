package mocks

import (
	"context"
	"sync"
)

// MockAdapter is a mock implementation of storage.Adapter for testing
type MockAdapter struct {
	mu    sync.RWMutex
	slots map[string][]byte

	// For tracking calls and injecting failures in tests
	WriteCalls []WriteCall
	ClearCalls []string
	WriteErr   error
	ReadErr    error
	ClearErr   error
}

// WriteCall records parameters passed to Write
type WriteCall struct {
	Slot string
	Data []byte
}

// NewMockAdapter creates a new MockAdapter
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		slots:      make(map[string][]byte),
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write stores data in memory and records the call
func (m *MockAdapter) Write(ctx context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.WriteCalls = append(m.WriteCalls, WriteCall{Slot: slot, Data: buf})

	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.slots[slot] = buf
	return nil
}

// Read returns data previously written or seeded
func (m *MockAdapter) Read(ctx context.Context, slot string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, false, m.ReadErr
	}
	data, ok := m.slots[slot]
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

// Clear removes a slot and records the call
func (m *MockAdapter) Clear(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClearCalls = append(m.ClearCalls, slot)
	if m.ClearErr != nil {
		return m.ClearErr
	}
	delete(m.slots, slot)
	return nil
}

// Seed sets slot data directly for testing
func (m *MockAdapter) Seed(slot string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = data
}

// Stored returns the current contents of a slot
func (m *MockAdapter) Stored(slot string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	return data, ok
}

// Reset clears all slots and recorded calls
func (m *MockAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = make(map[string][]byte)
	m.WriteCalls = make([]WriteCall, 0)
	m.ClearCalls = nil
	m.WriteErr = nil
	m.ReadErr = nil
	m.ClearErr = nil
}
