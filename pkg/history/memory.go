package history

import "sync"

// Memory is an in-process History. It keeps the whole entry stack so callers
// can assert that replace-mode writes never push.
type Memory struct {
	mu      sync.RWMutex
	entries []string
}

// NewMemory creates a history whose only entry is initial.
func NewMemory(initial string) *Memory {
	return &Memory{entries: []string{initial}}
}

// Current returns the top entry.
func (m *Memory) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[len(m.entries)-1]
}

// Replace overwrites the top entry.
func (m *Memory) Replace(url string) error {
	m.mu.Lock()
	m.entries[len(m.entries)-1] = url
	m.mu.Unlock()
	return nil
}

// Push appends a new entry.
func (m *Memory) Push(url string) error {
	m.mu.Lock()
	m.entries = append(m.entries, url)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries on the stack.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entries returns a copy of the stack, oldest first.
func (m *Memory) Entries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}
