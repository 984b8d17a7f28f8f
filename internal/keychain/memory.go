package keychain

import "sync"

// MemoryManager is an in-memory implementation of Manager for testing.
type MemoryManager struct {
	mu    sync.RWMutex
	items []Attributes
}

// NewMemoryManager creates an empty in-memory store.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

func (m *MemoryManager) Add(attrs Attributes) Status {
	if _, ok := attrs.String(AttrService); !ok {
		return StatusParam
	}
	item := storedAttributes(attrs)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if sameIdentity(existing, item) {
			return StatusDuplicateItem
		}
	}
	m.items = append(m.items, item)
	return StatusSuccess
}

func (m *MemoryManager) Update(query, attrs Attributes) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	updated := 0
	for _, item := range m.items {
		if !matches(query, item) {
			continue
		}
		item.Merge(storedAttributes(attrs))
		updated++
	}
	if updated == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *MemoryManager) Delete(query Attributes) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if matches(query, item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	if removed == 0 {
		return StatusItemNotFound
	}
	return StatusSuccess
}

func (m *MemoryManager) CopyMatching(query Attributes) (any, Status) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found []Attributes
	for _, item := range m.items {
		if matches(query, item) {
			found = append(found, item)
		}
	}
	return shapeResult(query, found)
}

// Len returns the number of stored items.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// storedAttributes drops query modifiers so only item attributes persist.
func storedAttributes(attrs Attributes) Attributes {
	item := attrs.Clone()
	delete(item, AttrMatchLimit)
	delete(item, AttrReturnData)
	delete(item, AttrReturnAttributes)
	if _, ok := item[AttrClass]; !ok {
		item[AttrClass] = ClassGenericPassword
	}
	return item
}
