package dedupe

import "runtime/debug"

// MapBackend keeps every element in memory
type MapBackend struct {
	storage map[string]struct{}
}

func NewMapBackend() *MapBackend {
	return &MapBackend{storage: map[string]struct{}{}}
}

func (m *MapBackend) Upsert(elem string) error {
	m.storage[elem] = struct{}{}
	return nil
}

func (m *MapBackend) Len() int {
	return len(m.storage)
}

func (m *MapBackend) IterCallback(callback func(elem string)) error {
	for k := range m.storage {
		callback(k)
	}
	return nil
}

func (m *MapBackend) Cleanup() {
	m.storage = nil
	// release the map at once instead of waiting for the runtime
	// to hand memory back in chunks
	debug.FreeOSMemory()
}
