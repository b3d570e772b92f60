// Package orientation describes how objects are rotated and sized before
// being placed, and remembers the last choices made for each category.
package orientation

import "sync"

// Memory remembers the last rotation and size indexes chosen for each object
// category. The zero value is ready to use.
type Memory struct {
	initOnce  sync.Once
	mutex     sync.RWMutex
	rotations map[string]int
	sizes     map[string]int
}

func (m *Memory) init() {
	m.rotations = make(map[string]int)
	m.sizes = make(map[string]int)
}

// Rotation returns the last rotation index of a category, or -1 when there
// is none.
func (m *Memory) Rotation(category string) int {
	return m.get(m.rotations, category)
}

func (m *Memory) SetRotation(category string, index int) {
	m.set(m.rotations, category, index)
}

// Size returns the last size index of a category, or -1 when there is none.
func (m *Memory) Size(category string) int {
	return m.get(m.sizes, category)
}

func (m *Memory) SetSize(category string, index int) {
	m.set(m.sizes, category, index)
}

func (m *Memory) get(indexes map[string]int, category string) int {
	m.initOnce.Do(m.init)
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	index, ok := indexes[category]
	if !ok {
		return -1
	}
	return index
}

func (m *Memory) set(indexes map[string]int, category string, index int) {
	m.initOnce.Do(m.init)
	m.mutex.Lock()
	defer m.mutex.Unlock()

	indexes[category] = index
}
