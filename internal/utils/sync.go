package utils

import (
	"sync"
)

// OptionalMutex guards tracker state with a shared process-wide mutex. When
// UseMutex is false the consumer has promised external synchronization and
// all lock operations no-op.
type OptionalMutex struct {
	Mutex    *sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}
