package services

import (
	"sync"

	"github.com/google/uuid"
)

// keyMutex serializes mutations per aggregate instance. Unread-counter
// increments and log appends are read-modify-write, so each conversation or
// shipment gets a single-writer section keyed by its id.
type keyMutex struct {
	locks sync.Map
}

func (km *keyMutex) Lock(id uuid.UUID) func() {
	v, _ := km.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
