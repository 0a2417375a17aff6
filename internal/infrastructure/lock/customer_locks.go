// Package lock provides in-process serialization keyed by customer.
// The billing submission flow (evaluate credit, create billing, allocate
// advances) is a read-then-write sequence over per-customer balances; the
// keyed mutex makes concurrent submissions for the same customer queue
// instead of racing. Cross-process safety still comes from optimistic
// locking at the storage layer.
package lock

import (
	"sync"

	"github.com/google/uuid"
)

// CustomerLocks hands out one mutex per customer ID
type CustomerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewCustomerLocks creates a new customer lock registry
func NewCustomerLocks() *CustomerLocks {
	return &CustomerLocks{
		locks: make(map[uuid.UUID]*entry),
	}
}

// Lock acquires the mutex for the given customer, blocking until available.
// The returned function releases it and must be called exactly once.
func (c *CustomerLocks) Lock(customerID uuid.UUID) func() {
	c.mu.Lock()
	e, ok := c.locks[customerID]
	if !ok {
		e = &entry{}
		c.locks[customerID] = e
	}
	e.refs++
	c.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		c.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(c.locks, customerID)
		}
		c.mu.Unlock()
	}
}
